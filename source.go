/*
Copyright © 2018 the metforce authors.
This file is part of metforce.

metforce is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

metforce is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with metforce.  If not, see <http://www.gnu.org/licenses/>.
*/

package metforce

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// A Reducer collapses an extra vertical or ensemble dimension of a
// source variable to a single value per grid cell.
type Reducer func(vals []float64) float64

// ReduceMean averages across the extra dimension.
func ReduceMean(vals []float64) float64 {
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// ReduceMax takes the maximum across the extra dimension.
func ReduceMax(vals []float64) float64 {
	max := math.Inf(-1)
	for _, v := range vals {
		max = math.Max(max, v)
	}
	return max
}

// Source provides access to one kind of LSM output. Implementations
// exist per source kind (gridded regional model, geographic
// reanalysis product); the conversion pipeline itself is generic.
type Source interface {
	// Projection returns the source grid's spatial reference.
	Projection() (*ProjectionInfo, error)

	// Coords returns the source grid's coordinate arrays.
	Coords() (*CoordGrid, error)

	// Time returns the timestamp embedded in the given file.
	Time(file string) (time.Time, error)

	// TimeStep returns the native time step recorded in the source
	// file metadata, or 0 if none is recorded.
	TimeStep() (int, error)

	// Load reads one time slice of the named variable, subset to the
	// given index set, returning a [lat, lon] array. reduce collapses
	// an extra vertical dimension if the variable has one; loading a
	// 4-D variable with a nil reducer is an error.
	Load(file, variable string, sub *IndexSet, reduce Reducer) (*sparse.DenseArray, error)
}

// openNC opens a NetCDF file for reading. The caller must close the
// returned *os.File.
func openNC(path string) (*os.File, *cdf.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("metforce: opening source file: %v", err)
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("metforce: reading source file %s: %v", path, err)
	}
	return f, ff, nil
}

// toFloats converts a buffer returned by the NetCDF reader to
// float64 values.
func toFloats(buf interface{}) ([]float64, error) {
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(b))
		for i, v := range b {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("metforce: unsupported source data type %T", buf)
	}
}

// readNC reads an index subset of a variable from a NetCDF file.
// start and end give the half-open hyperslab bounds per dimension.
func readNC(ff *cdf.File, variable string, start, end []int) ([]float64, error) {
	n := 1
	for i := range start {
		n *= end[i] - start[i]
	}
	r := ff.Reader(variable, start, end)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("metforce: reading source variable %s: %v", variable, err)
	}
	return toFloats(buf)
}

// attrFloat reads a numeric attribute, which NetCDF files store as a
// one-element numeric slice.
func attrFloat(ff *cdf.File, variable, name string) (float64, bool) {
	v := ff.Header.GetAttribute(variable, name)
	if v == nil {
		return 0, false
	}
	vals, err := toFloats(v)
	if err != nil || len(vals) == 0 {
		return 0, false
	}
	return vals[0], true
}

// attrString reads a text attribute.
func attrString(ff *cdf.File, variable, name string) (string, bool) {
	v := ff.Header.GetAttribute(variable, name)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// loadSubset reads one time slice of a variable subset to the given
// index set, collapsing an extra vertical dimension with reduce when
// the variable is 4-D. Variables are assumed to be laid out
// [time, lat, lon], [time, level, lat, lon], or [lat, lon].
func loadSubset(ff *cdf.File, variable string, sub *IndexSet, reduce Reducer) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(variable)
	if len(dims) == 0 {
		return nil, fmt.Errorf("metforce: variable %s not in source file", variable)
	}
	ny, nx := sub.NRows(), sub.NCols()
	out := sparse.ZerosDense(ny, nx)
	switch len(dims) {
	case 2:
		vals, err := readNC(ff, variable,
			[]int{sub.RowStart, sub.ColStart},
			[]int{sub.RowEnd, sub.ColEnd})
		if err != nil {
			return nil, err
		}
		copy(out.Elements, vals)
	case 3:
		vals, err := readNC(ff, variable,
			[]int{0, sub.RowStart, sub.ColStart},
			[]int{1, sub.RowEnd, sub.ColEnd})
		if err != nil {
			return nil, err
		}
		copy(out.Elements, vals)
	case 4:
		if reduce == nil {
			return nil, fmt.Errorf("metforce: variable %s has 4 dimensions; "+
				"a vertical reducer is required", variable)
		}
		nz := dims[1]
		vals, err := readNC(ff, variable,
			[]int{0, 0, sub.RowStart, sub.ColStart},
			[]int{1, nz, sub.RowEnd, sub.ColEnd})
		if err != nil {
			return nil, err
		}
		column := make([]float64, nz)
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				for k := 0; k < nz; k++ {
					column[k] = vals[(k*ny+j)*nx+i]
				}
				out.Set(reduce(column), j, i)
			}
		}
	default:
		return nil, fmt.Errorf("metforce: variable %s has unsupported dimensionality %d", variable, len(dims))
	}
	return out, nil
}

// timeUnitSeconds interprets a CF-style time unit string
// ("<unit> since <epoch>") and returns the unit length in seconds and
// the epoch. Unexpected unit strings are a temporal error.
func timeUnitSeconds(units string) (float64, time.Time, error) {
	parts := strings.SplitN(units, "since", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("metforce: unexpected time units %q", units)
	}
	unit := strings.ToLower(strings.TrimSpace(parts[0]))
	var seconds float64
	switch {
	case strings.Contains(unit, "day"):
		seconds = 24 * 3600
	case strings.Contains(unit, "hour"):
		seconds = 3600
	case strings.Contains(unit, "minute"):
		seconds = 60
	case strings.Contains(unit, "second"):
		seconds = 1
	default:
		return 0, time.Time{}, fmt.Errorf("metforce: unexpected time units %q", units)
	}
	epochStr := strings.TrimSpace(parts[1])
	var epoch time.Time
	var err error
	for _, layout := range []string{
		"2006-01-02 15:04:05.0",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04",
		"2006-01-02",
	} {
		epoch, err = time.ParseInLocation(layout, epochStr, time.UTC)
		if err == nil {
			return seconds, epoch, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("metforce: unexpected time epoch %q", epochStr)
}

// embeddedTime reads the first value of the named time variable and
// converts it to a timestamp using its unit metadata.
func embeddedTime(ff *cdf.File, timeVar string) (time.Time, error) {
	units, ok := attrString(ff, timeVar, "units")
	if !ok {
		return time.Time{}, fmt.Errorf("metforce: time variable %s has no units attribute", timeVar)
	}
	unitSec, epoch, err := timeUnitSeconds(units)
	if err != nil {
		return time.Time{}, err
	}
	dims := ff.Header.Lengths(timeVar)
	if len(dims) == 0 {
		return time.Time{}, fmt.Errorf("metforce: time variable %s not in source file", timeVar)
	}
	vals, err := readNC(ff, timeVar, []int{0}, []int{1})
	if err != nil {
		return time.Time{}, err
	}
	return epoch.Add(time.Duration(vals[0] * unitSec * float64(time.Second))), nil
}
