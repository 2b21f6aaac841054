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

	"github.com/ctessum/sparse"
)

// VarMapping binds a logical forcing variable to the source dataset
// variables it is derived from.
type VarMapping struct {
	// Name is a key of the variable table, e.g. "temperature".
	Name string
	// SourceVars are the dataset variable names. Most variables take
	// one; wind and split radiation derivations take several.
	SourceVars []string
}

// Extractor reads source variables over the resolved spatial subset
// and time index and derives forcing fields from them.
type Extractor struct {
	src Source
	sub *IndexSet
	ti  *TimeIndex

	// msgChan, if non-nil, receives progress messages.
	msgChan chan string
}

// NewExtractor creates an Extractor operating on the given spatial
// subset and time index of src.
func NewExtractor(src Source, sub *IndexSet, ti *TimeIndex) *Extractor {
	return &Extractor{src: src, sub: sub, ti: ti}
}

func (e *Extractor) msg(format string, a ...interface{}) {
	if e.msgChan != nil {
		e.msgChan <- fmt.Sprintf(format, a...)
	}
}

// loadRaw reads one source variable from every file in the time index
// and stacks the slices into a [time, y, x] array, multiplying each
// element by factor. Fill values (NaN) become zero.
func (e *Extractor) loadRaw(variable string, factor float64, reduce Reducer) (*sparse.DenseArray, error) {
	nt := len(e.ti.Files)
	ny := e.sub.NRows()
	nx := e.sub.NCols()
	out := sparse.ZerosDense(nt, ny, nx)
	for it, file := range e.ti.Files {
		slice, err := e.src.Load(file, variable, e.sub, reduce)
		if err != nil {
			return nil, fmt.Errorf("metforce: reading %s from %s: %v", variable, file, err)
		}
		if len(slice.Shape) != 2 || slice.Shape[0] != ny || slice.Shape[1] != nx {
			return nil, fmt.Errorf("metforce: %s in %s has shape %v; want [%d %d]",
				variable, file, slice.Shape, ny, nx)
		}
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				v := slice.Get(j, i)
				if math.IsNaN(v) {
					v = 0
				}
				out.Set(v*factor, it, j, i)
			}
		}
	}
	return out, nil
}

// Extract derives the forcing field for mapping in native source
// cadence, as a [time, y, x] array in the units required by format.
// The returned array still needs hourly aggregation.
func (e *Extractor) Extract(mapping VarMapping, format Format) (*sparse.DenseArray, error) {
	spec, err := VariableByName(mapping.Name)
	if err != nil {
		return nil, err
	}
	factor, ok := spec.Factor[format]
	if !ok {
		return nil, fmt.Errorf("metforce: variable %s has no %s output", mapping.Name, format)
	}
	e.msg("extracting %s from %v", mapping.Name, mapping.SourceVars)

	var data *sparse.DenseArray
	switch mapping.Name {
	case "direct_radiation", "direct_radiation_j",
		"diffusive_radiation", "diffusive_radiation_j":
		data, err = e.splitRadiation(mapping, spec, factor, false)
	case "direct_radiation_cc", "diffusive_radiation_cc":
		data, err = e.splitRadiation(mapping, spec, factor, true)
	case "relative_humidity":
		data, err = e.relativeHumidity(mapping, factor)
	case "relative_humidity_dew":
		data, err = e.relativeHumidityDew(mapping, factor)
	case "wind_speed", "wind_speed_kmd", "wind_speed_kts":
		data, err = e.windSpeed(mapping, factor, spec.Reduce4D)
	case "precipitation_rate":
		data, err = e.precipitation(mapping, factor, spec.Reduce4D)
	case "precipitation_inc":
		data, err = e.precipitation(mapping, factor, spec.Reduce4D)
		if err == nil && format != FormatGage {
			// mm per source step to a normalized mm/hr rate.
			data.Scale(3600 / float64(e.ti.StepSeconds))
		}
	case "precipitation_acc":
		if format == FormatGage {
			// Gage ACCUM records carry the running totals themselves.
			data, err = e.precipitation(mapping, factor, spec.Reduce4D)
		} else {
			data, err = e.precipitationAcc(mapping, factor, spec.Reduce4D)
			if err == nil {
				data.Scale(3600 / float64(e.ti.StepSeconds))
			}
		}
	default:
		data, err = e.generic(mapping, spec, factor)
	}
	if err != nil {
		return nil, err
	}
	if convert, ok := spec.Convert[format]; ok {
		for i, v := range data.Elements {
			data.Elements[i] = convert(v)
		}
	}
	return data, nil
}

// generic handles single-source variables: load, scale, and if the
// variable carries a vertical reducer, collapse it.
func (e *Extractor) generic(mapping VarMapping, spec VariableSpec, factor float64) (*sparse.DenseArray, error) {
	if len(mapping.SourceVars) != 1 {
		return nil, fmt.Errorf("metforce: variable %s wants 1 source variable; got %v",
			mapping.Name, mapping.SourceVars)
	}
	return e.loadRaw(mapping.SourceVars[0], factor, spec.Reduce4D)
}

// splitRadiation derives direct or diffusive shortwave radiation. A
// single source variable is already the direct or diffusive component
// (e.g. ERA accumulated radiation fields) and is only loaded and
// scaled. Two source variables split global radiation by the
// diffusive fraction:
//
//	direct    = (1 - fraction) * global
//	diffusive = fraction * global
//
// Source variable order is [global, fraction]. When fromCloud is true
// the fraction variable is a cloud cover percentage and is divided by
// 100 first. The result is scaled by the source step length in hours
// so flux values integrate correctly over the step.
func (e *Extractor) splitRadiation(mapping VarMapping, spec VariableSpec, factor float64, fromCloud bool) (*sparse.DenseArray, error) {
	stepHours := float64(e.ti.StepSeconds) / 3600
	if len(mapping.SourceVars) == 1 {
		data, err := e.loadRaw(mapping.SourceVars[0], factor, spec.Reduce4D)
		if err != nil {
			return nil, err
		}
		data.Scale(stepHours)
		return data, nil
	}
	if len(mapping.SourceVars) != 2 {
		return nil, fmt.Errorf("metforce: variable %s wants [radiation] or [global, fraction] source variables; got %v",
			mapping.Name, mapping.SourceVars)
	}
	global, err := e.loadRaw(mapping.SourceVars[0], factor, spec.Reduce4D)
	if err != nil {
		return nil, err
	}
	frac, err := e.loadRaw(mapping.SourceVars[1], 1, spec.Reduce4D)
	if err != nil {
		return nil, err
	}
	direct := spec.ParamName == "Drad"
	for i, g := range global.Elements {
		f := frac.Elements[i]
		if fromCloud {
			f /= 100
		}
		if direct {
			f = 1 - f
		}
		global.Elements[i] = f * g * stepHours
	}
	return global, nil
}

// esat is saturation vapor pressure [Pa] at temperature t [K], from
// the Magnus formula over water.
func esat(t float64) float64 {
	tc := t - 273.16
	return 611.2 * math.Exp(17.62*tc/(243.12+tc))
}

// relativeHumidity derives relative humidity [%] from specific
// humidity [kg kg-1], pressure [Pa], and temperature [K]. Source
// variable order is [specific humidity, pressure, temperature].
func (e *Extractor) relativeHumidity(mapping VarMapping, factor float64) (*sparse.DenseArray, error) {
	if len(mapping.SourceVars) != 3 {
		return nil, fmt.Errorf("metforce: variable %s wants [specific humidity, pressure, temperature] source variables; got %v",
			mapping.Name, mapping.SourceVars)
	}
	q, err := e.loadRaw(mapping.SourceVars[0], 1, nil)
	if err != nil {
		return nil, err
	}
	p, err := e.loadRaw(mapping.SourceVars[1], 1, nil)
	if err != nil {
		return nil, err
	}
	t, err := e.loadRaw(mapping.SourceVars[2], 1, nil)
	if err != nil {
		return nil, err
	}
	for i := range q.Elements {
		es := esat(t.Elements[i])
		qs := 0.622 * es / (p.Elements[i] - es)
		q.Elements[i] = 100 * q.Elements[i] / qs * factor
	}
	return q, nil
}

// relativeHumidityDew derives relative humidity [%] from dew point
// temperature and temperature, both in K. Source variable order is
// [dew point, temperature].
func (e *Extractor) relativeHumidityDew(mapping VarMapping, factor float64) (*sparse.DenseArray, error) {
	if len(mapping.SourceVars) != 2 {
		return nil, fmt.Errorf("metforce: variable %s wants [dew point, temperature] source variables; got %v",
			mapping.Name, mapping.SourceVars)
	}
	td, err := e.loadRaw(mapping.SourceVars[0], 1, nil)
	if err != nil {
		return nil, err
	}
	t, err := e.loadRaw(mapping.SourceVars[1], 1, nil)
	if err != nil {
		return nil, err
	}
	for i := range td.Elements {
		td.Elements[i] = 100 * esat(td.Elements[i]) / esat(t.Elements[i]) * factor
	}
	return td, nil
}

// windSpeed derives wind speed from either a single speed variable or
// [u, v] components. The unit conversion factor applies to each
// component before they are combined.
func (e *Extractor) windSpeed(mapping VarMapping, factor float64, reduce Reducer) (*sparse.DenseArray, error) {
	switch len(mapping.SourceVars) {
	case 1:
		return e.loadRaw(mapping.SourceVars[0], factor, reduce)
	case 2:
		u, err := e.loadRaw(mapping.SourceVars[0], factor, reduce)
		if err != nil {
			return nil, err
		}
		v, err := e.loadRaw(mapping.SourceVars[1], factor, reduce)
		if err != nil {
			return nil, err
		}
		for i, uv := range u.Elements {
			vv := v.Elements[i]
			u.Elements[i] = math.Sqrt(uv*uv + vv*vv)
		}
		return u, nil
	}
	return nil, fmt.Errorf("metforce: variable %s wants 1 or 2 source variables; got %v",
		mapping.Name, mapping.SourceVars)
}

// precipitation handles rate and incremental precipitation: one
// variable, or two whose values sum (e.g. separate rain and snow
// fields).
func (e *Extractor) precipitation(mapping VarMapping, factor float64, reduce Reducer) (*sparse.DenseArray, error) {
	switch len(mapping.SourceVars) {
	case 1:
		return e.loadRaw(mapping.SourceVars[0], factor, reduce)
	case 2:
		a, err := e.loadRaw(mapping.SourceVars[0], factor, reduce)
		if err != nil {
			return nil, err
		}
		b, err := e.loadRaw(mapping.SourceVars[1], factor, reduce)
		if err != nil {
			return nil, err
		}
		a.AddDense(b)
		return a, nil
	}
	return nil, fmt.Errorf("metforce: variable %s wants 1 or 2 source variables; got %v",
		mapping.Name, mapping.SourceVars)
}

// precipitationAcc converts run-accumulated precipitation to per-step
// increments by differencing consecutive slices. The first output
// slice is zero: the initial accumulation has no preceding slice to
// difference against, even when the run starts mid-accumulation.
func (e *Extractor) precipitationAcc(mapping VarMapping, factor float64, reduce Reducer) (*sparse.DenseArray, error) {
	acc, err := e.precipitation(mapping, factor, reduce)
	if err != nil {
		return nil, err
	}
	nt := acc.Shape[0]
	ny := acc.Shape[1]
	nx := acc.Shape[2]
	out := sparse.ZerosDense(nt, ny, nx)
	for it := 1; it < nt; it++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				out.Set(acc.Get(it, j, i)-acc.Get(it-1, j, i), it, j, i)
			}
		}
	}
	return out, nil
}
