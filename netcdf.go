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
	"os"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// ncField is one hourly forcing variable headed for the subset NetCDF
// output file.
type ncField struct {
	name         string
	standardName string
	longName     string
	units        string
	data         *sparse.DenseArray
}

// writeNetCDF writes the hourly forcing fields to a NetCDF file at
// path. The coordinate axes are the subset source grid in geographic
// degrees; latAxis must run north to south to match the row order of
// the field arrays.
func writeNetCDF(path, proj4 string, times []time.Time, latAxis, lonAxis []float64, fields []ncField) error {
	nt, ny, nx := len(times), len(latAxis), len(lonAxis)
	for _, fld := range fields {
		if len(fld.data.Shape) != 3 || fld.data.Shape[0] != nt ||
			fld.data.Shape[1] != ny || fld.data.Shape[2] != nx {
			return fmt.Errorf("metforce: %s has shape %v; want [%d %d %d]",
				fld.name, fld.data.Shape, nt, ny, nx)
		}
	}

	h := cdf.NewHeader([]string{"time", "lat", "lon"}, []int{nt, ny, nx})
	h.AddAttribute("", "Conventions", "CF-1.6")
	h.AddAttribute("", "title", "Meteorological forcing data")
	h.AddAttribute("", "history", fmt.Sprintf("created by metforce %s",
		time.Now().UTC().Format(time.RFC3339)))
	h.AddAttribute("", "proj4", proj4)

	h.AddVariable("time", []string{"time"}, []float64{0})
	h.AddAttribute("time", "standard_name", "time")
	h.AddAttribute("time", "units", "seconds since 1970-01-01 00:00:00 0:00")
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "standard_name", "latitude")
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "standard_name", "longitude")
	h.AddAttribute("lon", "units", "degrees_east")

	for _, fld := range fields {
		h.AddVariable(fld.name, []string{"time", "lat", "lon"}, []float32{0})
		h.AddAttribute(fld.name, "standard_name", fld.standardName)
		h.AddAttribute(fld.name, "long_name", fld.longName)
		h.AddAttribute(fld.name, "units", fld.units)
	}
	h.Define()

	ff, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metforce: creating output file: %v", err)
	}
	f, err := cdf.Create(ff, h) // writes the header to ff
	if err != nil {
		ff.Close()
		return err
	}

	epoch := make([]float64, nt)
	for i, t := range times {
		epoch[i] = float64(t.Unix())
	}
	if err := writeNC64(f, "time", epoch); err != nil {
		ff.Close()
		return err
	}
	if err := writeNC64(f, "lat", latAxis); err != nil {
		ff.Close()
		return err
	}
	if err := writeNC64(f, "lon", lonAxis); err != nil {
		ff.Close()
		return err
	}
	for _, fld := range fields {
		if err := writeNC32(f, fld.name, fld.data.Elements); err != nil {
			ff.Close()
			return err
		}
	}
	if err := cdf.UpdateNumRecs(ff); err != nil {
		ff.Close()
		return err
	}
	return ff.Close()
}

func writeNC32(f *cdf.File, variable string, data []float64) error {
	data32 := make([]float32, len(data))
	for i, v := range data {
		data32[i] = float32(v)
	}
	end := f.Header.Lengths(variable)
	start := make([]int, len(end))
	w := f.Writer(variable, start, end)
	_, err := w.Write(data32)
	return err
}

func writeNC64(f *cdf.File, variable string, data []float64) error {
	end := f.Header.Lengths(variable)
	start := make([]int, len(end))
	w := f.Writer(variable, start, end)
	_, err := w.Write(data)
	return err
}
