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
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

// fakeSource is an in-memory Source for testing.
type fakeSource struct {
	proj   Projection
	coords *CoordGrid
	times  map[string]time.Time
	step   int
	// data maps file name to variable name to a full-grid array.
	data map[string]map[string]*sparse.DenseArray
}

func (s *fakeSource) Projection() (*ProjectionInfo, error) { return newProjectionInfo(s.proj) }

func (s *fakeSource) Coords() (*CoordGrid, error) { return s.coords, nil }

func (s *fakeSource) Time(file string) (time.Time, error) {
	t, ok := s.times[file]
	if !ok {
		return time.Time{}, fmt.Errorf("no timestamp for %s", file)
	}
	return t, nil
}

func (s *fakeSource) TimeStep() (int, error) { return s.step, nil }

func (s *fakeSource) Load(file, variable string, sub *IndexSet, reduce Reducer) (*sparse.DenseArray, error) {
	vars, ok := s.data[file]
	if !ok {
		return nil, fmt.Errorf("no such file %s", file)
	}
	full, ok := vars[variable]
	if !ok {
		return nil, fmt.Errorf("no such variable %s in %s", variable, file)
	}
	out := sparse.ZerosDense(sub.NRows(), sub.NCols())
	for j := 0; j < sub.NRows(); j++ {
		for i := 0; i < sub.NCols(); i++ {
			out.Set(full.Get(sub.RowStart+j, sub.ColStart+i), j, i)
		}
	}
	return out, nil
}

// newFakeSeries creates a fake source with nt hourly files on a 1×1
// geographic grid, setting the named variables to the given per-file
// values.
func newFakeSeries(nt int, vals map[string][]float64) (*fakeSource, []string) {
	base := time.Date(2016, 1, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		proj:   Geographic{},
		coords: &CoordGrid{Lat: []float64{35}, Lon: []float64{-100}},
		times:  make(map[string]time.Time),
		step:   3600,
		data:   make(map[string]map[string]*sparse.DenseArray),
	}
	files := make([]string, nt)
	for i := 0; i < nt; i++ {
		file := fmt.Sprintf("file%d.nc", i)
		files[i] = file
		src.times[file] = base.Add(time.Duration(i) * time.Hour)
		src.data[file] = make(map[string]*sparse.DenseArray)
		for name, v := range vals {
			a := sparse.ZerosDense(1, 1)
			a.Set(v[i], 0, 0)
			src.data[file][name] = a
		}
	}
	return src, files
}

func newFakeExtractor(t *testing.T, src *fakeSource, files []string) *Extractor {
	t.Helper()
	ti, err := BuildTimeIndex(src, files, TimeOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := src.coords.Size()
	return NewExtractor(src, &IndexSet{RowStart: 0, RowEnd: rows, ColStart: 0, ColEnd: cols}, ti)
}

func TestExtractWindSpeed(t *testing.T) {
	const tolerance = 1.0e-10

	src, files := newFakeSeries(1, map[string][]float64{
		"U10": {3},
		"V10": {4},
	})
	ext := newFakeExtractor(t, src, files)

	data, err := ext.Extract(VarMapping{Name: "wind_speed", SourceVars: []string{"U10", "V10"}}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	// The m/s to knots factor applies to each component before they
	// are combined, so the result equals 5 times the factor.
	want := 5 * 1.94
	if different := math.Abs(data.Get(0, 0, 0) - want); different > tolerance {
		t.Errorf("wind speed: want %g but have %g", want, data.Get(0, 0, 0))
	}

	_, err = ext.Extract(VarMapping{Name: "wind_speed", SourceVars: []string{"U10", "V10", "W10"}}, FormatASCII)
	if err == nil {
		t.Error("three-component wind mapping should be an error")
	}
}

func TestExtractRelativeHumiditySaturation(t *testing.T) {
	const tolerance = 1.0e-6
	const temp = 293.16
	const pres = 101325.0

	es := esat(temp)
	qs := 0.622 * es / (pres - es)
	src, files := newFakeSeries(1, map[string][]float64{
		"Q2":   {qs},
		"PSFC": {pres},
		"T2":   {temp},
	})
	ext := newFakeExtractor(t, src, files)

	data, err := ext.Extract(VarMapping{
		Name:       "relative_humidity",
		SourceVars: []string{"Q2", "PSFC", "T2"},
	}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if different := math.Abs(data.Get(0, 0, 0) - 100); different > tolerance {
		t.Errorf("saturated relative humidity: want 100 but have %g", data.Get(0, 0, 0))
	}
}

func TestExtractRelativeHumidityDew(t *testing.T) {
	const tolerance = 1.0e-6

	// Dew point equal to temperature means saturation.
	src, files := newFakeSeries(1, map[string][]float64{
		"D2": {283.16},
		"T2": {283.16},
	})
	ext := newFakeExtractor(t, src, files)

	data, err := ext.Extract(VarMapping{
		Name:       "relative_humidity_dew",
		SourceVars: []string{"D2", "T2"},
	}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if different := math.Abs(data.Get(0, 0, 0) - 100); different > tolerance {
		t.Errorf("saturated relative humidity: want 100 but have %g", data.Get(0, 0, 0))
	}
}

func TestExtractPrecipitationAccumulated(t *testing.T) {
	const tolerance = 1.0e-10

	// The run starts mid-accumulation so that dropping the unknowable
	// first increment is observable.
	src, files := newFakeSeries(4, map[string][]float64{
		"RAINNC": {5, 7, 10, 14},
	})
	ext := newFakeExtractor(t, src, files)
	mapping := VarMapping{Name: "precipitation_acc", SourceVars: []string{"RAINNC"}}

	data, err := ext.Extract(mapping, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{0, 2, 3, 4}
	for it, w := range want {
		if different := math.Abs(data.Get(it, 0, 0) - w); different > tolerance {
			t.Errorf("increment %d: want %g but have %g", it, w, data.Get(it, 0, 0))
		}
	}
}

func TestExtractPrecipitationAccumulatedGage(t *testing.T) {
	const tolerance = 1.0e-10

	src, files := newFakeSeries(3, map[string][]float64{
		"RAINNC": {5, 7, 10},
	})
	ext := newFakeExtractor(t, src, files)

	// Gage ACCUM records carry the running totals, so no differencing
	// takes place for gage output.
	data, err := ext.Extract(VarMapping{Name: "precipitation_acc", SourceVars: []string{"RAINNC"}}, FormatGage)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{5, 7, 10}
	for it, w := range want {
		if different := math.Abs(data.Get(it, 0, 0) - w); different > tolerance {
			t.Errorf("total %d: want %g but have %g", it, w, data.Get(it, 0, 0))
		}
	}
}

func TestExtractPrecipitationTwoComponents(t *testing.T) {
	const tolerance = 1.0e-10

	src, files := newFakeSeries(2, map[string][]float64{
		"RAINC":  {1, 2},
		"RAINNC": {3, 5},
	})
	ext := newFakeExtractor(t, src, files)

	data, err := ext.Extract(VarMapping{
		Name:       "precipitation_inc",
		SourceVars: []string{"RAINC", "RAINNC"},
	}, FormatGage)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{4, 7}
	for it, w := range want {
		if different := math.Abs(data.Get(it, 0, 0) - w); different > tolerance {
			t.Errorf("step %d: want %g but have %g", it, w, data.Get(it, 0, 0))
		}
	}
}

func TestExtractRadiationSplit(t *testing.T) {
	const tolerance = 1.0e-10

	src, files := newFakeSeries(1, map[string][]float64{
		"SWDOWN":   {500},
		"DIFFRAC":  {0.4},
		"CLDCOVER": {40},
	})
	ext := newFakeExtractor(t, src, files)

	direct, err := ext.Extract(VarMapping{
		Name:       "direct_radiation",
		SourceVars: []string{"SWDOWN", "DIFFRAC"},
	}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if different := math.Abs(direct.Get(0, 0, 0) - 300); different > tolerance {
		t.Errorf("direct radiation: want 300 but have %g", direct.Get(0, 0, 0))
	}

	diffuse, err := ext.Extract(VarMapping{
		Name:       "diffusive_radiation",
		SourceVars: []string{"SWDOWN", "DIFFRAC"},
	}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if different := math.Abs(diffuse.Get(0, 0, 0) - 200); different > tolerance {
		t.Errorf("diffusive radiation: want 200 but have %g", diffuse.Get(0, 0, 0))
	}

	// The cloud cover variant divides the fraction by 100 first and
	// should match the direct fraction result.
	directCC, err := ext.Extract(VarMapping{
		Name:       "direct_radiation_cc",
		SourceVars: []string{"SWDOWN", "CLDCOVER"},
	}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if different := math.Abs(directCC.Get(0, 0, 0) - 300); different > tolerance {
		t.Errorf("direct radiation from cloud cover: want 300 but have %g", directCC.Get(0, 0, 0))
	}
}

func TestExtractRadiationSingleVariable(t *testing.T) {
	const tolerance = 1.0e-10

	// Reanalysis products carry the direct and diffusive components as
	// separate accumulated fields [J m-2], so a single source variable
	// is accepted per radiation output.
	src, files := newFakeSeries(1, map[string][]float64{
		"SSRD": {3600000},
	})
	ext := newFakeExtractor(t, src, files)

	data, err := ext.Extract(VarMapping{
		Name:       "direct_radiation_j",
		SourceVars: []string{"SSRD"},
	}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	// J m-2 over a one-hour step converts to 1000 W m-2.
	if different := math.Abs(data.Get(0, 0, 0) - 1000); different > tolerance {
		t.Errorf("direct radiation: want 1000 but have %g", data.Get(0, 0, 0))
	}

	_, err = ext.Extract(VarMapping{
		Name:       "direct_radiation",
		SourceVars: []string{"A", "B", "C"},
	}, FormatASCII)
	if err == nil {
		t.Error("a three-variable radiation mapping should be an error")
	}
}

func TestExtractTemperatureConversion(t *testing.T) {
	const tolerance = 1.0e-10

	src, files := newFakeSeries(1, map[string][]float64{
		"T2": {300},
	})
	ext := newFakeExtractor(t, src, files)

	ascii, err := ext.Extract(VarMapping{Name: "temperature", SourceVars: []string{"T2"}}, FormatASCII)
	if err != nil {
		t.Fatal(err)
	}
	if different := math.Abs(ascii.Get(0, 0, 0) - (300*9.0/5.0 - 459.67)); different > tolerance {
		t.Errorf("temperature in °F: want %g but have %g", 300*9.0/5.0-459.67, ascii.Get(0, 0, 0))
	}

	ncf, err := ext.Extract(VarMapping{Name: "temperature", SourceVars: []string{"T2"}}, FormatNetCDF)
	if err != nil {
		t.Fatal(err)
	}
	if different := math.Abs(ncf.Get(0, 0, 0) - 26.85); different > tolerance {
		t.Errorf("temperature in °C: want 26.85 but have %g", ncf.Get(0, 0, 0))
	}
}

func TestExtractUnknownVariable(t *testing.T) {
	src, files := newFakeSeries(1, map[string][]float64{"T2": {300}})
	ext := newFakeExtractor(t, src, files)

	if _, err := ext.Extract(VarMapping{Name: "vorticity", SourceVars: []string{"T2"}}, FormatASCII); err == nil {
		t.Error("unknown variable name should be an error")
	}
}
