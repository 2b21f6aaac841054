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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

// fullMappings binds every required forcing parameter.
var fullMappings = []VarMapping{
	{Name: "precipitation_inc", SourceVars: []string{"RAINNC"}},
	{Name: "pressure", SourceVars: []string{"PSFC"}},
	{Name: "temperature", SourceVars: []string{"T2"}},
	{Name: "cloud_cover_pc", SourceVars: []string{"CLD"}},
	{Name: "relative_humidity", SourceVars: []string{"Q2", "PSFC", "T2"}},
	{Name: "wind_speed", SourceVars: []string{"U10", "V10"}},
	{Name: "direct_radiation", SourceVars: []string{"SWDOWN", "DIFFRAC"}},
	{Name: "diffusive_radiation", SourceVars: []string{"SWDOWN", "DIFFRAC"}},
}

// newFullFake creates a fake source on the test coordinate grid with
// two hourly files carrying constant fields for every variable the
// full mapping set needs.
func newFullFake() (*fakeSource, []string) {
	coords := testCoords()
	vals := map[string]float64{
		"RAINNC":  1,
		"PSFC":    101325,
		"T2":      293.16,
		"CLD":     40,
		"Q2":      0.01,
		"U10":     3,
		"V10":     4,
		"SWDOWN":  500,
		"DIFFRAC": 0.4,
	}
	base := time.Date(2016, 1, 2, 0, 0, 0, 0, time.UTC)
	src := &fakeSource{
		proj:   Geographic{},
		coords: coords,
		times:  make(map[string]time.Time),
		step:   3600,
		data:   make(map[string]map[string]*sparse.DenseArray),
	}
	files := []string{"hour0.nc", "hour1.nc"}
	for i, file := range files {
		src.times[file] = base.Add(time.Duration(i) * time.Hour)
		src.data[file] = make(map[string]*sparse.DenseArray)
		for name, v := range vals {
			a := sparse.ZerosDense(len(coords.Lat), len(coords.Lon))
			for j := range a.Elements {
				a.Elements[j] = v
			}
			src.data[file][name] = a
		}
	}
	return src, files
}

func TestConverterToASCII(t *testing.T) {
	dir, err := ioutil.TempDir("", "metforce")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	src, files := newFullFake()
	grid := testTargetGrid(t, -96, 36)
	c, err := NewConverter(src, grid, files, TimeOptions{}, fullMappings)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.ToASCII(dir); err != nil {
		t.Fatal(err)
	}

	// One raster per hour per forcing parameter, plus the manifest.
	for _, param := range requiredParams {
		for _, hour := range []string{"2016010200", "2016010201"} {
			if _, err := os.Stat(filepath.Join(dir, hour+"_"+param+".asc")); err != nil {
				t.Errorf("missing raster: %v", err)
			}
		}
	}
	raw, err := ioutil.ReadFile(filepath.Join(dir, fileListName))
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Split(strings.TrimSpace(string(raw)), "\n"); len(lines) != 2 {
		t.Errorf("manifest line count: want 2 but have %d", len(lines))
	}
}

func TestConverterToNetCDF(t *testing.T) {
	dir, err := ioutil.TempDir("", "metforce")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "forcing.ncf")

	src, files := newFullFake()
	grid := testTargetGrid(t, -96, 36)
	c, err := NewConverter(src, grid, files, TimeOptions{}, fullMappings)
	if err != nil {
		t.Fatal(err)
	}
	wantProj := Geographic{}.Proj4()
	if p := c.SourceProjection(); p == nil || p.Proj4 != wantProj {
		t.Errorf("source projection: want %q but have %+v", wantProj, p)
	}
	if err := c.ToNetCDF(path); err != nil {
		t.Fatal(err)
	}

	f, ff, err := openNC(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	for _, name := range []string{"precipitation", "pressure", "temperature",
		"cloud_cover", "relative_humidity", "wind_speed",
		"direct_radiation", "diffusive_radiation"} {
		if dims := ff.Header.Lengths(name); len(dims) != 3 {
			t.Errorf("variable %s has %d dimensions; want 3", name, len(dims))
		}
	}
	lat, err := readNC(ff, "lat", []int{0}, []int{ff.Header.Lengths("lat")[0]})
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(lat); i++ {
		if lat[i] >= lat[i-1] {
			t.Errorf("latitude axis must run north to south; have %v", lat)
			break
		}
	}
}

func TestConverterPrecipToGage(t *testing.T) {
	dir, err := ioutil.TempDir("", "metforce")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "precip.gag")

	src, files := newFullFake()
	grid := testTargetGrid(t, -96, 36)
	c, err := NewConverter(src, grid, files, TimeOptions{},
		[]VarMapping{{Name: "precipitation_inc", SourceVars: []string{"RAINNC"}}})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.PrecipToGage(path, "storm of record"); err != nil {
		t.Fatal(err)
	}

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != `EVENT "storm of record"` {
		t.Errorf("event line: have %q", lines[0])
	}
	if lines[1] != "NRPDS 2" {
		t.Errorf("record count line: have %q", lines[1])
	}
	npix := c.Subset().NRows() * c.Subset().NCols()
	// header + counts + one COORD per pixel + one line per time step
	if wantLines := 3 + npix + 2; len(lines) != wantLines {
		t.Errorf("line count: want %d but have %d", wantLines, len(lines))
	}
}

func TestConverterMissingAndDuplicateParams(t *testing.T) {
	c := &Converter{mappings: []VarMapping{
		{Name: "temperature", SourceVars: []string{"T2"}},
	}}
	if err := c.checkParams(); err == nil {
		t.Error("missing forcing parameters should be an error")
	}

	c = &Converter{mappings: append(append([]VarMapping{}, fullMappings...),
		VarMapping{Name: "precipitation_rate", SourceVars: []string{"RAINRATE"}})}
	if err := c.checkParams(); err == nil {
		t.Error("binding a forcing parameter twice should be an error")
	}
}
