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
	"math"
	"strings"
	"testing"

	"github.com/ctessum/geom/proj"
)

func TestProjectionFromWRF(t *testing.T) {
	cases := []struct {
		mapProj  int
		wantProj string
	}{
		{1, "+proj=lcc"},
		{2, "+proj=stere"},
		{3, "+proj=merc"},
		{6, "+proj=eqc"},
	}
	for _, c := range cases {
		p, err := projectionFromWRF(c.mapProj, 33, 45, -97, 40)
		if err != nil {
			t.Fatalf("map projection code %d: %v", c.mapProj, err)
		}
		if !strings.HasPrefix(p.Proj4(), c.wantProj) {
			t.Errorf("map projection code %d: want prefix %q but have %q",
				c.mapProj, c.wantProj, p.Proj4())
		}
	}

	if _, err := projectionFromWRF(4, 33, 45, -97, 40); err == nil {
		t.Error("unsupported map projection code should be an error")
	}
}

// TestProj4Parses feeds each generated proj4 string back through the
// parser. The parser splits tokens on "+", so numbers must never be
// printed in exponent notation.
func TestProj4Parses(t *testing.T) {
	projections := []Projection{
		LambertConformalConic{StandardParallel1: 33, StandardParallel2: 45,
			CentralMeridian: -97, LatitudeOfOrigin: 40},
		PolarStereographic{StandardParallel: 60, CentralMeridian: -97},
		Mercator{StandardParallel: 20, CentralMeridian: -97},
		EquidistantCylindrical{StandardParallel: 30, CentralMeridian: -97},
		Geographic{},
	}
	for _, p := range projections {
		s := p.Proj4()
		if strings.Contains(s, "e+") || strings.Contains(s, "E+") {
			t.Errorf("proj4 string %q contains exponent notation", s)
		}
		if _, err := proj.Parse(s); err != nil {
			t.Errorf("parsing %q: %v", s, err)
		}
	}
}

func TestLambertSingleParallelFallback(t *testing.T) {
	p := LambertConformalConic{StandardParallel1: 38, CentralMeridian: -97}
	sr, err := p.SR()
	if err != nil {
		t.Fatal(err)
	}
	if sr.Lat2 != 38 || sr.Lat0 != 38 {
		t.Errorf("single-parallel fallback: want lat2=38 lat0=38 but have lat2=%g lat0=%g",
			sr.Lat2, sr.Lat0)
	}
}

func TestPolarStereographicScaleFactor(t *testing.T) {
	const tolerance = 1.0e-10

	p := PolarStereographic{StandardParallel: 60, CentralMeridian: -97}
	want := (1 + math.Sin(60*math.Pi/180)) / 2
	if different := math.Abs(p.scaleFactor() - want); different > tolerance {
		t.Errorf("scale factor at 60N: want %g but have %g", want, p.scaleFactor())
	}

	// Southern-hemisphere parallels give the same factor and a south
	// polar aspect.
	south := PolarStereographic{StandardParallel: -60, CentralMeridian: -97}
	if different := math.Abs(south.scaleFactor() - want); different > tolerance {
		t.Errorf("scale factor at 60S: want %g but have %g", want, south.scaleFactor())
	}
	sr, err := south.SR()
	if err != nil {
		t.Fatal(err)
	}
	if sr.Lat0 != -90 {
		t.Errorf("south polar aspect: want lat0=-90 but have %g", sr.Lat0)
	}
}

func TestTargetGridBoundsLambert(t *testing.T) {
	// A grid in a Lambert projection reprojected to geographic
	// coordinates must produce a finite box in plausible degree
	// ranges.
	p := LambertConformalConic{
		StandardParallel1: 33,
		StandardParallel2: 45,
		CentralMeridian:   -97,
		LatitudeOfOrigin:  40,
	}
	grid, err := NewTargetGrid("wshed", 100, 100, [6]float64{-50000, 1000, 0, 50000, 0, -1000}, p.Proj4())
	if err != nil {
		t.Fatal(err)
	}
	geo, err := Geographic{}.SR()
	if err != nil {
		t.Fatal(err)
	}
	xMin, xMax, yMin, yMax, err := grid.Bounds(geo)
	if err != nil {
		t.Fatal(err)
	}
	if xMin >= xMax || yMin >= yMax {
		t.Fatalf("degenerate bounds: x %g-%g, y %g-%g", xMin, xMax, yMin, yMax)
	}
	if xMin < -99 || xMax > -95 || yMin < 38 || yMax > 42 {
		t.Errorf("implausible bounds: x %g-%g, y %g-%g", xMin, xMax, yMin, yMax)
	}
}
