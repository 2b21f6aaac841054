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
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/ctessum/sparse"
)

func TestWriteGage(t *testing.T) {
	base := time.Date(2016, 1, 2, 3, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(time.Hour)}

	data := sparse.ZerosDense(2, 1, 2)
	data.Set(1, 0, 0, 0)
	data.Set(2, 0, 0, 1)
	data.Set(3, 1, 0, 0)
	data.Set(4, 1, 0, 1)

	var buf bytes.Buffer
	err := writeGage(&buf, "test event", "GAGES", times, data,
		[]float64{100, 200}, []float64{50, 50})
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	want := []string{
		`EVENT "test event"`,
		"NRPDS 2",
		"NRGAG 2",
		`COORD 100.000000 50.000000 "center of pixel #0"`,
		`COORD 200.000000 50.000000 "center of pixel #1"`,
		"GAGES 2016 01 02 03 00 1.000000 2.000000",
		"GAGES 2016 01 02 04 00 3.000000 4.000000",
	}
	if len(lines) != len(want) {
		t.Fatalf("line count: want %d but have %d", len(want), len(lines))
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line %d: want %q but have %q", i, w, lines[i])
		}
	}
}

func TestWriteGageMismatch(t *testing.T) {
	base := time.Date(2016, 1, 2, 3, 0, 0, 0, time.UTC)
	data := sparse.ZerosDense(2, 1, 2)
	var buf bytes.Buffer
	err := writeGage(&buf, "e", "GAGES", []time.Time{base}, data,
		[]float64{100, 200}, []float64{50, 50})
	if err == nil {
		t.Error("mismatched timestamp count should be an error")
	}
}

func TestPixelCenters(t *testing.T) {
	const tolerance = 1.0e-8

	lat := sparse.ZerosDense(1, 2)
	lon := sparse.ZerosDense(1, 2)
	lat.Set(35, 0, 0)
	lat.Set(35, 0, 1)
	lon.Set(-100, 0, 0)
	lon.Set(-99, 0, 1)

	// Transforming into the same geographic reference leaves the
	// coordinates unchanged.
	geo, err := Geographic{}.SR()
	if err != nil {
		t.Fatal(err)
	}
	x, y, err := pixelCenters(lat, lon, geo)
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{-100, -99} {
		if different := math.Abs(x[i] - want); different > tolerance {
			t.Errorf("x %d: want %g but have %g", i, want, x[i])
		}
		if different := math.Abs(y[i] - 35); different > tolerance {
			t.Errorf("y %d: want 35 but have %g", i, y[i])
		}
	}

	// Transforming into a projected reference must keep the x
	// ordering of the points.
	lcc := LambertConformalConic{
		StandardParallel1: 33,
		StandardParallel2: 45,
		CentralMeridian:   -97,
		LatitudeOfOrigin:  40,
	}
	sr, err := lcc.SR()
	if err != nil {
		t.Fatal(err)
	}
	x, _, err = pixelCenters(lat, lon, sr)
	if err != nil {
		t.Fatal(err)
	}
	if x[0] >= x[1] {
		t.Errorf("projected x ordering: %g should be west of %g", x[0], x[1])
	}
}
