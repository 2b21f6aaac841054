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
	"testing"
	"time"
)

func TestTimeUnitSeconds(t *testing.T) {
	cases := []struct {
		units       string
		wantSeconds float64
		wantEpoch   time.Time
	}{
		{"hours since 1900-01-01 00:00:00.0", 3600,
			time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"days since 1858-11-17", 24 * 3600,
			time.Date(1858, 11, 17, 0, 0, 0, 0, time.UTC)},
		{"seconds since 1970-01-01 00:00:00", 1,
			time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"Minutes since 2016-01-02 03:04", 60,
			time.Date(2016, 1, 2, 3, 4, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		seconds, epoch, err := timeUnitSeconds(c.units)
		if err != nil {
			t.Errorf("%q: %v", c.units, err)
			continue
		}
		if seconds != c.wantSeconds {
			t.Errorf("%q: want %g seconds but have %g", c.units, c.wantSeconds, seconds)
		}
		if !epoch.Equal(c.wantEpoch) {
			t.Errorf("%q: want epoch %v but have %v", c.units, c.wantEpoch, epoch)
		}
	}

	for _, bad := range []string{"hours", "fortnights since 1970-01-01", "hours since yesterday"} {
		if _, _, err := timeUnitSeconds(bad); err == nil {
			t.Errorf("%q should be an error", bad)
		}
	}
}

func TestToFloats(t *testing.T) {
	const tolerance = 1.0e-6

	for _, buf := range []interface{}{
		[]float64{1, 2.5},
		[]float32{1, 2.5},
	} {
		vals, err := toFloats(buf)
		if err != nil {
			t.Fatal(err)
		}
		if len(vals) != 2 || math.Abs(vals[1]-2.5) > tolerance {
			t.Errorf("%T: have %v", buf, vals)
		}
	}
	intVals, err := toFloats([]int32{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if intVals[0] != 3 || intVals[1] != 4 {
		t.Errorf("[]int32: have %v", intVals)
	}
	if _, err := toFloats("not numbers"); err == nil {
		t.Error("a non-numeric buffer should be an error")
	}
}

func TestReducers(t *testing.T) {
	const tolerance = 1.0e-10

	vals := []float64{1, 2, 6}
	if different := math.Abs(ReduceMean(vals) - 3); different > tolerance {
		t.Errorf("mean: want 3 but have %g", ReduceMean(vals))
	}
	if different := math.Abs(ReduceMax(vals) - 6); different > tolerance {
		t.Errorf("max: want 6 but have %g", ReduceMax(vals))
	}
}
