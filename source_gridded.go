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
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// GriddedSource reads output from a projected regional model such as
// WRF. The grid is curvilinear: latitude and longitude are 2-D
// variables, and the projection is reconstructed from the global
// attributes MAP_PROJ, TRUELAT1, TRUELAT2, STAND_LON, and CEN_LAT.
type GriddedSource struct {
	// ReferenceFile is one file of the series; grid coordinates and
	// projection metadata are read from it and assumed constant
	// across the series.
	ReferenceFile string

	// LatVar and LonVar name the coordinate variables. They default
	// to XLAT and XLONG.
	LatVar, LonVar string

	// TimeVar, if set, names an embedded numeric time variable with
	// "units since" metadata. When empty, timestamps must come from a
	// filename layout instead.
	TimeVar string
}

var _ Source = (*GriddedSource)(nil)

func (s *GriddedSource) latLonVars() (string, string) {
	lat, lon := s.LatVar, s.LonVar
	if lat == "" {
		lat = "XLAT"
	}
	if lon == "" {
		lon = "XLONG"
	}
	return lat, lon
}

// Projection reconstructs the model projection from global
// attributes. Unknown MAP_PROJ codes are a configuration error.
func (s *GriddedSource) Projection() (*ProjectionInfo, error) {
	f, ff, err := openNC(s.ReferenceFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	mapProj, ok := attrFloat(ff, "", "MAP_PROJ")
	if !ok {
		return nil, fmt.Errorf("metforce: %s has no MAP_PROJ attribute", s.ReferenceFile)
	}
	trueLat1, _ := attrFloat(ff, "", "TRUELAT1")
	trueLat2, _ := attrFloat(ff, "", "TRUELAT2")
	standLon, _ := attrFloat(ff, "", "STAND_LON")
	cenLat, _ := attrFloat(ff, "", "CEN_LAT")
	p, err := projectionFromWRF(int(mapProj), trueLat1, trueLat2, standLon, cenLat)
	if err != nil {
		return nil, err
	}
	return newProjectionInfo(p)
}

// Coords reads the 2-D coordinate variables from the reference file.
// Coordinate variables with a leading time dimension take slice 0.
func (s *GriddedSource) Coords() (*CoordGrid, error) {
	f, ff, err := openNC(s.ReferenceFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	latVar, lonVar := s.latLonVars()
	lat, err := readCoord2D(ff, latVar)
	if err != nil {
		return nil, fmt.Errorf("metforce: reading %s from %s: %v", latVar, s.ReferenceFile, err)
	}
	lon, err := readCoord2D(ff, lonVar)
	if err != nil {
		return nil, fmt.Errorf("metforce: reading %s from %s: %v", lonVar, s.ReferenceFile, err)
	}
	return &CoordGrid{Lat2D: lat, Lon2D: lon}, nil
}

// readCoord2D reads a 2-D coordinate variable, dropping a leading
// time dimension if present.
func readCoord2D(ff *cdf.File, variable string) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(variable)
	var start, end []int
	var ny, nx int
	switch len(dims) {
	case 2:
		ny, nx = dims[0], dims[1]
		start = []int{0, 0}
		end = []int{ny, nx}
	case 3:
		ny, nx = dims[1], dims[2]
		start = []int{0, 0, 0}
		end = []int{1, ny, nx}
	default:
		return nil, fmt.Errorf("coordinate variable %s has %d dimensions; want 2 or 3",
			variable, len(dims))
	}
	vals, err := readNC(ff, variable, start, end)
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(ny, nx)
	copy(out.Elements, vals)
	return out, nil
}

// Time reads the embedded timestamp of file when TimeVar is set.
func (s *GriddedSource) Time(file string) (time.Time, error) {
	if s.TimeVar == "" {
		return time.Time{}, fmt.Errorf("metforce: source has no embedded time variable; " +
			"timestamps must be parsed from filenames")
	}
	f, ff, err := openNC(file)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	return embeddedTime(ff, s.TimeVar)
}

// TimeStep returns 0: regional model output does not record its
// output interval, so the step comes from configuration or from the
// delta between the first two timestamps.
func (s *GriddedSource) TimeStep() (int, error) { return 0, nil }

// Load reads one time slice of variable from file over sub.
func (s *GriddedSource) Load(file, variable string, sub *IndexSet, reduce Reducer) (*sparse.DenseArray, error) {
	f, ff, err := openNC(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadSubset(ff, variable, sub, reduce)
}
