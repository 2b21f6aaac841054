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

// ReanalysisSource reads output from a global reanalysis product such
// as ERA or GLDAS. The grid is geographic and separable: latitude and
// longitude are 1-D axis variables, and each file embeds its own
// timestamp in a numeric time variable with "units since" metadata.
type ReanalysisSource struct {
	// ReferenceFile is one file of the series; the coordinate axes
	// are read from it and assumed constant across the series.
	ReferenceFile string

	// LatVar and LonVar name the axis variables. They default to
	// "lat" and "lon".
	LatVar, LonVar string

	// TimeVar names the embedded time variable. It defaults to
	// "time".
	TimeVar string
}

var _ Source = (*ReanalysisSource)(nil)

func (s *ReanalysisSource) latLonVars() (string, string) {
	lat, lon := s.LatVar, s.LonVar
	if lat == "" {
		lat = "lat"
	}
	if lon == "" {
		lon = "lon"
	}
	return lat, lon
}

func (s *ReanalysisSource) timeVar() string {
	if s.TimeVar == "" {
		return "time"
	}
	return s.TimeVar
}

// Projection returns the WGS84 geographic spatial reference.
func (s *ReanalysisSource) Projection() (*ProjectionInfo, error) {
	return newProjectionInfo(Geographic{})
}

// Coords reads the 1-D coordinate axes from the reference file.
func (s *ReanalysisSource) Coords() (*CoordGrid, error) {
	f, ff, err := openNC(s.ReferenceFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	latVar, lonVar := s.latLonVars()
	lat, err := readAxis(ff, latVar)
	if err != nil {
		return nil, fmt.Errorf("metforce: reading %s from %s: %v", latVar, s.ReferenceFile, err)
	}
	lon, err := readAxis(ff, lonVar)
	if err != nil {
		return nil, fmt.Errorf("metforce: reading %s from %s: %v", lonVar, s.ReferenceFile, err)
	}
	return &CoordGrid{Lat: lat, Lon: lon}, nil
}

// readAxis reads a 1-D coordinate axis variable in full.
func readAxis(ff *cdf.File, variable string) ([]float64, error) {
	dims := ff.Header.Lengths(variable)
	if len(dims) != 1 {
		return nil, fmt.Errorf("axis variable %s has %d dimensions; want 1", variable, len(dims))
	}
	return readNC(ff, variable, []int{0}, []int{dims[0]})
}

// Time reads the embedded timestamp of file.
func (s *ReanalysisSource) Time(file string) (time.Time, error) {
	f, ff, err := openNC(file)
	if err != nil {
		return time.Time{}, err
	}
	defer f.Close()
	return embeddedTime(ff, s.timeVar())
}

// TimeStep returns 0: reanalysis files do not record their output
// interval, so the step comes from configuration or from the delta
// between the first two timestamps.
func (s *ReanalysisSource) TimeStep() (int, error) { return 0, nil }

// Load reads one time slice of variable from file over sub.
func (s *ReanalysisSource) Load(file, variable string, sub *IndexSet, reduce Reducer) (*sparse.DenseArray, error) {
	f, ff, err := openNC(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return loadSubset(ff, variable, sub, reduce)
}
