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
	"sort"

	"github.com/ctessum/sparse"
)

// Converter drives one conversion run: it resolves the spatial subset
// and time index once at construction, then extracts, aggregates, and
// encodes forcing variables on demand.
type Converter struct {
	src  Source
	grid *TargetGrid

	srcProj *ProjectionInfo
	sub     *IndexSet
	ti      *TimeIndex

	// subset coordinates, south to north
	lat, lon         *sparse.DenseArray
	latAxis, lonAxis []float64

	mappings []VarMapping

	// MsgChan, if non-nil, receives progress messages.
	MsgChan chan string
}

// NewConverter resolves the spatial and temporal index sets of one
// conversion run. files is the list of source files to convert;
// mappings binds forcing variables to source dataset variables.
func NewConverter(src Source, grid *TargetGrid, files []string,
	topts TimeOptions, mappings []VarMapping) (*Converter, error) {
	c := &Converter{src: src, grid: grid, mappings: mappings}

	var err error
	c.srcProj, err = src.Projection()
	if err != nil {
		return nil, err
	}
	coords, err := src.Coords()
	if err != nil {
		return nil, err
	}
	c.sub, err = ResolveExtent(grid, coords)
	if err != nil {
		return nil, err
	}
	c.lat, c.lon = coords.Subset(c.sub)
	c.latAxis, c.lonAxis = axisCenters(c.lat, c.lon)

	c.ti, err = BuildTimeIndex(src, files, topts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// TimeIndex returns the resolved time index of the run.
func (c *Converter) TimeIndex() *TimeIndex { return c.ti }

// Subset returns the resolved source grid index subset of the run.
func (c *Converter) Subset() *IndexSet { return c.sub }

// SourceProjection returns the source grid's map projection metadata.
func (c *Converter) SourceProjection() *ProjectionInfo { return c.srcProj }

func (c *Converter) msg(format string, a ...interface{}) {
	if c.MsgChan != nil {
		c.MsgChan <- fmt.Sprintf(format, a...)
	}
}

func (c *Converter) extractor() *Extractor {
	e := NewExtractor(c.src, c.sub, c.ti)
	e.msgChan = c.MsgChan
	return e
}

// checkParams verifies that the configured mappings bind every
// forcing parameter the hydrology engine requires exactly once.
func (c *Converter) checkParams() error {
	seen := make(map[string]string)
	for _, m := range c.mappings {
		spec, err := VariableByName(m.Name)
		if err != nil {
			return err
		}
		if prev, ok := seen[spec.ParamName]; ok {
			return fmt.Errorf("metforce: forcing parameter %s is bound twice, by %s and %s",
				spec.ParamName, prev, m.Name)
		}
		seen[spec.ParamName] = m.Name
	}
	var missing []string
	for _, p := range requiredParams {
		if _, ok := seen[p]; !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("metforce: forcing parameters %v are not bound to any source variable", missing)
	}
	return nil
}

// precipMapping finds the configured precipitation mapping.
func (c *Converter) precipMapping() (VarMapping, string, error) {
	for _, m := range c.mappings {
		if gt, ok := gageTypes[m.Name]; ok {
			return m, gt, nil
		}
	}
	return VarMapping{}, "", fmt.Errorf("metforce: no precipitation variable is configured")
}

// PrecipToGage writes the configured precipitation variable as a
// point gage file at path, one gauge per source pixel, at native
// source cadence. event is the EVENT description written in the file
// header.
func (c *Converter) PrecipToGage(path, event string) error {
	mapping, gageType, err := c.precipMapping()
	if err != nil {
		return err
	}
	data, err := c.extractor().Extract(mapping, FormatGage)
	if err != nil {
		return err
	}
	x, y, err := pixelCenters(c.lat, c.lon, c.grid.SR)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metforce: creating gage file: %v", err)
	}
	c.msg("writing gage file %s", path)
	if err := writeGage(f, event, gageType, c.ti.Times, data, x, y); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ToASCII writes one Arc ASCII raster per hour per forcing parameter
// into dir, plus the hourly file-list manifest. All required forcing
// parameters must be configured.
func (c *Converter) ToASCII(dir string) error {
	if err := c.checkParams(); err != nil {
		return err
	}
	header := newASCIIHeader(c.latAxis, c.lonAxis)
	ext := c.extractor()
	for _, m := range c.mappings {
		spec, err := VariableByName(m.Name)
		if err != nil {
			return err
		}
		raw, err := ext.Extract(m, FormatASCII)
		if err != nil {
			return err
		}
		hourly, err := toHourly(raw, c.ti, spec.Aggregation)
		if err != nil {
			return err
		}
		c.msg("writing %s rasters to %s", spec.ParamName, dir)
		if err := writeASCII(dir, spec.ParamName, c.ti.OutTimes(), hourly, header); err != nil {
			return err
		}
	}
	return writeFileList(dir, c.ti.OutTimes())
}

// ToNetCDF writes all configured forcing variables as one subset
// NetCDF file at path, hourly, on the subset source grid. All
// required forcing parameters must be configured.
func (c *Converter) ToNetCDF(path string) error {
	if err := c.checkParams(); err != nil {
		return err
	}
	ext := c.extractor()
	var fields []ncField
	for _, m := range c.mappings {
		spec, err := VariableByName(m.Name)
		if err != nil {
			return err
		}
		raw, err := ext.Extract(m, FormatNetCDF)
		if err != nil {
			return err
		}
		hourly, err := toHourly(raw, c.ti, spec.Aggregation)
		if err != nil {
			return err
		}
		fields = append(fields, ncField{
			name:         spec.OutName,
			standardName: spec.StandardName,
			longName:     spec.LongName,
			units:        spec.Units[FormatNetCDF],
			data:         hourly,
		})
	}
	// Output rows run north to south; flip the latitude axis to
	// match.
	latNS := make([]float64, len(c.latAxis))
	for i, v := range c.latAxis {
		latNS[len(latNS)-1-i] = v
	}
	c.msg("writing NetCDF file %s", path)
	return writeNetCDF(path, Geographic{}.Proj4(), c.ti.OutTimes(), latNS, c.lonAxis, fields)
}
