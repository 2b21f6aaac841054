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

package metforceutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hydrogrid/metforce"
	"github.com/lnashier/viper"
	"github.com/spf13/cast"
)

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// inputFiles expands glob patterns in the InputFiles configuration
// into the list of source files.
func inputFiles(cfg *viper.Viper) ([]string, error) {
	patterns := expandStringSlice(cfg.GetStringSlice("InputFiles"))
	if len(patterns) == 0 {
		return nil, fmt.Errorf("metforce: the InputFiles configuration variable is not set")
	}
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("metforce: invalid InputFiles pattern %q: %v", p, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("metforce: no files match the InputFiles patterns %v", patterns)
	}
	return files, nil
}

// source constructs the configured Source implementation. The first
// input file serves as the grid metadata reference.
func source(cfg *viper.Viper, refFile string) (metforce.Source, error) {
	latVar := cfg.GetString("Source.LatVar")
	lonVar := cfg.GetString("Source.LonVar")
	timeVar := cfg.GetString("Source.TimeVar")
	switch t := cfg.GetString("SourceType"); t {
	case "gridded":
		return &metforce.GriddedSource{
			ReferenceFile: refFile,
			LatVar:        latVar,
			LonVar:        lonVar,
			TimeVar:       timeVar,
		}, nil
	case "reanalysis":
		return &metforce.ReanalysisSource{
			ReferenceFile: refFile,
			LatVar:        latVar,
			LonVar:        lonVar,
			TimeVar:       timeVar,
		}, nil
	default:
		return nil, fmt.Errorf("metforce: SourceType must be \"gridded\" or \"reanalysis\"; got %q", t)
	}
}

// targetGrid constructs the hydrology grid from configuration.
func targetGrid(cfg *viper.Viper) (*metforce.TargetGrid, error) {
	nx := cfg.GetInt("Grid.Nx")
	ny := cfg.GetInt("Grid.Ny")
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("metforce: Grid.Nx and Grid.Ny must be positive; got %d and %d", nx, ny)
	}
	dx := cfg.GetFloat64("Grid.Dx")
	dy := cfg.GetFloat64("Grid.Dy")
	if dx <= 0 || dy <= 0 {
		return nil, fmt.Errorf("metforce: Grid.Dx and Grid.Dy must be positive; got %g and %g", dx, dy)
	}
	geotransform := [6]float64{
		cfg.GetFloat64("Grid.X0"), dx, 0,
		cfg.GetFloat64("Grid.Y0"), 0, -dy,
	}
	if projFile := os.ExpandEnv(cfg.GetString("Grid.ProjFile")); projFile != "" {
		return metforce.NewTargetGridFromFile("hydrogrid", nx, ny, geotransform, projFile)
	}
	if p := cfg.GetString("Grid.Proj"); p != "" {
		return metforce.NewTargetGrid("hydrogrid", nx, ny, geotransform, p)
	}
	return nil, fmt.Errorf("metforce: either Grid.Proj or Grid.ProjFile must be set")
}

// varMappings parses the Variables configuration into variable
// mappings, ordered by name so runs are deterministic.
func varMappings(cfg *viper.Viper) ([]metforce.VarMapping, error) {
	raw, err := cast.ToStringMapStringE(cfg.Get("Variables"))
	if err != nil {
		return nil, fmt.Errorf("metforce: invalid Variables configuration: %v", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("metforce: there are no variables specified for output. Please fill in " +
			"the Variables configuration and try again")
	}
	var mappings []metforce.VarMapping
	for name, srcVars := range raw {
		var vars []string
		for _, v := range strings.Split(srcVars, ",") {
			if v = strings.TrimSpace(v); v != "" {
				vars = append(vars, v)
			}
		}
		mappings = append(mappings, metforce.VarMapping{Name: name, SourceVars: vars})
	}
	sort.Slice(mappings, func(i, j int) bool { return mappings[i].Name < mappings[j].Name })
	return mappings, nil
}

// NewConverter assembles a conversion run from configuration.
// Progress messages go to msgChan.
func NewConverter(cfg *viper.Viper, msgChan chan string) (*metforce.Converter, error) {
	files, err := inputFiles(cfg)
	if err != nil {
		return nil, err
	}
	src, err := source(cfg, files[0])
	if err != nil {
		return nil, err
	}
	grid, err := targetGrid(cfg)
	if err != nil {
		return nil, err
	}
	mappings, err := varMappings(cfg)
	if err != nil {
		return nil, err
	}
	topts := metforce.TimeOptions{
		FilenameLayout: cfg.GetString("Time.FilenameLayout"),
		StepSeconds:    cfg.GetInt("Time.StepSeconds"),
	}
	c, err := metforce.NewConverter(src, grid, files, topts, mappings)
	if err != nil {
		return nil, err
	}
	c.MsgChan = msgChan
	return c, nil
}
