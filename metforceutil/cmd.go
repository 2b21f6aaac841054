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

// Package metforceutil holds the command-line interface of the
// metforce forcing-data converter.
package metforceutil

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/hydrogrid/metforce"
	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds the global configuration.
var Cfg *viper.Viper

// options are the configuration options available to the commands.
var options []struct {
	name       string
	usage      string
	shorthand  string
	defaultVal interface{}
	flagsets   []*pflag.FlagSet
}

func init() {
	sharedSets := []*pflag.FlagSet{gageCmd.Flags(), asciiCmd.Flags(), netcdfCmd.Flags()}
	options = []struct {
		name       string
		usage      string
		shorthand  string
		defaultVal interface{}
		flagsets   []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFiles",
			usage: `
              InputFiles is a list of source data files or glob patterns,
              e.g. "wrfout_d03_*".`,
			defaultVal: []string{},
			flagsets:   sharedSets,
		},
		{
			name: "SourceType",
			usage: `
              SourceType selects the kind of source data. Valid settings
              are "gridded" (projected regional model output such as WRF)
              and "reanalysis" (geographic global product output such as
              ERA or GLDAS).`,
			defaultVal: "gridded",
			flagsets:   sharedSets,
		},
		{
			name: "Source.LatVar",
			usage: `
              Source.LatVar names the latitude coordinate variable. The
              default depends on SourceType.`,
			defaultVal: "",
			flagsets:   sharedSets,
		},
		{
			name: "Source.LonVar",
			usage: `
              Source.LonVar names the longitude coordinate variable. The
              default depends on SourceType.`,
			defaultVal: "",
			flagsets:   sharedSets,
		},
		{
			name: "Source.TimeVar",
			usage: `
              Source.TimeVar names an embedded time variable carrying
              "units since" metadata. Leave empty to parse timestamps
              from file names instead.`,
			defaultVal: "",
			flagsets:   sharedSets,
		},
		{
			name: "Time.FilenameLayout",
			usage: `
              Time.FilenameLayout is a Go reference-time layout matching
              the source file names, e.g. "wrfout_d03_2006-01-02_15_04_05".
              Leave empty to read timestamps embedded in the files.`,
			defaultVal: "",
			flagsets:   sharedSets,
		},
		{
			name: "Time.StepSeconds",
			usage: `
              Time.StepSeconds overrides the native source time step [s].
              When 0 the step is derived from the source metadata or from
              the first two timestamps.`,
			defaultVal: 0,
			flagsets:   sharedSets,
		},
		{
			name: "Grid.Nx",
			usage: `
              Grid.Nx is the number of hydrology grid columns.`,
			defaultVal: 0,
			flagsets:   sharedSets,
		},
		{
			name: "Grid.Ny",
			usage: `
              Grid.Ny is the number of hydrology grid rows.`,
			defaultVal: 0,
			flagsets:   sharedSets,
		},
		{
			name: "Grid.X0",
			usage: `
              Grid.X0 is the western edge of the hydrology grid in its
              own projection [m].`,
			defaultVal: 0.0,
			flagsets:   sharedSets,
		},
		{
			name: "Grid.Y0",
			usage: `
              Grid.Y0 is the northern edge of the hydrology grid in its
              own projection [m].`,
			defaultVal: 0.0,
			flagsets:   sharedSets,
		},
		{
			name: "Grid.Dx",
			usage: `
              Grid.Dx is the hydrology grid cell length in x direction [m].`,
			defaultVal: 0.0,
			flagsets:   sharedSets,
		},
		{
			name: "Grid.Dy",
			usage: `
              Grid.Dy is the hydrology grid cell length in y direction [m].`,
			defaultVal: 0.0,
			flagsets:   sharedSets,
		},
		{
			name: "Grid.Proj",
			usage: `
              Grid.Proj is the hydrology grid projection as a proj4 or
              WKT string. Either Grid.Proj or Grid.ProjFile must be set.`,
			defaultVal: "",
			flagsets:   sharedSets,
		},
		{
			name: "Grid.ProjFile",
			usage: `
              Grid.ProjFile is the path of a file holding the hydrology
              grid projection definition.`,
			defaultVal: "",
			flagsets:   sharedSets,
		},
		{
			name: "Variables",
			usage: `
              Variables maps forcing variable names to comma-separated
              source variable names, e.g.
              {"temperature": "T2", "wind_speed": "U10,V10"}.`,
			defaultVal: map[string]string{},
			flagsets:   sharedSets,
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory the per-hour raster files and
              the hourly file list are written into.`,
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{asciiCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the output file.`,
			defaultVal: "forcing.ncf",
			flagsets:   []*pflag.FlagSet{gageCmd.Flags(), netcdfCmd.Flags()},
		},
		{
			name: "Event",
			usage: `
              Event is the description written in the gage file header.`,
			defaultVal: "forcing event",
			flagsets:   []*pflag.FlagSet{gageCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("METFORCE")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.String(option.name, v, option.usage)
			case []string:
				set.StringSlice(option.name, v, option.usage)
			case int:
				set.Int(option.name, v, option.usage)
			case float64:
				set.Float64(option.name, v, option.usage)
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(v)
				set.String(option.name, b.String(), option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}

	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(gageCmd)
	Root.AddCommand(asciiCmd)
	Root.AddCommand(netcdfCmd)
}

// outChan returns a channel printing to standard output.
func outChan() chan string {
	outChan := make(chan string)
	go func() {
		for msg := range outChan {
			fmt.Println(msg)
		}
	}()
	return outChan
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("metforce: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "metforce",
	Short: "Convert meteorological model output to hydrology forcing input.",
	Long: `metforce converts gridded meteorological output from land-surface and
atmospheric models into the forcing input formats of a hydrology engine.
Use the subcommands specified below to select an output format.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'METFORCE_var' where 'var'
is the name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of metforce.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("metforce v%s\n", metforce.Version)
	},
	DisableAutoGenTag: true,
}

var gageCmd = &cobra.Command{
	Use:   "gage",
	Short: "Write a point precipitation gage file.",
	Long: `gage extracts the configured precipitation variable and writes it as a
point gage file at native source cadence, one gauge per source grid cell.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConverter(Cfg, outChan())
		if err != nil {
			return err
		}
		return c.PrecipToGage(Cfg.GetString("OutputFile"), Cfg.GetString("Event"))
	},
	DisableAutoGenTag: true,
}

var asciiCmd = &cobra.Command{
	Use:   "ascii",
	Short: "Write per-hour forcing rasters.",
	Long: `ascii extracts all configured forcing variables and writes one Arc ASCII
raster per hour per variable, plus the hourly file-list manifest the
hydrology engine reads to locate them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConverter(Cfg, outChan())
		if err != nil {
			return err
		}
		return c.ToASCII(Cfg.GetString("OutputDir"))
	},
	DisableAutoGenTag: true,
}

var netcdfCmd = &cobra.Command{
	Use:   "netcdf",
	Short: "Write a subset forcing NetCDF file.",
	Long: `netcdf extracts all configured forcing variables and writes them as one
hourly NetCDF file on the subset source grid.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := NewConverter(Cfg, outChan())
		if err != nil {
			return err
		}
		return c.ToNetCDF(Cfg.GetString("OutputFile"))
	},
	DisableAutoGenTag: true,
}
