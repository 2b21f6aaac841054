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

import "fmt"

// Format identifies an output encoding. Conversion factors and units
// differ per format because the gage, ASCII, and NetCDF consumers of
// the hydrology engine expect different physical units.
type Format int

const (
	FormatGage Format = iota
	FormatASCII
	FormatNetCDF
)

func (f Format) String() string {
	switch f {
	case FormatGage:
		return "gage"
	case FormatASCII:
		return "ascii"
	case FormatNetCDF:
		return "netcdf"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// AggregationRule selects how sub-hour time slices collapse into one
// hourly value.
type AggregationRule int

const (
	// AggregateMean averages slices: intensive state variables.
	AggregateMean AggregationRule = iota
	// AggregateSum totals slices: flux-accumulation variables.
	AggregateSum
)

// VariableSpec describes one hydrology forcing variable: its output
// names and attributes, per-format unit conversions, and how it
// aggregates into hourly values.
type VariableSpec struct {
	// Name is the logical variable key, e.g. "temperature".
	Name string
	// OutName is the variable name used in outputs.
	OutName string
	// ParamName is the short forcing-parameter name used in per-hour
	// raster file names and for the required-parameter check.
	ParamName string

	StandardName string
	LongName     string

	// Units and Factor give the output units and the multiplicative
	// conversion from source units, per output format.
	Units  map[Format]string
	Factor map[Format]float64
	// Convert is an optional elementwise post-conversion function
	// (e.g. Kelvin to Fahrenheit), per output format.
	Convert map[Format]func(float64) float64

	// Aggregation collapses sub-hour slices into hourly values.
	Aggregation AggregationRule

	// Reduce4D collapses an extra vertical dimension when the source
	// variable has one.
	Reduce4D Reducer
}

// Forcing-parameter names the hydrology engine requires before ASCII
// or NetCDF output can be produced.
var requiredParams = []string{
	"Prcp", "Pres", "Temp", "Clod", "RlHm", "Drad", "Grad", "WndS",
}

// variableTable maps logical variable names to their specifications.
// Factors and units follow the conventions of the GSSHA forcing
// formats; source units are noted per entry.
var variableTable = map[string]VariableSpec{
	"precipitation_rate": {
		// source units kg m-2 s-1, i.e. mm s-1
		OutName:      "precipitation",
		ParamName:    "Prcp",
		StandardName: "rainfall_flux",
		LongName:     "Rain precipitation rate",
		Units:        map[Format]string{FormatGage: "mm hr-1", FormatASCII: "mm hr-1", FormatNetCDF: "mm hr-1"},
		Factor:       map[Format]float64{FormatGage: 3600, FormatASCII: 3600, FormatNetCDF: 3600},
		Aggregation:  AggregateMean,
	},
	"precipitation_acc": {
		// source units kg m-2 (mm), cumulative since run start
		OutName:      "precipitation",
		ParamName:    "Prcp",
		StandardName: "rainfall_flux",
		LongName:     "Rain precipitation rate",
		Units:        map[Format]string{FormatGage: "mm hr-1", FormatASCII: "mm hr-1", FormatNetCDF: "mm hr-1"},
		Factor:       map[Format]float64{FormatGage: 1, FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateSum,
	},
	"precipitation_inc": {
		// source units kg m-2 (mm) per time step
		OutName:      "precipitation",
		ParamName:    "Prcp",
		StandardName: "rainfall_flux",
		LongName:     "Rain precipitation rate",
		Units:        map[Format]string{FormatGage: "mm hr-1", FormatASCII: "mm hr-1", FormatNetCDF: "mm hr-1"},
		Factor:       map[Format]float64{FormatGage: 1, FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateSum,
	},
	"pressure": {
		// source units Pa
		OutName:      "pressure",
		ParamName:    "Pres",
		StandardName: "surface_air_pressure",
		LongName:     "Pressure",
		Units:        map[Format]string{FormatASCII: "in. Hg", FormatNetCDF: "mb"},
		Factor:       map[Format]float64{FormatASCII: 0.000295299830714, FormatNetCDF: 0.01},
		Aggregation:  AggregateMean,
	},
	"pressure_hg": {
		// source units in. Hg
		OutName:      "pressure",
		ParamName:    "Pres",
		StandardName: "surface_air_pressure",
		LongName:     "Pressure",
		Units:        map[Format]string{FormatASCII: "in. Hg", FormatNetCDF: "mb"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 33.863886667},
		Aggregation:  AggregateMean,
	},
	"relative_humidity": {
		// derived from specific humidity [kg kg-1], pressure [Pa],
		// and temperature [K], or provided directly [%]
		OutName:      "relative_humidity",
		ParamName:    "RlHm",
		StandardName: "relative_humidity",
		LongName:     "Relative humidity",
		Units:        map[Format]string{FormatASCII: "%", FormatNetCDF: "%"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateMean,
	},
	"relative_humidity_dew": {
		// derived from dew point temperature and temperature [K]
		OutName:      "relative_humidity",
		ParamName:    "RlHm",
		StandardName: "relative_humidity",
		LongName:     "Relative humidity",
		Units:        map[Format]string{FormatASCII: "%", FormatNetCDF: "%"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateMean,
	},
	"wind_speed": {
		// source units m s-1; single variable or [u, v] components
		OutName:      "wind_speed",
		ParamName:    "WndS",
		StandardName: "wind_speed",
		LongName:     "Wind speed",
		Units:        map[Format]string{FormatASCII: "kts", FormatNetCDF: "kts"},
		Factor:       map[Format]float64{FormatASCII: 1.94, FormatNetCDF: 1.94},
		Aggregation:  AggregateMean,
	},
	"wind_speed_kmd": {
		// source units km day-1
		OutName:      "wind_speed",
		ParamName:    "WndS",
		StandardName: "wind_speed",
		LongName:     "Wind speed",
		Units:        map[Format]string{FormatASCII: "kts", FormatNetCDF: "kts"},
		Factor:       map[Format]float64{FormatASCII: 0.0224537037, FormatNetCDF: 0.0224537037},
		Aggregation:  AggregateMean,
	},
	"wind_speed_kts": {
		OutName:      "wind_speed",
		ParamName:    "WndS",
		StandardName: "wind_speed",
		LongName:     "Wind speed",
		Units:        map[Format]string{FormatASCII: "kts", FormatNetCDF: "kts"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateMean,
	},
	"temperature": {
		// source units K
		OutName:      "temperature",
		ParamName:    "Temp",
		StandardName: "air_temperature",
		LongName:     "Temperature",
		Units:        map[Format]string{FormatASCII: "F", FormatNetCDF: "C"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Convert: map[Format]func(float64) float64{
			FormatASCII:  func(k float64) float64 { return k*9.0/5.0 - 459.67 },
			FormatNetCDF: func(k float64) float64 { return k - 273.15 },
		},
		Aggregation: AggregateMean,
	},
	"temperature_f": {
		// source units °F
		OutName:      "temperature",
		ParamName:    "Temp",
		StandardName: "air_temperature",
		LongName:     "Temperature",
		Units:        map[Format]string{FormatASCII: "F", FormatNetCDF: "C"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Convert: map[Format]func(float64) float64{
			FormatNetCDF: func(f float64) float64 { return (f - 32) * 5.0 / 9.0 },
		},
		Aggregation: AggregateMean,
	},
	"direct_radiation": {
		// global radiation [W m-2] split by diffuse fraction
		OutName:      "direct_radiation",
		ParamName:    "Drad",
		StandardName: "surface_direct_downward_shortwave_flux",
		LongName:     "Direct short wave radiation flux",
		Units:        map[Format]string{FormatASCII: "W hr m-2", FormatNetCDF: "W hr m-2"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateMean,
	},
	"direct_radiation_j": {
		// source units J m-2
		OutName:      "direct_radiation",
		ParamName:    "Drad",
		StandardName: "surface_direct_downward_shortwave_flux",
		LongName:     "Direct short wave radiation flux",
		Units:        map[Format]string{FormatASCII: "W hr m-2", FormatNetCDF: "W hr m-2"},
		Factor:       map[Format]float64{FormatASCII: 1 / 3600.0, FormatNetCDF: 1 / 3600.0},
		Aggregation:  AggregateMean,
	},
	"direct_radiation_cc": {
		// global radiation [W m-2] split by cloud cover percentage
		OutName:      "direct_radiation",
		ParamName:    "Drad",
		StandardName: "surface_direct_downward_shortwave_flux",
		LongName:     "Direct short wave radiation flux",
		Units:        map[Format]string{FormatASCII: "W hr m-2", FormatNetCDF: "W hr m-2"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateMean,
	},
	"diffusive_radiation": {
		OutName:      "diffusive_radiation",
		ParamName:    "Grad",
		StandardName: "surface_diffusive_downward_shortwave_flux",
		LongName:     "Diffusive short wave radiation flux",
		Units:        map[Format]string{FormatASCII: "W hr m-2", FormatNetCDF: "W hr m-2"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateMean,
	},
	"diffusive_radiation_j": {
		// source units J m-2
		OutName:      "diffusive_radiation",
		ParamName:    "Grad",
		StandardName: "surface_diffusive_downward_shortwave_flux",
		LongName:     "Diffusive short wave radiation flux",
		Units:        map[Format]string{FormatASCII: "W hr m-2", FormatNetCDF: "W hr m-2"},
		Factor:       map[Format]float64{FormatASCII: 1 / 3600.0, FormatNetCDF: 1 / 3600.0},
		Aggregation:  AggregateMean,
	},
	"diffusive_radiation_cc": {
		OutName:      "diffusive_radiation",
		ParamName:    "Grad",
		StandardName: "surface_diffusive_downward_shortwave_flux",
		LongName:     "Diffusive short wave radiation flux",
		Units:        map[Format]string{FormatASCII: "W hr m-2", FormatNetCDF: "W hr m-2"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 1},
		Aggregation:  AggregateMean,
	},
	"cloud_cover": {
		// source is a 0–1 fraction, possibly on model levels
		OutName:      "cloud_cover",
		ParamName:    "Clod",
		StandardName: "cloud_cover_fraction",
		LongName:     "Cloud cover fraction",
		Units:        map[Format]string{FormatASCII: "%", FormatNetCDF: "%/10"},
		Factor:       map[Format]float64{FormatASCII: 100, FormatNetCDF: 10},
		Aggregation:  AggregateMean,
		Reduce4D:     ReduceMax,
	},
	"cloud_cover_pc": {
		// source units %
		OutName:      "cloud_cover",
		ParamName:    "Clod",
		StandardName: "cloud_cover_fraction",
		LongName:     "Cloud cover fraction",
		Units:        map[Format]string{FormatASCII: "%", FormatNetCDF: "%/10"},
		Factor:       map[Format]float64{FormatASCII: 1, FormatNetCDF: 0.1},
		Aggregation:  AggregateMean,
	},
}

// VariableByName looks up the specification for a logical variable
// name. Unknown names are a configuration error.
func VariableByName(name string) (VariableSpec, error) {
	spec, ok := variableTable[name]
	if !ok {
		return VariableSpec{}, fmt.Errorf("metforce: unknown forcing variable name %q", name)
	}
	spec.Name = name
	return spec, nil
}
