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

// Package metforce converts gridded meteorological output from
// land-surface and atmospheric models into the forcing input formats
// of a hydrology engine.
//
// A conversion run resolves the spatial overlap between the hydrology
// model grid and the source grid once, builds an hourly time index
// over the source files, then extracts, unit-converts, and aggregates
// each requested forcing variable before encoding it as point gage
// text, per-hour rasters, or a subset NetCDF file.
package metforce

// Version gives the version number of this version of metforce.
const Version = "1.0.0"
