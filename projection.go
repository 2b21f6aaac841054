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
	"math"

	"github.com/ctessum/geom/proj"
)

// EarthRadius is the sphere radius [m] used by regional atmospheric
// models for their map projections.
const EarthRadius = 6370000.

// A Projection describes the map projection of a source grid and can
// produce both a spatial reference for coordinate transforms and a
// proj4 string for embedding in output metadata.
type Projection interface {
	// SR returns the spatial reference for this projection.
	SR() (*proj.SR, error)
	// Proj4 returns the proj4 representation of this projection.
	Proj4() string
}

// LambertConformalConic is a Lambert conformal conic projection on a
// sphere, as used by regional models such as WRF.
type LambertConformalConic struct {
	StandardParallel1 float64
	StandardParallel2 float64
	CentralMeridian   float64
	LatitudeOfOrigin  float64
}

// SR returns the spatial reference for this projection.
func (p LambertConformalConic) SR() (*proj.SR, error) {
	lat2 := p.StandardParallel2
	lat0 := p.LatitudeOfOrigin
	if lat2 == 0 && p.StandardParallel1 != 0 {
		// single standard parallel form
		lat2 = p.StandardParallel1
		lat0 = p.StandardParallel1
	}
	sr := proj.NewSR()
	sr.Name = "lcc"
	sr.Lat1 = p.StandardParallel1
	sr.Lat2 = lat2
	sr.Lat0 = lat0
	sr.Long0 = p.CentralMeridian
	sr.X0 = 0
	sr.Y0 = 0
	sr.A = EarthRadius
	sr.B = EarthRadius
	sr.ToMeter = 1.
	sr.DeriveConstants()
	return sr, nil
}

// Proj4 returns the proj4 representation of this projection.
func (p LambertConformalConic) Proj4() string {
	return fmt.Sprintf("+proj=lcc +lat_1=%g +lat_2=%g +lat_0=%g +lon_0=%g "+
		"+x_0=0 +y_0=0 +a=%.0f +b=%.0f +units=m +no_defs",
		p.StandardParallel1, p.StandardParallel2, p.LatitudeOfOrigin,
		p.CentralMeridian, EarthRadius, EarthRadius)
}

// PolarStereographic is a polar stereographic projection on a sphere.
// The central scale factor is derived from the standard parallel
// assuming no flattening (Rollins 2011, eq. 1).
type PolarStereographic struct {
	StandardParallel float64
	CentralMeridian  float64
}

// scaleFactor is k0 for a sphere, where k90 = 1 and e = 0.
func (p PolarStereographic) scaleFactor() float64 {
	return (1 + math.Sin(math.Abs(p.StandardParallel)*math.Pi/180)) / 2
}

// SR returns the spatial reference for this projection.
func (p PolarStereographic) SR() (*proj.SR, error) {
	sr := proj.NewSR()
	sr.Name = "stere"
	sr.Lat0 = math.Copysign(90, p.StandardParallel)
	sr.LatTS = p.StandardParallel
	sr.Long0 = p.CentralMeridian
	sr.K0 = p.scaleFactor()
	sr.X0 = 0
	sr.Y0 = 0
	sr.A = EarthRadius
	sr.B = EarthRadius
	sr.ToMeter = 1.
	sr.DeriveConstants()
	return sr, nil
}

// Proj4 returns the proj4 representation of this projection.
func (p PolarStereographic) Proj4() string {
	return fmt.Sprintf("+proj=stere +lat_0=%g +lat_ts=%g +lon_0=%g +k_0=%g "+
		"+x_0=0 +y_0=0 +a=%.0f +b=%.0f +units=m +no_defs",
		math.Copysign(90, p.StandardParallel), p.StandardParallel,
		p.CentralMeridian, p.scaleFactor(), EarthRadius, EarthRadius)
}

// Mercator is a Mercator projection on a sphere.
type Mercator struct {
	StandardParallel float64
	CentralMeridian  float64
}

// SR returns the spatial reference for this projection.
func (p Mercator) SR() (*proj.SR, error) {
	sr := proj.NewSR()
	sr.Name = "merc"
	sr.LatTS = p.StandardParallel
	sr.Long0 = p.CentralMeridian
	sr.X0 = 0
	sr.Y0 = 0
	sr.A = EarthRadius
	sr.B = EarthRadius
	sr.ToMeter = 1.
	sr.DeriveConstants()
	return sr, nil
}

// Proj4 returns the proj4 representation of this projection.
func (p Mercator) Proj4() string {
	return fmt.Sprintf("+proj=merc +lat_ts=%g +lon_0=%g +x_0=0 +y_0=0 "+
		"+a=%.0f +b=%.0f +units=m +no_defs",
		p.StandardParallel, p.CentralMeridian, EarthRadius, EarthRadius)
}

// EquidistantCylindrical is an equidistant cylindrical (plate carrée)
// projection on a sphere, used by rotated-pole regional grids.
type EquidistantCylindrical struct {
	StandardParallel float64
	CentralMeridian  float64
}

// SR returns the spatial reference for this projection.
func (p EquidistantCylindrical) SR() (*proj.SR, error) {
	sr := proj.NewSR()
	sr.Name = "eqc"
	sr.LatTS = p.StandardParallel
	sr.Lat0 = 0
	sr.Long0 = p.CentralMeridian
	sr.X0 = 0
	sr.Y0 = 0
	sr.A = EarthRadius
	sr.B = EarthRadius
	sr.ToMeter = 1.
	sr.DeriveConstants()
	return sr, nil
}

// Proj4 returns the proj4 representation of this projection.
func (p EquidistantCylindrical) Proj4() string {
	return fmt.Sprintf("+proj=eqc +lat_ts=%g +lat_0=0 +lon_0=%g +x_0=0 +y_0=0 "+
		"+a=%.0f +b=%.0f +units=m +no_defs",
		p.StandardParallel, p.CentralMeridian, EarthRadius, EarthRadius)
}

// Geographic is an unprojected latitude/longitude coordinate system
// (EPSG:4326).
type Geographic struct{}

// SR returns the spatial reference for this projection.
func (p Geographic) SR() (*proj.SR, error) {
	return proj.Parse(p.Proj4())
}

// Proj4 returns the proj4 representation of this projection.
func (p Geographic) Proj4() string {
	return "+proj=longlat +datum=WGS84 +no_defs"
}

// WRF map projection codes, as recorded in the MAP_PROJ global
// attribute of model output files.
const (
	wrfProjLambert     = 1
	wrfProjPolarStereo = 2
	wrfProjMercator    = 3
	wrfProjCylindrical = 6
)

// projectionFromWRF converts a WRF map projection code and its
// associated global-attribute parameters to a Projection.
// Unsupported codes are a configuration error.
func projectionFromWRF(mapProj int, trueLat1, trueLat2, standLon, cenLat float64) (Projection, error) {
	switch mapProj {
	case wrfProjLambert:
		return LambertConformalConic{
			StandardParallel1: trueLat1,
			StandardParallel2: trueLat2,
			CentralMeridian:   standLon,
			LatitudeOfOrigin:  cenLat,
		}, nil
	case wrfProjPolarStereo:
		return PolarStereographic{
			StandardParallel: trueLat1,
			CentralMeridian:  standLon,
		}, nil
	case wrfProjMercator:
		return Mercator{
			StandardParallel: trueLat1,
			CentralMeridian:  standLon,
		}, nil
	case wrfProjCylindrical:
		return EquidistantCylindrical{
			StandardParallel: trueLat1,
			CentralMeridian:  standLon,
		}, nil
	default:
		return nil, fmt.Errorf("metforce: unsupported map projection code %d "+
			"(supported codes are 1=Lambert conformal conic, 2=polar stereographic, "+
			"3=Mercator, 6=equidistant cylindrical)", mapProj)
	}
}

// ProjectionInfo pairs a resolved spatial reference with its proj4
// representation for output metadata.
type ProjectionInfo struct {
	SR    *proj.SR
	Proj4 string
}

// newProjectionInfo resolves a Projection into a ProjectionInfo.
func newProjectionInfo(p Projection) (*ProjectionInfo, error) {
	sr, err := p.SR()
	if err != nil {
		return nil, fmt.Errorf("metforce: resolving source projection: %v", err)
	}
	return &ProjectionInfo{SR: sr, Proj4: p.Proj4()}, nil
}
