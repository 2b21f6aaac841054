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
	"io/ioutil"
	"math"
	"strings"

	"github.com/ctessum/geom/proj"
)

// TargetGrid describes the hydrology model's grid: its size, cell
// dimensions, and spatial reference. The grid is regular in its own
// projection; all grid cells are the same size.
type TargetGrid struct {
	Name   string
	Nx, Ny int
	// Dx and Dy are the cell edge lengths [grid projection units].
	Dx, Dy float64
	// X0 is the west edge and Y0 the north edge of the grid
	// [grid projection units].
	X0, Y0 float64
	// SR is the grid's spatial reference.
	SR *proj.SR
	// WKT is the well-known-text form of the spatial reference, kept
	// for embedding in output metadata.
	WKT string
}

// NewTargetGrid creates a target grid definition from the grid raster's
// geotransform (GDAL ordering: west, dx, x-skew, north, y-skew, -dy)
// and its well-known-text spatial reference.
func NewTargetGrid(name string, nx, ny int, geotransform [6]float64, wkt string) (*TargetGrid, error) {
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("metforce: target grid %s has invalid size %d×%d", name, nx, ny)
	}
	sr, err := proj.Parse(wkt)
	if err != nil {
		return nil, fmt.Errorf("metforce: parsing target grid projection: %v", err)
	}
	g := &TargetGrid{
		Name: name,
		Nx:   nx,
		Ny:   ny,
		Dx:   geotransform[1],
		Dy:   -geotransform[5],
		X0:   geotransform[0],
		Y0:   geotransform[3],
		SR:   sr,
		WKT:  wkt,
	}
	if g.Dx <= 0 || g.Dy <= 0 {
		return nil, fmt.Errorf("metforce: target grid %s has invalid cell size %g×%g", name, g.Dx, g.Dy)
	}
	return g, nil
}

// NewTargetGridFromFile creates a target grid definition, reading the
// spatial reference from a side-car projection file containing
// well-known text.
func NewTargetGridFromFile(name string, nx, ny int, geotransform [6]float64, prjFile string) (*TargetGrid, error) {
	wkt, err := ioutil.ReadFile(prjFile)
	if err != nil {
		return nil, fmt.Errorf("metforce: reading target grid projection file: %v", err)
	}
	return NewTargetGrid(name, nx, ny, geotransform, strings.TrimSpace(string(wkt)))
}

// CellSize is the representative cell size of the grid, computed as
// the mean of the four directional neighbor spacings.
func (g *TargetGrid) CellSize() float64 {
	return (g.Dx + g.Dx + g.Dy + g.Dy) / 4
}

// Extent returns the grid's bounding box in its own projection as
// west, east, south, north.
func (g *TargetGrid) Extent() (w, e, s, n float64) {
	w = g.X0
	e = g.X0 + float64(g.Nx)*g.Dx
	n = g.Y0
	s = g.Y0 - float64(g.Ny)*g.Dy
	return
}

// Bounds transforms the four corners of the grid's bounding box into
// the destination spatial reference and returns the enclosing box as
// xMin, xMax, yMin, yMax. Transforming each corner separately handles
// destinations where the reprojected rectangle is not itself a
// rectangle.
func (g *TargetGrid) Bounds(dest *proj.SR) (xMin, xMax, yMin, yMax float64, err error) {
	ct, err := g.SR.NewTransform(dest)
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("metforce: target grid transform: %v", err)
	}
	w, e, s, n := g.Extent()
	corners := [4][2]float64{{w, n}, {e, n}, {w, s}, {e, s}}
	xMin, yMin = math.Inf(1), math.Inf(1)
	xMax, yMax = math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x, y, err := ct(c[0], c[1])
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("metforce: transforming target grid corner (%g, %g): %v", c[0], c[1], err)
		}
		xMin = math.Min(xMin, x)
		xMax = math.Max(xMax, x)
		yMin = math.Min(yMin, y)
		yMax = math.Max(yMax, y)
	}
	return xMin, xMax, yMin, yMax, nil
}

// CellCenters returns the coordinates of all cell centers in the
// grid's own projection, in north-up row-major order.
func (g *TargetGrid) CellCenters() (x, y []float64) {
	x = make([]float64, g.Nx*g.Ny)
	y = make([]float64, g.Nx*g.Ny)
	for j := 0; j < g.Ny; j++ {
		for i := 0; i < g.Nx; i++ {
			x[j*g.Nx+i] = g.X0 + (float64(i)+0.5)*g.Dx
			y[j*g.Nx+i] = g.Y0 - (float64(j)+0.5)*g.Dy
		}
	}
	return x, y
}
