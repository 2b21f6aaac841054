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

	"github.com/ctessum/sparse"
	"github.com/gonum/floats"
)

// CoordGrid holds the coordinate arrays of a source grid: either
// separable 1-D axes or 2-D curvilinear arrays. Exactly one pair of
// fields is set.
type CoordGrid struct {
	// Lat and Lon are 1-D axis coordinates for separable grids.
	Lat, Lon []float64
	// Lat2D and Lon2D are 2-D cell-center coordinates for
	// curvilinear grids, indexed [row, col].
	Lat2D, Lon2D *sparse.DenseArray
}

// Curvilinear reports whether the grid's coordinates are 2-D arrays.
func (c *CoordGrid) Curvilinear() bool { return c.Lat2D != nil }

// Size returns the number of rows and columns in the coordinate grid.
func (c *CoordGrid) Size() (rows, cols int) {
	if c.Curvilinear() {
		return c.Lat2D.Shape[0], c.Lat2D.Shape[1]
	}
	return len(c.Lat), len(c.Lon)
}

// An IndexSet selects the axis-aligned sub-rectangle of a source grid
// covering the target grid plus a buffer. Indices are contiguous,
// ascending, and valid within the source array bounds. Read-only
// after extent resolution.
type IndexSet struct {
	// RowStart/RowEnd and ColStart/ColEnd are half-open index ranges
	// into the source grid's latitude and longitude axes.
	RowStart, RowEnd int
	ColStart, ColEnd int
}

// NRows is the number of selected rows.
func (s *IndexSet) NRows() int { return s.RowEnd - s.RowStart }

// NCols is the number of selected columns.
func (s *IndexSet) NCols() int { return s.ColEnd - s.ColStart }

// maxAbsDiff returns the largest absolute difference between adjacent
// elements of v, or 0 if v has fewer than two elements.
func maxAbsDiff(v []float64) float64 {
	var d float64
	for i := 1; i < len(v); i++ {
		d = math.Max(d, math.Abs(v[i]-v[i-1]))
	}
	return d
}

// maxAbsDiff2D returns the largest absolute difference between
// adjacent elements of a 2-D array along the given axis (0 = between
// rows, 1 = between columns).
func maxAbsDiff2D(a *sparse.DenseArray, axis int) float64 {
	var d float64
	ny, nx := a.Shape[0], a.Shape[1]
	if axis == 0 {
		for j := 1; j < ny; j++ {
			for i := 0; i < nx; i++ {
				d = math.Max(d, math.Abs(a.Get(j, i)-a.Get(j-1, i)))
			}
		}
	} else {
		for j := 0; j < ny; j++ {
			for i := 1; i < nx; i++ {
				d = math.Max(d, math.Abs(a.Get(j, i)-a.Get(j, i-1)))
			}
		}
	}
	return d
}

// rangeWithin returns the half-open index range of elements of v
// falling inside [lo, hi], and whether any do.
func rangeWithin(v []float64, lo, hi float64) (start, end int, ok bool) {
	start, end = -1, -1
	for i, val := range v {
		if val >= lo && val <= hi {
			if start < 0 {
				start = i
			}
			end = i + 1
		}
	}
	return start, end, start >= 0
}

// rangeWithin2D returns the half-open row and column index ranges of
// elements of a falling inside [lo, hi], and whether any do.
func rangeWithin2D(a *sparse.DenseArray, lo, hi float64) (rowStart, rowEnd, colStart, colEnd int, ok bool) {
	rowStart, colStart = -1, -1
	for j := 0; j < a.Shape[0]; j++ {
		for i := 0; i < a.Shape[1]; i++ {
			val := a.Get(j, i)
			if val < lo || val > hi {
				continue
			}
			if rowStart < 0 || j < rowStart {
				rowStart = j
			}
			if j+1 > rowEnd {
				rowEnd = j + 1
			}
			if colStart < 0 || i < colStart {
				colStart = i
			}
			if i+1 > colEnd {
				colEnd = i + 1
			}
		}
	}
	return rowStart, rowEnd, colStart, colEnd, rowStart >= 0 && colStart >= 0
}

// intersectRange intersects two half-open index ranges.
func intersectRange(aStart, aEnd, bStart, bEnd int) (start, end int, ok bool) {
	start = aStart
	if bStart > start {
		start = bStart
	}
	end = aEnd
	if bEnd < end {
		end = bEnd
	}
	return start, end, start < end
}

// widen grows a degenerate (single-index) range by one index on each
// side where the source array bounds allow, so that finite-difference
// buffering downstream stays well-defined.
func widen(start, end, n int) (int, int) {
	if end-start > 1 {
		return start, end
	}
	if start > 0 {
		start--
	}
	if end < n {
		end++
	}
	return start, end
}

// ResolveExtent determines which source grid indices overlap the
// target grid. The target grid's bounding box is reprojected corner
// by corner into geographic coordinates, the coordinate system the
// source latitude and longitude arrays are expressed in regardless of
// the source's own map projection, then buffered by the largest
// adjacent-cell spacing observed in the coordinate arrays and
// intersected with them. An error is returned when the target grid
// lies outside the source grid's coverage.
func ResolveExtent(target *TargetGrid, coords *CoordGrid) (*IndexSet, error) {
	geo, err := Geographic{}.SR()
	if err != nil {
		return nil, err
	}
	xMin, xMax, yMin, yMax, err := target.Bounds(geo)
	if err != nil {
		return nil, err
	}

	var set IndexSet
	nRows, nCols := coords.Size()
	if coords.Curvilinear() {
		bufY := maxAbsDiff2D(coords.Lat2D, 0)
		bufX := maxAbsDiff2D(coords.Lon2D, 1)
		latR0, latR1, latC0, latC1, okLat := rangeWithin2D(coords.Lat2D, yMin-bufY, yMax+bufY)
		lonR0, lonR1, lonC0, lonC1, okLon := rangeWithin2D(coords.Lon2D, xMin-bufX, xMax+bufX)
		if !okLat || !okLon {
			return nil, extentError(target, xMin, xMax, yMin, yMax)
		}
		var okR, okC bool
		set.RowStart, set.RowEnd, okR = intersectRange(latR0, latR1, lonR0, lonR1)
		set.ColStart, set.ColEnd, okC = intersectRange(latC0, latC1, lonC0, lonC1)
		if !okR || !okC {
			return nil, extentError(target, xMin, xMax, yMin, yMax)
		}
	} else {
		bufY := maxAbsDiff(coords.Lat)
		bufX := maxAbsDiff(coords.Lon)
		var okR, okC bool
		set.RowStart, set.RowEnd, okR = rangeWithin(coords.Lat, yMin-bufY, yMax+bufY)
		set.ColStart, set.ColEnd, okC = rangeWithin(coords.Lon, xMin-bufX, xMax+bufX)
		if !okR || !okC {
			return nil, extentError(target, xMin, xMax, yMin, yMax)
		}
	}
	set.RowStart, set.RowEnd = widen(set.RowStart, set.RowEnd, nRows)
	set.ColStart, set.ColEnd = widen(set.ColStart, set.ColEnd, nCols)
	return &set, nil
}

func extentError(target *TargetGrid, xMin, xMax, yMin, yMax float64) error {
	return fmt.Errorf("metforce: target grid %s (longitude %g to %g, "+
		"latitude %g to %g) lies outside the source grid coverage",
		target.Name, xMin, xMax, yMin, yMax)
}

// Subset extracts the selected sub-rectangle of the coordinate grid
// as 2-D latitude and longitude arrays, for output spatial metadata.
func (c *CoordGrid) Subset(set *IndexSet) (lat, lon *sparse.DenseArray) {
	lat = sparse.ZerosDense(set.NRows(), set.NCols())
	lon = sparse.ZerosDense(set.NRows(), set.NCols())
	for j := 0; j < set.NRows(); j++ {
		for i := 0; i < set.NCols(); i++ {
			if c.Curvilinear() {
				lat.Set(c.Lat2D.Get(set.RowStart+j, set.ColStart+i), j, i)
				lon.Set(c.Lon2D.Get(set.RowStart+j, set.ColStart+i), j, i)
			} else {
				lat.Set(c.Lat[set.RowStart+j], j, i)
				lon.Set(c.Lon[set.ColStart+i], j, i)
			}
		}
	}
	return lat, lon
}

// axisCenters collapses 2-D subset coordinates to 1-D axis values by
// averaging across the other axis.
func axisCenters(lat, lon *sparse.DenseArray) (latAxis, lonAxis []float64) {
	ny, nx := lat.Shape[0], lat.Shape[1]
	latAxis = make([]float64, ny)
	lonAxis = make([]float64, nx)
	row := make([]float64, nx)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			row[i] = lat.Get(j, i)
		}
		latAxis[j] = floats.Sum(row) / float64(nx)
	}
	col := make([]float64, ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			col[j] = lon.Get(j, i)
		}
		lonAxis[i] = floats.Sum(col) / float64(ny)
	}
	return latAxis, lonAxis
}
