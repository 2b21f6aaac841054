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
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/ctessum/sparse"
)

// gageTypes maps precipitation variable names to the record type
// keyword written on each gage data line.
var gageTypes = map[string]string{
	"precipitation_acc":  "ACCUM",
	"precipitation_rate": "RADAR",
	"precipitation_inc":  "GAGES",
}

// writeGage writes a point precipitation gage file: an EVENT header,
// record and gauge counts, one COORD line per source pixel center in
// the target projection, and one data line per native time step with
// the per-pixel values in row-major order.
func writeGage(w io.Writer, event, gageType string, times []time.Time,
	data *sparse.DenseArray, x, y []float64) error {
	if len(data.Shape) != 3 {
		return fmt.Errorf("metforce: gage output wants a [time, y, x] array; got shape %v", data.Shape)
	}
	nt := data.Shape[0]
	npix := data.Shape[1] * data.Shape[2]
	if nt != len(times) {
		return fmt.Errorf("metforce: gage output has %d time slices but %d timestamps", nt, len(times))
	}
	if len(x) != npix || len(y) != npix {
		return fmt.Errorf("metforce: gage output has %d pixels but %d coordinates", npix, len(x))
	}

	b := bufio.NewWriter(w)
	fmt.Fprintf(b, "EVENT \"%s\"\n", event)
	fmt.Fprintf(b, "NRPDS %d\n", nt)
	fmt.Fprintf(b, "NRGAG %d\n", npix)
	for i := 0; i < npix; i++ {
		fmt.Fprintf(b, "COORD %f %f \"center of pixel #%d\"\n", x[i], y[i], i)
	}
	for it := 0; it < nt; it++ {
		fmt.Fprintf(b, "%s %s", gageType, times[it].UTC().Format("2006 01 02 15 04"))
		for i := 0; i < npix; i++ {
			fmt.Fprintf(b, " %.6f", data.Elements[it*npix+i])
		}
		fmt.Fprintln(b)
	}
	return b.Flush()
}

// pixelCenters projects the subset cell-center latitude/longitude
// arrays into dest, returning flat row-major x and y slices.
func pixelCenters(lat, lon *sparse.DenseArray, dest *proj.SR) (x, y []float64, err error) {
	geo, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		return nil, nil, err
	}
	ct, err := geo.NewTransform(dest)
	if err != nil {
		return nil, nil, err
	}
	n := len(lat.Elements)
	x = make([]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		p, err := geom.Point{X: lon.Elements[i], Y: lat.Elements[i]}.Transform(ct)
		if err != nil {
			return nil, nil, err
		}
		pt := p.(geom.Point)
		x[i] = pt.X
		y[i] = pt.Y
	}
	return x, y, nil
}
