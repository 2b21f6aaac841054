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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/sparse"
	"github.com/gonum/floats"
)

const asciiNoData = -9999

// fileListName is the manifest the hydrology engine reads to locate
// the per-hour raster files.
const fileListName = "hmet_file_list.txt"

// asciiHeader is the Arc ASCII grid header shared by every per-hour
// raster of one conversion run. The grid is the subset source grid in
// geographic coordinates.
type asciiHeader struct {
	ncols, nrows       int
	xll, yll, cellsize float64
}

// newASCIIHeader derives the raster header from the subset cell
// center axes. The corner registration subtracts half a cell from the
// minimum center coordinates.
func newASCIIHeader(latAxis, lonAxis []float64) asciiHeader {
	h := asciiHeader{ncols: len(lonAxis), nrows: len(latAxis)}
	if len(lonAxis) > 1 {
		h.cellsize = (lonAxis[len(lonAxis)-1] - lonAxis[0]) / float64(len(lonAxis)-1)
	} else if len(latAxis) > 1 {
		h.cellsize = (latAxis[len(latAxis)-1] - latAxis[0]) / float64(len(latAxis)-1)
	}
	h.xll = floats.Min(lonAxis) - h.cellsize/2
	h.yll = floats.Min(latAxis) - h.cellsize/2
	return h
}

func (h asciiHeader) write(w io.Writer) {
	fmt.Fprintf(w, "ncols %d\n", h.ncols)
	fmt.Fprintf(w, "nrows %d\n", h.nrows)
	fmt.Fprintf(w, "xllcorner %f\n", h.xll)
	fmt.Fprintf(w, "yllcorner %f\n", h.yll)
	fmt.Fprintf(w, "cellsize %f\n", h.cellsize)
	fmt.Fprintf(w, "NODATA_value %d\n", asciiNoData)
}

// asciiFileName returns the raster file name for one hour of one
// forcing parameter, e.g. "2016010203_Temp.asc".
func asciiFileName(t time.Time, param string) string {
	return t.UTC().Format("2006010215") + "_" + param + ".asc"
}

// writeASCII writes one Arc ASCII raster per hourly slice of data
// into dir, named by timestamp and forcing parameter name.
func writeASCII(dir, param string, times []time.Time, data *sparse.DenseArray, h asciiHeader) error {
	if len(data.Shape) != 3 {
		return fmt.Errorf("metforce: raster output wants a [time, y, x] array; got shape %v", data.Shape)
	}
	nt, ny, nx := data.Shape[0], data.Shape[1], data.Shape[2]
	if nt != len(times) {
		return fmt.Errorf("metforce: raster output has %d time slices but %d timestamps", nt, len(times))
	}
	if ny != h.nrows || nx != h.ncols {
		return fmt.Errorf("metforce: raster output has shape [%d %d]; header says [%d %d]",
			ny, nx, h.nrows, h.ncols)
	}
	for it := 0; it < nt; it++ {
		if err := writeASCIISlice(filepath.Join(dir, asciiFileName(times[it], param)),
			data, it, h); err != nil {
			return err
		}
	}
	return nil
}

func writeASCIISlice(path string, data *sparse.DenseArray, it int, h asciiHeader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("metforce: creating raster file: %v", err)
	}
	b := bufio.NewWriter(f)
	h.write(b)
	for j := 0; j < h.nrows; j++ {
		for i := 0; i < h.ncols; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%.6f", data.Get(it, j, i))
		}
		b.WriteByte('\n')
	}
	if err := b.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// writeFileList writes the hourly manifest into dir: one line per
// hourly timestamp holding the path prefix the engine completes with
// "_<param>.asc" for each forcing parameter.
func writeFileList(dir string, times []time.Time) error {
	f, err := os.Create(filepath.Join(dir, fileListName))
	if err != nil {
		return fmt.Errorf("metforce: creating file list: %v", err)
	}
	b := bufio.NewWriter(f)
	for _, t := range times {
		fmt.Fprintln(b, filepath.Join(dir, t.UTC().Format("2006010215")))
	}
	if err := b.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// UpdateFileListPaths rewrites the manifest at path so that every
// per-hour path prefix points into newDir. Useful when the raster
// directory moves between the machine that ran the conversion and the
// machine that runs the hydrology engine.
func UpdateFileListPaths(path, newDir string) error {
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("metforce: reading file list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	var out strings.Builder
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fmt.Fprintln(&out, filepath.Join(newDir, filepath.Base(line)))
	}
	return ioutil.WriteFile(path, []byte(out.String()), 0644)
}
