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

	"github.com/ctessum/sparse"
)

// toHourly reduces raw, a [time, y, x] array at native source cadence,
// to one slice per hour bucket of ti, applying rule along the time
// axis within each bucket. When the source step is longer than an hour
// the result is expanded to one slice per output hour instead: mean
// variables interpolate linearly between bucket values (repeating the
// last), and sum variables split each bucket value evenly.
//
// The latitude axis is reversed so that row 0 of the output is the
// northernmost row, matching raster conventions. Source coordinate
// arrays run south to north.
func toHourly(raw *sparse.DenseArray, ti *TimeIndex, rule AggregationRule) (*sparse.DenseArray, error) {
	if len(raw.Shape) != 3 {
		return nil, fmt.Errorf("metforce: toHourly wants a [time, y, x] array; got shape %v", raw.Shape)
	}
	if raw.Shape[0] != len(ti.Times) {
		return nil, fmt.Errorf("metforce: array has %d time slices; time index has %d",
			raw.Shape[0], len(ti.Times))
	}
	ny := raw.Shape[1]
	nx := raw.Shape[2]
	nb := ti.NumBuckets()

	buckets := sparse.ZerosDense(nb, ny, nx)
	for ib := 0; ib < nb; ib++ {
		start, end := ti.BucketSpan(ib)
		n := float64(end - start)
		for j := 0; j < ny; j++ {
			jOut := ny - 1 - j
			for i := 0; i < nx; i++ {
				var v float64
				for it := start; it < end; it++ {
					v += raw.Get(it, j, i)
				}
				if rule == AggregateMean {
					v /= n
				}
				buckets.Set(v, ib, jOut, i)
			}
		}
	}

	ef := ti.ExpansionFactor()
	if ef <= 1 {
		return buckets, nil
	}
	return expand(buckets, ef, rule), nil
}

// expand turns each bucket slice into ef hourly slices. Mean
// quantities interpolate linearly toward the next bucket, with the
// last bucket's value held; sum quantities divide each bucket total
// evenly across its hours.
func expand(buckets *sparse.DenseArray, ef int, rule AggregationRule) *sparse.DenseArray {
	nb := buckets.Shape[0]
	ny := buckets.Shape[1]
	nx := buckets.Shape[2]
	out := sparse.ZerosDense(nb*ef, ny, nx)
	for ib := 0; ib < nb; ib++ {
		for k := 0; k < ef; k++ {
			frac := float64(k) / float64(ef)
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					v := buckets.Get(ib, j, i)
					switch rule {
					case AggregateSum:
						v /= float64(ef)
					case AggregateMean:
						if ib < nb-1 {
							v += frac * (buckets.Get(ib+1, j, i) - v)
						}
					}
					out.Set(v, ib*ef+k, j, i)
				}
			}
		}
	}
	return out
}
