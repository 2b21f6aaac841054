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
	"path/filepath"
	"sort"
	"time"
)

// TimeOptions configures how timestamps are derived from source
// files.
type TimeOptions struct {
	// FilenameLayout is a Go reference-time layout matched against
	// file base names (for example "met_2006_01_02_15_04_05.nc").
	// When empty, timestamps are read from the files' embedded time
	// metadata instead.
	FilenameLayout string

	// StepSeconds sets the native time step explicitly. When 0, the
	// step is taken from file metadata, falling back to the delta
	// between the first two sorted timestamps.
	StepSeconds int
}

// TimeIndex holds the temporal structure of a conversion run: the
// source files sorted by their timestamps, the native time step, and
// the hour-bucket index mapping each distinct UTC wall-clock hour to
// the first time slice belonging to it. Read-only once built.
type TimeIndex struct {
	// Files are the source files in ascending time order.
	Files []string
	// Times are the corresponding timestamps, strictly increasing.
	Times []time.Time
	// StepSeconds is the native time step.
	StepSeconds int

	// bucketStarts[i] is the index into Times of the first slice in
	// hour bucket i. Buckets are contiguous; the last bucket extends
	// to the end of the series.
	bucketStarts []int

	// outTimes are the hourly output timestamps, one per bucket, or
	// expansionFactor per bucket when the native step exceeds one
	// hour and synthetic hourly timestamps are generated.
	outTimes []time.Time

	// expansionFactor is the number of hourly outputs generated per
	// source step; 1 unless StepSeconds > 3600.
	expansionFactor int
}

// NumBuckets is the number of hour buckets.
func (ti *TimeIndex) NumBuckets() int { return len(ti.bucketStarts) }

// BucketSpan returns the half-open range of time-slice indices
// belonging to hour bucket i.
func (ti *TimeIndex) BucketSpan(i int) (start, end int) {
	start = ti.bucketStarts[i]
	if i+1 < len(ti.bucketStarts) {
		end = ti.bucketStarts[i+1]
	} else {
		end = len(ti.Times)
	}
	return start, end
}

// OutTimes returns the hourly output timestamps.
func (ti *TimeIndex) OutTimes() []time.Time { return ti.outTimes }

// ExpansionFactor returns the number of hourly outputs per source
// step (1 unless the native step exceeds one hour).
func (ti *TimeIndex) ExpansionFactor() int { return ti.expansionFactor }

// BuildTimeIndex derives the temporal structure of a conversion run
// from the given source files. Timestamps come from the filename
// layout in opts, or from each file's embedded time metadata via src.
// Files are reordered by ascending timestamp; duplicate timestamps
// are an error, since no merge policy would be defensible.
func BuildTimeIndex(src Source, files []string, opts TimeOptions) (*TimeIndex, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("metforce: no source files matched")
	}

	ti := &TimeIndex{
		Files: append([]string{}, files...),
		Times: make([]time.Time, len(files)),
	}
	for i, file := range ti.Files {
		var t time.Time
		var err error
		if opts.FilenameLayout != "" {
			t, err = time.ParseInLocation(opts.FilenameLayout, filepath.Base(file), time.UTC)
			if err != nil {
				err = fmt.Errorf("metforce: timestamp from file name %s: %v", filepath.Base(file), err)
			}
		} else {
			t, err = src.Time(file)
		}
		if err != nil {
			return nil, err
		}
		ti.Times[i] = t.UTC()
	}

	sort.Sort(byTime{ti})

	for i := 1; i < len(ti.Times); i++ {
		if ti.Times[i].Equal(ti.Times[i-1]) {
			return nil, fmt.Errorf("metforce: duplicate timestamp %v in source files %s and %s",
				ti.Times[i].Format("2006-01-02 15:04"), ti.Files[i-1], ti.Files[i])
		}
	}

	if err := ti.resolveStep(src, opts.StepSeconds); err != nil {
		return nil, err
	}
	ti.buildBuckets()
	return ti, nil
}

// byTime sorts a TimeIndex's files and timestamps together by
// ascending timestamp.
type byTime struct{ ti *TimeIndex }

func (b byTime) Len() int { return len(b.ti.Times) }
func (b byTime) Less(i, j int) bool {
	return b.ti.Times[i].Before(b.ti.Times[j])
}
func (b byTime) Swap(i, j int) {
	b.ti.Times[i], b.ti.Times[j] = b.ti.Times[j], b.ti.Times[i]
	b.ti.Files[i], b.ti.Files[j] = b.ti.Files[j], b.ti.Files[i]
}

func (ti *TimeIndex) resolveStep(src Source, explicit int) error {
	if explicit > 0 {
		ti.StepSeconds = explicit
		return nil
	}
	if step, err := src.TimeStep(); err == nil && step > 0 {
		ti.StepSeconds = step
		return nil
	}
	if len(ti.Times) < 2 {
		return fmt.Errorf("metforce: time step not determinable from a single " +
			"timestamp; set the step explicitly")
	}
	ti.StepSeconds = int(ti.Times[1].Sub(ti.Times[0]) / time.Second)
	return nil
}

// buildBuckets walks the sorted timestamps and records a bucket
// boundary whenever the UTC hour-of-day component changes. This
// yields one bucket per distinct wall-clock hour encountered, not one
// per elapsed hour: gaps are not back-filled, and the first
// timestamp's minute offset carries through the run. When the native
// step exceeds one hour, synthetic hourly output timestamps fill the
// span between buckets so that the output keeps a fixed hourly
// cadence.
func (ti *TimeIndex) buildBuckets() {
	ti.bucketStarts = ti.bucketStarts[:0]
	for i, t := range ti.Times {
		if i == 0 || t.Hour() != ti.Times[i-1].Hour() {
			ti.bucketStarts = append(ti.bucketStarts, i)
		}
	}

	ti.expansionFactor = 1
	if ti.StepSeconds > 3600 {
		ti.expansionFactor = ti.StepSeconds / 3600
	}

	ti.outTimes = ti.outTimes[:0]
	for _, start := range ti.bucketStarts {
		if ti.expansionFactor == 1 {
			ti.outTimes = append(ti.outTimes, ti.Times[start])
			continue
		}
		for k := 0; k < ti.expansionFactor; k++ {
			ti.outTimes = append(ti.outTimes, ti.Times[start].Add(time.Duration(k)*time.Hour))
		}
	}
}
