// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/valyala/fastrand"
	"gonum.org/v1/gonum/stat"

	"github.com/hoxca/sensloss/internal/fits"
)

// Maximum number of samples drawn for the median estimate
const medianSamples = 1 << 16

// Basic statistics of an image, ignoring NaN samples
type BasicStats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64 // exact up to medianSamples valid samples, estimated from a random sample beyond
	Valid  int     // number of non-NaN samples
	NaNs   int
}

// Print basic statistics
func (s *BasicStats) String() string {
	return fmt.Sprintf("Min %.4g Max %.4g Mean %.4g StdDev %.4g Median %.4g Valid %d NaN %d",
		s.Min, s.Max, s.Mean, s.StdDev, s.Median, s.Valid, s.NaNs)
}

// Calculate basic statistics. Statistics of an image without valid samples are NaN.
func CalcBasicStats(data []float64) *BasicStats {
	s := &BasicStats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN(), Median: math.NaN()}
	valid := make([]float64, 0, len(data))
	for _, v := range data {
		if math.IsNaN(v) {
			s.NaNs++
			continue
		}
		valid = append(valid, v)
	}
	s.Valid = len(valid)
	if s.Valid == 0 {
		return s
	}

	s.Min, s.Max = valid[0], valid[0]
	for _, v := range valid {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Mean, s.StdDev = stat.PopMeanStdDev(valid, nil)

	sample := valid
	if len(valid) > medianSamples {
		sample = make([]float64, medianSamples)
		for i := range sample {
			sample[i] = valid[fastrand.Uint32n(uint32(len(valid)))]
		}
	} else {
		sample = append([]float64(nil), valid...)
	}
	sort.Float64s(sample)
	s.Median = stat.Quantile(0.5, stat.Empirical, sample, nil)
	return s
}

// Perform statistics command: dimensions of every image HDU and basic statistics of its data
func CmdStats(fileNames []string) (numErrors int) {
	LogPrintf("\nStatistics of %d files:\n", len(fileNames))

	lines := make([]string, len(fileNames))
	errs := make([]bool, len(fileNames))
	sem := make(chan bool, runtime.NumCPU())
	for id, fileName := range fileNames {
		sem <- true
		go func(id int, fileName string) {
			defer func() { <-sem }()
			imgs, err := fits.ReadFileHDUs(fileName)
			if err != nil {
				lines[id] = fmt.Sprintf("%d: Error: %s\n", id, err.Error())
				errs[id] = true
				return
			}
			for _, img := range imgs {
				lines[id] += fmt.Sprintf("%d: %s HDU %d: %s\n", id, fileName, img.HDU, describeDimensions(img))
				if img.Pixels() > 0 {
					lines[id] += fmt.Sprintf("%d: %v\n", id, CalcBasicStats(img.Data))
				}
			}
		}(id, fileName)
	}
	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}

	// print in input order
	for id, l := range lines {
		LogPrint(l)
		if errs[id] {
			numErrors++
		}
	}
	return numErrors
}

// Frames, rows and columns of an image, or a note on unusual axes
func describeDimensions(img *fits.Image) string {
	switch len(img.Naxisn) {
	case 0:
		return "no data"
	case 2, 3:
		return fmt.Sprintf("%d frames of %d rows by %d columns", img.Frames(), img.Height(), img.Width())
	}
	return fmt.Sprintf("unexpected dimensions %s", img.DimensionsToString())
}
