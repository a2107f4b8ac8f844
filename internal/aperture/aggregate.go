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

package aperture

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Aggregate statistic over selected samples. NaN samples never contribute.
type Statistic int

const (
	StatStdDev Statistic = iota // Population standard deviation
	StatMean                    // Arithmetic mean
)

func (st Statistic) String() string {
	switch st {
	case StatStdDev:
		return "std"
	case StatMean:
		return "mean"
	}
	return fmt.Sprintf("Statistic(%d)", int(st))
}

// Parses a statistic from its name
func ParseStatistic(s string) (Statistic, error) {
	switch strings.ToLower(s) {
	case "std", "stddev":
		return StatStdDev, nil
	case "mean", "avg", "average":
		return StatMean, nil
	}
	return 0, fmt.Errorf("unknown statistic %q", s)
}

func (st Statistic) MarshalText() ([]byte, error) { return []byte(st.String()), nil }

func (st *Statistic) UnmarshalText(text []byte) (err error) {
	*st, err = ParseStatistic(string(text))
	return err
}

func (st Statistic) valid() bool { return st == StatStdDev || st == StatMean }

// Applies the statistic to the given NaN-free samples. Returns NaN if there are none.
func (st Statistic) apply(samples []float64) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	switch st {
	case StatMean:
		return stat.Mean(samples, nil)
	case StatStdDev:
		_, std := stat.PopMeanStdDev(samples, nil)
		return std
	}
	return math.NaN()
}

// Aggregate computes the statistic over all samples selected by the mask in
// every frame of the image. The mask is broadcast across frames. An empty
// selection, or one holding only NaN samples, yields NaN without an error.
// The image is not modified.
func Aggregate(img *Image, m *Mask, st Statistic) (float64, error) {
	if !st.valid() {
		return math.NaN(), fmt.Errorf("unknown statistic %v", st)
	}
	if m.Height != img.Height || m.Width != img.Width || len(m.Bits) != img.Pixels() {
		return math.NaN(), fmt.Errorf("%w: mask %dx%d, image %v", ErrShapeMismatch, m.Height, m.Width, img)
	}
	samples := make([]float64, 0, m.Count()*img.Frames)
	for f := 0; f < img.Frames; f++ {
		frame := img.Data[f*img.Pixels() : (f+1)*img.Pixels()]
		for i, sel := range m.Bits {
			if v := frame[i]; sel && !math.IsNaN(v) {
				samples = append(samples, v)
			}
		}
	}
	return st.apply(samples), nil
}

// Convenience wrapper: builds the mask for the selector around c and aggregates it
func AggregateAt(img *Image, c Center, s Selector, st Statistic) (float64, error) {
	m, err := SelectMask(img.Height, img.Width, c, s)
	if err != nil {
		return math.NaN(), err
	}
	return Aggregate(img, m, st)
}
