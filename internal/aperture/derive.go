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
	"context"
	"fmt"
	"math"
	"runtime"
)

// BuildDerivedImage re-centers the selector on every pixel (row i, column j)
// of the image, pools the selected samples of all frames and stores the
// statistic at (i,j) of a new single-frame image with the same height and
// width. Apertures reaching past the border use the in-bounds pixels only.
//
// Each cell is identical to Aggregate over SelectMask centered at (X=j, Y=i):
// the scan is limited to the aperture's bounding box, but samples are visited
// in the same frame-major, row-major order. Rows are computed concurrently by
// at most workers goroutines, or one per CPU if workers<=0. Cancelling ctx
// stops scheduling further rows and returns ctx.Err().
func BuildDerivedImage(ctx context.Context, img *Image, s Selector, st Statistic, workers int) (*Image, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if !st.valid() {
		return nil, fmt.Errorf("unknown statistic %v", st)
	}
	if len(img.Data) != img.Frames*img.Pixels() {
		return nil, fmt.Errorf("%w: %d samples for %v", ErrShapeMismatch, len(img.Data), img)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	res, err := NewImage(1, img.Height, img.Width, nil)
	if err != nil {
		return nil, err
	}

	sem := make(chan bool, workers)
	for row := 0; row < img.Height; row++ {
		if ctx.Err() != nil {
			break
		}
		sem <- true
		go func(row int) {
			defer func() { <-sem }()
			deriveRow(img, s, st, row, res.Data[row*img.Width:(row+1)*img.Width])
		}(row)
	}
	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Computes all cells of one output row, reusing a single sample buffer
func deriveRow(img *Image, s Selector, st Statistic, row int, out []float64) {
	var samples []float64
	for col := range out {
		out[col], samples = deriveCell(img, s, st, Center{X: float64(col), Y: float64(row)}, samples)
	}
}

// Statistic over the selector around c, scanning only the bounding box of the
// outer radius. Returns the grown sample buffer for reuse.
func deriveCell(img *Image, s Selector, st Statistic, c Center, samples []float64) (float64, []float64) {
	r := s.Outer
	y0 := int(math.Max(0, math.Floor(c.Y-r)))
	y1 := int(math.Min(float64(img.Height-1), math.Ceil(c.Y+r)))
	x0 := int(math.Max(0, math.Floor(c.X-r)))
	x1 := int(math.Min(float64(img.Width-1), math.Ceil(c.X+r)))

	samples = samples[:0]
	for f := 0; f < img.Frames; f++ {
		frame := img.Data[f*img.Pixels() : (f+1)*img.Pixels()]
		for y := y0; y <= y1; y++ {
			line := frame[y*img.Width : (y+1)*img.Width]
			for x := x0; x <= x1; x++ {
				if v := line[x]; s.contains(distance(x, y, c)) && !math.IsNaN(v) {
					samples = append(samples, v)
				}
			}
		}
	}
	return st.apply(samples), samples
}
