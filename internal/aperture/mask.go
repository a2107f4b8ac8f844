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
)

// A height x width selection of pixels, row-major
type Mask struct {
	Height int
	Width  int
	Bits   []bool
}

// Number of selected pixels
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Mask selecting every pixel of a height x width grid
func NewFullMask(height, width int) *Mask {
	m := &Mask{Height: height, Width: width, Bits: make([]bool, height*width)}
	for i := range m.Bits {
		m.Bits[i] = true
	}
	return m
}

// Tells whether the pixel at the given row and column is selected
func (m *Mask) At(row, col int) bool {
	return m.Bits[row*m.Width+col]
}

// SelectMask marks every pixel of a height x width grid whose Euclidean
// distance from c satisfies the selector. Pixel coordinates are the integer
// grid indices. A selection without any pixels is valid.
func SelectMask(height, width int, c Center, s Selector) (*Mask, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if height < 0 || width < 0 {
		return nil, fmt.Errorf("%w: mask %dx%d", ErrShapeMismatch, height, width)
	}
	m := &Mask{Height: height, Width: width, Bits: make([]bool, height*width)}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.Bits[y*width+x] = s.contains(distance(x, y, c))
		}
	}
	return m, nil
}

// Euclidean distance of pixel (x,y) from c. Shared by every selection path
// so that all of them agree on the exact floating point value.
func distance(x, y int, c Center) float64 {
	dx, dy := float64(x)-c.X, float64(y)-c.Y
	return math.Sqrt(dx*dx + dy*dy)
}
