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

// Package aperture computes NaN-aware statistics over disk and annulus
// shaped pixel selections, either once around a given center or once per
// pixel to build a derived image such as a local noise map.
package aperture

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGeometry reports a selector with a negative or NaN radius,
	// or an annulus whose inner radius is not below its outer radius.
	ErrInvalidGeometry = errors.New("invalid aperture geometry")

	// ErrShapeMismatch reports an image whose spatial shape disagrees with a mask
	// or with another image.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrInvalidScale reports a non-positive plate scale, wavelength or aperture diameter.
	ErrInvalidScale = errors.New("invalid scale")
)

// A stack of frames x height x width samples. A plain 2-D image has one frame.
// Data is frame-major, then row-major, with the column index varying fastest.
// NaN samples are masked and ignored by all statistics.
type Image struct {
	Frames int
	Height int
	Width  int
	Data   []float64
}

// Creates an image with the given dimensions. Data is not copied, allocated if nil.
func NewImage(frames, height, width int, data []float64) (*Image, error) {
	if frames <= 0 || height < 0 || width < 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrShapeMismatch, frames, height, width)
	}
	n := frames * height * width
	if data == nil {
		data = make([]float64, n)
	}
	if len(data) != n {
		return nil, fmt.Errorf("%w: %d samples for %dx%dx%d", ErrShapeMismatch, len(data), frames, height, width)
	}
	return &Image{Frames: frames, Height: height, Width: width, Data: data}, nil
}

// Pixels per frame
func (img *Image) Pixels() int { return img.Height * img.Width }

// Returns the sample at the given frame, row and column
func (img *Image) At(frame, row, col int) float64 {
	return img.Data[(frame*img.Height+row)*img.Width+col]
}

// SameShape tells whether both images have identical frame and spatial dimensions.
func (img *Image) SameShape(o *Image) bool {
	return img.Frames == o.Frames && img.Height == o.Height && img.Width == o.Width
}

func (img *Image) String() string {
	return fmt.Sprintf("%dx%dx%d", img.Frames, img.Height, img.Width)
}

// A reference point for geometric selection in pixel units.
// X is the column index, Y the row index. Neither needs to be integral.
type Center struct {
	X float64
	Y float64
}

func (c Center) String() string {
	return fmt.Sprintf("(%.4g,%.4g)", c.X, c.Y)
}
