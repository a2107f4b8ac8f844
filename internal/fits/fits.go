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

package fits

import (
	"errors"
	"fmt"
	"strings"

	"github.com/astrogo/fitsio"
	"github.com/hoxca/sensloss/internal/aperture"
)

var (
	// ErrShapeMismatch reports images whose dimensions disagree
	ErrShapeMismatch = aperture.ErrShapeMismatch

	// ErrNoImage reports a file or HDU without image data
	ErrNoImage = errors.New("no image data")
)

// A FITS image.
// Spec here:   https://fits.gsfc.nasa.gov/standard40/fits_standard40aa-le.pdf
// Primer here: https://fits.gsfc.nasa.gov/fits_primer.html
type Image struct {
	ID       int    // Sequential ID number, for log output
	FileName string // Original file name, if any, for log output
	HDU      int    // Index of the header data unit this image was read from

	Header []fitsio.Card // Non-structural header cards, propagated into derived products
	Bitpix int           // Bits per pixel value of the source. Positive values are integral, negative floating.
	Naxisn []int         // Axis dimensions. Most quickly varying dimension first (i.e. X,Y,frame)

	Data []float64 // The image data, with BZERO and BSCALE applied and BLANK replaced by NaN
}

// Creates a FITS image from given naxisn. Data is not copied, allocated if nil. naxisn is deep copied
func NewImageFromNaxisn(naxisn []int, data []float64) *Image {
	numPixels := 1
	for _, naxis := range naxisn {
		numPixels *= naxis
	}
	if data == nil {
		data = make([]float64, numPixels)
	}
	return &Image{
		Bitpix: -64,
		Naxisn: append([]int(nil), naxisn...), // clone slice
		Data:   data,
	}
}

// Creates a derived image holding the given stack, inheriting ID, file name and header from src
func NewImageFromStack(src *Image, st *aperture.Image) *Image {
	naxisn := []int{st.Width, st.Height}
	if st.Frames > 1 {
		naxisn = append(naxisn, st.Frames)
	}
	res := NewImageFromNaxisn(naxisn, st.Data)
	if src != nil {
		res.ID, res.FileName = src.ID, src.FileName
		res.Header = append([]fitsio.Card(nil), src.Header...)
	}
	return res
}

// Number of samples in the image. Product of Naxisn[]
func (f *Image) Pixels() int {
	if len(f.Naxisn) == 0 {
		return 0
	}
	n := 1
	for _, naxis := range f.Naxisn {
		n *= naxis
	}
	return n
}

// Width of each frame, i.e. NAXIS1
func (f *Image) Width() int {
	if len(f.Naxisn) < 1 {
		return 0
	}
	return f.Naxisn[0]
}

// Height of each frame, i.e. NAXIS2
func (f *Image) Height() int {
	if len(f.Naxisn) < 2 {
		return 1
	}
	return f.Naxisn[1]
}

// Number of frames, i.e. the product of all axes beyond the second
func (f *Image) Frames() int {
	n := 1
	for i := 2; i < len(f.Naxisn); i++ {
		n *= f.Naxisn[i]
	}
	return n
}

// Stack views the image data as frames x height x width for the aperture engine. Data is shared, not copied.
func (f *Image) Stack() (*aperture.Image, error) {
	if len(f.Naxisn) != 2 && len(f.Naxisn) != 3 {
		return nil, fmt.Errorf("%w: %s has %d axes, need 2 or 3", ErrShapeMismatch, f.DimensionsToString(), len(f.Naxisn))
	}
	return aperture.NewImage(f.Frames(), f.Height(), f.Width(), f.Data)
}

func (f *Image) DimensionsToString() string {
	b := strings.Builder{}
	for i, naxis := range f.Naxisn {
		if i > 0 {
			fmt.Fprintf(&b, "x%d", naxis)
		} else {
			fmt.Fprintf(&b, "%d", naxis)
		}
	}
	return b.String()
}

// Looks up a numeric header value
func (f *Image) HeaderFloat(key string) (float64, bool) {
	for _, c := range f.Header {
		if c.Name == key {
			return cardFloat(c)
		}
	}
	return 0, false
}

// EqualIntSlice tells whether a and b contain the same elements.
// A nil argument is equivalent to an empty slice.
func EqualIntSlice(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] {
			return false
		}
	}
	return true
}
