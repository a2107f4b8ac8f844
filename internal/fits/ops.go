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
	"fmt"

	"github.com/astrogo/fitsio"
	"gonum.org/v1/gonum/floats"
)

// Extracts the frame with the given index as a new 2-D image with the same header
func (f *Image) Frame(i int) (*Image, error) {
	if len(f.Naxisn) < 2 {
		return nil, fmt.Errorf("%w: %s is not an image", ErrShapeMismatch, f.DimensionsToString())
	}
	if i < 0 || i >= f.Frames() {
		return nil, fmt.Errorf("frame %d out of range for %s", i, f.DimensionsToString())
	}
	px := f.Width() * f.Height()
	res := NewImageFromNaxisn(f.Naxisn[:2], append([]float64(nil), f.Data[i*px:(i+1)*px]...))
	res.ID, res.FileName, res.Header = f.ID, f.FileName, append([]fitsio.Card(nil), f.Header...)
	return res, nil
}

// Removes the given number of rows and columns from each side of every frame.
// Top rows are the first rows of the array, left columns the first columns.
func (f *Image) Trim(top, bottom, left, right int) (*Image, error) {
	if len(f.Naxisn) < 2 {
		return nil, fmt.Errorf("%w: %s is not an image", ErrShapeMismatch, f.DimensionsToString())
	}
	w, h := f.Width(), f.Height()
	if top < 0 || bottom < 0 || left < 0 || right < 0 || top+bottom >= h || left+right >= w {
		return nil, fmt.Errorf("%w: cannot trim top %d bottom %d left %d right %d from %dx%d",
			ErrShapeMismatch, top, bottom, left, right, w, h)
	}

	naxisn := append([]int(nil), f.Naxisn...)
	naxisn[0], naxisn[1] = w-left-right, h-top-bottom
	res := NewImageFromNaxisn(naxisn, nil)
	res.ID, res.FileName, res.Header = f.ID, f.FileName, append([]fitsio.Card(nil), f.Header...)

	o := 0
	for frame := 0; frame < f.Frames(); frame++ {
		for y := top; y < h-bottom; y++ {
			line := f.Data[(frame*h+y)*w : (frame*h+y+1)*w]
			o += copy(res.Data[o:], line[left:w-right])
		}
	}
	return res, nil
}

// Adds the other image into this one, sample by sample
func (f *Image) Add(o *Image) error {
	if !EqualIntSlice(f.Naxisn, o.Naxisn) {
		return fmt.Errorf("%w: %s vs %s", ErrShapeMismatch, f.DimensionsToString(), o.DimensionsToString())
	}
	floats.Add(f.Data, o.Data)
	return nil
}

// Returns a new image holding a divided by b, sample by sample, with the header of a
func Divide(a, b *Image) (*Image, error) {
	if !EqualIntSlice(a.Naxisn, b.Naxisn) {
		return nil, fmt.Errorf("%w: %s vs %s", ErrShapeMismatch, a.DimensionsToString(), b.DimensionsToString())
	}
	res := NewImageFromNaxisn(a.Naxisn, nil)
	res.Header = append([]fitsio.Card(nil), a.Header...)
	floats.DivTo(res.Data, a.Data, b.Data)
	return res, nil
}
