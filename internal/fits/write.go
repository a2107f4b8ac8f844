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
	"io"
	"os"

	"github.com/astrogo/fitsio"
)

// Write the image as a single primary HDU into the file with the given name, overwriting it
func (f *Image) WriteFile(fileName string) error {
	out, err := os.Create(fileName)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", fileName, err)
	}
	return out.Close()
}

// Write the image as a single primary HDU with 64-bit floating point samples,
// followed by the inherited header cards
func (f *Image) Write(w io.Writer) error {
	if len(f.Data) != f.Pixels() {
		return fmt.Errorf("%w: %d samples for %s", ErrShapeMismatch, len(f.Data), f.DimensionsToString())
	}
	out, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer out.Close()

	img := fitsio.NewImage(-64, f.Naxisn)
	defer img.Close()
	if err := img.Header().Append(propagatedCards(f.Header)...); err != nil {
		return err
	}
	if err := img.Write(f.Data); err != nil {
		return err
	}
	return out.Write(img)
}

// Drops structural keys and repeated keywords. COMMENT and HISTORY cards repeat
// and keep their order; fitsio writes them back as commentary lines.
func propagatedCards(cards []fitsio.Card) []fitsio.Card {
	seen := make(map[string]bool, len(cards))
	res := make([]fitsio.Card, 0, len(cards))
	for _, c := range cards {
		if isStructural(c.Name) {
			continue
		}
		if c.Name != "COMMENT" && c.Name != "HISTORY" {
			if seen[c.Name] {
				continue
			}
			seen[c.Name] = true
		}
		res = append(res, c)
	}
	return res
}
