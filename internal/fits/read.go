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
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strings"

	"github.com/astrogo/fitsio"
)

// Read the first HDU holding image data from the file with the given name.
// Simulation products keep their cube either in the primary HDU or, with an
// empty primary, in the first extension. Decompresses gzip if .gz or .gzip suffix is present.
func ReadFile(fileName string) (*Image, error) {
	imgs, err := ReadFileHDUs(fileName)
	if err != nil {
		return nil, err
	}
	for _, img := range imgs {
		if img.Pixels() > 0 {
			return img, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", fileName, ErrNoImage)
}

// Read all image HDUs from the file with the given name, including empty ones.
// Decompresses gzip if .gz or .gzip suffix is present.
func ReadFileHDUs(fileName string) ([]*Image, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f

	// Decompress gzip if .gz or .gzip suffix is present
	lExt := strings.ToLower(path.Ext(fileName))
	if lExt == ".gz" || lExt == ".gzip" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}

	imgs, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	for _, img := range imgs {
		img.FileName = fileName
	}
	return imgs, nil
}

// Read all image HDUs from the given stream. Table extensions are skipped.
func Read(r io.Reader) ([]*Image, error) {
	f, err := fitsio.Open(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var imgs []*Image
	for i, hdu := range f.HDUs() {
		imgHDU, ok := hdu.(fitsio.Image)
		if !ok {
			continue
		}
		img, err := decodeHDU(imgHDU)
		if err != nil {
			return nil, fmt.Errorf("HDU %d: %w", i, err)
		}
		img.HDU = i
		imgs = append(imgs, img)
	}
	if len(imgs) == 0 {
		return nil, ErrNoImage
	}
	return imgs, nil
}

// Converts one image HDU into float64 samples, applying BZERO, BSCALE and BLANK
func decodeHDU(hdu fitsio.Image) (*Image, error) {
	hdr := hdu.Header()
	img := &Image{
		Bitpix: hdr.Bitpix(),
		Naxisn: append([]int(nil), hdr.Axes()...),
	}
	for i, n := 0, numCards(hdr); i < n; i++ {
		c := hdr.Card(i)
		if isStructural(c.Name) {
			continue
		}
		img.Header = append(img.Header, *c)
	}

	bzero, bscale := 0.0, 1.0
	if c := hdr.Get("BZERO"); c != nil {
		if v, ok := cardFloat(*c); ok {
			bzero = v
		}
	}
	if c := hdr.Get("BSCALE"); c != nil {
		if v, ok := cardFloat(*c); ok {
			bscale = v
		}
	}
	blank, hasBlank := int64(0), false
	if c := hdr.Get("BLANK"); c != nil && img.Bitpix > 0 {
		if v, ok := cardFloat(*c); ok {
			blank, hasBlank = int64(v), true
		}
	}

	data, err := decodeData(hdu.Raw(), img.Bitpix, img.Pixels(), bzero, bscale, blank, hasBlank)
	if err != nil {
		return nil, err
	}
	img.Data = data
	return img, nil
}

// Number of cards in the header, commentary included. Keys omits COMMENT,
// HISTORY and blank cards, so the extent is taken from the positions of the
// keywords and of the END card.
func numCards(hdr *fitsio.Header) int {
	last := hdr.Index("END")
	for _, k := range hdr.Keys() {
		if i := hdr.Index(k); i > last {
			last = i
		}
	}
	return last + 1
}

// Decodes big-endian raw samples of the given BITPIX. Integer values equal to blank become NaN.
func decodeData(raw []byte, bitpix, n int, bzero, bscale float64, blank int64, hasBlank bool) ([]float64, error) {
	bytesPerValue := bitpix / 8
	if bytesPerValue < 0 {
		bytesPerValue = -bytesPerValue
	}
	switch bitpix {
	case 8, 16, 32, 64, -32, -64:
	default:
		return nil, fmt.Errorf("unknown BITPIX value %d", bitpix)
	}
	if len(raw) < n*bytesPerValue {
		return nil, fmt.Errorf("truncated data: %d bytes for %d values of BITPIX %d", len(raw), n, bitpix)
	}

	data := make([]float64, n)
	for i := range data {
		b := raw[i*bytesPerValue : (i+1)*bytesPerValue]
		var iv int64
		var val float64
		switch bitpix {
		case 8:
			iv = int64(b[0])
		case 16:
			iv = int64(int16(binary.BigEndian.Uint16(b)))
		case 32:
			iv = int64(int32(binary.BigEndian.Uint32(b)))
		case 64:
			iv = int64(binary.BigEndian.Uint64(b))
		case -32:
			val = float64(math.Float32frombits(binary.BigEndian.Uint32(b)))
		case -64:
			val = math.Float64frombits(binary.BigEndian.Uint64(b))
		}
		if bitpix > 0 {
			if hasBlank && iv == blank {
				data[i] = math.NaN()
				continue
			}
			val = float64(iv)
		}
		data[i] = bzero + bscale*val
	}
	return data, nil
}

// Keys describing data layout. They are regenerated on write, never propagated.
func isStructural(key string) bool {
	switch key {
	case "SIMPLE", "XTENSION", "BITPIX", "NAXIS", "EXTEND", "PCOUNT", "GCOUNT",
		"BZERO", "BSCALE", "BLANK", "END", "":
		return true
	}
	return strings.HasPrefix(key, "NAXIS")
}

// Numeric value of a header card
func cardFloat(c fitsio.Card) (float64, bool) {
	switch v := c.Value.(type) {
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
