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
	"image"
	"image/png"
	"math"
	"os"

	"github.com/hoxca/sensloss/internal/fits"
)

// Parameters for PNG previews of noise maps and loss images
type PreviewParams struct {
	Colormap string
	Frame    int
	Low      float64 // value mapped to the first colormap stop, NaN for the smallest finite value
	High     float64 // value mapped to the last colormap stop, NaN for the largest finite value
}

func DefaultPreviewParams() PreviewParams {
	return PreviewParams{Colormap: "viridis", Low: math.NaN(), High: math.NaN()}
}

// Print parameters for previews
func (p *PreviewParams) String() string {
	return fmt.Sprintf("colormap %s frame %d low %.4g high %.4g", p.Colormap, p.Frame, p.Low, p.High)
}

// Perform preview command: render one frame of a FITS image to PNG
func CmdPreview(inName, outName string, p *PreviewParams) error {
	cm, err := ColormapByName(p.Colormap)
	if err != nil {
		return err
	}
	_, st, err := LoadStack(0, inName)
	if err != nil {
		return err
	}
	if p.Frame < 0 || p.Frame >= st.Frames {
		return fmt.Errorf("frame %d out of range for %v", p.Frame, st)
	}

	low, high := FiniteRange(st, p.Frame)
	if !math.IsNaN(p.Low) {
		low = p.Low
	}
	if !math.IsNaN(p.High) {
		high = p.High
	}
	LogPrintf("Rendering %s frame %d with %s over [%.4g, %.4g]\n", inName, p.Frame, cm.Name, low, high)
	if err := writePNG(outName, RenderFrame(st, p.Frame, cm, low, high)); err != nil {
		return err
	}
	LogPrintf("Wrote PNG to %s\n", outName)
	return nil
}

// Render a derived image to PNG next to the FITS output, used after map generation
func WritePreview(f *fits.Image, outName string, cm *Colormap) error {
	st, err := f.Stack()
	if err != nil {
		return err
	}
	low, high := FiniteRange(st, 0)
	return writePNG(outName, RenderFrame(st, 0, cm, low, high))
}

func writePNG(outName string, img image.Image) error {
	out, err := os.Create(outName)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
