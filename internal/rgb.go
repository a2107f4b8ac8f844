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
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/hoxca/sensloss/internal/aperture"
)

// A color gradient through evenly spaced stops, blended in CIE L*a*b* space
type Colormap struct {
	Name  string
	stops []colorful.Color
}

// Creates a colormap from hex color stops like #440154
func NewColormap(name string, hexes ...string) (*Colormap, error) {
	if len(hexes) < 2 {
		return nil, fmt.Errorf("colormap %s needs at least two stops", name)
	}
	cm := &Colormap{Name: name, stops: make([]colorful.Color, len(hexes))}
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("colormap %s: %w", name, err)
		}
		cm.stops[i] = c
	}
	return cm, nil
}

func mustColormap(name string, hexes ...string) *Colormap {
	cm, err := NewColormap(name, hexes...)
	if err != nil {
		panic(err)
	}
	return cm
}

// Built-in colormaps
var Colormaps = map[string]*Colormap{
	"viridis": mustColormap("viridis", "#440154", "#482878", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"),
	"magma":   mustColormap("magma", "#000004", "#1c1044", "#4f127b", "#812581", "#b5367a", "#e55064", "#fb8761", "#fec287", "#fcfdbf"),
	"gray":    mustColormap("gray", "#000000", "#ffffff"),
}

// Looks up a built-in colormap by name
func ColormapByName(name string) (*Colormap, error) {
	if cm, ok := Colormaps[strings.ToLower(name)]; ok {
		return cm, nil
	}
	return nil, fmt.Errorf("unknown colormap %q", name)
}

// Color at position t in [0,1]. Values outside are clamped.
func (cm *Colormap) At(t float64) colorful.Color {
	if !(t > 0) {
		return cm.stops[0]
	}
	if t >= 1 {
		return cm.stops[len(cm.stops)-1]
	}
	pos := t * float64(len(cm.stops)-1)
	i := int(pos)
	return cm.stops[i].BlendLab(cm.stops[i+1], pos-float64(i)).Clamped()
}

// Range of finite values in one frame. Returns NaN for both if there are none.
func FiniteRange(st *aperture.Image, frame int) (low, high float64) {
	low, high = math.NaN(), math.NaN()
	for _, v := range st.Data[frame*st.Pixels() : (frame+1)*st.Pixels()] {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !(v >= low) {
			low = v
		}
		if !(v <= high) {
			high = v
		}
	}
	return low, high
}

// Renders one frame with the colormap, mapping low to the first stop and
// high to the last. NaN samples are black. Row 0 is drawn at the bottom,
// matching the usual display of FITS images.
func RenderFrame(st *aperture.Image, frame int, cm *Colormap, low, high float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, st.Width, st.Height))
	scale := 0.0
	if high > low {
		scale = 1 / (high - low)
	}
	for row := 0; row < st.Height; row++ {
		for col := 0; col < st.Width; col++ {
			v := st.At(frame, row, col)
			if math.IsNaN(v) {
				img.SetRGBA(col, st.Height-1-row, color.RGBA{A: 255})
				continue
			}
			r, g, b := cm.At((v - low) * scale).RGB255()
			img.SetRGBA(col, st.Height-1-row, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}
