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
	"errors"
	"math"
	"testing"
)

func TestRadiusInPixels_RoundTrip(t *testing.T) {
	for _, scale := range []float64{0.031, 0.063, 0.11, 1, 2.5} {
		for _, arcsec := range []float64{0, 0.5, 1, 3, 17.25} {
			px, err := RadiusInPixels(arcsec, scale)
			if err != nil {
				t.Fatalf("RadiusInPixels(%g,%g) failed: %v", arcsec, scale, err)
			}
			if back := px * scale; math.Abs(back-arcsec) > 1e-12 {
				t.Errorf("round trip %g\" at %g\"/px: got %g", arcsec, scale, back)
			}
		}
	}
	if px, _ := RadiusInPixels(1, 0.063); math.Abs(px-15.873015873) > 1e-6 {
		t.Errorf("1\" at 0.063\"/px: got %g, want 15.873", px)
	}
}

func TestRadiusInPixels_InvalidScale(t *testing.T) {
	for _, scale := range []float64{0, -0.063, math.NaN()} {
		if _, err := RadiusInPixels(1, scale); !errors.Is(err, ErrInvalidScale) {
			t.Errorf("scale %g: got error %v, want ErrInvalidScale", scale, err)
		}
	}
}

func TestDiffractionScalePixels(t *testing.T) {
	got, err := DiffractionScalePixels(4.5e-6, 5.2, 0.063)
	if err != nil {
		t.Fatalf("DiffractionScalePixels failed: %v", err)
	}
	// 0.1785" per lambda/D at 0.063"/px
	if math.Abs(got-2.8333) > 0.01 {
		t.Errorf("got %.4f px, want 2.833", got)
	}
	if math.Abs(got-2.82) > 0.015 {
		t.Errorf("got %.4f px, too far from the published 2.82", got)
	}

	tests := []struct {
		name              string
		lambda, d, scale float64
	}{
		{"zero wavelength", 0, 5.2, 0.063},
		{"negative diameter", 4.5e-6, -5.2, 0.063},
		{"zero scale", 4.5e-6, 5.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DiffractionScalePixels(tt.lambda, tt.d, tt.scale); !errors.Is(err, ErrInvalidScale) {
				t.Errorf("got error %v, want ErrInvalidScale", err)
			}
		})
	}
}
