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

// Arcseconds per radian
const ArcsecPerRadian = 180 / math.Pi * 3600

// Converts an angular radius in arcseconds into pixels, given the plate scale in arcseconds per pixel
func RadiusInPixels(arcsec, plateScale float64) (float64, error) {
	if !(plateScale > 0) {
		return math.NaN(), fmt.Errorf("%w: plate scale %g", ErrInvalidScale, plateScale)
	}
	return arcsec / plateScale, nil
}

// Diffraction-limited resolution element lambda/D in pixels, for a wavelength
// and aperture diameter in meters and a plate scale in arcseconds per pixel.
// For 4.5um through the 5.2m NIRCam Lyot stop at 0.063"/px this is 2.83px.
func DiffractionScalePixels(wavelength, diameter, plateScale float64) (float64, error) {
	if !(wavelength > 0) || !(diameter > 0) {
		return math.NaN(), fmt.Errorf("%w: wavelength %g diameter %g", ErrInvalidScale, wavelength, diameter)
	}
	return RadiusInPixels(wavelength/diameter*ArcsecPerRadian, plateScale)
}
