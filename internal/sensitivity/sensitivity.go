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

// Package sensitivity converts noise maps into contrast magnitudes and
// measures the sensitivity lost in a test scenario relative to a control.
package sensitivity

import (
	"fmt"
	"math"

	"github.com/hoxca/sensloss/internal/aperture"
)

// Converts a noise level into the faintest detectable companion in
// magnitudes relative to the star: -2.5 log10(std*sigma/flux).
// Zero noise maps to +Inf, negative or NaN noise to NaN.
func ContrastToMagnitude(std, sigma, stellarFlux float64) float64 {
	return -2.5 * math.Log10(std*sigma/stellarFlux)
}

// Applies ContrastToMagnitude to every sample of a noise map, returning a new image
func ContrastImage(std *aperture.Image, sigma, stellarFlux float64) (*aperture.Image, error) {
	if !(stellarFlux > 0) || !(sigma > 0) {
		return nil, fmt.Errorf("%w: sigma %g stellar flux %g", aperture.ErrInvalidScale, sigma, stellarFlux)
	}
	res, err := aperture.NewImage(std.Frames, std.Height, std.Width, nil)
	if err != nil {
		return nil, err
	}
	for i, v := range std.Data {
		res.Data[i] = ContrastToMagnitude(v, sigma, stellarFlux)
	}
	return res, nil
}

// Per-sample magnitude loss control-test. Positive values mean the test
// scenario reaches less deep than the control.
func MagnitudeLoss(control, test *aperture.Image) (*aperture.Image, error) {
	if !control.SameShape(test) {
		return nil, fmt.Errorf("%w: control %v, test %v", aperture.ErrShapeMismatch, control, test)
	}
	res, err := aperture.NewImage(test.Frames, test.Height, test.Width, nil)
	if err != nil {
		return nil, err
	}
	for i := range res.Data {
		res.Data[i] = control.Data[i] - test.Data[i]
	}
	return res, nil
}

// Global loss: NaN-ignoring mean over every sample of a loss image
func TotalLoss(loss *aperture.Image) float64 {
	v, err := aperture.Aggregate(loss, aperture.NewFullMask(loss.Height, loss.Width), aperture.StatMean)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Local loss: NaN-ignoring mean inside a closed disk of the given pixel radius around the companion
func LocalLoss(loss *aperture.Image, companion aperture.Center, radiusPx float64) (float64, error) {
	return aperture.AggregateAt(loss, companion, aperture.NewDisk(radiusPx, aperture.BoundsClosed), aperture.StatMean)
}
