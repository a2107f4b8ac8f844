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
	"runtime"

	"github.com/hoxca/sensloss/internal/aperture"
	"github.com/hoxca/sensloss/internal/fits"
	"github.com/hoxca/sensloss/internal/sensitivity"
)

// Parameters for converting noise maps into contrast and magnitude loss images
type MagLossParams struct {
	Control    string `yaml:"control"`     // noise map of the control scenario
	CIDir      string `yaml:"ci_dir"`      // folder for contrast images, empty to skip them
	LossDir    string `yaml:"loss_dir"`    // folder for magnitude loss images
	CISuffix   string `yaml:"ci_suffix"`   // appended to the input base name
	LossSuffix string `yaml:"loss_suffix"` // appended to the input base name
}

func DefaultMagLossParams() MagLossParams {
	return MagLossParams{CISuffix: "-CI", LossSuffix: "-MSL"}
}

// Print parameters for magnitude loss
func (p *MagLossParams) String() string {
	return fmt.Sprintf("control %s ciDir %s lossDir %s ciSuffix %s lossSuffix %s",
		p.Control, p.CIDir, p.LossDir, p.CISuffix, p.LossSuffix)
}

// Load the control noise map and convert it to magnitudes
func LoadControlContrast(fileName string, sciP *ScienceParams) (*aperture.Image, error) {
	_, st, err := LoadStack(-1, fileName)
	if err != nil {
		return nil, err
	}
	return sensitivity.ContrastImage(st, sciP.Sigma, sciP.StellarFlux)
}

// Convert all noise maps into contrast and magnitude loss images against the
// control, limiting concurrency to the number of available CPUs
func MagLossFiles(fileNames []string, control *aperture.Image, sciP *ScienceParams, p *MagLossParams) (numErrors int) {
	errs := make([]bool, len(fileNames))
	sem := make(chan bool, runtime.NumCPU())
	for id, fileName := range fileNames {
		sem <- true
		go func(id int, fileName string) {
			defer func() { <-sem }()
			if err := magLossFile(id, fileName, control, sciP, p); err != nil {
				LogPrintf("%d: Error: %s\n", id, err.Error())
				errs[id] = true
			}
		}(id, fileName)
	}
	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}
	for _, e := range errs {
		if e {
			numErrors++
		}
	}
	return numErrors
}

// Contrast image and magnitude loss of a single noise map. Both outputs
// inherit the header of the input.
func magLossFile(id int, fileName string, control *aperture.Image, sciP *ScienceParams, p *MagLossParams) error {
	f, st, err := LoadStack(id, fileName)
	if err != nil {
		return err
	}
	ci, err := sensitivity.ContrastImage(st, sciP.Sigma, sciP.StellarFlux)
	if err != nil {
		return err
	}
	if p.CIDir != "" {
		ciName := OutputName(p.CIDir, fileName, p.CISuffix)
		if err := fits.NewImageFromStack(f, ci).WriteFile(ciName); err != nil {
			return err
		}
		LogPrintf("%d: Wrote contrast image %s\n", id, ciName)
	}

	loss, err := sensitivity.MagnitudeLoss(control, ci)
	if err != nil {
		return fmt.Errorf("%s: %w", fileName, err)
	}
	lossName := OutputName(p.LossDir, fileName, p.LossSuffix)
	if err := fits.NewImageFromStack(f, loss).WriteFile(lossName); err != nil {
		return err
	}
	LogPrintf("%d: Wrote magnitude loss %s, total loss %.4g mag\n", id, lossName, sensitivity.TotalLoss(loss))
	return nil
}
