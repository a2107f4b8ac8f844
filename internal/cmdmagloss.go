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
)

// Perform magnitude loss command: contrast and loss images of each noise map against the control
func CmdMagLoss(fileNames []string, sciP *ScienceParams, p *MagLossParams) error {
	if p.Control == "" {
		return fmt.Errorf("no control noise map given")
	}
	for _, dir := range []string{p.CIDir, p.LossDir} {
		if err := EnsureDir(dir); err != nil {
			return err
		}
	}
	control, err := LoadControlContrast(p.Control, sciP)
	if err != nil {
		return fmt.Errorf("control: %w", err)
	}
	LogPrintf("\nConverting %d noise maps with %s; %s:\n", len(fileNames), sciP, p)
	numErrors := MagLossFiles(fileNames, control, sciP, p)
	if numErrors > 0 && numErrors == len(fileNames) {
		return fmt.Errorf("all %d files failed", numErrors)
	}
	LogPrintf("Converted %d noise maps, %d errors\n", len(fileNames)-numErrors, numErrors)
	return nil
}
