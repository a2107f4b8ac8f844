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
	"strings"

	"github.com/hoxca/sensloss/internal/fits"
)

// Perform trim command: remove border rows and columns from every frame
func CmdTrim(inName, outName string, top, bottom, left, right int) error {
	f, err := fits.ReadFile(inName)
	if err != nil {
		return err
	}
	res, err := f.Trim(top, bottom, left, right)
	if err != nil {
		return fmt.Errorf("%s: %w", inName, err)
	}
	if err := res.WriteFile(outName); err != nil {
		return err
	}
	LogPrintf("Trimmed %s from %s to %s, wrote %s\n", inName, f.DimensionsToString(), res.DimensionsToString(), outName)
	return nil
}

// Perform frame extraction command: write each frame of a cube into its own
// file, named by formatting the frame index into pattern. Simulation outputs
// keep their frames in the first extension, so it is preferred over the
// primary HDU. Returns the names of the files written.
func CmdFrames(inName, pattern string) ([]string, error) {
	if !strings.Contains(pattern, "%") {
		return nil, fmt.Errorf("pattern %q has no verb for the frame index", pattern)
	}
	imgs, err := fits.ReadFileHDUs(inName)
	if err != nil {
		return nil, err
	}
	var cube *fits.Image
	for _, img := range imgs {
		if img.Pixels() == 0 {
			continue
		}
		if cube == nil || img.HDU == 1 {
			cube = img
		}
	}
	if cube == nil {
		return nil, fmt.Errorf("%s: %w", inName, fits.ErrNoImage)
	}
	LogPrintf("Frames shape: %s in HDU %d\n", cube.DimensionsToString(), cube.HDU)

	var outNames []string
	for i := 0; i < cube.Frames(); i++ {
		frame, err := cube.Frame(i)
		if err != nil {
			return outNames, err
		}
		outName := fmt.Sprintf(pattern, i)
		if err := frame.WriteFile(outName); err != nil {
			return outNames, err
		}
		outNames = append(outNames, outName)
	}
	LogPrintf("Wrote %d frames\n", len(outNames))
	return outNames, nil
}
