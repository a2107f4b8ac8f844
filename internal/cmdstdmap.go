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
	"context"
	"fmt"
	"runtime/debug"
)

// Perform noise map command: one map per input file, written to the output folder
func CmdStdMap(ctx context.Context, fileNames []string, sciP *ScienceParams, p *StdMapParams) ([]string, error) {
	if err := EnsureDir(p.OutDir); err != nil {
		return nil, err
	}
	LogPrintf("\nComputing noise maps for %d files with %s; %s:\n", len(fileNames), sciP, p)
	outNames, numErrors := ComputeStdMaps(ctx, fileNames, sciP, p)
	debug.FreeOSMemory()
	if err := ctx.Err(); err != nil {
		return outNames, err
	}
	if numErrors > 0 && len(outNames) == 0 {
		return nil, fmt.Errorf("no noise maps written, %d errors", numErrors)
	}
	LogPrintf("Wrote %d noise maps, %d errors\n", len(outNames), numErrors)
	return outNames, nil
}
