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
	"path/filepath"
	"runtime/debug"

	"github.com/hoxca/sensloss/internal/fits"
)

// Perform stack division command: sum all FITS files of each folder, divide
// the first sum by the second sample by sample, and write the quotient
func CmdStackDivide(dirA, dirB, outName string) error {
	stackA, err := StackFolder(dirA)
	if err != nil {
		return err
	}
	stackB, err := StackFolder(dirB)
	if err != nil {
		return err
	}

	res, err := fits.Divide(stackA, stackB)
	if err != nil {
		return err
	}
	stackA, stackB = nil, nil
	debug.FreeOSMemory()

	if err := res.WriteFile(outName); err != nil {
		return fmt.Errorf("error writing file: %w", err)
	}
	LogPrintf("Division result %s saved to %s\n", res.DimensionsToString(), outName)
	return nil
}

// Sum all FITS files in a folder in file name order. Files without data or
// of a different shape than the first one are logged and skipped. Files are
// loaded in parallel in batches sized by CPU count and memory.
func StackFolder(dir string) (*fits.Image, error) {
	fileNames, err := GlobFilenameWildcards([]string{filepath.Join(dir, "*.fits"), filepath.Join(dir, "*.fits.gz")})
	if err != nil {
		return nil, err
	}
	if len(fileNames) == 0 {
		return nil, fmt.Errorf("no .fits files found in the folder: %s", dir)
	}
	LogPrintf("\nStacking %d files from %s\n", len(fileNames), dir)

	// The first file fixes the shape and header of the sum
	var stack *fits.Image
	var stackFrames int

	batchSize := ImageLevelParallelism(fileNames, 0)
	for start := 0; start < len(fileNames); start += batchSize {
		end := min(start+batchSize, len(fileNames))
		batch := make([]*fits.Image, end-start)
		sem := make(chan bool, batchSize)
		for id := start; id < end; id++ {
			sem <- true
			go func(id int, fileName string) {
				defer func() { <-sem }()
				f, err := fits.ReadFile(fileName)
				if err != nil {
					LogPrintf("%d: Error reading file: %s\n", id, err)
					return
				}
				LogPrintf("%d: %s data shape %s\n", id, filepath.Base(fileName), f.DimensionsToString())
				batch[id-start] = f
			}(id, fileNames[id])
		}
		for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
			sem <- true
		}

		for i, f := range batch {
			if f == nil {
				continue
			}
			if stack == nil {
				stack = f
			} else if err := stack.Add(f); err != nil {
				LogPrintf("%d: Skipping: %s\n", start+i, err)
				continue
			}
			stackFrames++
		}
		debug.FreeOSMemory()
	}

	if stack == nil {
		return nil, fmt.Errorf("unable to stack .fits files in %s", dir)
	}
	stack.ID, stack.FileName = 0, dir
	LogPrintf("Stacked %d of %d files, shape %s\n", stackFrames, len(fileNames), stack.DimensionsToString())
	return stack, nil
}
