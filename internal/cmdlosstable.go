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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hoxca/sensloss/internal/aperture"
	"github.com/hoxca/sensloss/internal/companion"
	"github.com/hoxca/sensloss/internal/report"
	"github.com/hoxca/sensloss/internal/sensitivity"
)

// Table layouts for loss reports
const (
	LayoutAuto      = "auto"
	LayoutMagnitude = "magnitude"
	LayoutAngle     = "angle"
)

// Parameters for total and local loss measurement
type LossParams struct {
	Table  string `yaml:"table"`  // YAML companion location table, empty for the built-in one
	Output string `yaml:"output"` // report file
	Layout string `yaml:"layout"` // magnitude, angle or auto
}

func DefaultLossParams() LossParams {
	return LossParams{Output: "output-loss.txt", Layout: LayoutAuto}
}

// Print parameters for loss measurement
func (p *LossParams) String() string {
	return fmt.Sprintf("table %s output %s layout %s", p.Table, p.Output, p.Layout)
}

// Companion location table named by the parameters
func (p *LossParams) LoadTable() (*companion.Table, error) {
	if p.Table == "" {
		return companion.DefaultTable(), nil
	}
	return companion.ReadTable(p.Table)
}

// Measure total loss and local loss around the companion of a magnitude loss image
func MeasureLoss(id int, fileName string, c aperture.Center, sciP *ScienceParams) (report.Result, error) {
	res := report.Result{FileName: fileName}
	radius, err := aperture.RadiusInPixels(sciP.LocalRadius, sciP.PlateScale)
	if err != nil {
		return res, err
	}
	_, st, err := LoadStack(id, fileName)
	if err != nil {
		return res, err
	}
	res.Total = sensitivity.TotalLoss(st)
	res.Local, err = sensitivity.LocalLoss(st, c, radius)
	if err != nil {
		return res, err
	}
	return res, nil
}

// Measure all magnitude loss images in a folder whose names encode a known
// scenario, and write the loss table. Files with unknown names or locations
// are logged and skipped.
func CmdLossTable(dir string, sciP *ScienceParams, p *LossParams) ([]report.Result, error) {
	table, err := p.LoadTable()
	if err != nil {
		return nil, err
	}
	fileNames, err := GlobFilenameWildcards([]string{filepath.Join(dir, "*.fits"), filepath.Join(dir, "*.fits.gz")})
	if err != nil {
		return nil, err
	}
	LogPrintf("\nMeasuring loss of %d files in %s with %s %s:\n", len(fileNames), dir, sciP, p)

	results := make([]*report.Result, len(fileNames))
	sem := make(chan bool, runtime.NumCPU())
	for id, fileName := range fileNames {
		sc, err := companion.ParseScenario(fileName)
		if err != nil {
			LogPrintf("%d: Skipping: %s\n", id, err)
			continue
		}
		c, err := table.LookupScenario(sc)
		if err != nil {
			LogPrintf("%d: Skipping %s: %s\n", id, filepath.Base(fileName), err)
			continue
		}
		sem <- true
		go func(id int, fileName string, sc companion.Scenario, c aperture.Center) {
			defer func() { <-sem }()
			res, err := MeasureLoss(id, fileName, c, sciP)
			if err != nil {
				LogPrintf("%d: Error: %s\n", id, err.Error())
				return
			}
			res.Scenario = sc
			LogPrintf("%d: %v\n", id, res)
			results[id] = &res
		}(id, fileName, sc, c)
	}
	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}

	var rs []report.Result
	for _, r := range results {
		if r != nil {
			rs = append(rs, *r)
		}
	}
	report.Sort(rs)

	if err := writeLossTable(rs, p); err != nil {
		return rs, err
	}
	LogPrintf("Wrote %d results to %s\n", len(rs), p.Output)
	return rs, nil
}

// Writes the tables selected by the layout. Auto writes a table per scenario kind present.
func writeLossTable(rs []report.Result, p *LossParams) error {
	var hasMag, hasAngle bool
	for _, r := range rs {
		hasMag = hasMag || r.Scenario.Kind == companion.KindMagnitude
		hasAngle = hasAngle || r.Scenario.Kind == companion.KindAngle
	}
	switch p.Layout {
	case LayoutAuto, "":
	case LayoutMagnitude:
		hasAngle = false
	case LayoutAngle:
		hasMag = false
	default:
		return fmt.Errorf("unknown layout %q", p.Layout)
	}

	out, err := os.Create(p.Output)
	if err != nil {
		return err
	}
	if hasMag {
		err = report.WriteMagnitudeTable(out, rs)
	}
	if err == nil && hasMag && hasAngle {
		_, err = fmt.Fprintln(out)
	}
	if err == nil && hasAngle {
		err = report.WriteAngleTable(out, rs)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// Measure total and local loss of individual files for a companion at the
// given separation and position angle, printing them as percentages. For
// several files, e.g. repeated control runs, also prints the spread.
func CmdLocalLoss(fileNames []string, separation, angle float64, sciP *ScienceParams, p *LossParams) ([]report.Result, error) {
	table, err := p.LoadTable()
	if err != nil {
		return nil, err
	}
	c, err := table.Lookup(separation, angle)
	if err != nil {
		return nil, err
	}
	LogPrintf("Companion at %g\" and %g degrees is at %v\n", separation, angle, c)

	var rs []report.Result
	var errs []error
	for id, fileName := range fileNames {
		res, err := MeasureLoss(id, fileName, c, sciP)
		if err != nil {
			LogPrintf("%d: Error: %s\n", id, err.Error())
			errs = append(errs, err)
			continue
		}
		LogPrintf("%d: %s\n", id, fileName)
		LogPrintf("%d: max loss: %s\n", id, report.Percent(res.Total))
		LogPrintf("%d: local loss: %s\n", id, report.Percent(res.Local))
		rs = append(rs, res)
	}
	if len(rs) > 1 {
		var sb strings.Builder
		if err := report.WriteUncertainty(&sb, rs); err != nil {
			return rs, err
		}
		LogPrint(sb.String())
	}
	if len(rs) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return rs, nil
}
