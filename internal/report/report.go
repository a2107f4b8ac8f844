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

// Package report formats sensitivity loss results into the tab separated
// tables consumed by the heatmap plotting scripts.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/hoxca/sensloss/internal/companion"
)

// Loss measured on one scenario file
type Result struct {
	Scenario companion.Scenario
	FileName string
	Total    float64 // mean loss over the whole image, magnitudes
	Local    float64 // mean loss around the companion, magnitudes
}

func (r Result) String() string {
	return fmt.Sprintf("%s total %.4g local %.4g (%s)", r.Scenario, r.Total, r.Local, r.FileName)
}

// Orders magnitude scenarios by contrast then separation, and angle scenarios
// by separation, angle and file name. Magnitude scenarios come first.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Scenario, results[j].Scenario
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Kind == companion.KindMagnitude {
			if a.Magnitude != b.Magnitude {
				return a.Magnitude < b.Magnitude
			}
			return a.Separation < b.Separation
		}
		if a.Separation != b.Separation {
			return a.Separation < b.Separation
		}
		if a.Angle != b.Angle {
			return a.Angle < b.Angle
		}
		return results[i].FileName < results[j].FileName
	})
}

// Writes the magnitude scenario table: a local loss section followed by a
// total loss section, one row per contrast and one column per separation.
// Missing cells print as NaN.
func WriteMagnitudeTable(w io.Writer, results []Result) error {
	rs := filterKind(results, companion.KindMagnitude)
	seps := separations(rs)
	var mags []int64
	for _, r := range rs {
		mags = append(mags, r.Scenario.Magnitude)
	}
	sort.Slice(mags, func(i, j int) bool { return mags[i] < mags[j] })
	mags = uniqueInts(mags)

	var sb strings.Builder
	for _, section := range []string{"local loss", "total loss"} {
		sb.WriteString(section + "\n")
		writeHeader(&sb, seps)
		for _, m := range mags {
			cells := make(map[float64]float64)
			for _, r := range rs {
				if r.Scenario.Magnitude == m {
					cells[r.Scenario.Separation] = value(r, section)
				}
			}
			fmt.Fprintf(&sb, "M=%d\t[%s],\n", m, joinCells(cells, seps))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Writes the position angle scenario table: for each section a header of
// separations, then per angle a caption line and the comma separated values.
func WriteAngleTable(w io.Writer, results []Result) error {
	rs := filterKind(results, companion.KindAngle)
	seps := separations(rs)
	var angles []float64
	for _, r := range rs {
		angles = append(angles, r.Scenario.Angle)
	}
	sort.Float64s(angles)
	angles = uniqueFloats(angles)

	var sb strings.Builder
	for i, section := range []string{"local loss", "total loss"} {
		if i > 0 {
			sb.WriteString("\n")
		}
		writeHeader(&sb, seps)
		for _, a := range angles {
			fmt.Fprintf(&sb, "%s for %s degrees\n", section, strconv.FormatFloat(a, 'f', -1, 64))
			cells := make(map[float64]float64)
			for _, r := range rs {
				if r.Scenario.Angle == a {
					cells[r.Scenario.Separation] = value(r, section)
				}
			}
			sb.WriteString(joinCells(cells, seps) + "\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Writes the sample standard deviation of local and total loss over repeated
// runs of the same scenario, as an uncertainty estimate
func WriteUncertainty(w io.Writer, results []Result) error {
	local, total := Uncertainty(results)
	_, err := fmt.Fprintf(w, "Local Standard Deviation: %.4f mag\nTotal Standard Deviation: %.4f mag\n", local, total)
	return err
}

// Sample standard deviations of local and total loss. NaN results are skipped;
// fewer than two values give NaN.
func Uncertainty(results []Result) (local, total float64) {
	var ls, ts []float64
	for _, r := range results {
		if !math.IsNaN(r.Local) {
			ls = append(ls, r.Local)
		}
		if !math.IsNaN(r.Total) {
			ts = append(ts, r.Total)
		}
	}
	return sampleStdDev(ls), sampleStdDev(ts)
}

func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// Formats a loss in magnitudes as a percentage with no decimals
func Percent(v float64) string {
	return fmt.Sprintf("%.0f percent", v*100)
}

// Formats a value rounded to two decimals, printing integral values with a
// trailing .0 and NaN as NaN
func FormatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0 // no negative zero
	}
	s := strconv.FormatFloat(r, 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func value(r Result, section string) float64 {
	if section == "local loss" {
		return r.Local
	}
	return r.Total
}

func writeHeader(sb *strings.Builder, seps []float64) {
	for _, s := range seps {
		sb.WriteString("\t" + formatSeparation(s) + "\"")
	}
	sb.WriteString("\n")
}

func joinCells(cells map[float64]float64, seps []float64) string {
	parts := make([]string, len(seps))
	for i, s := range seps {
		v, ok := cells[s]
		if !ok {
			v = math.NaN()
		}
		parts[i] = FormatValue(v)
	}
	return strings.Join(parts, ", ")
}

func formatSeparation(s float64) string {
	str := strconv.FormatFloat(s, 'f', -1, 64)
	if !strings.Contains(str, ".") {
		str += ".0"
	}
	return str
}

func filterKind(results []Result, k companion.Kind) []Result {
	var res []Result
	for _, r := range results {
		if r.Scenario.Kind == k {
			res = append(res, r)
		}
	}
	return res
}

func separations(rs []Result) []float64 {
	var seps []float64
	for _, r := range rs {
		seps = append(seps, r.Scenario.Separation)
	}
	sort.Float64s(seps)
	return uniqueFloats(seps)
}

func uniqueFloats(xs []float64) []float64 {
	o := 0
	for i, x := range xs {
		if i == 0 || x != xs[o-1] {
			xs[o] = x
			o++
		}
	}
	return xs[:o]
}

func uniqueInts(xs []int64) []int64 {
	o := 0
	for i, x := range xs {
		if i == 0 || x != xs[o-1] {
			xs[o] = x
			o++
		}
	}
	return xs[:o]
}
