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

package companion

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hoxca/sensloss/internal/aperture"
)

// Scenario family encoded in a file name
type Kind int

const (
	KindMagnitude Kind = iota // companion contrast varies, position angle 0
	KindAngle                 // companion position angle varies
)

func (k Kind) String() string {
	switch k {
	case KindMagnitude:
		return "magnitude"
	case KindAngle:
		return "angle"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Simulation scenario parsed from a file name
type Scenario struct {
	Kind       Kind
	Separation float64 // arcseconds
	Magnitude  int64   // contrast factor of magnitude scenarios, e.g. 1000
	Brightness float64 // companion brightness of angle scenarios
	Angle      float64 // degrees
}

func (s Scenario) String() string {
	if s.Kind == KindMagnitude {
		return fmt.Sprintf("R%g M%d", s.Separation, s.Magnitude)
	}
	return fmt.Sprintf("R%g RB%g Theta%g", s.Separation, s.Brightness, s.Angle)
}

var (
	// R0.5-M1,000-RDI-subtraction...
	reMagnitude = regexp.MustCompile(`^R([0-9]+(?:\.[0-9]+)?)-M([0-9][0-9,]*)(?:[-._]|$)`)
	// no-planet-R0.5-RB1e-05-Theta45...
	reAngle = regexp.MustCompile(`(?:^|-)R([0-9]+(?:\.[0-9]+)?)-RB([0-9.]+(?:[eE][-+]?[0-9]+)?)-Theta([0-9]+(?:\.[0-9]+)?)(?:[-._]|$)`)
)

// Recognizes the scenario from the base name of a simulation output file
func ParseScenario(fileName string) (Scenario, error) {
	base := filepath.Base(fileName)

	if m := reMagnitude.FindStringSubmatch(base); m != nil {
		sep, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: %s: %v", ErrUnrecognizedName, base, err)
		}
		mag, err := strconv.ParseInt(strings.ReplaceAll(m[2], ",", ""), 10, 64)
		if err != nil {
			return Scenario{}, fmt.Errorf("%w: %s: %v", ErrUnrecognizedName, base, err)
		}
		return Scenario{Kind: KindMagnitude, Separation: sep, Magnitude: mag}, nil
	}

	if m := reAngle.FindStringSubmatch(base); m != nil {
		var vals [3]float64
		for i := range vals {
			v, err := strconv.ParseFloat(m[i+1], 64)
			if err != nil {
				return Scenario{}, fmt.Errorf("%w: %s: %v", ErrUnrecognizedName, base, err)
			}
			vals[i] = v
		}
		return Scenario{Kind: KindAngle, Separation: vals[0], Brightness: vals[1], Angle: vals[2]}, nil
	}

	return Scenario{}, fmt.Errorf("%w: %s", ErrUnrecognizedName, base)
}

// Finds the companion center for this scenario. Magnitude scenarios place
// the companion at position angle 0.
func (t *Table) LookupScenario(s Scenario) (c aperture.Center, err error) {
	if s.Kind == KindMagnitude {
		return t.Lookup(s.Separation, 0)
	}
	return t.Lookup(s.Separation, s.Angle)
}
