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

// Package companion maps simulated companion placements to pixel centers and
// recognizes the scenario encoded in simulation output file names.
package companion

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hoxca/sensloss/internal/aperture"
)

var (
	ErrUnknownLocation  = errors.New("unknown companion location")
	ErrUnrecognizedName = errors.New("unrecognized scenario file name")
)

//go:embed locations.yaml
var defaultTable []byte

// Tolerance when matching separations and angles against table entries
const matchTolerance = 1e-6

// A companion placement and its pixel center
type Location struct {
	Separation float64 `yaml:"separation"` // arcseconds
	Angle      float64 `yaml:"angle"`      // degrees
	X          float64 `yaml:"x"`          // column
	Y          float64 `yaml:"y"`          // row
}

// Table of companion placements for one simulated field
type Table struct {
	Name       string     `yaml:"name"`
	PlateScale float64    `yaml:"plate_scale"`
	Locations  []Location `yaml:"locations"`
}

// Returns the built-in table for the 101x101 pixel simulated field
func DefaultTable() *Table {
	t, err := ParseTable(defaultTable)
	if err != nil {
		panic(err)
	}
	return t
}

// Reads a table from a YAML file
func ReadTable(fileName string) (*Table, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return t, nil
}

// Parses a table from YAML, rejecting duplicate placements
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	for i, l := range t.Locations {
		for _, o := range t.Locations[:i] {
			if sameFloat(l.Separation, o.Separation) && sameFloat(normAngle(l.Angle), normAngle(o.Angle)) {
				return nil, fmt.Errorf("duplicate location for separation %g angle %g", l.Separation, l.Angle)
			}
		}
	}
	return &t, nil
}

// Finds the center of the companion at the given separation in arcseconds and position angle in degrees
func (t *Table) Lookup(separation, angle float64) (aperture.Center, error) {
	a := normAngle(angle)
	for _, l := range t.Locations {
		if sameFloat(l.Separation, separation) && sameFloat(normAngle(l.Angle), a) {
			return aperture.Center{X: l.X, Y: l.Y}, nil
		}
	}
	return aperture.Center{}, fmt.Errorf("%w: separation %g\" angle %g", ErrUnknownLocation, separation, angle)
}

// Serializes the table back to YAML
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

func sameFloat(a, b float64) bool { return math.Abs(a-b) <= matchTolerance }

func normAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}
