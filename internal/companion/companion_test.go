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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoxca/sensloss/internal/aperture"
)

func TestDefaultTableLookup(t *testing.T) {
	tab := DefaultTable()
	if len(tab.Locations) != 49 {
		t.Fatalf("got %d locations, want 49", len(tab.Locations))
	}
	tests := []struct {
		sep, angle float64
		want       aperture.Center
	}{
		{0, 0, aperture.Center{X: 50.5, Y: 50.5}},
		{0.5, 0, aperture.Center{X: 50.5, Y: 42.56}},
		{1, 90, aperture.Center{X: 34.62, Y: 50.5}},
		{1.5, 135, aperture.Center{X: 33.6674, Y: 67.33255}},
		{2, 180, aperture.Center{X: 50.5, Y: 82.24}},
		{2.5, 225, aperture.Center{X: 78.55425, Y: 78.55425}},
		{3, 270, aperture.Center{X: 98.119, Y: 50.5}},
		{3, 315, aperture.Center{X: 84.1651, Y: 16.8349}},
		{0.5, -45, aperture.Center{X: 56.11, Y: 44.88915}},
		{1, 405, aperture.Center{X: 39.29, Y: 39.29}},
	}
	for _, tt := range tests {
		got, err := tab.Lookup(tt.sep, tt.angle)
		if err != nil {
			t.Errorf("Lookup(%g, %g) failed: %v", tt.sep, tt.angle, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%g, %g): got %v, want %v", tt.sep, tt.angle, got, tt.want)
		}
	}

	for _, bad := range [][2]float64{{0.75, 0}, {1, 30}, {0, 90}} {
		if _, err := tab.Lookup(bad[0], bad[1]); !errors.Is(err, ErrUnknownLocation) {
			t.Errorf("Lookup(%v): got %v, want ErrUnknownLocation", bad, err)
		}
	}
}

func TestReadTable(t *testing.T) {
	name := filepath.Join(t.TempDir(), "table.yaml")
	src := &Table{Name: "tiny", PlateScale: 0.1, Locations: []Location{{Separation: 1, Angle: 0, X: 5, Y: 1}}}
	data, err := src.Marshal()
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(name, data, 0644); err != nil {
		t.Fatal(err)
	}
	tab, err := ReadTable(name)
	if err != nil {
		t.Fatalf("ReadTable failed: %v", err)
	}
	if c, err := tab.Lookup(1, 360); err != nil || c != (aperture.Center{X: 5, Y: 1}) {
		t.Errorf("Lookup: got %v %v", c, err)
	}

	dup := []byte("locations:\n  - {separation: 1, angle: 0, x: 1, y: 1}\n  - {separation: 1, angle: 360, x: 2, y: 2}\n")
	if _, err := ParseTable(dup); err == nil {
		t.Errorf("duplicate placement accepted")
	}
}

func TestParseScenario(t *testing.T) {
	tests := []struct {
		name string
		want Scenario
	}{
		{"R0.5-M1,000-RDI-subtraction.fits", Scenario{Kind: KindMagnitude, Separation: 0.5, Magnitude: 1000}},
		{"/data/out/R3.0-M10,000,000-RDI-subtraction-std-MSL.fits", Scenario{Kind: KindMagnitude, Separation: 3, Magnitude: 10000000}},
		{"R1.5-M10.fits", Scenario{Kind: KindMagnitude, Separation: 1.5, Magnitude: 10}},
		{"no-planet-R0.5-RB1e-05-Theta45-std.fits", Scenario{Kind: KindAngle, Separation: 0.5, Brightness: 1e-5, Angle: 45}},
		{"no-planet-R2.5-RB1e-04-Theta315.fits", Scenario{Kind: KindAngle, Separation: 2.5, Brightness: 1e-4, Angle: 315}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScenario(tt.name)
			if err != nil {
				t.Fatalf("ParseScenario failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}

	for _, bad := range []string{"control.fits", "R-M1.fits", "XR0.5-M10.fits", "no-planet-R0.5-Theta45.fits"} {
		if _, err := ParseScenario(bad); !errors.Is(err, ErrUnrecognizedName) {
			t.Errorf("ParseScenario(%q): got %v, want ErrUnrecognizedName", bad, err)
		}
	}
}

func TestLookupScenario(t *testing.T) {
	tab := DefaultTable()
	c, err := tab.LookupScenario(Scenario{Kind: KindMagnitude, Separation: 2.5, Magnitude: 100})
	if err != nil || c != (aperture.Center{X: 50.5, Y: 10.81}) {
		t.Errorf("magnitude scenario: got %v %v", c, err)
	}
	c, err = tab.LookupScenario(Scenario{Kind: KindAngle, Separation: 2.5, Angle: 90})
	if err != nil || c != (aperture.Center{X: 10.81, Y: 50.5}) {
		t.Errorf("angle scenario: got %v %v", c, err)
	}
}
