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

package aperture

import (
	"fmt"
	"math"
	"strings"
)

// Shape of a selector
type Kind int

const (
	KindDisk    Kind = iota // Filled circle up to the outer radius
	KindAnnulus             // Ring between inner and outer radius
)

func (k Kind) String() string {
	switch k {
	case KindDisk:
		return "disk"
	case KindAnnulus:
		return "annulus"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Parses a selector kind from its name
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "disk":
		return KindDisk, nil
	case "annulus":
		return KindAnnulus, nil
	}
	return 0, fmt.Errorf("unknown selector kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(text []byte) (err error) {
	*k, err = ParseKind(string(text))
	return err
}

// Inclusion convention at the selector radii. A disk of radius r under a
// given convention is the set of pixels at distance d with d<=r (closed) or
// d<r (open). An annulus is always Disk(outer) minus Disk(inner) under the
// same convention, i.e. inner<d<=outer (closed) or inner<=d<outer (open).
type Bounds int

const (
	BoundsClosed Bounds = iota // d<=r; annulus (inner, outer]
	BoundsOpen                 // d<r;  annulus [inner, outer)
)

func (b Bounds) String() string {
	switch b {
	case BoundsClosed:
		return "closed"
	case BoundsOpen:
		return "open"
	}
	return fmt.Sprintf("Bounds(%d)", int(b))
}

// Parses a bound convention from its name
func ParseBounds(s string) (Bounds, error) {
	switch strings.ToLower(s) {
	case "closed":
		return BoundsClosed, nil
	case "open":
		return BoundsOpen, nil
	}
	return 0, fmt.Errorf("unknown bound convention %q", s)
}

func (b Bounds) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Bounds) UnmarshalText(text []byte) (err error) {
	*b, err = ParseBounds(string(text))
	return err
}

// A geometric pixel predicate relative to a center. Inner is ignored for disks.
type Selector struct {
	Kind   Kind
	Inner  float64
	Outer  float64
	Bounds Bounds
}

// Creates a disk selector of the given radius
func NewDisk(radius float64, b Bounds) Selector {
	return Selector{Kind: KindDisk, Outer: radius, Bounds: b}
}

// Creates an annulus selector between the given radii
func NewAnnulus(inner, outer float64, b Bounds) Selector {
	return Selector{Kind: KindAnnulus, Inner: inner, Outer: outer, Bounds: b}
}

// Validate checks the radii. It returns an error wrapping ErrInvalidGeometry.
func (s Selector) Validate() error {
	if math.IsNaN(s.Outer) || s.Outer < 0 {
		return fmt.Errorf("%w: outer radius %g", ErrInvalidGeometry, s.Outer)
	}
	if s.Bounds != BoundsClosed && s.Bounds != BoundsOpen {
		return fmt.Errorf("%w: %v", ErrInvalidGeometry, s.Bounds)
	}
	switch s.Kind {
	case KindDisk:
		return nil
	case KindAnnulus:
		if math.IsNaN(s.Inner) || s.Inner < 0 {
			return fmt.Errorf("%w: inner radius %g", ErrInvalidGeometry, s.Inner)
		}
		if s.Inner >= s.Outer {
			return fmt.Errorf("%w: inner radius %g not below outer radius %g", ErrInvalidGeometry, s.Inner, s.Outer)
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInvalidGeometry, s.Kind)
}

// Tells whether a pixel at the given distance from the center is selected
func (s Selector) contains(d float64) bool {
	if s.Bounds == BoundsOpen {
		if d >= s.Outer {
			return false
		}
		return s.Kind == KindDisk || d >= s.Inner
	}
	if d > s.Outer {
		return false
	}
	return s.Kind == KindDisk || d > s.Inner
}

func (s Selector) String() string {
	if s.Kind == KindDisk {
		return fmt.Sprintf("disk r=%.4g %v", s.Outer, s.Bounds)
	}
	return fmt.Sprintf("annulus r=%.4g..%.4g %v", s.Inner, s.Outer, s.Bounds)
}
