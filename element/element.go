package element

import (
	"fmt"
	"strings"
)

// FEType identifies the finite element space of an unknown field
type FEType uint8

const (
	P1  FEType = iota // Piecewise linear, DOFs on vertices
	P2                // Piecewise quadratic, DOFs on vertices and edges
	P1X               // Piecewise linear plus Heaviside enrichment at an interface
)

func (t FEType) String() string {
	switch t {
	case P1:
		return "P1"
	case P2:
		return "P2"
	case P1X:
		return "P1X"
	default:
		return fmt.Sprintf("FEType(%d)", uint8(t))
	}
}

// ParseFEType accepts the short names used in configuration files
func ParseFEType(s string) (FEType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P1":
		return P1, nil
	case "P2":
		return P2, nil
	case "P1X":
		return P1X, nil
	}
	return 0, fmt.Errorf("unknown finite element type %q", s)
}

// Valid reports whether t is one of the supported element types
func (t FEType) Valid() bool {
	return t <= P1X
}

// HasEdgeDofs reports whether the element owns unknowns on edges
func (t FEType) HasEdgeDofs() bool {
	return t.Properties().NEp > 0
}

// Extended reports whether the element carries enrichment unknowns
func (t FEType) Extended() bool {
	return t == P1X
}

// Order is the polynomial degree of the standard part of the element
func (t FEType) Order() int {
	return t.Properties().Order
}

// Properties returns the reference element metadata for t
func (t FEType) Properties() ElementProperties {
	switch t {
	case P2:
		return ElementProperties{
			Name:      "Lagrange Tetrahedron Order 2",
			ShortName: "TetP2",
			Order:     2,
			Np:        10,
			NVp:       1,
			NEp:       1,
		}
	case P1X:
		return ElementProperties{
			Name:      "Extended Lagrange Tetrahedron Order 1",
			ShortName: "TetP1X",
			Order:     1,
			Np:        4,
			NVp:       1,
		}
	default:
		return ElementProperties{
			Name:      "Lagrange Tetrahedron Order 1",
			ShortName: "TetP1",
			Order:     1,
			Np:        4,
			NVp:       1,
		}
	}
}
