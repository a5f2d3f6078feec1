package xfem

import (
	"fmt"
	"math"

	"github.com/notargets/MGIndex/index"
	"github.com/notargets/MGIndex/mesh"
)

// Levelset samples the interface function at a vertex. The interface is its
// zero set; non-negative values belong to the positive phase.
type Levelset func(v *mesh.Vertex) float64

// FromFunction samples an analytic function at vertex coordinates
func FromFunction(f func(x [3]float64) float64) Levelset {
	return func(v *mesh.Vertex) float64 { return f(v.Coord) }
}

// FromSamples wraps a nodal vector numbered by a P1 numbering. Vertices
// without an index sample as +Inf.
func FromSamples(n *index.Numbering, samples []float64) (Levelset, error) {
	if !n.Created() {
		return nil, fmt.Errorf("levelset numbering %q is not created", n.Field().Name)
	}
	if len(samples) != n.NumUnknowns() {
		return nil, fmt.Errorf("levelset has %d samples, numbering has %d unknowns",
			len(samples), n.NumUnknowns())
	}
	return func(v *mesh.Vertex) float64 {
		if i, ok := n.Vertex(v).Get(); ok {
			return samples[i]
		}
		return math.Inf(1)
	}, nil
}

// Sphere is the signed distance to a sphere, negative inside
func Sphere(center [3]float64, radius float64) Levelset {
	return FromFunction(func(x [3]float64) float64 {
		d := 0.0
		for i := range x {
			d += (x[i] - center[i]) * (x[i] - center[i])
		}
		return math.Sqrt(d) - radius
	})
}

// Plane is the signed distance to the plane through p with unit normal n
func Plane(p, n [3]float64) Levelset {
	return FromFunction(func(x [3]float64) float64 {
		return (x[0]-p[0])*n[0] + (x[1]-p[1])*n[1] + (x[2]-p[2])*n[2]
	})
}

func positive(phi float64) bool { return phi >= 0 }
