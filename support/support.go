// Package support computes Minkowski-difference support points, the
// single query GJK and EPA need from a pair of bodies (spec.md §4.A/§4.B).
package support

import (
	"github.com/akmonengine/collide/body"
	"github.com/akmonengine/collide/pool"
	"github.com/go-gl/mathgl/mgl64"
)

// Kind is the pool kind name support points are acquired and released
// under (spec.md §6: "acquire(\"GJK2SupportPoint\")").
const Kind = "GJK2SupportPoint"

// Point is a single point of the Minkowski difference A ⊖ B, together
// with its witnesses on each body. Point == WitnessA - WitnessB always
// holds after Find (spec.md §3, property P2).
type Point struct {
	WitnessA mgl64.Vec3
	WitnessB mgl64.Vec3
	Point    mgl64.Vec3
}

// Acquire takes a Point from p. Callers must populate it via Find before
// reading any field — Acquire does not zero a recycled Point.
func Acquire(p *pool.Pool) *Point {
	return p.Acquire(Kind, func() any { return new(Point) }).(*Point)
}

// Release returns sp to p. Safe to call on a Point at most once per
// logical ownership; a redundant call is a silent no-op (pool.Pool.Release).
func Release(p *pool.Pool, sp *Point) {
	p.Release(Kind, sp)
}

// Find computes the support point of A ⊖ B in direction dir and stores it
// into out: the farthest point of a in dir, minus the farthest point of b
// in -dir (spec.md §4.A/§4.B). There are no failure modes.
func Find(a, b body.Body, dir mgl64.Vec3, out *Point) {
	out.WitnessA = a.Support(dir)
	out.WitnessB = b.Support(dir.Mul(-1))
	out.Point = out.WitnessA.Sub(out.WitnessB)
}
