// Package simplex implements the GJK simplex evolution: a state machine
// over 1..4-point simplices in the Minkowski difference that progressively
// encloses the origin, or proves it cannot (spec.md §4.C).
package simplex

import (
	"math"

	"github.com/akmonengine/collide/body"
	"github.com/akmonengine/collide/pool"
	"github.com/akmonengine/collide/support"
	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the core's shared numeric tolerance (spec.md §5, "ε ≈ 1e-6").
const Epsilon = 1e-6

// MaxIterations bounds the simplex evolution loop; reaching it without
// converging is a robustness cap, not a distinguished error (spec.md §5/§7).
const MaxIterations = 20

// Result is the outcome of a single call to Step.
type Result int

const (
	// Continue reports that a new support point was added; the caller
	// should call Step again.
	Continue Result = iota
	// Separated reports that the Minkowski difference provably excludes
	// the origin — the bodies do not overlap.
	Separated
	// Enclosed reports that the simplex is a tetrahedron containing the
	// origin; EPA may proceed from it.
	Enclosed
)

// Simplex is the 1..4-point GJK state machine. The newest point is
// always Points[Count-1] (spec.md §3).
type Simplex struct {
	Points [4]*support.Point
	Count  int

	ObjectA, ObjectB body.Body

	NextDirection mgl64.Vec3
	Iterations    int

	pool *pool.Pool
}

// New creates a Simplex over the pair (a, b). The initial search
// direction points from a toward b; if the two bodies share an origin,
// any non-zero axis suffices (spec.md §4.C "Initial direction").
func New(p *pool.Pool, a, b body.Body) *Simplex {
	dir := b.Position().Sub(a.Position())
	if dir.Dot(dir) < Epsilon*Epsilon {
		dir = mgl64.Vec3{1, 0, 0}
	}

	return &Simplex{ObjectA: a, ObjectB: b, NextDirection: dir, pool: p}
}

// Release returns every point still held by the simplex to the pool. The
// driver calls this when a query ends in Separated, or after tearing
// down a degenerate query — never after the simplex has been handed to
// EPA, since ownership of its points transfers at that boundary
// (spec.md §5).
func (s *Simplex) Release() {
	for i := 0; i < s.Count; i++ {
		support.Release(s.pool, s.Points[i])
		s.Points[i] = nil
	}
	s.Count = 0
}

func (s *Simplex) discard(sp *support.Point) {
	support.Release(s.pool, sp)
}

// Step attempts to grow or reduce the simplex toward the origin
// (spec.md §4.C "Loop body").
func (s *Simplex) Step() Result {
	if s.Iterations >= MaxIterations {
		return Separated
	}
	s.Iterations++

	sp := support.Acquire(s.pool)
	support.Find(s.ObjectA, s.ObjectB, s.NextDirection, sp)

	if sp.Point.Dot(s.NextDirection) < 0 {
		support.Release(s.pool, sp)
		return Separated
	}

	s.Points[s.Count] = sp
	s.Count++

	return s.updateDirection()
}

func (s *Simplex) updateDirection() Result {
	switch s.Count {
	case 1:
		s.NextDirection = s.Points[0].Point.Mul(-1)
		return Continue
	case 2:
		s.findFromLine()
		return Continue
	case 3:
		s.findFromTriangle()
		return Continue
	case 4:
		return s.findFromTetrahedron()
	default:
		return Continue
	}
}

// findFromLine handles the 2-point (segment) simplex: A = Points[1]
// (newest), B = Points[0] (spec.md §4.C "findFromLine").
func (s *Simplex) findFromLine() {
	a := s.Points[1]
	b := s.Points[0]

	ab := b.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	if ab.Dot(ao) < 0 {
		// A alone is the useful vertex; B contributes nothing further.
		s.discard(b)
		s.Points[0] = a
		s.Points[1] = nil
		s.Count = 1
		s.NextDirection = ao
		return
	}

	dir := ab.Cross(ao).Cross(ab)
	if dir.Dot(dir) < Epsilon*Epsilon {
		// ab parallel to ao: degenerate fallback, any axis perpendicular
		// to ab (spec.md §4.C).
		n := ab.Normalize()
		dir = mgl64.Vec3{1, 1, 1}.Sub(mgl64.Vec3{math.Abs(n[0]), math.Abs(n[1]), math.Abs(n[2])})
	}
	s.NextDirection = dir
}

// findFromTriangle handles the 3-point (triangle) simplex: A = Points[2]
// (newest), B = Points[1], C = Points[0] (spec.md §4.C "findFromTriangle").
func (s *Simplex) findFromTriangle() {
	a := s.Points[2]
	b := s.Points[1]
	c := s.Points[0]

	ao := a.Point.Mul(-1)
	ab := b.Point.Sub(a.Point)
	ac := c.Point.Sub(a.Point)
	n := ab.Cross(ac)
	eAB := ab.Cross(n)
	eAC := n.Cross(ac)

	keepEdgeAC := func() {
		s.discard(b)
		s.Points[0], s.Points[1], s.Points[2] = c, a, nil
		s.Count = 2
		s.NextDirection = ac.Cross(ao).Cross(ac)
	}
	keepEdgeAB := func() {
		s.discard(c)
		s.Points[0], s.Points[1], s.Points[2] = b, a, nil
		s.Count = 2
		s.NextDirection = ab.Cross(ao).Cross(ab)
	}
	keepVertexA := func() {
		s.discard(b)
		s.discard(c)
		s.Points[0], s.Points[1], s.Points[2] = a, nil, nil
		s.Count = 1
		s.NextDirection = ao
	}

	if eAC.Dot(ao) >= 0 {
		switch {
		case ac.Dot(ao) >= 0:
			keepEdgeAC()
		case ab.Dot(ao) >= 0:
			keepEdgeAB()
		default:
			keepVertexA()
		}
		return
	}

	if eAB.Dot(ao) >= 0 {
		if ab.Dot(ao) >= 0 {
			keepEdgeAB()
		} else {
			keepVertexA()
		}
		return
	}

	// Origin is above or below the triangle's plane; reorder to (A,B,C)
	// in both branches so the tetrahedron case gets a consistent
	// labeling (spec.md §4.C).
	s.Points[0], s.Points[1], s.Points[2] = a, b, c
	if n.Dot(ao) >= 0 {
		s.NextDirection = n
	} else {
		s.NextDirection = n.Mul(-1)
	}
}

// findFromTetrahedron handles the 4-point (tetrahedron) simplex: A =
// Points[3] (newest), B = Points[2], C = Points[1], D = Points[0]. This
// is the only case that can return Enclosed (spec.md §4.C
// "findFromTetrahedron").
func (s *Simplex) findFromTetrahedron() Result {
	a, b, c, d := s.Points[3], s.Points[2], s.Points[1], s.Points[0]

	type candidateFace struct {
		verts    [3]*support.Point
		excluded *support.Point
		normal   mgl64.Vec3
		score    float64
	}

	score := func(p0, p1, p2 *support.Point) (mgl64.Vec3, float64) {
		n := p1.Point.Sub(p0.Point).Cross(p2.Point.Sub(p0.Point))
		if n.Dot(n) < Epsilon*Epsilon {
			return n, math.Inf(-1)
		}
		n = n.Normalize()

		centroid := p0.Point.Add(p1.Point).Add(p2.Point)
		if centroid.Dot(centroid) < Epsilon*Epsilon {
			return n, math.Inf(-1)
		}
		towardOrigin := centroid.Mul(-1).Normalize()
		return n, n.Dot(towardOrigin)
	}

	candidates := [4]candidateFace{
		{verts: [3]*support.Point{b, c, d}, excluded: a},
		{verts: [3]*support.Point{a, c, b}, excluded: d},
		{verts: [3]*support.Point{c, a, d}, excluded: b},
		{verts: [3]*support.Point{d, a, b}, excluded: c},
	}

	best := -1
	bestScore := Epsilon
	for i := range candidates {
		n, sc := score(candidates[i].verts[0], candidates[i].verts[1], candidates[i].verts[2])
		candidates[i].normal = n
		candidates[i].score = sc
		if sc > bestScore {
			bestScore = sc
			best = i
		}
	}

	if best < 0 {
		// No face has the origin on its outside: the tetrahedron
		// encloses it.
		return Enclosed
	}

	chosen := candidates[best]
	s.discard(chosen.excluded)
	s.Points[0], s.Points[1], s.Points[2], s.Points[3] = chosen.verts[0], chosen.verts[1], chosen.verts[2], nil
	s.Count = 3
	s.NextDirection = chosen.normal
	return Continue
}
