// Package collide is a narrow-phase convex collision detection core:
// given two convex bodies, GJKEPA reports whether they overlap and, if
// so, the contact normal, penetration depth, and contact points needed
// to resolve the overlap (spec.md §1).
package collide

import (
	"math"

	"github.com/akmonengine/collide/body"
	"github.com/akmonengine/collide/epa"
	"github.com/akmonengine/collide/pool"
	"github.com/akmonengine/collide/simplex"
	"github.com/akmonengine/collide/support"
	"github.com/go-gl/mathgl/mgl64"
)

// ContactDetails is the result of a successful GJKEPA query: enough
// information for a solver to separate the two bodies along
// ContactNormal by PenetrationDepth (spec.md §4.F).
type ContactDetails struct {
	ObjectA, ObjectB body.Body

	ContactNormal mgl64.Vec3
	ContactPoint  mgl64.Vec3

	// ContactPointInA and ContactPointInB are the contact point
	// expressed in each body's own local frame, the way a caller
	// tracking moving bodies needs it (spec.md §4.F "local witnesses").
	ContactPointInA mgl64.Vec3
	ContactPointInB mgl64.Vec3

	PenetrationDepth float64

	Restitution float64
	Friction    float64
}

// GJKEPA tests a and b for overlap and, on overlap, computes their
// contact details. p supplies the object pool both GJK and EPA use for
// their intermediate points; callers running many queries should share
// one Pool across them (spec.md §5).
func GJKEPA(a, b body.Body, p *pool.Pool) (ContactDetails, bool) {
	s := simplex.New(p, a, b)

	for {
		switch s.Step() {
		case simplex.Separated:
			s.Release()
			return ContactDetails{}, false
		case simplex.Enclosed:
			return runEPA(p, s, a, b)
		}
	}
}

func runEPA(p *pool.Pool, s *simplex.Simplex, a, b body.Body) (ContactDetails, bool) {
	poly, ok := epa.New(p, s)
	if !ok {
		s.Release()
		return ContactDetails{}, false
	}

	for i := 0; i < epa.MaxIterations; i++ {
		dir := poly.ClosestPoint
		if poly.ClosestFaceDistance < simplex.Epsilon {
			dir = poly.Face(poly.ClosestFaceID).Normal
		}

		sp := support.Acquire(p)
		support.Find(a, b, dir, sp)

		gap := sp.Point.Sub(poly.ClosestPoint)
		gapSq := gap.Dot(gap)

		converged := i == epa.MaxIterations-1 ||
			(gapSq < epa.ConvergenceEpsilon && poly.ClosestFaceDistance > simplex.Epsilon)

		if converged {
			support.Release(p, sp)
			contact, ok := buildContact(poly, a, b)
			poly.Release()
			return contact, ok
		}

		if !poly.AddVertex(sp) {
			support.Release(p, sp)
			contact, ok := buildContact(poly, a, b)
			poly.Release()
			return contact, ok
		}
	}

	contact, ok := buildContact(poly, a, b)
	poly.Release()
	return contact, ok
}

func buildContact(poly *epa.Polyhedron, a, b body.Body) (ContactDetails, bool) {
	face := poly.Face(poly.ClosestFaceID)
	point, u, v, w := face.ClosestPointAndBarycentric()
	if math.IsNaN(u) || math.IsNaN(v) || math.IsNaN(w) {
		return ContactDetails{}, false
	}

	normal := point
	length := math.Sqrt(normal.Dot(normal))
	if length < simplex.Epsilon {
		normal = face.Normal
		length = math.Sqrt(normal.Dot(normal))
	}
	if length < simplex.Epsilon {
		normal = b.Position().Sub(a.Position())
		length = math.Sqrt(normal.Dot(normal))
	}
	if length < simplex.Epsilon {
		normal = mgl64.Vec3{0, 1, 0}
	} else {
		normal = normal.Mul(1 / length)
	}
	normal = epa.SnapNormalToAxis(normal)

	contactInAWorld := face.A.WitnessA.Mul(u).Add(face.B.WitnessA.Mul(v)).Add(face.C.WitnessA.Mul(w))
	contactInBWorld := face.A.WitnessB.Mul(u).Add(face.B.WitnessB.Mul(v)).Add(face.C.WitnessB.Mul(w))
	contactPoint := contactInAWorld.Add(contactInBWorld).Mul(0.5)

	return ContactDetails{
		ObjectA:          a,
		ObjectB:          b,
		ContactNormal:    normal,
		ContactPoint:     contactPoint,
		ContactPointInA:  a.WorldToLocal(contactInAWorld),
		ContactPointInB:  b.WorldToLocal(contactInBWorld),
		PenetrationDepth: math.Sqrt(point.Dot(point)),
		Restitution:      (a.Restitution() + b.Restitution()) / 2,
		Friction:         (a.Friction() + b.Friction()) / 2,
	}, true
}
