// Package body defines the single capability the narrow-phase core needs
// from a rigid body. Everything else about a body — its shape
// representation, mass, broad-phase bookkeeping — belongs to the caller;
// this core only ever asks a Body for a support point or a handful of
// scalars (spec.md §1 "Out of scope", §6 "External interfaces").
package body

import "github.com/go-gl/mathgl/mgl64"

// Body is the polymorphic capability GJK and EPA consume. Implementations
// are assumed convex; the core treats Support as an oracle and never
// inspects a body's geometry any other way.
type Body interface {
	// Support returns the farthest point of the body's convex hull, in
	// world space, along direction.
	Support(direction mgl64.Vec3) mgl64.Vec3

	// Position returns the body's world-space origin.
	Position() mgl64.Vec3

	// WorldToLocal maps a world-space point into the body's local frame
	// (spec.md §3's "world-to-local transform").
	WorldToLocal(point mgl64.Vec3) mgl64.Vec3

	// Restitution and Friction are combined pairwise by the driver that
	// builds a ContactDetails.
	Restitution() float64
	Friction() float64
}
