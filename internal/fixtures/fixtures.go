// Package fixtures provides minimal body.Body implementations used only
// by this module's own tests. They are deliberately thin — a rigid-body
// representation is out of scope for the core (spec.md §1) — but they
// need to be real enough to exercise rotation, support queries, and
// world/local round-tripping the way the teacher's actor.RigidBody and
// actor.Box/actor.Sphere do.
package fixtures

import "github.com/go-gl/mathgl/mgl64"

// localShape is the minimal support query a fixture shape must provide,
// in the shape's own local frame.
type localShape interface {
	supportLocal(direction mgl64.Vec3) mgl64.Vec3
}

// Sphere is a centered sphere of the given radius.
type Sphere struct {
	Radius float64
}

func (s Sphere) supportLocal(direction mgl64.Vec3) mgl64.Vec3 {
	return direction.Normalize().Mul(s.Radius)
}

// Box is an axis-aligned (in its own local frame) box given by half
// extents, matching actor.Box.Support's per-axis selection.
type Box struct {
	HalfExtents mgl64.Vec3
}

func (b Box) supportLocal(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents[0], b.HalfExtents[1], b.HalfExtents[2]

	if direction[0] < 0 {
		hx = -hx
	}
	if direction[1] < 0 {
		hy = -hy
	}
	if direction[2] < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

// Body is a test-only implementation of body.Body: a shape placed in
// world space with a rigid transform and a pair of combination-ready
// material scalars, mirroring actor.RigidBody.SupportWorld without any
// of the mass/inertia/integration machinery the core never touches.
type Body struct {
	position    mgl64.Vec3
	rotation    mgl64.Quat
	shape       localShape
	restitution float64
	friction    float64
}

// NewBody creates a fixture body with identity rotation.
func NewBody(position mgl64.Vec3, shape localShape, restitution, friction float64) *Body {
	return &Body{
		position:    position,
		rotation:    mgl64.QuatIdent(),
		shape:       shape,
		restitution: restitution,
		friction:    friction,
	}
}

// NewRotatedBody creates a fixture body with an explicit rotation.
func NewRotatedBody(position mgl64.Vec3, rotation mgl64.Quat, shape localShape, restitution, friction float64) *Body {
	return &Body{
		position:    position,
		rotation:    rotation,
		shape:       shape,
		restitution: restitution,
		friction:    friction,
	}
}

func (b *Body) Support(direction mgl64.Vec3) mgl64.Vec3 {
	local := b.rotation.Conjugate().Rotate(direction)
	localSupport := b.shape.supportLocal(local)
	return b.position.Add(b.rotation.Rotate(localSupport))
}

func (b *Body) Position() mgl64.Vec3 { return b.position }

func (b *Body) WorldToLocal(point mgl64.Vec3) mgl64.Vec3 {
	return b.rotation.Conjugate().Rotate(point.Sub(b.position))
}

func (b *Body) Restitution() float64 { return b.restitution }
func (b *Body) Friction() float64    { return b.friction }
