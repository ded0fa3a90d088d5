package collide

import (
	"math"
	"testing"

	"github.com/akmonengine/collide/internal/fixtures"
	"github.com/akmonengine/collide/pool"
	"github.com/go-gl/mathgl/mgl64"
)

func approx(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

func TestGJKEPA_SeparatedSpheresReportNoContact(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 1}, 0.5, 0.3)
	b := fixtures.NewBody(mgl64.Vec3{10, 0, 0}, fixtures.Sphere{Radius: 1}, 0.5, 0.3)

	_, ok := GJKEPA(a, b, p)
	if ok {
		t.Fatalf("expected no contact for spheres 10 apart with radius 1 each")
	}

	acquired, released := p.Balance("GJK2SupportPoint")
	if acquired != released {
		t.Fatalf("pool leak on separated path: acquired=%d released=%d", acquired, released)
	}
}

func TestGJKEPA_OverlappingSpheresReportExpectedContact(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{1.5, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)

	contact, ok := GJKEPA(a, b, p)
	if !ok {
		t.Fatalf("expected overlap: two unit spheres 1.5 apart overlap by 0.5")
	}

	if !approx(contact.ContactNormal[0], 1, 0.05) {
		t.Errorf("expected normal ~(1,0,0), got %v", contact.ContactNormal)
	}
	if !approx(contact.PenetrationDepth, 0.5, 0.05) {
		t.Errorf("expected penetration depth ~0.5, got %v", contact.PenetrationDepth)
	}
	if !approx(contact.ContactPoint[0], 0.75, 0.1) {
		t.Errorf("expected contact point x ~0.75, got %v", contact.ContactPoint)
	}
}

func TestGJKEPA_OverlappingCubesReportContact(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{1.5, 0, 0}, fixtures.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 0, 0)

	contact, ok := GJKEPA(a, b, p)
	if !ok {
		t.Fatalf("expected overlap: two cubes of half-extent 1, 1.5 apart on x, overlap by 0.5")
	}
	if !approx(math.Abs(contact.ContactNormal[0]), 1, 0.05) {
		t.Errorf("expected a normal aligned with x, got %v", contact.ContactNormal)
	}
	if !approx(contact.PenetrationDepth, 0.5, 0.05) {
		t.Errorf("expected penetration depth ~0.5, got %v", contact.PenetrationDepth)
	}
}

func TestGJKEPA_CubeVsSphereReportsContact(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{1.5, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)

	contact, ok := GJKEPA(a, b, p)
	if !ok {
		t.Fatalf("expected overlap between a cube of half-extent 1 and a unit sphere 1.5 apart")
	}
	if contact.PenetrationDepth <= 0 {
		t.Errorf("expected a positive penetration depth, got %v", contact.PenetrationDepth)
	}
}

func TestGJKEPA_ConcentricSpheresDoesNotPanicAndDoesNotLeak(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("GJKEPA panicked on degenerate concentric spheres: %v", r)
		}
	}()

	_, _ = GJKEPA(a, b, p)

	acquired, released := p.Balance("GJK2SupportPoint")
	if acquired != released {
		t.Fatalf("pool leak on concentric spheres: acquired=%d released=%d", acquired, released)
	}
}

func TestGJKEPA_GlancingContact(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{1.99, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)

	contact, ok := GJKEPA(a, b, p)
	if !ok {
		t.Fatalf("expected a shallow overlap to still be reported as contact")
	}
	if contact.PenetrationDepth > 0.02 || contact.PenetrationDepth < 0 {
		t.Errorf("expected a very shallow penetration depth, got %v", contact.PenetrationDepth)
	}
}

func TestGJKEPA_RotatedBoxesOverlap(t *testing.T) {
	p := pool.New()
	rot := mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 0, 1})
	a := fixtures.NewRotatedBody(mgl64.Vec3{0, 0, 0}, rot, fixtures.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{1.2, 0, 0}, fixtures.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 0, 0)

	_, ok := GJKEPA(a, b, p)
	if !ok {
		t.Fatalf("expected a rotated box and an axis-aligned box to overlap at this distance")
	}
}

func TestGJKEPA_PoolBalancesAcrossManyQueries(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)

	for i := 0; i < 50; i++ {
		x := float64(i) * 0.1
		b := fixtures.NewBody(mgl64.Vec3{x, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)
		GJKEPA(a, b, p)
	}

	acquired, released := p.Balance("GJK2SupportPoint")
	if acquired != released {
		t.Fatalf("pool leak across repeated queries: acquired=%d released=%d", acquired, released)
	}
}
