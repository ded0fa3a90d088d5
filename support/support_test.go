package support

import (
	"math"
	"testing"

	"github.com/akmonengine/collide/internal/fixtures"
	"github.com/akmonengine/collide/pool"
	"github.com/go-gl/mathgl/mgl64"
)

func TestFind_MinkowskiIdentity(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 2}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{5, 1, 0}, fixtures.Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, 0, 0)

	sp := Acquire(p)
	Find(a, b, mgl64.Vec3{1, 0, 0}, sp)

	diff := sp.WitnessA.Sub(sp.WitnessB)
	for i := 0; i < 3; i++ {
		if math.Abs(diff[i]-sp.Point[i]) > 1e-9 {
			t.Fatalf("Point must equal WitnessA - WitnessB: got Point=%v, WitnessA-WitnessB=%v", sp.Point, diff)
		}
	}
	Release(p, sp)
}

func TestFind_SupportCorrectness(t *testing.T) {
	p := pool.New()
	a := fixtures.NewBody(mgl64.Vec3{0, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)
	b := fixtures.NewBody(mgl64.Vec3{3, 0, 0}, fixtures.Sphere{Radius: 1}, 0, 0)

	dir := mgl64.Vec3{1, 0, 0}
	sp := Acquire(p)
	Find(a, b, dir, sp)

	// Every point on a unit sphere centered at the origin satisfies
	// dot(v, dir) <= dot(a.Support(dir), dir); spot-check a few.
	candidates := []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0.7, 0.7, 0}, {-1, 0, 0}}
	supportDot := a.Support(dir).Dot(dir)
	for _, v := range candidates {
		if v.Dot(v) > 1+1e-9 {
			continue // outside the sphere, not a hull vertex
		}
		if v.Dot(dir) > supportDot+1e-9 {
			t.Errorf("support point does not dominate candidate %v along %v", v, dir)
		}
	}
	Release(p, sp)
}
