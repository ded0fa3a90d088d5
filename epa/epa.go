// Package epa implements the Expanding Polytope Algorithm: given a GJK
// tetrahedron already known to enclose the origin, it grows a polyhedron
// whose face closest to the origin converges to the true penetration
// depth and contact normal (spec.md §4.D/§4.E).
package epa

import (
	"math"

	"github.com/akmonengine/collide/pool"
	"github.com/akmonengine/collide/simplex"
	"github.com/akmonengine/collide/support"
	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon matches simplex.Epsilon; EPA and GJK share one numeric
// tolerance throughout the core (spec.md §5).
const Epsilon = simplex.Epsilon

// MaxIterations bounds how many vertices EPA will add to the polyhedron
// before accepting its current closest face as the answer. spec.md §5
// sets MAX_ITER = 20 for both GJK and EPA; the teacher's own
// EPAMaxIterations (32) is not followed here since the spec's shared
// cap is explicit, not an Open Question.
const MaxIterations = 20

// ConvergenceEpsilon is the squared-distance threshold below which a new
// support point is considered to have stopped improving the estimate.
// spec.md §5 names this EPA_EPSILON = 1e-3 and is explicit that the
// constant is already a squared-length comparison value, not a distance
// to be squared again (teacher's EPAConvergenceTolerance is the
// unsquared analogue of the same idea).
const ConvergenceEpsilon = 1e-3

// normalSnapThreshold clamps near-zero normal components to exactly zero
// before renormalizing, avoiding tangent-direction jitter on axis-aligned
// contacts (teacher's NormalSnapThreshold; SPEC_FULL.md §5 supplemented
// feature).
const normalSnapThreshold = 1e-8

// FaceID is a stable index into a Polyhedron's face slab. Faces are never
// relocated once created, so a FaceID remains valid for the polyhedron's
// whole lifetime, including after the face it names has been marked
// inactive (spec.md §9's "prefer integer IDs over raw pointers" note).
type FaceID int

const noFace FaceID = -1

// Face is one triangular face of the polyhedron, outward-oriented:
// Normal always points away from the polyhedron's interior.
type Face struct {
	A, B, C   *support.Point
	Normal    mgl64.Vec3
	Active    bool
	Neighbors [3]FaceID // across edge AB, BC, CA respectively
}

func newFace(a, b, c *support.Point) Face {
	n := b.Point.Sub(a.Point).Cross(c.Point.Sub(a.Point))
	if n.Dot(n) > Epsilon*Epsilon {
		n = n.Normalize()
	}
	return Face{A: a, B: b, C: c, Normal: n, Active: true, Neighbors: [3]FaceID{noFace, noFace, noFace}}
}

// orientedFace builds a face over (p0, p1, p2) and flips its winding if
// that leaves opposite on the face's inner side, guaranteeing an
// outward-facing normal without needing the polyhedron's centroid
// (spec.md §4.D "initial faces"; grounded on the teacher's
// createFaceOutward).
func orientedFace(p0, p1, p2, opposite *support.Point) Face {
	f := newFace(p0, p1, p2)
	if f.Normal.Dot(opposite.Point.Sub(p0.Point)) > 0 {
		return newFace(p0, p2, p1)
	}
	return f
}

// Classify reports the signed distance of v from the plane of f, along
// f's outward normal. Positive means v is outside (in front of) the face.
func (f *Face) Classify(v *support.Point) float64 {
	return f.Normal.Dot(v.Point.Sub(f.A.Point))
}

// Visible reports whether v sits in front of f's plane, the test EPA uses
// to find the silhouette (spec.md §4.E "visible faces").
func (f *Face) Visible(v *support.Point) bool {
	return f.Classify(v) > Epsilon
}

// edgeEntry records one horizon edge discovered while walking the
// silhouette: the (a, b) boundary of the visible region, oriented so a
// new face built as (b, v, a) has outward winding, plus enough of the
// owning structure to patch neighbor pointers afterward.
type edgeEntry struct {
	outerFace FaceID // the still-active face just outside the silhouette
	outerSlot int    // which of outerFace's Neighbors[] pointed at the removed face
	a, b      *support.Point
}

// Polyhedron is EPA's working polytope: a face slab plus the running
// closest-face-to-origin estimate.
type Polyhedron struct {
	faces []Face

	ClosestFaceID       FaceID
	ClosestFaceDistance float64
	ClosestPoint        mgl64.Vec3

	pool *pool.Pool

	workQueue []FaceID
	visited   map[FaceID]bool
	edges     []edgeEntry
}

// New builds the initial 4-face polyhedron from a GJK simplex already
// known to enclose the origin. Ownership of the simplex's four points
// transfers to the returned Polyhedron; the simplex itself should not be
// used again. It reports false if the tetrahedron is degenerate enough
// that no face has a usable normal (spec.md §4.D "degenerate simplex",
// Open Question resolution in SPEC_FULL.md §6).
func New(p *pool.Pool, s *simplex.Simplex) (*Polyhedron, bool) {
	if s.Count != 4 {
		return nil, false
	}
	d, c, b, a := s.Points[0], s.Points[1], s.Points[2], s.Points[3]

	faces := [4]Face{
		orientedFace(a, b, c, d),
		orientedFace(a, c, d, b),
		orientedFace(a, d, b, c),
		orientedFace(b, d, c, a),
	}
	for i := range faces {
		// Written as !(x >= eps) so that a NaN normal is rejected too.
		if !(faces[i].Normal.Dot(faces[i].Normal) >= Epsilon*Epsilon) {
			return nil, false
		}
	}

	poly := &Polyhedron{faces: faces[:], pool: p, ClosestFaceID: noFace, visited: make(map[FaceID]bool)}
	poly.wireInitialNeighbors([4]FaceID{0, 1, 2, 3})
	poly.ClosestFace()
	return poly, true
}

func edgeVertices(f *Face, slot int) (*support.Point, *support.Point) {
	switch slot {
	case 0:
		return f.A, f.B
	case 1:
		return f.B, f.C
	default:
		return f.C, f.A
	}
}

func sameEdge(a0, b0, a1, b1 *support.Point) bool {
	return (a0 == a1 && b0 == b1) || (a0 == b1 && b0 == a1)
}

// wireInitialNeighbors finds, for each of the 4 initial faces' 3 edges,
// the other initial face sharing that edge (every edge of a tetrahedron
// is shared by exactly two of its four faces).
func (p *Polyhedron) wireInitialNeighbors(ids [4]FaceID) {
	for _, id := range ids {
		f := &p.faces[id]
		for slot := 0; slot < 3; slot++ {
			a0, b0 := edgeVertices(f, slot)
			for _, otherID := range ids {
				if otherID == id {
					continue
				}
				other := &p.faces[otherID]
				for otherSlot := 0; otherSlot < 3; otherSlot++ {
					a1, b1 := edgeVertices(other, otherSlot)
					if sameEdge(a0, b0, a1, b1) {
						f.Neighbors[slot] = otherID
					}
				}
			}
		}
	}
}

// Face returns the face stored under id.
func (p *Polyhedron) Face(id FaceID) *Face {
	return &p.faces[id]
}

// ClosestPointOnTriangle finds the point of triangle (a, b, c) nearest
// the origin and its barycentric weights (u, v, w) with point =
// u*a + v*b + w*c (Ericson, Real-Time Collision Detection §5.1.5).
func ClosestPointOnTriangle(a, b, c mgl64.Vec3) (point mgl64.Vec3, u, v, w float64) {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := a.Mul(-1) // origin - a

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a, 1, 0, 0
	}

	bp := b.Mul(-1)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b, 0, 1, 0
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		t := d1 / (d1 - d3)
		return a.Add(ab.Mul(t)), 1 - t, t, 0
	}

	cp := c.Mul(-1)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c, 0, 0, 1
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		t := d2 / (d2 - d6)
		return a.Add(ac.Mul(t)), 1 - t, 0, t
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		t := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Mul(t)), 0, 1 - t, t
	}

	denom := 1 / (va + vb + vc)
	vv := vb * denom
	ww := vc * denom
	return a.Add(ab.Mul(vv)).Add(ac.Mul(ww)), 1 - vv - ww, vv, ww
}

// ClosestPointAndBarycentric reports f's closest point to the origin and
// its barycentric weights over (A, B, C).
func (f *Face) ClosestPointAndBarycentric() (mgl64.Vec3, float64, float64, float64) {
	return ClosestPointOnTriangle(f.A.Point, f.B.Point, f.C.Point)
}

// ClosestFace recomputes the active face nearest the origin and caches
// the result (spec.md §4.E "closest face tracking").
func (p *Polyhedron) ClosestFace() {
	best := noFace
	bestDist := math.Inf(1)
	var bestPoint mgl64.Vec3

	for i := range p.faces {
		f := &p.faces[i]
		if !f.Active {
			continue
		}
		pt, _, _, _ := f.ClosestPointAndBarycentric()
		d := math.Sqrt(pt.Dot(pt))
		if d < bestDist {
			bestDist = d
			best = FaceID(i)
			bestPoint = pt
		}
	}

	p.ClosestFaceID = best
	p.ClosestFaceDistance = bestDist
	p.ClosestPoint = bestPoint
}

// silhouette walks outward from start, the first face found visible from
// v, marking every visible face inactive and recording the boundary
// edges between visible and non-visible faces. It uses an explicit work
// queue rather than recursion (spec.md §9's stack-safety note).
func (p *Polyhedron) silhouette(start FaceID, v *support.Point) {
	p.workQueue = p.workQueue[:0]
	p.edges = p.edges[:0]
	for k := range p.visited {
		delete(p.visited, k)
	}

	p.workQueue = append(p.workQueue, start)
	p.visited[start] = true

	for len(p.workQueue) > 0 {
		id := p.workQueue[len(p.workQueue)-1]
		p.workQueue = p.workQueue[:len(p.workQueue)-1]

		f := &p.faces[id]
		f.Active = false

		for slot := 0; slot < 3; slot++ {
			nbr := f.Neighbors[slot]
			if nbr == noFace {
				continue
			}
			nf := &p.faces[nbr]
			if !nf.Active {
				continue
			}

			if nf.Visible(v) {
				if !p.visited[nbr] {
					p.visited[nbr] = true
					p.workQueue = append(p.workQueue, nbr)
				}
				continue
			}

			a, b := edgeVertices(f, slot)
			outerSlot := neighborSlotFor(nf, id)
			p.edges = append(p.edges, edgeEntry{outerFace: nbr, outerSlot: outerSlot, a: a, b: b})
		}
	}
}

func neighborSlotFor(f *Face, id FaceID) int {
	for i, n := range f.Neighbors {
		if n == id {
			return i
		}
	}
	return -1
}

// rotateIntoCycle reorders edges in place so that consecutive entries
// chain b[i] == a[i+1], closing back to a[0] at the end — i.e. the
// silhouette forms one closed loop around the polyhedron. It reports
// false if the edges do not form a single consistent cycle, which the
// driver treats as a signal to stop EPA and accept the current closest
// face rather than corrupt the polyhedron (SPEC_FULL.md §6, Open
// Question #3).
func rotateIntoCycle(edges []edgeEntry) bool {
	if len(edges) == 0 {
		return false
	}

	ordered := make([]edgeEntry, 0, len(edges))
	remaining := append([]edgeEntry{}, edges...)

	ordered = append(ordered, remaining[0])
	remaining = remaining[1:]

	for len(remaining) > 0 {
		want := ordered[len(ordered)-1].b
		found := -1
		for i, e := range remaining {
			if e.a == want {
				found = i
				break
			}
		}
		if found < 0 {
			return false
		}
		ordered = append(ordered, remaining[found])
		remaining = append(remaining[:found], remaining[found+1:]...)
	}

	if ordered[len(ordered)-1].b != ordered[0].a {
		return false
	}

	copy(edges, ordered)
	return true
}

// AddVertex expands the polyhedron to include v: it finds a visible
// face, removes the visible region via silhouette, and stitches one new
// face per horizon edge. It reports false if no face is visible from v
// (v lies inside the current polyhedron, so EPA has converged), leaving
// the polyhedron unchanged, or if the silhouette does not close into a
// single cycle, in which case the faces the walk visited stay marked
// inactive, no new faces are added and the cached closest face is not
// recomputed.
func (p *Polyhedron) AddVertex(v *support.Point) bool {
	start := noFace
	for i := range p.faces {
		if p.faces[i].Active && p.faces[i].Visible(v) {
			start = FaceID(i)
			break
		}
	}
	if start == noFace {
		return false
	}

	p.silhouette(start, v)
	if !rotateIntoCycle(p.edges) {
		return false
	}

	newIDs := make([]FaceID, len(p.edges))
	for i, e := range p.edges {
		f := newFace(e.b, v, e.a)
		id := FaceID(len(p.faces))
		p.faces = append(p.faces, f)
		newIDs[i] = id

		p.faces[e.outerFace].Neighbors[e.outerSlot] = id
		p.faces[id].Neighbors[2] = e.outerFace
	}

	n := len(newIDs)
	for i, id := range newIDs {
		next := newIDs[(i+1)%n]
		prev := newIDs[(i-1+n)%n]
		p.faces[id].Neighbors[0] = next
		p.faces[id].Neighbors[1] = prev
	}

	p.ClosestFace()
	return true
}

// Release returns every vertex still referenced by any face (active or
// already folded into the interior) to the pool, exactly once per vertex
// even though a vertex is typically shared by several faces (spec.md
// §5's pool dedup requirement; implemented via pool.Pool's membership
// tracking).
func (p *Polyhedron) Release() {
	isMember := p.pool.Members(support.Kind)
	for i := range p.faces {
		f := &p.faces[i]
		for _, v := range [3]*support.Point{f.A, f.B, f.C} {
			if isMember(v) {
				support.Release(p.pool, v)
			}
		}
	}
}

// snapNormalToAxis clamps near-zero components of normal to exactly
// zero and renormalizes, preventing tangent-direction jitter on
// axis-aligned contacts (teacher's snapNormalToAxis).
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	x, y, z := normal[0], normal[1], normal[2]
	if math.Abs(x) < normalSnapThreshold {
		x = 0
	}
	if math.Abs(y) < normalSnapThreshold {
		y = 0
	}
	if math.Abs(z) < normalSnapThreshold {
		z = 0
	}

	clamped := mgl64.Vec3{x, y, z}
	length := math.Sqrt(clamped.Dot(clamped))
	if length < normalSnapThreshold {
		return normal
	}
	return clamped.Mul(1 / length)
}

// SnapNormalToAxis exposes snapNormalToAxis for the root package, which
// applies it to the final contact normal before returning it.
func SnapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	return snapNormalToAxis(normal)
}
