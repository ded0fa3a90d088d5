// Package pool implements the named-kind object pool the narrow-phase
// core relies on to keep its hot path allocation-free (spec.md §5). It
// generalizes the teacher's per-type sync.Pool variables — gjk.SimplexPool,
// the unexported polytopeBuilderPool in epa/polytope.go, the unexported
// facePool in epa/face.go — into a single pool keyed by a string kind, the
// way spec.md §6 describes ("acquire(\"GJK2SupportPoint\")",
// "acquire(\"ContactDetails\")"), and adds the membership test the EPA
// polyhedron's batched release needs to avoid double-freeing vertices
// shared by several faces.
package pool

import "sync"

// Pool tracks one sync.Pool plus its outstanding (acquired, not yet
// released) members per named kind. The zero value is not usable; use
// New.
type Pool struct {
	mu    sync.Mutex
	kinds map[string]*kindPool
}

type kindPool struct {
	raw         sync.Pool
	mu          sync.Mutex
	outstanding map[any]struct{}
	acquired    int64
	released    int64
}

// New returns an empty Pool. A Pool is safe for concurrent use by several
// collision queries at once — spec.md §5 leaves the choice between a
// pool-per-query and a thread-safe shared pool to the implementer; this
// one is safe to share.
func New() *Pool {
	return &Pool{kinds: make(map[string]*kindPool)}
}

func (p *Pool) kind(kind string, newFn func() any) *kindPool {
	p.mu.Lock()
	defer p.mu.Unlock()

	kp, ok := p.kinds[kind]
	if !ok {
		kp = &kindPool{outstanding: make(map[any]struct{})}
		kp.raw.New = newFn
		p.kinds[kind] = kp
	}
	return kp
}

// Acquire returns an object of kind, constructing it with newFn on first
// use and on every pool miss thereafter. newFn is ignored once kind has
// been seen by this Pool.
func (p *Pool) Acquire(kind string, newFn func() any) any {
	kp := p.kind(kind, newFn)
	obj := kp.raw.Get()

	kp.mu.Lock()
	kp.outstanding[obj] = struct{}{}
	kp.acquired++
	kp.mu.Unlock()

	return obj
}

// Release returns obj to kind's pool exactly once. Releasing an obj that
// is not currently outstanding under kind — because it was already
// released, or never acquired from this Pool — is a silent no-op. That is
// what lets a caller scan a structure where several owners reference the
// same object (spec.md §5's polyhedron vertex dedup) and release each one
// without tracking which it has already freed itself.
func (p *Pool) Release(kind string, obj any) {
	p.mu.Lock()
	kp, ok := p.kinds[kind]
	p.mu.Unlock()
	if !ok {
		return
	}

	kp.mu.Lock()
	_, present := kp.outstanding[obj]
	if present {
		delete(kp.outstanding, obj)
		kp.released++
	}
	kp.mu.Unlock()

	if present {
		kp.raw.Put(obj)
	}
}

// Members returns a membership test for kind: the returned predicate
// reports whether obj is currently outstanding. This is the
// "pool_members(kind) → membership test" capability spec.md §6 requires.
func (p *Pool) Members(kind string) func(obj any) bool {
	p.mu.Lock()
	kp, ok := p.kinds[kind]
	p.mu.Unlock()
	if !ok {
		return func(any) bool { return false }
	}

	return func(obj any) bool {
		kp.mu.Lock()
		defer kp.mu.Unlock()
		_, present := kp.outstanding[obj]
		return present
	}
}

// Balance reports the (acquired, released) counters for kind, for
// property P9's pool-balance assertions in tests.
func (p *Pool) Balance(kind string) (acquired, released int64) {
	p.mu.Lock()
	kp, ok := p.kinds[kind]
	p.mu.Unlock()
	if !ok {
		return 0, 0
	}

	kp.mu.Lock()
	defer kp.mu.Unlock()
	return kp.acquired, kp.released
}
