package cast

import (
	"github.com/AndreasBriese/bbloom"
	farm "github.com/dgryski/go-farm"
)

// templateID is a small, densely-assigned, first-seen-order integer
// identifying a template within one block's registry (§3).
type templateID int32

// registry interns template skeletons to IDs, assigned in first-seen
// order (§4.E). Lookup is O(1) amortized: a bloom filter gives a cheap
// negative answer for skeletons never seen before (avoiding a hash-map
// probe on the hot insert path of a block with many distinct templates),
// and a farm-hash bucket index narrows any positive answer to the
// handful of candidates that could collide before an exact byte
// comparison confirms a hit.
type registry struct {
	cfg *BlockConfig

	order    []template        // ID order; order[i].skeleton is template i
	buckets  map[uint64][]int32 // farm hash -> candidate IDs
	filter   *bbloom.Bloom
	capacity int
}

func newRegistry(cfg *BlockConfig) *registry {
	cap := cfg.MaxTemplates
	filter := bbloom.New(float64(cap), 0.01)
	return &registry{
		cfg:      cfg,
		buckets:  make(map[uint64][]int32, 64),
		filter:   &filter,
		capacity: cap,
	}
}

// lookup returns the ID for skeleton if already interned.
func (r *registry) lookup(skeleton []byte) (templateID, bool) {
	if !r.filter.Has(skeleton) {
		return 0, false
	}
	h := farm.Hash64(skeleton)
	for _, id := range r.buckets[h] {
		if bytesEqual(r.order[id].skeleton, skeleton) {
			return templateID(id), true
		}
	}
	return 0, false
}

// intern returns the ID for skeleton, assigning a new one in first-seen
// order if it hasn't been seen in this block yet. overflow is true when
// doing so would exceed MaxTemplates — the caller (Block Assembler) must
// seal the current block without interning skeleton.
func (r *registry) intern(skeleton []byte, arity int) (id templateID, overflow bool) {
	if existing, ok := r.lookup(skeleton); ok {
		return existing, false
	}
	if len(r.order) >= r.capacity {
		return 0, true
	}

	owned := append([]byte(nil), skeleton...)
	newID := int32(len(r.order))
	r.order = append(r.order, template{skeleton: owned, arity: arity})

	h := farm.Hash64(owned)
	r.buckets[h] = append(r.buckets[h], newID)
	r.filter.Add(owned)

	return templateID(newID), false
}

// len returns the number of interned templates.
func (r *registry) len() int { return len(r.order) }

// templates returns the interned templates in ID order — the frozen
// inverse table §3 describes materializing at serialization time.
func (r *registry) templates() []template { return r.order }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
