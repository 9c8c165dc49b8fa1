// Package frontier implements the dual indexed set (GasAdj / CrystalAdj)
// that tracks the crystal/gas interface of one lattice replica with O(1)
// add, remove, size, and uniform sample operations.
package frontier

import "pgregory.net/rand"

// Kind selects which side of the interface a site belongs to.
type Kind uint8

const (
	// None means the site is not currently a frontier member.
	None Kind = iota
	// GasAdj: gas sites with at least one crystal neighbor (attachment candidates).
	GasAdj
	// CrystalAdj: crystal sites with at least one gas neighbor (detachment candidates).
	CrystalAdj
)

// Frontier is a dual dense-array membership set over site indices in
// [0, size). Each kind is a dense slice of members plus a reverse map
// (site -> position in that slice) and a per-site membership tag.
// Removal is swap-pop; insertion is push-back, so every operation below
// is O(1).
type Frontier struct {
	gas     []int
	crystal []int
	tag     []Kind
	pos     []int // position within the owning slice, valid only for members
}

// New allocates a Frontier sized for a lattice of the given number of
// sites. The initial member-slice capacity is a small fraction of the
// lattice size, matching the heuristic the original model used to avoid
// early reallocation without over-committing memory for small lattices.
func New(size int) *Frontier {
	capHint := size / 10
	if capHint < 128 {
		capHint = 128
	}
	return &Frontier{
		gas:     make([]int, 0, capHint),
		crystal: make([]int, 0, capHint),
		tag:     make([]Kind, size),
		pos:     make([]int, size),
	}
}

// Add inserts idxg into the given kind's member set. No-op if idxg is
// already a member of that kind. Per the contract in spec.md §4.2, the
// caller must never Add a site already tagged the *other* kind without
// first Removing it — the kernel always removes before switching sides.
func (f *Frontier) Add(kind Kind, idxg int) {
	if f.tag[idxg] == kind {
		return
	}
	switch kind {
	case GasAdj:
		f.pos[idxg] = len(f.gas)
		f.gas = append(f.gas, idxg)
	case CrystalAdj:
		f.pos[idxg] = len(f.crystal)
		f.crystal = append(f.crystal, idxg)
	}
	f.tag[idxg] = kind
}

// Remove deletes idxg from the given kind's member set via swap-pop.
// No-op if idxg is not currently tagged kind.
func (f *Frontier) Remove(kind Kind, idxg int) {
	if f.tag[idxg] != kind {
		return
	}
	f.tag[idxg] = None

	var members *[]int
	switch kind {
	case GasAdj:
		members = &f.gas
	case CrystalAdj:
		members = &f.crystal
	}

	p := f.pos[idxg]
	last := len(*members) - 1
	lastIdxg := (*members)[last]
	(*members)[p] = lastIdxg
	*members = (*members)[:last]
	if p != last {
		f.pos[lastIdxg] = p
	}
}

// Size returns the current member count of the given kind.
func (f *Frontier) Size(kind Kind) int {
	switch kind {
	case GasAdj:
		return len(f.gas)
	case CrystalAdj:
		return len(f.crystal)
	}
	return 0
}

// Sample returns a uniformly chosen member index of the given kind. The
// caller must ensure Size(kind) > 0.
func (f *Frontier) Sample(kind Kind, rng *rand.Rand) int {
	switch kind {
	case GasAdj:
		return f.gas[rng.Intn(len(f.gas))]
	case CrystalAdj:
		return f.crystal[rng.Intn(len(f.crystal))]
	}
	panic("frontier: sample of unknown kind")
}

// Tag reports the current membership kind of idxg (None if not a member
// of either set).
func (f *Frontier) Tag(idxg int) Kind {
	return f.tag[idxg]
}

// Members returns a read-only view of the given kind's current members,
// in no particular order (dense-array storage order, which shifts under
// Remove's swap-pop).
func (f *Frontier) Members(kind Kind) []int {
	switch kind {
	case GasAdj:
		return f.gas
	case CrystalAdj:
		return f.crystal
	}
	return nil
}
