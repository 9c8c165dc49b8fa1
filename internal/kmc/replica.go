package kmc

import (
	"math"

	"pgregory.net/rand"

	"github.com/kmclab/latticekmc/internal/frontier"
	"github.com/kmclab/latticekmc/internal/lattice"
)

// SnapshotSink receives one replica's full phase vector each time the
// kernel performs a write step. It is the "IO shim (external)" collaborator
// of spec.md §6: the core never opens files itself, only appends through
// this interface.
type SnapshotSink interface {
	Append(phase []Phase) error
}

// Replica is one lattice instance, its frontier, and its per-replica log.
// A replica is created once (stage-2 ensemble initialization) and retired
// exactly when its step kernel reports it is no longer Alive.
type Replica struct {
	ID    int
	Phase []Phase
	Front *frontier.Frontier
	Log   *SimLog

	Termination Termination
}

// NewReplica allocates a replica's phase vector and frontier for a
// lattice of the given number of sites.
func NewReplica(id, size int) *Replica {
	return &Replica{
		ID:    id,
		Phase: make([]Phase, size),
		Front: frontier.New(size),
		Log:   NewSimLog(),
	}
}

// IsAlive reports whether the replica may still be stepped.
func (r *Replica) IsAlive() bool {
	return r.Termination == Alive
}

// RebuildFrontier scans the phase array once and repopulates the
// frontier from scratch ("rebuild_front" of spec.md §4.2), returning the
// number of crystal sites found.
func (r *Replica) RebuildFrontier(lat *lattice.Lattice) float64 {
	nCrystal := 0.0
	for idxg, ph := range r.Phase {
		if ph != Crystal {
			continue
		}
		nCrystal++

		hasGasNeighbor := false
		for _, n := range lat.Neighbors(idxg) {
			if n == lattice.None {
				continue
			}
			if r.Phase[n] == Gas {
				hasGasNeighbor = true
				r.Front.Add(frontier.GasAdj, n)
			}
		}
		if hasGasNeighbor {
			r.Front.Add(frontier.CrystalAdj, idxg)
		}
	}
	return nCrystal
}

// neighborAxisCounts returns the number of in-domain Crystal neighbors
// along each of the three axis pairs for idxg, following the fixed
// [-x,+x,-y,+y,-z,+z] neighbor order.
func (r *Replica) neighborAxisCounts(row [6]int) (cx, cy, cz int) {
	if n := row[lattice.DirXNeg]; n != lattice.None && r.Phase[n] == Crystal {
		cx++
	}
	if n := row[lattice.DirXPos]; n != lattice.None && r.Phase[n] == Crystal {
		cx++
	}
	if n := row[lattice.DirYNeg]; n != lattice.None && r.Phase[n] == Crystal {
		cy++
	}
	if n := row[lattice.DirYPos]; n != lattice.None && r.Phase[n] == Crystal {
		cy++
	}
	if n := row[lattice.DirZNeg]; n != lattice.None && r.Phase[n] == Crystal {
		cz++
	}
	if n := row[lattice.DirZPos]; n != lattice.None && r.Phase[n] == Crystal {
		cz++
	}
	return
}

// surfaceEnergyChange computes ΔE_surf for an attachment (attach=true) or
// detachment (attach=false) at a site with crystal-neighbor axis counts
// (cx,cy,cz), per spec.md §4.3: a count of 0 exposes the axis-pair face
// (+E2 on attach, -E2 on detach); a count of 2 buries it (mirrored sign);
// a count of 1 contributes nothing.
func surfaceEnergyChange(cx, cy, cz int, e AxisEnergies, attach bool) float64 {
	sign := 1.0
	if !attach {
		sign = -1.0
	}
	d := 0.0
	switch cx {
	case 0:
		d += sign * e.Ex2
	case 2:
		d -= sign * e.Ex2
	}
	switch cy {
	case 0:
		d += sign * e.Ey2
	case 2:
		d -= sign * e.Ey2
	}
	switch cz {
	case 0:
		d += sign * e.Ez2
	case 2:
		d -= sign * e.Ez2
	}
	return d
}

// metropolisAccept implements the common acceptance test: unconditional
// below zero, otherwise a Boltzmann comparison against U(0,1).
func metropolisAccept(deltaEeff, kT float64, rng *rand.Rand) bool {
	if deltaEeff < 0 {
		return true
	}
	return math.Exp(-deltaEeff/kT) > rng.Float64()
}

// patchOnAttach mutates phase/frontier for an accepted attachment at
// idxg with axis counts (cx,cy,cz), and reports whether a non-periodic
// domain boundary was touched while patching neighbors.
func (r *Replica) patchOnAttach(lat *lattice.Lattice, idxg int, cx, cy, cz int) (hitBoundary bool) {
	r.Phase[idxg] = Crystal
	r.Front.Remove(frontier.GasAdj, idxg)
	if cx+cy+cz < 6 {
		r.Front.Add(frontier.CrystalAdj, idxg)
	}

	for _, n := range lat.Neighbors(idxg) {
		if n == lattice.None {
			hitBoundary = true
			continue
		}
		switch r.Phase[n] {
		case Gas:
			r.Front.Add(frontier.GasAdj, n)
		case Crystal:
			if !r.hasGasNeighbor(lat, n) {
				r.Front.Remove(frontier.CrystalAdj, n)
			}
		}
	}
	return
}

// patchOnDetach is the mirror of patchOnAttach with Gas/Crystal roles
// swapped.
func (r *Replica) patchOnDetach(lat *lattice.Lattice, idxg int, cx, cy, cz int) (hitBoundary bool) {
	r.Phase[idxg] = Gas
	r.Front.Remove(frontier.CrystalAdj, idxg)
	if cx+cy+cz > 0 {
		r.Front.Add(frontier.GasAdj, idxg)
	}

	for _, n := range lat.Neighbors(idxg) {
		if n == lattice.None {
			hitBoundary = true
			continue
		}
		switch r.Phase[n] {
		case Gas:
			if !r.hasCrystalNeighbor(lat, n) {
				r.Front.Remove(frontier.GasAdj, n)
			}
		case Crystal:
			r.Front.Add(frontier.CrystalAdj, n)
		}
	}
	return
}

func (r *Replica) hasGasNeighbor(lat *lattice.Lattice, idxg int) bool {
	for _, n := range lat.Neighbors(idxg) {
		if n != lattice.None && r.Phase[n] == Gas {
			return true
		}
	}
	return false
}

func (r *Replica) hasCrystalNeighbor(lat *lattice.Lattice, idxg int) bool {
	for _, n := range lat.Neighbors(idxg) {
		if n != lattice.None && r.Phase[n] == Crystal {
			return true
		}
	}
	return false
}

// isFrontierExhausted reports whether either side of the frontier has
// emptied (stall condition of spec.md §4.3).
func (r *Replica) isFrontierExhausted() bool {
	return r.Front.Size(frontier.GasAdj) == 0 || r.Front.Size(frontier.CrystalAdj) == 0
}

// Step runs one discrete KMC step on the replica: up to an attachment,
// a detachment, and (modes .2/.3) a ballistic detachment, in that fixed
// order, gated by flags. In reservoir-coupled modes (2.x) a Metropolis-
// accepted attach/detach/ballistic sub-event is additionally conditional
// on CheckConc against the replica's own local reservoir bookkeeping; a
// sub-event that fails this check is treated as rejected (B4) and never
// reaches patchOnAttach/patchOnDetach. It returns the net local
// crystal-count delta of the sub-events this call accepted (+1 per
// attachment, -1 per detachment or ballistic event, so -2..+1) and any
// error from sink; whether the replica is still alive afterward is
// reported by IsAlive. sink may be nil; it is
// consulted only when flags.Write and the replica is still alive at that
// point.
func (r *Replica) Step(rng *rand.Rand, lat *lattice.Lattice, mode Mode, e AxisEnergies, step uint64, flags StepFlags, sink SnapshotSink) (delta float64, err error) {
	if !r.IsAlive() {
		return 0, nil
	}

	if flags.Add && r.Front.Size(frontier.GasAdj) > 0 {
		idxg := r.Front.Sample(frontier.GasAdj, rng)
		row := lat.Neighbors(idxg)
		cx, cy, cz := r.neighborAxisCounts(row)
		surf := surfaceEnergyChange(cx, cy, cz, e, true)
		deltaEeff := surf - r.Log.Dg.Val

		if metropolisAccept(deltaEeff, r.Log.KT, rng) && (!mode.Reservoir() || r.Log.CheckConc(1)) {
			r.Log.AddDeltaE(surf)
			if mode.Reservoir() {
				r.Log.UpdateN(1)
				r.Log.UpdateConc()
			}
			delta += 1

			hitBoundary := r.patchOnAttach(lat, idxg, cx, cy, cz)
			if hitBoundary {
				r.Termination = DeadBoundary
				r.Log.MkStep.Val = step
				return delta, nil
			}
			if r.isFrontierExhausted() {
				r.Termination = DeadFrontier
				r.Log.MkStep.Val = step
				return delta, nil
			}
		}
	}

	if flags.Rem && r.Front.Size(frontier.CrystalAdj) > 0 {
		idxg := r.Front.Sample(frontier.CrystalAdj, rng)
		row := lat.Neighbors(idxg)
		cx, cy, cz := r.neighborAxisCounts(row)
		surf := surfaceEnergyChange(cx, cy, cz, e, false)
		deltaEeff := surf + r.Log.Dg.Val

		if metropolisAccept(deltaEeff, r.Log.KT, rng) && (!mode.Reservoir() || r.Log.CheckConc(-1)) {
			r.Log.AddDeltaE(surf)
			if mode.Reservoir() {
				r.Log.UpdateN(-1)
				r.Log.UpdateConc()
			}
			delta -= 1

			hitBoundary := r.patchOnDetach(lat, idxg, cx, cy, cz)
			if hitBoundary {
				r.Termination = DeadBoundary
				r.Log.MkStep.Val = step
				return delta, nil
			}
			if r.isFrontierExhausted() {
				r.Termination = DeadFrontier
				r.Log.MkStep.Val = step
				return delta, nil
			}
		}
	}

	if present, energyBiased := mode.Ballistic(); present && r.Front.Size(frontier.CrystalAdj) > 0 {
		idxg := r.Front.Sample(frontier.CrystalAdj, rng)
		row := lat.Neighbors(idxg)
		cx, cy, cz := r.neighborAxisCounts(row)
		surf := surfaceEnergyChange(cx, cy, cz, e, false)

		accept := false
		if energyBiased {
			base := 1 - surf/e.EIsol
			if base < 0 {
				base = 0
			}
			p := r.Log.PB * math.Pow(base, r.Log.PPow)
			accept = p > rng.Float64()
		} else {
			accept = r.Log.PB > rng.Float64()
		}

		if accept && mode.Reservoir() && !r.Log.CheckConc(-1) {
			accept = false
		}

		if accept {
			r.Log.AddDeltaE(surf)
			if mode.Reservoir() {
				r.Log.UpdateN(-1)
				r.Log.UpdateConc()
			}
			delta -= 1

			hitBoundary := r.patchOnDetach(lat, idxg, cx, cy, cz)
			if hitBoundary {
				r.Termination = DeadBoundary
				r.Log.MkStep.Val = step
				return delta, nil
			}
			if r.isFrontierExhausted() {
				r.Termination = DeadFrontier
				r.Log.MkStep.Val = step
				return delta, nil
			}
		}
	}

	r.Log.MkStep.Val = step

	if flags.Write {
		if err := r.WriteAction(lat, sink); err != nil {
			return delta, err
		}
	}

	return delta, nil
}

// WriteAction appends the current phase vector to sink (if non-nil), then
// re-derives the crystal bounding-span scalars and pushes a history point.
func (r *Replica) WriteAction(lat *lattice.Lattice, sink SnapshotSink) error {
	if sink != nil {
		if err := sink.Append(r.Phase); err != nil {
			return err
		}
	}
	r.Log.MeasureCrystalSizes(r.Front.Members(frontier.CrystalAdj), lat.IdxToXYZ, lat.Nx, lat.Ny, lat.Nz)
	r.Log.AddLogPoint()
	return nil
}
