// Package ensemble coordinates many lattice replicas that share one RNG,
// one lattice topology, and (in reservoir-coupled modes) one gas
// concentration, driving them through the global step loop described in
// spec.md §4.5.
package ensemble

import (
	"fmt"
	"io"

	"pgregory.net/rand"

	"github.com/kmclab/latticekmc/internal/kmc"
	"github.com/kmclab/latticekmc/internal/lattice"
)

// Config holds the scalar run parameters the ensemble needs once its
// lattice, initial states, and IO collaborators have already been
// resolved by the configuration layer.
type Config struct {
	Seed uint64
	KT   float64
	Mode kmc.Mode

	Dg, ConcEq, Conc0, NTotal, N0Cr, PB, PPow float64
	G100, G010, G001, Ax, Ay, Az              float64

	AddI, AddFrom, RemI, RemFrom uint64
	StepLim, PrintI, WriteI      uint64
}

// SnapshotSinkFactory builds the per-replica snapshot collaborator for a
// newly constructed replica, identified by its ensemble-local ID.
type SnapshotSinkFactory func(replicaID int) (kmc.SnapshotSink, error)

// HistoryWriter is the IO shim that flushes a finished SimLog's recorded
// history rows. Replica histories and the ensemble's own aggregate history
// are written through the same interface.
type HistoryWriter interface {
	WriteReplicaHistory(replicaID int, log *kmc.SimLog) error
	WriteEnsembleHistory(log *kmc.SimLog) error
}

// Progress is one print-step observation, reported through ProgressSink.
type Progress struct {
	Step, StepLim uint64
	AliveReplicas int
}

// ProgressSink receives a Progress observation on every print step. Nil is
// a valid "no progress reporting" collaborator.
type ProgressSink interface {
	Report(Progress)
}

// Ensemble owns the lattice, the shared RNG, the list of currently-alive
// replicas, and the aggregate reservoir SimLog.
type Ensemble struct {
	cfg      Config
	lat      *lattice.Lattice
	rng      *rand.Rand
	energies kmc.AxisEnergies

	replicas []*kmc.Replica
	sinks    map[int]kmc.SnapshotSink

	Log      *kmc.SimLog
	history  HistoryWriter
	progress ProgressSink
}

// New constructs an ensemble from already-loaded initial states (one
// length-N phase vector per replica, in load order) and performs the
// two-stage initialization of spec.md §4.5: build each replica's frontier
// and local SimLog, then seed and broadcast the ensemble-level SimLog.
//
// states may be empty (LoadOption 0: an empty ensemble that finalizes
// immediately on Run).
func New(cfg Config, lat *lattice.Lattice, states [][]kmc.Phase, sinkFactory SnapshotSinkFactory, history HistoryWriter, progress ProgressSink) (*Ensemble, error) {
	e := &Ensemble{
		cfg:      cfg,
		lat:      lat,
		rng:      rand.New(rand.NewSource(cfg.Seed)),
		energies: kmc.NewAxisEnergies(cfg.G100, cfg.G010, cfg.G001, cfg.Ax, cfg.Ay, cfg.Az),
		sinks:    make(map[int]kmc.SnapshotSink, len(states)),
		Log:      kmc.NewSimLog(),
		history:  history,
		progress: progress,
	}
	// The ensemble-level log is an aggregate reservoir bookkeeping device;
	// per-axis bounding spans and cumulative surface energy are
	// per-replica concepts that don't aggregate meaningfully.
	e.Log.TotalDE.Record = false
	e.Log.CrystalSx.Record = false
	e.Log.CrystalSy.Record = false
	e.Log.CrystalSz.Record = false

	nTotalLocal := 0.0
	if len(states) > 0 {
		nTotalLocal = cfg.NTotal / float64(len(states))
	}

	n0CrEnsemble := 0.0
	e.replicas = make([]*kmc.Replica, 0, len(states))
	for id, st := range states {
		if len(st) != lat.Size {
			return nil, fmt.Errorf("ensemble: initial state %d has %d sites, want %d", id, len(st), lat.Size)
		}
		r := kmc.NewReplica(id, lat.Size)
		copy(r.Phase, st)

		nCrystalCalc := r.RebuildFrontier(lat)
		nCryst0 := nCrystalCalc
		if cfg.N0Cr >= 0 {
			nCryst0 = cfg.N0Cr
		}
		n0CrEnsemble += nCryst0

		r.Log.Initialize(cfg.KT, cfg.Mode, cfg.Dg, cfg.ConcEq, cfg.Conc0, nTotalLocal, nCryst0, cfg.PB, cfg.PPow)

		sink, err := sinkFactory(id)
		if err != nil {
			return nil, fmt.Errorf("ensemble: building snapshot sink for replica %d: %w", id, err)
		}
		e.sinks[id] = sink
		e.replicas = append(e.replicas, r)
	}

	e.Log.Initialize(cfg.KT, cfg.Mode, cfg.Dg, cfg.ConcEq, cfg.Conc0, cfg.NTotal, n0CrEnsemble, cfg.PB, cfg.PPow)

	for _, r := range e.replicas {
		// The ensemble's own SimLog is the authoritative recorded series
		// for the shared reservoir; a replica's local mirror exists only
		// to drive its own acceptance test, not to be logged twice.
		r.Log.NGas.Record = false
		r.Log.Conc.Record = false
		r.Log.Dg.Val = e.Log.Dg.Val

		if err := r.WriteAction(lat, e.sinks[r.ID]); err != nil {
			return nil, fmt.Errorf("ensemble: initial snapshot for replica %d: %w", r.ID, err)
		}
	}
	e.Log.AddLogPoint()

	return e, nil
}

// Run drives the global step loop until every replica has died or the
// step limit is reached, then finalizes whatever remains alive.
func (e *Ensemble) Run() error {
	for step := uint64(1); step <= e.cfg.StepLim; step++ {
		isAdd, isRem := kmc.ScheduleFlags(step, e.cfg.AddI, e.cfg.AddFrom, e.cfg.RemI, e.cfg.RemFrom)
		isWrite := e.cfg.WriteI > 0 && step%e.cfg.WriteI == 0
		isPrint := e.cfg.PrintI > 0 && step%e.cfg.PrintI == 0

		flags := kmc.StepFlags{Add: isAdd, Rem: isRem, Write: isWrite}

		deltaAggregate := 0.0
		alive := e.replicas[:0]
		for _, r := range e.replicas {
			d, err := r.Step(e.rng, e.lat, e.cfg.Mode, e.energies, step, flags, e.sinks[r.ID])
			if err != nil {
				return fmt.Errorf("ensemble: replica %d step %d: %w", r.ID, step, err)
			}
			if r.IsAlive() {
				deltaAggregate += d
				alive = append(alive, r)
				continue
			}
			if err := e.finalize(r); err != nil {
				return err
			}
		}
		e.replicas = alive

		e.Log.UpdateN(deltaAggregate)
		e.Log.UpdateConcAndDg()

		if len(e.replicas) == 0 {
			e.Log.MkStep.Val = step
			e.Log.AddLogPoint()
			return e.flushEnsembleHistory()
		}

		if e.cfg.Mode.Reservoir() {
			for _, r := range e.replicas {
				r.Log.Dg.Val = e.Log.Dg.Val
			}
		}

		if isWrite {
			e.Log.MkStep.Val = step
			e.Log.AddLogPoint()
		}
		if isPrint && e.progress != nil {
			e.progress.Report(Progress{Step: step, StepLim: e.cfg.StepLim, AliveReplicas: len(e.replicas)})
		}
	}

	for _, r := range e.replicas {
		if e.cfg.Mode.Reservoir() {
			r.Log.Dg.Val = e.Log.Dg.Val
		}
		r.Termination = kmc.DeadLimit
		if err := e.finalize(r); err != nil {
			return err
		}
	}
	e.replicas = nil

	return e.flushEnsembleHistory()
}

func (e *Ensemble) finalize(r *kmc.Replica) error {
	if err := r.WriteAction(e.lat, e.sinks[r.ID]); err != nil {
		return fmt.Errorf("ensemble: finalizing replica %d: %w", r.ID, err)
	}
	if c, ok := e.sinks[r.ID].(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("ensemble: closing snapshot sink for replica %d: %w", r.ID, err)
		}
	}
	if e.history == nil {
		return nil
	}
	if err := e.history.WriteReplicaHistory(r.ID, r.Log); err != nil {
		return fmt.Errorf("ensemble: flushing history for replica %d: %w", r.ID, err)
	}
	return nil
}

func (e *Ensemble) flushEnsembleHistory() error {
	if e.history == nil {
		return nil
	}
	return e.history.WriteEnsembleHistory(e.Log)
}

// AliveReplicas returns the number of replicas still stepping.
func (e *Ensemble) AliveReplicas() int {
	return len(e.replicas)
}
