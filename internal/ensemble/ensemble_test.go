package ensemble

import (
	"errors"
	"sync"
	"testing"

	"github.com/kmclab/latticekmc/internal/kmc"
	"github.com/kmclab/latticekmc/internal/lattice"
)

type memSink struct {
	mu       sync.Mutex
	appended int
}

func (s *memSink) Append(phase []kmc.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended++
	return nil
}

type memHistory struct {
	mu            sync.Mutex
	replicaFlush  map[int]int
	ensembleFlush int
}

func newMemHistory() *memHistory {
	return &memHistory{replicaFlush: map[int]int{}}
}

func (h *memHistory) WriteReplicaHistory(replicaID int, log *kmc.SimLog) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.replicaFlush[replicaID]++
	return nil
}

func (h *memHistory) WriteEnsembleHistory(log *kmc.SimLog) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ensembleFlush++
	return nil
}

func seedStates(lat *lattice.Lattice, n int) [][]kmc.Phase {
	states := make([][]kmc.Phase, n)
	origin := lat.XYZToIdx(0, 0, 0)
	for i := range states {
		st := make([]kmc.Phase, lat.Size)
		st[origin] = kmc.Crystal
		states[i] = st
	}
	return states
}

func baseConfig(mode kmc.Mode, stepLim uint64) Config {
	return Config{
		Seed:    1,
		KT:      1.0,
		Mode:    mode,
		Dg:      1e9, // deterministically favor attachment whenever attempted
		ConcEq:  0.1,
		Conc0:   0.2,
		NTotal:  1000,
		N0Cr:    -1,
		PB:      0,
		PPow:    1,
		G100:    1, G010: 1, G001: 1,
		Ax: 1, Ay: 1, Az: 1,
		AddI: 0, AddFrom: 1, RemI: 0, RemFrom: 1,
		StepLim: stepLim, PrintI: 0, WriteI: 1,
	}
}

func TestNewSeedsReplicasAndBroadcastsDg(t *testing.T) {
	lat := lattice.New(3, 3, 3, true, true, true)
	states := seedStates(lat, 3)
	cfg := baseConfig(kmc.M21, 1)

	sinks := map[int]*memSink{}
	factory := func(id int) (kmc.SnapshotSink, error) {
		s := &memSink{}
		sinks[id] = s
		return s, nil
	}
	hist := newMemHistory()

	e, err := New(cfg, lat, states, factory, hist, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(e.replicas) != 3 {
		t.Fatalf("expected 3 replicas, got %d", len(e.replicas))
	}
	for _, r := range e.replicas {
		if r.Log.Dg.Val != e.Log.Dg.Val {
			t.Fatalf("replica %d dg not broadcast from ensemble", r.ID)
		}
		if r.Log.NGas.Record || r.Log.Conc.Record {
			t.Fatalf("replica %d should not record n_gas/conc locally", r.ID)
		}
	}
	for id, s := range sinks {
		if s.appended != 1 {
			t.Fatalf("expected one initial snapshot for replica %d, got %d", id, s.appended)
		}
	}
}

func TestNewRejectsMismatchedStateLength(t *testing.T) {
	lat := lattice.New(2, 2, 2, true, true, true)
	states := [][]kmc.Phase{make([]kmc.Phase, lat.Size+1)}
	cfg := baseConfig(kmc.M11, 1)

	_, err := New(cfg, lat, states, func(int) (kmc.SnapshotSink, error) { return &memSink{}, nil }, nil, nil)
	if err == nil {
		t.Fatal("expected an error for a mismatched initial state length")
	}
}

func TestRunFinalizesAliveReplicasAsDeadLimit(t *testing.T) {
	lat := lattice.New(3, 3, 3, true, true, true)
	states := seedStates(lat, 2)
	cfg := baseConfig(kmc.M11, 3)

	hist := newMemHistory()
	e, err := New(cfg, lat, states, func(int) (kmc.SnapshotSink, error) { return &memSink{}, nil }, hist, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if hist.ensembleFlush != 1 {
		t.Fatalf("expected exactly one ensemble history flush, got %d", hist.ensembleFlush)
	}
	if len(hist.replicaFlush) != 2 {
		t.Fatalf("expected both replicas finalized, got %d", len(hist.replicaFlush))
	}
	if e.AliveReplicas() != 0 {
		t.Fatalf("expected no replicas left alive after Run, got %d", e.AliveReplicas())
	}
}

func TestRunStopsEarlyWhenAllReplicasDie(t *testing.T) {
	// A non-periodic 3x3x3 lattice with add scheduled every step and a
	// corner seed: the very first accepted attach touches the boundary,
	// killing the lone replica well before step_lim.
	lat := lattice.New(3, 3, 3, false, false, false)
	states := seedStates(lat, 1)
	cfg := baseConfig(kmc.M11, 1000)
	cfg.AddI = 1

	hist := newMemHistory()
	e, err := New(cfg, lat, states, func(int) (kmc.SnapshotSink, error) { return &memSink{}, nil }, hist, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := e.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	if hist.replicaFlush[0] != 1 {
		t.Fatalf("expected the single replica finalized exactly once, got %d", hist.replicaFlush[0])
	}
	if hist.ensembleFlush != 1 {
		t.Fatalf("expected exactly one ensemble history flush, got %d", hist.ensembleFlush)
	}
}

func TestRunEnsembleNCrystalEqualsSumOfReplicaNCrystal(t *testing.T) {
	// Scenario 6 of spec.md §8: with K identical replicas, the ensemble's
	// aggregate n_crystal must equal the sum of each replica's local
	// n_crystal at every observable point. Large periodic lattice and a
	// short run keep every replica alive through StepLim so the sum can
	// be checked against the replicas' final local state.
	lat := lattice.New(6, 6, 6, true, true, true)
	states := seedStates(lat, 4)
	cfg := baseConfig(kmc.M21, 5)
	cfg.AddI = 1

	e, err := New(cfg, lat, states, func(int) (kmc.SnapshotSink, error) { return &memSink{}, nil }, newMemHistory(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	replicas := append([]*kmc.Replica(nil), e.replicas...)

	if err := e.Run(); err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	sum := 0.0
	for _, r := range replicas {
		if r.Termination != kmc.DeadLimit {
			t.Fatalf("expected replica %d to survive to DeadLimit for this check, got %v", r.ID, r.Termination)
		}
		sum += r.Log.NCrystal.Val
	}
	if sum != e.Log.NCrystal.Val {
		t.Fatalf("ensemble n_crystal %v != sum of replica n_crystal %v", e.Log.NCrystal.Val, sum)
	}
}

type erroringSink struct{}

func (erroringSink) Append([]kmc.Phase) error { return errors.New("disk full") }

func TestNewPropagatesInitialSnapshotSinkErrors(t *testing.T) {
	lat := lattice.New(3, 3, 3, true, true, true)
	states := seedStates(lat, 1)
	cfg := baseConfig(kmc.M11, 5)
	cfg.WriteI = 1

	_, err := New(cfg, lat, states, func(int) (kmc.SnapshotSink, error) { return erroringSink{}, nil }, nil, nil)
	if err == nil {
		t.Fatal("expected the initial-snapshot sink error to propagate from New")
	}
}
