// Package storage lays out a run's directory on disk: the timestamped run
// directory itself, a copy of the config that produced it, each replica's
// TimeStates.txt snapshot stream and SimLog.txt history file, and the
// ensemble's own aggregate EnsembleLog.txt. Naming and layout follow
// spec.md §6.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kmclab/latticekmc/internal/runcfg"
)

const (
	configFileName  = "InitSettings.ini"
	ensembleLogName = "EnsembleLog.txt"
)

// Store owns one base directory under which every run gets its own
// timestamped subdirectory.
type Store struct {
	baseDir string
}

// New returns a Store rooted at baseDir. baseDir is created lazily by
// PrepareRun, not by New.
func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// RunDirName derives a run's directory name from its settings and replica
// count, following the original model's create_dir_name: a timestamp, the
// configured prefix, replica count, lattice extents and temperature, and a
// mode-dependent driving-force/ballistic-parameter suffix.
//
// timestampMicros is passed in rather than read from the clock so run
// naming stays deterministic and testable; callers use a real microsecond
// Unix timestamp in production.
func RunDirName(s runcfg.Settings, nReplicas int, timestampMicros int64) string {
	base := fmt.Sprintf("%d_%s_N%d_X%dY%dZ%d_T%s",
		timestampMicros, s.DirPrefix, nReplicas, s.Sx, s.Sy, s.Sz, formatExp(s.Temperature))

	if isReservoirMode(s.Mode) {
		base = fmt.Sprintf("%s_C%s_Nt%s", base, formatExp(s.C0), formatExp(s.NTot))
	} else {
		base = fmt.Sprintf("%s_dg%s", base, formatExp(s.Dg))
	}

	switch s.Mode {
	case "1.2", "2.2":
		base = fmt.Sprintf("%s_Pb%v", base, s.PB)
	case "1.3", "2.3":
		base = fmt.Sprintf("%s_Pb%v_Pp%v", base, s.PB, s.PPow)
	}

	return base
}

func isReservoirMode(mode string) bool {
	switch mode {
	case "2.1", "2.2", "2.3":
		return true
	default:
		return false
	}
}

func formatExp(v float64) string {
	return strconv.FormatFloat(v, 'e', -1, 64)
}

// PrepareRun creates the run directory (and the base directory, if
// necessary) and copies the config body that produced it alongside the
// run's future output files.
func (s *Store) PrepareRun(dirName string, configBody string) (*RunDir, error) {
	runPath := filepath.Join(s.baseDir, dirName)
	if err := os.MkdirAll(runPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: creating run directory %q: %w", runPath, err)
	}

	if configBody != "" {
		dst := filepath.Join(runPath, configFileName)
		if err := os.WriteFile(dst, []byte(configBody), 0o644); err != nil {
			return nil, fmt.Errorf("storage: copying config into %q: %w", runPath, err)
		}
	}

	return &RunDir{path: runPath}, nil
}

// RunDir is a prepared run directory: the place every replica subdirectory
// and the ensemble's own aggregate history file live under.
type RunDir struct {
	path string
}

// Path returns the run directory's filesystem path.
func (r *RunDir) Path() string { return r.path }

// ReplicaDir returns (creating if necessary) the subdirectory a single
// replica, identified by its ensemble-local ID, writes its snapshot stream
// and history file into. IDs are zero-padded to a fixed width so replica
// directories sort lexically in ensemble-member order.
func (r *RunDir) ReplicaDir(id int, width int) (string, error) {
	name := fmt.Sprintf("%0*d", width, id)
	dir := filepath.Join(r.path, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("storage: creating replica directory %q: %w", dir, err)
	}
	return dir, nil
}

// EnsembleHistoryPath returns the path of the ensemble-level aggregate
// history file under this run directory.
func (r *RunDir) EnsembleHistoryPath() string {
	return filepath.Join(r.path, ensembleLogName)
}

// ListRuns returns every run directory name currently present under
// baseDir, in directory-listing order.
func (s *Store) ListRuns() ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
