package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kmclab/latticekmc/internal/kmc"
)

// FileHistory implements ensemble.HistoryWriter by writing each replica's
// history to its own SimLog.txt under its zero-padded subdirectory, and
// the ensemble's aggregate history to EnsembleLog.txt at the run
// directory's root.
type FileHistory struct {
	run   *RunDir
	width int
}

// NewFileHistory returns a FileHistory writing under run, zero-padding
// replica directory names to width digits.
func NewFileHistory(run *RunDir, width int) *FileHistory {
	return &FileHistory{run: run, width: width}
}

// WriteReplicaHistory writes one replica's nine history rows to its
// SimLog.txt.
func (h *FileHistory) WriteReplicaHistory(replicaID int, log *kmc.SimLog) error {
	dir, err := h.run.ReplicaDir(replicaID, h.width)
	if err != nil {
		return err
	}
	return writeSimLog(filepath.Join(dir, "SimLog.txt"), log)
}

// WriteEnsembleHistory writes the ensemble-level aggregate history to
// EnsembleLog.txt.
func (h *FileHistory) WriteEnsembleHistory(log *kmc.SimLog) error {
	return writeSimLog(h.run.EnsembleHistoryPath(), log)
}

func writeSimLog(path string, log *kmc.SimLog) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("storage: creating %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	return log.WriteHistory(w)
}
