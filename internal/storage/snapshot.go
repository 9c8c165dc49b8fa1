package storage

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/kmclab/latticekmc/internal/kmc"
)

// SnapshotFile implements kmc.SnapshotSink over a single replica's
// TimeStates.txt: one colon-separated "0"/"1" phase line per call to
// Append, buffered and flushed on Close. An empty lattice state (size 0)
// writes a bare newline, matching the original write_state behavior for
// an empty slice.
type SnapshotFile struct {
	f *os.File
	w *bufio.Writer
}

// OpenSnapshotFile creates (or truncates) TimeStates.txt under dir.
func OpenSnapshotFile(dir string) (*SnapshotFile, error) {
	path := dir + string(os.PathSeparator) + "TimeStates.txt"
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("storage: creating %q: %w", path, err)
	}
	return &SnapshotFile{f: f, w: bufio.NewWriter(f)}, nil
}

// Append writes one phase snapshot as a colon-separated line of "0"s and
// "1"s, with no trailing separator.
func (s *SnapshotFile) Append(phase []kmc.Phase) error {
	for i, p := range phase {
		if i > 0 {
			if _, err := s.w.WriteString(":"); err != nil {
				return err
			}
		}
		if _, err := s.w.WriteString(strconv.Itoa(int(p))); err != nil {
			return err
		}
	}
	_, err := s.w.WriteString("\n")
	return err
}

// Close flushes any buffered snapshot lines and closes the underlying file.
func (s *SnapshotFile) Close() error {
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}
