package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kmclab/latticekmc/internal/kmc"
)

func TestSnapshotFileAppendsColonSeparatedLines(t *testing.T) {
	dir := t.TempDir()
	sf, err := OpenSnapshotFile(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := sf.Append([]kmc.Phase{kmc.Gas, kmc.Crystal, kmc.Gas}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sf.Append([]kmc.Phase{kmc.Crystal, kmc.Crystal, kmc.Gas}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "TimeStates.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "0:1:0\n1:1:0\n"
	if string(data) != want {
		t.Fatalf("got %q, want %q", data, want)
	}
}

func TestSnapshotFileEmptyStateWritesBareNewline(t *testing.T) {
	dir := t.TempDir()
	sf, err := OpenSnapshotFile(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sf.Append(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sf.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "TimeStates.txt"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "\n" {
		t.Fatalf("got %q, want a bare newline", data)
	}
}
