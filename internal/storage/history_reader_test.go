package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kmclab/latticekmc/internal/plot"
)

func TestLoadHistoryParsesRecordedRowsOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "SimLog.txt")
	body := "1.0e+00:2.0e+00\n3.0e+00:4.0e+00\n\n\n\n1:1\n1:1\n1:1\n0:1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	series, err := LoadHistory(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := series[plot.NGas]; len(got) != 2 || got[0] != 1.0 || got[1] != 2.0 {
		t.Fatalf("unexpected n_gas series: %v", got)
	}
	if got := series[plot.NCrystal]; len(got) != 2 || got[1] != 4.0 {
		t.Fatalf("unexpected n_crystal series: %v", got)
	}
	if _, ok := series[plot.Conc]; ok {
		t.Fatal("expected the blank conc row to be absent")
	}
	if got := series[plot.MkStep]; len(got) != 2 {
		t.Fatalf("unexpected mk_step series: %v", got)
	}
}
