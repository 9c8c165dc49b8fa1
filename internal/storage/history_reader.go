package storage

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/kmclab/latticekmc/internal/plot"
)

// historyRowOrder mirrors the fixed row order kmc.SimLog.WriteHistory
// emits: n_gas, n_crystal, conc, Δg, total_ΔE, crystal_sx/sy/sz, mk_step.
var historyRowOrder = []plot.Series{
	plot.NGas, plot.NCrystal, plot.Conc, plot.Dg, plot.TotalDE,
	plot.CrystalSx, plot.CrystalSy, plot.CrystalSz, plot.MkStep,
}

// LoadHistory reads a SimLog.txt or EnsembleLog.txt file and parses each
// of its (up to) nine rows into a float64 series keyed by plot.Series. A
// row that is blank (never recorded) is simply absent from the result.
func LoadHistory(path string) (map[plot.Series][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: reading %q: %w", path, err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	out := make(map[plot.Series][]float64, len(historyRowOrder))

	for i, line := range lines {
		if i >= len(historyRowOrder) {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ":")
		values := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("storage: parsing %q row %d: %w", path, i, err)
			}
			values = append(values, v)
		}
		out[historyRowOrder[i]] = values
	}

	return out, nil
}
