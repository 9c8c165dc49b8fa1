package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kmclab/latticekmc/internal/kmc"
)

// LoadStates parses an InitStates.ini body into ensemble initial phase
// vectors, following the original load_states semantics:
//
//   - loadOption == 0: no initial states; the ensemble starts empty.
//   - loadOption > 0: load exactly that many valid (non-blank, colon-
//     bearing) lines; fewer than that many is an error.
//   - loadOption < 0: load every valid line in the body.
//
// Every loaded line must split into exactly expectedLen colon-separated
// "0"/"1" values; a line with the wrong count is a fatal error rather than
// being skipped.
func LoadStates(body string, loadOption int64, expectedLen int) ([][]kmc.Phase, error) {
	if loadOption == 0 {
		return nil, nil
	}

	var states [][]kmc.Phase
	limited := loadOption > 0

	for lineNo, raw := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" || !strings.Contains(trimmed, ":") {
			continue
		}
		if limited && int64(len(states)) >= loadOption {
			break
		}

		parts := strings.Split(trimmed, ":")
		if len(parts) != expectedLen {
			return nil, fmt.Errorf("storage: line %d has %d values, want %d", lineNo+1, len(parts), expectedLen)
		}

		st := make([]kmc.Phase, expectedLen)
		for i, p := range parts {
			v, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("storage: line %d: invalid phase value %q: %w", lineNo+1, p, err)
			}
			if v != 0 && v != 1 {
				return nil, fmt.Errorf("storage: line %d: phase value %d out of range", lineNo+1, v)
			}
			st[i] = kmc.Phase(v)
		}
		states = append(states, st)
	}

	if limited && int64(len(states)) < loadOption {
		return nil, fmt.Errorf("storage: expected %d state lines, found only %d", loadOption, len(states))
	}

	return states, nil
}
