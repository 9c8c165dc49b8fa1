// Package runcfg implements the simulator's external, line-oriented
// key:value configuration format (spec.md §6): parsing, validation, and
// the small arithmetic/boolean expression grammar numeric and boolean
// values may be written in.
package runcfg

import (
	"fmt"
)

// CommentLine is the sentinel line that terminates config parsing; any
// content after it (including further key:value pairs) is ignored.
const CommentLine = "/////////////////////////////// | GENERAL INFO | ///////////////////////////////"

// Settings holds every recognized configuration key.
type Settings struct {
	DirPrefix string
	Seed      uint64

	Sx, Sy, Sz int
	Px, Py, Pz bool

	Temperature    float64
	Ax, Ay, Az     float64
	G100, G010, G001 float64

	Mode string

	Dg, CEq, C0, NTot, N0Cr, PB, PPow float64

	AddI, AddFrom, RemI, RemFrom uint64

	// LoadOption selects how many initial-state lines to load: 0 for an
	// empty ensemble, a positive count for exactly that many lines, a
	// negative value for every non-empty line in the initial-state file.
	LoadOption int64

	StepLim, PrintI, WriteI uint64
}

// Default returns the "default-anisotropic" preset: the anisotropic surface
// energies and lattice spacings of the original reference model at room
// temperature (300 K), in fixed-driving-force mode 1.1 with dg 0. Its
// LoadOption of 0 loads no initial states.
func Default() Settings {
	return Settings{
		DirPrefix: "Default",
		Seed:      1012,

		Sx: 11, Sy: 11, Sz: 11,
		Px: false, Py: false, Pz: false,

		Temperature: 300.0,
		Ax:          5.85e-10, Ay: 1.78e-10, Az: 4.41e-10,
		G100: 0.41, G010: 0.54, G001: 0.22,

		Mode: "1.1",
		Dg:   0.0, CEq: 9.58767e-08, C0: 9.58767e-08,
		NTot: 5e12, N0Cr: -1.0,
		PB: 0.3, PPow: 1.0,

		AddI: 1, AddFrom: 1, RemI: 1, RemFrom: 1,

		LoadOption: 0,

		StepLim: 100, PrintI: 10, WriteI: 1,
	}
}

// Validate checks the invariants the core relies on at construction time.
func (s Settings) Validate() error {
	if s.Sx <= 0 {
		return &ConfigError{Key: "Sx", Err: fmt.Errorf("must be > 0")}
	}
	if s.Sy <= 0 {
		return &ConfigError{Key: "Sy", Err: fmt.Errorf("must be > 0")}
	}
	if s.Sz <= 0 {
		return &ConfigError{Key: "Sz", Err: fmt.Errorf("must be > 0")}
	}
	if s.Temperature <= 0 {
		return &ConfigError{Key: "T", Err: fmt.Errorf("must be > 0")}
	}
	if s.AddFrom < 1 {
		return &ConfigError{Key: "AddFrom", Err: fmt.Errorf("must be >= 1")}
	}
	if s.RemFrom < 1 {
		return &ConfigError{Key: "RemFrom", Err: fmt.Errorf("must be >= 1")}
	}
	if _, err := parseMode(s.Mode); err != nil {
		return &ConfigError{Key: "mode", Value: s.Mode, Err: err}
	}
	if len(trimSpace(s.DirPrefix)) == 0 {
		return &ConfigError{Key: "DirPrefix", Err: fmt.Errorf("cannot be empty")}
	}
	return nil
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func parseMode(m string) (string, error) {
	switch m {
	case "1.1", "1.2", "1.3", "2.1", "2.2", "2.3":
		return m, nil
	default:
		return "", fmt.Errorf("unrecognized mode %q", m)
	}
}

// ConfigError reports a single malformed or invalid configuration value,
// identified by its key.
type ConfigError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("config: failed to parse %q with value %q: %v", e.Key, e.Value, e.Err)
	}
	return fmt.Sprintf("config: invalid value for %q: %v", e.Key, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
