package storage

import (
	"testing"

	"github.com/kmclab/latticekmc/internal/kmc"
)

func TestLoadStatesZeroOptionReturnsEmpty(t *testing.T) {
	states, err := LoadStates("0:1:0\n1:1:1\n", 0, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 0 {
		t.Fatalf("expected no states, got %d", len(states))
	}
}

func TestLoadStatesPositiveOptionLoadsExactCount(t *testing.T) {
	body := "0:1:0\n1:1:1\n0:0:0\n"
	states, err := LoadStates(body, 2, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 2 {
		t.Fatalf("expected 2 states, got %d", len(states))
	}
	want := []kmc.Phase{kmc.Gas, kmc.Crystal, kmc.Gas}
	for i, p := range want {
		if states[0][i] != p {
			t.Fatalf("state 0 mismatch at %d: got %v want %v", i, states[0][i], p)
		}
	}
}

func TestLoadStatesPositiveOptionErrorsWhenTooFew(t *testing.T) {
	body := "0:1:0\n"
	if _, err := LoadStates(body, 3, 3); err == nil {
		t.Fatal("expected an error when fewer lines are available than requested")
	}
}

func TestLoadStatesNegativeOptionLoadsEverything(t *testing.T) {
	body := "0:1:0\n1:1:1\n0:0:0\n"
	states, err := LoadStates(body, -1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 3 {
		t.Fatalf("expected 3 states, got %d", len(states))
	}
}

func TestLoadStatesSkipsBlankAndMalformedLines(t *testing.T) {
	body := "\n   \nno colons here\n0:1:0\n"
	states, err := LoadStates(body, -1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 valid state, got %d", len(states))
	}
}

func TestLoadStatesWrongValueCountIsFatal(t *testing.T) {
	body := "0:1\n"
	if _, err := LoadStates(body, -1, 3); err == nil {
		t.Fatal("expected an error for a line with the wrong value count")
	}
}

func TestLoadStatesRejectsOutOfRangePhaseValue(t *testing.T) {
	body := "0:2:0\n"
	if _, err := LoadStates(body, -1, 3); err == nil {
		t.Fatal("expected an error for an out-of-range phase value")
	}
}
