package runcfg

import (
	"strings"
	"testing"
)

const sampleConfig = `
dir_prefix: Needles
seed: 42
sx: 21
sy: 21
sz: 21
px: true
py: false
pz: false
temperature: 310.5
ax: 5.85e-10
ay: 1.78e-10
az: 4.41e-10
g100: 0.41
g010: 0.54
g001: 0.22
mode: 2.1
dg: 0.0
c_eq: 9.58767e-08
c0: 1.2e-07
n_tot: 5e12
n0_cr: -1.0
p_b: 0.3
p_pow: 1.0
add_i: 1
add_from: 1
rem_i: 1
rem_from: 1
load_prev: -1
step_lim: 5000
print_i: 100
write_i: 10
some_future_field: 123

/////////////////////////////// | GENERAL INFO | ///////////////////////////////
dir_prefix: ShouldNeverBeSeen
`

func TestParseAppliesEveryRecognizedKey(t *testing.T) {
	s, warnings, err := Parse(sampleConfig, Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Settings{
		DirPrefix: "Needles", Seed: 42,
		Sx: 21, Sy: 21, Sz: 21,
		Px: true, Py: false, Pz: false,
		Temperature: 310.5,
		Ax: 5.85e-10, Ay: 1.78e-10, Az: 4.41e-10,
		G100: 0.41, G010: 0.54, G001: 0.22,
		Mode: "2.1",
		Dg:   0.0, CEq: 9.58767e-08, C0: 1.2e-07,
		NTot: 5e12, N0Cr: -1.0,
		PB: 0.3, PPow: 1.0,
		AddI: 1, AddFrom: 1, RemI: 1, RemFrom: 1,
		LoadOption: -1,
		StepLim:    5000, PrintI: 100, WriteI: 10,
	}
	if s != want {
		t.Fatalf("parsed settings mismatch:\n got  %+v\n want %+v", s, want)
	}

	if !hasWarningContaining(warnings, "some_future_field") {
		t.Fatalf("expected a warning about the unrecognized key, got %v", warnings)
	}
}

func TestParseStopsAtCommentLine(t *testing.T) {
	s, _, err := Parse(sampleConfig, Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DirPrefix == "ShouldNeverBeSeen" {
		t.Fatal("parsing should have stopped at the sentinel comment line")
	}
}

func TestParseSkipsMalformedLinesWithWarning(t *testing.T) {
	body := "this line has no colon\nseed: 7\n"
	s, warnings, err := Parse(body, Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Seed != 7 {
		t.Fatalf("expected seed to still be applied, got %v", s.Seed)
	}
	if !hasWarningContaining(warnings, "malformed") {
		t.Fatalf("expected a malformed-line warning, got %v", warnings)
	}
}

func TestParseFailsOnBadNumericValue(t *testing.T) {
	_, _, err := Parse("sx: not-a-number\n", Default())
	if err == nil {
		t.Fatal("expected a parse error for a malformed numeric value")
	}
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
