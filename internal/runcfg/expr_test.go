package runcfg

import "testing"

func TestEvalNumberArithmetic(t *testing.T) {
	cases := map[string]float64{
		"1":             1,
		"1+2":           3,
		"2*3+4":         10,
		"2*(3+4)":       14,
		"-5":            -5,
		"10/4":          2.5,
		"9.58767e-08":   9.58767e-08,
		" 1 + 2 * 3 ":   7,
		"-(2+3)":        -5,
	}
	for expr, want := range cases {
		got, err := evalNumber(expr)
		if err != nil {
			t.Fatalf("evalNumber(%q): unexpected error %v", expr, err)
		}
		if got != want {
			t.Fatalf("evalNumber(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestEvalNumberDivisionByZero(t *testing.T) {
	if _, err := evalNumber("1/0"); err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}

func TestEvalNumberRejectsTrailingGarbage(t *testing.T) {
	if _, err := evalNumber("1 + 2 foo"); err == nil {
		t.Fatal("expected an error for trailing garbage")
	}
}

func TestEvalBoolLiterals(t *testing.T) {
	cases := map[string]bool{
		"true":             true,
		"false":            false,
		"!true":            false,
		"true && false":    false,
		"true || false":    true,
		"!(true && false)": true,
	}
	for expr, want := range cases {
		got, err := evalBool(expr)
		if err != nil {
			t.Fatalf("evalBool(%q): unexpected error %v", expr, err)
		}
		if got != want {
			t.Fatalf("evalBool(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestEvalBoolComparisons(t *testing.T) {
	cases := map[string]bool{
		"1 < 2":          true,
		"2 <= 2":         true,
		"3 > 4":          false,
		"3 >= 3":         true,
		"1 == 1":         true,
		"1 != 2":         true,
		"1 < 2 && 3 > 2": true,
		"1 < 2 || 3 < 2": true,
	}
	for expr, want := range cases {
		got, err := evalBool(expr)
		if err != nil {
			t.Fatalf("evalBool(%q): unexpected error %v", expr, err)
		}
		if got != want {
			t.Fatalf("evalBool(%q) = %v, want %v", expr, got, want)
		}
	}
}
