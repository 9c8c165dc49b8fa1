package runcfg

import "testing"

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default preset should validate, got %v", err)
	}
}

func TestValidateRejectsZeroExtent(t *testing.T) {
	s := Default()
	s.Sx = 0
	if err := s.Validate(); err == nil {
		t.Fatal("expected an error for Sx == 0")
	}
}

func TestValidateRejectsNonPositiveTemperature(t *testing.T) {
	s := Default()
	s.Temperature = 0
	if err := s.Validate(); err == nil {
		t.Fatal("expected an error for non-positive temperature")
	}
}

func TestValidateRejectsUnrecognizedMode(t *testing.T) {
	s := Default()
	s.Mode = "3.1"
	err := s.Validate()
	if err == nil {
		t.Fatal("expected an error for an unrecognized mode")
	}
	var ce *ConfigError
	if !asConfigError(err, &ce) {
		t.Fatalf("expected a *ConfigError, got %T", err)
	}
	if ce.Key != "mode" {
		t.Fatalf("expected the error to name key \"mode\", got %q", ce.Key)
	}
}

func TestValidateRejectsEmptyDirPrefix(t *testing.T) {
	s := Default()
	s.DirPrefix = "   "
	if err := s.Validate(); err == nil {
		t.Fatal("expected an error for a blank dir_prefix")
	}
}

func asConfigError(err error, out **ConfigError) bool {
	ce, ok := err.(*ConfigError)
	if !ok {
		return false
	}
	*out = ce
	return true
}
