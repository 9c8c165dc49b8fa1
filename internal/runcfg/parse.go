package runcfg

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse reads a line-oriented key:value configuration body (spec.md §6) and
// applies recognized keys onto a copy of base. Parsing stops at the first
// CommentLine sentinel; everything after it, including further key:value
// pairs, is ignored. Blank lines are skipped. A line that doesn't split on
// ':' is skipped with a warning; an unrecognized key is skipped with a
// warning rather than failing the whole parse, matching the permissive
// load_config behavior this format is grounded on.
func Parse(body string, base Settings) (Settings, []string, error) {
	s := base
	var warnings []string

	lines := strings.Split(body, "\n")
	for _, raw := range lines {
		line := trimSpace(raw)
		if line == "" {
			continue
		}
		if line == CommentLine {
			break
		}

		key, value, ok := splitKeyValue(line)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("skipping malformed line %q", raw))
			continue
		}

		if err := assign(&s, key, value); err != nil {
			if _, unknown := err.(unknownKeyError); unknown {
				warnings = append(warnings, err.Error())
				continue
			}
			return base, warnings, err
		}
	}

	return s, warnings, nil
}

func splitKeyValue(line string) (key, value string, ok bool) {
	i := strings.IndexByte(line, ':')
	if i < 0 {
		return "", "", false
	}
	return trimSpace(line[:i]), trimSpace(line[i+1:]), true
}

type unknownKeyError string

func (e unknownKeyError) Error() string { return fmt.Sprintf("skipping unrecognized key %q", string(e)) }

func assign(s *Settings, key, value string) error {
	switch key {
	case "dir_prefix":
		s.DirPrefix = value
	case "seed":
		v, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			f, ferr := evalNumber(value)
			if ferr != nil || f < 0 {
				return &ConfigError{Key: key, Value: value, Err: err}
			}
			v = uint64(f)
		}
		s.Seed = v

	case "sx":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		s.Sx = v
	case "sy":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		s.Sy = v
	case "sz":
		v, err := parseInt(key, value)
		if err != nil {
			return err
		}
		s.Sz = v

	case "px":
		v, err := parseBool(key, value)
		if err != nil {
			return err
		}
		s.Px = v
	case "py":
		v, err := parseBool(key, value)
		if err != nil {
			return err
		}
		s.Py = v
	case "pz":
		v, err := parseBool(key, value)
		if err != nil {
			return err
		}
		s.Pz = v

	case "temperature":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.Temperature = v
	case "ax":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.Ax = v
	case "ay":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.Ay = v
	case "az":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.Az = v
	case "g100":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.G100 = v
	case "g010":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.G010 = v
	case "g001":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.G001 = v

	case "mode":
		s.Mode = value

	case "dg":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.Dg = v
	case "c_eq":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.CEq = v
	case "c0":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.C0 = v
	case "n_tot":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.NTot = v
	case "n0_cr":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.N0Cr = v
	case "p_b":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.PB = v
	case "p_pow":
		v, err := parseFloat(key, value)
		if err != nil {
			return err
		}
		s.PPow = v

	case "add_i":
		v, err := parseUint(key, value)
		if err != nil {
			return err
		}
		s.AddI = v
	case "add_from":
		v, err := parseUint(key, value)
		if err != nil {
			return err
		}
		s.AddFrom = v
	case "rem_i":
		v, err := parseUint(key, value)
		if err != nil {
			return err
		}
		s.RemI = v
	case "rem_from":
		v, err := parseUint(key, value)
		if err != nil {
			return err
		}
		s.RemFrom = v

	case "load_prev":
		v, err := evalNumber(value)
		if err != nil {
			return &ConfigError{Key: key, Value: value, Err: err}
		}
		s.LoadOption = int64(v)

	case "step_lim":
		v, err := parseUint(key, value)
		if err != nil {
			return err
		}
		s.StepLim = v
	case "print_i":
		v, err := parseUint(key, value)
		if err != nil {
			return err
		}
		s.PrintI = v
	case "write_i":
		v, err := parseUint(key, value)
		if err != nil {
			return err
		}
		s.WriteI = v

	default:
		return unknownKeyError(key)
	}
	return nil
}

func parseInt(key, value string) (int, error) {
	v, err := evalNumber(value)
	if err != nil {
		return 0, &ConfigError{Key: key, Value: value, Err: err}
	}
	return int(v), nil
}

func parseUint(key, value string) (uint64, error) {
	v, err := evalNumber(value)
	if err != nil {
		return 0, &ConfigError{Key: key, Value: value, Err: err}
	}
	if v < 0 {
		return 0, &ConfigError{Key: key, Value: value, Err: fmt.Errorf("must be >= 0")}
	}
	return uint64(v), nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := evalNumber(value)
	if err != nil {
		return 0, &ConfigError{Key: key, Value: value, Err: err}
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := evalBool(value)
	if err != nil {
		return false, &ConfigError{Key: key, Value: value, Err: err}
	}
	return v, nil
}
