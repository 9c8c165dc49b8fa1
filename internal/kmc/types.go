// Package kmc implements the per-replica kinetic Monte Carlo step kernel:
// one discrete attach/detach/ballistic step on one lattice replica, plus
// the scalar bookkeeping (SimLog) a replica carries.
package kmc

import "fmt"

// Phase is the state of one lattice site.
type Phase uint8

const (
	Gas Phase = iota
	Crystal
)

// Mode selects the kernel's attach/detach/ballistic predicates and
// whether reservoir coupling is active. Collapses the six near-duplicate
// kernels of the original implementation into one kernel parameterized by
// a small tagged variant, per spec.md §9.
type Mode uint8

const (
	M11 Mode = iota // fixed driving force
	M12             // fixed driving force + uniform ballistic dissolution
	M13             // fixed driving force + energy-biased ballistic dissolution
	M21             // reservoir-coupled
	M22             // reservoir-coupled + uniform ballistic dissolution
	M23             // reservoir-coupled + energy-biased ballistic dissolution
)

// String renders a Mode using the spec's dotted notation (e.g. "2.3").
func (m Mode) String() string {
	switch m {
	case M11:
		return "1.1"
	case M12:
		return "1.2"
	case M13:
		return "1.3"
	case M21:
		return "2.1"
	case M22:
		return "2.2"
	case M23:
		return "2.3"
	default:
		return "unknown"
	}
}

// ParseMode parses the spec's mode identifiers ("1.1" .. "2.3").
func ParseMode(s string) (Mode, error) {
	switch s {
	case "1.1":
		return M11, nil
	case "1.2":
		return M12, nil
	case "1.3":
		return M13, nil
	case "2.1":
		return M21, nil
	case "2.2":
		return M22, nil
	case "2.3":
		return M23, nil
	default:
		return 0, fmt.Errorf("kmc: unknown mode %q", s)
	}
}

// Reservoir reports whether m couples to the shared gas reservoir
// (modes 2.x); mode-1 replicas hold a constant driving force instead.
func (m Mode) Reservoir() bool {
	return m == M21 || m == M22 || m == M23
}

// Ballistic reports whether m proposes a ballistic (athermal) detachment
// sub-event (modes .2 and .3), and whether that probability is
// energy-biased (mode .3) or uniform (mode .2).
func (m Mode) Ballistic() (present bool, energyBiased bool) {
	switch m {
	case M12, M22:
		return true, false
	case M13, M23:
		return true, true
	default:
		return false, false
	}
}

// StepFlags gates which sub-events a given global step attempts.
type StepFlags struct {
	Add   bool
	Rem   bool
	Write bool
}

// ScheduleFlags derives (isAdd, isRem) from the spec's interval/from
// scheduling rule: active if interval > 0, step >= from, and
// step mod interval == 0.
func ScheduleFlags(step, addI, addFrom, remI, remFrom uint64) (isAdd, isRem bool) {
	isAdd = addI > 0 && step >= addFrom && step%addI == 0
	isRem = remI > 0 && step >= remFrom && step%remI == 0
	return
}

// Termination is the terminal reason a replica stopped stepping.
type Termination uint8

const (
	Alive Termination = iota
	DeadBoundary
	DeadFrontier
	DeadLimit
)

func (t Termination) String() string {
	switch t {
	case Alive:
		return "alive"
	case DeadBoundary:
		return "boundary"
	case DeadFrontier:
		return "frontier-exhausted"
	case DeadLimit:
		return "step-limit"
	default:
		return "unknown"
	}
}

// AxisEnergies holds the three per-axis energy quanta and the derived
// isolated-cell energy, computed once per ensemble from the physical
// constants: Ex2 = 2*g100*ay*az, Ey2 = 2*g010*ax*az, Ez2 = 2*g001*ax*ay.
type AxisEnergies struct {
	Ex2, Ey2, Ez2 float64
	EIsol         float64
}

// NewAxisEnergies computes the axis energy quanta from anisotropic
// surface energies g100/g010/g001 and lattice spacings ax/ay/az.
func NewAxisEnergies(g100, g010, g001, ax, ay, az float64) AxisEnergies {
	ex2 := 2 * g100 * ay * az
	ey2 := 2 * g010 * ax * az
	ez2 := 2 * g001 * ax * ay
	return AxisEnergies{
		Ex2: ex2, Ey2: ey2, Ez2: ez2,
		EIsol: ex2 + ey2 + ez2,
	}
}
