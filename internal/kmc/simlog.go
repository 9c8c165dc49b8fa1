package kmc

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
)

// LogEntry is one scalar series: a current value, an append-only history
// of pushed values gated by a record flag, and the formatter used when
// the history is flushed to the history file (§6: scientific notation for
// f64 series, decimal for integer series).
type LogEntry[T any] struct {
	Val    T
	Log    []T
	Record bool
	format func(T) string
}

// NewLogEntry constructs a LogEntry with the given initial value, record
// flag, and per-value formatter.
func NewLogEntry[T any](val T, record bool, format func(T) string) LogEntry[T] {
	return LogEntry[T]{Val: val, Record: record, format: format}
}

// PushIfEnabled appends the current value to the history, silently
// skipping the push when Record is false.
func (e *LogEntry[T]) PushIfEnabled() {
	if e.Record {
		e.Log = append(e.Log, e.Val)
	}
}

func formatF64(v float64) string { return strconv.FormatFloat(v, 'e', 15, 64) }
func formatInt(v int) string     { return strconv.Itoa(v) }
func formatU64(v uint64) string  { return strconv.FormatUint(v, 10) }

// SimLog owns the scalar bookkeeping of one replica (or, at the ensemble
// level, the aggregate reservoir). See spec.md §3 and §4.4.
type SimLog struct {
	KT    float64
	PB    float64
	PPow  float64
	ConcEq float64

	NTotal float64

	Conc         LogEntry[float64]
	ConcNegCount uint64

	NCrystal   LogEntry[float64]
	NGas       LogEntry[float64]
	Dg         LogEntry[float64]
	TotalDE    LogEntry[float64]
	CrystalSx  LogEntry[int]
	CrystalSy  LogEntry[int]
	CrystalSz  LogEntry[int]
	MkStep     LogEntry[uint64]
}

// NewSimLog constructs a SimLog with the original model's default record
// flags: n_crystal, total_ΔE, crystal bounding spans, and mk_step are
// recorded by default (callers may turn them off); conc, n_gas, and Δg are
// recorded only once reservoir coupling (mode 2.x) turns them on in
// Initialize.
func NewSimLog() *SimLog {
	return &SimLog{
		Conc:      NewLogEntry(0.0, false, formatF64),
		NCrystal:  NewLogEntry(0.0, true, formatF64),
		NGas:      NewLogEntry(0.0, false, formatF64),
		Dg:        NewLogEntry(0.0, false, formatF64),
		TotalDE:   NewLogEntry(0.0, true, formatF64),
		CrystalSx: NewLogEntry(0, true, formatInt),
		CrystalSy: NewLogEntry(0, true, formatInt),
		CrystalSz: NewLogEntry(0, true, formatInt),
		MkStep:    NewLogEntry[uint64](0, true, formatU64),
	}
}

// Initialize seeds every field for the start of a run. When
// mode.Reservoir() is true (modes 2.x), n_gas is derived from conc0 and
// n_total-n_crystal0, Δg is derived from conc0/concEq (dg0 is ignored),
// and recording of conc, n_gas, and Δg is turned on.
func (s *SimLog) Initialize(kT float64, mode Mode, dg0, concEq, conc0, nTotal, nCrystal0, pB, pPow float64) {
	s.KT = kT
	s.PB = pB
	s.PPow = pPow
	s.ConcEq = concEq
	s.Conc.Val = conc0
	s.NTotal = nTotal
	s.NCrystal.Val = nCrystal0
	s.Dg.Val = dg0

	if mode.Reservoir() {
		nGas0 := conc0 * (nTotal - nCrystal0)
		dg0 := kT * logRatio(conc0, concEq)

		s.NGas.Val = nGas0
		s.Dg.Val = dg0

		s.Conc.Record = true
		s.NGas.Record = true
		s.Dg.Record = true
	}
}

// UpdateN applies a crystal-count delta, mirroring the corresponding gas
// count so n_gas+n_crystal is conserved (P5, up to this call).
func (s *SimLog) UpdateN(dCrystal float64) {
	s.NCrystal.Val += dCrystal
	s.NGas.Val -= dCrystal
}

// UpdateConc recomputes conc = n_gas / (n_total - n_crystal) from the
// already-committed n_gas/n_crystal. Callers in reservoir-coupled modes
// are expected to have already gated the commit through CheckConc, so
// this should never observe a negative result in practice; it still
// counts one if it does, as a last-resort guard.
func (s *SimLog) UpdateConc() {
	s.Conc.Val = s.NGas.Val / (s.NTotal - s.NCrystal.Val)
	if s.Conc.Val < 0 {
		s.ConcNegCount++
	}
}

// CheckConc reports whether tentatively applying a crystal-count delta of
// dCrystal (NCrystal += dCrystal, NGas -= dCrystal) would keep
// conc = n_gas / (n_total - n_crystal) non-negative, without mutating
// NCrystal or NGas. On a would-be-negative result it increments
// ConcNegCount and reports false. This is the reservoir-coupling
// rejection gate of spec.md §4.3: attach/detach/ballistic acceptance in
// mode 2.x is additionally conditional on this check, and a false result
// is treated as a rejection of that sub-event (B4).
func (s *SimLog) CheckConc(dCrystal float64) bool {
	nCrystal := s.NCrystal.Val + dCrystal
	nGas := s.NGas.Val - dCrystal
	if nGas/(s.NTotal-nCrystal) < 0 {
		s.ConcNegCount++
		return false
	}
	return true
}

// UpdateDg recomputes the driving force from the current concentration.
func (s *SimLog) UpdateDg() {
	s.Dg.Val = s.KT * logRatio(s.Conc.Val, s.ConcEq)
}

// UpdateConcAndDg is the common "commit" sequence after a successful
// reservoir update.
func (s *SimLog) UpdateConcAndDg() {
	s.UpdateConc()
	s.UpdateDg()
}

// AddDeltaE accumulates a surface-energy change into the cumulative total.
func (s *SimLog) AddDeltaE(d float64) {
	s.TotalDE.Val += d
}

// MeasureCrystalSizes recomputes the bounding-span scalars (§4.4: zero iff
// CrystalAdj is empty, otherwise the per-axis count of distinct coordinate
// values taken by CrystalAdj members) by re-deriving from the lattice and
// frontier, never incrementally.
func (s *SimLog) MeasureCrystalSizes(members []int, idxToXYZ func(int) (int, int, int), nx, ny, nz int) {
	if len(members) == 0 {
		s.CrystalSx.Val = 0
		s.CrystalSy.Val = 0
		s.CrystalSz.Val = 0
		return
	}

	seenX := make([]bool, nx)
	seenY := make([]bool, ny)
	seenZ := make([]bool, nz)
	for _, idxg := range members {
		x, y, z := idxToXYZ(idxg)
		seenX[x] = true
		seenY[y] = true
		seenZ[z] = true
	}
	s.CrystalSx.Val = countTrue(seenX)
	s.CrystalSy.Val = countTrue(seenY)
	s.CrystalSz.Val = countTrue(seenZ)
}

func countTrue(bs []bool) int {
	n := 0
	for _, b := range bs {
		if b {
			n++
		}
	}
	return n
}

// AddLogPoint pushes every enabled scalar's current value onto its
// history, in the fixed order the history file rows will be written.
func (s *SimLog) AddLogPoint() {
	s.NGas.PushIfEnabled()
	s.NCrystal.PushIfEnabled()
	s.Conc.PushIfEnabled()
	s.Dg.PushIfEnabled()
	s.TotalDE.PushIfEnabled()
	s.CrystalSx.PushIfEnabled()
	s.CrystalSy.PushIfEnabled()
	s.CrystalSz.PushIfEnabled()
	s.MkStep.PushIfEnabled()
}

// WriteHistory writes the nine history rows to w, in the fixed order
// spec.md §6 specifies: n_gas, n_crystal, conc, Δg, total_ΔE,
// crystal_sx, crystal_sy, crystal_sz, mk_step.
func (s *SimLog) WriteHistory(w *bufio.Writer) error {
	if err := writeRow(w, s.NGas.Log, s.NGas.format); err != nil {
		return err
	}
	if err := writeRow(w, s.NCrystal.Log, s.NCrystal.format); err != nil {
		return err
	}
	if err := writeRow(w, s.Conc.Log, s.Conc.format); err != nil {
		return err
	}
	if err := writeRow(w, s.Dg.Log, s.Dg.format); err != nil {
		return err
	}
	if err := writeRow(w, s.TotalDE.Log, s.TotalDE.format); err != nil {
		return err
	}
	if err := writeRow(w, s.CrystalSx.Log, s.CrystalSx.format); err != nil {
		return err
	}
	if err := writeRow(w, s.CrystalSy.Log, s.CrystalSy.format); err != nil {
		return err
	}
	if err := writeRow(w, s.CrystalSz.Log, s.CrystalSz.format); err != nil {
		return err
	}
	if err := writeRow(w, s.MkStep.Log, s.MkStep.format); err != nil {
		return err
	}
	return w.Flush()
}

func writeRow[T any](w *bufio.Writer, values []T, format func(T) string) error {
	for i, v := range values {
		if i > 0 {
			if _, err := w.WriteString(":"); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(format(v)); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\n")
	return err
}

func logRatio(a, b float64) float64 {
	if b == 0 {
		panic(fmt.Sprintf("kmc: log ratio with zero equilibrium concentration (conc=%g)", a))
	}
	return math.Log(a / b)
}
