// Package plot renders a recorded history series as an ASCII line graph
// using asciigraph, the same library and plotting idiom the teacher's CLI
// uses for its own time-series output.
package plot

import (
	"fmt"

	"github.com/guptarohit/asciigraph"
)

// Series names the nine fixed history rows spec.md §6 writes, in the
// order SimLog.WriteHistory emits them.
type Series int

const (
	NGas Series = iota
	NCrystal
	Conc
	Dg
	TotalDE
	CrystalSx
	CrystalSy
	CrystalSz
	MkStep
)

func (s Series) caption() string {
	switch s {
	case NGas:
		return "n_gas"
	case NCrystal:
		return "n_crystal"
	case Conc:
		return "concentration"
	case Dg:
		return "driving force (Δg)"
	case TotalDE:
		return "cumulative surface ΔE"
	case CrystalSx:
		return "crystal span x"
	case CrystalSy:
		return "crystal span y"
	case CrystalSz:
		return "crystal span z"
	case MkStep:
		return "step"
	default:
		return "series"
	}
}

// Render draws one history series as a bounded-height, bounded-width
// ASCII graph with the series' caption.
func Render(s Series, values []float64, height, width int) string {
	if len(values) == 0 {
		return fmt.Sprintf("%s: no recorded points", s.caption())
	}
	return asciigraph.Plot(values,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(s.caption()),
	)
}

// RenderAll draws every requested series back to back, in the order
// given.
func RenderAll(series map[Series][]float64, order []Series, height, width int) string {
	out := ""
	for _, s := range order {
		out += Render(s, series[s], height, width) + "\n\n"
	}
	return out
}
