// Package lattice implements the 3D cubic-lattice index/coordinate model
// and its precomputed 6-neighbor table, with optional per-axis periodic
// boundary wrapping.
package lattice

import "fmt"

// None is the sentinel neighbor index for a non-periodic out-of-domain
// neighbor. Kept as a plain int (rather than an optional/variant type) so
// the neighbor table stays a flat [N][6]int array on the hot path.
const None = -1

// Axis identifies one of the three lattice axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

// Neighbor direction indices into a site's row of the neighbor table.
// Fixed order: -x, +x, -y, +y, -z, +z. The replica kernel depends on it.
const (
	DirXNeg = iota
	DirXPos
	DirYNeg
	DirYPos
	DirZNeg
	DirZPos
)

// Lattice is the immutable 3D topology shared by every replica in an
// ensemble: dimensions, periodicity, and the precomputed neighbor table.
type Lattice struct {
	Nx, Ny, Nz    int
	Size          int
	Px, Py, Pz    bool
	sizeZY        int // nz*ny, stride for the x axis
	neibs         [][6]int
}

// New builds a Lattice of the given dimensions and precomputes its
// neighbor table. Panics if any dimension is not positive; callers at the
// config boundary are expected to have already validated Sx/Sy/Sz > 0.
func New(nx, ny, nz int, px, py, pz bool) *Lattice {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		panic(fmt.Sprintf("lattice: dimensions must be positive, got (%d,%d,%d)", nx, ny, nz))
	}
	l := &Lattice{
		Nx: nx, Ny: ny, Nz: nz,
		Size:   nx * ny * nz,
		Px:     px, Py: py, Pz: pz,
		sizeZY: nz * ny,
	}
	l.neibs = make([][6]int, l.Size)
	l.precomputeNeighbors()
	return l
}

// XYZToIdx converts lattice coordinates to a global linear index. Not on
// the hot path; kernels work with indices directly.
func (l *Lattice) XYZToIdx(x, y, z int) int {
	return z + y*l.Nz + x*l.sizeZY
}

// IdxToXYZ converts a global linear index back to lattice coordinates.
func (l *Lattice) IdxToXYZ(idx int) (x, y, z int) {
	z = idx % l.Nz
	y = (idx / l.Nz) % l.Ny
	x = idx / l.sizeZY
	return
}

// Neighbors returns a read-only borrow of idxg's neighbor row, in the
// fixed [-x, +x, -y, +y, -z, +z] order. Entries equal to None denote a
// non-periodic out-of-domain neighbor.
func (l *Lattice) Neighbors(idxg int) [6]int {
	return l.neibs[idxg]
}

func wrap(coord, dim int, periodic bool) int {
	if coord >= 0 && coord < dim {
		return coord
	}
	if !periodic {
		return None
	}
	r := coord % dim
	if r < 0 {
		r += dim
	}
	return r
}

func (l *Lattice) precomputeNeighbors() {
	for idx := 0; idx < l.Size; idx++ {
		x, y, z := l.IdxToXYZ(idx)

		offsets := [6][3]int{
			{x - 1, y, z}, {x + 1, y, z},
			{x, y - 1, z}, {x, y + 1, z},
			{x, y, z - 1}, {x, y, z + 1},
		}

		var row [6]int
		for i, o := range offsets {
			xp := wrap(o[0], l.Nx, l.Px)
			yp := wrap(o[1], l.Ny, l.Py)
			zp := wrap(o[2], l.Nz, l.Pz)
			if xp == None || yp == None || zp == None {
				row[i] = None
			} else {
				row[i] = zp + yp*l.Nz + xp*l.sizeZY
			}
		}
		l.neibs[idx] = row
	}
}
