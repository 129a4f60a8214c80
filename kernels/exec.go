// Package kernels implements the per-cell arithmetic of the
// variable-coefficient modified-Helmholtz operator (alpha*a - beta*lap)
// on block-structured 3D grids: operator apply, diagonal normalize,
// face-flux reconstruction, and a red-black SOR smoother.
//
// Each kernel is a data-parallel map over an explicit index box. The
// math is written once per kernel as straight-line code over field
// views; the Sweeper argument picks the iteration strategy without
// touching the math, and the device package runs the same formulas on
// an OCCA accelerator.
package kernels

import (
	"github.com/exascience/pargo/parallel"

	"github.com/structgrid/mgkernel/grid"
)

// Real is the configurable floating-point type used uniformly for field
// values, coefficients, and the relaxation factor.
type Real interface {
	~float32 | ~float64
}

// Sweeper selects how a kernel iterates its box.
type Sweeper int

const (
	// Seq runs the sweep as plain nested loops on the calling goroutine.
	Seq Sweeper = iota
	// Par splits the outer k range across goroutines. Safe for every
	// kernel here: within one call no output cell's write location
	// overlaps another cell's read or write set (for GSRB this holds
	// per color, which is why each call relaxes a single color).
	Par
)

// sweep runs body(k) for every k in lo..hi inclusive under the policy.
// The join of the parallel form doubles as the memory barrier callers
// need between dependent sweeps (e.g. the two GSRB colors).
func (s Sweeper) sweep(lo, hi int, body func(k int)) {
	if hi < lo {
		return
	}
	if s == Par {
		parallel.Range(lo, hi+1, 0, func(low, high int) {
			for k := low; k < high; k++ {
				body(k)
			}
		})
		return
	}
	for k := lo; k <= hi; k++ {
		body(k)
	}
}

// Diagonals converts grid-spacing reciprocals into the per-axis
// diagonal coefficients dh = beta/h^2 used by ADotX and GSRB.
func Diagonals[T Real](dxinv [grid.NumAxes]T, beta T) (dhx, dhy, dhz T) {
	return beta * dxinv[0] * dxinv[0],
		beta * dxinv[1] * dxinv[1],
		beta * dxinv[2] * dxinv[2]
}
