package kernels

import "github.com/structgrid/mgkernel/grid"

// Normalize rescales x in place by the operator's local diagonal:
//
//	x(c) /= alpha*a(c) + 2*(dhx+dhy+dhz)
//
// the Jacobi preconditioning scale. The divisor must be strictly
// positive for every cell (diagonal dominance); a non-positive divisor
// is a precondition violation and yields unstable output.
func Normalize[T Real](sw Sweeper, bx grid.Box, x, a *grid.Array[T],
	dxinv [grid.NumAxes]T, alpha, beta T) {

	dhx, dhy, dhz := Diagonals(dxinv, beta)
	fac := 2 * (dhx + dhy + dhz)

	sw.sweep(bx.Lo[grid.Z], bx.Hi[grid.Z], func(k int) {
		for j := bx.Lo[grid.Y]; j <= bx.Hi[grid.Y]; j++ {
			for i := bx.Lo[grid.X]; i <= bx.Hi[grid.X]; i++ {
				x.Set(i, j, k, x.At(i, j, k)/(alpha*a.At(i, j, k)+fac))
			}
		}
	})
}
