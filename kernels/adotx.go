package kernels

import "github.com/structgrid/mgkernel/grid"

// ADotX computes y = alpha*a*x - beta*lap(x) over bx using the 7-point
// finite-difference discretization:
//
//	y(c) = alpha*a(c)*x(c) - sum_axis dh_axis*(x(c-e) - 2x(c) + x(c+e))
//
// with dh_axis = beta*dxinv[axis]^2. x must cover bx grown by one cell
// in every direction; y and a must cover bx. Undersized views are a
// precondition violation, not a checked error.
func ADotX[T Real](sw Sweeper, bx grid.Box, y *grid.Array[T], x, a *grid.Array[T],
	dxinv [grid.NumAxes]T, alpha, beta T) {

	dhx, dhy, dhz := Diagonals(dxinv, beta)

	sw.sweep(bx.Lo[grid.Z], bx.Hi[grid.Z], func(k int) {
		for j := bx.Lo[grid.Y]; j <= bx.Hi[grid.Y]; j++ {
			for i := bx.Lo[grid.X]; i <= bx.Hi[grid.X]; i++ {
				xc := x.At(i, j, k)
				y.Set(i, j, k, alpha*a.At(i, j, k)*xc-
					dhx*(x.At(i-1, j, k)-2*xc+x.At(i+1, j, k))-
					dhy*(x.At(i, j-1, k)-2*xc+x.At(i, j+1, k))-
					dhz*(x.At(i, j, k-1)-2*xc+x.At(i, j, k+1)))
			}
		}
	})
}
