package kernels

import "github.com/structgrid/mgkernel/grid"

// Flux reconstructs face-centered fluxes along ax over the
// face-indexed box bx:
//
//	f(c) = -fac*(sol(c) - sol(c - e_ax))
//
// sol must cover every cell of bx and its low-side neighbor along ax.
// One axis-parameterized sweep serves all three directions.
func Flux[T Real](sw Sweeper, bx grid.Box, ax grid.Axis, f, sol *grid.Array[T], fac T) {
	e := grid.Unit(ax)

	sw.sweep(bx.Lo[grid.Z], bx.Hi[grid.Z], func(k int) {
		for j := bx.Lo[grid.Y]; j <= bx.Hi[grid.Y]; j++ {
			for i := bx.Lo[grid.X]; i <= bx.Hi[grid.X]; i++ {
				f.Set(i, j, k, -fac*(sol.At(i, j, k)-sol.At(i-e[0], j-e[1], k-e[2])))
			}
		}
	})
}

// FluxFace is the boundary-only variant: it computes fluxes on exactly
// two slices, the low face of bx along ax and the parallel slice offset
// by length cells, skipping the interior. Used when only edge fluxes
// are needed for conservative coupling between mesh blocks.
func FluxFace[T Real](sw Sweeper, bx grid.Box, ax grid.Axis, f, sol *grid.Array[T], fac T, length int) {
	slab := bx.FaceSlab(grid.LowFace(ax))
	Flux(sw, slab, ax, f, sol, fac)
	Flux(sw, slab.Shift(ax, length), ax, f, sol, fac)
}
