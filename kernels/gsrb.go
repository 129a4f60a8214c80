package kernels

import "github.com/structgrid/mgkernel/grid"

// omega is the fixed SOR over-relaxation factor.
const omega = 1.15

// BndryFaces bundles the per-face boundary arrays the smoother reads:
// for each of the six faces, an integer mask (positive means the face
// abuts an external boundary condition and needs a flux correction)
// and the real flux-correction coefficient to fold into the diagonal
// when the mask fires. Populated by the boundary-condition setup; the
// smoother treats the mask purely as a binary gate.
type BndryFaces[T Real] struct {
	Flux [grid.NumFaces]*grid.Array[T]
	Mask [grid.NumFaces]*grid.Array[int32]
}

// GSRB performs one color of a red-black Gauss-Seidel/SOR relaxation of
// (alpha*a - beta*lap) phi = rhs over bx, in place. dhx, dhy, dhz are
// the per-axis diagonal coefficients beta/h^2 (see Diagonals). Cells
// with (i+j+k+redblack) % 2 != 0 are left untouched; a full sweep is
// two calls, redblack=0 then 1, and the second call must observe the
// first call's updates (the sweep join provides that barrier).
//
// Boundary corrections activate only at cells whose coordinate equals
// the valid box vbox's bound on the relevant axis, with the mask
// sampled one cell outside vbox and the correction coefficient sampled
// at the vbox face. The corrected diagonal must stay positive; that is
// the caller's precondition, not a checked error.
func GSRB[T Real](sw Sweeper, bx grid.Box, phi *grid.Array[T], rhs *grid.Array[T],
	alpha, dhx, dhy, dhz T, a *grid.Array[T], bd BndryFaces[T],
	vbox grid.Box, redblack int) {

	vlo := vbox.Lo
	vhi := vbox.Hi
	dhfac := 2 * (dhx + dhy + dhz)

	sw.sweep(bx.Lo[grid.Z], bx.Hi[grid.Z], func(k int) {
		for j := bx.Lo[grid.Y]; j <= bx.Hi[grid.Y]; j++ {
			for i := bx.Lo[grid.X]; i <= bx.Hi[grid.X]; i++ {
				if (i+j+k+redblack)%2 != 0 {
					continue
				}

				var cfxlo, cfylo, cfzlo, cfxhi, cfyhi, cfzhi T
				if i == vlo[grid.X] && bd.Mask[grid.XLo].At(vlo[grid.X]-1, j, k) > 0 {
					cfxlo = bd.Flux[grid.XLo].At(vlo[grid.X], j, k)
				}
				if j == vlo[grid.Y] && bd.Mask[grid.YLo].At(i, vlo[grid.Y]-1, k) > 0 {
					cfylo = bd.Flux[grid.YLo].At(i, vlo[grid.Y], k)
				}
				if k == vlo[grid.Z] && bd.Mask[grid.ZLo].At(i, j, vlo[grid.Z]-1) > 0 {
					cfzlo = bd.Flux[grid.ZLo].At(i, j, vlo[grid.Z])
				}
				if i == vhi[grid.X] && bd.Mask[grid.XHi].At(vhi[grid.X]+1, j, k) > 0 {
					cfxhi = bd.Flux[grid.XHi].At(vhi[grid.X], j, k)
				}
				if j == vhi[grid.Y] && bd.Mask[grid.YHi].At(i, vhi[grid.Y]+1, k) > 0 {
					cfyhi = bd.Flux[grid.YHi].At(i, vhi[grid.Y], k)
				}
				if k == vhi[grid.Z] && bd.Mask[grid.ZHi].At(i, j, vhi[grid.Z]+1) > 0 {
					cfzhi = bd.Flux[grid.ZHi].At(i, j, vhi[grid.Z])
				}

				gamma := alpha*a.At(i, j, k) + dhfac
				gmd := gamma - dhx*(cfxlo+cfxhi) - dhy*(cfylo+cfyhi) - dhz*(cfzlo+cfzhi)

				rho := dhx*(phi.At(i-1, j, k)+phi.At(i+1, j, k)) +
					dhy*(phi.At(i, j-1, k)+phi.At(i, j+1, k)) +
					dhz*(phi.At(i, j, k-1)+phi.At(i, j, k+1))

				res := rhs.At(i, j, k) - (gamma*phi.At(i, j, k) - rho)
				phi.Add(i, j, k, T(omega)/gmd*res)
			}
		}
	})
}
