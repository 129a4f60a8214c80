package kernels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/structgrid/mgkernel/grid"
)

// Independent oracle: assemble the 7-point operator as a dense matrix
// over the interior cells (ghosts held at zero) and check ADotX against
// the matrix-vector product.
func TestADotXMatchesAssembledMatrix(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{2, 2, 2})
	n := bx.NumPts()

	a := positiveField(bx, rng)
	dxinv := [3]float64{1, 2, 0.5}
	const alpha, beta = 0.9, 1.7
	dhx, dhy, dhz := Diagonals(dxinv, beta)
	dh := [3]float64{dhx, dhy, dhz}

	row := func(i, j, k int) int {
		return (k-bx.Lo[grid.Z])*bx.Length(grid.X)*bx.Length(grid.Y) +
			(j-bx.Lo[grid.Y])*bx.Length(grid.X) + (i - bx.Lo[grid.X])
	}

	A := mat.NewDense(n, n, nil)
	forEachCell(bx, func(i, j, k int) {
		r := row(i, j, k)
		A.Set(r, r, alpha*a.At(i, j, k)+2*(dhx+dhy+dhz))
		for ax := grid.X; ax <= grid.Z; ax++ {
			for _, s := range []int{-1, 1} {
				c := grid.IntVect{i, j, k}.Shift(ax, s)
				if bx.Contains(c[0], c[1], c[2]) {
					A.Set(r, row(c[0], c[1], c[2]), -dh[ax])
				}
			}
		}
	})

	// interior values random, ghost ring zero
	x := grid.NewArray[float64](bx.Grow(1))
	xVec := mat.NewVecDense(n, nil)
	forEachCell(bx, func(i, j, k int) {
		v := rng.NormFloat64()
		x.Set(i, j, k, v)
		xVec.SetVec(row(i, j, k), v)
	})

	y := grid.NewArray[float64](bx)
	ADotX(Seq, bx, y, x, a, dxinv, alpha, beta)

	var want mat.VecDense
	want.MulVec(A, xVec)

	forEachCell(bx, func(i, j, k int) {
		require.InDelta(t, want.AtVec(row(i, j, k)), y.At(i, j, k), 1e-12,
			"cell (%d,%d,%d)", i, j, k)
	})
}
