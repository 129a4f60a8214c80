package kernels

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structgrid/mgkernel/grid"
)

func TestFluxDifferencesAcrossFace(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{4, 3, 5})
	sol := randomField(bx.Grow(1), rng)
	const fac = 2.5

	for ax := grid.X; ax <= grid.Z; ax++ {
		t.Run(ax.String(), func(t *testing.T) {
			e := grid.Unit(ax)
			f := grid.NewArray[float64](bx)
			Flux(Seq, bx, ax, f, sol, fac)

			forEachCell(bx, func(i, j, k int) {
				want := -fac * (sol.At(i, j, k) - sol.At(i-e[0], j-e[1], k-e[2]))
				assert.InDelta(t, want, f.At(i, j, k), eps, "cell (%d,%d,%d)", i, j, k)
			})
		})
	}
}

// The boundary-only variant's two slices must equal the full-box values
// at the same indices, and it must not touch the interior.
func TestFluxFaceMatchesFullBox(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	const fac = 1.75
	const length = 5

	for ax := grid.X; ax <= grid.Z; ax++ {
		t.Run(ax.String(), func(t *testing.T) {
			// face-centered box for a 5-cell-wide block along ax: lo
			// face at 0, hi face at length, interior faces between
			bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{3, 3, 3})
			bx.Hi[ax] = bx.Lo[ax] + length
			sol := randomField(bx.Grow(1), rng)

			fFull := grid.NewArray[float64](bx)
			Flux(Seq, bx, ax, fFull, sol, fac)

			const sentinel = -999.0
			fFace := grid.NewArray[float64](bx)
			fFace.Fill(sentinel)
			FluxFace(Seq, bx, ax, fFace, sol, fac, length)

			lo := bx.Lo[ax]
			forEachCell(bx, func(i, j, k int) {
				c := [3]int{i, j, k}
				if c[ax] == lo || c[ax] == lo+length {
					require.InDelta(t, fFull.At(i, j, k), fFace.At(i, j, k), eps,
						"boundary cell (%d,%d,%d)", i, j, k)
				} else {
					require.Equal(t, sentinel, fFace.At(i, j, k),
						"interior cell (%d,%d,%d) must be skipped", i, j, k)
				}
			})
		})
	}
}

func TestFluxParMatchesSeq(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{10, 10, 10})
	sol := randomField(bx.Grow(1), rng)

	fSeq := grid.NewArray[float64](bx)
	fPar := grid.NewArray[float64](bx)
	Flux(Seq, bx, grid.Y, fSeq, sol, 0.5)
	Flux(Par, bx, grid.Y, fPar, sol, 0.5)

	assert.Equal(t, fSeq.Data(), fPar.Data())
}

func TestFluxEmptyBox(t *testing.T) {
	empty := grid.NewBox(grid.IntVect{0, 5, 0}, grid.IntVect{5, 4, 5})
	f := grid.NewArray[float64](grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{5, 5, 5}))
	f.Fill(3)

	Flux(Seq, empty, grid.X, f, f, 1)
	assert.Equal(t, 3.0, f.At(2, 2, 2))
}
