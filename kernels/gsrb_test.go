package kernels

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/structgrid/mgkernel/grid"
)

// If rhs equals the operator applied to phi, the residual is zero at
// every cell and one relaxation of either color must leave phi
// unchanged.
func TestGSRBFixedPoint(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{4, 4, 4})

	phi := randomField(bx.Grow(1), rng)
	a := positiveField(bx, rng)
	dxinv := [3]float64{1, 2, 0.5}
	const alpha, beta = 1.2, 0.8
	dhx, dhy, dhz := Diagonals(dxinv, beta)

	rhs := grid.NewArray[float64](bx)
	ADotX(Seq, bx, rhs, phi, a, dxinv, alpha, beta)

	orig := phi.Clone()
	bd := quietBndry(bx)
	GSRB(Seq, bx, phi, rhs, alpha, dhx, dhy, dhz, a, bd, bx, 0)
	GSRB(Seq, bx, phi, rhs, alpha, dhx, dhy, dhz, a, bd, bx, 1)

	for n, v := range phi.Data() {
		assert.InDelta(t, orig.Data()[n], v, 1e-11)
	}
}

// One call touches only cells of its own parity; the two colors
// together touch every cell in the box at most once each.
func TestGSRBColorDisjointness(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{3, 3, 3})

	phi := randomField(bx.Grow(1), rng)
	rhs := randomField(bx, rng)
	a := positiveField(bx, rng)
	bd := quietBndry(bx)

	afterRed := phi.Clone()
	GSRB(Seq, bx, afterRed, rhs, 1, 1, 1, 1, a, bd, bx, 0)
	forEachCell(bx, func(i, j, k int) {
		if (i+j+k)%2 != 0 {
			require.Equal(t, phi.At(i, j, k), afterRed.At(i, j, k),
				"redblack=0 wrote opposite-color cell (%d,%d,%d)", i, j, k)
		}
	})

	afterBlack := afterRed.Clone()
	GSRB(Seq, bx, afterBlack, rhs, 1, 1, 1, 1, a, bd, bx, 1)
	forEachCell(bx, func(i, j, k int) {
		if (i+j+k)%2 == 0 {
			require.Equal(t, afterRed.At(i, j, k), afterBlack.At(i, j, k),
				"redblack=1 wrote opposite-color cell (%d,%d,%d)", i, j, k)
		}
	})

	// ghost ring is never written by either color
	g := bx.Grow(1)
	forEachCell(g, func(i, j, k int) {
		if !bx.Contains(i, j, k) {
			require.Equal(t, phi.At(i, j, k), afterBlack.At(i, j, k))
		}
	})
}

// Cells with no coordinate on a valid-box face get zero correction no
// matter what the mask arrays hold: hostile masks and poisoned flux
// coefficients must give the same result as quiet ones.
func TestGSRBBoundaryCorrectionLocality(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	bx := grid.NewBox(grid.IntVect{1, 1, 1}, grid.IntVect{3, 3, 3})
	vbox := bx.Grow(2) // no cell of bx touches a vbox face

	phi := randomField(bx.Grow(1), rng)
	rhs := randomField(bx, rng)
	a := positiveField(bx, rng)

	quiet := quietBndry(vbox)
	hostile := quietBndry(vbox)
	for f := grid.XLo; f < grid.NumFaces; f++ {
		hostile.Mask[f].Fill(1)
	}

	phiQuiet := phi.Clone()
	phiHostile := phi.Clone()
	for rb := 0; rb <= 1; rb++ {
		GSRB(Seq, bx, phiQuiet, rhs, 0.5, 1, 2, 3, a, quiet, vbox, rb)
		GSRB(Seq, bx, phiHostile, rhs, 0.5, 1, 2, 3, a, hostile, vbox, rb)
	}

	assert.Equal(t, phiQuiet.Data(), phiHostile.Data())
}

// Single-cell sweep with one masked face: check the corrected update
// against the formula written out by hand.
func TestGSRBBoundaryCorrectionValue(t *testing.T) {
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{0, 0, 0})

	phi := grid.NewArray[float64](bx.Grow(1))
	phi.FillIndexed(func(i, j, k int) float64 { return float64(1 + i + 2*j + 4*k) })
	rhs := grid.NewArray[float64](bx)
	rhs.Set(0, 0, 0, 3.0)
	a := onesField(bx)

	bd := quietBndry(bx)
	const cf = 0.4
	bd.Mask[grid.XLo].Set(-1, 0, 0, 1) // sampled one cell outside vbox
	bd.Flux[grid.XLo].Set(0, 0, 0, cf) // sampled at the vbox face

	const alpha, dhx, dhy, dhz = 2.0, 1.0, 0.5, 0.25
	phiOld := phi.At(0, 0, 0)
	GSRB(Seq, bx, phi, rhs, alpha, dhx, dhy, dhz, a, bd, bx, 0)

	gamma := alpha*1.0 + 2*(dhx+dhy+dhz)
	gmd := gamma - dhx*cf
	rho := dhx*(phi.At(-1, 0, 0)+phi.At(1, 0, 0)) +
		dhy*(phi.At(0, -1, 0)+phi.At(0, 1, 0)) +
		dhz*(phi.At(0, 0, -1)+phi.At(0, 0, 1))
	res := 3.0 - (gamma*phiOld - rho)
	want := phiOld + 1.15/gmd*res

	assert.InDelta(t, want, phi.At(0, 0, 0), eps)
}

// A positive mask on one face corrects exactly the cells on that face
// of the valid box and nothing else.
func TestGSRBMaskGating(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{2, 2, 2})

	phi := randomField(bx.Grow(1), rng)
	rhs := randomField(bx, rng)
	a := positiveField(bx, rng)

	reference := phi.Clone()
	GSRB(Seq, bx, reference, rhs, 1, 1, 1, 1, a, quietBndry(bx), bx, 0)

	fired := quietBndry(bx)
	fired.Mask[grid.XHi].Fill(1)
	fired.Flux[grid.XHi].Fill(0.3)
	corrected := phi.Clone()
	GSRB(Seq, bx, corrected, rhs, 1, 1, 1, 1, a, fired, bx, 0)

	forEachCell(bx, func(i, j, k int) {
		if (i+j+k)%2 != 0 {
			return
		}
		if i == bx.Hi[grid.X] {
			require.NotEqual(t, reference.At(i, j, k), corrected.At(i, j, k),
				"hi-x face cell (%d,%d,%d) must see the correction", i, j, k)
		} else {
			require.Equal(t, reference.At(i, j, k), corrected.At(i, j, k),
				"cell (%d,%d,%d) off the hi-x face must not", i, j, k)
		}
	})
}

func TestGSRBParMatchesSeq(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{15, 15, 15})

	phi := randomField(bx.Grow(1), rng)
	rhs := randomField(bx, rng)
	a := positiveField(bx, rng)
	bd := quietBndry(bx)

	phiSeq := phi.Clone()
	phiPar := phi.Clone()
	for rb := 0; rb <= 1; rb++ {
		GSRB(Seq, bx, phiSeq, rhs, 1, 1, 1, 1, a, bd, bx, rb)
		GSRB(Par, bx, phiPar, rhs, 1, 1, 1, 1, a, bd, bx, rb)
	}

	assert.Equal(t, phiSeq.Data(), phiPar.Data())
}

// Smoke test that repeated red-black sweeps actually smooth: the
// residual norm of a well-posed problem must shrink.
func TestGSRBReducesResidual(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	bx := grid.NewBox(grid.IntVect{0, 0, 0}, grid.IntVect{7, 7, 7})
	dxinv := [3]float64{1, 1, 1}
	const alpha, beta = 1.0, 1.0
	dhx, dhy, dhz := Diagonals(dxinv, beta)

	a := onesField(bx)
	rhs := randomField(bx, rng)
	phi := grid.NewArray[float64](bx.Grow(1)) // zero initial guess, zero ghosts
	bd := quietBndry(bx)

	residualNorm := func() float64 {
		r := grid.NewArray[float64](bx)
		ADotX(Seq, bx, r, phi, a, dxinv, alpha, beta)
		d := make([]float64, len(r.Data()))
		floats.SubTo(d, rhs.Data(), r.Data())
		return floats.Norm(d, 2)
	}

	before := residualNorm()
	for sweep := 0; sweep < 20; sweep++ {
		GSRB(Seq, bx, phi, rhs, alpha, dhx, dhy, dhz, a, bd, bx, 0)
		GSRB(Seq, bx, phi, rhs, alpha, dhx, dhy, dhz, a, bd, bx, 1)
	}
	after := residualNorm()

	require.False(t, math.IsNaN(after))
	assert.Less(t, after, 0.1*before)
}
