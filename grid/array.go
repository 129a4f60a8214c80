package grid

import "fmt"

// Elem constrains the value types a field view can hold: the
// configurable real type plus the integer type used for boundary masks.
type Elem interface {
	~float32 | ~float64 | ~int32
}

// BoundsCheck enables per-access extent validation on every Array
// read and write. Off by default; tests turn it on to convert an
// out-of-extent stencil read into a panic naming the offending index.
var BoundsCheck = false

// Array is a strided view over a flat 3D backing slice. Its extent is a
// Box with arbitrary integer origin, so a view allocated over a
// ghost-grown box addresses negative and out-of-valid-region indices
// directly. Indexing is unchecked unless BoundsCheck is set: callers
// guarantee every dereferenced index lies within the extent.
type Array[T Elem] struct {
	data    []T
	extent  Box
	strideJ int
	strideK int
}

// NewArray allocates a zeroed view covering bx.
func NewArray[T Elem](bx Box) *Array[T] {
	return Attach(bx, make([]T, bx.NumPts()))
}

// Attach wraps existing backing storage as a view covering bx. The
// slice is adopted, not copied; it must hold exactly bx.NumPts()
// values laid out with i varying fastest, then j, then k.
func Attach[T Elem](bx Box, data []T) *Array[T] {
	if len(data) != bx.NumPts() {
		panic(fmt.Sprintf("grid: backing slice has %d values, box %v needs %d",
			len(data), bx, bx.NumPts()))
	}
	return &Array[T]{
		data:    data,
		extent:  bx,
		strideJ: bx.Length(X),
		strideK: bx.Length(X) * bx.Length(Y),
	}
}

func (a *Array[T]) index(i, j, k int) int {
	if BoundsCheck && !a.extent.Contains(i, j, k) {
		panic(fmt.Sprintf("grid: access (%d,%d,%d) outside extent %v", i, j, k, a.extent))
	}
	return (k-a.extent.Lo[Z])*a.strideK + (j-a.extent.Lo[Y])*a.strideJ + (i - a.extent.Lo[X])
}

// At returns the value at (i,j,k).
func (a *Array[T]) At(i, j, k int) T {
	return a.data[a.index(i, j, k)]
}

// Set stores v at (i,j,k).
func (a *Array[T]) Set(i, j, k int, v T) {
	a.data[a.index(i, j, k)] = v
}

// Add accumulates v into (i,j,k).
func (a *Array[T]) Add(i, j, k int, v T) {
	a.data[a.index(i, j, k)] += v
}

// Extent returns the covering box, ghosts included.
func (a *Array[T]) Extent() Box {
	return a.extent
}

// Data exposes the backing slice in layout order. Used by the device
// runner to transfer whole fields without reshaping.
func (a *Array[T]) Data() []T {
	return a.data
}

// Fill sets every value in the view to v.
func (a *Array[T]) Fill(v T) {
	for n := range a.data {
		a.data[n] = v
	}
}

// Clone returns a deep copy with the same extent.
func (a *Array[T]) Clone() *Array[T] {
	out := NewArray[T](a.extent)
	copy(out.data, a.data)
	return out
}

// FillIndexed sets each value from a function of its index. Handy for
// building test fields like x(i,j,k) = i*i + j*j + k*k.
func (a *Array[T]) FillIndexed(f func(i, j, k int) T) {
	bx := a.extent
	for k := bx.Lo[Z]; k <= bx.Hi[Z]; k++ {
		for j := bx.Lo[Y]; j <= bx.Hi[Y]; j++ {
			for i := bx.Lo[X]; i <= bx.Hi[X]; i++ {
				a.Set(i, j, k, f(i, j, k))
			}
		}
	}
}
