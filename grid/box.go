// Package grid provides the index-space types shared by every stencil
// kernel: 3D integer boxes, the face enumeration, and strided dense
// field views over ghost-extended backing storage.
package grid

import "fmt"

// Axis identifies one of the three coordinate directions.
type Axis int

const (
	X Axis = iota
	Y
	Z
)

// NumAxes is the spatial dimension of the index space.
const NumAxes = 3

func (ax Axis) String() string {
	switch ax {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("Axis(%d)", int(ax))
}

// IntVect is a point in 3D integer index space.
type IntVect [NumAxes]int

// Shift returns the point moved n cells along ax.
func (iv IntVect) Shift(ax Axis, n int) IntVect {
	iv[ax] += n
	return iv
}

// Unit returns the unit vector along ax.
func Unit(ax Axis) IntVect {
	var iv IntVect
	iv[ax] = 1
	return iv
}

// Box is an axis-aligned integer index range with inclusive bounds.
// A box with Lo > Hi on any axis is empty; kernels iterate zero cells
// over an empty box and return normally.
type Box struct {
	Lo, Hi IntVect
}

// NewBox returns the box spanning lo..hi inclusive.
func NewBox(lo, hi IntVect) Box {
	return Box{Lo: lo, Hi: hi}
}

// IsEmpty reports whether the box contains no cells.
func (b Box) IsEmpty() bool {
	for ax := 0; ax < NumAxes; ax++ {
		if b.Lo[ax] > b.Hi[ax] {
			return true
		}
	}
	return false
}

// Length returns the number of cells along ax, or 0 if the box is empty
// on that axis.
func (b Box) Length(ax Axis) int {
	n := b.Hi[ax] - b.Lo[ax] + 1
	if n < 0 {
		return 0
	}
	return n
}

// NumPts returns the total cell count.
func (b Box) NumPts() int {
	return b.Length(X) * b.Length(Y) * b.Length(Z)
}

// Grow expands the box by n cells on every side. Negative n shrinks.
func (b Box) Grow(n int) Box {
	for ax := 0; ax < NumAxes; ax++ {
		b.Lo[ax] -= n
		b.Hi[ax] += n
	}
	return b
}

// Shift translates the box by n cells along ax.
func (b Box) Shift(ax Axis, n int) Box {
	b.Lo[ax] += n
	b.Hi[ax] += n
	return b
}

// Contains reports whether (i,j,k) lies within the box.
func (b Box) Contains(i, j, k int) bool {
	return i >= b.Lo[X] && i <= b.Hi[X] &&
		j >= b.Lo[Y] && j <= b.Hi[Y] &&
		k >= b.Lo[Z] && k <= b.Hi[Z]
}

// ContainsBox reports whether every cell of o lies within b. An empty o
// is contained in anything.
func (b Box) ContainsBox(o Box) bool {
	if o.IsEmpty() {
		return true
	}
	return b.Contains(o.Lo[X], o.Lo[Y], o.Lo[Z]) && b.Contains(o.Hi[X], o.Hi[Y], o.Hi[Z])
}

// FaceSlab returns the one-cell-thick slab of b on the given face.
func (b Box) FaceSlab(f Face) Box {
	ax := f.Axis()
	if f.IsLow() {
		b.Hi[ax] = b.Lo[ax]
	} else {
		b.Lo[ax] = b.Hi[ax]
	}
	return b
}

func (b Box) String() string {
	return fmt.Sprintf("[%d,%d,%d]..[%d,%d,%d]",
		b.Lo[X], b.Lo[Y], b.Lo[Z], b.Hi[X], b.Hi[Y], b.Hi[Z])
}

// Face enumerates the six logical faces of a box in the order
// -x, -y, -z, +x, +y, +z. Boundary mask and flux-correction arrays are
// indexed by this enumeration.
type Face int

const (
	XLo Face = iota
	YLo
	ZLo
	XHi
	YHi
	ZHi
	NumFaces
)

// Axis returns the coordinate direction the face is normal to.
func (f Face) Axis() Axis {
	return Axis(f % 3)
}

// LowFace returns the low-side face normal to ax.
func LowFace(ax Axis) Face {
	return Face(ax)
}

// IsLow reports whether the face is on the low side of its axis.
func (f Face) IsLow() bool {
	return f < XHi
}

func (f Face) String() string {
	side := "lo"
	if !f.IsLow() {
		side = "hi"
	}
	return f.Axis().String() + side
}
