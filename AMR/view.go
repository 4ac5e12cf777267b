package AMR

import (
	"github.com/notargets/goamr/types"
)

// View maps a local (i,j,k) index onto a flat array. Local index (0,0,0) is
// the first interior cell (or face) and sits at Origin, ghost indices are
// negative or past Extent.
type View struct {
	Origin int
	Stride [3]int
	Extent IntVector
	Ghosts IntVector
}

func (v View) Index(i, j, k int) int {
	return v.Origin + i*v.Stride[0] + j*v.Stride[1] + k*v.Stride[2]
}

// IndexOf is Index for an IntVector
func (v View) IndexOf(idx IntVector) int {
	return v.Index(idx[0], idx[1], idx[2])
}

// Offset is the flat distance of one step along direction d
func (v View) Offset(d types.Direction) int { return v.Stride[d] }

// Len is the flat length of the array the view addresses
func (v View) Len() int {
	var (
		n = 1
	)
	for d := 0; d < 3; d++ {
		n *= v.Extent[d] + 2*v.Ghosts[d]
	}
	return n
}

// NewCellView lays out a ghosted cell array row major with x fastest
func NewCellView(interior, ghosts IntVector) (v View) {
	var (
		dims IntVector
	)
	for d := 0; d < 3; d++ {
		dims[d] = interior[d] + 2*ghosts[d]
	}
	v = View{
		Stride: [3]int{1, dims[0], dims[0] * dims[1]},
		Extent: interior,
		Ghosts: ghosts,
	}
	v.Origin = ghosts[0]*v.Stride[0] + ghosts[1]*v.Stride[1] + ghosts[2]*v.Stride[2]
	return
}

// NewFaceView lays out the faces normal to dir with the normal axis fastest,
// followed by the next two axes in cyclic order. Faces have no ghosts.
//
//	x: i + j*(nx+1) + k*(nx+1)*ny
//	y: j + k*(ny+1) + i*(ny+1)*nz
//	z: k + i*(nz+1) + j*(nz+1)*nx
func NewFaceView(interior IntVector, dir types.Direction) (v View) {
	var (
		a0, a1, a2 = int(dir), (int(dir) + 1) % 3, (int(dir) + 2) % 3
		ext        = interior
	)
	ext[a0]++
	v.Extent = ext
	v.Stride[a0] = 1
	v.Stride[a1] = ext[a0]
	v.Stride[a2] = ext[a0] * ext[a1]
	return
}
