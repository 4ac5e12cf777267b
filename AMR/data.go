package AMR

import (
	"fmt"

	"github.com/notargets/goamr/types"
)

// CellData is a cell centered field of Depth components over a box plus a
// ghost halo. Component d is Data[d], addressed through View.
type CellData struct {
	Box      Box
	GhostBox Box
	Depth    int
	Ghosts   IntVector
	View     View
	Data     [][]float64
}

func NewCellData(box Box, depth int, ghosts IntVector) (cd *CellData) {
	for d := box.Dim; d < 3; d++ {
		ghosts[d] = 0
	}
	cd = &CellData{
		Box:      box,
		GhostBox: box.Grow(ghosts),
		Depth:    depth,
		Ghosts:   ghosts,
		View:     NewCellView(box.NumberCells(), ghosts),
		Data:     make([][]float64, depth),
	}
	for n := 0; n < depth; n++ {
		cd.Data[n] = make([]float64, cd.View.Len())
	}
	return
}

func (cd *CellData) Dim() int { return cd.Box.Dim }

// GhostCellDims is the cell count per direction including the ghost halo
func (cd *CellData) GhostCellDims() IntVector { return cd.GhostBox.NumberCells() }

func (cd *CellData) Component(n int) []float64 { return cd.Data[n] }

func (cd *CellData) At(n, i, j, k int) float64 { return cd.Data[n][cd.View.Index(i, j, k)] }

func (cd *CellData) Set(n, i, j, k int, val float64) { cd.Data[n][cd.View.Index(i, j, k)] = val }

func (cd *CellData) Fill(val float64) {
	for n := range cd.Data {
		cd.FillComponent(n, val)
	}
}

func (cd *CellData) FillComponent(n int, val float64) {
	for i := range cd.Data[n] {
		cd.Data[n][i] = val
	}
}

// Copy returns a deep copy
func (cd *CellData) Copy() (o *CellData) {
	o = NewCellData(cd.Box, cd.Depth, cd.Ghosts)
	for n := range cd.Data {
		copy(o.Data[n], cd.Data[n])
	}
	return
}

// CopyFrom copies every component of src over the region where both arrays
// (ghosts included) are defined. The two must have matching depth.
func (cd *CellData) CopyFrom(src *CellData) {
	cd.CopyOverlap(src, cd.GhostBox.Intersect(src.GhostBox), IntVector{})
}

// CopyOverlap copies src into cd over region, given in cd's index space.
// shift maps cd's index space onto src's (src index = cd index + shift).
func (cd *CellData) CopyOverlap(src *CellData, region Box, shift IntVector) {
	if cd.Depth != src.Depth {
		panic(fmt.Errorf("depth mismatch copying cell data, %d != %d", cd.Depth, src.Depth))
	}
	region = region.Intersect(cd.GhostBox).Intersect(src.GhostBox.Shift(IntVector{}.Sub(shift)))
	if region.Empty() {
		return
	}
	var (
		dl, sl = cd.Box.Lower, src.Box.Lower
	)
	region.ForEach(func(i, j, k int) {
		di := cd.View.Index(i-dl[0], j-dl[1], k-dl[2])
		si := src.View.Index(i+shift[0]-sl[0], j+shift[1]-sl[1], k+shift[2]-sl[2])
		for n := 0; n < cd.Depth; n++ {
			cd.Data[n][di] = src.Data[n][si]
		}
	})
}

// ForEachInterior visits the local indices of the interior cells
func (cd *CellData) ForEachInterior(f func(i, j, k int)) {
	var (
		n = cd.Box.NumberCells()
	)
	for k := 0; k < n[2]; k++ {
		for j := 0; j < n[1]; j++ {
			for i := 0; i < n[0]; i++ {
				f(i, j, k)
			}
		}
	}
}

// ForEachWithGhosts visits local indices of the interior grown by width
func (cd *CellData) ForEachWithGhosts(width IntVector, f func(i, j, k int)) {
	var (
		n = cd.Box.NumberCells()
	)
	for k := -width[2]; k < n[2]+width[2]; k++ {
		for j := -width[1]; j < n[1]+width[1]; j++ {
			for i := -width[0]; i < n[0]+width[0]; i++ {
				f(i, j, k)
			}
		}
	}
}

// FaceData holds Depth components on the faces normal to each direction of
// the box, without ghosts.
type FaceData struct {
	Box   Box
	Depth int
	Views [3]View
	Data  [3][][]float64
}

func NewFaceData(box Box, depth int) (fd *FaceData) {
	fd = &FaceData{
		Box:   box,
		Depth: depth,
	}
	for _, dir := range types.Directions(box.Dim) {
		fd.Views[dir] = NewFaceView(box.NumberCells(), dir)
		fd.Data[dir] = make([][]float64, depth)
		for n := 0; n < depth; n++ {
			fd.Data[dir][n] = make([]float64, fd.Views[dir].Len())
		}
	}
	return
}

func (fd *FaceData) Component(dir types.Direction, n int) []float64 { return fd.Data[dir][n] }

func (fd *FaceData) At(dir types.Direction, n, i, j, k int) float64 {
	return fd.Data[dir][n][fd.Views[dir].Index(i, j, k)]
}

func (fd *FaceData) Set(dir types.Direction, n, i, j, k int, val float64) {
	fd.Data[dir][n][fd.Views[dir].Index(i, j, k)] = val
}

// ForEachFace visits the local indices of the faces normal to dir. Face i
// along dir lies between cells i-1 and i.
func (fd *FaceData) ForEachFace(dir types.Direction, f func(i, j, k int)) {
	var (
		ext = fd.Views[dir].Extent
	)
	for k := 0; k < max(ext[2], 1); k++ {
		for j := 0; j < max(ext[1], 1); j++ {
			for i := 0; i < max(ext[0], 1); i++ {
				f(i, j, k)
			}
		}
	}
}

func (fd *FaceData) Fill(val float64) {
	for _, dir := range types.Directions(fd.Box.Dim) {
		for n := range fd.Data[dir] {
			for i := range fd.Data[dir][n] {
				fd.Data[dir][n][i] = val
			}
		}
	}
}

func (fd *FaceData) Copy() (o *FaceData) {
	o = NewFaceData(fd.Box, fd.Depth)
	for _, dir := range types.Directions(fd.Box.Dim) {
		for n := range fd.Data[dir] {
			copy(o.Data[dir][n], fd.Data[dir][n])
		}
	}
	return
}
