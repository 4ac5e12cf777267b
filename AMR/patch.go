package AMR

import (
	"fmt"
	"sort"

	"github.com/notargets/goamr/types"
)

// DataContext selects one of the time level / stage buffers of a field
type DataContext string

const (
	CURRENT DataContext = "CURRENT"
	SCRATCH DataContext = "SCRATCH"
	NEW     DataContext = "NEW"
	OLD     DataContext = "OLD"
)

// StageContext names the buffer of Runge-Kutta stage n
func StageContext(n int) DataContext { return DataContext(fmt.Sprintf("RK_STAGE_%d", n)) }

type dataKey struct {
	name string
	ctx  DataContext
}

// Patch is a box of cells with uniform spacing and the field arrays that live
// on it. Cell indices in the Box are global to the level.
type Patch struct {
	Dim    int
	Number int
	Box    Box
	XLo    [3]float64
	Dx     [3]float64
	// Touches marks the physical domain boundaries the patch lies on
	Touches [6]bool
	cells   map[dataKey]*CellData
	faces   map[dataKey]*FaceData
}

// NewPatch builds a patch whose lower cell corner sits at xlo
func NewPatch(number int, box Box, xlo, dx []float64) (p *Patch) {
	if len(dx) < box.Dim || len(xlo) < box.Dim {
		panic(fmt.Errorf("patch %d: need %d grid spacings and corners, have %d and %d",
			number, box.Dim, len(dx), len(xlo)))
	}
	p = &Patch{
		Dim:    box.Dim,
		Number: number,
		Box:    box,
		cells:  make(map[dataKey]*CellData),
		faces:  make(map[dataKey]*FaceData),
	}
	for d := 0; d < box.Dim; d++ {
		p.XLo[d] = xlo[d]
		p.Dx[d] = dx[d]
	}
	return
}

// GetDx returns the cell spacing of the first Dim directions
func (p *Patch) GetDx() []float64 { return p.Dx[:p.Dim] }

// CellCenter returns the coordinates of local cell (i,j,k)
func (p *Patch) CellCenter(i, j, k int) (x [3]float64) {
	var (
		idx = [3]int{i, j, k}
	)
	for d := 0; d < p.Dim; d++ {
		x[d] = p.XLo[d] + (float64(idx[d])+0.5)*p.Dx[d]
	}
	return
}

func (p *Patch) AllocateCellData(name string, ctx DataContext, depth int, ghosts IntVector) (cd *CellData) {
	cd = NewCellData(p.Box, depth, ghosts)
	p.cells[dataKey{name, ctx}] = cd
	return
}

func (p *Patch) AllocateFaceData(name string, ctx DataContext, depth int) (fd *FaceData) {
	fd = NewFaceData(p.Box, depth)
	p.faces[dataKey{name, ctx}] = fd
	return
}

func (p *Patch) SetCellData(name string, ctx DataContext, cd *CellData) {
	p.cells[dataKey{name, ctx}] = cd
}

func (p *Patch) LookupCellData(name string, ctx DataContext) (cd *CellData, ok bool) {
	cd, ok = p.cells[dataKey{name, ctx}]
	return
}

func (p *Patch) LookupFaceData(name string, ctx DataContext) (fd *FaceData, ok bool) {
	fd, ok = p.faces[dataKey{name, ctx}]
	return
}

// GetCellData panics when the field has not been allocated for the context,
// a missing field is a programming error in the caller.
func (p *Patch) GetCellData(name string, ctx DataContext) *CellData {
	cd, ok := p.LookupCellData(name, ctx)
	if !ok {
		panic(fmt.Errorf("patch %d: cell data %q is not allocated for context %s", p.Number, name, ctx))
	}
	return cd
}

func (p *Patch) GetFaceData(name string, ctx DataContext) *FaceData {
	fd, ok := p.LookupFaceData(name, ctx)
	if !ok {
		panic(fmt.Errorf("patch %d: face data %q is not allocated for context %s", p.Number, name, ctx))
	}
	return fd
}

func (p *Patch) HasContext(ctx DataContext) bool {
	for key := range p.cells {
		if key.ctx == ctx {
			return true
		}
	}
	for key := range p.faces {
		if key.ctx == ctx {
			return true
		}
	}
	return false
}

// DeallocateContext drops every field stored under ctx
func (p *Patch) DeallocateContext(ctx DataContext) {
	for key := range p.cells {
		if key.ctx == ctx {
			delete(p.cells, key)
		}
	}
	for key := range p.faces {
		if key.ctx == ctx {
			delete(p.faces, key)
		}
	}
}

// CellDataNames lists the cell fields allocated for ctx, sorted
func (p *Patch) CellDataNames(ctx DataContext) (names []string) {
	for key := range p.cells {
		if key.ctx == ctx {
			names = append(names, key.name)
		}
	}
	sort.Strings(names)
	return
}

func (p *Patch) TouchesBoundary(loc types.BoundaryLocation) bool { return p.Touches[loc] }
