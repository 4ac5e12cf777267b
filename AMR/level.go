package AMR

import (
	"fmt"

	"github.com/notargets/goamr/types"
)

// Level is a set of disjoint patches tiling a rectangular domain with uniform
// spacing.
type Level struct {
	Dim      int
	Domain   Box
	XLo      [3]float64
	Dx       [3]float64
	Periodic [3]bool
	Patches  []*Patch
}

// NewUniformLevel tiles the domain [xlo,xhi] of cells cells with patches of at
// most patchSize cells per direction.
func NewUniformLevel(dim int, cells IntVector, xlo, xhi []float64, patchSize IntVector, periodic []bool) (l *Level) {
	var (
		dx [3]float64
	)
	if len(xlo) < dim || len(xhi) < dim {
		panic(fmt.Errorf("domain corners need %d components", dim))
	}
	l = &Level{
		Dim:    dim,
		Domain: NewBox(dim, NewIntVector(dim, 0), cells.Sub(NewIntVector(dim, 1))),
	}
	for d := 0; d < dim; d++ {
		if cells[d] < 1 || patchSize[d] < 1 {
			panic(fmt.Errorf("invalid level layout, cells %v, patch size %v", cells, patchSize))
		}
		dx[d] = (xhi[d] - xlo[d]) / float64(cells[d])
		l.XLo[d] = xlo[d]
		if d < len(periodic) {
			l.Periodic[d] = periodic[d]
		}
	}
	l.Dx = dx
	var (
		nTiles IntVector
		number int
	)
	for d := 0; d < 3; d++ {
		nTiles[d] = 1
		if d < dim {
			nTiles[d] = (cells[d] + patchSize[d] - 1) / patchSize[d]
		}
	}
	for tk := 0; tk < nTiles[2]; tk++ {
		for tj := 0; tj < nTiles[1]; tj++ {
			for ti := 0; ti < nTiles[0]; ti++ {
				var (
					tile     = [3]int{ti, tj, tk}
					lo, hi   IntVector
					patchXLo = make([]float64, dim)
					patchDx  = make([]float64, dim)
				)
				for d := 0; d < dim; d++ {
					lo[d] = tile[d] * patchSize[d]
					hi[d] = min(lo[d]+patchSize[d], cells[d]) - 1
					patchXLo[d] = xlo[d] + float64(lo[d])*dx[d]
					patchDx[d] = dx[d]
				}
				p := NewPatch(number, NewBox(dim, lo, hi), patchXLo, patchDx)
				l.markBoundaries(p)
				l.Patches = append(l.Patches, p)
				number++
			}
		}
	}
	return
}

func (l *Level) markBoundaries(p *Patch) {
	for _, dir := range types.Directions(l.Dim) {
		if l.Periodic[dir] {
			continue
		}
		if p.Box.Lower[dir] == l.Domain.Lower[dir] {
			p.Touches[types.NewBoundaryLocation(dir, false)] = true
		}
		if p.Box.Upper[dir] == l.Domain.Upper[dir] {
			p.Touches[types.NewBoundaryLocation(dir, true)] = true
		}
	}
}

// periodicShifts lists the index shifts of the periodic images of the domain,
// the zero shift first
func (l *Level) periodicShifts() (shifts []IntVector) {
	var (
		n = l.Domain.NumberCells()
	)
	shifts = []IntVector{{}}
	for _, dir := range types.Directions(l.Dim) {
		if !l.Periodic[dir] {
			continue
		}
		var grown []IntVector
		for _, s := range shifts {
			for _, sign := range []int{-1, 1} {
				ns := s
				ns[dir] += sign * n[dir]
				grown = append(grown, ns)
			}
		}
		shifts = append(shifts, grown...)
	}
	return
}

// FillGhostsFromNeighbors copies interior data of neighbouring patches (and
// of periodic images) into the ghost halo of every patch.
func (l *Level) FillGhostsFromNeighbors(name string, ctx DataContext) {
	shifts := l.periodicShifts()
	for _, dst := range l.Patches {
		dcd := dst.GetCellData(name, ctx)
		for _, src := range l.Patches {
			scd := src.GetCellData(name, ctx)
			for _, s := range shifts {
				if src == dst && s == (IntVector{}) {
					continue
				}
				// dst index + s lands in src's index space
				dcd.CopyOverlap(scd, src.Box.Shift(IntVector{}.Sub(s)), s)
			}
		}
	}
}

// TotalCells is the number of interior cells over all patches
func (l *Level) TotalCells() (n int) {
	for _, p := range l.Patches {
		n += p.Box.Size()
	}
	return
}
