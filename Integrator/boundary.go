package Integrator

import (
	"fmt"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/EOS"
	"github.com/notargets/goamr/FlowModel"
	"github.com/notargets/goamr/types"
)

// BoundaryConditions holds the condition applied on each face of the
// physical domain. Faces of periodic directions are filled by the level.
type BoundaryConditions struct {
	Dim   int
	Flags [6]types.BCFLAG
	// States is the primitive state (rho, u..., p) of dirichlet faces
	States [6][]float64
	labels [6]string
}

// NewBoundaryConditions reads "boundary_<loc>" labels and the matching
// "boundary_<loc>_state" vectors of dirichlet faces from db. Faces without a
// label are transmissive, db may be nil.
func NewBoundaryConditions(dim int, periodic [3]bool, db *Database.Database) (bc *BoundaryConditions, err error) {
	bc = &BoundaryConditions{Dim: dim}
	for loc := types.BoundaryLocation(0); int(loc) < 2*dim; loc++ {
		var (
			key   = "boundary_" + loc.Print()
			label = "transmissive"
		)
		if periodic[loc.Direction()] {
			bc.Flags[loc], bc.labels[loc] = types.BC_Periodic, "periodic"
			continue
		}
		if db != nil {
			if label, err = db.GetStringWithDefault(key, label); err != nil {
				return nil, err
			}
		}
		if bc.Flags[loc], err = types.NewBCFLAG(label); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		bc.labels[loc] = label
		switch bc.Flags[loc] {
		case types.BC_Periodic:
			return nil, fmt.Errorf("%s: direction %s is not periodic", key, loc.Direction().Print())
		case types.BC_None:
			return nil, fmt.Errorf("%s: a boundary condition is required", key)
		case types.BC_Dirichlet:
			if bc.States[loc], err = db.GetDoubleVector(key + "_state"); err != nil {
				return nil, err
			}
			if len(bc.States[loc]) != dim+2 {
				return nil, fmt.Errorf("%s_state: need %d primitive values, have %d", key, dim+2, len(bc.States[loc]))
			}
		}
	}
	return
}

func (bc *BoundaryConditions) PutToRestart(db *Database.Database) {
	for loc := types.BoundaryLocation(0); int(loc) < 2*bc.Dim; loc++ {
		if bc.Flags[loc] == types.BC_Periodic {
			continue
		}
		key := "boundary_" + loc.Print()
		db.PutString(key, bc.labels[loc])
		if bc.Flags[loc] == types.BC_Dirichlet {
			db.PutDoubleVector(key+"_state", bc.States[loc])
		}
	}
}

// Fill sets the conservative ghost cells of patch lying beyond the physical
// domain, up to width cells deep. Directions are filled in order x, y, z over
// the full tangential ghost range so that corners take the values of the
// faces filled before them.
func (bc *BoundaryConditions) Fill(patch *AMR.Patch, ctx AMR.DataContext, width AMR.IntVector, eos EOS.EquationOfState) {
	var (
		rho   = patch.GetCellData(FlowModel.DensityField, ctx)
		mom   = patch.GetCellData(FlowModel.MomentumField, ctx)
		E     = patch.GetCellData(FlowModel.TotalEnergyField, ctx)
		n     = patch.Box.NumberCells()
		cds   = []*AMR.CellData{rho, mom, E}
		fixed = make([]float64, bc.Dim+2)
	)
	for _, dir := range types.Directions(bc.Dim) {
		w := min(width[dir], rho.Ghosts[dir])
		for _, upper := range []bool{false, true} {
			loc := types.NewBoundaryLocation(dir, upper)
			if !patch.TouchesBoundary(loc) || bc.Flags[loc] == types.BC_Periodic {
				continue
			}
			flag := bc.Flags[loc]
			if flag == types.BC_Dirichlet {
				state := bc.States[loc]
				fixed[0] = state[0]
				for d := 0; d < bc.Dim; d++ {
					fixed[1+d] = state[0] * state[1+d]
				}
				fixed[bc.Dim+1] = eos.GetTotalEnergy(state[0], state[1:bc.Dim+1], state[bc.Dim+1])
			}
			rho.ForEachWithGhosts(rho.Ghosts, func(i, j, k int) {
				var (
					c = AMR.IntVector{i, j, k}
					g = c[dir]
				)
				var mirror, nearest int
				if upper {
					if g < n[dir] || g >= n[dir]+w {
						return
					}
					mirror, nearest = 2*n[dir]-1-g, n[dir]-1
				} else {
					if g >= 0 || g < -w {
						return
					}
					mirror, nearest = -1-g, 0
				}
				src := c
				switch flag {
				case types.BC_Transmissive:
					src[dir] = nearest
				case types.BC_Slip:
					src[dir] = mirror
				case types.BC_Dirichlet:
					rho.Set(0, i, j, k, fixed[0])
					for d := 0; d < bc.Dim; d++ {
						mom.Set(d, i, j, k, fixed[1+d])
					}
					E.Set(0, i, j, k, fixed[bc.Dim+1])
					return
				}
				for _, cd := range cds {
					for m := 0; m < cd.Depth; m++ {
						cd.Set(m, i, j, k, cd.At(m, src[0], src[1], src[2]))
					}
				}
				if flag == types.BC_Slip {
					mom.Set(int(dir), i, j, k, -mom.At(int(dir), i, j, k))
				}
			})
		}
	}
}
