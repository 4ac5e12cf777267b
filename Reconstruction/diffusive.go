package Reconstruction

import (
	"fmt"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/FlowModel"
	"github.com/notargets/goamr/types"
)

type DiffusiveFluxReconstructorType uint

const (
	DIFFUSIVE_NONE DiffusiveFluxReconstructorType = iota
	DIFFUSIVE_SECOND_ORDER
)

var (
	DiffusiveFluxReconstructorNames = map[string]DiffusiveFluxReconstructorType{
		"NONE":         DIFFUSIVE_NONE,
		"SECOND_ORDER": DIFFUSIVE_SECOND_ORDER,
	}
	DiffusiveFluxReconstructorPrintNames = []string{"NONE", "SECOND_ORDER"}
)

func (dt DiffusiveFluxReconstructorType) Print() (txt string) {
	if int(dt) >= len(DiffusiveFluxReconstructorPrintNames) {
		return fmt.Sprintf("DiffusiveFluxReconstructorType(%d)", dt)
	}
	txt = DiffusiveFluxReconstructorPrintNames[dt]
	return
}

func (dt DiffusiveFluxReconstructorType) NumberOfGhostCells() int {
	if dt == DIFFUSIVE_SECOND_ORDER {
		return 1
	}
	return 0
}

func NewDiffusiveFluxReconstructorType(label string) (dt DiffusiveFluxReconstructorType, err error) {
	var (
		ok bool
	)
	if dt, ok = DiffusiveFluxReconstructorNames[label]; !ok {
		err = fmt.Errorf("unknown diffusive flux reconstructor %q", label)
	}
	return
}

// DiffusiveFluxReconstructor fills the diffusive face fluxes of a patch,
// integrated over dt
type DiffusiveFluxReconstructor interface {
	ComputeDiffusiveFluxesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext) error
	NumberOfGhostCells() int
	PutToRestart(db *Database.Database)
	Print() string
}

func NewDiffusiveFluxReconstructor(dt DiffusiveFluxReconstructorType, ft FlowModel.FlowModelType, model FlowModel.Handle) (r DiffusiveFluxReconstructor, err error) {
	switch dt {
	case DIFFUSIVE_NONE:
		r = &NoDiffusiveFlux{}
	case DIFFUSIVE_SECOND_ORDER:
		var du FlowModel.DiffusiveFluxUtilities
		if du, err = FlowModel.NewDiffusiveFluxUtilities(ft, model); err != nil {
			return
		}
		r = &SecondOrderDiffusiveFlux{model: model, utilities: du}
	default:
		err = fmt.Errorf("unknown diffusive flux reconstructor %s", dt.Print())
	}
	return
}

// NoDiffusiveFlux is the inviscid closure
type NoDiffusiveFlux struct{}

func (r *NoDiffusiveFlux) NumberOfGhostCells() int { return DIFFUSIVE_NONE.NumberOfGhostCells() }

func (r *NoDiffusiveFlux) Print() string { return DIFFUSIVE_NONE.Print() }

func (r *NoDiffusiveFlux) PutToRestart(db *Database.Database) {
	db.PutString("type", DIFFUSIVE_NONE.Print())
}

func (r *NoDiffusiveFlux) ComputeDiffusiveFluxesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext) error {
	patch.GetFaceData(DiffusiveFluxField, ctx).Fill(0)
	return nil
}

// SecondOrderDiffusiveFlux evaluates face gradients with a compact normal
// difference and the mean of the central tangential differences of the two
// cells sharing the face
type SecondOrderDiffusiveFlux struct {
	model     FlowModel.Handle
	utilities FlowModel.DiffusiveFluxUtilities
}

func (r *SecondOrderDiffusiveFlux) NumberOfGhostCells() int { return DIFFUSIVE_SECOND_ORDER.NumberOfGhostCells() }

func (r *SecondOrderDiffusiveFlux) Print() string { return DIFFUSIVE_SECOND_ORDER.Print() }

func (r *SecondOrderDiffusiveFlux) PutToRestart(db *Database.Database) {
	db.PutString("type", DIFFUSIVE_SECOND_ORDER.Print())
}

// faceDerivative differentiates component n of cd along derivDir on the face
// normal to fluxDir between cells cL and cR
func faceDerivative(cd *AMR.CellData, n int, fluxDir, derivDir types.Direction, dx []float64, cL, cR AMR.IntVector) float64 {
	if fluxDir == derivDir {
		return (cd.At(n, cR[0], cR[1], cR[2]) - cd.At(n, cL[0], cL[1], cL[2])) / dx[derivDir]
	}
	var (
		e       = unit(derivDir)
		central = func(c AMR.IntVector) float64 {
			p, m := c.Add(e), c.Sub(e)
			return cd.At(n, p[0], p[1], p[2]) - cd.At(n, m[0], m[1], m[2])
		}
	)
	return 0.5 * (central(cL) + central(cR)) / (2 * dx[derivDir])
}

func (r *SecondOrderDiffusiveFlux) ComputeDiffusiveFluxesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext) (err error) {
	var (
		fm *FlowModel.FlowModel
	)
	if fm, err = r.model.Resolve(); err != nil {
		return
	}
	var (
		D  = patch.GetFaceData(DiffusiveFluxField, ctx)
		dx = patch.GetDx()
	)
	D.Fill(0)
	if err = fm.RegisterPatchWithGlobalCellData(patch, map[FlowModel.Quantity]AMR.IntVector{}, ctx); err != nil {
		return
	}
	defer fm.UnregisterPatchWithGlobalCellData()
	defer r.utilities.ClearCellData()
	if err = r.utilities.RegisterDerivedVariablesForDiffusiveFluxes(AMR.NewIntVector(fm.Dim, r.NumberOfGhostCells())); err != nil {
		return
	}
	if err = r.utilities.ComputeDerivedCellData(); err != nil {
		return
	}
	for _, fd := range types.Directions(fm.Dim) {
		e := unit(fd)
		for _, dd := range types.Directions(fm.Dim) {
			var terms []FlowModel.DiffusiveTerm
			if terms, err = r.utilities.GetDiffusiveFluxTerms(fd, dd); err != nil {
				return
			}
			for _, term := range terms {
				if term.Coef == 0 {
					continue
				}
				D.ForEachFace(fd, func(i, j, k int) {
					var (
						cR     = AMR.IntVector{i, j, k}
						cL     = cR.Sub(e)
						weight = 1.
					)
					if term.WeightComponent >= 0 {
						weight = 0.5 * (term.Weight.At(term.WeightComponent, cL[0], cL[1], cL[2]) +
							term.Weight.At(term.WeightComponent, cR[0], cR[1], cR[2]))
					}
					val := D.At(fd, term.Eqn, i, j, k)
					val += dt * term.Coef * weight * faceDerivative(term.Variable, term.Component, fd, dd, dx, cL, cR)
					D.Set(fd, term.Eqn, i, j, k, val)
				})
			}
		}
	}
	return
}
