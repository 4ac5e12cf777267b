package Reconstruction

import (
	"fmt"
	"math"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/FlowModel"
	"github.com/notargets/goamr/Riemann"
	"github.com/notargets/goamr/types"
	"github.com/notargets/goamr/utils"
)

// Names of the flux and source fields the reconstructors fill
const (
	ConvectiveFluxField = "CONVECTIVE_FLUX"
	DiffusiveFluxField  = "DIFFUSIVE_FLUX"
	SourceField         = "SOURCE"
)

type ConvectiveFluxReconstructorType uint

const (
	FIRST_ORDER_GODUNOV ConvectiveFluxReconstructorType = iota
	SECOND_ORDER_MUSCL
)

var (
	ConvectiveFluxReconstructorNames = map[string]ConvectiveFluxReconstructorType{
		"FIRST_ORDER_GODUNOV": FIRST_ORDER_GODUNOV,
		"SECOND_ORDER_MUSCL":  SECOND_ORDER_MUSCL,
	}
	ConvectiveFluxReconstructorPrintNames = []string{"FIRST_ORDER_GODUNOV", "SECOND_ORDER_MUSCL"}
)

func (ct ConvectiveFluxReconstructorType) Print() (txt string) {
	if int(ct) >= len(ConvectiveFluxReconstructorPrintNames) {
		return fmt.Sprintf("ConvectiveFluxReconstructorType(%d)", ct)
	}
	txt = ConvectiveFluxReconstructorPrintNames[ct]
	return
}

// NumberOfGhostCells is the ghost width the reconstructor reads
func (ct ConvectiveFluxReconstructorType) NumberOfGhostCells() int {
	if ct == SECOND_ORDER_MUSCL {
		return 2
	}
	return 1
}

func NewConvectiveFluxReconstructorType(label string) (ct ConvectiveFluxReconstructorType, err error) {
	var (
		ok bool
	)
	if ct, ok = ConvectiveFluxReconstructorNames[label]; !ok {
		err = fmt.Errorf("unknown convective flux reconstructor %q", label)
	}
	return
}

// ConvectiveFluxReconstructor fills the convective face fluxes of a patch,
// integrated over dt, from the conservative data in ctx. Ghost cells of that
// data must be filled over NumberOfGhostCells.
type ConvectiveFluxReconstructor interface {
	ComputeConvectiveFluxesAndSourcesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext) error
	NumberOfGhostCells() int
	PutToRestart(db *Database.Database)
	Print() string
}

// NewConvectiveFluxReconstructor reads the Riemann solver from db, which may
// be nil for the default HLLC solver
func NewConvectiveFluxReconstructor(ct ConvectiveFluxReconstructorType, model FlowModel.Handle, db *Database.Database) (r ConvectiveFluxReconstructor, err error) {
	var (
		label = "hllc"
		rt    Riemann.RiemannSolverType
	)
	if db != nil {
		if label, err = db.GetStringWithDefault("riemann_solver", label); err != nil {
			return
		}
	}
	if rt, err = Riemann.NewRiemannSolverType(label); err != nil {
		return
	}
	base := convectiveBase{model: model, riemann: rt, riemannLabel: label}
	switch ct {
	case FIRST_ORDER_GODUNOV:
		r = &FirstOrderGodunov{convectiveBase: base}
	case SECOND_ORDER_MUSCL:
		m := &SecondOrderMUSCL{convectiveBase: base, Averaging: FlowModel.SIMPLE_AVG}
		if db != nil {
			var avg string
			if avg, err = db.GetStringWithDefault("averaging", "simple"); err != nil {
				return
			}
			if m.Averaging, err = FlowModel.NewAveragingType(avg); err != nil {
				return
			}
			m.averagingLabel = avg
		}
		r = m
	default:
		err = fmt.Errorf("unknown convective flux reconstructor %s", ct.Print())
	}
	return
}

type convectiveBase struct {
	model        FlowModel.Handle
	riemann      Riemann.RiemannSolverType
	riemannLabel string
}

func (cb *convectiveBase) putToRestart(db *Database.Database, ct ConvectiveFluxReconstructorType) {
	db.PutString("type", ct.Print())
	db.PutString("riemann_solver", cb.riemannLabel)
}

// cellState gathers the conservative state of local cell c
func cellState(eqs []FlowModel.EquationData, q []float64, c AMR.IntVector) {
	for ei := range eqs {
		q[ei] = eqs[ei].At(c[0], c[1], c[2])
	}
}

func unit(dir types.Direction) (e AMR.IntVector) {
	e[dir] = 1
	return
}

// FirstOrderGodunov feeds the cell averages adjacent to each face to the
// Riemann solver
type FirstOrderGodunov struct {
	convectiveBase
}

func (r *FirstOrderGodunov) NumberOfGhostCells() int { return FIRST_ORDER_GODUNOV.NumberOfGhostCells() }

func (r *FirstOrderGodunov) Print() string {
	return fmt.Sprintf("%s with %s Riemann solver", FIRST_ORDER_GODUNOV.Print(), r.riemann.Print())
}

func (r *FirstOrderGodunov) PutToRestart(db *Database.Database) {
	r.putToRestart(db, FIRST_ORDER_GODUNOV)
}

func (r *FirstOrderGodunov) ComputeConvectiveFluxesAndSourcesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext) (err error) {
	var (
		fm  *FlowModel.FlowModel
		eqs []FlowModel.EquationData
	)
	if fm, err = r.model.Resolve(); err != nil {
		return
	}
	if err = fm.RegisterPatchWithGlobalCellData(patch, map[FlowModel.Quantity]AMR.IntVector{}, ctx); err != nil {
		return
	}
	defer fm.UnregisterPatchWithGlobalCellData()
	if eqs, err = fm.ConservativeEquations(); err != nil {
		return
	}
	var (
		F      = patch.GetFaceData(ConvectiveFluxField, ctx)
		nEq    = fm.NumberOfEquations()
		qMinus = make([]float64, nEq)
		qPlus  = make([]float64, nEq)
		flux   []float64
	)
	for _, dir := range types.Directions(fm.Dim) {
		F.ForEachFace(dir, func(i, j, k int) {
			if err != nil {
				return
			}
			plus := AMR.IntVector{i, j, k}
			cellState(eqs, qMinus, plus.Sub(unit(dir)))
			cellState(eqs, qPlus, plus)
			if flux, _, err = fm.ComputeLocalFaceFluxAndVelocityFromRiemannSolverWithConservativeVariables(
				qMinus, qPlus, dir, r.riemann); err != nil {
				return
			}
			for ei := 0; ei < nEq; ei++ {
				F.Set(dir, ei, i, j, k, dt*flux[ei])
			}
		})
		if err != nil {
			return
		}
	}
	return
}

// SecondOrderMUSCL reconstructs primitive face states from minmod limited
// slopes of the characteristic variables of each face
type SecondOrderMUSCL struct {
	convectiveBase
	Averaging      FlowModel.AveragingType
	averagingLabel string
}

func (r *SecondOrderMUSCL) NumberOfGhostCells() int { return SECOND_ORDER_MUSCL.NumberOfGhostCells() }

func (r *SecondOrderMUSCL) Print() string {
	return fmt.Sprintf("%s with %s Riemann solver, %s", SECOND_ORDER_MUSCL.Print(), r.riemann.Print(), r.Averaging.Print())
}

func (r *SecondOrderMUSCL) PutToRestart(db *Database.Database) {
	r.putToRestart(db, SECOND_ORDER_MUSCL)
	label := r.averagingLabel
	if label == "" {
		label = "simple"
	}
	db.PutString("averaging", label)
}

func minmod(a, b float64) float64 {
	if a*b <= 0 {
		return 0
	}
	if math.Abs(a) < math.Abs(b) {
		return a
	}
	return b
}

// limitedSlope returns the primitive slope of the cell centered at v0 with
// neighbours vm and vp, limited in the characteristic variables of P
func limitedSlope(P, R utils.Matrix, vm, v0, vp []float64) (slope []float64) {
	var (
		n      = len(v0)
		dMinus = make([]float64, n)
		dPlus  = make([]float64, n)
		wMinus = make([]float64, n)
		wPlus  = make([]float64, n)
		wSlope = make([]float64, n)
	)
	for i := 0; i < n; i++ {
		dMinus[i] = v0[i] - vm[i]
		dPlus[i] = vp[i] - v0[i]
	}
	P.MulVec(dMinus, wMinus)
	P.MulVec(dPlus, wPlus)
	for i := 0; i < n; i++ {
		wSlope[i] = minmod(wMinus[i], wPlus[i])
	}
	slope = make([]float64, n)
	R.MulVec(wSlope, slope)
	return
}

func (r *SecondOrderMUSCL) ComputeConvectiveFluxesAndSourcesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext) (err error) {
	var (
		fm   *FlowModel.FlowModel
		prim []*AMR.CellData
	)
	if fm, err = r.model.Resolve(); err != nil {
		return
	}
	var (
		dim    = fm.Dim
		nEq    = fm.NumberOfEquations()
		wCells = AMR.NewIntVector(dim, r.NumberOfGhostCells())
		wFaces = AMR.NewIntVector(dim, 1)
	)
	if err = fm.RegisterPatchWithGlobalCellData(patch,
		map[FlowModel.Quantity]AMR.IntVector{FlowModel.PRIMITIVE_VARIABLES: wCells}, ctx); err != nil {
		return
	}
	defer fm.UnregisterPatchWithGlobalCellData()
	if err = fm.RegisterFaceProjectionMatricesOfPrimitiveVariables(wFaces, r.Averaging); err != nil {
		return
	}
	if err = fm.ComputeGlobalCellData(); err != nil {
		return
	}
	if prim, err = fm.GetGlobalCellDataPrimitiveVariables(); err != nil {
		return
	}
	var (
		eqs   = FlowModel.Equations(prim)
		F     = patch.GetFaceData(ConvectiveFluxField, ctx)
		state = func(c AMR.IntVector) (v []float64) {
			v = make([]float64, nEq)
			for ei := range eqs {
				v[ei] = eqs[ei].At(c[0], c[1], c[2])
			}
			return
		}
	)
	for _, dir := range types.Directions(dim) {
		e := unit(dir)
		F.ForEachFace(dir, func(i, j, k int) {
			if err != nil {
				return
			}
			var (
				cR     = AMR.IntVector{i, j, k}
				cL     = cR.Sub(e)
				P, R   utils.Matrix
				flux   []float64
				vL, vR = state(cL), state(cR)
				vLL    = state(cL.Sub(e))
				vRR    = state(cR.Add(e))
			)
			if P, err = fm.ComputeLocalFaceProjectionMatrixOfPrimitiveVariables(dir, cL, cR); err != nil {
				return
			}
			if R, err = fm.ComputeLocalFaceProjectionMatrixInverseOfPrimitiveVariables(dir, cL, cR); err != nil {
				return
			}
			var (
				sL     = limitedSlope(P, R, vLL, vL, vR)
				sR     = limitedSlope(P, R, vL, vR, vRR)
				vMinus = make([]float64, nEq)
				vPlus  = make([]float64, nEq)
			)
			for ei := 0; ei < nEq; ei++ {
				vMinus[ei] = vL[ei] + 0.5*sL[ei]
				vPlus[ei] = vR[ei] - 0.5*sR[ei]
			}
			if !fm.HavePrimitiveVariablesBounded(vMinus) || !fm.HavePrimitiveVariablesBounded(vPlus) {
				vMinus, vPlus = vL, vR
			}
			if flux, _, err = fm.ComputeLocalFaceFluxAndVelocityFromRiemannSolverWithPrimitiveVariables(
				vMinus, vPlus, dir, r.riemann); err != nil {
				return
			}
			for ei := 0; ei < nEq; ei++ {
				F.Set(dir, ei, i, j, k, dt*flux[ei])
			}
		})
		if err != nil {
			return
		}
	}
	return
}
