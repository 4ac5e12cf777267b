package FlowModel

import (
	"fmt"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/types"
	"github.com/notargets/goamr/utils"
)

// faceState is the averaged state of the two cells sharing a face
type faceState struct {
	rho, c, p float64
	u         [3]float64
}

func (fm *FlowModel) averagedFaceState(label string, cellMinus, cellPlus AMR.IntVector, withVelocity bool) (fs faceState, err error) {
	if !fm.projectionRegistered {
		return fs, fmt.Errorf("%s: %s: face projection matrices are not registered", fm.Name, label)
	}
	switch fm.projectionAveraging {
	case SIMPLE_AVG:
	case ROE_AVG:
		return fs, fmt.Errorf("%s: Roe averaging is %w", fm.Name, ErrNotImplemented)
	default:
		return fs, fmt.Errorf("%s: unknown averaging %s", fm.Name, fm.projectionAveraging.Print())
	}
	var (
		rho, _, _ = fm.conservative()
		c, vel, p *AMR.CellData
	)
	if c, err = fm.GetGlobalCellData(SOUND_SPEED); err != nil {
		return
	}
	if p, err = fm.GetGlobalCellData(PRESSURE); err != nil {
		return
	}
	if err = fm.checkCells(label, SOUND_SPEED, c, cellMinus, cellPlus); err != nil {
		return
	}
	var (
		m, pl = cellMinus, cellPlus
	)
	fs.rho = 0.5 * (rho.At(0, m[0], m[1], m[2]) + rho.At(0, pl[0], pl[1], pl[2]))
	fs.c = 0.5 * (c.At(0, m[0], m[1], m[2]) + c.At(0, pl[0], pl[1], pl[2]))
	fs.p = 0.5 * (p.At(0, m[0], m[1], m[2]) + p.At(0, pl[0], pl[1], pl[2]))
	if withVelocity {
		if vel, err = fm.GetGlobalCellData(VELOCITY); err != nil {
			return
		}
		if err = fm.checkCells(label, VELOCITY, vel, cellMinus, cellPlus); err != nil {
			return
		}
		for d := 0; d < fm.Dim; d++ {
			fs.u[d] = 0.5 * (vel.At(d, m[0], m[1], m[2]) + vel.At(d, pl[0], pl[1], pl[2]))
		}
	}
	return
}

func (fm *FlowModel) checkCells(label string, q Quantity, cd *AMR.CellData, cells ...AMR.IntVector) error {
	for _, cell := range cells {
		if !cd.GhostBox.Contains(cell.Add(cd.Box.Lower)) {
			return fmt.Errorf("%s: %s: cell %v is outside of the %v ghost region of '%s'",
				fm.Name, label, cell, cd.Ghosts, q.Print())
		}
	}
	return nil
}

// tangential lists the velocity axes other than dir, in increasing order
func tangential(dim int, dir types.Direction) (axes []int) {
	for d := 0; d < dim; d++ {
		if d != int(dir) {
			axes = append(axes, d)
		}
	}
	return
}

// PrimitiveProjectionMatrix projects primitive variables [rho, u..., p] onto
// the characteristic variables of direction dir: the left going acoustic wave,
// entropy, shear waves, right going acoustic wave.
func PrimitiveProjectionMatrix(dim int, dir types.Direction, rho, c float64) (P utils.Matrix) {
	var (
		n    = dim + 2
		last = n - 1
		un   = 1 + int(dir)
	)
	P = utils.NewMatrix(n, n)
	P.Set(0, un, -0.5*rho*c)
	P.Set(0, last, 0.5)
	P.Set(1, 0, 1)
	P.Set(1, last, -1/(c*c))
	for m, t := range tangential(dim, dir) {
		P.Set(2+m, 1+t, 1)
	}
	P.Set(last, un, 0.5*rho*c)
	P.Set(last, last, 0.5)
	return
}

// PrimitiveProjectionMatrixInverse is the right eigenvector matrix matching
// PrimitiveProjectionMatrix
func PrimitiveProjectionMatrixInverse(dim int, dir types.Direction, rho, c float64) (R utils.Matrix) {
	var (
		n    = dim + 2
		last = n - 1
		un   = 1 + int(dir)
	)
	R = utils.NewMatrix(n, n)
	R.Set(0, 0, 1/(c*c))
	R.Set(0, 1, 1)
	R.Set(0, last, 1/(c*c))
	R.Set(un, 0, -1/(rho*c))
	R.Set(un, last, 1/(rho*c))
	for m, t := range tangential(dim, dir) {
		R.Set(1+t, 2+m, 1)
	}
	R.Set(last, 0, 1)
	R.Set(last, last, 1)
	return
}

// primitiveJacobian is dV/dU, the derivative of [rho, u..., p] with respect
// to [rho, rho*u..., E]
func (fm *FlowModel) primitiveJacobian(fs faceState) (J utils.Matrix) {
	var (
		n     = fm.NumberOfEquations()
		last  = n - 1
		e     = fm.EOS.GetInternalEnergy(fs.rho, fs.p)
		gamma = fm.EOS.GetGruneisenParameter(fs.rho, fs.p)
		pRho  = fm.EOS.GetPressureDerivativeWithDensity(fs.rho, fs.p)
		u2    float64
	)
	J = utils.NewMatrix(n, n)
	J.Set(0, 0, 1)
	for d := 0; d < fm.Dim; d++ {
		u2 += fs.u[d] * fs.u[d]
		J.Set(1+d, 0, -fs.u[d]/fs.rho)
		J.Set(1+d, 1+d, 1/fs.rho)
		J.Set(last, 1+d, -gamma*fs.u[d])
	}
	J.Set(last, 0, pRho+gamma*(0.5*u2-e))
	J.Set(last, last, gamma)
	return
}

// conservativeJacobian is dU/dV, the inverse of primitiveJacobian
func (fm *FlowModel) conservativeJacobian(fs faceState) (J utils.Matrix) {
	var (
		n     = fm.NumberOfEquations()
		last  = n - 1
		e     = fm.EOS.GetInternalEnergy(fs.rho, fs.p)
		gamma = fm.EOS.GetGruneisenParameter(fs.rho, fs.p)
		pRho  = fm.EOS.GetPressureDerivativeWithDensity(fs.rho, fs.p)
		u2    float64
	)
	J = utils.NewMatrix(n, n)
	J.Set(0, 0, 1)
	for d := 0; d < fm.Dim; d++ {
		u2 += fs.u[d] * fs.u[d]
		J.Set(1+d, 0, fs.u[d])
		J.Set(1+d, 1+d, fs.rho)
		J.Set(last, 1+d, fs.rho*fs.u[d])
	}
	J.Set(last, 0, e-pRho/gamma+0.5*u2)
	J.Set(last, last, 1/gamma)
	return
}

// ComputeLocalFaceProjectionMatrixOfPrimitiveVariables builds the projection
// matrix on the face between the local cells cellMinus and cellPlus
func (fm *FlowModel) ComputeLocalFaceProjectionMatrixOfPrimitiveVariables(dir types.Direction, cellMinus, cellPlus AMR.IntVector) (P utils.Matrix, err error) {
	var fs faceState
	if fs, err = fm.averagedFaceState("primitive projection", cellMinus, cellPlus, false); err != nil {
		return
	}
	P = PrimitiveProjectionMatrix(fm.Dim, dir, fs.rho, fs.c)
	return
}

func (fm *FlowModel) ComputeLocalFaceProjectionMatrixInverseOfPrimitiveVariables(dir types.Direction, cellMinus, cellPlus AMR.IntVector) (R utils.Matrix, err error) {
	var fs faceState
	if fs, err = fm.averagedFaceState("primitive projection inverse", cellMinus, cellPlus, false); err != nil {
		return
	}
	R = PrimitiveProjectionMatrixInverse(fm.Dim, dir, fs.rho, fs.c)
	return
}

// ComputeLocalFaceProjectionMatrixOfConservativeVariables is the primitive
// projection chained with the change of variables dV/dU at the face state
func (fm *FlowModel) ComputeLocalFaceProjectionMatrixOfConservativeVariables(dir types.Direction, cellMinus, cellPlus AMR.IntVector) (L utils.Matrix, err error) {
	var fs faceState
	if fs, err = fm.averagedFaceState("conservative projection", cellMinus, cellPlus, true); err != nil {
		return
	}
	L = PrimitiveProjectionMatrix(fm.Dim, dir, fs.rho, fs.c).Mul(fm.primitiveJacobian(fs))
	return
}

func (fm *FlowModel) ComputeLocalFaceProjectionMatrixInverseOfConservativeVariables(dir types.Direction, cellMinus, cellPlus AMR.IntVector) (R utils.Matrix, err error) {
	var fs faceState
	if fs, err = fm.averagedFaceState("conservative projection inverse", cellMinus, cellPlus, true); err != nil {
		return
	}
	R = fm.conservativeJacobian(fs).Mul(PrimitiveProjectionMatrixInverse(fm.Dim, dir, fs.rho, fs.c))
	return
}
