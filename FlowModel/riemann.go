package FlowModel

import (
	"fmt"

	"github.com/notargets/goamr/Riemann"
	"github.com/notargets/goamr/types"
)

func (fm *FlowModel) solver(rt Riemann.RiemannSolverType) (s Riemann.Solver, err error) {
	var ok bool
	if s, ok = fm.solvers[rt]; ok {
		return
	}
	if s, err = Riemann.NewSolver(rt, fm.EOS); err != nil {
		return nil, fmt.Errorf("%s: %w", fm.Name, err)
	}
	fm.solvers[rt] = s
	return
}

// ComputeLocalFaceFluxAndVelocityFromRiemannSolverWithConservativeVariables
// solves the Riemann problem between two conservative states. The intercell
// velocity carries the normal velocity of the solver and the tangential
// velocity of the upwind side.
func (fm *FlowModel) ComputeLocalFaceFluxAndVelocityFromRiemannSolverWithConservativeVariables(
	qMinus, qPlus []float64, dir types.Direction, rt Riemann.RiemannSolverType) (flux, velocity []float64, err error) {
	var s Riemann.Solver
	if s, err = fm.solver(rt); err != nil {
		return
	}
	if err = fm.checkDirection(dir); err != nil {
		return
	}
	flux = make([]float64, fm.NumberOfEquations())
	velocity = make([]float64, fm.Dim)
	un := s.ComputeIntercellFluxFromConservativeVariables(flux, qMinus, qPlus, dir)
	upwind := qMinus
	if un < 0 {
		upwind = qPlus
	}
	for d := 0; d < fm.Dim; d++ {
		velocity[d] = upwind[1+d] / upwind[0]
	}
	velocity[dir] = un
	return
}

// ComputeLocalFaceFluxAndVelocityFromRiemannSolverWithPrimitiveVariables is
// the primitive variable counterpart, states are [rho, u..., p]
func (fm *FlowModel) ComputeLocalFaceFluxAndVelocityFromRiemannSolverWithPrimitiveVariables(
	vMinus, vPlus []float64, dir types.Direction, rt Riemann.RiemannSolverType) (flux, velocity []float64, err error) {
	var s Riemann.Solver
	if s, err = fm.solver(rt); err != nil {
		return
	}
	if err = fm.checkDirection(dir); err != nil {
		return
	}
	flux = make([]float64, fm.NumberOfEquations())
	velocity = make([]float64, fm.Dim)
	un := s.ComputeIntercellFluxFromPrimitiveVariables(flux, vMinus, vPlus, dir)
	upwind := vMinus
	if un < 0 {
		upwind = vPlus
	}
	copy(velocity, upwind[1:1+fm.Dim])
	velocity[dir] = un
	return
}

func (fm *FlowModel) checkDirection(dir types.Direction) error {
	if !dir.Valid(fm.Dim) {
		return fmt.Errorf("%s: direction %s in %d dimension: %w", fm.Name, dir.Print(), fm.Dim, ErrDimension)
	}
	return nil
}

// ConvertConservativeToPrimitive maps [rho, rho*u..., E] onto [rho, u..., p]
func (fm *FlowModel) ConvertConservativeToPrimitive(q, v []float64) {
	var (
		last = fm.Dim + 1
	)
	v[0] = q[0]
	for d := 0; d < fm.Dim; d++ {
		v[1+d] = q[1+d] / q[0]
	}
	v[last] = fm.EOS.GetPressure(q[0], q[1:1+fm.Dim], q[last])
}

// ConvertPrimitiveToConservative maps [rho, u..., p] onto [rho, rho*u..., E]
func (fm *FlowModel) ConvertPrimitiveToConservative(v, q []float64) {
	var (
		last = fm.Dim + 1
	)
	q[0] = v[0]
	for d := 0; d < fm.Dim; d++ {
		q[1+d] = v[0] * v[1+d]
	}
	q[last] = fm.EOS.GetTotalEnergy(v[0], v[1:1+fm.Dim], v[last])
}

// HaveConservativeVariablesBounded is false when density or total energy is
// not positive
func (fm *FlowModel) HaveConservativeVariablesBounded(q []float64) bool {
	return q[0] > 0 && q[fm.Dim+1] > 0
}

// HavePrimitiveVariablesBounded is false when density or pressure is not
// positive
func (fm *FlowModel) HavePrimitiveVariablesBounded(v []float64) bool {
	return v[0] > 0 && v[fm.Dim+1] > 0
}
