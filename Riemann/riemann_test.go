package Riemann

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goamr/EOS"
	"github.com/notargets/goamr/types"
)

func near(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}

// conservativeState builds [rho, rho*u, E] from primitive values
func conservativeState(eos EOS.EquationOfState, rho float64, u []float64, p float64) (q []float64) {
	q = make([]float64, len(u)+2)
	q[0] = rho
	for d, ud := range u {
		q[1+d] = rho * ud
	}
	q[len(u)+1] = eos.GetTotalEnergy(rho, u, p)
	return
}

func mirror(q []float64, dir types.Direction) (m []float64) {
	m = append([]float64(nil), q...)
	m[1+int(dir)] = -m[1+int(dir)]
	return
}

func testStates(eos EOS.EquationOfState, dim int) (states [][]float64) {
	var (
		rhos = []float64{1, 0.125, 3.2, 0.8}
		ps   = []float64{1, 0.1, 10, 0.4}
		us   = [][3]float64{{0, 0, 0}, {0.75, -0.2, 0.1}, {-2.5, 1.1, 0.4}, {4, 0.3, -1.5}}
	)
	for i := range rhos {
		states = append(states, conservativeState(eos, rhos[i], us[i][:dim], ps[i]))
	}
	return
}

func TestRiemannConsistency(t *testing.T) {
	eos, err := EOS.NewIdealGas(1.4)
	require.NoError(t, err)
	for _, rt := range []RiemannSolverType{HLLC_RIEMANN_SOLVER, HLLC_HLL_RIEMANN_SOLVER} {
		solver, err := NewSolver(rt, eos)
		require.NoError(t, err)
		for dim := 1; dim <= 3; dim++ {
			for _, q := range testStates(eos, dim) {
				for _, dir := range types.Directions(dim) {
					var (
						n        = dim + 2
						fRiemann = make([]float64, n)
						fExact   = make([]float64, n)
					)
					vel := solver.ComputeIntercellFluxFromConservativeVariables(fRiemann, q, q, dir)
					PhysicalFlux(fExact, q, dir, eos)
					for ei := 0; ei < n; ei++ {
						assert.True(t, near(fExact[ei], fRiemann[ei], 1e-12),
							"%s dim %d dir %s eqn %d: %v != %v", rt.Print(), dim, dir.Print(), ei, fExact[ei], fRiemann[ei])
					}
					assert.True(t, near(q[1+int(dir)]/q[0], vel, 1e-12))
				}
			}
		}
	}
}

func TestRiemannSymmetry(t *testing.T) {
	eos, err := EOS.NewIdealGas(1.4)
	require.NoError(t, err)
	for _, rt := range []RiemannSolverType{HLLC_RIEMANN_SOLVER, HLLC_HLL_RIEMANN_SOLVER} {
		solver, err := NewSolver(rt, eos)
		require.NoError(t, err)
		for dim := 1; dim <= 3; dim++ {
			states := testStates(eos, dim)
			for _, A := range states {
				for _, B := range states {
					for _, dir := range types.Directions(dim) {
						var (
							n   = dim + 2
							fAB = make([]float64, n)
							fBA = make([]float64, n)
						)
						solver.ComputeIntercellFluxFromConservativeVariables(fAB, A, B, dir)
						// B on the minus side of the reversed face normal
						solver.ComputeIntercellFluxFromConservativeVariables(fBA, mirror(B, dir), mirror(A, dir), dir)
						fBA = mirror(fBA, dir)
						for ei := 0; ei < n; ei++ {
							assert.True(t, near(fAB[ei], -fBA[ei], 1e-10),
								"%s dim %d dir %s eqn %d: %v != %v", rt.Print(), dim, dir.Print(), ei, fAB[ei], -fBA[ei])
						}
					}
				}
			}
		}
	}
}

func TestRiemannPrimitiveAndDispatch(t *testing.T) {
	eos, err := EOS.NewIdealGas(1.4)
	require.NoError(t, err)
	{ // Primitive entry point agrees with the conservative one
		solver, err := NewSolver(HLLC_RIEMANN_SOLVER, eos)
		require.NoError(t, err)
		vL := []float64{1, 0.2, -0.1, 1}
		vR := []float64{0.125, -0.3, 0.4, 0.1}
		qL := conservativeState(eos, vL[0], vL[1:3], vL[3])
		qR := conservativeState(eos, vR[0], vR[1:3], vR[3])
		fP, fC := make([]float64, 4), make([]float64, 4)
		velP := solver.ComputeIntercellFluxFromPrimitiveVariables(fP, vL, vR, types.Y_DIRECTION)
		velC := solver.ComputeIntercellFluxFromConservativeVariables(fC, qL, qR, types.Y_DIRECTION)
		assert.InDeltaSlice(t, fC, fP, 1e-13)
		assert.InDelta(t, velC, velP, 1e-13)
	}
	{ // Sod problem: the face flux of mass is positive, momentum flux is between the two pressures
		solver, err := NewSolver(HLLC_HLL_RIEMANN_SOLVER, eos)
		require.NoError(t, err)
		f := make([]float64, 3)
		vel := solver.ComputeIntercellFluxFromPrimitiveVariables(f, []float64{1, 0, 1}, []float64{0.125, 0, 0.1}, types.X_DIRECTION)
		assert.Greater(t, f[0], 0.)
		assert.Greater(t, vel, 0.)
		assert.True(t, f[1] > 0.1 && f[1] < 1)
	}
	{ // Blend weights sum to one, a pure shear jump is all HLL
		L := newStateFromPrimitive([]float64{1, 0.3, 0.1, 1}, types.X_DIRECTION, eos)
		R := newStateFromPrimitive([]float64{1, -0.2, 0.6, 1}, types.X_DIRECTION, eos)
		b1, b2 := blendWeights(L, R, types.X_DIRECTION)
		assert.InDelta(t, 1., b1+b2, 1e-12)
		assert.InDelta(t, 0.5, b1, 1e-12)
		R = newStateFromPrimitive([]float64{1, 0.3, 0.6, 1}, types.X_DIRECTION, eos)
		b1, b2 = blendWeights(L, R, types.X_DIRECTION)
		assert.Equal(t, 0., b1)
		assert.Equal(t, 1., b2)
		b1, b2 = blendWeights(L, L, types.X_DIRECTION)
		assert.Equal(t, 1., b1)
		assert.Equal(t, 0., b2)
	}
	{ // Unknown solver
		_, err := NewSolver(RiemannSolverType(7), eos)
		assert.True(t, errors.Is(err, ErrUnknownRiemannSolver))
		_, err = NewRiemannSolverType("roe")
		assert.True(t, errors.Is(err, ErrUnknownRiemannSolver))
		rt, err := NewRiemannSolverType("hllc_hll")
		require.NoError(t, err)
		assert.Equal(t, "HLLC-HLL", rt.Print())
	}
}
