package Riemann

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/goamr/EOS"
	"github.com/notargets/goamr/types"
)

type RiemannSolverType uint

const (
	HLLC_RIEMANN_SOLVER RiemannSolverType = iota
	HLLC_HLL_RIEMANN_SOLVER
)

var (
	RiemannSolverNames = map[string]RiemannSolverType{
		"hllc":     HLLC_RIEMANN_SOLVER,
		"hllc_hll": HLLC_HLL_RIEMANN_SOLVER,
	}
	RiemannSolverPrintNames = []string{"HLLC", "HLLC-HLL"}
)

var ErrUnknownRiemannSolver = errors.New("unknown Riemann solver")

func (rt RiemannSolverType) Print() (txt string) {
	if int(rt) >= len(RiemannSolverPrintNames) {
		return fmt.Sprintf("RiemannSolverType(%d)", rt)
	}
	txt = RiemannSolverPrintNames[rt]
	return
}

func NewRiemannSolverType(label string) (rt RiemannSolverType, err error) {
	var (
		ok bool
	)
	if rt, ok = RiemannSolverNames[label]; !ok {
		err = fmt.Errorf("%q: %w", label, ErrUnknownRiemannSolver)
	}
	return
}

// Solver computes the numerical flux through a face normal to dir from the
// states on its minus and plus sides. The returned velocity is the intercell
// normal velocity.
type Solver interface {
	ComputeIntercellFluxFromConservativeVariables(flux, qMinus, qPlus []float64, dir types.Direction) (velocity float64)
	ComputeIntercellFluxFromPrimitiveVariables(flux, vMinus, vPlus []float64, dir types.Direction) (velocity float64)
}

func NewSolver(rt RiemannSolverType, eos EOS.EquationOfState) (s Solver, err error) {
	switch rt {
	case HLLC_RIEMANN_SOLVER:
		s = &HLLC{EOS: eos}
	case HLLC_HLL_RIEMANN_SOLVER:
		s = &HLLC_HLL{HLLC: HLLC{EOS: eos}}
	default:
		err = fmt.Errorf("%s: %w", rt.Print(), ErrUnknownRiemannSolver)
	}
	return
}

// state is one side of the face in both variable sets
type state struct {
	dim      int
	rho, p   float64
	c, E, un float64
	u        [3]float64
}

func newStateFromConservative(q []float64, dir types.Direction, eos EOS.EquationOfState) (s state) {
	s.dim = len(q) - 2
	s.rho = q[0]
	s.E = q[s.dim+1]
	for d := 0; d < s.dim; d++ {
		s.u[d] = q[1+d] / s.rho
	}
	s.p = eos.GetPressure(s.rho, q[1:1+s.dim], s.E)
	s.c = eos.GetSoundSpeedWithPressure(s.rho, s.p)
	s.un = s.u[dir]
	return
}

func newStateFromPrimitive(v []float64, dir types.Direction, eos EOS.EquationOfState) (s state) {
	s.dim = len(v) - 2
	s.rho = v[0]
	s.p = v[s.dim+1]
	copy(s.u[:s.dim], v[1:1+s.dim])
	s.E = eos.GetTotalEnergy(s.rho, s.u[:s.dim], s.p)
	s.c = eos.GetSoundSpeedWithPressure(s.rho, s.p)
	s.un = s.u[dir]
	return
}

func (s state) conservative(q []float64) {
	q[0] = s.rho
	for d := 0; d < s.dim; d++ {
		q[1+d] = s.rho * s.u[d]
	}
	q[s.dim+1] = s.E
}

// flux is the physical Euler flux normal to dir
func (s state) flux(f []float64, dir types.Direction) {
	f[0] = s.rho * s.un
	for d := 0; d < s.dim; d++ {
		f[1+d] = s.rho * s.un * s.u[d]
	}
	f[1+int(dir)] += s.p
	f[s.dim+1] = s.un * (s.E + s.p)
}

// PhysicalFlux evaluates the Euler flux normal to dir of conservative state q
func PhysicalFlux(flux, q []float64, dir types.Direction, eos EOS.EquationOfState) {
	newStateFromConservative(q, dir, eos).flux(flux, dir)
}

// waveSpeeds are the Davis estimates of the outermost signal speeds
func waveSpeeds(L, R state) (sL, sR float64) {
	sL = math.Min(L.un-L.c, R.un-R.c)
	sR = math.Max(L.un+L.c, R.un+R.c)
	return
}

func contactSpeed(L, R state, sL, sR float64) float64 {
	var (
		mL = L.rho * (sL - L.un)
		mR = R.rho * (sR - R.un)
	)
	return (R.p - L.p + L.un*mL - R.un*mR) / (mL - mR)
}

// starFlux writes F_K + s_K*(Q*_K - Q_K)
func starFlux(f []float64, K state, sK, sStar float64, dir types.Direction) {
	var (
		n    = K.dim + 2
		q    = make([]float64, n)
		coef = K.rho * (sK - K.un) / (sK - sStar)
	)
	K.conservative(q)
	K.flux(f, dir)
	f[0] += sK * (coef - q[0])
	for d := 0; d < K.dim; d++ {
		uStar := K.u[d]
		if d == int(dir) {
			uStar = sStar
		}
		f[1+d] += sK * (coef*uStar - q[1+d])
	}
	eStar := coef * (K.E/K.rho + (sStar-K.un)*(sStar+K.p/(K.rho*(sK-K.un))))
	f[n-1] += sK * (eStar - q[n-1])
}

// HLLC restores the contact wave missing from HLL
type HLLC struct {
	EOS EOS.EquationOfState
}

func (s *HLLC) ComputeIntercellFluxFromConservativeVariables(flux, qMinus, qPlus []float64, dir types.Direction) float64 {
	return s.solve(flux,
		newStateFromConservative(qMinus, dir, s.EOS),
		newStateFromConservative(qPlus, dir, s.EOS), dir)
}

func (s *HLLC) ComputeIntercellFluxFromPrimitiveVariables(flux, vMinus, vPlus []float64, dir types.Direction) float64 {
	return s.solve(flux,
		newStateFromPrimitive(vMinus, dir, s.EOS),
		newStateFromPrimitive(vPlus, dir, s.EOS), dir)
}

func (s *HLLC) solve(flux []float64, L, R state, dir types.Direction) (velocity float64) {
	var (
		sL, sR = waveSpeeds(L, R)
		sStar  = contactSpeed(L, R, sL, sR)
	)
	switch {
	case sL >= 0:
		L.flux(flux, dir)
		velocity = L.un
	case sStar >= 0:
		starFlux(flux, L, sL, sStar, dir)
		velocity = sStar
	case sR > 0:
		starFlux(flux, R, sR, sStar, dir)
		velocity = sStar
	default:
		R.flux(flux, dir)
		velocity = R.un
	}
	return
}

// HLLC_HLL blends HLLC with the more dissipative HLL flux. The HLL share
// grows as the velocity jump across the face turns transverse to the face,
// which suppresses the carbuncle of grid aligned shocks.
type HLLC_HLL struct {
	HLLC
}

func (s *HLLC_HLL) ComputeIntercellFluxFromConservativeVariables(flux, qMinus, qPlus []float64, dir types.Direction) float64 {
	return s.solve(flux,
		newStateFromConservative(qMinus, dir, s.EOS),
		newStateFromConservative(qPlus, dir, s.EOS), dir)
}

func (s *HLLC_HLL) ComputeIntercellFluxFromPrimitiveVariables(flux, vMinus, vPlus []float64, dir types.Direction) float64 {
	return s.solve(flux,
		newStateFromPrimitive(vMinus, dir, s.EOS),
		newStateFromPrimitive(vPlus, dir, s.EOS), dir)
}

func (s *HLLC_HLL) solve(flux []float64, L, R state, dir types.Direction) (velocity float64) {
	var (
		sL, sR = waveSpeeds(L, R)
		n      = L.dim + 2
	)
	velocity = s.HLLC.solve(flux, L, R, dir)
	if sL >= 0 || sR <= 0 {
		return
	}
	beta1, beta2 := blendWeights(L, R, dir)
	if beta2 == 0 {
		return
	}
	var (
		fL, fR = make([]float64, n), make([]float64, n)
		qL, qR = make([]float64, n), make([]float64, n)
	)
	L.flux(fL, dir)
	R.flux(fR, dir)
	L.conservative(qL)
	R.conservative(qR)
	for ei := 0; ei < n; ei++ {
		hll := (sR*fL[ei] - sL*fR[ei] + sL*sR*(qR[ei]-qL[ei])) / (sR - sL)
		flux[ei] = beta1*flux[ei] + beta2*hll
	}
	return
}

// blendWeights splits the velocity jump into its face normal share alpha1 and
// transverse share alpha2, normalized to sum to one
func blendWeights(L, R state, dir types.Direction) (beta1, beta2 float64) {
	var (
		du2            float64
		alpha1, alpha2 float64
	)
	for d := 0; d < L.dim; d++ {
		du := R.u[d] - L.u[d]
		du2 += du * du
	}
	if du2 < 1.e-40 {
		return 1, 0
	}
	alpha1 = math.Abs(R.u[dir]-L.u[dir]) / math.Sqrt(du2)
	alpha2 = math.Sqrt(math.Max(0, 1-alpha1*alpha1))
	beta1 = alpha1 / (alpha1 + alpha2)
	beta2 = alpha2 / (alpha1 + alpha2)
	return
}
