package sod_shock_tube

import (
	"fmt"
	"math"

	"github.com/notargets/goamr/utils"
)

// ShockTube is the exact solution of a Riemann problem at rest whose left
// pressure exceeds the right one: a rarefaction moving left, a contact and a
// shock moving right.
type ShockTube struct {
	X0, Gamma       float64
	RhoL, PL        float64
	RhoR, PR        float64
	pPost, vPost    float64
	rhoPost, vShock float64
	rhoMiddle, c2   float64
	cL, mu2         float64
	xMin, xMax      float64
}

// NewSodShockTube is the classic problem on [0,1] with the diaphragm at 0.5
func NewSodShockTube() *ShockTube {
	st, err := NewShockTube(0.5, 1.4, 1, 1, 0.125, 0.1)
	if err != nil {
		panic(err)
	}
	return st
}

func NewShockTube(x0, gamma, rhoL, pL, rhoR, pR float64) (st *ShockTube, err error) {
	if gamma <= 1 || rhoL <= 0 || rhoR <= 0 || pR <= 0 || pL <= pR {
		err = fmt.Errorf("shock tube needs gamma > 1, positive states and pL > pR, have gamma %g, left (%g, %g), right (%g, %g)",
			gamma, rhoL, pL, rhoR, pR)
		return
	}
	st = &ShockTube{
		X0: x0, Gamma: gamma,
		RhoL: rhoL, PL: pL,
		RhoR: rhoR, PR: pR,
		xMin: 0, xMax: 1,
	}
	st.solve()
	return
}

func (st *ShockTube) solve() {
	var (
		gamma = st.Gamma
	)
	st.mu2 = (gamma - 1) / (gamma + 1)
	st.cL = math.Sqrt(gamma * st.PL / st.RhoL)
	st.pPost = bisect(st.pressureFunction, st.PR, st.PL)
	st.vPost = st.rarefactionVelocity(st.pPost)
	st.rhoPost = st.RhoR * ((st.pPost / st.PR) + st.mu2) / (1 + st.mu2*(st.pPost/st.PR))
	st.vShock = st.vPost * (st.rhoPost / st.RhoR) / ((st.rhoPost / st.RhoR) - 1)
	st.rhoMiddle = st.RhoL * math.Pow(st.pPost/st.PL, 1/gamma)
	st.c2 = st.cL - 0.5*(gamma-1)*st.vPost
}

func (st *ShockTube) rarefactionVelocity(P float64) float64 {
	return 2 * st.cL / (st.Gamma - 1) * (1 - math.Pow(P/st.PL, (st.Gamma-1)/(2*st.Gamma)))
}

// pressureFunction is zero at the pressure behind the shock, where the
// velocity after the shock matches the velocity after the rarefaction
func (st *ShockTube) pressureFunction(P float64) float64 {
	return (P-st.PR)*math.Sqrt(utils.POW(1-st.mu2, 2)/(st.RhoR*(P+st.mu2*st.PR))) - st.rarefactionVelocity(P)
}

func bisect(f func(P float64) float64, lo, hi float64) float64 {
	var (
		flo = f(lo)
	)
	for it := 0; it < 200 && hi-lo > 1e-14*hi; it++ {
		mid := 0.5 * (lo + hi)
		fmid := f(mid)
		if (fmid < 0) == (flo < 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi)
}

// Waves returns the head and tail of the rarefaction, the contact and the
// shock at time t
func (st *ShockTube) Waves(t float64) (x1, x2, x3, x4 float64) {
	x1 = st.X0 - st.cL*t
	x2 = st.X0 + t*(st.vPost-st.c2)
	x3 = st.X0 + st.vPost*t
	x4 = st.X0 + st.vShock*t
	return
}

// PostShock returns the pressure behind the shock and the densities either
// side of the contact
func (st *ShockTube) PostShock() (pPost, rhoMiddle, rhoPost float64) {
	return st.pPost, st.rhoMiddle, st.rhoPost
}

// State is the primitive solution at x and time t
func (st *ShockTube) State(x, t float64) (rho, u, p float64) {
	if t <= 0 {
		if x < st.X0 {
			return st.RhoL, 0, st.PL
		}
		return st.RhoR, 0, st.PR
	}
	x1, x2, x3, x4 := st.Waves(t)
	switch {
	case x < x1:
		rho, p = st.RhoL, st.PL
	case x <= x2:
		c := st.mu2*((st.X0-x)/t) + (1-st.mu2)*st.cL
		rho = st.RhoL * math.Pow(c/st.cL, 2/(st.Gamma-1))
		p = st.PL * math.Pow(rho/st.RhoL, st.Gamma)
		u = (1 - st.mu2) * ((-(st.X0 - x) / t) + st.cL)
	case x <= x3:
		rho, u, p = st.rhoMiddle, st.vPost, st.pPost
	case x <= x4:
		rho, u, p = st.rhoPost, st.vPost, st.pPost
	default:
		rho, p = st.RhoR, st.PR
	}
	return
}

// SOD_calc samples the Sod problem at time t on both sides of each wave, E
// is the specific internal energy. x4 is the shock position.
func SOD_calc(t float64) (X, Rho, P, U, E []float64, x4 float64) {
	var (
		st          = NewSodShockTube()
		tol         = 1.e-8
		x1, x2, x3  float64
		gamma       = st.Gamma
		interiorPts = 10
	)
	x1, x2, x3, x4 = st.Waves(t)
	X = []float64{st.xMin, x1 - tol, x1 + tol}
	for n := 1; n < interiorPts; n++ {
		X = append(X, x1+float64(n)*(x2-x1)/float64(interiorPts))
	}
	X = append(X, x2-tol, x2+tol, x3-tol, x3+tol, x4-tol, x4+tol, st.xMax)
	Rho = make([]float64, len(X))
	P = make([]float64, len(X))
	U = make([]float64, len(X))
	E = make([]float64, len(X))
	for i, x := range X {
		Rho[i], U[i], P[i] = st.State(x, t)
		E[i] = P[i] / ((gamma - 1.) * Rho[i])
	}
	return
}
