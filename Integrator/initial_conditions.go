package Integrator

import (
	"fmt"
	"math"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/EOS"
	"github.com/notargets/goamr/FlowModel"
)

type InitialConditionType uint

const (
	IC_UNIFORM InitialConditionType = iota
	IC_SOD
	IC_ISENTROPIC_VORTEX
	IC_SINE_DENSITY
)

var (
	InitialConditionNames = map[string]InitialConditionType{
		"uniform":           IC_UNIFORM,
		"sod":               IC_SOD,
		"isentropic_vortex": IC_ISENTROPIC_VORTEX,
		"sine_density":      IC_SINE_DENSITY,
	}
	InitialConditionPrintNames = []string{"uniform", "sod", "isentropic_vortex", "sine_density"}
)

func (it InitialConditionType) Print() (txt string) {
	if int(it) >= len(InitialConditionPrintNames) {
		return fmt.Sprintf("InitialConditionType(%d)", it)
	}
	txt = InitialConditionPrintNames[it]
	return
}

func NewInitialConditionType(label string) (it InitialConditionType, err error) {
	var (
		ok bool
	)
	if it, ok = InitialConditionNames[label]; !ok {
		err = fmt.Errorf("unknown initial condition %q", label)
	}
	return
}

// InitialCondition is a flow field given in primitive variables. Conditions
// with a closed form solution return it for t > 0.
type InitialCondition interface {
	GetState(x [3]float64, t float64) (rho float64, u [3]float64, p float64)
	Print() string
}

// NewInitialCondition reads the condition named by the "type" key of db
func NewInitialCondition(dim int, eos EOS.EquationOfState, db *Database.Database) (ic InitialCondition, err error) {
	var (
		label string
		it    InitialConditionType
	)
	if db == nil {
		return nil, fmt.Errorf("no initial condition database")
	}
	if label, err = db.GetString("type"); err != nil {
		return
	}
	if it, err = NewInitialConditionType(label); err != nil {
		return
	}
	get := func(key string, def float64) (v float64) {
		if err == nil {
			v, err = db.GetDoubleWithDefault(key, def)
		}
		return
	}
	switch it {
	case IC_UNIFORM:
		uc := &Uniform{Rho: get("density", 1), P: get("pressure", 1)}
		if db.KeyExists("velocity") {
			var vel []float64
			if vel, err = db.GetDoubleVector("velocity"); err != nil {
				return
			}
			copy(uc.U[:dim], vel)
		}
		ic = uc
	case IC_SOD:
		ic = &ShockTube{
			X0:   get("interface", 0.5),
			RhoL: get("density_left", 1), PL: get("pressure_left", 1),
			RhoR: get("density_right", 0.125), PR: get("pressure_right", 0.1),
		}
	case IC_ISENTROPIC_VORTEX:
		ig, ok := eos.(*EOS.IdealGas)
		if !ok || dim < 2 {
			return nil, fmt.Errorf("%s needs an ideal gas in two or more dimensions", it.Print())
		}
		ic = &IsentropicVortex{
			Beta: get("beta", 5), X0: get("x0", 5), Y0: get("y0", 0),
			Gamma: ig.Gamma, Ufs: get("u_free_stream", 1),
		}
	case IC_SINE_DENSITY:
		ic = &SineDensity{
			Rho0: get("density", 1), Amplitude: get("amplitude", 0.2),
			WaveLength: get("wave_length", 1), U: get("velocity", 1), P: get("pressure", 1),
		}
	}
	if err != nil {
		return nil, err
	}
	return
}

type Uniform struct {
	Rho, P float64
	U      [3]float64
}

func (uc *Uniform) GetState(x [3]float64, t float64) (float64, [3]float64, float64) {
	return uc.Rho, uc.U, uc.P
}

func (uc *Uniform) Print() string { return IC_UNIFORM.Print() }

// ShockTube is a Riemann problem along x with the diaphragm at X0, at rest
type ShockTube struct {
	X0, RhoL, PL, RhoR, PR float64
}

func (st *ShockTube) GetState(x [3]float64, t float64) (rho float64, u [3]float64, p float64) {
	if x[0] < st.X0 {
		return st.RhoL, u, st.PL
	}
	return st.RhoR, u, st.PR
}

func (st *ShockTube) Print() string { return IC_SOD.Print() }

// IsentropicVortex is the vortex of strength Beta centered at (X0, Y0)
// convected by a free stream Ufs along x, an exact solution of the Euler
// equations
type IsentropicVortex struct {
	Beta, X0, Y0, Gamma float64
	Ufs                 float64
}

func (iv *IsentropicVortex) GetState(x [3]float64, t float64) (rho float64, u [3]float64, p float64) {
	var (
		oo2pi = 0.5 / math.Pi
		GM1   = iv.Gamma - 1
		fac   = 16 * iv.Gamma * math.Pi * math.Pi
		xmut  = x[0] - iv.Ufs*t
		dx    = xmut - iv.X0
		dy    = x[1] - iv.Y0
		r2    = dx*dx + dy*dy
		ex1r  = math.Exp(1 - r2)
		tv1   = 1 - GM1*iv.Beta*iv.Beta*math.Exp(2*(1-r2))/fac
	)
	u[0] = iv.Ufs - iv.Beta*ex1r*dy*oo2pi
	u[1] = iv.Beta * ex1r * dx * oo2pi
	rho = math.Pow(tv1, 1/GM1)
	p = math.Pow(rho, iv.Gamma)
	return
}

func (iv *IsentropicVortex) Print() string { return IC_ISENTROPIC_VORTEX.Print() }

// SineDensity is a density wave advected at constant velocity and pressure
type SineDensity struct {
	Rho0, Amplitude, WaveLength, U, P float64
}

func (sd *SineDensity) GetState(x [3]float64, t float64) (rho float64, u [3]float64, p float64) {
	rho = sd.Rho0 + sd.Amplitude*math.Sin(2*math.Pi*(x[0]-sd.U*t)/sd.WaveLength)
	u[0] = sd.U
	return rho, u, sd.P
}

func (sd *SineDensity) Print() string { return IC_SINE_DENSITY.Print() }

// InitializeDataOnPatch sets the conservative variables of the interior of
// ctx from the state of ic at the cell centers
func (ns *NavierStokes) InitializeDataOnPatch(patch *AMR.Patch, ic InitialCondition, time float64, ctx AMR.DataContext) {
	var (
		rho = patch.GetCellData(FlowModel.DensityField, ctx)
		mom = patch.GetCellData(FlowModel.MomentumField, ctx)
		E   = patch.GetCellData(FlowModel.TotalEnergyField, ctx)
	)
	rho.ForEachInterior(func(i, j, k int) {
		r, u, p := ic.GetState(patch.CellCenter(i, j, k), time)
		rho.Set(0, i, j, k, r)
		for d := 0; d < ns.Dim; d++ {
			mom.Set(d, i, j, k, r*u[d])
		}
		E.Set(0, i, j, k, ns.Model.EOS.GetTotalEnergy(r, u[:ns.Dim], p))
	})
}
