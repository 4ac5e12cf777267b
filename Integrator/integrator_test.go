package Integrator

import (
	"errors"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/FlowModel"
	"github.com/notargets/goamr/Reconstruction"
	"github.com/notargets/goamr/Statistics"
	"github.com/notargets/goamr/sod_shock_tube"
	"github.com/notargets/goamr/types"
)

func near(a, b, tol float64) bool {
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= tol*scale
}

func inputDB(conv, diff string, boundaries map[string]string) (db *Database.Database) {
	db = Database.NewDatabase("NavierStokes")
	db.PutString("project_name", "test")
	db.PutInteger("num_species", 1)
	db.PutString("flow_model", "single-species")
	db.PutDatabase("Flow_model").PutDouble("gamma", 1.4)
	db.PutString("convective_flux_reconstructor", conv)
	db.PutDatabase("Convective_flux_reconstructor")
	db.PutString("diffusive_flux_reconstructor", diff)
	db.PutDatabase("Diffusive_flux_reconstructor")
	if boundaries != nil {
		bd := db.PutDatabase("Boundary_data")
		for key, label := range boundaries {
			bd.PutString(key, label)
		}
	}
	return
}

func newIntegrator(t *testing.T, dim int, periodic [3]bool, db *Database.Database) (ns *NavierStokes) {
	var err error
	ns, err = NewNavierStokes("NavierStokes", dim, periodic, db, nil)
	require.NoError(t, err)
	t.Cleanup(ns.Release)
	return
}

func without(db *Database.Database, key string) *Database.Database {
	m := db.ToMap()
	delete(m, key)
	return Database.FromMap(db.Name, m)
}

// sineRun sets up a periodic 1D density wave advected at unit speed
func sineRun(t *testing.T, nx, patchSize, workers int, rt RungeKuttaType) (rk *RungeKutta, ic InitialCondition) {
	var err error
	ns := newIntegrator(t, 1, [3]bool{true}, inputDB("SECOND_ORDER_MUSCL", "NONE", nil))
	level := AMR.NewUniformLevel(1, AMR.IntVector{nx}, []float64{0}, []float64{1}, AMR.IntVector{patchSize}, []bool{true})
	rk, err = NewRungeKutta(rt, ns, level, workers, 0.5)
	require.NoError(t, err)
	t.Cleanup(rk.Close)
	icDB := Database.NewDatabase("Initial_conditions")
	icDB.PutString("type", "sine_density")
	ic, err = NewInitialCondition(1, ns.Model.EOS, icDB)
	require.NoError(t, err)
	rk.Initialize(ic)
	return
}

func totalMass(rk *RungeKutta) (mass float64) {
	for _, p := range rk.Level.Patches {
		rho := p.GetCellData(FlowModel.DensityField, AMR.CURRENT)
		rho.ForEachInterior(func(i, j, k int) {
			mass += rho.At(0, i, j, k) * p.Dx[0]
		})
	}
	return
}

func TestNavierStokesConfiguration(t *testing.T) {
	bnd := map[string]string{"boundary_xlo": "wall", "boundary_xhi": "outflow"}
	{ // Ghost width follows the widest reconstructor stencil
		ns := newIntegrator(t, 2, [3]bool{false, true}, inputDB("SECOND_ORDER_MUSCL", "SECOND_ORDER", bnd))
		assert.Equal(t, AMR.IntVector{2, 2, 0}, ns.NumGhosts)
		assert.Equal(t, "test", ns.ProjectName)
		assert.Equal(t, types.BC_Slip, ns.Boundaries.Flags[types.XLO])
		assert.Equal(t, types.BC_Transmissive, ns.Boundaries.Flags[types.XHI])
		assert.Equal(t, types.BC_Periodic, ns.Boundaries.Flags[types.YLO])
		ns = newIntegrator(t, 1, [3]bool{}, inputDB("FIRST_ORDER_GODUNOV", "SECOND_ORDER", bnd))
		assert.Equal(t, AMR.IntVector{1, 0, 0}, ns.NumGhosts)
		ns = newIntegrator(t, 3, [3]bool{true, true, true}, inputDB("FIRST_ORDER_GODUNOV", "NONE", nil))
		assert.Equal(t, AMR.IntVector{1, 1, 1}, ns.NumGhosts)
		ns.PrintClassData()
	}
	{ // Missing and bad input
		db := inputDB("SECOND_ORDER_MUSCL", "NONE", bnd)
		for _, key := range []string{"num_species", "flow_model", "Flow_model",
			"convective_flux_reconstructor", "Convective_flux_reconstructor",
			"diffusive_flux_reconstructor", "Diffusive_flux_reconstructor", "Boundary_data"} {
			_, err := NewNavierStokes("ns", 1, [3]bool{}, without(db, key), nil)
			assert.Error(t, err, key)
		}
		// Boundary data is optional for a fully periodic domain
		ns, err := NewNavierStokes("ns", 1, [3]bool{true}, without(db, "Boundary_data"), nil)
		require.NoError(t, err)
		ns.Release()
		db.PutInteger("num_species", 0)
		_, err = NewNavierStokes("ns", 1, [3]bool{}, db, nil)
		assert.Error(t, err)
		db = inputDB("THIRD_ORDER", "NONE", bnd)
		_, err = NewNavierStokes("ns", 1, [3]bool{}, db, nil)
		assert.Error(t, err)
		db = inputDB("SECOND_ORDER_MUSCL", "NONE", bnd)
		db.PutString("flow_model", "four-eqn_conservative")
		_, err = NewNavierStokes("ns", 1, [3]bool{}, db, nil)
		assert.True(t, errors.Is(err, FlowModel.ErrNotImplemented))
		_, err = NewNavierStokes("ns", 4, [3]bool{}, inputDB("SECOND_ORDER_MUSCL", "NONE", bnd), nil)
		assert.Error(t, err)
	}
	{ // Clones own their flow model, release drops it
		n0 := FlowModel.DefaultRegistry.Len()
		ns, err := NewNavierStokes("ns", 1, [3]bool{true}, inputDB("SECOND_ORDER_MUSCL", "NONE", nil), nil)
		require.NoError(t, err)
		c, err := ns.Clone()
		require.NoError(t, err)
		assert.Equal(t, n0+2, FlowModel.DefaultRegistry.Len())
		assert.True(t, c.Model != ns.Model)
		assert.Equal(t, ns.NumGhosts, c.NumGhosts)
		c.Release()
		ns.Release()
		assert.Equal(t, n0, FlowModel.DefaultRegistry.Len())
	}
}

func TestNavierStokesRestart(t *testing.T) {
	bnd := map[string]string{
		"boundary_xlo": "slip", "boundary_xhi": "transmissive",
		"boundary_ylo": "dirichlet", "boundary_yhi": "outflow",
	}
	db := inputDB("SECOND_ORDER_MUSCL", "SECOND_ORDER", bnd)
	bd, err := db.GetDatabase("Boundary_data")
	require.NoError(t, err)
	bd.PutDoubleVector("boundary_ylo_state", []float64{1, 0.5, 0, 1})
	ns := newIntegrator(t, 2, [3]bool{}, db)
	restart := Database.NewDatabase("restart")
	ns.PutToRestart(restart)
	{ // Round trip through the restart database
		rs, err := NewNavierStokesFromRestart("ns", 2, [3]bool{}, restart, nil)
		require.NoError(t, err)
		defer rs.Release()
		assert.Equal(t, ns.ProjectName, rs.ProjectName)
		assert.Equal(t, ns.NumGhosts, rs.NumGhosts)
		assert.Equal(t, ns.NumSpecies, rs.NumSpecies)
		assert.Equal(t, ns.FlowModelType, rs.FlowModelType)
		assert.Equal(t, ns.ConvectiveType, rs.ConvectiveType)
		assert.Equal(t, ns.DiffusiveType, rs.DiffusiveType)
		assert.Equal(t, ns.Boundaries.Flags, rs.Boundaries.Flags)
		assert.Equal(t, ns.Boundaries.States, rs.Boundaries.States)
		assert.Equal(t, ns.Model.Prandtl, rs.Model.Prandtl)
	}
	{ // Every restart key is required
		for _, key := range restart.Keys() {
			_, err := NewNavierStokesFromRestart("ns", 2, [3]bool{}, without(restart, key), nil)
			assert.Error(t, err, key)
		}
	}
	{ // Ghost widths that disagree with the reconstructors
		bad := without(restart, "d_num_ghosts")
		bad.PutIntegerVector("d_num_ghosts", []int{1, 1})
		_, err := NewNavierStokesFromRestart("ns", 2, [3]bool{}, bad, nil)
		assert.Error(t, err)
	}
}

func TestBoundaryConditions(t *testing.T) {
	var (
		nx  = 4
		db  = Database.NewDatabase("Boundary_data")
		err error
	)
	{ // Bad boundary input
		db.PutString("boundary_xlo", "periodic")
		_, err = NewBoundaryConditions(1, [3]bool{}, db)
		assert.Error(t, err)
		db.PutString("boundary_xlo", "none")
		_, err = NewBoundaryConditions(1, [3]bool{}, db)
		assert.Error(t, err)
		db.PutString("boundary_xlo", "dirichlet")
		_, err = NewBoundaryConditions(1, [3]bool{}, db)
		assert.Error(t, err)
		db.PutDoubleVector("boundary_xlo_state", []float64{1, 2})
		_, err = NewBoundaryConditions(1, [3]bool{}, db)
		assert.Error(t, err)
		db.PutString("boundary_xlo", "bogus")
		_, err = NewBoundaryConditions(1, [3]bool{}, db)
		assert.Error(t, err)
	}
	{ // Transmissive, slip and dirichlet ghosts in 1D
		bnd := map[string]string{"boundary_xlo": "dirichlet", "boundary_xhi": "slip"}
		in := inputDB("SECOND_ORDER_MUSCL", "NONE", bnd)
		bd, _ := in.GetDatabase("Boundary_data")
		bd.PutDoubleVector("boundary_xlo_state", []float64{2, 0.5, 3})
		ns := newIntegrator(t, 1, [3]bool{}, in)
		level := AMR.NewUniformLevel(1, AMR.IntVector{nx}, []float64{0}, []float64{1}, AMR.IntVector{nx}, nil)
		p := level.Patches[0]
		ns.RegisterModelVariables(p, AMR.CURRENT)
		var (
			rho = p.GetCellData(FlowModel.DensityField, AMR.CURRENT)
			mom = p.GetCellData(FlowModel.MomentumField, AMR.CURRENT)
			E   = p.GetCellData(FlowModel.TotalEnergyField, AMR.CURRENT)
		)
		rho.ForEachInterior(func(i, j, k int) {
			rho.Set(0, i, j, k, 1+float64(i))
			mom.Set(0, i, j, k, 0.1*float64(i+1))
			E.Set(0, i, j, k, 5+float64(i))
		})
		ns.SetPhysicalBoundaryConditions(p, AMR.CURRENT, ns.NumGhosts)
		for g := 1; g <= 2; g++ {
			// slip mirrors the interior and flips the normal momentum
			assert.Equal(t, rho.At(0, nx-g, 0, 0), rho.At(0, nx-1+g, 0, 0))
			assert.Equal(t, -mom.At(0, nx-g, 0, 0), mom.At(0, nx-1+g, 0, 0))
			assert.Equal(t, E.At(0, nx-g, 0, 0), E.At(0, nx-1+g, 0, 0))
			assert.Equal(t, 2., rho.At(0, -g, 0, 0))
			assert.Equal(t, 1., mom.At(0, -g, 0, 0))
			assert.InDelta(t, 3/0.4+0.5*2*0.25, E.At(0, -g, 0, 0), 1.e-12)
		}
		ns.Boundaries.Flags[types.XLO] = types.BC_Transmissive
		ns.SetPhysicalBoundaryConditions(p, AMR.CURRENT, ns.NumGhosts)
		for g := 1; g <= 2; g++ {
			assert.Equal(t, rho.At(0, 0, 0, 0), rho.At(0, -g, 0, 0))
			assert.Equal(t, mom.At(0, 0, 0, 0), mom.At(0, -g, 0, 0))
		}
	}
	{ // 2D corners take the values of the y faces filled after x
		ns := newIntegrator(t, 2, [3]bool{}, inputDB("FIRST_ORDER_GODUNOV", "NONE", map[string]string{}))
		level := AMR.NewUniformLevel(2, AMR.IntVector{3, 3}, []float64{0, 0}, []float64{1, 1}, AMR.IntVector{3, 3}, nil)
		p := level.Patches[0]
		ns.RegisterModelVariables(p, AMR.CURRENT)
		rho := p.GetCellData(FlowModel.DensityField, AMR.CURRENT)
		rho.ForEachInterior(func(i, j, k int) { rho.Set(0, i, j, k, float64(10*j+i)) })
		ns.SetPhysicalBoundaryConditions(p, AMR.CURRENT, ns.NumGhosts)
		assert.Equal(t, 0., rho.At(0, -1, -1, 0))
		assert.Equal(t, 22., rho.At(0, 3, 3, 0))
		assert.Equal(t, 20., rho.At(0, -1, 3, 0))
		assert.Equal(t, 1., rho.At(0, 1, -1, 0))
	}
	{ // Restart keeps the labels
		bc, err := NewBoundaryConditions(2, [3]bool{false, true}, nil)
		require.NoError(t, err)
		out := Database.NewDatabase("bc")
		bc.PutToRestart(out)
		assert.Equal(t, []string{"boundary_xhi", "boundary_xlo"}, out.Keys())
	}
}

func TestKernel(t *testing.T) {
	var (
		gamma = 1.4
		c     = math.Sqrt(gamma)
	)
	{ // The stable time step is the inverse of the spectral radius
		ns := newIntegrator(t, 2, [3]bool{true, true}, inputDB("SECOND_ORDER_MUSCL", "NONE", nil))
		level := AMR.NewUniformLevel(2, AMR.IntVector{8, 4}, []float64{0, 0}, []float64{1, 2}, AMR.IntVector{8, 4}, []bool{true, true})
		p := level.Patches[0]
		ns.RegisterModelVariables(p, AMR.CURRENT)
		ic := &Uniform{Rho: 1, P: 1, U: [3]float64{0.5, -0.25}}
		ns.InitializeDataOnPatch(p, ic, 0, AMR.CURRENT)
		dt := ns.ComputeStableDtOnPatch(p, true, 0)
		assert.True(t, near(1/((0.5+c)/0.125+(0.25+c)/0.5), dt, 1.e-12))
		assert.False(t, ns.Model.IsRegistered())
	}
	{ // A uniform 1D flow gives exactly dx over the wave speed
		ns := newIntegrator(t, 1, [3]bool{true}, inputDB("FIRST_ORDER_GODUNOV", "NONE", nil))
		level := AMR.NewUniformLevel(1, AMR.IntVector{10}, []float64{0}, []float64{0.7}, AMR.IntVector{10}, []bool{true})
		p := level.Patches[0]
		ns.RegisterModelVariables(p, AMR.CURRENT)
		ns.InitializeDataOnPatch(p, &Uniform{Rho: 1, P: 1, U: [3]float64{0.37}}, 0, AMR.CURRENT)
		var (
			rho = p.GetCellData(FlowModel.DensityField, AMR.CURRENT).At(0, 0, 0, 0)
			m   = p.GetCellData(FlowModel.MomentumField, AMR.CURRENT).At(0, 0, 0, 0)
			E   = p.GetCellData(FlowModel.TotalEnergyField, AMR.CURRENT).At(0, 0, 0, 0)
			eos = ns.Model.EOS
		)
		lambda := math.Abs(m/rho) + eos.GetSoundSpeedWithPressure(rho, eos.GetPressure(rho, []float64{m}, E))
		assert.InDelta(t, 0.37+c, lambda, 1.e-14)
		assert.Equal(t, p.Dx[0]/lambda, ns.ComputeStableDtOnPatch(p, true, 0))
	}
	{ // One forward Euler stage is Q + S - div F, zero coefficients change nothing
		ns := newIntegrator(t, 1, [3]bool{true}, inputDB("FIRST_ORDER_GODUNOV", "NONE", nil))
		level := AMR.NewUniformLevel(1, AMR.IntVector{6}, []float64{0}, []float64{1}, AMR.IntVector{6}, []bool{true})
		p := level.Patches[0]
		ns.RegisterModelVariables(p, AMR.CURRENT, AMR.NEW)
		ic := &ShockTube{X0: 0.5, RhoL: 1, PL: 1, RhoR: 0.125, PR: 0.1}
		ns.InitializeDataOnPatch(p, ic, 0, AMR.CURRENT)
		for _, name := range ConservativeFields {
			level.FillGhostsFromNeighbors(name, AMR.CURRENT)
		}
		dt := 0.01
		ns.ComputeHyperbolicFluxesAndSourcesOnPatch(p, 0, dt, 0, AMR.CURRENT)
		ns.ResetAccumulatedFluxes(p)
		// NEW holds an unrelated state that the zero coefficients must leave alone
		ns.InitializeDataOnPatch(p, &Uniform{Rho: 2, P: 3, U: [3]float64{0.3}}, 0, AMR.NEW)
		before := make(map[string]*AMR.CellData)
		for _, name := range ConservativeFields {
			before[name] = p.GetCellData(name, AMR.NEW).Copy()
		}
		ns.AdvanceSingleStep(p, 0, dt, []float64{0}, []float64{0}, []float64{0}, []AMR.DataContext{AMR.CURRENT})
		for _, name := range ConservativeFields {
			assert.Equal(t, before[name].Data, p.GetCellData(name, AMR.NEW).Data, name)
		}
		for _, v := range p.GetFaceData(Reconstruction.ConvectiveFluxField, AMR.NEW).Component(types.X_DIRECTION, 0) {
			assert.Equal(t, 0., v)
		}
		zeroConservative(p, AMR.NEW)
		rhoNew := p.GetCellData(FlowModel.DensityField, AMR.NEW)
		ns.AdvanceSingleStep(p, 0, dt, []float64{1}, []float64{1}, []float64{1}, []AMR.DataContext{AMR.CURRENT})
		var (
			rho   = p.GetCellData(FlowModel.DensityField, AMR.CURRENT)
			F     = p.GetFaceData(Reconstruction.ConvectiveFluxField, AMR.CURRENT)
			acc   = p.GetFaceData(Reconstruction.ConvectiveFluxField, AMR.NEW)
			dx    = p.Dx[0]
			delta float64
		)
		rhoNew.ForEachInterior(func(i, j, k int) {
			expect := rho.At(0, i, 0, 0) - (F.At(types.X_DIRECTION, 0, i+1, 0, 0)-F.At(types.X_DIRECTION, 0, i, 0, 0))/dx
			assert.True(t, near(expect, rhoNew.At(0, i, 0, 0), 1.e-14))
			delta += (rhoNew.At(0, i, 0, 0) - rho.At(0, i, 0, 0)) * dx
		})
		// Fluxes telescope on a periodic patch
		assert.InDelta(t, 0, delta, 1.e-14)
		assert.Equal(t, F.Component(types.X_DIRECTION, 0), acc.Component(types.X_DIRECTION, 0))
		// The flux through the diaphragm moves mass right
		assert.True(t, F.At(types.X_DIRECTION, 0, 3, 0, 0) > 0)
		assert.Panics(t, func() {
			ns.AdvanceSingleStep(p, 0, dt, []float64{1}, []float64{1}, []float64{0}, []AMR.DataContext{AMR.NEW})
		})
		assert.Panics(t, func() {
			ns.AdvanceSingleStep(p, 0, dt, []float64{1, 0}, []float64{1}, []float64{0}, []AMR.DataContext{AMR.CURRENT})
		})
	}
	{ // Synchronizing the accumulated fluxes reproduces the final stage
		rk, _ := sineRun(t, 32, 8, 2, SSP_RK3)
		rs, _ := sineRun(t, 32, 8, 2, SSP_RK3)
		rs.Synchronize = true
		dt := rk.ComputeStableDt(true)
		for n := 0; n < 5; n++ {
			rk.Step(dt)
			rs.Step(dt)
		}
		for ip, p := range rk.Level.Patches {
			for _, name := range ConservativeFields {
				a := p.GetCellData(name, AMR.CURRENT)
				b := rs.Level.Patches[ip].GetCellData(name, AMR.CURRENT)
				a.ForEachInterior(func(i, j, k int) {
					assert.True(t, near(a.At(0, i, j, k), b.At(0, i, j, k), 1.e-12))
				})
			}
		}
	}
	{ // Positivity is checked, not repaired
		ns := newIntegrator(t, 1, [3]bool{true}, inputDB("FIRST_ORDER_GODUNOV", "NONE", nil))
		level := AMR.NewUniformLevel(1, AMR.IntVector{8}, []float64{0}, []float64{1}, AMR.IntVector{4}, []bool{true})
		p := level.Patches[1]
		ns.RegisterModelVariables(p, AMR.CURRENT)
		ns.InitializeDataOnPatch(p, &Uniform{Rho: 1, P: 1}, 0, AMR.CURRENT)
		require.NoError(t, ns.PreservePositivity(p, AMR.CURRENT))
		p.GetCellData(FlowModel.DensityField, AMR.CURRENT).Set(0, 2, 0, 0, -1)
		err := ns.PreservePositivity(p, AMR.CURRENT)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "(6,0,0)")
		assert.Equal(t, -1., p.GetCellData(FlowModel.DensityField, AMR.CURRENT).At(0, 2, 0, 0))
	}
}

func TestCoarsenRefine(t *testing.T) {
	ns := newIntegrator(t, 2, [3]bool{true, true}, inputDB("FIRST_ORDER_GODUNOV", "NONE", nil))
	var (
		ratio  = AMR.NewIntVector(2, 2)
		fine   = AMR.NewPatch(0, AMR.NewBox(2, AMR.IntVector{2, 0}, AMR.IntVector{6, 3}), []float64{0.25, 0}, []float64{0.125, 0.125})
		coarse = AMR.NewPatch(1, AMR.NewBox(2, AMR.IntVector{0, 0}, AMR.IntVector{3, 3}), []float64{0, 0}, []float64{0.25, 0.25})
	)
	ns.RegisterModelVariables(fine, AMR.CURRENT)
	ns.RegisterModelVariables(coarse, AMR.CURRENT)
	for _, name := range ConservativeFields {
		coarse.GetCellData(name, AMR.CURRENT).Fill(-1)
		cd := fine.GetCellData(name, AMR.CURRENT)
		cd.ForEachInterior(func(i, j, k int) {
			for n := 0; n < cd.Depth; n++ {
				cd.Set(n, i, j, k, float64(i+fine.Box.Lower[0]+10*j+100*n))
			}
		})
	}
	{ // Only coarse cells fully covered by the fine box are averaged
		ns.CoarsenConservativeVariables(fine, coarse, ratio, AMR.CURRENT)
		rho := coarse.GetCellData(FlowModel.DensityField, AMR.CURRENT)
		mom := coarse.GetCellData(FlowModel.MomentumField, AMR.CURRENT)
		// coarse (1,0) covers fine x 2..3, y 0..1
		assert.InDelta(t, 2.5+5, rho.At(0, 1, 0, 0), 1.e-12)
		assert.InDelta(t, 4.5+25, rho.At(0, 2, 1, 0), 1.e-12)
		assert.InDelta(t, 100+4.5+25, mom.At(1, 2, 1, 0), 1.e-12)
		// x 6..7 is only half covered
		assert.Equal(t, -1., rho.At(0, 3, 0, 0))
		assert.Equal(t, -1., rho.At(0, 0, 0, 0))
	}
	{ // Injection copies the covering coarse value
		coarse.GetCellData(FlowModel.DensityField, AMR.CURRENT).ForEachInterior(func(i, j, k int) {
			coarse.GetCellData(FlowModel.DensityField, AMR.CURRENT).Set(0, i, j, k, float64(i+10*j))
		})
		ns.RefineConservativeVariables(coarse, fine, ratio, AMR.CURRENT)
		rho := fine.GetCellData(FlowModel.DensityField, AMR.CURRENT)
		rho.ForEachInterior(func(i, j, k int) {
			gi := i + fine.Box.Lower[0]
			assert.Equal(t, float64(gi/2+10*(j/2)), rho.At(0, i, j, k))
		})
	}
}

func TestInitialConditions(t *testing.T) {
	ns := newIntegrator(t, 2, [3]bool{true, true}, inputDB("FIRST_ORDER_GODUNOV", "NONE", nil))
	{ // Parsing
		db := Database.NewDatabase("ic")
		_, err := NewInitialCondition(2, ns.Model.EOS, db)
		assert.Error(t, err)
		db.PutString("type", "blast")
		_, err = NewInitialCondition(2, ns.Model.EOS, db)
		assert.Error(t, err)
		db.PutString("type", "isentropic_vortex")
		_, err = NewInitialCondition(1, ns.Model.EOS, db)
		assert.Error(t, err)
		ic, err := NewInitialCondition(2, ns.Model.EOS, db)
		require.NoError(t, err)
		assert.Equal(t, "isentropic_vortex", ic.Print())
		_, err = NewInitialCondition(2, ns.Model.EOS, nil)
		assert.Error(t, err)
		for label, it := range InitialConditionNames {
			assert.Equal(t, label, it.Print())
		}
	}
	{ // Uniform state with velocity
		db := Database.NewDatabase("ic")
		db.PutString("type", "uniform")
		db.PutDouble("density", 2)
		db.PutDoubleVector("velocity", []float64{1, -1})
		ic, err := NewInitialCondition(2, ns.Model.EOS, db)
		require.NoError(t, err)
		level := AMR.NewUniformLevel(2, AMR.IntVector{2, 2}, []float64{0, 0}, []float64{1, 1}, AMR.IntVector{2, 2}, []bool{true, true})
		p := level.Patches[0]
		ns.RegisterModelVariables(p, AMR.CURRENT)
		ns.InitializeDataOnPatch(p, ic, 0, AMR.CURRENT)
		mom := p.GetCellData(FlowModel.MomentumField, AMR.CURRENT)
		E := p.GetCellData(FlowModel.TotalEnergyField, AMR.CURRENT)
		assert.Equal(t, 2., mom.At(0, 1, 1, 0))
		assert.Equal(t, -2., mom.At(1, 1, 1, 0))
		assert.InDelta(t, 1/0.4+2, E.At(0, 0, 1, 0), 1.e-12)
	}
	{ // Vortex core sits at (x0, y0), far field is the free stream
		iv := &IsentropicVortex{Beta: 5, X0: 5, Y0: 0, Gamma: 1.4, Ufs: 1}
		rho, u, p := iv.GetState([3]float64{5, 0}, 0)
		assert.True(t, rho < 1)
		assert.Equal(t, 1., u[0])
		assert.InDelta(t, math.Pow(rho, 1.4), p, 1.e-14)
		rho, u, _ = iv.GetState([3]float64{6, 0}, 1)
		rhoC, _, _ := iv.GetState([3]float64{5, 0}, 0)
		assert.InDelta(t, rhoC, rho, 1.e-14)
		rho, u, _ = iv.GetState([3]float64{25, 10}, 0)
		assert.InDelta(t, 1, rho, 1.e-10)
		assert.InDelta(t, 1, u[0], 1.e-10)
	}
	{ // The sine wave travels at its velocity
		sd := &SineDensity{Rho0: 1, Amplitude: 0.2, WaveLength: 1, U: 1, P: 1}
		r0, _, _ := sd.GetState([3]float64{0.25}, 0)
		r1, _, _ := sd.GetState([3]float64{0.75}, 0.5)
		assert.InDelta(t, 1.2, r0, 1.e-14)
		assert.InDelta(t, r0, r1, 1.e-14)
	}
}

func TestRungeKutta(t *testing.T) {
	{ // Scheme coefficients are consistent
		for _, rt := range []RungeKuttaType{FORWARD_EULER, SSP_RK2, SSP_RK3} {
			var gsum float64
			for m, st := range rt.Stages() {
				assert.Equal(t, m+1, len(st.Alpha))
				var asum float64
				for n := range st.Alpha {
					asum += st.Alpha[n]
					gsum += st.Gamma[n]
				}
				assert.InDelta(t, 1, asum, 1.e-14, rt.Print())
			}
			assert.InDelta(t, 1, gsum, 1.e-14, rt.Print())
			it, err := NewRungeKuttaType(rt.Print())
			require.NoError(t, err)
			assert.Equal(t, rt, it)
		}
		_, err := NewRungeKuttaType("rk4")
		assert.Error(t, err)
	}
	{ // Periodic advection conserves mass and tracks the exact solution
		rk, ic := sineRun(t, 64, 16, 3, SSP_RK3)
		m0 := totalMass(rk)
		require.NoError(t, rk.Run(0.5, 0))
		assert.Equal(t, 0.5, rk.Time)
		assert.InDelta(t, m0, totalMass(rk), 1.e-12)
		var maxErr float64
		for _, p := range rk.Level.Patches {
			rho := p.GetCellData(FlowModel.DensityField, AMR.CURRENT)
			rho.ForEachInterior(func(i, j, k int) {
				r, _, _ := ic.GetState(p.CellCenter(i, j, k), rk.Time)
				maxErr = math.Max(maxErr, math.Abs(r-rho.At(0, i, j, k)))
			})
		}
		assert.True(t, maxErr < 0.05, "max error %g", maxErr)
	}
	{ // Worker count does not change the result
		r1, _ := sineRun(t, 32, 4, 1, SSP_RK2)
		r4, _ := sineRun(t, 32, 4, 4, SSP_RK2)
		require.NoError(t, r1.Run(1, 7))
		require.NoError(t, r4.Run(1, 7))
		assert.Equal(t, 7, r1.Steps)
		assert.Equal(t, r1.Time, r4.Time)
		for ip, p := range r1.Level.Patches {
			assert.Equal(t,
				p.GetCellData(FlowModel.TotalEnergyField, AMR.CURRENT).Component(0),
				r4.Level.Patches[ip].GetCellData(FlowModel.TotalEnergyField, AMR.CURRENT).Component(0))
		}
	}
	{ // Sod shock tube against the exact solution
		var (
			nx  = 100
			bnd = map[string]string{"boundary_xlo": "transmissive", "boundary_xhi": "transmissive"}
			st  = sod_shock_tube.NewSodShockTube()
		)
		ns := newIntegrator(t, 1, [3]bool{}, inputDB("SECOND_ORDER_MUSCL", "NONE", bnd))
		level := AMR.NewUniformLevel(1, AMR.IntVector{nx}, []float64{0}, []float64{1}, AMR.IntVector{25}, nil)
		rk, err := NewRungeKutta(SSP_RK3, ns, level, 2, 0.5)
		require.NoError(t, err)
		defer rk.Close()
		rk.Initialize(&ShockTube{X0: st.X0, RhoL: st.RhoL, PL: st.PL, RhoR: st.RhoR, PR: st.PR})
		require.NoError(t, rk.Run(0.2, 0))
		var l1 float64
		for _, p := range level.Patches {
			rho := p.GetCellData(FlowModel.DensityField, AMR.CURRENT)
			rho.ForEachInterior(func(i, j, k int) {
				r, _, _ := st.State(p.CellCenter(i, j, k)[0], rk.Time)
				l1 += math.Abs(r-rho.At(0, i, j, k)) * p.Dx[0]
			})
		}
		assert.True(t, l1 < 0.02, "L1 density error %g", l1)
	}
	{ // Bad construction
		ns := newIntegrator(t, 1, [3]bool{true}, inputDB("SECOND_ORDER_MUSCL", "NONE", nil))
		level := AMR.NewUniformLevel(1, AMR.IntVector{8}, []float64{0}, []float64{1}, AMR.IntVector{8}, []bool{true})
		_, err := NewRungeKutta(SSP_RK3, ns, level, 1, 0)
		assert.Error(t, err)
		level2 := AMR.NewUniformLevel(2, AMR.IntVector{8, 8}, []float64{0, 0}, []float64{1, 1}, AMR.IntVector{8, 8}, []bool{true, true})
		_, err = NewRungeKutta(SSP_RK3, ns, level2, 1, 0.5)
		assert.Error(t, err)
	}
}

type stepCounter struct {
	mu    sync.Mutex
	steps int
	last  float64
}

func (sc *stepCounter) ObserveStep(time, dt float64) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.steps++
	sc.last = time
}

func TestRestartAndStatistics(t *testing.T) {
	{ // A run continued from a restart file matches an uninterrupted one
		full, _ := sineRun(t, 32, 8, 2, SSP_RK3)
		require.NoError(t, full.Run(1, 6))
		part, _ := sineRun(t, 32, 8, 2, SSP_RK3)
		require.NoError(t, part.Run(1, 3))
		db := Database.NewDatabase("restart")
		part.PutToRestart(db)
		path := filepath.Join(t.TempDir(), "restart.yaml")
		require.NoError(t, db.WriteFile(path))
		read, err := Database.ReadFile(path)
		require.NoError(t, err)
		nsDB, err := read.GetDatabase("NavierStokes")
		require.NoError(t, err)
		ns, err := NewNavierStokesFromRestart("ns", 1, [3]bool{true}, nsDB, nil)
		require.NoError(t, err)
		t.Cleanup(ns.Release)
		level := AMR.NewUniformLevel(1, AMR.IntVector{32}, []float64{0}, []float64{1}, AMR.IntVector{8}, []bool{true})
		cont, err := NewRungeKutta(SSP_RK3, ns, level, 2, 0.5)
		require.NoError(t, err)
		defer cont.Close()
		require.NoError(t, cont.GetFromRestart(read))
		assert.Equal(t, 3, cont.Steps)
		sc := &stepCounter{}
		cont.Observer = sc
		require.NoError(t, cont.Run(1, 6))
		assert.Equal(t, 3, sc.steps)
		assert.Equal(t, full.Time, sc.last)
		for ip, p := range full.Level.Patches {
			assert.Equal(t,
				p.GetCellData(FlowModel.DensityField, AMR.CURRENT).Component(0),
				level.Patches[ip].GetCellData(FlowModel.DensityField, AMR.CURRENT).Component(0))
		}
		// A patch layout that does not match the restart is refused
		other := AMR.NewUniformLevel(1, AMR.IntVector{32}, []float64{0}, []float64{1}, AMR.IntVector{16}, []bool{true})
		bad, err := NewRungeKutta(SSP_RK3, ns, other, 1, 0.5)
		require.NoError(t, err)
		assert.Error(t, bad.GetFromRestart(read))
	}
	{ // Extrema over patches and ranks
		rk, _ := sineRun(t, 40, 10, 1, FORWARD_EULER)
		ns := rk.integrator
		ds, err := ns.ComputeDataStatistics(rk.Level.Patches, AMR.CURRENT, Statistics.SerialReducer{})
		require.NoError(t, err)
		assert.Equal(t, []string{FlowModel.DensityField, FlowModel.MomentumField, FlowModel.TotalEnergyField}, ds.Names)
		// cell centers miss the crest by half a cell
		crest := 1 + 0.2*math.Cos(2*math.Pi*0.5/40)
		assert.InDelta(t, crest, ds.Max[0], 1.e-12)
		assert.InDelta(t, 2-crest, ds.Min[0], 1.e-12)
		assert.Equal(t, ds.Max[0], ds.Max[1])
		var mu sync.Mutex
		err = Statistics.RunRanks(2, len(rk.Level.Patches), func(red Statistics.Reducer, lo, hi int) error {
			rs, err := ns.ComputeDataStatistics(rk.Level.Patches[lo:hi], AMR.CURRENT, red)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, ds.Max, rs.Max)
			assert.Equal(t, ds.Min, rs.Min)
			return nil
		})
		require.NoError(t, err)
		require.NoError(t, ns.PrintDataStatistics(rk.Level.Patches, AMR.CURRENT, Statistics.SerialReducer{}))
	}
	{ // Every worker reduces over its own patches with its own flow model
		rk, _ := sineRun(t, 40, 10, 3, FORWARD_EULER)
		serial, err := rk.integrator.ComputeDataStatistics(rk.Level.Patches, AMR.CURRENT, Statistics.SerialReducer{})
		require.NoError(t, err)
		var (
			mu   sync.Mutex
			seen = make(map[int]int)
		)
		err = rk.ForEachRank(func(ns *NavierStokes, red Statistics.Reducer, patches []*AMR.Patch) error {
			ds, err := ns.ComputeDataStatistics(patches, AMR.CURRENT, red)
			mu.Lock()
			defer mu.Unlock()
			seen[red.Rank()] = len(patches)
			assert.Same(t, rk.workers[red.Rank()], ns)
			assert.Equal(t, serial.Max, ds.Max)
			assert.Equal(t, serial.Min, ds.Min)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, map[int]int{0: 2, 1: 1, 2: 1}, seen)
	}
}
