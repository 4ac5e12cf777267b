package Integrator

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/Statistics"
	"github.com/notargets/goamr/observability"
	"github.com/notargets/goamr/utils"
)

type RungeKuttaType uint

const (
	FORWARD_EULER RungeKuttaType = iota
	SSP_RK2
	SSP_RK3
)

var (
	RungeKuttaNames = map[string]RungeKuttaType{
		"forward_euler": FORWARD_EULER,
		"ssp_rk2":       SSP_RK2,
		"ssp_rk3":       SSP_RK3,
	}
	RungeKuttaPrintNames = []string{"forward_euler", "ssp_rk2", "ssp_rk3"}
)

func (rt RungeKuttaType) Print() (txt string) {
	if int(rt) >= len(RungeKuttaPrintNames) {
		return fmt.Sprintf("RungeKuttaType(%d)", rt)
	}
	txt = RungeKuttaPrintNames[rt]
	return
}

func NewRungeKuttaType(label string) (rt RungeKuttaType, err error) {
	var (
		ok bool
	)
	if rt, ok = RungeKuttaNames[label]; !ok {
		err = fmt.Errorf("unknown Runge-Kutta scheme %q", label)
	}
	return
}

// Stage holds the coefficients of one stage, entry n weighting the data and
// fluxes of stage context n
type Stage struct {
	Alpha, Beta, Gamma []float64
}

// Stages returns the Shu-Osher coefficients of the scheme. Gamma holds the
// weights of the final combination of stage fluxes.
func (rt RungeKuttaType) Stages() (stages []Stage) {
	switch rt {
	case FORWARD_EULER:
		stages = []Stage{
			{Alpha: []float64{1}, Beta: []float64{1}, Gamma: []float64{1}},
		}
	case SSP_RK2:
		stages = []Stage{
			{Alpha: []float64{1}, Beta: []float64{1}, Gamma: []float64{0.5}},
			{Alpha: []float64{0.5, 0.5}, Beta: []float64{0, 0.5}, Gamma: []float64{0, 0.5}},
		}
	case SSP_RK3:
		stages = []Stage{
			{Alpha: []float64{1}, Beta: []float64{1}, Gamma: []float64{1. / 6}},
			{Alpha: []float64{0.75, 0.25}, Beta: []float64{0, 0.25}, Gamma: []float64{0, 1. / 6}},
			{Alpha: []float64{1. / 3, 0, 2. / 3}, Beta: []float64{0, 0, 2. / 3}, Gamma: []float64{0, 0, 2. / 3}},
		}
	default:
		panic(fmt.Errorf("no coefficients for %s", rt.Print()))
	}
	return
}

// StepObserver is told about every completed step
type StepObserver interface {
	ObserveStep(time, dt float64)
}

// RungeKutta advances every patch of a level with an explicit Runge-Kutta
// scheme. Patches are split between workers, each with its own integrator.
type RungeKutta struct {
	Type         RungeKuttaType
	Level        *AMR.Level
	CFL          float64
	Synchronize  bool
	Reducer      Statistics.Reducer
	Profiler     observability.Profiler
	Observer     StepObserver
	Log          logrus.FieldLogger
	LogFrequency int
	Time         float64
	Steps        int

	integrator *NavierStokes
	workers    []*NavierStokes
	pm         *utils.PartitionMap
	stages     []Stage
	contexts   []AMR.DataContext
}

// NewRungeKutta allocates the stage data of every patch. ns serves as the
// first worker, the others are clones of it released by Close.
func NewRungeKutta(rt RungeKuttaType, ns *NavierStokes, level *AMR.Level, nWorkers int, cfl float64) (rk *RungeKutta, err error) {
	if cfl <= 0 {
		return nil, fmt.Errorf("CFL number must be positive, have %g", cfl)
	}
	if level.Dim != ns.Dim {
		return nil, fmt.Errorf("level of dimension %d for a %d dimensional integrator", level.Dim, ns.Dim)
	}
	nWorkers = max(1, min(nWorkers, len(level.Patches)))
	rk = &RungeKutta{
		Type:         rt,
		Level:        level,
		CFL:          cfl,
		Reducer:      Statistics.SerialReducer{},
		Profiler:     ns.Profiler,
		Log:          ns.Log,
		LogFrequency: 10,
		integrator:   ns,
		workers:      []*NavierStokes{ns},
		pm:           utils.NewPartitionMap(nWorkers, len(level.Patches)),
		stages:       rt.Stages(),
	}
	for np := 1; np < nWorkers; np++ {
		var w *NavierStokes
		if w, err = ns.Clone(); err != nil {
			rk.Close()
			return nil, err
		}
		rk.workers = append(rk.workers, w)
	}
	rk.contexts = []AMR.DataContext{ns.CurrentContext}
	for m := 1; m < len(rk.stages); m++ {
		rk.contexts = append(rk.contexts, AMR.StageContext(m))
	}
	for _, p := range level.Patches {
		ns.RegisterModelVariables(p, append([]AMR.DataContext{ns.NewContext}, rk.contexts...)...)
	}
	return
}

// Close releases the flow models of the cloned workers
func (rk *RungeKutta) Close() {
	for _, w := range rk.workers[1:] {
		w.Release()
	}
	rk.workers = rk.workers[:1]
}

// parallel runs f on every patch, each worker on its own range of patches
func (rk *RungeKutta) parallel(f func(ns *NavierStokes, patch *AMR.Patch)) {
	rk.parallelIndexed(func(ns *NavierStokes, _ int, patch *AMR.Patch) { f(ns, patch) })
}

// parallelIndexed also passes the position of the patch in the level
func (rk *RungeKutta) parallelIndexed(f func(ns *NavierStokes, k int, patch *AMR.Patch)) {
	var (
		wg = sync.WaitGroup{}
	)
	for np, w := range rk.workers {
		wg.Add(1)
		go func(np int, w *NavierStokes) {
			defer wg.Done()
			kMin, kMax := rk.pm.GetBucketRange(np)
			for k := kMin; k < kMax; k++ {
				f(w, k, rk.Level.Patches[k])
			}
		}(np, w)
	}
	wg.Wait()
}

// ForEachRank runs f concurrently on every worker as a rank of a local
// group, each with the patches of its own range. Reductions through red
// combine the ranks of this process only.
func (rk *RungeKutta) ForEachRank(f func(ns *NavierStokes, red Statistics.Reducer, patches []*AMR.Patch) error) error {
	return Statistics.RunRanks(len(rk.workers), len(rk.Level.Patches), func(red Statistics.Reducer, lo, hi int) error {
		return f(rk.workers[red.Rank()], red, rk.Level.Patches[lo:hi])
	})
}

// Initialize sets the current data of every patch from ic and fills ghosts
func (rk *RungeKutta) Initialize(ic InitialCondition) {
	rk.parallel(func(ns *NavierStokes, p *AMR.Patch) {
		ns.InitializeDataOnPatch(p, ic, rk.Time, ns.CurrentContext)
	})
	rk.FillGhosts(rk.integrator.CurrentContext)
}

// FillGhosts copies neighbour data into the ghost cells of ctx, periodic
// images included, then applies the physical boundary conditions
func (rk *RungeKutta) FillGhosts(ctx AMR.DataContext) {
	defer rk.Profiler.Start("FillGhosts").Stop()
	for _, name := range ConservativeFields {
		rk.Level.FillGhostsFromNeighbors(name, ctx)
	}
	rk.parallel(func(ns *NavierStokes, p *AMR.Patch) {
		ns.SetPhysicalBoundaryConditions(p, ctx, ns.NumGhosts)
	})
}

// ComputeStableDt is CFL times the smallest stable time step of all patches
// of all ranks
func (rk *RungeKutta) ComputeStableDt(initialTime bool) (dt float64) {
	var (
		dts = make([]float64, len(rk.Level.Patches))
	)
	rk.parallelIndexed(func(ns *NavierStokes, k int, p *AMR.Patch) {
		dts[k] = ns.ComputeStableDtOnPatch(p, initialTime, rk.Time)
	})
	inv := []float64{1 / floats.Min(dts)}
	if err := rk.Reducer.AllreduceMax(inv); err != nil {
		panic(err)
	}
	dt = rk.CFL / inv[0]
	return
}

func copyConservative(p *AMR.Patch, dst, src AMR.DataContext) {
	for _, name := range ConservativeFields {
		p.GetCellData(name, dst).CopyFrom(p.GetCellData(name, src))
	}
}

func zeroConservative(p *AMR.Patch, ctx AMR.DataContext) {
	for _, name := range ConservativeFields {
		p.GetCellData(name, ctx).Fill(0)
	}
}

// Step advances the current data of the level by dt
func (rk *RungeKutta) Step(dt float64) {
	defer rk.Profiler.Start("RungeKutta.Step").Stop()
	var (
		ns   = rk.integrator
		last = len(rk.stages) - 1
	)
	rk.FillGhosts(ns.CurrentContext)
	rk.parallel(func(w *NavierStokes, p *AMR.Patch) { w.ResetAccumulatedFluxes(p) })
	for m, st := range rk.stages {
		rk.parallel(func(w *NavierStokes, p *AMR.Patch) {
			w.ComputeHyperbolicFluxesAndSourcesOnPatch(p, rk.Time, dt, m, rk.contexts[m])
			zeroConservative(p, w.NewContext)
			w.AdvanceSingleStep(p, rk.Time, dt, st.Alpha, st.Beta, st.Gamma, rk.contexts[:m+1])
			if m < last {
				copyConservative(p, rk.contexts[m+1], w.NewContext)
			}
		})
		if m < last {
			rk.FillGhosts(rk.contexts[m+1])
		}
	}
	rk.parallel(func(w *NavierStokes, p *AMR.Patch) {
		if rk.Synchronize {
			w.SynchronizeHyperbolicFluxes(p, rk.Time, dt)
			return
		}
		copyConservative(p, w.CurrentContext, w.NewContext)
	})
	rk.Time += dt
	rk.Steps++
}

// CheckPositivity reports the first non-physical state of the current data
func (rk *RungeKutta) CheckPositivity() (err error) {
	var (
		mu sync.Mutex
	)
	rk.parallel(func(w *NavierStokes, p *AMR.Patch) {
		if e := w.PreservePositivity(p, w.CurrentContext); e != nil {
			mu.Lock()
			if err == nil {
				err = e
			}
			mu.Unlock()
		}
	})
	return
}

func (rk *RungeKutta) CheckIfFinished(finalTime float64, maxSteps int) (finished bool) {
	if rk.Time >= finalTime || (maxSteps > 0 && rk.Steps >= maxSteps) {
		finished = true
	}
	return
}

// Run steps until finalTime or maxSteps, whichever comes first. The last
// step is shortened to land on finalTime. A maxSteps of zero means no limit.
func (rk *RungeKutta) Run(finalTime float64, maxSteps int) (err error) {
	var (
		finished = rk.CheckIfFinished(finalTime, maxSteps)
		first    = true
	)
	rk.Log.WithFields(logrus.Fields{
		"scheme":     rk.Type.Print(),
		"final_time": finalTime,
		"max_steps":  maxSteps,
		"patches":    len(rk.Level.Patches),
		"workers":    len(rk.workers),
		"cfl":        rk.CFL,
	}).Info("starting time integration")
	for !finished {
		dt := rk.ComputeStableDt(first)
		first = false
		if rk.Time+dt > finalTime {
			dt = finalTime - rk.Time
		}
		rk.Step(dt)
		if err = rk.CheckPositivity(); err != nil {
			return fmt.Errorf("step %d, time %g: %w", rk.Steps, rk.Time, err)
		}
		if rk.Observer != nil {
			rk.Observer.ObserveStep(rk.Time, dt)
		}
		finished = rk.CheckIfFinished(finalTime, maxSteps)
		if finished || rk.Steps == 1 || (rk.LogFrequency > 0 && rk.Steps%rk.LogFrequency == 0) {
			rk.Log.WithFields(logrus.Fields{
				"step": rk.Steps,
				"time": rk.Time,
				"dt":   dt,
			}).Info("step")
		}
	}
	return
}

// PutToRestart writes the clock, the integrator and the current patch data
func (rk *RungeKutta) PutToRestart(db *Database.Database) {
	db.PutDouble("time", rk.Time)
	db.PutInteger("steps", rk.Steps)
	db.PutString("runge_kutta", rk.Type.Print())
	rk.integrator.PutToRestart(db.PutDatabase("NavierStokes"))
	patches := db.PutDatabase("patches")
	for _, p := range rk.Level.Patches {
		rk.integrator.PutPatchToRestart(p, rk.integrator.CurrentContext, patches)
	}
}

// GetFromRestart restores the clock and the current patch data written by
// PutToRestart
func (rk *RungeKutta) GetFromRestart(db *Database.Database) (err error) {
	var (
		patches *Database.Database
	)
	if rk.Time, err = db.GetDouble("time"); err != nil {
		return
	}
	if rk.Steps, err = db.GetInteger("steps"); err != nil {
		return
	}
	if patches, err = db.GetDatabase("patches"); err != nil {
		return
	}
	for _, p := range rk.Level.Patches {
		if err = rk.integrator.GetPatchFromRestart(p, rk.integrator.CurrentContext, patches); err != nil {
			return
		}
	}
	rk.FillGhosts(rk.integrator.CurrentContext)
	return
}
