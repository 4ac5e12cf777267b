package cmd

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/InputParameters"
	"github.com/notargets/goamr/Integrator"
	"github.com/notargets/goamr/Statistics"
	"github.com/notargets/goamr/observability"
)

// Simulation is a level of patches advanced by one integrator, with the
// restart and statistics output asked for by the input parameters
type Simulation struct {
	Input          *InputParameters.InputParameters
	Integrator     *Integrator.NavierStokes
	RK             *Integrator.RungeKutta
	StatisticsKeys []string
	Log            logrus.FieldLogger
}

// defaultStatisticsKeys drops the keys the dimension can not provide
func defaultStatisticsKeys(dim int) (keys []string) {
	for _, key := range Statistics.StatisticalQuantityKeys {
		switch {
		case dim == 1 && key != "DENSITY" && key != "SPECIFIC_VOLUME" && key != "b":
		case dim == 2 && key == "w_p_w_p":
		default:
			keys = append(keys, key)
		}
	}
	return
}

// NewSimulation builds the level and the integrator from the input. With a
// restart database the integrator and the solution come from it, otherwise
// the initial conditions of the input are applied. prof is handed to every
// worker and must be safe for concurrent use.
func NewSimulation(ip *InputParameters.InputParameters, input, restart *Database.Database,
	prof observability.Profiler, log logrus.FieldLogger) (sim *Simulation, err error) {
	var (
		ns       *Integrator.NavierStokes
		nsDB     *Database.Database
		rt       Integrator.RungeKuttaType
		periodic = ip.PeriodicFlags()
		cells    = AMR.NewIntVector(ip.Dim, 0)
		size     = AMR.NewIntVector(ip.Dim, 0)
	)
	copy(cells[:], ip.Cells)
	copy(size[:], ip.PatchSize)
	if rt, err = Integrator.NewRungeKuttaType(ip.RungeKutta); err != nil {
		return
	}
	if restart != nil {
		if nsDB, err = restart.GetDatabase(InputParameters.NavierStokesKey); err != nil {
			return
		}
		ns, err = Integrator.NewNavierStokesFromRestart("NavierStokes", ip.Dim, periodic, nsDB, log)
	} else {
		if nsDB, err = input.GetDatabase(InputParameters.NavierStokesKey); err != nil {
			return
		}
		ns, err = Integrator.NewNavierStokes("NavierStokes", ip.Dim, periodic, nsDB, log)
	}
	if err != nil {
		return
	}
	if prof != nil {
		ns.Profiler = prof
	}
	level := AMR.NewUniformLevel(ip.Dim, cells, ip.XLo, ip.XHi, size, ip.Periodic)
	sim = &Simulation{
		Input:          ip,
		Integrator:     ns,
		StatisticsKeys: ip.StatisticsKeys,
		Log:            log,
	}
	if sim.RK, err = Integrator.NewRungeKutta(rt, ns, level, ip.Workers, ip.CFL); err != nil {
		ns.Release()
		return nil, err
	}
	sim.RK.Synchronize = ip.Synchronize
	sim.RK.LogFrequency = ip.LogFrequency
	sim.RK.Log = log
	if restart != nil {
		if label, e := restart.GetStringWithDefault("runge_kutta", ip.RungeKutta); e == nil && label != ip.RungeKutta {
			log.WithFields(logrus.Fields{
				"restart": label,
				"input":   ip.RungeKutta,
			}).Warn("continuing with a different Runge-Kutta scheme")
		}
		err = sim.RK.GetFromRestart(restart)
	} else {
		var (
			icDB *Database.Database
			ic   Integrator.InitialCondition
		)
		if icDB, err = input.GetDatabase(InputParameters.InitialConditionsKey); err == nil {
			if ic, err = Integrator.NewInitialCondition(ip.Dim, ns.Model.EOS, icDB); err == nil {
				sim.RK.Initialize(ic)
			}
		}
	}
	if err != nil {
		sim.Close()
		return nil, err
	}
	if len(sim.StatisticsKeys) == 0 {
		sim.StatisticsKeys = defaultStatisticsKeys(ip.Dim)
	}
	return
}

func (sim *Simulation) Close() {
	sim.RK.Close()
	sim.Integrator.Release()
}

// nextStop is the step count of the next output, bounded by maxSteps. Zero
// means no bound.
func nextStop(steps, maxSteps int, intervals ...int) (stop int) {
	stop = maxSteps
	for _, iv := range intervals {
		if iv <= 0 {
			continue
		}
		s := (steps/iv + 1) * iv
		if stop == 0 || s < stop {
			stop = s
		}
	}
	return
}

func due(steps, interval int) bool {
	return interval > 0 && steps%interval == 0
}

func (sim *Simulation) WriteRestart(path string) (err error) {
	db := Database.NewDatabase("restart")
	sim.RK.PutToRestart(db)
	if err = db.WriteFile(path); err != nil {
		return fmt.Errorf("writing restart: %w", err)
	}
	sim.Log.WithFields(logrus.Fields{
		"file": path,
		"step": sim.RK.Steps,
		"time": sim.RK.Time,
	}).Info("wrote restart")
	return
}

// WriteStatistics appends a record of the statistical quantities, each
// worker averaging its own patches with its own flow model
func (sim *Simulation) WriteStatistics(path string) error {
	return sim.RK.ForEachRank(func(ns *Integrator.NavierStokes, red Statistics.Reducer, patches []*AMR.Patch) error {
		su := Statistics.NewUtilities(ns.ModelHandle(), sim.RK.Level.Domain, AMR.CURRENT, red, sim.Log)
		return su.OutputStatisticalQuantities(patches, sim.StatisticsKeys, path, sim.RK.Time)
	})
}

// Run advances to the final time or step count of the input, writing restart
// and statistics records at their intervals and once more at the end
func (sim *Simulation) Run() (err error) {
	var (
		ip                  = sim.Input
		rk                  = sim.RK
		finalTime           = ip.FinalTime
		restartAt, statsAt  = -1, -1
		writeRestart, stats = ip.RestartFile != "", ip.StatisticsFile != ""
	)
	if finalTime <= 0 {
		finalTime = math.Inf(1)
	}
	for !rk.CheckIfFinished(finalTime, ip.MaxSteps) {
		if err = rk.Run(finalTime, nextStop(rk.Steps, ip.MaxSteps, ip.RestartInterval, ip.StatisticsInterval)); err != nil {
			return
		}
		if writeRestart && due(rk.Steps, ip.RestartInterval) {
			if err = sim.WriteRestart(ip.RestartFile); err != nil {
				return
			}
			restartAt = rk.Steps
		}
		if stats && due(rk.Steps, ip.StatisticsInterval) {
			if err = sim.WriteStatistics(ip.StatisticsFile); err != nil {
				return
			}
			statsAt = rk.Steps
		}
	}
	if writeRestart && restartAt != rk.Steps {
		if err = sim.WriteRestart(ip.RestartFile); err != nil {
			return
		}
	}
	if stats && statsAt != rk.Steps {
		if err = sim.WriteStatistics(ip.StatisticsFile); err != nil {
			return
		}
	}
	return rk.ForEachRank(func(ns *Integrator.NavierStokes, red Statistics.Reducer, patches []*AMR.Patch) error {
		return ns.PrintDataStatistics(patches, ns.CurrentContext, red)
	})
}
