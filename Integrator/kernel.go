package Integrator

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/FlowModel"
	"github.com/notargets/goamr/Reconstruction"
	"github.com/notargets/goamr/types"
)

// ComputeStableDtOnPatch returns the inverse of the largest spectral radius
// sum_d lambda_d/dx_d over the interior cells of the current data
func (ns *NavierStokes) ComputeStableDtOnPatch(patch *AMR.Patch, initialTime bool, time float64) (dt float64) {
	defer ns.Profiler.Start("ComputeStableDtOnPatch").Stop()
	var (
		fm       = ns.Model
		zero     = AMR.NewIntVector(ns.Dim, 0)
		dx       = patch.GetDx()
		requests = make(map[FlowModel.Quantity]AMR.IntVector)
		dirs     = types.Directions(ns.Dim)
	)
	for _, dir := range dirs {
		requests[FlowModel.MaxWaveSpeed(dir)] = zero
	}
	if err := fm.RegisterPatchWithGlobalCellData(patch, requests, ns.CurrentContext); err != nil {
		panic(err)
	}
	defer fm.UnregisterPatchWithGlobalCellData()
	if err := fm.ComputeGlobalCellData(); err != nil {
		panic(err)
	}
	lambdas := make([]*AMR.CellData, len(dirs))
	for _, dir := range dirs {
		var err error
		if lambdas[dir], err = fm.GetGlobalCellData(FlowModel.MaxWaveSpeed(dir)); err != nil {
			panic(err)
		}
	}
	dts := make([]float64, 0, patch.Box.Size())
	lambdas[0].ForEachInterior(func(i, j, k int) {
		if len(dirs) == 1 {
			dts = append(dts, dx[0]/lambdas[0].At(0, i, j, k))
			return
		}
		var r float64
		for _, dir := range dirs {
			r += lambdas[dir].At(0, i, j, k) / dx[dir]
		}
		dts = append(dts, 1/r)
	})
	dt = floats.Min(dts)
	ns.Log.WithFields(logrus.Fields{
		"patch":   patch.Number,
		"time":    time,
		"initial": initialTime,
		"dt":      dt,
	}).Debug("stable time step")
	return
}

// ComputeHyperbolicFluxesAndSourcesOnPatch zeroes the source and fills the
// convective and diffusive face fluxes of ctx, all integrated over dt
func (ns *NavierStokes) ComputeHyperbolicFluxesAndSourcesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext) {
	defer ns.Profiler.Start("ComputeHyperbolicFluxesAndSourcesOnPatch").Stop()
	patch.GetCellData(Reconstruction.SourceField, ctx).Fill(0)
	if err := ns.Convective.ComputeConvectiveFluxesAndSourcesOnPatch(patch, time, dt, rkStage, ctx); err != nil {
		panic(err)
	}
	if err := ns.Diffusive.ComputeDiffusiveFluxesOnPatch(patch, time, dt, rkStage, ctx); err != nil {
		panic(err)
	}
}

func conservativeEquations(patch *AMR.Patch, ctx AMR.DataContext) []FlowModel.EquationData {
	cds := make([]*AMR.CellData, len(ConservativeFields))
	for vi, name := range ConservativeFields {
		cds[vi] = patch.GetCellData(name, ctx)
	}
	return FlowModel.Equations(cds)
}

// addDivergence adds coef*(S - sum_d (F(i+1) - F(i))/dx_d) of the flux and
// source buffers in ctx to the interior of Q
func (ns *NavierStokes) addDivergence(patch *AMR.Patch, Q []FlowModel.EquationData, ctx AMR.DataContext, coef float64) {
	var (
		Fc   = patch.GetFaceData(Reconstruction.ConvectiveFluxField, ctx)
		Fd   = patch.GetFaceData(Reconstruction.DiffusiveFluxField, ctx)
		S    = patch.GetCellData(Reconstruction.SourceField, ctx)
		dx   = patch.GetDx()
		dirs = types.Directions(ns.Dim)
	)
	S.ForEachInterior(func(i, j, k int) {
		for ei, q := range Q {
			var (
				cell = AMR.IntVector{i, j, k}
				div  float64
			)
			for _, dir := range dirs {
				plus := cell
				plus[dir]++
				dF := Fc.At(dir, ei, plus[0], plus[1], plus[2]) - Fc.At(dir, ei, i, j, k) +
					Fd.At(dir, ei, plus[0], plus[1], plus[2]) - Fd.At(dir, ei, i, j, k)
				div += dF / dx[dir]
			}
			q.Data[q.View.Index(i, j, k)] += coef * (S.At(ei, i, j, k) - div)
		}
	})
}

// AdvanceSingleStep updates the conservative variables of NewContext with
// the stage contexts in intermediate:
//
//	Q += alpha[n]*Q_n
//	Q += beta[n]*(S_n - div F_n)
//	F_accum += gamma[n]*F_n, S_accum += gamma[n]*S_n
//
// all alpha terms first, then beta, then gamma. Zero coefficients skip their
// pass. Q must hold the part of the update not built from the stages, zero
// for the usual Runge-Kutta schemes.
func (ns *NavierStokes) AdvanceSingleStep(patch *AMR.Patch, time, dt float64, alpha, beta, gamma []float64, intermediate []AMR.DataContext) {
	defer ns.Profiler.Start("AdvanceSingleStep").Stop()
	if len(alpha) != len(beta) || len(alpha) != len(gamma) || len(alpha) != len(intermediate) {
		panic(fmt.Errorf("%s: coefficient lengths %d, %d, %d with %d intermediate contexts",
			ns.ObjectName, len(alpha), len(beta), len(gamma), len(intermediate)))
	}
	var (
		Q []FlowModel.EquationData
	)
	for n, a := range alpha {
		if a == 0 && beta[n] == 0 && gamma[n] == 0 {
			continue
		}
		if intermediate[n] == ns.NewContext {
			panic(fmt.Errorf("%s: stage %d reads the context it updates, %s", ns.ObjectName, n, ns.NewContext))
		}
		if Q == nil {
			Q = conservativeEquations(patch, ns.NewContext)
		}
	}
	for n, a := range alpha {
		if a == 0 {
			continue
		}
		Qn := conservativeEquations(patch, intermediate[n])
		for ei := range Q {
			if Q[ei].View != Qn[ei].View {
				panic(fmt.Errorf("%s: ghost layout of %s differs from %s", ns.ObjectName, intermediate[n], ns.NewContext))
			}
			floats.AddScaled(Q[ei].Data, a, Qn[ei].Data)
		}
	}
	for n, b := range beta {
		if b == 0 {
			continue
		}
		ns.addDivergence(patch, Q, intermediate[n], b)
	}
	for n, g := range gamma {
		if g == 0 {
			continue
		}
		ns.accumulateFluxes(patch, intermediate[n], g)
	}
}

func (ns *NavierStokes) accumulateFluxes(patch *AMR.Patch, ctx AMR.DataContext, coef float64) {
	for _, name := range []string{Reconstruction.ConvectiveFluxField, Reconstruction.DiffusiveFluxField} {
		var (
			acc = patch.GetFaceData(name, ns.NewContext)
			F   = patch.GetFaceData(name, ctx)
		)
		for _, dir := range types.Directions(ns.Dim) {
			for ei := 0; ei < acc.Depth; ei++ {
				floats.AddScaled(acc.Component(dir, ei), coef, F.Component(dir, ei))
			}
		}
	}
	var (
		acc = patch.GetCellData(Reconstruction.SourceField, ns.NewContext)
		S   = patch.GetCellData(Reconstruction.SourceField, ctx)
	)
	for ei := 0; ei < acc.Depth; ei++ {
		floats.AddScaled(acc.Component(ei), coef, S.Component(ei))
	}
}

// ResetAccumulatedFluxes zeroes the flux and source accumulators of
// NewContext
func (ns *NavierStokes) ResetAccumulatedFluxes(patch *AMR.Patch) {
	patch.GetFaceData(Reconstruction.ConvectiveFluxField, ns.NewContext).Fill(0)
	patch.GetFaceData(Reconstruction.DiffusiveFluxField, ns.NewContext).Fill(0)
	patch.GetCellData(Reconstruction.SourceField, ns.NewContext).Fill(0)
}

// SynchronizeHyperbolicFluxes applies the divergence of the accumulated
// fluxes and the accumulated source of NewContext to the current data
func (ns *NavierStokes) SynchronizeHyperbolicFluxes(patch *AMR.Patch, time, dt float64) {
	defer ns.Profiler.Start("SynchronizeHyperbolicFluxes").Stop()
	ns.addDivergence(patch, conservativeEquations(patch, ns.CurrentContext), ns.NewContext, 1)
}

// PreservePositivity checks the interior of ctx for non-physical states and
// reports the first one found. It changes nothing.
func (ns *NavierStokes) PreservePositivity(patch *AMR.Patch, ctx AMR.DataContext) (err error) {
	var (
		Q = conservativeEquations(patch, ctx)
		q = make([]float64, len(Q))
	)
	patch.GetCellData(FlowModel.DensityField, ctx).ForEachInterior(func(i, j, k int) {
		if err != nil {
			return
		}
		for ei := range Q {
			q[ei] = Q[ei].At(i, j, k)
		}
		if !ns.Model.HaveConservativeVariablesBounded(q) {
			cell := patch.Box.Lower.Add(AMR.IntVector{i, j, k})
			err = fmt.Errorf("%s: patch %d cell %v has non-physical state %v", ns.ObjectName, patch.Number, cell, q)
		}
	})
	return
}
