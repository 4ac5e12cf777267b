package Statistics

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/FlowModel"
)

// Keys of OutputStatisticalQuantities, written in this order
var StatisticalQuantityKeys = []string{
	"DENSITY",
	"SPECIFIC_VOLUME",
	"DENSITY_VARIANCE",
	"u_p_u_p",
	"v_p_v_p",
	"w_p_w_p",
	"b",
}

// Utilities computes profiles along x averaged over the homogeneous y and z
// directions of a uniform level. Each rank builds its own Utilities with a
// flow model no other goroutine uses.
type Utilities struct {
	Model   FlowModel.Handle
	Domain  AMR.Box
	Ctx     AMR.DataContext
	Reducer Reducer
	Log     logrus.FieldLogger
}

func NewUtilities(model FlowModel.Handle, domain AMR.Box, ctx AMR.DataContext, red Reducer, log logrus.FieldLogger) *Utilities {
	if red == nil {
		red = SerialReducer{}
	}
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Utilities{Model: model, Domain: domain, Ctx: ctx, Reducer: red, Log: log}
}

func (su *Utilities) nx() int { return su.Domain.NumberCells()[0] }

// homogeneousCells is the number of cells averaged into each x station
func (su *Utilities) homogeneousCells() float64 {
	n := su.Domain.NumberCells()
	return float64(n[1] * n[2])
}

// accumulate visits every interior cell of the local patches with the
// values of the requested quantity components and the global x station
func (su *Utilities) accumulate(patches []*AMR.Patch, qs []FlowModel.Quantity, comps []int,
	f func(ix int, vals []float64)) (err error) {
	var (
		fm *FlowModel.FlowModel
	)
	if fm, err = su.Model.Resolve(); err != nil {
		return
	}
	requests := make(map[FlowModel.Quantity]AMR.IntVector)
	for _, q := range qs {
		switch q {
		case FlowModel.DENSITY, FlowModel.MOMENTUM, FlowModel.TOTAL_ENERGY:
		default:
			requests[q] = AMR.NewIntVector(fm.Dim, 0)
		}
	}
	vals := make([]float64, len(qs))
	for _, patch := range patches {
		if err = fm.RegisterPatchWithGlobalCellData(patch, requests, su.Ctx); err != nil {
			return
		}
		var cds []*AMR.CellData
		if err = fm.ComputeGlobalCellData(); err == nil {
			cds, err = fm.GetGlobalCellDataList(qs)
		}
		if err != nil {
			fm.UnregisterPatchWithGlobalCellData()
			return
		}
		for vi, cd := range cds {
			if comps[vi] < 0 || comps[vi] >= cd.Depth {
				fm.UnregisterPatchWithGlobalCellData()
				return fmt.Errorf("component %d of '%s' does not exist", comps[vi], qs[vi].Print())
			}
		}
		lower := patch.Box.Lower[0] - su.Domain.Lower[0]
		patch.GetCellData(FlowModel.DensityField, su.Ctx).ForEachInterior(func(i, j, k int) {
			for vi, cd := range cds {
				vals[vi] = cd.At(comps[vi], i, j, k)
			}
			f(lower+i, vals)
		})
		fm.UnregisterPatchWithGlobalCellData()
	}
	return
}

func (su *Utilities) average(patches []*AMR.Patch, q FlowModel.Quantity, component int, fn func(v float64) float64) (profile []float64, err error) {
	profile = make([]float64, su.nx())
	if err = su.accumulate(patches, []FlowModel.Quantity{q}, []int{component}, func(ix int, vals []float64) {
		profile[ix] += fn(vals[0])
	}); err != nil {
		return nil, err
	}
	if err = su.Reducer.AllreduceSum(profile); err != nil {
		return nil, err
	}
	floats.Scale(1/su.homogeneousCells(), profile)
	return
}

// GetAveragedQuantityWithInhomogeneousXDirection returns <q> per x station
func (su *Utilities) GetAveragedQuantityWithInhomogeneousXDirection(patches []*AMR.Patch, q FlowModel.Quantity, component int) ([]float64, error) {
	return su.average(patches, q, component, func(v float64) float64 { return v })
}

// GetAveragedReciprocalOfQuantityWithInhomogeneousXDirection returns <1/q>
func (su *Utilities) GetAveragedReciprocalOfQuantityWithInhomogeneousXDirection(patches []*AMR.Patch, q FlowModel.Quantity, component int) ([]float64, error) {
	return su.average(patches, q, component, func(v float64) float64 { return 1 / v })
}

// GetQuantityCorrelationWithInhomogeneousXDirection returns the average of the
// product of the fluctuations q' = q - <q> of the listed quantities
func (su *Utilities) GetQuantityCorrelationWithInhomogeneousXDirection(patches []*AMR.Patch, qs []FlowModel.Quantity, comps []int) (corr []float64, err error) {
	if su.Domain.Dim == 1 {
		return nil, fmt.Errorf("quantity correlation for one-dimensional problem: %w", FlowModel.ErrNotImplemented)
	}
	if len(qs) != len(comps) {
		return nil, fmt.Errorf("%d quantities with %d components", len(qs), len(comps))
	}
	means := make([][]float64, len(qs))
	for vi := range qs {
		if means[vi], err = su.GetAveragedQuantityWithInhomogeneousXDirection(patches, qs[vi], comps[vi]); err != nil {
			return nil, err
		}
	}
	corr = make([]float64, su.nx())
	if err = su.accumulate(patches, qs, comps, func(ix int, vals []float64) {
		prod := 1.
		for vi, v := range vals {
			prod *= v - means[vi][ix]
		}
		corr[ix] += prod
	}); err != nil {
		return nil, err
	}
	if err = su.Reducer.AllreduceSum(corr); err != nil {
		return nil, err
	}
	floats.Scale(1/su.homogeneousCells(), corr)
	return
}

// StatisticalQuantity computes the profile of one of StatisticalQuantityKeys
func (su *Utilities) StatisticalQuantity(patches []*AMR.Patch, key string) (profile []float64, err error) {
	var (
		velocity = func(d int) ([]float64, error) {
			if d >= su.Domain.Dim {
				return nil, fmt.Errorf("'%s' needs dimension %d or more", key, d+1)
			}
			return su.GetQuantityCorrelationWithInhomogeneousXDirection(patches,
				[]FlowModel.Quantity{FlowModel.VELOCITY, FlowModel.VELOCITY}, []int{d, d})
		}
	)
	switch key {
	case "DENSITY":
		return su.GetAveragedQuantityWithInhomogeneousXDirection(patches, FlowModel.DENSITY, 0)
	case "SPECIFIC_VOLUME":
		return su.GetAveragedReciprocalOfQuantityWithInhomogeneousXDirection(patches, FlowModel.DENSITY, 0)
	case "DENSITY_VARIANCE":
		return su.GetQuantityCorrelationWithInhomogeneousXDirection(patches,
			[]FlowModel.Quantity{FlowModel.DENSITY, FlowModel.DENSITY}, []int{0, 0})
	case "u_p_u_p":
		return velocity(0)
	case "v_p_v_p":
		return velocity(1)
	case "w_p_w_p":
		return velocity(2)
	case "b":
		var rho, vol []float64
		if rho, err = su.GetAveragedQuantityWithInhomogeneousXDirection(patches, FlowModel.DENSITY, 0); err != nil {
			return
		}
		if vol, err = su.GetAveragedReciprocalOfQuantityWithInhomogeneousXDirection(patches, FlowModel.DENSITY, 0); err != nil {
			return
		}
		// b = -<rho' v'> = <rho><1/rho> - 1
		profile = make([]float64, len(rho))
		floats.MulTo(profile, rho, vol)
		floats.AddConst(-1, profile)
		return
	}
	return nil, fmt.Errorf("unknown statistical quantity %q", key)
}

// OutputStatisticalQuantities appends one record of little-endian float64
// values to path: time followed by the profile of every key in order. All
// ranks compute, rank 0 writes.
func (su *Utilities) OutputStatisticalQuantities(patches []*AMR.Patch, keys []string, path string, time float64) (err error) {
	record := []float64{time}
	for _, key := range keys {
		var profile []float64
		if profile, err = su.StatisticalQuantity(patches, key); err != nil {
			return
		}
		record = append(record, profile...)
	}
	if su.Reducer.Rank() != 0 {
		return
	}
	var f *os.File
	if f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
		return
	}
	defer f.Close()
	if err = binary.Write(f, binary.LittleEndian, record); err != nil {
		return
	}
	su.Log.WithFields(logrus.Fields{
		"file": path,
		"time": time,
		"keys": keys,
	}).Info("wrote statistical quantities")
	return
}
