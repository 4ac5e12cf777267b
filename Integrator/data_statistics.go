package Integrator

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Statistics"
)

// DataStatistics are the extrema of each conservative equation
type DataStatistics struct {
	Names    []string
	Max, Min []float64
}

// ComputeDataStatistics finds the extrema of the interior conservative
// variables of ctx over the local patches and all ranks of red
func (ns *NavierStokes) ComputeDataStatistics(patches []*AMR.Patch, ctx AMR.DataContext, red Statistics.Reducer) (ds DataStatistics, err error) {
	for _, name := range ConservativeFields {
		depth := 1
		if len(patches) > 0 {
			depth = patches[0].GetCellData(name, ctx).Depth
		} else if name == ConservativeFields[1] {
			depth = ns.Dim
		}
		for n := 0; n < depth; n++ {
			label := name
			if depth > 1 {
				label = fmt.Sprintf("%s_%d", name, n)
			}
			ds.Names = append(ds.Names, label)
		}
	}
	var (
		nEq    = len(ds.Names)
		maxima = make([]float64, nEq)
		// minima are reduced as maxima of the negated values
		negMinima = make([]float64, nEq)
	)
	for ei := range maxima {
		maxima[ei], negMinima[ei] = math.Inf(-1), math.Inf(-1)
	}
	for _, p := range patches {
		for ei, q := range conservativeEquations(p, ctx) {
			p.GetCellData(ConservativeFields[0], ctx).ForEachInterior(func(i, j, k int) {
				v := q.At(i, j, k)
				maxima[ei] = math.Max(maxima[ei], v)
				negMinima[ei] = math.Max(negMinima[ei], -v)
			})
		}
	}
	if err = red.AllreduceMax(maxima); err != nil {
		return
	}
	if err = red.AllreduceMax(negMinima); err != nil {
		return
	}
	ds.Max = maxima
	ds.Min = make([]float64, nEq)
	for ei, v := range negMinima {
		ds.Min[ei] = -v
	}
	return
}

// PrintDataStatistics logs the extrema of the conservative variables from
// rank 0
func (ns *NavierStokes) PrintDataStatistics(patches []*AMR.Patch, ctx AMR.DataContext, red Statistics.Reducer) (err error) {
	var ds DataStatistics
	if ds, err = ns.ComputeDataStatistics(patches, ctx, red); err != nil {
		return
	}
	if red.Rank() != 0 {
		return
	}
	for ei, name := range ds.Names {
		ns.Log.WithFields(logrus.Fields{
			"variable": name,
			"max":      ds.Max[ei],
			"min":      ds.Min[ei],
		}).Info("data statistics")
	}
	return
}
