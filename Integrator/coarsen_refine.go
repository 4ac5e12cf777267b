package Integrator

import (
	"github.com/notargets/goamr/AMR"
)

// CoarsenConservativeVariables replaces every cell of coarse that is fully
// covered by fine with the average of the fine cells it contains
func (ns *NavierStokes) CoarsenConservativeVariables(fine, coarse *AMR.Patch, ratio AMR.IntVector, ctx AMR.DataContext) {
	defer ns.Profiler.Start("CoarsenConservativeVariables").Stop()
	var (
		region = coarse.Box.Intersect(fine.Box.Coarsen(ratio))
		one    = AMR.NewIntVector(ns.Dim, 1)
	)
	for _, name := range ConservativeFields {
		var (
			fcd = fine.GetCellData(name, ctx)
			ccd = coarse.GetCellData(name, ctx)
		)
		region.ForEach(func(i, j, k int) {
			var (
				lo    = AMR.IntVector{i, j, k}.Mul(ratio)
				cells = AMR.NewBox(ns.Dim, lo, lo.Add(ratio).Sub(one))
				c     = AMR.IntVector{i, j, k}.Sub(coarse.Box.Lower)
				vol   = float64(cells.Size())
			)
			if !fine.Box.ContainsBox(cells) {
				return
			}
			for n := 0; n < ccd.Depth; n++ {
				var sum float64
				cells.ForEach(func(fi, fj, fk int) {
					f := AMR.IntVector{fi, fj, fk}.Sub(fine.Box.Lower)
					sum += fcd.At(n, f[0], f[1], f[2])
				})
				ccd.Set(n, c[0], c[1], c[2], sum/vol)
			}
		})
	}
}

// RefineConservativeVariables injects the coarse cell values into the fine
// cells they cover
func (ns *NavierStokes) RefineConservativeVariables(coarse, fine *AMR.Patch, ratio AMR.IntVector, ctx AMR.DataContext) {
	defer ns.Profiler.Start("RefineConservativeVariables").Stop()
	region := fine.Box.Intersect(coarse.Box.Refine(ratio))
	for _, name := range ConservativeFields {
		var (
			fcd = fine.GetCellData(name, ctx)
			ccd = coarse.GetCellData(name, ctx)
		)
		region.ForEach(func(i, j, k int) {
			var (
				f = AMR.IntVector{i, j, k}
				c = f.Coarsen(ratio).Sub(coarse.Box.Lower)
			)
			f = f.Sub(fine.Box.Lower)
			for n := 0; n < fcd.Depth; n++ {
				fcd.Set(n, f[0], f[1], f[2], ccd.At(n, c[0], c[1], c[2]))
			}
		})
	}
}
