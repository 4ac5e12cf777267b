package Integrator

import (
	"fmt"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
)

func patchKey(number int) string { return fmt.Sprintf("patch_%d", number) }

// PutPatchToRestart writes the interior conservative variables of ctx under
// "patch_<number>", one vector per component with x fastest
func (ns *NavierStokes) PutPatchToRestart(patch *AMR.Patch, ctx AMR.DataContext, db *Database.Database) {
	sub := db.PutDatabase(patchKey(patch.Number))
	sub.PutIntegerVector("box_lower", patch.Box.Lower[:ns.Dim])
	sub.PutIntegerVector("box_upper", patch.Box.Upper[:ns.Dim])
	for _, name := range ConservativeFields {
		cd := patch.GetCellData(name, ctx)
		for n := 0; n < cd.Depth; n++ {
			vals := make([]float64, 0, patch.Box.Size())
			cd.ForEachInterior(func(i, j, k int) {
				vals = append(vals, cd.At(n, i, j, k))
			})
			sub.PutDoubleVector(fmt.Sprintf("%s_%d", name, n), vals)
		}
	}
}

// GetPatchFromRestart fills the interior of ctx from PutPatchToRestart data.
// The stored box must match the patch.
func (ns *NavierStokes) GetPatchFromRestart(patch *AMR.Patch, ctx AMR.DataContext, db *Database.Database) (err error) {
	var (
		sub          *Database.Database
		lower, upper []int
	)
	if sub, err = db.GetDatabase(patchKey(patch.Number)); err != nil {
		return
	}
	if lower, err = sub.GetIntegerVector("box_lower"); err != nil {
		return
	}
	if upper, err = sub.GetIntegerVector("box_upper"); err != nil {
		return
	}
	if len(lower) != ns.Dim || len(upper) != ns.Dim {
		return fmt.Errorf("%s: restart box of patch %d has the wrong dimension", ns.ObjectName, patch.Number)
	}
	box := AMR.NewBox(ns.Dim, AMR.NewIntVector(ns.Dim, lower...), AMR.NewIntVector(ns.Dim, upper...))
	if box != patch.Box {
		return fmt.Errorf("%s: restart box %v of patch %d does not match %v", ns.ObjectName, box, patch.Number, patch.Box)
	}
	for _, name := range ConservativeFields {
		cd := patch.GetCellData(name, ctx)
		for n := 0; n < cd.Depth; n++ {
			var vals []float64
			if vals, err = sub.GetDoubleVector(fmt.Sprintf("%s_%d", name, n)); err != nil {
				return
			}
			if len(vals) != patch.Box.Size() {
				return fmt.Errorf("%s: patch %d field %s has %d values, need %d",
					ns.ObjectName, patch.Number, name, len(vals), patch.Box.Size())
			}
			idx := 0
			cd.ForEachInterior(func(i, j, k int) {
				cd.Set(n, i, j, k, vals[idx])
				idx++
			})
		}
	}
	return
}
