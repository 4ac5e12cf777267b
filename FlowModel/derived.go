package FlowModel

import (
	"fmt"
	"math"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/types"
)

func (fm *FlowModel) compute(q Quantity, w AMR.IntVector) (cd *AMR.CellData, err error) {
	switch q {
	case PRESSURE:
		cd = fm.computePressure(w)
	case VELOCITY:
		cd = fm.computeVelocity(w)
	case SOUND_SPEED:
		cd = fm.computeSoundSpeed(w)
	case DILATATION:
		cd = fm.computeDilatation(w)
	case VORTICITY:
		cd = fm.computeVorticity(w)
	case ENSTROPHY:
		cd = fm.computeEnstrophy(w)
	case CONVECTIVE_FLUX_X, CONVECTIVE_FLUX_Y, CONVECTIVE_FLUX_Z:
		cd = fm.computeConvectiveFlux(types.Direction(q-CONVECTIVE_FLUX_X), w)
	case MAX_WAVE_SPEED_X, MAX_WAVE_SPEED_Y, MAX_WAVE_SPEED_Z:
		cd = fm.computeMaxWaveSpeed(types.Direction(q-MAX_WAVE_SPEED_X), w)
	default:
		err = fmt.Errorf("%s: unable to compute '%s'", fm.Name, q.Print())
	}
	return
}

// prerequisite returns computed cell data, a missing one means the ledger and
// the compute order disagree
func (fm *FlowModel) prerequisite(q Quantity) *AMR.CellData {
	cd, ok := fm.derived[q]
	if !ok {
		panic(fmt.Errorf("%s: '%s' is used before it is computed", fm.Name, q.Print()))
	}
	return cd
}

func (fm *FlowModel) conservative() (rho, mom, E *AMR.CellData) {
	rho = fm.patch.GetCellData(DensityField, fm.ctx)
	mom = fm.patch.GetCellData(MomentumField, fm.ctx)
	E = fm.patch.GetCellData(TotalEnergyField, fm.ctx)
	return
}

func (fm *FlowModel) newDerived(depth int, w AMR.IntVector) *AMR.CellData {
	return AMR.NewCellData(fm.patch.Box, depth, w)
}

func (fm *FlowModel) computePressure(w AMR.IntVector) (p *AMR.CellData) {
	var (
		rho, mom, E = fm.conservative()
		m           = make([]float64, fm.Dim)
	)
	p = fm.newDerived(1, w)
	p.ForEachWithGhosts(w, func(i, j, k int) {
		for d := range m {
			m[d] = mom.At(d, i, j, k)
		}
		p.Set(0, i, j, k, fm.EOS.GetPressure(rho.At(0, i, j, k), m, E.At(0, i, j, k)))
	})
	return
}

func (fm *FlowModel) computeVelocity(w AMR.IntVector) (vel *AMR.CellData) {
	var (
		rho, mom, _ = fm.conservative()
	)
	vel = fm.newDerived(fm.Dim, w)
	vel.ForEachWithGhosts(w, func(i, j, k int) {
		r := rho.At(0, i, j, k)
		for d := 0; d < fm.Dim; d++ {
			vel.Set(d, i, j, k, mom.At(d, i, j, k)/r)
		}
	})
	return
}

func (fm *FlowModel) computeSoundSpeed(w AMR.IntVector) (c *AMR.CellData) {
	var (
		rho, _, _ = fm.conservative()
		p         = fm.prerequisite(PRESSURE)
	)
	c = fm.newDerived(1, w)
	c.ForEachWithGhosts(w, func(i, j, k int) {
		c.Set(0, i, j, k, fm.EOS.GetSoundSpeedWithPressure(rho.At(0, i, j, k), p.At(0, i, j, k)))
	})
	return
}

// Derivative differentiates component n of cd along dir at local cell
// (i,j,k). The stencil is central inside the ghost halo of cd and one sided on
// its outermost layer.
func Derivative(cd *AMR.CellData, n int, dir types.Direction, dx float64, i, j, k int) float64 {
	var (
		idx   = [3]int{i, j, k}
		c     = idx[dir]
		lo    = -cd.Ghosts[dir]
		hi    = cd.Box.NumberCells()[dir] + cd.Ghosts[dir] - 1
		data  = cd.Data[n]
		here  = cd.View.Index(i, j, k)
		step  = cd.View.Offset(dir)
		width = hi - lo + 1
	)
	switch {
	case width < 2:
		return 0
	case c == lo:
		return (data[here+step] - data[here]) / dx
	case c == hi:
		return (data[here] - data[here-step]) / dx
	default:
		return (data[here+step] - data[here-step]) / (2 * dx)
	}
}

func (fm *FlowModel) computeDilatation(w AMR.IntVector) (theta *AMR.CellData) {
	var (
		vel = fm.prerequisite(VELOCITY)
		dx  = fm.patch.GetDx()
	)
	theta = fm.newDerived(1, w)
	theta.ForEachWithGhosts(w, func(i, j, k int) {
		var div float64
		for _, dir := range types.Directions(fm.Dim) {
			div += Derivative(vel, int(dir), dir, dx[dir], i, j, k)
		}
		theta.Set(0, i, j, k, div)
	})
	return
}

func (fm *FlowModel) computeVorticity(w AMR.IntVector) (omega *AMR.CellData) {
	var (
		vel = fm.prerequisite(VELOCITY)
		dx  = fm.patch.GetDx()
		// du_a/dx_b
		grad = func(a int, b types.Direction, i, j, k int) float64 {
			return Derivative(vel, a, b, dx[b], i, j, k)
		}
	)
	switch fm.Dim {
	case 2:
		omega = fm.newDerived(1, w)
		omega.ForEachWithGhosts(w, func(i, j, k int) {
			omega.Set(0, i, j, k, grad(1, types.X_DIRECTION, i, j, k)-grad(0, types.Y_DIRECTION, i, j, k))
		})
	case 3:
		omega = fm.newDerived(3, w)
		omega.ForEachWithGhosts(w, func(i, j, k int) {
			omega.Set(0, i, j, k, grad(2, types.Y_DIRECTION, i, j, k)-grad(1, types.Z_DIRECTION, i, j, k))
			omega.Set(1, i, j, k, grad(0, types.Z_DIRECTION, i, j, k)-grad(2, types.X_DIRECTION, i, j, k))
			omega.Set(2, i, j, k, grad(1, types.X_DIRECTION, i, j, k)-grad(0, types.Y_DIRECTION, i, j, k))
		})
	default:
		panic(fmt.Errorf("%s: vorticity is undefined in %d dimension", fm.Name, fm.Dim))
	}
	return
}

func (fm *FlowModel) computeEnstrophy(w AMR.IntVector) (ens *AMR.CellData) {
	var (
		omega = fm.prerequisite(VORTICITY)
	)
	ens = fm.newDerived(1, w)
	ens.ForEachWithGhosts(w, func(i, j, k int) {
		var o2 float64
		for n := 0; n < omega.Depth; n++ {
			o := omega.At(n, i, j, k)
			o2 += o * o
		}
		ens.Set(0, i, j, k, 0.5*o2)
	})
	return
}

func (fm *FlowModel) computeConvectiveFlux(dir types.Direction, w AMR.IntVector) (F *AMR.CellData) {
	var (
		rho, mom, E = fm.conservative()
		p           = fm.prerequisite(PRESSURE)
		vel         = fm.prerequisite(VELOCITY)
		nEq         = fm.NumberOfEquations()
	)
	F = fm.newDerived(nEq, w)
	F.ForEachWithGhosts(w, func(i, j, k int) {
		var (
			un = vel.At(int(dir), i, j, k)
			pp = p.At(0, i, j, k)
		)
		F.Set(0, i, j, k, rho.At(0, i, j, k)*un)
		for d := 0; d < fm.Dim; d++ {
			f := mom.At(d, i, j, k) * un
			if d == int(dir) {
				f += pp
			}
			F.Set(1+d, i, j, k, f)
		}
		F.Set(nEq-1, i, j, k, un*(E.At(0, i, j, k)+pp))
	})
	return
}

func (fm *FlowModel) computeMaxWaveSpeed(dir types.Direction, w AMR.IntVector) (lambda *AMR.CellData) {
	var (
		vel = fm.prerequisite(VELOCITY)
		c   = fm.prerequisite(SOUND_SPEED)
	)
	lambda = fm.newDerived(1, w)
	lambda.ForEachWithGhosts(w, func(i, j, k int) {
		lambda.Set(0, i, j, k, math.Abs(vel.At(int(dir), i, j, k))+c.At(0, i, j, k))
	})
	return
}
