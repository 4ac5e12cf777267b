package FlowModel

import (
	"fmt"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/types"
)

// DiffusiveTerm is one contribution Coef * Weight * d(Variable)/dx_derivDir
// to the diffusive flux of equation Eqn
type DiffusiveTerm struct {
	Eqn       int
	Variable  *AMR.CellData
	Component int
	Coef      float64
	// Weight is optional, WeightComponent is -1 without it
	Weight          *AMR.CellData
	WeightComponent int
}

// DiffusiveFluxUtilities supplies the diffusive flux of a flow model as a sum
// of weighted derivative terms per flux direction and derivative direction
type DiffusiveFluxUtilities interface {
	RegisterDerivedVariablesForDiffusiveFluxes(width AMR.IntVector) error
	ComputeDerivedCellData() error
	GetDiffusiveFluxTerms(fluxDir, derivDir types.Direction) ([]DiffusiveTerm, error)
	ClearCellData()
}

// NewDiffusiveFluxUtilities builds the utilities of the flow model type
// behind h
func NewDiffusiveFluxUtilities(ft FlowModelType, h Handle) (du DiffusiveFluxUtilities, err error) {
	switch ft {
	case SINGLE_SPECIES:
		du = &SingleSpeciesDiffusiveFluxUtilities{model: h}
	case FOUR_EQN_CONSERVATIVE:
		du = &FourEqnConservativeDiffusiveFluxUtilities{}
	default:
		err = fmt.Errorf("no diffusive flux utilities for flow model %s", ft.Print())
	}
	return
}

// SingleSpeciesDiffusiveFluxUtilities gives the Newtonian viscous stress with
// Stokes' hypothesis and Fourier heat conduction at constant Prandtl number
type SingleSpeciesDiffusiveFluxUtilities struct {
	model    Handle
	width    AMR.IntVector
	enthalpy *AMR.CellData
}

func (du *SingleSpeciesDiffusiveFluxUtilities) RegisterDerivedVariablesForDiffusiveFluxes(width AMR.IntVector) (err error) {
	var fm *FlowModel
	if fm, err = du.model.Resolve(); err != nil {
		return
	}
	if !fm.IsRegistered() {
		return fmt.Errorf("%s: diffusive flux variables: %w", fm.Name, ErrNotRegistered)
	}
	if err = fm.checkWidth("DIFFUSIVE_FLUX", width); err != nil {
		return
	}
	if err = fm.ledger.Require("DIFFUSIVE_FLUX", []Quantity{VELOCITY, PRESSURE}, false, width); err != nil {
		return fmt.Errorf("%s: %w", fm.Name, err)
	}
	du.width = width
	return
}

// ComputeDerivedCellData computes the flow model data plus the specific
// enthalpy e + p/rho whose gradient drives the heat flux
func (du *SingleSpeciesDiffusiveFluxUtilities) ComputeDerivedCellData() (err error) {
	var (
		fm     *FlowModel
		p, rho *AMR.CellData
	)
	if fm, err = du.model.Resolve(); err != nil {
		return
	}
	if err = fm.ComputeGlobalCellData(); err != nil {
		return
	}
	if du.enthalpy != nil {
		return
	}
	if p, err = fm.GetGlobalCellData(PRESSURE); err != nil {
		return
	}
	if rho, err = fm.GetGlobalCellData(DENSITY); err != nil {
		return
	}
	du.enthalpy = AMR.NewCellData(fm.patch.Box, 1, du.width)
	du.enthalpy.ForEachWithGhosts(du.width, func(i, j, k int) {
		r, pp := rho.At(0, i, j, k), p.At(0, i, j, k)
		du.enthalpy.Set(0, i, j, k, fm.EOS.GetInternalEnergy(r, pp)+pp/r)
	})
	return
}

// GetDiffusiveFluxTerms lists the terms of every equation for the flux
// normal to fluxDir that differentiate along derivDir. The diffusive flux is
// minus the viscous flux.
func (du *SingleSpeciesDiffusiveFluxUtilities) GetDiffusiveFluxTerms(fluxDir, derivDir types.Direction) (terms []DiffusiveTerm, err error) {
	var (
		fm  *FlowModel
		vel *AMR.CellData
	)
	if fm, err = du.model.Resolve(); err != nil {
		return
	}
	if !fluxDir.Valid(fm.Dim) || !derivDir.Valid(fm.Dim) {
		return nil, fmt.Errorf("%s: diffusive flux %s/%s: %w", fm.Name, fluxDir.Print(), derivDir.Print(), ErrDimension)
	}
	if du.enthalpy == nil {
		return nil, fmt.Errorf("%s: enthalpy for diffusive fluxes: %w", fm.Name, ErrNotComputed)
	}
	if vel, err = fm.GetGlobalCellData(VELOCITY); err != nil {
		return
	}
	var (
		mu     = fm.Mu
		energy = fm.Dim + 1
		fd, dd = int(fluxDir), int(derivDir)
	)
	// tau_i,fd = mu*(du_i/dx_fd + du_fd/dx_i) - 2/3*mu*delta_i,fd*div(u)
	stress := func(i int) (ts []DiffusiveTerm) {
		if dd == fd {
			ts = append(ts, DiffusiveTerm{Variable: vel, Component: i, Coef: -mu})
		}
		if i == dd {
			ts = append(ts, DiffusiveTerm{Variable: vel, Component: fd, Coef: -mu})
		}
		if i == fd {
			ts = append(ts, DiffusiveTerm{Variable: vel, Component: dd, Coef: 2. / 3. * mu})
		}
		return
	}
	for i := 0; i < fm.Dim; i++ {
		for _, t := range stress(i) {
			t.Eqn = 1 + i
			t.WeightComponent = -1
			terms = append(terms, t)
			t.Eqn = energy
			t.Weight = vel
			t.WeightComponent = i
			terms = append(terms, t)
		}
	}
	if dd == fd {
		terms = append(terms, DiffusiveTerm{
			Eqn:             energy,
			Variable:        du.enthalpy,
			Coef:            -mu / fm.Prandtl,
			WeightComponent: -1,
		})
	}
	return
}

func (du *SingleSpeciesDiffusiveFluxUtilities) ClearCellData() { du.enthalpy = nil }

// FourEqnConservativeDiffusiveFluxUtilities belongs to the two phase four
// equation model, which has no diffusive fluxes yet
type FourEqnConservativeDiffusiveFluxUtilities struct{}

func (du *FourEqnConservativeDiffusiveFluxUtilities) RegisterDerivedVariablesForDiffusiveFluxes(width AMR.IntVector) error {
	return fmt.Errorf("four-eqn_conservative diffusive flux variables are %w", ErrNotImplemented)
}

func (du *FourEqnConservativeDiffusiveFluxUtilities) ComputeDerivedCellData() error {
	return fmt.Errorf("four-eqn_conservative diffusive cell data is %w", ErrNotImplemented)
}

func (du *FourEqnConservativeDiffusiveFluxUtilities) GetDiffusiveFluxTerms(fluxDir, derivDir types.Direction) ([]DiffusiveTerm, error) {
	return nil, fmt.Errorf("four-eqn_conservative diffusive fluxes are %w", ErrNotImplemented)
}

func (du *FourEqnConservativeDiffusiveFluxUtilities) ClearCellData() {}
