package EOS

import (
	"fmt"
	"math"

	"github.com/notargets/goamr/Database"
)

// EquationOfState closes the single species Euler system
type EquationOfState interface {
	GetPressure(density float64, momentum []float64, totalEnergy float64) float64
	GetSoundSpeedWithPressure(density, pressure float64) float64
	GetTotalEnergy(density float64, velocity []float64, pressure float64) float64
	GetInternalEnergy(density, pressure float64) float64
	// GetGruneisenParameter is (1/rho)*dp/de at constant density
	GetGruneisenParameter(density, pressure float64) float64
	// GetPressureDerivativeWithDensity is dp/drho at constant internal energy
	GetPressureDerivativeWithDensity(density, pressure float64) float64
	PutToRestart(db *Database.Database)
	Print() string
}

type EOSType uint

const (
	EOS_IdealGas EOSType = iota
)

var (
	EOSNames = map[string]EOSType{
		"ideal_gas": EOS_IdealGas,
	}
	EOSPrintNames = []string{"Ideal Gas"}
)

func (et EOSType) Print() (txt string) {
	txt = EOSPrintNames[et]
	return
}

// IdealGas is the calorically perfect gas p = (gamma-1)*(E - 0.5*|rho u|^2/rho)
type IdealGas struct {
	Gamma float64
}

func NewIdealGas(gamma float64) (ig *IdealGas, err error) {
	if gamma <= 1 {
		err = fmt.Errorf("ideal gas ratio of specific heats must exceed one, have %g", gamma)
		return
	}
	ig = &IdealGas{Gamma: gamma}
	return
}

func (ig *IdealGas) GetPressure(density float64, momentum []float64, totalEnergy float64) float64 {
	var (
		m2 float64
	)
	for _, m := range momentum {
		m2 += m * m
	}
	return (ig.Gamma - 1) * (totalEnergy - 0.5*m2/density)
}

func (ig *IdealGas) GetSoundSpeedWithPressure(density, pressure float64) float64 {
	return math.Sqrt(ig.Gamma * pressure / density)
}

func (ig *IdealGas) GetTotalEnergy(density float64, velocity []float64, pressure float64) float64 {
	var (
		u2 float64
	)
	for _, u := range velocity {
		u2 += u * u
	}
	return pressure/(ig.Gamma-1) + 0.5*density*u2
}

func (ig *IdealGas) GetInternalEnergy(density, pressure float64) float64 {
	return pressure / ((ig.Gamma - 1) * density)
}

func (ig *IdealGas) GetGruneisenParameter(density, pressure float64) float64 { return ig.Gamma - 1 }

func (ig *IdealGas) GetPressureDerivativeWithDensity(density, pressure float64) float64 {
	return pressure / density
}

// GetEnthalpyFactor returns gamma/(gamma-1), so that cp*T = factor*p/rho
func (ig *IdealGas) GetEnthalpyFactor() float64 { return ig.Gamma / (ig.Gamma - 1) }

func (ig *IdealGas) PutToRestart(db *Database.Database) {
	db.PutString("equation_of_state", "ideal_gas")
	db.PutDouble("gamma", ig.Gamma)
}

func (ig *IdealGas) Print() string {
	return fmt.Sprintf("%s, gamma = %8.5f", EOS_IdealGas.Print(), ig.Gamma)
}

// NewEquationOfState builds the equation of state named in db, defaulting
// to an ideal gas with gamma 1.4
func NewEquationOfState(db *Database.Database) (eos EquationOfState, err error) {
	var (
		label = "ideal_gas"
		gamma = 1.4
		ok    bool
		et    EOSType
		ig    *IdealGas
	)
	if db != nil {
		if db.KeyExists("equation_of_state") {
			if label, err = db.GetString("equation_of_state"); err != nil {
				return
			}
		}
		if db.KeyExists("gamma") {
			if gamma, err = db.GetDouble("gamma"); err != nil {
				return
			}
		}
	}
	if et, ok = EOSNames[label]; !ok {
		err = fmt.Errorf("unknown equation of state %q", label)
		return
	}
	switch et {
	case EOS_IdealGas:
		if ig, err = NewIdealGas(gamma); err != nil {
			return
		}
		eos = ig
	}
	return
}
