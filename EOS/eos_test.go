package EOS

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/goamr/Database"
)

func TestIdealGas(t *testing.T) {
	{
		ig, err := NewIdealGas(1.4)
		require.NoError(t, err)
		rho, u, v, p := 1.2, 0.3, -0.4, 2.0
		E := ig.GetTotalEnergy(rho, []float64{u, v}, p)
		assert.InDelta(t, p/0.4+0.5*rho*(u*u+v*v), E, 1e-14)
		assert.InDelta(t, p, ig.GetPressure(rho, []float64{rho * u, rho * v}, E), 1e-13)
		assert.InDelta(t, math.Sqrt(1.4*p/rho), ig.GetSoundSpeedWithPressure(rho, p), 1e-14)
		assert.InDelta(t, 3.5, ig.GetEnthalpyFactor(), 1e-14)
		e := ig.GetInternalEnergy(rho, p)
		assert.InDelta(t, E, rho*e+0.5*rho*(u*u+v*v), 1e-13)
		// p = Gamma*rho*e
		assert.InDelta(t, p, ig.GetGruneisenParameter(rho, p)*rho*e, 1e-13)
		assert.InDelta(t, ig.GetGruneisenParameter(rho, p)*e, ig.GetPressureDerivativeWithDensity(rho, p), 1e-13)
	}
	{
		_, err := NewIdealGas(1)
		assert.Error(t, err)
	}
	{ // Built from a database, restart round trip
		db := Database.NewDatabase("Flow_model")
		db.PutDouble("gamma", 5./3.)
		eos, err := NewEquationOfState(db)
		require.NoError(t, err)
		out := Database.NewDatabase("restart")
		eos.PutToRestart(out)
		back, err := NewEquationOfState(out)
		require.NoError(t, err)
		assert.Equal(t, eos, back)

		db.PutString("equation_of_state", "stiffened")
		_, err = NewEquationOfState(db)
		assert.Error(t, err)
		eos, err = NewEquationOfState(nil)
		require.NoError(t, err)
		assert.Equal(t, 1.4, eos.(*IdealGas).Gamma)
	}
}
