package sod_shock_tube

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSOD(t *testing.T) {
	{ // Known wave positions and plateau states
		X, Rho, P, U, E, x4 := SOD_calc(0.1)
		assert.Equal(t, len(X), len(Rho))
		assert.Equal(t, len(X), len(P))
		assert.Equal(t, len(X), len(U))
		assert.Equal(t, len(X), len(E))
		assert.InDelta(t, 0.6752, x4, 0.0001)
		assert.Equal(t, 1., Rho[0])
		assert.Equal(t, 0.125, Rho[len(Rho)-1])
		for i := 1; i < len(X); i++ {
			assert.True(t, X[i] > X[i-1])
			// density never increases from left to right
			assert.True(t, Rho[i] <= Rho[i-1]+1.e-12)
		}
		_, _, _, _, _, x4 = SOD_calc(0.2)
		assert.InDelta(t, 0.8504, x4, 0.0001)
	}
	{ // Post shock states
		st := NewSodShockTube()
		pPost, rhoMiddle, rhoPost := st.PostShock()
		assert.InDelta(t, 0.30313, pPost, 1.e-4)
		assert.InDelta(t, 0.42632, rhoMiddle, 1.e-4)
		assert.InDelta(t, 0.26557, rhoPost, 1.e-4)
		x1, x2, x3, x4 := st.Waves(0.1)
		assert.InDelta(t, 0.38168, x1, 1.e-4)
		assert.InDelta(t, 0.49297, x2, 1.e-3)
		assert.InDelta(t, 0.59274, x3, 1.e-3)
		assert.InDelta(t, 0.67522, x4, 1.e-4)
		// Pressure and velocity are continuous across the contact
		rL, uL, pL := st.State(x3-1.e-6, 0.1)
		rR, uR, pR := st.State(x3+1.e-6, 0.1)
		assert.InDelta(t, pL, pR, 1.e-12)
		assert.InDelta(t, uL, uR, 1.e-12)
		assert.True(t, rL > rR)
		// Rarefaction is continuous at its tail
		r1, _, p1 := st.State(x2-1.e-9, 0.1)
		assert.InDelta(t, rhoMiddle, r1, 1.e-6)
		assert.InDelta(t, pPost, p1, 1.e-6)
	}
	{ // Rankine-Hugoniot mass balance across the shock
		st := NewSodShockTube()
		_, _, _, x4 := st.Waves(1)
		s := x4 - st.X0
		rho2, u2, _ := st.State(st.X0+s-1.e-9, 1)
		assert.InDelta(t, st.RhoR*s, rho2*(s-u2), 1.e-8)
	}
	{ // Initial state and bad inputs
		st := NewSodShockTube()
		rho, u, p := st.State(0.2, 0)
		assert.Equal(t, [3]float64{1, 0, 1}, [3]float64{rho, u, p})
		_, err := NewShockTube(0.5, 1.4, 1, 0.1, 0.125, 1)
		require.Error(t, err)
		_, err = NewShockTube(0.5, 1, 1, 1, 0.125, 0.1)
		require.Error(t, err)
		assert.False(t, math.IsNaN(st.pressureFunction(0.3)))
	}
}
