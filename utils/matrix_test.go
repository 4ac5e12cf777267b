package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix(t *testing.T) {
	// T is the transposed view
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		r, c := M.T().Dims()
		assert.Equal(t, 3, r)
		assert.Equal(t, 2, c)
		assert.Equal(t, 6., M.T().At(2, 1))
	}
	// Mul, MulVec
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := M.Mul(NewMatrix(3, 2, []float64{1, 4, 2, 5, 3, 6}))
		assert.Equal(t, []float64{14, 32, 32, 77}, A.RawData())
		y := make([]float64, 2)
		M.MulVec([]float64{1, 0, -1}, y)
		assert.Equal(t, []float64{-2, -2}, y)
		assert.Panics(t, func() { M.MulVec([]float64{1, 2}, y) })
	}
	// Copy does not alias, Set and Scale chain
	{
		M := NewIdentity(3)
		C := M.Copy().Set(0, 2, 5).Scale(2)
		assert.Equal(t, 0., M.At(0, 2))
		assert.Equal(t, 10., C.At(0, 2))
		assert.Equal(t, 2., C.At(1, 1))
	}
	// Inverse
	{
		M := NewMatrix(3, 3, []float64{
			4, 7, 2,
			3, 6, 1,
			2, 5, 3,
		})
		R, err := M.Inverse()
		require.NoError(t, err)
		I := M.Mul(R)
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				want := 0.
				if i == j {
					want = 1
				}
				assert.InDelta(t, want, I.At(i, j), 1.e-12)
			}
		}
		_, err = NewMatrix(2, 2, []float64{1, 2, 2, 4}).Inverse()
		assert.Error(t, err)
	}
	assert.Panics(t, func() { NewMatrix(2, 2, []float64{1}) })
}
