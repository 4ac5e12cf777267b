package utils

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row major matrix. Methods marked as changing the receiver
// return it for chaining.
type Matrix struct {
	M *mat.Dense
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var m *mat.Dense
	if len(dataO) != 0 {
		if len(dataO[0]) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
		m = mat.NewDense(nr, nc, dataO[0])
	} else {
		m = mat.NewDense(nr, nc, nil)
	}
	R = Matrix{m}
	return
}

func NewIdentity(n int) (R Matrix) {
	R = NewMatrix(n, n)
	for i := 0; i < n; i++ {
		R.M.Set(i, i, 1)
	}
	return
}

// Dims, At and T satisfy the mat.Matrix interface
func (m Matrix) Dims() (r, c int)    { return m.M.Dims() }
func (m Matrix) At(i, j int) float64 { return m.M.At(i, j) }
func (m Matrix) T() mat.Matrix       { return m.M.T() }

// RawData is the row major backing array
func (m Matrix) RawData() []float64 { return m.M.RawMatrix().Data }

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.M.Set(i, j, val)
	return m
}

func (m Matrix) Scale(a float64) Matrix { // Changes receiver
	m.M.Scale(a, m.M)
	return m
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	R = Matrix{mat.DenseCopyOf(m.M)}
	return
}

func (m Matrix) Mul(A Matrix) (R Matrix) { // Does not change receiver
	var (
		nrM, _ = m.M.Dims()
		_, ncA = A.M.Dims()
	)
	R = NewMatrix(nrM, ncA)
	R.M.Mul(m.M, A.M)
	return
}

// MulVec sets y = m*x
func (m Matrix) MulVec(x, y []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(x) != nc || len(y) != nr {
		panic(fmt.Errorf("dimension mismatch: %dx%d matrix times vector %d into %d", nr, nc, len(x), len(y)))
	}
	yv := mat.NewVecDense(nr, y)
	yv.MulVec(m.M, mat.NewVecDense(nc, x))
}

func (m Matrix) Inverse() (R Matrix, err error) {
	var (
		nr, _ = m.Dims()
	)
	R = NewMatrix(nr, nr)
	if err = R.M.Inverse(m.M); err != nil {
		err = fmt.Errorf("unable to invert: %w", err)
	}
	return
}

func (m Matrix) String() string {
	return fmt.Sprintf("%v", mat.Formatted(m.M, mat.Squeeze()))
}
