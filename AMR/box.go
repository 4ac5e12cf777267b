package AMR

import "fmt"

// IntVector holds one integer per direction, components past the problem
// dimension are unused and kept at zero.
type IntVector [3]int

func NewIntVector(dim int, vals ...int) (iv IntVector) {
	switch len(vals) {
	case 1:
		for d := 0; d < dim; d++ {
			iv[d] = vals[0]
		}
	case dim:
		copy(iv[:dim], vals)
	default:
		panic(fmt.Errorf("unable to build IntVector of dimension %d from %d values", dim, len(vals)))
	}
	return
}

// Unset is the ledger marker for a quantity that has not been requested
func Unset(dim int) IntVector { return NewIntVector(dim, -1) }

func (iv IntVector) Add(o IntVector) IntVector {
	return IntVector{iv[0] + o[0], iv[1] + o[1], iv[2] + o[2]}
}

func (iv IntVector) Sub(o IntVector) IntVector {
	return IntVector{iv[0] - o[0], iv[1] - o[1], iv[2] - o[2]}
}

func (iv IntVector) Mul(o IntVector) IntVector {
	return IntVector{iv[0] * o[0], iv[1] * o[1], iv[2] * o[2]}
}

// Coarsen maps a cell index onto the index space ratio times coarser
func (iv IntVector) Coarsen(ratio IntVector) (c IntVector) {
	for d := 0; d < 3; d++ {
		if ratio[d] == 0 {
			c[d] = iv[d]
			continue
		}
		c[d] = floorDiv(iv[d], ratio[d])
	}
	return
}

// Exceeds is true if any of the first dim components is larger than in o
func (iv IntVector) Exceeds(o IntVector, dim int) bool {
	for d := 0; d < dim; d++ {
		if iv[d] > o[d] {
			return true
		}
	}
	return false
}

// Less is true if any of the first dim components is smaller than in o
func (iv IntVector) Less(o IntVector, dim int) bool {
	return o.Exceeds(iv, dim)
}

func (iv IntVector) Equal(o IntVector, dim int) bool {
	for d := 0; d < dim; d++ {
		if iv[d] != o[d] {
			return false
		}
	}
	return true
}

// IsSet is false for the ledger marker produced by Unset
func (iv IntVector) IsSet(dim int) bool {
	for d := 0; d < dim; d++ {
		if iv[d] < 0 {
			return false
		}
	}
	return true
}

func (iv IntVector) String() string { return fmt.Sprintf("(%d,%d,%d)", iv[0], iv[1], iv[2]) }

// Box is an index space region, both bounds inclusive
type Box struct {
	Dim          int
	Lower, Upper IntVector
}

func NewBox(dim int, lower, upper IntVector) (b Box) {
	b = Box{Dim: dim, Lower: lower, Upper: upper}
	for d := dim; d < 3; d++ {
		b.Lower[d], b.Upper[d] = 0, 0
	}
	return
}

func EmptyBox(dim int) Box {
	return Box{Dim: dim, Lower: NewIntVector(dim, 0), Upper: NewIntVector(dim, -1)}
}

func (b Box) Empty() bool {
	if b.Dim == 0 {
		return true
	}
	for d := 0; d < b.Dim; d++ {
		if b.Upper[d] < b.Lower[d] {
			return true
		}
	}
	return false
}

// NumberCells returns the cell count per direction, 1 past the dimension
func (b Box) NumberCells() (n IntVector) {
	n = IntVector{1, 1, 1}
	if b.Empty() {
		for d := 0; d < b.Dim; d++ {
			n[d] = 0
		}
		return
	}
	for d := 0; d < b.Dim; d++ {
		n[d] = b.Upper[d] - b.Lower[d] + 1
	}
	return
}

func (b Box) Size() int {
	n := b.NumberCells()
	return n[0] * n[1] * n[2]
}

func (b Box) Grow(g IntVector) Box {
	return NewBox(b.Dim, b.Lower.Sub(g), b.Upper.Add(g))
}

func (b Box) Shift(s IntVector) Box {
	return NewBox(b.Dim, b.Lower.Add(s), b.Upper.Add(s))
}

func (b Box) Contains(idx IntVector) bool {
	for d := 0; d < b.Dim; d++ {
		if idx[d] < b.Lower[d] || idx[d] > b.Upper[d] {
			return false
		}
	}
	return true
}

func (b Box) ContainsBox(o Box) bool {
	return b.Contains(o.Lower) && b.Contains(o.Upper)
}

func (b Box) Intersect(o Box) (r Box) {
	r = Box{Dim: b.Dim}
	for d := 0; d < b.Dim; d++ {
		r.Lower[d] = max(b.Lower[d], o.Lower[d])
		r.Upper[d] = min(b.Upper[d], o.Upper[d])
	}
	return
}

// Refine maps the box onto an index space ratio times finer
func (b Box) Refine(ratio IntVector) (r Box) {
	r = Box{Dim: b.Dim}
	for d := 0; d < b.Dim; d++ {
		r.Lower[d] = b.Lower[d] * ratio[d]
		r.Upper[d] = (b.Upper[d]+1)*ratio[d] - 1
	}
	return
}

// Coarsen maps the box onto an index space ratio times coarser
func (b Box) Coarsen(ratio IntVector) (r Box) {
	r = Box{Dim: b.Dim}
	for d := 0; d < b.Dim; d++ {
		r.Lower[d] = floorDiv(b.Lower[d], ratio[d])
		r.Upper[d] = floorDiv(b.Upper[d], ratio[d])
	}
	return
}

func (b Box) String() string {
	return fmt.Sprintf("[%v,%v]", b.Lower, b.Upper)
}

// ForEach visits every index of the box, x fastest
func (b Box) ForEach(f func(i, j, k int)) {
	if b.Empty() {
		return
	}
	for k := b.Lower[2]; k <= b.Upper[2]; k++ {
		for j := b.Lower[1]; j <= b.Upper[1]; j++ {
			for i := b.Lower[0]; i <= b.Upper[0]; i++ {
				f(i, j, k)
			}
		}
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
