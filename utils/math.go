package utils

import (
	"math"
)

// POW is x^p, multiplied out for small integer powers
func POW(x float64, p int) (y float64) {
	var (
		n = p
	)
	if p > 8 || p < -8 {
		return math.Pow(x, float64(p))
	}
	if p < 0 {
		n = -p
	}
	y = 1
	for n > 0 {
		if n&1 == 1 {
			y *= x
		}
		x *= x
		n >>= 1
	}
	if p < 0 {
		y = 1. / y
	}
	return
}
