package types

import "fmt"

type Direction uint8

const (
	X_DIRECTION Direction = iota
	Y_DIRECTION
	Z_DIRECTION
)

var (
	DirectionNames = map[string]Direction{
		"x": X_DIRECTION,
		"y": Y_DIRECTION,
		"z": Z_DIRECTION,
	}
	DirectionPrintNames = []string{"X", "Y", "Z"}
)

func (d Direction) Print() (txt string) {
	if int(d) >= len(DirectionPrintNames) {
		return fmt.Sprintf("Direction(%d)", d)
	}
	txt = DirectionPrintNames[d]
	return
}

// Valid reports whether the direction exists in a problem of dimension dim
func (d Direction) Valid(dim int) bool { return int(d) < dim }

func NewDirection(label string) (d Direction, err error) {
	var (
		ok bool
	)
	if d, ok = DirectionNames[label]; !ok {
		err = fmt.Errorf("unknown direction %q", label)
	}
	return
}

// Directions lists the directions of a problem of dimension dim
func Directions(dim int) (dirs []Direction) {
	dirs = make([]Direction, dim)
	for d := 0; d < dim; d++ {
		dirs[d] = Direction(d)
	}
	return
}
