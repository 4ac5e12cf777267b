package types

import "fmt"

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Transmissive
	BC_Periodic
	BC_Slip
	BC_Dirichlet
)

var BCNameMap = map[string]BCFLAG{
	"none":         BC_None,
	"transmissive": BC_Transmissive,
	"out":          BC_Transmissive,
	"outflow":      BC_Transmissive,
	"periodic":     BC_Periodic,
	"slip":         BC_Slip,
	"wall":         BC_Slip,
	"dirichlet":    BC_Dirichlet,
	"in":           BC_Dirichlet,
	"inflow":       BC_Dirichlet,
	"far":          BC_Dirichlet,
}

var BCPrintNames = []string{"None", "Transmissive", "Periodic", "Slip", "Dirichlet"}

func (bc BCFLAG) Print() (txt string) {
	if int(bc) >= len(BCPrintNames) {
		return fmt.Sprintf("BCFLAG(%d)", bc)
	}
	txt = BCPrintNames[bc]
	return
}

func NewBCFLAG(label string) (bc BCFLAG, err error) {
	var (
		ok bool
	)
	if bc, ok = BCNameMap[label]; !ok {
		err = fmt.Errorf("unknown boundary condition named %q", label)
	}
	return
}

// BoundaryLocation indexes the 2*dim faces of the physical domain, ordered
// x-lo, x-hi, y-lo, y-hi, z-lo, z-hi.
type BoundaryLocation uint8

const (
	XLO BoundaryLocation = iota
	XHI
	YLO
	YHI
	ZLO
	ZHI
)

var BoundaryLocationNames = map[string]BoundaryLocation{
	"xlo": XLO, "xhi": XHI,
	"ylo": YLO, "yhi": YHI,
	"zlo": ZLO, "zhi": ZHI,
}

func NewBoundaryLocation(dir Direction, upper bool) BoundaryLocation {
	loc := BoundaryLocation(2 * int(dir))
	if upper {
		loc++
	}
	return loc
}

func (bl BoundaryLocation) Direction() Direction { return Direction(bl / 2) }

func (bl BoundaryLocation) IsUpper() bool { return bl%2 == 1 }

var BoundaryLocationPrintNames = []string{"xlo", "xhi", "ylo", "yhi", "zlo", "zhi"}

func (bl BoundaryLocation) Print() (txt string) {
	if int(bl) >= len(BoundaryLocationPrintNames) {
		return fmt.Sprintf("BoundaryLocation(%d)", bl)
	}
	txt = BoundaryLocationPrintNames[bl]
	return
}
