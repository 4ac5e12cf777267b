package FlowModel

import (
	"errors"
	"fmt"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/types"
)

type Quantity uint8

const (
	DENSITY Quantity = iota
	MOMENTUM
	TOTAL_ENERGY
	PRESSURE
	VELOCITY
	SOUND_SPEED
	DILATATION
	VORTICITY
	ENSTROPHY
	CONVECTIVE_FLUX_X
	CONVECTIVE_FLUX_Y
	CONVECTIVE_FLUX_Z
	MAX_WAVE_SPEED_X
	MAX_WAVE_SPEED_Y
	MAX_WAVE_SPEED_Z
	PRIMITIVE_VARIABLES
)

var (
	QuantityNames = map[string]Quantity{
		"DENSITY":             DENSITY,
		"MOMENTUM":            MOMENTUM,
		"TOTAL_ENERGY":        TOTAL_ENERGY,
		"PRESSURE":            PRESSURE,
		"VELOCITY":            VELOCITY,
		"SOUND_SPEED":         SOUND_SPEED,
		"DILATATION":          DILATATION,
		"VORTICITY":           VORTICITY,
		"ENSTROPHY":           ENSTROPHY,
		"CONVECTIVE_FLUX_X":   CONVECTIVE_FLUX_X,
		"CONVECTIVE_FLUX_Y":   CONVECTIVE_FLUX_Y,
		"CONVECTIVE_FLUX_Z":   CONVECTIVE_FLUX_Z,
		"MAX_WAVE_SPEED_X":    MAX_WAVE_SPEED_X,
		"MAX_WAVE_SPEED_Y":    MAX_WAVE_SPEED_Y,
		"MAX_WAVE_SPEED_Z":    MAX_WAVE_SPEED_Z,
		"PRIMITIVE_VARIABLES": PRIMITIVE_VARIABLES,
	}
	QuantityPrintNames = []string{
		"DENSITY", "MOMENTUM", "TOTAL_ENERGY",
		"PRESSURE", "VELOCITY", "SOUND_SPEED",
		"DILATATION", "VORTICITY", "ENSTROPHY",
		"CONVECTIVE_FLUX_X", "CONVECTIVE_FLUX_Y", "CONVECTIVE_FLUX_Z",
		"MAX_WAVE_SPEED_X", "MAX_WAVE_SPEED_Y", "MAX_WAVE_SPEED_Z",
		"PRIMITIVE_VARIABLES",
	}
)

func (q Quantity) Print() (txt string) {
	if int(q) >= len(QuantityPrintNames) {
		return fmt.Sprintf("Quantity(%d)", q)
	}
	txt = QuantityPrintNames[q]
	return
}

func NewQuantity(label string) (q Quantity, err error) {
	var (
		ok bool
	)
	if q, ok = QuantityNames[label]; !ok {
		err = fmt.Errorf("unknown cell data quantity %q", label)
	}
	return
}

// ConvectiveFlux returns the convective flux quantity of direction dir
func ConvectiveFlux(dir types.Direction) Quantity { return CONVECTIVE_FLUX_X + Quantity(dir) }

// MaxWaveSpeed returns the maximum wave speed quantity of direction dir
func MaxWaveSpeed(dir types.Direction) Quantity { return MAX_WAVE_SPEED_X + Quantity(dir) }

// Requirement is the row of the dependency table for one derived quantity
type Requirement struct {
	Prerequisites []Quantity
	// Equal requires the prerequisites to carry exactly the dependent's width
	Equal bool
	// MinDim is the smallest problem dimension the quantity exists in
	MinDim int
}

// Dependencies lists, per derived quantity, what must be computed first with
// at least the same sub-ghost width
var Dependencies = map[Quantity]Requirement{
	PRESSURE:            {MinDim: 1},
	VELOCITY:            {MinDim: 1},
	SOUND_SPEED:         {Prerequisites: []Quantity{PRESSURE}, MinDim: 1},
	DILATATION:          {Prerequisites: []Quantity{VELOCITY}, MinDim: 1},
	VORTICITY:           {Prerequisites: []Quantity{VELOCITY}, MinDim: 2},
	ENSTROPHY:           {Prerequisites: []Quantity{VORTICITY}, MinDim: 2},
	CONVECTIVE_FLUX_X:   {Prerequisites: []Quantity{PRESSURE, VELOCITY}, MinDim: 1},
	CONVECTIVE_FLUX_Y:   {Prerequisites: []Quantity{PRESSURE, VELOCITY}, MinDim: 2},
	CONVECTIVE_FLUX_Z:   {Prerequisites: []Quantity{PRESSURE, VELOCITY}, MinDim: 3},
	MAX_WAVE_SPEED_X:    {Prerequisites: []Quantity{VELOCITY, SOUND_SPEED}, MinDim: 1},
	MAX_WAVE_SPEED_Y:    {Prerequisites: []Quantity{VELOCITY, SOUND_SPEED}, MinDim: 2},
	MAX_WAVE_SPEED_Z:    {Prerequisites: []Quantity{VELOCITY, SOUND_SPEED}, MinDim: 3},
	PRIMITIVE_VARIABLES: {Prerequisites: []Quantity{VELOCITY, PRESSURE}, Equal: true, MinDim: 1},
}

// ComputeOrder is the order requests are applied in and derived data is
// computed in. Prerequisites always come before their dependents.
var ComputeOrder = []Quantity{
	PRESSURE,
	VELOCITY,
	SOUND_SPEED,
	DILATATION,
	VORTICITY,
	ENSTROPHY,
	CONVECTIVE_FLUX_X,
	CONVECTIVE_FLUX_Y,
	CONVECTIVE_FLUX_Z,
	MAX_WAVE_SPEED_X,
	MAX_WAVE_SPEED_Y,
	MAX_WAVE_SPEED_Z,
	PRIMITIVE_VARIABLES,
}

var (
	ErrAlreadyRegistered  = errors.New("the patch is not yet unregistered")
	ErrNotRegistered      = errors.New("no patch is registered yet")
	ErrGhostWidthExceeded = errors.New("number of ghosts exceeds prerequisite")
	ErrGhostWidthMismatch = errors.New("number of ghosts is not equal to prerequisite")
	ErrGhostWidthRange    = errors.New("number of sub-ghost cells is not between zero and the number of ghosts")
	ErrDimension          = errors.New("quantity cannot be obtained for this problem dimension")
	ErrNotComputed        = errors.New("cell data is not computed")
	ErrNotImplemented     = errors.New("not yet implemented")
)

// Ledger records the sub-ghost width each derived quantity is computed with
type Ledger struct {
	dim    int
	widths map[Quantity]AMR.IntVector
}

func NewLedger(dim int) *Ledger {
	return &Ledger{dim: dim, widths: make(map[Quantity]AMR.IntVector)}
}

// Width returns the registered width, ok is false for an unset quantity
func (l *Ledger) Width(q Quantity) (w AMR.IntVector, ok bool) {
	w, ok = l.widths[q]
	return
}

func (l *Ledger) IsSet(q Quantity) bool {
	_, ok := l.widths[q]
	return ok
}

func (l *Ledger) Reset() { l.widths = make(map[Quantity]AMR.IntVector) }

// Register applies a set of requests in ComputeOrder, each one checked and
// propagated to its prerequisites
func (l *Ledger) Register(requests map[Quantity]AMR.IntVector) (err error) {
	for _, q := range ComputeOrder {
		w, ok := requests[q]
		if !ok {
			continue
		}
		if err = l.Request(q, w); err != nil {
			return
		}
	}
	return
}

// Request sets the width of q and raises (or checks) its prerequisites
func (l *Ledger) Request(q Quantity, w AMR.IntVector) (err error) {
	req, ok := Dependencies[q]
	if !ok {
		return fmt.Errorf("'%s' is not a derived quantity", q.Print())
	}
	if l.dim < req.MinDim {
		return fmt.Errorf("'%s' needs dimension %d or more: %w", q.Print(), req.MinDim, ErrDimension)
	}
	if q != PRIMITIVE_VARIABLES {
		l.widths[q] = w
	}
	return l.Require(q.Print(), req.Prerequisites, req.Equal, w)
}

// Require makes every prerequisite available with width w. A prerequisite
// already set narrower than w is an error, an unset one is raised to w and
// its own prerequisites follow.
func (l *Ledger) Require(label string, prerequisites []Quantity, equal bool, w AMR.IntVector) (err error) {
	for _, pre := range prerequisites {
		pw, set := l.widths[pre]
		switch {
		case set && equal:
			if !pw.Equal(w, l.dim) {
				return fmt.Errorf("number of ghosts of '%s' is not equal to number of ghosts of '%s': %w",
					pre.Print(), label, ErrGhostWidthMismatch)
			}
		case set:
			if w.Exceeds(pw, l.dim) {
				return fmt.Errorf("number of ghosts of '%s' exceeds number of ghosts of '%s': %w",
					label, pre.Print(), ErrGhostWidthExceeded)
			}
		default:
			l.widths[pre] = w
			if err = l.Require(pre.Print(), Dependencies[pre].Prerequisites, false, w); err != nil {
				return
			}
		}
	}
	return
}
