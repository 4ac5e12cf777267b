package FlowModel

import (
	"fmt"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/EOS"
	"github.com/notargets/goamr/Riemann"
)

type FlowModelType uint

const (
	SINGLE_SPECIES FlowModelType = iota
	FOUR_EQN_CONSERVATIVE
)

var (
	FlowModelNames = map[string]FlowModelType{
		"single-species":        SINGLE_SPECIES,
		"four-eqn_conservative": FOUR_EQN_CONSERVATIVE,
	}
	FlowModelPrintNames = []string{"single-species", "four-eqn_conservative"}
)

func (ft FlowModelType) Print() (txt string) {
	if int(ft) >= len(FlowModelPrintNames) {
		return fmt.Sprintf("FlowModelType(%d)", ft)
	}
	txt = FlowModelPrintNames[ft]
	return
}

func NewFlowModelType(label string) (ft FlowModelType, err error) {
	var (
		ok bool
	)
	if ft, ok = FlowModelNames[label]; !ok {
		err = fmt.Errorf("unknown flow model %q", label)
	}
	return
}

// Names of the conservative fields on the patch
const (
	DensityField     = "DENSITY"
	MomentumField    = "MOMENTUM"
	TotalEnergyField = "TOTAL_ENERGY"
)

type AveragingType uint

const (
	SIMPLE_AVG AveragingType = iota
	ROE_AVG
)

var (
	AveragingNames = map[string]AveragingType{
		"simple": SIMPLE_AVG,
		"roe":    ROE_AVG,
	}
	AveragingPrintNames = []string{"SIMPLE_AVG", "ROE_AVG"}
)

func (at AveragingType) Print() (txt string) {
	if int(at) >= len(AveragingPrintNames) {
		return fmt.Sprintf("AveragingType(%d)", at)
	}
	txt = AveragingPrintNames[at]
	return
}

func NewAveragingType(label string) (at AveragingType, err error) {
	var (
		ok bool
	)
	if at, ok = AveragingNames[label]; !ok {
		err = fmt.Errorf("unknown averaging %q", label)
	}
	return
}

// EquationData is the array of one conservative equation with the ghost
// geometry of the field it belongs to
type EquationData struct {
	Data []float64
	View AMR.View
}

func (ed EquationData) At(i, j, k int) float64 { return ed.Data[ed.View.Index(i, j, k)] }

// FlowModel is the single species Euler system on one registered patch at a
// time. It owns the derived cell data computed from the conservative fields
// of that patch.
type FlowModel struct {
	Name       string
	Dim        int
	NumGhosts  AMR.IntVector
	NumSpecies int
	EOS        EOS.EquationOfState
	// Mu and Prandtl parameterize the viscous and heat fluxes
	Mu, Prandtl float64

	patch   *AMR.Patch
	ctx     AMR.DataContext
	ledger  *Ledger
	derived map[Quantity]*AMR.CellData

	projectionRegistered bool
	projectionAveraging  AveragingType
	solvers              map[Riemann.RiemannSolverType]Riemann.Solver
}

// NewFlowModel builds the model from its input database, db may be nil. The
// equation of state is read from the "Equation_of_state_db" sub database if
// present, else from db itself.
func NewFlowModel(name string, dim int, numGhosts AMR.IntVector, numSpecies int, db *Database.Database) (fm *FlowModel, err error) {
	var (
		eosDB = db
	)
	if dim < 1 || dim > 3 {
		err = fmt.Errorf("%s: invalid problem dimension %d", name, dim)
		return
	}
	if numSpecies != 1 {
		err = fmt.Errorf("%s: single species flow model needs one species, have %d", name, numSpecies)
		return
	}
	for d := 0; d < dim; d++ {
		if numGhosts[d] < 0 {
			err = fmt.Errorf("%s: negative number of ghosts %v", name, numGhosts)
			return
		}
	}
	fm = &FlowModel{
		Name:       name,
		Dim:        dim,
		NumGhosts:  numGhosts,
		NumSpecies: numSpecies,
		Prandtl:    0.72,
		ledger:     NewLedger(dim),
		derived:    make(map[Quantity]*AMR.CellData),
		solvers:    make(map[Riemann.RiemannSolverType]Riemann.Solver),
	}
	if db != nil {
		if db.IsDatabase("Equation_of_state_db") {
			if eosDB, err = db.GetDatabase("Equation_of_state_db"); err != nil {
				return nil, err
			}
		}
		if fm.Mu, err = db.GetDoubleWithDefault("mu", 0); err != nil {
			return nil, err
		}
		if fm.Prandtl, err = db.GetDoubleWithDefault("Pr", 0.72); err != nil {
			return nil, err
		}
		if fm.Mu < 0 || fm.Prandtl <= 0 {
			return nil, fmt.Errorf("%s: invalid transport properties mu = %g, Pr = %g", name, fm.Mu, fm.Prandtl)
		}
	}
	if fm.EOS, err = EOS.NewEquationOfState(eosDB); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return
}

func (fm *FlowModel) PutToRestart(db *Database.Database) {
	db.PutString("flow_model", SINGLE_SPECIES.Print())
	db.PutDouble("mu", fm.Mu)
	db.PutDouble("Pr", fm.Prandtl)
	fm.EOS.PutToRestart(db.PutDatabase("Equation_of_state_db"))
}

func (fm *FlowModel) NumberOfEquations() int { return fm.Dim + 2 }

func (fm *FlowModel) Patch() *AMR.Patch { return fm.patch }

func (fm *FlowModel) Context() AMR.DataContext { return fm.ctx }

func (fm *FlowModel) IsRegistered() bool { return fm.patch != nil }

// Ledger exposes the resolved sub-ghost widths of the registered patch
func (fm *FlowModel) Ledger() *Ledger { return fm.ledger }

// RegisterPatchWithGlobalCellData registers patch with the derived quantities
// to compute on it and the sub-ghost width each one needs
func (fm *FlowModel) RegisterPatchWithGlobalCellData(patch *AMR.Patch, requests map[Quantity]AMR.IntVector, ctx AMR.DataContext) (err error) {
	if fm.patch != nil {
		return fmt.Errorf("%s: registering patch %d: %w", fm.Name, patch.Number, ErrAlreadyRegistered)
	}
	if patch.Dim != fm.Dim {
		return fmt.Errorf("%s: patch %d has dimension %d, model has %d", fm.Name, patch.Number, patch.Dim, fm.Dim)
	}
	for _, q := range ComputeOrder {
		w, ok := requests[q]
		if !ok {
			continue
		}
		if err = fm.checkWidth(q.Print(), w); err != nil {
			return
		}
	}
	fm.ledger.Reset()
	if err = fm.ledger.Register(requests); err != nil {
		fm.ledger.Reset()
		return fmt.Errorf("%s: %w", fm.Name, err)
	}
	fm.patch = patch
	fm.ctx = ctx
	return
}

func (fm *FlowModel) checkWidth(label string, w AMR.IntVector) error {
	for d := 0; d < fm.Dim; d++ {
		if w[d] < 0 || w[d] > fm.NumGhosts[d] {
			return fmt.Errorf("%s: '%s' requests %v sub-ghosts with %v ghosts: %w",
				fm.Name, label, w, fm.NumGhosts, ErrGhostWidthRange)
		}
	}
	return nil
}

// RegisterFaceProjectionMatricesOfPrimitiveVariables prepares the averaged
// states the primitive face projection matrices are built from
func (fm *FlowModel) RegisterFaceProjectionMatricesOfPrimitiveVariables(width AMR.IntVector, avg AveragingType) (err error) {
	return fm.registerProjection("FACE_PROJECTION_MATRICES_PRIMITIVE", []Quantity{SOUND_SPEED}, width, avg)
}

// RegisterFaceProjectionMatricesOfConservativeVariables also needs the
// averaged velocity for the change of variables
func (fm *FlowModel) RegisterFaceProjectionMatricesOfConservativeVariables(width AMR.IntVector, avg AveragingType) (err error) {
	return fm.registerProjection("FACE_PROJECTION_MATRICES_CONSERVATIVE", []Quantity{SOUND_SPEED, VELOCITY}, width, avg)
}

func (fm *FlowModel) registerProjection(label string, prerequisites []Quantity, width AMR.IntVector, avg AveragingType) (err error) {
	if fm.patch == nil {
		return fmt.Errorf("%s: %s: %w", fm.Name, label, ErrNotRegistered)
	}
	if err = fm.checkWidth(label, width); err != nil {
		return
	}
	if err = fm.ledger.Require(label, prerequisites, false, width); err != nil {
		return fmt.Errorf("%s: %w", fm.Name, err)
	}
	fm.projectionRegistered = true
	fm.projectionAveraging = avg
	return
}

// UnregisterPatchWithGlobalCellData forgets the patch and drops every cached
// derived array
func (fm *FlowModel) UnregisterPatchWithGlobalCellData() {
	fm.patch = nil
	fm.ctx = ""
	fm.ledger.Reset()
	fm.derived = make(map[Quantity]*AMR.CellData)
	fm.projectionRegistered = false
}

// ComputeGlobalCellData computes every registered derived quantity that is
// not computed yet, prerequisites first
func (fm *FlowModel) ComputeGlobalCellData() (err error) {
	if fm.patch == nil {
		return fmt.Errorf("%s: computing cell data: %w", fm.Name, ErrNotRegistered)
	}
	for _, q := range ComputeOrder {
		w, ok := fm.ledger.Width(q)
		if !ok || q == PRIMITIVE_VARIABLES || fm.derived[q] != nil {
			continue
		}
		if fm.Dim < Dependencies[q].MinDim {
			return fmt.Errorf("%s: '%s' needs dimension %d or more: %w", fm.Name, q.Print(), Dependencies[q].MinDim, ErrDimension)
		}
		var cd *AMR.CellData
		if cd, err = fm.compute(q, w); err != nil {
			return
		}
		fm.derived[q] = cd
	}
	return
}

// GetGlobalCellData returns the cell data of q. Conservative quantities come
// straight from the patch, derived ones must have been computed.
func (fm *FlowModel) GetGlobalCellData(q Quantity) (cd *AMR.CellData, err error) {
	if fm.patch == nil {
		return nil, fmt.Errorf("%s: getting '%s': %w", fm.Name, q.Print(), ErrNotRegistered)
	}
	switch q {
	case DENSITY:
		return fm.patch.GetCellData(DensityField, fm.ctx), nil
	case MOMENTUM:
		return fm.patch.GetCellData(MomentumField, fm.ctx), nil
	case TOTAL_ENERGY:
		return fm.patch.GetCellData(TotalEnergyField, fm.ctx), nil
	}
	var ok bool
	if cd, ok = fm.derived[q]; !ok || cd == nil {
		err = fmt.Errorf("%s: '%s': %w", fm.Name, q.Print(), ErrNotComputed)
	}
	return
}

// GetGlobalCellDataList returns the cell data of every key in order
func (fm *FlowModel) GetGlobalCellDataList(qs []Quantity) (cds []*AMR.CellData, err error) {
	cds = make([]*AMR.CellData, len(qs))
	for vi := 0; vi < len(qs); vi++ {
		if cds[vi], err = fm.GetGlobalCellData(qs[vi]); err != nil {
			return nil, err
		}
	}
	return
}

// GetGlobalCellDataConservativeVariables returns density, momentum and total
// energy of the registered patch
func (fm *FlowModel) GetGlobalCellDataConservativeVariables() (cds []*AMR.CellData, err error) {
	return fm.GetGlobalCellDataList([]Quantity{DENSITY, MOMENTUM, TOTAL_ENERGY})
}

// GetGlobalCellDataPrimitiveVariables returns density, velocity and pressure
func (fm *FlowModel) GetGlobalCellDataPrimitiveVariables() (cds []*AMR.CellData, err error) {
	return fm.GetGlobalCellDataList([]Quantity{DENSITY, VELOCITY, PRESSURE})
}

// ConservativeEquations flattens the conservative fields into one array per
// equation, in the order rho, rho*u..., E
func (fm *FlowModel) ConservativeEquations() (eqs []EquationData, err error) {
	var cds []*AMR.CellData
	if cds, err = fm.GetGlobalCellDataConservativeVariables(); err != nil {
		return
	}
	eqs = Equations(cds)
	return
}

// Equations splits a list of cell data into its components
func Equations(cds []*AMR.CellData) (eqs []EquationData) {
	for _, cd := range cds {
		for n := 0; n < cd.Depth; n++ {
			eqs = append(eqs, EquationData{Data: cd.Data[n], View: cd.View})
		}
	}
	return
}
