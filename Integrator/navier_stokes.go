package Integrator

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/goamr/AMR"
	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/FlowModel"
	"github.com/notargets/goamr/Reconstruction"
	"github.com/notargets/goamr/observability"
)

// TimeIntegrationHooks is what a time stepper needs from a patch integrator
type TimeIntegrationHooks interface {
	RegisterModelVariables(patch *AMR.Patch, ctxs ...AMR.DataContext)
	ComputeStableDtOnPatch(patch *AMR.Patch, initialTime bool, time float64) float64
	ComputeHyperbolicFluxesAndSourcesOnPatch(patch *AMR.Patch, time, dt float64, rkStage int, ctx AMR.DataContext)
	AdvanceSingleStep(patch *AMR.Patch, time, dt float64, alpha, beta, gamma []float64, intermediate []AMR.DataContext)
	SynchronizeHyperbolicFluxes(patch *AMR.Patch, time, dt float64)
	PreservePositivity(patch *AMR.Patch, ctx AMR.DataContext) error
}

// BoundaryFillHooks sets the ghost cells beyond the physical domain
type BoundaryFillHooks interface {
	SetPhysicalBoundaryConditions(patch *AMR.Patch, ctx AMR.DataContext, width AMR.IntVector)
}

// CoarsenRefineHooks moves conservative data between resolutions
type CoarsenRefineHooks interface {
	CoarsenConservativeVariables(fine, coarse *AMR.Patch, ratio AMR.IntVector, ctx AMR.DataContext)
	RefineConservativeVariables(coarse, fine *AMR.Patch, ratio AMR.IntVector, ctx AMR.DataContext)
}

var (
	_ TimeIntegrationHooks = (*NavierStokes)(nil)
	_ BoundaryFillHooks    = (*NavierStokes)(nil)
	_ CoarsenRefineHooks   = (*NavierStokes)(nil)
)

// ConservativeFields lists the cell fields of the conservative variables
var ConservativeFields = []string{FlowModel.DensityField, FlowModel.MomentumField, FlowModel.TotalEnergyField}

// NavierStokes integrates the compressible Navier-Stokes equations one patch
// at a time. An instance owns its flow model and reconstructors and must not
// be shared between goroutines, use Clone to get one per worker.
type NavierStokes struct {
	ObjectName  string
	Dim         int
	Periodic    [3]bool
	ProjectName string
	NumGhosts   AMR.IntVector
	NumSpecies  int

	FlowModelType  FlowModel.FlowModelType
	ConvectiveType Reconstruction.ConvectiveFluxReconstructorType
	DiffusiveType  Reconstruction.DiffusiveFluxReconstructorType

	flowModelDB    *Database.Database
	convectiveDB   *Database.Database
	diffusiveDB    *Database.Database
	flowModelLabel string

	Model      *FlowModel.FlowModel
	Convective Reconstruction.ConvectiveFluxReconstructor
	Diffusive  Reconstruction.DiffusiveFluxReconstructor
	Boundaries *BoundaryConditions
	registry   *FlowModel.Registry
	handle     FlowModel.Handle

	// CurrentContext holds the solution the stable time step is taken from,
	// NewContext receives stage advances and the accumulated fluxes
	CurrentContext AMR.DataContext
	NewContext     AMR.DataContext

	Profiler observability.Profiler
	Log      logrus.FieldLogger
}

func defaultLogger(log logrus.FieldLogger) logrus.FieldLogger {
	if log != nil {
		return log
	}
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

func newNavierStokes(name string, dim int, periodic [3]bool, log logrus.FieldLogger) (ns *NavierStokes, err error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("%s: invalid problem dimension %d", name, dim)
	}
	ns = &NavierStokes{
		ObjectName:     name,
		Dim:            dim,
		Periodic:       periodic,
		ProjectName:    "Unnamed",
		CurrentContext: AMR.CURRENT,
		NewContext:     AMR.NEW,
		registry:       FlowModel.DefaultRegistry,
		Profiler:       observability.Noop{},
		Log:            defaultLogger(log),
	}
	return
}

// NewNavierStokes builds the integrator from its input database. The
// "Boundary_data" sub database is required unless every direction is periodic.
func NewNavierStokes(name string, dim int, periodic [3]bool, input *Database.Database, log logrus.FieldLogger) (ns *NavierStokes, err error) {
	if ns, err = newNavierStokes(name, dim, periodic, log); err != nil {
		return
	}
	if err = ns.GetFromInput(input); err != nil {
		return nil, err
	}
	if err = ns.build(); err != nil {
		return nil, err
	}
	return
}

// NewNavierStokesFromRestart rebuilds the integrator written by PutToRestart
func NewNavierStokesFromRestart(name string, dim int, periodic [3]bool, restart *Database.Database, log logrus.FieldLogger) (ns *NavierStokes, err error) {
	if ns, err = newNavierStokes(name, dim, periodic, log); err != nil {
		return
	}
	if err = ns.GetFromRestart(restart); err != nil {
		return nil, err
	}
	if err = ns.build(); err != nil {
		return nil, err
	}
	return
}

func (ns *NavierStokes) errorf(format string, args ...interface{}) error {
	return fmt.Errorf(ns.ObjectName+": "+format, args...)
}

func (ns *NavierStokes) GetFromInput(db *Database.Database) (err error) {
	var (
		label string
	)
	if db == nil {
		return ns.errorf("no input database")
	}
	if ns.ProjectName, err = db.GetStringWithDefault("project_name", "Unnamed"); err != nil {
		return
	}
	if ns.NumSpecies, err = db.GetInteger("num_species"); err != nil {
		return
	}
	if ns.NumSpecies <= 0 {
		return ns.errorf("non-positive number of species %d", ns.NumSpecies)
	}
	if ns.flowModelLabel, err = db.GetString("flow_model"); err != nil {
		return
	}
	if ns.flowModelDB, err = db.GetDatabase("Flow_model"); err != nil {
		return
	}
	if label, err = db.GetString("convective_flux_reconstructor"); err != nil {
		return
	}
	if ns.ConvectiveType, err = Reconstruction.NewConvectiveFluxReconstructorType(label); err != nil {
		return ns.errorf("%w", err)
	}
	if ns.convectiveDB, err = db.GetDatabase("Convective_flux_reconstructor"); err != nil {
		return
	}
	if label, err = db.GetString("diffusive_flux_reconstructor"); err != nil {
		return
	}
	if ns.DiffusiveType, err = Reconstruction.NewDiffusiveFluxReconstructorType(label); err != nil {
		return ns.errorf("%w", err)
	}
	if ns.diffusiveDB, err = db.GetDatabase("Diffusive_flux_reconstructor"); err != nil {
		return
	}
	var boundaryDB *Database.Database
	if !ns.allPeriodic() {
		if boundaryDB, err = db.GetDatabase("Boundary_data"); err != nil {
			return
		}
	}
	if ns.Boundaries, err = NewBoundaryConditions(ns.Dim, ns.Periodic, boundaryDB); err != nil {
		return ns.errorf("%w", err)
	}
	return
}

func (ns *NavierStokes) allPeriodic() bool {
	for d := 0; d < ns.Dim; d++ {
		if !ns.Periodic[d] {
			return false
		}
	}
	return true
}

// GetFromRestart reads the keys written by PutToRestart, every one of them
// is required
func (ns *NavierStokes) GetFromRestart(db *Database.Database) (err error) {
	var (
		label  string
		ghosts []int
	)
	if db == nil {
		return ns.errorf("no restart database")
	}
	if ns.ProjectName, err = db.GetString("d_project_name"); err != nil {
		return
	}
	if ghosts, err = db.GetIntegerVector("d_num_ghosts"); err != nil {
		return
	}
	if len(ghosts) != ns.Dim {
		return ns.errorf("restart has %d ghost widths for dimension %d", len(ghosts), ns.Dim)
	}
	restartGhosts := AMR.NewIntVector(ns.Dim, ghosts...)
	if ns.NumSpecies, err = db.GetInteger("d_num_species"); err != nil {
		return
	}
	if ns.flowModelLabel, err = db.GetString("d_flow_model_str"); err != nil {
		return
	}
	if ns.flowModelDB, err = db.GetDatabase("d_flow_model_db"); err != nil {
		return
	}
	if label, err = db.GetString("d_convective_flux_reconstructor_str"); err != nil {
		return
	}
	if ns.ConvectiveType, err = Reconstruction.NewConvectiveFluxReconstructorType(label); err != nil {
		return ns.errorf("%w", err)
	}
	if ns.convectiveDB, err = db.GetDatabase("d_convective_flux_reconstructor_db"); err != nil {
		return
	}
	if label, err = db.GetString("d_diffusive_flux_reconstructor_str"); err != nil {
		return
	}
	if ns.DiffusiveType, err = Reconstruction.NewDiffusiveFluxReconstructorType(label); err != nil {
		return ns.errorf("%w", err)
	}
	if ns.diffusiveDB, err = db.GetDatabase("d_diffusive_flux_reconstructor_db"); err != nil {
		return
	}
	var boundaryDB *Database.Database
	if boundaryDB, err = db.GetDatabase("d_Navier_Stokes_boundary_conditions_db"); err != nil {
		return
	}
	if ns.Boundaries, err = NewBoundaryConditions(ns.Dim, ns.Periodic, boundaryDB); err != nil {
		return ns.errorf("%w", err)
	}
	if restartGhosts != ns.ghostWidth() {
		return ns.errorf("restart ghost widths %v do not match the reconstructors, need %v", restartGhosts, ns.ghostWidth())
	}
	return
}

func (ns *NavierStokes) PutToRestart(db *Database.Database) {
	db.PutString("d_project_name", ns.ProjectName)
	db.PutIntegerVector("d_num_ghosts", ns.NumGhosts[:ns.Dim])
	db.PutInteger("d_num_species", ns.NumSpecies)
	db.PutString("d_flow_model_str", ns.flowModelLabel)
	ns.Model.PutToRestart(db.PutDatabase("d_flow_model_db"))
	db.PutString("d_convective_flux_reconstructor_str", ns.ConvectiveType.Print())
	ns.Convective.PutToRestart(db.PutDatabase("d_convective_flux_reconstructor_db"))
	db.PutString("d_diffusive_flux_reconstructor_str", ns.DiffusiveType.Print())
	ns.Diffusive.PutToRestart(db.PutDatabase("d_diffusive_flux_reconstructor_db"))
	ns.Boundaries.PutToRestart(db.PutDatabase("d_Navier_Stokes_boundary_conditions_db"))
}

func (ns *NavierStokes) ghostWidth() AMR.IntVector {
	return AMR.NewIntVector(ns.Dim, max(ns.ConvectiveType.NumberOfGhostCells(), ns.DiffusiveType.NumberOfGhostCells()))
}

// build creates the flow model and the reconstructors, the widest stencil of
// the reconstructors sets the number of ghost cells
func (ns *NavierStokes) build() (err error) {
	if ns.FlowModelType, err = FlowModel.NewFlowModelType(ns.flowModelLabel); err != nil {
		return ns.errorf("%w", err)
	}
	if ns.FlowModelType != FlowModel.SINGLE_SPECIES {
		return ns.errorf("flow model %s: %w", ns.FlowModelType.Print(), FlowModel.ErrNotImplemented)
	}
	ns.NumGhosts = ns.ghostWidth()
	if ns.Model, err = FlowModel.NewFlowModel(ns.ObjectName+":FlowModel", ns.Dim, ns.NumGhosts, ns.NumSpecies, ns.flowModelDB); err != nil {
		return
	}
	ns.handle = ns.registry.Register(ns.Model)
	defer func() {
		if err != nil {
			ns.Release()
		}
	}()
	if ns.Convective, err = Reconstruction.NewConvectiveFluxReconstructor(ns.ConvectiveType, ns.handle, ns.convectiveDB); err != nil {
		return ns.errorf("%w", err)
	}
	if ns.Diffusive, err = Reconstruction.NewDiffusiveFluxReconstructor(ns.DiffusiveType, ns.FlowModelType, ns.handle); err != nil {
		return ns.errorf("%w", err)
	}
	return
}

// Clone returns an integrator with the same configuration and its own flow
// model and reconstructors
func (ns *NavierStokes) Clone() (c *NavierStokes, err error) {
	cp := *ns
	c = &cp
	if err = c.build(); err != nil {
		return nil, err
	}
	return
}

// ModelHandle is the registry handle of the flow model owned by ns
func (ns *NavierStokes) ModelHandle() FlowModel.Handle { return ns.handle }

// Release drops the flow model from its registry, the reconstructors can no
// longer reach it
func (ns *NavierStokes) Release() {
	ns.registry.Release(ns.handle)
}

// RegisterModelVariables allocates the conservative variables with ghosts,
// the convective and diffusive face fluxes and the source of every context
func (ns *NavierStokes) RegisterModelVariables(patch *AMR.Patch, ctxs ...AMR.DataContext) {
	var (
		nEq  = ns.Model.NumberOfEquations()
		zero = AMR.NewIntVector(ns.Dim, 0)
	)
	for _, ctx := range ctxs {
		patch.AllocateCellData(FlowModel.DensityField, ctx, 1, ns.NumGhosts)
		patch.AllocateCellData(FlowModel.MomentumField, ctx, ns.Dim, ns.NumGhosts)
		patch.AllocateCellData(FlowModel.TotalEnergyField, ctx, 1, ns.NumGhosts)
		patch.AllocateFaceData(Reconstruction.ConvectiveFluxField, ctx, nEq)
		patch.AllocateFaceData(Reconstruction.DiffusiveFluxField, ctx, nEq)
		patch.AllocateCellData(Reconstruction.SourceField, ctx, nEq, zero)
	}
}

func (ns *NavierStokes) SetPhysicalBoundaryConditions(patch *AMR.Patch, ctx AMR.DataContext, width AMR.IntVector) {
	defer ns.Profiler.Start("SetPhysicalBoundaryConditions").Stop()
	ns.Boundaries.Fill(patch, ctx, width, ns.Model.EOS)
}

func (ns *NavierStokes) PrintClassData() {
	ns.Log.WithFields(logrus.Fields{
		"object":        ns.ObjectName,
		"project":       ns.ProjectName,
		"dim":           ns.Dim,
		"num_ghosts":    ns.NumGhosts,
		"num_species":   ns.NumSpecies,
		"flow_model":    ns.FlowModelType.Print(),
		"eos":           ns.Model.EOS.Print(),
		"convective":    ns.Convective.Print(),
		"diffusive":     ns.Diffusive.Print(),
		"current":       ns.CurrentContext,
		"new":           ns.NewContext,
		"periodic_dirs": ns.Periodic,
	}).Info("Navier-Stokes integrator")
}
