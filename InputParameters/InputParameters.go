package InputParameters

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"

	"github.com/notargets/goamr/Database"
)

// Names of the sub trees of an input file handed to the integrator
const (
	NavierStokesKey      = "NavierStokes"
	InitialConditionsKey = "Initial_conditions"
)

// InputParameters controls a run, obtained from a YAML or TOML input file.
// The integrator and the initial conditions read their own sub trees of the
// same file, see ReadFile.
type InputParameters struct {
	Title        string    `json:"Title" toml:"Title"`
	Dim          int       `json:"Dim" toml:"Dim"`
	Cells        []int     `json:"Cells" toml:"Cells"`
	XLo          []float64 `json:"XLo" toml:"XLo"`
	XHi          []float64 `json:"XHi" toml:"XHi"`
	PatchSize    []int     `json:"PatchSize" toml:"PatchSize"`
	Periodic     []bool    `json:"Periodic" toml:"Periodic"`
	CFL          float64   `json:"CFL" toml:"CFL"`
	FinalTime    float64   `json:"FinalTime" toml:"FinalTime"`
	MaxSteps     int       `json:"MaxSteps" toml:"MaxSteps"`
	RungeKutta   string    `json:"RungeKutta" toml:"RungeKutta"`
	Synchronize  bool      `json:"Synchronize" toml:"Synchronize"`
	Workers      int       `json:"Workers" toml:"Workers"`
	LogFrequency int       `json:"LogFrequency" toml:"LogFrequency"`

	RestartFile     string `json:"RestartFile" toml:"RestartFile"`
	RestartInterval int    `json:"RestartInterval" toml:"RestartInterval"` // Steps between restart dumps, 0 writes only at the end

	StatisticsFile     string   `json:"StatisticsFile" toml:"StatisticsFile"`
	StatisticsKeys     []string `json:"StatisticsKeys" toml:"StatisticsKeys"`
	StatisticsInterval int      `json:"StatisticsInterval" toml:"StatisticsInterval"`
}

var ExampleFile = `
########################################
Title: "Sod shock tube"
Dim: 1
Cells: [200]
XLo: [0]
XHi: [1]
PatchSize: [50]
CFL: 0.5
FinalTime: 0.2
RungeKutta: ssp_rk3
Initial_conditions:
  type: sod
NavierStokes:
  project_name: sod
  num_species: 1
  flow_model: single-species
  Flow_model:
    gamma: 1.4
  convective_flux_reconstructor: SECOND_ORDER_MUSCL
  Convective_flux_reconstructor: {}
  diffusive_flux_reconstructor: NONE
  Diffusive_flux_reconstructor: {}
  Boundary_data:
    boundary_xlo: transmissive
    boundary_xhi: transmissive
########################################
`

// Parse decodes YAML input, unknown keys are left for the sub trees
func (ip *InputParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, ip)
}

func (ip *InputParameters) ParseTOML(data []byte) (err error) {
	_, err = toml.Decode(string(data), ip)
	return
}

// SetDefaults fills in everything an input file may leave out
func (ip *InputParameters) SetDefaults() {
	if ip.Title == "" {
		ip.Title = "Untitled"
	}
	if ip.CFL == 0 {
		ip.CFL = 0.5
	}
	if ip.RungeKutta == "" {
		ip.RungeKutta = "ssp_rk3"
	}
	if ip.Workers == 0 {
		ip.Workers = runtime.NumCPU()
	}
	if ip.LogFrequency == 0 {
		ip.LogFrequency = 10
	}
	if len(ip.PatchSize) == 0 {
		ip.PatchSize = append([]int(nil), ip.Cells...)
	}
	for len(ip.Periodic) < ip.Dim {
		ip.Periodic = append(ip.Periodic, false)
	}
}

func (ip *InputParameters) Validate() (err error) {
	if ip.Dim < 1 || ip.Dim > 3 {
		return fmt.Errorf("Dim must be 1, 2 or 3, have %d", ip.Dim)
	}
	for _, v := range []struct {
		name string
		n    int
	}{
		{"Cells", len(ip.Cells)},
		{"XLo", len(ip.XLo)},
		{"XHi", len(ip.XHi)},
		{"PatchSize", len(ip.PatchSize)},
	} {
		if v.n != ip.Dim {
			return fmt.Errorf("%s needs %d entries, have %d", v.name, ip.Dim, v.n)
		}
	}
	for d := 0; d < ip.Dim; d++ {
		if ip.Cells[d] < 1 || ip.PatchSize[d] < 1 {
			return fmt.Errorf("cells and patch size must be positive in direction %d", d)
		}
		if ip.XHi[d] <= ip.XLo[d] {
			return fmt.Errorf("empty domain in direction %d: [%g,%g]", d, ip.XLo[d], ip.XHi[d])
		}
	}
	switch {
	case ip.CFL <= 0:
		return fmt.Errorf("CFL must be positive, have %g", ip.CFL)
	case ip.FinalTime <= 0 && ip.MaxSteps <= 0:
		return fmt.Errorf("one of FinalTime or MaxSteps must be positive")
	case ip.Workers < 1:
		return fmt.Errorf("Workers must be positive, have %d", ip.Workers)
	case ip.RestartInterval < 0 || ip.StatisticsInterval < 0:
		return fmt.Errorf("output intervals can not be negative")
	case len(ip.StatisticsKeys) != 0 && ip.StatisticsFile == "":
		return fmt.Errorf("StatisticsKeys given without a StatisticsFile")
	}
	return
}

// PeriodicFlags pads Periodic to three directions
func (ip *InputParameters) PeriodicFlags() (periodic [3]bool) {
	copy(periodic[:], ip.Periodic)
	return
}

// ReadFile reads the run parameters and the database of the whole file, YAML
// or TOML chosen by extension
func ReadFile(path string) (ip *InputParameters, db *Database.Database, err error) {
	var (
		data []byte
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	)
	if data, err = os.ReadFile(path); err != nil {
		return
	}
	ip = &InputParameters{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err = ip.ParseTOML(data); err == nil {
			db, err = Database.ParseTOML(name, data)
		}
	default:
		if err = ip.Parse(data); err == nil {
			db, err = Database.ParseYAML(name, data)
		}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	ip.SetDefaults()
	if err = ip.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return
}

func (ip *InputParameters) Print(log logrus.FieldLogger) {
	log.WithFields(logrus.Fields{
		"title":       ip.Title,
		"dim":         ip.Dim,
		"cells":       ip.Cells,
		"patch_size":  ip.PatchSize,
		"xlo":         ip.XLo,
		"xhi":         ip.XHi,
		"periodic":    ip.Periodic,
		"cfl":         ip.CFL,
		"final_time":  ip.FinalTime,
		"max_steps":   ip.MaxSteps,
		"runge_kutta": ip.RungeKutta,
		"synchronize": ip.Synchronize,
		"workers":     ip.Workers,
	}).Info("input parameters")
}
