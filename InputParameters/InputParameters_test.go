package InputParameters

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, text string) (path string) {
	path = filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
	return
}

func TestInputParameters(t *testing.T) {
	{ // The example file is complete, sub trees land in the database
		ip, db, err := ReadFile(writeInput(t, "sod.yaml", ExampleFile))
		require.NoError(t, err)
		assert.Equal(t, "Sod shock tube", ip.Title)
		assert.Equal(t, 1, ip.Dim)
		assert.Equal(t, []int{200}, ip.Cells)
		assert.Equal(t, []int{50}, ip.PatchSize)
		assert.Equal(t, 0.2, ip.FinalTime)
		assert.Equal(t, "ssp_rk3", ip.RungeKutta)
		assert.Equal(t, [3]bool{}, ip.PeriodicFlags())
		assert.Equal(t, runtime.NumCPU(), ip.Workers)
		assert.Equal(t, 10, ip.LogFrequency)
		ns, err := db.GetDatabase(NavierStokesKey)
		require.NoError(t, err)
		label, err := ns.GetString("convective_flux_reconstructor")
		require.NoError(t, err)
		assert.Equal(t, "SECOND_ORDER_MUSCL", label)
		fm, err := ns.GetDatabase("Flow_model")
		require.NoError(t, err)
		gamma, err := fm.GetDouble("gamma")
		require.NoError(t, err)
		assert.Equal(t, 1.4, gamma)
		ic, err := db.GetDatabase(InitialConditionsKey)
		require.NoError(t, err)
		typ, err := ic.GetString("type")
		require.NoError(t, err)
		assert.Equal(t, "sod", typ)
		ip.Print(logrus.New())
	}
	{ // TOML input, patch size defaults to the whole domain
		text := `
Title = "wave"
Dim = 2
Cells = [32, 16]
XLo = [0.0, 0.0]
XHi = [1.0, 0.5]
Periodic = [true, true]
MaxSteps = 20
Workers = 2
StatisticsFile = "stats.bin"
StatisticsKeys = ["DENSITY", "b"]

[Initial_conditions]
type = "sine_density"

[NavierStokes]
num_species = 1
`
		ip, db, err := ReadFile(writeInput(t, "wave.toml", text))
		require.NoError(t, err)
		assert.Equal(t, []int{32, 16}, ip.PatchSize)
		assert.Equal(t, [3]bool{true, true, false}, ip.PeriodicFlags())
		assert.Equal(t, 20, ip.MaxSteps)
		assert.Equal(t, 2, ip.Workers)
		assert.Equal(t, 0.5, ip.CFL)
		assert.Equal(t, []string{"DENSITY", "b"}, ip.StatisticsKeys)
		ns, err := db.GetDatabase(NavierStokesKey)
		require.NoError(t, err)
		n, err := ns.GetInteger("num_species")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	}
	{ // Invalid input
		valid := func() *InputParameters {
			ip := &InputParameters{Dim: 1, Cells: []int{10}, XLo: []float64{0}, XHi: []float64{1}, FinalTime: 1}
			ip.SetDefaults()
			return ip
		}
		require.NoError(t, valid().Validate())
		for name, change := range map[string]func(ip *InputParameters){
			"dim":        func(ip *InputParameters) { ip.Dim = 4 },
			"cells":      func(ip *InputParameters) { ip.Cells = []int{10, 10} },
			"zero cells": func(ip *InputParameters) { ip.Cells[0] = 0 },
			"domain":     func(ip *InputParameters) { ip.XHi[0] = 0 },
			"patch":      func(ip *InputParameters) { ip.PatchSize = nil },
			"cfl":        func(ip *InputParameters) { ip.CFL = -1 },
			"end":        func(ip *InputParameters) { ip.FinalTime = 0 },
			"workers":    func(ip *InputParameters) { ip.Workers = -2 },
			"interval":   func(ip *InputParameters) { ip.RestartInterval = -1 },
			"statistics": func(ip *InputParameters) { ip.StatisticsKeys = []string{"DENSITY"} },
		} {
			ip := valid()
			change(ip)
			assert.Error(t, ip.Validate(), name)
		}
		_, _, err := ReadFile(writeInput(t, "bad.yaml", "Dim: [1\n"))
		assert.Error(t, err)
		_, _, err = ReadFile(writeInput(t, "short.yaml", "Dim: 2\nCells: [4]\n"))
		assert.Error(t, err)
		_, _, err = ReadFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	}
}
