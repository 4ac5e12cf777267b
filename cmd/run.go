/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/goamr/Database"
	"github.com/notargets/goamr/InputParameters"
	"github.com/notargets/goamr/observability"
)

type RunOptions struct {
	InputFile   string
	RestartFile string // Resume from this restart file when set
	Workers     int    // Overrides the input file when positive
	MetricsAddr string
	TraceFile   string
	Profile     string
	ProfileDir  string
}

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a simulation from an input file",
	Long: `Run a simulation described by a YAML or TOML input file. The input sets the
domain, the patch layout, the time stepping, the NavierStokes integrator and
the Initial_conditions. An example:
` + InputParameters.ExampleFile,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Run(runOptionsFromConfig(), Log)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("input", "I", "", "YAML or TOML input parameters file")
	cmd.Flags().IntP("workers", "w", 0, "number of worker goroutines, overrides the input file")
	cmd.Flags().String("metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	cmd.Flags().String("trace", "", "write OpenTelemetry spans of every time step to this file")
	cmd.Flags().String("profile", "", "profile the run: cpu or mem")
	cmd.Flags().String("profile-dir", "", "directory of the profile output, a temporary one when empty")
}

func runOptionsFromConfig() RunOptions {
	return RunOptions{
		InputFile:   viper.GetString("input"),
		Workers:     viper.GetInt("workers"),
		MetricsAddr: viper.GetString("metrics-addr"),
		TraceFile:   viper.GetString("trace"),
		Profile:     viper.GetString("profile"),
		ProfileDir:  viper.GetString("profile-dir"),
	}
}

func startProfile(kind, dir string) (interface{ Stop() }, error) {
	switch kind {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook), nil
	case "mem":
		return profile.Start(profile.MemProfile, profile.ProfilePath(dir), profile.NoShutdownHook), nil
	}
	return nil, fmt.Errorf("unknown profile %q, use cpu or mem", kind)
}

func serveMetrics(addr string, m *observability.Metrics, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", addr).Info("serving metrics")
	return srv
}

// Run reads the input, builds the simulation and runs it to completion
func Run(opts RunOptions, log logrus.FieldLogger) (err error) {
	var (
		ip             *InputParameters.InputParameters
		input, restart *Database.Database
		sim            *Simulation
		timer          = observability.NewTimer()
		prof           observability.Profiler = timer
		metrics        *observability.Metrics
	)
	if opts.InputFile == "" {
		return fmt.Errorf("must supply an input parameters file (-I, --input), for example:%s", InputParameters.ExampleFile)
	}
	if ip, input, err = InputParameters.ReadFile(opts.InputFile); err != nil {
		return
	}
	if opts.Workers > 0 {
		ip.Workers = opts.Workers
	}
	if opts.RestartFile != "" {
		if restart, err = Database.ReadFile(opts.RestartFile); err != nil {
			return
		}
	}
	if opts.Profile != "" {
		var p interface{ Stop() }
		if p, err = startProfile(opts.Profile, opts.ProfileDir); err != nil {
			return
		}
		defer p.Stop()
	}
	if opts.MetricsAddr != "" {
		if metrics, err = observability.NewMetrics(nil); err != nil {
			return
		}
		prof = observability.Multi{timer, metrics}
		defer serveMetrics(opts.MetricsAddr, metrics, log).Close()
	}
	ip.Print(log)
	if sim, err = NewSimulation(ip, input, restart, prof, log); err != nil {
		return
	}
	defer sim.Close()
	if metrics != nil {
		sim.RK.Observer = metrics
	}
	if opts.TraceFile != "" {
		var f *os.File
		if f, err = os.Create(opts.TraceFile); err != nil {
			return
		}
		defer f.Close()
		tp, shutdown, e := observability.InitTracing(context.Background(), f, log)
		if e != nil {
			return e
		}
		defer func() {
			if e := shutdown(context.Background()); e != nil && err == nil {
				err = e
			}
		}()
		// the tracer follows one goroutine, the driver's
		sim.RK.Profiler = observability.Multi{sim.RK.Profiler, observability.NewTracer(tp)}
	}
	err = sim.Run()
	timer.Log(log)
	return
}
