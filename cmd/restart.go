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
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// restartCmd represents the restart command
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Continue a simulation from a restart file",
	Long: `Continue a simulation from a restart file written by run or restart. The
integrator settings and the solution come from the restart file, the layout
and the stopping criteria from the input file, which must describe the same
patches.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runOptionsFromConfig()
		if opts.RestartFile = viper.GetString("from"); opts.RestartFile == "" {
			return fmt.Errorf("must supply a restart file (-R, --from)")
		}
		return Run(opts, Log)
	},
}

func init() {
	rootCmd.AddCommand(restartCmd)
	addRunFlags(restartCmd)
	restartCmd.Flags().StringP("from", "R", "", "restart file to continue from")
}
