// Command simcore-demo drives the particle-integration example
// workload through a Driver from the command line: a "run" subcommand
// to execute a simulation and print its final state, and a "config"
// subcommand to scaffold or inspect a settings file.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "simcore-demo",
	Short: "Drives the simcore fixed-timestep scheduler against an example workload",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("simcore-demo: %v", err)
	}
}
