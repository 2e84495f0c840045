package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e7canasta/simcore"
	"github.com/e7canasta/simcore/simconfig"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or scaffold a settings YAML file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Writes simcore.DefaultSettings() to path as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := simconfig.Save(args[0], simcore.DefaultSettings()); err != nil {
			return err
		}
		fmt.Printf("wrote default settings to %s\n", args[0])
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Loads a settings file and prints it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := simconfig.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%+v\n", s)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
