package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "canonica-validate",
		Short:         "Run declarative data-quality validation suites against a query engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (defaults to ./config.yaml if present)")

	root.AddCommand(newRunCommand(&configPath))
	root.AddCommand(newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("canonica-validate %s (commit: %s)\n", version, commit)
			return nil
		},
	}
}
