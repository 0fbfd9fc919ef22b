// Package cli implements the busctl command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the busctl command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "busctl",
		Short: "Run Lua scripts against an in-process event bus",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Config file (.toml, .yaml or .yml)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return exitError(exitUsage, err, "invalid flags")
	})

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("busctl version %s\n", version))

	root.AddCommand(NewRunCmd())
	root.AddCommand(newVersionCmd(version))
	return root
}

// Code returns the process exit code for an error returned by a command.
func Code(err error) int {
	if err == nil {
		return exitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitUsage
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the busctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "busctl version %s\n", version)
		},
	}
}
