package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build the semantic model of the project once",
		Long: "Build resolves the units of the project, reports their diagnostics and " +
			"exits with status 1 if any diagnostic is an error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Build(cmd.Context(), c.buildOptions())
		},
	}
}

func (c *CLI) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever a source changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Watch(cmd.Context(), c.buildOptions())
		},
	}
}
