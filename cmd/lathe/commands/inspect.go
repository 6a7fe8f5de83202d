package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/lathe/internal/app"
)

func (c *CLI) newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <qualified-name>",
		Short: "Print a type of the semantic model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetBool("raw")
			cached, _ := cmd.Flags().GetBool("cached")

			return c.app.Inspect(cmd.Context(), args[0], app.InspectOptions{
				Raw:        raw,
				Cached:     cached,
				NoCache:    c.config.GetBool("no-cache"),
				OutputMode: c.config.GetString("log-format"),
			})
		},
	}

	cmd.Flags().Bool("raw", false, "Dump the type summary structure")
	cmd.Flags().Bool("cached", false, "Read the type from the artifact cache without building")

	return cmd
}
