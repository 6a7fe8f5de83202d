// Package commands implements the CLI commands for the lathe build tool.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.trai.ch/lathe/internal/app"
	"go.trai.ch/lathe/internal/build"
)

// envPrefix prefixes the environment variables that set global flags, as in LATHE_LOG_FORMAT.
const envPrefix = "LATHE"

// CLI represents the command line interface for lathe.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
	config  *viper.Viper
}

// Application represents the application logic interface.
type Application interface {
	WithDir(dir string) *app.App
	Build(ctx context.Context, opts app.BuildOptions) error
	Watch(ctx context.Context, opts app.BuildOptions) error
	Inspect(ctx context.Context, name string, opts app.InspectOptions) error
	Clean(ctx context.Context) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "lathe",
		Short:         "Incremental semantic model builder for Java sources",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "C", "", "Directory to search for lathe.yaml (default: working directory)")
	flags.String("log-format", "auto", "Output format: auto, pretty, linear or json")
	flags.Bool("no-cache", false, "Ignore cached unit artifacts for this run")

	config := viper.New()
	for _, name := range []string{"dir", "log-format", "no-cache"} {
		_ = config.BindPFlag(name, flags.Lookup(name))
	}
	config.SetEnvPrefix(envPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	config.AutomaticEnv()

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
		config:  config,
	}

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if dir := c.config.GetString("dir"); dir != "" {
			c.app.WithDir(dir)
		}
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newInspectCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// buildOptions reads the global flags shared by build and watch.
func (c *CLI) buildOptions() app.BuildOptions {
	return app.BuildOptions{
		NoCache:    c.config.GetBool("no-cache"),
		OutputMode: c.config.GetString("log-format"),
	}
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
