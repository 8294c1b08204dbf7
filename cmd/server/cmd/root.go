package cmd

import (
	"fmt"
	"os"

	"github.com/Togather-Foundation/places/internal/config"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags every subcommand sees.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

func newRootCommand() *cobra.Command {
	global := &globalOptions{}

	root := &cobra.Command{
		Use:   "server",
		Short: "Togather places service - community-verified geotagged places",
		Long: `Togather places service.

The places service stores geotagged places together with the accepts,
ratings and images users attach to them.

Identity is delegated to the Auth service, images are checked against the
Media service and usage events are sent to the Stats service.

Running the binary without a subcommand starts the HTTP server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), global, serveOptions{})
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&global.configPath, "config", "", "YAML config file (optional; environment variables override it)")
	flags.StringVar(&global.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	flags.StringVar(&global.logFormat, "log-format", "", "log format (json, console) (default: json)")

	root.AddCommand(
		newServeCommand(global),
		newMigrateCommand(global),
		newVersionCommand(),
		newHealthcheckCommand(),
	)
	return root
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the --config file, the environment and then
// the logging flags.
func (g *globalOptions) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	return cfg, nil
}
