package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sweetpotato0/lorem-mcp/config"
	"github.com/sweetpotato0/lorem-mcp/pkg/logging"
)

// app carries state shared by every command once the root pre-run has loaded it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "loremd",
		Short: "Lorem ipsum over REST and MCP",
		Long: `loremd serves placeholder text through a REST API and an MCP tool
(generate_lorem_ipsum), and probes whether a language model calls that tool.

Configuration comes from the environment (and an optional .env file); flags
override it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			level, format := a.logLevel, a.logFormat
			if level == "" {
				level = os.Getenv("LOREM_LOG_LEVEL")
			}
			if format == "" {
				format = os.Getenv("LOREM_LOG_FORMAT")
			}
			// stdout is reserved for the stdio transport and probe output.
			a.logger = logging.New(cmd.ErrOrStderr(), level, format)
			logging.SetLogger(a.logger)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from LOREM_LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: json or text (default from LOREM_LOG_FORMAT)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newProbeCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
