package main

import (
	"fmt"
	"os"

	"github.com/danmuck/telectl/internal/logging"
	"github.com/mattn/go-colorable"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

type rootOptions struct {
	configPath string
	logLevel   string
	output     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "telectl",
		Short:         "Command and telemetry client for '@'-delimited TCP servers.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.toml (defaults are used when empty)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: trace|debug|info|warn|error")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "frame output: text|json|yaml")

	root.AddCommand(
		newRunCmd(opts),
		newDecodeCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the telectl version.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "telectl %s\n", version)
		},
	}
}

// setupLogging routes logs to stderr so stdout carries only frames.
func setupLogging(level string) {
	cfg := logging.RuntimeConfig()
	cfg.Out = colorable.NewColorableStderr()
	if lvl, ok := logging.ParseLevel(level); ok && os.Getenv(logging.EnvLogLevel) == "" {
		cfg.Level = lvl
	}
	logging.Apply(cfg)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "telectl: %v\n", err)
		os.Exit(1)
	}
}
