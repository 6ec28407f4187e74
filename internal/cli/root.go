package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cellmark/internal/app"
	"cellmark/internal/config"
	"cellmark/internal/system"
)

var (
	settings = config.Defaults()
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "cellmark [notebook]",
	Short: "cellmark – render and preview notebook markdown cells",
	Long:  "cellmark renders the markdown cells of Jupyter notebooks to sanitized HTML, previews them in the terminal and serves them locally.",
	Args:  cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		settings = s
		level := s.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		system.SetLevel(level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default action: preview the given notebook
		if len(args) == 0 {
			return cmd.Help()
		}
		return app.Start(cmd.Context(), args[0], app.Options{Settings: settings})
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
