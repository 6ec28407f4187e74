package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfg "cellmark/internal/config"
	settingsform "cellmark/internal/settings"
)

var configWizard bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVarP(&configWizard, "wizard", "w", false, "edit settings interactively")
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the config location and effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if configWizard {
			s, err := settingsform.Run(settings)
			if err != nil {
				return err
			}
			settings = s
		}
		p, err := cfg.SettingsPath()
		if err != nil {
			return err
		}
		b, err := yaml.Marshal(settings)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n%s", p, b)
		return nil
	},
}
