package cli

import (
	"github.com/spf13/cobra"

	"cellmark/internal/app"
)

var (
	previewTrusted bool
	previewWatch   bool
)

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().BoolVar(&previewTrusted, "trusted", false, "render raw HTML without sanitizing")
	previewCmd.Flags().BoolVarP(&previewWatch, "watch", "w", false, "reload when the notebook changes on disk")
}

var previewCmd = &cobra.Command{
	Use:   "preview <notebook>",
	Short: "Open the terminal preview",
	Long:  "Keys: j/k move, enter or double-click edits, esc leaves edit mode, / finds, n/N next/previous match, t theme, w save, q quit.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Start(cmd.Context(), args[0], app.Options{
			Settings: settings,
			Trusted:  previewTrusted,
			Watch:    previewWatch,
		})
	},
}
