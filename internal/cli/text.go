package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cellmark/internal/app"
	"cellmark/internal/cellview"
	"cellmark/internal/session"
)

var (
	textTrusted bool
	textMode    string
)

func init() {
	rootCmd.AddCommand(textCmd)
	textCmd.Flags().BoolVar(&textTrusted, "trusted", false, "render raw HTML without sanitizing")
	textCmd.Flags().StringVar(&textMode, "mode", "preview", "cell mode: preview or edit")
}

var textCmd = &cobra.Command{
	Use:   "text <notebook>",
	Short: "Print the rendered text of each markdown cell, one line per unit",
	Long:  "Prints cell:line<TAB>text for every rendered unit. The cell:line prefix is accepted by render --highlight.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		nb, err := app.Load(args[0], textTrusted)
		if err != nil {
			return err
		}
		sess, err := session.Open(nb, session.Options{Settings: settings})
		if err != nil {
			return err
		}
		defer sess.Close()
		if err := sess.RenderAll(cellview.ParseMode(textMode)); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, v := range sess.Views() {
			for i, line := range v.RenderedTextOutput() {
				fmt.Fprintf(out, "%s:%d\t%s\n", v.Cell().ID, i+1, line)
			}
		}
		return nil
	},
}
