package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"cellmark/internal/trust"
)

var trustYes bool

func init() {
	rootCmd.AddCommand(trustCmd)
	trustCmd.AddCommand(trustAddCmd, trustRmCmd, trustLsCmd)
	trustAddCmd.Flags().BoolVarP(&trustYes, "yes", "y", false, "do not ask for confirmation")
}

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Manage notebooks allowed to render raw HTML",
}

var trustAddCmd = &cobra.Command{
	Use:   "add <notebook>...",
	Short: "Trust notebooks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, p := range args {
			if _, err := os.Stat(p); err != nil {
				return err
			}
		}
		if !trustYes {
			ok := false
			err := huh.NewConfirm().
				Title(fmt.Sprintf("Trust %d notebook(s)?", len(args))).
				Description("Trusted notebooks render raw HTML, including scripts, without sanitizing.").
				Affirmative("Trust").
				Negative("Cancel").
				Value(&ok).
				Run()
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "cancelled")
				return nil
			}
		}
		store, err := trust.Open()
		if err != nil {
			return err
		}
		added, existed, err := store.Add(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range added {
			fmt.Fprintf(out, "✓ trusted %s\n", p)
		}
		for _, p := range existed {
			fmt.Fprintf(out, "• already trusted %s\n", p)
		}
		return nil
	},
}

var trustRmCmd = &cobra.Command{
	Use:     "rm <notebook>...",
	Aliases: []string{"remove"},
	Short:   "Stop trusting notebooks",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := trust.Open()
		if err != nil {
			return err
		}
		removed, missing, err := store.Remove(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range removed {
			fmt.Fprintf(out, "✓ removed %s\n", p)
		}
		for _, p := range missing {
			fmt.Fprintf(out, "• not trusted %s\n", p)
		}
		return nil
	},
}

var trustLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List trusted notebooks",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := trust.Open()
		if err != nil {
			return err
		}
		list, err := store.List()
		if err != nil {
			return err
		}
		for _, p := range list {
			fmt.Fprintln(cmd.OutOrStdout(), p)
		}
		return nil
	},
}
