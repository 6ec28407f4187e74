package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"cellmark/internal/schema"
)

func init() {
	rootCmd.AddCommand(schemaCmd)
}

var schemaCmd = &cobra.Command{
	Use:       "schema [notebook|settings]",
	Short:     "Print a JSON Schema",
	Long:      "Prints the JSON Schema of the notebook subset cellmark reads (default) or of config.yaml.",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"notebook", "settings"},
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		sch, ok := schema.ByName(name)
		if !ok {
			return fmt.Errorf("unknown schema %q (want notebook or settings)", name)
		}
		b, err := schema.Marshal(sch)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}
