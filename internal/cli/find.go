package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"cellmark/internal/app"
	"cellmark/internal/session"
)

var (
	findTrusted bool
	findLimit   int
	findJSON    bool
)

func init() {
	rootCmd.AddCommand(findCmd)
	findCmd.Flags().BoolVar(&findTrusted, "trusted", false, "render raw HTML without sanitizing")
	findCmd.Flags().IntVarP(&findLimit, "limit", "n", 20, "maximum matches to print (0 for all)")
	findCmd.Flags().BoolVar(&findJSON, "json", false, "print matches as JSON")
}

var findCmd = &cobra.Command{
	Use:   "find <notebook> <query>...",
	Short: "Fuzzy-find text in the rendered markdown cells",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		nb, err := app.Load(args[0], findTrusted)
		if err != nil {
			return err
		}
		sess, err := session.Open(nb, session.Options{Settings: settings})
		if err != nil {
			return err
		}
		defer sess.Close()

		matches := sess.Find(strings.Join(args[1:], " "))
		if findLimit > 0 && len(matches) > findLimit {
			matches = matches[:findLimit]
		}
		out := cmd.OutOrStdout()
		if findJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(matches)
		}
		if len(matches) == 0 {
			fmt.Fprintln(out, "no matches")
			return nil
		}

		// Column width by display cells so wide runes line up.
		w := len("RANGE")
		for _, m := range matches {
			w = max(w, runewidth.StringWidth(m.Range.String()))
		}
		fmt.Fprintf(out, "%s  %5s  %s\n", runewidth.FillRight("RANGE", w), "SCORE", "TEXT")
		for _, m := range matches {
			text := strings.ReplaceAll(m.Text, "\t", " ")
			fmt.Fprintf(out, "%s  %5d  %s\n", runewidth.FillRight(m.Range.String(), w), m.Score, runewidth.Truncate(text, 72, "…"))
		}
		return nil
	},
}
