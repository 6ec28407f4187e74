package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cellmark/internal/app"
	"cellmark/internal/cellview"
	"cellmark/internal/notebook"
	"cellmark/internal/session"
	"cellmark/internal/system"
	"cellmark/internal/theme"
	"cellmark/internal/watch"
)

var (
	renderOut       string
	renderTrusted   bool
	renderHighlight string
	renderWatch     bool
	renderTheme     string
	renderMode      string
)

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "write the HTML page to this file (default stdout)")
	renderCmd.Flags().BoolVar(&renderTrusted, "trusted", false, "render raw HTML without sanitizing")
	renderCmd.Flags().StringVar(&renderHighlight, "highlight", "", "decorate a rendered line, as cell:line")
	renderCmd.Flags().BoolVarP(&renderWatch, "watch", "w", false, "re-render when the notebook changes (requires -o)")
	renderCmd.Flags().StringVar(&renderTheme, "theme", "", "color theme (default from config)")
	renderCmd.Flags().StringVar(&renderMode, "mode", "preview", "cell mode: preview or edit")
}

var renderCmd = &cobra.Command{
	Use:   "render <notebook>",
	Short: "Render a notebook to a standalone HTML page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderWatch && renderOut == "" {
			return fmt.Errorf("--watch needs --output")
		}
		var hl *notebook.Range
		if renderHighlight != "" {
			r, err := notebook.ParseRange(renderHighlight)
			if err != nil {
				return err
			}
			hl = &r
		}
		opts, err := sessionOptions(renderTheme)
		if err != nil {
			return err
		}
		nb, err := app.Load(args[0], renderTrusted)
		if err != nil {
			return err
		}
		sess, err := session.Open(nb, opts)
		if err != nil {
			return err
		}
		defer func() { sess.Close() }()

		write := func() error {
			if err := sess.RenderAll(cellview.ParseMode(renderMode)); err != nil {
				return err
			}
			if hl != nil {
				if err := sess.Highlight(hl); err != nil {
					return err
				}
			}
			return writePage(sess, cmd.OutOrStdout(), renderOut)
		}
		if err := write(); err != nil {
			return err
		}
		if !renderWatch {
			return nil
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		system.Logger.Info("watching", "notebook", nb.Path, "out", renderOut)
		return watch.File(ctx, nb.Path, 0, func() {
			fresh, err := notebook.Load(nb.Path)
			if err != nil {
				system.Logger.Error("reload failed", "err", err)
				return
			}
			fresh.TrustedMode = nb.TrustedMode
			sess = reloadSession(sess, fresh, func(n *notebook.Notebook) (*session.Session, error) {
				return session.Open(n, opts)
			})
			if err := write(); err != nil {
				system.Logger.Error("render failed", "err", err)
				return
			}
			system.Logger.Info("rendered", "out", renderOut)
		})
	},
}

// reloadSession feeds fresh into cur. A structural change swaps in a
// session opened on fresh; cur is kept when that open fails.
func reloadSession(cur *session.Session, fresh *notebook.Notebook, open func(*notebook.Notebook) (*session.Session, error)) *session.Session {
	if !cur.Reload(fresh) {
		return cur
	}
	next, err := open(fresh)
	if err != nil {
		system.Logger.Error("reopen failed", "err", err)
		return cur
	}
	cur.Close()
	return next
}

// sessionOptions applies the configured settings and an optional theme
// override.
func sessionOptions(themeName string) (session.Options, error) {
	opts := session.Options{Settings: settings}
	if themeName != "" {
		if _, ok := theme.Lookup(themeName); !ok {
			return opts, fmt.Errorf("unknown theme %q (have %v)", themeName, theme.Names())
		}
		opts.Themes = theme.NewService(themeName)
	}
	return opts, nil
}

// writePage writes the document to path, or to stdout when path is "" or "-".
func writePage(sess *session.Session, stdout io.Writer, path string) error {
	if path == "" || path == "-" {
		return sess.WriteDocument(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := sess.WriteDocument(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
