// Package app wires a notebook file into the terminal preview.
package app

import (
	"context"

	"cellmark/internal/config"
	"cellmark/internal/notebook"
	"cellmark/internal/preview"
	"cellmark/internal/session"
	"cellmark/internal/system"
	"cellmark/internal/trust"
)

// Options selects how a notebook is opened.
type Options struct {
	Settings config.Settings
	// Trusted forces trusted rendering regardless of the trust store.
	Trusted bool
	Watch   bool
}

// Load reads path and applies the trust store. Trust comes from the
// explicit flag or from a stored entry; a store that cannot be read is
// treated as empty.
func Load(path string, trusted bool) (*notebook.Notebook, error) {
	nb, err := notebook.Load(path)
	if err != nil {
		return nil, err
	}
	nb.TrustedMode = trusted
	if trusted {
		return nb, nil
	}
	store, err := trust.Open()
	if err != nil {
		system.Logger.Warn("trust store unavailable", "err", err)
		return nb, nil
	}
	ok, err := store.IsTrusted(path)
	if err != nil {
		system.Logger.Warn("trust store unreadable", "err", err)
	}
	nb.TrustedMode = ok
	return nb, nil
}

// Start runs the terminal preview for path until the user quits.
func Start(ctx context.Context, path string, opts Options) error {
	nb, err := Load(path, opts.Trusted)
	if err != nil {
		return err
	}
	// Log output would tear the alternate screen.
	system.SetLevel("error")
	return preview.Run(ctx, nb, preview.Options{
		Session: session.Options{Settings: opts.Settings},
		Watch:   opts.Watch,
	})
}
