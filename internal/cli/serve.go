package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cellmark/internal/system"
	"cellmark/internal/trust"
	"cellmark/internal/webui/server"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "address to bind (host:port); default from config")
	serveCmd.Flags().BoolP("open", "o", false, "open the browser after start")
	serveCmd.Flags().String("root", ".", "directory notebooks are served from")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		open, _ := cmd.Flags().GetBool("open")
		root, _ := cmd.Flags().GetString("root")
		if addr == "" {
			addr = settings.Addr
		}
		srv := &server.Server{Addr: addr, Root: root, Settings: settings}
		if store, err := trust.Open(); err == nil {
			srv.Trust = store
		} else {
			system.Logger.Warn("trust store unavailable", "err", err)
		}

		// Handle Ctrl+C
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		url := fmt.Sprintf("http://%s/", addr)
		system.Logger.Info("starting server", "url", url)
		if open {
			if err := server.OpenBrowser(url); err != nil {
				system.Logger.Warn("failed to open browser", "err", err)
			}
		}
		return srv.Start(ctx)
	},
}
