// Package server is the local HTTP front end: notebook rendering and find
// over a small JSON API plus a plain HTML index.
package server

import (
	"context"
	"errors"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"cellmark/internal/config"
	"cellmark/internal/markdown"
	"cellmark/internal/system"
	"cellmark/internal/trust"
)

type Server struct {
	Addr string
	// Root bounds the notebook paths the API may open. Empty means the
	// working directory.
	Root     string
	Settings config.Settings
	// Trust marks stored notebooks as trusted. Optional.
	Trust  *trust.Store
	Logger *log.Logger

	once sync.Once
	// mu serializes rendering; the converter carries the notebook URI.
	mu   sync.Mutex
	conv *markdown.Renderer
	log  *log.Logger
}

func (s *Server) init() {
	s.once.Do(func() {
		if s.Settings == (config.Settings{}) {
			s.Settings = config.Defaults()
		}
		s.log = s.Logger
		if s.log == nil {
			s.log = system.Logger
		}
		s.log = s.log.WithPrefix("webui")
		s.conv = markdown.New(markdown.WithCodeStyle(s.Settings.CodeStyle))
	})
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	s.init()
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	s.mountAPI(r)
	r.GET("/", s.indexHandler)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errJSON(errors.New("not found")))
	})
	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.Addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("webui server listening", "addr", s.Addr, "root", s.Root)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// OpenBrowser tries to open a URL in the system browser.
func OpenBrowser(url string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}
