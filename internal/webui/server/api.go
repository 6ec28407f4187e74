package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cellmark/internal/cellview"
	"cellmark/internal/dom"
	"cellmark/internal/notebook"
	"cellmark/internal/sanitize"
	"cellmark/internal/session"
	"cellmark/internal/theme"
	appver "cellmark/internal/version"
)

func (s *Server) mountAPI(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": appver.AppVersion})
	})
	api.POST("/render", s.renderHandler)
	api.GET("/notebooks", s.notebooksHandler)
	api.GET("/notebook", s.notebookHandler)
	api.GET("/find", s.findHandler)
}

type renderRequest struct {
	Source  string `json:"source"`
	Trusted bool   `json:"trusted"`
	// Mode is "edit" or "preview" (default).
	Mode string `json:"mode"`
	// Highlight is a 1-based unit line to decorate; 0 for none.
	Highlight int `json:"highlight"`
}

type renderResponse struct {
	HTML string   `json:"html"`
	Text []string `json:"text"`
	Mode string   `json:"mode"`
}

// POST /api/render renders one markdown cell outside any notebook.
func (s *Server) renderHandler(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errJSON(err))
		return
	}
	if req.Highlight < 0 {
		c.JSON(http.StatusBadRequest, errJSON(errors.New("highlight must be >= 0")))
		return
	}
	resp, err := s.renderCell(req)
	if err != nil {
		s.log.Error("render failed", "err", err)
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) renderCell(req renderRequest) (renderResponse, error) {
	const id = "cell"
	nb := notebook.New("")
	nb.TrustedMode = req.Trusted
	cell := notebook.NewCell(id, notebook.Markdown, req.Source)
	nb.Append(cell)

	out := dom.NewSurface("div")
	out.AddClass("preview")

	s.mu.Lock()
	defer s.mu.Unlock()
	v := cellview.New(cell, cellview.Options{
		Converter:       s.conv,
		Sanitizer:       sanitize.Default,
		Output:          out,
		Placeholder:     s.Settings.Placeholder,
		HighlightClass:  s.Settings.HighlightClass,
		UserSelectClass: s.Settings.UserSelectClass,
		Logger:          s.log,
	})
	defer v.Close()
	if err := v.Init(); err != nil {
		return renderResponse{}, err
	}
	if err := v.SetMode(cellview.ParseMode(req.Mode)); err != nil {
		return renderResponse{}, err
	}
	if req.Highlight > 0 {
		v.ApplyDecoration(&notebook.Range{CellID: id, StartLine: req.Highlight, EndLine: req.Highlight}, nil)
	}
	return renderResponse{HTML: out.InnerHTML(), Text: v.RenderedTextOutput(), Mode: v.Mode().String()}, nil
}

// openSession loads the notebook named by the path query parameter.
func (s *Server) openSession(c *gin.Context) (*session.Session, bool) {
	p, err := s.resolve(c.Query("path"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errJSON(err))
		return nil, false
	}
	nb, err := notebook.Load(p)
	if err != nil {
		code := http.StatusInternalServerError
		switch {
		case errors.Is(err, notebook.ErrNotFound):
			code = http.StatusNotFound
		case errors.Is(err, notebook.ErrFormat):
			code = http.StatusUnprocessableEntity
		}
		c.JSON(code, errJSON(err))
		return nil, false
	}
	if s.Trust != nil {
		ok, err := s.Trust.IsTrusted(p)
		if err != nil {
			s.log.Warn("trust store unreadable", "err", err)
		}
		nb.TrustedMode = nb.TrustedMode || ok
	}
	opts := session.Options{Settings: s.Settings, Converter: s.conv, Logger: s.log}
	if name := c.Query("theme"); name != "" {
		if _, ok := theme.Lookup(name); !ok {
			c.JSON(http.StatusBadRequest, errJSON(errors.New("unknown theme "+name)))
			return nil, false
		}
		opts.Themes = theme.NewService(name)
	}
	sess, err := session.Open(nb, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return nil, false
	}
	return sess, true
}

// GET /api/notebook?path=&highlight=cell:line renders the whole page.
func (s *Server) notebookHandler(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.openSession(c)
	if !ok {
		return
	}
	defer sess.Close()
	if h := strings.TrimSpace(c.Query("highlight")); h != "" {
		r, err := notebook.ParseRange(h)
		if err == nil {
			err = sess.Highlight(&r)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, errJSON(err))
			return
		}
	}
	doc, err := sess.Document()
	if err != nil {
		c.JSON(http.StatusInternalServerError, errJSON(err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc))
}

// GET /api/find?path=&q= searches the rendered text of the notebook.
func (s *Server) findHandler(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, errJSON(errors.New("missing q")))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.openSession(c)
	if !ok {
		return
	}
	defer sess.Close()
	matches := sess.Find(q)
	c.JSON(http.StatusOK, gin.H{"query": q, "matches": matches})
}

func errJSON(err error) gin.H { return gin.H{"error": err.Error()} }
