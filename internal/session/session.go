// Package session binds one cell view per markdown cell of a notebook and
// renders the whole notebook as a page.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"cellmark/internal/cellview"
	"cellmark/internal/config"
	"cellmark/internal/dom"
	"cellmark/internal/find"
	"cellmark/internal/markdown"
	"cellmark/internal/notebook"
	"cellmark/internal/sanitize"
	"cellmark/internal/system"
	"cellmark/internal/theme"
)

// Options configures a Session. Zero values get defaults.
type Options struct {
	Settings  config.Settings
	Themes    *theme.Service
	Converter *markdown.Renderer
	Sanitizer sanitize.Sanitizer
	Logger    *log.Logger
	// Editors supplies an editing collaborator per cell (optional).
	Editors func(*notebook.Cell) cellview.Editor
}

// Session is safe for concurrent use; calls are serialized.
type Session struct {
	mu        sync.Mutex
	nb        *notebook.Notebook
	views     []*cellview.TextCell
	byID      map[string]*cellview.TextCell
	more      map[string]*dom.Surface
	conv      *markdown.Renderer
	themes    *theme.Service
	settings  config.Settings
	log       *log.Logger
	highlight *notebook.Range
}

// Open creates and initializes a view for every markdown cell.
func Open(nb *notebook.Notebook, opts Options) (*Session, error) {
	if opts.Settings == (config.Settings{}) {
		opts.Settings = config.Defaults()
	}
	if opts.Themes == nil {
		opts.Themes = theme.NewService(opts.Settings.Theme)
	}
	if opts.Converter == nil {
		opts.Converter = markdown.New(markdown.WithCodeStyle(opts.Settings.CodeStyle))
	}
	if opts.Sanitizer == nil {
		opts.Sanitizer = sanitize.Default
	}
	if opts.Logger == nil {
		opts.Logger = system.Logger
	}
	s := &Session{
		nb:       nb,
		byID:     map[string]*cellview.TextCell{},
		more:     map[string]*dom.Surface{},
		conv:     opts.Converter,
		themes:   opts.Themes,
		settings: opts.Settings,
		log:      opts.Logger.With("notebook", nb.Path),
	}
	for _, c := range nb.MarkdownCells() {
		out := dom.NewSurface("div")
		out.AddClass("preview")
		more := dom.NewSurface("div")
		more.AddClass("more-actions")
		vo := cellview.Options{
			Converter:       opts.Converter,
			Sanitizer:       opts.Sanitizer,
			Theme:           opts.Themes,
			Output:          out,
			MoreActions:     more,
			Placeholder:     opts.Settings.Placeholder,
			HighlightClass:  opts.Settings.HighlightClass,
			UserSelectClass: opts.Settings.UserSelectClass,
			Logger:          opts.Logger,
		}
		if opts.Editors != nil {
			vo.Editor = opts.Editors(c)
		}
		v := cellview.New(c, vo)
		if err := v.Init(); err != nil {
			v.Close()
			s.closeLocked()
			return nil, fmt.Errorf("init cell %s: %w", c.ID, err)
		}
		s.views = append(s.views, v)
		s.byID[c.ID] = v
		s.more[c.ID] = more
	}
	s.log.Debug("session opened", "cells", len(s.views), "trusted", nb.TrustedMode)
	return s, nil
}

// Notebook returns the underlying notebook.
func (s *Session) Notebook() *notebook.Notebook { return s.nb }

// Themes returns the theme service shared by the views.
func (s *Session) Themes() *theme.Service { return s.themes }

// Highlighted returns the current decoration range, if any.
func (s *Session) Highlighted() *notebook.Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}

// Save writes the notebook back to its path.
func (s *Session) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nb.Path == "" {
		return errors.New("notebook has no path")
	}
	return s.nb.Save(s.nb.Path)
}

// Views returns the cell views in notebook order.
func (s *Session) Views() []*cellview.TextCell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*cellview.TextCell(nil), s.views...)
}

// View returns the view of a markdown cell.
func (s *Session) View(id string) (*cellview.TextCell, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", notebook.ErrNotFound, id)
	}
	return v, nil
}

// RenderAll puts every cell in mode m.
func (s *Session) RenderAll(m cellview.Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.views {
		if err := v.SetMode(m); err != nil {
			return err
		}
	}
	return nil
}

// Select makes id the active cell without entering edit mode. "" clears
// the active cell.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.selectLocked(id)
	return err
}

// Activate selects id and puts it into edit mode.
func (s *Session) Activate(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, err := s.selectLocked(id)
	if err != nil || target == nil {
		return err
	}
	return target.SetMode(cellview.ModeEdit)
}

func (s *Session) selectLocked(id string) (*cellview.TextCell, error) {
	var target *cellview.TextCell
	if id != "" {
		v, ok := s.byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", notebook.ErrNotFound, id)
		}
		target = v
		s.nb.UpdateActiveCell(v.Cell())
	} else {
		s.nb.UpdateActiveCell(nil)
	}
	for _, v := range s.views {
		if err := v.SetActiveCellID(id); err != nil {
			return nil, err
		}
	}
	return target, nil
}

// Highlight moves the session's decoration to r (nil clears it).
func (s *Session) Highlight(r *notebook.Range) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r != nil {
		if _, ok := s.byID[r.CellID]; !ok {
			return fmt.Errorf("%w: %s", notebook.ErrNotFound, r.CellID)
		}
	}
	if old := s.highlight; old != nil {
		if v, ok := s.byID[old.CellID]; ok {
			v.ApplyDecoration(nil, old)
		}
	}
	if r != nil {
		s.byID[r.CellID].ApplyDecoration(r, nil)
	}
	s.highlight = r
	return nil
}

// Find searches the rendered text of all markdown cells.
func (s *Session) Find(query string) []find.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return find.Cells(s.nb.MarkdownCells(), query)
}

// Reload copies sources and the trust flag from fresh into the live
// notebook and notifies changed cells. Cells that appeared or vanished
// are reported through the returned bool; the caller should reopen.
func (s *Session) Reload(fresh *notebook.Notebook) (structural bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trustChanged := fresh.TrustedMode != s.nb.TrustedMode
	s.nb.TrustedMode = fresh.TrustedMode
	seen := 0
	var changed []*notebook.Cell
	for _, fc := range fresh.MarkdownCells() {
		v, ok := s.byID[fc.ID]
		if !ok {
			structural = true
			continue
		}
		seen++
		c := v.Cell()
		if c.Source.Joined() != fc.Source.Joined() || trustChanged {
			c.Source = fc.Source
			changed = append(changed, c)
		}
	}
	if seen != len(s.views) {
		structural = true
	}
	for _, c := range changed {
		c.NotifyOutputsChanged()
	}
	s.log.Info("notebook reloaded", "changed", len(changed), "structural", structural)
	return structural
}

// Close releases every view.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	for _, v := range s.views {
		v.Close()
	}
	s.views = nil
	s.byID = map[string]*cellview.TextCell{}
}
