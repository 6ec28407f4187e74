package dom

import "errors"

// ErrDetached is returned when writing to a surface removed from its host.
var ErrDetached = errors.New("surface detached")

// Surface is an attachable output element: the renderer writes innerHTML
// into it and addresses its children for decorations.
type Surface struct {
	*Element
	writes   int
	detached bool
	onScroll func(*Element)
}

// NewSurface creates a detached surface rooted at a <tag> element.
func NewSurface(tag string) *Surface {
	return &Surface{Element: NewElement(tag)}
}

// Write replaces the surface content and counts the write.
func (s *Surface) Write(htmlText string) error {
	if s.detached {
		return ErrDetached
	}
	if err := s.SetInnerHTML(htmlText); err != nil {
		return err
	}
	s.writes++
	return nil
}

// Detach marks the surface as removed from its host. Writes fail until
// Attach is called.
func (s *Surface) Detach() { s.detached = true }

// Attach reverses Detach.
func (s *Surface) Attach() { s.detached = false }

// Writes returns the number of successful Write calls.
func (s *Surface) Writes() int { return s.writes }

// OnScroll installs the hook invoked by ScrollIntoView and ScrollTop.
func (s *Surface) OnScroll(fn func(*Element)) { s.onScroll = fn }

// ScrollIntoView asks the host to bring el into view.
func (s *Surface) ScrollIntoView(el *Element) {
	if s.onScroll != nil && el != nil {
		s.onScroll(el)
	}
}

// ScrollTop asks the host to scroll the surface itself.
func (s *Surface) ScrollTop() {
	if s.onScroll != nil {
		s.onScroll(s.Element)
	}
}
