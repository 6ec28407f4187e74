package cellview

// Mode is the cell's edit/preview state.
type Mode int

const (
	ModeEdit Mode = iota
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "edit"
}

// ParseMode accepts "edit" or "preview"; anything else is Preview.
func ParseMode(s string) Mode {
	if s == "edit" {
		return ModeEdit
	}
	return ModePreview
}

// RenderInput is the snapshot RefreshPreview decides on.
type RenderInput struct {
	// Source is the model's joined source.
	Source  string
	Trusted bool
	// LastTrusted is nil before the first render.
	LastTrusted *bool
	// Cached is the joined content of the previous render.
	Cached      string
	Mode        Mode
	Placeholder string
}

// RenderState is the outcome of ComputeRenderState.
type RenderState struct {
	TrustedChanged bool
	ContentChanged bool
	// Value is the markdown to convert when Changed.
	Value          string
	UsePlaceholder bool
	Sanitize       bool
}

// Changed reports whether a render is needed.
func (s RenderState) Changed() bool { return s.TrustedChanged || s.ContentChanged }

// ComputeRenderState decides whether a preview render is due and what it
// renders. An empty source always counts as changed.
func ComputeRenderState(in RenderInput) RenderState {
	st := RenderState{
		TrustedChanged: in.LastTrusted == nil || *in.LastTrusted != in.Trusted,
		ContentChanged: in.Cached != in.Source || in.Source == "",
		Sanitize:       !in.Trusted,
	}
	if !st.Changed() {
		return st
	}
	if in.Source == "" && in.Mode == ModePreview {
		st.UsePlaceholder = true
		st.Value = in.Placeholder
	} else {
		st.Value = in.Source
	}
	return st
}
