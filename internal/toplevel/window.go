package toplevel

import (
	"errors"
	"fmt"
)

// ErrWindowClosed is returned when an event reaches a window that already
// received Closed.
var ErrWindowClosed = errors.New("window is closed")

// Output identifies a compositor output.
type Output interface {
	ID() uint32
}

// Handle issues requests for one window to the compositor. Implementations
// belong to the protocol layer; a Window only borrows its Handle.
type Handle interface {
	SetMaximized() error
	UnsetMaximized() error
	SetMinimized() error
	UnsetMinimized() error
	SetFullscreen(output Output) error
	UnsetFullscreen() error
	Activate() error
	Close() error
}

// Window is the last known state of one compositor toplevel.
type Window struct {
	ID     uint32
	Title  string
	AppID  string
	State  State
	Output Output
	Handle Handle

	phase   Phase
	outputs []Output
	batch   bool
	pending []Change
}

func newWindow(id uint32, handle Handle, output Output, batch bool) *Window {
	return &Window{
		ID:     id,
		State:  Normal,
		Output: output,
		Handle: handle,
		phase:  PhasePending,
		batch:  batch,
	}
}

// Phase returns the lifecycle phase of the window.
func (w *Window) Phase() Phase {
	return w.phase
}

// Outputs returns the outputs the window entered and has not left yet.
func (w *Window) Outputs() []Output {
	out := make([]Output, len(w.outputs))
	copy(out, w.outputs)
	return out
}

// Apply runs one transition of the window state machine and returns the
// changes to publish. When the window batches until done, changes are held
// back and returned by the Done transition instead.
func (w *Window) Apply(ev Event) ([]Change, error) {
	if w.phase == PhaseClosed {
		return nil, ErrWindowClosed
	}

	var changes []Change
	switch e := ev.(type) {
	case PropertyChanged:
		changes = w.applyProperty(e)
	case StateChanged:
		changes = w.applyState(e.Flags)
	case Done:
		if w.phase == PhasePending {
			w.phase = PhaseReady
		}
		if !w.batch {
			return nil, nil
		}
		changes, w.pending = w.pending, nil
		return changes, nil
	case Closed:
		w.phase = PhaseClosed
		w.pending = nil
		w.Output = nil
		w.outputs = nil
		return []Change{{Kind: ChangeClosed, ID: w.ID}}, nil
	default:
		return nil, fmt.Errorf("window %d: unknown event %T", w.ID, ev)
	}

	if w.batch {
		w.pending = append(w.pending, changes...)
		return nil, nil
	}
	return changes, nil
}

func (w *Window) applyProperty(e PropertyChanged) []Change {
	switch e.Prop {
	case PropTitle:
		w.Title = e.Text
		return []Change{{Kind: ChangeTitle, ID: w.ID, Value: e.Text}}
	case PropAppID:
		w.AppID = e.Text
		return []Change{{Kind: ChangeAppID, ID: w.ID, Value: e.Text}}
	case PropOutputEnter:
		w.enterOutput(e.Output)
	case PropOutputLeave:
		w.leaveOutput(e.Output)
	}
	return nil
}

// applyState collapses the state array into one presentation state. The
// last of maximized, minimized and fullscreen wins; none of them means
// Normal.
func (w *Window) applyState(flags []Flag) []Change {
	state := Normal
	changes := make([]Change, 0, len(flags))
	for _, f := range flags {
		switch f {
		case FlagMaximized:
			state = Maximized
			changes = append(changes, Change{Kind: ChangeMaximized, ID: w.ID})
		case FlagMinimized:
			state = Minimized
			changes = append(changes, Change{Kind: ChangeMinimized, ID: w.ID})
		case FlagFullscreen:
			state = Fullscreen
			changes = append(changes, Change{Kind: ChangeFullscreened, ID: w.ID})
		case FlagActivated:
			changes = append(changes, Change{Kind: ChangeActivated, ID: w.ID})
		}
	}
	w.State = state
	return changes
}

func (w *Window) enterOutput(o Output) {
	if o == nil {
		return
	}
	for _, existing := range w.outputs {
		if existing.ID() == o.ID() {
			w.Output = existing
			return
		}
	}
	w.outputs = append(w.outputs, o)
	w.Output = o
}

func (w *Window) leaveOutput(o Output) {
	if o == nil {
		return
	}
	for i, existing := range w.outputs {
		if existing.ID() == o.ID() {
			w.outputs = append(w.outputs[:i], w.outputs[i+1:]...)
			break
		}
	}
	if w.Output == nil || w.Output.ID() != o.ID() {
		return
	}
	if n := len(w.outputs); n > 0 {
		w.Output = w.outputs[n-1]
	} else {
		w.Output = nil
	}
}
