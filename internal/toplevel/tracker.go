package toplevel

import (
	"errors"
	"fmt"
)

// ErrUnknownWindow is returned by Tracker.Apply for ids that are not in
// the registry.
var ErrUnknownWindow = errors.New("unknown window")

// Action is a control request coming from a front-end.
type Action int

const (
	ActionToggleFullscreen Action = iota
	ActionToggleMaximized
	ActionToggleMinimized
	ActionActivate
	ActionClose
)

func (a Action) String() string {
	switch a {
	case ActionToggleFullscreen:
		return "toggle-fullscreen"
	case ActionToggleMaximized:
		return "toggle-maximized"
	case ActionToggleMinimized:
		return "toggle-minimized"
	case ActionActivate:
		return "activate"
	case ActionClose:
		return "close"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Tracker owns the registry, hands out window ids and remembers which
// window is active. It is not safe for concurrent use; the server loop is
// its only caller.
type Tracker struct {
	registry *Registry
	notifier Notifier
	batch    bool

	nextID    uint32
	active    uint32
	hasActive bool
}

// NewTracker returns a tracker publishing to n. When batchUntilDone is set,
// window changes are published on the compositor's done event rather than
// as they arrive.
func NewTracker(n Notifier, batchUntilDone bool) *Tracker {
	if n == nil {
		n = NotifierFunc(func(Change) {})
	}
	return &Tracker{
		registry: NewRegistry(),
		notifier: n,
		batch:    batchUntilDone,
	}
}

// Registry exposes the tracked windows for read access.
func (t *Tracker) Registry() *Registry {
	return t.registry
}

// Window looks up a live window.
func (t *Tracker) Window(id uint32) (*Window, bool) {
	return t.registry.Get(id)
}

// Active returns the id of the most recently activated window.
func (t *Tracker) Active() (uint32, bool) {
	return t.active, t.hasActive
}

// Open starts tracking a newly announced toplevel. The id is consumed even
// when the insert fails so ids are never handed out twice.
func (t *Tracker) Open(handle Handle, output Output) (*Window, error) {
	id := t.nextID
	t.nextID++

	w := newWindow(id, handle, output, t.batch)
	if output != nil {
		w.enterOutput(output)
	}
	if err := t.registry.Insert(w); err != nil {
		return nil, fmt.Errorf("track window %d: %w", id, err)
	}
	t.notifier.Notify(Change{Kind: ChangeOpened, ID: id})
	return w, nil
}

// Apply feeds one event to the window with the given id and publishes the
// resulting changes. A Closed event also removes the window.
func (t *Tracker) Apply(id uint32, ev Event) error {
	w, ok := t.registry.Get(id)
	if !ok {
		return fmt.Errorf("window %d: %w", id, ErrUnknownWindow)
	}

	changes, err := w.Apply(ev)
	if err != nil {
		return err
	}

	if _, closed := ev.(Closed); closed {
		t.registry.Remove(id)
		if t.hasActive && t.active == id {
			t.hasActive = false
		}
	}

	for _, c := range changes {
		if c.Kind == ChangeActivated {
			t.active, t.hasActive = c.ID, true
		}
		t.notifier.Notify(c)
	}
	return nil
}

// OutputRemoved makes every window leave an output that disappeared.
func (t *Tracker) OutputRemoved(o Output) {
	t.registry.Each(func(w *Window) {
		w.leaveOutput(o)
	})
}

// Clear forgets every window, as happens when the compositor stops
// sending toplevel events.
func (t *Tracker) Clear() {
	t.registry.Clear()
	t.hasActive = false
}

// Perform issues the request for action a on window id. It reports whether
// the window exists; unknown ids are not an error. The window state is left
// untouched: the compositor confirms through a later state event.
//
// Toggles and close need the window to be on an output, otherwise they do
// nothing. Activating the window that is already active does nothing.
func (t *Tracker) Perform(id uint32, a Action) (bool, error) {
	w, ok := t.registry.Get(id)
	if !ok {
		return false, nil
	}
	if w.Handle == nil {
		return true, nil
	}

	var err error
	switch a {
	case ActionActivate:
		if t.hasActive && t.active == id {
			return true, nil
		}
		err = w.Handle.Activate()
	case ActionToggleFullscreen:
		if w.Output == nil {
			return true, nil
		}
		if w.State == Fullscreen {
			err = w.Handle.UnsetFullscreen()
		} else {
			err = w.Handle.SetFullscreen(w.Output)
		}
	case ActionToggleMaximized:
		if w.Output == nil {
			return true, nil
		}
		if w.State == Maximized {
			err = w.Handle.UnsetMaximized()
		} else {
			err = w.Handle.SetMaximized()
		}
	case ActionToggleMinimized:
		if w.Output == nil {
			return true, nil
		}
		if w.State == Minimized {
			err = w.Handle.UnsetMinimized()
		} else {
			err = w.Handle.SetMinimized()
		}
	case ActionClose:
		if w.Output == nil {
			return true, nil
		}
		err = w.Handle.Close()
	default:
		return true, fmt.Errorf("window %d: unsupported action %v", id, a)
	}
	if err != nil {
		return true, fmt.Errorf("window %d: %s: %w", id, a, err)
	}
	return true, nil
}
