package protocols

import (
	"github.com/bnema/wltoplevel/internal/wlclient"
)

// Protocol interface names
const (
	ForeignToplevelManagerInterface = "zwlr_foreign_toplevel_manager_v1"
	ForeignToplevelHandleInterface  = "zwlr_foreign_toplevel_handle_v1"

	// ForeignToplevelManagerVersion is the highest version this binding
	// understands.
	ForeignToplevelManagerVersion = 3
)

// ForeignToplevelManager announces the compositor's toplevels.
type ForeignToplevelManager struct {
	wlclient.BaseProxy

	// OnToplevel receives each new handle before any of its events.
	OnToplevel func(*ForeignToplevelHandle)
	// OnFinished is called when the compositor stops sending events.
	OnFinished func()
}

// Stop asks the compositor to stop sending toplevel events. A finished
// event follows.
func (m *ForeignToplevelManager) Stop() error {
	// Opcode 0: stop
	const opcode = 0
	return m.Conn().SendRequest(m, opcode)
}

// Dispatch handles toplevel (0) and finished (1).
func (m *ForeignToplevelManager) Dispatch(ev *wlclient.Event) error {
	switch ev.Opcode {
	case 0:
		id := ev.Uint32()
		if err := ev.Err(); err != nil {
			return err
		}
		handle := &ForeignToplevelHandle{}
		handle.Attach(m.Conn(), id)
		m.Conn().Register(handle)
		if m.OnToplevel != nil {
			m.OnToplevel(handle)
		}
	case 1:
		m.Conn().Unregister(m.ID())
		if m.OnFinished != nil {
			m.OnFinished()
		}
	}
	return nil
}

// ForeignToplevelHandle is one compositor toplevel.
type ForeignToplevelHandle struct {
	wlclient.BaseProxy

	OnTitle       func(title string)
	OnAppID       func(appID string)
	OnOutputEnter func(output *wlclient.Output)
	OnOutputLeave func(output *wlclient.Output)
	OnState       func(states []uint32)
	OnDone        func()
	OnClosed      func()
	OnParent      func(parent *ForeignToplevelHandle)
}

// SetMaximized requests the toplevel to be maximized
func (h *ForeignToplevelHandle) SetMaximized() error {
	// Opcode 0: set_maximized
	const opcode = 0
	return h.Conn().SendRequest(h, opcode)
}

// UnsetMaximized requests the toplevel to be unmaximized
func (h *ForeignToplevelHandle) UnsetMaximized() error {
	// Opcode 1: unset_maximized
	const opcode = 1
	return h.Conn().SendRequest(h, opcode)
}

// SetMinimized requests the toplevel to be minimized
func (h *ForeignToplevelHandle) SetMinimized() error {
	// Opcode 2: set_minimized
	const opcode = 2
	return h.Conn().SendRequest(h, opcode)
}

// UnsetMinimized requests the toplevel to be unminimized
func (h *ForeignToplevelHandle) UnsetMinimized() error {
	// Opcode 3: unset_minimized
	const opcode = 3
	return h.Conn().SendRequest(h, opcode)
}

// Activate requests the toplevel to be focused on the given seat
func (h *ForeignToplevelHandle) Activate(seat *wlclient.Seat) error {
	// Opcode 4: activate
	const opcode = 4
	if seat == nil {
		return h.Conn().SendRequest(h, opcode, nil)
	}
	return h.Conn().SendRequest(h, opcode, seat)
}

// Close requests the toplevel to be closed
func (h *ForeignToplevelHandle) Close() error {
	// Opcode 5: close
	const opcode = 5
	return h.Conn().SendRequest(h, opcode)
}

// Destroy destroys the handle. Only valid after closed or finished.
func (h *ForeignToplevelHandle) Destroy() error {
	// Opcode 7: destroy
	const opcode = 7
	err := h.Conn().SendRequest(h, opcode)
	h.Conn().Unregister(h.ID())
	return err
}

// SetFullscreen requests the toplevel to be fullscreened, on output when
// it is not nil (since version 2)
func (h *ForeignToplevelHandle) SetFullscreen(output *wlclient.Output) error {
	// Opcode 8: set_fullscreen
	const opcode = 8
	if output == nil {
		return h.Conn().SendRequest(h, opcode, nil)
	}
	return h.Conn().SendRequest(h, opcode, output)
}

// UnsetFullscreen requests the toplevel to leave fullscreen (since version 2)
func (h *ForeignToplevelHandle) UnsetFullscreen() error {
	// Opcode 9: unset_fullscreen
	const opcode = 9
	return h.Conn().SendRequest(h, opcode)
}

// Dispatch decodes handle events and forwards them to the handlers.
func (h *ForeignToplevelHandle) Dispatch(ev *wlclient.Event) error {
	switch ev.Opcode {
	case 0: // title
		title := ev.String()
		if err := ev.Err(); err != nil {
			return err
		}
		if h.OnTitle != nil {
			h.OnTitle(title)
		}
	case 1: // app_id
		appID := ev.String()
		if err := ev.Err(); err != nil {
			return err
		}
		if h.OnAppID != nil {
			h.OnAppID(appID)
		}
	case 2, 3: // output_enter, output_leave
		output, err := h.output(ev)
		if err != nil {
			return err
		}
		if output == nil {
			return nil
		}
		if ev.Opcode == 2 && h.OnOutputEnter != nil {
			h.OnOutputEnter(output)
		}
		if ev.Opcode == 3 && h.OnOutputLeave != nil {
			h.OnOutputLeave(output)
		}
	case 4: // state
		states := ev.Uint32Array()
		if err := ev.Err(); err != nil {
			return err
		}
		if h.OnState != nil {
			h.OnState(states)
		}
	case 5: // done
		if h.OnDone != nil {
			h.OnDone()
		}
	case 6: // closed
		if h.OnClosed != nil {
			h.OnClosed()
		}
	case 7: // parent
		id := ev.Uint32()
		if err := ev.Err(); err != nil {
			return err
		}
		if h.OnParent == nil {
			return nil
		}
		var parent *ForeignToplevelHandle
		if p, ok := h.Conn().Lookup(id); ok {
			parent, _ = p.(*ForeignToplevelHandle)
		}
		h.OnParent(parent)
	}
	return nil
}

// output resolves the output argument. Outputs we never bound yield nil.
func (h *ForeignToplevelHandle) output(ev *wlclient.Event) (*wlclient.Output, error) {
	id := ev.Uint32()
	if err := ev.Err(); err != nil {
		return nil, err
	}
	p, ok := h.Conn().Lookup(id)
	if !ok {
		return nil, nil
	}
	output, _ := p.(*wlclient.Output)
	return output, nil
}
