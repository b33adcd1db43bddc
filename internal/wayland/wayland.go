// Package wayland binds the compositor globals the service needs and turns
// foreign-toplevel events into window tracker updates.
package wayland

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/bnema/wltoplevel/internal/protocols"
	"github.com/bnema/wltoplevel/internal/toplevel"
	"github.com/bnema/wltoplevel/internal/wlclient"
)

// ErrUnsupported is returned when the compositor lacks
// zwlr_foreign_toplevel_manager_v1.
var ErrUnsupported = errors.New("compositor does not support " + protocols.ForeignToplevelManagerInterface)

// Bind versions
const (
	seatVersion   = 7
	outputVersion = 4
)

// Manager owns the Wayland objects of the service. Like wlclient.Conn it
// must only be used from the goroutine consuming the connection's events.
type Manager struct {
	conn    *wlclient.Conn
	tracker *toplevel.Tracker

	registry  *wlclient.Registry
	seat      *wlclient.Seat
	outputs   map[uint32]*wlclient.Output // by registry name
	toplevels *protocols.ForeignToplevelManager
	handles   map[uint32]*protocols.ForeignToplevelHandle // by window id
}

// NewManager prepares a manager feeding tracker. Call Start before use.
func NewManager(conn *wlclient.Conn, tracker *toplevel.Tracker) *Manager {
	return &Manager{
		conn:    conn,
		tracker: tracker,
		outputs: make(map[uint32]*wlclient.Output),
		handles: make(map[uint32]*protocols.ForeignToplevelHandle),
	}
}

// Start binds the seat, outputs and toplevel manager, then waits for the
// initial set of toplevels.
func (m *Manager) Start(ctx context.Context) error {
	registry, err := m.conn.Display().GetRegistry()
	if err != nil {
		return fmt.Errorf("failed to get registry: %w", err)
	}
	m.registry = registry
	registry.OnGlobal = m.handleGlobal
	registry.OnGlobalRemove = m.handleGlobalRemove

	// First roundtrip collects and binds the globals.
	if err := m.conn.Roundtrip(ctx); err != nil {
		return fmt.Errorf("initial roundtrip: %w", err)
	}
	if m.toplevels == nil {
		return ErrUnsupported
	}
	if m.seat == nil {
		logger.Warn("No wl_seat advertised, activate requests will be skipped")
	}

	// Second one delivers the existing toplevels and output names.
	if err := m.conn.Roundtrip(ctx); err != nil {
		return fmt.Errorf("toplevel roundtrip: %w", err)
	}
	logger.Infof("Tracking %d toplevel windows on %d outputs", m.tracker.Registry().Len(), len(m.outputs))
	return nil
}

// Dispatch routes one incoming event.
func (m *Manager) Dispatch(ev *wlclient.Event) error {
	return m.conn.Dispatch(ev)
}

// Perform runs an action on a window. When the window exists the
// compositor is given a roundtrip so the request is handled before the
// caller gets an answer.
func (m *Manager) Perform(ctx context.Context, id uint32, action toplevel.Action) (bool, error) {
	found, err := m.tracker.Perform(id, action)
	if !found {
		return false, nil
	}
	if err != nil {
		return true, err
	}
	if err := m.conn.Roundtrip(ctx); err != nil {
		return true, fmt.Errorf("roundtrip after %s: %w", action, err)
	}
	return true, nil
}

// Stop tells the compositor we no longer want toplevel events.
func (m *Manager) Stop() error {
	if m.toplevels == nil {
		return nil
	}
	err := m.toplevels.Stop()
	m.toplevels = nil
	return err
}

func (m *Manager) handleGlobal(g wlclient.Global) {
	switch g.Interface {
	case wlclient.SeatInterface:
		if m.seat != nil {
			return
		}
		seat := &wlclient.Seat{Global: g.Name}
		if err := m.registry.Bind(g.Name, g.Interface, min(g.Version, seatVersion), seat); err != nil {
			logger.Errorf("Failed to bind seat: %v", err)
			return
		}
		m.seat = seat
		logger.Debugf("Bound wl_seat (name %d)", g.Name)

	case wlclient.OutputInterface:
		output := &wlclient.Output{Global: g.Name}
		if err := m.registry.Bind(g.Name, g.Interface, min(g.Version, outputVersion), output); err != nil {
			logger.Errorf("Failed to bind output: %v", err)
			return
		}
		m.outputs[g.Name] = output
		logger.Debugf("Bound wl_output (name %d)", g.Name)

	case protocols.ForeignToplevelManagerInterface:
		if m.toplevels != nil {
			return
		}
		mgr := &protocols.ForeignToplevelManager{
			OnToplevel: m.handleToplevel,
			OnFinished: m.handleFinished,
		}
		version := min(g.Version, protocols.ForeignToplevelManagerVersion)
		if err := m.registry.Bind(g.Name, g.Interface, version, mgr); err != nil {
			logger.Errorf("Failed to bind toplevel manager: %v", err)
			return
		}
		m.toplevels = mgr
		logger.Debugf("Bound %s v%d", g.Interface, version)
	}
}

func (m *Manager) handleGlobalRemove(g wlclient.Global) {
	switch {
	case m.seat != nil && m.seat.Global == g.Name:
		logger.Warn("Seat removed, activate requests will be skipped")
		if g.Version >= 5 {
			if err := m.seat.Release(); err != nil {
				logger.Warnf("Failed to release seat: %v", err)
			}
		} else {
			m.conn.Unregister(m.seat.ID())
		}
		m.seat = nil

	case m.outputs[g.Name] != nil:
		output := m.outputs[g.Name]
		delete(m.outputs, g.Name)
		m.tracker.OutputRemoved(output)
		if g.Version >= 3 {
			if err := output.Release(); err != nil {
				logger.Warnf("Failed to release output %s: %v", output.Name, err)
			}
		} else {
			m.conn.Unregister(output.ID())
		}
		logger.Debugf("Output %d (%s) removed", g.Name, output.Name)
	}
}

func (m *Manager) handleToplevel(h *protocols.ForeignToplevelHandle) {
	w, err := m.tracker.Open(&handle{proxy: h, manager: m}, nil)
	if err != nil {
		logger.Errorf("Dropping new toplevel: %v", err)
		if derr := h.Destroy(); derr != nil {
			logger.Warnf("Failed to destroy toplevel handle: %v", derr)
		}
		return
	}
	id := w.ID
	m.handles[id] = h
	logger.Debugf("Window %d opened", id)

	h.OnTitle = func(title string) {
		m.apply(id, toplevel.PropertyChanged{Prop: toplevel.PropTitle, Text: title})
	}
	h.OnAppID = func(appID string) {
		m.apply(id, toplevel.PropertyChanged{Prop: toplevel.PropAppID, Text: appID})
	}
	h.OnOutputEnter = func(o *wlclient.Output) {
		m.apply(id, toplevel.PropertyChanged{Prop: toplevel.PropOutputEnter, Output: o})
	}
	h.OnOutputLeave = func(o *wlclient.Output) {
		m.apply(id, toplevel.PropertyChanged{Prop: toplevel.PropOutputLeave, Output: o})
	}
	h.OnState = func(states []uint32) {
		flags := make([]toplevel.Flag, len(states))
		for i, s := range states {
			flags[i] = toplevel.Flag(s)
		}
		m.apply(id, toplevel.StateChanged{Flags: flags})
	}
	h.OnDone = func() {
		m.apply(id, toplevel.Done{})
	}
	h.OnClosed = func() {
		m.apply(id, toplevel.Closed{})
		delete(m.handles, id)
		if err := h.Destroy(); err != nil {
			logger.Warnf("Failed to destroy handle of window %d: %v", id, err)
		}
	}
	h.OnParent = func(parent *protocols.ForeignToplevelHandle) {
		if parent == nil {
			logger.Debugf("Window %d has no parent", id)
			return
		}
		logger.Debugf("Window %d has parent handle %d", id, parent.ID())
	}
}

func (m *Manager) apply(id uint32, ev toplevel.Event) {
	if err := m.tracker.Apply(id, ev); err != nil {
		logger.Warnf("Dropped %T for window %d: %v", ev, id, err)
	}
}

func (m *Manager) handleFinished() {
	logger.Warn("Compositor finished the toplevel manager, clearing window list")
	for id, h := range m.handles {
		if err := h.Destroy(); err != nil {
			logger.Warnf("Failed to destroy handle of window %d: %v", id, err)
		}
	}
	clear(m.handles)
	m.tracker.Clear()
	m.toplevels = nil
}

// handle adapts a protocol handle to toplevel.Handle, supplying the seat
// and output objects the requests need.
type handle struct {
	proxy   *protocols.ForeignToplevelHandle
	manager *Manager
}

func (h *handle) SetMaximized() error   { return h.proxy.SetMaximized() }
func (h *handle) UnsetMaximized() error { return h.proxy.UnsetMaximized() }
func (h *handle) SetMinimized() error   { return h.proxy.SetMinimized() }
func (h *handle) UnsetMinimized() error { return h.proxy.UnsetMinimized() }
func (h *handle) UnsetFullscreen() error {
	return h.proxy.UnsetFullscreen()
}
func (h *handle) Close() error { return h.proxy.Close() }

func (h *handle) SetFullscreen(o toplevel.Output) error {
	output, _ := o.(*wlclient.Output)
	return h.proxy.SetFullscreen(output)
}

func (h *handle) Activate() error {
	if h.manager.seat == nil {
		logger.Warnf("Cannot activate handle %d without a seat", h.proxy.ID())
		return nil
	}
	return h.proxy.Activate(h.manager.seat)
}
