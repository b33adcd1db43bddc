package wlclient

import (
	"fmt"

	"github.com/bnema/wltoplevel/internal/logger"
)

// Core interface names
const (
	SeatInterface   = "wl_seat"
	OutputInterface = "wl_output"
)

// ProtocolError is a fatal wl_display.error sent by the compositor.
type ProtocolError struct {
	ObjectID uint32
	Code     uint32
	Message  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on object %d, code %d: %s", e.ObjectID, e.Code, e.Message)
}

// Display is the wl_display singleton, object id 1.
type Display struct {
	BaseProxy
}

// Sync asks the compositor for a callback fired once every earlier request
// was handled.
func (d *Display) Sync() (*Callback, error) {
	cb := &Callback{}
	cb.Attach(d.conn, d.conn.NewID())
	d.conn.Register(cb)

	// Opcode 0: sync
	const opcode = 0
	if err := d.conn.SendRequest(d, opcode, cb); err != nil {
		d.conn.Unregister(cb.ID())
		return nil, err
	}
	return cb, nil
}

// GetRegistry creates the registry object announcing globals.
func (d *Display) GetRegistry() (*Registry, error) {
	r := &Registry{globals: make(map[uint32]Global)}
	r.Attach(d.conn, d.conn.NewID())
	d.conn.Register(r)

	// Opcode 1: get_registry
	const opcode = 1
	if err := d.conn.SendRequest(d, opcode, r); err != nil {
		d.conn.Unregister(r.ID())
		return nil, err
	}
	return r, nil
}

// Dispatch handles error (0) and delete_id (1).
func (d *Display) Dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0:
		perr := &ProtocolError{
			ObjectID: ev.Uint32(),
			Code:     ev.Uint32(),
			Message:  ev.String(),
		}
		if err := ev.Err(); err != nil {
			return err
		}
		return perr
	case 1:
		id := ev.Uint32()
		if err := ev.Err(); err != nil {
			return err
		}
		d.conn.Unregister(id)
	}
	return nil
}

// Global is an object advertised by the registry.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// Binder is a proxy that can be attached to a freshly allocated id.
// Pointers to types embedding BaseProxy satisfy it.
type Binder interface {
	Proxy
	Attach(c *Conn, id uint32)
}

// Registry tracks advertised globals and binds them.
type Registry struct {
	BaseProxy
	globals map[uint32]Global

	// OnGlobal and OnGlobalRemove are called after the registry's own
	// bookkeeping.
	OnGlobal       func(Global)
	OnGlobalRemove func(Global)
}

// Bind creates p as a client-side instance of a global.
func (r *Registry) Bind(name uint32, iface string, version uint32, p Binder) error {
	p.Attach(r.conn, r.conn.NewID())
	r.conn.Register(p)

	// Opcode 0: bind (new_id without a fixed interface spells it out)
	const opcode = 0
	if err := r.conn.SendRequest(r, opcode, name, iface, version, p); err != nil {
		r.conn.Unregister(p.ID())
		return fmt.Errorf("bind %s v%d: %w", iface, version, err)
	}
	return nil
}

// Globals returns a copy of the announced globals.
func (r *Registry) Globals() map[uint32]Global {
	out := make(map[uint32]Global, len(r.globals))
	for k, v := range r.globals {
		out[k] = v
	}
	return out
}

// Dispatch handles global (0) and global_remove (1).
func (r *Registry) Dispatch(ev *Event) error {
	switch ev.Opcode {
	case 0:
		g := Global{Name: ev.Uint32(), Interface: ev.String(), Version: ev.Uint32()}
		if err := ev.Err(); err != nil {
			return err
		}
		r.globals[g.Name] = g
		if r.OnGlobal != nil {
			r.OnGlobal(g)
		}
	case 1:
		name := ev.Uint32()
		if err := ev.Err(); err != nil {
			return err
		}
		g, ok := r.globals[name]
		if !ok {
			return nil
		}
		delete(r.globals, name)
		if r.OnGlobalRemove != nil {
			r.OnGlobalRemove(g)
		}
	}
	return nil
}

// Callback is a wl_callback created by Display.Sync.
type Callback struct {
	BaseProxy
	done bool
	data uint32
}

// Done reports whether the callback fired.
func (c *Callback) Done() bool {
	return c.done
}

// Dispatch handles done (0). The compositor destroys the object itself.
func (c *Callback) Dispatch(ev *Event) error {
	if ev.Opcode != 0 {
		return nil
	}
	c.data = ev.Uint32()
	c.done = true
	return ev.Err()
}

// Seat is a wl_seat. Only its identity is needed, so events are ignored.
type Seat struct {
	BaseProxy
	Global uint32
}

// Release destroys the seat object (since version 5).
func (s *Seat) Release() error {
	// Opcode 3: release
	const opcode = 3
	err := s.conn.SendRequest(s, opcode)
	s.conn.Unregister(s.id)
	return err
}

// Dispatch ignores seat events.
func (s *Seat) Dispatch(_ *Event) error {
	return nil
}

// Output is a wl_output. Global is the registry name it was bound from.
type Output struct {
	BaseProxy
	Global uint32
	Name   string
}

// Release destroys the output object (since version 3).
func (o *Output) Release() error {
	// Opcode 0: release
	const opcode = 0
	err := o.conn.SendRequest(o, opcode)
	o.conn.Unregister(o.id)
	return err
}

// Dispatch records the output name (opcode 4, since version 4).
func (o *Output) Dispatch(ev *Event) error {
	if ev.Opcode == 4 {
		o.Name = ev.String()
		if err := ev.Err(); err != nil {
			return err
		}
		logger.Debugf("Output %d is %s", o.id, o.Name)
	}
	return nil
}
