// Package wlclient is a small Wayland client speaking the wire protocol
// directly over the compositor socket. It knows the core objects needed to
// discover globals; protocol extensions build on Proxy and Conn.
package wlclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
)

// DefaultDisplay is the socket used when no display name is configured.
const DefaultDisplay = "wayland-0"

// ErrClosed is returned once the connection to the compositor is gone.
var ErrClosed = errors.New("wayland connection closed")

// displayID is the fixed object id of wl_display.
const displayID = 1

// Proxy is a client-side Wayland object.
type Proxy interface {
	ID() uint32
	Dispatch(ev *Event) error
}

// BaseProxy carries the id and connection shared by every proxy.
type BaseProxy struct {
	id   uint32
	conn *Conn
}

// ID returns the object id.
func (p *BaseProxy) ID() uint32 {
	return p.id
}

// Conn returns the connection the object lives on.
func (p *BaseProxy) Conn() *Conn {
	return p.conn
}

// Attach binds the proxy to a connection under the given id.
func (p *BaseProxy) Attach(c *Conn, id uint32) {
	p.conn = c
	p.id = id
}

// Incoming is one item read from the socket: an event, or the error that
// ended the reader.
type Incoming struct {
	Event *Event
	Err   error
}

// Conn is a connection to a Wayland compositor.
//
// A reader goroutine decodes messages and queues them on Incoming. The
// object table and Dispatch are owned by a single goroutine, the one
// consuming Incoming; only SendRequest may be called from elsewhere.
type Conn struct {
	nc     net.Conn
	sendMu sync.Mutex

	objects map[uint32]Proxy
	nextID  uint32
	display *Display

	incoming  chan Incoming
	done      chan struct{}
	closeOnce sync.Once
}

// SocketPath resolves a display name the way libwayland does: empty means
// WAYLAND_DISPLAY, falling back to wayland-0, and relative names live in
// XDG_RUNTIME_DIR.
func SocketPath(name string) (string, error) {
	if name == "" {
		name = os.Getenv("WAYLAND_DISPLAY")
	}
	if name == "" {
		name = DefaultDisplay
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	runDir := os.Getenv("XDG_RUNTIME_DIR")
	if runDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR not set")
	}
	return filepath.Join(runDir, name), nil
}

// Connect dials the compositor socket for the given display name.
func Connect(name string) (*Conn, error) {
	path, err := SocketPath(name)
	if err != nil {
		return nil, err
	}
	nc, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Wayland display %s: %w", path, err)
	}
	return NewConn(nc), nil
}

// NewConn wraps an established socket and starts reading from it.
func NewConn(nc net.Conn) *Conn {
	c := &Conn{
		nc:       nc,
		objects:  make(map[uint32]Proxy),
		nextID:   displayID + 1,
		incoming: make(chan Incoming, 64),
		done:     make(chan struct{}),
	}
	c.display = &Display{}
	c.display.Attach(c, displayID)
	c.objects[displayID] = c.display

	go c.readLoop()
	return c
}

// Display returns the wl_display singleton.
func (c *Conn) Display() *Display {
	return c.display
}

// Incoming delivers decoded events. The channel is closed after the item
// carrying the reader's terminal error.
func (c *Conn) Incoming() <-chan Incoming {
	return c.incoming
}

func (c *Conn) readLoop() {
	defer close(c.incoming)
	for {
		ev, err := readEvent(c.nc)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				err = fmt.Errorf("%w: %v", ErrClosed, err)
			}
			select {
			case c.incoming <- Incoming{Err: err}:
			case <-c.done:
			}
			return
		}
		select {
		case c.incoming <- Incoming{Event: ev}:
		case <-c.done:
			return
		}
	}
}

// NewID allocates a client-side object id.
func (c *Conn) NewID() uint32 {
	id := c.nextID
	c.nextID++
	return id
}

// Register makes p receive the events addressed to its id.
func (c *Conn) Register(p Proxy) {
	c.objects[p.ID()] = p
}

// Unregister forgets the object with the given id.
func (c *Conn) Unregister(id uint32) {
	if id == displayID {
		return
	}
	delete(c.objects, id)
}

// Lookup returns the object registered under id.
func (c *Conn) Lookup(id uint32) (Proxy, bool) {
	p, ok := c.objects[id]
	return p, ok
}

// SendRequest encodes and writes one request from sender.
func (c *Conn) SendRequest(sender Proxy, opcode uint16, args ...any) error {
	data, err := marshalRequest(sender.ID(), opcode, args...)
	if err != nil {
		return err
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	if _, err := c.nc.Write(data); err != nil {
		return fmt.Errorf("send request %d on object %d: %w", opcode, sender.ID(), err)
	}
	return nil
}

// Dispatch hands ev to the object it is addressed to. Events for unknown
// objects are dropped: they target objects destroyed on our side whose
// delete_id has not arrived yet.
func (c *Conn) Dispatch(ev *Event) error {
	p, ok := c.objects[ev.Sender]
	if !ok {
		return nil
	}
	return p.Dispatch(ev)
}

// Roundtrip blocks until the compositor has processed every request sent
// so far, dispatching the events that arrive meanwhile. It must run on the
// goroutine that owns the connection.
func (c *Conn) Roundtrip(ctx context.Context) error {
	cb, err := c.display.Sync()
	if err != nil {
		return fmt.Errorf("roundtrip: %w", err)
	}

	for !cb.Done() {
		select {
		case in, ok := <-c.incoming:
			if !ok {
				return ErrClosed
			}
			if in.Err != nil {
				return in.Err
			}
			if err := c.Dispatch(in.Event); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Close shuts the socket down and stops the reader.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.nc.Close()
	})
	return err
}
