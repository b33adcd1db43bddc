// Package client talks to a running window list service over D-Bus. It is
// what a taskbar would do, and backs the diagnostic commands.
package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/wltoplevel/internal/bus"
	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/bnema/wltoplevel/internal/toplevel"
	"github.com/godbus/dbus/v5"
)

// Window is a snapshot of one window as reported by the service.
type Window struct {
	ID    uint32
	Title string
	AppID string
	State string
}

// Signal is a decoded service signal. Value is set for title and app-id
// changes.
type Signal struct {
	Kind  toplevel.ChangeKind
	ID    uint32
	Value string
}

// Client is a connection to the service.
type Client struct {
	conn *dbus.Conn
	name string
	path dbus.ObjectPath
	obj  dbus.BusObject
}

// Connect dials the session bus the same way the service does and targets
// the service for the configured display.
func Connect(ctx context.Context, cfg *config.Config) (*Client, error) {
	conn, err := bus.Dial(ctx, cfg.DBus.ConnectAttempts, cfg.DBus.RetryDelay)
	if err != nil {
		return nil, err
	}
	name := bus.ServiceName(cfg.DBus.Prefix, cfg.DisplayName())
	return New(conn, name, dbus.ObjectPath(cfg.DBus.ObjectPath)), nil
}

// New wraps an existing bus connection.
func New(conn *dbus.Conn, name string, path dbus.ObjectPath) *Client {
	return &Client{
		conn: conn,
		name: name,
		path: path,
		obj:  conn.Object(name, path),
	}
}

// Name returns the service name targeted.
func (c *Client) Name() string {
	return c.name
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, out interface{}, args ...interface{}) error {
	call := c.obj.CallWithContext(ctx, c.name+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("%s: %w", method, call.Err)
	}
	if out == nil {
		return nil
	}
	if err := call.Store(out); err != nil {
		return fmt.Errorf("%s reply: %w", method, err)
	}
	return nil
}

// Windows returns the ids of all windows in ascending order.
func (c *Client) Windows(ctx context.Context) ([]uint32, error) {
	var ids []uint32
	err := c.call(ctx, "WindowList", &ids)
	return ids, err
}

// Title returns the window title, or "" for unknown windows.
func (c *Client) Title(ctx context.Context, id uint32) (string, error) {
	var title string
	err := c.call(ctx, "WindowTitle", &title, id)
	return title, err
}

// AppID returns the window app-id, or "" for unknown windows.
func (c *Client) AppID(ctx context.Context, id uint32) (string, error) {
	var appID string
	err := c.call(ctx, "WindowAppId", &appID, id)
	return appID, err
}

// State returns the window state string, or "" for unknown windows.
func (c *Client) State(ctx context.Context, id uint32) (string, error) {
	var state string
	err := c.call(ctx, "WindowState", &state, id)
	return state, err
}

// List fetches every window with its properties. Windows closing while the
// list is built are skipped.
func (c *Client) List(ctx context.Context) ([]Window, error) {
	ids, err := c.Windows(ctx)
	if err != nil {
		return nil, err
	}

	windows := make([]Window, 0, len(ids))
	for _, id := range ids {
		w := Window{ID: id}
		if w.Title, err = c.Title(ctx, id); err != nil {
			return nil, err
		}
		if w.AppID, err = c.AppID(ctx, id); err != nil {
			return nil, err
		}
		if w.State, err = c.State(ctx, id); err != nil {
			return nil, err
		}
		if w.State == "" {
			logger.Debugf("Window %d closed while listing", id)
			continue
		}
		windows = append(windows, w)
	}
	return windows, nil
}

func (c *Client) action(ctx context.Context, method string, id uint32) error {
	var reply uint32
	return c.call(ctx, method, &reply, id)
}

// ToggleFullscreen asks the service to toggle fullscreen on a window.
func (c *Client) ToggleFullscreen(ctx context.Context, id uint32) error {
	return c.action(ctx, "WindowChangeFullscreen", id)
}

// ToggleMaximized asks the service to toggle maximized on a window.
func (c *Client) ToggleMaximized(ctx context.Context, id uint32) error {
	return c.action(ctx, "WindowChangeMaximized", id)
}

// ToggleMinimized asks the service to toggle minimized on a window.
func (c *Client) ToggleMinimized(ctx context.Context, id uint32) error {
	return c.action(ctx, "WindowChangeMinimized", id)
}

// Activate asks the service to focus a window.
func (c *Client) Activate(ctx context.Context, id uint32) error {
	return c.action(ctx, "WindowSetActive", id)
}

// CloseWindow asks the service to close a window.
func (c *Client) CloseWindow(ctx context.Context, id uint32) error {
	return c.action(ctx, "WindowClose", id)
}

// ProtocolVersion reads the service's ProtocolVersion property.
func (c *Client) ProtocolVersion() (uint32, error) {
	v, err := c.obj.GetProperty(c.name + ".ProtocolVersion")
	if err != nil {
		return 0, fmt.Errorf("ProtocolVersion: %w", err)
	}
	version, ok := v.Value().(uint32)
	if !ok {
		return 0, fmt.Errorf("ProtocolVersion has type %s, want u", v.Signature())
	}
	return version, nil
}

// Subscribe delivers the service's signals until ctx is done; the channel
// is closed afterwards.
func (c *Client) Subscribe(ctx context.Context) (<-chan Signal, error) {
	opts := []dbus.MatchOption{
		dbus.WithMatchInterface(c.name),
		dbus.WithMatchObjectPath(c.path),
	}
	if err := c.conn.AddMatchSignalContext(ctx, opts...); err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", c.name, err)
	}

	raw := make(chan *dbus.Signal, 64)
	c.conn.Signal(raw)

	out := make(chan Signal, 64)
	go func() {
		defer close(out)
		defer func() {
			c.conn.RemoveSignal(raw)
			if err := c.conn.RemoveMatchSignal(opts...); err != nil {
				logger.Debugf("Failed to remove signal match: %v", err)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case sig, ok := <-raw:
				if !ok {
					return
				}
				decoded, ok := decodeSignal(c.name, sig)
				if !ok {
					continue
				}
				select {
				case out <- decoded:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

var signalKinds = map[string]toplevel.ChangeKind{
	bus.SignalWindowOpened:       toplevel.ChangeOpened,
	bus.SignalWindowClosed:       toplevel.ChangeClosed,
	bus.SignalWindowActivated:    toplevel.ChangeActivated,
	bus.SignalWindowMaximized:    toplevel.ChangeMaximized,
	bus.SignalWindowMinimized:    toplevel.ChangeMinimized,
	bus.SignalWindowFullscreened: toplevel.ChangeFullscreened,
	bus.SignalWindowTitleChanged: toplevel.ChangeTitle,
	bus.SignalWindowAppIDChanged: toplevel.ChangeAppID,
}

func decodeSignal(iface string, sig *dbus.Signal) (Signal, bool) {
	if sig == nil {
		return Signal{}, false
	}
	member, ok := strings.CutPrefix(sig.Name, iface+".")
	if !ok {
		return Signal{}, false
	}
	kind, ok := signalKinds[member]
	if !ok || len(sig.Body) == 0 {
		return Signal{}, false
	}
	id, ok := sig.Body[0].(uint32)
	if !ok {
		return Signal{}, false
	}

	s := Signal{Kind: kind, ID: id}
	if len(sig.Body) > 1 {
		s.Value, _ = sig.Body[1].(string)
	}
	return s, true
}
