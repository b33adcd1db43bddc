package bus

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/bnema/wltoplevel/internal/retry"
	"github.com/bnema/wltoplevel/internal/toplevel"
	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

// Signal members
const (
	SignalWindowOpened       = "WindowOpened"
	SignalWindowClosed       = "WindowClosed"
	SignalWindowActivated    = "WindowActivated"
	SignalWindowMaximized    = "WindowMaximized"
	SignalWindowMinimized    = "WindowMinimized"
	SignalWindowFullscreened = "WindowFullscreened"
	SignalWindowTitleChanged = "WindowTitleChanged"
	SignalWindowAppIDChanged = "WindowAppIdChanged"
)

// Backend answers the exported methods. Implementations run each call on
// the goroutine owning the window registry; an error means the call could
// not be served at all, unknown ids are not errors.
type Backend interface {
	Title(id uint32) (string, error)
	AppID(id uint32) (string, error)
	State(id uint32) (string, error)
	List() ([]uint32, error)
	Perform(id uint32, action toplevel.Action) error
}

// Emitter sends signals. *dbus.Conn implements it.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Dial connects to the session bus, retrying on failure.
func Dial(ctx context.Context, attempts int, delay time.Duration) (*dbus.Conn, error) {
	var conn *dbus.Conn
	err := retry.Do(ctx, "connect to session bus", attempts, delay, func() error {
		c, err := dbus.ConnectSessionBus()
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Service is the exported window list. It doubles as the tracker's
// notifier, turning changes into signals.
type Service struct {
	conn    *dbus.Conn
	emitter Emitter
	name    string
	path    dbus.ObjectPath
}

// NewService prepares a service named name at path. Nothing is exported
// until Start.
func NewService(conn *dbus.Conn, name string, path dbus.ObjectPath) *Service {
	return &Service{
		conn:    conn,
		emitter: conn,
		name:    name,
		path:    path,
	}
}

// Name returns the well-known bus name, which is also the interface name.
func (s *Service) Name() string {
	return s.name
}

// Start acquires the bus name and exports the methods, the
// ProtocolVersion property and introspection data.
func (s *Service) Start(backend Backend) error {
	reply, err := s.conn.RequestName(s.name, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name %s: %w", s.name, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s already taken", s.name)
	}

	methods := &windowsList{backend: backend}
	if err := s.conn.Export(methods, s.path, s.name); err != nil {
		return fmt.Errorf("failed to export %s: %w", s.name, err)
	}

	props, err := prop.Export(s.conn, s.path, prop.Map{
		s.name: {
			"ProtocolVersion": {
				Value:    ProtocolVersion,
				Writable: false,
				Emit:     prop.EmitFalse,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to export properties: %w", err)
	}

	node := &introspect.Node{
		Name: string(s.path),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name:       s.name,
				Methods:    introspect.Methods(methods),
				Signals:    signalIntrospection(),
				Properties: props.Introspection(s.name),
			},
		},
	}
	if err := s.conn.Export(introspect.NewIntrospectable(node), s.path, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	logger.Infof("Serving %s on %s", s.name, s.path)
	return nil
}

// Done is closed when the bus connection is lost.
func (s *Service) Done() <-chan struct{} {
	return s.conn.Context().Done()
}

// Close releases the name and closes the connection.
func (s *Service) Close() error {
	if _, err := s.conn.ReleaseName(s.name); err != nil {
		logger.Warnf("Failed to release %s: %v", s.name, err)
	}
	return s.conn.Close()
}

// Notify emits the signal matching c.
func (s *Service) Notify(c toplevel.Change) {
	member, args, ok := signalFor(c)
	if !ok {
		logger.Debugf("No signal for %s change of window %d", c.Kind, c.ID)
		return
	}
	if err := s.emitter.Emit(s.path, s.name+"."+member, args...); err != nil {
		logger.Warnf("Failed to emit %s for window %d: %v", member, c.ID, err)
	}
}

func signalFor(c toplevel.Change) (string, []interface{}, bool) {
	switch c.Kind {
	case toplevel.ChangeOpened:
		return SignalWindowOpened, []interface{}{c.ID}, true
	case toplevel.ChangeClosed:
		return SignalWindowClosed, []interface{}{c.ID}, true
	case toplevel.ChangeActivated:
		return SignalWindowActivated, []interface{}{c.ID}, true
	case toplevel.ChangeMaximized:
		return SignalWindowMaximized, []interface{}{c.ID}, true
	case toplevel.ChangeMinimized:
		return SignalWindowMinimized, []interface{}{c.ID}, true
	case toplevel.ChangeFullscreened:
		return SignalWindowFullscreened, []interface{}{c.ID}, true
	case toplevel.ChangeTitle:
		return SignalWindowTitleChanged, []interface{}{c.ID, c.Value}, true
	case toplevel.ChangeAppID:
		return SignalWindowAppIDChanged, []interface{}{c.ID, c.Value}, true
	}
	return "", nil, false
}

func signalIntrospection() []introspect.Signal {
	id := introspect.Arg{Name: "id", Type: "u"}
	withText := func(name, arg string) introspect.Signal {
		return introspect.Signal{Name: name, Args: []introspect.Arg{id, {Name: arg, Type: "s"}}}
	}
	idOnly := func(name string) introspect.Signal {
		return introspect.Signal{Name: name, Args: []introspect.Arg{id}}
	}
	return []introspect.Signal{
		idOnly(SignalWindowOpened),
		idOnly(SignalWindowClosed),
		idOnly(SignalWindowActivated),
		idOnly(SignalWindowMaximized),
		idOnly(SignalWindowMinimized),
		idOnly(SignalWindowFullscreened),
		withText(SignalWindowTitleChanged, "title"),
		withText(SignalWindowAppIDChanged, "appId"),
	}
}

// windowsList holds the exported methods.
type windowsList struct {
	backend Backend
}

func (w *windowsList) WindowTitle(id uint32) (string, *dbus.Error) {
	title, err := w.backend.Title(id)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return title, nil
}

func (w *windowsList) WindowAppId(id uint32) (string, *dbus.Error) {
	appID, err := w.backend.AppID(id)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return appID, nil
}

func (w *windowsList) WindowState(id uint32) (string, *dbus.Error) {
	state, err := w.backend.State(id)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return state, nil
}

func (w *windowsList) WindowList() ([]uint32, *dbus.Error) {
	ids, err := w.backend.List()
	if err != nil {
		return nil, dbus.MakeFailedError(err)
	}
	if ids == nil {
		ids = []uint32{}
	}
	return ids, nil
}

func (w *windowsList) WindowChangeFullscreen(id uint32) (uint32, *dbus.Error) {
	return w.perform(id, toplevel.ActionToggleFullscreen)
}

func (w *windowsList) WindowChangeMaximized(id uint32) (uint32, *dbus.Error) {
	return w.perform(id, toplevel.ActionToggleMaximized)
}

func (w *windowsList) WindowChangeMinimized(id uint32) (uint32, *dbus.Error) {
	return w.perform(id, toplevel.ActionToggleMinimized)
}

func (w *windowsList) WindowSetActive(id uint32) (uint32, *dbus.Error) {
	return w.perform(id, toplevel.ActionActivate)
}

func (w *windowsList) WindowClose(id uint32) (uint32, *dbus.Error) {
	return w.perform(id, toplevel.ActionClose)
}

func (w *windowsList) perform(id uint32, action toplevel.Action) (uint32, *dbus.Error) {
	if err := w.backend.Perform(id, action); err != nil {
		logger.Warnf("Window %d %s failed: %v", id, action, err)
		return 0, dbus.MakeFailedError(err)
	}
	return 0, nil
}
