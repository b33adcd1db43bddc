// Package server runs the event loop tying the compositor connection to the
// D-Bus service.
package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/wltoplevel/internal/bus"
	"github.com/bnema/wltoplevel/internal/config"
	"github.com/bnema/wltoplevel/internal/logger"
	"github.com/bnema/wltoplevel/internal/retry"
	"github.com/bnema/wltoplevel/internal/toplevel"
	"github.com/bnema/wltoplevel/internal/wayland"
	"github.com/bnema/wltoplevel/internal/wlclient"
	"github.com/godbus/dbus/v5"
)

// ErrStopped is returned to bus calls arriving after the loop ended.
var ErrStopped = errors.New("event loop stopped")

// ErrBusLost is returned by Run when the session bus connection drops.
var ErrBusLost = errors.New("session bus connection lost")

// call is a closure posted by a bus method to run on the loop.
type call struct {
	fn   func(ctx context.Context) error
	errc chan error
}

// Server owns the window registry. Everything touching it runs on the
// goroutine executing Run; bus methods reach it through posted calls.
type Server struct {
	config *config.Config

	service *bus.Service
	conn    *wlclient.Conn
	manager *wayland.Manager
	tracker *toplevel.Tracker
	busDone <-chan struct{}

	calls chan call
	done  chan struct{}

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a new server instance
func New(cfg *config.Config) *Server {
	return &Server{
		config: cfg,
		calls:  make(chan call),
		done:   make(chan struct{}),
	}
}

// ServiceName is the bus name the server requests.
func (s *Server) ServiceName() string {
	return bus.ServiceName(s.config.DBus.Prefix, s.config.DisplayName())
}

// Run connects to the session bus and the compositor, then serves until
// ctx is cancelled, Stop is called or either connection fails. A Server
// runs once.
func (s *Server) Run(ctx context.Context) error {
	defer close(s.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	dconn, err := bus.Dial(ctx, s.config.DBus.ConnectAttempts, s.config.DBus.RetryDelay)
	if err != nil {
		return err
	}
	s.service = bus.NewService(dconn, s.ServiceName(), dbus.ObjectPath(s.config.DBus.ObjectPath))
	defer func() {
		if err := s.service.Close(); err != nil {
			logger.Warnf("Failed to close bus connection: %v", err)
		}
	}()
	if err := s.service.Start(s); err != nil {
		return err
	}
	s.busDone = s.service.Done()

	display := s.config.DisplayName()
	err = retry.Do(ctx, "connect to Wayland display", s.config.Wayland.ConnectAttempts, s.config.Wayland.RetryDelay, func() error {
		conn, err := wlclient.Connect(display)
		if err != nil {
			return err
		}
		s.conn = conn
		return nil
	})
	if err != nil {
		return err
	}
	defer s.conn.Close()

	s.tracker = toplevel.NewTracker(s.service, s.config.Wayland.BatchUntilDone)
	s.manager = wayland.NewManager(s.conn, s.tracker)
	if err := s.manager.Start(ctx); err != nil {
		return err
	}

	return s.loop(ctx)
}

// Stop makes Run return.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Server) loop(ctx context.Context) error {
	logger.Debug("Event loop started")

	for {
		select {
		case in, ok := <-s.conn.Incoming():
			if !ok {
				return wlclient.ErrClosed
			}
			if in.Err != nil {
				return fmt.Errorf("wayland connection: %w", in.Err)
			}
			if err := s.manager.Dispatch(in.Event); err != nil {
				return fmt.Errorf("wayland dispatch: %w", err)
			}

		case c := <-s.calls:
			err := c.fn(ctx)
			c.errc <- err
			if isFatal(err) {
				return err
			}

		case <-s.busDone:
			return ErrBusLost

		case <-ctx.Done():
			if err := s.manager.Stop(); err != nil {
				logger.Warnf("Failed to stop toplevel manager: %v", err)
			}
			logger.Debug("Event loop stopped")
			return nil
		}
	}
}

// isFatal reports errors meaning the compositor connection is unusable.
func isFatal(err error) bool {
	var perr *wlclient.ProtocolError
	return errors.Is(err, wlclient.ErrClosed) || errors.As(err, &perr)
}

// do runs fn on the loop and waits for it.
func (s *Server) do(fn func(ctx context.Context) error) error {
	c := call{fn: fn, errc: make(chan error, 1)}
	select {
	case s.calls <- c:
	case <-s.done:
		return ErrStopped
	}

	select {
	case err := <-c.errc:
		return err
	case <-s.done:
		select {
		case err := <-c.errc:
			return err
		default:
			return ErrStopped
		}
	}
}

// Title implements bus.Backend.
func (s *Server) Title(id uint32) (string, error) {
	var title string
	err := s.do(func(context.Context) error {
		if w, ok := s.tracker.Window(id); ok {
			title = w.Title
		}
		return nil
	})
	return title, err
}

// AppID implements bus.Backend.
func (s *Server) AppID(id uint32) (string, error) {
	var appID string
	err := s.do(func(context.Context) error {
		if w, ok := s.tracker.Window(id); ok {
			appID = w.AppID
		}
		return nil
	})
	return appID, err
}

// State implements bus.Backend. Unknown windows have an empty state.
func (s *Server) State(id uint32) (string, error) {
	var state string
	err := s.do(func(context.Context) error {
		if w, ok := s.tracker.Window(id); ok {
			state = w.State.String()
		}
		return nil
	})
	return state, err
}

// List implements bus.Backend.
func (s *Server) List() ([]uint32, error) {
	var ids []uint32
	err := s.do(func(context.Context) error {
		ids = s.tracker.Registry().IDs()
		return nil
	})
	return ids, err
}

// Perform implements bus.Backend.
func (s *Server) Perform(id uint32, action toplevel.Action) error {
	return s.do(func(ctx context.Context) error {
		found, err := s.manager.Perform(ctx, id, action)
		if !found {
			logger.Debugf("Ignoring %s for unknown window %d", action, id)
		}
		return err
	})
}
