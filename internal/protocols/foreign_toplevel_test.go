package protocols

import (
	"encoding/binary"
	"io"
	"net"
	"testing"

	"github.com/bnema/wltoplevel/internal/wlclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConn(t *testing.T) (*wlclient.Conn, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	c := wlclient.NewConn(client)
	t.Cleanup(func() {
		_ = c.Close()
		_ = server.Close()
	})
	return c, server
}

func u32(values ...uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func str(s string) []byte {
	n := len(s) + 1
	out := u32(uint32(n))
	out = append(out, s...)
	return append(out, make([]byte, (n+3)&^3-len(s))...)
}

// readRequest reads one request header and body from the compositor side.
func readRequest(t *testing.T, r io.Reader) (sender uint32, opcode uint16, body []byte) {
	t.Helper()
	header := make([]byte, 8)
	_, err := io.ReadFull(r, header)
	require.NoError(t, err)
	sizeOpcode := binary.LittleEndian.Uint32(header[4:8])
	body = make([]byte, int(sizeOpcode>>16)-8)
	_, err = io.ReadFull(r, body)
	require.NoError(t, err)
	return binary.LittleEndian.Uint32(header[0:4]), uint16(sizeOpcode & 0xffff), body
}

func newManager(c *wlclient.Conn) *ForeignToplevelManager {
	m := &ForeignToplevelManager{}
	m.Attach(c, c.NewID())
	c.Register(m)
	return m
}

func TestManagerCreatesHandles(t *testing.T) {
	c, _ := newConn(t)
	m := newManager(c)

	var got *ForeignToplevelHandle
	m.OnToplevel = func(h *ForeignToplevelHandle) { got = h }

	require.NoError(t, c.Dispatch(wlclient.NewEvent(m.ID(), 0, u32(0xff000001))))

	require.NotNil(t, got)
	assert.Equal(t, uint32(0xff000001), got.ID())
	registered, ok := c.Lookup(0xff000001)
	require.True(t, ok)
	assert.Same(t, got, registered)
}

func TestManagerFinished(t *testing.T) {
	c, _ := newConn(t)
	m := newManager(c)

	finished := false
	m.OnFinished = func() { finished = true }

	require.NoError(t, c.Dispatch(wlclient.NewEvent(m.ID(), 1, nil)))

	assert.True(t, finished)
	_, ok := c.Lookup(m.ID())
	assert.False(t, ok)
}

func TestHandleEvents(t *testing.T) {
	c, _ := newConn(t)
	m := newManager(c)
	out := &wlclient.Output{}
	out.Attach(c, c.NewID())
	c.Register(out)

	var handle *ForeignToplevelHandle
	m.OnToplevel = func(h *ForeignToplevelHandle) { handle = h }
	require.NoError(t, c.Dispatch(wlclient.NewEvent(m.ID(), 0, u32(0xff000002))))
	require.NotNil(t, handle)

	var (
		title, appID string
		states       []uint32
		entered      *wlclient.Output
		done, closed bool
	)
	handle.OnTitle = func(s string) { title = s }
	handle.OnAppID = func(s string) { appID = s }
	handle.OnState = func(s []uint32) { states = s }
	handle.OnOutputEnter = func(o *wlclient.Output) { entered = o }
	handle.OnDone = func() { done = true }
	handle.OnClosed = func() { closed = true }

	id := handle.ID()
	stateArray := append(u32(8), u32(0, 2)...)
	events := []*wlclient.Event{
		wlclient.NewEvent(id, 0, str("Editor")),
		wlclient.NewEvent(id, 1, str("org.example.editor")),
		wlclient.NewEvent(id, 2, u32(out.ID())),
		wlclient.NewEvent(id, 4, stateArray),
		wlclient.NewEvent(id, 5, nil),
		wlclient.NewEvent(id, 6, nil),
	}
	for _, ev := range events {
		require.NoError(t, c.Dispatch(ev))
	}

	assert.Equal(t, "Editor", title)
	assert.Equal(t, "org.example.editor", appID)
	assert.Same(t, out, entered)
	assert.Equal(t, []uint32{0, 2}, states)
	assert.True(t, done)
	assert.True(t, closed)
}

func TestHandleIgnoresUnknownOutput(t *testing.T) {
	c, _ := newConn(t)
	h := &ForeignToplevelHandle{}
	h.Attach(c, 0xff000003)

	called := false
	h.OnOutputEnter = func(*wlclient.Output) { called = true }

	require.NoError(t, h.Dispatch(wlclient.NewEvent(h.ID(), 2, u32(99))))
	assert.False(t, called)
}

func TestHandleRejectsTruncatedState(t *testing.T) {
	c, _ := newConn(t)
	h := &ForeignToplevelHandle{}
	h.Attach(c, 0xff000004)

	assert.Error(t, h.Dispatch(wlclient.NewEvent(h.ID(), 4, u32(8, 0))))
}

func TestHandleRequests(t *testing.T) {
	c, server := newConn(t)
	h := &ForeignToplevelHandle{}
	h.Attach(c, 0xff000005)
	seat := &wlclient.Seat{}
	seat.Attach(c, 3)
	out := &wlclient.Output{}
	out.Attach(c, 4)

	tests := []struct {
		name   string
		send   func() error
		opcode uint16
		body   []byte
	}{
		{"set maximized", h.SetMaximized, 0, []byte{}},
		{"unset minimized", h.UnsetMinimized, 3, []byte{}},
		{"activate", func() error { return h.Activate(seat) }, 4, u32(3)},
		{"activate without seat", func() error { return h.Activate(nil) }, 4, u32(0)},
		{"close", h.Close, 5, []byte{}},
		{"fullscreen on output", func() error { return h.SetFullscreen(out) }, 8, u32(4)},
		{"unset fullscreen", h.UnsetFullscreen, 9, []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errc := make(chan error, 1)
			go func() { errc <- tt.send() }()

			sender, opcode, body := readRequest(t, server)
			require.NoError(t, <-errc)
			assert.Equal(t, h.ID(), sender)
			assert.Equal(t, tt.opcode, opcode)
			assert.Equal(t, tt.body, body)
		})
	}
}
