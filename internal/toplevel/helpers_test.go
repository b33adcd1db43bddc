package toplevel

type fakeOutput uint32

func (o fakeOutput) ID() uint32 { return uint32(o) }

// recordingHandle remembers the requests issued to it.
type recordingHandle struct {
	calls      []string
	fullscreen Output
	err        error
}

func (h *recordingHandle) record(name string) error {
	h.calls = append(h.calls, name)
	return h.err
}

func (h *recordingHandle) SetMaximized() error   { return h.record("set_maximized") }
func (h *recordingHandle) UnsetMaximized() error { return h.record("unset_maximized") }
func (h *recordingHandle) SetMinimized() error   { return h.record("set_minimized") }
func (h *recordingHandle) UnsetMinimized() error { return h.record("unset_minimized") }
func (h *recordingHandle) SetFullscreen(o Output) error {
	h.fullscreen = o
	return h.record("set_fullscreen")
}
func (h *recordingHandle) UnsetFullscreen() error { return h.record("unset_fullscreen") }
func (h *recordingHandle) Activate() error        { return h.record("activate") }
func (h *recordingHandle) Close() error           { return h.record("close") }

type changeLog []Change

func (l *changeLog) Notify(c Change) { *l = append(*l, c) }

func (l changeLog) kinds() []ChangeKind {
	out := make([]ChangeKind, len(l))
	for i, c := range l {
		out[i] = c.Kind
	}
	return out
}
