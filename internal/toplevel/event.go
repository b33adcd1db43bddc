package toplevel

// Event is a compositor-side change for a single window. The concrete
// types are PropertyChanged, StateChanged, Done and Closed.
type Event interface {
	isEvent()
}

// Property names the window attribute carried by a PropertyChanged event.
type Property int

const (
	PropTitle Property = iota
	PropAppID
	PropOutputEnter
	PropOutputLeave
)

// PropertyChanged reports a new title or app-id (Text) or an output the
// window entered or left (Output).
type PropertyChanged struct {
	Prop   Property
	Text   string
	Output Output
}

// StateChanged carries the compositor's state array in wire order. Each
// flag is handled as its own sub-event.
type StateChanged struct {
	Flags []Flag
}

// Done marks the end of a batch of changes.
type Done struct{}

// Closed reports that the compositor destroyed the window.
type Closed struct{}

func (PropertyChanged) isEvent() {}
func (StateChanged) isEvent()    {}
func (Done) isEvent()            {}
func (Closed) isEvent()          {}

// ChangeKind identifies an outbound notification.
type ChangeKind int

const (
	ChangeOpened ChangeKind = iota
	ChangeClosed
	ChangeActivated
	ChangeMaximized
	ChangeMinimized
	ChangeFullscreened
	ChangeTitle
	ChangeAppID
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeOpened:
		return "opened"
	case ChangeClosed:
		return "closed"
	case ChangeActivated:
		return "activated"
	case ChangeMaximized:
		return "maximized"
	case ChangeMinimized:
		return "minimized"
	case ChangeFullscreened:
		return "fullscreened"
	case ChangeTitle:
		return "title"
	case ChangeAppID:
		return "app-id"
	default:
		return "unknown"
	}
}

// Change is a notification produced by a window transition. Value is set
// for ChangeTitle and ChangeAppID.
type Change struct {
	Kind  ChangeKind
	ID    uint32
	Value string
}

// Notifier receives every change in the order it happened.
type Notifier interface {
	Notify(Change)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Change)

func (f NotifierFunc) Notify(c Change) { f(c) }
