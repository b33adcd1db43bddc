package toplevel

// State is the presentation state reported for a window. A window holds
// exactly one of them at a time.
type State int

const (
	Normal State = iota
	Maximized
	Minimized
	Fullscreen
)

func (s State) String() string {
	switch s {
	case Maximized:
		return "MAXIMIZED"
	case Minimized:
		return "MINIMIZED"
	case Fullscreen:
		return "FULLSCREEN"
	default:
		return "NORMAL"
	}
}

// ParseState is the inverse of State.String. Unknown strings yield Normal
// and false.
func ParseState(s string) (State, bool) {
	switch s {
	case "NORMAL":
		return Normal, true
	case "MAXIMIZED":
		return Maximized, true
	case "MINIMIZED":
		return Minimized, true
	case "FULLSCREEN":
		return Fullscreen, true
	}
	return Normal, false
}

// Flag is one entry of the compositor's state array. The values match the
// wire values of zwlr_foreign_toplevel_handle_v1.state.
type Flag uint32

const (
	FlagMaximized  Flag = 0
	FlagMinimized  Flag = 1
	FlagActivated  Flag = 2
	FlagFullscreen Flag = 3
)

func (f Flag) String() string {
	switch f {
	case FlagMaximized:
		return "maximized"
	case FlagMinimized:
		return "minimized"
	case FlagActivated:
		return "activated"
	case FlagFullscreen:
		return "fullscreen"
	default:
		return "unknown"
	}
}

// Phase is the lifecycle position of a window record.
type Phase int

const (
	// PhasePending windows were announced but no done event arrived yet.
	PhasePending Phase = iota
	PhaseReady
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhasePending:
		return "pending"
	case PhaseReady:
		return "ready"
	default:
		return "closed"
	}
}
