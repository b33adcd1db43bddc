package toplevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowStateCollapse(t *testing.T) {
	tests := []struct {
		name    string
		flags   []Flag
		want    State
		changes []ChangeKind
	}{
		{
			name:    "empty array resets to normal",
			flags:   nil,
			want:    Normal,
			changes: []ChangeKind{},
		},
		{
			name:    "last flag wins",
			flags:   []Flag{FlagMaximized, FlagMinimized, FlagMaximized},
			want:    Maximized,
			changes: []ChangeKind{ChangeMaximized, ChangeMinimized, ChangeMaximized},
		},
		{
			name:    "activated alone keeps normal",
			flags:   []Flag{FlagActivated},
			want:    Normal,
			changes: []ChangeKind{ChangeActivated},
		},
		{
			name:    "fullscreen and activated",
			flags:   []Flag{FlagFullscreen, FlagActivated},
			want:    Fullscreen,
			changes: []ChangeKind{ChangeFullscreened, ChangeActivated},
		},
		{
			name:    "unknown flags are skipped",
			flags:   []Flag{Flag(42), FlagMinimized},
			want:    Minimized,
			changes: []ChangeKind{ChangeMinimized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWindow(1, nil, nil, false)
			w.State = Maximized

			got, err := w.Apply(StateChanged{Flags: tt.flags})
			require.NoError(t, err)

			assert.Equal(t, tt.want, w.State)
			assert.Equal(t, tt.changes, changeLog(got).kinds())
		})
	}
}

func TestWindowProperties(t *testing.T) {
	w := newWindow(4, nil, nil, false)

	changes, err := w.Apply(PropertyChanged{Prop: PropTitle, Text: "Editor"})
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: ChangeTitle, ID: 4, Value: "Editor"}}, changes)
	assert.Equal(t, "Editor", w.Title)

	changes, err = w.Apply(PropertyChanged{Prop: PropAppID, Text: "org.example.editor"})
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: ChangeAppID, ID: 4, Value: "org.example.editor"}}, changes)
	assert.Equal(t, "org.example.editor", w.AppID)
}

func TestWindowOutputTracking(t *testing.T) {
	w := newWindow(0, nil, nil, false)

	for _, o := range []fakeOutput{10, 11, 10} {
		changes, err := w.Apply(PropertyChanged{Prop: PropOutputEnter, Output: o})
		require.NoError(t, err)
		assert.Empty(t, changes)
	}
	assert.Len(t, w.Outputs(), 2)
	assert.Equal(t, uint32(10), w.Output.ID())

	_, err := w.Apply(PropertyChanged{Prop: PropOutputLeave, Output: fakeOutput(10)})
	require.NoError(t, err)
	assert.Equal(t, uint32(11), w.Output.ID())

	_, err = w.Apply(PropertyChanged{Prop: PropOutputLeave, Output: fakeOutput(11)})
	require.NoError(t, err)
	assert.Nil(t, w.Output)
	assert.Empty(t, w.Outputs())
}

func TestWindowLifecycle(t *testing.T) {
	w := newWindow(2, nil, nil, false)
	assert.Equal(t, PhasePending, w.Phase())

	changes, err := w.Apply(Done{})
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Equal(t, PhaseReady, w.Phase())

	changes, err = w.Apply(Closed{})
	require.NoError(t, err)
	assert.Equal(t, []Change{{Kind: ChangeClosed, ID: 2}}, changes)
	assert.Equal(t, PhaseClosed, w.Phase())

	_, err = w.Apply(PropertyChanged{Prop: PropTitle, Text: "late"})
	assert.ErrorIs(t, err, ErrWindowClosed)
	assert.Empty(t, w.Title)
}

func TestWindowBatchUntilDone(t *testing.T) {
	w := newWindow(3, nil, nil, true)

	changes, err := w.Apply(PropertyChanged{Prop: PropTitle, Text: "Terminal"})
	require.NoError(t, err)
	assert.Nil(t, changes)

	changes, err = w.Apply(StateChanged{Flags: []Flag{FlagActivated}})
	require.NoError(t, err)
	assert.Nil(t, changes)
	assert.Equal(t, "Terminal", w.Title, "state is applied immediately")

	changes, err = w.Apply(Done{})
	require.NoError(t, err)
	assert.Equal(t, []ChangeKind{ChangeTitle, ChangeActivated}, changeLog(changes).kinds())

	changes, err = w.Apply(Done{})
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestStateRoundTrip(t *testing.T) {
	for _, s := range []State{Normal, Maximized, Minimized, Fullscreen} {
		got, ok := ParseState(s.String())
		assert.True(t, ok)
		assert.Equal(t, s, got)
	}

	_, ok := ParseState("SHADED")
	assert.False(t, ok)
}
