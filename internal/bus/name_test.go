package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionName(t *testing.T) {
	tests := []struct {
		name    string
		display string
		want    string
	}{
		{"hyphen stripped", "wayland-1", "wayland1"},
		{"empty falls back", "", "wayland"},
		{"only invalid characters", "-.-", "wayland"},
		{"leading digit", "0-display", "_0display"},
		{"dots split elements", "wayland-1.x", "wayland1.x"},
		{"empty elements dropped", ".my..display.", "my.display"},
		{"each element gets a digit guard", "wayland.2", "wayland._2"},
		{"socket path uses base name", "/run/user/1000/wayland-2", "wayland2"},
		{"underscore kept", "sway_ipc", "sway_ipc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SessionName(tt.display))
		})
	}
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "lxqt.WindowsList.wayland1", ServiceName("", "wayland-1"))
	assert.Equal(t, "org.example.Windows.wayland0", ServiceName("org.example.Windows", "wayland-0"))
	assert.Equal(t, "lxqt.WindowsList.wayland1.x", ServiceName("", "wayland-1.x"))
}

func TestProtocolVersion(t *testing.T) {
	assert.Equal(t, uint32(1), ProtocolVersion)
}
