package client

import (
	"testing"

	"github.com/bnema/wltoplevel/internal/toplevel"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
)

const iface = "lxqt.WindowsList.wayland1"

func TestDecodeSignal(t *testing.T) {
	tests := []struct {
		name   string
		signal *dbus.Signal
		want   Signal
		ok     bool
	}{
		{
			name:   "opened",
			signal: &dbus.Signal{Name: iface + ".WindowOpened", Body: []interface{}{uint32(3)}},
			want:   Signal{Kind: toplevel.ChangeOpened, ID: 3},
			ok:     true,
		},
		{
			name:   "title changed",
			signal: &dbus.Signal{Name: iface + ".WindowTitleChanged", Body: []interface{}{uint32(1), "Editor"}},
			want:   Signal{Kind: toplevel.ChangeTitle, ID: 1, Value: "Editor"},
			ok:     true,
		},
		{
			name:   "app id changed",
			signal: &dbus.Signal{Name: iface + ".WindowAppIdChanged", Body: []interface{}{uint32(1), "foot"}},
			want:   Signal{Kind: toplevel.ChangeAppID, ID: 1, Value: "foot"},
			ok:     true,
		},
		{
			name:   "other interface",
			signal: &dbus.Signal{Name: "org.freedesktop.DBus.NameAcquired", Body: []interface{}{"x"}},
		},
		{
			name:   "unknown member",
			signal: &dbus.Signal{Name: iface + ".WindowShaded", Body: []interface{}{uint32(1)}},
		},
		{
			name:   "wrong body type",
			signal: &dbus.Signal{Name: iface + ".WindowClosed", Body: []interface{}{"1"}},
		},
		{
			name:   "empty body",
			signal: &dbus.Signal{Name: iface + ".WindowClosed"},
		},
		{
			name: "nil signal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeSignal(iface, tt.signal)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestEverySignalKindDecodes(t *testing.T) {
	assert.Len(t, signalKinds, 8)
	for member, kind := range signalKinds {
		got, ok := decodeSignal(iface, &dbus.Signal{Name: iface + "." + member, Body: []interface{}{uint32(7)}})
		assert.True(t, ok, member)
		assert.Equal(t, kind, got.Kind, member)
	}
}
