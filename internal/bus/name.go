// Package bus exports the window list on the D-Bus session bus.
package bus

import (
	"path/filepath"
	"strings"
)

// Defaults for the service identity.
const (
	DefaultPrefix     = "lxqt.WindowsList"
	DefaultObjectPath = "/WindowsList"

	// ProtocolVersion is the value of the ProtocolVersion property. Earlier
	// bridges exporting the same members report 0; this one reports 1 so
	// subscribers can tell them apart.
	ProtocolVersion uint32 = 1

	fallbackSession = "wayland"
)

// SessionName turns a Wayland display name into the trailing bus name
// elements. Dots separate elements; within an element only letters, digits
// and underscores are kept, and an element starting with a digit gets an
// underscore in front. Empty elements are dropped. Socket paths contribute
// their base name.
func SessionName(display string) string {
	if strings.ContainsRune(display, '/') {
		display = filepath.Base(display)
	}

	var elems []string
	for _, part := range strings.Split(display, ".") {
		if elem := sanitizeElement(part); elem != "" {
			elems = append(elems, elem)
		}
	}
	if len(elems) == 0 {
		return fallbackSession
	}
	return strings.Join(elems, ".")
}

func sanitizeElement(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}

	elem := b.String()
	if elem != "" && elem[0] >= '0' && elem[0] <= '9' {
		return "_" + elem
	}
	return elem
}

// ServiceName is the well-known name, and interface name, of the service
// for a display.
func ServiceName(prefix, display string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return prefix + "." + SessionName(display)
}
