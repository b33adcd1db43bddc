package toplevel

import (
	"errors"
	"slices"
)

// ErrOutOfOrder is returned by Registry.Insert when the id would break the
// ascending order of the registry.
var ErrOutOfOrder = errors.New("window id out of order")

// minCapacity is the backing size the registry never shrinks below.
const minCapacity = 8

// Registry is the ordered collection of live windows. Windows are kept
// sorted by ascending id; since ids are handed out in increasing order,
// appending keeps the order.
type Registry struct {
	windows []*Window
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{windows: make([]*Window, 0, minCapacity)}
}

// Insert appends w. It fails when w.ID is not greater than every id
// already present.
func (r *Registry) Insert(w *Window) error {
	if n := len(r.windows); n > 0 && r.windows[n-1].ID >= w.ID {
		return ErrOutOfOrder
	}
	r.windows = append(r.windows, w)
	return nil
}

// Remove drops the window with the given id and reports whether it was
// present.
func (r *Registry) Remove(id uint32) bool {
	i := slices.IndexFunc(r.windows, func(w *Window) bool { return w.ID == id })
	if i < 0 {
		return false
	}
	r.windows = slices.Delete(r.windows, i, i+1)

	// Only give memory back once usage is well under capacity so that
	// open/close churn does not reallocate every time.
	if c := cap(r.windows); c > minCapacity && len(r.windows) < c/4 {
		shrunk := make([]*Window, len(r.windows), max(minCapacity, c/2))
		copy(shrunk, r.windows)
		r.windows = shrunk
	}
	return true
}

// Get returns the window with the given id using binary search.
func (r *Registry) Get(id uint32) (*Window, bool) {
	i, found := slices.BinarySearchFunc(r.windows, id, func(w *Window, id uint32) int {
		switch {
		case w.ID < id:
			return -1
		case w.ID > id:
			return 1
		}
		return 0
	})
	if !found {
		return nil, false
	}
	return r.windows[i], true
}

// IDs returns a snapshot of the ids in ascending order.
func (r *Registry) IDs() []uint32 {
	ids := make([]uint32, len(r.windows))
	for i, w := range r.windows {
		ids[i] = w.ID
	}
	return ids
}

// Len returns the number of live windows.
func (r *Registry) Len() int {
	return len(r.windows)
}

// Each calls fn for every window in id order.
func (r *Registry) Each(fn func(*Window)) {
	for _, w := range r.windows {
		fn(w)
	}
}

// Clear drops every window.
func (r *Registry) Clear() {
	clear(r.windows)
	r.windows = make([]*Window, 0, minCapacity)
}
