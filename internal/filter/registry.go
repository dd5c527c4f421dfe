package filter

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Extension points the pipeline invokes.
const (
	// PointDirEntries transforms a directory's retained child list
	// before sorting. The hook value is []tree.Entry.
	PointDirEntries = "dir_entries"
)

// HookFunc receives a value and returns a value of the same type.
// Returning the input unchanged is the identity hook.
type HookFunc func(v any) (any, error)

type hookEntry struct {
	name   string
	fn     HookFunc
	failed bool
}

// Registry holds user hooks keyed by extension point, applied in
// registration order. A hook that returns an error, panics, or
// changes the value's type is disabled for the rest of the session
// and reported once.
type Registry struct {
	logger *slog.Logger
	points map[string][]*hookEntry
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger: logger,
		points: make(map[string][]*hookEntry),
	}
}

// Register appends a hook to an extension point.
func (r *Registry) Register(point, name string, fn HookFunc) {
	r.points[point] = append(r.points[point], &hookEntry{name: name, fn: fn})
}

// Apply chains every healthy hook at the point over v. The value's
// dynamic type is preserved: a misbehaving hook's output is discarded
// and the previous value carries forward.
func Apply[T any](r *Registry, point string, v T) T {
	out := r.apply(point, v)
	typed, ok := out.(T)
	if !ok {
		return v
	}
	return typed
}

func (r *Registry) apply(point string, v any) any {
	for _, h := range r.points[point] {
		if h.failed {
			continue
		}
		out, err := h.call(v)
		if err == nil && reflect.TypeOf(out) != reflect.TypeOf(v) {
			err = fmt.Errorf("hook changed value type from %T to %T", v, out)
		}
		if err != nil {
			h.failed = true
			r.logger.Warn("hook disabled", "point", point, "hook", h.name, "error", err)
			continue
		}
		v = out
	}
	return v
}

func (h *hookEntry) call(v any) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("hook panicked: %v", p)
		}
	}()
	return h.fn(v)
}
