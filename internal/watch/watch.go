// Package watch turns raw filesystem notifications into an ordered,
// coalesced event stream and applies it incrementally to the tree.
package watch

import (
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Op classifies a change delivered to the consumer.
type Op int

const (
	Created Op = iota
	Removed
	Modified

	// Overflow means the queue hit its cap and pending detail was
	// discarded; the consumer must rescan.
	Overflow

	// Desynced means the notification subscription degraded (an
	// error from the backend); the consumer should fall back to
	// periodic rescans.
	Desynced
)

// Event is one coalesced filesystem change.
type Event struct {
	Op   Op
	Path string
}

// queueCap bounds pending events between drains.
const queueCap = 1024

// Coordinator owns the fsnotify subscription and the pending-event
// queue. Events are queued from the watcher goroutine and drained on
// the consumer's goroutine; the tree is only ever touched by the
// consumer.
type Coordinator struct {
	fw     *fsnotify.Watcher
	logger *slog.Logger

	mu      sync.Mutex
	pending []Event

	wake chan struct{}
	done chan struct{}
}

// New starts the watcher goroutine. Close must be called to release
// the subscription.
func New(logger *slog.Logger) (*Coordinator, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		fw:     fw,
		logger: logger,
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	go c.run()
	return c, nil
}

// Add subscribes a directory. Call it for the root and for every
// directory whose children are loaded.
func (c *Coordinator) Add(dir string) error { return c.fw.Add(dir) }

// Close stops the watcher goroutine and releases the subscription.
func (c *Coordinator) Close() error {
	close(c.done)
	return c.fw.Close()
}

// Wake is signaled whenever the queue transitions to non-empty, so a
// consumer can debounce before draining.
func (c *Coordinator) Wake() <-chan struct{} { return c.wake }

// Drain returns and clears all pending events in order.
func (c *Coordinator) Drain() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

func (c *Coordinator) run() {
	for {
		select {
		case ev, ok := <-c.fw.Events:
			if !ok {
				return
			}
			for _, e := range translate(ev) {
				c.push(e)
			}
		case err, ok := <-c.fw.Errors:
			if !ok {
				return
			}
			c.logger.Warn("watch subscription degraded", "error", err)
			c.push(Event{Op: Desynced})
		case <-c.done:
			return
		}
	}
}

// translate maps a backend notification to stream events. A rename is
// delivered as a removal of the old path; the new path arrives as its
// own create notification.
func translate(ev fsnotify.Event) []Event {
	var out []Event
	if ev.Has(fsnotify.Create) {
		out = append(out, Event{Op: Created, Path: ev.Name})
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		out = append(out, Event{Op: Removed, Path: ev.Name})
	}
	if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Chmod) {
		out = append(out, Event{Op: Modified, Path: ev.Name})
	}
	return out
}

// push coalesces an event into the queue:
//
//   - Modified collapses into a pending Created or Modified for the
//     same path.
//   - Removed cancels a pending Created for the same path outright
//     (the consumer never saw the file).
//   - Removed followed by Created stays a pair, preserving order, so
//     the consumer replaces the node instead of refreshing it.
//
// On overflow the queue is replaced by a single Overflow marker.
func (c *Coordinator) push(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	wasEmpty := len(c.pending) == 0
	switch e.Op {
	case Modified:
		for i := len(c.pending) - 1; i >= 0; i-- {
			p := c.pending[i]
			if p.Path != e.Path {
				continue
			}
			if p.Op == Created || p.Op == Modified {
				c.notify(wasEmpty)
				return
			}
			break // pending Removed: keep order, append below
		}
	case Removed:
		for i := len(c.pending) - 1; i >= 0; i-- {
			p := c.pending[i]
			if p.Path != e.Path {
				continue
			}
			if p.Op == Created {
				c.pending = dropPath(c.pending, e.Path, i)
				c.notify(wasEmpty)
				return
			}
			break
		}
	case Overflow, Desynced:
		for _, p := range c.pending {
			if p.Op == e.Op {
				return
			}
		}
	}

	if len(c.pending) >= queueCap {
		c.logger.Warn("watch queue overflow, forcing rescan", "dropped", len(c.pending))
		c.pending = []Event{{Op: Overflow}}
		c.notify(wasEmpty)
		return
	}
	c.pending = append(c.pending, e)
	c.notify(wasEmpty)
}

func (c *Coordinator) notify(wasEmpty bool) {
	if !wasEmpty || len(c.pending) == 0 {
		return
	}
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// dropPath removes the Created at index ci plus any Modified for the
// same path queued after it.
func dropPath(pending []Event, path string, ci int) []Event {
	out := pending[:ci]
	for _, p := range pending[ci+1:] {
		if p.Path == path && p.Op == Modified {
			continue
		}
		out = append(out, p)
	}
	return out
}
