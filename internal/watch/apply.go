package watch

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/sh1zen/wisu/internal/filter"
	"github.com/sh1zen/wisu/internal/ignore"
	"github.com/sh1zen/wisu/internal/tree"
)

// Result summarizes a drained batch.
type Result struct {
	// Changed means the tree was mutated and views should refresh.
	Changed bool

	// Degraded means the subscription is no longer trustworthy and
	// the consumer should start periodic rescans.
	Degraded bool
}

// Applier folds drained events into the tree. It must only be used on
// the goroutine that owns the tree.
type Applier struct {
	Tree   *tree.Tree
	Filter *filter.Pipeline
	Coord  *Coordinator
	Logger *slog.Logger
}

// Apply processes a batch in order.
func (a *Applier) Apply(ctx context.Context, evs []Event) Result {
	var res Result
	if a.Tree.Config.FilesOnly {
		return a.applyFlat(ctx, evs)
	}
	for _, ev := range evs {
		switch ev.Op {
		case Created:
			if a.applyCreated(ev.Path) {
				res.Changed = true
			}
		case Removed:
			if a.applyRemoved(ev.Path) {
				res.Changed = true
			}
		case Modified:
			if a.applyModified(ctx, ev.Path) {
				res.Changed = true
			}
		case Overflow:
			if a.RescanLoaded(ctx) {
				res.Changed = true
			}
		case Desynced:
			res.Degraded = true
		}
	}
	return res
}

// applyFlat handles the files-only listing, which has no
// per-directory structure to patch: any change re-walks the whole
// thing, and newly visited directories get subscribed.
func (a *Applier) applyFlat(ctx context.Context, evs []Event) Result {
	var res Result
	refresh := false
	for _, ev := range evs {
		switch ev.Op {
		case Desynced:
			res.Degraded = true
		default:
			refresh = true
		}
	}
	if !refresh {
		return res
	}
	if err := a.Tree.RefreshFlat(ctx); err != nil {
		a.logf("flat refresh failed", a.Tree.Root.Path(), err)
		return res
	}
	if a.Coord != nil {
		for _, dir := range a.Tree.WatchRoots() {
			if err := a.Coord.Add(dir); err != nil {
				a.logf("watch add failed", dir, err)
			}
		}
	}
	res.Changed = true
	return res
}

func (a *Applier) applyCreated(path string) bool {
	if a.Tree.NodeAt(path) != nil {
		return a.applyModified(context.Background(), path)
	}
	parent, ok := a.loadedParent(path)
	if !ok {
		return false
	}
	e, err := tree.CaptureEntry(path)
	if err != nil {
		return false
	}
	if !a.keep(e) {
		return false
	}
	if !e.IsDir() && a.Tree.Config.FileCap >= 0 {
		files := 0
		var last *tree.Node
		for _, c := range parent.Children {
			if !c.IsDir() {
				files++
				last = c
			}
		}
		if files >= a.Tree.Config.FileCap {
			// The retained set must stay the first cap files in sort
			// order, exactly what a fresh rebuild of this directory
			// would keep. A file sorting at or past the boundary is
			// counted but not inserted; one sorting inside it evicts
			// the last retained file.
			if last == nil || a.Tree.Config.Policy.Compare(e, last.Entry) >= 0 {
				parent.Truncated++
				return true
			}
			a.Tree.Remove(last)
			parent.Truncated++
		}
	}
	n := a.Tree.InsertChild(parent, e)
	if n.IsDir() && a.Coord != nil {
		// Not loaded yet, but watching it now catches its first
		// children before the user expands it.
		if err := a.Coord.Add(path); err != nil {
			a.logf("watch add failed", path, err)
		}
	}
	return true
}

func (a *Applier) applyRemoved(path string) bool {
	changed := false
	if n := a.Tree.NodeAt(path); n != nil && n.Parent != nil {
		a.Tree.Remove(n)
		changed = true
	}
	if a.invalidateIgnore(path) {
		changed = true
	}
	return changed
}

func (a *Applier) applyModified(ctx context.Context, path string) bool {
	if a.invalidateIgnore(path) {
		return true
	}
	n := a.Tree.NodeAt(path)
	if n == nil {
		// A previously filtered entry may pass the predicates now,
		// e.g. when its modification time moved into the window.
		return a.applyCreated(path)
	}
	if n.Parent == nil {
		return false
	}
	e, err := tree.CaptureEntry(path)
	if err != nil {
		a.Tree.Remove(n)
		return true
	}
	if !a.keep(e) {
		a.Tree.Remove(n)
		return true
	}
	// Backends deliver duplicate notifications for a single change;
	// when the captured metadata is identical there is nothing to
	// redraw.
	if sameEntry(n.Entry, e) {
		return false
	}
	a.Tree.Update(n, e)
	return true
}

func sameEntry(a, b tree.Entry) bool {
	return a.Kind == b.Kind && a.Size == b.Size &&
		a.Mode == b.Mode && a.ModTime.Equal(b.ModTime)
}

// invalidateIgnore rescans the directory of a changed ignore file so
// new rules take effect immediately.
func (a *Applier) invalidateIgnore(path string) bool {
	if a.Filter == nil || a.Filter.Rules() == nil {
		return false
	}
	if !ignore.IsRuleFile(filepath.Base(path)) {
		return false
	}
	dir := filepath.Dir(path)
	a.Filter.Rules().Invalidate(a.Tree.Rel(dir))
	n := a.Tree.NodeAt(dir)
	if n == nil || n.State != tree.Loaded {
		return false
	}
	if err := a.rescanSubtree(context.Background(), n); err != nil {
		a.logf("rescan after ignore change failed", dir, err)
	}
	return true
}

// RescanLoaded re-reads every loaded directory level, used after an
// overflow or while the subscription is degraded.
func (a *Applier) RescanLoaded(ctx context.Context) bool {
	if a.Tree.Config.FilesOnly {
		if err := a.Tree.RefreshFlat(ctx); err != nil {
			a.logf("flat refresh failed", a.Tree.Root.Path(), err)
		}
		return true
	}
	if err := a.rescanSubtree(ctx, a.Tree.Root); err != nil {
		a.logf("rescan failed", a.Tree.Root.Path(), err)
	}
	return true
}

func (a *Applier) rescanSubtree(ctx context.Context, n *tree.Node) error {
	if !n.IsDir() || n.State != tree.Loaded {
		return nil
	}
	if err := a.Tree.RescanDir(ctx, n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := a.rescanSubtree(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (a *Applier) keep(e tree.Entry) bool {
	if a.Tree.Config.DirsOnly && !e.IsDir() {
		return false
	}
	if a.Filter != nil && !a.Filter.Keep(e) {
		return false
	}
	return true
}

func (a *Applier) logf(msg, path string, err error) {
	if a.Logger != nil {
		a.Logger.Warn(msg, "path", path, "error", err)
	}
}

func (a *Applier) loadedParent(path string) (*tree.Node, bool) {
	parent := a.Tree.NodeAt(filepath.Dir(path))
	if parent == nil || !parent.IsDir() || parent.State != tree.Loaded {
		return nil, false
	}
	return parent, true
}
