package tree

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Build scans the filesystem under cfg.Root and returns the resulting
// tree. An unreadable root is the only fatal error; unreadable
// subdirectories become in-place error nodes instead. A cancelled
// context stops the scan and returns the partial tree alongside the
// context's error.
func Build(ctx context.Context, cfg Config) (*Tree, error) {
	cfg.Root = filepath.Clean(cfg.Root)
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrRootUnreadable)
	}

	t := &Tree{
		Root:   &Node{Entry: entryFromInfo(cfg.Root, info)},
		Config: cfg,
		index:  make(map[string]*Node),
	}
	t.index[cfg.Root] = t.Root

	if cfg.FilesOnly {
		return t, t.loadFlat(ctx)
	}

	if cfg.Unbounded() || cfg.MaxDepth > 0 {
		if err := t.loadDir(ctx, t.Root, !cfg.Lazy); err != nil {
			return t, err
		}
	} else {
		t.Root.State = Loaded
	}

	if cfg.DirsOnly && !cfg.Lazy {
		t.pruneFileOnlyDirs(t.Root)
	}
	return t, nil
}

// loadDir scans one directory level and, when recurse is set, descends
// into child directories within the depth limit.
func (t *Tree) loadDir(ctx context.Context, n *Node, recurse bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kids, had, trunc, nerr := t.ScanChildren(n)
	t.AttachChildren(n, kids, had, trunc, nerr)
	if !recurse {
		return nil
	}
	for _, c := range kids {
		if !c.IsDir() {
			continue
		}
		if !t.Config.Unbounded() && c.Depth >= t.Config.MaxDepth {
			continue
		}
		if err := t.loadDir(ctx, c, true); err != nil {
			return err
		}
	}
	return nil
}

// LoadChildren scans one level under a not-yet-loaded directory,
// typically on interactive expansion.
func (t *Tree) LoadChildren(ctx context.Context, n *Node) error {
	if !n.IsDir() || n.State == Loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	kids, had, trunc, nerr := t.ScanChildren(n)
	t.AttachChildren(n, kids, had, trunc, nerr)
	if nerr != nil {
		return nerr
	}
	return nil
}

// RescanDir re-reads a single directory level in place, keeping the
// loaded subtrees of directories that are still present so expansion
// state survives a localized refresh.
func (t *Tree) RescanDir(ctx context.Context, n *Node) error {
	if !n.IsDir() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	old := make(map[string]*Node, len(n.Children))
	for _, c := range n.Children {
		old[c.Path()] = c
	}
	kids, had, trunc, nerr := t.ScanChildren(n)
	for i, k := range kids {
		prev, ok := old[k.Path()]
		if ok && prev.IsDir() && k.IsDir() && prev.State == Loaded {
			prev.Entry = k.Entry
			kids[i] = prev
		}
	}
	t.AttachChildren(n, kids, had, trunc, nerr)
	if nerr != nil {
		return nerr
	}
	return nil
}

// loadFlat builds the files-only listing: it walks the directory
// structure but attaches every retained file directly under the root.
// Called for the initial build and for every refresh, since flat
// trees have no per-directory structure to patch incrementally.
func (t *Tree) loadFlat(ctx context.Context) error {
	t.walkedDirs = t.walkedDirs[:0]
	t.errs = nil

	var (
		entries   []Entry
		truncated int
		had       bool
	)
	if err := t.scanFlat(ctx, t.Root.Path(), 1, &entries, &truncated, &had); err != nil {
		return err
	}

	if t.Config.Transform != nil {
		entries = t.Config.Transform.TransformChildren(t.Root.Entry, entries)
	}
	policy := t.Config.Policy
	sort.SliceStable(entries, func(i, j int) bool {
		return policy.Less(entries[i], entries[j])
	})

	kids := make([]*Node, len(entries))
	for i, e := range entries {
		kids[i] = &Node{Entry: e, Depth: 1}
	}
	t.AttachChildren(t.Root, kids, had, truncated, nil)
	return nil
}

func (t *Tree) scanFlat(ctx context.Context, dir string, depth int, out *[]Entry, truncated *int, had *bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !t.Config.Unbounded() && depth > t.Config.MaxDepth {
		return nil
	}
	t.walkedDirs = append(t.walkedDirs, dir)

	dirents, err := os.ReadDir(dir)
	if err != nil {
		t.errs = append(t.errs, &NodeError{Path: dir, Err: err})
		return nil
	}
	if len(dirents) > 0 {
		*had = true
	}

	files := 0
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			continue
		}
		e := entryFromInfo(filepath.Join(dir, d.Name()), info)
		if t.Config.Filter != nil && !t.Config.Filter.Keep(e) {
			continue
		}
		if e.IsDir() {
			if t.Config.Unbounded() || depth < t.Config.MaxDepth {
				if err := t.scanFlat(ctx, e.Path, depth+1, out, truncated, had); err != nil {
					return err
				}
			}
			continue
		}
		// The cap is per source directory, as in the hierarchical
		// listing.
		if t.Config.FileCap >= 0 {
			if files >= t.Config.FileCap {
				*truncated++
				continue
			}
			files++
		}
		*out = append(*out, e)
	}
	return nil
}

// RefreshFlat re-walks a files-only listing in place.
func (t *Tree) RefreshFlat(ctx context.Context) error {
	if !t.Config.FilesOnly {
		return nil
	}
	return t.loadFlat(ctx)
}

// ScanChildren reads a directory, applies filters, the child
// transform, the sort policy, and the file cap, and returns fresh
// child nodes without touching the tree. The caller attaches them on
// the owning goroutine.
func (t *Tree) ScanChildren(n *Node) (kids []*Node, hadEntries bool, truncated int, scanErr *NodeError) {
	dirents, err := os.ReadDir(n.Path())
	if err != nil {
		return nil, false, 0, &NodeError{Path: n.Path(), Err: err}
	}
	hadEntries = len(dirents) > 0

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		info, err := d.Info()
		if err != nil {
			continue
		}
		e := entryFromInfo(filepath.Join(n.Path(), d.Name()), info)
		if t.Config.DirsOnly && !e.IsDir() {
			continue
		}
		if t.Config.Filter != nil && !t.Config.Filter.Keep(e) {
			continue
		}
		entries = append(entries, e)
	}

	if t.Config.Transform != nil {
		entries = t.Config.Transform.TransformChildren(n.Entry, entries)
	}

	policy := t.Config.Policy
	sort.SliceStable(entries, func(i, j int) bool {
		return policy.Less(entries[i], entries[j])
	})

	files := 0
	for _, e := range entries {
		if !e.IsDir() && t.Config.FileCap >= 0 {
			if files >= t.Config.FileCap {
				truncated++
				continue
			}
			files++
		}
		kids = append(kids, &Node{Entry: e, Parent: n, Depth: n.Depth + 1})
	}
	return kids, hadEntries, truncated, nil
}

// pruneFileOnlyDirs drops directories that the directories-only
// filter emptied: they had entries on disk but no directory survives
// anywhere below them. Decisions are made against the tree as built,
// so a parent keeps its place even when all its subdirectories are
// pruned. Genuinely empty directories stay.
func (t *Tree) pruneFileOnlyDirs(n *Node) {
	kept := n.Children[:0]
	for _, c := range n.Children {
		if c.IsDir() && c.hadEntries && len(c.Children) == 0 {
			size, files, dirs := c.aggregates()
			t.bubble(n, -size, -files, -dirs)
			t.dropIndex(c)
			continue
		}
		kept = append(kept, c)
		if c.IsDir() {
			t.pruneFileOnlyDirs(c)
		}
	}
	n.Children = kept
}
