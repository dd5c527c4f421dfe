// Package tree holds the shared directory tree model: entry capture,
// traversal, and the incremental mutations the watcher applies.
package tree

import (
	"path/filepath"
	"sort"

	"github.com/sh1zen/wisu/internal/sortkey"
)

// Filter decides whether a captured entry is retained. Directories
// rejected here are pruned with their whole subtree.
type Filter interface {
	Keep(e Entry) bool
}

// Transform is an extension point applied to each directory's retained
// child entries before sorting. Implementations must return a slice of
// the same element type; a pass-through return leaves the listing
// unchanged.
type Transform interface {
	TransformChildren(parent Entry, children []Entry) []Entry
}

// Config carries everything a traversal needs to decide shape and
// order.
type Config struct {
	Root string // absolute

	// MaxDepth limits recursion: 0 lists only the root, negative
	// values mean unbounded.
	MaxDepth int

	// FileCap limits files kept per directory: 0 keeps none,
	// negative values mean unlimited. Directories are never capped.
	FileCap int

	// DirsOnly drops files entirely and prunes filter-emptied
	// subtrees that contain no directories.
	DirsOnly bool

	// FilesOnly flattens the listing: every file under the root
	// becomes a direct child, directories are walked but not retained.
	FilesOnly bool

	// Lazy stops the initial scan at the root's children; deeper
	// directories are loaded on expansion.
	Lazy bool

	Filter    Filter
	Transform Transform
	Policy    sortkey.Policy
}

// Unbounded reports whether depth is unlimited.
func (c Config) Unbounded() bool { return c.MaxDepth < 0 }

// Tree is a built snapshot plus a path index for O(1) watch-event
// lookups. All mutation happens on the owning goroutine.
type Tree struct {
	Root   *Node
	Config Config

	index map[string]*Node
	errs  []*NodeError

	// walkedDirs records the directories a files-only walk visited,
	// since they have no nodes for a watcher to find.
	walkedDirs []string
}

// WatchRoots lists the directories to subscribe a watcher to. Nil for
// hierarchical trees, where callers walk the loaded directory nodes
// instead.
func (t *Tree) WatchRoots() []string { return t.walkedDirs }

// NodeAt returns the node for an absolute path, or nil.
func (t *Tree) NodeAt(path string) *Node {
	return t.index[filepath.Clean(path)]
}

// Rel converts an absolute path to a slash-separated root-relative
// one ("." for the root itself).
func (t *Tree) Rel(path string) string {
	rel, err := filepath.Rel(t.Config.Root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Errors lists the directories that could not be scanned, in
// traversal order.
func (t *Tree) Errors() []*NodeError { return t.errs }

// Walk visits every node in display order (parent before children,
// siblings in sorted order). Return false from fn to stop.
func (t *Tree) Walk(fn func(*Node) bool) {
	var visit func(*Node) bool
	visit = func(n *Node) bool {
		if !fn(n) {
			return false
		}
		for _, c := range n.Children {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	if t.Root != nil {
		visit(t.Root)
	}
}

// InsertChild places a freshly captured entry under parent at its
// sorted position and updates aggregates up the ancestor chain.
func (t *Tree) InsertChild(parent *Node, e Entry) *Node {
	n := &Node{
		Entry:  e,
		Parent: parent,
		Depth:  parent.Depth + 1,
	}
	idx := sort.Search(len(parent.Children), func(i int) bool {
		return t.Config.Policy.Compare(e, parent.Children[i].Entry) < 0
	})
	parent.Children = append(parent.Children, nil)
	copy(parent.Children[idx+1:], parent.Children[idx:])
	parent.Children[idx] = n
	parent.hadEntries = true
	t.addIndex(n)

	size, files, dirs := n.aggregates()
	t.bubble(parent, size, files, dirs)
	return n
}

// Remove detaches a node (and its subtree) from the tree and updates
// aggregates. Removing the root is not supported.
func (t *Tree) Remove(n *Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	idx := n.childIndex()
	if idx < 0 {
		return
	}
	parent.Children = append(parent.Children[:idx], parent.Children[idx+1:]...)
	size, files, dirs := n.aggregates()
	t.bubble(parent, -size, -files, -dirs)
	t.dropIndex(n)
	n.Parent = nil
}

// Update replaces a node's entry with refreshed metadata and
// repositions it among its siblings if the sort key moved.
func (t *Tree) Update(n *Node, e Entry) {
	sizeDelta := int64(0)
	if !n.IsDir() {
		sizeDelta = e.Size - n.Entry.Size
	}
	n.Entry = e
	if sizeDelta != 0 {
		t.bubble(n.Parent, sizeDelta, 0, 0)
	}
	t.Reposition(n)
}

// Reposition re-sorts a single node among its siblings after its sort
// key changed.
func (t *Tree) Reposition(n *Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	idx := n.childIndex()
	if idx < 0 {
		return
	}
	kids := append(parent.Children[:idx:idx], parent.Children[idx+1:]...)
	at := sort.Search(len(kids), func(i int) bool {
		return t.Config.Policy.Compare(n.Entry, kids[i].Entry) < 0
	})
	kids = append(kids, nil)
	copy(kids[at+1:], kids[at:])
	kids[at] = n
	parent.Children = kids
}

// AttachChildren installs a scanned child set on a directory node and
// folds the subtree's totals into the ancestors. Any previous
// children are replaced.
func (t *Tree) AttachChildren(n *Node, kids []*Node, hadEntries bool, truncated int, scanErr *NodeError) {
	oldSize, oldFiles, oldDirs := int64(0), 0, 0
	for _, c := range n.Children {
		s, f, d := c.aggregates()
		oldSize += s
		oldFiles += f
		oldDirs += d
		t.dropIndex(c)
	}

	n.Children = kids
	n.State = Loaded
	n.hadEntries = hadEntries
	n.Truncated = truncated
	n.Err = scanErr
	if scanErr != nil {
		t.errs = append(t.errs, scanErr)
	}

	newSize, newFiles, newDirs := int64(0), 0, 0
	for _, c := range kids {
		c.Parent = n
		s, f, d := c.aggregates()
		newSize += s
		newFiles += f
		newDirs += d
		t.addIndex(c)
	}
	n.TotalSize += newSize - oldSize
	n.FileCount += newFiles - oldFiles
	n.DirCount += newDirs - oldDirs
	t.bubble(n.Parent, newSize-oldSize, newFiles-oldFiles, newDirs-oldDirs)
}

// bubble applies aggregate deltas from a node up to the root.
func (t *Tree) bubble(n *Node, size int64, files, dirs int) {
	for ; n != nil; n = n.Parent {
		n.TotalSize += size
		n.FileCount += files
		n.DirCount += dirs
	}
}

func (t *Tree) addIndex(n *Node) {
	t.index[filepath.Clean(n.Entry.Path)] = n
	for _, c := range n.Children {
		t.addIndex(c)
	}
}

func (t *Tree) dropIndex(n *Node) {
	delete(t.index, filepath.Clean(n.Entry.Path))
	for _, c := range n.Children {
		t.dropIndex(c)
	}
}
