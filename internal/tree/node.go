package tree

// ChildState tags whether a directory node's children have been
// scanned yet. Lazy builds leave deep directories NotLoaded until the
// session expands them.
type ChildState int

const (
	NotLoaded ChildState = iota
	Loaded
)

// Node is one row of the tree. Children are ordered by the active
// sort policy; aggregates cover retained descendants only.
type Node struct {
	Entry    Entry
	Parent   *Node
	Depth    int
	Children []*Node
	State    ChildState

	// Truncated counts files suppressed in this directory by the
	// per-directory file cap.
	Truncated int

	// Err is set when this directory could not be scanned.
	Err *NodeError

	TotalSize int64
	FileCount int
	DirCount  int

	// hadEntries records whether the raw scan saw anything at all,
	// before filtering. Distinguishes genuinely empty directories
	// from ones emptied by filters.
	hadEntries bool
}

// IsDir reports whether the node is a directory.
func (n *Node) IsDir() bool { return n.Entry.IsDir() }

// Path returns the node's absolute path.
func (n *Node) Path() string { return n.Entry.Path }

// Name returns the node's base name.
func (n *Node) Name() string { return n.Entry.Name }

// Expandable reports whether the node can hold children in the
// display: a readable directory, loaded or not.
func (n *Node) Expandable() bool {
	return n.IsDir() && n.Err == nil
}

// IsLast reports whether the node is the final child of its parent,
// which decides the branch connector glyph.
func (n *Node) IsLast() bool {
	if n.Parent == nil {
		return true
	}
	kids := n.Parent.Children
	return len(kids) > 0 && kids[len(kids)-1] == n
}

// childIndex returns n's position among its parent's children, or -1.
func (n *Node) childIndex() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// aggregates returns the subtree totals this node contributes to its
// parent.
func (n *Node) aggregates() (size int64, files, dirs int) {
	if n.IsDir() {
		return n.TotalSize, n.FileCount, n.DirCount + 1
	}
	return n.Entry.Size, 1, 0
}
