package session

import (
	"path/filepath"

	"github.com/sh1zen/wisu/internal/tree"
)

// rebuildVisible flattens the tree into the displayed row list,
// honoring expansion state and the active match set. The highlight
// follows the selected node's path, not its old row index, so rows
// inserted or removed above it do not shift the selection.
func (m *Model) rebuildVisible() {
	var selected string
	if n := m.current(); n != nil {
		selected = n.Path()
	}
	m.visible = m.visible[:0]
	m.appendVisible(m.tree.Root)
	m.restoreSelection(selected)
	m.clampScroll()
}

// restoreSelection moves the cursor back to path, or to its nearest
// surviving ancestor when the node is gone.
func (m *Model) restoreSelection(path string) {
	for path != "" {
		for i, n := range m.visible {
			if n.Path() == path {
				m.cursor = i
				return
			}
		}
		parent := filepath.Dir(path)
		if parent == path {
			return
		}
		path = parent
	}
}

// pruneExpanded discards expansion state for paths the tree no longer
// holds.
func (m *Model) pruneExpanded() {
	for path := range m.expanded {
		if m.tree.NodeAt(path) == nil {
			delete(m.expanded, path)
		}
	}
}

func (m *Model) appendVisible(n *tree.Node) {
	for _, c := range n.Children {
		if m.matches != nil && !m.matches.Visible(c.Path()) {
			continue
		}
		m.visible = append(m.visible, c)
		if c.IsDir() && m.isExpanded(c) {
			m.appendVisible(c)
		}
	}
}

// isExpanded treats match-set ancestors as expanded so results stay
// connected to the root while a search is active.
func (m *Model) isExpanded(n *tree.Node) bool {
	if m.expanded[n.Path()] {
		return true
	}
	if m.matches == nil {
		return false
	}
	_, ok := m.matches.Ancestors[n.Path()]
	return ok
}

// listHeight is the number of rows the tree pane can show.
func (m *Model) listHeight() int {
	h := m.height - 2 // header and status line
	if h < 1 {
		return 1
	}
	return h
}

func (m *Model) clampScroll() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}
