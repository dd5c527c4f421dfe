package session

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"

	"github.com/sh1zen/wisu/internal/tree"
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteByte('\n')

	h := m.listHeight()
	end := m.offset + h
	if end > len(m.visible) {
		end = len(m.visible)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.rowView(m.visible[i], i == m.cursor))
		b.WriteByte('\n')
	}
	for i := end - m.offset; i < h; i++ {
		b.WriteByte('\n')
	}

	b.WriteString(m.statusView())
	return b.String()
}

func (m *Model) headerView() string {
	title := m.tree.Root.Path()
	switch {
	case m.building:
		title += " ⟳"
	case m.degraded:
		title += " " + m.styles.Degraded.Render("(polling)")
	case m.coord != nil:
		title += " (watching)"
	}
	return ansi.Truncate(m.styles.Header.Render(title), m.width, "…")
}

func (m *Model) rowView(n *tree.Node, selected bool) string {
	indent := strings.Repeat("  ", n.Depth-1)

	marker := "  "
	if n.Expandable() {
		if m.isExpanded(n) {
			marker = "▾ "
		} else {
			marker = "▸ "
		}
	}

	style := m.styles.File
	switch {
	case m.matches != nil && m.matches.IsMatch(n.Path()):
		style = m.styles.Match
	case n.Entry.Kind == tree.KindDir:
		style = m.styles.Dir
	case n.Entry.Kind == tree.KindSymlink:
		style = m.styles.Symlink
	}
	if m.matches != nil && !m.matches.IsMatch(n.Path()) {
		style = m.styles.Ancestor
	}
	base := n.Name()
	if m.tree.Config.FilesOnly {
		base = m.tree.Rel(n.Path())
	}
	name := style.Render(base)

	extras := ""
	if n.IsDir() && n.Truncated > 0 {
		extras += " " + m.styles.Truncated.Render(fmt.Sprintf("(+%d)", n.Truncated))
	}
	if n.Err != nil {
		extras += " " + m.styles.Error.Render("[unreadable]")
	}
	if m.cfg.ShowInfo && n.IsDir() {
		extras += " " + m.styles.Size.Render(fmt.Sprintf("%d dirs · %d files", n.DirCount, n.FileCount))
	}
	if m.cfg.ShowSize {
		size := n.Entry.Size
		if n.IsDir() {
			size = n.TotalSize
		}
		extras += " " + m.styles.Size.Render(humanize.IBytes(uint64(size)))
	}

	line := indent + marker + name + extras
	if m.width > 0 {
		// Styled segments carry escape sequences, so cut on cells, not
		// bytes.
		line = ansi.Truncate(line, m.width, "…")
	}
	if selected {
		pad := m.width - lipgloss.Width(line)
		if pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		return m.styles.Cursor.Render(line)
	}
	return line
}

func (m *Model) statusView() string {
	if m.mode == modeSearch {
		left := m.input.View()
		if m.matches != nil {
			left += m.styles.StatusKey.Render(fmt.Sprintf("  %d matches", m.matches.Count()))
		}
		return left
	}

	left := m.status
	if left == "" {
		left = "j/k move · enter open · / search · r refresh · y yank · q quit"
	}
	right := fmt.Sprintf("%d dirs · %d files · %s",
		m.tree.Root.DirCount, m.tree.Root.FileCount,
		humanize.IBytes(uint64(m.tree.Root.TotalSize)))

	gap := m.width - runewidth.StringWidth(left) - runewidth.StringWidth(right) - 1
	if gap < 1 {
		gap = 1
	}
	return m.styles.Status.Render(left + strings.Repeat(" ", gap) + right)
}
