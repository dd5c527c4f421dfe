// Package session is the interactive tree explorer built on
// bubbletea. The model owns the tree; filesystem events and rebuilt
// trees arrive as messages so every mutation happens on the update
// loop.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sh1zen/wisu/internal/config"
	"github.com/sh1zen/wisu/internal/filter"
	"github.com/sh1zen/wisu/internal/launch"
	"github.com/sh1zen/wisu/internal/search"
	"github.com/sh1zen/wisu/internal/tree"
	"github.com/sh1zen/wisu/internal/watch"
)

const (
	// debounce batches bursts of filesystem events before applying.
	debounce = 300 * time.Millisecond
	// rescanEvery drives the fallback poll while the subscription is
	// degraded.
	rescanEvery = 2 * time.Second
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
)

type (
	watchWakeMsg  struct{}
	flushMsg      struct{}
	rescanMsg     struct{}
	editorDoneMsg struct{ err error }
	buildDoneMsg  struct {
		tree     *tree.Tree
		pipeline *filter.Pipeline
		err      error
	}
)

// Model is the bubbletea model for one session.
type Model struct {
	cfg    *config.Config
	logger *slog.Logger
	styles Styles
	hooks  *filter.Registry

	tree     *tree.Tree
	pipeline *filter.Pipeline
	coord    *watch.Coordinator
	applier  *watch.Applier

	mode    mode
	input   textinput.Model
	query   search.Query
	matches *search.MatchSet

	expanded map[string]bool
	visible  []*tree.Node
	cursor   int
	offset   int

	width  int
	height int

	status   string
	degraded bool
	building bool
	primed   bool
	cancel   context.CancelFunc

	// QuitPath is set when the user quits with "print path"; the
	// caller emits it on stdout after the terminal is restored.
	QuitPath string
}

// New builds the initial model around a root-only placeholder tree;
// the full scan runs as a command from Init so a huge root never
// blocks input. The scan itself is eager so search and watch cover
// the whole tree; expansion state only controls display.
func New(cfg *config.Config, logger *slog.Logger, hooks *filter.Registry) (*Model, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, err
	}
	opts, err := cfg.FilterOptions()
	if err != nil {
		return nil, err
	}
	pipeline := filter.New(root, opts, hooks)

	// MaxDepth 0 stats the root and nothing else, surfacing an
	// unreadable root before the terminal is taken over.
	t, err := tree.Build(context.Background(), tree.Config{
		Root:   root,
		Policy: cfg.Policy(),
	})
	if err != nil {
		return nil, err
	}

	input := textinput.New()
	input.Prompt = "/"
	input.Placeholder = "name, r:regex, p:path"

	m := &Model{
		cfg:      cfg,
		logger:   logger,
		styles:   DefaultStyles(),
		hooks:    hooks,
		tree:     t,
		pipeline: pipeline,
		input:    input,
		expanded: make(map[string]bool),
		height:   24,
		width:    80,
	}

	if cfg.Watch {
		coord, err := watch.New(logger)
		if err != nil {
			logger.Warn("watcher unavailable, falling back to manual refresh", "error", err)
		} else {
			m.coord = coord
			m.applier = &watch.Applier{Tree: t, Filter: pipeline, Coord: coord, Logger: logger}
		}
	}

	m.rebuildVisible()
	return m, nil
}

// Close releases the watcher subscription.
func (m *Model) Close() {
	if m.coord != nil {
		m.coord.Close()
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.rebuild(m.tree.Root.Path())}
	if m.coord != nil {
		cmds = append(cmds, m.listenWatch())
	}
	return tea.Batch(cmds...)
}

func (m *Model) listenWatch() tea.Cmd {
	wake := m.coord.Wake()
	return func() tea.Msg {
		<-wake
		return watchWakeMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.clampScroll()
		return m, nil

	case watchWakeMsg:
		return m, tea.Tick(debounce, func(time.Time) tea.Msg { return flushMsg{} })

	case flushMsg:
		res := m.applier.Apply(context.Background(), m.coord.Drain())
		cmds := []tea.Cmd{m.listenWatch()}
		if res.Degraded && !m.degraded {
			m.degraded = true
			m.status = "watch degraded, polling"
			cmds = append(cmds, tea.Tick(rescanEvery, func(time.Time) tea.Msg { return rescanMsg{} }))
		}
		if res.Changed {
			m.pruneExpanded()
			m.refreshMatches()
			m.rebuildVisible()
		}
		return m, tea.Batch(cmds...)

	case rescanMsg:
		if !m.degraded {
			return m, nil
		}
		m.applier.RescanLoaded(context.Background())
		m.pruneExpanded()
		m.refreshMatches()
		m.rebuildVisible()
		return m, tea.Tick(rescanEvery, func(time.Time) tea.Msg { return rescanMsg{} })

	case buildDoneMsg:
		return m.finishBuild(msg)

	case editorDoneMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("editor: %v", msg.err)
		}
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress {
			switch msg.Button {
			case tea.MouseButtonWheelUp:
				m.move(-3)
			case tea.MouseButtonWheelDown:
				m.move(3)
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeSearch {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "ctrl+s":
		if n := m.current(); n != nil {
			m.QuitPath = n.Path()
		} else {
			m.QuitPath = m.tree.Root.Path()
		}
		return m, tea.Quit

	case "j", "down":
		m.move(1)
	case "k", "up":
		m.move(-1)
	case "ctrl+d", "pgdown":
		m.move(m.listHeight() / 2)
	case "ctrl+u", "pgup":
		m.move(-m.listHeight() / 2)
	case "g", "home":
		m.cursor = 0
		m.clampScroll()
	case "G", "end":
		m.cursor = len(m.visible) - 1
		m.clampScroll()

	case "l", "right", "enter":
		n := m.current()
		if n == nil {
			break
		}
		if n.Expandable() {
			m.expandNode(n)
			m.rebuildVisible()
		} else if msg.String() == "enter" {
			if err := launch.Open(n.Path()); err != nil {
				m.status = fmt.Sprintf("open: %v", err)
			}
		}

	case "h", "left":
		n := m.current()
		if n == nil {
			break
		}
		if n.IsDir() && m.expanded[n.Path()] {
			delete(m.expanded, n.Path())
			m.rebuildVisible()
		} else if n.Parent != nil && n.Parent.Parent != nil {
			m.moveTo(n.Parent)
		}

	case "tab":
		if n := m.current(); n != nil && n.Expandable() {
			return m, m.rebuild(n.Path())
		}

	case "shift+tab":
		parent := filepath.Dir(m.tree.Root.Path())
		if parent != m.tree.Root.Path() {
			return m, m.rebuild(parent)
		}

	case "e":
		if n := m.current(); n != nil && !n.IsDir() {
			return m, tea.ExecProcess(launch.EditorCmd(n.Path()), func(err error) tea.Msg {
				return editorDoneMsg{err: err}
			})
		}

	case "o":
		if n := m.current(); n != nil {
			if err := launch.Open(n.Path()); err != nil {
				m.status = fmt.Sprintf("open: %v", err)
			}
		}

	case "O":
		if n := m.current(); n != nil {
			if err := launch.Reveal(n.Path()); err != nil {
				m.status = fmt.Sprintf("reveal: %v", err)
			}
		}

	case "ctrl+t":
		dir := m.tree.Root.Path()
		if n := m.current(); n != nil {
			if n.IsDir() {
				dir = n.Path()
			} else {
				dir = filepath.Dir(n.Path())
			}
		}
		if err := launch.Terminal(dir); err != nil {
			m.status = fmt.Sprintf("terminal: %v", err)
		}

	case "y":
		if n := m.current(); n != nil {
			if err := clipboard.WriteAll(n.Path()); err != nil {
				m.status = fmt.Sprintf("yank: %v", err)
			} else {
				m.status = "path copied"
			}
		}

	case "/":
		m.mode = modeSearch
		m.input.SetValue("")
		return m, m.input.Focus()

	case "esc":
		if m.matches != nil {
			m.clearSearch()
			m.rebuildVisible()
		}

	case "r":
		return m, m.rebuild(m.tree.Root.Path())
	}
	return m, nil
}

func (m *Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		m.clearSearch()
		m.rebuildVisible()
		return m, nil
	case "enter":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	q, err := search.Parse(m.input.Value())
	if err != nil {
		// Keep the previous match set; the query is still being
		// typed.
		m.status = err.Error()
		return m, cmd
	}
	m.status = ""
	m.query = q
	if q.Empty() {
		m.matches = nil
	} else {
		m.matches = search.Run(m.tree, q)
	}
	m.rebuildVisible()
	return m, cmd
}

// rebuild starts an asynchronous full build rooted at root,
// cancelling any build already in flight.
func (m *Model) rebuild(root string) tea.Cmd {
	if m.cancel != nil {
		m.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.building = true
	m.status = "scanning…"

	opts, err := m.cfg.FilterOptions()
	if err != nil {
		m.status = err.Error()
		return nil
	}
	pipeline := filter.New(root, opts, m.hooks)
	cfg := tree.Config{
		Root:      root,
		MaxDepth:  m.cfg.MaxDepth,
		FileCap:   m.cfg.FileCap,
		DirsOnly:  m.cfg.DirsOnly,
		FilesOnly: m.cfg.FilesOnly,
		Filter:    pipeline,
		Transform: pipeline,
		Policy:    m.cfg.Policy(),
	}
	return func() tea.Msg {
		t, err := tree.Build(ctx, cfg)
		return buildDoneMsg{tree: t, pipeline: pipeline, err: err}
	}
}

func (m *Model) finishBuild(msg buildDoneMsg) (tea.Model, tea.Cmd) {
	m.building = false
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			m.status = "build interrupted"
		} else {
			m.status = msg.err.Error()
		}
		return m, nil
	}

	m.tree = msg.tree
	m.pipeline = msg.pipeline
	m.status = ""
	if m.applier != nil {
		m.applier.Tree = m.tree
		m.applier.Filter = m.pipeline
	}

	if !m.primed {
		m.primed = true
		m.preExpand(m.tree.Root, m.cfg.ExpandLevel)
	}
	m.restoreExpansion(m.tree.Root)
	if m.coord != nil {
		m.addWatches(m.tree.Root)
	}
	m.refreshMatches()
	m.rebuildVisible()
	return m, nil
}

// expandNode marks a directory expanded, loading its children on
// first use and subscribing the watcher to the new level.
func (m *Model) expandNode(n *tree.Node) {
	if n.State == tree.NotLoaded {
		if err := m.tree.LoadChildren(context.Background(), n); err != nil {
			m.status = err.Error()
			return
		}
		if m.coord != nil {
			if err := m.coord.Add(n.Path()); err != nil {
				m.logger.Warn("watch add failed", "path", n.Path(), "error", err)
			}
		}
	}
	m.expanded[n.Path()] = true
}

// preExpand loads and expands directories above the configured level.
// Level 1 shows just the root's children.
func (m *Model) preExpand(n *tree.Node, level int) {
	for _, c := range n.Children {
		if c.Expandable() && c.Depth < level {
			m.expandNode(c)
			m.preExpand(c, level)
		}
	}
}

// restoreExpansion re-loads directories that were expanded before a
// rebuild and still exist.
func (m *Model) restoreExpansion(n *tree.Node) {
	for _, c := range n.Children {
		if !c.Expandable() || !m.expanded[c.Path()] {
			continue
		}
		if c.State == tree.NotLoaded {
			if err := m.tree.LoadChildren(context.Background(), c); err != nil {
				continue
			}
		}
		m.restoreExpansion(c)
	}
}

// addWatches subscribes every loaded directory. Files-only trees keep
// no directory nodes, so the walked directory list stands in.
func (m *Model) addWatches(n *tree.Node) {
	if m.tree.Config.FilesOnly {
		for _, dir := range m.tree.WatchRoots() {
			if err := m.coord.Add(dir); err != nil {
				m.logger.Warn("watch add failed", "path", dir, "error", err)
			}
		}
		return
	}
	if !n.IsDir() || n.State != tree.Loaded {
		return
	}
	if err := m.coord.Add(n.Path()); err != nil {
		m.logger.Warn("watch add failed", "path", n.Path(), "error", err)
	}
	for _, c := range n.Children {
		m.addWatches(c)
	}
}

func (m *Model) clearSearch() {
	m.matches = nil
	m.query = search.Query{}
	m.input.SetValue("")
	m.status = ""
}

func (m *Model) refreshMatches() {
	if m.matches == nil {
		return
	}
	m.matches = search.Run(m.tree, m.query)
}

func (m *Model) current() *tree.Node {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return nil
	}
	return m.visible[m.cursor]
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clampScroll()
}

func (m *Model) moveTo(n *tree.Node) {
	for i, v := range m.visible {
		if v == n {
			m.cursor = i
			m.clampScroll()
			return
		}
	}
}
