// Package filter decides which entries a traversal retains. The
// pipeline is a fixed AND chain of predicates plus a hook registry for
// user extensions.
package filter

import (
	"path/filepath"
	"strings"

	"github.com/sh1zen/wisu/internal/ignore"
	"github.com/sh1zen/wisu/internal/tree"
)

// Options selects which predicates are active. The zero value keeps
// everything except hidden entries.
type Options struct {
	ShowHidden     bool
	UseIgnoreRules bool
	Exclude        []string // extensions, matched case-insensitively
	Time           *TimeRange
}

// Pipeline applies the configured predicates in a fixed order: hidden
// policy, ignore rules, extension exclusion, time range. Extension and
// time predicates never reject directories.
type Pipeline struct {
	root       string
	showHidden bool
	exclude    map[string]struct{}
	timeRange  *TimeRange
	rules      *ignore.Ruleset
	hooks      *Registry
}

// New builds a pipeline rooted at the traversal root. hooks may be
// nil.
func New(root string, opts Options, hooks *Registry) *Pipeline {
	p := &Pipeline{
		root:       filepath.Clean(root),
		showHidden: opts.ShowHidden,
		timeRange:  opts.Time,
		hooks:      hooks,
	}
	if len(opts.Exclude) > 0 {
		p.exclude = make(map[string]struct{}, len(opts.Exclude))
		for _, ext := range opts.Exclude {
			ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
			if ext != "" {
				p.exclude[ext] = struct{}{}
			}
		}
	}
	if opts.UseIgnoreRules {
		p.rules = ignore.NewRuleset(p.root)
	}
	return p
}

// Keep reports whether the entry survives every predicate. A rejected
// directory prunes its whole subtree.
func (p *Pipeline) Keep(e tree.Entry) bool {
	if !p.showHidden && e.Hidden() {
		return false
	}
	if p.rules != nil {
		rel, err := filepath.Rel(p.root, e.Path)
		if err == nil && p.rules.Ignored(filepath.ToSlash(rel), e.IsDir()) {
			return false
		}
	}
	if e.IsDir() {
		return true
	}
	if _, excluded := p.exclude[e.Ext]; excluded {
		return false
	}
	if p.timeRange != nil && !p.timeRange.Contains(e.ModTime) {
		return false
	}
	return true
}

// TransformChildren runs the directory-listing extension point over a
// directory's retained entries.
func (p *Pipeline) TransformChildren(parent tree.Entry, children []tree.Entry) []tree.Entry {
	if p.hooks == nil {
		return children
	}
	return Apply(p.hooks, PointDirEntries, children)
}

// Rules exposes the ignore ruleset so the watcher can invalidate
// cached matchers when an ignore file changes. Nil when ignore rules
// are disabled.
func (p *Pipeline) Rules() *ignore.Ruleset { return p.rules }
