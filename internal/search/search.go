// Package search filters the built tree down to entries matching an
// interactive query, keeping every ancestor of a match visible so the
// result still reads as a tree.
package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sh1zen/wisu/internal/tree"
)

// Mode selects how the query text is interpreted.
type Mode int

const (
	// Literal matches a case-insensitive substring.
	Literal Mode = iota
	// Regex matches the pattern as written.
	Regex
)

// InvalidQueryError wraps a query that failed to parse, typically a
// malformed regular expression. It is never fatal: the caller keeps
// the previous match set.
type InvalidQueryError struct {
	Query string
	Err   error
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query %q: %v", e.Query, e.Err)
}

func (e *InvalidQueryError) Unwrap() error { return e.Err }

// Query is a parsed search input. The prefix "r:" switches to regex
// mode and "p:" matches against the root-relative path instead of the
// base name; the prefixes combine in either order.
type Query struct {
	Raw      string
	Mode     Mode
	FullPath bool

	needle string
	re     *regexp.Regexp
}

// Parse interprets a raw query string.
func Parse(raw string) (Query, error) {
	q := Query{Raw: raw}
	rest := raw
prefixes:
	for {
		switch {
		case q.Mode == Literal && strings.HasPrefix(rest, "r:"):
			q.Mode = Regex
			rest = rest[2:]
		case !q.FullPath && strings.HasPrefix(rest, "p:"):
			q.FullPath = true
			rest = rest[2:]
		default:
			break prefixes
		}
	}
	if q.Mode == Regex {
		re, err := regexp.Compile(rest)
		if err != nil {
			return Query{}, &InvalidQueryError{Query: raw, Err: err}
		}
		q.re = re
	} else {
		q.needle = strings.ToLower(rest)
	}
	return q, nil
}

// Empty reports whether the query matches everything.
func (q Query) Empty() bool {
	return q.Mode == Literal && q.needle == ""
}

func (q Query) matches(name, rel string) bool {
	target := name
	if q.FullPath {
		target = rel
	}
	if q.Mode == Regex {
		return q.re.MatchString(target)
	}
	return strings.Contains(strings.ToLower(target), q.needle)
}

// MatchSet is the outcome of running a query: directly matched paths
// and the ancestor directories kept visible to connect them to the
// root. A directory that matches directly is in Matched even when it
// also has matching descendants.
type MatchSet struct {
	Matched   map[string]struct{}
	Ancestors map[string]struct{}
}

// Run evaluates the query over every loaded node.
func Run(t *tree.Tree, q Query) *MatchSet {
	s := &MatchSet{
		Matched:   make(map[string]struct{}),
		Ancestors: make(map[string]struct{}),
	}
	t.Walk(func(n *tree.Node) bool {
		if n.Parent == nil {
			return true // the root frames the result, it never matches
		}
		if !q.matches(n.Name(), t.Rel(n.Path())) {
			return true
		}
		s.Matched[n.Path()] = struct{}{}
		for p := n.Parent; p != nil; p = p.Parent {
			if _, done := s.Ancestors[p.Path()]; done {
				break
			}
			s.Ancestors[p.Path()] = struct{}{}
		}
		return true
	})
	return s
}

// IsMatch reports whether the path matched the query directly.
func (s *MatchSet) IsMatch(path string) bool {
	_, ok := s.Matched[path]
	return ok
}

// Visible reports whether the path should be displayed while the
// match set is active.
func (s *MatchSet) Visible(path string) bool {
	if _, ok := s.Matched[path]; ok {
		return true
	}
	_, ok := s.Ancestors[path]
	return ok
}

// Count returns the number of direct matches.
func (s *MatchSet) Count() int { return len(s.Matched) }
