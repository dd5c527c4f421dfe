// Package ignore implements gitignore-style pattern matching with
// standard negation syntax and nearest-file precedence.
package ignore

import (
	"path"
	"strings"
)

type pattern struct {
	glob     string // processed pattern, slash-separated
	base     string // rel dir of the source ignore file ("" = root)
	negate   bool
	dirOnly  bool
	anchored bool // contains a slash: relative to base, not any level
}

// Matcher holds an ordered pattern list. Later patterns override
// earlier ones, so negations work the way git's do.
type Matcher struct {
	patterns []pattern
}

func NewMatcher() *Matcher { return &Matcher{} }

// Clone copies the matcher so a subdirectory can layer its own ignore
// file on top without mutating the parent's rule set.
func (m *Matcher) Clone() *Matcher {
	c := NewMatcher()
	if len(m.patterns) > 0 {
		c.patterns = make([]pattern, len(m.patterns))
		copy(c.patterns, m.patterns)
	}
	return c
}

// AddPatterns parses ignore-file content found in base (root-relative,
// slash-separated, "" for the root itself) and appends its rules.
func (m *Matcher) AddPatterns(content, base string) {
	for _, line := range strings.Split(content, "\n") {
		m.addLine(line, base)
	}
}

func (m *Matcher) addLine(line, base string) {
	line = strings.TrimRight(line, "\r")
	line = trimUnescapedTrailingSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	p := pattern{base: base}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	line = unescape(line)
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		line = line[1:]
		p.anchored = true
	}
	if line == "" {
		return
	}
	// A slash anywhere in the body anchors the pattern to its base
	// directory; otherwise it matches a name at any depth.
	if strings.Contains(line, "/") {
		p.anchored = true
	}
	p.glob = line
	m.patterns = append(m.patterns, p)
}

// Match reports whether the root-relative slash-separated path is
// ignored. The last matching pattern wins.
func (m *Matcher) Match(rel string, isDir bool) bool {
	ignored := false
	for _, p := range m.patterns {
		if p.matches(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}

func (p pattern) matches(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	target := rel
	if p.base != "" {
		if !strings.HasPrefix(rel, p.base+"/") {
			return false
		}
		target = rel[len(p.base)+1:]
	}
	if !p.anchored {
		return segMatch(p.glob, path.Base(target))
	}
	return globMatch(p.glob, target)
}

// globMatch matches a slash-separated pattern (with ** support)
// against a slash-separated path.
func globMatch(glob, target string) bool {
	return matchSegs(strings.Split(glob, "/"), strings.Split(target, "/"))
}

func matchSegs(pat, segs []string) bool {
	if len(pat) == 0 {
		return len(segs) == 0
	}
	if pat[0] == "**" {
		if len(pat) == 1 {
			// Trailing ** matches anything inside, not the dir itself.
			return len(segs) >= 1
		}
		for i := 0; i <= len(segs); i++ {
			if matchSegs(pat[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	return segMatch(pat[0], segs[0]) && matchSegs(pat[1:], segs[1:])
}

// segMatch is fnmatch over a single path segment: * and ? never cross
// a slash (segments are pre-split), [class] supports ranges and !
// negation.
func segMatch(pat, s string) bool {
	return segMatchAt(pat, s, 0, 0)
}

func segMatchAt(pat, s string, pi, si int) bool {
	for pi < len(pat) {
		switch c := pat[pi]; c {
		case '*':
			// Collapse runs of * (a lone ** inside a segment behaves
			// like *).
			for pi < len(pat) && pat[pi] == '*' {
				pi++
			}
			if pi == len(pat) {
				return true
			}
			for k := si; k <= len(s); k++ {
				if segMatchAt(pat, s, pi, k) {
					return true
				}
			}
			return false
		case '?':
			if si >= len(s) {
				return false
			}
			pi++
			si++
		case '[':
			end := closingBracket(pat, pi)
			if end < 0 {
				if si >= len(s) || s[si] != '[' {
					return false
				}
				pi++
				si++
				continue
			}
			if si >= len(s) || !classMatch(pat[pi+1:end], s[si]) {
				return false
			}
			pi = end + 1
			si++
		case '\\':
			if pi+1 >= len(pat) {
				return false
			}
			pi++
			if si >= len(s) || s[si] != pat[pi] {
				return false
			}
			pi++
			si++
		default:
			if si >= len(s) || s[si] != c {
				return false
			}
			pi++
			si++
		}
	}
	return si == len(s)
}

func closingBracket(pat string, start int) int {
	for i := start + 1; i < len(pat); i++ {
		switch pat[i] {
		case '\\':
			i++
		case ']':
			return i
		}
	}
	return -1
}

func classMatch(class string, c byte) bool {
	negate := false
	if strings.HasPrefix(class, "!") || strings.HasPrefix(class, "^") {
		negate = true
		class = class[1:]
	}
	matched := false
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if c >= class[i] && c <= class[i+2] {
				matched = true
			}
			i += 2
			continue
		}
		if class[i] == c {
			matched = true
		}
	}
	if negate {
		return !matched
	}
	return matched
}

func unescape(line string) string {
	if !strings.ContainsRune(line, '\\') {
		return line
	}
	var b strings.Builder
	for i := 0; i < len(line); i++ {
		if line[i] == '\\' && i+1 < len(line) {
			switch line[i+1] {
			case '#', '!', ' ':
				i++
			}
		}
		b.WriteByte(line[i])
	}
	return b.String()
}

func trimUnescapedTrailingSpace(line string) string {
	i := len(line)
	for i > 0 && line[i-1] == ' ' {
		backslashes := 0
		for j := i - 2; j >= 0 && line[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 1 {
			break
		}
		i--
	}
	return line[:i]
}
