package ignore

import (
	"os"
	"path"
	"path/filepath"
)

// ignoreFiles are checked in each directory, lowest priority first so
// later files can override with negations.
var ignoreFiles = []string{".gitignore", ".ignore", ".wisuignore"}

// IsRuleFile reports whether a base name is one of the ignore files
// this package reads, so watchers can invalidate on changes to them.
func IsRuleFile(name string) bool {
	for _, f := range ignoreFiles {
		if name == f {
			return true
		}
	}
	return false
}

// Ruleset resolves the effective ignore matcher for any directory
// under the root. Each directory's matcher is its parent's clone
// extended with the directory's own ignore files, giving patterns
// from nearer files precedence.
type Ruleset struct {
	root  string
	cache map[string]*Matcher
}

// NewRuleset builds the root matcher, picking up the repository's
// .git/info/exclude when present.
func NewRuleset(root string) *Ruleset {
	r := &Ruleset{
		root:  root,
		cache: make(map[string]*Matcher),
	}
	base := NewMatcher()
	r.addFile(base, filepath.Join(root, ".git", "info", "exclude"), ".")
	r.addDirFiles(base, root, ".")
	r.cache["."] = base
	return r
}

// MatcherFor returns the matcher in effect for the given root-relative
// directory ("." for the root itself).
func (r *Ruleset) MatcherFor(relDir string) *Matcher {
	key := normalizeKey(relDir)
	if m, ok := r.cache[key]; ok {
		return m
	}
	parent := r.MatcherFor(parentKey(key))
	m := parent.Clone()
	r.addDirFiles(m, filepath.Join(r.root, filepath.FromSlash(key)), key)
	r.cache[key] = m
	return m
}

// Ignored reports whether a root-relative path is excluded by the
// rules in effect for its parent directory.
func (r *Ruleset) Ignored(rel string, isDir bool) bool {
	dir := path.Dir(rel)
	return r.MatcherFor(dir).Match(rel, isDir)
}

// Invalidate drops cached matchers at or below relDir, forcing a
// re-read after an ignore file changes.
func (r *Ruleset) Invalidate(relDir string) {
	key := normalizeKey(relDir)
	for k := range r.cache {
		if k == key || key == "." || (len(k) > len(key) && k[:len(key)] == key && k[len(key)] == '/') {
			delete(r.cache, k)
		}
	}
	if _, ok := r.cache["."]; !ok {
		base := NewMatcher()
		r.addFile(base, filepath.Join(r.root, ".git", "info", "exclude"), ".")
		r.addDirFiles(base, r.root, ".")
		r.cache["."] = base
	}
}

func (r *Ruleset) addDirFiles(m *Matcher, dir, key string) {
	for _, name := range ignoreFiles {
		r.addFile(m, filepath.Join(dir, name), key)
	}
}

func (r *Ruleset) addFile(m *Matcher, file, key string) {
	data, err := os.ReadFile(file)
	if err != nil || len(data) == 0 {
		return
	}
	base := ""
	if key != "." {
		base = key
	}
	m.AddPatterns(string(data), base)
}

func normalizeKey(relDir string) string {
	if relDir == "" || relDir == "/" {
		return "."
	}
	cleaned := path.Clean(filepath.ToSlash(relDir))
	if cleaned == "" || cleaned == "." || cleaned == "/" {
		return "."
	}
	return cleaned
}

func parentKey(key string) string {
	if key == "." {
		return "."
	}
	parent := path.Dir(key)
	if parent == "/" {
		return "."
	}
	return parent
}
