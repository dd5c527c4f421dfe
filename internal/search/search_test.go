package search

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sh1zen/wisu/internal/tree"
)

func buildFixture(t *testing.T) (*tree.Tree, string) {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{"src/main.rs", "src/lib.rs", "docs/readme.md"} {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	tr, err := tree.Build(context.Background(), tree.Config{
		Root:     root,
		MaxDepth: -1,
		FileCap:  -1,
	})
	if err != nil {
		t.Fatal(err)
	}
	return tr, tr.Config.Root
}

func mustParse(t *testing.T, raw string) Query {
	t.Helper()
	q, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return q
}

func TestLiteralMatchKeepsAncestors(t *testing.T) {
	tr, root := buildFixture(t)
	s := Run(tr, mustParse(t, "main"))

	if !s.IsMatch(filepath.Join(root, "src", "main.rs")) {
		t.Error("src/main.rs should match")
	}
	if !s.Visible(filepath.Join(root, "src")) {
		t.Error("src should stay visible as an ancestor")
	}
	if s.IsMatch(filepath.Join(root, "src")) {
		t.Error("src is an ancestor, not a match")
	}
	if s.Visible(filepath.Join(root, "src", "lib.rs")) {
		t.Error("src/lib.rs must be hidden")
	}
	if s.Count() != 1 {
		t.Errorf("Count() = %d, want 1", s.Count())
	}
}

func TestLiteralIsCaseInsensitive(t *testing.T) {
	tr, root := buildFixture(t)
	s := Run(tr, mustParse(t, "MAIN"))
	if !s.IsMatch(filepath.Join(root, "src", "main.rs")) {
		t.Error("literal match should ignore case")
	}
}

func TestMatchedDirectoryIsAMatch(t *testing.T) {
	tr, root := buildFixture(t)
	s := Run(tr, mustParse(t, "src"))

	if !s.IsMatch(filepath.Join(root, "src")) {
		t.Error("a directory matching the query is a match, not an ancestor")
	}
}

func TestRegexMode(t *testing.T) {
	tr, root := buildFixture(t)
	s := Run(tr, mustParse(t, `r:\.rs$`))

	if s.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", s.Count())
	}
	if s.Visible(filepath.Join(root, "docs", "readme.md")) {
		t.Error("readme.md should not be visible")
	}
}

func TestFullPathMode(t *testing.T) {
	tr, root := buildFixture(t)
	s := Run(tr, mustParse(t, "p:src/li"))

	if !s.IsMatch(filepath.Join(root, "src", "lib.rs")) {
		t.Error("full-path mode should match across separators")
	}

	// Base-name mode must not see the separator.
	s = Run(tr, mustParse(t, "src/li"))
	if s.Count() != 0 {
		t.Errorf("base-name query matched %d entries, want 0", s.Count())
	}
}

func TestCombinedPrefixes(t *testing.T) {
	tr, root := buildFixture(t)
	for _, raw := range []string{`p:r:^src/`, `r:p:^src/`} {
		s := Run(tr, mustParse(t, raw))
		if !s.IsMatch(filepath.Join(root, "src", "main.rs")) {
			t.Errorf("query %q should match src/main.rs", raw)
		}
	}
}

func TestInvalidRegexReported(t *testing.T) {
	_, err := Parse("r:[unclosed")
	var iq *InvalidQueryError
	if !errors.As(err, &iq) {
		t.Fatalf("err = %v, want InvalidQueryError", err)
	}
}

func TestEmptyQuery(t *testing.T) {
	if !mustParse(t, "").Empty() {
		t.Error("empty string should be the empty query")
	}
	if mustParse(t, "x").Empty() {
		t.Error("non-empty literal reported as empty")
	}
}
