package view

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sh1zen/wisu/internal/sortkey"
	"github.com/sh1zen/wisu/internal/tree"
)

func fixture(t *testing.T, cfg tree.Config) *tree.Tree {
	t.Helper()
	tr, err := tree.Build(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func render(t *testing.T, tr *tree.Tree, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, tr, opts); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestConnectors(t *testing.T) {
	root := t.TempDir()
	write(t, root, "sub/inner.txt", "x")
	write(t, root, "zz.txt", "x")

	out := render(t, fixture(t, tree.Config{
		Root: root, MaxDepth: -1, FileCap: -1,
		Policy: sortkey.Policy{Key: sortkey.ByName, DirsFirst: true},
	}), Options{})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	want := []string{
		root,
		"├── sub",
		"│   └── inner.txt",
		"└── zz.txt",
	}
	if len(lines) != len(want) {
		t.Fatalf("output:\n%s", out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestTruncationMarker(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"a.txt", "b.txt", "c.txt"} {
		write(t, root, f, "x")
	}

	out := render(t, fixture(t, tree.Config{
		Root: root, MaxDepth: -1, FileCap: 1,
		Policy: sortkey.Policy{Key: sortkey.ByName},
	}), Options{})

	if !strings.Contains(out, "… 2 more files") {
		t.Errorf("missing truncation marker:\n%s", out)
	}
	if !strings.Contains(out, "├── a.txt") {
		t.Errorf("kept file should not use the last-child connector:\n%s", out)
	}
}

func TestSizeAndStats(t *testing.T) {
	root := t.TempDir()
	write(t, root, "f.txt", strings.Repeat("x", 2048))

	out := render(t, fixture(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1}),
		Options{ShowSize: true, ShowStats: true})

	if !strings.Contains(out, "2.0 KiB") {
		t.Errorf("missing humanized size:\n%s", out)
	}
	if !strings.Contains(out, "0 directories, 1 files, 2.0 KiB") {
		t.Errorf("missing stats footer:\n%s", out)
	}
}

func TestPermissionsColumn(t *testing.T) {
	root := t.TempDir()
	write(t, root, "f.txt", "x")

	out := render(t, fixture(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1}),
		Options{ShowPermissions: true})

	if !strings.Contains(out, "-rw-r--r-- f.txt") {
		t.Errorf("missing permissions column:\n%s", out)
	}
}

func TestErrorFooter(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission bits are ignored for root")
	}
	root := t.TempDir()
	locked := filepath.Join(root, "locked")
	if err := os.Mkdir(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	out := render(t, fixture(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1}), Options{})
	if !strings.Contains(out, "! locked:") {
		t.Errorf("missing error footer:\n%s", out)
	}
}

func TestHyperlinks(t *testing.T) {
	root := t.TempDir()
	write(t, root, "f.txt", "x")

	out := render(t, fixture(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1}),
		Options{Hyperlinks: true})

	if !strings.Contains(out, "\x1b]8;;file://") {
		t.Errorf("missing OSC 8 hyperlink:\n%s", out)
	}
}

func TestInfoColumn(t *testing.T) {
	root := t.TempDir()
	write(t, root, "sub/a.txt", strings.Repeat("x", 1024))
	write(t, root, "sub/b.txt", strings.Repeat("x", 1024))

	out := render(t, fixture(t, tree.Config{
		Root: root, MaxDepth: -1, FileCap: -1,
		Policy: sortkey.Policy{Key: sortkey.ByName, DirsFirst: true},
	}), Options{ShowInfo: true})

	if !strings.Contains(out, "[ 2.0 KiB | 0 dirs | 2 files ]") {
		t.Errorf("missing directory info:\n%s", out)
	}
	if !strings.Contains(out, "[ 1.0 KiB ]") {
		t.Errorf("missing file size info:\n%s", out)
	}
}

func TestFilesOnlyShowsRelativePaths(t *testing.T) {
	root := t.TempDir()
	write(t, root, "src/main.go", "x")
	write(t, root, "top.txt", "x")

	out := render(t, fixture(t, tree.Config{
		Root: root, MaxDepth: -1, FileCap: -1, FilesOnly: true,
		Policy: sortkey.Policy{Key: sortkey.ByName},
	}), Options{})

	if !strings.Contains(out, "src/main.go") {
		t.Errorf("flat row should show the relative path:\n%s", out)
	}
	if strings.Contains(out, "│") {
		t.Errorf("flat listing should have no nesting:\n%s", out)
	}
}
