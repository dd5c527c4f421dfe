package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fsnotify/fsnotify"
	"github.com/sh1zen/wisu/internal/sortkey"
	"github.com/sh1zen/wisu/internal/tree"
)

func testCoordinator() *Coordinator {
	return &Coordinator{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		wake:   make(chan struct{}, 1),
	}
}

func ops(evs []Event) []Op {
	out := make([]Op, len(evs))
	for i, e := range evs {
		out[i] = e.Op
	}
	return out
}

func TestModifiedCollapsesIntoPending(t *testing.T) {
	c := testCoordinator()
	c.push(Event{Op: Created, Path: "/a"})
	c.push(Event{Op: Modified, Path: "/a"})
	c.push(Event{Op: Modified, Path: "/a"})

	got := c.Drain()
	if len(got) != 1 || got[0].Op != Created {
		t.Fatalf("queue = %v, want single Created", got)
	}
}

func TestCreatedThenRemovedCancels(t *testing.T) {
	c := testCoordinator()
	c.push(Event{Op: Created, Path: "/a"})
	c.push(Event{Op: Modified, Path: "/a"})
	c.push(Event{Op: Removed, Path: "/a"})

	if got := c.Drain(); len(got) != 0 {
		t.Fatalf("queue = %v, want empty (never-seen file)", got)
	}
}

func TestRemovedThenCreatedKeepsOrderedPair(t *testing.T) {
	c := testCoordinator()
	c.push(Event{Op: Removed, Path: "/a"})
	c.push(Event{Op: Created, Path: "/a"})

	got := ops(c.Drain())
	if len(got) != 2 || got[0] != Removed || got[1] != Created {
		t.Fatalf("queue ops = %v, want [Removed Created]", got)
	}
}

func TestCancelDoesNotTouchOtherPaths(t *testing.T) {
	c := testCoordinator()
	c.push(Event{Op: Created, Path: "/a"})
	c.push(Event{Op: Removed, Path: "/b"})
	c.push(Event{Op: Removed, Path: "/a"})

	got := c.Drain()
	if len(got) != 1 || got[0].Op != Removed || got[0].Path != "/b" {
		t.Fatalf("queue = %v, want only Removed /b", got)
	}
}

func TestOverflowReplacesQueue(t *testing.T) {
	c := testCoordinator()
	for i := 0; i < queueCap; i++ {
		c.push(Event{Op: Modified, Path: fmt.Sprintf("/x/%04d", i)})
	}
	c.push(Event{Op: Created, Path: "/one-too-many"})

	got := c.Drain()
	if len(got) != 1 || got[0].Op != Overflow {
		t.Fatalf("queue = %v events, want single Overflow", ops(got))
	}
}

func TestTranslateRenameIsRemoval(t *testing.T) {
	evs := translate(fsnotify.Event{Name: "/a", Op: fsnotify.Rename})
	if len(evs) != 1 || evs[0].Op != Removed {
		t.Fatalf("translate(rename) = %v", evs)
	}
	evs = translate(fsnotify.Event{Name: "/a", Op: fsnotify.Write})
	if len(evs) != 1 || evs[0].Op != Modified {
		t.Fatalf("translate(write) = %v", evs)
	}
}

func buildApplier(t *testing.T, cfg tree.Config) (*Applier, string) {
	t.Helper()
	tr, err := tree.Build(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	a := &Applier{
		Tree:   tr,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return a, tr.Config.Root
}

func TestApplyCreatedInsertsSorted(t *testing.T) {
	root := t.TempDir()
	for _, f := range []string{"a.txt", "c.txt"} {
		if err := os.WriteFile(filepath.Join(root, f), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	a, root := buildApplier(t, tree.Config{
		Root:     root,
		MaxDepth: -1,
		FileCap:  -1,
		Policy:   sortkey.Policy{Key: sortkey.ByName},
	})

	path := filepath.Join(root, "b.txt")
	if err := os.WriteFile(path, []byte("xx"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := a.Apply(context.Background(), []Event{{Op: Created, Path: path}})
	if !res.Changed {
		t.Fatal("Apply should report a change")
	}

	kids := a.Tree.Root.Children
	if len(kids) != 3 || kids[1].Name() != "b.txt" {
		names := make([]string, len(kids))
		for i, c := range kids {
			names[i] = c.Name()
		}
		t.Fatalf("children = %v, want b.txt in sorted position", names)
	}
}

func TestApplyRemovedDetaches(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := buildApplier(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1})

	os.Remove(path)
	res := a.Apply(context.Background(), []Event{{Op: Removed, Path: path}})
	if !res.Changed {
		t.Fatal("Apply should report a change")
	}
	if a.Tree.NodeAt(path) != nil {
		t.Error("removed file still in tree")
	}
	if a.Tree.Root.FileCount != 0 {
		t.Errorf("FileCount = %d, want 0", a.Tree.Root.FileCount)
	}
}

func TestApplyModifiedRefreshesMetadata(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := buildApplier(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1})

	if err := os.WriteFile(path, []byte("xxxxx"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.Apply(context.Background(), []Event{{Op: Modified, Path: path}})

	n := a.Tree.NodeAt(path)
	if n == nil || n.Entry.Size != 5 {
		t.Fatalf("size not refreshed: %+v", n)
	}
	if a.Tree.Root.TotalSize != 5 {
		t.Errorf("root TotalSize = %d, want 5", a.Tree.Root.TotalSize)
	}
}

func TestApplyCreatedDropsPastCapBoundary(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := buildApplier(t, tree.Config{
		Root:     root,
		MaxDepth: -1,
		FileCap:  1,
		Policy:   sortkey.Policy{Key: sortkey.ByName},
	})

	path := filepath.Join(root, "b.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a.Apply(context.Background(), []Event{{Op: Created, Path: path}})

	if a.Tree.NodeAt(path) != nil {
		t.Error("file sorting past the cap boundary should not be inserted")
	}
	if a.Tree.Root.Truncated != 1 {
		t.Errorf("Truncated = %d, want 1", a.Tree.Root.Truncated)
	}
}

func TestApplyCreatedEvictsAtCap(t *testing.T) {
	root := t.TempDir()
	evicted := filepath.Join(root, "b.txt")
	if err := os.WriteFile(evicted, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := buildApplier(t, tree.Config{
		Root:     root,
		MaxDepth: -1,
		FileCap:  1,
		Policy:   sortkey.Policy{Key: sortkey.ByName},
	})

	path := filepath.Join(root, "a.txt")
	if err := os.WriteFile(path, []byte("xx"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := a.Apply(context.Background(), []Event{{Op: Created, Path: path}})
	if !res.Changed {
		t.Fatal("eviction should report a change")
	}

	// The retained set must match what a fresh build of the directory
	// keeps: the first cap files in sort order.
	kids := a.Tree.Root.Children
	if len(kids) != 1 || kids[0].Name() != "a.txt" {
		names := make([]string, len(kids))
		for i, c := range kids {
			names[i] = c.Name()
		}
		t.Fatalf("children = %v, want [a.txt]", names)
	}
	if a.Tree.NodeAt(evicted) != nil {
		t.Error("evicted file still indexed")
	}
	if a.Tree.Root.Truncated != 1 {
		t.Errorf("Truncated = %d, want 1", a.Tree.Root.Truncated)
	}
	if a.Tree.Root.FileCount != 1 || a.Tree.Root.TotalSize != 2 {
		t.Errorf("aggregates = %d files, %d bytes", a.Tree.Root.FileCount, a.Tree.Root.TotalSize)
	}
}

func TestApplyModifiedWithoutMetadataChangeIsQuiet(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "f.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := buildApplier(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1})

	res := a.Apply(context.Background(), []Event{{Op: Modified, Path: path}})
	if res.Changed {
		t.Error("unchanged metadata should not report a change")
	}
}

func TestApplyDesyncedReportsDegraded(t *testing.T) {
	a, _ := buildApplier(t, tree.Config{Root: t.TempDir(), MaxDepth: -1, FileCap: -1})
	res := a.Apply(context.Background(), []Event{{Op: Desynced}})
	if !res.Degraded {
		t.Error("Desynced should mark the result degraded")
	}
}

func TestApplyFilesOnlyRefreshesWholeWalk(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	a, _ := buildApplier(t, tree.Config{Root: root, MaxDepth: -1, FileCap: -1, FilesOnly: true})

	path := filepath.Join(root, "sub", "new.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	res := a.Apply(context.Background(), []Event{{Op: Created, Path: path}})
	if !res.Changed {
		t.Fatal("flat apply should report a change")
	}
	if a.Tree.NodeAt(path) == nil {
		t.Error("new file missing after flat refresh")
	}
	if len(a.Tree.Root.Children) != 2 {
		t.Errorf("flat children = %d, want 2", len(a.Tree.Root.Children))
	}
}
