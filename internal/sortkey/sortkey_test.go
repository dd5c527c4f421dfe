package sortkey

import (
	"sort"
	"testing"
)

// fakeEntry implements Subject for comparator tests without touching
// the filesystem.
type fakeEntry struct {
	name  string
	isDir bool
	size  int64
	ext   string
	mod   int64
	hasT  bool
}

func (f fakeEntry) SortName() string  { return f.name }
func (f fakeEntry) SortPath() string  { return "/t/" + f.name }
func (f fakeEntry) SortIsDir() bool   { return f.isDir }
func (f fakeEntry) SortSize() int64   { return f.size }
func (f fakeEntry) SortExt() string   { return f.ext }
func (f fakeEntry) SortTime(Key) (int64, bool) {
	return f.mod, f.hasT
}

func sortNames(entries []fakeEntry, p Policy) []string {
	sorted := make([]fakeEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return p.Less(sorted[i], sorted[j]) })
	names := make([]string, len(sorted))
	for i, e := range sorted {
		names[i] = e.name
	}
	return names
}

func files(names ...string) []fakeEntry {
	out := make([]fakeEntry, len(names))
	for i, n := range names {
		out[i] = fakeEntry{name: n}
	}
	return out
}

func TestNaturalSort(t *testing.T) {
	in := files("file1", "file10", "file2")

	got := sortNames(in, Policy{Key: ByName, Natural: true})
	want := []string{"file1", "file2", "file10"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("natural sort = %v, want %v", got, want)
		}
	}

	got = sortNames(in, Policy{Key: ByName})
	want = []string{"file1", "file10", "file2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lexicographic sort = %v, want %v", got, want)
		}
	}
}

func TestDotfilesFirst(t *testing.T) {
	in := []fakeEntry{
		{name: ".git", isDir: true},
		{name: "src", isDir: true},
		{name: "main.rs"},
		{name: ".env"},
	}
	got := sortNames(in, Policy{Key: ByName, DotfilesFirst: true})
	want := []string{".git", ".env", "src", "main.rs"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("dotfiles-first = %v, want %v", got, want)
		}
	}
}

func TestDirsFirstNotInvertedByReverse(t *testing.T) {
	in := []fakeEntry{
		{name: "zz.txt"},
		{name: "aa", isDir: true},
		{name: "bb.txt"},
		{name: "cc", isDir: true},
	}
	got := sortNames(in, Policy{Key: ByName, DirsFirst: true, Reverse: true})
	// Directories stay in front; reverse applies within partitions.
	want := []string{"cc", "aa", "zz.txt", "bb.txt"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("reverse dirs-first = %v, want %v", got, want)
		}
	}
}

func TestCaseSensitivity(t *testing.T) {
	in := files("banana", "Apple")

	got := sortNames(in, Policy{Key: ByName})
	if got[0] != "Apple" || got[1] != "banana" {
		t.Errorf("case-insensitive = %v", got)
	}

	got = sortNames(in, Policy{Key: ByName, CaseSensitive: true})
	if got[0] != "Apple" || got[1] != "banana" {
		t.Errorf("case-sensitive = %v", got)
	}
}

func TestExtensionKeyFallsBackToName(t *testing.T) {
	in := []fakeEntry{
		{name: "a.t", ext: "t"},
		{name: "b.b", ext: "b"},
		{name: "c.t", ext: "t"},
	}
	got := sortNames(in, Policy{Key: ByExtension})
	want := []string{"b.b", "a.t", "c.t"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extension sort = %v, want %v", got, want)
		}
	}
}

func TestTimeKeyNewestFirstMissingLast(t *testing.T) {
	in := []fakeEntry{
		{name: "old", mod: 100, hasT: true},
		{name: "none"},
		{name: "new", mod: 200, hasT: true},
	}
	got := sortNames(in, Policy{Key: ByModified})
	want := []string{"new", "old", "none"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("time sort = %v, want %v", got, want)
		}
	}
}

// Sorting twice must produce the identical order for any policy.
func TestIdempotence(t *testing.T) {
	in := []fakeEntry{
		{name: "b", size: 2},
		{name: "a", size: 2},
		{name: ".d", isDir: true},
		{name: "c", size: 1},
	}
	policies := []Policy{
		{},
		{Key: BySize},
		{Key: ByName, Natural: true, DirsFirst: true},
		{Key: BySize, Reverse: true, DotfilesFirst: true},
	}
	for _, p := range policies {
		first := sortNames(in, p)
		second := sortNames(in, p)
		for i := range first {
			if first[i] != second[i] {
				t.Fatalf("policy %+v not idempotent: %v vs %v", p, first, second)
			}
		}
	}
}

// The comparator must be antisymmetric for every policy combination.
func TestAntisymmetry(t *testing.T) {
	entries := []fakeEntry{
		{name: "a", size: 1, mod: 5, hasT: true},
		{name: "A", size: 1},
		{name: "dir", isDir: true},
		{name: ".dot"},
		{name: "a10", size: 3},
		{name: "a2", size: 3},
	}
	for mask := 0; mask < 32; mask++ {
		p := Policy{
			Key:           ByName,
			DirsFirst:     mask&1 != 0,
			DotfilesFirst: mask&2 != 0,
			CaseSensitive: mask&4 != 0,
			Natural:       mask&8 != 0,
			Reverse:       mask&16 != 0,
		}
		for _, a := range entries {
			for _, b := range entries {
				if p.Compare(a, b) != -p.Compare(b, a) {
					t.Fatalf("policy %+v not antisymmetric for %q/%q", p, a.name, b.name)
				}
			}
		}
	}
}

func TestParseKey(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want Key
		ok   bool
	}{
		{"name", ByName, true},
		{"", ByName, true},
		{"Size", BySize, true},
		{"modified", ByModified, true},
		{"extension", ByExtension, true},
		{"bogus", ByName, false},
	} {
		got, err := ParseKey(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseKey(%q) err = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseKey(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
