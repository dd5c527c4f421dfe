package tree

import (
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/sh1zen/wisu/internal/sortkey"
)

// Kind classifies a filesystem object.
type Kind int

const (
	KindFile Kind = iota
	KindDir
	KindSymlink
)

// Entry is one filesystem object's captured metadata at a point in
// time. It is immutable once captured; rescans and watch events
// replace it wholesale.
type Entry struct {
	Path    string // absolute
	Name    string
	Kind    Kind
	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
	ATime   time.Time // zero when the platform could not provide it
	CTime   time.Time // zero when the platform could not provide it
	Ext     string    // lowercase, no leading dot
}

// CaptureEntry stats path (without following symlinks) and records its
// metadata.
func CaptureEntry(path string) (Entry, error) {
	info, err := lstat(path)
	if err != nil {
		return Entry{}, err
	}
	return entryFromInfo(path, info), nil
}

func entryFromInfo(path string, info fs.FileInfo) Entry {
	name := filepath.Base(path)
	e := Entry{
		Path:    path,
		Name:    name,
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
	}
	switch {
	case info.IsDir():
		e.Kind = KindDir
		e.Size = 0
	case info.Mode()&fs.ModeSymlink != 0:
		e.Kind = KindSymlink
	}
	if e.Kind != KindDir {
		e.Ext = strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	}
	e.ATime, e.CTime = extraTimes(info)
	return e
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDir }

// Hidden reports whether the entry name starts with the hidden marker.
func (e Entry) Hidden() bool { return strings.HasPrefix(e.Name, ".") }

// Permissions renders the mode as an ls-style string ("drwxr-xr-x").
func (e Entry) Permissions() string {
	var b strings.Builder
	switch e.Kind {
	case KindDir:
		b.WriteByte('d')
	case KindSymlink:
		b.WriteByte('l')
	default:
		b.WriteByte('-')
	}
	const rwx = "rwxrwxrwx"
	perm := e.Mode.Perm()
	for i := 0; i < 9; i++ {
		if perm&(1<<uint(8-i)) != 0 {
			b.WriteByte(rwx[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// sortkey.Subject implementation.

func (e Entry) SortName() string { return e.Name }
func (e Entry) SortPath() string { return e.Path }
func (e Entry) SortIsDir() bool  { return e.Kind == KindDir }
func (e Entry) SortSize() int64  { return e.Size }
func (e Entry) SortExt() string  { return e.Ext }

func (e Entry) SortTime(k sortkey.Key) (int64, bool) {
	var t time.Time
	switch k {
	case sortkey.ByAccessed:
		t = e.ATime
	case sortkey.ByCreated:
		t = e.CTime
	default:
		t = e.ModTime
	}
	if t.IsZero() {
		return 0, false
	}
	return t.UnixNano(), true
}
