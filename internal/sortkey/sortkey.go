// Package sortkey defines the total order applied to sibling entries.
package sortkey

import (
	"fmt"
	"strings"
)

// Key selects the primary comparison field.
type Key int

const (
	ByName Key = iota
	BySize
	ByAccessed
	ByCreated
	ByModified
	ByExtension
)

// ParseKey maps a CLI/config string to a Key.
func ParseKey(s string) (Key, error) {
	switch strings.ToLower(s) {
	case "", "name":
		return ByName, nil
	case "size":
		return BySize, nil
	case "accessed":
		return ByAccessed, nil
	case "created":
		return ByCreated, nil
	case "modified":
		return ByModified, nil
	case "extension":
		return ByExtension, nil
	}
	return ByName, fmt.Errorf("unknown sort key %q", s)
}

func (k Key) String() string {
	switch k {
	case BySize:
		return "size"
	case ByAccessed:
		return "accessed"
	case ByCreated:
		return "created"
	case ByModified:
		return "modified"
	case ByExtension:
		return "extension"
	default:
		return "name"
	}
}

// Policy is the full set of parameters determining sibling ordering.
type Policy struct {
	Key           Key
	DirsFirst     bool
	DotfilesFirst bool
	CaseSensitive bool
	Natural       bool
	Reverse       bool
}

// Subject is the minimal view of an entry the comparator needs.
// tree.Entry satisfies it; tests can use lightweight fakes.
type Subject interface {
	SortName() string
	SortPath() string
	SortIsDir() bool
	SortSize() int64
	SortExt() string
	// SortTime returns the timestamp for the given key as unix nanos,
	// with ok=false when the platform could not provide it.
	SortTime(k Key) (int64, bool)
}

// Compare returns a negative, zero or positive value ordering a before
// b under the policy. The order is total: ties fall through to a path
// comparison so sorting is deterministic and idempotent.
func (p Policy) Compare(a, b Subject) int {
	// Partition rank (dotfiles-first, else dirs-first) is never
	// inverted by Reverse: reverse reorders within partitions only.
	if r := p.rank(a) - p.rank(b); r != 0 {
		return r
	}
	c := p.compareKey(a, b)
	if c == 0 {
		c = strings.Compare(a.SortPath(), b.SortPath())
	}
	if p.Reverse {
		c = -c
	}
	return c
}

// Less adapts Compare for sort.Slice-style callers.
func (p Policy) Less(a, b Subject) bool { return p.Compare(a, b) < 0 }

func (p Policy) rank(s Subject) int {
	switch {
	case p.DotfilesFirst:
		dot := strings.HasPrefix(s.SortName(), ".")
		switch {
		case dot && s.SortIsDir():
			return 0
		case s.SortIsDir():
			return 1
		case dot:
			return 2
		default:
			return 3
		}
	case p.DirsFirst:
		if s.SortIsDir() {
			return 0
		}
		return 1
	}
	return 0
}

func (p Policy) compareKey(a, b Subject) int {
	switch p.Key {
	case BySize:
		return cmpInt64(a.SortSize(), b.SortSize())
	case ByAccessed, ByCreated, ByModified:
		return p.compareTime(a, b)
	case ByExtension:
		if c := p.compareText(a.SortExt(), b.SortExt()); c != 0 {
			return c
		}
		return p.compareText(a.SortName(), b.SortName())
	default:
		return p.compareText(a.SortName(), b.SortName())
	}
}

// compareTime orders newest first; entries without a timestamp sort
// after those with one.
func (p Policy) compareTime(a, b Subject) int {
	ta, oka := a.SortTime(p.Key)
	tb, okb := b.SortTime(p.Key)
	switch {
	case oka && okb:
		return cmpInt64(tb, ta)
	case oka:
		return -1
	case okb:
		return 1
	}
	return 0
}

func (p Policy) compareText(a, b string) int {
	if !p.CaseSensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	if p.Natural {
		return naturalCompare(a, b)
	}
	return strings.Compare(a, b)
}

// naturalCompare compares strings with digit runs ordered by numeric
// value, so "file2" sorts before "file10".
func naturalCompare(a, b string) int {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			ia, na := digitRun(a, i)
			ib, nb := digitRun(b, j)
			// Compare runs numerically: strip leading zeros, then
			// longer run wins, then byte order decides.
			ra := strings.TrimLeft(a[i:ia], "0")
			rb := strings.TrimLeft(b[j:ib], "0")
			if len(ra) != len(rb) {
				return len(ra) - len(rb)
			}
			if c := strings.Compare(ra, rb); c != 0 {
				return c
			}
			// Equal values: fewer leading zeros first for stability.
			if na != nb {
				return na - nb
			}
			i, j = ia, ib
			continue
		}
		if ca != cb {
			return int(ca) - int(cb)
		}
		i++
		j++
	}
	return (len(a) - i) - (len(b) - j)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// digitRun returns the end index of the digit run starting at i and
// the run's length.
func digitRun(s string, i int) (end, n int) {
	end = i
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return end, end - i
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
