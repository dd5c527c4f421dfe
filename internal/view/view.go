// Package view renders a built tree as indented text for the
// one-shot listing mode.
package view

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/sh1zen/wisu/internal/tree"
)

// Options controls the rendered columns and decorations.
type Options struct {
	ShowSize        bool
	ShowPermissions bool
	ShowInfo        bool
	ShowStats       bool
	Hyperlinks      bool
	Color           bool
}

// ColorEnabled reports whether colored output makes sense for f,
// honoring NO_COLOR.
func ColorEnabled(f *os.File) bool {
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var (
	dirColor     = color.New(color.FgBlue, color.Bold)
	symlinkColor = color.New(color.FgCyan)
	dimColor     = color.New(color.Faint)
	errColor     = color.New(color.FgRed)
)

// Render writes the tree, one node per line, with box-drawing
// connectors. Truncated directories get a trailing summary line and
// unreadable ones an inline error marker.
func Render(w io.Writer, t *tree.Tree, opts Options) error {
	color.NoColor = !opts.Color

	r := renderer{w: w, t: t, opts: opts}
	r.line("", "", t.Root)
	r.children(t.Root, "")
	if r.err != nil {
		return r.err
	}

	if errs := t.Errors(); len(errs) > 0 {
		r.printf("\n")
		for _, e := range errs {
			r.printf("%s\n", errColor.Sprintf("! %s: %v", t.Rel(e.Path), e.Err))
		}
	}
	if opts.ShowStats {
		r.printf("\n%d directories, %d files, %s\n",
			t.Root.DirCount, t.Root.FileCount,
			humanize.IBytes(uint64(t.Root.TotalSize)))
	}
	return r.err
}

type renderer struct {
	w    io.Writer
	t    *tree.Tree
	opts Options
	err  error
}

func (r *renderer) printf(format string, args ...any) {
	if r.err != nil {
		return
	}
	_, r.err = fmt.Fprintf(r.w, format, args...)
}

func (r *renderer) children(n *tree.Node, prefix string) {
	last := len(n.Children) - 1
	for i, c := range n.Children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == last && n.Truncated == 0 {
			connector, childPrefix = "└── ", prefix+"    "
		}
		r.line(prefix, connector, c)
		if c.IsDir() {
			r.children(c, childPrefix)
		}
	}
	if n.Truncated > 0 {
		r.printf("%s└── %s\n", prefix, dimColor.Sprintf("… %d more files", n.Truncated))
	}
}

func (r *renderer) line(prefix, connector string, n *tree.Node) {
	cols := ""
	if r.opts.ShowPermissions {
		cols += n.Entry.Permissions() + " "
	}
	if r.opts.ShowSize {
		size := n.Entry.Size
		if n.IsDir() {
			size = n.TotalSize
		}
		cols += fmt.Sprintf("%9s ", humanize.IBytes(uint64(size)))
	}

	name := n.Name()
	switch {
	case n.Parent == nil:
		name = n.Path()
	case r.t.Config.FilesOnly:
		// Flat rows need the path to stay distinguishable.
		name = r.t.Rel(n.Path())
	}
	switch n.Entry.Kind {
	case tree.KindDir:
		name = dirColor.Sprint(name)
	case tree.KindSymlink:
		name = symlinkColor.Sprint(name)
	}
	if r.opts.Hyperlinks {
		name = hyperlink(n.Path(), name)
	}

	suffix := ""
	if r.opts.ShowInfo {
		if n.IsDir() {
			suffix = "  " + dimColor.Sprintf("[ %s | %d dirs | %d files ]",
				humanize.IBytes(uint64(n.TotalSize)), n.DirCount, n.FileCount)
		} else {
			suffix = "  " + dimColor.Sprintf("[ %s ]", humanize.IBytes(uint64(n.Entry.Size)))
		}
	}
	if n.Err != nil {
		suffix += " " + errColor.Sprintf("[%v]", n.Err.Err)
	}
	r.printf("%s%s%s%s%s\n", prefix, connector, cols, name, suffix)
}

// hyperlink wraps text in an OSC 8 file: link.
func hyperlink(path, text string) string {
	return fmt.Sprintf("\x1b]8;;file://%s\x1b\\%s\x1b]8;;\x1b\\", path, text)
}
