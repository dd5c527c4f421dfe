// Package export serializes a built tree to CSV, JSON or XML.
package export

import (
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sh1zen/wisu/internal/tree"
)

// Supported formats.
const (
	CSV  = "csv"
	JSON = "json"
	XML  = "xml"
)

// DetectFormat picks the format from an explicit choice or, when that
// is empty, the output path's extension.
func DetectFormat(path, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case CSV:
		return CSV, nil
	case JSON:
		return JSON, nil
	case XML:
		return XML, nil
	}
	return "", fmt.Errorf("cannot derive export format from %q", path)
}

// ToFile writes the tree to path in the given format.
func ToFile(path string, t *tree.Tree, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, t, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write serializes the tree in the given format.
func Write(w io.Writer, t *tree.Tree, format string) error {
	switch format {
	case CSV:
		return writeCSV(w, t)
	case JSON:
		return writeJSON(w, t)
	case XML:
		return writeXML(w, t)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func kindLabel(k tree.Kind) string {
	switch k {
	case tree.KindDir:
		return "dir"
	case tree.KindSymlink:
		return "symlink"
	}
	return "file"
}

func writeCSV(w io.Writer, t *tree.Tree) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"path", "type", "size", "modified", "permissions"}); err != nil {
		return err
	}
	var werr error
	t.Walk(func(n *tree.Node) bool {
		size := n.Entry.Size
		if n.IsDir() {
			size = n.TotalSize
		}
		werr = cw.Write([]string{
			t.Rel(n.Path()),
			kindLabel(n.Entry.Kind),
			strconv.FormatInt(size, 10),
			n.Entry.ModTime.Format(time.RFC3339),
			n.Entry.Permissions(),
		})
		return werr == nil
	})
	if werr != nil {
		return werr
	}
	cw.Flush()
	return cw.Error()
}

// node is the nested document shape shared by JSON and XML.
type node struct {
	XMLName  xml.Name `json:"-" xml:"entry"`
	Name     string   `json:"name" xml:"name,attr"`
	Type     string   `json:"type" xml:"type,attr"`
	Size     int64    `json:"size" xml:"size,attr"`
	Modified string   `json:"modified,omitempty" xml:"modified,attr,omitempty"`
	Children []*node  `json:"children,omitempty" xml:"entry,omitempty"`
}

func convert(n *tree.Node) *node {
	out := &node{
		Name:     n.Name(),
		Type:     kindLabel(n.Entry.Kind),
		Size:     n.Entry.Size,
		Modified: n.Entry.ModTime.Format(time.RFC3339),
	}
	if n.IsDir() {
		out.Size = n.TotalSize
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, convert(c))
	}
	return out
}

func writeJSON(w io.Writer, t *tree.Tree) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(convert(t.Root))
}

func writeXML(w io.Writer, t *tree.Tree) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(convert(t.Root)); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
