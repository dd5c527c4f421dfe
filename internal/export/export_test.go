package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sh1zen/wisu/internal/tree"
)

func fixture(t *testing.T) *tree.Tree {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "src", "main.go"), []byte("package main"), 0o644); err != nil {
		t.Fatal(err)
	}
	tr, err := tree.Build(context.Background(), tree.Config{Root: root, MaxDepth: -1, FileCap: -1})
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestDetectFormat(t *testing.T) {
	for _, tt := range []struct {
		path, explicit, want string
		ok                   bool
	}{
		{"out.csv", "", CSV, true},
		{"out.JSON", "", JSON, true},
		{"out.xml", "", XML, true},
		{"out.txt", "json", JSON, true},
		{"out.txt", "", "", false},
	} {
		got, err := DetectFormat(tt.path, tt.explicit)
		if (err == nil) != tt.ok {
			t.Errorf("DetectFormat(%q, %q) err = %v", tt.path, tt.explicit, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("DetectFormat(%q, %q) = %q, want %q", tt.path, tt.explicit, got, tt.want)
		}
	}
}

func TestCSVIsFlatAndComplete(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, fixture(t), CSV); err != nil {
		t.Fatal(err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// header + root + src + main.go
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4", len(rows))
	}
	if rows[0][0] != "path" {
		t.Errorf("header = %v", rows[0])
	}
	last := rows[3]
	if last[0] != "src/main.go" || last[1] != "file" || last[2] != "12" {
		t.Errorf("file row = %v", last)
	}
}

func TestJSONIsNested(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, fixture(t), JSON); err != nil {
		t.Fatal(err)
	}

	var doc struct {
		Type     string `json:"type"`
		Size     int64  `json:"size"`
		Children []struct {
			Name     string `json:"name"`
			Children []struct {
				Name string `json:"name"`
				Size int64  `json:"size"`
			} `json:"children"`
		} `json:"children"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Type != "dir" || doc.Size != 12 {
		t.Errorf("root = %+v", doc)
	}
	if len(doc.Children) != 1 || doc.Children[0].Name != "src" {
		t.Fatalf("children = %+v", doc.Children)
	}
	if doc.Children[0].Children[0].Name != "main.go" {
		t.Errorf("nested child = %+v", doc.Children[0].Children)
	}
}

func TestXMLNestsEntries(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, fixture(t), XML); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, xmlHeaderPrefix) {
		t.Errorf("missing XML header: %q", out[:40])
	}
	if !strings.Contains(out, `name="main.go"`) || !strings.Contains(out, `type="dir"`) {
		t.Errorf("unexpected XML:\n%s", out)
	}
}

const xmlHeaderPrefix = "<?xml"

func TestToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := ToFile(path, fixture(t), JSON); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Error("output is not valid JSON")
	}
}
