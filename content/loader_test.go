// ABOUTME: Tests for directory loading: relative keys, hidden/ignored files, and Markdown rendering.
package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, rel, body string) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadKeysByRelativePath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "specRunner.html", "The Spec Runner")
	writeFile(t, dir, "lib/foo.js", "Foo Content")
	writeFile(t, dir, ".hidden", "secret")
	writeFile(t, dir, ".git/config", "nope")
	writeFile(t, dir, "node_modules/dep/index.js", "dep")
	writeFile(t, dir, "debug.log", "log")

	files, err := Load(context.Background(), dir, LoadOptions{Ignore: []string{"node_modules", "*.log"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	if string(files["specRunner.html"]) != "The Spec Runner" {
		t.Errorf("unexpected entry body %q", files["specRunner.html"])
	}
	if string(files["lib/foo.js"]) != "Foo Content" {
		t.Errorf("unexpected nested body %q", files["lib/foo.js"])
	}
}

func TestLoadRendersMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "README.md", "# Title\n")

	files, err := Load(context.Background(), dir, LoadOptions{Markdown: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body, ok := files["README.html"]
	if !ok {
		t.Fatalf("expected README.html key, got %v", files)
	}
	if !strings.Contains(string(body), "<h1>Title</h1>") {
		t.Errorf("expected rendered heading, got %q", body)
	}
	if _, ok := files["README.md"]; ok {
		t.Error("expected Markdown source to be replaced by its rendering")
	}
}

func TestLoadMissingDir(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing"), LoadOptions{}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
