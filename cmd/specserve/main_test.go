// ABOUTME: Tests for CLI flag parsing, config layering, and help output.
package main

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseFlagsPositionalDir(t *testing.T) {
	f, err := parseFlags([]string{"-addr", "127.0.0.1:9000", "-no-watch", "build"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.dir != "build" {
		t.Errorf("expected dir build, got %q", f.dir)
	}
	if !f.set["addr"] || !f.set["no-watch"] || f.set["entry"] {
		t.Errorf("unexpected set flags: %v", f.set)
	}
}

func TestParseFlagsHelp(t *testing.T) {
	var out bytes.Buffer
	_, err := parseFlags([]string{"-help"}, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Errorf("expected help output, got %q", out.String())
	}
}

func TestBuildConfigLayering(t *testing.T) {
	unsetForTest(t, "SPECSERVE_ADDR", "SPECSERVE_DIR", "SPECSERVE_ENTRY")
	cfgPath := filepath.Join(t.TempDir(), "specserve.yaml")
	if err := os.WriteFile(cfgPath, []byte("addr: 127.0.0.1:1111\nentry: file.html\ndir: from-file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SPECSERVE_ENTRY", "env.html")

	f, err := parseFlags([]string{"-config", cfgPath, "-addr", "127.0.0.1:2222", "-quiet"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg, err := buildConfig(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != "127.0.0.1:2222" {
		t.Errorf("flag should win for addr, got %q", cfg.Addr)
	}
	if cfg.Entry != "env.html" {
		t.Errorf("env should win over file for entry, got %q", cfg.Entry)
	}
	if cfg.Dir != "from-file" {
		t.Errorf("file should win over default for dir, got %q", cfg.Dir)
	}
	if cfg.RequestLogging {
		t.Error("expected -quiet to disable request logging")
	}
	if !cfg.Watch {
		t.Error("watch should stay enabled when -no-watch is not given")
	}
}

func TestBuildConfigRejectsInvalid(t *testing.T) {
	f, err := parseFlags([]string{"-entry", "/specRunner.html"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := buildConfig(f); err == nil {
		t.Fatal("expected validation error for leading slash entry")
	}
}

func TestPrintHelpShowsEnvStatus(t *testing.T) {
	t.Setenv("SPECSERVE_ADDR", "127.0.0.1:1")
	var out bytes.Buffer
	printHelp(&out, "1.2.3")

	s := out.String()
	if !strings.Contains(s, "specserve 1.2.3") {
		t.Errorf("expected version in help, got %q", s)
	}
	if !strings.Contains(s, "SPECSERVE_ADDR") || !strings.Contains(s, "[set]") {
		t.Errorf("expected env status in help, got %q", s)
	}
}

func TestPrintHelpListsEveryEnvVar(t *testing.T) {
	var out bytes.Buffer
	printHelp(&out, "dev")

	s := out.String()
	for _, key := range []string{
		"SPECSERVE_ADDR", "SPECSERVE_DIR", "SPECSERVE_ENTRY", "SPECSERVE_IGNORE",
		"SPECSERVE_MARKDOWN", "SPECSERVE_WATCH", "SPECSERVE_POLL_INTERVAL",
		"SPECSERVE_DEBOUNCE", "SPECSERVE_REQUEST_LOGGING",
	} {
		if !strings.Contains(s, key) {
			t.Errorf("expected help to list %s", key)
		}
	}
}
