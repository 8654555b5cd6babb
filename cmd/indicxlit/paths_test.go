package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveModelDir(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveModelDir("  " + dir + "/ ")
	if err != nil {
		t.Fatalf("resolveModelDir: %v", err)
	}
	if got != filepath.Clean(dir) {
		t.Fatalf("got %q, want %q", got, dir)
	}

	if _, err := resolveModelDir(""); err == nil || !strings.Contains(err.Error(), envModelDir) {
		t.Fatalf("expected hint about %s, got %v", envModelDir, err)
	}

	file := filepath.Join(dir, "vocab.json")
	if err := os.WriteFile(file, []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveModelDir(file); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("expected not-a-directory error, got %v", err)
	}
	if _, err := resolveModelDir(filepath.Join(dir, "missing")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestResolveDictDir(t *testing.T) {
	cases := []struct {
		dict, model, want string
	}{
		{"/dicts", "/models", "/dicts"},
		{"", "/models/xlit/", "/models/xlit/word_prob_dicts"},
		{" /dicts/ ", "", "/dicts"},
	}
	for _, tc := range cases {
		got, err := resolveDictDir(tc.dict, tc.model)
		if err != nil {
			t.Fatalf("resolveDictDir(%q, %q): %v", tc.dict, tc.model, err)
		}
		if got != tc.want {
			t.Fatalf("resolveDictDir(%q, %q) = %q, want %q", tc.dict, tc.model, got, tc.want)
		}
	}
	if _, err := resolveDictDir("", ""); err == nil {
		t.Fatal("expected error with neither directory")
	}
}
