package internal

import (
	"os"
	"path/filepath"
	"testing"
)

func writeIgnoreFile(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, IgnoreFilename), []byte(content), 0644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}
}

func TestIgnoreMatcherNoFile(t *testing.T) {
	dir := t.TempDir()

	m, err := NewIgnoreMatcher(dir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	if m.Match(filepath.Join(dir, "notes.md")) {
		t.Error("matched with no ignore file present")
	}
}

func TestIgnoreMatcherPatterns(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "*.log\nbuild/\n# comment\n\nsecret.txt\n")

	m, err := NewIgnoreMatcher(dir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}

	cases := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"debug.log", false, true},
		{"nested/deep/trace.log", false, true},
		{"debug.txt", false, false},
		{"secret.txt", false, true},
		{"build", true, true},
		{"build", false, false},
		{"notes.md", false, false},
	}
	for _, tc := range cases {
		full := filepath.Join(dir, tc.path)
		var got bool
		if tc.isDir {
			got = m.MatchDir(full)
		} else {
			got = m.Match(full)
		}
		if got != tc.want {
			t.Errorf("match %q (dir=%v) = %v, want %v", tc.path, tc.isDir, got, tc.want)
		}
	}
}

func TestIgnoreMatcherWildcard(t *testing.T) {
	dir := t.TempDir()
	writeIgnoreFile(t, dir, "*\n")

	m, err := NewIgnoreMatcher(dir)
	if err != nil {
		t.Fatalf("new matcher: %v", err)
	}
	if m.Match(filepath.Join(dir, "anything")) != true {
		t.Error("wildcard should match inside base")
	}
}
