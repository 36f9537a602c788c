package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindExternal(t *testing.T) {
	tmp := t.TempDir()
	script := filepath.Join(tmp, "gitmem-test")
	if err := os.WriteFile(script, []byte("#!/bin/sh\necho ok"), 0755); err != nil {
		t.Fatal(err)
	}

	orig := os.Getenv("PATH")
	t.Setenv("PATH", tmp+":"+orig)

	path, err := findExternal("test")
	if err != nil {
		t.Fatalf("expected to find gitmem-test, got error: %v", err)
	}
	if path != script {
		t.Errorf("expected %s, got %s", script, path)
	}
}

func TestFindExternalNotFound(t *testing.T) {
	if _, err := findExternal("nonexistent-command-12345"); err == nil {
		t.Fatal("expected error for nonexistent command")
	}
}

func TestListExternalCommands(t *testing.T) {
	tmp := t.TempDir()

	for _, s := range []string{"gitmem-foo", "gitmem-bar", "gitmem-baz"} {
		path := filepath.Join(tmp, s)
		if err := os.WriteFile(path, []byte("#!/bin/sh"), 0755); err != nil {
			t.Fatal(err)
		}
	}

	// Non-prefixed and non-executable entries are ignored.
	if err := os.WriteFile(filepath.Join(tmp, "other-script"), []byte("#!/bin/sh"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "gitmem-plain"), []byte("#!/bin/sh"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PATH", tmp)

	got := listExternalCommands()
	want := []string{"bar", "baz", "foo"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
