package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/gitmem/gitmem/internal"
)

func setupProviderTest(t *testing.T) *internal.ProviderService {
	t.Helper()
	tmpDir := t.TempDir()

	origWd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	scope := internal.NewScope(internal.ScopeProject, tmpDir)
	if err := internal.InitRepository(scope); err != nil {
		t.Fatalf("init repo: %v", err)
	}
	if err := internal.SaveConfig(scope, internal.DefaultConfig()); err != nil {
		t.Fatalf("save config: %v", err)
	}

	return internal.NewProviderService(internal.NewScopeResolver())
}

func TestProviderCmdListEmpty(t *testing.T) {
	svc := setupProviderTest(t)

	cmd := NewProviderCmd(func() *internal.ProviderService { return svc })
	cmd.SetArgs([]string{"list"})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "No providers configured") {
		t.Errorf("output = %q", out.String())
	}
}

func TestProviderCmdAddAndList(t *testing.T) {
	svc := setupProviderTest(t)
	provider := func() *internal.ProviderService { return svc }

	add := NewProviderCmd(provider)
	add.SetArgs([]string{"add", "openai", "--api-key", "sk-test", "--model", "gpt-4o"})
	var addOut bytes.Buffer
	add.SetOut(&addOut)
	if err := add.Execute(); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(addOut.String(), "Added provider openai") {
		t.Errorf("add output = %q", addOut.String())
	}

	list := NewProviderCmd(provider)
	list.SetArgs([]string{"list"})
	var listOut bytes.Buffer
	list.SetOut(&listOut)
	if err := list.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(listOut.String(), "openai") {
		t.Errorf("list output = %q", listOut.String())
	}
}

func TestProviderCmdRemove(t *testing.T) {
	svc := setupProviderTest(t)
	provider := func() *internal.ProviderService { return svc }

	add := NewProviderCmd(provider)
	add.SetArgs([]string{"add", "anthropic", "--api-key", "k"})
	var out bytes.Buffer
	add.SetOut(&out)
	if err := add.Execute(); err != nil {
		t.Fatalf("add: %v", err)
	}

	remove := NewProviderCmd(provider)
	remove.SetArgs([]string{"remove", "anthropic"})
	remove.SetOut(&out)
	if err := remove.Execute(); err != nil {
		t.Fatalf("remove: %v", err)
	}

	list := NewProviderCmd(provider)
	list.SetArgs([]string{"list"})
	var listOut bytes.Buffer
	list.SetOut(&listOut)
	if err := list.Execute(); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.Contains(listOut.String(), "anthropic") {
		t.Errorf("removed provider still listed: %q", listOut.String())
	}
}

func TestProviderCmdDefaultUnknown(t *testing.T) {
	svc := setupProviderTest(t)

	cmd := NewProviderCmd(func() *internal.ProviderService { return svc })
	cmd.SetArgs([]string{"default", "missing"})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown provider")
	}
}
