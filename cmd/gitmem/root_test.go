package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCmdRegistersSubcommands(t *testing.T) {
	svc := newTestServices(t)
	a := &app{
		memorySvc:  svc.memory,
		historySvc: svc.history,
		branchSvc:  svc.branch,
		searchSvc:  svc.search,
	}

	root := NewRootCmd("test", a)

	want := []string{"init", "add", "show", "ls", "commit", "status", "log", "diff",
		"checkout", "rollback", "fork", "branch", "search", "watch", "hook"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmdHelp(t *testing.T) {
	root := NewRootCmd("test", nil)
	root.SetArgs([]string{"--help"})

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "gitmem") {
		t.Errorf("help output = %q", out.String())
	}
}

func TestRootCmdVersion(t *testing.T) {
	root := NewRootCmd("1.2.3", nil)
	root.SetArgs([]string{"--version"})

	var out bytes.Buffer
	root.SetOut(&out)

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "1.2.3") {
		t.Errorf("version output = %q", out.String())
	}
}
