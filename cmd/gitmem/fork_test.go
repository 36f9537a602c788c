package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gitmem/gitmem/internal"
)

func TestForkCmd(t *testing.T) {
	svc := newTestServices(t)
	seedMemory(t, svc.repo, "shared history")

	cmd := NewForkCmd(func() *internal.BranchService { return svc.branch })
	cmd.SetArgs([]string{"experiment"})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "Forked experiment") {
		t.Errorf("output = %q", out.String())
	}
}

func TestForkCmdRequiresTarget(t *testing.T) {
	svc := newTestServices(t)
	seedMemory(t, svc.repo, "shared history")

	cmd := NewForkCmd(func() *internal.BranchService { return svc.branch })

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := cmd.Execute(); err == nil {
		t.Error("expected error without a ref name or --to-agent")
	}
}

func TestForkCmdToAgent(t *testing.T) {
	svc := newTestServices(t)
	seedMemory(t, svc.repo, "shared history")

	cmd := NewForkCmd(func() *internal.BranchService { return svc.branch })
	cmd.SetArgs([]string{"--to-agent", "reviewer"})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "Forked to agent reviewer") {
		t.Errorf("output = %q", out.String())
	}
}

func TestForkCmdDuplicate(t *testing.T) {
	svc := newTestServices(t)
	seedMemory(t, svc.repo, "shared history")

	first := NewForkCmd(func() *internal.BranchService { return svc.branch })
	first.SetArgs([]string{"experiment"})
	var out bytes.Buffer
	first.SetOut(&out)
	if err := first.Execute(); err != nil {
		t.Fatalf("first fork: %v", err)
	}

	second := NewForkCmd(func() *internal.BranchService { return svc.branch })
	second.SetArgs([]string{"experiment"})
	second.SetOut(&out)
	second.SetErr(&out)

	if err := second.Execute(); err == nil {
		t.Error("expected error for duplicate fork name")
	}
}
