package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gitmem/gitmem/internal"
)

func TestAddCmd(t *testing.T) {
	svc := newTestServices(t)

	cmd := NewAddCmd(func() *internal.MemoryService { return svc.memory })
	cmd.SetArgs([]string{"the deploy script needs sudo"})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.Contains(out.String(), "episodic/") {
		t.Errorf("output = %q, want tree path", out.String())
	}

	items, err := svc.repo.CheckoutHead(context.Background(), "default", internal.DefaultRef)
	if err != nil {
		t.Fatalf("checkout head: %v", err)
	}
	if len(items) != 1 || items[0].Content != "the deploy script needs sudo" {
		t.Errorf("stored items = %v", items)
	}
}

func TestAddCmdTypeAndTags(t *testing.T) {
	svc := newTestServices(t)

	cmd := NewAddCmd(func() *internal.MemoryService { return svc.memory })
	cmd.SetArgs([]string{"always run migrations first", "-t", "procedural", "-T", "deploy,runbook"})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	items, err := svc.repo.CheckoutHead(context.Background(), "default", internal.DefaultRef)
	if err != nil {
		t.Fatalf("checkout head: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Type != internal.MemoryProcedural {
		t.Errorf("type = %q", items[0].Type)
	}
	if len(items[0].Tags) != 2 || items[0].Tags[0] != "deploy" {
		t.Errorf("tags = %v", items[0].Tags)
	}
}

func TestAddCmdStage(t *testing.T) {
	svc := newTestServices(t)

	cmd := NewAddCmd(func() *internal.MemoryService { return svc.memory })
	cmd.SetArgs([]string{"staged note", "--stage"})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !strings.HasPrefix(out.String(), "Staged ") {
		t.Errorf("output = %q, want staged message", out.String())
	}

	// Nothing committed yet.
	if _, err := svc.repo.Head(context.Background(), "default", internal.DefaultRef); err == nil {
		t.Error("staged add should not create a commit")
	}
}
