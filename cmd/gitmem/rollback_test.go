package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gitmem/gitmem/internal"
)

func TestRollbackCmd(t *testing.T) {
	svc := newTestServices(t)
	_, good := seedMemory(t, svc.repo, "good state")
	seedMemory(t, svc.repo, "bad state")

	cmd := NewRollbackCmd(func() *internal.HistoryService { return svc.history })
	cmd.SetArgs([]string{string(good.Hash)})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "rollback: restore") {
		t.Errorf("output = %q", out.String())
	}

	items, err := svc.repo.CheckoutHead(context.Background(), "default", internal.DefaultRef)
	if err != nil {
		t.Fatalf("checkout head: %v", err)
	}
	if len(items) != 1 || items[0].Content != "good state" {
		t.Errorf("restored items = %v", items)
	}
}

func TestRollbackCmdUnknownRevision(t *testing.T) {
	svc := newTestServices(t)
	seedMemory(t, svc.repo, "history")

	cmd := NewRollbackCmd(func() *internal.HistoryService { return svc.history })
	cmd.SetArgs([]string{"no-such-ref"})

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown revision")
	}
}
