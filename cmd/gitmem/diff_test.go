package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/gitmem/gitmem/internal"
)

func TestDiffCmd(t *testing.T) {
	svc := newTestServices(t)
	_, first := seedMemory(t, svc.repo, "original")
	seedMemory(t, svc.repo, "addition")

	cmd := NewDiffCmd(func() *internal.HistoryService { return svc.history })
	cmd.SetArgs([]string{string(first.Hash), internal.DefaultRef})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "A  episodic/") {
		t.Errorf("output = %q, want added entry", out.String())
	}
}

func TestDiffCmdNoChanges(t *testing.T) {
	svc := newTestServices(t)
	_, commit := seedMemory(t, svc.repo, "only commit")

	cmd := NewDiffCmd(func() *internal.HistoryService { return svc.history })
	cmd.SetArgs([]string{string(commit.Hash), string(commit.Hash)})

	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "No changes") {
		t.Errorf("output = %q", out.String())
	}
}
