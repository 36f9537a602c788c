package internal

import (
	"context"
	"testing"
)

func TestAnnoyIndexAddAndSearch(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	ctx := context.Background()
	one := fakeHash("one")
	two := fakeHash("two")

	if err := idx.Add(ctx, "episodic/aaaaaaa", one, Embedding{Vector: []float32{1.0, 0.0, 0.0}}); err != nil {
		t.Fatalf("add one: %v", err)
	}
	if err := idx.Add(ctx, "episodic/bbbbbbb", two, Embedding{Vector: []float32{0.0, 1.0, 0.0}}); err != nil {
		t.Fatalf("add two: %v", err)
	}

	if err := idx.Build(ctx, 2); err != nil {
		t.Fatalf("build: %v", err)
	}

	hits, err := idx.Search(ctx, Embedding{Vector: []float32{1.0, 0.1, 0.0}}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least 1 hit")
	}
	if hits[0].Path != "episodic/aaaaaaa" {
		t.Errorf("closest match = %q, want episodic/aaaaaaa", hits[0].Path)
	}
	if hits[0].Item != one {
		t.Errorf("hit item = %s, want %s", hits[0].Item.Short(), one.Short())
	}
}

func TestAnnoyIndexRemove(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	ctx := context.Background()
	if err := idx.Add(ctx, "episodic/ccccccc", fakeHash("c"), Embedding{Vector: []float32{1.0, 0.0, 0.0}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if !idx.Contains(ctx, "episodic/ccccccc") {
		t.Error("expected path to exist after add")
	}

	if err := idx.Remove(ctx, "episodic/ccccccc"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if idx.Contains(ctx, "episodic/ccccccc") {
		t.Error("expected path to be gone after remove")
	}
}

func TestAnnoyIndexDimensionMismatch(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	ctx := context.Background()
	if err := idx.Add(ctx, "episodic/ddddddd", fakeHash("d"), Embedding{Vector: []float32{1.0, 0.0}}); err == nil {
		t.Error("expected dimension mismatch error on add")
	}

	if err := idx.Build(ctx, 1); err != nil {
		t.Fatalf("build: %v", err)
	}
	if _, err := idx.Search(ctx, Embedding{Vector: []float32{1.0, 0.0}}, 1); err == nil {
		t.Error("expected dimension mismatch error on search")
	}
}

func TestAnnoyIndexSearchBeforeBuild(t *testing.T) {
	idx, err := NewAnnoyIndex(t.TempDir(), 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	if _, err := idx.Search(context.Background(), Embedding{Vector: []float32{1.0, 0.0, 0.0}}, 1); err == nil {
		t.Error("expected error when searching before build")
	}
}

func TestAnnoyIndexSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	idx, err := NewAnnoyIndex(dir, 3)
	if err != nil {
		t.Fatalf("new index: %v", err)
	}

	item := fakeHash("persisted")
	if err := idx.Add(ctx, "semantic/eeeeeee", item, Embedding{Vector: []float32{0.5, 0.5, 0.0}}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Build(ctx, 2); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := idx.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	reopened, err := NewAnnoyIndex(dir, 3)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if !reopened.Contains(ctx, "semantic/eeeeeee") {
		t.Error("mapping not restored after load")
	}

	hits, err := reopened.Search(ctx, Embedding{Vector: []float32{0.5, 0.5, 0.0}}, 1)
	if err != nil {
		t.Fatalf("search after load: %v", err)
	}
	if len(hits) != 1 || hits[0].Item != item {
		t.Errorf("hits after load = %v", hits)
	}
}
