package internal

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func fakeHash(seed string) Hash {
	return HashObject(BlobObject, []byte(seed))
}

func TestRefCreateResolve(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	target := fakeHash("c1")
	if err := refs.Create(ctx, "agent-1", "main", target); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := refs.Resolve(ctx, "agent-1", "main")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != target {
		t.Errorf("resolve = %s, want %s", got, target)
	}

	if err := refs.Create(ctx, "agent-1", "main", fakeHash("c2")); !errors.Is(err, ErrRefExists) {
		t.Errorf("duplicate create = %v, want ErrRefExists", err)
	}
}

func TestRefResolveMissing(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	if _, err := refs.Resolve(ctx, "agent-1", "nothing"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("resolve missing = %v, want ErrRefNotFound", err)
	}
}

func TestRefUpdateCAS(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	c1 := fakeHash("c1")
	c2 := fakeHash("c2")
	c3 := fakeHash("c3")

	if err := refs.Create(ctx, "agent-1", "main", c1); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := refs.Update(ctx, "agent-1", "main", c2, c1); err != nil {
		t.Fatalf("update with correct expected: %v", err)
	}

	// Stale expected value must not win.
	if err := refs.Update(ctx, "agent-1", "main", c3, c1); !errors.Is(err, ErrConflict) {
		t.Errorf("stale update = %v, want ErrConflict", err)
	}

	got, err := refs.Resolve(ctx, "agent-1", "main")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != c2 {
		t.Errorf("target = %s, want %s after failed CAS", got, c2)
	}
}

func TestRefUpdateConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	base := fakeHash("base")
	if err := refs.Create(ctx, "agent-1", "main", base); err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = refs.Update(ctx, "agent-1", "main", fakeHash(string(rune('a'+i))), base)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrConflict) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("%d writers won the CAS race, want exactly 1", winners)
	}
}

func TestRefDelete(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	if err := refs.Create(ctx, "agent-1", "scratch", fakeHash("c1")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := refs.Delete(ctx, "agent-1", "scratch"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := refs.Resolve(ctx, "agent-1", "scratch"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("resolve deleted = %v, want ErrRefNotFound", err)
	}
	if err := refs.Delete(ctx, "agent-1", "scratch"); !errors.Is(err, ErrRefNotFound) {
		t.Errorf("delete missing = %v, want ErrRefNotFound", err)
	}
}

func TestRefListPerAgent(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	if err := refs.Create(ctx, "agent-1", "main", fakeHash("a")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := refs.Create(ctx, "agent-1", "experiment", fakeHash("b")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := refs.Create(ctx, "agent-2", "main", fakeHash("c")); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := refs.List(ctx, "agent-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("list returned %d refs, want 2", len(got))
	}
	for _, ref := range got {
		if ref.AgentID != "agent-1" {
			t.Errorf("listed foreign ref %s/%s", ref.AgentID, ref.Name)
		}
	}
}

func TestRefNameValidation(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	bad := []string{"", "-lead", ".lead", "has space", "a/b"}
	for _, name := range bad {
		if err := refs.Create(ctx, "agent-1", name, fakeHash("x")); err == nil {
			t.Errorf("Create accepted invalid ref name %q", name)
		}
	}

	if err := refs.Create(ctx, "bad agent", "main", fakeHash("x")); !errors.Is(err, ErrInvalidAgentID) {
		t.Errorf("invalid agent = %v, want ErrInvalidAgentID", err)
	}
}

func TestRefAdvanceCreatesAndExtends(t *testing.T) {
	ctx := context.Background()
	refs := NewRefManager(newTestStore(t))

	first := fakeHash("first")
	got, err := refs.Advance(ctx, "agent-1", "main", func(current Hash) (Hash, error) {
		if !current.IsZero() {
			t.Errorf("current = %s on missing ref, want ZeroHash", current)
		}
		return first, nil
	})
	if err != nil {
		t.Fatalf("advance create: %v", err)
	}
	if got != first {
		t.Errorf("advance = %s, want %s", got, first)
	}

	second := fakeHash("second")
	got, err = refs.Advance(ctx, "agent-1", "main", func(current Hash) (Hash, error) {
		if current != first {
			t.Errorf("current = %s, want %s", current, first)
		}
		return second, nil
	})
	if err != nil {
		t.Fatalf("advance update: %v", err)
	}
	if got != second {
		t.Errorf("advance = %s, want %s", got, second)
	}
}
