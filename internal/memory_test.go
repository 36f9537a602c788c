package internal

import (
	"strings"
	"testing"
)

func TestNewMemoryItemDefaults(t *testing.T) {
	item := NewMemoryItem("agent-1", "learned something", MemorySemantic)

	if item.Scope != MemoryPrivate {
		t.Errorf("scope = %s, want private", item.Scope)
	}
	if item.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
	if item.CreatedAt.Nanosecond() != 0 {
		t.Error("created_at should be truncated to whole seconds")
	}
	if err := item.Validate(); err != nil {
		t.Errorf("fresh item invalid: %v", err)
	}
}

func TestMemoryItemValidate(t *testing.T) {
	base := func() *MemoryItem {
		return NewMemoryItem("agent-1", "content", MemoryEpisodic)
	}

	cases := []struct {
		name   string
		mutate func(*MemoryItem)
	}{
		{"empty content", func(m *MemoryItem) { m.Content = "" }},
		{"bad type", func(m *MemoryItem) { m.Type = "imaginary" }},
		{"bad scope", func(m *MemoryItem) { m.Scope = "everyone" }},
		{"bad agent", func(m *MemoryItem) { m.AgentID = "/bad/" }},
		{"importance too high", func(m *MemoryItem) { m.Importance = 1.5 }},
		{"importance negative", func(m *MemoryItem) { m.Importance = -0.1 }},
	}

	for _, tc := range cases {
		item := base()
		tc.mutate(item)
		if err := item.Validate(); err == nil {
			t.Errorf("%s: Validate accepted invalid item", tc.name)
		}
	}
}

func TestEncodeMemoryItemDeterministic(t *testing.T) {
	a := NewMemoryItem("agent-1", "same fact", MemorySemantic)
	b := NewMemoryItem("agent-1", "same fact", MemorySemantic)
	b.CreatedAt = a.CreatedAt

	encA, err := EncodeMemoryItem(a)
	if err != nil {
		t.Fatalf("encode a: %v", err)
	}
	encB, err := EncodeMemoryItem(b)
	if err != nil {
		t.Fatalf("encode b: %v", err)
	}

	if string(encA) != string(encB) {
		t.Errorf("identical items encoded differently:\n%s\n%s", encA, encB)
	}
}

func TestDecodeMemoryItemRoundTrip(t *testing.T) {
	item := NewMemoryItem("agent-1", "remember the milk", MemoryState)
	item.Tags = []string{"todo", "groceries"}
	item.Importance = 0.7

	body, err := EncodeMemoryItem(item)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	id := HashObject(BlobObject, body)
	got, err := DecodeMemoryItem(id, body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.ID != id {
		t.Errorf("id = %s, want %s", got.ID, id)
	}
	if got.Content != item.Content {
		t.Errorf("content = %q, want %q", got.Content, item.Content)
	}
	if got.Importance != 0.7 {
		t.Errorf("importance = %f, want 0.7", got.Importance)
	}
	if len(got.Tags) != 2 {
		t.Errorf("tags = %v", got.Tags)
	}
	if !got.CreatedAt.Equal(item.CreatedAt) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, item.CreatedAt)
	}
}

func TestDecodeMemoryItemMalformed(t *testing.T) {
	bad := []string{
		"not json",
		`{"content":""}`,
		`{"content":"x","type":"wat","agent_id":"a","scope":"private"}`,
	}

	for _, body := range bad {
		if _, err := DecodeMemoryItem(ZeroHash, []byte(body)); err == nil {
			t.Errorf("DecodeMemoryItem(%q) accepted malformed payload", body)
		}
	}
}

func TestTreePathFormat(t *testing.T) {
	item := NewMemoryItem("agent-1", "content", MemoryProcedural)
	body, err := EncodeMemoryItem(item)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	item.ID = HashObject(BlobObject, body)

	path := item.TreePath()
	if !strings.HasPrefix(path, "procedural/") {
		t.Errorf("path = %q, want procedural/ prefix", path)
	}
	if len(path) != len("procedural/")+7 {
		t.Errorf("path = %q, want 7-char short hash suffix", path)
	}
	if !ValidTreePath(path) {
		t.Errorf("TreePath produced invalid path %q", path)
	}
}
