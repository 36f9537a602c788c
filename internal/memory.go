package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

type MemoryType string

const (
	MemoryEpisodic   MemoryType = "episodic"
	MemorySemantic   MemoryType = "semantic"
	MemoryProcedural MemoryType = "procedural"
	MemoryState      MemoryType = "state"
)

func (t MemoryType) Valid() bool {
	switch t {
	case MemoryEpisodic, MemorySemantic, MemoryProcedural, MemoryState:
		return true
	}
	return false
}

type MemoryScope string

const (
	MemoryPrivate MemoryScope = "private"
	MemoryShared  MemoryScope = "shared"
	MemoryGlobal  MemoryScope = "global"
)

func (s MemoryScope) Valid() bool {
	switch s {
	case MemoryPrivate, MemoryShared, MemoryGlobal:
		return true
	}
	return false
}

// MemoryItem is one atomic fact, event, or state unit. Items are
// immutable: an "edit" stores a new item under a new hash and the old
// one stays reachable through history. The ID is the blob hash of the
// canonical payload.
type MemoryItem struct {
	ID         Hash        `json:"-"`
	Content    string      `json:"content"`
	Type       MemoryType  `json:"type"`
	AgentID    string      `json:"agent_id"`
	CreatedAt  time.Time   `json:"created_at"`
	Importance float64     `json:"importance"`
	Scope      MemoryScope `json:"scope"`
	Tags       []string    `json:"tags,omitempty"`
	Embedding  []float32   `json:"embedding,omitempty"`
	Provenance string      `json:"provenance,omitempty"`
}

func NewMemoryItem(agentID, content string, typ MemoryType) *MemoryItem {
	return &MemoryItem{
		Content:   content,
		Type:      typ,
		AgentID:   agentID,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Scope:     MemoryPrivate,
	}
}

func (m *MemoryItem) Validate() error {
	if m.Content == "" {
		return fmt.Errorf("memory content is empty")
	}
	if !m.Type.Valid() {
		return fmt.Errorf("invalid memory type %q", m.Type)
	}
	if !m.Scope.Valid() {
		return fmt.Errorf("invalid memory scope %q", m.Scope)
	}
	if !ValidAgentID(m.AgentID) {
		return fmt.Errorf("%w: %q", ErrInvalidAgentID, m.AgentID)
	}
	if m.Importance < 0 || m.Importance > 1 {
		return fmt.Errorf("importance %f out of range [0,1]", m.Importance)
	}
	return nil
}

// EncodeMemoryItem produces the canonical payload the ID is derived
// from. encoding/json writes struct fields in declaration order, so
// identical items always serialize identically.
func EncodeMemoryItem(m *MemoryItem) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func DecodeMemoryItem(id Hash, body []byte) (*MemoryItem, error) {
	var m MemoryItem
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	m.ID = id
	return &m, nil
}

// TreePath is the logical path an item occupies in a snapshot:
// "<type>/<short-hash>". Grouping by type keeps checkouts and prefix
// listings cheap.
func (m *MemoryItem) TreePath() string {
	return fmt.Sprintf("%s/%s", m.Type, m.ID.Short())
}
