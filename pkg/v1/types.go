package v1

import "time"

// Memory is a stored memory entry.
type Memory struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	AgentID    string    `json:"agent_id"`
	Tags       []string  `json:"tags,omitempty"`
	Importance float64   `json:"importance"`
	CreatedAt  time.Time `json:"created_at"`
}

// Commit is a snapshot event in the memory DAG.
type Commit struct {
	Hash      string    `json:"hash"`
	Parents   []string  `json:"parents,omitempty"`
	AgentID   string    `json:"agent_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Added     int       `json:"added"`
	Removed   int       `json:"removed"`
	Modified  int       `json:"modified"`
}

// Ref is a named pointer into the DAG.
type Ref struct {
	AgentID string `json:"agent_id"`
	Name    string `json:"name"`
	Target  string `json:"target"`
}

// SearchResult is a semantic search hit.
type SearchResult struct {
	Path  string  `json:"path"`
	ID    string  `json:"id"`
	Score float32 `json:"score"`
}
