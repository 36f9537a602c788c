package internal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// CommitStats counts the tree-level changes a commit introduced relative
// to its first parent. Root commits count every entry as added.
type CommitStats struct {
	Added    int
	Removed  int
	Modified int
}

// Commit is an immutable snapshot event in the DAG. Its hash is a pure
// function of the serialized fields: changing any of them produces a
// different commit identity.
type Commit struct {
	Hash      Hash
	TreeHash  Hash
	Parents   []Hash
	AgentID   string
	AuthorID  string
	Message   string
	Timestamp time.Time
	Stats     CommitStats
}

func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// CommitGraph builds and walks the commit DAG on top of the object
// store.
type CommitGraph struct {
	store ObjectStore
	trees *TreeBuilder
}

func NewCommitGraph(store ObjectStore, trees *TreeBuilder) *CommitGraph {
	return &CommitGraph{store: store, trees: trees}
}

// Create validates and persists a new commit. The tree must resolve and
// every parent must already exist in the graph; a commit can never be
// created before its ancestors, which is what keeps the graph acyclic.
func (g *CommitGraph) Create(ctx context.Context, treeHash Hash, parents []Hash, agentID, authorID, message string, now time.Time) (*Commit, error) {
	tree, err := g.trees.Resolve(ctx, treeHash)
	if err != nil {
		return nil, err
	}

	for _, p := range parents {
		typ, _, err := g.store.Get(ctx, p)
		if err != nil || typ != CommitObject {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParent, p.Short())
		}
	}

	stats, err := g.statsFor(ctx, tree, parents)
	if err != nil {
		return nil, err
	}

	commit := &Commit{
		TreeHash:  treeHash,
		Parents:   append([]Hash(nil), parents...),
		AgentID:   agentID,
		AuthorID:  authorID,
		Message:   message,
		Timestamp: now.UTC().Truncate(time.Second),
		Stats:     stats,
	}

	hash, err := g.store.Put(ctx, CommitObject, encodeCommitBody(commit))
	if err != nil {
		return nil, fmt.Errorf("store commit: %w", err)
	}
	commit.Hash = hash

	return commit, nil
}

// Load fetches and decodes a single commit.
func (g *CommitGraph) Load(ctx context.Context, hash Hash) (*Commit, error) {
	typ, body, err := g.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if typ != CommitObject {
		return nil, fmt.Errorf("%w: %s is a %s, not a commit", ErrMalformedObject, hash.Short(), typ)
	}

	commit, err := decodeCommitBody(body)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", hash.Short(), err)
	}
	commit.Hash = hash
	return commit, nil
}

func (g *CommitGraph) statsFor(ctx context.Context, tree *Tree, parents []Hash) (CommitStats, error) {
	if len(parents) == 0 {
		return CommitStats{Added: len(tree.Entries)}, nil
	}

	parent, err := g.Load(ctx, parents[0])
	if err != nil {
		// Parent existence was validated above, so this is store-level
		// inconsistency and must surface.
		return CommitStats{}, err
	}
	parentTree, err := g.trees.Resolve(ctx, parent.TreeHash)
	if err != nil {
		return CommitStats{}, err
	}

	d := diffTrees(parentTree, tree)
	return CommitStats{
		Added:    len(d.Added),
		Removed:  len(d.Removed),
		Modified: len(d.Modified),
	}, nil
}

// History walks ancestry from hash, most recent first: every commit
// appears before any of its parents, ties between merge parents resolve
// first-parent first, and each commit is visited at most once.
func (g *CommitGraph) History(ctx context.Context, hash Hash) *HistoryIter {
	return &HistoryIter{graph: g, ctx: ctx, head: hash}
}

// ErrStop aborts a ForEach traversal without error.
var ErrStop = errors.New("stop iteration")

type HistoryIter struct {
	graph *CommitGraph
	ctx   context.Context
	head  Hash

	order []*Commit
	pos   int
	err   error
	ready bool
}

// Next returns the next commit in history order, or io.EOF when the
// walk is exhausted.
func (it *HistoryIter) Next() (*Commit, error) {
	if !it.ready {
		it.order, it.err = it.graph.topoOrder(it.ctx, it.head)
		it.ready = true
	}
	if it.err != nil {
		return nil, it.err
	}
	if it.pos >= len(it.order) {
		return nil, io.EOF
	}
	c := it.order[it.pos]
	it.pos++
	return c, nil
}

// ForEach visits every commit in order. Returning ErrStop from the
// callback ends the walk early without error.
func (it *HistoryIter) ForEach(fn func(*Commit) error) error {
	for {
		c, err := it.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			if err == ErrStop {
				return nil
			}
			return err
		}
	}
}

// topoOrder computes the deterministic reverse-topological order: a
// commit is emitted only after every reachable child, and among commits
// that become emittable together the one discovered earliest by a
// first-parent-first walk wins.
func (g *CommitGraph) topoOrder(ctx context.Context, head Hash) ([]*Commit, error) {
	commits := make(map[Hash]*Commit)
	discovery := make(map[Hash]int)
	children := make(map[Hash]int)

	queue := []Hash{head}
	discovery[head] = 0
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		if _, done := commits[h]; done {
			continue
		}

		c, err := g.Load(ctx, h)
		if err != nil {
			return nil, err
		}
		commits[h] = c

		for _, p := range c.Parents {
			children[p]++
			if _, seen := discovery[p]; !seen {
				discovery[p] = len(discovery)
				queue = append(queue, p)
			}
		}
	}

	var order []*Commit
	pending := []Hash{head}
	for len(pending) > 0 {
		// Earliest discovery first keeps merge-parent ordering stable.
		best := 0
		for i := 1; i < len(pending); i++ {
			if discovery[pending[i]] < discovery[pending[best]] {
				best = i
			}
		}
		h := pending[best]
		pending = append(pending[:best], pending[best+1:]...)

		c := commits[h]
		order = append(order, c)
		for _, p := range c.Parents {
			children[p]--
			if children[p] == 0 {
				pending = append(pending, p)
			}
		}
	}

	return order, nil
}

// serialization

func encodeCommitBody(c *Commit) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash)
	for _, p := range c.Parents {
		fmt.Fprintf(&buf, "parent %s\n", p)
	}
	fmt.Fprintf(&buf, "agent %s\n", c.AgentID)
	fmt.Fprintf(&buf, "author %s %d\n", c.AuthorID, c.Timestamp.Unix())
	fmt.Fprintf(&buf, "stats %d %d %d\n", c.Stats.Added, c.Stats.Removed, c.Stats.Modified)
	buf.WriteString("\n")
	buf.WriteString(c.Message)
	return buf.Bytes()
}

func decodeCommitBody(body []byte) (*Commit, error) {
	header, message, ok := strings.Cut(string(body), "\n\n")
	if !ok {
		return nil, fmt.Errorf("%w: missing header separator", ErrMalformedObject)
	}

	c := &Commit{Message: message}
	sawTree, sawAuthor := false, false

	for _, line := range strings.Split(header, "\n") {
		field, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("%w: bad header line %q", ErrMalformedObject, line)
		}

		switch field {
		case "tree":
			hash, err := NewHash(rest)
			if err != nil {
				return nil, err
			}
			c.TreeHash = hash
			sawTree = true
		case "parent":
			hash, err := NewHash(rest)
			if err != nil {
				return nil, err
			}
			c.Parents = append(c.Parents, hash)
		case "agent":
			c.AgentID = rest
		case "author":
			id, ts, ok := strings.Cut(rest, " ")
			if !ok {
				return nil, fmt.Errorf("%w: bad author line", ErrMalformedObject)
			}
			unix, err := strconv.ParseInt(ts, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad author timestamp: %v", ErrMalformedObject, err)
			}
			c.AuthorID = id
			c.Timestamp = time.Unix(unix, 0).UTC()
			sawAuthor = true
		case "stats":
			if _, err := fmt.Sscanf(rest, "%d %d %d", &c.Stats.Added, &c.Stats.Removed, &c.Stats.Modified); err != nil {
				return nil, fmt.Errorf("%w: bad stats line: %v", ErrMalformedObject, err)
			}
		default:
			return nil, fmt.Errorf("%w: unknown header field %q", ErrMalformedObject, field)
		}
	}

	if !sawTree || !sawAuthor {
		return nil, fmt.Errorf("%w: incomplete commit header", ErrMalformedObject)
	}

	return c, nil
}
