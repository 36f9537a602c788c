package internal

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// TreeEntry maps one logical path in a snapshot to the blob hash of the
// memory item stored there.
type TreeEntry struct {
	Path string
	Mode string
	Hash Hash
}

const ItemMode = "100644"

var treePathPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._/-]*$`)

func ValidTreePath(p string) bool {
	return treePathPattern.MatchString(p)
}

// Tree is one named snapshot of an agent's accessible memory. Its hash
// is a pure function of its entries: identical entry sets built in any
// insertion order produce identical hashes.
type Tree struct {
	Hash    Hash
	Entries []TreeEntry
}

// Lookup returns the hash stored at path, or ZeroHash when absent.
func (t *Tree) Lookup(path string) Hash {
	for _, e := range t.Entries {
		if e.Path == path {
			return e.Hash
		}
	}
	return ZeroHash
}

// PathMap views the tree as a path → hash mapping for diffing.
func (t *Tree) PathMap() map[string]Hash {
	m := make(map[string]Hash, len(t.Entries))
	for _, e := range t.Entries {
		m[e.Path] = e.Hash
	}
	return m
}

// TreeBuilder canonicalizes and persists trees on top of the object
// store.
type TreeBuilder struct {
	store ObjectStore
}

func NewTreeBuilder(store ObjectStore) *TreeBuilder {
	return &TreeBuilder{store: store}
}

// Build sorts entries by path, serializes them, and stores the result.
// Duplicate paths keep the last entry, matching overwrite-on-add
// semantics.
func (b *TreeBuilder) Build(ctx context.Context, entries []TreeEntry) (Hash, error) {
	canonical, err := canonicalizeEntries(entries)
	if err != nil {
		return ZeroHash, err
	}

	body := encodeTreeBody(canonical)
	hash, err := b.store.Put(ctx, TreeObject, body)
	if err != nil {
		return ZeroHash, fmt.Errorf("store tree: %w", err)
	}
	return hash, nil
}

// Resolve loads a tree back out of the store.
func (b *TreeBuilder) Resolve(ctx context.Context, hash Hash) (*Tree, error) {
	typ, body, err := b.store.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if typ != TreeObject {
		return nil, fmt.Errorf("%w: %s is a %s, not a tree", ErrMalformedObject, hash.Short(), typ)
	}

	entries, err := decodeTreeBody(body)
	if err != nil {
		return nil, fmt.Errorf("tree %s: %w", hash.Short(), err)
	}

	return &Tree{Hash: hash, Entries: entries}, nil
}

func canonicalizeEntries(entries []TreeEntry) ([]TreeEntry, error) {
	byPath := make(map[string]TreeEntry, len(entries))
	for _, e := range entries {
		if !ValidTreePath(e.Path) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, e.Path)
		}
		if e.Hash.IsZero() {
			return nil, fmt.Errorf("%w: entry %q has no hash", ErrMalformedObject, e.Path)
		}
		if e.Mode == "" {
			e.Mode = ItemMode
		}
		byPath[e.Path] = e
	}

	canonical := make([]TreeEntry, 0, len(byPath))
	for _, e := range byPath {
		canonical = append(canonical, e)
	}
	sort.Slice(canonical, func(i, j int) bool {
		return canonical[i].Path < canonical[j].Path
	})
	return canonical, nil
}

func encodeTreeBody(entries []TreeEntry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		fmt.Fprintf(&buf, "%s %s\x00%s\n", e.Mode, e.Path, e.Hash)
	}
	return buf.Bytes()
}

func decodeTreeBody(body []byte) ([]TreeEntry, error) {
	var entries []TreeEntry

	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		head, hashPart, ok := strings.Cut(line, "\x00")
		if !ok {
			return nil, fmt.Errorf("%w: tree entry missing separator", ErrMalformedObject)
		}
		mode, path, ok := strings.Cut(head, " ")
		if !ok {
			return nil, fmt.Errorf("%w: tree entry missing mode", ErrMalformedObject)
		}

		hash, err := NewHash(hashPart)
		if err != nil {
			return nil, err
		}
		if !ValidTreePath(path) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}

		entries = append(entries, TreeEntry{Path: path, Mode: mode, Hash: hash})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}

	return entries, nil
}
