package internal

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Modification records a path whose content hash changed between two
// snapshots. Both versions remain immutable; only the tree's pointer
// moved.
type Modification struct {
	Path    string
	OldHash Hash
	NewHash Hash
}

// TreeDiff is the set-level difference between two snapshots.
type TreeDiff struct {
	Added    []string
	Removed  []string
	Modified []Modification
}

func (d TreeDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Modified) == 0
}

// diffTrees computes B relative to A as a pure map comparison. Paths
// present in both with identical hashes are unchanged and omitted.
func diffTrees(a, b *Tree) TreeDiff {
	am := a.PathMap()
	bm := b.PathMap()

	var d TreeDiff
	for path, bHash := range bm {
		aHash, ok := am[path]
		if !ok {
			d.Added = append(d.Added, path)
			continue
		}
		if aHash != bHash {
			d.Modified = append(d.Modified, Modification{Path: path, OldHash: aHash, NewHash: bHash})
		}
	}
	for path := range am {
		if _, ok := bm[path]; !ok {
			d.Removed = append(d.Removed, path)
		}
	}

	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	sort.Slice(d.Modified, func(i, j int) bool { return d.Modified[i].Path < d.Modified[j].Path })
	return d
}

// DiffEngine compares the trees reachable from two commits.
type DiffEngine struct {
	store ObjectStore
	graph *CommitGraph
	trees *TreeBuilder
}

func NewDiffEngine(store ObjectStore, graph *CommitGraph, trees *TreeBuilder) *DiffEngine {
	return &DiffEngine{store: store, graph: graph, trees: trees}
}

// Diff resolves both commits' trees and compares them. No semantic
// understanding of content happens at this layer.
func (e *DiffEngine) Diff(ctx context.Context, commitA, commitB Hash) (TreeDiff, error) {
	treeA, err := e.treeOf(ctx, commitA)
	if err != nil {
		return TreeDiff{}, err
	}
	treeB, err := e.treeOf(ctx, commitB)
	if err != nil {
		return TreeDiff{}, err
	}
	return diffTrees(treeA, treeB), nil
}

// DiffTrees compares two trees directly, used for stage-versus-HEAD.
func (e *DiffEngine) DiffTrees(ctx context.Context, treeA, treeB Hash) (TreeDiff, error) {
	a, err := e.trees.Resolve(ctx, treeA)
	if err != nil {
		return TreeDiff{}, err
	}
	b, err := e.trees.Resolve(ctx, treeB)
	if err != nil {
		return TreeDiff{}, err
	}
	return diffTrees(a, b), nil
}

func (e *DiffEngine) treeOf(ctx context.Context, commitHash Hash) (*Tree, error) {
	commit, err := e.graph.Load(ctx, commitHash)
	if err != nil {
		return nil, err
	}
	return e.trees.Resolve(ctx, commit.TreeHash)
}

// RenderPatch produces human-readable output for a diff: one header
// line per added/removed path and a character-level patch for each
// modified item's content.
func (e *DiffEngine) RenderPatch(ctx context.Context, d TreeDiff) (string, error) {
	var buf strings.Builder
	for _, path := range d.Added {
		fmt.Fprintf(&buf, "A  %s\n", path)
	}
	for _, path := range d.Removed {
		fmt.Fprintf(&buf, "D  %s\n", path)
	}

	dmp := diffmatchpatch.New()
	for _, mod := range d.Modified {
		fmt.Fprintf(&buf, "M  %s (%s -> %s)\n", mod.Path, mod.OldHash.Short(), mod.NewHash.Short())

		oldText, err := e.contentOf(ctx, mod.OldHash)
		if err != nil {
			return "", err
		}
		newText, err := e.contentOf(ctx, mod.NewHash)
		if err != nil {
			return "", err
		}

		patches := dmp.PatchMake(oldText, newText)
		buf.WriteString(dmp.PatchToText(patches))
	}
	return buf.String(), nil
}

func (e *DiffEngine) contentOf(ctx context.Context, blobHash Hash) (string, error) {
	typ, body, err := e.store.Get(ctx, blobHash)
	if err != nil {
		return "", err
	}
	if typ != BlobObject {
		return "", fmt.Errorf("%w: %s is a %s, not a blob", ErrMalformedObject, blobHash.Short(), typ)
	}

	if item, err := DecodeMemoryItem(blobHash, body); err == nil {
		return item.Content, nil
	}
	return string(body), nil
}
