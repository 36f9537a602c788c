package internal

import "context"

type Embedding struct {
	Vector    []float32
	Dimension int
	Model     string
}

func NewEmbedding(vec []float32, model string) Embedding {
	return Embedding{
		Vector:    vec,
		Dimension: len(vec),
		Model:     model,
	}
}

// SearchHit ties a similarity score to the item hash found at a tree
// path in the indexed snapshot.
type SearchHit struct {
	Path  string
	Item  Hash
	Score float32 // 0-1, higher is better
}

type VectorIndex interface {
	Add(ctx context.Context, path string, item Hash, emb Embedding) error
	Remove(ctx context.Context, path string) error
	Search(ctx context.Context, query Embedding, k int) ([]SearchHit, error)
	Build(ctx context.Context, numTrees int) error
	Save(ctx context.Context) error
	Load(ctx context.Context) error
	Contains(ctx context.Context, path string) bool
}
