package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mariotoffia/goannoy/builder"
	"github.com/mariotoffia/goannoy/interfaces"
)

const (
	IndexFilename   = "index.ann"
	MappingFilename = "mapping.json"
)

var _ VectorIndex = (*AnnoyIndex)(nil)

// AnnoyIndex maps tree paths of an indexed snapshot to annoy item ids.
// The mapping also remembers which blob hash each path pointed at when
// it was indexed, so search hits can be resolved back through the
// object store.
type AnnoyIndex struct {
	mu        sync.RWMutex
	idx       interfaces.AnnoyIndex[float32, uint32]
	dimension int
	pathToID  map[string]uint32
	idToPath  map[uint32]string
	pathItem  map[string]Hash
	nextID    uint32
	basePath  string
	built     bool
	dirty     bool
}

type indexMapping struct {
	PathToID map[string]uint32 `json:"path_to_id"`
	IDToPath map[uint32]string `json:"id_to_path"`
	PathItem map[string]Hash   `json:"path_item"`
	NextID   uint32            `json:"next_id"`
}

func NewAnnoyIndex(basePath string, dimension int) (*AnnoyIndex, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create vectors directory: %w", err)
	}

	idx := builder.Index[float32, uint32]().
		AngularDistance(dimension).
		UseMultiWorkerPolicy().
		MmapIndexAllocator().
		Build()

	return &AnnoyIndex{
		idx:       idx,
		dimension: dimension,
		pathToID:  make(map[string]uint32),
		idToPath:  make(map[uint32]string),
		pathItem:  make(map[string]Hash),
		basePath:  basePath,
	}, nil
}

func (a *AnnoyIndex) Add(ctx context.Context, path string, item Hash, emb Embedding) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(emb.Vector) != a.dimension {
		return fmt.Errorf("dimension mismatch: expected %d, got %d", a.dimension, len(emb.Vector))
	}

	id, exists := a.pathToID[path]
	if !exists {
		id = a.nextID
		a.nextID++
		a.pathToID[path] = id
		a.idToPath[id] = path
	}
	a.pathItem[path] = item

	a.idx.AddItem(id, emb.Vector)
	a.dirty = true
	a.built = false

	return nil
}

func (a *AnnoyIndex) Remove(ctx context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	id, exists := a.pathToID[path]
	if !exists {
		return nil
	}

	delete(a.pathToID, path)
	delete(a.idToPath, id)
	delete(a.pathItem, path)
	a.dirty = true
	a.built = false

	return nil
}

func (a *AnnoyIndex) Search(ctx context.Context, query Embedding, k int) ([]SearchHit, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if !a.built {
		return nil, fmt.Errorf("index not built")
	}
	if len(query.Vector) != a.dimension {
		return nil, fmt.Errorf("dimension mismatch: expected %d, got %d", a.dimension, len(query.Vector))
	}

	numItems := len(a.pathToID)
	if k > numItems {
		k = numItems
	}
	if k == 0 {
		return nil, nil
	}

	searchCtx := a.idx.CreateContext()
	ids, distances := a.idx.GetNnsByVector(query.Vector, k, -1, searchCtx)

	hits := make([]SearchHit, 0, len(ids))
	for i, id := range ids {
		path, exists := a.idToPath[id]
		if !exists {
			continue
		}

		// Angular distance lands in [0, 2]; fold it into a 0-1 score.
		var score float32
		if i < len(distances) {
			score = 1.0 - distances[i]/2.0
		}

		hits = append(hits, SearchHit{
			Path:  path,
			Item:  a.pathItem[path],
			Score: score,
		})
	}

	return hits, nil
}

func (a *AnnoyIndex) Build(ctx context.Context, numTrees int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.idx.Build(numTrees, -1)
	a.built = true
	return nil
}

func (a *AnnoyIndex) Save(ctx context.Context) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	indexPath := filepath.Join(a.basePath, IndexFilename)
	if err := a.idx.Save(indexPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}

	mapping := indexMapping{
		PathToID: a.pathToID,
		IDToPath: a.idToPath,
		PathItem: a.pathItem,
		NextID:   a.nextID,
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("marshal mapping: %w", err)
	}

	mappingPath := filepath.Join(a.basePath, MappingFilename)
	if err := os.WriteFile(mappingPath, data, 0644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}

	a.dirty = false
	return nil
}

func (a *AnnoyIndex) Load(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	mappingPath := filepath.Join(a.basePath, MappingFilename)
	data, err := os.ReadFile(mappingPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read mapping: %w", err)
	}

	var mapping indexMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return fmt.Errorf("unmarshal mapping: %w", err)
	}

	a.pathToID = mapping.PathToID
	a.idToPath = mapping.IDToPath
	a.pathItem = mapping.PathItem
	if a.pathItem == nil {
		a.pathItem = make(map[string]Hash)
	}
	a.nextID = mapping.NextID

	indexPath := filepath.Join(a.basePath, IndexFilename)
	if _, err := os.Stat(indexPath); os.IsNotExist(err) {
		return nil
	}

	if err := a.idx.Load(indexPath); err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	a.built = true
	a.dirty = false
	return nil
}

func (a *AnnoyIndex) Contains(ctx context.Context, path string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	_, exists := a.pathToID[path]
	return exists
}
