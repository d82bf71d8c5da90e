package store

import (
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
)

// vectorIndex wraps a coder/hnsw graph with string chunk IDs. It is an
// in-memory structure only; the SQLite rows are the source of truth
// and the graph is rebuilt from them when a collection opens.
type vectorIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	dims   int
	metric string

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

func newVectorIndex(dims int, metric string) *vectorIndex {
	graph := hnsw.NewGraph[uint64]()
	switch metric {
	case "l2":
		graph.Distance = hnsw.EuclideanDistance
	default:
		metric = "cosine"
		graph.Distance = hnsw.CosineDistance
	}
	graph.M = 16
	graph.EfSearch = 20
	graph.Ml = 0.25

	return &vectorIndex{
		graph:  graph,
		dims:   dims,
		metric: metric,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// add inserts or replaces one vector. Replacement uses lazy deletion:
// the old graph node is orphaned rather than removed, because deleting
// nodes from coder/hnsw can corrupt a near-empty graph.
func (x *vectorIndex) add(id string, vector []float32) error {
	if len(vector) != x.dims {
		return ErrDimensionMismatch{Expected: x.dims, Got: len(vector)}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if oldKey, exists := x.idMap[id]; exists {
		delete(x.keyMap, oldKey)
		delete(x.idMap, id)
	}

	key := x.nextKey
	x.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	if x.metric == "cosine" {
		normalizeInPlace(vec)
	}

	x.graph.Add(hnsw.MakeNode(key, vec))
	x.idMap[id] = key
	x.keyMap[key] = id
	return nil
}

// remove lazily deletes ids from the index.
func (x *vectorIndex) remove(ids []string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	for _, id := range ids {
		if key, exists := x.idMap[id]; exists {
			delete(x.keyMap, key)
			delete(x.idMap, id)
		}
	}
}

type vectorHit struct {
	id       string
	distance float32
	score    float32
}

// search returns up to k live neighbors of query. Orphaned nodes are
// filtered out, so fewer than k hits may come back even when the graph
// holds more nodes.
func (x *vectorIndex) search(query []float32, k int) ([]vectorHit, error) {
	if len(query) != x.dims {
		return nil, ErrDimensionMismatch{Expected: x.dims, Got: len(query)}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.graph.Len() == 0 {
		return nil, nil
	}

	vec := make([]float32, len(query))
	copy(vec, query)
	if x.metric == "cosine" {
		normalizeInPlace(vec)
	}

	// Over-fetch to compensate for orphans left by lazy deletion.
	fetch := k + (x.graph.Len() - len(x.idMap))
	nodes := x.graph.Search(vec, fetch)

	hits := make([]vectorHit, 0, k)
	for _, node := range nodes {
		id, live := x.keyMap[node.Key]
		if !live {
			continue
		}
		distance := x.graph.Distance(vec, node.Value)
		hits = append(hits, vectorHit{
			id:       id,
			distance: distance,
			score:    distanceToScore(distance, x.metric),
		})
		if len(hits) == k {
			break
		}
	}
	return hits, nil
}

func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= inv
	}
}

// distanceToScore maps a distance to a 0..1 similarity.
func distanceToScore(distance float32, metric string) float32 {
	switch metric {
	case "l2":
		return 1.0 / (1.0 + distance)
	default:
		// Cosine distance ranges 0 (identical) to 2 (opposite).
		return 1.0 - distance/2.0
	}
}

// String describes the index for logs.
func (x *vectorIndex) String() string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return fmt.Sprintf("vectorIndex(dims=%d metric=%s live=%d nodes=%d)",
		x.dims, x.metric, len(x.idMap), x.graph.Len())
}
