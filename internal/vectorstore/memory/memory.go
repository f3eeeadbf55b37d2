package memory

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/philippgille/chromem-go"

	"ragchat/internal/domain"
)

const collectionName = "knowledge"

var errNoEmbeddingFunc = errors.New("memory index only accepts precomputed embeddings")

// Storage is an in-process vector index backed by a chromem-go collection.
// Vectors are normalized on insert and compared by cosine similarity.
type Storage struct {
	collection  *chromem.Collection
	concurrency int
}

// NewStorage creates an empty index. concurrency bounds the goroutines
// chromem uses while inserting.
func NewStorage(concurrency int) (*Storage, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	db := chromem.NewDB()
	embed := func(context.Context, string) ([]float32, error) { return nil, errNoEmbeddingFunc }
	c, err := db.CreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	return &Storage{collection: c, concurrency: concurrency}, nil
}

func (s *Storage) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for i, ch := range chunks {
		if isZero(vectors[i]) {
			// cannot be normalized, and would never match a query
			log.Printf("memory index: skipping chunk %s with zero embedding", ch.ChunkID)
			continue
		}
		docs = append(docs, chromem.Document{
			ID:        ch.ChunkID,
			Content:   ch.Text,
			Embedding: vectors[i],
			Metadata: map[string]string{
				"document_id": ch.DocumentID,
				"index":       strconv.Itoa(ch.Index),
			},
		})
	}
	if len(docs) == 0 {
		return nil
	}
	return s.collection.AddDocuments(ctx, docs, s.concurrency)
}

func (s *Storage) Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	n := s.collection.Count()
	if n == 0 || isZero(vector) {
		return nil, nil
	}
	if topK > n {
		topK = n
	}
	res, err := s.collection.QueryEmbedding(ctx, vector, topK, nil, nil)
	if err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(res))
	for _, r := range res {
		idx, _ := strconv.Atoi(r.Metadata["index"])
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{
				DocumentID: r.Metadata["document_id"],
				ChunkID:    r.ID,
				Text:       r.Content,
				Index:      idx,
			},
			Score: float64(r.Similarity),
		})
	}
	return results, nil
}

func (s *Storage) Len() int { return s.collection.Count() }

func (s *Storage) Close() error { return nil }

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
