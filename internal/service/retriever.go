package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"ragchat/internal/domain"
)

// minScore is the similarity below which index results are treated as no match.
const minScore = 1e-9

var wordPattern = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)

// Retriever returns the chunks most similar to a query.
type Retriever struct {
	embedder domain.Embedder
	index    domain.Index
	k        int
	// chunks backs the lexical fallback
	chunks []domain.Chunk
}

func NewRetriever(embedder domain.Embedder, index domain.Index, k int, chunks []domain.Chunk) *Retriever {
	return &Retriever{embedder: embedder, index: index, k: k, chunks: chunks}
}

// Retrieve embeds the query and asks the index for the k nearest chunks.
// When the query vector carries no signal, or nothing scores above zero,
// chunks are ranked by word overlap with the query instead.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]domain.SearchResult, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if isZero(vec) {
		return r.lexicalSearch(query), nil
	}
	res, err := r.index.Query(ctx, vec, r.k)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	for _, hit := range res {
		if hit.Score > minScore {
			return res, nil
		}
	}
	return r.lexicalSearch(query), nil
}

func (r *Retriever) lexicalSearch(query string) []domain.SearchResult {
	qset := toTokenSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(r.chunks))
	for i, ch := range r.chunks {
		scores[i] = pair{i, overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	k := r.k
	if k <= 0 {
		k = 5
	}
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]domain.SearchResult, 0, k)
	for _, p := range scores[:k] {
		out = append(out, domain.SearchResult{Chunk: r.chunks[p.idx], Score: p.score})
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := wordPattern.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over the distinct words of both sides.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	seen := toTokenSet(text)
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	inter := 0
	for t := range seen {
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}
