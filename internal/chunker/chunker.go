// Package chunker splits the knowledge document into overlapping chunks.
package chunker

import (
	"fmt"
	"strconv"

	"ragchat/internal/domain"
)

// New returns the splitter registered under name.
func New(name string, size, overlap int) (domain.Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	switch name {
	case "recursive", "":
		return NewRecursiveChunker(size, overlap), nil
	case "sentence":
		return NewSentenceChunker(size, overlap), nil
	default:
		return nil, fmt.Errorf("unknown splitter: %s", name)
	}
}

func toChunks(document domain.Document, texts []string) []domain.Chunk {
	chunks := make([]domain.Chunk, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		idx := len(chunks)
		chunks = append(chunks, domain.Chunk{
			DocumentID: document.ID,
			ChunkID:    document.ID + ":" + strconv.Itoa(idx),
			Text:       text,
			Index:      idx,
		})
	}
	return chunks
}
