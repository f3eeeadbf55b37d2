package chunker

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"ragchat/internal/domain"
)

// RecursiveChunker splits on paragraph, line and word boundaries in that
// order, falling back to hard character cuts. Sizes are counted in runes.
type RecursiveChunker struct {
	splitter textsplitter.RecursiveCharacter
}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	return &RecursiveChunker{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

func (c *RecursiveChunker) Split(document domain.Document) ([]domain.Chunk, error) {
	texts, err := c.splitter.SplitText(document.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to split %s: %w", document.Path, err)
	}
	return toChunks(document, texts), nil
}
