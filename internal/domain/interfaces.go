package domain

import "context"

// Document is the knowledge file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a bounded-length part of a document used for indexing.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// Splitter breaks a document into overlapping chunks.
type Splitter interface {
	Split(document Document) ([]Chunk, error)
}

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, text string) ([]float32, error)
}

// BatchEmbedder is implemented by embedders that can embed many texts per call.
type BatchEmbedder interface {
	Embedder
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Preparer is implemented by embedders that need a pass over the corpus
// before they can embed anything.
type Preparer interface {
	Prepare(corpus []string) error
}

// Index holds chunk vectors and supports nearest-neighbour lookup.
type Index interface {
	Add(ctx context.Context, chunks []Chunk, vectors [][]float32) error
	Query(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	Len() int
	Close() error
}

// ChatModel is a chat-capable language model.
type ChatModel interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Answerer turns a user query into displayable answer text.
type Answerer interface {
	Answer(ctx context.Context, query string) (string, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}
