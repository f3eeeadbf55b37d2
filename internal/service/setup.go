package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ragchat/internal/config"
	"ragchat/internal/domain"
	"ragchat/internal/knowledge"
)

// Mode tells which answering path a Bot uses for its whole lifetime.
type Mode int

const (
	ModePlain Mode = iota
	ModeRAG
)

func (m Mode) String() string {
	if m == ModeRAG {
		return "rag"
	}
	return "plain"
}

// Components are the collaborators Setup wires together. Summarizer is optional.
type Components struct {
	Splitter   domain.Splitter
	Embedder   domain.Embedder
	Index      domain.Index
	Chat       domain.ChatModel
	Summarizer domain.Summarizer
}

// Bot is the assembled chatbot.
type Bot struct {
	Mode     Mode
	Answerer domain.Answerer
	Chunks   int
	Summary  string
	// Warning is set when the knowledge file could not be used.
	Warning string

	index domain.Index
}

func (b *Bot) Close() error {
	if b.index == nil {
		return nil
	}
	return b.index.Close()
}

// Setup loads the knowledge file and indexes it. A missing or empty file is
// not an error: the returned Bot answers from the model alone. Any failure
// after the file was read aborts setup.
func Setup(ctx context.Context, cfg *config.Config, c Components) (*Bot, error) {
	doc, err := knowledge.Load(cfg.Data.KnowledgeFile)
	switch {
	case errors.Is(err, knowledge.ErrAbsent):
		log.Printf("setup: %v", err)
		return plainBot(c, fmt.Sprintf("Warning: %s tidak ditemukan. Chatbot akan bekerja tanpa knowledge base.", cfg.Data.KnowledgeFile)), nil
	case errors.Is(err, knowledge.ErrEmpty):
		log.Printf("setup: %v", err)
		return plainBot(c, emptyWarning(cfg.Data.KnowledgeFile)), nil
	case err != nil:
		return nil, err
	}

	chunks, err := c.Splitter.Split(*doc)
	if err != nil {
		return nil, fmt.Errorf("split knowledge file: %w", err)
	}
	if len(chunks) == 0 {
		return plainBot(c, emptyWarning(cfg.Data.KnowledgeFile)), nil
	}
	log.Printf("setup: %d chunks from %s", len(chunks), doc.Path)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if p, ok := c.Embedder.(domain.Preparer); ok {
		if err := p.Prepare(texts); err != nil {
			return nil, fmt.Errorf("prepare %s embedder: %w", c.Embedder.Name(), err)
		}
	}
	vectors, err := embedAll(ctx, c.Embedder, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if err := c.Index.Add(ctx, chunks, vectors); err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	bot := &Bot{
		Mode:     ModeRAG,
		Answerer: NewRAGAnswerer(NewRetriever(c.Embedder, c.Index, cfg.RAG.SimilaritySearchK, chunks), c.Chat),
		Chunks:   len(chunks),
		index:    c.Index,
	}
	if c.Summarizer != nil {
		bot.Summary, err = c.Summarizer.Summarize(doc.Content, cfg.UI.SummarySentences)
		if err != nil {
			return nil, fmt.Errorf("summarize knowledge file: %w", err)
		}
	}
	return bot, nil
}

func emptyWarning(path string) string {
	return fmt.Sprintf("Warning: %s tidak berisi teks. Chatbot akan bekerja tanpa knowledge base.", path)
}

func plainBot(c Components, warning string) *Bot {
	return &Bot{Mode: ModePlain, Answerer: NewPlainAnswerer(c.Chat), Warning: warning, index: c.Index}
}

func embedAll(ctx context.Context, e domain.Embedder, texts []string) ([][]float32, error) {
	if b, ok := e.(domain.BatchEmbedder); ok {
		return b.EmbedBatch(ctx, texts)
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}
