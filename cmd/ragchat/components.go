package main

import (
	"fmt"

	"ragchat/internal/chunker"
	"ragchat/internal/config"
	"ragchat/internal/domain"
	embopenai "ragchat/internal/embedding/openai"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/llm"
	"ragchat/internal/service"
	"ragchat/internal/vectorstore/memory"
	"ragchat/internal/vectorstore/qdrant"
)

// buildComponents assembles the pipeline selected in the config. Nothing
// here talks to the network yet.
func buildComponents(cfg *config.Config) (service.Components, error) {
	splitter, err := chunker.New(cfg.RAG.Splitter, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	if err != nil {
		return service.Components{}, err
	}

	client := llm.NewOpenAIClient(cfg.OpenAI)

	var emb domain.Embedder
	switch cfg.RAG.Embedder {
	case "openai", "":
		emb = embopenai.NewClient(client, embopenai.Config{
			Model:      cfg.OpenAI.EmbeddingModel,
			BatchSize:  cfg.OpenAI.BatchSize,
			MaxRetries: cfg.OpenAI.MaxRetries,
		})
	case "tfidf":
		emb = tfidf.NewEmbedder()
	default:
		return service.Components{}, fmt.Errorf("unknown embedder: %s", cfg.RAG.Embedder)
	}

	var idx domain.Index
	switch cfg.RAG.VectorStore {
	case "memory", "":
		idx, err = memory.NewStorage(cfg.RAG.EmbedConcurrency)
	case "qdrant":
		idx, err = qdrant.NewStorage(qdrant.Config{
			Host:       cfg.RAG.Qdrant.Host,
			Port:       cfg.RAG.Qdrant.Port,
			Collection: cfg.RAG.Qdrant.Collection,
			APIKey:     cfg.RAG.Qdrant.APIKey,
		})
	default:
		return service.Components{}, fmt.Errorf("unknown vector store: %s", cfg.RAG.VectorStore)
	}
	if err != nil {
		return service.Components{}, err
	}

	return service.Components{
		Splitter: splitter,
		Embedder: emb,
		Index:    idx,
		Chat:     llm.NewOpenAIChat(client, cfg.OpenAI.Model, cfg.OpenAI.Temperature),
	}, nil
}
