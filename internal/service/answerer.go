package service

import (
	"context"
	"fmt"
	"strings"

	"ragchat/internal/domain"
)

const promptTemplate = `Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

%s

Question: %s
Helpful Answer:`

// BuildPrompt stuffs the retrieved chunk texts, separated by blank lines,
// into a single grounded question.
func BuildPrompt(query string, results []domain.SearchResult) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.Chunk.Text
	}
	return fmt.Sprintf(promptTemplate, strings.Join(parts, "\n\n"), query)
}

// RAGAnswerer answers from the chunks the retriever finds for each query.
type RAGAnswerer struct {
	retriever *Retriever
	chat      domain.ChatModel
}

func NewRAGAnswerer(retriever *Retriever, chat domain.ChatModel) *RAGAnswerer {
	return &RAGAnswerer{retriever: retriever, chat: chat}
}

func (a *RAGAnswerer) Answer(ctx context.Context, query string) (string, error) {
	results, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	return a.chat.Complete(ctx, BuildPrompt(query, results))
}

// PlainAnswerer sends the query to the model as-is.
type PlainAnswerer struct {
	chat domain.ChatModel
}

func NewPlainAnswerer(chat domain.ChatModel) *PlainAnswerer {
	return &PlainAnswerer{chat: chat}
}

func (a *PlainAnswerer) Answer(ctx context.Context, query string) (string, error) {
	return a.chat.Complete(ctx, query)
}
