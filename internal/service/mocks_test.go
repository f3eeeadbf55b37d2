package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"ragchat/internal/domain"
)

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Name() string { return "mock" }

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if v := args.Get(0); v != nil {
		return v.([]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) Add(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	return m.Called(ctx, chunks, vectors).Error(0)
}

func (m *MockIndex) Query(ctx context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	args := m.Called(ctx, vector, topK)
	if v := args.Get(0); v != nil {
		return v.([]domain.SearchResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIndex) Len() int { return m.Called().Int(0) }

func (m *MockIndex) Close() error { return nil }

type MockChat struct {
	mock.Mock
}

func (m *MockChat) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
