package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/domain"
)

func wordsDoc(n int) domain.Document {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%02d", i)
	}
	return domain.Document{ID: "doc", Path: "knowledge.txt", Content: strings.Join(words, " ")}
}

func texts(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out
}

func TestNew_RejectsBadParameters(t *testing.T) {
	_, err := New("recursive", 0, 0)
	assert.Error(t, err)
	_, err = New("recursive", 100, 100)
	assert.Error(t, err)
	_, err = New("recursive", 100, -1)
	assert.Error(t, err)
	_, err = New("markdown", 100, 10)
	assert.Error(t, err)
}

func TestNew_SelectsImplementation(t *testing.T) {
	s, err := New("", 100, 10)
	require.NoError(t, err)
	assert.IsType(t, &RecursiveChunker{}, s)

	s, err = New("sentence", 100, 10)
	require.NoError(t, err)
	assert.IsType(t, &SentenceChunker{}, s)
}

func TestRecursiveChunker_BoundedSizeAndOverlap(t *testing.T) {
	doc := wordsDoc(72) // ~500 characters
	chunks, err := NewRecursiveChunker(200, 50).Split(doc)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(chunks), 3)
	require.LessOrEqual(t, len(chunks), 4)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 200)
		assert.Contains(t, doc.Content, c.Text, "chunk %d is not a substring of the source", i)
		assert.Equal(t, i, c.Index)
		assert.Equal(t, fmt.Sprintf("doc:%d", i), c.ChunkID)
	}
	for i := 1; i < len(chunks); i++ {
		first := strings.Fields(chunks[i].Text)[0]
		assert.Contains(t, chunks[i-1].Text, first, "chunk %d does not overlap its predecessor", i)
	}
}

func TestRecursiveChunker_CoversWholeText(t *testing.T) {
	doc := wordsDoc(72)
	chunks, err := NewRecursiveChunker(200, 50).Split(doc)
	require.NoError(t, err)

	joined := strings.Join(texts(chunks), " ")
	for _, w := range strings.Fields(doc.Content) {
		assert.Contains(t, joined, w)
	}
}

func TestRecursiveChunker_Deterministic(t *testing.T) {
	doc := wordsDoc(150)
	c := NewRecursiveChunker(120, 30)

	a, err := c.Split(doc)
	require.NoError(t, err)
	b, err := c.Split(doc)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRecursiveChunker_ShortTextIsOneChunk(t *testing.T) {
	chunks, err := NewRecursiveChunker(200, 50).Split(domain.Document{ID: "d", Content: "Paris is the capital of France."})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Paris is the capital of France.", chunks[0].Text)
}

func TestSentenceChunker_PacksSentences(t *testing.T) {
	doc := domain.Document{ID: "d", Content: "One. Two. Three."}

	chunks, err := NewSentenceChunker(10, 0).Split(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"One. Two.", "Three."}, texts(chunks))
}

func TestSentenceChunker_RepeatsTrailingSentenceAsOverlap(t *testing.T) {
	doc := domain.Document{ID: "d", Content: "One. Two. Three."}

	chunks, err := NewSentenceChunker(15, 5).Split(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"One. Two.", "Two. Three."}, texts(chunks))
}

func TestSentenceChunker_KeepsUnterminatedTail(t *testing.T) {
	doc := domain.Document{ID: "d", Content: "First sentence. and a trailing fragment"}

	chunks, err := NewSentenceChunker(100, 0).Split(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"First sentence. and a trailing fragment"}, texts(chunks))
}

func TestSentenceChunker_HardCutsLongSentence(t *testing.T) {
	long := strings.Repeat("x", 25) + "."
	chunks, err := NewSentenceChunker(10, 2).Split(domain.Document{ID: "d", Content: long})
	require.NoError(t, err)

	got := texts(chunks)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxxxxxx."}, got)
	for _, c := range got {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 10)
	}
}

func TestSentenceChunker_EmptyInput(t *testing.T) {
	chunks, err := NewSentenceChunker(10, 2).Split(domain.Document{ID: "d", Content: "   "})
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
