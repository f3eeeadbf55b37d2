package summarizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize_PicksFrequentSentencesInOrder(t *testing.T) {
	text := "Go has goroutines. Bananas are yellow. Goroutines make Go concurrent. Go compiles fast."

	out, err := NewFrequencySummarizer().Summarize(text, 2)
	require.NoError(t, err)

	assert.Equal(t, "Go has goroutines. Goroutines make Go concurrent.", out)
	assert.NotContains(t, out, "Bananas")
}

func TestSummarize_NoSentenceTerminators(t *testing.T) {
	out, err := NewFrequencySummarizer().Summarize("  just a fragment  ", 3)
	require.NoError(t, err)
	assert.Equal(t, "just a fragment", out)
}

func TestSummarize_FewerSentencesThanRequested(t *testing.T) {
	out, err := NewFrequencySummarizer().Summarize("Only one sentence here.", 5)
	require.NoError(t, err)
	assert.Equal(t, "Only one sentence here.", out)
}
