package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"ragchat/internal/domain"
)

// SentenceChunker packs whole sentences into chunks of at most size runes.
// Trailing sentences of a chunk that fit in overlap runes are repeated at the
// start of the next one. A sentence longer than size is cut by characters.
type SentenceChunker struct {
	size     int
	overlap  int
	splitter *regexp.Regexp
}

func NewSentenceChunker(size, overlap int) *SentenceChunker {
	return &SentenceChunker{
		size:     size,
		overlap:  overlap,
		splitter: regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

func (c *SentenceChunker) Split(document domain.Document) ([]domain.Chunk, error) {
	sentences := c.sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}

	var texts []string
	var current []string
	flush := func() {
		if len(current) > 0 {
			texts = append(texts, strings.Join(current, " "))
		}
	}

	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if n > c.size {
			flush()
			texts = append(texts, hardCut(s, c.size, c.overlap)...)
			current = nil
			continue
		}
		if len(current) > 0 && joinedLen(current)+1+n > c.size {
			flush()
			current = tail(current, c.overlap)
			for len(current) > 0 && joinedLen(current)+1+n > c.size {
				current = current[1:]
			}
		}
		current = append(current, s)
	}
	flush()

	return toChunks(document, texts), nil
}

func (c *SentenceChunker) sentences(text string) []string {
	var out []string
	last := 0
	for _, loc := range c.splitter.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		last = loc[1]
	}
	// text after the final terminator
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

func joinedLen(parts []string) int {
	if len(parts) == 0 {
		return 0
	}
	n := len(parts) - 1
	for _, p := range parts {
		n += utf8.RuneCountInString(p)
	}
	return n
}

// tail returns the longest suffix of parts whose joined length fits in limit.
func tail(parts []string, limit int) []string {
	i := len(parts)
	for i > 0 && joinedLen(parts[i-1:]) <= limit {
		i--
	}
	return append([]string(nil), parts[i:]...)
}

func hardCut(s string, size, overlap int) []string {
	runes := []rune(s)
	step := size - overlap
	var out []string
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
