// Package knowledge reads the single knowledge file the chatbot answers from.
package knowledge

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"ragchat/internal/domain"
)

// ErrAbsent and ErrEmpty signal a knowledge file that is missing or has no
// text. Callers degrade to answering without retrieval instead of failing.
var (
	ErrAbsent = errors.New("knowledge file not found")
	ErrEmpty  = errors.New("knowledge file has no text")
)

// Load returns the full text of the knowledge file at path.
// Files ending in .pdf are converted to plain text first.
func Load(path string) (*domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrAbsent, path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("knowledge file %s is a directory", path)
	}

	var content string
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		content, err = readPDF(path)
	} else {
		var data []byte
		data, err = os.ReadFile(path)
		content = string(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file %s: %w", path, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmpty, path)
	}

	return &domain.Document{ID: hashString(path), Path: path, Content: content}, nil
}

func readPDF(path string) (string, error) {
	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func hashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:8])
}
