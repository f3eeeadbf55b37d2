package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragchat/internal/config"
	"ragchat/internal/embedding/tfidf"
	"ragchat/internal/vectorstore/memory"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "KNOWLEDGE_FILE", "MODEL", "SENTRY_DSN"} {
		t.Setenv(config.EnvPrefix+"_"+k, "")
	}
	t.Setenv("OPENAI_API_KEY", "")
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func configBody(knowledgeFile, embedder string) string {
	return `{
  "data": {"knowledge_file": "` + knowledgeFile + `"},
  "rag": {"chunk_size": 200, "chunk_overlap": 50, "similarity_search_k": 2, "embedder": "` + embedder + `"},
  "openai": {"api_key": "sk-test", "embedding_model": "text-embedding-3-small", "model": "gpt-4o-mini", "temperature": 0}
}`
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return -1
}

func TestChat_MissingConfig(t *testing.T) {
	out, err := execute(t, "", "--config", filepath.Join(t.TempDir(), "config.json"))
	require.Error(t, err)
	assert.Equal(t, exitConfigNotFound, exitCode(err))
	assert.Contains(t, out, "[Error] config.json tidak ditemukan!")
}

func TestChat_MalformedConfig(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), "config.json", `{"data": `)

	out, err := execute(t, "", "-c", path)
	require.Error(t, err)
	assert.Equal(t, exitConfigMalformed, exitCode(err))
	assert.Contains(t, out, "[Error] Format config.json tidak valid!")
}

func TestChat_InvalidConfigValues(t *testing.T) {
	clearEnv(t)
	body := strings.Replace(configBody("k.txt", "tfidf"), `"chunk_overlap": 50`, `"chunk_overlap": 500`, 1)
	path := writeFile(t, t.TempDir(), "config.json", body)

	_, err := execute(t, "", "-c", path)
	assert.Equal(t, exitConfigMalformed, exitCode(err))
}

func TestChat_MissingKnowledgeFileRunsPlainAndQuits(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", configBody(filepath.Join(dir, "notes.txt"), "openai"))

	out, err := execute(t, "\nquit\n", "chat", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] Konfigurasi berhasil dimuat")
	assert.Contains(t, out, "notes.txt tidak ditemukan")
	assert.Contains(t, out, "[Warning] RAG system tidak tersedia, menggunakan LLM saja")
	assert.True(t, strings.HasSuffix(out, "[Bye] Terima kasih! Sampai jumpa!\n"))
}

func TestChat_IndexesKnowledgeOffline(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	knowledge := writeFile(t, dir, "knowledge.txt", "Paris is the capital of France. Berlin is the capital of Germany.")
	path := writeFile(t, dir, "config.json", configBody(knowledge, "tfidf"))

	out, err := execute(t, "EXIT\n", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] RAG system berhasil diinisialisasi")
}

func TestIndex_PrintsStatistics(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	knowledge := writeFile(t, dir, "knowledge.txt", strings.Repeat("Go is a programming language. ", 30))
	path := writeFile(t, dir, "config.json", configBody(knowledge, "tfidf"))

	out, err := execute(t, "", "index", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "embedder:       tfidf")
	assert.Contains(t, out, "vector store:   memory")
	assert.Regexp(t, `chunks:\s+[1-9]\d*`, out)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "ragchat dev\n", out)
}

func TestBuildComponents_SelectsImplementations(t *testing.T) {
	cfg := &config.Config{
		RAG: config.RAGConfig{
			ChunkSize: 100, ChunkOverlap: 10, SimilaritySearchK: 1,
			Splitter: "recursive", Embedder: "tfidf", VectorStore: "memory", EmbedConcurrency: 1,
		},
		OpenAI: config.OpenAIConfig{APIKey: "k", Model: "m"},
	}

	comps, err := buildComponents(cfg)
	require.NoError(t, err)
	assert.IsType(t, &tfidf.Embedder{}, comps.Embedder)
	assert.IsType(t, &memory.Storage{}, comps.Index)
	assert.NotNil(t, comps.Splitter)
	assert.NotNil(t, comps.Chat)

	cfg.RAG.VectorStore = "faiss"
	_, err = buildComponents(cfg)
	assert.Error(t, err)
}

func TestInit_WritesLoadableStarterConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")

	out, err := execute(t, "", "init", "-c", path)
	require.NoError(t, err)
	assert.Contains(t, out, "[OK] "+path+" dibuat")

	require.NoError(t, os.Unsetenv(config.EnvPrefix+"_OPENAI_API_KEY"))
	t.Setenv("OPENAI_API_KEY", "sk-env")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "knowledge.txt", cfg.Data.KnowledgeFile)
	assert.Equal(t, "sk-env", cfg.OpenAI.APIKey)
}

func TestInit_RefusesToOverwrite(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.json", `{"keep": true}`)

	_, err := execute(t, "", "init", "-c", path)
	assert.Equal(t, exitSetup, exitCode(err))
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, `{"keep": true}`, string(data))

	_, err = execute(t, "", "init", "--force", "-c", path)
	require.NoError(t, err)
}
