package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, 3, cfg.RAG.TopK)
	require.Equal(t, 0.5, cfg.RAG.ScoreThreshold)
	require.Equal(t, 600, cfg.RAG.ChunkSize)
	require.Equal(t, 50, cfg.RAG.ChunkOverlap)
	require.Equal(t, 100, cfg.RAG.MinChunkSize)
	require.Equal(t, 0.8, cfg.RAG.FuzzyCutoff)
	require.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
	require.Equal(t, 60, cfg.GenLLM.TimeoutSeconds)
	require.Equal(t, "reog_knowledge", cfg.VectorDB.Collection)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	yamlBody := `
rag:
  top_k: 5
  score_threshold: 0.3
gen_llm:
  model: qwen2.5:7b
  temperature: 0.2
vector_db:
  in_memory: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 5, cfg.RAG.TopK)
	require.Equal(t, 0.3, cfg.RAG.ScoreThreshold)
	require.Equal(t, "qwen2.5:7b", cfg.GenLLM.Model)
	require.Equal(t, 0.2, cfg.GenLLM.Temperature)
	require.True(t, cfg.VectorDB.InMemory)

	// untouched fields fall back to defaults
	require.Equal(t, 600, cfg.RAG.ChunkSize)
	require.Equal(t, "nomic-embed-text", cfg.EmbedLLM.Model)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"threshold above one", func(c *Config) { c.RAG.ScoreThreshold = 1.5 }},
		{"threshold negative", func(c *Config) { c.RAG.ScoreThreshold = -0.1 }},
		{"fuzzy cutoff above one", func(c *Config) { c.RAG.FuzzyCutoff = 2 }},
		{"zero top_k", func(c *Config) { c.RAG.TopK = 0 }},
		{"negative top_k", func(c *Config) { c.RAG.TopK = -1 }},
		{"overlap not below chunk size", func(c *Config) { c.RAG.ChunkOverlap = c.RAG.ChunkSize }},
		{"min chunk above chunk size", func(c *Config) { c.RAG.MinChunkSize = c.RAG.ChunkSize + 1 }},
		{"negative batch size", func(c *Config) { c.RAG.EmbedBatchSize = -5 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_InvalidValuesRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rag:\n  score_threshold: 7\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
