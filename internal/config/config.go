package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	RAG           RAGConfig     `yaml:"rag"`
	EmbedLLM      LLMConfig     `yaml:"embed_llm"`
	GenLLM        LLMConfig     `yaml:"gen_llm"`
	VectorDB      VectorConfig  `yaml:"vector_db"`
	KnowledgeBase KBConfig      `yaml:"knowledge_base"`
	STT           STTConfig     `yaml:"stt"`
	Archive       ArchiveConfig `yaml:"archive"`
}

type RAGConfig struct {
	TopK           int     `yaml:"top_k"`
	ScoreThreshold float64 `yaml:"score_threshold"`
	ChunkSize      int     `yaml:"chunk_size"`
	ChunkOverlap   int     `yaml:"chunk_overlap"`
	MinChunkSize   int     `yaml:"min_chunk_size"`
	EmbedBatchSize int     `yaml:"embed_batch_size"`
	FuzzyCutoff    float64 `yaml:"fuzzy_cutoff"`
}

type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type VectorConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	InMemory   bool   `yaml:"in_memory"`
}

type KBConfig struct {
	File   string `yaml:"file"`
	RawDir string `yaml:"raw_dir"`
}

type STTConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ArchiveConfig configures the optional Postgres chunk archive. Empty DSN
// disables it.
type ArchiveConfig struct {
	DSN      string `yaml:"dsn"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

func LoadConfig(path string) (*Config, error) {
	// .env overlay is best effort, a missing file is fine
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 3
	}
	if c.RAG.ScoreThreshold == 0 {
		c.RAG.ScoreThreshold = 0.5
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 600
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 50
	}
	if c.RAG.MinChunkSize == 0 {
		c.RAG.MinChunkSize = 100
	}
	if c.RAG.EmbedBatchSize == 0 {
		c.RAG.EmbedBatchSize = 100
	}
	if c.RAG.FuzzyCutoff == 0 {
		c.RAG.FuzzyCutoff = 0.8
	}
	if c.EmbedLLM.BaseURL == "" {
		c.EmbedLLM.BaseURL = envOr("OLLAMA_BASE_URL", "http://localhost:11434")
	}
	if c.EmbedLLM.Model == "" {
		c.EmbedLLM.Model = "nomic-embed-text"
	}
	if c.GenLLM.BaseURL == "" {
		c.GenLLM.BaseURL = envOr("OLLAMA_BASE_URL", "http://localhost:11434")
	}
	if c.GenLLM.Model == "" {
		c.GenLLM.Model = envOr("OLLAMA_MODEL", "llama3.2:3b")
	}
	if c.GenLLM.Temperature == 0 {
		c.GenLLM.Temperature = 0.7
	}
	if c.GenLLM.MaxTokens == 0 {
		c.GenLLM.MaxTokens = 512
	}
	if c.GenLLM.TimeoutSeconds == 0 {
		c.GenLLM.TimeoutSeconds = 60
	}
	if c.VectorDB.Path == "" {
		c.VectorDB.Path = "./data/embeddings/chromem"
	}
	if c.VectorDB.Collection == "" {
		c.VectorDB.Collection = "reog_knowledge"
	}
	if c.KnowledgeBase.File == "" {
		c.KnowledgeBase.File = "./data/processed/knowledge_base.json"
	}
	if c.KnowledgeBase.RawDir == "" {
		c.KnowledgeBase.RawDir = "./data/raw"
	}
	if c.STT.TimeoutSeconds == 0 {
		c.STT.TimeoutSeconds = 120
	}
	if c.Archive.DSN == "" {
		c.Archive.DSN = os.Getenv("ARCHIVE_DSN")
	}
}

// Validate rejects threshold and size values that would silently break
// retrieval or chunking.
func (c *Config) Validate() error {
	if c.RAG.ScoreThreshold < 0 || c.RAG.ScoreThreshold > 1 {
		return fmt.Errorf("score_threshold must be in [0,1], got %v", c.RAG.ScoreThreshold)
	}
	if c.RAG.FuzzyCutoff < 0 || c.RAG.FuzzyCutoff > 1 {
		return fmt.Errorf("fuzzy_cutoff must be in [0,1], got %v", c.RAG.FuzzyCutoff)
	}
	if c.RAG.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.RAG.TopK)
	}
	if c.RAG.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.RAG.ChunkSize)
	}
	if c.RAG.ChunkOverlap < 0 || c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("chunk_overlap must be in [0, chunk_size), got %d", c.RAG.ChunkOverlap)
	}
	if c.RAG.MinChunkSize < 0 || c.RAG.MinChunkSize > c.RAG.ChunkSize {
		return fmt.Errorf("min_chunk_size must be in [0, chunk_size], got %d", c.RAG.MinChunkSize)
	}
	if c.RAG.EmbedBatchSize <= 0 {
		return fmt.Errorf("embed_batch_size must be positive, got %d", c.RAG.EmbedBatchSize)
	}
	return nil
}

// Default returns a config with all defaults applied, for callers that run
// without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
