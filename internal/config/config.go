package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int               `json:"port"`
	DB          DatabaseConfig    `json:"db"`
	LogConfig   logger.LogConfig  `json:"log_config"`
	CORSOrigins []string          `json:"cors_origins"`
	Roots       []string          `json:"roots"`
	Chunking    ChunkingConfig    `json:"chunking"`
	Embedding   EmbeddingConfig   `json:"embedding"`
	VectorStore VectorStoreConfig `json:"vector_store"`
	WebSearch   WebSearchConfig   `json:"web_search"`
	Upload      UploadConfig      `json:"upload"`
	Reindex     ReindexConfig     `json:"reindex"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
	MaxConns int    `json:"max_conns"`
}

type ChunkingConfig struct {
	TargetTokens  int `json:"target_tokens"`
	OverlapTokens int `json:"overlap_tokens"`
}

type EmbeddingConfig struct {
	Provider        string      `json:"provider"`
	Model           string      `json:"model"`
	BatchSize       int         `json:"batch_size"`
	CacheSize       int         `json:"cache_size"`
	CacheTTLMinutes int         `json:"cache_ttl_minutes"`
	Data            interface{} `json:"data"`
}

type VectorStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type WebSearchConfig struct {
	ExaAPIKey    string `json:"exa_api_key"`
	SerperAPIKey string `json:"serper_api_key"`
}

// UploadConfig controls where uploaded documents land before indexing.
// Archive optionally mirrors uploads into a secondary store (s3).
type UploadConfig struct {
	Dir     string          `json:"dir"`
	Archive FileStoreConfig `json:"archive"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ReindexConfig schedules background incremental indexing over Roots.
// An empty spec disables the job.
type ReindexConfig struct {
	Spec string `json:"spec"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.DB.DSN == "" && cfg.DB.Host == "" {
		return nil, fmt.Errorf("db.dsn or db.host is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Chunking.TargetTokens == 0 {
		cfg.Chunking.TargetTokens = 800
	}
	if cfg.Chunking.OverlapTokens == 0 {
		cfg.Chunking.OverlapTokens = 80
	}
	if cfg.Embedding.Provider == "" {
		return nil, fmt.Errorf("embedding.provider is required")
	}
	if cfg.Embedding.Model == "" {
		return nil, fmt.Errorf("embedding.model is required")
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = 64
	}
	if cfg.VectorStore.Type == "" {
		cfg.VectorStore.Type = "pgvector"
	}
	if cfg.Upload.Dir == "" {
		cfg.Upload.Dir = "./uploaded_files"
	}
	return &cfg, nil
}
