// Package config holds runtime configuration and the static knowledge tables
// (hotel registry, keyword dictionaries, clarification and verification
// patterns) that the pipeline treats as immutable after startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration. Values come from an optional
// concierge.yaml file with environment variables taking precedence.
type Config struct {
	HTTPPort string `yaml:"http_port"`
	LogDir   string `yaml:"log_dir"`
	DataDir  string `yaml:"data_dir"`

	// EvidenceThreshold is the single authoritative evidence-gate threshold.
	// The source material disagreed with itself (0.45 vs 0.65 vs 0.5); it is
	// deliberately configurable and never duplicated elsewhere.
	EvidenceThreshold float64 `yaml:"evidence_threshold"`
	MinChunksRequired int     `yaml:"min_chunks_required"`

	// GroundingThreshold gates individual claims inside the grounding check.
	GroundingThreshold float64 `yaml:"grounding_threshold"`

	MinQueryLength int `yaml:"min_query_length"`

	LLM     LLMConfig     `yaml:"llm"`
	Rerank  RerankConfig  `yaml:"rerank"`
	Vector  VectorConfig  `yaml:"vector"`
	Session SessionConfig `yaml:"session"`
}

// LLMConfig configures the generation backend.
type LLMConfig struct {
	UseGroq   bool   `yaml:"use_groq"`
	GroqKey   string `yaml:"groq_api_key"`
	GroqModel string `yaml:"groq_model"`

	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	Timeout    time.Duration `yaml:"timeout"`
	MaxRetries int           `yaml:"max_retries"`

	CacheEnabled bool `yaml:"cache_enabled"`
	CacheSize    int  `yaml:"cache_size"`

	// Ollama runtime options. NumThread and NumGPU are host-dependent tuning
	// knobs; the defaults here are starting points, not assumptions.
	NumCtx    int    `yaml:"num_ctx"`
	NumThread int    `yaml:"num_thread"`
	NumGPU    int    `yaml:"num_gpu"`
	NumBatch  int    `yaml:"num_batch"`
	KeepAlive string `yaml:"keep_alive"`
}

// RerankConfig configures the cross-encoder reranking layer.
type RerankConfig struct {
	ScorerURL string        `yaml:"scorer_url"`
	Timeout   time.Duration `yaml:"timeout"`

	SkipThreshold     float64 `yaml:"skip_threshold"`
	AbsoluteFloor     float64 `yaml:"absolute_floor"`
	RelativeThreshold float64 `yaml:"relative_threshold"`
	MinKeep           int     `yaml:"min_keep"`
	CacheSize         int     `yaml:"cache_size"`
}

// VectorConfig configures the embedded vector index.
type VectorConfig struct {
	Path       string `yaml:"path"`
	EmbedURL   string `yaml:"embed_url"`
	EmbedModel string `yaml:"embed_model"`
	Dimensions int    `yaml:"dimensions"`
}

// SessionConfig bounds the in-memory session store.
type SessionConfig struct {
	MaxSessions     int           `yaml:"max_sessions"`
	TTL             time.Duration `yaml:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	MaxCachedChunks int           `yaml:"max_cached_chunks"`
}

// Defaults returns the baseline configuration before file and env overlays.
func Defaults() *Config {
	return &Config{
		HTTPPort:           "8080",
		LogDir:             "logs",
		DataDir:            "data",
		EvidenceThreshold:  0.65,
		MinChunksRequired:  1,
		GroundingThreshold: 0.45,
		MinQueryLength:     2,
		LLM: LLMConfig{
			GroqModel:    "llama-3.3-70b-versatile",
			OllamaURL:    "http://localhost:11434",
			OllamaModel:  "qwen2.5:14b",
			Timeout:      30 * time.Second,
			MaxRetries:   2,
			CacheEnabled: true,
			CacheSize:    100,
			NumCtx:       4096,
			NumThread:    8,
			NumGPU:       -1,
			NumBatch:     512,
			KeepAlive:    "60m",
		},
		Rerank: RerankConfig{
			ScorerURL:         "http://localhost:8500",
			Timeout:           2 * time.Second,
			SkipThreshold:     0.90,
			AbsoluteFloor:     -5.0,
			RelativeThreshold: 0.35,
			MinKeep:           2,
			CacheSize:         500,
		},
		Vector: VectorConfig{
			Path:       "data/chunks.db",
			EmbedURL:   "http://localhost:11434",
			EmbedModel: "bge-m3",
		},
		Session: SessionConfig{
			MaxSessions:     1000,
			TTL:             30 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxCachedChunks: 5,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it
// exists), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			slog.Info("No config file, using defaults", "path", path)
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", path, err)
			}
			slog.Info("Loaded config file", "path", path)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.HTTPPort, "HTTP_PORT")
	setString(&c.LogDir, "LOG_DIR")
	setString(&c.DataDir, "DATA_DIR")
	setFloat(&c.EvidenceThreshold, "EVIDENCE_THRESHOLD")

	setBool(&c.LLM.UseGroq, "USE_GROQ")
	setString(&c.LLM.GroqKey, "GROQ_API_KEY")
	setString(&c.LLM.GroqModel, "GROQ_MODEL")
	setString(&c.LLM.OllamaURL, "OLLAMA_URL")
	setString(&c.LLM.OllamaModel, "OLLAMA_MODEL")
	setDuration(&c.LLM.Timeout, "LLM_TIMEOUT")
	setInt(&c.LLM.MaxRetries, "LLM_MAX_RETRIES")
	setBool(&c.LLM.CacheEnabled, "LLM_CACHE_ENABLED")
	setInt(&c.LLM.CacheSize, "LLM_CACHE_SIZE")
	setInt(&c.LLM.NumCtx, "OLLAMA_NUM_CTX")
	setInt(&c.LLM.NumThread, "OLLAMA_NUM_THREAD")
	setInt(&c.LLM.NumGPU, "OLLAMA_NUM_GPU")
	setString(&c.LLM.KeepAlive, "OLLAMA_KEEP_ALIVE")

	setString(&c.Rerank.ScorerURL, "RERANK_SCORER_URL")
	setString(&c.Vector.Path, "VECTOR_DB_PATH")
	setString(&c.Vector.EmbedURL, "EMBED_URL")
	setString(&c.Vector.EmbedModel, "EMBED_MODEL")
}

func (c *Config) validate() error {
	if c.EvidenceThreshold < 0 || c.EvidenceThreshold > 1 {
		return fmt.Errorf("evidence_threshold must be in [0,1], got %v", c.EvidenceThreshold)
	}
	if c.MinChunksRequired < 1 {
		return fmt.Errorf("min_chunks_required must be >= 1, got %d", c.MinChunksRequired)
	}
	if c.LLM.UseGroq && c.LLM.GroqKey == "" {
		return fmt.Errorf("USE_GROQ is set but GROQ_API_KEY is empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		} else {
			slog.Warn("Ignoring non-integer env value", "key", key, "value", v)
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		} else {
			slog.Warn("Ignoring non-numeric env value", "key", key, "value", v)
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		} else {
			slog.Warn("Ignoring non-boolean env value", "key", key, "value", v)
		}
	}
}

// setDuration accepts either a Go duration string ("30s") or a bare number
// of seconds, which is how the deployment environment historically set it.
func setDuration(dst *time.Duration, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
		return
	}
	if secs, err := strconv.Atoi(v); err == nil {
		*dst = time.Duration(secs) * time.Second
		return
	}
	slog.Warn("Ignoring unparseable duration env value", "key", key, "value", v)
}
