package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dgallion1/papersum/internal/segment"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth for /api/*. Empty disables it.
	PapersumAPIKey string `env:"PAPERSUM_API_KEY"`

	// Generation API (OpenAI-compatible)
	GroqAPIKey     string        `env:"GROQ_API_KEY"`
	GroqModel      string        `env:"GROQ_MODEL"       envDefault:"llama-3.3-70b-versatile"`
	GroqBaseURL    string        `env:"GROQ_BASE_URL"    envDefault:"https://api.groq.com/openai/v1"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT"      envDefault:"120s"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS"   envDefault:"1024"`
	LLMStatsWindow time.Duration `env:"LLM_STATS_WINDOW" envDefault:"1h"`

	// Segmenting. SegmentMaxChars of 0 means the policy default.
	SegmentPolicy   segment.Policy `env:"SEGMENT_POLICY"    envDefault:"full"`
	SegmentMaxChars int            `env:"SEGMENT_MAX_CHARS"`

	// Worker pool
	WorkerCount  int `env:"WORKER_COUNT"   envDefault:"2"`
	MaxQueueSize int `env:"MAX_QUEUE_SIZE" envDefault:"50"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Job and document state
	JobTTL            time.Duration `env:"JOB_TTL"             envDefault:"1h"`
	DocumentTTL       time.Duration `env:"DOCUMENT_TTL"        envDefault:"1h"`
	DocumentCacheSize int           `env:"DOCUMENT_CACHE_SIZE" envDefault:"64"`

	// PDF
	PDFFallbackPdftotext bool `env:"PDF_FALLBACK_PDFTOTEXT" envDefault:"true"`
}

// Load reads .env if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	policy, err := segment.ParsePolicy(string(cfg.SegmentPolicy))
	if err != nil {
		return Config{}, err
	}
	cfg.SegmentPolicy = policy
	if cfg.SegmentMaxChars == 0 {
		cfg.SegmentMaxChars = policy.DefaultMaxChars()
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 50
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.LLMMaxTokens <= 0 {
		cfg.LLMMaxTokens = 1024
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.DocumentTTL <= 0 {
		cfg.DocumentTTL = 1 * time.Hour
	}
	if cfg.DocumentCacheSize <= 0 {
		cfg.DocumentCacheSize = 64
	}

	return cfg, nil
}

// Validate checks settings needed before any generation call is made.
func (c Config) Validate() error {
	if c.GroqAPIKey == "" {
		return fmt.Errorf("GROQ_API_KEY is required")
	}
	if c.SegmentMaxChars < 0 {
		return fmt.Errorf("SEGMENT_MAX_CHARS must be positive, got %d", c.SegmentMaxChars)
	}
	return nil
}
