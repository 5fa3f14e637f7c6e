package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model. It captures credentials,
// scoring knobs, storage, and the metrics endpoint.
type Config struct {
	Credentials CredentialsConfig `yaml:"credentials"`
	LLM         LLMConfig         `yaml:"llm"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type CredentialsConfig struct {
	// Neynar API key. If empty, read from env NEYNAR_API_KEY
	NeynarAPIKey string `yaml:"neynarApiKey"`
	// If empty, read from env OPENAI_API_KEY
	OpenAIAPIKey string `yaml:"openaiApiKey"`
	// If empty, read from env GEMINI_API_KEY
	GeminiAPIKey string `yaml:"geminiApiKey"`
	// Base URL of the authoritative score registry; empty disables the tier.
	// If empty, read from env IQ_API_BASE
	IQAPIBase string `yaml:"iqApiBase"`
}

type LLMConfig struct {
	OpenAIModel string `yaml:"openaiModel"`
	GeminiModel string `yaml:"geminiModel"`
}

type ScoringConfig struct {
	// Days a stored score stays valid before recomputation
	FreshnessDays int `yaml:"freshnessDays"`
	// Max casts fetched per account
	CastLimit int `yaml:"castLimit"`
	// Per-tier network call budget in seconds
	TierTimeoutSeconds int `yaml:"tierTimeoutSeconds"`
	// Casts included verbatim in LLM prompts
	SampleCasts int `yaml:"sampleCasts"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		LLM: LLMConfig{OpenAIModel: "gpt-4o-mini", GeminiModel: "gemini-1.5-flash"},
		Scoring: ScoringConfig{
			FreshnessDays:      30,
			CastLimit:          100,
			TierTimeoutSeconds: 20,
			SampleCasts:        10,
		},
		Storage: StorageConfig{DBPath: "./mindcast.db"},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.NeynarAPIKey == "" {
		c.Credentials.NeynarAPIKey = os.Getenv("NEYNAR_API_KEY")
	}
	if c.Credentials.OpenAIAPIKey == "" {
		c.Credentials.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Credentials.GeminiAPIKey == "" {
		c.Credentials.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.Credentials.IQAPIBase == "" {
		c.Credentials.IQAPIBase = os.Getenv("IQ_API_BASE")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
