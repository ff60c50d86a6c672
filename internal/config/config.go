// Package config loads tool configuration from an optional YAML file with
// WORDFREQ_* environment overrides applied on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"harshagw/wordfreq/internal/counter"
)

// Config is the top-level configuration of the corpus, verify and bench
// tools.
type Config struct {
	Corpus  CorpusConfig  `yaml:"corpus"`
	Counter CounterConfig `yaml:"counter"`
	Logging LoggingConfig `yaml:"logging"`
}

// CorpusConfig controls where a corpus lives and how it flushes.
type CorpusConfig struct {
	Dir            string `yaml:"dir"`
	FlushThreshold int    `yaml:"flushThreshold"`
	Workers        int    `yaml:"workers"`
}

// CounterConfig mirrors counter.Config.
type CounterConfig struct {
	ChunkSize  int `yaml:"chunkSize"`
	MaxWordLen int `yaml:"maxWordLen"`
	ArenaLimit int `yaml:"arenaLimit"`
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Counting returns the counter configuration.
func (c CounterConfig) Counting() counter.Config {
	return counter.Config{
		ChunkSize:  c.ChunkSize,
		MaxWordLen: c.MaxWordLen,
		ArenaLimit: c.ArenaLimit,
	}
}

// Load reads the YAML file at path, if path is not empty, over the defaults
// and then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)

	if err := cfg.Counter.Counting().Validate(); err != nil {
		return nil, fmt.Errorf("counter config: %w", err)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	c := counter.DefaultConfig()
	return &Config{
		Corpus: CorpusConfig{
			Dir:            ".wordfreq",
			FlushThreshold: 100,
			Workers:        4,
		},
		Counter: CounterConfig{
			ChunkSize:  c.ChunkSize,
			MaxWordLen: c.MaxWordLen,
			ArenaLimit: c.ArenaLimit,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORDFREQ_CORPUS_DIR"); v != "" {
		cfg.Corpus.Dir = v
	}
	setInt(&cfg.Corpus.FlushThreshold, "WORDFREQ_CORPUS_FLUSH_THRESHOLD")
	setInt(&cfg.Corpus.Workers, "WORDFREQ_CORPUS_WORKERS")
	setInt(&cfg.Counter.ChunkSize, "WORDFREQ_CHUNK_SIZE")
	setInt(&cfg.Counter.MaxWordLen, "WORDFREQ_MAX_WORD_LEN")
	setInt(&cfg.Counter.ArenaLimit, "WORDFREQ_ARENA_LIMIT")
	if v := os.Getenv("WORDFREQ_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WORDFREQ_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
