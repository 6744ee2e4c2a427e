package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/yuanlichao666/llm-ops/internal/breakpoint"
	"github.com/yuanlichao666/llm-ops/internal/chunker"
	"github.com/yuanlichao666/llm-ops/internal/embedder"
	"github.com/yuanlichao666/llm-ops/internal/indexer"
)

// EnvPrefix is stripped from environment variables before they are mapped
// to configuration keys
const EnvPrefix = "SEGMENTER_"

// Keys accepted by Load overrides
const (
	KeyLogLevel        = "log.level"
	KeyThresholdType   = "segmenter.threshold_type"
	KeyThresholdAmount = "segmenter.threshold_amount"
	KeyNumberOfChunks  = "segmenter.number_of_chunks"
	KeyBufferSize      = "segmenter.buffer_size"
	KeySeparator       = "segmenter.separator"
	KeySegmentWorkers  = "segmenter.workers"
	KeyProvider        = "embedder.provider"
	KeyAPIKey          = "embedder.api_key"
	KeyModel           = "embedder.model"
	KeyBaseURL         = "embedder.base_url"
	KeyBatchSize       = "embedder.batch_size"
	KeyDBPath          = "storage.db_path"
	KeyIndexWorkers    = "indexer.workers"
	KeyInclude         = "indexer.include"
)

// Config is the complete application configuration
type Config struct {
	Log       LogConfig       `koanf:"log"`
	Segmenter SegmenterConfig `koanf:"segmenter"`
	Embedder  EmbedderConfig  `koanf:"embedder"`
	Storage   StorageConfig   `koanf:"storage"`
	Indexer   IndexerConfig   `koanf:"indexer"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error fatal"`
}

// SegmenterConfig holds the semantic splitter settings
type SegmenterConfig struct {
	ThresholdType   string  `koanf:"threshold_type"   validate:"oneof=percentile standard_deviation interquartile gradient"`
	ThresholdAmount float64 `koanf:"threshold_amount"`
	NumberOfChunks  int     `koanf:"number_of_chunks" validate:"gte=0"`
	BufferSize      int     `koanf:"buffer_size"      validate:"gte=0"`
	Separator       string  `koanf:"separator"        validate:"required,regexp"`
	Workers         int     `koanf:"workers"          validate:"gte=1"`
}

// EmbedderConfig selects and configures the embedding provider.
// An empty Provider is auto-detected from the environment.
type EmbedderConfig struct {
	Provider  string `koanf:"provider"   validate:"omitempty,oneof=jina openai local"`
	APIKey    string `koanf:"api_key"`
	Model     string `koanf:"model"`
	BaseURL   string `koanf:"base_url"   validate:"omitempty,url"`
	BatchSize int    `koanf:"batch_size" validate:"min=1,max=100"`
}

type StorageConfig struct {
	DBPath string `koanf:"db_path" validate:"required"`
}

type IndexerConfig struct {
	Workers int      `koanf:"workers" validate:"gte=0"`
	Include []string `koanf:"include" validate:"min=1,dive,required"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Segmenter: SegmenterConfig{
			ThresholdType:   breakpoint.Percentile.String(),
			ThresholdAmount: chunker.DefaultThresholdAmount,
			BufferSize:      1,
			Separator:       chunker.DefaultSeparator,
			Workers:         chunker.DefaultWorkers,
		},
		Embedder: EmbedderConfig{
			BatchSize: embedder.DefaultBatchSize,
		},
		Storage: StorageConfig{
			DBPath: filepath.Join("~", ".segmenter", "segmenter.db"),
		},
		Indexer: IndexerConfig{
			Include: append([]string(nil), indexer.DefaultInclude...),
		},
	}
}

// Load builds the configuration from defaults, then SEGMENTER_* environment
// variables, then overrides (typically explicit CLI flags), and validates
// the result.
func Load(overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnv,
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	path, err := expandHome(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DBPath = path

	return &cfg, nil
}

// NewValidator returns a validator that also understands the regexp tag,
// which accepts strings that compile as Go regular expressions
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks cfg against its struct tags
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := NewValidator().Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	return nil
}

// EmbedderOptions converts the embedder section for embedder.New
func (c *Config) EmbedderOptions() embedder.Config {
	return embedder.Config{
		Provider: c.Embedder.Provider,
		APIKey:   c.Embedder.APIKey,
		Model:    c.Embedder.Model,
		BaseURL:  c.Embedder.BaseURL,
	}
}

// SemanticOptions builds the semantic splitter configuration around e
func (c *Config) SemanticOptions(e embedder.Embedder) (chunker.SemanticConfig, error) {
	sep, err := regexp.Compile(c.Segmenter.Separator)
	if err != nil {
		return chunker.SemanticConfig{}, fmt.Errorf("invalid separator %q: %w", c.Segmenter.Separator, err)
	}
	return chunker.SemanticConfig{
		Embedder:        e,
		Separator:       sep,
		BufferSize:      c.Segmenter.BufferSize,
		ThresholdType:   breakpoint.ParseThresholdType(c.Segmenter.ThresholdType),
		ThresholdAmount: c.Segmenter.ThresholdAmount,
		NumberOfChunks:  c.Segmenter.NumberOfChunks,
		BatchSize:       c.Embedder.BatchSize,
	}, nil
}

// IndexOptions converts the indexer section for indexer.IndexDirectory
func (c *Config) IndexOptions(force bool) *indexer.Config {
	return &indexer.Config{
		Workers: c.Indexer.Workers,
		Include: c.Indexer.Include,
		Force:   force,
	}
}

// transformEnv maps SEGMENTER_SEGMENTER_BUFFER_SIZE to segmenter.buffer_size:
// the first segment after the prefix names the section, the rest the field.
// Comma-separated values for list keys are split.
func transformEnv(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_'
	})
	if len(parts) < 2 {
		return "", nil
	}
	path := parts[0] + "." + strings.Join(parts[1:], "_")

	if path == KeyInclude {
		var globs []string
		for _, g := range strings.Split(value, ",") {
			if g = strings.TrimSpace(g); g != "" {
				globs = append(globs, g)
			}
		}
		return path, globs
	}
	return path, value
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
