// Package config loads the configuration of the nerprep tool from a YAML file, with overrides
// from the environment (and from a ".env" file in the current directory, if present).
package config

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gomlx/go-nerprep/export"
	"github.com/gomlx/go-nerprep/hub"
	"github.com/gomlx/go-nerprep/iob"
	"github.com/gomlx/go-nerprep/tokenizers/api"
	"github.com/gomlx/go-nerprep/tokenizers/segmenter"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultTokenizerRepo is the HuggingFace Hub repository of the default tokenizer.
const DefaultTokenizerRepo = "bert-base-multilingual-cased"

// Config is the top-level configuration.
type Config struct {
	Tokenizer api.Config    `yaml:"tokenizer"`
	Hub       HubConfig     `yaml:"hub"`
	Segmenter string        `yaml:"segmenter"`
	Scheme    string        `yaml:"scheme"`
	Output    OutputConfig  `yaml:"output"`
	Workers   int           `yaml:"workers"`
	Metrics   MetricsConfig `yaml:"metrics"`

	// SkipInvalid skips documents with invalid spans instead of failing the conversion.
	SkipInvalid bool `yaml:"skipInvalid"`
}

// HubConfig holds the HuggingFace Hub access settings.
type HubConfig struct {
	CacheDir string `yaml:"cacheDir"`
	Endpoint string `yaml:"endpoint"`

	// Timeout of each download, e.g. "30s". No timeout if 0.
	Timeout time.Duration `yaml:"timeout"`

	// Token is only read from the environment (HF_TOKEN).
	Token string `yaml:"-"`
}

// OutputConfig selects the dataset format and location.
type OutputConfig struct {
	// Format is one of "conll", "jsonl" or "parquet". If empty, it's inferred from Path.
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
}

// MetricsConfig controls the export of conversion metrics.
type MetricsConfig struct {
	// Textfile, if set, is where metrics are written in the Prometheus text format at the end
	// of a conversion.
	Textfile string `yaml:"textfile"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Tokenizer: api.Config{
			Kind:     api.KindWordPiece,
			Repo:     DefaultTokenizerRepo,
			Revision: hub.DefaultRevision,
		},
		Segmenter: segmenter.KindUnicode,
		Scheme:    iob.SchemeLegacy.String(),
	}
}

// Load reads the YAML config file at path, if path is not empty, on top of Default, and then
// applies the environment overrides.
func Load(path string) (*Config, error) {
	// Best-effort: .env is optional.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "reading config file %q", path)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrapf(err, "parsing config file %q", path)
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides reads HF_TOKEN, NERPREP_CACHE_DIR, NERPREP_HUB_ENDPOINT, NERPREP_WORKERS.
func (c *Config) applyEnvOverrides() error {
	if v := strings.TrimSpace(os.Getenv("HF_TOKEN")); v != "" {
		c.Hub.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("NERPREP_CACHE_DIR")); v != "" {
		c.Hub.CacheDir = v
	}
	if v := strings.TrimSpace(os.Getenv("NERPREP_HUB_ENDPOINT")); v != "" {
		c.Hub.Endpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("NERPREP_WORKERS")); v != "" {
		workers, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrapf(err, "invalid NERPREP_WORKERS=%q", v)
		}
		c.Workers = workers
	}
	return nil
}

// Validate checks that all the enumerated values are known.
func (c *Config) Validate() error {
	switch c.Tokenizer.Kind {
	case "", api.KindWordPiece, api.KindSentencePiece:
	default:
		return errors.Errorf("unknown tokenizer kind %q, valid kinds are %q and %q",
			c.Tokenizer.Kind, api.KindWordPiece, api.KindSentencePiece)
	}
	if c.Tokenizer.File == "" && c.Tokenizer.Repo == "" {
		return errors.New("either tokenizer.file or tokenizer.repo must be set")
	}
	if c.Hub.Timeout < 0 {
		return errors.Errorf("invalid hub.timeout %s", c.Hub.Timeout)
	}
	if _, found := segmenter.New(c.Segmenter); !found {
		return errors.Errorf("unknown segmenter %q, valid segmenters are %q and %q",
			c.Segmenter, segmenter.KindUnicode, segmenter.KindWhitespace)
	}
	if _, err := iob.ParseScheme(c.Scheme); err != nil {
		return err
	}
	if c.Output.Format != "" {
		if _, err := export.ParseFormat(c.Output.Format); err != nil {
			return err
		}
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

// OutputFormat returns the configured output format, or the one inferred from the output path.
func (c *Config) OutputFormat() (export.Format, error) {
	if c.Output.Format != "" {
		return export.ParseFormat(c.Output.Format)
	}
	if format, ok := export.FormatFromPath(c.Output.Path); ok {
		return format, nil
	}
	return "", errors.Errorf("can't infer the output format from %q, please set output.format", c.Output.Path)
}

// HubRepo returns the hub repository of the tokenizer, or nil if none is configured.
func (c *Config) HubRepo() *hub.Repo {
	if c.Tokenizer.Repo == "" {
		return nil
	}
	repo := hub.New(c.Tokenizer.Repo).
		WithRevision(c.Tokenizer.Revision).
		WithCacheDir(c.Hub.CacheDir).
		WithAuthToken(c.Hub.Token)
	if c.Hub.Endpoint != "" {
		repo = repo.WithEndpoint(c.Hub.Endpoint)
	}
	if c.Hub.Timeout > 0 {
		repo = repo.WithHTTPClient(&http.Client{Timeout: c.Hub.Timeout})
	}
	return repo
}
