package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/answerdex/internal/domain/search/strategy"
)

// Config holds the answerdex API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Store      StoreConfig      `yaml:"store"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Fusion     FusionConfig     `yaml:"fusion"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// StoreConfig holds document store connection settings.
type StoreConfig struct {
	Driver           string   `yaml:"driver"` // redis (default)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CatalogConfig holds catalog index settings.
type CatalogConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
	// VectorAlgorithm selects the FT vector index: "flat" (exact, default)
	// or "hnsw" (approximate, for large catalogs).
	VectorAlgorithm string `yaml:"vector_algorithm"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	// Instruction prefixes for e5-style asymmetric models.
	QueryInstruction    string `yaml:"query_instruction"`
	DocumentInstruction string `yaml:"document_instruction"`
	Cache               bool   `yaml:"cache"`
}

// GenerationConfig holds language-model provider settings.
type GenerationConfig struct {
	Provider    string  `yaml:"provider"` // openai (default), bedrock
	Model       string  `yaml:"model"`
	Temperature float32 `yaml:"temperature"` // 0 selects the default
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSec  int     `yaml:"timeout_sec"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Region      string  `yaml:"region"` // bedrock only
}

// PipelineConfig holds answer pipeline settings.
type PipelineConfig struct {
	// TimeoutSec is applied when the caller supplies no deadline.
	TimeoutSec int `yaml:"timeout_sec"`
}

// FusionConfig holds server-wide fusion defaults; per-request fields override them.
type FusionConfig struct {
	Strategy      string  `yaml:"strategy"` // weighted (default), rrf
	WeightLexical float64 `yaml:"weight_lexical"`
	WeightVector  float64 `yaml:"weight_vector"`
}

// Load reads configuration from a YAML file by environment name (local, production).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// generation calls ride on this timeout, keep headroom above pipeline.timeout_sec
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "redis"
	}
	if c.Store.ReadinessTimeout <= 0 {
		c.Store.ReadinessTimeout = 10
	}
	if c.Catalog.KeyPrefix == "" {
		c.Catalog.KeyPrefix = "answerdex:"
	}
	if c.Catalog.VectorAlgorithm == "" {
		c.Catalog.VectorAlgorithm = "flat"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Generation.Provider == "" {
		c.Generation.Provider = "openai"
	}
	// Bedrock model defaulting lives in the bedrock transport.
	if c.Generation.Model == "" && c.Generation.Provider == "openai" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.Temperature <= 0 {
		c.Generation.Temperature = 0.7
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 512
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 30
	}
	if c.Pipeline.TimeoutSec <= 0 {
		c.Pipeline.TimeoutSec = 45
	}
	if c.Fusion.Strategy == "" {
		c.Fusion.Strategy = string(strategy.Weighted)
	}
	if c.Fusion.WeightLexical == 0 && c.Fusion.WeightVector == 0 {
		c.Fusion.WeightLexical = 0.5
		c.Fusion.WeightVector = 0.5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Store.Addrs) == 0 {
		return fmt.Errorf("store.addrs is required")
	}
	if c.Store.Driver != "redis" {
		return fmt.Errorf("store.driver must be \"redis\", got %q", c.Store.Driver)
	}
	switch c.Catalog.VectorAlgorithm {
	case "flat", "hnsw":
		// ok
	default:
		return fmt.Errorf("catalog.vector_algorithm must be \"flat\" or \"hnsw\", got %q", c.Catalog.VectorAlgorithm)
	}
	switch c.Generation.Provider {
	case "openai", "bedrock":
		// ok
	default:
		return fmt.Errorf("generation.provider must be \"openai\" or \"bedrock\", got %q", c.Generation.Provider)
	}
	if c.Generation.Provider == "bedrock" && c.Region() == "" {
		return fmt.Errorf("generation.region is required for the bedrock provider")
	}
	if !strategy.Strategy(c.Fusion.Strategy).IsValid() {
		return fmt.Errorf("fusion.strategy must be \"weighted\" or \"rrf\", got %q", c.Fusion.Strategy)
	}
	if c.Fusion.WeightLexical < 0 || c.Fusion.WeightVector < 0 {
		return fmt.Errorf("fusion weights must be non-negative")
	}
	return nil
}

// Region returns the configured Bedrock region, falling back to AWS_REGION.
func (c *Config) Region() string {
	if c.Generation.Region != "" {
		return c.Generation.Region
	}
	return os.Getenv("AWS_REGION")
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
