package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tribe server configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Flow        FlowConfig        `yaml:"flow"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Cache       CacheConfig       `yaml:"cache"`
	Session     SessionConfig     `yaml:"session"`
	Retry       RetryConfig       `yaml:"retry"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
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

// FlowConfig locates the hosted flow. The identifiers come from ConfigFile
// unless set inline.
type FlowConfig struct {
	BaseURL    string `yaml:"base_url"`
	ConfigFile string `yaml:"config_file"`
	LangflowID string `yaml:"langflow_id"`
	FlowID     string `yaml:"flow_id"`
	InputSlot  string `yaml:"input_slot"`
	TimeoutSec int    `yaml:"timeout_sec"`
	TokenEnv   string `yaml:"token_env"`
}

// VectorStoreConfig holds the vector database options and search defaults.
type VectorStoreConfig struct {
	APIEndpoint    string `yaml:"api_endpoint"`
	Token          string `yaml:"token"`
	Namespace      string `yaml:"namespace"`
	CollectionName string `yaml:"collection_name"`
	Metric         string `yaml:"metric"` // cosine, dot_product, euclidean
	Dimensions     int    `yaml:"dimensions"`

	// TokenVariable names the Langflow global variable the remote flow's
	// vector-store node reads its token from.
	TokenVariable string `yaml:"token_variable"`

	BatchSize                  int `yaml:"batch_size"`
	BulkInsertBatchConcurrency int `yaml:"bulk_insert_batch_concurrency"`
	BulkDeleteConcurrency      int `yaml:"bulk_delete_concurrency"`

	SetupMode           string `yaml:"setup_mode"` // sync, async, off
	PreDeleteCollection bool   `yaml:"pre_delete_collection"`

	MetadataIndexingInclude  []string       `yaml:"metadata_indexing_include"`
	MetadataIndexingExclude  []string       `yaml:"metadata_indexing_exclude"`
	CollectionIndexingPolicy map[string]any `yaml:"collection_indexing_policy"`

	RequestTimeoutSec int `yaml:"request_timeout_sec"`

	SearchType            string   `yaml:"search_type"`
	NumberOfResults       int      `yaml:"number_of_results"`
	SearchScoreThreshold  float64  `yaml:"search_score_threshold"`
	CustomSearchTimeoutMS int      `yaml:"custom_search_timeout_ms"`
	FetchK                int      `yaml:"fetch_k"`
	MMRLambda             *float64 `yaml:"mmr_lambda"`
	// SearchFilter is a JSON list of {"field","operator","value"} conditions.
	SearchFilter string `yaml:"search_filter"`
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`

	Budget BudgetConfig `yaml:"budget"`
}

// BudgetConfig caps embedding token spend. Zero limits mean unlimited.
// Counters persist in the cache when one is configured.
type BudgetConfig struct {
	DailyTokens   int64  `yaml:"daily_tokens"`
	MonthlyTokens int64  `yaml:"monthly_tokens"`
	Action        string `yaml:"action"` // "reject" or "warn"
}

// CacheConfig holds the embedding cache connection. Empty Addrs disables it.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLSec           int      `yaml:"ttl_sec"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// SessionConfig holds chat session lifetime settings.
type SessionConfig struct {
	IdleTTLSec       int `yaml:"idle_ttl_sec"`
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
}

// RetryConfig bounds retried vector store calls. max_attempts below 2 disables retrying.
type RetryConfig struct {
	MaxAttempts int `yaml:"max_attempts"`
	MinWaitMS   int `yaml:"min_wait_ms"`
	MaxWaitMS   int `yaml:"max_wait_ms"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references, then applies
// defaults, resolves the flow file and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if cfg.Flow.LangflowID == "" && cfg.Flow.FlowID == "" && cfg.Flow.ConfigFile != "" {
		ids, err := LoadFlowFile(cfg.Flow.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Flow.LangflowID, cfg.Flow.FlowID = ids.LangflowID, ids.FlowID
	}

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
		c.HTTP.WriteTimeoutSec = 90 // must outlive a flow run
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Flow.ConfigFile == "" {
		c.Flow.ConfigFile = filepath.Join("conf", "config.json")
	}
	if c.Flow.TimeoutSec <= 0 {
		c.Flow.TimeoutSec = 60
	}
	if c.Flow.TokenEnv == "" {
		c.Flow.TokenEnv = "ASTRA_DB_VECTOR_TOKEN"
	}
	if c.VectorStore.TokenVariable == "" {
		c.VectorStore.TokenVariable = "ASTRA_DB_APPLICATION_TOKEN"
	}
	if c.VectorStore.SetupMode == "" {
		c.VectorStore.SetupMode = "sync"
	}
	if c.VectorStore.RequestTimeoutSec <= 0 {
		c.VectorStore.RequestTimeoutSec = 30
	}
	if c.VectorStore.NumberOfResults <= 0 {
		c.VectorStore.NumberOfResults = 4
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.Budget.Action == "" {
		c.Embedding.Budget.Action = "reject"
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 7 * 24 * 3600
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Session.IdleTTLSec <= 0 {
		c.Session.IdleTTLSec = 1800
	}
	if c.Session.SweepIntervalSec <= 0 {
		c.Session.SweepIntervalSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Flow.LangflowID == "" || c.Flow.FlowID == "" {
		return fmt.Errorf("flow.langflow_id and flow.flow_id are required (inline or via %s)", c.Flow.ConfigFile)
	}
	switch c.VectorStore.SetupMode {
	case "sync", "async", "off":
		// ok
	default:
		return fmt.Errorf("vector_store.setup_mode must be \"sync\", \"async\" or \"off\", got %q", c.VectorStore.SetupMode)
	}
	switch c.Embedding.Budget.Action {
	case "reject", "warn":
	default:
		return fmt.Errorf("embedding.budget.action must be \"reject\" or \"warn\", got %q", c.Embedding.Budget.Action)
	}
	if c.Embedding.Budget.DailyTokens < 0 || c.Embedding.Budget.MonthlyTokens < 0 {
		return fmt.Errorf("embedding.budget limits must be >= 0")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must be >= 0, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.MaxAttempts > 1 && c.Retry.MinWaitMS <= 0 {
		return fmt.Errorf("retry.min_wait_ms is required when retrying")
	}
	return nil
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
