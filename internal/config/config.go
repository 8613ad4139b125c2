// Package config provides configuration loading and management.
package config

import "time"

// Config is the application configuration root.
type Config struct {
	App           AppConfig           `yaml:"app" mapstructure:"app"`
	LLM           LLMConfig           `yaml:"llm" mapstructure:"llm"`
	Embedding     EmbeddingConfig     `yaml:"embedding" mapstructure:"embedding"`
	Memory        MemoryConfig        `yaml:"memory" mapstructure:"memory"`
	Generation    GenerationConfig    `yaml:"generation" mapstructure:"generation"`
	Consistency   ConsistencyConfig   `yaml:"consistency" mapstructure:"consistency"`
	Agent         AgentConfig         `yaml:"agent" mapstructure:"agent"`
	Database      DatabaseConfig      `yaml:"database" mapstructure:"database"`
	Cache         CacheConfig         `yaml:"cache" mapstructure:"cache"`
	Vector        VectorConfig        `yaml:"vector" mapstructure:"vector"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
}

// AppConfig is the basic application identity.
type AppConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Version string `yaml:"version" mapstructure:"version"`
	Env     string `yaml:"env" mapstructure:"env"`
}

// LLMConfig configures the gateway and its providers.
type LLMConfig struct {
	// DefaultProvider is used when a request does not name one explicitly.
	DefaultProvider string `yaml:"provider" mapstructure:"provider"`
	// DefaultModel is used when a request does not name a model.
	DefaultModel string `yaml:"model" mapstructure:"model"`
	// ContextWindow bounds the prompt tokens a request may consume.
	ContextWindow int `yaml:"context_window" mapstructure:"context_window"`
	// GenerationMaxTokens caps a single chapter completion.
	GenerationMaxTokens int `yaml:"generation_max_tokens" mapstructure:"generation_max_tokens"`
	// RetryMaxAttempts bounds the gateway's backoff retries.
	RetryMaxAttempts int `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	// PerProviderConcurrency caps in-flight calls per provider.
	PerProviderConcurrency int `yaml:"per_provider_concurrency" mapstructure:"per_provider_concurrency"`
	// Providers holds per-provider connection settings, keyed by provider name.
	Providers map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// ProviderConfig holds one LLM provider's connection settings.
type ProviderConfig struct {
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig configures the embedding provider used for vector memory.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`
	Model     string `yaml:"model" mapstructure:"model"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	Endpoint  string `yaml:"endpoint" mapstructure:"endpoint"`
}

// MemoryConfig configures the layered memory store's retrieval behavior.
type MemoryConfig struct {
	RetrievalK    int     `yaml:"retrieval_k" mapstructure:"retrieval_k"`
	LexicalWeight float64 `yaml:"lexical_weight" mapstructure:"lexical_weight"`
	VectorWeight  float64 `yaml:"vector_weight" mapstructure:"vector_weight"`
	// ContextRingBound is the most CONTEXT-tier items a project keeps;
	// adding beyond it evicts the oldest by metadata["order"].
	ContextRingBound int `yaml:"context_ring_bound" mapstructure:"context_ring_bound"`
}

// GenerationConfig configures the content generator.
type GenerationConfig struct {
	CompletionThreshold float64 `yaml:"completion_threshold" mapstructure:"completion_threshold"`
}

// ConsistencyConfig configures the consistency checker's gating behavior.
type ConsistencyConfig struct {
	ConsistencyThreshold float64            `yaml:"consistency_threshold" mapstructure:"consistency_threshold"`
	Weights              ConsistencyWeights `yaml:"weights" mapstructure:"weights"`
}

// ConsistencyWeights are the per-severity score deductions a consistency
// report applies, defaulting to the package's built-in values but
// overridable.
type ConsistencyWeights struct {
	Error float64 `yaml:"error" mapstructure:"error"`
	Warn  float64 `yaml:"warn" mapstructure:"warn"`
	Info  float64 `yaml:"info" mapstructure:"info"`
}

// AgentConfig configures the conversational agent's session handling.
type AgentConfig struct {
	SessionTurnCap   int `yaml:"session_turn_cap" mapstructure:"session_turn_cap"`
	SessionCacheSize int `yaml:"session_cache_size" mapstructure:"session_cache_size"`
}

// DatabaseConfig configures the persistence backends.
type DatabaseConfig struct {
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig is the PostgreSQL connection configuration.
type PostgresConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Database        string        `yaml:"database" mapstructure:"database"`
	SSLMode         string        `yaml:"ssl_mode" mapstructure:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// CacheConfig configures the session cache.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis" mapstructure:"redis"`
}

// RedisConfig is the Redis connection configuration.
type RedisConfig struct {
	Host         string        `yaml:"host" mapstructure:"host"`
	Port         int           `yaml:"port" mapstructure:"port"`
	Password     string        `yaml:"password" mapstructure:"password"`
	DB           int           `yaml:"db" mapstructure:"db"`
	PoolSize     int           `yaml:"pool_size" mapstructure:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// VectorConfig configures the vector store backend.
type VectorConfig struct {
	Backend string       `yaml:"backend" mapstructure:"backend"` // "exact" or "milvus"
	Milvus  MilvusConfig `yaml:"milvus" mapstructure:"milvus"`
}

// MilvusConfig is the Milvus connection configuration.
type MilvusConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	CollectionPrefix   string `yaml:"collection_prefix" mapstructure:"collection_prefix"`
	IndexType          string `yaml:"index_type" mapstructure:"index_type"`
	MetricType         string `yaml:"metric_type" mapstructure:"metric_type"`
	HNSWM              int    `yaml:"hnsw_m" mapstructure:"hnsw_m"`
	HNSWEfConstruction int    `yaml:"hnsw_ef_construction" mapstructure:"hnsw_ef_construction"`
}

// ObservabilityConfig configures logging, tracing and metrics.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Port    int    `yaml:"port" mapstructure:"port"`
	Path    string `yaml:"path" mapstructure:"path"`
}
