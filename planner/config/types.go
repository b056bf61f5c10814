package config

import "time"

// RPCPlannerConfig is the server configuration, read from a TOML file or from
// PLANNER_ prefixed environment variables.
type RPCPlannerConfig struct {
	// rpc configs
	Port int    `toml:"port" mapstructure:"port"`
	Host string `toml:"host" mapstructure:"host"`

	// CORS configs
	AllowedOrigins []string `toml:"allowed_origins" mapstructure:"allowed_origins"`

	// rate limiting configs
	RatePerMinute         int `toml:"rate_per_minute" mapstructure:"rate_per_minute"`
	MaxConcurrentRequests int `toml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`

	// OpenTelemetry configs
	ServiceName    string `toml:"service_name" mapstructure:"service_name"`
	ServiceVersion string `toml:"service_version" mapstructure:"service_version"`
	Environment    string `toml:"environment" mapstructure:"environment"` // PROD, DEV, TEST, LOCAL
	EnableTracing  bool   `toml:"enable_tracing" mapstructure:"enable_tracing"`
	UseOTLPTraces  bool   `toml:"use_otlp_traces" mapstructure:"use_otlp_traces"`
	OTLPTracesURL  string `toml:"otlp_traces_url" mapstructure:"otlp_traces_url"`
	EnableMetrics  bool   `toml:"enable_metrics" mapstructure:"enable_metrics"`
	UsePrometheus  bool   `toml:"use_prometheus" mapstructure:"use_prometheus"`
	UseOTLPMetrics bool   `toml:"use_otlp_metrics" mapstructure:"use_otlp_metrics"`
	OTLPMetricsURL string `toml:"otlp_metrics_url" mapstructure:"otlp_metrics_url"`
	EnableLogs     bool   `toml:"enable_logs" mapstructure:"enable_logs"`
	UseOTLPLogs    bool   `toml:"use_otlp_logs" mapstructure:"use_otlp_logs"`
	OTLPLogsURL    string `toml:"otlp_logs_url" mapstructure:"otlp_logs_url"`

	InsecureOTLP bool `toml:"insecure_otlp" mapstructure:"insecure_otlp"`

	// Development mode uses stdout exporters
	DevelopmentMode bool `toml:"development_mode" mapstructure:"development_mode"`

	// Chain indexer config, first URL is the primary
	IndexerURLs    []string      `toml:"indexer_urls" mapstructure:"indexer_urls"`
	IndexerTimeout time.Duration `toml:"indexer_timeout" mapstructure:"indexer_timeout"`

	// Catalog source: a local path, or any go-getter URL (https, git, s3...)
	CatalogSource string `toml:"catalog_source" mapstructure:"catalog_source"`

	// Plan store: empty RedisURL keeps plans in memory
	RedisURL string        `toml:"redis_url" mapstructure:"redis_url"`
	PlanTTL  time.Duration `toml:"plan_ttl" mapstructure:"plan_ttl"`

	// Planner defaults
	DefaultSlippageBps uint32 `toml:"default_slippage_bps" mapstructure:"default_slippage_bps"`
	XcmFeePaddingBps   uint32 `toml:"xcm_fee_padding_bps" mapstructure:"xcm_fee_padding_bps"`
}
