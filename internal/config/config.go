package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ServiceName  string
	Environment  string

	// Input sources. Channel files and the business revenue file are read
	// fresh from DataDir on every render pass.
	DataDir      string
	FacebookFile string
	GoogleFile   string
	TikTokFile   string
	BusinessFile string

	// DefaultGrouping is the aggregation used when a request names none.
	DefaultGrouping string

	// Memoization cache configuration
	CacheEnabled bool
	CacheTTL     time.Duration
	RedisAddr    string

	// Alert rule thresholds, in percent unless noted
	AlertSpendRisePct   float64
	AlertRevenueDropPct float64
	AlertCPCRisePct     float64
	AlertROASFloor      float64
	AlertROASPeriods    int

	// Channel efficiency benchmarks
	BenchmarkROAS float64
	BenchmarkCTR  float64
	BenchmarkCPC  float64

	// Tracing configuration
	TracingEnabled    bool
	TempoEndpoint     string
	TracingSampleRate float64
}

// Load parses environment variables and returns a Config populated with
// defaults when variables are absent.
func Load() Config {
	cfg := Config{}

	cfg.Port = getenv("PORT", "8501")
	cfg.ReadTimeout = envDuration("READ_TIMEOUT", 5*time.Second)
	cfg.WriteTimeout = envDuration("WRITE_TIMEOUT", 10*time.Second)
	cfg.ServiceName = getenv("SERVICE_NAME", "marketpulse")
	cfg.Environment = getenv("ENV", "development")

	cfg.DataDir = getenv("DATA_DIR", "./data")
	cfg.FacebookFile = getenv("FACEBOOK_FILE", "Facebook.csv")
	cfg.GoogleFile = getenv("GOOGLE_FILE", "Google.csv")
	cfg.TikTokFile = getenv("TIKTOK_FILE", "TikTok.csv")
	cfg.BusinessFile = getenv("BUSINESS_FILE", "Business.csv")

	cfg.DefaultGrouping = getenv("DEFAULT_GROUPING", "day")

	cfg.CacheEnabled = envBool("CACHE_ENABLED", true)
	cfg.CacheTTL = envDuration("CACHE_TTL", 15*time.Minute)
	cfg.RedisAddr = getenv("REDIS_ADDR", "")

	// Alert thresholds mirror the rule defaults so operators can retune
	// without a rebuild.
	cfg.AlertSpendRisePct = envFloat("ALERT_SPEND_RISE_PCT", 20)
	cfg.AlertRevenueDropPct = envFloat("ALERT_REVENUE_DROP_PCT", 10)
	cfg.AlertCPCRisePct = envFloat("ALERT_CPC_RISE_PCT", 15)
	cfg.AlertROASFloor = envFloat("ALERT_ROAS_FLOOR", 1.0)
	cfg.AlertROASPeriods = envInt("ALERT_ROAS_PERIODS", 3)

	cfg.BenchmarkROAS = envFloat("BENCHMARK_ROAS", 3.0)
	cfg.BenchmarkCTR = envFloat("BENCHMARK_CTR", 0.02)
	cfg.BenchmarkCPC = envFloat("BENCHMARK_CPC", 2.0)

	// Tracing configuration
	cfg.TracingEnabled = envBool("TRACING_ENABLED", false)
	cfg.TempoEndpoint = getenv("TEMPO_ENDPOINT", "tempo:4317")
	cfg.TracingSampleRate = envFloat("TRACING_SAMPLE_RATE", 1.0) // Default to 100% sampling for dev

	return cfg
}

// SourcePath joins a source file name onto the configured data directory.
func (c Config) SourcePath(file string) string {
	return filepath.Join(c.DataDir, file)
}

// getenv returns the value of the environment variable if set, otherwise def.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// envDuration parses an environment variable into a time.Duration.
// The value can be a duration string (e.g. "5s") or a number of seconds.
// If the variable is unset or invalid, def is returned.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

// envBool parses a boolean environment variable. Accepted values are those
// supported by strconv.ParseBool. When unset or invalid, def is returned.
func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return def
}

// envInt parses an integer environment variable. When unset or invalid, def is returned.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	return def
}

// envFloat parses a float64 environment variable. When unset or invalid, def is returned.
func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return def
}
