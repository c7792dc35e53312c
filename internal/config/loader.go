package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "statforge.yaml"

// ConfigFileEnv names the environment variable that overrides DefaultConfigFile.
const ConfigFileEnv = "STATFORGE_CONFIG"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	path := DefaultConfigFile
	if v := os.Getenv(ConfigFileEnv); v != "" {
		path = v
	}
	return LoadFrom(path)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays non-empty environment variables onto cfg. A value that
// does not parse is logged and skipped.
func loadEnv(cfg *Config) {
	setEnv(&cfg.Server.Port, "STATFORGE_PORT", asString)
	setEnv(&cfg.Server.CORSOrigin, "STATFORGE_CORS_ORIGIN", asString)

	setEnv(&cfg.Postgres.DSN, "DATABASE_URL", asString)
	setEnv(&cfg.Postgres.MaxConns, "STATFORGE_PG_MAX_CONNS", asInt32)
	setEnv(&cfg.Postgres.MinConns, "STATFORGE_PG_MIN_CONNS", asInt32)
	setEnv(&cfg.Postgres.MaxConnLifetime, "STATFORGE_PG_MAX_CONN_LIFETIME", time.ParseDuration)
	setEnv(&cfg.Postgres.MaxConnIdleTime, "STATFORGE_PG_MAX_CONN_IDLE_TIME", time.ParseDuration)
	setEnv(&cfg.Postgres.HealthCheck, "STATFORGE_PG_HEALTH_CHECK", time.ParseDuration)
	setEnv(&cfg.Postgres.QueryTimeout, "STATFORGE_PG_QUERY_TIMEOUT", time.ParseDuration)

	setEnv(&cfg.NATS.URL, "NATS_URL", asString)
	setEnv(&cfg.NATS.Enabled, "STATFORGE_NATS_ENABLED", strconv.ParseBool)

	setEnv(&cfg.LLM.Provider, "STATFORGE_LLM_PROVIDER", asString)
	setEnv(&cfg.LLM.URL, "STATFORGE_LLM_URL", asString)
	setEnv(&cfg.LLM.Model, "STATFORGE_LLM_MODEL", asString)
	setEnv(&cfg.LLM.MasterKey, "LITELLM_MASTER_KEY", asString)
	setEnv(&cfg.LLM.Timeout, "STATFORGE_LLM_TIMEOUT", time.ParseDuration)

	setEnv(&cfg.Agent.MaxIterations, "STATFORGE_AGENT_MAX_ITERATIONS", strconv.Atoi)
	setEnv(&cfg.Agent.MaxIterationsCap, "STATFORGE_AGENT_MAX_ITERATIONS_CAP", strconv.Atoi)
	setEnv(&cfg.Agent.Temperature, "STATFORGE_AGENT_TEMPERATURE", asFloat)
	setEnv(&cfg.Agent.ResultMaxRows, "STATFORGE_AGENT_RESULT_MAX_ROWS", strconv.Atoi)
	setEnv(&cfg.Agent.RecentGamesLimit, "STATFORGE_AGENT_RECENT_GAMES", strconv.Atoi)

	setEnv(&cfg.Retrieval.Backend, "STATFORGE_RETRIEVAL_BACKEND", asString)
	setEnv(&cfg.Retrieval.Timeout, "STATFORGE_RETRIEVAL_TIMEOUT", time.ParseDuration)
	setEnv(&cfg.Retrieval.WeaviateHost, "WEAVIATE_HOST", asString)
	setEnv(&cfg.Retrieval.WeaviateScheme, "WEAVIATE_SCHEME", asString)
	setEnv(&cfg.Retrieval.StatsClass, "STATFORGE_RETRIEVAL_STATS_CLASS", asString)
	setEnv(&cfg.Retrieval.NewsClass, "STATFORGE_RETRIEVAL_NEWS_CLASS", asString)

	setEnv(&cfg.Cache.Enabled, "STATFORGE_CACHE_ENABLED", strconv.ParseBool)
	setEnv(&cfg.Cache.L1MaxSizeMB, "STATFORGE_CACHE_L1_SIZE_MB", asInt64)
	setEnv(&cfg.Cache.L2Bucket, "STATFORGE_CACHE_L2_BUCKET", asString)
	setEnv(&cfg.Cache.L2TTL, "STATFORGE_CACHE_L2_TTL", time.ParseDuration)

	setEnv(&cfg.Logging.Level, "STATFORGE_LOG_LEVEL", asString)
	setEnv(&cfg.Logging.Service, "STATFORGE_LOG_SERVICE", asString)
	setEnv(&cfg.Logging.Async, "STATFORGE_LOG_ASYNC", strconv.ParseBool)
	setEnv(&cfg.Logging.Format, "STATFORGE_LOG_FORMAT", asString)
	setEnv(&cfg.Logging.Output, "STATFORGE_LOG_OUTPUT", asString)

	setEnv(&cfg.Breaker.MaxFailures, "STATFORGE_BREAKER_MAX_FAILURES", strconv.Atoi)
	setEnv(&cfg.Breaker.Timeout, "STATFORGE_BREAKER_TIMEOUT", time.ParseDuration)

	setEnv(&cfg.Rate.RequestsPerSecond, "STATFORGE_RATE_RPS", asFloat)
	setEnv(&cfg.Rate.Burst, "STATFORGE_RATE_BURST", strconv.Atoi)
	setEnv(&cfg.Rate.CleanupInterval, "STATFORGE_RATE_CLEANUP_INTERVAL", time.ParseDuration)
	setEnv(&cfg.Rate.MaxIdleTime, "STATFORGE_RATE_MAX_IDLE_TIME", time.ParseDuration)

	setEnv(&cfg.MCP.Enabled, "STATFORGE_MCP_ENABLED", strconv.ParseBool)
	setEnv(&cfg.MCP.Port, "STATFORGE_MCP_PORT", strconv.Atoi)
	setEnv(&cfg.MCP.APIKey, "STATFORGE_MCP_API_KEY", asString)

	setEnv(&cfg.OTEL.Enabled, "STATFORGE_OTEL_ENABLED", strconv.ParseBool)
	setEnv(&cfg.OTEL.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT", asString)
	setEnv(&cfg.OTEL.ServiceName, "OTEL_SERVICE_NAME", asString)
	setEnv(&cfg.OTEL.Insecure, "STATFORGE_OTEL_INSECURE", strconv.ParseBool)
	setEnv(&cfg.OTEL.SampleRate, "STATFORGE_OTEL_SAMPLE_RATE", asFloat)
}

func setEnv[T any](dst *T, key string, parse func(string) (T, error)) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	v, err := parse(raw)
	if err != nil {
		slog.Warn("ignoring malformed environment variable", "key", key, "value", raw, "error", err)
		return
	}
	*dst = v
}

func asString(s string) (string, error) { return s, nil }

func asFloat(s string) (float64, error) { return strconv.ParseFloat(s, 64) }

func asInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }

func asInt32(s string) (int32, error) {
	n, err := strconv.ParseInt(s, 10, 32)
	return int32(n), err
}

// validate reports every problem in cfg, joined.
func validate(cfg *Config) error {
	var errs []error
	require := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}
	oneOf := func(field, v string, allowed ...string) {
		if !slices.Contains(allowed, v) {
			errs = append(errs, fmt.Errorf("%s %q is not supported (%s)", field, v, strings.Join(allowed, ", ")))
		}
	}

	require(cfg.Server.Port != "", "server.port is required")
	require(cfg.Postgres.DSN != "", "postgres.dsn is required")
	require(cfg.Postgres.MaxConns >= 1, "postgres.max_conns must be >= 1")
	require(!cfg.NATS.Enabled || cfg.NATS.URL != "", "nats.url is required when nats is enabled")

	oneOf("llm.provider", cfg.LLM.Provider, "ollama", "litellm")
	require(cfg.LLM.URL != "", "llm.url is required")
	require(cfg.LLM.Model != "", "llm.model is required")

	require(cfg.Agent.MaxIterations >= 1, "agent.max_iterations must be >= 1")
	require(cfg.Agent.MaxIterationsCap >= cfg.Agent.MaxIterations, "agent.max_iterations_cap must be >= agent.max_iterations")
	require(cfg.Agent.ResultMaxRows >= 1, "agent.result_max_rows must be >= 1")

	oneOf("retrieval.backend", cfg.Retrieval.Backend, "none", "nats", "weaviate")
	require(cfg.Retrieval.Backend != "nats" || cfg.NATS.Enabled, "retrieval.backend nats requires nats.enabled")

	oneOf("logging.format", cfg.Logging.Format, "json", "text")
	oneOf("logging.output", cfg.Logging.Output, "stdout", "stderr")

	require(cfg.Breaker.MaxFailures >= 1, "breaker.max_failures must be >= 1")
	require(cfg.Rate.Burst >= 1, "rate.burst must be >= 1")
	return errors.Join(errs...)
}
