// Package config loads service settings from a YAML file and BOTTLENECK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	Predictor PredictorConfig `yaml:"predictor"`
	Host      HostConfig      `yaml:"host"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	LogFormat      string   `yaml:"log_format"`

	// MetricsAllowedIPs lists the extra client IPs allowed on /metrics. Loopback is always allowed.
	MetricsAllowedIPs []string `yaml:"metrics_allowed_ips"`
}

type AnalysisConfig struct {
	Threshold       float64 `yaml:"threshold"`
	AgreementMargin float64 `yaml:"agreement_margin"`
	MatchThreshold  float64 `yaml:"match_threshold"`
}

type CatalogConfig struct {
	// Path overrides the embedded benchmark table
	Path string `yaml:"path"`
}

type StorageConfig struct {
	Path       string        `yaml:"path"`
	InMemory   bool          `yaml:"in_memory"`
	GCInterval time.Duration `yaml:"gc_interval"`
}

type AuthConfig struct {
	// Secret signs build-owner tokens. Empty means a key file next to the data dir.
	Secret      string        `yaml:"secret"`
	TokenExpiry time.Duration `yaml:"token_expiry"`
}

type PredictorConfig struct {
	// URL of an external /predict/ service. Empty disables the remote signal.
	URL         string        `yaml:"url"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxAttempts int           `yaml:"max_attempts"`
	CacheTTL    time.Duration `yaml:"cache_ttl"`
}

type HostConfig struct {
	// RAMType is appended to the detected capacity, since memory type cannot be probed portably
	RAMType string `yaml:"ram_type"`
}

type TracingConfig struct {
	Endpoint    string `yaml:"endpoint"`
	ServiceName string `yaml:"service_name"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:      "localhost:8080",
			RateLimit: 20,
			RateBurst: 40,
			LogFormat: "json",
		},
		Analysis: AnalysisConfig{
			Threshold:       10,
			AgreementMargin: 5,
			MatchThreshold:  0.72,
		},
		Storage: StorageConfig{
			Path:       "data/builds",
			GCInterval: 5 * time.Minute,
		},
		Auth: AuthConfig{
			TokenExpiry: 30 * 24 * time.Hour,
		},
		Predictor: PredictorConfig{
			Timeout:     5 * time.Second,
			MaxAttempts: 2,
			CacheTTL:    10 * time.Minute,
		},
		Host: HostConfig{
			RAMType: "DDR4-3200",
		},
		Tracing: TracingConfig{
			ServiceName: "rigcheck",
		},
	}
}

// Load reads path (if it exists) over the defaults, then applies env overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Analysis.Threshold < 0 || c.Analysis.Threshold >= 100 {
		return fmt.Errorf("analysis.threshold %.2f must be in [0,100)", c.Analysis.Threshold)
	}
	if c.Analysis.AgreementMargin < 0 {
		return fmt.Errorf("analysis.agreement_margin %.2f must not be negative", c.Analysis.AgreementMargin)
	}
	if c.Analysis.MatchThreshold <= 0 || c.Analysis.MatchThreshold > 1 {
		return fmt.Errorf("analysis.match_threshold %.2f must be in (0,1]", c.Analysis.MatchThreshold)
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return errors.New("storage.path is required unless storage.in_memory is set")
	}
	if c.Server.RateLimit <= 0 || c.Server.RateBurst < 1 {
		return errors.New("server.rate_limit and server.rate_burst must be positive")
	}
	if c.Predictor.URL != "" && c.Predictor.MaxAttempts < 1 {
		return errors.New("predictor.max_attempts must be at least 1")
	}
	switch c.Server.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("server.log_format %q must be json or text", c.Server.LogFormat)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup("BOTTLENECK_" + name); ok {
			*dst = v
		}
	}
	var errs []error
	float := func(name string, dst *float64) {
		if v, ok := lookup("BOTTLENECK_" + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("BOTTLENECK_%s: %w", name, err))
				return
			}
			*dst = f
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup("BOTTLENECK_" + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("BOTTLENECK_%s: %w", name, err))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup("BOTTLENECK_" + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("BOTTLENECK_%s: %w", name, err))
				return
			}
			*dst = d
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup("BOTTLENECK_" + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("BOTTLENECK_%s: %w", name, err))
				return
			}
			*dst = b
		}
	}

	str("ADDR", &c.Server.Addr)
	if v, ok := lookup("BOTTLENECK_ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v, ok := lookup("BOTTLENECK_METRICS_ALLOWED_IPS"); ok {
		c.Server.MetricsAllowedIPs = splitList(v)
	}
	float("RATE_LIMIT", &c.Server.RateLimit)
	integer("RATE_BURST", &c.Server.RateBurst)
	str("LOG_FORMAT", &c.Server.LogFormat)
	float("THRESHOLD", &c.Analysis.Threshold)
	float("AGREEMENT_MARGIN", &c.Analysis.AgreementMargin)
	float("MATCH_THRESHOLD", &c.Analysis.MatchThreshold)
	str("CATALOG_PATH", &c.Catalog.Path)
	str("STORAGE_PATH", &c.Storage.Path)
	boolean("STORAGE_IN_MEMORY", &c.Storage.InMemory)
	duration("STORAGE_GC_INTERVAL", &c.Storage.GCInterval)
	str("AUTH_SECRET", &c.Auth.Secret)
	duration("TOKEN_EXPIRY", &c.Auth.TokenExpiry)
	str("PREDICTOR_URL", &c.Predictor.URL)
	duration("PREDICTOR_TIMEOUT", &c.Predictor.Timeout)
	integer("PREDICTOR_MAX_ATTEMPTS", &c.Predictor.MaxAttempts)
	duration("PREDICTOR_CACHE_TTL", &c.Predictor.CacheTTL)
	str("HOST_RAM_TYPE", &c.Host.RAMType)
	str("TRACING_ENDPOINT", &c.Tracing.Endpoint)

	return errors.Join(errs...)
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
