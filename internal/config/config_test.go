package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server.Addr, cfg.Server.Addr)
	assert.Equal(t, 10.0, cfg.Analysis.Threshold)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rigcheck.yaml")
	data := `
server:
  addr: ":9090"
  allowed_origins: ["https://example.com"]
analysis:
  threshold: 15
predictor:
  url: http://predictor:8000
  timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, []string{"https://example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 15.0, cfg.Analysis.Threshold)
	assert.Equal(t, 5.0, cfg.Analysis.AgreementMargin, "unset keys keep defaults")
	assert.Equal(t, 2*time.Second, cfg.Predictor.Timeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("BOTTLENECK_THRESHOLD", "12.5")
	t.Setenv("BOTTLENECK_ALLOWED_ORIGINS", "a.example, b.example ,")
	t.Setenv("BOTTLENECK_STORAGE_IN_MEMORY", "true")
	t.Setenv("BOTTLENECK_METRICS_ALLOWED_IPS", "10.0.0.1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12.5, cfg.Analysis.Threshold)
	assert.Equal(t, []string{"a.example", "b.example"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.Server.MetricsAllowedIPs)
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("BOTTLENECK_PREDICTOR_TIMEOUT", "soon")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOTTLENECK_PREDICTOR_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"threshold too high": func(c *Config) { c.Analysis.Threshold = 100 },
		"negative margin":    func(c *Config) { c.Analysis.AgreementMargin = -1 },
		"match threshold":    func(c *Config) { c.Analysis.MatchThreshold = 0 },
		"no storage path":    func(c *Config) { c.Storage.Path = "" },
		"no attempts":        func(c *Config) { c.Predictor.URL = "http://x"; c.Predictor.MaxAttempts = 0 },
		"log format":         func(c *Config) { c.Server.LogFormat = "xml" },
		"zero rate":          func(c *Config) { c.Server.RateLimit = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}
