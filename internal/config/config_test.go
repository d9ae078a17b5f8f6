package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/david/tax-radar/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v, err := config.NewViper("")
	require.NoError(t, err)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	require.Equal(t, "8081", cfg.Port)
	require.Equal(t, "ollama", cfg.Analyzer.Provider)
	require.Equal(t, 60*time.Second, cfg.Analyzer.Timeout)
	require.Equal(t, 6*time.Hour, cfg.Analyzer.CacheTTL)
	require.Equal(t, "http", cfg.Fetcher)
	require.Equal(t, 10*time.Minute, cfg.RunTimeout)
	require.Equal(t, []string{"http://localhost:4200"}, cfg.CORSOrigins)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("TAXRADAR_PORT", "9000")
	t.Setenv("TAXRADAR_ANALYZER_PROVIDER", "OpenAI")
	t.Setenv("TAXRADAR_ANALYZER_API_KEY", "sk-test")
	t.Setenv("TAXRADAR_ANALYZER_TIMEOUT", "5s")
	t.Setenv("TAXRADAR_FETCHER", "colly")
	t.Setenv("TAXRADAR_CORS_ORIGINS", "https://a.example, https://b.example")

	v, err := config.NewViper("")
	require.NoError(t, err)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, "openai", cfg.Analyzer.Provider)
	require.Equal(t, "sk-test", cfg.Analyzer.APIKey)
	require.Equal(t, 5*time.Second, cfg.Analyzer.Timeout)
	require.Equal(t, "colly", cfg.Fetcher)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxradar.yaml")
	body := "port: \"7070\"\nrun_timeout: 2m\nanalyzer:\n  model: qwen2.5:7b\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	v, err := config.NewViper(path)
	require.NoError(t, err)

	cfg, err := config.Load(v)
	require.NoError(t, err)
	require.Equal(t, "7070", cfg.Port)
	require.Equal(t, 2*time.Minute, cfg.RunTimeout)
	require.Equal(t, "qwen2.5:7b", cfg.Analyzer.Model)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown provider", env: map[string]string{"TAXRADAR_ANALYZER_PROVIDER": "spacy"}},
		{name: "openai without key", env: map[string]string{"TAXRADAR_ANALYZER_PROVIDER": "openai"}},
		{name: "unknown fetcher", env: map[string]string{"TAXRADAR_FETCHER": "curl"}},
		{name: "zero run timeout", env: map[string]string{"TAXRADAR_RUN_TIMEOUT": "0s"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, val := range tc.env {
				t.Setenv(k, val)
			}
			v, err := config.NewViper("")
			require.NoError(t, err)

			_, err = config.Load(v)
			require.Error(t, err)
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := config.NewViper(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
