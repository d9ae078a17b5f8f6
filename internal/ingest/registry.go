package ingest

import (
	"embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the list of all configured sources.
type Registry struct {
	Sources []SourceConfig `yaml:"sources"`
}

// FetchConfig holds HTTP fetching configuration per source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 3
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
	AcceptLanguage string  `yaml:"accept_language,omitempty"`
}

// SourceConfig defines a single news source.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Strategy string `yaml:"strategy"` // "html_listing", "rss", "wordpress"
	BaseURL  string `yaml:"base_url"`
	Active   bool   `yaml:"active"`
	MaxPages int    `yaml:"max_pages,omitempty"` // wordpress only

	Fetch     FetchConfig    `yaml:"fetch,omitempty"`
	Selectors SelectorConfig `yaml:"selectors,omitempty"`
}

type SelectorConfig struct {
	Container   string `yaml:"container,omitempty"` // CSS selector for the list item wrapper
	Title       string `yaml:"title,omitempty"`
	Link        string `yaml:"link,omitempty"`
	LinkAttr    string `yaml:"link_attr,omitempty"` // default: href
	Date        string `yaml:"date,omitempty"`
	Time        string `yaml:"time,omitempty"`         // separate time element, appended to the date
	DefaultTime string `yaml:"default_time,omitempty"` // used when Time is set but missing on the page
	Summary     string `yaml:"summary,omitempty"`
}

// LoadRegistry reads sources from path, or the embedded sources.yaml when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read sources: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry decodes registry YAML after expanding ${ENV} references.
func ParseRegistry(data []byte) (*Registry, error) {
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("decode sources: %w", err)
	}

	seen := make(map[string]bool, len(reg.Sources))
	for _, src := range reg.Sources {
		if src.ID == "" {
			return nil, fmt.Errorf("source without id")
		}
		if seen[src.ID] {
			return nil, fmt.Errorf("duplicate source id %q", src.ID)
		}
		seen[src.ID] = true
	}
	return &reg, nil
}

// Active returns the sources that are enabled and have a base URL.
func (r *Registry) Active() []SourceConfig {
	var out []SourceConfig
	for _, src := range r.Sources {
		if src.Active && strings.TrimSpace(src.BaseURL) != "" {
			out = append(out, src)
		}
	}
	return out
}

// Get returns the source with the given id.
func (r *Registry) Get(id string) (SourceConfig, bool) {
	for _, src := range r.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return SourceConfig{}, false
}
