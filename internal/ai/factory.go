package ai

import (
	"fmt"

	"github.com/david/tax-radar/internal/config"
	"github.com/david/tax-radar/internal/nlp"
)

// NewAnalyzer builds the configured provider wrapped in a result cache.
func NewAnalyzer(cfg config.Analyzer) (nlp.Analyzer, error) {
	var base nlp.Analyzer
	switch cfg.Provider {
	case "ollama", "":
		base = NewOllamaClient(cfg.BaseURL, cfg.Model, cfg.Timeout)
	case "openai":
		c, err := NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		base = c
	default:
		return nil, fmt.Errorf("unknown analyzer provider %q", cfg.Provider)
	}
	return nlp.NewCachedAnalyzer(base, cfg.CacheTTL), nil
}
