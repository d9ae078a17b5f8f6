package ingest

import (
	"context"
	"fmt"
)

// FetcherStrategy collects raw items from one source.
type FetcherStrategy interface {
	Collect(ctx context.Context, src SourceConfig, fetcher Fetcher) ([]RawNewsItem, error)
}

// StrategyFactory maps strategy IDs (from sources.yaml) to implementations.
type StrategyFactory struct {
	strategies map[string]FetcherStrategy
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{
		strategies: make(map[string]FetcherStrategy),
	}
}

// DefaultStrategies returns a factory with the built-in strategies registered.
func DefaultStrategies() *StrategyFactory {
	f := NewStrategyFactory()
	f.Register("html_listing", &HTMLListingStrategy{})
	f.Register("rss", &RSSStrategy{})
	f.Register("wordpress", &WordPressStrategy{})
	return f
}

func (f *StrategyFactory) Register(id string, strategy FetcherStrategy) {
	f.strategies[id] = strategy
}

func (f *StrategyFactory) Get(id string) (FetcherStrategy, error) {
	strategy, ok := f.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return strategy, nil
}
