package nlp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/david/tax-radar/internal/models"
	"github.com/david/tax-radar/internal/taxonomy"
)

// Annotation is the linguistic summary of one article.
type Annotation struct {
	Keywords  []string
	Entities  []models.Entity
	MainTopic string // empty for empty input
}

// Annotator combines analyzer output with the configured domain vocabulary.
type Annotator struct {
	analyzer Analyzer
	tax      *taxonomy.Taxonomy
}

// NewAnnotator requires both an analyzer and a taxonomy.
func NewAnnotator(analyzer Analyzer, tax *taxonomy.Taxonomy) (*Annotator, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("%w: no analyzer configured", ErrAnalyzerUnavailable)
	}
	if tax == nil {
		return nil, errors.New("annotator: taxonomy is required")
	}
	return &Annotator{analyzer: analyzer, tax: tax}, nil
}

// Ready probes the analyzer backend when it supports it.
func (a *Annotator) Ready(ctx context.Context) error {
	c, ok := a.analyzer.(Checker)
	if !ok {
		return nil
	}
	if err := c.Check(ctx); err != nil {
		if errors.Is(err, ErrAnalyzerUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrAnalyzerUnavailable, err)
	}
	return nil
}

// Annotate extracts keywords, entities and a topic from text.
//
// When the analyzer fails, the returned Annotation still carries the domain
// keywords found in text and the topic derived from them, alongside the error.
func (a *Annotator) Annotate(ctx context.Context, text string) (Annotation, error) {
	if strings.TrimSpace(text) == "" {
		return Annotation{Keywords: []string{}, Entities: []models.Entity{}}, nil
	}

	candidates := make(map[string]struct{})
	lowered := strings.ToLower(text)
	for _, kw := range a.tax.DomainKeywords {
		if strings.Contains(lowered, kw) {
			candidates[kw] = struct{}{}
		}
	}

	analysis, err := a.analyzer.Analyze(ctx, text)
	if err != nil {
		keywords := sortedKeys(candidates)
		return Annotation{
			Keywords:  keywords,
			Entities:  []models.Entity{},
			MainTopic: a.tax.TopicFor(keywords),
		}, fmt.Errorf("analyze: %w", err)
	}

	for _, tok := range analysis.Tokens {
		if !isContentPOS(tok.POS) || tok.IsStop || tok.IsPunct {
			continue
		}
		lemma := tok.Lemma
		if strings.TrimSpace(lemma) == "" {
			lemma = tok.Text
		}
		if lemma = taxonomy.Fold(lemma); lemma != "" {
			candidates[lemma] = struct{}{}
		}
	}

	keywords := sortedKeys(candidates)
	entities := make([]models.Entity, 0, len(analysis.Entities))
	entities = append(entities, analysis.Entities...)

	return Annotation{
		Keywords:  keywords,
		Entities:  entities,
		MainTopic: a.tax.TopicFor(keywords),
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
