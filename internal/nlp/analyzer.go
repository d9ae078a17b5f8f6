// Package nlp turns article text into keywords, entities and a topic label.
// Tokenization, lemmatization and entity recognition are delegated to an
// Analyzer supplied by the caller.
package nlp

import (
	"context"
	"errors"

	"github.com/david/tax-radar/internal/models"
)

// Parts of speech kept as keyword candidates.
const (
	POSNoun       = "NOUN"
	POSProperNoun = "PROPN"
	POSAdjective  = "ADJ"
	POSVerb       = "VERB"
)

// ErrAnalyzerUnavailable means the analysis backend could not be reached or
// loaded. It is fatal at startup.
var ErrAnalyzerUnavailable = errors.New("linguistic analyzer unavailable")

// Token is one analyzed word.
type Token struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	IsStop  bool   `json:"is_stop"`
	IsPunct bool   `json:"is_punct"`
}

// Analysis is the output of an Analyzer for one text.
type Analysis struct {
	Tokens   []Token         `json:"tokens"`
	Entities []models.Entity `json:"entities"`
}

// Analyzer tokenizes Greek text with part-of-speech tags and lemmas and
// recognizes named entities.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*Analysis, error)
}

// Checker is implemented by analyzers that can verify their backend is ready.
type Checker interface {
	Check(ctx context.Context) error
}

func isContentPOS(pos string) bool {
	switch pos {
	case POSNoun, POSProperNoun, POSAdjective, POSVerb:
		return true
	}
	return false
}
