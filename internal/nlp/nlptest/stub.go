// Package nlptest provides a deterministic Analyzer for tests.
package nlptest

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/david/tax-radar/internal/models"
	"github.com/david/tax-radar/internal/nlp"
)

// Word describes how the stub analyzes one surface form.
type Word struct {
	Lemma string
	POS   string
	Stop  bool
}

// Analyzer splits text on non-letters and looks each word up in Lexicon.
// Unknown words become stop-word tokens. Entities lists entities to report
// whenever their text occurs in the input.
type Analyzer struct {
	Lexicon  map[string]Word
	Entities []models.Entity
	Err      error
	CheckErr error

	mu    sync.Mutex
	calls int
}

func (a *Analyzer) Analyze(_ context.Context, text string) (*nlp.Analysis, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}

	out := &nlp.Analysis{}
	for _, f := range strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }) {
		w, ok := a.Lexicon[f]
		if !ok {
			out.Tokens = append(out.Tokens, nlp.Token{Text: f, Lemma: f, POS: "X", IsStop: true})
			continue
		}
		out.Tokens = append(out.Tokens, nlp.Token{Text: f, Lemma: w.Lemma, POS: w.POS, IsStop: w.Stop})
	}
	for _, e := range a.Entities {
		if strings.Contains(text, e.Text) {
			out.Entities = append(out.Entities, e)
		}
	}
	return out, nil
}

func (a *Analyzer) Check(context.Context) error {
	return a.CheckErr
}

// Calls reports how many times Analyze ran.
func (a *Analyzer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// GreekNews is a small lexicon covering the headlines used across tests.
func GreekNews() *Analyzer {
	return &Analyzer{
		Lexicon: map[string]Word{
			"Νέος":         {Lemma: "νέος", POS: nlp.POSAdjective},
			"νόμος":        {Lemma: "νόμος", POS: nlp.POSNoun},
			"φορολογία":    {Lemma: "φορολογία", POS: nlp.POSNoun},
			"ακινήτων":     {Lemma: "ακίνητο", POS: nlp.POSNoun},
			"ΕΣΠΑ":         {Lemma: "ΕΣΠΑ", POS: nlp.POSProperNoun},
			"επιδότηση":    {Lemma: "επιδότηση", POS: nlp.POSNoun},
			"επιχειρήσεις": {Lemma: "επιχείρηση", POS: nlp.POSNoun},
			"ΦΠΑ":          {Lemma: "ΦΠΑ", POS: nlp.POSProperNoun},
			"ΑΑΔΕ":         {Lemma: "ΑΑΔΕ", POS: nlp.POSProperNoun},
			"παράταση":     {Lemma: "παράταση", POS: nlp.POSNoun},
			"προθεσμίας":   {Lemma: "προθεσμία", POS: nlp.POSNoun},
			"οφειλές":      {Lemma: "οφειλές", POS: nlp.POSNoun},
			"ρύθμιση":      {Lemma: "ρύθμιση", POS: nlp.POSNoun},
			"καιρός":       {Lemma: "καιρός", POS: nlp.POSNoun},
			"για":          {Lemma: "για", POS: "ADP", Stop: true},
			"τη":           {Lemma: "ο", POS: "DET", Stop: true},
			"νέα":          {Lemma: "νέος", POS: nlp.POSAdjective},
		},
		Entities: []models.Entity{
			{Text: "ΑΑΔΕ", Type: "ORG"},
			{Text: "Ελλάδα", Type: "LOC"},
		},
	}
}
