package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/david/tax-radar/internal/models"
	"github.com/david/tax-radar/internal/nlp"
)

const analysisSystemPrompt = `You are a Greek-language linguistic analyzer. You tokenize, tag and lemmatize Greek news text and recognize named entities. You respond only with JSON.`

// buildAnalysisPrompt asks the model for a spaCy-style token and entity listing.
func buildAnalysisPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following Greek text.

TEXT: %s

Return a JSON object with this format:
{
  "tokens": [
    {"text": "νόμος", "lemma": "νόμος", "pos": "NOUN", "is_stop": false, "is_punct": false}
  ],
  "entities": [
    {"text": "ΑΑΔΕ", "type": "ORG"}
  ]
}

Rules:
1. Emit one token per word or punctuation mark, in order.
2. "pos" is a Universal Dependencies tag (NOUN, PROPN, ADJ, VERB, ADV, ADP, DET, PRON, AUX, CCONJ, SCONJ, NUM, PART, PUNCT, X).
3. "lemma" is the dictionary form of the word.
4. "is_stop" is true for Greek stop words (articles, common prepositions, conjunctions, pronouns).
5. Entity "type" is one of ORG, PERSON, LOC, GPE, EVENT, PRODUCT, DATE, MISC.
6. If there are no entities, return an empty array.
7. RESPOND ONLY WITH JSON.`, text)
}

type analysisPayload struct {
	Tokens   []nlp.Token     `json:"tokens"`
	Entities []models.Entity `json:"entities"`
}

// parseAnalysis decodes a model response strictly. Markdown fences and text
// around the JSON object are tolerated; unknown fields are not.
func parseAnalysis(resp string) (*nlp.Analysis, error) {
	cleaned := strings.TrimSpace(resp)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	if jsonStr, ok := extractFirstJSONObject(cleaned); ok {
		cleaned = jsonStr
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(cleaned)))
	dec.DisallowUnknownFields()
	var p analysisPayload
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	if p.Tokens == nil {
		return nil, fmt.Errorf("decode analysis: missing tokens")
	}

	out := &nlp.Analysis{
		Tokens:   make([]nlp.Token, 0, len(p.Tokens)),
		Entities: make([]models.Entity, 0, len(p.Entities)),
	}
	for _, t := range p.Tokens {
		t.Text = strings.TrimSpace(t.Text)
		if t.Text == "" {
			continue
		}
		t.POS = strings.ToUpper(strings.TrimSpace(t.POS))
		if t.POS == "PUNCT" {
			t.IsPunct = true
		}
		out.Tokens = append(out.Tokens, t)
	}
	for _, e := range p.Entities {
		e.Text = strings.TrimSpace(e.Text)
		e.Type = strings.ToUpper(strings.TrimSpace(e.Type))
		if e.Text == "" || e.Type == "" {
			continue
		}
		out.Entities = append(out.Entities, e)
	}
	return out, nil
}

// extractFirstJSONObject finds the first outermost balanced {...}
func extractFirstJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		char := s[i]

		if escaped {
			escaped = false
			continue
		}
		if char == '\\' {
			escaped = true
			continue
		}
		if char == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if char == '{' {
				depth++
			} else if char == '}' {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}

	return "", false
}
