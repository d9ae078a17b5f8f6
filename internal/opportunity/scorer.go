// Package opportunity scores annotated articles and buckets them into
// opportunity types.
package opportunity

import (
	"sort"
	"strings"

	"github.com/david/tax-radar/internal/models"
	"github.com/david/tax-radar/internal/taxonomy"
)

// Entity labels recognized for scoring. GPE is treated as a location.
const (
	EntityOrganization = "ORG"
	EntityLocation     = "LOC"
	EntityGeoPolitical = "GPE"
)

// Scorer is a pure function of an article's topic, keywords and entities.
type Scorer struct {
	tax *taxonomy.Taxonomy
}

func NewScorer(tax *taxonomy.Taxonomy) *Scorer {
	return &Scorer{tax: tax}
}

// Score returns the additive relevance score.
func (s *Scorer) Score(o models.Opportunity) float64 {
	w := s.tax.Weights
	var score float64

	if o.MainTopic != "" {
		score += w.Topics[o.MainTopic]
	}

	for _, kw := range o.Keywords {
		if s.tax.LawChange.Has(kw) {
			score += w.Keywords[taxonomy.GroupLawChange]
		}
		if s.tax.Incentive.Has(kw) {
			score += w.Keywords[taxonomy.GroupIncentive]
		}
		if s.tax.Debt.Has(kw) {
			score += w.Keywords[taxonomy.GroupDebt]
		}
		if s.tax.Authority.Has(kw) {
			score += w.Keywords[taxonomy.GroupAuthority]
		}
		if s.tax.GeneralTax.Has(kw) {
			score += w.Keywords[taxonomy.GroupGeneralTax]
		}
	}

	for _, e := range o.Entities {
		switch strings.ToUpper(e.Type) {
		case EntityOrganization:
			score += firstFragment(w.Organizations, e.Text)
		case EntityLocation, EntityGeoPolitical:
			score += firstFragment(w.Locations, e.Text)
		}
	}

	// Only applies when nothing else contributed.
	if score == 0 && s.tax.GeneralTax.Any(o.Keywords) {
		score += w.Fallback
	}
	return score
}

func firstFragment(frags []taxonomy.FragmentWeight, text string) float64 {
	folded := taxonomy.Fold(text)
	for _, f := range frags {
		if strings.Contains(folded, taxonomy.Fold(f.Fragment)) {
			return f.Weight
		}
	}
	return 0
}

// Classify returns the opportunity type, first match wins.
func (s *Scorer) Classify(o models.Opportunity) string {
	t := s.tax
	switch {
	case o.MainTopic == taxonomy.TopicTaxLegislation || t.LawChange.Any(o.Keywords):
		return taxonomy.TypeLegislationChange
	case o.MainTopic == taxonomy.TopicDevelopment || t.Incentive.Any(o.Keywords):
		return taxonomy.TypeDevelopment
	case o.MainTopic == taxonomy.TopicDebt || t.Debt.Any(o.Keywords):
		return taxonomy.TypeDebt
	case t.Authority.Any(o.Keywords):
		return taxonomy.TypeAuthorityNotice
	case o.MainTopic == taxonomy.TopicFiscal:
		return taxonomy.TypeFiscal
	case t.GeneralTax.Any(o.Keywords):
		return taxonomy.TypeGeneralTax
	default:
		return taxonomy.TypeUnclassified
	}
}

// Evaluate returns both score and type.
func (s *Scorer) Evaluate(o models.Opportunity) (float64, string) {
	return s.Score(o), s.Classify(o)
}

// Identify scores every item. all holds every item with Score and Type set,
// in input order; opportunities holds those with a positive score, highest
// first, ties in input order.
func (s *Scorer) Identify(items []models.Opportunity) (all, opportunities []models.Opportunity) {
	if len(items) == 0 {
		return []models.Opportunity{}, []models.Opportunity{}
	}

	all = make([]models.Opportunity, len(items))
	for i, it := range items {
		it.Score, it.Type = s.Evaluate(it)
		all[i] = it
	}

	opportunities = Filter(all)
	return all, opportunities
}

// Filter returns the items with a positive score sorted by score descending.
// The input is not modified.
func Filter(items []models.Opportunity) []models.Opportunity {
	out := make([]models.Opportunity, 0, len(items))
	for _, it := range items {
		if it.IsOpportunity() {
			out = append(out, it)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
