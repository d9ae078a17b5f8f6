// Package taxonomy holds the keyword groups, topic rules and weights shared by
// the annotator and the opportunity scorer.
package taxonomy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultYAML []byte

// Topic labels.
const (
	TopicTaxLegislation = "tax-legislation"
	TopicTaxAuthority   = "tax-authority"
	TopicDevelopment    = "development-programs"
	TopicFiscal         = "fiscal-policy"
	TopicDebt           = "debt-management"
	TopicGeneral        = "general"
)

// Opportunity types.
const (
	TypeLegislationChange = "tax-legislation-change"
	TypeDevelopment       = "development-incentive"
	TypeDebt              = "debt-management"
	TypeAuthorityNotice   = "authority-notice"
	TypeFiscal            = "fiscal-policy"
	TypeGeneralTax        = "general-tax-news"
	TypeUnclassified      = "unclassified"
)

// Keyword group names, as used under taxonomies and weights.keywords.
const (
	GroupLawChange  = "law_change"
	GroupIncentive  = "incentive"
	GroupDebt       = "debt"
	GroupAuthority  = "authority"
	GroupGeneralTax = "general_tax"
)

// Set is a case-insensitive string set.
type Set map[string]struct{}

// NewSet lowercases and trims terms into a Set.
func NewSet(terms ...string) Set {
	s := make(Set, len(terms))
	for _, t := range terms {
		t = Fold(t)
		if t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// Has reports whether term is in the set.
func (s Set) Has(term string) bool {
	_, ok := s[Fold(term)]
	return ok
}

// Any reports whether any of terms is in the set.
func (s Set) Any(terms []string) bool {
	for _, t := range terms {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// Fold is the canonical form used for every comparison.
func Fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TopicRule assigns Label when any trigger is among the keywords.
type TopicRule struct {
	Label    string
	Triggers Set
}

// FragmentWeight scores entities whose text contains Fragment.
type FragmentWeight struct {
	Fragment string  `yaml:"fragment"`
	Weight   float64 `yaml:"weight"`
}

// Weights are the additive scoring constants.
type Weights struct {
	Topics        map[string]float64 `yaml:"topics"`
	Keywords      map[string]float64 `yaml:"keywords"`
	Organizations []FragmentWeight   `yaml:"organizations"`
	Locations     []FragmentWeight   `yaml:"locations"`
	Fallback      float64            `yaml:"fallback"`
}

// Taxonomy is the loaded, validated form of taxonomy.yaml.
type Taxonomy struct {
	DomainKeywords []string
	Topics         []TopicRule

	LawChange  Set
	Incentive  Set
	Debt       Set
	Authority  Set
	GeneralTax Set

	Weights Weights
}

type topicFile struct {
	Label    string   `yaml:"label"`
	Triggers []string `yaml:"triggers"`
}

type file struct {
	DomainKeywords []string            `yaml:"domain_keywords"`
	Topics         []topicFile         `yaml:"topics"`
	Taxonomies     map[string][]string `yaml:"taxonomies"`
	Weights        Weights             `yaml:"weights"`
}

// Default returns the embedded taxonomy.
func Default() (*Taxonomy, error) {
	return Parse(defaultYAML)
}

// Load reads a taxonomy from path, or the embedded default when path is empty.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates taxonomy YAML.
func Parse(data []byte) (*Taxonomy, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}
	if len(f.DomainKeywords) == 0 {
		return nil, fmt.Errorf("taxonomy has no domain_keywords")
	}

	t := &Taxonomy{
		LawChange:  NewSet(f.Taxonomies[GroupLawChange]...),
		Incentive:  NewSet(f.Taxonomies[GroupIncentive]...),
		Debt:       NewSet(f.Taxonomies[GroupDebt]...),
		Authority:  NewSet(f.Taxonomies[GroupAuthority]...),
		GeneralTax: NewSet(f.DomainKeywords...),
		Weights:    f.Weights,
	}
	for _, kw := range f.DomainKeywords {
		if kw = Fold(kw); kw != "" {
			t.DomainKeywords = append(t.DomainKeywords, kw)
		}
	}

	seen := make(map[string]bool)
	for _, tf := range f.Topics {
		if tf.Label == "" || len(tf.Triggers) == 0 {
			return nil, fmt.Errorf("topic rule %q needs a label and triggers", tf.Label)
		}
		if seen[tf.Label] {
			return nil, fmt.Errorf("duplicate topic rule %q", tf.Label)
		}
		seen[tf.Label] = true
		t.Topics = append(t.Topics, TopicRule{Label: tf.Label, Triggers: NewSet(tf.Triggers...)})
	}

	if t.Weights.Topics == nil {
		t.Weights.Topics = map[string]float64{}
	}
	if t.Weights.Keywords == nil {
		t.Weights.Keywords = map[string]float64{}
	}
	for name, w := range t.Weights.Keywords {
		if w < 0 {
			return nil, fmt.Errorf("keyword weight %s is negative", name)
		}
	}
	for name, w := range t.Weights.Topics {
		if w < 0 {
			return nil, fmt.Errorf("topic weight %s is negative", name)
		}
	}
	if t.Weights.Fallback < 0 {
		return nil, fmt.Errorf("fallback weight is negative")
	}
	return t, nil
}

// TopicFor returns the label of the first rule matching keywords, or TopicGeneral.
func (t *Taxonomy) TopicFor(keywords []string) string {
	for _, rule := range t.Topics {
		if rule.Triggers.Any(keywords) {
			return rule.Label
		}
	}
	return TopicGeneral
}
