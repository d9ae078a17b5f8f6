package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultLoads(t *testing.T) {
	tx, err := Default()
	require.NoError(t, err)

	require.Len(t, tx.DomainKeywords, 21)
	require.Contains(t, tx.DomainKeywords, "φπα")
	require.Contains(t, tx.DomainKeywords, "ααδε")
	require.True(t, tx.GeneralTax.Has("ΦΠΑ"))
	require.True(t, tx.Authority.Has("MyDATA"))
	require.True(t, tx.LawChange.Has("υπουργική απόφαση"))
	require.True(t, tx.Incentive.Has("εσπα"))

	require.Equal(t, 5.0, tx.Weights.Topics[TopicTaxLegislation])
	require.Equal(t, 2.0, tx.Weights.Keywords[GroupGeneralTax])
	require.Equal(t, 0.5, tx.Weights.Fallback)
	require.Len(t, tx.Weights.Organizations, 3)
	require.Equal(t, "ΑΑΔΕ", tx.Weights.Organizations[0].Fragment)
}

func TestTopicForFirstMatchWins(t *testing.T) {
	tx, err := Default()
	require.NoError(t, err)

	cases := []struct {
		name     string
		keywords []string
		want     string
	}{
		{"tax beats debt", []string{"χρέος", "φορολογία"}, TopicTaxLegislation},
		{"authority uppercase keyword", []string{"ααδε"}, TopicTaxAuthority},
		{"development", []string{"εσπα", "ενέργεια"}, TopicDevelopment},
		{"fiscal before debt", []string{"οφειλές", "δαπάνες"}, TopicFiscal},
		{"debt", []string{"οφειλές"}, TopicDebt},
		{"nothing", []string{"οικονομία"}, TopicGeneral},
		{"empty", nil, TopicGeneral},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, tx.TopicFor(tc.keywords))
		})
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"no keywords":     "topics: []\n",
		"duplicate topic": "domain_keywords: [a]\ntopics:\n  - {label: x, triggers: [a]}\n  - {label: x, triggers: [b]}\n",
		"empty triggers":  "domain_keywords: [a]\ntopics:\n  - {label: x}\n",
		"negative weight": "domain_keywords: [a]\nweights:\n  keywords: {debt: -1}\n",
		"not yaml":        "::::",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(body))
			require.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.yaml")
	body := "domain_keywords: [Ενοίκια]\nweights:\n  fallback: 1\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	tx, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, []string{"ενοίκια"}, tx.DomainKeywords)
	require.Equal(t, 1.0, tx.Weights.Fallback)
	require.Equal(t, TopicGeneral, tx.TopicFor([]string{"ενοίκια"}))
}
