package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func parserIn2025() *DateParser {
	return &DateParser{Now: func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateParser_Parse(t *testing.T) {
	p := parserIn2025()

	tests := []struct {
		raw  string
		want time.Time
	}{
		{"9 Ιουλίου 2025", day(2025, time.July, 9)},
		{"09/07 12:26", day(2025, time.July, 9)},
		{"09/07", day(2025, time.July, 9)},
		{"1 Μαρτίου 2025", day(2025, time.March, 1)},
		{"3 Μαΐου 2025", day(2025, time.May, 3)},
		{"15 ΟΚΤΩΒΡΙΟΥ 2024", day(2024, time.October, 15)},
		{"3 Δεκ. 2024", day(2024, time.December, 3)},
		{"12 Σεπτ 2024", day(2024, time.September, 12)},
		{"  9   Ιουλίου   2025 ", day(2025, time.July, 9)},
		{"25/12/2024 18:30", day(2024, time.December, 25)},
		{"25/12/2024", day(2024, time.December, 25)},
		{"25.12.2024", day(2024, time.December, 25)},
		{"2024-12-25", day(2024, time.December, 25)},
		{"2024/12/25", day(2024, time.December, 25)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := p.Parse(tt.raw)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestDateParser_ParseInvalid(t *testing.T) {
	p := parserIn2025()

	for _, raw := range []string{
		"",
		"   ",
		"not-a-date",
		"31/04/2025",
		"9 Ιουλίου",
		"32/01",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := p.Parse(raw)
			require.Error(t, err)
		})
	}
}

func TestDateParser_YearComesFromClock(t *testing.T) {
	p := &DateParser{Now: func() time.Time { return time.Date(2031, 1, 1, 0, 0, 0, 0, time.UTC) }}

	got, err := p.Parse("09/07 12:26")
	require.NoError(t, err)
	require.Equal(t, day(2031, time.July, 9), got)
}

func TestDateParser_NormalizeDatesKeepsIndices(t *testing.T) {
	p := parserIn2025()

	out := p.NormalizeDates([]DateInput{
		{Index: 4, Raw: "9 Ιουλίου 2025"},
		{Index: 7, Raw: "garbage"},
		{Index: 9, Raw: "2025-01-02"},
	})

	require.Len(t, out, 3)
	require.Equal(t, 4, out[0].Index)
	require.True(t, out[0].OK)
	require.Equal(t, 7, out[1].Index)
	require.False(t, out[1].OK)
	require.True(t, out[1].Date.IsZero())
	require.Equal(t, 9, out[2].Index)
	require.Equal(t, day(2025, time.January, 2), out[2].Date)
}

func TestTranslateGreekMonths_WholeWordsOnly(t *testing.T) {
	// "Μαρτίου" must not be rewritten through its "Μαρ" prefix.
	require.Equal(t, "1 March 2025", translateGreekMonths("1 Μαρτίου 2025"))
	require.Equal(t, "Μαραθώνας 2025", translateGreekMonths("Μαραθώνας 2025"))
}
