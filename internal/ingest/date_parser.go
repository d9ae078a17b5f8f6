package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// greekMonths maps accent-folded, lowercased Greek month words to English
// month tokens understood by time.Parse. Genitive and nominative forms plus
// the common abbreviations are covered.
var greekMonths = map[string]string{
	"ιανουαριου": "January", "ιανουαριοσ": "January", "ιαν": "Jan",
	"φεβρουαριου": "February", "φεβρουαριοσ": "February", "φεβ": "Feb",
	"μαρτιου": "March", "μαρτιοσ": "March", "μαρ": "Mar",
	"απριλιου": "April", "απριλιοσ": "April", "απρ": "Apr",
	"μαιου": "May", "μαιοσ": "May", "μαι": "May",
	"ιουνιου": "June", "ιουνιοσ": "June", "ιουν": "Jun",
	"ιουλιου": "July", "ιουλιοσ": "July", "ιουλ": "Jul",
	"αυγουστου": "August", "αυγουστοσ": "August", "αυγ": "Aug",
	"σεπτεμβριου": "September", "σεπτεμβριοσ": "September", "σεπ": "Sep", "σεπτ": "Sep",
	"οκτωβριου": "October", "οκτωβριοσ": "October", "οκτ": "Oct",
	"νοεμβριου": "November", "νοεμβριοσ": "November", "νοε": "Nov", "νοεμ": "Nov",
	"δεκεμβριου": "December", "δεκεμβριοσ": "December", "δεκ": "Dec",
}

// Layouts tried in order after month translation; the first match wins.
// Non-padded day/month fields accept both "9" and "09".
var dateLayouts = []string{
	"2 January 2006",
	"2 Jan 2006",
	"2/1/2006 15:04",
	"2/1/2006",
	"2.1.2006",
	"2006-01-02",
	"2006/1/2",
}

var (
	letterRunRe    = regexp.MustCompile(`\p{L}+\.?`)
	spaceRe        = regexp.MustCompile(`\s+`)
	dayMonthOnlyRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:\s+(\d{1,2}:\d{2}))?$`)
)

// DateInput is one raw date string to normalize.
type DateInput struct {
	Index int
	Raw   string
}

// DateResult is the outcome for one DateInput. OK is false when the date is absent.
type DateResult struct {
	Index int
	Date  time.Time
	OK    bool
}

// DateParser turns heterogeneous Greek/ISO date strings into calendar dates.
type DateParser struct {
	// Now supplies the year for inputs that omit it.
	Now func() time.Time
}

func NewDateParser() *DateParser {
	return &DateParser{Now: time.Now}
}

// NormalizeDates parses every input; unparseable ones come back with OK=false.
func (p *DateParser) NormalizeDates(inputs []DateInput) []DateResult {
	out := make([]DateResult, 0, len(inputs))
	for _, in := range inputs {
		d, err := p.Parse(in.Raw)
		out = append(out, DateResult{Index: in.Index, Date: d, OK: err == nil})
	}
	return out
}

// Parse returns the calendar date (midnight UTC) of raw. Time of day is dropped.
func (p *DateParser) Parse(raw string) (time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	text = translateGreekMonths(text)
	text = spaceRe.ReplaceAllString(text, " ")
	text = p.insertYear(text)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", raw)
}

// insertYear turns "DD/MM" and "DD/MM HH:MM" into "DD/MM/YYYY[ HH:MM]".
func (p *DateParser) insertYear(text string) string {
	m := dayMonthOnlyRe.FindStringSubmatch(text)
	if m == nil {
		return text
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	out := fmt.Sprintf("%s/%s/%d", m[1], m[2], now().Year())
	if m[3] != "" {
		out += " " + m[3]
	}
	return out
}

// translateGreekMonths replaces whole Greek month words, matched
// case- and accent-insensitively, with English month names.
func translateGreekMonths(text string) string {
	return letterRunRe.ReplaceAllStringFunc(text, func(word string) string {
		bare := strings.TrimSuffix(word, ".")
		if en, ok := greekMonths[foldGreek(bare)]; ok {
			return en
		}
		return word
	})
}

// foldGreek lowercases, strips diacritics and maps final sigma to sigma.
func foldGreek(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	return strings.ReplaceAll(folded, "ς", "σ")
}
