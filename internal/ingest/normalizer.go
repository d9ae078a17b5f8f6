package ingest

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeSpace(html)
	}
	return normalizeSpace(doc.Text())
}

// NormalizeResult is the output of Normalizer.NormalizeItems.
type NormalizeResult struct {
	Items   []NewsItem
	Dropped int
}

// Normalizer parses raw dates and orders items newest first.
type Normalizer struct {
	Dates *DateParser
	Log   *slog.Logger
}

func NewNormalizer(dates *DateParser, log *slog.Logger) *Normalizer {
	if dates == nil {
		dates = NewDateParser()
	}
	return &Normalizer{Dates: dates, Log: log}
}

// NormalizeItems drops items whose date cannot be parsed and sorts the rest
// by date descending. Items with equal dates keep their input order.
func (n *Normalizer) NormalizeItems(raws []RawNewsItem) NormalizeResult {
	inputs := make([]DateInput, len(raws))
	for i, r := range raws {
		inputs[i] = DateInput{Index: i, Raw: r.DateRaw}
	}

	res := NormalizeResult{Items: make([]NewsItem, 0, len(raws))}
	for _, d := range n.Dates.NormalizeDates(inputs) {
		raw := raws[d.Index]
		if !d.OK {
			res.Dropped++
			if n.Log != nil {
				n.Log.Debug("dropping item with unparseable date", "url", raw.URL, "date_raw", raw.DateRaw)
			}
			continue
		}
		raw.Title = normalizeSpace(raw.Title)
		raw.Summary = normalizeSpace(raw.Summary)
		res.Items = append(res.Items, NewsItem{RawNewsItem: raw, Date: d.Date})
	}

	sort.SliceStable(res.Items, func(i, j int) bool {
		return res.Items[i].Date.After(res.Items[j].Date)
	})
	return res
}
