package ingest

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// HTMLListingStrategy scrapes a news listing page using the CSS selectors
// configured for the source.
type HTMLListingStrategy struct{}

func (s *HTMLListingStrategy) Collect(ctx context.Context, src SourceConfig, fetcher Fetcher) ([]RawNewsItem, error) {
	if src.Selectors.Container == "" || src.Selectors.Title == "" {
		return nil, fmt.Errorf("source %s: container and title selectors are required", src.ID)
	}

	doc, err := fetcher.Fetch(ctx, src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.BaseURL, err)
	}
	defer doc.Body.Close()

	page, err := goquery.NewDocumentFromReader(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src.BaseURL, err)
	}

	return parseListing(page, src, doc.URL), nil
}

// parseListing extracts items from an already-parsed listing page.
// Entries without a title, link or date are skipped.
func parseListing(page *goquery.Document, src SourceConfig, pageURL string) []RawNewsItem {
	sel := src.Selectors
	linkSel := sel.Link
	if linkSel == "" {
		linkSel = sel.Title
	}
	linkAttr := sel.LinkAttr
	if linkAttr == "" {
		linkAttr = "href"
	}
	if pageURL == "" {
		pageURL = src.BaseURL
	}
	sourceName := src.Name
	if sourceName == "" {
		sourceName = src.ID
	}

	var items []RawNewsItem
	page.Find(sel.Container).Each(func(_ int, el *goquery.Selection) {
		title := cleanTitle(el.Find(sel.Title).First().Text())
		href, _ := el.Find(linkSel).First().Attr(linkAttr)
		link := resolveURL(pageURL, href)

		var date string
		if sel.Date != "" {
			date = normalizeSpace(el.Find(sel.Date).First().Text())
		}
		if date != "" && sel.Time != "" {
			tm := normalizeSpace(el.Find(sel.Time).First().Text())
			if tm == "" {
				tm = sel.DefaultTime
			}
			if tm != "" {
				date = date + " " + tm
			}
		}

		if title == "" || link == "" || date == "" {
			return
		}

		item := RawNewsItem{
			Title:   title,
			URL:     CanonicalizeURL(link),
			DateRaw: date,
			Source:  sourceName,
		}
		if sel.Summary != "" {
			item.Summary = normalizeSpace(el.Find(sel.Summary).First().Text())
		}
		items = append(items, item)
	})
	return items
}
