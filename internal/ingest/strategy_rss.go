package ingest

import (
	"context"
	"fmt"

	"github.com/mmcdole/gofeed"
)

// RSSStrategy reads an RSS/Atom feed.
type RSSStrategy struct{}

func (s *RSSStrategy) Collect(ctx context.Context, src SourceConfig, fetcher Fetcher) ([]RawNewsItem, error) {
	doc, err := fetcher.Fetch(ctx, src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", src.BaseURL, err)
	}
	defer doc.Body.Close()

	feed, err := gofeed.NewParser().Parse(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.BaseURL, err)
	}
	return feedItems(feed, src), nil
}

func feedItems(feed *gofeed.Feed, src SourceConfig) []RawNewsItem {
	sourceName := src.Name
	if sourceName == "" {
		sourceName = src.ID
	}

	items := make([]RawNewsItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		title := cleanTitle(it.Title)
		link := resolveURL(src.BaseURL, it.Link)
		if title == "" || link == "" {
			continue
		}

		var date string
		switch {
		case it.PublishedParsed != nil:
			date = it.PublishedParsed.Format("2006-01-02")
		case it.UpdatedParsed != nil:
			date = it.UpdatedParsed.Format("2006-01-02")
		default:
			date = it.Published
		}

		items = append(items, RawNewsItem{
			Title:   title,
			URL:     CanonicalizeURL(link),
			DateRaw: date,
			Source:  sourceName,
			Summary: HTMLToText(it.Description),
		})
	}
	return items
}
