package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"
)

const (
	wpPerPage         = 20
	wpDefaultMaxPages = 2
)

// WordPressStrategy reads posts from the WordPress REST API of a site.
type WordPressStrategy struct{}

type wpPost struct {
	ID    int    `json:"id"`
	Date  string `json:"date"`
	Link  string `json:"link"`
	Title struct {
		Rendered string `json:"rendered"`
	} `json:"title"`
	Excerpt struct {
		Rendered string `json:"rendered"`
	} `json:"excerpt"`
}

func (s *WordPressStrategy) Collect(ctx context.Context, src SourceConfig, fetcher Fetcher) ([]RawNewsItem, error) {
	apiURL, err := wpPostsURL(src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.ID, err)
	}

	maxPages := src.MaxPages
	if maxPages <= 0 {
		maxPages = wpDefaultMaxPages
	}

	sep := "?"
	if strings.Contains(apiURL, "?") {
		sep = "&"
	}

	var items []RawNewsItem
	for page := 1; page <= maxPages; page++ {
		posts, err := fetchWPPage(ctx, fetcher, fmt.Sprintf("%s%spage=%d&per_page=%d", apiURL, sep, page, wpPerPage))
		if err != nil {
			if page == 1 {
				return nil, err
			}
			// Past the last page WordPress answers 400.
			break
		}
		if len(posts) == 0 {
			break
		}
		items = append(items, wpItems(posts, src)...)
		if len(posts) < wpPerPage {
			break
		}
	}
	return items, nil
}

// wpPostsURL appends the standard posts endpoint unless base already points into wp-json.
func wpPostsURL(base string) (string, error) {
	if strings.Contains(base, "wp-json") {
		return base, nil
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", base)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/") + "/wp-json/wp/v2/posts", nil
}

func fetchWPPage(ctx context.Context, fetcher Fetcher, pageURL string) ([]wpPost, error) {
	doc, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer doc.Body.Close()

	body, err := io.ReadAll(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	var posts []wpPost
	if err := json.Unmarshal(body, &posts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", pageURL, err)
	}
	return posts, nil
}

func wpItems(posts []wpPost, src SourceConfig) []RawNewsItem {
	sourceName := src.Name
	if sourceName == "" {
		sourceName = src.ID
	}

	items := make([]RawNewsItem, 0, len(posts))
	for _, post := range posts {
		title := cleanTitle(HTMLToText(post.Title.Rendered))
		if title == "" || post.Link == "" {
			continue
		}
		items = append(items, RawNewsItem{
			Title:   title,
			URL:     CanonicalizeURL(post.Link),
			DateRaw: wpDate(post.Date),
			Source:  sourceName,
			Summary: HTMLToText(post.Excerpt.Rendered),
		})
	}
	return items
}

// wpDate turns the REST API's local timestamp into a plain date. Unknown
// formats are passed through for the normalizer to judge.
func wpDate(raw string) string {
	t, err := time.Parse("2006-01-02T15:04:05", raw)
	if err != nil {
		return raw
	}
	return t.Format("2006-01-02")
}
