package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MockFetcher serves canned bodies keyed by URL.
type MockFetcher struct {
	Data map[string][]byte
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (*FetchedDocument, error) {
	content, ok := m.Data[url]
	if !ok {
		return nil, fmt.Errorf("mock 404: %s", url)
	}
	return &FetchedDocument{
		URL:        url,
		StatusCode: 200,
		Body:       io.NopCloser(bytes.NewReader(content)),
		Headers:    make(http.Header),
		FetchedAt:  time.Date(2025, 7, 9, 12, 0, 0, 0, time.UTC),
	}, nil
}

const capitalListing = `<html><body>
<div class="article snip">
  <h2 class="bold"><a href="/epikairotita/123/fpa?utm_source=fb">  ΦΠΑ: Νέος νόμος </a></h2>
  <span class="date">09/07</span><span class="time">12:26</span>
</div>
<div class="article snip">
  <h2 class="bold"><a href="https://www.capital.gr/oikonomia/456">ΕΣΠΑ: νέα επιδότηση για επιχειρήσεις</a></h2>
  <span class="date">08/07</span>
</div>
<div class="article snip">
  <h2 class="bold"><a href="/epikairotita/789">Χωρίς ημερομηνία</a></h2>
</div>
<div class="article snip">
  <h2 class="bold"><a href="/epikairotita/790"></a></h2>
  <span class="date">08/07</span>
</div>
</body></html>`

const economyFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>Οικονομία</title>
<link>https://www.kathimerini.gr/economy/</link>
<item>
  <title>Νέα ρύθμιση για οφειλές</title>
  <link>https://www.kathimerini.gr/economy/111/rythmisi/?utm_medium=rss</link>
  <pubDate>Wed, 09 Jul 2025 10:00:00 +0300</pubDate>
  <description><![CDATA[<p>Νέα <b>ρύθμιση</b> για οφειλές</p>]]></description>
</item>
<item>
  <title>Χωρίς ημερομηνία</title>
  <link>https://www.kathimerini.gr/economy/222/</link>
</item>
<item>
  <title></title>
  <link>https://www.kathimerini.gr/economy/333/</link>
</item>
</channel></rss>`

func capitalSource() SourceConfig {
	return SourceConfig{
		ID:       "capital",
		Name:     "Capital.gr",
		Strategy: "html_listing",
		BaseURL:  "https://www.capital.gr/epikairotita",
		Active:   true,
		Selectors: SelectorConfig{
			Container:   "div.article.snip",
			Title:       "h2.bold a",
			Link:        "h2.bold a",
			Date:        "span.date",
			Time:        "span.time",
			DefaultTime: "00:00",
		},
	}
}

func feedSource() SourceConfig {
	return SourceConfig{
		ID:       "kathimerini",
		Name:     "Καθημερινή",
		Strategy: "rss",
		BaseURL:  "https://www.kathimerini.gr/economy/feed/",
		Active:   true,
	}
}
