package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements Fetcher using Colly. It honours robots.txt,
// delays between requests to the same domain and retries failed requests.
type CollyFetcher struct {
	UserAgent         string
	MaxRetries        int
	RequestTimeout    time.Duration
	DomainDelay       time.Duration
	RandomDelayFactor float64
	IgnoreRobotsTxt   bool
	MaxBodySize       int // bytes, 0 = unlimited
	Log               *slog.Logger
}

// NewCollyFetcher creates a CollyFetcher from cfg; zero fields get defaults.
func NewCollyFetcher(cfg FetchConfig, log *slog.Logger) *CollyFetcher {
	f := &CollyFetcher{
		UserAgent:         defaultUserAgent,
		MaxRetries:        3,
		RequestTimeout:    30 * time.Second,
		DomainDelay:       1 * time.Second,
		RandomDelayFactor: 0.5,
		MaxBodySize:       10 * 1024 * 1024,
		Log:               log,
	}
	if cfg.TimeoutSeconds > 0 {
		f.RequestTimeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RateLimitRPS > 0 {
		f.DomainDelay = time.Duration(float64(time.Second) / cfg.RateLimitRPS)
	}
	if cfg.MaxRetries > 0 {
		f.MaxRetries = cfg.MaxRetries
	}
	return f
}

func (f *CollyFetcher) buildCollector(ctx context.Context, host string) *colly.Collector {
	opts := []colly.CollectorOption{
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
		colly.AllowedDomains(host),
		colly.StdlibContext(ctx),
	}
	if f.IgnoreRobotsTxt {
		opts = append(opts, colly.IgnoreRobotsTxt())
	}

	c := colly.NewCollector(opts...)
	_ = c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       f.DomainDelay,
		RandomDelay: time.Duration(float64(f.DomainDelay) * f.RandomDelayFactor),
	})
	c.SetRequestTimeout(f.RequestTimeout)
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept-Language", defaultAcceptLanguage)
	})
	return c
}

// Fetch implements the Fetcher interface, returning a FetchedDocument.
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	parsed, err := url.Parse(targetURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", targetURL)
	}

	c := f.buildCollector(ctx, parsed.Host)

	var result *FetchedDocument
	var fetchErr error

	c.OnResponse(func(r *colly.Response) {
		result = &FetchedDocument{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        io.NopCloser(bytes.NewReader(r.Body)),
			FetchedAt:   time.Now(),
			Headers:     map[string][]string(r.Headers.Clone()),
		}
		fetchErr = nil
	})

	c.OnError(func(r *colly.Response, err error) {
		retries, _ := r.Request.Ctx.GetAny("retries").(int)
		if retries < f.MaxRetries && ctx.Err() == nil {
			r.Request.Ctx.Put("retries", retries+1)
			if f.Log != nil {
				f.Log.Debug("colly retry", "attempt", retries+1, "url", r.Request.URL.String(), "err", err)
			}
			time.Sleep(time.Duration(retries+1) * time.Second)
			if retryErr := r.Request.Retry(); retryErr == nil {
				return
			}
		}
		fetchErr = fmt.Errorf("fetch failed after %d retries: %w", retries, err)
	})

	visitErr := c.Visit(targetURL)
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	if fetchErr != nil {
		return nil, fetchErr
	}
	if visitErr != nil {
		return nil, fmt.Errorf("visit failed: %w", visitErr)
	}
	return nil, fmt.Errorf("no response received for %s", targetURL)
}
