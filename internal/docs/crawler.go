package docs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// crawlerUserAgent identifies the ingest crawler to the documentation sites.
const crawlerUserAgent = "docschat-ingest/1.0 (+https://github.com/Kuldeep8080-fg/langchain-chatbot)"

// CrawlerConfig controls fetch politeness.
type CrawlerConfig struct {
	Parallelism int           // concurrent requests per domain
	Delay       time.Duration // delay between requests to one domain
	Timeout     time.Duration // per-request timeout
}

// Crawler fetches documentation pages and extracts their readable text.
type Crawler struct {
	cfg    CrawlerConfig
	logger *slog.Logger
}

// NewCrawler creates a Crawler. Zero config values get conservative
// defaults: 2 parallel requests, 1s delay, 30s timeout.
func NewCrawler(cfg CrawlerConfig, logger *slog.Logger) *Crawler {
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 2
	}
	if cfg.Delay <= 0 {
		cfg.Delay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{cfg: cfg, logger: logger}
}

// Fetch downloads every source and returns the extracted pages. Failed
// pages are logged and skipped; the error is non-nil only when nothing at
// all could be fetched.
func (c *Crawler) Fetch(ctx context.Context, sources []Source) ([]Page, error) {
	if len(sources) == 0 {
		return nil, nil
	}

	frameworkByURL := make(map[string]string, len(sources))
	for _, src := range sources {
		frameworkByURL[src.URL] = src.Framework
	}

	collector := colly.NewCollector(
		colly.UserAgent(crawlerUserAgent),
		colly.Async(true),
	)
	collector.SetRequestTimeout(c.cfg.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.cfg.Parallelism,
		Delay:       c.cfg.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configuring rate limit: %w", err)
	}

	var (
		mu     sync.Mutex
		pages  []Page
		failed int
	)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	collector.OnResponse(func(r *colly.Response) {
		// Redirects land on a different URL than the one requested
		requested := r.Ctx.Get("source_url")
		framework := frameworkByURL[requested]

		title, text, err := ExtractContent(r.Body, r.Request.URL)
		if err != nil {
			c.logger.Warn("failed to extract page", "url", requested, "error", err)
			mu.Lock()
			failed++
			mu.Unlock()
			return
		}

		mu.Lock()
		pages = append(pages, Page{
			URL:       requested,
			Framework: framework,
			Title:     title,
			Text:      text,
		})
		mu.Unlock()

		c.logger.Debug("fetched page",
			"url", requested, "title", title, "bytes", len(r.Body))
	})

	collector.OnError(func(r *colly.Response, err error) {
		mu.Lock()
		failed++
		mu.Unlock()
		c.logger.Warn("failed to fetch page",
			"url", r.Request.URL, "status", r.StatusCode, "error", err)
	})

	for _, src := range sources {
		reqCtx := colly.NewContext()
		reqCtx.Put("source_url", src.URL)
		if err := collector.Request("GET", src.URL, nil, reqCtx, nil); err != nil {
			c.logger.Warn("failed to enqueue page", "url", src.URL, "error", err)
			mu.Lock()
			failed++
			mu.Unlock()
		}
	}
	collector.Wait()

	if err := ctx.Err(); err != nil {
		return pages, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("all %d pages failed to fetch", len(sources))
	}

	c.logger.Info("crawl finished", "fetched", len(pages), "failed", failed)
	return pages, nil
}
