// Package esa fetches acquisition-plan manifests from the mission operator's
// website: scraping plan pages for KML download URLs and downloading the
// files themselves.
package esa

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v5"
)

// Client talks to the acquisition-plan website.
type Client struct {
	siteBase   string
	httpClient *http.Client
	maxTries   uint
	logger     *slog.Logger
}

// NewClient creates a client. siteBase is the host used to resolve relative
// download hrefs, e.g. "https://sentinels.copernicus.eu".
func NewClient(siteBase string, timeout time.Duration) *Client {
	return &Client{
		siteBase: strings.TrimRight(siteBase, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxTries: 3,
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger for the client.
func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// ScrapeDownloadURLs fetches pageURL and extracts manifest download URLs
// from anchors under the div carrying the given CSS class. The fetch is
// retried with exponential backoff on transient failures.
func (c *Client) ScrapeDownloadURLs(ctx context.Context, pageURL, class string) ([]string, error) {
	body, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch plan page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse plan page: %w", err)
	}

	var urls []string
	doc.Find("div." + class + " a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		urls = append(urls, c.resolveHref(href))
	})

	c.logger.DebugContext(ctx, "scraped manifest URLs",
		slog.String("page", pageURL),
		slog.String("class", class),
		slog.Int("count", len(urls)),
	)

	return urls, nil
}

// Download fetches one manifest file.
func (c *Client) Download(ctx context.Context, fileURL string) ([]byte, error) {
	return c.get(ctx, fileURL)
}

// resolveHref repairs the malformed "https://sentinel/..." hrefs the plan
// pages sometimes emit, then resolves against the site base.
func (c *Client) resolveHref(href string) string {
	if strings.HasPrefix(href, "https://sentinel/") {
		href = strings.TrimPrefix(href, "https://sentinel")
	}
	base, err := url.Parse(c.siteBase)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// get performs a GET with a bounded retry policy: transient failures are
// retried with exponential backoff up to maxTries, client errors are not.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	fetch := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "nextpass/1.0")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.WarnContext(ctx, "manifest fetch failed, will retry",
				slog.String("url", rawURL),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("unexpected status %d from %s", resp.StatusCode, rawURL)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}

		return io.ReadAll(resp.Body)
	}

	return backoff.Retry(ctx, fetch,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
	)
}
