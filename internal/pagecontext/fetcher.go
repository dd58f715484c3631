// Package pagecontext fetches a snapshot of the submitted URL's page to
// enrich the analysis prompt. It extracts facts only; it never scores
// or classifies anything itself.
package pagecontext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/guardview/guardview/internal/models"
)

const defaultMaxBodyBytes = 1 << 20

// Fetcher downloads a page and extracts a snapshot from its HTML.
type Fetcher struct {
	client       *http.Client
	maxBodyBytes int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) { f.client = client }
}

// WithMaxBodyBytes caps how much of the response body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodyBytes = n
		}
	}
}

// NewFetcher creates a fetcher with the given timeout.
func NewFetcher(timeout time.Duration, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:       &http.Client{Timeout: timeout},
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads rawURL and extracts a snapshot from the HTML.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.PageSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build page request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch page: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("fetch page: not HTML (%s)", ct)
	}

	body := io.LimitReader(resp.Body, f.maxBodyBytes)
	return Extract(body, rawURL)
}

// Extract parses HTML and pulls out the snapshot facts.
func Extract(r io.Reader, baseURL string) (*models.PageSnapshot, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	snapshot := &models.PageSnapshot{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}

	doc.Find("form").Each(func(_ int, s *goquery.Selection) {
		action, _ := s.Attr("action")
		method, _ := s.Attr("method")
		if method == "" {
			method = "GET"
		}

		hasPassword := s.Find(`input[type="password"]`).Length() > 0

		snapshot.Forms = append(snapshot.Forms, models.FormSummary{
			Action:           action,
			Method:           strings.ToUpper(method),
			HasPasswordField: hasPassword,
		})
	})

	snapshot.LinkHosts = externalHosts(doc, baseURL)
	return snapshot, nil
}

// externalHosts collects distinct hosts linked from the page that differ
// from the page's own host.
func externalHosts(doc *goquery.Document, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, err := url.Parse(href)
		if err != nil || link.Host == "" || link.Host == base.Host {
			return
		}
		seen[link.Host] = struct{}{}
	})

	if len(seen) == 0 {
		return nil
	}
	hosts := make([]string, 0, len(seen))
	for host := range seen {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}
