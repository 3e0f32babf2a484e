// Package extract fetches forum board and thread pages and pulls out the
// pieces the scan engine matches against.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

// ThreadMeta carries the header fields shown in a notification.
type ThreadMeta struct {
	Title  string
	Author string
}

// ThreadDocument is one fetched thread page, reduced to what matching needs.
type ThreadDocument struct {
	URL        string
	StatusCode int
	BodyText   string
	Fields     map[string][]string
	Meta       ThreadMeta
}

// Selectors names the structured fields to pull from a thread page.
type Selectors struct {
	Primary string
	Closed  string
}

// Extractor is what the scan engine needs from the forum.
type Extractor interface {
	ListThreadURLs(ctx context.Context, boardURL string) ([]string, error)
	FetchThread(ctx context.Context, threadURL string, sel Selectors) (*ThreadDocument, error)
}

// HTTPExtractor fetches pages over plain HTTP with retries.
type HTTPExtractor struct {
	client   *http.Client
	logger   *zap.Logger
	attempts uint
}

func NewHTTPExtractor(client *http.Client, attempts int, logger *zap.Logger) *HTTPExtractor {
	if attempts < 1 {
		attempts = 1
	}
	return &HTTPExtractor{
		client:   client,
		logger:   logger,
		attempts: uint(attempts),
	}
}

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var errUnexpectedStatus = errors.New("unexpected status")

// ListThreadURLs fetches a board index page and returns the absolute URLs
// of the threads it links to.
func (e *HTTPExtractor) ListThreadURLs(ctx context.Context, boardURL string) ([]string, error) {
	doc, _, err := e.fetch(ctx, boardURL)
	if err != nil {
		return nil, fmt.Errorf("fetch board %s: %w", boardURL, err)
	}

	base, err := url.Parse(boardURL)
	if err != nil {
		return nil, fmt.Errorf("parse board url: %w", err)
	}

	seen := make(map[string]bool)
	var threads []string
	doc.Find(`a[href^="/threads/"], a[href*="/threads/"]`).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		abs.Fragment = ""
		abs.RawQuery = ""
		u := abs.String()
		if !strings.Contains(u, "/threads/") {
			return
		}
		if !seen[u] {
			seen[u] = true
			threads = append(threads, u)
		}
	})

	e.logger.Debug("Board listing parsed",
		zap.String("board", boardURL),
		zap.Int("threads", len(threads)),
	)
	return threads, nil
}

// FetchThread downloads one thread page. Non-200 responses are returned
// as a document carrying the status code, not as an error, so the caller
// can record the thread as seen.
func (e *HTTPExtractor) FetchThread(ctx context.Context, threadURL string, sel Selectors) (*ThreadDocument, error) {
	doc, status, err := e.fetch(ctx, threadURL)
	if err != nil {
		if errors.Is(err, errUnexpectedStatus) {
			return &ThreadDocument{URL: threadURL, StatusCode: status}, nil
		}
		return nil, fmt.Errorf("fetch thread %s: %w", threadURL, err)
	}

	td := &ThreadDocument{
		URL:        threadURL,
		StatusCode: status,
		BodyText:   doc.Find("body").Text(),
		Fields:     make(map[string][]string),
	}

	td.Meta.Title = strings.TrimSpace(doc.Find(".p-title-value").First().Text())
	td.Meta.Author = strings.TrimSpace(doc.Find(".p-description .username").First().Text())

	for name, selector := range map[string]string{"primary": sel.Primary, "closed": sel.Closed} {
		if selector == "" {
			continue
		}
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			if v := strings.TrimSpace(s.Text()); v != "" {
				td.Fields[name] = append(td.Fields[name], v)
			}
		})
	}

	return td, nil
}

// fetch GETs a page with retries on transport errors and 5xx responses.
// Other non-200 statuses stop immediately and report errUnexpectedStatus.
func (e *HTTPExtractor) fetch(ctx context.Context, pageURL string) (*goquery.Document, int, error) {
	var doc *goquery.Document
	var status int

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("create request: %w", err))
			}
			req.Header.Set("User-Agent", userAgent)
			req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
			req.Header.Set("Accept-Language", "en-US,en;q=0.9")

			start := time.Now()
			resp, err := e.client.Do(req)
			if err != nil {
				e.logger.Warn("HTTP request failed, will retry",
					zap.String("url", pageURL),
					zap.Duration("duration", time.Since(start)),
					zap.Error(err),
				)
				return err
			}
			defer resp.Body.Close()

			status = resp.StatusCode
			if resp.StatusCode >= 500 {
				return fmt.Errorf("HTTP %d: %w", resp.StatusCode, errUnexpectedStatus)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Unrecoverable(fmt.Errorf("HTTP %d: %w", resp.StatusCode, errUnexpectedStatus))
			}

			doc, err = goquery.NewDocumentFromReader(resp.Body)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("parse html: %w", err))
			}
			return nil
		},
		retry.Attempts(e.attempts),
		retry.Delay(time.Second),
		retry.MaxDelay(30*time.Second),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			e.logger.Info("Retrying fetch", zap.Uint("attempt", n), zap.String("url", pageURL), zap.Error(err))
		}),
	)
	if err != nil {
		return nil, status, err
	}
	return doc, status, nil
}
