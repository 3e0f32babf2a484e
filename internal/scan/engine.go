package scan

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"forumwatch/config"
	"forumwatch/internal/extract"
	"forumwatch/internal/metrics"
	"forumwatch/internal/model"
	"forumwatch/internal/notify"
)

// TargetSnapshot loads the roster a pass matches against. Loaded once
// per pass so every thread in the pass sees the same targets.
type TargetSnapshot interface {
	Snapshot(ctx context.Context, kind model.TargetKind, category model.Category) ([]model.WatchTarget, error)
}

// ScanLedger is the durable record of which threads were processed.
type ScanLedger interface {
	IsScanned(ctx context.Context, threadURL string) (bool, error)
	MarkScanned(ctx context.Context, threadURL, note string) error
}

// Dispatcher fans a thread's hits out to the transports.
type Dispatcher interface {
	Dispatch(ctx context.Context, hits []notify.Hit)
}

// Engine runs one feed pass at a time: list the board, skip what the
// ledger says was handled, match the rest, notify, then mark.
type Engine struct {
	extractor extract.Extractor
	targets   TargetSnapshot
	ledger    ScanLedger
	router    Dispatcher
	logger    *zap.Logger

	blockedMarkers  []string
	excludePatterns []string

	scanned atomic.Int64
}

func NewEngine(
	extractor extract.Extractor,
	targets TargetSnapshot,
	ledger ScanLedger,
	router Dispatcher,
	blockedMarkers, excludePatterns []string,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		extractor:       extractor,
		targets:         targets,
		ledger:          ledger,
		router:          router,
		blockedMarkers:  blockedMarkers,
		excludePatterns: excludePatterns,
		logger:          logger,
	}
}

// TakeScanned drains the count of threads processed since the last call.
func (e *Engine) TakeScanned() int64 {
	return e.scanned.Swap(0)
}

// RunFeed executes one pass over a feed. A listing or roster failure
// aborts the pass; a single bad thread is logged and skipped.
func (e *Engine) RunFeed(ctx context.Context, feed config.Feed) error {
	start := time.Now()
	defer func() {
		metrics.ScanDuration.WithLabelValues(feed.Name).Observe(time.Since(start).Seconds())
	}()

	urls, err := e.extractor.ListThreadURLs(ctx, feed.BoardURL)
	if err != nil {
		return fmt.Errorf("list %s: %w", feed.Name, err)
	}
	urls = e.filterThreadURLs(urls)

	targets, err := e.targets.Snapshot(ctx, model.TargetKind(feed.Kind), model.Category(feed.Category))
	if err != nil {
		return fmt.Errorf("load targets for %s: %w", feed.Name, err)
	}

	e.logger.Debug("Feed pass starting",
		zap.String("feed", feed.Name),
		zap.Int("threads", len(urls)),
		zap.Int("targets", len(targets)),
	)

	for _, threadURL := range urls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := e.processThread(ctx, feed, threadURL, targets); err != nil {
			metrics.ScanErrors.WithLabelValues(feed.Name).Inc()
			e.logger.Warn("Thread scan failed",
				zap.String("feed", feed.Name),
				zap.String("thread", threadURL),
				zap.Error(err),
			)
		}
	}
	return nil
}

func (e *Engine) processThread(ctx context.Context, feed config.Feed, threadURL string, targets []model.WatchTarget) error {
	scanned, err := e.ledger.IsScanned(ctx, threadURL)
	if err != nil {
		return fmt.Errorf("ledger check: %w", err)
	}
	if scanned {
		return nil
	}

	doc, err := e.extractor.FetchThread(ctx, threadURL, extract.Selectors{
		Primary: feed.PrimarySelector,
		Closed:  feed.ClosedSelector,
	})
	if err != nil {
		// The thread stays marked so one broken page cannot wedge the
		// feed into refetching it forever.
		if markErr := e.ledger.MarkScanned(ctx, threadURL, "fetch error"); markErr != nil {
			return fmt.Errorf("mark after fetch error: %w", markErr)
		}
		e.countScanned(feed)
		return fmt.Errorf("fetch: %w", err)
	}

	if doc.StatusCode != 200 {
		if err := e.ledger.MarkScanned(ctx, threadURL, fmt.Sprintf("http %d", doc.StatusCode)); err != nil {
			return fmt.Errorf("mark non-ok thread: %w", err)
		}
		e.countScanned(feed)
		return nil
	}

	if marker := e.blockedMarker(doc.BodyText); marker != "" {
		if err := e.ledger.MarkScanned(ctx, threadURL, "blocked: "+marker); err != nil {
			return fmt.Errorf("mark blocked thread: %w", err)
		}
		e.countScanned(feed)
		return nil
	}

	hits := matchThread(feed, doc, targets)
	if len(hits) > 0 {
		e.logger.Info("Thread matched",
			zap.String("feed", feed.Name),
			zap.String("thread", threadURL),
			zap.Int("hits", len(hits)),
		)
		e.router.Dispatch(ctx, hits)
	}

	// Marking is the last step so a crash mid-thread retries the whole
	// thread instead of silently dropping its notifications.
	if err := e.ledger.MarkScanned(ctx, threadURL, ""); err != nil {
		return fmt.Errorf("mark scanned: %w", err)
	}
	e.countScanned(feed)
	return nil
}

func (e *Engine) countScanned(feed config.Feed) {
	e.scanned.Add(1)
	metrics.ThreadsScanned.WithLabelValues(feed.Name).Inc()
}

func (e *Engine) blockedMarker(body string) string {
	for _, marker := range e.blockedMarkers {
		if strings.Contains(body, marker) {
			return marker
		}
	}
	return ""
}

// filterThreadURLs drops pagination links, unread shortcuts and the
// pinned threads the exclude patterns name.
func (e *Engine) filterThreadURLs(urls []string) []string {
	var out []string
	for _, u := range urls {
		if strings.Contains(u, "/page-") || strings.HasSuffix(u, "/latest") || strings.HasSuffix(u, "/unread") {
			continue
		}
		excluded := false
		for _, pat := range e.excludePatterns {
			if strings.Contains(u, pat) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, u)
		}
	}
	return out
}

// threadOpen reports whether the thread URL still has its canonical
// trailing slash. The forum strips it on closed or edited threads.
func threadOpen(threadURL string) bool {
	return strings.HasSuffix(threadURL, "/")
}

func matchThread(feed config.Feed, doc *extract.ThreadDocument, targets []model.WatchTarget) []notify.Hit {
	open := threadOpen(doc.URL)

	var hits []notify.Hit
	for _, t := range targets {
		// A target can match both fields; each match becomes its own hit
		// so the router can filter per field.
		if matchField(doc.Fields["primary"], t) {
			hits = append(hits, newHit(feed, doc, t, true, open))
		}
		// The closed-section field only carries data once the forum
		// strips the trailing slash.
		if !open && matchField(doc.Fields["closed"], t) {
			hits = append(hits, newHit(feed, doc, t, false, open))
		}
	}
	return hits
}

func newHit(feed config.Feed, doc *extract.ThreadDocument, t model.WatchTarget, fromStatic, open bool) notify.Hit {
	return notify.Hit{
		Feed:       feed.Name,
		Category:   string(t.Category),
		Kind:       string(t.Kind),
		Value:      t.Value,
		OwnerID:    t.OwnerID,
		ThreadURL:  doc.URL,
		Title:      doc.Meta.Title,
		Author:     doc.Meta.Author,
		FromStatic: fromStatic,
		ThreadOpen: open,
	}
}

func matchField(values []string, t model.WatchTarget) bool {
	for _, v := range values {
		switch t.Kind {
		case model.KindPlayerID:
			if MatchPlayerID(v, t.Value) {
				return true
			}
		case model.KindAdminName:
			if MatchAdminName(v, t.Value) {
				return true
			}
		}
	}
	return false
}
