// Package analyzer orchestrates a phishing URL analysis: local
// validation, optional page snapshot, one model call, display
// classification of the indicators, and a broadcast of the result.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/guardview/guardview/internal/llm"
	"github.com/guardview/guardview/internal/logger"
	"github.com/guardview/guardview/internal/models"
)

var (
	// ErrEmptyURL is the local validation error; no remote call is made.
	ErrEmptyURL = errors.New("url must not be empty")

	// ErrAnalysisInFlight is returned while a previous analysis is
	// still running on this analyzer instance.
	ErrAnalysisInFlight = errors.New("analysis already in flight")

	// ErrMalformedVerdict marks a model reply that parsed as JSON but
	// violates the required shape. Callers treat it as the same
	// failure class as an unreachable service.
	ErrMalformedVerdict = errors.New("malformed verdict from model")
)

// VerdictFunc runs the model flow. Wrapping the Genkit flow in a plain
// function keeps the orchestration testable without a live model.
type VerdictFunc func(ctx context.Context, req *llm.AnalyzeRequest) (*models.PhishingVerdict, error)

// SnapshotFunc fetches a page snapshot for prompt enrichment.
type SnapshotFunc func(ctx context.Context, rawURL string) (*models.PageSnapshot, error)

// Broadcaster pushes completed results to connected dashboards.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// Analyzer runs one analysis at a time. The busy gate mirrors the
// dashboard disabling its trigger control while a request is in flight.
type Analyzer struct {
	run      VerdictFunc
	snapshot SnapshotFunc // nil when page context is disabled
	hub      Broadcaster  // nil when nothing listens
	log      *logger.Logger

	busy atomic.Bool
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithSnapshot enables prompt enrichment from a page snapshot fetcher.
func WithSnapshot(fn SnapshotFunc) Option {
	return func(a *Analyzer) { a.snapshot = fn }
}

// WithBroadcaster wires a hub that receives every completed result.
func WithBroadcaster(hub Broadcaster) Option {
	return func(a *Analyzer) { a.hub = hub }
}

// New creates an Analyzer around the given verdict function.
func New(run VerdictFunc, log *logger.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		run: run,
		log: log,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs one analysis for rawURL.
//
// An empty URL fails locally without touching the model. A second call
// while one is in flight fails with ErrAnalysisInFlight. Any remote or
// shape failure returns an error and no partial result. On success the
// verdict is mirrored exactly; only the display classification of each
// indicator is added.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*models.AnalysisResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	if !a.busy.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInFlight
	}
	defer a.busy.Store(false)

	req := &llm.AnalyzeRequest{URL: rawURL}

	if a.snapshot != nil {
		// Snapshot failures are non-fatal; the analysis proceeds on
		// the URL alone.
		page, err := a.snapshot(ctx, rawURL)
		if err != nil {
			a.log.Warn("page snapshot failed", logger.Str("url", rawURL), logger.Str("reason", err.Error()))
		} else {
			req.Page = page
		}
	}

	verdict, err := a.run(ctx, req)
	if err != nil {
		a.log.Error("analysis failed", err, logger.Str("url", rawURL))
		return nil, fmt.Errorf("analyze %s: %w", rawURL, err)
	}

	if !verdict.Confidence.Valid() {
		err := fmt.Errorf("%w: confidence %q", ErrMalformedVerdict, verdict.Confidence)
		a.log.Error("analysis failed", err, logger.Str("url", rawURL))
		return nil, err
	}

	result := &models.AnalysisResult{
		URL:        rawURL,
		Verdict:    *verdict,
		Indicators: ClassifyIndicators(verdict.Indicators),
		AnalyzedAt: time.Now().UTC(),
	}

	a.log.Info("analysis complete",
		logger.Str("url", rawURL),
		logger.Bool("phishing", verdict.IsPhishing),
		logger.Str("confidence", string(verdict.Confidence)),
		logger.Int("indicators", len(verdict.Indicators)),
	)

	if a.hub != nil {
		a.hub.Broadcast("analysis", result)
	}

	return result, nil
}

// Busy reports whether an analysis is currently in flight.
func (a *Analyzer) Busy() bool {
	return a.busy.Load()
}
