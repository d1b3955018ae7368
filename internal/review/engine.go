// Package review assembles the analysis pipeline: text in, scored and
// persisted ReviewResult out, events published on the way.
package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joescharf/cq/internal/analyzer"
	"github.com/joescharf/cq/internal/compare"
	"github.com/joescharf/cq/internal/events"
	"github.com/joescharf/cq/internal/history"
	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/rules"
	"github.com/joescharf/cq/internal/scorer"
)

// ErrArtifactNotFound marks an artifact whose text could not be read.
// No history entry is written for such artifacts.
var ErrArtifactNotFound = errors.New("artifact not found")

// Engine runs reviews end to end. Analyze and score are pure; the
// engine's only state lives in the history store, so concurrent reviews
// of different artifacts are fully independent.
type Engine struct {
	analyzer *analyzer.Analyzer
	store    history.Store
	bus      *events.Bus
	emitter  *events.Emitter
}

// NewEngine wires a review engine. store, bus, and emitter may each be
// nil: a nil store skips persistence, nil bus and emitter skip
// notification.
func NewEngine(catalog *rules.Catalog, store history.Store, bus *events.Bus) *Engine {
	return &Engine{
		analyzer: analyzer.New(catalog),
		store:    store,
		bus:      bus,
	}
}

// SetWarnf routes non-fatal analyzer diagnostics (such as skipped
// custom rules) to the given function.
func (e *Engine) SetWarnf(fn func(format string, args ...any)) {
	e.analyzer.Warnf = fn
}

// SetEmitter attaches a JSONL audit emitter.
func (e *Engine) SetEmitter(em *events.Emitter) { e.emitter = em }

// Review analyzes and scores the text, appends the result to history,
// and publishes events. The returned result is complete before any of
// that happens; a caller never observes a partially built result.
func (e *Engine) Review(ctx context.Context, text, artifactKey string, opts models.Options) (*models.ReviewResult, error) {
	issues, suggestions := e.analyzer.Analyze(text, artifactKey, opts)
	scored := scorer.Score(issues, suggestions, opts)

	result := &models.ReviewResult{
		ArtifactKey: artifactKey,
		Issues:      issues,
		Suggestions: suggestions,
		Score:       scored.Score,
		Approved:    scored.Approved,
		Summary:     scored.Summary,
		Timestamp:   time.Now().UTC(),
	}

	if e.store != nil {
		if err := e.store.Append(ctx, artifactKey, result); err != nil {
			return nil, fmt.Errorf("append history: %w", err)
		}
	}

	e.publish(result)
	return result, nil
}

// ReviewAndCompare reviews the text and diffs the new result against
// the previous stored run, when one exists. The comparison is nil for
// an artifact's first review.
func (e *Engine) ReviewAndCompare(ctx context.Context, text, artifactKey string, opts models.Options) (*models.ReviewResult, *models.Comparison, error) {
	var prev *models.ReviewResult
	if e.store != nil {
		var err error
		prev, err = e.store.Latest(ctx, artifactKey)
		if err != nil {
			return nil, nil, fmt.Errorf("load previous result: %w", err)
		}
	}

	result, err := e.Review(ctx, text, artifactKey, opts)
	if err != nil {
		return nil, nil, err
	}

	if prev == nil {
		return result, nil, nil
	}
	cmp := compare.Compare(prev, result)
	return result, &cmp, nil
}

// ReviewFile reads the artifact from disk and reviews it. An unreadable
// path surfaces ErrArtifactNotFound and leaves history untouched.
func (e *Engine) ReviewFile(ctx context.Context, path string, opts models.Options) (*models.ReviewResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactNotFound, path, err)
	}
	return e.Review(ctx, string(data), path, opts)
}

// Store exposes the engine's history store for read paths (history and
// comparison commands).
func (e *Engine) Store() history.Store { return e.store }

func (e *Engine) publish(result *models.ReviewResult) {
	e.bus.PublishResult(result)

	if e.emitter == nil {
		return
	}
	_ = e.emitter.Emit(events.Record{
		Kind:        events.KindReviewCompleted,
		ArtifactKey: result.ArtifactKey,
		Data:        map[string]any{"score": result.Score, "approved": result.Approved},
	})
	if critical := result.CriticalIssues(); len(critical) > 0 {
		_ = e.emitter.Emit(events.Record{
			Kind:        events.KindCriticalIssueFound,
			ArtifactKey: result.ArtifactKey,
			Data:        critical,
		})
	}
	var perf []models.Suggestion
	for _, s := range result.Suggestions {
		if s.Category == models.CategoryPerformance {
			perf = append(perf, s)
		}
	}
	if len(perf) > 0 {
		_ = e.emitter.Emit(events.Record{
			Kind:        events.KindPerformanceSuggestions,
			ArtifactKey: result.ArtifactKey,
			Data:        perf,
		})
	}
}
