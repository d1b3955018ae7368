// Package events carries engine notifications to external collaborators
// such as fix agents and alerting. Payloads are copies of
// already-published review data; a subscriber can never reach back into
// engine state. Publishing never blocks: a subscriber that falls behind
// misses events rather than stalling the review pipeline.
package events

import (
	"sync"

	"github.com/joescharf/cq/internal/models"
)

// subscriberBuffer is the channel capacity handed to each subscriber.
const subscriberBuffer = 16

// ReviewCompleted fires after every finished review.
type ReviewCompleted struct {
	ArtifactKey string `json:"artifact_key"`
	Score       int    `json:"score"`
	Approved    bool   `json:"approved"`
}

// CriticalIssueFound fires when a review produced critical issues.
type CriticalIssueFound struct {
	ArtifactKey string         `json:"artifact_key"`
	Issues      []models.Issue `json:"issues"`
}

// PerformanceSuggestionsAvailable fires when a review produced
// performance-category suggestions.
type PerformanceSuggestionsAvailable struct {
	ArtifactKey string              `json:"artifact_key"`
	Suggestions []models.Suggestion `json:"suggestions"`
}

// Bus fans review events out to subscribers. The zero value is not
// usable; create one with NewBus. A nil *Bus is a valid no-op publisher.
type Bus struct {
	mu              sync.RWMutex
	reviewSubs      []chan ReviewCompleted
	criticalSubs    []chan CriticalIssueFound
	performanceSubs []chan PerformanceSuggestionsAvailable
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

// SubscribeReviewCompleted returns a channel receiving review-completed
// events. The channel is buffered; events beyond the buffer are dropped
// for this subscriber.
func (b *Bus) SubscribeReviewCompleted() <-chan ReviewCompleted {
	ch := make(chan ReviewCompleted, subscriberBuffer)
	b.mu.Lock()
	b.reviewSubs = append(b.reviewSubs, ch)
	b.mu.Unlock()
	return ch
}

// SubscribeCriticalIssues returns a channel receiving
// critical-issue-found events.
func (b *Bus) SubscribeCriticalIssues() <-chan CriticalIssueFound {
	ch := make(chan CriticalIssueFound, subscriberBuffer)
	b.mu.Lock()
	b.criticalSubs = append(b.criticalSubs, ch)
	b.mu.Unlock()
	return ch
}

// SubscribePerformanceSuggestions returns a channel receiving
// performance-suggestions-available events.
func (b *Bus) SubscribePerformanceSuggestions() <-chan PerformanceSuggestionsAvailable {
	ch := make(chan PerformanceSuggestionsAvailable, subscriberBuffer)
	b.mu.Lock()
	b.performanceSubs = append(b.performanceSubs, ch)
	b.mu.Unlock()
	return ch
}

// PublishResult emits the events a finished review warrants:
// review-completed always, critical-issue-found when critical issues
// exist, performance-suggestions-available when performance suggestions
// exist. Calling on a nil Bus is a no-op.
func (b *Bus) PublishResult(result *models.ReviewResult) {
	if b == nil {
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.reviewSubs {
		select {
		case ch <- ReviewCompleted{ArtifactKey: result.ArtifactKey, Score: result.Score, Approved: result.Approved}:
		default:
		}
	}

	if critical := result.CriticalIssues(); len(critical) > 0 {
		for _, ch := range b.criticalSubs {
			select {
			case ch <- CriticalIssueFound{ArtifactKey: result.ArtifactKey, Issues: critical}:
			default:
			}
		}
	}

	var perf []models.Suggestion
	for _, s := range result.Suggestions {
		if s.Category == models.CategoryPerformance {
			perf = append(perf, s)
		}
	}
	if len(perf) > 0 {
		for _, ch := range b.performanceSubs {
			select {
			case ch <- PerformanceSuggestionsAvailable{ArtifactKey: result.ArtifactKey, Suggestions: perf}:
			default:
			}
		}
	}
}
