package events

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event kinds written by the JSONL emitter.
const (
	KindReviewCompleted        = "review_completed"
	KindCriticalIssueFound     = "critical_issue_found"
	KindPerformanceSuggestions = "performance_suggestions"
)

// Record is a single JSONL audit entry.
type Record struct {
	Timestamp   time.Time `json:"ts"`
	Kind        string    `json:"kind"`
	ArtifactKey string    `json:"artifact_key"`
	Data        any       `json:"data,omitempty"`
}

// Emitter appends review events to a JSONL file so runs are auditable
// after the fact. It is safe for concurrent use. A nil *Emitter is a
// valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewEmitter opens (or creates) the JSONL file at path for appending.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("events: open %s: %w", path, err)
	}
	return &Emitter{file: f, enc: json.NewEncoder(f)}, nil
}

// Emit writes a single record. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(rec Record) error {
	if e == nil {
		return nil
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(rec); err != nil {
		return fmt.Errorf("events: encode record: %w", err)
	}
	return nil
}

// Close closes the underlying file. Calling Close on a nil Emitter is a
// no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("events: close: %w", err)
	}
	return nil
}
