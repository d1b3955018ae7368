// Package scan fans the review pipeline out over a project tree with a
// bounded worker pool and aggregates per-artifact results into an
// overall picture: mean score, worst artifacts, and the systemic
// findings worth fixing first.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/joescharf/cq/internal/analyzer"
	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/review"
)

// DefaultWorstN is how many lowest-scoring artifacts the aggregate lists.
const DefaultWorstN = 5

// topDescriptionCount is how many recurring descriptions the aggregate keeps.
const topDescriptionCount = 5

// skipDirs are directory names never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".idea":        true,
	".next":        true,
	".vscode":      true,
	"__pycache__":  true,
	"build":        true,
	"dist":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
}

// ArtifactScore pairs an artifact key with its score.
type ArtifactScore struct {
	ArtifactKey string `json:"artifact_key"`
	Score       int    `json:"score"`
}

// DescriptionCount is a finding description with its occurrence count
// across artifacts.
type DescriptionCount struct {
	Description string `json:"description"`
	Count       int    `json:"count"`
}

// Aggregate is the project-wide scan outcome.
type Aggregate struct {
	RootPath         string                 `json:"root_path"`
	OverallScore     int                    `json:"overall_score"`
	PerArtifactScore map[string]int         `json:"per_artifact_score"`
	Results          []*models.ReviewResult `json:"results"`
	CriticalIssues   []models.Issue         `json:"critical_issues"`
	Worst            []ArtifactScore        `json:"worst"`
	TopIssues        []DescriptionCount     `json:"top_issues"`
	TopSuggestions   []DescriptionCount     `json:"top_suggestions"`
	Recommendations  []string               `json:"recommendations"`
}

// Scanner walks a tree and reviews every recognized artifact.
type Scanner struct {
	engine *review.Engine

	// Workers bounds the pool; zero means runtime.NumCPU().
	Workers int
	// WorstN bounds the worst-artifact list; zero means DefaultWorstN.
	WorstN int
}

// New returns a Scanner over the given engine.
func New(engine *review.Engine) *Scanner {
	return &Scanner{engine: engine}
}

// Scan reviews every recognized file under root and aggregates the
// results. Cancellation is cooperative at per-artifact granularity:
// on ctx cancellation the aggregate of already-completed results is
// returned alongside ctx.Err(), and every included result is complete.
func (s *Scanner) Scan(ctx context.Context, root string, opts models.Options) (*Aggregate, error) {
	files, err := collectFiles(root)
	if err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(files) && len(files) > 0 {
		workers = len(files)
	}

	jobs := make(chan string)
	var mu sync.Mutex
	var results []*models.ReviewResult
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				result, err := s.engine.ReviewFile(ctx, path, opts)
				if err != nil {
					// Unreadable artifacts are skipped; the rest of the
					// scan proceeds.
					continue
				}
				mu.Lock()
				results = append(results, result)
				mu.Unlock()
			}
		}()
	}

	var scanErr error
feed:
	for _, path := range files {
		select {
		case <-ctx.Done():
			scanErr = ctx.Err()
			break feed
		case jobs <- path:
		}
	}
	close(jobs)
	wg.Wait()

	return buildAggregate(root, results, s.worstN()), scanErr
}

func (s *Scanner) worstN() int {
	if s.WorstN > 0 {
		return s.WorstN
	}
	return DefaultWorstN
}

// collectFiles walks the tree and returns recognized artifact paths in
// deterministic (lexical walk) order.
func collectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, review.ErrArtifactNotFound
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if analyzer.KnownExtension(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// buildAggregate reduces per-artifact results into the project view.
func buildAggregate(root string, results []*models.ReviewResult, worstN int) *Aggregate {
	sort.Slice(results, func(i, j int) bool {
		return results[i].ArtifactKey < results[j].ArtifactKey
	})

	agg := &Aggregate{
		RootPath:         root,
		PerArtifactScore: make(map[string]int, len(results)),
		Results:          results,
	}

	issueCounts := make(map[string]int)
	suggestionCounts := make(map[string]int)
	total := 0

	for _, r := range results {
		agg.PerArtifactScore[r.ArtifactKey] = r.Score
		total += r.Score
		agg.CriticalIssues = append(agg.CriticalIssues, r.CriticalIssues()...)
		for _, iss := range r.Issues {
			issueCounts[iss.Description]++
		}
		for _, s := range r.Suggestions {
			suggestionCounts[s.Description]++
		}
	}

	if len(results) > 0 {
		agg.OverallScore = int(math.Round(float64(total) / float64(len(results))))
	}

	worst := make([]ArtifactScore, 0, len(results))
	for _, r := range results {
		worst = append(worst, ArtifactScore{ArtifactKey: r.ArtifactKey, Score: r.Score})
	}
	sort.Slice(worst, func(i, j int) bool {
		if worst[i].Score != worst[j].Score {
			return worst[i].Score < worst[j].Score
		}
		return worst[i].ArtifactKey < worst[j].ArtifactKey
	})
	if len(worst) > worstN {
		worst = worst[:worstN]
	}
	agg.Worst = worst

	agg.TopIssues = topDescriptions(issueCounts)
	agg.TopSuggestions = topDescriptions(suggestionCounts)
	agg.Recommendations = recommendations(agg)
	return agg
}

// topDescriptions ranks descriptions by count, ties broken alphabetically.
func topDescriptions(counts map[string]int) []DescriptionCount {
	out := make([]DescriptionCount, 0, len(counts))
	for desc, n := range counts {
		if n > 1 {
			out = append(out, DescriptionCount{Description: desc, Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Description < out[j].Description
	})
	if len(out) > topDescriptionCount {
		out = out[:topDescriptionCount]
	}
	return out
}

// recommendations turns the systemic findings into prioritized fix
// guidance.
func recommendations(agg *Aggregate) []string {
	var recs []string
	if len(agg.CriticalIssues) > 0 {
		recs = append(recs, "Resolve all critical security issues before merging.")
	}
	for _, dc := range agg.TopIssues {
		recs = append(recs, fmt.Sprintf("Address recurring issue across %d artifacts: %s", dc.Count, dc.Description))
	}
	for _, dc := range agg.TopSuggestions {
		recs = append(recs, fmt.Sprintf("Consider project-wide improvement (%d artifacts): %s", dc.Count, dc.Description))
	}
	return recs
}
