package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cq/internal/events"
	"github.com/joescharf/cq/internal/history"
	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/review"
	"github.com/joescharf/cq/internal/rules"
)

func newTestScanner() (*Scanner, *history.MemoryStore) {
	store := history.NewMemoryStore(0)
	engine := review.NewEngine(rules.NewCatalog(), store, events.NewBus())
	return New(engine), store
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestScan_AggregatesScores(t *testing.T) {
	s, _ := newTestScanner()
	// clean.js is issue-free (100), debug.js carries a low debug print
	// (98), evil.js a critical eval (80).
	root := writeProject(t, map[string]string{
		"clean.js": "const x = compute();\n",
		"debug.js": "console.log(\"x\");\n",
		"evil.js":  "eval(payload);\n",
	})

	agg, err := s.Scan(context.Background(), root, models.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, agg.Results, 3)
	assert.Equal(t, 93, agg.OverallScore, "round(278/3)")
	assert.Equal(t, root, agg.RootPath)

	assert.Equal(t, 100, agg.PerArtifactScore[filepath.Join(root, "clean.js")])
	assert.Equal(t, 98, agg.PerArtifactScore[filepath.Join(root, "debug.js")])
	assert.Equal(t, 80, agg.PerArtifactScore[filepath.Join(root, "evil.js")])
}

func TestScan_WorstSortedAscending(t *testing.T) {
	s, _ := newTestScanner()
	s.WorstN = 2
	root := writeProject(t, map[string]string{
		"clean.js": "const x = compute();\n",
		"debug.js": "console.log(\"x\");\n",
		"evil.js":  "eval(payload);\n",
	})

	agg, err := s.Scan(context.Background(), root, models.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, agg.Worst, 2)
	assert.Equal(t, filepath.Join(root, "evil.js"), agg.Worst[0].ArtifactKey)
	assert.Equal(t, 80, agg.Worst[0].Score)
	assert.Equal(t, filepath.Join(root, "debug.js"), agg.Worst[1].ArtifactKey)
}

func TestScan_CriticalRollupAndRecommendations(t *testing.T) {
	s, _ := newTestScanner()
	root := writeProject(t, map[string]string{
		"a.js": "eval(a);\n",
		"b.js": "eval(b);\n",
		"c.js": "const ok = 1;\n",
	})

	agg, err := s.Scan(context.Background(), root, models.DefaultOptions())
	require.NoError(t, err)

	assert.Len(t, agg.CriticalIssues, 2)

	require.NotEmpty(t, agg.TopIssues, "issue recurring across artifacts surfaces")
	assert.Equal(t, "Use of eval() with dynamic input", agg.TopIssues[0].Description)
	assert.Equal(t, 2, agg.TopIssues[0].Count)

	require.NotEmpty(t, agg.Recommendations)
	assert.Contains(t, agg.Recommendations[0], "critical")
}

func TestScan_SkipsUnrecognizedAndVendoredFiles(t *testing.T) {
	s, _ := newTestScanner()
	root := writeProject(t, map[string]string{
		"app.js":                  "const x = 1;\n",
		"logo.png":                "\x89PNG",
		"README":                  "prose\n",
		"node_modules/dep/ix.js":  "eval(x);\n",
		"vendor/lib.js":           "eval(x);\n",
	})

	agg, err := s.Scan(context.Background(), root, models.DefaultOptions())
	require.NoError(t, err)

	require.Len(t, agg.Results, 1)
	assert.Equal(t, filepath.Join(root, "app.js"), agg.Results[0].ArtifactKey)
}

func TestScan_SingleFileRoot(t *testing.T) {
	s, _ := newTestScanner()
	root := writeProject(t, map[string]string{"only.js": "console.log(1);\n"})
	path := filepath.Join(root, "only.js")

	agg, err := s.Scan(context.Background(), path, models.DefaultOptions())
	require.NoError(t, err)
	require.Len(t, agg.Results, 1)
	assert.Equal(t, 98, agg.OverallScore)
}

func TestScan_MissingRoot(t *testing.T) {
	s, _ := newTestScanner()

	_, err := s.Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), models.DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, review.ErrArtifactNotFound)
}

func TestScan_CancelledContext(t *testing.T) {
	s, _ := newTestScanner()
	root := writeProject(t, map[string]string{
		"a.js": "const a = 1;\n",
		"b.js": "const b = 2;\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg, err := s.Scan(ctx, root, models.DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, agg, "partial aggregate returned alongside the error")

	for _, r := range agg.Results {
		assert.NotEmpty(t, r.Summary, "included results are complete")
	}
}

func TestScan_WritesHistoryPerArtifact(t *testing.T) {
	s, store := newTestScanner()
	root := writeProject(t, map[string]string{
		"a.js": "const a = 1;\n",
		"b.js": "const b = 2;\n",
	})

	_, err := s.Scan(context.Background(), root, models.DefaultOptions())
	require.NoError(t, err)

	keys, err := store.Keys(context.Background())
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}

func TestScan_WorkersBounded(t *testing.T) {
	s, _ := newTestScanner()
	s.Workers = 1
	root := writeProject(t, map[string]string{
		"a.js": "const a = 1;\n",
		"b.js": "eval(b);\n",
		"c.js": "console.log(c);\n",
	})

	agg, err := s.Scan(context.Background(), root, models.DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, agg.Results, 3, "single worker still processes everything")
}
