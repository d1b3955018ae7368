package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/cq/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath, 0)
	require.NoError(t, err)

	err = s.Migrate(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "subdir", "test.db")

	s, err := NewSQLiteStore(dbPath, 0)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(filepath.Join(dir, "subdir"))
	assert.NoError(t, err, "should create parent directory")
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStore(t)

	// Running migrate again should be a no-op
	err := s.Migrate(context.Background())
	assert.NoError(t, err)
}

func TestSQLiteStore_AppendAndLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	latest, err := s.Latest(ctx, "a.js")
	require.NoError(t, err)
	assert.Nil(t, latest)

	r := result("a.js", 85)
	r.Issues = []models.Issue{{
		Severity:       models.SeverityMedium,
		Description:    "Image without alternative text",
		Location:       &models.Location{Line: 4, Column: 2},
		Recommendation: "Add an alt attribute.",
	}}
	r.Suggestions = []models.Suggestion{{
		Category:    models.CategoryPerformance,
		Description: "DOM query inside a loop",
		Benefit:     "Query once before the loop.",
	}}
	require.NoError(t, s.Append(ctx, "a.js", r))
	assert.NotEmpty(t, r.ID)

	got, err := s.Latest(ctx, "a.js")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, r.ID, got.ID)
	assert.Equal(t, 85, got.Score)
	assert.True(t, got.Approved)

	// Issues and suggestions round-trip through JSON columns.
	require.Len(t, got.Issues, 1)
	assert.Equal(t, models.SeverityMedium, got.Issues[0].Severity)
	require.NotNil(t, got.Issues[0].Location)
	assert.Equal(t, 4, got.Issues[0].Location.Line)
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, models.CategoryPerformance, got.Suggestions[0].Category)
}

func TestSQLiteStore_AllOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		r := result("a.js", 70+i)
		r.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Append(ctx, "a.js", r))
	}

	all, err := s.All(ctx, "a.js")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 70, all[0].Score)
	assert.Equal(t, 72, all[2].Score)
}

func TestSQLiteStore_CapEvictsOldest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cap.db")
	s, err := NewSQLiteStore(dbPath, 3)
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Migrate(ctx))

	base := time.Now().UTC().Add(-time.Hour)
	for i := 1; i <= 5; i++ {
		r := result("a.js", i)
		r.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Append(ctx, "a.js", r))
	}

	all, err := s.All(ctx, "a.js")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 3, all[0].Score, "oldest entries evicted first")
	assert.Equal(t, 5, all[2].Score)
}

func TestSQLiteStore_Keys(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "b.js", result("b.js", 70)))
	require.NoError(t, s.Append(ctx, "a.js", result("a.js", 70)))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.js", "b.js"}, keys)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "persist.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(dbPath, 0)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Append(ctx, "a.js", result("a.js", 77)))
	require.NoError(t, s.Close())

	s2, err := NewSQLiteStore(dbPath, 0)
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.Migrate(ctx))

	got, err := s2.Latest(ctx, "a.js")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 77, got.Score)
}
