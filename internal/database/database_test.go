package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lettersbot/pkg/models"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestConnectSQLiteCreatesDataDir(t *testing.T) {
	dir := t.TempDir() + "/nested"

	db, err := Connect(Config{Type: TypeSQLite, DataDir: dir})
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dir+"/"+sqliteFile)
}

func TestConnectRejectsUnknownType(t *testing.T) {
	_, err := Connect(Config{Type: "mysql"})
	assert.Error(t, err)

	_, err = Connect(Config{Type: TypePostgres})
	assert.Error(t, err)
}

func TestOpenIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, initializeSchema(db))
}

func TestSnapshotRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotRepository(openTestDB(t))

	_, err := repo.GetSnapshot(ctx, "user_progress")
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))

	require.NoError(t, repo.PutSnapshot(ctx, "user_progress", []byte(`{"v":1}`)))
	require.NoError(t, repo.PutSnapshot(ctx, "user_progress", []byte(`{"v":2}`)))

	data, err := repo.GetSnapshot(ctx, "user_progress")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(data))

	require.NoError(t, repo.DeleteSnapshot(ctx, "user_progress"))
	_, err = repo.GetSnapshot(ctx, "user_progress")
	assert.True(t, errors.Is(err, ErrSnapshotNotFound))
}

func TestItemRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository(openTestDB(t))

	item := &models.Item{ID: "a", Letter: "A", Sound: "/æ/", Example: "apple", Group: "vowel"}
	created, err := repo.Upsert(ctx, item)
	require.NoError(t, err)
	assert.True(t, created)

	item.Example = "ant"
	created, err = repo.Upsert(ctx, item)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = repo.Upsert(ctx, &models.Item{ID: "b", Letter: "B", Sound: "/b/", Group: "consonant"})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "ant", got.Example)
	assert.Equal(t, "vowel", got.Group)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.GetByID(ctx, "zz")
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(openTestDB(t))

	sessions := []models.QuizSessionStats{
		{ID: "old", StartedAt: t0.AddDate(0, 0, -10), EndedAt: t0.AddDate(0, 0, -10).Add(time.Minute),
			TotalQuestions: 10, CorrectAnswers: 5, IncorrectAnswers: 5, Accuracy: 0.5, DurationMs: 60000, XPEarned: 50},
		{ID: "s1", StartedAt: t0, EndedAt: t0.Add(time.Minute),
			TotalQuestions: 10, CorrectAnswers: 8, IncorrectAnswers: 2, Accuracy: 0.8, DurationMs: 60000, XPEarned: 120},
		{ID: "s2", StartedAt: t0.Add(time.Hour), EndedAt: t0.Add(time.Hour + time.Minute),
			TotalQuestions: 5, CorrectAnswers: 5, Accuracy: 1, DurationMs: 30000, XPEarned: 90, Perfect: true,
			AchievementsUnlocked: []string{"perfect_session", "streak_5"}},
	}
	for _, s := range sessions {
		require.NoError(t, repo.Create(ctx, s))
	}

	recent, err := repo.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "s2", recent[0].ID)
	assert.True(t, recent[0].Perfect)
	assert.Equal(t, []string{"perfect_session", "streak_5"}, recent[0].AchievementsUnlocked)
	assert.True(t, recent[0].StartedAt.Equal(t0.Add(time.Hour)))
	assert.Equal(t, "s1", recent[1].ID)
	assert.Nil(t, recent[1].AchievementsUnlocked)

	summary, err := repo.SummarySince(ctx, t0.AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Sessions)
	assert.Equal(t, 15, summary.Questions)
	assert.Equal(t, 13, summary.Correct)
	assert.InDelta(t, 0.9, summary.AvgAccuracy, 1e-9)
	assert.Equal(t, 210, summary.TotalXP)
	assert.Equal(t, 1, summary.PerfectCount)
}

func TestSessionRepositoryEmptySummary(t *testing.T) {
	summary, err := NewSessionRepository(openTestDB(t)).SummarySince(context.Background(), t0)
	require.NoError(t, err)
	assert.Zero(t, summary.Sessions)
	assert.Zero(t, summary.AvgAccuracy)
}
