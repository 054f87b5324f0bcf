package database

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/lettersbot/pkg/models"
)

// SessionRepository handles database operations for finished quiz sessions
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

type sessionRow struct {
	models.QuizSessionStats
	Achievements string `db:"achievements"`
}

// Create inserts a finished session
func (r *SessionRepository) Create(ctx context.Context, stats models.QuizSessionStats) error {
	row := sessionRow{
		QuizSessionStats: stats,
		Achievements:     strings.Join(stats.AchievementsUnlocked, ","),
	}
	row.StartedAt = row.StartedAt.UTC()
	row.EndedAt = row.EndedAt.UTC()
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO quiz_sessions (
			id, started_at, ended_at, total_questions, correct_answers,
			incorrect_answers, accuracy, duration_ms, xp_earned, perfect, achievements
		) VALUES (
			:id, :started_at, :ended_at, :total_questions, :correct_answers,
			:incorrect_answers, :accuracy, :duration_ms, :xp_earned, :perfect, :achievements
		)
	`, row)
	return errors.Wrapf(err, "failed to create session %q", stats.ID)
}

// Recent returns up to limit sessions, newest first
func (r *SessionRepository) Recent(ctx context.Context, limit int) ([]models.QuizSessionStats, error) {
	var rows []sessionRow
	err := r.db.SelectContext(ctx, &rows,
		r.db.Rebind("SELECT * FROM quiz_sessions ORDER BY started_at DESC LIMIT ?"), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get recent sessions")
	}
	out := make([]models.QuizSessionStats, len(rows))
	for i, row := range rows {
		out[i] = row.QuizSessionStats
		if row.Achievements != "" {
			out[i].AchievementsUnlocked = strings.Split(row.Achievements, ",")
		}
	}
	return out, nil
}

// SessionSummary aggregates sessions over a period
type SessionSummary struct {
	Sessions     int     `db:"sessions"`
	Questions    int     `db:"questions"`
	Correct      int     `db:"correct"`
	AvgAccuracy  float64 `db:"avg_accuracy"`
	TotalXP      int     `db:"total_xp"`
	PerfectCount int     `db:"perfect_count"`
}

// SummarySince returns session statistics for sessions started at or after since
func (r *SessionRepository) SummarySince(ctx context.Context, since time.Time) (SessionSummary, error) {
	var s SessionSummary
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`
		SELECT
			COUNT(*) AS sessions,
			COALESCE(SUM(total_questions), 0) AS questions,
			COALESCE(SUM(correct_answers), 0) AS correct,
			COALESCE(AVG(accuracy), 0) AS avg_accuracy,
			COALESCE(SUM(xp_earned), 0) AS total_xp,
			COALESCE(SUM(CASE WHEN perfect THEN 1 ELSE 0 END), 0) AS perfect_count
		FROM quiz_sessions
		WHERE started_at >= ?
	`), since.UTC())
	if err != nil {
		return SessionSummary{}, errors.Wrap(err, "failed to summarize sessions")
	}
	return s, nil
}
