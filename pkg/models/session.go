package models

import "time"

// QuizSessionStats summarizes one finished practice session
type QuizSessionStats struct {
	ID                   string    `json:"id" db:"id"`
	StartedAt            time.Time `json:"started_at" db:"started_at"`
	EndedAt              time.Time `json:"ended_at" db:"ended_at"`
	TotalQuestions       int       `json:"total_questions" db:"total_questions"`
	CorrectAnswers       int       `json:"correct_answers" db:"correct_answers"`
	IncorrectAnswers     int       `json:"incorrect_answers" db:"incorrect_answers"`
	Accuracy             float64   `json:"accuracy" db:"accuracy"` // 0..1
	DurationMs           int64     `json:"duration_ms" db:"duration_ms"`
	XPEarned             int       `json:"xp_earned" db:"xp_earned"`
	Perfect              bool      `json:"perfect" db:"perfect"`
	AchievementsUnlocked []string  `json:"achievements_unlocked" db:"-"`
}

// Clone returns a copy that shares no memory with s.
func (s QuizSessionStats) Clone() QuizSessionStats {
	out := s
	if s.AchievementsUnlocked != nil {
		out.AchievementsUnlocked = append([]string(nil), s.AchievementsUnlocked...)
	}
	return out
}
