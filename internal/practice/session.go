package practice

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/lettersbot/pkg/models"
)

// SessionHistoryLimit is how many finished sessions the snapshot keeps.
const SessionHistoryLimit = 50

// Session accumulates answer outcomes for one practice round.
type Session struct {
	ID        string
	StartedAt time.Time

	correct   int
	incorrect int
	xp        int
	unlocked  []string
}

// NewSession starts a session at now.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.New().String(),
		StartedAt: now,
	}
}

// Record adds one answer outcome to the session totals.
func (s *Session) Record(o AnswerOutcome) {
	if o.Correct {
		s.correct++
	} else {
		s.incorrect++
	}
	s.xp += o.TotalXP()
	for _, a := range o.Unlocked {
		s.unlocked = append(s.unlocked, a.ID)
	}
}

// Answered is the number of recorded answers.
func (s *Session) Answered() int {
	return s.correct + s.incorrect
}

// Finalize summarizes the session as of now.
func (s *Session) Finalize(now time.Time) models.QuizSessionStats {
	total := s.Answered()
	stats := models.QuizSessionStats{
		ID:               s.ID,
		StartedAt:        s.StartedAt,
		EndedAt:          now,
		TotalQuestions:   total,
		CorrectAnswers:   s.correct,
		IncorrectAnswers: s.incorrect,
		DurationMs:       max(0, now.Sub(s.StartedAt).Milliseconds()),
		XPEarned:         s.xp,
		Perfect:          total > 0 && s.incorrect == 0,
	}
	if total > 0 {
		stats.Accuracy = float64(s.correct) / float64(total)
	}
	if len(s.unlocked) > 0 {
		stats.AchievementsUnlocked = append([]string(nil), s.unlocked...)
	}
	return stats
}
