// Package practice composes the memory model, selector and gamification
// rules into the per-answer and per-session transitions of a practice flow.
package practice

import (
	"log/slog"
	"time"

	"github.com/example/lettersbot/internal/gamification"
	sr "github.com/example/lettersbot/internal/spaced_repetition"
	"github.com/example/lettersbot/pkg/models"
)

// Answer is one learner response as measured by the caller.
type Answer struct {
	ItemID         string
	Correct        bool
	ResponseTimeMs float64
	QuestionIndex  int
	At             time.Time
}

// AnswerOutcome describes what a single answer changed.
type AnswerOutcome struct {
	ItemID        string
	Correct       bool
	PreviousLevel models.StrengthLevel
	NewLevel      models.StrengthLevel
	XPEarned      int
	AchievementXP int
	LevelUp       gamification.LevelUp
	Unlocked      []gamification.Achievement
}

// TotalXP is the answer reward plus any achievement rewards paid with it.
func (o AnswerOutcome) TotalXP() int {
	return o.XPEarned + o.AchievementXP
}

// Engine runs snapshot transitions. It holds no progress state of its own.
type Engine struct {
	selector *sr.Selector
	logger   *slog.Logger
}

// NewEngine creates an engine drawing selections from rng.
func NewEngine(rng sr.Rand, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		selector: sr.NewSelector(rng),
		logger:   logger,
	}
}

// SelectNextItem picks the next item to ask. When every known item is
// excluded the exclusions are dropped and the draw is retried once.
func (e *Engine) SelectNextItem(progress models.UserProgress, questionIndex int, exclude map[string]bool) (string, bool) {
	id, ok := e.selector.SelectNext(progress.MemoryStates, questionIndex, exclude)
	if ok || len(exclude) == 0 {
		return id, ok
	}
	e.logger.Debug("all items excluded, retrying without exclusions", "excluded", len(exclude))
	return e.selector.SelectNext(progress.MemoryStates, questionIndex, nil)
}

// EnsureItems returns a snapshot that has a memory state for every id.
// Existing states are left as they are.
func EnsureItems(progress models.UserProgress, itemIDs []string) models.UserProgress {
	p := progress.Clone()
	for _, id := range itemIDs {
		if _, ok := p.MemoryStates[id]; !ok {
			p.MemoryStates[id] = sr.NewMemoryState(id)
		}
	}
	return p
}

// RecordAnswer applies one answer to progress and returns the new snapshot.
// The streak bonus is computed from the streak before this answer counts.
func (e *Engine) RecordAnswer(progress models.UserProgress, a Answer) (models.UserProgress, AnswerOutcome) {
	p := progress.Clone()

	state, ok := p.MemoryStates[a.ItemID]
	if !ok {
		state = sr.NewMemoryState(a.ItemID)
	}
	out := AnswerOutcome{
		ItemID:        a.ItemID,
		Correct:       a.Correct,
		PreviousLevel: state.StrengthLevel,
	}
	firstTimeCorrect := a.Correct && state.CorrectCount == 0

	if a.Correct {
		state = sr.UpdateCorrect(state, a.ResponseTimeMs, a.QuestionIndex)
	} else {
		state = sr.UpdateIncorrect(state, a.ResponseTimeMs, a.QuestionIndex)
	}
	p.MemoryStates[a.ItemID] = state
	out.NewLevel = state.StrengthLevel

	out.XPEarned = gamification.RewardForAnswer(a.Correct, a.ResponseTimeMs, p.Streak.CurrentStreak, firstTimeCorrect)
	p.XP, out.LevelUp = gamification.ApplyXP(p.XP, out.XPEarned)

	p.Streak = gamification.UpdateAnswerStreak(p.Streak, a.Correct)
	p.Streak = gamification.UpdateDailyStreak(p.Streak, a.At)

	p.TotalQuestionsAnswered++
	if a.Correct {
		p.TotalCorrectAnswers++
	}
	p.GlobalAccuracy = float64(p.TotalCorrectAnswers) / float64(p.TotalQuestionsAnswered)

	before := p.XP.TotalXP
	var lu gamification.LevelUp
	p, out.Unlocked, lu = e.unlockAll(p, a.At)
	out.AchievementXP = p.XP.TotalXP - before
	out.LevelUp.LeveledUp = out.LevelUp.LeveledUp || lu.LeveledUp
	out.LevelUp.Level = p.XP.CurrentLevel

	if out.PreviousLevel != out.NewLevel {
		e.logger.Debug("strength changed", "item_id", a.ItemID, "from", out.PreviousLevel, "to", out.NewLevel)
	}
	if out.LevelUp.LeveledUp {
		e.logger.Info("level up", "level", out.LevelUp.Level, "total_xp", p.XP.TotalXP)
	}
	return p, out
}

// CompleteSession folds finished session stats into the lifetime counters and
// re-evaluates achievements that depend on session history. The returned stats
// include the achievements unlocked here and their XP.
func (e *Engine) CompleteSession(progress models.UserProgress, stats models.QuizSessionStats, now time.Time) (models.UserProgress, models.QuizSessionStats, []gamification.Achievement) {
	stats = stats.Clone()
	p := progress.Clone()
	p.TotalSessions++
	p.TotalTimeSpentMs += stats.DurationMs
	p.SessionHistory = append(p.SessionHistory, stats.Clone())
	if over := len(p.SessionHistory) - SessionHistoryLimit; over > 0 {
		p.SessionHistory = append([]models.QuizSessionStats(nil), p.SessionHistory[over:]...)
	}

	p, unlocked, _ := e.unlockAll(p, now)
	if len(unlocked) > 0 {
		for _, a := range unlocked {
			stats.AchievementsUnlocked = append(stats.AchievementsUnlocked, a.ID)
			stats.XPEarned += a.XPReward
		}
		p.SessionHistory[len(p.SessionHistory)-1] = stats.Clone()
	}
	e.logger.Info("session completed",
		"session_id", stats.ID,
		"questions", stats.TotalQuestions,
		"accuracy", stats.Accuracy,
		"xp", stats.XPEarned,
		"unlocked", len(unlocked),
	)
	return p, stats, unlocked
}

// unlockAll repeats the achievement check until it settles, since paying out
// one achievement can level the learner up into the next.
func (e *Engine) unlockAll(p models.UserProgress, now time.Time) (models.UserProgress, []gamification.Achievement, gamification.LevelUp) {
	levelUp := gamification.LevelUp{Level: p.XP.CurrentLevel}
	var unlocked []gamification.Achievement
	for {
		found := gamification.CheckNewlyUnlocked(p)
		if len(found) == 0 {
			return p, unlocked, levelUp
		}
		var lu gamification.LevelUp
		p, lu = gamification.Unlock(p, found, now)
		levelUp.LeveledUp = levelUp.LeveledUp || lu.LeveledUp
		levelUp.Level = lu.Level
		for _, a := range found {
			e.logger.Info("achievement unlocked", "id", a.ID, "rarity", a.Rarity, "xp", a.XPReward)
		}
		unlocked = append(unlocked, found...)
	}
}
