package practice

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lettersbot/internal/gamification"
	"github.com/example/lettersbot/pkg/models"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newEngine(seed int64) *Engine {
	return NewEngine(rand.New(rand.NewSource(seed)), nil)
}

func freshProgress() models.UserProgress {
	return models.UserProgress{
		MemoryStates: map[string]models.MemoryState{},
		XP:           gamification.NewXPSystem(),
	}
}

func unlockedIDs(defs []gamification.Achievement) []string {
	out := make([]string, 0, len(defs))
	for _, a := range defs {
		out = append(out, a.ID)
	}
	return out
}

func TestRecordAnswerFirstCorrect(t *testing.T) {
	e := newEngine(1)
	p := freshProgress()

	got, out := e.RecordAnswer(p, Answer{ItemID: "a", Correct: true, ResponseTimeMs: 1000, QuestionIndex: 0, At: t0})

	require.Contains(t, got.MemoryStates, "a")
	assert.Equal(t, 1, got.MemoryStates["a"].CorrectCount)
	assert.Equal(t, 30, out.XPEarned, "base + speed + first time")
	assert.Equal(t, []string{"first_answer"}, unlockedIDs(out.Unlocked))
	assert.Equal(t, 10, out.AchievementXP)
	assert.Equal(t, 40, got.XP.TotalXP)
	assert.Equal(t, 1, got.Streak.CurrentStreak)
	assert.Equal(t, 1, got.Streak.DailyStreak)
	assert.Equal(t, "2025-03-10", got.Streak.LastPracticeDate)
	assert.Equal(t, 1, got.TotalQuestionsAnswered)
	assert.Equal(t, 1, got.TotalCorrectAnswers)
	assert.InDelta(t, 1.0, got.GlobalAccuracy, 1e-9)

	assert.Empty(t, p.MemoryStates, "input snapshot untouched")
	assert.Zero(t, p.XP.TotalXP)
}

func TestRecordAnswerUsesStreakBeforeIncrement(t *testing.T) {
	e := newEngine(1)
	p := freshProgress()
	p.MemoryStates["b"] = models.MemoryState{ItemID: "b", CorrectCount: 3, ErrorHistory: []int{1, 1, 1}}
	p.Streak.CurrentStreak = 4
	p.Streak.LongestStreak = 4
	p.Achievements = []models.UnlockedAchievement{{ID: "first_answer"}, {ID: "streak_5"}}

	p, out := e.RecordAnswer(p, Answer{ItemID: "b", Correct: true, ResponseTimeMs: 1000, QuestionIndex: 5, At: t0})
	assert.Equal(t, 23, out.XPEarned, "streak of 4 earns no combo")
	assert.Equal(t, 5, p.Streak.CurrentStreak)

	_, out = e.RecordAnswer(p, Answer{ItemID: "b", Correct: true, ResponseTimeMs: 1000, QuestionIndex: 6, At: t0})
	assert.Equal(t, 37, out.XPEarned, "streak of 5 applies the combo")
}

func TestRecordAnswerIncorrect(t *testing.T) {
	e := newEngine(1)
	p := freshProgress()
	p.MemoryStates["c"] = models.MemoryState{ItemID: "c", StrengthLevel: models.Familiar, CorrectCount: 5, ErrorHistory: []int{1, 1, 1, 1, 1}}
	p.Streak.CurrentStreak = 3
	p.TotalQuestionsAnswered = 3
	p.TotalCorrectAnswers = 3

	got, out := e.RecordAnswer(p, Answer{ItemID: "c", Correct: false, ResponseTimeMs: 2000, QuestionIndex: 9, At: t0})

	assert.Zero(t, out.XPEarned)
	assert.False(t, out.LevelUp.LeveledUp)
	assert.Equal(t, models.Familiar, out.PreviousLevel)
	assert.Equal(t, models.Learning, out.NewLevel)
	assert.Zero(t, got.Streak.CurrentStreak)
	assert.Equal(t, 1, got.Streak.DailyStreak, "a wrong answer still counts as practice")
	assert.Equal(t, 4, got.TotalQuestionsAnswered)
	assert.Equal(t, 3, got.TotalCorrectAnswers)
	assert.InDelta(t, 0.75, got.GlobalAccuracy, 1e-9)
}

func TestRecordAnswerUnlocksOnce(t *testing.T) {
	e := newEngine(1)
	p := freshProgress()
	var all []string

	for i := 0; i < 20; i++ {
		var out AnswerOutcome
		p, out = e.RecordAnswer(p, Answer{ItemID: "a", Correct: true, ResponseTimeMs: 5000, QuestionIndex: i, At: t0})
		all = append(all, unlockedIDs(out.Unlocked)...)
	}

	seen := map[string]bool{}
	for _, id := range all {
		assert.False(t, seen[id], "achievement %s reported twice", id)
		seen[id] = true
	}
	assert.Len(t, p.Achievements, len(all))
	assert.True(t, seen["streak_10"])
	assert.True(t, seen["first_familiar"])
}

func TestRecordAnswerLevelUpFromAchievement(t *testing.T) {
	e := newEngine(1)
	p := freshProgress()
	p.XP = models.XPSystem{TotalXP: 80, CurrentLevel: 1, XPToNextLevel: 100, XPInCurrentLevel: 80}
	p.MemoryStates["a"] = models.MemoryState{ItemID: "a", CorrectCount: 1, ErrorHistory: []int{1}}

	got, out := e.RecordAnswer(p, Answer{ItemID: "a", Correct: true, ResponseTimeMs: 5000, QuestionIndex: 3, At: t0})

	assert.Equal(t, 10, out.XPEarned)
	assert.Equal(t, 10, out.AchievementXP)
	assert.True(t, out.LevelUp.LeveledUp)
	assert.Equal(t, 2, out.LevelUp.Level)
	assert.Equal(t, 2, got.XP.CurrentLevel)
	assert.Equal(t, 0, got.XP.XPInCurrentLevel)
}

func TestSelectNextItemRetriesWithoutExclusions(t *testing.T) {
	e := newEngine(1)
	p := EnsureItems(freshProgress(), []string{"a"})

	id, ok := e.SelectNextItem(p, 0, map[string]bool{"a": true})

	require.True(t, ok)
	assert.Equal(t, "a", id)
}

func TestSelectNextItemEmpty(t *testing.T) {
	_, ok := newEngine(1).SelectNextItem(freshProgress(), 0, nil)
	assert.False(t, ok)
}

func TestSelectNextItemSkipsExcluded(t *testing.T) {
	e := newEngine(4)
	p := EnsureItems(freshProgress(), []string{"a", "b", "c", "d"})
	exclude := map[string]bool{"a": true, "b": true, "c": true}

	for i := 0; i < 20; i++ {
		id, ok := e.SelectNextItem(p, i, exclude)
		require.True(t, ok)
		assert.Equal(t, "d", id)
	}
}

func TestEnsureItems(t *testing.T) {
	p := freshProgress()
	p.MemoryStates["a"] = models.MemoryState{ItemID: "a", CorrectCount: 4, StrengthLevel: models.Familiar}

	got := EnsureItems(p, []string{"a", "b", "c"})

	assert.Len(t, got.MemoryStates, 3)
	assert.Equal(t, 4, got.MemoryStates["a"].CorrectCount)
	assert.Equal(t, models.New, got.MemoryStates["b"].StrengthLevel)
	assert.Len(t, p.MemoryStates, 1)
}

func TestCompleteSession(t *testing.T) {
	e := newEngine(1)
	p := freshProgress()
	p.Achievements = []models.UnlockedAchievement{{ID: "first_answer"}}
	stats := models.QuizSessionStats{ID: "s1", TotalQuestions: 5, CorrectAnswers: 5, Accuracy: 1, DurationMs: 40000, Perfect: true}

	got, done, unlocked := e.CompleteSession(p, stats, t0)

	assert.Equal(t, 1, got.TotalSessions)
	assert.Equal(t, int64(40000), got.TotalTimeSpentMs)
	require.Len(t, got.SessionHistory, 1)
	assert.Equal(t, []string{"perfect_session"}, unlockedIDs(unlocked))
	assert.Equal(t, []string{"perfect_session"}, got.SessionHistory[0].AchievementsUnlocked)
	assert.Equal(t, got.SessionHistory[0], done)
	perfect, ok := gamification.Lookup("perfect_session")
	require.True(t, ok)
	assert.Equal(t, perfect.XPReward, done.XPEarned)
	assert.Equal(t, done.XPEarned, got.XP.TotalXP-p.XP.TotalXP)
	assert.Empty(t, stats.AchievementsUnlocked)
	assert.True(t, got.HasAchievement("perfect_session"))
	assert.Empty(t, p.SessionHistory)
}

func TestCompleteSessionCapsHistory(t *testing.T) {
	e := newEngine(1)
	p := freshProgress()
	for i := 0; i < SessionHistoryLimit+7; i++ {
		p, _, _ = e.CompleteSession(p, models.QuizSessionStats{ID: fmt.Sprint(i), TotalQuestions: 1, DurationMs: 10}, t0)
	}

	require.Len(t, p.SessionHistory, SessionHistoryLimit)
	assert.Equal(t, "7", p.SessionHistory[0].ID)
	assert.Equal(t, fmt.Sprint(SessionHistoryLimit+6), p.SessionHistory[SessionHistoryLimit-1].ID)
	assert.Equal(t, SessionHistoryLimit+7, p.TotalSessions)
	assert.Equal(t, int64(10*(SessionHistoryLimit+7)), p.TotalTimeSpentMs)
}
