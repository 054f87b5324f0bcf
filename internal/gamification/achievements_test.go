package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lettersbot/pkg/models"
)

func emptyProgress() models.UserProgress {
	return models.UserProgress{
		MemoryStates: map[string]models.MemoryState{},
		XP:           NewXPSystem(),
	}
}

func ids(defs []Achievement) []string {
	out := make([]string, len(defs))
	for i, a := range defs {
		out[i] = a.ID
	}
	return out
}

func TestAchievementTableIsWellFormed(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range Achievements {
		assert.NotEmpty(t, a.ID)
		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true
		assert.NotNil(t, a.Predicate, a.ID)
		assert.Contains(t, []Rarity{Common, Rare, Epic, Legendary}, a.Rarity, a.ID)
		assert.Positive(t, a.XPReward, a.ID)
	}
}

func TestNothingUnlocksOnEmptyProgress(t *testing.T) {
	assert.Empty(t, CheckNewlyUnlocked(emptyProgress()))
}

func TestCheckNewlyUnlockedIsIdempotentAfterUnlock(t *testing.T) {
	p := emptyProgress()
	p.TotalQuestionsAnswered = 1
	p.Streak.LongestStreak = 5

	found := CheckNewlyUnlocked(p)
	require.Equal(t, []string{"first_answer", "streak_5"}, ids(found))

	p, _ = Unlock(p, found, t0)
	assert.Empty(t, CheckNewlyUnlocked(p))

	p, _ = Unlock(p, found, t0)
	assert.Len(t, p.Achievements, 2, "unlocking twice must not duplicate")
}

func TestCheckNewlyUnlockedDoesNotMutate(t *testing.T) {
	p := emptyProgress()
	p.TotalQuestionsAnswered = 120

	first := CheckNewlyUnlocked(p)
	second := CheckNewlyUnlocked(p)

	assert.Equal(t, ids(first), ids(second))
	assert.Empty(t, p.Achievements)
}

func TestUnlockPaysRewards(t *testing.T) {
	p := emptyProgress()
	p.XP = models.XPSystem{TotalXP: 95, CurrentLevel: 1, XPToNextLevel: 100, XPInCurrentLevel: 95}
	first, ok := Lookup("first_answer")
	require.True(t, ok)

	got, lu := Unlock(p, []Achievement{first}, t0)

	require.Len(t, got.Achievements, 1)
	assert.Equal(t, models.UnlockedAchievement{ID: "first_answer", UnlockedAt: t0}, got.Achievements[0])
	assert.Equal(t, 105, got.XP.TotalXP)
	assert.True(t, lu.LeveledUp)
	assert.Equal(t, 2, lu.Level)
	assert.Empty(t, p.Achievements, "input snapshot untouched")
}

func TestPerfectSessionNeedsEnoughQuestions(t *testing.T) {
	p := emptyProgress()
	p.SessionHistory = []models.QuizSessionStats{{TotalQuestions: 3, CorrectAnswers: 3, Perfect: true}}
	def, _ := Lookup("perfect_session")
	assert.False(t, def.Predicate(p))

	p.SessionHistory = append(p.SessionHistory, models.QuizSessionStats{TotalQuestions: 5, CorrectAnswers: 5, Perfect: true})
	assert.True(t, def.Predicate(p))
}

func TestAllMastered(t *testing.T) {
	def, _ := Lookup("all_mastered")
	p := emptyProgress()
	assert.False(t, def.Predicate(p))

	p.MemoryStates["a"] = models.MemoryState{ItemID: "a", StrengthLevel: models.Mastered}
	p.MemoryStates["b"] = models.MemoryState{ItemID: "b", StrengthLevel: models.Familiar}
	assert.False(t, def.Predicate(p))

	p.MemoryStates["b"] = models.MemoryState{ItemID: "b", StrengthLevel: models.Mastered}
	assert.True(t, def.Predicate(p))
}

func TestAccuracyNeedsVolume(t *testing.T) {
	def, _ := Lookup("accuracy_90")
	p := emptyProgress()
	p.TotalQuestionsAnswered = 49
	p.GlobalAccuracy = 1
	assert.False(t, def.Predicate(p))

	p.TotalQuestionsAnswered = 50
	p.GlobalAccuracy = 0.9
	assert.True(t, def.Predicate(p))
}

func TestMarkSeen(t *testing.T) {
	p := emptyProgress()
	p.Achievements = []models.UnlockedAchievement{{ID: "first_answer"}, {ID: "streak_5"}}
	require.Len(t, Unseen(p), 2)

	got := MarkSeen(p, []string{"streak_5"})

	unseen := Unseen(got)
	require.Len(t, unseen, 1)
	assert.Equal(t, "first_answer", unseen[0].ID)
	assert.Len(t, Unseen(p), 2, "input snapshot untouched")
}

func TestLookupUnknown(t *testing.T) {
	_, ok := Lookup("nope")
	assert.False(t, ok)
}
