// Package gamification turns answer outcomes into experience points, levels,
// streaks and achievements.
package gamification

import (
	"math"

	"github.com/example/lettersbot/pkg/models"
)

// XP rewards
const (
	CorrectAnswerXP    = 10
	SpeedBonusXP       = 5
	StreakBonusPerStep = 2
	FirstTimeCorrectXP = 15

	speedBonusUnderMs = 3000
	comboMinStreak    = 5
	comboMultiplier   = 1.5
	baseLevelXP       = 100
	levelGrowth       = 1.5
)

// LevelThreshold returns the XP needed to advance from level to level+1.
// Each level costs 50% more than the one before it.
func LevelThreshold(level int) int {
	return int(math.Floor(baseLevelXP * math.Pow(levelGrowth, float64(level-1))))
}

// NewXPSystem returns the XP state of a learner who has not earned anything yet
func NewXPSystem() models.XPSystem {
	return models.XPSystem{
		CurrentLevel:  1,
		XPToNextLevel: LevelThreshold(1),
	}
}

// RewardForAnswer computes the XP for a single answer. currentStreak is the
// correct-answer streak before this answer is counted.
func RewardForAnswer(correct bool, responseTimeMs float64, currentStreak int, firstTimeCorrect bool) int {
	if !correct {
		return 0
	}
	xp := CorrectAnswerXP
	if responseTimeMs < speedBonusUnderMs {
		xp += SpeedBonusXP
	}
	xp += currentStreak * StreakBonusPerStep
	if currentStreak >= comboMinStreak {
		xp = int(math.Floor(float64(xp) * comboMultiplier))
	}
	if firstTimeCorrect {
		xp += FirstTimeCorrectXP
	}
	return xp
}

// LevelUp tells the caller whether ApplyXP crossed at least one level boundary.
type LevelUp struct {
	LeveledUp bool
	Level     int
}

// ApplyXP adds gained XP and advances as many levels as it pays for.
func ApplyXP(system models.XPSystem, gained int) (models.XPSystem, LevelUp) {
	s := system
	s.XPToNextLevel = LevelThreshold(s.CurrentLevel)
	s.TotalXP += gained
	s.XPInCurrentLevel += gained

	start := s.CurrentLevel
	for s.XPInCurrentLevel >= s.XPToNextLevel {
		s.XPInCurrentLevel -= s.XPToNextLevel
		s.CurrentLevel++
		s.XPToNextLevel = LevelThreshold(s.CurrentLevel)
	}
	return s, LevelUp{LeveledUp: s.CurrentLevel > start, Level: s.CurrentLevel}
}
