package gamification

import (
	"time"

	"github.com/example/lettersbot/pkg/models"
)

// Rarity is the tier of an achievement.
type Rarity string

const (
	Common    Rarity = "common"
	Rare      Rarity = "rare"
	Epic      Rarity = "epic"
	Legendary Rarity = "legendary"
)

// Achievement is a static rule evaluated against the whole progress snapshot.
// Predicates must be pure.
type Achievement struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Rarity      Rarity
	XPReward    int
	Predicate   func(models.UserProgress) bool
}

// perfectSessionMinQuestions keeps one-question sessions from counting as perfect rounds.
const perfectSessionMinQuestions = 5

// Achievements is the rule table. Order is the order in which newly unlocked
// achievements are reported.
var Achievements = []Achievement{
	{
		ID: "first_answer", Name: "First Steps", Icon: "👣", Rarity: Common, XPReward: 10,
		Description: "Answer your first question",
		Predicate:   func(p models.UserProgress) bool { return p.TotalQuestionsAnswered >= 1 },
	},
	{
		ID: "first_familiar", Name: "Getting Familiar", Icon: "🔤", Rarity: Common, XPReward: 15,
		Description: "Bring a letter up to Familiar",
		Predicate:   func(p models.UserProgress) bool { return p.CountAtLevel(models.Familiar) >= 1 },
	},
	{
		ID: "streak_5", Name: "On a Roll", Icon: "🔥", Rarity: Common, XPReward: 20,
		Description: "Answer 5 questions in a row correctly",
		Predicate:   func(p models.UserProgress) bool { return p.Streak.LongestStreak >= 5 },
	},
	{
		ID: "daily_3", Name: "Three Days Strong", Icon: "📅", Rarity: Common, XPReward: 25,
		Description: "Practice 3 days in a row",
		Predicate:   func(p models.UserProgress) bool { return p.Streak.LongestDailyStreak >= 3 },
	},
	{
		ID: "perfect_session", Name: "Flawless", Icon: "💎", Rarity: Rare, XPReward: 50,
		Description: "Finish a session of at least 5 questions without a mistake",
		Predicate: func(p models.UserProgress) bool {
			for _, s := range p.SessionHistory {
				if s.Perfect && s.TotalQuestions >= perfectSessionMinQuestions {
					return true
				}
			}
			return false
		},
	},
	{
		ID: "streak_10", Name: "Hot Streak", Icon: "⚡", Rarity: Rare, XPReward: 40,
		Description: "Answer 10 questions in a row correctly",
		Predicate:   func(p models.UserProgress) bool { return p.Streak.LongestStreak >= 10 },
	},
	{
		ID: "daily_7", Name: "Week Warrior", Icon: "🗓️", Rarity: Rare, XPReward: 75,
		Description: "Practice 7 days in a row",
		Predicate:   func(p models.UserProgress) bool { return p.Streak.LongestDailyStreak >= 7 },
	},
	{
		ID: "level_5", Name: "Rising Star", Icon: "⭐", Rarity: Rare, XPReward: 50,
		Description: "Reach level 5",
		Predicate:   func(p models.UserProgress) bool { return p.XP.CurrentLevel >= 5 },
	},
	{
		ID: "mastered_5", Name: "Sound Collector", Icon: "🎧", Rarity: Rare, XPReward: 60,
		Description: "Master 5 letters",
		Predicate:   func(p models.UserProgress) bool { return p.CountAtLevel(models.Mastered) >= 5 },
	},
	{
		ID: "answers_100", Name: "Centurion", Icon: "💯", Rarity: Rare, XPReward: 50,
		Description: "Answer 100 questions",
		Predicate:   func(p models.UserProgress) bool { return p.TotalQuestionsAnswered >= 100 },
	},
	{
		ID: "streak_25", Name: "Unstoppable", Icon: "🚀", Rarity: Epic, XPReward: 100,
		Description: "Answer 25 questions in a row correctly",
		Predicate:   func(p models.UserProgress) bool { return p.Streak.LongestStreak >= 25 },
	},
	{
		ID: "accuracy_90", Name: "Sharpshooter", Icon: "🎯", Rarity: Epic, XPReward: 120,
		Description: "Keep 90% accuracy over at least 50 answers",
		Predicate: func(p models.UserProgress) bool {
			return p.TotalQuestionsAnswered >= 50 && p.GlobalAccuracy >= 0.9
		},
	},
	{
		ID: "level_10", Name: "Letter Sage", Icon: "🦉", Rarity: Epic, XPReward: 150,
		Description: "Reach level 10",
		Predicate:   func(p models.UserProgress) bool { return p.XP.CurrentLevel >= 10 },
	},
	{
		ID: "answers_500", Name: "Dedicated", Icon: "🏅", Rarity: Epic, XPReward: 150,
		Description: "Answer 500 questions",
		Predicate:   func(p models.UserProgress) bool { return p.TotalQuestionsAnswered >= 500 },
	},
	{
		ID: "daily_30", Name: "Monthly Master", Icon: "🏆", Rarity: Legendary, XPReward: 300,
		Description: "Practice 30 days in a row",
		Predicate:   func(p models.UserProgress) bool { return p.Streak.LongestDailyStreak >= 30 },
	},
	{
		ID: "all_mastered", Name: "Alphabet Master", Icon: "👑", Rarity: Legendary, XPReward: 500,
		Description: "Master every letter",
		Predicate: func(p models.UserProgress) bool {
			return len(p.MemoryStates) > 0 && p.CountAtLevel(models.Mastered) == len(p.MemoryStates)
		},
	},
}

// Lookup returns the definition with the given id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// CheckNewlyUnlocked returns the achievements whose predicate holds for
// progress and that are not unlocked yet. It does not change progress.
func CheckNewlyUnlocked(progress models.UserProgress) []Achievement {
	unlocked := make(map[string]bool, len(progress.Achievements))
	for _, a := range progress.Achievements {
		unlocked[a.ID] = true
	}
	var out []Achievement
	for _, a := range Achievements {
		if unlocked[a.ID] {
			continue
		}
		if a.Predicate(progress) {
			out = append(out, a)
		}
	}
	return out
}

// Unlock records defs as unlocked at now and pays out their XP rewards.
// Ids that are already unlocked are skipped.
func Unlock(progress models.UserProgress, defs []Achievement, now time.Time) (models.UserProgress, LevelUp) {
	p := progress.Clone()
	levelUp := LevelUp{Level: p.XP.CurrentLevel}
	for _, a := range defs {
		if p.HasAchievement(a.ID) {
			continue
		}
		p.Achievements = append(p.Achievements, models.UnlockedAchievement{ID: a.ID, UnlockedAt: now})
		var lu LevelUp
		p.XP, lu = ApplyXP(p.XP, a.XPReward)
		levelUp.LeveledUp = levelUp.LeveledUp || lu.LeveledUp
		levelUp.Level = lu.Level
	}
	return p, levelUp
}

// Unseen returns unlocked achievements the learner has not been shown yet.
func Unseen(progress models.UserProgress) []models.UnlockedAchievement {
	var out []models.UnlockedAchievement
	for _, a := range progress.Achievements {
		if !a.Seen {
			out = append(out, a)
		}
	}
	return out
}

// MarkSeen flags the given unlocked achievements as shown to the learner.
func MarkSeen(progress models.UserProgress, ids []string) models.UserProgress {
	p := progress.Clone()
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for i := range p.Achievements {
		if seen[p.Achievements[i].ID] {
			p.Achievements[i].Seen = true
		}
	}
	return p
}
