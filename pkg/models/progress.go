package models

import "time"

// XPSystem holds experience points and the level they translate to
type XPSystem struct {
	TotalXP          int `json:"total_xp"`
	CurrentLevel     int `json:"current_level"`
	XPToNextLevel    int `json:"xp_to_next_level"`
	XPInCurrentLevel int `json:"xp_in_current_level"`
}

// StreakData tracks consecutive correct answers and consecutive practice days
type StreakData struct {
	CurrentStreak      int    `json:"current_streak"`
	LongestStreak      int    `json:"longest_streak"`
	DailyStreak        int    `json:"daily_streak"`
	LongestDailyStreak int    `json:"longest_daily_streak"`
	LastPracticeDate   string `json:"last_practice_date"` // 2006-01-02, empty before the first practice day
	FreezeAvailable    bool   `json:"freeze_available"`
}

// UnlockedAchievement records when an achievement was earned
type UnlockedAchievement struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
	Seen       bool      `json:"seen"`
}

// UserProgress is the complete learner snapshot and the unit of persistence
type UserProgress struct {
	MemoryStates           map[string]MemoryState `json:"memory_states"`
	XP                     XPSystem               `json:"xp"`
	Streak                 StreakData             `json:"streak"`
	Achievements           []UnlockedAchievement  `json:"achievements"`
	TotalSessions          int                    `json:"total_sessions"`
	TotalQuestionsAnswered int                    `json:"total_questions_answered"`
	TotalCorrectAnswers    int                    `json:"total_correct_answers"`
	GlobalAccuracy         float64                `json:"global_accuracy"` // 0..1
	TotalTimeSpentMs       int64                  `json:"total_time_spent_ms"`
	SessionHistory         []QuizSessionStats     `json:"session_history"`
}

// Clone returns a deep copy of the snapshot. Engine code works on clones so
// callers keep an untouched previous snapshot.
func (p UserProgress) Clone() UserProgress {
	out := p
	out.MemoryStates = make(map[string]MemoryState, len(p.MemoryStates))
	for id, s := range p.MemoryStates {
		out.MemoryStates[id] = s.Clone()
	}
	if p.Achievements != nil {
		out.Achievements = append([]UnlockedAchievement(nil), p.Achievements...)
	}
	if p.SessionHistory != nil {
		out.SessionHistory = make([]QuizSessionStats, len(p.SessionHistory))
		for i, s := range p.SessionHistory {
			out.SessionHistory[i] = s.Clone()
		}
	}
	return out
}

// HasAchievement reports whether id is already unlocked.
func (p UserProgress) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// CountAtLevel returns how many items are at or above the given strength.
func (p UserProgress) CountAtLevel(level StrengthLevel) int {
	n := 0
	for _, s := range p.MemoryStates {
		if s.StrengthLevel >= level {
			n++
		}
	}
	return n
}
