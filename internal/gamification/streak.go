package gamification

import (
	"time"

	"github.com/example/lettersbot/pkg/models"
)

// DateLayout is how StreakData.LastPracticeDate is stored.
const DateLayout = "2006-01-02"

// UpdateAnswerStreak counts consecutive correct answers. A wrong answer resets
// the current streak; the longest streak is a high-water mark.
func UpdateAnswerStreak(streak models.StreakData, correct bool) models.StreakData {
	s := streak
	if !correct {
		s.CurrentStreak = 0
		return s
	}
	s.CurrentStreak++
	s.LongestStreak = max(s.LongestStreak, s.CurrentStreak)
	return s
}

// UpdateDailyStreak records practice on the calendar day of today.
// One missed day per streak cycle is forgiven by spending the freeze; the
// freeze comes back with the next regular consecutive day or a reset.
func UpdateDailyStreak(streak models.StreakData, today time.Time) models.StreakData {
	s := streak
	day := today.Format(DateLayout)

	last, err := time.ParseInLocation(DateLayout, s.LastPracticeDate, today.Location())
	if s.LastPracticeDate == "" || err != nil {
		s.DailyStreak = 1
		s.FreezeAvailable = true
		s.LastPracticeDate = day
		s.LongestDailyStreak = max(s.LongestDailyStreak, s.DailyStreak)
		return s
	}

	switch gap := DaysBetween(last, today); {
	case gap <= 0:
		return s
	case gap == 1:
		s.DailyStreak++
		s.FreezeAvailable = true
	case gap == 2 && s.FreezeAvailable:
		s.DailyStreak++
		s.FreezeAvailable = false
	default:
		s.DailyStreak = 1
		s.FreezeAvailable = true
	}
	s.LastPracticeDate = day
	s.LongestDailyStreak = max(s.LongestDailyStreak, s.DailyStreak)
	return s
}

// DaysBetween returns the number of calendar days from a to b in b's location.
// Daylight saving shifts do not affect the result.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// StreakAtRisk reports whether the learner practiced yesterday but not yet today,
// or is relying on the freeze to keep the streak alive.
func StreakAtRisk(streak models.StreakData, now time.Time) bool {
	if streak.LastPracticeDate == "" || streak.DailyStreak == 0 {
		return false
	}
	last, err := time.ParseInLocation(DateLayout, streak.LastPracticeDate, now.Location())
	if err != nil {
		return false
	}
	gap := DaysBetween(last, now)
	return gap == 1 || (gap == 2 && streak.FreezeAvailable)
}
