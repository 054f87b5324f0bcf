package spaced_repetition

import "github.com/example/lettersbot/pkg/models"

// Review intervals per strength level, counted in answered questions
var reviewIntervals = [...]int{
	models.New:      2,
	models.Learning: 5,
	models.Familiar: 15,
	models.Mastered: 30,
}

// Correct-answer thresholds for each tier above New
const (
	learningThreshold = 2
	familiarThreshold = 4
	masteredThreshold = 7

	// An item answered wrong in most of its last few attempts drops back to New
	// unless it already has this much evidence behind it.
	slumpWindow         = 3
	slumpErrorRate      = 0.5
	slumpCorrectCeiling = 10
)

// ReviewInterval returns how many questions must pass before an item at the
// given level is due again.
func ReviewInterval(level models.StrengthLevel) int {
	if level < models.New || level > models.Mastered {
		return reviewIntervals[models.New]
	}
	return reviewIntervals[level]
}

// NewMemoryState creates the state for an item the learner has not seen yet
func NewMemoryState(itemID string) models.MemoryState {
	return models.MemoryState{
		ItemID:          itemID,
		StrengthLevel:   models.New,
		NextReviewAfter: ReviewInterval(models.New),
		ErrorHistory:    []int{},
	}
}

// UpdateCorrect returns the state after a correct answer. The input is not mutated.
func UpdateCorrect(state models.MemoryState, responseTimeMs float64, questionIndex int) models.MemoryState {
	s := state.Clone()
	s.CorrectCount++
	s.ErrorHistory = pushOutcome(s.ErrorHistory, 1)
	s.StrengthLevel = StrengthFor(s)
	touch(&s, responseTimeMs, questionIndex)
	return s
}

// UpdateIncorrect returns the state after a wrong answer. On top of the
// recomputed level a forgetting penalty applies: one tier for Learning and
// Familiar, two for Mastered. The level never rises on a wrong answer.
func UpdateIncorrect(state models.MemoryState, responseTimeMs float64, questionIndex int) models.MemoryState {
	s := state.Clone()
	s.IncorrectCount++
	s.ErrorHistory = pushOutcome(s.ErrorHistory, 0)
	s.StrengthLevel = min(StrengthFor(s), forget(state.StrengthLevel))
	touch(&s, responseTimeMs, questionIndex)
	return s
}

// StrengthFor derives the strength level from the cumulative counters and the
// recent error window.
func StrengthFor(s models.MemoryState) models.StrengthLevel {
	if RecentErrorRate(s.ErrorHistory, slumpWindow) > slumpErrorRate && s.CorrectCount < slumpCorrectCeiling {
		return models.New
	}
	switch {
	case s.CorrectCount >= masteredThreshold:
		return models.Mastered
	case s.CorrectCount >= familiarThreshold:
		return models.Familiar
	case s.CorrectCount >= learningThreshold:
		return models.Learning
	default:
		return models.New
	}
}

// RecentErrorRate returns the fraction of incorrect outcomes among the last
// window entries of history. A non-positive window covers the whole history.
// Empty history has a rate of 0.
func RecentErrorRate(history []int, window int) float64 {
	if window > 0 && len(history) > window {
		history = history[len(history)-window:]
	}
	if len(history) == 0 {
		return 0
	}
	wrong := 0
	for _, outcome := range history {
		if outcome == 0 {
			wrong++
		}
	}
	return float64(wrong) / float64(len(history))
}

func forget(level models.StrengthLevel) models.StrengthLevel {
	switch level {
	case models.Mastered:
		return level - 2
	case models.Learning, models.Familiar:
		return level - 1
	default:
		return models.New
	}
}

// touch applies the bookkeeping shared by both answer outcomes.
func touch(s *models.MemoryState, responseTimeMs float64, questionIndex int) {
	s.LastSeenAt = questionIndex
	s.NextReviewAfter = ReviewInterval(s.StrengthLevel)
	s.AverageResponseTimeMs = (s.AverageResponseTimeMs*float64(s.TotalExposures) + responseTimeMs) /
		float64(s.TotalExposures+1)
	s.TotalExposures++
}

func pushOutcome(history []int, outcome int) []int {
	history = append(history, outcome)
	if len(history) > models.ErrorHistoryCapacity {
		history = history[len(history)-models.ErrorHistoryCapacity:]
	}
	return history
}
