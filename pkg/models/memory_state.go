package models

import "fmt"

// StrengthLevel is the discrete mastery tier of an item.
type StrengthLevel int

const (
	New StrengthLevel = iota
	Learning
	Familiar
	Mastered
)

var strengthNames = [...]string{New: "New", Learning: "Learning", Familiar: "Familiar", Mastered: "Mastered"}

// String returns the tier name, or "StrengthLevel(n)" for out-of-range values.
func (l StrengthLevel) String() string {
	if l >= New && l <= Mastered {
		return strengthNames[l]
	}
	return fmt.Sprintf("StrengthLevel(%d)", int(l))
}

// ErrorHistoryCapacity bounds MemoryState.ErrorHistory.
const ErrorHistoryCapacity = 5

// MemoryState tracks how well the learner knows a single item.
// Question positions are counted in answered questions, not wall-clock time.
type MemoryState struct {
	ItemID                string        `json:"item_id"`
	StrengthLevel         StrengthLevel `json:"strength_level"`
	CorrectCount          int           `json:"correct_count"`
	IncorrectCount        int           `json:"incorrect_count"`
	LastSeenAt            int           `json:"last_seen_at"`      // Question index of the last presentation
	NextReviewAfter       int           `json:"next_review_after"` // Questions to wait before the item is due
	TotalExposures        int           `json:"total_exposures"`
	AverageResponseTimeMs float64       `json:"average_response_time_ms"`
	ErrorHistory          []int         `json:"error_history"` // 1 = correct, 0 = incorrect, oldest first
}

// Clone returns a copy that shares no memory with s.
func (s MemoryState) Clone() MemoryState {
	out := s
	if s.ErrorHistory != nil {
		out.ErrorHistory = append([]int(nil), s.ErrorHistory...)
	}
	return out
}
