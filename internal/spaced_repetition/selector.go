package spaced_repetition

import (
	"math"
	"sort"

	"github.com/example/lettersbot/pkg/models"
)

// Priority weights
const (
	dueBonus         = 1000.0
	weaknessWeight   = 100.0
	errorRateWeight  = 50.0
	unseenBonus      = 150.0
	recencyWeight    = 2.0
	recencyCap       = 100.0
	candidatePercent = 30
)

// Rand is the random source used for weighted selection and shuffling.
// *math/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// IsDue reports whether the item's review interval has elapsed at questionIndex.
func IsDue(state models.MemoryState, questionIndex int) bool {
	return questionIndex-state.LastSeenAt >= state.NextReviewAfter
}

// Priority scores how urgently an item should be shown; higher is more urgent.
// Due items outrank everything else, weaker and error-prone items come next,
// unseen items get a boost below due reviews, and long-unseen items slowly
// climb even before they are due.
func Priority(state models.MemoryState, questionIndex int) float64 {
	score := 0.0
	if IsDue(state, questionIndex) {
		score += dueBonus
	}
	score += float64(models.Mastered-state.StrengthLevel) * weaknessWeight
	score += RecentErrorRate(state.ErrorHistory, 0) * errorRateWeight
	if state.TotalExposures == 0 {
		score += unseenBonus
	}
	since := float64(questionIndex - state.LastSeenAt)
	score += math.Min(recencyWeight*since, recencyCap)
	return score
}

// Candidate is an item together with its priority at selection time.
type Candidate struct {
	ItemID   string
	Priority float64
}

// Selector picks the next item to practice.
type Selector struct {
	rng Rand
}

// NewSelector creates a selector drawing from rng
func NewSelector(rng Rand) *Selector {
	return &Selector{rng: rng}
}

// Rank returns every non-excluded item sorted by priority, highest first.
// Ties are broken by item id so the order is stable.
func Rank(states map[string]models.MemoryState, questionIndex int, exclude map[string]bool) []Candidate {
	candidates := make([]Candidate, 0, len(states))
	for id, s := range states {
		if exclude[id] {
			continue
		}
		candidates = append(candidates, Candidate{ItemID: id, Priority: Priority(s, questionIndex)})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ItemID < candidates[j].ItemID
	})
	return candidates
}

// SelectNext draws the next item from the top 30% of ranked candidates,
// weighting each by its priority. It returns false when every item is excluded
// or states is empty; the caller decides how to recover (usually by clearing
// the exclusions). Missing states are never synthesized here.
func (s *Selector) SelectNext(states map[string]models.MemoryState, questionIndex int, exclude map[string]bool) (string, bool) {
	ranked := Rank(states, questionIndex, exclude)
	if len(ranked) == 0 {
		return "", false
	}

	top := max(1, (len(ranked)*candidatePercent+99)/100)
	pool := ranked[:top]

	total := 0.0
	for _, c := range pool {
		total += c.Priority
	}
	if total <= 0 {
		return pool[s.rng.Intn(len(pool))].ItemID, true
	}

	r := s.rng.Float64() * total
	cumulative := 0.0
	for _, c := range pool {
		cumulative += c.Priority
		if r < cumulative {
			return c.ItemID, true
		}
	}
	// Float rounding can leave r at the very end of the range.
	return pool[len(pool)-1].ItemID, true
}
