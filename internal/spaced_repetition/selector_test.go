package spaced_repetition

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/lettersbot/pkg/models"
)

// fixedRand always returns the same draw.
type fixedRand struct {
	f float64
	n int
}

func (r fixedRand) Float64() float64 { return r.f }
func (r fixedRand) Intn(int) int     { return r.n }

func seenState(id string, level models.StrengthLevel, lastSeen int) models.MemoryState {
	return models.MemoryState{
		ItemID:          id,
		StrengthLevel:   level,
		LastSeenAt:      lastSeen,
		NextReviewAfter: ReviewInterval(level),
		TotalExposures:  3,
		CorrectCount:    3,
		ErrorHistory:    []int{},
	}
}

func TestIsDue(t *testing.T) {
	s := seenState("a", models.Learning, 10)
	assert.False(t, IsDue(s, 14))
	assert.True(t, IsDue(s, 15))
	assert.True(t, IsDue(s, 40))
}

func TestPriority(t *testing.T) {
	unseen := NewMemoryState("a")
	assert.InDelta(t, 450, Priority(unseen, 0), 1e-9)
	// due, weakness 300, unseen 150, recency 2*2
	assert.InDelta(t, 1454, Priority(unseen, 2), 1e-9)

	s := seenState("b", models.Familiar, 0)
	s.ErrorHistory = []int{1, 0, 1, 0, 1}
	// not due: weakness 100, error rate 0.4*50, recency 2*14
	assert.InDelta(t, 148, Priority(s, 14), 1e-9)
	// due, recency capped at 100
	assert.InDelta(t, 1220, Priority(s, 80), 1e-9)
}

func TestDueItemOutranksNotDue(t *testing.T) {
	for level := models.New; level <= models.Mastered; level++ {
		due := seenState("due", level, 0)
		fresh := seenState("fresh", level, 100)
		q := 100 + ReviewInterval(level) - 1
		due.LastSeenAt = q - ReviewInterval(level)

		require.True(t, IsDue(due, q))
		require.False(t, IsDue(fresh, q))
		assert.Greater(t, Priority(due, q), Priority(fresh, q), level.String())
	}
}

func TestSelectNextEmptyPool(t *testing.T) {
	sel := NewSelector(fixedRand{})

	_, ok := sel.SelectNext(nil, 0, nil)
	assert.False(t, ok)

	states := map[string]models.MemoryState{"a": NewMemoryState("a"), "b": NewMemoryState("b")}
	_, ok = sel.SelectNext(states, 0, map[string]bool{"a": true, "b": true})
	assert.False(t, ok)
}

func TestSelectNextSingleCandidate(t *testing.T) {
	sel := NewSelector(fixedRand{f: 0.99})
	states := map[string]models.MemoryState{"a": NewMemoryState("a"), "b": NewMemoryState("b")}

	id, ok := sel.SelectNext(states, 0, map[string]bool{"a": true})
	require.True(t, ok)
	assert.Equal(t, "b", id)
}

func TestSelectNextDrawsFromTopThirty(t *testing.T) {
	states := make(map[string]models.MemoryState)
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("item%02d", i)
		states[id] = seenState(id, models.Mastered, 0)
	}
	// Three weak items dominate the ranking.
	states["item07"] = seenState("item07", models.New, 0)
	states["item08"] = seenState("item08", models.Learning, 0)
	states["item09"] = seenState("item09", models.Familiar, 0)

	ranked := Rank(states, 1, nil)
	require.Len(t, ranked, 10)
	assert.Equal(t, []string{"item07", "item08", "item09"},
		[]string{ranked[0].ItemID, ranked[1].ItemID, ranked[2].ItemID})

	first, ok := NewSelector(fixedRand{f: 0}).SelectNext(states, 1, nil)
	require.True(t, ok)
	assert.Equal(t, "item07", first)

	last, ok := NewSelector(fixedRand{f: 0.9999}).SelectNext(states, 1, nil)
	require.True(t, ok)
	assert.Equal(t, "item09", last, "draws never leave the top 3 of 10")
}

func TestSelectNextZeroWeightsFallsBackToUniform(t *testing.T) {
	states := map[string]models.MemoryState{
		"x": seenState("x", models.Mastered, 5),
		"y": seenState("y", models.Mastered, 5),
	}
	require.Zero(t, Priority(states["x"], 5))

	id, ok := NewSelector(fixedRand{n: 0}).SelectNext(states, 5, nil)
	require.True(t, ok)
	assert.Equal(t, "x", id)
}

func TestSelectNextIsReproducibleWithSeed(t *testing.T) {
	states := make(map[string]models.MemoryState)
	for i := 0; i < 26; i++ {
		id := string(rune('a' + i))
		states[id] = seenState(id, models.StrengthLevel(i%4), i)
	}

	draw := func(seed int64) []string {
		sel := NewSelector(rand.New(rand.NewSource(seed)))
		out := make([]string, 0, 20)
		for q := 30; q < 50; q++ {
			id, ok := sel.SelectNext(states, q, nil)
			require.True(t, ok)
			out = append(out, id)
		}
		return out
	}

	assert.Equal(t, draw(42), draw(42))
}
