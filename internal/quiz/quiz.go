package quiz

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/example/lettersbot/pkg/models"
)

// ErrNotEnoughItems is returned when the pool cannot supply a single distractor.
var ErrNotEnoughItems = errors.New("quiz: not enough items for a question")

// DefaultOptionCount is the number of answer buttons per question.
const DefaultOptionCount = 4

// QuestionType represents the direction of a question
type QuestionType string

const (
	// SoundToLetter shows a sound and asks for the letter
	SoundToLetter QuestionType = "sound_to_letter"
	// LetterToSound shows a letter and asks for its sound
	LetterToSound QuestionType = "letter_to_sound"
)

var questionTypes = []QuestionType{SoundToLetter, LetterToSound}

// Question is a single multiple choice question
type Question struct {
	Item         models.Item
	Type         QuestionType
	Prompt       string
	Options      []string
	CorrectIndex int
}

// IsCorrect reports whether choice is the index of the right option.
func (q Question) IsCorrect(choice int) bool {
	return choice == q.CorrectIndex
}

// Answer returns the text of the right option.
func (q Question) Answer() string {
	return q.Options[q.CorrectIndex]
}

// Rand is the randomness the builder needs. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// Builder creates questions from a pool of items
type Builder struct {
	rng         Rand
	optionCount int
}

// NewBuilder creates a builder producing optionCount options per question.
func NewBuilder(rng Rand, optionCount int) *Builder {
	if optionCount < 2 {
		optionCount = DefaultOptionCount
	}
	return &Builder{rng: rng, optionCount: optionCount}
}

// BuildRandom builds a question of a randomly chosen type.
func (b *Builder) BuildRandom(item models.Item, pool []models.Item) (Question, error) {
	return b.Build(item, pool, questionTypes[b.rng.Intn(len(questionTypes))])
}

// Build creates a question about item. Distractors come from the same group
// first and from the rest of the pool after that.
func (b *Builder) Build(item models.Item, pool []models.Item, qt QuestionType) (Question, error) {
	answer := optionText(item, qt)
	distractors := b.distractors(item, pool, qt, b.optionCount-1)
	if len(distractors) == 0 {
		return Question{}, errors.Wrapf(ErrNotEnoughItems, "item %q", item.ID)
	}

	options := append(distractors, answer)
	correctIndex := len(options) - 1
	b.rng.Shuffle(len(options), func(i, j int) {
		if i == correctIndex {
			correctIndex = j
		} else if j == correctIndex {
			correctIndex = i
		}
		options[i], options[j] = options[j], options[i]
	})

	return Question{
		Item:         item,
		Type:         qt,
		Prompt:       prompt(item, qt),
		Options:      options,
		CorrectIndex: correctIndex,
	}, nil
}

// distractors picks up to count option texts that differ from the answer and
// from each other. Items that share the prompt with item would also be right
// answers and are never offered.
func (b *Builder) distractors(item models.Item, pool []models.Item, qt QuestionType, count int) []string {
	var sameGroup, others []models.Item
	for _, it := range pool {
		if it.ID == item.ID || promptText(it, qt) == promptText(item, qt) {
			continue
		}
		if it.Group != "" && it.Group == item.Group {
			sameGroup = append(sameGroup, it)
		} else {
			others = append(others, it)
		}
	}
	b.shuffle(sameGroup)
	b.shuffle(others)

	used := map[string]bool{optionText(item, qt): true}
	options := make([]string, 0, count)
	for _, it := range append(sameGroup, others...) {
		if len(options) == count {
			break
		}
		text := optionText(it, qt)
		if text == "" || used[text] {
			continue
		}
		used[text] = true
		options = append(options, text)
	}
	return options
}

func (b *Builder) shuffle(items []models.Item) {
	b.rng.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}

func optionText(item models.Item, qt QuestionType) string {
	if qt == LetterToSound {
		return item.Sound
	}
	return item.Letter
}

func promptText(item models.Item, qt QuestionType) string {
	if qt == LetterToSound {
		return item.Letter
	}
	return item.Sound
}

func prompt(item models.Item, qt QuestionType) string {
	if qt == LetterToSound {
		return fmt.Sprintf("Which sound does %s make?", item.Letter)
	}
	return fmt.Sprintf("Which letter makes the sound %s?", item.Sound)
}
