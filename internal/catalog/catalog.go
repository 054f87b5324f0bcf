// Package catalog provides the set of letters and sounds that can be practiced.
package catalog

import (
	"context"
	"log/slog"

	"github.com/example/lettersbot/pkg/models"
)

// Item groups. Distractors are drawn from the same group first.
const (
	GroupVowel     = "vowel"
	GroupConsonant = "consonant"
	GroupDigraph   = "digraph"
)

func item(id, letter, sound, example, group string) models.Item {
	return models.Item{ID: id, Letter: letter, Sound: sound, Example: example, Group: group}
}

var defaults = []models.Item{
	item("a", "A", "/æ/", "apple", GroupVowel),
	item("b", "B", "/b/", "ball", GroupConsonant),
	item("c", "C", "/k/", "cat", GroupConsonant),
	item("d", "D", "/d/", "dog", GroupConsonant),
	item("e", "E", "/ɛ/", "egg", GroupVowel),
	item("f", "F", "/f/", "fish", GroupConsonant),
	item("g", "G", "/g/", "goat", GroupConsonant),
	item("h", "H", "/h/", "hat", GroupConsonant),
	item("i", "I", "/ɪ/", "igloo", GroupVowel),
	item("j", "J", "/dʒ/", "jam", GroupConsonant),
	item("k", "K", "/k/", "kite", GroupConsonant),
	item("l", "L", "/l/", "lion", GroupConsonant),
	item("m", "M", "/m/", "moon", GroupConsonant),
	item("n", "N", "/n/", "nest", GroupConsonant),
	item("o", "O", "/ɒ/", "octopus", GroupVowel),
	item("p", "P", "/p/", "pig", GroupConsonant),
	item("q", "Q", "/kw/", "queen", GroupConsonant),
	item("r", "R", "/r/", "rabbit", GroupConsonant),
	item("s", "S", "/s/", "sun", GroupConsonant),
	item("t", "T", "/t/", "tiger", GroupConsonant),
	item("u", "U", "/ʌ/", "umbrella", GroupVowel),
	item("v", "V", "/v/", "van", GroupConsonant),
	item("w", "W", "/w/", "web", GroupConsonant),
	item("x", "X", "/ks/", "fox", GroupConsonant),
	item("y", "Y", "/j/", "yo-yo", GroupConsonant),
	item("z", "Z", "/z/", "zebra", GroupConsonant),
	item("sh", "SH", "/ʃ/", "ship", GroupDigraph),
	item("ch", "CH", "/tʃ/", "chin", GroupDigraph),
	item("th", "TH", "/θ/", "thumb", GroupDigraph),
	item("ng", "NG", "/ŋ/", "ring", GroupDigraph),
}

// Defaults returns a copy of the built-in items.
func Defaults() []models.Item {
	return append([]models.Item(nil), defaults...)
}

// Source lists stored items.
type Source interface {
	GetAll(ctx context.Context) ([]models.Item, error)
}

// Load returns the stored items, or the built-in set when nothing is stored
// or the source fails.
func Load(ctx context.Context, src Source, logger *slog.Logger) []models.Item {
	if logger == nil {
		logger = slog.Default()
	}
	if src == nil {
		return Defaults()
	}
	items, err := src.GetAll(ctx)
	if err != nil {
		logger.Warn("failed to load items, using built-in catalog", "error", err)
		return Defaults()
	}
	if len(items) == 0 {
		logger.Info("no imported items, using built-in catalog", "items", len(defaults))
		return Defaults()
	}
	logger.Info("catalog loaded", "items", len(items))
	return items
}

// IDs returns the ids of items in order.
func IDs(items []models.Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// Index maps item ids to items.
func Index(items []models.Item) map[string]models.Item {
	m := make(map[string]models.Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}
