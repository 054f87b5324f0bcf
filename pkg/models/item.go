package models

import "time"

// Item represents a single learnable letter and the sound it makes
type Item struct {
	ID        string    `json:"id" db:"id"`         // Stable identifier, e.g. "a" or "sh"
	Letter    string    `json:"letter" db:"letter"` // What the learner picks, e.g. "A"
	Sound     string    `json:"sound" db:"sound"`   // Phonetic hint shown in the prompt, e.g. "/æ/"
	Example   string    `json:"example" db:"example"`
	Group     string    `json:"group" db:"item_group"` // vowel, consonant, digraph ...
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
