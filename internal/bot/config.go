package bot

import (
	"time"
)

// Options represents the configuration for the bot
type Options struct {
	// Chat of the single learner; updates from other chats are ignored
	LearnerChatID int64
	// Number of questions in one practice session
	QuestionsPerSession int
	// Upper bound for outgoing messages per second
	SendRatePerSec float64
	// Time zone used for daily streaks
	Location *time.Location
}

// DefaultOptions returns the default bot configuration
func DefaultOptions() Options {
	return Options{
		QuestionsPerSession: 10,
		SendRatePerSec:      20,
		Location:            time.UTC,
	}
}
