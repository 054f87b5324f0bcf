package bot

import (
	"time"

	"github.com/example/lettersbot/internal/practice"
	"github.com/example/lettersbot/internal/quiz"
)

// recentWindow is how many of the last asked items are kept out of the next draw
const recentWindow = 2

// quizSession is the learner's ongoing practice round
type quizSession struct {
	stats   *practice.Session
	number  int // number of the question on screen, starting at 1
	current *quiz.Question
	askedAt time.Time
	recent  []string
}

func newQuizSession(now time.Time) *quizSession {
	return &quizSession{stats: practice.NewSession(now)}
}

// exclude returns the items asked most recently
func (s *quizSession) exclude() map[string]bool {
	m := make(map[string]bool, len(s.recent))
	for _, id := range s.recent {
		m[id] = true
	}
	return m
}

func (s *quizSession) ask(q quiz.Question, now time.Time) {
	s.number++
	s.current = &q
	s.askedAt = now
	s.recent = append(s.recent, q.Item.ID)
	if len(s.recent) > recentWindow {
		s.recent = s.recent[len(s.recent)-recentWindow:]
	}
}
