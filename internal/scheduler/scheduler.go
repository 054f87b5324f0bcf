package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/pkg/errors"

	"github.com/example/lettersbot/internal/gamification"
	sr "github.com/example/lettersbot/internal/spaced_repetition"
	"github.com/example/lettersbot/pkg/models"
)

// Reminder is what the learner is told when they have not practiced today
type Reminder struct {
	DailyStreak  int
	StreakAtRisk bool
	DueItems     int
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// ProgressSource returns the latest learner snapshot
type ProgressSource interface {
	Current() models.UserProgress
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	progress  ProgressSource
	hour      int
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a scheduler that checks once a day at hour in loc
func New(notifier Notifier, progress ProgressSource, hour int, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(loc),
		notifier:  notifier,
		progress:  progress,
		hour:      hour,
		loc:       loc,
		now:       time.Now,
		logger:    logger.With("component", "scheduler"),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", s.hour)).Do(s.checkAndSendReminder)
	if err != nil {
		return errors.Wrap(err, "failed to schedule reminder")
	}
	s.scheduler.StartAsync()
	s.logger.Info("reminders scheduled", "hour", s.hour, "timezone", s.loc.String())
	return nil
}

// Run starts the scheduler and blocks until ctx is done
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.RunManualCheck(ctx); err != nil {
		s.logger.Error("failed to send reminder", "error", err)
	}
}

// RunManualCheck sends a reminder now if one is due
func (s *Scheduler) RunManualCheck(ctx context.Context) error {
	r, ok := Check(s.progress.Current(), s.now().In(s.loc))
	if !ok {
		s.logger.Debug("no reminder needed")
		return nil
	}
	s.logger.Info("sending reminder", "daily_streak", r.DailyStreak, "at_risk", r.StreakAtRisk, "due_items", r.DueItems)
	return s.notifier.SendReminder(ctx, r)
}

// Check decides whether the learner should be reminded at now. Nobody is
// reminded on a day they already practiced.
func Check(p models.UserProgress, now time.Time) (Reminder, bool) {
	if p.Streak.LastPracticeDate == now.Format(gamification.DateLayout) {
		return Reminder{}, false
	}
	r := Reminder{
		DailyStreak:  p.Streak.DailyStreak,
		StreakAtRisk: gamification.StreakAtRisk(p.Streak, now),
		DueItems:     DueCount(p),
	}
	return r, r.StreakAtRisk || r.DueItems > 0
}

// DueCount is the number of already practiced items due at the learner's
// next question
func DueCount(p models.UserProgress) int {
	n := 0
	for _, st := range p.MemoryStates {
		if st.TotalExposures > 0 && sr.IsDue(st, p.TotalQuestionsAnswered) {
			n++
		}
	}
	return n
}
