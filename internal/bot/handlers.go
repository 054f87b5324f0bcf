package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"

	"github.com/example/lettersbot/internal/catalog"
	"github.com/example/lettersbot/internal/gamification"
	"github.com/example/lettersbot/internal/practice"
	"github.com/example/lettersbot/internal/scheduler"
	"github.com/example/lettersbot/pkg/models"
)

// Constants for callback data
const (
	callbackPractice     = "practice"
	callbackStats        = "stats"
	callbackAchievements = "achievements"
	callbackStop         = "stop"
	callbackAnswerPrefix = "ans:"
)

// MainMenuButtons returns the buttons for the main menu
func MainMenuButtons() [][]MenuButton {
	return [][]MenuButton{
		{
			{Text: "🎯 Practice", CallbackData: callbackPractice},
		},
		{
			{Text: "📊 Statistics", CallbackData: callbackStats},
			{Text: "🏆 Achievements", CallbackData: callbackAchievements},
		},
	}
}

func (b *Bot) handleCommand(ctx context.Context, command string) error {
	switch command {
	case "start", "menu":
		return b.handleStart(ctx)
	case "practice":
		return b.handlePractice(ctx)
	case "stats":
		return b.handleStats(ctx)
	case "achievements":
		return b.handleAchievements(ctx)
	case "stop":
		return b.handleStop(ctx)
	default:
		return b.showMainMenu(ctx, "Unknown command. Choose an option:")
	}
}

func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		b.logger.Warn("failed to answer callback", "error", err)
	}

	switch data := callback.Data; {
	case data == callbackPractice:
		return b.handlePractice(ctx)
	case data == callbackStats:
		return b.handleStats(ctx)
	case data == callbackAchievements:
		return b.handleAchievements(ctx)
	case data == callbackStop:
		return b.handleStop(ctx)
	case strings.HasPrefix(data, callbackAnswerPrefix):
		number, choice, err := parseAnswer(data)
		if err != nil {
			return err
		}
		return b.handleAnswer(ctx, number, choice)
	default:
		b.logger.Debug("unknown callback", "data", data)
		return nil
	}
}

func (b *Bot) handleStart(ctx context.Context) error {
	text := "👋 Welcome to Letters & Sounds!\n\n" +
		"Each question plays a sound or shows a letter; pick the matching answer.\n" +
		"Letters you find hard come back sooner, the ones you know come back later.\n\n" +
		"/practice - start a session\n" +
		"/stats - your progress\n" +
		"/achievements - what you have earned\n" +
		"/stop - end the current session"
	return b.sendText(ctx, text, MainMenuButtons())
}

func (b *Bot) showMainMenu(ctx context.Context, text string) error {
	return b.sendText(ctx, text, MainMenuButtons())
}

func (b *Bot) handlePractice(ctx context.Context) error {
	if b.session != nil && b.session.current != nil {
		return b.sendQuestion(ctx)
	}

	p := practice.EnsureItems(b.progress.Current(), catalog.IDs(b.items))
	b.progress.Save(p)
	b.session = newQuizSession(b.clock())
	b.logger.Info("session started", "session_id", b.session.stats.ID)
	return b.askNext(ctx, p)
}

// askNext picks the next item and sends its question
func (b *Bot) askNext(ctx context.Context, p models.UserProgress) error {
	id, ok := b.engine.SelectNextItem(b.selectable(p), p.TotalQuestionsAnswered, b.session.exclude())
	if !ok {
		b.session = nil
		return b.sendText(ctx, "There is nothing to practice yet.", nil)
	}

	q, err := b.quiz.BuildRandom(b.index[id], b.items)
	if err != nil {
		b.session = nil
		return errors.Wrapf(err, "failed to build question for %q", id)
	}
	b.session.ask(q, b.clock())
	return b.sendQuestion(ctx)
}

// selectable limits the snapshot to items the catalog can ask about
func (b *Bot) selectable(p models.UserProgress) models.UserProgress {
	states := make(map[string]models.MemoryState, len(b.index))
	for id, st := range p.MemoryStates {
		if _, ok := b.index[id]; ok {
			states[id] = st
		}
	}
	return models.UserProgress{MemoryStates: states}
}

func (b *Bot) sendQuestion(ctx context.Context) error {
	s := b.session
	q := s.current
	buttons := make([][]MenuButton, 0, len(q.Options)/2+2)
	var row []MenuButton
	for i, opt := range q.Options {
		row = append(row, MenuButton{Text: opt, CallbackData: fmt.Sprintf("%s%d:%d", callbackAnswerPrefix, s.number, i)})
		if len(row) == 2 {
			buttons = append(buttons, row)
			row = nil
		}
	}
	if len(row) > 0 {
		buttons = append(buttons, row)
	}
	buttons = append(buttons, []MenuButton{{Text: "⏹ Stop", CallbackData: callbackStop}})

	text := fmt.Sprintf("Question %d/%d\n\n%s", s.number, b.opts.QuestionsPerSession, q.Prompt)
	return b.sendText(ctx, text, buttons)
}

func parseAnswer(data string) (int, int, error) {
	parts := strings.Split(strings.TrimPrefix(data, callbackAnswerPrefix), ":")
	if len(parts) != 2 {
		return 0, 0, errors.Errorf("malformed answer %q", data)
	}
	number, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "malformed answer %q", data)
	}
	choice, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, errors.Wrapf(err, "malformed answer %q", data)
	}
	return number, choice, nil
}

func (b *Bot) handleAnswer(ctx context.Context, number, choice int) error {
	s := b.session
	if s == nil || s.current == nil || number != s.number {
		b.logger.Debug("ignoring stale answer", "question", number)
		return nil
	}
	q := *s.current
	s.current = nil

	now := b.clock()
	p := b.progress.Current()
	p, out := b.engine.RecordAnswer(p, practice.Answer{
		ItemID:         q.Item.ID,
		Correct:        q.IsCorrect(choice),
		ResponseTimeMs: float64(now.Sub(s.askedAt).Milliseconds()),
		QuestionIndex:  p.TotalQuestionsAnswered,
		At:             now,
	})
	s.stats.Record(out)
	b.progress.Save(p)

	var text strings.Builder
	if out.Correct {
		fmt.Fprintf(&text, "✅ Correct! +%d XP", out.XPEarned)
		if p.Streak.CurrentStreak >= 3 {
			fmt.Fprintf(&text, "  🔥 %d in a row", p.Streak.CurrentStreak)
		}
	} else {
		fmt.Fprintf(&text, "❌ The answer was %s", q.Answer())
	}
	if q.Item.Example != "" {
		fmt.Fprintf(&text, "\n%s %s as in \"%s\"", q.Item.Letter, q.Item.Sound, q.Item.Example)
	}
	if out.LevelUp.LeveledUp {
		fmt.Fprintf(&text, "\n\n🎉 Level up! You are now level %d", out.LevelUp.Level)
	}
	if err := b.sendText(ctx, text.String(), nil); err != nil {
		return err
	}
	if err := b.announceAchievements(ctx); err != nil {
		return err
	}

	if s.stats.Answered() >= b.opts.QuestionsPerSession {
		return b.finishSession(ctx)
	}
	return b.askNext(ctx, b.progress.Current())
}

// announceAchievements tells the learner about unseen achievements and marks them seen
func (b *Bot) announceAchievements(ctx context.Context) error {
	p := b.progress.Current()
	unseen := gamification.Unseen(p)
	if len(unseen) == 0 {
		return nil
	}

	ids := make([]string, 0, len(unseen))
	var text strings.Builder
	text.WriteString("🏅 Achievement unlocked!")
	for _, u := range unseen {
		ids = append(ids, u.ID)
		if a, ok := gamification.Lookup(u.ID); ok {
			fmt.Fprintf(&text, "\n%s %s (%s, +%d XP)\n%s", a.Icon, a.Name, a.Rarity, a.XPReward, a.Description)
		}
	}
	if err := b.sendText(ctx, text.String(), nil); err != nil {
		return err
	}
	b.progress.Save(gamification.MarkSeen(p, ids))
	return nil
}

func (b *Bot) finishSession(ctx context.Context) error {
	s := b.session
	b.session = nil
	now := b.clock()

	p, stats, _ := b.engine.CompleteSession(b.progress.Current(), s.stats.Finalize(now), now)
	b.progress.Save(p)
	if err := b.sessions.Create(ctx, stats); err != nil {
		b.logger.Error("failed to record session", "session_id", stats.ID, "error", err)
	}

	text := fmt.Sprintf("Session complete!\n\n✅ %d/%d correct (%.0f%%)\n⭐ +%d XP\n⏱ %s",
		stats.CorrectAnswers, stats.TotalQuestions, stats.Accuracy*100, stats.XPEarned,
		(time.Duration(stats.DurationMs) * time.Millisecond).Round(time.Second))
	if stats.Perfect {
		text += "\n💎 Perfect round!"
	}
	if err := b.sendText(ctx, text, MainMenuButtons()); err != nil {
		return err
	}
	return b.announceAchievements(ctx)
}

func (b *Bot) handleStop(ctx context.Context) error {
	if b.session == nil {
		return b.showMainMenu(ctx, "No session is running.")
	}
	if b.session.stats.Answered() == 0 {
		b.session = nil
		return b.showMainMenu(ctx, "Session cancelled.")
	}
	return b.finishSession(ctx)
}

func (b *Bot) handleStats(ctx context.Context) error {
	p := b.progress.Current()
	now := b.clock()

	var text strings.Builder
	text.WriteString("📊 Your progress\n\n")
	fmt.Fprintf(&text, "Level %d  (%d/%d XP, %d total)\n", p.XP.CurrentLevel, p.XP.XPInCurrentLevel, p.XP.XPToNextLevel, p.XP.TotalXP)
	fmt.Fprintf(&text, "Answers: %d, accuracy %.0f%%\n", p.TotalQuestionsAnswered, p.GlobalAccuracy*100)
	fmt.Fprintf(&text, "Streak: %d correct (best %d)\n", p.Streak.CurrentStreak, p.Streak.LongestStreak)
	fmt.Fprintf(&text, "Daily streak: %d days (best %d)", p.Streak.DailyStreak, p.Streak.LongestDailyStreak)
	if p.Streak.FreezeAvailable {
		text.WriteString(" 🧊")
	}
	text.WriteString("\n\n")

	for level := models.Mastered; level >= models.New; level-- {
		n := 0
		for _, st := range p.MemoryStates {
			if st.StrengthLevel == level {
				n++
			}
		}
		fmt.Fprintf(&text, "%s: %d\n", level, n)
	}
	fmt.Fprintf(&text, "Due for review: %d\n", scheduler.DueCount(p))

	week, err := b.sessions.SummarySince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		b.logger.Warn("failed to summarize sessions", "error", err)
	} else if week.Sessions > 0 {
		fmt.Fprintf(&text, "\nLast 7 days: %d sessions, %d questions, %.0f%% average, %d XP",
			week.Sessions, week.Questions, week.AvgAccuracy*100, week.TotalXP)
	}
	return b.sendText(ctx, text.String(), MainMenuButtons())
}

func (b *Bot) handleAchievements(ctx context.Context) error {
	p := b.progress.Current()

	var text strings.Builder
	fmt.Fprintf(&text, "🏆 Achievements %d/%d\n", len(p.Achievements), len(gamification.Achievements))
	for _, a := range gamification.Achievements {
		if p.HasAchievement(a.ID) {
			fmt.Fprintf(&text, "\n%s %s: %s", a.Icon, a.Name, a.Description)
		} else {
			fmt.Fprintf(&text, "\n🔒 %s: %s", a.Name, a.Description)
		}
	}
	return b.sendText(ctx, text.String(), MainMenuButtons())
}

// SendReminder implements scheduler.Notifier
func (b *Bot) SendReminder(ctx context.Context, r scheduler.Reminder) error {
	var text string
	switch {
	case r.StreakAtRisk:
		text = fmt.Sprintf("🔥 Your %d-day streak ends today unless you practice!", r.DailyStreak)
	default:
		text = "📚 Time for a quick practice!"
	}
	if r.DueItems > 0 {
		text += fmt.Sprintf("\n%d letters are waiting for review.", r.DueItems)
	}
	return b.sendText(ctx, text, [][]MenuButton{{{Text: "🎯 Practice", CallbackData: callbackPractice}}})
}
