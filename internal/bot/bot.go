package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/example/lettersbot/internal/catalog"
	"github.com/example/lettersbot/internal/database"
	"github.com/example/lettersbot/internal/practice"
	"github.com/example/lettersbot/internal/quiz"
	"github.com/example/lettersbot/pkg/models"
)

// MenuButton represents a button in the menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// TelegramAPI is the part of *tgbotapi.BotAPI the bot uses
type TelegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ProgressStore owns the learner snapshot
type ProgressStore interface {
	Current() models.UserProgress
	Save(p models.UserProgress)
}

// SessionRepository keeps finished sessions
type SessionRepository interface {
	Create(ctx context.Context, stats models.QuizSessionStats) error
	SummarySince(ctx context.Context, since time.Time) (database.SessionSummary, error)
}

// Deps are the collaborators of the bot
type Deps struct {
	API      TelegramAPI
	Engine   *practice.Engine
	Quiz     *quiz.Builder
	Items    []models.Item
	Progress ProgressStore
	Sessions SessionRepository
	Logger   *slog.Logger
}

// Bot represents the Telegram bot application
type Bot struct {
	api      TelegramAPI
	engine   *practice.Engine
	quiz     *quiz.Builder
	items    []models.Item
	index    map[string]models.Item
	progress ProgressStore
	sessions SessionRepository
	opts     Options
	limiter  *rate.Limiter
	logger   *slog.Logger
	now      func() time.Time

	// mu serializes everything that reads or replaces the learner snapshot
	mu      sync.Mutex
	session *quizSession
}

// New creates a new bot instance
func New(deps Deps, opts Options) (*Bot, error) {
	if deps.API == nil || deps.Engine == nil || deps.Quiz == nil || deps.Progress == nil || deps.Sessions == nil {
		return nil, errors.New("bot: missing dependency")
	}
	if len(deps.Items) < 2 {
		return nil, errors.Wrap(quiz.ErrNotEnoughItems, "bot")
	}
	defaults := DefaultOptions()
	if opts.QuestionsPerSession <= 0 {
		opts.QuestionsPerSession = defaults.QuestionsPerSession
	}
	if opts.SendRatePerSec <= 0 {
		opts.SendRatePerSec = defaults.SendRatePerSec
	}
	if opts.Location == nil {
		opts.Location = defaults.Location
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Bot{
		api:      deps.API,
		engine:   deps.Engine,
		quiz:     deps.Quiz,
		items:    deps.Items,
		index:    catalog.Index(deps.Items),
		progress: deps.Progress,
		sessions: deps.Sessions,
		opts:     opts,
		limiter:  rate.NewLimiter(rate.Limit(opts.SendRatePerSec), 1),
		logger:   logger.With("component", "bot"),
		now:      time.Now,
	}, nil
}

// Run receives updates until ctx is done
func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)
	b.logger.Info("bot started", "learner_chat_id", b.opts.LearnerChatID)

	for {
		select {
		case <-ctx.Done():
			b.Stop()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

// Stop stops receiving updates. An unfinished session is dropped; the
// answers it recorded are already part of the saved progress.
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
	b.mu.Lock()
	b.session = nil
	b.mu.Unlock()
	b.logger.Info("bot stopped")
}

// clock returns the current time in the learner's zone
func (b *Bot) clock() time.Time {
	return b.now().In(b.opts.Location)
}

// handleUpdate handles incoming updates from Telegram
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	chat := update.FromChat()
	if chat == nil || chat.ID != b.opts.LearnerChatID {
		if chat != nil {
			b.logger.Debug("ignoring update from unknown chat", "chat_id", chat.ID)
		}
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	switch {
	case update.Message != nil && update.Message.IsCommand():
		err = b.handleCommand(ctx, update.Message.Command())
	case update.Message != nil:
		err = b.showMainMenu(ctx, "Use the buttons below or /practice to start.")
	case update.CallbackQuery != nil:
		err = b.handleCallback(ctx, update.CallbackQuery)
	}
	if err != nil {
		b.logger.Error("failed to handle update", "update_id", update.UpdateID, "error", err)
	}
}

// send paces outgoing messages with the rate limiter
func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "send cancelled")
	}
	if _, err := b.api.Send(c); err != nil {
		return errors.Wrap(err, "failed to send message")
	}
	return nil
}

func (b *Bot) sendText(ctx context.Context, text string, buttons [][]MenuButton) error {
	msg := tgbotapi.NewMessage(b.opts.LearnerChatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = createKeyboard(buttons)
	}
	return b.send(ctx, msg)
}
