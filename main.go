package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/lettersbot/internal/bot"
	"github.com/example/lettersbot/internal/catalog"
	"github.com/example/lettersbot/internal/config"
	"github.com/example/lettersbot/internal/database"
	"github.com/example/lettersbot/internal/excel"
	"github.com/example/lettersbot/internal/practice"
	"github.com/example/lettersbot/internal/progress"
	"github.com/example/lettersbot/internal/quiz"
	"github.com/example/lettersbot/internal/scheduler"
	"github.com/example/lettersbot/pkg/models"
)

// shutdownTimeout bounds the final progress flush
const shutdownTimeout = 5 * time.Second

var configFile string

func main() {
	root := &cobra.Command{
		Use:           "lettersbot",
		Short:         "Adaptive letter and sound practice over Telegram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./lettersbot.yaml)")
	root.AddCommand(botCommand(), importCommand(), templateCommand(), statsCommand(), resetCommand())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration, installs the logger and opens the database
func setup() (*config.Config, *sqlx.DB, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	db, err := database.Connect(database.Config{
		Type:    cfg.Database.Type,
		DataDir: cfg.Database.DataDir,
		URL:     cfg.Database.URL,
	})
	if err != nil {
		return nil, nil, nil, err
	}
	logger.Debug("database connected", "type", cfg.Database.Type)
	return cfg, db, logger, nil
}

func botCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot and the daily reminder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, logger, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()
			if err := cfg.ValidateBot(); err != nil {
				return err
			}
			loc, _ := cfg.Location()
			ctx := cmd.Context()

			items := catalog.Load(ctx, database.NewItemRepository(db), logger)
			store := progress.NewStore(database.NewSnapshotRepository(db), cfg.Practice.SaveDebounce, logger)
			store.Load(ctx)
			defer func() {
				flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := store.Close(flushCtx); err != nil {
					logger.Error("failed to save progress on shutdown", "error", err)
				}
			}()

			api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
			if err != nil {
				return errors.Wrap(err, "unable to create bot")
			}
			logger.Info("authorized", "account", api.Self.UserName)

			seed := time.Now().UnixNano()
			b, err := bot.New(bot.Deps{
				API:      api,
				Engine:   practice.NewEngine(rand.New(rand.NewSource(seed)), logger),
				Quiz:     quiz.NewBuilder(rand.New(rand.NewSource(seed+1)), quiz.DefaultOptionCount),
				Items:    items,
				Progress: store,
				Sessions: database.NewSessionRepository(db),
				Logger:   logger,
			}, bot.Options{
				LearnerChatID:       cfg.Telegram.LearnerChatID,
				QuestionsPerSession: cfg.Practice.QuestionsPerSession,
				SendRatePerSec:      cfg.Telegram.SendRatePerSec,
				Location:            loc,
			})
			if err != nil {
				return err
			}
			sched := scheduler.New(b, store, cfg.Practice.ReminderHour, loc, logger)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			g, gctx := errgroup.WithContext(runCtx)
			g.Go(func() error {
				defer cancel()
				return b.Run(gctx)
			})
			g.Go(func() error { return sched.Run(gctx) })
			return g.Wait()
		},
	}
}

func importCommand() *cobra.Command {
	importConfig := excel.DefaultImportConfig()
	cmd := &cobra.Command{
		Use:   "import <file.xlsx|file.csv>",
		Short: "Import letters and sounds from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, logger, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()

			importConfig.FilePath = args[0]
			result, err := excel.NewImporter(database.NewItemRepository(db), logger).ImportItems(cmd.Context(), importConfig)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Processed %d rows: %d created, %d updated, %d skipped\n",
				result.TotalProcessed, result.Created, result.Updated, result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintln(out, "  ", e)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&importConfig.SheetName, "sheet", "", "sheet to import (default: first sheet)")
	cmd.Flags().IntVar(&importConfig.StartRow, "start-row", importConfig.StartRow, "first row with data (1-based)")
	cmd.Flags().StringVar(&importConfig.IDColumn, "id-col", importConfig.IDColumn, "column with the item id")
	cmd.Flags().StringVar(&importConfig.LetterColumn, "letter-col", importConfig.LetterColumn, "column with the letter")
	cmd.Flags().StringVar(&importConfig.SoundColumn, "sound-col", importConfig.SoundColumn, "column with the sound")
	cmd.Flags().StringVar(&importConfig.ExampleColumn, "example-col", importConfig.ExampleColumn, "column with an example word")
	cmd.Flags().StringVar(&importConfig.GroupColumn, "group-col", importConfig.GroupColumn, "column with the group")
	return cmd
}

func templateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "template <file.xlsx>",
		Short: "Write an import spreadsheet pre-filled with the current catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, logger, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()

			items := catalog.Load(cmd.Context(), database.NewItemRepository(db), logger)
			if err := excel.WriteTemplate(args[0], items); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d items to %s\n", len(items), args[0])
			return nil
		},
	}
}

func statsCommand() *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the stored learner progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, logger, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()
			ctx := cmd.Context()

			p := progress.NewStore(database.NewSnapshotRepository(db), cfg.Practice.SaveDebounce, logger).Load(ctx)
			sessions, err := database.NewSessionRepository(db).Recent(ctx, recent)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Level:         %d (%d/%d XP, %d total)\n", p.XP.CurrentLevel, p.XP.XPInCurrentLevel, p.XP.XPToNextLevel, p.XP.TotalXP)
			fmt.Fprintf(out, "Answers:       %d (%.1f%% correct)\n", p.TotalQuestionsAnswered, p.GlobalAccuracy*100)
			fmt.Fprintf(out, "Sessions:      %d (%s practiced)\n", p.TotalSessions, time.Duration(p.TotalTimeSpentMs)*time.Millisecond)
			fmt.Fprintf(out, "Streak:        %d (best %d)\n", p.Streak.CurrentStreak, p.Streak.LongestStreak)
			fmt.Fprintf(out, "Daily streak:  %d (best %d, last %s)\n", p.Streak.DailyStreak, p.Streak.LongestDailyStreak, p.Streak.LastPracticeDate)
			fmt.Fprintf(out, "Items:         %d tracked, %d mastered, %d due\n", len(p.MemoryStates), p.CountAtLevel(models.Mastered), scheduler.DueCount(p))
			fmt.Fprintf(out, "Achievements:  %d\n", len(p.Achievements))
			for _, s := range sessions {
				fmt.Fprintf(out, "  %s  %2d/%-2d  %5.1f%%  +%d XP\n",
					s.StartedAt.Format("2006-01-02 15:04"), s.CorrectAnswers, s.TotalQuestions, s.Accuracy*100, s.XPEarned)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&recent, "recent", 5, "number of recent sessions to list")
	return cmd
}

func resetCommand() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored learner progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete progress without --yes")
			}
			_, db, logger, err := setup()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.NewSnapshotRepository(db).DeleteSnapshot(cmd.Context(), progress.SnapshotKey); err != nil {
				return err
			}
			logger.Info("progress deleted")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	return cmd
}
