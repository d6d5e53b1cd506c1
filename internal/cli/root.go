package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/example/langler/internal/cache"
	"github.com/example/langler/internal/config"
	"github.com/example/langler/internal/database"
	"github.com/example/langler/internal/level"
	"github.com/example/langler/internal/review"
	"github.com/example/langler/internal/spaced_repetition"
)

type rootOptions struct {
	envFile  string
	logLevel string
}

// NewRootCommand builds the langler command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "langler",
		Short:         "Spaced repetition vocabulary trainer",
		Long:          "Langler schedules vocabulary reviews with FSRS and serves them through a Telegram bot.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "path to a .env file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newServeCmd(opts),
		newReviewCmd(opts),
		newReplayCmd(opts),
		newLevelCmd(opts),
		newQueueCmd(opts),
		newExportCmd(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	db     *sqlx.DB

	users *database.UserRepository
	words *database.WordRepository
	items *database.ItemRepository
	logs  *database.ReviewLogRepository

	table   *cache.Table
	levels  *level.Service
	reviews *review.Service
}

func newLogger(level string) (*log.Logger, error) {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "langler",
	})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)
	return logger, nil
}

func openApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	sched, err := spaced_repetition.NewScheduler(cfg.SchedulerParameters())
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		users:  database.NewUserRepository(db),
		words:  database.NewWordRepository(db),
		items:  database.NewItemRepository(db),
		logs:   database.NewReviewLogRepository(db),
		table:  cache.NewTable(),
	}
	summaries := cache.New[level.Summary](a.table, level.Namespace, cache.WithTTL(cfg.LevelCacheTTL))
	a.levels = level.NewService(a.items, summaries, level.WithLogger(logger.WithPrefix("level")))
	a.reviews = review.NewService(sched, a.items, a.logs, a.levels, logger.WithPrefix("review"))
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
