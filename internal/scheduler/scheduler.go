package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-co-op/gocron"

	"github.com/example/langler/pkg/models"
)

// Notifier sends review reminders to a user.
type Notifier interface {
	SendReminders(userID int64, count int) error
}

// UserSource lists users subscribed to reminders at an hour of day.
type UserSource interface {
	UsersForNotification(ctx context.Context, hour int) ([]models.User, error)
}

// DueCounter counts the items a user has due.
type DueCounter interface {
	CountDue(ctx context.Context, userID int64, now time.Time) (int, error)
}

// Sweeper drops expired cache entries.
type Sweeper interface {
	Sweep(now time.Time) int
}

// Config holds the job settings.
type Config struct {
	NotificationStartHour int
	NotificationEndHour   int
	SweepInterval         time.Duration
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	notifier  Notifier
	users     UserSource
	due       DueCounter
	sweeper   Sweeper
	cfg       Config
	logger    *log.Logger
	now       func() time.Time
}

// New creates a new scheduler instance. sweeper may be nil.
func New(cfg Config, notifier Notifier, users UserSource, due DueCounter, sweeper Sweeper, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		notifier:  notifier,
		users:     users,
		due:       due,
		sweeper:   sweeper,
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start() error {
	// Schedule hourly check for users who need notifications
	if _, err := s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	if s.sweeper != nil && s.cfg.SweepInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.SweepInterval).Do(s.sweepCache); err != nil {
			return fmt.Errorf("failed to schedule cache sweep: %w", err)
		}
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", "jobs", len(s.scheduler.Jobs()))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) checkAndSendReminders() {
	if _, err := s.SendDueReminders(context.Background()); err != nil {
		s.logger.Error("reminder job failed", "err", err)
	}
}

// SendDueReminders notifies every user subscribed for the current hour that
// has due items, capped by the user's daily word count. It returns the number
// of reminders sent. Outside the notification window it does nothing.
func (s *Scheduler) SendDueReminders(ctx context.Context) (int, error) {
	now := s.now()
	hour := now.Hour()

	if hour < s.cfg.NotificationStartHour || hour > s.cfg.NotificationEndHour {
		s.logger.Debug("outside notification hours, skipping reminders",
			"hour", hour, "start", s.cfg.NotificationStartHour, "end", s.cfg.NotificationEndHour)
		return 0, nil
	}

	users, err := s.users.UsersForNotification(ctx, hour)
	if err != nil {
		return 0, fmt.Errorf("failed to get users for notification: %w", err)
	}

	sent := 0
	for _, user := range users {
		count, err := s.due.CountDue(ctx, user.ID, now)
		if err != nil {
			s.logger.Error("failed to count due items", "user", user.ID, "err", err)
			continue
		}
		if count == 0 {
			continue
		}
		// Не больше, чем пользователь готов повторить за день
		if user.WordsPerDay > 0 && count > user.WordsPerDay {
			count = user.WordsPerDay
		}
		if err := s.notifier.SendReminders(user.ID, count); err != nil {
			s.logger.Error("failed to send reminder", "user", user.ID, "err", err)
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Scheduler) sweepCache() {
	if n := s.sweeper.Sweep(s.now()); n > 0 {
		s.logger.Debug("cache swept", "expired", n)
	}
}

// RunManualCheck forces a check for a specific user
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) error {
	count, err := s.due.CountDue(ctx, userID, s.now())
	if err != nil {
		return err
	}
	if count > 0 {
		return s.notifier.SendReminders(userID, count)
	}
	return nil
}
