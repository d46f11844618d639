package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/example/engbot/pkg/models"
)

// DefaultReminderTime is when reminders go out if no time is configured
const DefaultReminderTime = "09:00"

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler *gocron.Scheduler
	at        string
	users     UserLister
	due       DueWordsSource
	notifier  Notifier
	logger    *zap.Logger
}

// Notifier interface for sending notifications
type Notifier interface {
	SendReminder(ctx context.Context, userID int64, count int) error
}

// UserLister lists users that have words in progress
type UserLister interface {
	ActiveUsers(ctx context.Context) ([]int64, error)
}

// DueWordsSource reports the words a user should repeat today
type DueWordsSource interface {
	DueWords(ctx context.Context, userID int64) ([]models.ReviewWord, error)
}

// New creates a new scheduler instance firing daily at "HH:MM" in loc
func New(at string, loc *time.Location, users UserLister, due DueWordsSource, notifier Notifier, logger *zap.Logger) *Scheduler {
	if at == "" {
		at = DefaultReminderTime
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		at:        at,
		users:     users,
		due:       due,
		notifier:  notifier,
		logger:    logger.Named("scheduler"),
	}
}

// Start registers the daily reminder and runs the scheduler in the background
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.scheduler.Every(1).Day().At(s.at).Do(func() {
		s.checkAndSendReminders(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reminders at %q: %w", s.at, err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("reminder scheduler started", zap.String("at", s.at))
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkAndSendReminders notifies every active user with words due today.
// A failure for one user does not stop the others.
func (s *Scheduler) checkAndSendReminders(ctx context.Context) {
	users, err := s.users.ActiveUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users for reminders", zap.Error(err))
		return
	}

	sent := 0
	for _, userID := range users {
		if ctx.Err() != nil {
			return
		}
		ok, err := s.RunManualCheck(ctx, userID)
		if err != nil {
			s.logger.Error("failed to remind user", zap.Int64("user_id", userID), zap.Error(err))
			continue
		}
		if ok {
			sent++
		}
	}
	s.logger.Info("reminders sent", zap.Int("users", len(users)), zap.Int("sent", sent))
}

// RunManualCheck forces a check for a specific user and reports whether a reminder went out
func (s *Scheduler) RunManualCheck(ctx context.Context, userID int64) (bool, error) {
	due, err := s.due.DueWords(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to get due words: %w", err)
	}
	if len(due) == 0 {
		return false, nil
	}
	if err := s.notifier.SendReminder(ctx, userID, len(due)); err != nil {
		return false, err
	}
	return true, nil
}
