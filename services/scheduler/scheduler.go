// Package scheduler runs the periodic streak reminder and notification
// retention jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"learnhub/logger"
	nm "learnhub/models/notification"
	"learnhub/services/notification"

	"github.com/robfig/cron/v3"
)

const (
	retentionSpec = "30 3 * * *"
	jobTimeout    = 5 * time.Minute
)

// StreakSource reports users whose streak breaks unless they act today.
type StreakSource interface {
	AtRiskUserIDs(ctx context.Context) ([]uint, error)
}

// Notifier is the part of the notification service the jobs need.
type Notifier interface {
	SendBulk(ctx context.Context, req notification.BulkRequest) (int, error)
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Options struct {
	ReminderSpec  string
	RetentionDays int
	Location      *time.Location
}

type Scheduler struct {
	cron    *cron.Cron
	streaks StreakSource
	notify  Notifier
	log     *logger.Logger
	opts    Options
	now     func() time.Time
}

func New(streaks StreakSource, notify Notifier, log *logger.Logger, opts Options) *Scheduler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Scheduler{
		cron:    cron.New(cron.WithLocation(opts.Location)),
		streaks: streaks,
		notify:  notify,
		log:     log.Service("scheduler"),
		opts:    opts,
		now:     time.Now,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.opts.ReminderSpec != "" {
		if _, err := s.cron.AddFunc(s.opts.ReminderSpec, s.run("streak-reminder", s.SendStreakReminders)); err != nil {
			return fmt.Errorf("schedule streak reminders %q: %w", s.opts.ReminderSpec, err)
		}
	}
	if s.opts.RetentionDays > 0 {
		if _, err := s.cron.AddFunc(retentionSpec, s.run("notification-retention", s.PurgeReadNotifications)); err != nil {
			return fmt.Errorf("schedule retention: %w", err)
		}
	}
	s.cron.Start()
	s.log.Info("scheduler started", "reminder", s.opts.ReminderSpec, "retentionDays", s.opts.RetentionDays, "location", s.opts.Location.String())
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) run(name string, job func(context.Context) (int64, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		started := s.now()
		n, err := job(ctx)
		if err != nil {
			s.log.Error("job failed", "job", name, "error", err)
			return
		}
		s.log.Info("job finished", "job", name, "affected", n, "took", s.now().Sub(started).String())
	}
}

// SendStreakReminders notifies every user whose streak is at risk today.
func (s *Scheduler) SendStreakReminders(ctx context.Context) (int64, error) {
	ids, err := s.streaks.AtRiskUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	sent, err := s.notify.SendBulk(ctx, notification.BulkRequest{
		UserIDs:   ids,
		Type:      nm.TypeStreakReminder,
		Title:     "Keep your streak alive!",
		Message:   "You haven't studied today yet. Complete a lesson to keep your learning streak going.",
		SendEmail: true,
	})
	return int64(sent), err
}

// PurgeReadNotifications deletes read notifications older than the
// retention window.
func (s *Scheduler) PurgeReadNotifications(ctx context.Context) (int64, error) {
	cutoff := s.now().AddDate(0, 0, -s.opts.RetentionDays)
	return s.notify.DeleteReadBefore(ctx, cutoff)
}
