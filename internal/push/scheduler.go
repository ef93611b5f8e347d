package push

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/clockit-hq/clockit/internal/email"
	"github.com/clockit-hq/clockit/internal/model"
	"github.com/clockit-hq/clockit/internal/report"
	"github.com/clockit-hq/clockit/internal/store"
)

const (
	// How long past the scheduled end of the working day before nudging
	// someone who is still clocked in.
	clockOutGrace = 15 * time.Minute

	// Weekly summaries go out Monday mornings covering the prior week.
	summaryWeekday = time.Monday
	summaryHour    = 8
)

// Scheduler periodically checks for notifications to send: push nudges for
// people still clocked in past their working hours, and weekly summary
// emails for users who opted in.
type Scheduler struct {
	mu       sync.RWMutex
	service  *Service
	mailer   *email.Client
	push     *store.PushStore
	logs     *store.TimeLogStore
	users    *store.UserStore
	settings *store.SettingsStore
	loc      *time.Location
	interval time.Duration
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler creates a notification scheduler.
func NewScheduler(svc *Service, mailer *email.Client, pushStore *store.PushStore, logStore *store.TimeLogStore, userStore *store.UserStore, settingsStore *store.SettingsStore, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		service:  svc,
		mailer:   mailer,
		push:     pushStore,
		logs:     logStore,
		users:    userStore,
		settings: settingsStore,
		loc:      loc,
		interval: 60 * time.Second,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick(now time.Time) {
	s.checkClockOutReminders(now)
	s.checkWeeklySummaries(now)
}

// checkClockOutReminders pushes a nudge to anyone still clocked in past the
// end of their working day. Each user gets at most one nudge per day.
func (s *Scheduler) checkClockOutReminders(now time.Time) {
	if s.service == nil || !s.service.Enabled() {
		return
	}

	open, err := s.logs.ListOpen()
	if err != nil {
		log.Printf("push scheduler: list open records: %v", err)
		return
	}

	local := now.In(s.loc)
	for i := range open {
		rec := open[i]

		ns, err := s.settings.GetNotificationSettings(rec.UserID)
		if err != nil || !ns.PushEnabled {
			continue
		}

		wh, err := s.settings.GetWorkingHours(rec.UserID)
		if err != nil {
			log.Printf("push scheduler: working hours for user %d: %v", rec.UserID, err)
			continue
		}
		endOfDay, err := atClock(local, wh.EndTime, s.loc)
		if err != nil {
			continue
		}
		if local.Before(endOfDay.Add(clockOutGrace)) {
			continue
		}

		refID := fmt.Sprintf("%d:%s", rec.UserID, local.Format("2006-01-02"))
		claimed, err := s.push.MarkSent(model.NotifTypeClockOutReminder, refID)
		if err != nil {
			log.Printf("push scheduler: mark sent: %v", err)
			continue
		}
		if !claimed {
			continue
		}

		s.sendToUser(rec.UserID, Payload{
			Title: "Still clocked in?",
			Body:  fmt.Sprintf("Your working day ended at %s. Don't forget to clock out.", wh.EndTime),
			URL:   "/",
			Tag:   "clock-out-reminder",
		})
	}
}

// checkWeeklySummaries emails last week's totals on Monday mornings.
func (s *Scheduler) checkWeeklySummaries(now time.Time) {
	if s.mailer == nil || !s.mailer.Configured() {
		return
	}

	local := now.In(s.loc)
	if local.Weekday() != summaryWeekday || local.Hour() < summaryHour {
		return
	}

	recipients, err := s.settings.ListWeeklySummaryRecipients()
	if err != nil {
		log.Printf("push scheduler: list summary recipients: %v", err)
		return
	}
	if len(recipients) == 0 {
		return
	}

	weekStart, weekEnd := weekBounds(local.AddDate(0, 0, -7), s.loc)
	isoYear, isoWeek := weekStart.ISOWeek()

	for _, userID := range recipients {
		refID := fmt.Sprintf("%d:%d-W%02d", userID, isoYear, isoWeek)
		claimed, err := s.push.MarkSent(model.NotifTypeWeeklySummary, refID)
		if err != nil {
			log.Printf("push scheduler: mark summary sent: %v", err)
			continue
		}
		if !claimed {
			continue
		}

		user, err := s.users.GetByID(userID)
		if err != nil || user == nil {
			continue
		}

		logs, err := s.logs.ListByUserAndRange(userID, weekStart, weekEnd)
		if err != nil {
			log.Printf("push scheduler: summary logs for user %d: %v", userID, err)
			continue
		}
		var workMinutes, breakMinutes int
		for i := range logs {
			w, b := report.NetMinutes(&logs[i], now)
			workMinutes += w
			breakMinutes += b
		}

		if err := s.mailer.SendWeeklySummary(user.Email, user.Name, weekStart, report.RoundHours(workMinutes), report.RoundHours(breakMinutes)); err != nil {
			log.Printf("push scheduler: send summary to %s: %v", user.Email, err)
		}
	}
}

func (s *Scheduler) sendToUser(userID int64, payload Payload) {
	subs, err := s.push.ListByUser(userID)
	if err != nil {
		log.Printf("push scheduler: list subs for user %d: %v", userID, err)
		return
	}
	for _, sub := range subs {
		if err := s.service.Send(sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if derr := s.push.Unsubscribe(sub.Endpoint); derr != nil {
					log.Printf("push scheduler: drop expired sub: %v", derr)
				}
				continue
			}
			log.Printf("push scheduler: send to user %d: %v", userID, err)
		}
	}
}

// atClock returns the moment on day's date with the "HH:MM" wall time.
func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse clock %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

// weekBounds is the [start, end) Sunday-to-Sunday window containing t.
func weekBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	start = start.AddDate(0, 0, -int(local.Weekday()))
	return start, start.AddDate(0, 0, 7)
}
