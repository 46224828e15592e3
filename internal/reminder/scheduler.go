package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/chistopro/internal/events"
	"github.com/dukerupert/chistopro/internal/model"
)

type Sender interface {
	Send(ctx context.Context, sub *model.PushSubscription, payload Payload) error
}

type Subscriptions interface {
	List(ctx context.Context) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

type Profiles interface {
	Get(ctx context.Context) (*model.UserProfile, error)
}

type Checklists interface {
	Last(ctx context.Context) (*model.Checklist, error)
}

type Meta interface {
	LastVisit(ctx context.Context) (time.Time, bool, error)
	LastNotification(ctx context.Context) (time.Time, bool, error)
	SetLastNotification(ctx context.Context, t time.Time) error
}

var reminderPayload = Payload{
	Title: "Новые задания готовы! 🧹",
	Body:  "Проверьте свой чек-лист на сегодня",
	URL:   "/",
	Tag:   "delayed-checklist-reminder",
}

// Scheduler keeps at most one pending checklist reminder and re-plans it
// whenever a checklist is generated or completed.
type Scheduler struct {
	sender     Sender
	subs       Subscriptions
	profiles   Profiles
	checklists Checklists
	meta       Meta
	maxMissed  int
	logger     *slog.Logger

	now       func() time.Time
	afterFunc func(time.Duration, func()) (stop func() bool)

	mu      sync.Mutex
	pending func() bool
	wg      sync.WaitGroup
}

func NewScheduler(cfg Config, sender Sender, subs Subscriptions, profiles Profiles, checklists Checklists, meta Meta, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		sender:     sender,
		subs:       subs,
		profiles:   profiles,
		checklists: checklists,
		meta:       meta,
		maxMissed:  cfg.MaxMissedDays,
		logger:     logger.With("component", "reminder"),
		now:        time.Now,
		afterFunc: func(d time.Duration, f func()) func() bool {
			return time.AfterFunc(d, f).Stop
		},
	}
}

// HandleEvent is an events.Handler.
func (s *Scheduler) HandleEvent(ev events.Event) {
	switch ev.Type {
	case events.ChecklistGenerated, events.ChecklistCompleted:
		s.Evaluate(context.Background())
	}
}

// Evaluate cancels any pending reminder and plans a new one if the policy
// allows it.
func (s *Scheduler) Evaluate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()

	now := s.now()
	in := Input{MaxMissedDays: s.maxMissed}

	profile, err := s.profiles.Get(ctx)
	if err != nil {
		s.logger.Error("load profile", "error", err)
	}
	in.Enabled = profile != nil && profile.NotificationsEnabled

	if t, ok, err := s.meta.LastNotification(ctx); err != nil {
		s.logger.Error("load last notification", "error", err)
	} else if ok {
		in.LastNotification = t
	}
	if t, ok, err := s.meta.LastVisit(ctx); err != nil {
		s.logger.Error("load last visit", "error", err)
	} else if ok {
		in.LastVisit = t
	}
	if in.Last, err = s.checklists.Last(ctx); err != nil {
		s.logger.Error("load last checklist", "error", err)
	}

	d := Decide(now, in)
	if d.Suppress {
		if err := s.meta.SetLastNotification(ctx, now); err != nil {
			s.logger.Error("save last notification", "error", err)
		}
	}
	if !d.Send {
		s.logger.Debug("reminder skipped", "reason", d.Reason)
		return
	}

	s.logger.Info("reminder scheduled", "delay", d.Delay)
	s.wg.Add(1)
	s.pending = s.afterFunc(d.Delay, func() {
		defer s.wg.Done()
		s.fire(context.Background())
	})
}

// Stop cancels the pending reminder and waits for one already firing.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) cancelLocked() {
	if s.pending == nil {
		return
	}
	if s.pending() {
		s.wg.Done()
	}
	s.pending = nil
}

func (s *Scheduler) fire(ctx context.Context) {
	subs, err := s.subs.List(ctx)
	if err != nil {
		s.logger.Error("list push subscriptions", "error", err)
		return
	}

	sent := 0
	for _, sub := range subs {
		if err := s.sender.Send(ctx, &sub, reminderPayload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
					s.logger.Error("delete expired subscription", "error", err)
				}
			} else {
				s.logger.Error("send reminder", "device", sub.DeviceName, "error", err)
			}
			continue
		}
		sent++
	}

	if err := s.meta.SetLastNotification(ctx, s.now()); err != nil {
		s.logger.Error("save last notification", "error", err)
	}
	s.logger.Info("reminder sent", "subscriptions", len(subs), "delivered", sent)
}
