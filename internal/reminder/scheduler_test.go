package reminder

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/chistopro/internal/events"
	"github.com/dukerupert/chistopro/internal/kv"
	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/store"
)

type fakeSender struct {
	sent    []string
	expired map[string]bool
}

func (f *fakeSender) Send(_ context.Context, sub *model.PushSubscription, _ Payload) error {
	if f.expired[sub.Endpoint] {
		return ErrExpired
	}
	f.sent = append(f.sent, sub.Endpoint)
	return nil
}

type fakeTimer struct {
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

type schedulerEnv struct {
	s          *Scheduler
	sender     *fakeSender
	profiles   *store.ProfileStore
	checklists *store.ChecklistStore
	meta       *store.MetaStore
	push       *store.PushStore
	timers     []*fakeTimer
	now        time.Time
}

func newSchedulerEnv(t *testing.T) *schedulerEnv {
	t.Helper()
	mem := kv.NewMemory()
	env := &schedulerEnv{
		sender:     &fakeSender{expired: map[string]bool{}},
		profiles:   store.NewProfileStore(mem),
		checklists: store.NewChecklistStore(mem),
		meta:       store.NewMetaStore(mem),
		push:       store.NewPushStore(mem),
		now:        time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	env.s = NewScheduler(Config{MaxMissedDays: 3}, env.sender, env.push, env.profiles, env.checklists, env.meta, slog.Default())
	env.s.now = func() time.Time { return env.now }
	env.s.afterFunc = func(d time.Duration, f func()) func() bool {
		ft := &fakeTimer{delay: d, fn: f}
		env.timers = append(env.timers, ft)
		return func() bool {
			if ft.fired || ft.stopped {
				return false
			}
			ft.stopped = true
			return true
		}
	}

	ctx := context.Background()
	env.profiles.Save(ctx, &model.UserProfile{Name: "Аня", NotificationsEnabled: true})
	env.push.CreateSubscription(ctx, "https://push.example.com/a", "k", "a", "Phone")
	env.push.CreateSubscription(ctx, "https://push.example.com/b", "k", "a", "Tablet")
	return env
}

func (e *schedulerEnv) fire(t *testing.T, i int) {
	t.Helper()
	ft := e.timers[i]
	if ft.stopped {
		t.Fatalf("timer %d was cancelled", i)
	}
	ft.fired = true
	ft.fn()
}

func TestSchedulerPlansReminderAfterGeneration(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.checklists.Save(ctx, &model.Checklist{ID: "c1", Status: model.StatusInProgress, CreatedAt: env.now.Add(-15 * time.Minute)})

	env.s.HandleEvent(events.Event{Type: events.ChecklistGenerated, ChecklistID: "c1"})

	if len(env.timers) != 1 {
		t.Fatalf("timers = %d, want 1", len(env.timers))
	}
	if env.timers[0].delay != 45*time.Minute {
		t.Errorf("delay = %v, want 45m", env.timers[0].delay)
	}

	env.now = env.now.Add(45 * time.Minute)
	env.fire(t, 0)

	if len(env.sender.sent) != 2 {
		t.Errorf("sent = %v, want both devices", env.sender.sent)
	}
	last, ok, _ := env.meta.LastNotification(ctx)
	if !ok || !last.Equal(env.now) {
		t.Errorf("last notification = %v (ok=%v), want %v", last, ok, env.now)
	}

	// A second generation inside the 24h window plans nothing.
	env.s.HandleEvent(events.Event{Type: events.ChecklistGenerated})
	if len(env.timers) != 1 {
		t.Errorf("timers = %d, want no new reminder within 24 hours", len(env.timers))
	}
}

func TestSchedulerKeepsOnePendingReminder(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.checklists.Save(ctx, &model.Checklist{ID: "c1", Status: model.StatusInProgress, CreatedAt: env.now})

	env.s.Evaluate(ctx)
	env.s.Evaluate(ctx)

	if len(env.timers) != 2 {
		t.Fatalf("timers = %d, want 2", len(env.timers))
	}
	if !env.timers[0].stopped {
		t.Error("first reminder should have been cancelled")
	}
	env.s.Stop()
	if !env.timers[1].stopped {
		t.Error("stop should cancel the pending reminder")
	}
}

func TestSchedulerCompletionSuppresses(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.checklists.Save(ctx, &model.Checklist{ID: "c1", Status: model.StatusDone, CreatedAt: env.now.Add(-time.Hour)})

	env.s.HandleEvent(events.Event{Type: events.ChecklistCompleted, ChecklistID: "c1"})

	if len(env.timers) != 0 {
		t.Errorf("timers = %d, want none after completion", len(env.timers))
	}
	last, ok, _ := env.meta.LastNotification(ctx)
	if !ok || !last.Equal(env.now) {
		t.Errorf("last notification = %v (ok=%v), want window restarted at %v", last, ok, env.now)
	}
}

func TestSchedulerDropsExpiredSubscriptions(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.sender.expired["https://push.example.com/a"] = true

	env.s.Evaluate(ctx)
	env.fire(t, 0)

	subs, _ := env.push.List(ctx)
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example.com/b" {
		t.Errorf("subs = %+v, want only b left", subs)
	}
}

func TestSchedulerIgnoresOtherEvents(t *testing.T) {
	env := newSchedulerEnv(t)
	env.s.HandleEvent(events.Event{Type: events.ChecklistUpdated})
	env.s.HandleEvent(events.Event{Type: events.ProgressChanged})
	if len(env.timers) != 0 {
		t.Errorf("timers = %d, want 0", len(env.timers))
	}
}

func TestSchedulerRespectsDisabledNotifications(t *testing.T) {
	env := newSchedulerEnv(t)
	ctx := context.Background()
	env.profiles.Update(ctx, func(p *model.UserProfile) error {
		p.NotificationsEnabled = false
		return nil
	})

	env.s.Evaluate(ctx)
	if len(env.timers) != 0 {
		t.Errorf("timers = %d, want 0 with notifications off", len(env.timers))
	}
}
