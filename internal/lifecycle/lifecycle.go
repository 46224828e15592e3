// Package lifecycle decides which checklist the user sees: it expires stale
// checklists, backfills days the user was away, reuses the current checklist
// within its 24-hour cycle and regenerates when one is completed.
//
// Open is idempotent within a cycle: calling it any number of times while the
// last checklist is in progress and younger than 24 hours returns that
// checklist unchanged and generates nothing.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukerupert/chistopro/internal/checklist"
	"github.com/dukerupert/chistopro/internal/events"
	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/progress"
)

var (
	ErrChecklistNotFound = errors.New("checklist not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrChecklistClosed   = errors.New("checklist is no longer in progress")
	ErrInvalidStatus     = errors.New("invalid task status")
)

const DefaultMaxMissedDays = 3

type Config struct {
	// MaxMissedDays caps backfill; longer absences reset instead.
	MaxMissedDays int
}

type Profiles interface {
	Get(ctx context.Context) (*model.UserProfile, error)
}

type Checklists interface {
	List(ctx context.Context) ([]model.Checklist, error)
	Last(ctx context.Context) (*model.Checklist, error)
	Get(ctx context.Context, id string) (*model.Checklist, error)
	Save(ctx context.Context, c *model.Checklist) error
	ReplaceAll(ctx context.Context, checklists []model.Checklist) error
	Remove(ctx context.Context, id string) error
}

type Meta interface {
	LastVisit(ctx context.Context) (time.Time, bool, error)
	SetLastVisit(ctx context.Context, t time.Time) error
	SetLastGeneration(ctx context.Context, t time.Time) error
}

type Generator interface {
	Generate(ctx context.Context, rooms []model.Room, date string, profile *model.UserProfile) (*model.Checklist, error)
}

type Progress interface {
	Record(ctx context.Context, status model.Status) (progress.State, error)
}

type Publisher interface {
	Publish(ev events.Event)
}

type Controller struct {
	cfg        Config
	profiles   Profiles
	checklists Checklists
	meta       Meta
	generator  Generator
	progress   Progress
	events     Publisher
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	opening atomic.Bool
	current atomic.Pointer[model.Checklist]
}

func NewController(
	cfg Config,
	profiles Profiles,
	checklists Checklists,
	meta Meta,
	generator Generator,
	progress Progress,
	publisher Publisher,
	logger *slog.Logger,
) *Controller {
	if cfg.MaxMissedDays <= 0 {
		cfg.MaxMissedDays = DefaultMaxMissedDays
	}
	return &Controller{
		cfg:        cfg,
		profiles:   profiles,
		checklists: checklists,
		meta:       meta,
		generator:  generator,
		progress:   progress,
		events:     publisher,
		logger:     logger.With("component", "lifecycle"),
		now:        time.Now,
	}
}

// SetClock replaces the wall clock.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Current returns the checklist most recently opened or generated, or nil.
func (c *Controller) Current() *model.Checklist {
	return c.current.Load()
}

// Open is the session entry point. It returns the checklist the user should
// work on. The only error is checklist.ErrProfileRequired; storage failures
// are logged and treated as missing data.
func (c *Controller) Open(ctx context.Context) (*model.Checklist, error) {
	if !c.opening.CompareAndSwap(false, true) {
		c.logger.Debug("open already in flight, returning current checklist")
		return c.current.Load(), nil
	}
	defer c.opening.Store(false)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	profile, err := c.profiles.Get(ctx)
	if err != nil {
		c.logger.Error("load profile", "error", err)
		profile = nil
	}
	if profile == nil {
		return nil, checklist.ErrProfileRequired
	}

	days := c.daysSinceLastVisit(ctx, now)
	if err := c.meta.SetLastVisit(ctx, now); err != nil {
		c.logger.Error("save last visit", "error", err)
	}

	missed := c.expireStale(ctx, now)

	switch {
	case days > c.cfg.MaxMissedDays:
		c.logger.Info("absence exceeds backfill cap, starting over", "days", days)
		missed = true
	case days >= 1:
		if c.backfill(ctx, profile, now, days) > 0 {
			missed = true
		}
	}

	if missed {
		c.recordProgress(ctx, model.StatusMissed)
	}

	last, err := c.checklists.Last(ctx)
	if err != nil {
		c.logger.Error("load last checklist", "error", err)
		last = nil
	}

	if last != nil && last.Status == model.StatusInProgress && !last.Expired(now) {
		if len(last.Tasks) > 0 {
			c.current.Store(last)
			return last, nil
		}
		c.logger.Info("discarding empty checklist", "checklist_id", last.ID)
		if err := c.checklists.Remove(ctx, last.ID); err != nil {
			c.logger.Error("remove empty checklist", "checklist_id", last.ID, "error", err)
		}
	}

	return c.generate(ctx, profile, now)
}

// Resume records that the app came back to the foreground.
func (c *Controller) Resume(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.meta.SetLastVisit(ctx, c.now()); err != nil {
		c.logger.Error("save last visit", "error", err)
	}
}

// TaskUpdate is the result of changing a task's status.
type TaskUpdate struct {
	Checklist *model.Checklist `json:"checklist"`
	// Next is set when the update completed the checklist and a new one was
	// generated.
	Next *model.Checklist `json:"next,omitempty"`
}

// SetTaskStatus sets one task's status and derives the checklist status from
// its tasks. Completing the checklist advances progress exactly once and
// generates the next checklist.
func (c *Controller) SetTaskStatus(ctx context.Context, checklistID, taskID string, status model.Status) (*TaskUpdate, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return c.updateTask(ctx, checklistID, taskID, func(model.Status) model.Status { return status })
}

// ToggleTask flips a task between done and in progress.
func (c *Controller) ToggleTask(ctx context.Context, checklistID, taskID string) (*TaskUpdate, error) {
	return c.updateTask(ctx, checklistID, taskID, func(cur model.Status) model.Status {
		if cur == model.StatusDone {
			return model.StatusInProgress
		}
		return model.StatusDone
	})
}

func (c *Controller) updateTask(ctx context.Context, checklistID, taskID string, next func(model.Status) model.Status) (*TaskUpdate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cl, err := c.checklists.Get(ctx, checklistID)
	if err != nil {
		c.logger.Error("load checklist", "checklist_id", checklistID, "error", err)
		return nil, ErrChecklistNotFound
	}
	if cl == nil {
		return nil, ErrChecklistNotFound
	}
	if cl.Status != model.StatusInProgress {
		return nil, ErrChecklistClosed
	}
	i := cl.TaskByID(taskID)
	if i < 0 {
		return nil, ErrTaskNotFound
	}

	cl.Tasks[i].Status = next(cl.Tasks[i].Status)
	if cl.AllDone() {
		cl.Status = model.StatusDone
	} else {
		cl.Status = model.StatusInProgress
	}

	if err := c.checklists.Save(ctx, cl); err != nil {
		c.logger.Error("save checklist", "checklist_id", cl.ID, "error", err)
	}
	c.publish(events.ChecklistUpdated, cl.ID)

	update := &TaskUpdate{Checklist: cl}
	if cl.Status != model.StatusDone {
		c.current.Store(cl)
		return update, nil
	}

	c.logger.Info("checklist completed", "checklist_id", cl.ID, "tasks", len(cl.Tasks))
	c.recordProgress(ctx, model.StatusDone)
	c.publish(events.ChecklistCompleted, cl.ID)

	profile, err := c.profiles.Get(ctx)
	if err != nil {
		c.logger.Error("load profile", "error", err)
	}
	if profile == nil {
		c.current.Store(cl)
		return update, nil
	}
	nextCl, err := c.generate(ctx, profile, c.now())
	if err != nil {
		c.logger.Error("generate next checklist", "error", err)
		return update, nil
	}
	update.Next = nextCl
	return update, nil
}

func (c *Controller) daysSinceLastVisit(ctx context.Context, now time.Time) int {
	last, ok, err := c.meta.LastVisit(ctx)
	if err != nil {
		c.logger.Error("load last visit", "error", err)
		return 0
	}
	if !ok || now.Before(last) {
		return 0
	}
	return int(now.Sub(last) / (24 * time.Hour))
}

// expireStale resolves in-progress checklists whose cycle has ended. It
// reports whether any of them ended missed.
func (c *Controller) expireStale(ctx context.Context, now time.Time) bool {
	all, err := c.checklists.List(ctx)
	if err != nil {
		c.logger.Error("list checklists", "error", err)
		return false
	}

	var expired []string
	missed := false
	for i := range all {
		if all[i].Status != model.StatusInProgress || !all[i].Expired(now) {
			continue
		}
		all[i].MarkMissed()
		expired = append(expired, all[i].ID)
		if all[i].Status == model.StatusMissed {
			missed = true
		}
	}
	if len(expired) == 0 {
		return false
	}

	if err := c.checklists.ReplaceAll(ctx, all); err != nil {
		c.logger.Error("save expired checklists", "error", err)
		return false
	}
	for _, id := range expired {
		c.publish(events.ChecklistExpired, id)
	}
	c.logger.Info("expired stale checklists", "count", len(expired))
	return missed
}

// backfill creates one missed checklist for each of the days before today,
// oldest first, whether or not that date already has a checklist. It returns
// how many were created.
func (c *Controller) backfill(ctx context.Context, profile *model.UserProfile, now time.Time, days int) int {
	created := 0
	for d := days; d >= 1; d-- {
		date := now.AddDate(0, 0, -d).Format(time.DateOnly)
		cl, err := c.generator.Generate(ctx, profile.Rooms, date, profile)
		if err != nil {
			c.logger.Error("generate backfill checklist", "date", date, "error", err)
			continue
		}
		cl.ForceMissed()
		cl.Backfilled = true
		cl.CreatedAt = now.Add(-time.Duration(d) * 24 * time.Hour)
		if err := c.checklists.Save(ctx, cl); err != nil {
			c.logger.Error("save backfill checklist", "date", date, "error", err)
			continue
		}
		created++
	}
	if created > 0 {
		c.logger.Info("backfilled missed days", "days", days, "created", created)
	}
	return created
}

func (c *Controller) generate(ctx context.Context, profile *model.UserProfile, now time.Time) (*model.Checklist, error) {
	cl, err := c.generator.Generate(ctx, profile.Rooms, now.Format(time.DateOnly), profile)
	if err != nil {
		return nil, err
	}
	if err := c.checklists.Save(ctx, cl); err != nil {
		c.logger.Error("save checklist", "checklist_id", cl.ID, "error", err)
	}
	if err := c.meta.SetLastGeneration(ctx, now); err != nil {
		c.logger.Error("save last generation", "error", err)
	}
	c.current.Store(cl)
	c.publish(events.ChecklistGenerated, cl.ID)
	return cl, nil
}

func (c *Controller) recordProgress(ctx context.Context, status model.Status) {
	if _, err := c.progress.Record(ctx, status); err != nil {
		c.logger.Error("record progress", "status", status, "error", err)
		return
	}
	c.publish(events.ProgressChanged, "")
}

func (c *Controller) publish(t events.Type, checklistID string) {
	if c.events == nil {
		return
	}
	c.events.Publish(events.Event{Type: t, ChecklistID: checklistID, At: c.now().UTC()})
}
