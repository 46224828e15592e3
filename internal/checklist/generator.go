// Package checklist builds a day's cleaning checklist from the household
// profile, the selected rooms and the recent task history.
package checklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/taskbank"
)

var ErrProfileRequired = errors.New("profile is required for checklist generation")

// History is the task usage log and laundry counter the generator reads and
// writes back to.
type History interface {
	Load(ctx context.Context) (model.TaskHistory, error)
	Record(ctx context.Context, date string, entries []model.HistoryEntry) error
	Laundry(ctx context.Context) (model.LaundryGeneration, error)
	SaveLaundry(ctx context.Context, g model.LaundryGeneration) error
}

type Generator struct {
	history History
	logger  *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator. A nil rng seeds one from the runtime.
func NewGenerator(history History, rng *rand.Rand, logger *slog.Logger) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{
		history: history,
		logger:  logger.With("component", "generator"),
		rng:     rng,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for createdAt stamps.
func (g *Generator) SetClock(now func() time.Time) {
	g.mu.Lock()
	g.now = now
	g.mu.Unlock()
}

// Generate produces the checklist for date. History read failures degrade to
// an empty history and write failures are logged; only a missing profile is
// an error.
func (g *Generator) Generate(ctx context.Context, rooms []model.Room, date string, profile *model.UserProfile) (*model.Checklist, error) {
	if profile == nil {
		return nil, ErrProfileRequired
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	b := &builder{
		max:       MaxMinutes(profile),
		size:      HouseSizeOf(profile.Area),
		stamp:     now.UnixMilli(),
		usedIDs:   make(map[int]bool),
		usedTypes: make(map[string]map[taskbank.Type]bool),
	}

	history, err := g.history.Load(ctx)
	if err != nil {
		g.logger.Warn("load task history, continuing with empty history", "error", err)
		history = nil
	}

	laundryTask := g.advanceLaundry(ctx)

	// Toys first, for the children old enough to tidy them.
	if hasChildren(profile) {
		toys, _ := taskbank.ByID(taskbank.PutAwayToys)
		if b.fits(toys) {
			var assignee *string
			if kids := toyTidiers(profile); len(kids) > 0 {
				id := kids[g.rng.IntN(len(kids))].ID
				assignee = &id
			}
			b.add(toys, model.GeneralRoom, false, assignee)
		}
	}

	for _, d := range taskbank.ByType(taskbank.Daily) {
		if d.ID == taskbank.PutAwayToys {
			continue
		}
		if b.fits(d) {
			b.add(d, model.GeneralRoom, false, nil)
		}
	}

	if profile.HasPets && !b.usedIDs[taskbank.VacuumFloors] {
		vacuum, _ := taskbank.ByID(taskbank.VacuumFloors)
		if b.fits(vacuum) {
			b.add(vacuum, model.GeneralRoom, false, nil)
		}
	}

	if laundryTask != 0 {
		d, _ := taskbank.ByID(laundryTask)
		if b.fits(d) {
			b.add(d, model.GeneralRoom, false, nil)
		}
	}

	selected := model.SelectedRoomsOf(rooms)
	g.rng.Shuffle(len(selected), func(i, j int) { selected[i], selected[j] = selected[j], selected[i] })

	yesterday := previousDate(date)
	for _, room := range selected {
		if b.total >= b.max {
			break
		}
		g.fillRoom(b, room, history, date, yesterday)
	}

	Assign(b.tasks, Participants(profile))

	c := &model.Checklist{
		ID:        uuid.NewString(),
		Date:      date,
		Status:    model.StatusInProgress,
		Tasks:     b.tasks,
		CreatedAt: now,
	}
	if c.Tasks == nil {
		c.Tasks = []model.ChecklistTask{}
	}

	if err := g.history.Record(ctx, date, historyEntries(c)); err != nil {
		g.logger.Error("record task history", "checklist_id", c.ID, "error", err)
	}

	g.logger.Info("checklist generated",
		"checklist_id", c.ID,
		"date", date,
		"tasks", len(c.Tasks),
		"minutes", b.total,
		"budget", b.max,
	)
	return c, nil
}

func (g *Generator) advanceLaundry(ctx context.Context) int {
	cur, err := g.history.Laundry(ctx)
	if err != nil {
		g.logger.Warn("load laundry generation", "error", err)
		cur = model.LaundryGeneration{}
	}
	task, next := NextLaundry(cur)
	if err := g.history.SaveLaundry(ctx, next); err != nil {
		g.logger.Error("save laundry generation", "error", err)
	}
	g.logger.Debug("laundry cycle",
		"generation", next.GenerationCount,
		"step", next.CurrentLaundryStep,
		"task_id", task,
	)
	return task
}

// fillRoom places up to the room's unit count of tasks. A type already used in
// the room today, in this checklist or an earlier one, is not placed again.
func (g *Generator) fillRoom(b *builder, room model.Room, history model.TaskHistory, date, yesterday string) {
	var candidates []taskbank.Definition
	for _, d := range taskbank.ForRoom(room.Name, room.IsCustom) {
		if !taskbank.Reserved(d.ID) {
			candidates = append(candidates, d)
		}
	}

	for placed := 0; placed < room.Units(); placed++ {
		var valid []taskbank.Definition
		for _, d := range candidates {
			if b.usedIDs[d.ID] || b.usedTypes[room.Name][d.Type] {
				continue
			}
			if history.TypeUsedOn(room.Name, string(d.Type), date) {
				continue
			}
			if d.Type != taskbank.Daily && history.UsedOn(room.Name, d.ID, yesterday) {
				continue
			}
			if !b.fits(d) {
				continue
			}
			valid = append(valid, d)
		}
		if len(valid) == 0 {
			return
		}
		b.add(valid[g.rng.IntN(len(valid))], room.Name, room.IsCustom, nil)
	}
}

type builder struct {
	max   int
	size  HouseSize
	stamp int64

	tasks     []model.ChecklistTask
	total     int
	usedIDs   map[int]bool
	usedTypes map[string]map[taskbank.Type]bool
}

func (b *builder) fits(d taskbank.Definition) bool {
	return b.total+TaskMinutes(d, b.size) <= b.max
}

func (b *builder) add(d taskbank.Definition, room string, custom bool, assignee *string) {
	minutes := TaskMinutes(d, b.size)
	ref := model.TaskRef{Room: room, TaskID: d.ID, CreatedAt: b.stamp, Seq: len(b.tasks)}
	b.tasks = append(b.tasks, model.ChecklistTask{
		ID:         ref.String(),
		Ref:        ref,
		Title:      Title(d, room, custom),
		Minutes:    minutes,
		Status:     model.StatusInProgress,
		RoomName:   room,
		AssignedTo: assignee,
	})
	b.total += minutes
	b.usedIDs[d.ID] = true
	if b.usedTypes[room] == nil {
		b.usedTypes[room] = make(map[taskbank.Type]bool)
	}
	b.usedTypes[room][d.Type] = true
}

// Title renders a task for a room. Standard rooms are already named in the
// description; custom rooms are appended.
func Title(d taskbank.Definition, room string, custom bool) string {
	if !custom {
		return d.Description
	}
	return fmt.Sprintf("%s в комнате \"%s\"", d.Description, room)
}

func historyEntries(c *model.Checklist) []model.HistoryEntry {
	entries := make([]model.HistoryEntry, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		d, ok := taskbank.ByID(t.Ref.TaskID)
		if !ok {
			continue
		}
		entries = append(entries, model.HistoryEntry{
			RoomName: t.RoomName,
			TaskID:   d.ID,
			TaskType: string(d.Type),
		})
	}
	return entries
}

func previousDate(date string) string {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return ""
	}
	return d.AddDate(0, 0, -1).Format(time.DateOnly)
}
