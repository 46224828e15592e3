package checklist

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/chistopro/internal/kv"
	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/store"
	"github.com/dukerupert/chistopro/internal/taskbank"
)

func newTestGenerator(seed uint64) (*Generator, *store.HistoryStore) {
	hs := store.NewHistoryStore(kv.NewMemory())
	g := NewGenerator(hs, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), slog.Default())
	g.SetClock(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) })
	return g, hs
}

func room(name, count string) model.Room {
	return model.Room{ID: name, Name: name, Count: count, Selected: true}
}

func adults(n int) []model.HouseholdMember {
	out := make([]model.HouseholdMember, n)
	for i := range out {
		out[i] = model.HouseholdMember{ID: string(rune('a' + i)), Name: "member", Age: "30", Profession: "Безработный"}
	}
	return out
}

func taskIDs(c *model.Checklist) []int {
	ids := make([]int, len(c.Tasks))
	for i, t := range c.Tasks {
		ids[i] = t.Ref.TaskID
	}
	return ids
}

func TestGenerateRequiresProfile(t *testing.T) {
	g, _ := newTestGenerator(1)
	_, err := g.Generate(context.Background(), nil, "2026-03-10", nil)
	if !errors.Is(err, ErrProfileRequired) {
		t.Fatalf("err = %v, want ErrProfileRequired", err)
	}
}

func TestGenerateStudentKitchen(t *testing.T) {
	g, _ := newTestGenerator(7)
	p := &model.UserProfile{Profession: "Студент", Area: "50"}
	rooms := []model.Room{room("Кухня", "1")}

	c, err := g.Generate(context.Background(), rooms, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if c.TotalMinutes() > 20 {
		t.Errorf("total = %d, want <= 20", c.TotalMinutes())
	}
	if c.Status != model.StatusInProgress {
		t.Errorf("status = %q, want in_progress", c.Status)
	}
	if len(c.Tasks) != 4 {
		t.Fatalf("expected 3 dailies and 1 kitchen task, got %v", taskIDs(c))
	}
	for i, want := range []int{27, 28, 29} {
		if c.Tasks[i].Ref.TaskID != want {
			t.Errorf("tasks[%d] = %d, want daily %d", i, c.Tasks[i].Ref.TaskID, want)
		}
		if c.Tasks[i].RoomName != model.GeneralRoom {
			t.Errorf("tasks[%d].RoomName = %q, want GENERAL", i, c.Tasks[i].RoomName)
		}
	}
	if c.Tasks[3].RoomName != "Кухня" {
		t.Errorf("tasks[3].RoomName = %q, want Кухня", c.Tasks[3].RoomName)
	}
	for _, task := range c.Tasks {
		if !task.AssignedToUser() {
			t.Errorf("task %s assigned to %q, want the user", task.ID, *task.AssignedTo)
		}
	}
}

func TestGenerateBudgetNeverExceeded(t *testing.T) {
	profiles := []*model.UserProfile{
		{Profession: "Офисный работник", Area: "300", HasPets: true},
		{Profession: "Студент", Area: "120", HouseholdMembers: []model.HouseholdMember{{ID: "k", Age: "4"}}},
		{Profession: "Удалёнщик", Area: "45", HouseholdMembers: adults(2)},
		{Profession: "", Area: "", HasPets: true, HouseholdMembers: []model.HouseholdMember{{ID: "t", Age: "1"}}},
	}
	rooms := []model.Room{
		room("Кухня", "2"), room("Ванная", "2"), room("Гостиная", "1"),
		room("Спальня", "3"), {ID: "c", Name: "Кладовка", Count: "2", Selected: true, IsCustom: true},
	}

	for seed := uint64(1); seed <= 100; seed++ {
		for _, p := range profiles {
			g, _ := newTestGenerator(seed)
			for day := 1; day <= 3; day++ {
				date := time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
				c, err := g.Generate(context.Background(), rooms, date, p)
				if err != nil {
					t.Fatalf("seed %d: generate: %v", seed, err)
				}
				if total, max := c.TotalMinutes(), MaxMinutes(p); total > max {
					t.Fatalf("seed %d: total %d exceeds budget %d (%v)", seed, total, max, taskIDs(c))
				}
			}
		}
	}
}

func TestGenerateNoRepeatFromYesterday(t *testing.T) {
	p := &model.UserProfile{Profession: "Безработный", Area: "50", HouseholdMembers: adults(3)}
	rooms := []model.Room{room("Кухня", "2"), room("Ванная", "2"), room("Гостиная", "1"), room("Спальня", "1")}

	for seed := uint64(1); seed <= 50; seed++ {
		g, _ := newTestGenerator(seed)
		ctx := context.Background()

		prev, err := g.Generate(ctx, rooms, "2026-03-09", p)
		if err != nil {
			t.Fatalf("generate yesterday: %v", err)
		}
		cur, err := g.Generate(ctx, rooms, "2026-03-10", p)
		if err != nil {
			t.Fatalf("generate today: %v", err)
		}

		type placement struct {
			room string
			id   int
		}
		used := make(map[placement]bool)
		for _, task := range prev.Tasks {
			used[placement{task.RoomName, task.Ref.TaskID}] = true
		}
		for _, task := range cur.Tasks {
			if task.RoomName == model.GeneralRoom {
				continue
			}
			d, _ := taskbank.ByID(task.Ref.TaskID)
			if d.Type == taskbank.Daily {
				continue
			}
			if used[placement{task.RoomName, task.Ref.TaskID}] {
				t.Errorf("seed %d: task %d repeated in %s on consecutive days", seed, task.Ref.TaskID, task.RoomName)
			}
		}
	}
}

func TestGenerateOneTypePerRoom(t *testing.T) {
	p := &model.UserProfile{Profession: "Безработный", Area: "50", HouseholdMembers: adults(4)}
	rooms := []model.Room{room("Кухня", "4"), room("Ванная", "4")}

	for seed := uint64(1); seed <= 50; seed++ {
		g, _ := newTestGenerator(seed)
		c, err := g.Generate(context.Background(), rooms, "2026-03-10", p)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		seen := make(map[string]bool)
		ids := make(map[int]bool)
		for _, task := range c.Tasks {
			if ids[task.Ref.TaskID] {
				t.Errorf("seed %d: task %d placed twice", seed, task.Ref.TaskID)
			}
			ids[task.Ref.TaskID] = true
			if task.RoomName == model.GeneralRoom {
				continue
			}
			d, _ := taskbank.ByID(task.Ref.TaskID)
			key := task.RoomName + "/" + string(d.Type)
			if seen[key] {
				t.Errorf("seed %d: type %s used twice in %s", seed, d.Type, task.RoomName)
			}
			seen[key] = true
		}
	}
}

func TestGenerateLaundryCycle(t *testing.T) {
	g, _ := newTestGenerator(3)
	p := &model.UserProfile{Profession: "Безработный", Area: "50", HouseholdMembers: adults(2)}

	var got []int
	for i := 0; i < 11; i++ {
		c, err := g.Generate(context.Background(), nil, "2026-03-10", p)
		if err != nil {
			t.Fatalf("generate %d: %v", i+1, err)
		}
		laundry := 0
		for _, task := range c.Tasks {
			if d, _ := taskbank.ByID(task.Ref.TaskID); d.Type == taskbank.Laundry {
				if laundry != 0 {
					t.Fatalf("generation %d has more than one laundry task", i+1)
				}
				laundry = d.ID
			}
		}
		got = append(got, laundry)
	}

	want := []int{32, 33, 34, 0, 0, 0, 0, 0, 0, 0, 32}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("laundry sequence = %v, want %v", got, want)
		}
	}
}

func laundryOf(t *testing.T, c *model.Checklist) int {
	t.Helper()
	laundry := 0
	for _, task := range c.Tasks {
		if d, _ := taskbank.ByID(task.Ref.TaskID); d.Type == taskbank.Laundry {
			if laundry != 0 {
				t.Fatalf("checklist has more than one laundry task")
			}
			laundry = d.ID
		}
	}
	return laundry
}

func TestGenerateSkippedLaundryKeepsCycle(t *testing.T) {
	g, hs := newTestGenerator(5)
	ctx := context.Background()
	// 20 minutes: the dailies take 9, so wash (12) and iron (15) do not fit.
	solo := &model.UserProfile{Profession: "Студент"}

	var got []int
	for i := 0; i < 10; i++ {
		c, err := g.Generate(ctx, nil, "2026-03-10", solo)
		if err != nil {
			t.Fatalf("generate %d: %v", i+1, err)
		}
		got = append(got, laundryOf(t, c))

		lg, err := hs.Laundry(ctx)
		if err != nil {
			t.Fatalf("load laundry: %v", err)
		}
		if lg.GenerationCount != i+1 {
			t.Fatalf("generation %d: counter = %d, want %d", i+1, lg.GenerationCount, i+1)
		}
	}
	want := []int{0, 33, 0, 0, 0, 0, 0, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("solo laundry sequence = %v, want %v", got, want)
		}
	}

	// A roomier budget picks the cycle up where it is, not where it was skipped.
	household := &model.UserProfile{Profession: "Безработный", HouseholdMembers: adults(2)}
	var after []int
	for i := 0; i < 3; i++ {
		c, err := g.Generate(ctx, nil, "2026-03-11", household)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		after = append(after, laundryOf(t, c))
	}
	if after[0] != 32 || after[1] != 33 || after[2] != 34 {
		t.Errorf("laundry after skips = %v, want [32 33 34]", after)
	}
}

func TestGenerateSameDayAvoidsTypesAlreadyUsed(t *testing.T) {
	p := &model.UserProfile{Profession: "Безработный", Area: "50", HouseholdMembers: adults(2)}
	rooms := []model.Room{room("Кухня", "1"), room("Ванная", "1")}

	for seed := uint64(1); seed <= 30; seed++ {
		g, _ := newTestGenerator(seed)
		ctx := context.Background()

		first, err := g.Generate(ctx, rooms, "2026-03-10", p)
		if err != nil {
			t.Fatalf("generate first: %v", err)
		}
		second, err := g.Generate(ctx, rooms, "2026-03-10", p)
		if err != nil {
			t.Fatalf("generate second: %v", err)
		}

		used := make(map[string]bool)
		for _, task := range first.Tasks {
			if task.RoomName == model.GeneralRoom {
				continue
			}
			d, _ := taskbank.ByID(task.Ref.TaskID)
			used[task.RoomName+"/"+string(d.Type)] = true
		}
		for _, task := range second.Tasks {
			if task.RoomName == model.GeneralRoom {
				continue
			}
			d, _ := taskbank.ByID(task.Ref.TaskID)
			if used[task.RoomName+"/"+string(d.Type)] {
				t.Errorf("seed %d: type %s repeated in %s on the same day", seed, d.Type, task.RoomName)
			}
		}
	}
}

func TestGenerateZeroRooms(t *testing.T) {
	g, _ := newTestGenerator(1)
	p := &model.UserProfile{Profession: "Студент", Area: "50", HasPets: true}

	c, err := g.Generate(context.Background(), nil, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	ids := taskIDs(c)
	want := []int{27, 28, 29, 20}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids = %v, want %v", ids, want)
			break
		}
	}
}

func TestGenerateStampsChecklist(t *testing.T) {
	g, _ := newTestGenerator(1)
	p := &model.UserProfile{Profession: "Студент"}

	a, err := g.Generate(context.Background(), nil, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	b, err := g.Generate(context.Background(), nil, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate again: %v", err)
	}
	if a.ID == "" || a.ID == b.ID {
		t.Errorf("ids %q and %q should be distinct and non-empty", a.ID, b.ID)
	}
	want := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	if !a.CreatedAt.Equal(want) {
		t.Errorf("created_at = %v, want %v", a.CreatedAt, want)
	}
	if a.Date != "2026-03-10" {
		t.Errorf("date = %q, want 2026-03-10", a.Date)
	}
}

func TestGenerateToysGoToChild(t *testing.T) {
	g, _ := newTestGenerator(11)
	p := &model.UserProfile{
		Profession:       "Студент",
		Area:             "50",
		HouseholdMembers: []model.HouseholdMember{{ID: "kid", Name: "Петя", Age: "5"}},
	}

	c, err := g.Generate(context.Background(), nil, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(c.Tasks) == 0 || c.Tasks[0].Ref.TaskID != taskbank.PutAwayToys {
		t.Fatalf("expected toys first, got %v", taskIDs(c))
	}
	if c.Tasks[0].AssignedTo == nil || *c.Tasks[0].AssignedTo != "kid" {
		t.Errorf("toys assigned to %v, want kid", c.Tasks[0].AssignedTo)
	}
}

func TestGenerateToysForToddlerFallToAdults(t *testing.T) {
	g, _ := newTestGenerator(11)
	p := &model.UserProfile{
		Profession:       "Студент",
		Area:             "50",
		HouseholdMembers: []model.HouseholdMember{{ID: "baby", Age: "1"}},
	}

	c, err := g.Generate(context.Background(), nil, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if c.Tasks[0].Ref.TaskID != taskbank.PutAwayToys {
		t.Fatalf("expected toys first, got %v", taskIDs(c))
	}
	if !c.Tasks[0].AssignedToUser() {
		t.Errorf("toys assigned to %q, want the user", *c.Tasks[0].AssignedTo)
	}
}

func TestGenerateCustomRoomTitle(t *testing.T) {
	g, _ := newTestGenerator(5)
	p := &model.UserProfile{Profession: "Безработный", Area: "50"}
	rooms := []model.Room{{ID: "c", Name: "Кладовка", Count: "1", Selected: true, IsCustom: true}}

	c, err := g.Generate(context.Background(), rooms, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	found := false
	for _, task := range c.Tasks {
		if task.RoomName != "Кладовка" {
			continue
		}
		found = true
		if !strings.HasSuffix(task.Title, ` в комнате "Кладовка"`) {
			t.Errorf("title = %q, want custom room suffix", task.Title)
		}
		d, _ := taskbank.ByID(task.Ref.TaskID)
		if d.Category != taskbank.General {
			t.Errorf("custom room drew task %d from %s", d.ID, d.Category)
		}
	}
	if !found {
		t.Fatalf("expected a task for the custom room, got %v", taskIDs(c))
	}
}

func TestGenerateIgnoresUnselectedRooms(t *testing.T) {
	g, _ := newTestGenerator(2)
	p := &model.UserProfile{Profession: "Безработный", HouseholdMembers: adults(2)}
	rooms := []model.Room{{ID: "k", Name: "Кухня", Count: "1", Selected: false}}

	c, err := g.Generate(context.Background(), rooms, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, task := range c.Tasks {
		if task.RoomName == "Кухня" {
			t.Errorf("unselected room got task %d", task.Ref.TaskID)
		}
	}
}

func TestGenerateWritesHistory(t *testing.T) {
	g, hs := newTestGenerator(9)
	p := &model.UserProfile{Profession: "Студент", Area: "50"}

	c, err := g.Generate(context.Background(), []model.Room{room("Кухня", "1")}, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	h, err := hs.Load(context.Background())
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	for _, task := range c.Tasks {
		if !h.UsedOn(task.RoomName, task.Ref.TaskID, "2026-03-10") {
			t.Errorf("task %d in %s missing from history", task.Ref.TaskID, task.RoomName)
		}
	}
}

type brokenHistory struct{}

func (brokenHistory) Load(context.Context) (model.TaskHistory, error) {
	return nil, errors.New("disk on fire")
}
func (brokenHistory) Record(context.Context, string, []model.HistoryEntry) error {
	return errors.New("disk on fire")
}
func (brokenHistory) Laundry(context.Context) (model.LaundryGeneration, error) {
	return model.LaundryGeneration{}, errors.New("disk on fire")
}
func (brokenHistory) SaveLaundry(context.Context, model.LaundryGeneration) error {
	return errors.New("disk on fire")
}

func TestGenerateSurvivesHistoryFailures(t *testing.T) {
	g := NewGenerator(brokenHistory{}, rand.New(rand.NewPCG(1, 1)), slog.Default())
	p := &model.UserProfile{Profession: "Студент", Area: "50"}

	c, err := g.Generate(context.Background(), []model.Room{room("Кухня", "1")}, "2026-03-10", p)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(c.Tasks) == 0 {
		t.Error("expected tasks despite history failures")
	}
}
