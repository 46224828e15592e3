package checklist

import (
	"testing"

	"github.com/dukerupert/chistopro/internal/model"
)

func strPtr(s string) *string { return &s }

func tasksOf(minutes ...int) []model.ChecklistTask {
	out := make([]model.ChecklistTask, len(minutes))
	for i, m := range minutes {
		out[i] = model.ChecklistTask{ID: string(rune('a' + i)), Minutes: m}
	}
	return out
}

func loadOf(tasks []model.ChecklistTask) map[string]int {
	load := make(map[string]int)
	for _, t := range tasks {
		key := ""
		if t.AssignedTo != nil {
			key = *t.AssignedTo
		}
		load[key] += t.Minutes
	}
	return load
}

func TestAssignBalancesByTime(t *testing.T) {
	participants := []Participant{
		{MaxMinutes: 15},
		{ID: strPtr("m"), MaxMinutes: 20},
	}
	tasks := tasksOf(4, 10, 5, 6)

	Assign(tasks, participants)

	// 10 -> user, 6 -> m, 5 -> m (6 < 10), 4 -> user (10 < 11)
	load := loadOf(tasks)
	if load[""] != 14 || load["m"] != 11 {
		t.Errorf("load = %v, want user 14 and m 11", load)
	}
}

func TestAssignKeepsPreassigned(t *testing.T) {
	participants := []Participant{
		{MaxMinutes: 20},
		{ID: strPtr("m"), MaxMinutes: 20},
	}
	tasks := tasksOf(3, 8, 8)
	tasks[0].AssignedTo = strPtr("kid")

	Assign(tasks, participants)

	if tasks[0].AssignedTo == nil || *tasks[0].AssignedTo != "kid" {
		t.Errorf("preassigned task moved to %v", tasks[0].AssignedTo)
	}
	load := loadOf(tasks)
	if load[""] != 8 || load["m"] != 8 {
		t.Errorf("load = %v, want 8 each", load)
	}
}

func TestAssignPreassignedCountsAgainstParticipant(t *testing.T) {
	participants := []Participant{
		{MaxMinutes: 20},
		{ID: strPtr("m"), MaxMinutes: 20},
	}
	tasks := tasksOf(10, 5)
	tasks[0].AssignedTo = strPtr("m")

	Assign(tasks, participants)

	if !tasks[1].AssignedToUser() {
		t.Errorf("5-minute task went to %q, want the less loaded user", *tasks[1].AssignedTo)
	}
}

func TestAssignOverflowGoesToLeastLoaded(t *testing.T) {
	participants := []Participant{
		{MaxMinutes: 15},
		{ID: strPtr("m"), MaxMinutes: 15},
	}
	tasks := tasksOf(14, 13, 12)

	Assign(tasks, participants)

	// 14 -> user, 13 -> m, 12 fits nobody: m has less time
	if tasks[2].AssignedTo == nil || *tasks[2].AssignedTo != "m" {
		t.Errorf("overflow task assigned to %v, want m", tasks[2].AssignedTo)
	}
	for _, task := range tasks {
		if task.ID == "" {
			t.Fatal("task lost")
		}
	}
}

func TestAssignSingleParticipant(t *testing.T) {
	tasks := tasksOf(30, 20)

	Assign(tasks, []Participant{{MaxMinutes: 15}})

	for _, task := range tasks {
		if !task.AssignedToUser() {
			t.Errorf("task %s assigned to %q, want the user", task.ID, *task.AssignedTo)
		}
	}
}
