package model

import (
	"fmt"
	"time"
)

// Status is shared by checklists and their tasks.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusMissed     Status = "missed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInProgress, StatusDone, StatusMissed:
		return true
	}
	return false
}

// GeneralRoom is the pseudo-room that room-agnostic inserts are filed under.
const GeneralRoom = "GENERAL"

// TaskRef identifies a checklist task structurally.
type TaskRef struct {
	Room      string `json:"room"`
	TaskID    int    `json:"task_id"`
	CreatedAt int64  `json:"created_at"`
	Seq       int    `json:"seq"`
}

// String renders the ref as the stable task key used by clients.
func (r TaskRef) String() string {
	return fmt.Sprintf("%s-%d-%d-%d", r.Room, r.TaskID, r.CreatedAt, r.Seq)
}

type ChecklistTask struct {
	ID         string  `json:"id"`
	Ref        TaskRef `json:"ref"`
	Title      string  `json:"title"`
	Minutes    int     `json:"minutes"`
	Status     Status  `json:"status"`
	RoomName   string  `json:"room_name"`
	AssignedTo *string `json:"assigned_to"`
}

// AssignedToUser reports whether the task falls to the primary user.
func (t ChecklistTask) AssignedToUser() bool {
	return t.AssignedTo == nil
}

type Checklist struct {
	ID         string          `json:"id"`
	Date       string          `json:"date"`
	Status     Status          `json:"status"`
	Tasks      []ChecklistTask `json:"tasks"`
	CreatedAt  time.Time       `json:"created_at"`
	Backfilled bool            `json:"backfilled,omitempty"`
}

// TotalMinutes sums the task durations.
func (c *Checklist) TotalMinutes() int {
	total := 0
	for _, t := range c.Tasks {
		total += t.Minutes
	}
	return total
}

// AllDone reports whether every task is done. An empty checklist is never done.
func (c *Checklist) AllDone() bool {
	if len(c.Tasks) == 0 {
		return false
	}
	for _, t := range c.Tasks {
		if t.Status != StatusDone {
			return false
		}
	}
	return true
}

// Expired reports whether the 24-hour cycle anchored at CreatedAt has elapsed.
func (c *Checklist) Expired(now time.Time) bool {
	return !now.Before(c.CreatedAt.Add(24 * time.Hour))
}

// MarkMissed resolves an unfinished checklist: open tasks become missed and the
// checklist is missed unless every task was already done.
func (c *Checklist) MarkMissed() {
	for i := range c.Tasks {
		if c.Tasks[i].Status == StatusInProgress {
			c.Tasks[i].Status = StatusMissed
		}
	}
	if c.AllDone() {
		c.Status = StatusDone
		return
	}
	c.Status = StatusMissed
}

// ForceMissed marks the checklist and every task missed.
func (c *Checklist) ForceMissed() {
	for i := range c.Tasks {
		c.Tasks[i].Status = StatusMissed
	}
	c.Status = StatusMissed
}

// TaskByID returns the index of the task with the given id, or -1.
func (c *Checklist) TaskByID(id string) int {
	for i, t := range c.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
