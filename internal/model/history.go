package model

// RoomTaskHistory is the append-only usage log for one room, kept as
// parallel arrays.
type RoomTaskHistory struct {
	RoomName  string   `json:"room_name"`
	TaskIDs   []int    `json:"task_ids"`
	Dates     []string `json:"dates"`
	TaskTypes []string `json:"task_types"`
}

// HistoryEntry is a single usage of a bank task in a room on a date.
type HistoryEntry struct {
	RoomName string
	TaskID   int
	TaskType string
}

// TaskHistory is the usage log for every room.
type TaskHistory []RoomTaskHistory

func (h TaskHistory) room(name string) *RoomTaskHistory {
	for i := range h {
		if h[i].RoomName == name {
			return &h[i]
		}
	}
	return nil
}

// UsedOn reports whether taskID was placed in room on date.
func (h TaskHistory) UsedOn(room string, taskID int, date string) bool {
	r := h.room(room)
	if r == nil {
		return false
	}
	for i := range r.TaskIDs {
		if r.TaskIDs[i] == taskID && r.Dates[i] == date {
			return true
		}
	}
	return false
}

// TypeUsedOn reports whether a task of taskType was placed in room on date.
func (h TaskHistory) TypeUsedOn(room, taskType, date string) bool {
	r := h.room(room)
	if r == nil {
		return false
	}
	for i := range r.TaskTypes {
		if r.TaskTypes[i] == taskType && r.Dates[i] == date {
			return true
		}
	}
	return false
}

// Append adds entries dated date and returns the extended history.
func (h TaskHistory) Append(date string, entries ...HistoryEntry) TaskHistory {
	for _, e := range entries {
		r := h.room(e.RoomName)
		if r == nil {
			h = append(h, RoomTaskHistory{RoomName: e.RoomName})
			r = &h[len(h)-1]
		}
		r.TaskIDs = append(r.TaskIDs, e.TaskID)
		r.Dates = append(r.Dates, date)
		r.TaskTypes = append(r.TaskTypes, e.TaskType)
	}
	return h
}

// PruneBefore drops entries dated before cutoff (YYYY-MM-DD compares lexically)
// and rooms left empty.
func (h TaskHistory) PruneBefore(cutoff string) TaskHistory {
	out := h[:0]
	for _, r := range h {
		kept := RoomTaskHistory{RoomName: r.RoomName}
		for i := range r.TaskIDs {
			if r.Dates[i] < cutoff {
				continue
			}
			kept.TaskIDs = append(kept.TaskIDs, r.TaskIDs[i])
			kept.Dates = append(kept.Dates, r.Dates[i])
			kept.TaskTypes = append(kept.TaskTypes, r.TaskTypes[i])
		}
		if len(kept.TaskIDs) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// LaundryGeneration drives the 10-generation laundry cycle.
type LaundryGeneration struct {
	GenerationCount    int `json:"generation_count"`
	CurrentLaundryStep int `json:"current_laundry_step"`
}
