package checklist

import (
	"sort"

	"github.com/dukerupert/chistopro/internal/model"
)

// Assign shares out the unassigned tasks (nil AssignedTo) among participants.
// Tasks that already have an assignee are left alone and count against that
// participant. Larger tasks go first, each to the participant with the least
// time so far who still has headroom under their ceiling; when nobody has
// headroom the ceiling is ignored. With a single participant every task stays
// with the user.
func Assign(tasks []model.ChecklistTask, participants []Participant) {
	if len(participants) <= 1 || len(tasks) == 0 {
		return
	}

	load := make([]int, len(participants))
	var pending []int
	for i, t := range tasks {
		if t.AssignedTo == nil {
			pending = append(pending, i)
			continue
		}
		for j, p := range participants {
			if p.ID != nil && *p.ID == *t.AssignedTo {
				load[j] += t.Minutes
				break
			}
		}
	}

	sort.SliceStable(pending, func(a, b int) bool {
		return tasks[pending[a]].Minutes > tasks[pending[b]].Minutes
	})

	for _, i := range pending {
		m := tasks[i].Minutes
		best := -1
		for j, p := range participants {
			if load[j]+m <= p.MaxMinutes && (best < 0 || load[j] < load[best]) {
				best = j
			}
		}
		if best < 0 {
			best = 0
			for j := range participants {
				if load[j] < load[best] {
					best = j
				}
			}
		}
		load[best] += m
		if id := participants[best].ID; id != nil {
			v := *id
			tasks[i].AssignedTo = &v
		}
	}
}
