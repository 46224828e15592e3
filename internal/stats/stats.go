// Package stats summarises the checklist archive for the profile and
// achievements screens.
package stats

import (
	"sort"

	"github.com/dukerupert/chistopro/internal/model"
)

type Metric int

const (
	MetricMaxLevel Metric = iota
	MetricBestStreak
	MetricGrown
	MetricLeft
)

type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Metric      Metric `json:"-"`
	Threshold   int    `json:"threshold"`
	Unlocked    bool   `json:"unlocked"`
}

var catalogue = []Achievement{
	{ID: "care1", Title: "Ухажёр за чубриком I", Description: "Очистить чубрика до 2 уровня", Metric: MetricMaxLevel, Threshold: 2},
	{ID: "care2", Title: "Ухажёр за чубриком II", Description: "Очистить чубрика до 3 уровня", Metric: MetricMaxLevel, Threshold: 3},
	{ID: "care3", Title: "Ухажёр за чубриком III", Description: "Очистить чубрика до 4 уровня", Metric: MetricMaxLevel, Threshold: 4},
	{ID: "care4", Title: "Ухажёр за чубриком IV", Description: "Очистить чубрика до 5 уровня", Metric: MetricMaxLevel, Threshold: 5},
	{ID: "streak1", Title: "Упорный I", Description: "Выполнить 7 чек-листов подряд", Metric: MetricBestStreak, Threshold: 7},
	{ID: "streak2", Title: "Упорный II", Description: "Выполнить 28 чек-листов подряд", Metric: MetricBestStreak, Threshold: 28},
	{ID: "streak3", Title: "Упорный III", Description: "Выполнить 90 чек-листов подряд", Metric: MetricBestStreak, Threshold: 90},
	{ID: "collector1", Title: "Коллекционер чубриков I", Description: "Очистить своего 1 чубрика", Metric: MetricGrown, Threshold: 1},
	{ID: "collector2", Title: "Коллекционер чубриков II", Description: "Очистить 3 чубрика", Metric: MetricGrown, Threshold: 3},
	{ID: "collector3", Title: "Коллекционер чубриков III", Description: "Очистить 5 чубриков", Metric: MetricGrown, Threshold: 5},
	{ID: "collector4", Title: "Коллекционер чубриков IV", Description: "Очистить 10 чубриков", Metric: MetricGrown, Threshold: 10},
	{ID: "offender1", Title: "Обидчик чубриков I", Description: "Заставить уйти 10 чубриков", Metric: MetricLeft, Threshold: 10},
	{ID: "offender2", Title: "Обидчик чубриков II", Description: "Заставить уйти 20 чубриков", Metric: MetricLeft, Threshold: 20},
	{ID: "offender3", Title: "Обидчик чубриков III", Description: "Заставить уйти 30 чубриков", Metric: MetricLeft, Threshold: 30},
}

type Summary struct {
	TasksDone         int           `json:"tasks_done"`
	TasksMissed       int           `json:"tasks_missed"`
	ChecklistsClosed  int           `json:"checklists_closed"`
	ChecklistsMissed  int           `json:"checklists_missed"`
	BestStreak        int           `json:"best_streak"`
	CurrentStreak     int           `json:"current_streak"`
	Chubriks          int           `json:"chubriks"`
	MaxLevel          int           `json:"max_level"`
	AchievementsCount int           `json:"achievements_count"`
	Achievements      []Achievement `json:"achievements"`
}

// Summarize computes statistics over every stored checklist. Streaks follow
// creation order; a checklist still in progress breaks neither streak.
func Summarize(checklists []model.Checklist, profile *model.UserProfile) Summary {
	var s Summary

	sorted := make([]model.Checklist, len(checklists))
	copy(sorted, checklists)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	run := 0
	for _, c := range sorted {
		for _, t := range c.Tasks {
			switch t.Status {
			case model.StatusDone:
				s.TasksDone++
			case model.StatusMissed:
				s.TasksMissed++
			}
		}

		switch c.Status {
		case model.StatusDone:
			s.ChecklistsClosed++
			run++
			s.BestStreak = max(s.BestStreak, run)
		case model.StatusMissed:
			s.ChecklistsMissed++
			run = 0
		}
	}

	for i := len(sorted) - 1; i >= 0; i-- {
		st := sorted[i].Status
		if st == model.StatusInProgress {
			continue
		}
		if st != model.StatusDone {
			break
		}
		s.CurrentStreak++
	}

	s.MaxLevel = 1
	if profile != nil {
		s.Chubriks = profile.Chubriks
		s.MaxLevel = max(profile.ChubrikMaxLevel, 1)
	}

	s.Achievements = make([]Achievement, len(catalogue))
	for i, a := range catalogue {
		a.Unlocked = s.value(a.Metric) >= a.Threshold
		if a.Unlocked {
			s.AchievementsCount++
		}
		s.Achievements[i] = a
	}
	return s
}

func (s Summary) value(m Metric) int {
	switch m {
	case MetricMaxLevel:
		return s.MaxLevel
	case MetricBestStreak:
		return s.BestStreak
	case MetricGrown:
		return s.Chubriks
	case MetricLeft:
		return s.ChecklistsMissed
	}
	return 0
}
