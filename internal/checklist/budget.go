package checklist

import (
	"slices"

	"github.com/dukerupert/chistopro/internal/model"
	"github.com/dukerupert/chistopro/internal/taskbank"
)

var workingProfessions = []string{
	"Гибридный работник",
	"Уличный работник",
	"Офисный работник",
	"Удалёнщик",
}

const (
	workingCeiling    = 15
	nonWorkingCeiling = 20

	// Members up to this age are children: they add no budget and are never
	// full participants.
	childMaxAge = 10
	toysMinAge  = 3
)

// IsWorkingProfession reports whether profession is one of the employed
// options. Unknown and empty professions count as non-working.
func IsWorkingProfession(profession string) bool {
	return slices.Contains(workingProfessions, profession)
}

// Ceiling is a person's daily cleaning time in minutes.
func Ceiling(profession string) int {
	if IsWorkingProfession(profession) {
		return workingCeiling
	}
	return nonWorkingCeiling
}

// MaxMinutes is the household's daily budget: the user's ceiling plus the
// ceiling of every member older than ten.
func MaxMinutes(p *model.UserProfile) int {
	total := Ceiling(p.Profession)
	for _, m := range p.HouseholdMembers {
		if m.Years() > childMaxAge {
			total += Ceiling(m.Profession)
		}
	}
	return total
}

type HouseSize int

const (
	SmallHouse HouseSize = iota
	MediumHouse
	LargeHouse
)

// HouseSizeOf classifies the floor area in square metres.
func HouseSizeOf(area string) HouseSize {
	n := model.LeadingInt(area)
	switch {
	case n <= 60:
		return SmallHouse
	case n <= 200:
		return MediumHouse
	}
	return LargeHouse
}

// TaskMinutes scales area-dependent tasks by the house size.
func TaskMinutes(d taskbank.Definition, size HouseSize) int {
	if !d.Type.Scales() {
		return d.BaseMinutes
	}
	switch size {
	case MediumHouse:
		return d.BaseMinutes * 3 / 2
	case LargeHouse:
		return d.BaseMinutes * 2
	}
	return d.BaseMinutes
}

// Participant is someone the day's tasks can be assigned to. A nil ID is the
// primary user.
type Participant struct {
	ID         *string
	Name       string
	MaxMinutes int
}

// Participants returns the user followed by every member older than ten.
func Participants(p *model.UserProfile) []Participant {
	out := []Participant{{Name: p.Name, MaxMinutes: Ceiling(p.Profession)}}
	for _, m := range p.HouseholdMembers {
		if m.Years() > childMaxAge {
			id := m.ID
			out = append(out, Participant{ID: &id, Name: m.Name, MaxMinutes: Ceiling(m.Profession)})
		}
	}
	return out
}

func hasChildren(p *model.UserProfile) bool {
	for _, m := range p.HouseholdMembers {
		if m.Years() <= childMaxAge {
			return true
		}
	}
	return false
}

func toyTidiers(p *model.UserProfile) []model.HouseholdMember {
	var out []model.HouseholdMember
	for _, m := range p.HouseholdMembers {
		if age := m.Years(); age >= toysMinAge && age <= childMaxAge {
			out = append(out, m)
		}
	}
	return out
}
