package model

import (
	"strconv"
	"strings"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Count    string `json:"count"`
	Selected bool   `json:"selected"`
	IsCustom bool   `json:"is_custom"`
}

// Units returns the room's unit count, at least 1.
func (r Room) Units() int {
	n := LeadingInt(r.Count)
	if n < 1 {
		return 1
	}
	return n
}

type HouseholdMember struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Age        string  `json:"age"`
	Gender     *Gender `json:"gender"`
	Profession string  `json:"profession"`
}

// Years parses the member's age; unparseable ages read as 0.
func (m HouseholdMember) Years() int {
	return LeadingInt(m.Age)
}

type UserProfile struct {
	Name       string  `json:"name"`
	Age        string  `json:"age"`
	Gender     *Gender `json:"gender"`
	Profession string  `json:"profession"`

	HouseholdMembers []HouseholdMember `json:"household_members"`

	Area    string `json:"area"`
	HasPets bool   `json:"has_pets"`
	Rooms   []Room `json:"rooms"`

	NotificationsEnabled bool `json:"notifications_enabled"`

	ChubrikProgress int `json:"chubrik_progress"`
	ChubrikMaxLevel int `json:"chubrik_max_level"`
	Chubriks        int `json:"chubriks"`

	AvatarIndex int `json:"avatar_index"`
}

// SelectedRooms returns the rooms the user wants cleaned.
func (p *UserProfile) SelectedRooms() []Room {
	return SelectedRoomsOf(p.Rooms)
}

// SelectedRoomsOf returns a fresh slice of the selected rooms.
func SelectedRoomsOf(rooms []Room) []Room {
	var out []Room
	for _, r := range rooms {
		if r.Selected {
			out = append(out, r)
		}
	}
	return out
}

// Normalize fills defaults for records written by older versions and prunes
// custom rooms that are deselected, unnamed or empty.
func (p *UserProfile) Normalize() {
	if p.ChubrikMaxLevel < 1 {
		p.ChubrikMaxLevel = 1
	}
	if p.ChubrikProgress < 0 {
		p.ChubrikProgress = 0
	}
	if p.Chubriks < 0 {
		p.Chubriks = 0
	}

	rooms := p.Rooms[:0]
	for _, r := range p.Rooms {
		if r.IsCustom {
			if !r.Selected || strings.TrimSpace(r.Name) == "" || LeadingInt(r.Count) < 1 {
				continue
			}
		}
		rooms = append(rooms, r)
	}
	p.Rooms = rooms
}

// LeadingInt parses the leading decimal digits of s ("50 м2" is 50).
// It returns 0 when s does not start with a digit.
func LeadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[0] == '-' || s[0] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
