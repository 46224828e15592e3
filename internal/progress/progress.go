// Package progress implements the chubrik growth ratchet: finishing a
// checklist grows the pet, missing one knocks it back to the start.
package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/chistopro/internal/model"
)

const (
	DefaultTotalDays = 8
	DefaultBands     = 4
)

// Config sets how many completed checklists grow one chubrik and how many
// level bands that growth is split into. Levels run from 1 to Bands+1.
type Config struct {
	TotalDays int
	Bands     int
}

func (c Config) withDefaults() Config {
	if c.TotalDays <= 0 {
		c.TotalDays = DefaultTotalDays
	}
	if c.Bands <= 0 {
		c.Bands = DefaultBands
	}
	return c
}

// Level maps a progress value to its growth level.
func (c Config) Level(progress int) int {
	c = c.withDefaults()
	step := float64(c.TotalDays) / float64(c.Bands)
	for i := c.Bands; i >= 0; i-- {
		if float64(progress) >= float64(i)*step {
			return i + 1
		}
	}
	return 1
}

// State is the growth part of the profile.
type State struct {
	Progress int `json:"progress"`
	MaxLevel int `json:"max_level"`
	Chubriks int `json:"chubriks"`
}

func StateOf(p *model.UserProfile) State {
	return State{Progress: p.ChubrikProgress, MaxLevel: p.ChubrikMaxLevel, Chubriks: p.Chubriks}
}

func (s State) apply(p *model.UserProfile) {
	p.ChubrikProgress = s.Progress
	p.ChubrikMaxLevel = s.MaxLevel
	p.Chubriks = s.Chubriks
}

// Advance applies one resolved checklist to the growth state. A done
// checklist adds a day and may raise the max level watermark; reaching
// TotalDays grows a chubrik and starts the next from zero. A missed checklist
// zeroes progress but keeps the watermark and the grown count.
func (c Config) Advance(s State, status model.Status) State {
	c = c.withDefaults()
	if s.MaxLevel < 1 {
		s.MaxLevel = 1
	}
	s.Progress = min(max(s.Progress, 0), c.TotalDays)

	switch status {
	case model.StatusDone:
		s.Progress = min(s.Progress+1, c.TotalDays)
		if lvl := c.Level(s.Progress); lvl > s.MaxLevel {
			s.MaxLevel = lvl
		}
		if s.Progress >= c.TotalDays {
			s.Chubriks++
			s.Progress = 0
		}
	case model.StatusMissed:
		s.Progress = 0
	}
	return s
}

// Profiles is the read-modify-write access the engine needs.
type Profiles interface {
	Update(ctx context.Context, fn func(*model.UserProfile) error) (*model.UserProfile, error)
}

type Engine struct {
	cfg      Config
	profiles Profiles
	logger   *slog.Logger
}

func NewEngine(cfg Config, profiles Profiles, logger *slog.Logger) *Engine {
	return &Engine{
		cfg:      cfg.withDefaults(),
		profiles: profiles,
		logger:   logger.With("component", "progress"),
	}
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Record advances the stored profile for a checklist resolved with status.
// Profile write failures are returned.
func (e *Engine) Record(ctx context.Context, status model.Status) (State, error) {
	var before, after State
	_, err := e.profiles.Update(ctx, func(p *model.UserProfile) error {
		before = StateOf(p)
		after = e.cfg.Advance(before, status)
		after.apply(p)
		return nil
	})
	if err != nil {
		return State{}, fmt.Errorf("record progress: %w", err)
	}

	e.logger.Info("progress advanced",
		"status", status,
		"progress", after.Progress,
		"max_level", after.MaxLevel,
		"chubriks", after.Chubriks,
	)
	if after.Chubriks > before.Chubriks {
		e.logger.Info("chubrik grown", "chubriks", after.Chubriks)
	}
	return after, nil
}

// Summary is the read-only view shown to the user.
type Summary struct {
	Progress  int `json:"progress"`
	TotalDays int `json:"total_days"`
	Level     int `json:"level"`
	MaxLevel  int `json:"max_level"`
	Chubriks  int `json:"chubriks"`
}

func (e *Engine) Summarize(p *model.UserProfile) Summary {
	return Summary{
		Progress:  p.ChubrikProgress,
		TotalDays: e.cfg.TotalDays,
		Level:     e.cfg.Level(p.ChubrikProgress),
		MaxLevel:  max(p.ChubrikMaxLevel, 1),
		Chubriks:  p.Chubriks,
	}
}
