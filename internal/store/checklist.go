package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/dukerupert/chistopro/internal/kv"
	"github.com/dukerupert/chistopro/internal/model"
)

// ChecklistStore keeps every generated checklist in one record, newest first.
type ChecklistStore struct {
	kv kv.Store
}

func NewChecklistStore(s kv.Store) *ChecklistStore {
	return &ChecklistStore{kv: s}
}

func (s *ChecklistStore) List(ctx context.Context) ([]model.Checklist, error) {
	var checklists []model.Checklist
	if _, err := kv.GetJSON(ctx, s.kv, keyChecklists, &checklists); err != nil {
		return nil, fmt.Errorf("list checklists: %w", err)
	}
	sortNewestFirst(checklists)
	return checklists, nil
}

// Last returns the most recently created checklist, or nil.
func (s *ChecklistStore) Last(ctx context.Context) (*model.Checklist, error) {
	checklists, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(checklists) == 0 {
		return nil, nil
	}
	return &checklists[0], nil
}

func (s *ChecklistStore) Get(ctx context.Context, id string) (*model.Checklist, error) {
	checklists, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range checklists {
		if checklists[i].ID == id {
			return &checklists[i], nil
		}
	}
	return nil, nil
}

// Save inserts the checklist or replaces the one with the same id.
func (s *ChecklistStore) Save(ctx context.Context, c *model.Checklist) error {
	checklists, err := s.List(ctx)
	if err != nil {
		return err
	}
	replaced := false
	for i := range checklists {
		if checklists[i].ID == c.ID {
			checklists[i] = *c
			replaced = true
			break
		}
	}
	if !replaced {
		checklists = append(checklists, *c)
	}
	return s.ReplaceAll(ctx, checklists)
}

func (s *ChecklistStore) ReplaceAll(ctx context.Context, checklists []model.Checklist) error {
	if checklists == nil {
		checklists = []model.Checklist{}
	}
	sortNewestFirst(checklists)
	if err := kv.SetJSON(ctx, s.kv, keyChecklists, checklists); err != nil {
		return fmt.Errorf("save checklists: %w", err)
	}
	return nil
}

func (s *ChecklistStore) Remove(ctx context.Context, id string) error {
	checklists, err := s.List(ctx)
	if err != nil {
		return err
	}
	kept := checklists[:0]
	for _, c := range checklists {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	return s.ReplaceAll(ctx, kept)
}

func (s *ChecklistStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, keyChecklists); err != nil {
		return fmt.Errorf("clear checklists: %w", err)
	}
	return nil
}

func sortNewestFirst(checklists []model.Checklist) {
	sort.SliceStable(checklists, func(i, j int) bool {
		return checklists[i].CreatedAt.After(checklists[j].CreatedAt)
	})
}
