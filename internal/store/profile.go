package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dukerupert/chistopro/internal/kv"
	"github.com/dukerupert/chistopro/internal/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileStore struct {
	kv kv.Store
}

func NewProfileStore(s kv.Store) *ProfileStore {
	return &ProfileStore{kv: s}
}

// Get returns the stored profile, or nil when onboarding has not been completed.
func (s *ProfileStore) Get(ctx context.Context) (*model.UserProfile, error) {
	var p model.UserProfile
	found, err := kv.GetJSON(ctx, s.kv, keyProfile, &p)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if !found {
		return nil, nil
	}
	p.Normalize()
	return &p, nil
}

func (s *ProfileStore) Save(ctx context.Context, p *model.UserProfile) error {
	p.Normalize()
	if err := kv.SetJSON(ctx, s.kv, keyProfile, p); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// Update re-reads the stored profile, applies fn and saves the result.
func (s *ProfileStore) Update(ctx context.Context, fn func(*model.UserProfile) error) (*model.UserProfile, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProfileNotFound
	}
	if err := fn(p); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProfileStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, keyProfile); err != nil {
		return fmt.Errorf("clear profile: %w", err)
	}
	return nil
}
