package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/chistopro/internal/kv"
)

// MetaStore keeps the assorted timestamps the lifecycle and reminders use.
type MetaStore struct {
	kv kv.Store
}

func NewMetaStore(s kv.Store) *MetaStore {
	return &MetaStore{kv: s}
}

func (s *MetaStore) getTime(ctx context.Context, key string) (time.Time, bool, error) {
	var t time.Time
	found, err := kv.GetJSON(ctx, s.kv, key, &t)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get %s: %w", key, err)
	}
	return t, found, nil
}

func (s *MetaStore) setTime(ctx context.Context, key string, t time.Time) error {
	if err := kv.SetJSON(ctx, s.kv, key, t.UTC()); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *MetaStore) LastVisit(ctx context.Context) (time.Time, bool, error) {
	return s.getTime(ctx, keyLastVisit)
}

func (s *MetaStore) SetLastVisit(ctx context.Context, t time.Time) error {
	return s.setTime(ctx, keyLastVisit, t)
}

func (s *MetaStore) LastGeneration(ctx context.Context) (time.Time, bool, error) {
	return s.getTime(ctx, keyLastGeneration)
}

func (s *MetaStore) SetLastGeneration(ctx context.Context, t time.Time) error {
	return s.setTime(ctx, keyLastGeneration, t)
}

func (s *MetaStore) LastNotification(ctx context.Context) (time.Time, bool, error) {
	return s.getTime(ctx, keyLastNotification)
}

func (s *MetaStore) SetLastNotification(ctx context.Context, t time.Time) error {
	return s.setTime(ctx, keyLastNotification, t)
}
