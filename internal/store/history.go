package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/chistopro/internal/kv"
	"github.com/dukerupert/chistopro/internal/model"
)

const historyRetention = 30 * 24 * time.Hour

// HistoryStore persists per-room task usage and the laundry cycle counter.
type HistoryStore struct {
	kv kv.Store
}

func NewHistoryStore(s kv.Store) *HistoryStore {
	return &HistoryStore{kv: s}
}

func (s *HistoryStore) Load(ctx context.Context) (model.TaskHistory, error) {
	var h model.TaskHistory
	if _, err := kv.GetJSON(ctx, s.kv, keyTaskHistory, &h); err != nil {
		return nil, fmt.Errorf("load task history: %w", err)
	}
	return h, nil
}

// Record appends entries for date and drops entries older than the
// retention window.
func (s *HistoryStore) Record(ctx context.Context, date string, entries []model.HistoryEntry) error {
	h, err := s.Load(ctx)
	if err != nil {
		return err
	}
	h = h.Append(date, entries...)
	if d, err := time.Parse(time.DateOnly, date); err == nil {
		h = h.PruneBefore(d.Add(-historyRetention).Format(time.DateOnly))
	}
	if err := kv.SetJSON(ctx, s.kv, keyTaskHistory, h); err != nil {
		return fmt.Errorf("save task history: %w", err)
	}
	return nil
}

func (s *HistoryStore) Laundry(ctx context.Context) (model.LaundryGeneration, error) {
	var g model.LaundryGeneration
	if _, err := kv.GetJSON(ctx, s.kv, keyLaundryGeneration, &g); err != nil {
		return model.LaundryGeneration{}, fmt.Errorf("load laundry generation: %w", err)
	}
	return g, nil
}

func (s *HistoryStore) SaveLaundry(ctx context.Context, g model.LaundryGeneration) error {
	if err := kv.SetJSON(ctx, s.kv, keyLaundryGeneration, g); err != nil {
		return fmt.Errorf("save laundry generation: %w", err)
	}
	return nil
}

// Clear drops the usage log and the laundry counter.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, keyTaskHistory); err != nil {
		return fmt.Errorf("clear task history: %w", err)
	}
	if err := s.kv.Remove(ctx, keyLaundryGeneration); err != nil {
		return fmt.Errorf("clear laundry generation: %w", err)
	}
	return nil
}
