package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/chistopro/internal/kv"
	"github.com/dukerupert/chistopro/internal/model"
)

type PushStore struct {
	kv kv.Store
}

func NewPushStore(s kv.Store) *PushStore {
	return &PushStore{kv: s}
}

// CreateSubscription registers an endpoint. Re-registering an endpoint
// replaces its keys and device name.
func (s *PushStore) CreateSubscription(ctx context.Context, endpoint, p256dh, auth, deviceName string) (*model.PushSubscription, error) {
	subs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range subs {
		if subs[i].Endpoint == endpoint {
			subs[i].P256dhKey = p256dh
			subs[i].AuthKey = auth
			subs[i].DeviceName = deviceName
			if err := s.save(ctx, subs); err != nil {
				return nil, err
			}
			return &subs[i], nil
		}
	}
	sub := model.PushSubscription{
		Endpoint:   endpoint,
		P256dhKey:  p256dh,
		AuthKey:    auth,
		DeviceName: deviceName,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.save(ctx, append(subs, sub)); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *PushStore) List(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if _, err := kv.GetJSON(ctx, s.kv, keyPushSubscriptions, &subs); err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	return subs, nil
}

func (s *PushStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	subs, err := s.List(ctx)
	if err != nil {
		return err
	}
	kept := subs[:0]
	for _, sub := range subs {
		if sub.Endpoint != endpoint {
			kept = append(kept, sub)
		}
	}
	return s.save(ctx, kept)
}

func (s *PushStore) save(ctx context.Context, subs []model.PushSubscription) error {
	if subs == nil {
		subs = []model.PushSubscription{}
	}
	if err := kv.SetJSON(ctx, s.kv, keyPushSubscriptions, subs); err != nil {
		return fmt.Errorf("save push subscriptions: %w", err)
	}
	return nil
}
