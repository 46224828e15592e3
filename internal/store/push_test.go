package store

import (
	"context"
	"testing"

	"github.com/dukerupert/chistopro/internal/kv"
)

func TestCreateSubscription(t *testing.T) {
	ps := NewPushStore(kv.NewMemory())
	ctx := context.Background()

	sub, err := ps.CreateSubscription(ctx, "https://push.example.com/sub1", "p256dh_key1", "auth_key1", "Chrome Desktop")
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	if sub.Endpoint != "https://push.example.com/sub1" {
		t.Errorf("endpoint = %q, want %q", sub.Endpoint, "https://push.example.com/sub1")
	}
	if sub.DeviceName != "Chrome Desktop" {
		t.Errorf("device_name = %q, want %q", sub.DeviceName, "Chrome Desktop")
	}
	if sub.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestCreateSubscriptionUpsert(t *testing.T) {
	ps := NewPushStore(kv.NewMemory())
	ctx := context.Background()

	ps.CreateSubscription(ctx, "https://push.example.com/sub1", "key1", "auth1", "Device A")
	sub2, err := ps.CreateSubscription(ctx, "https://push.example.com/sub1", "key2", "auth2", "Device B")
	if err != nil {
		t.Fatalf("upsert subscription: %v", err)
	}
	if sub2.P256dhKey != "key2" {
		t.Errorf("p256dh = %q, want %q", sub2.P256dhKey, "key2")
	}

	subs, err := ps.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 subscription after upsert, got %d", len(subs))
	}
	if subs[0].DeviceName != "Device B" {
		t.Errorf("device_name = %q, want %q", subs[0].DeviceName, "Device B")
	}
}

func TestDeleteByEndpoint(t *testing.T) {
	ps := NewPushStore(kv.NewMemory())
	ctx := context.Background()

	ps.CreateSubscription(ctx, "https://push.example.com/a", "k", "a", "A")
	ps.CreateSubscription(ctx, "https://push.example.com/b", "k", "a", "B")

	if err := ps.DeleteByEndpoint(ctx, "https://push.example.com/a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ := ps.List(ctx)
	if len(subs) != 1 || subs[0].Endpoint != "https://push.example.com/b" {
		t.Errorf("subs = %+v, want only endpoint b", subs)
	}
}
