package idempotency

import (
	"context"
	"fmt"
	"testing"
	"time"
)

type fakeStore struct {
	data    map[string]string
	lastTTL time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastTTL = ttl
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("sq:idempotency:%s:%s", scope, id)
}

func TestNewManagerRequiresStore(t *testing.T) {
	if _, err := NewManager(nil, time.Minute); err == nil {
		t.Fatal("expected error for nil store")
	}
	if _, err := NewManager(newFakeStore(), -time.Minute); err == nil {
		t.Fatal("expected error for negative ttl")
	}
}

func TestCheckAndMarkProcessed(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen, err := manager.CheckAndMarkProcessed(context.Background(), "worker", "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Fatal("first check should not report processed")
	}
	if store.lastTTL != time.Hour {
		t.Fatalf("expected ttl 1h got %v", store.lastTTL)
	}

	seen, err = manager.CheckAndMarkProcessed(context.Background(), "worker", "evt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !seen {
		t.Fatal("second check should report processed")
	}
}

func TestCheckAndMarkProcessedValidatesInputs(t *testing.T) {
	manager, err := NewManager(newFakeStore(), time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", "evt-1"); err == nil {
		t.Fatal("expected error for empty consumer")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "worker", ""); err == nil {
		t.Fatal("expected error for empty event key")
	}
}

func TestDeleteClearsMarker(t *testing.T) {
	store := newFakeStore()
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := manager.CheckAndMarkProcessed(context.Background(), "worker", "evt-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := manager.Delete(context.Background(), "worker", "evt-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen, err := manager.CheckAndMarkProcessed(context.Background(), "worker", "evt-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seen {
		t.Fatal("marker should have been cleared")
	}
}
