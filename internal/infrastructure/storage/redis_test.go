package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/boxabirds/post-to-bluesky/domain"
)

// setupTestRedis creates an in-memory Redis instance for testing
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisStore_SetGet(t *testing.T) {
	ctx := context.Background()
	client, mr := setupTestRedis(t)
	store := NewRedisStore(client)

	if err := store.Set(ctx, domain.KeyAuthState, "AUTHENTICATED"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, domain.KeyAuthState)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "AUTHENTICATED" {
		t.Errorf("expected AUTHENTICATED, got %q", got)
	}

	// Keys are namespaced so a shared Redis can host other tenants.
	if !mr.Exists("postd:" + domain.KeyAuthState) {
		t.Error("expected prefixed key in redis")
	}
}

func TestRedisStore_GetMissing(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client)

	_, err := store.Get(context.Background(), domain.KeyDraftPost)
	if !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestRedisStore_Remove(t *testing.T) {
	ctx := context.Background()
	client, _ := setupTestRedis(t)
	store := NewRedisStore(client)

	if err := store.Set(ctx, domain.KeyPassword, "secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Remove(ctx, domain.KeyPassword); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, domain.KeyPassword); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Error("expected key gone after remove")
	}

	// Removing an absent key is not an error; logout must be idempotent.
	if err := store.Remove(ctx, domain.KeyPassword); err != nil {
		t.Errorf("remove of absent key must succeed, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Errorf("expected v, got %q %v", got, err)
	}

	if err := store.Remove(ctx, "k"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, domain.ErrKeyNotFound) {
		t.Error("expected key gone after remove")
	}
}
