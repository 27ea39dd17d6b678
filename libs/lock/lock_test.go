package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	token, ok, err := l.Lock(ctx, "assign", time.Second)
	if err != nil || !ok || token == "" {
		t.Fatalf("expected first lock to succeed, got %q %v %v", token, ok, err)
	}
	if _, ok, _ := l.Lock(ctx, "assign", time.Second); ok {
		t.Fatalf("expected second lock to fail while held")
	}

	if err := l.Unlock(ctx, "assign", token); err != nil {
		t.Fatalf("unexpected unlock error %v", err)
	}
	if err := l.Unlock(ctx, "assign", token); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("expected ErrNotHeld, got %v", err)
	}
	if _, ok, _ := l.Lock(ctx, "assign", time.Second); !ok {
		t.Fatalf("expected released lock to be reacquired")
	}
}

func TestLocalLock_ExpiredHolderCannotReleaseNewHolder(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	slow, ok, _ := l.Lock(ctx, "assign", time.Second)
	if !ok {
		t.Fatalf("expected first lock to succeed")
	}

	now = now.Add(2 * time.Second)
	fresh, ok, _ := l.Lock(ctx, "assign", time.Second)
	if !ok {
		t.Fatalf("expected expired lock to be reacquired")
	}
	if fresh == slow {
		t.Fatalf("expected a new token per acquisition")
	}

	if err := l.Unlock(ctx, "assign", slow); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("expected ErrNotHeld for the expired holder, got %v", err)
	}
	if _, ok, _ := l.Lock(ctx, "assign", time.Second); ok {
		t.Fatalf("expected the new holder to keep the lock")
	}
	if err := l.Unlock(ctx, "assign", fresh); err != nil {
		t.Fatalf("unexpected unlock error %v", err)
	}
}

func TestLocalLock_UnlockAfterExpiry(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLock()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	token, _, _ := l.Lock(ctx, "assign", time.Second)
	now = now.Add(2 * time.Second)
	if err := l.Unlock(ctx, "assign", token); !errors.Is(err, ErrNotHeld) {
		t.Fatalf("expected ErrNotHeld after expiry, got %v", err)
	}
	if _, ok, _ := l.Lock(ctx, "assign", time.Second); !ok {
		t.Fatalf("expected key to be free")
	}
}
