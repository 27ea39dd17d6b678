package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotHeld = errors.New("lock not held")

// Locker is a best-effort mutual exclusion keyed by name. Lock returns a
// token naming this acquisition and reports false without error when someone
// else holds the key. Unlock releases the key only while token still owns it.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

type lease struct {
	token   string
	expires time.Time
}

// LocalLock serialises callers inside a single process. Keys expire after
// their ttl like their Redis counterpart.
type LocalLock struct {
	mu   sync.Mutex
	now  func() time.Time
	held map[string]lease
}

func NewLocalLock() *LocalLock {
	return &LocalLock{now: time.Now, held: map[string]lease{}}
}

func (l *LocalLock) Lock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.held[key]; ok && now.Before(cur.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.held[key] = lease{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLock) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur, ok := l.held[key]
	if !ok || cur.token != token {
		return ErrNotHeld
	}
	delete(l.held, key)
	if !l.now().Before(cur.expires) {
		return ErrNotHeld
	}
	return nil
}
