package memory

import (
	"context"
	"sync"
	"time"
)

type lease struct {
	holder    string
	expiresAt time.Time
}

type lockRepository struct {
	mu     sync.Mutex
	leases map[string]lease
}

func newLockRepository() *lockRepository {
	return &lockRepository{
		leases: make(map[string]lease),
	}
}

func (r *lockRepository) TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if current, ok := r.leases[name]; ok && current.holder != holder && now.Before(current.expiresAt) {
		return false, nil
	}

	r.leases[name] = lease{holder: holder, expiresAt: now.Add(ttl)}
	return true, nil
}

func (r *lockRepository) Release(ctx context.Context, name, holder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.leases[name]; ok && current.holder == holder {
		delete(r.leases, name)
	}
	return nil
}
