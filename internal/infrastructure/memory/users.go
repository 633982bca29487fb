// Package memory holds an in-process credential store. It backs STORE_DRIVER=memory
// for local runs and the end-to-end HTTP tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-weather-auth/internal/domain"
)

// UserRepo keeps users in maps guarded by a mutex. Records are copied on the
// way in and out so callers never share memory with the store.
type UserRepo struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	now     func() time.Time
}

func NewUserRepo() *UserRepo {
	return &UserRepo{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byEmail[u.Email]; taken {
		return fmt.Errorf("email %s already registered: %w", u.Email, domain.ErrDuplicateEmail)
	}
	if _, taken := r.byID[u.UserID]; taken {
		return fmt.Errorf("user id collision: %w", domain.ErrConflict)
	}
	r.byID[u.UserID] = clone(u)
	r.byEmail[u.Email] = u.UserID
	return nil
}

func (r *UserRepo) Get(_ context.Context, userID string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[userID]
	if !ok {
		return nil, fmt.Errorf("user %s not found: %w", userID, domain.ErrNotFound)
	}
	out := clone(&u)
	return &out, nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("email not registered: %w", domain.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// Update applies the same compare-and-swap on Version as the DynamoDB repo.
func (r *UserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[u.UserID]
	if !ok || stored.Version != u.Version {
		return fmt.Errorf("user %s changed concurrently: %w", u.UserID, domain.ErrConflict)
	}
	next := clone(u)
	next.Version++
	next.UpdatedAt = r.now().UTC()
	next.Email = stored.Email
	r.byID[u.UserID] = next

	u.Version = next.Version
	u.UpdatedAt = next.UpdatedAt
	return nil
}

func clone(u *domain.User) domain.User {
	c := *u
	if u.ResetCode != nil {
		code := *u.ResetCode
		c.ResetCode = &code
	}
	if u.ResetCodeExpiry != nil {
		exp := *u.ResetCodeExpiry
		c.ResetCodeExpiry = &exp
	}
	return c
}
