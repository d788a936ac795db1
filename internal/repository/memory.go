package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/model"
)

// MemoryStore keeps users and checks in process memory. It serves the same
// contracts as the Postgres repositories and is used by tests and by
// STORAGE_DRIVER=memory.
type MemoryStore struct {
	mu     sync.RWMutex
	users  []model.User
	checks []model.Check
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

type snapshotKey struct{}

// ReadConsistent runs fn against a frozen copy of the checks.
func (s *MemoryStore) ReadConsistent(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(snapshotKey{}).([]model.Check); ok {
		return fn(ctx)
	}
	s.mu.RLock()
	snap := slices.Clone(s.checks)
	s.mu.RUnlock()
	return fn(context.WithValue(ctx, snapshotKey{}, snap))
}

func (s *MemoryStore) snapshot(ctx context.Context) []model.Check {
	if snap, ok := ctx.Value(snapshotKey{}).([]model.Check); ok {
		return snap
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.checks)
}

func (s *MemoryStore) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return fmt.Errorf("user %s: %w", u.Username, ErrDuplicate)
		}
	}
	u.ID = int64(len(s.users) + 1)
	u.CreatedAt = s.now().UTC()
	s.users = append(s.users, *u)
	return nil
}

func (s *MemoryStore) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) CreateCheck(_ context.Context, c *model.Check) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.checks {
		if existing.PublicID == c.PublicID {
			return fmt.Errorf("check %s: %w", c.PublicID, ErrDuplicate)
		}
	}
	c.ID = int64(len(s.checks) + 1)
	c.CreatedAt = s.now().UTC()
	stored := *c
	stored.Products = slices.Clone(c.Products)
	s.checks = append(s.checks, stored)
	return nil
}

// GetCheck finds a check by public id. A zero ownerID matches any owner.
func (s *MemoryStore) GetCheck(ctx context.Context, publicID string, ownerID int64) (*model.Check, error) {
	for _, c := range s.snapshot(ctx) {
		if c.PublicID == publicID && (ownerID == 0 || c.UserID == ownerID) {
			c.Products = slices.Clone(c.Products)
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) Owned(userID int64) listquery.Source {
	return &memoryChecks{store: s, userID: userID}
}

type memoryChecks struct {
	store  *MemoryStore
	userID int64
}

func (m *memoryChecks) matching(ctx context.Context, p listquery.Predicate) []model.Check {
	var out []model.Check
	for _, c := range m.store.snapshot(ctx) {
		if c.UserID == m.userID && p.Match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (m *memoryChecks) Count(ctx context.Context, p listquery.Predicate) (int, error) {
	return len(m.matching(ctx, p)), nil
}

func (m *memoryChecks) Fetch(ctx context.Context, p listquery.Predicate, o listquery.Ordering, limit, offset int) ([]model.Check, error) {
	rows := m.matching(ctx, p)
	slices.SortFunc(rows, o.Compare)

	if offset >= len(rows) {
		return []model.Check{}, nil
	}
	rows = rows[offset:]
	if limit < len(rows) {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].Products = slices.Clone(rows[i].Products)
	}
	return rows, nil
}
