package service

import (
	"context"

	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/model"
)

// UserStore is satisfied by repository.UserRepository and repository.MemoryStore.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// CheckStore is satisfied by repository.CheckRepository and repository.MemoryStore.
type CheckStore interface {
	CreateCheck(ctx context.Context, c *model.Check) error
	GetCheck(ctx context.Context, publicID string, ownerID int64) (*model.Check, error)
	Owned(userID int64) listquery.Source
	ReadConsistent(ctx context.Context, fn func(ctx context.Context) error) error
}
