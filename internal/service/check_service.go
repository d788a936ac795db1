package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/metrics"
	"fsanano/checkout/internal/model"
	"fsanano/checkout/internal/receipt"
	"fsanano/checkout/internal/repository"
)

type CheckService struct {
	checks CheckStore
}

func NewCheckService(checks CheckStore) *CheckService {
	return &CheckService{checks: checks}
}

// Create computes totals for a new check and stores it. A payment that does not
// cover the total is rejected with ErrInsufficientPayment.
func (s *CheckService) Create(ctx context.Context, user *model.User, products []model.Product, payment model.Payment) (*model.Check, error) {
	c := model.NewCheck(user.ID, products, payment)
	if c.Rest.IsNegative() {
		return nil, ErrInsufficientPayment
	}

	if err := s.checks.CreateCheck(ctx, &c); err != nil {
		return nil, err
	}

	metrics.CheckCreated()
	slog.InfoContext(ctx, "check created", "check_id", c.PublicID, "user", user.Username, "total", c.Total.StringFixed(2))
	return &c, nil
}

// Get returns one of the user's checks.
func (s *CheckService) Get(ctx context.Context, user *model.User, publicID string) (*model.Check, error) {
	c, err := s.checks.GetCheck(ctx, publicID, user.ID)
	if err != nil {
		return nil, notFound(err, publicID)
	}
	return c, nil
}

// List runs q over the user's checks. Count and page are read from one snapshot.
func (s *CheckService) List(ctx context.Context, user *model.User, q listquery.Query) (listquery.Result, error) {
	var res listquery.Result
	err := s.checks.ReadConsistent(ctx, func(ctx context.Context) error {
		var err error
		res, err = listquery.Execute(ctx, s.checks.Owned(user.ID), q)
		return err
	})
	return res, err
}

// View renders any check as text. It is not scoped to an owner.
func (s *CheckService) View(ctx context.Context, publicID string, width int) (string, error) {
	c, err := s.checks.GetCheck(ctx, publicID, 0)
	if err != nil {
		return "", notFound(err, publicID)
	}

	text, err := receipt.Render(*c, width)
	if err != nil {
		return "", err
	}
	metrics.ReceiptRendered()
	return text, nil
}

func notFound(err error, publicID string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check %s: %w", publicID, ErrNotFound)
	}
	return err
}
