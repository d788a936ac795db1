package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/model"
)

type CheckRepository struct {
	db *pgxpool.Pool
}

func NewCheckRepository(db *pgxpool.Pool) *CheckRepository {
	return &CheckRepository{db: db}
}

// ReadConsistent runs fn in a read-only REPEATABLE READ transaction so every
// query inside it sees the same snapshot.
func (r *CheckRepository) ReadConsistent(ctx context.Context, fn func(ctx context.Context) error) error {
	return runInTx(ctx, r.db, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

// CreateCheck inserts the check and its products atomically and fills in ID and CreatedAt.
func (r *CheckRepository) CreateCheck(ctx context.Context, c *model.Check) error {
	return runInTx(ctx, r.db, pgx.TxOptions{}, func(ctx context.Context) error {
		exec := getExecutor(ctx, r.db)

		err := exec.QueryRow(ctx,
			`INSERT INTO checks (public_id, user_id, total, rest, payment_type, payment_amount)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, created_at`,
			c.PublicID, c.UserID, toNumeric(c.Total), toNumeric(c.Rest),
			string(c.Payment.Type), toNumeric(c.Payment.Amount),
		).Scan(&c.ID, &c.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("check %s: %w", c.PublicID, ErrDuplicate)
			}
			return fmt.Errorf("failed to create check: %w", err)
		}
		c.CreatedAt = c.CreatedAt.UTC()

		batch := &pgx.Batch{}
		for _, p := range c.Products {
			batch.Queue(
				"INSERT INTO check_products (check_id, name, price, quantity) VALUES ($1, $2, $3, $4)",
				c.ID, p.Name, toNumeric(p.Price), toNumeric(p.Quantity),
			)
		}
		if err := exec.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to create check products: %w", err)
		}
		return nil
	})
}

// GetCheck finds a check by public id. A zero ownerID matches any owner.
func (r *CheckRepository) GetCheck(ctx context.Context, publicID string, ownerID int64) (*model.Check, error) {
	sql := "SELECT " + checkColumns + " FROM checks WHERE public_id = $1"
	args := []any{publicID}
	if ownerID != 0 {
		sql += " AND user_id = $2"
		args = append(args, ownerID)
	}

	exec := getExecutor(ctx, r.db)
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get check: %w", err)
	}
	checks, err := scanChecks(rows)
	if err != nil {
		return nil, err
	}
	if len(checks) == 0 {
		return nil, ErrNotFound
	}
	if err := loadProducts(ctx, exec, checks); err != nil {
		return nil, err
	}
	return &checks[0], nil
}

// Owned returns the list source over one user's checks.
func (r *CheckRepository) Owned(userID int64) listquery.Source {
	return &ownedChecks{db: r.db, userID: userID}
}

type ownedChecks struct {
	db     *pgxpool.Pool
	userID int64
}

func (o *ownedChecks) Count(ctx context.Context, p listquery.Predicate) (int, error) {
	sql, args, err := countChecks(o.userID, p)
	if err != nil {
		return 0, err
	}
	var n int
	if err := getExecutor(ctx, o.db).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count checks: %w", err)
	}
	return n, nil
}

func (o *ownedChecks) Fetch(ctx context.Context, p listquery.Predicate, ord listquery.Ordering, limit, offset int) ([]model.Check, error) {
	sql, args, err := selectChecks(o.userID, p, ord, limit, offset)
	if err != nil {
		return nil, err
	}

	exec := getExecutor(ctx, o.db)
	rows, err := exec.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	checks, err := scanChecks(rows)
	if err != nil {
		return nil, err
	}
	if err := loadProducts(ctx, exec, checks); err != nil {
		return nil, err
	}
	return checks, nil
}

func scanChecks(rows pgx.Rows) ([]model.Check, error) {
	defer rows.Close()

	var checks []model.Check
	for rows.Next() {
		var (
			c                 model.Check
			paymentType       string
			total, rest, paid pgtype.Numeric
		)
		if err := rows.Scan(&c.ID, &c.PublicID, &c.UserID, &total, &rest, &paymentType, &paid, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan check: %w", err)
		}

		var err error
		if c.Total, err = fromNumeric(total); err != nil {
			return nil, err
		}
		if c.Rest, err = fromNumeric(rest); err != nil {
			return nil, err
		}
		if c.Payment.Amount, err = fromNumeric(paid); err != nil {
			return nil, err
		}
		c.Payment.Type = model.PaymentType(paymentType)
		c.CreatedAt = c.CreatedAt.UTC()
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checks: %w", err)
	}
	return checks, nil
}

// loadProducts fills Products for every check with one query, keeping insertion order.
func loadProducts(ctx context.Context, exec PgxExecutor, checks []model.Check) error {
	if len(checks) == 0 {
		return nil
	}

	ids := make([]int64, len(checks))
	byID := make(map[int64]*model.Check, len(checks))
	for i := range checks {
		ids[i] = checks[i].ID
		byID[checks[i].ID] = &checks[i]
	}

	rows, err := exec.Query(ctx,
		"SELECT check_id, name, price, quantity FROM check_products WHERE check_id = ANY($1) ORDER BY check_id, id",
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to load check products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			checkID         int64
			name            string
			price, quantity pgtype.Numeric
		)
		if err := rows.Scan(&checkID, &name, &price, &quantity); err != nil {
			return fmt.Errorf("failed to scan check product: %w", err)
		}
		p := model.Product{Name: name}
		if p.Price, err = fromNumeric(price); err != nil {
			return err
		}
		if p.Quantity, err = fromNumeric(quantity); err != nil {
			return err
		}
		c, ok := byID[checkID]
		if !ok {
			return errors.New("product row for an unknown check")
		}
		c.Products = append(c.Products, p)
	}
	return rows.Err()
}
