package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/model"
)

func toNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func fromNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Decimal{}, fmt.Errorf("unexpected numeric value %+v", n)
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}

func column(f listquery.Field) (string, error) {
	switch f {
	case listquery.FieldPaymentType:
		return "payment_type", nil
	case listquery.FieldCreatedAt:
		return "created_at", nil
	case listquery.FieldTotal:
		return "total", nil
	}
	return "", &listquery.UnknownFieldError{Name: string(f)}
}

func argument(v any) (any, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return toNumeric(v), nil
	case time.Time:
		return v, nil
	case model.PaymentType:
		return string(v), nil
	}
	return nil, fmt.Errorf("unsupported filter value %T", v)
}

// whereClause scopes the checks to one owner and ANDs the predicate onto it.
// Placeholders are numbered from $1.
func whereClause(userID int64, p listquery.Predicate) (string, []any, error) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	for _, c := range p.Conditions {
		col, err := column(c.Field)
		if err != nil {
			return "", nil, err
		}
		arg, err := argument(c.Value)
		if err != nil {
			return "", nil, err
		}
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf("%s %s $%d", col, c.Op, len(args)))
	}
	return "WHERE " + strings.Join(conds, " AND "), args, nil
}

func orderClause(o listquery.Ordering) (string, error) {
	col, err := column(o.Field)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", col, dir, dir), nil
}

const checkColumns = "id, public_id, user_id, total, rest, payment_type::text, payment_amount, created_at"

func selectChecks(userID int64, p listquery.Predicate, o listquery.Ordering, limit, offset int) (string, []any, error) {
	where, args, err := whereClause(userID, p)
	if err != nil {
		return "", nil, err
	}
	order, err := orderClause(o)
	if err != nil {
		return "", nil, err
	}
	args = append(args, limit, offset)
	sql := fmt.Sprintf("SELECT %s FROM checks %s %s LIMIT $%d OFFSET $%d",
		checkColumns, where, order, len(args)-1, len(args))
	return sql, args, nil
}

func countChecks(userID int64, p listquery.Predicate) (string, []any, error) {
	where, args, err := whereClause(userID, p)
	if err != nil {
		return "", nil, err
	}
	return "SELECT count(*) FROM checks " + where, args, nil
}
