package repository

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsanano/checkout/internal/listquery"
	"fsanano/checkout/internal/model"
)

func TestSelectChecks_FiltersOrderAndPage(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	p, err := listquery.BuildFilters(listquery.FilterSpec{
		"payment_type":     model.PaymentCash,
		"created_at_start": day,
		"total_end":        decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)

	sql, args, err := selectChecks(7, p, listquery.Ordering{Field: listquery.FieldTotal, Desc: true}, 25, 50)
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT "+checkColumns+" FROM checks"+
			" WHERE user_id = $1 AND payment_type = $2 AND created_at >= $3 AND total <= $4"+
			" ORDER BY total DESC, id DESC LIMIT $5 OFFSET $6",
		sql)
	require.Len(t, args, 6)
	assert.Equal(t, int64(7), args[0])
	assert.Equal(t, "cash", args[1])
	assert.Equal(t, day, args[2])
	assert.IsType(t, pgtype.Numeric{}, args[3])
	assert.Equal(t, 25, args[4])
	assert.Equal(t, 50, args[5])
}

func TestSelectChecks_Ascending(t *testing.T) {
	sql, args, err := selectChecks(1, listquery.Predicate{}, listquery.Ordering{Field: listquery.FieldCreatedAt}, 10, 0)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE user_id = $1 ORDER BY created_at ASC, id ASC LIMIT $2 OFFSET $3")
	assert.Len(t, args, 3)
}

func TestCountChecks(t *testing.T) {
	p, err := listquery.BuildFilters(listquery.FilterSpec{"total_start": decimal.RequireFromString("5")})
	require.NoError(t, err)

	sql, args, err := countChecks(3, p)
	require.NoError(t, err)

	assert.Equal(t, "SELECT count(*) FROM checks WHERE user_id = $1 AND total >= $2", sql)
	assert.Len(t, args, 2)
}

func TestWhereClause_UnknownField(t *testing.T) {
	p := listquery.Predicate{Conditions: []listquery.Condition{{Field: "nope", Value: "x"}}}

	_, _, err := whereClause(1, p)

	var unknown *listquery.UnknownFieldError
	assert.ErrorAs(t, err, &unknown)
}

func TestNumericRoundTrip(t *testing.T) {
	for _, s := range []string{"0.00", "47.23", "-0.01", "1234500.00", "1.337"} {
		in := decimal.RequireFromString(s)

		out, err := fromNumeric(toNumeric(in))

		require.NoError(t, err)
		assert.True(t, in.Equal(out), "%s != %s", in, out)
	}
}

func TestFromNumeric_Invalid(t *testing.T) {
	_, err := fromNumeric(pgtype.Numeric{})
	assert.Error(t, err)

	_, err = fromNumeric(pgtype.Numeric{NaN: true, Valid: true})
	assert.Error(t, err)
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/checkout", migrateURL("postgres://u:p@db:5432/checkout"))
	assert.Equal(t, "pgx5://db/checkout", migrateURL("postgresql://db/checkout"))
	assert.Equal(t, "pgx5://db/checkout", migrateURL("pgx5://db/checkout"))
}
