package listquery

import (
	"context"
	"errors"
	"net/url"
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fsanano/checkout/internal/model"
)

type sliceSource struct {
	checks  []model.Check
	fetches int
	counts  int
}

func (s *sliceSource) Count(_ context.Context, p Predicate) (int, error) {
	s.counts++
	n := 0
	for _, c := range s.checks {
		if p.Match(c) {
			n++
		}
	}
	return n, nil
}

func (s *sliceSource) Fetch(_ context.Context, p Predicate, o Ordering, limit, offset int) ([]model.Check, error) {
	s.fetches++
	var out []model.Check
	for _, c := range s.checks {
		if p.Match(c) {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, o.Compare)
	if offset >= len(out) {
		return nil, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixture() *sliceSource {
	return &sliceSource{checks: []model.Check{
		{ID: 1, Total: dec("2000.00"), Payment: model.Payment{Type: model.PaymentCashless}, CreatedAt: base},
		{ID: 2, Total: dec("200.00"), Payment: model.Payment{Type: model.PaymentCashless}, CreatedAt: base.Add(time.Hour)},
		{ID: 3, Total: dec("20.00"), Payment: model.Payment{Type: model.PaymentCash}, CreatedAt: base.Add(2 * time.Hour)},
		{ID: 4, Total: dec("200.00"), Payment: model.Payment{Type: model.PaymentCash}, CreatedAt: base.Add(24 * time.Hour)},
		{ID: 5, Total: dec("5.50"), Payment: model.Payment{Type: model.PaymentCashless}, CreatedAt: base.Add(48 * time.Hour)},
	}}
}

func ids(checks []model.Check) []int64 {
	out := make([]int64, 0, len(checks))
	for _, c := range checks {
		out = append(out, c.ID)
	}
	return out
}

func TestBuildFilters_SuffixesMapToOperators(t *testing.T) {
	p, err := BuildFilters(FilterSpec{
		"total_start":  dec("10"),
		"total_end":    dec("100"),
		"payment_type": model.PaymentCash,
		"created_at_start": nil,
	})
	require.NoError(t, err)

	assert.Equal(t, []Condition{
		{Field: FieldPaymentType, Op: OpEq, Value: model.PaymentCash},
		{Field: FieldTotal, Op: OpGte, Value: dec("10")},
		{Field: FieldTotal, Op: OpLte, Value: dec("100")},
	}, p.Conditions)
}

func TestBuildFilters_Empty(t *testing.T) {
	p, err := BuildFilters(nil)
	require.NoError(t, err)
	assert.Empty(t, p.Conditions)
	assert.True(t, p.Match(model.Check{}))
}

func TestBuildFilters_UnknownField(t *testing.T) {
	_, err := BuildFilters(FilterSpec{"payment_type_start": model.PaymentCash})

	var unknown *UnknownFieldError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "payment_type_start", unknown.Name)
}

func TestBuildFilters_WrongValueType(t *testing.T) {
	_, err := BuildFilters(FilterSpec{"total_start": "12"})

	var invalid *InvalidValueError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "total_start", invalid.Name)
}

func TestBuildFilters_RangedFieldHasNoEquality(t *testing.T) {
	for _, name := range []string{"total", "created_at"} {
		_, err := BuildFilters(FilterSpec{name: nil})

		var unknown *UnknownFieldError
		require.ErrorAs(t, err, &unknown, name)
		assert.Equal(t, name, unknown.Name)
	}
}

func TestBuildFilters_RangeValidation(t *testing.T) {
	_, err := BuildFilters(FilterSpec{"total_start": dec("100"), "total_end": dec("20")})

	var rangeErr *RangeValidationError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, FieldTotal, rangeErr.Field)
	assert.Equal(t, "'total_start' should be less than or equal to the 'total_end'", rangeErr.Error())
}

func TestBuildFilters_RangeEqualBoundsAllowed(t *testing.T) {
	_, err := BuildFilters(FilterSpec{"created_at_start": base, "created_at_end": base})
	assert.NoError(t, err)
}

func TestBuildFilters_OneSidedRangeAllowed(t *testing.T) {
	_, err := BuildFilters(FilterSpec{"total_start": dec("100")})
	assert.NoError(t, err)
}

func TestBuild_RangeErrorBeforeDataAccess(t *testing.T) {
	src := fixture()

	_, err := Build(Params{
		Filters:  FilterSpec{"created_at_start": base.Add(time.Hour), "created_at_end": base},
		Page:     1,
		PageSize: 10,
	})

	var rangeErr *RangeValidationError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, FieldCreatedAt, rangeErr.Field)
	assert.Zero(t, src.fetches)
	assert.Zero(t, src.counts)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("-total")
	require.NoError(t, err)
	assert.Equal(t, Ordering{Field: FieldTotal, Desc: true}, o)
	assert.Equal(t, "-total", o.String())

	o, err = ParseOrder("created_at")
	require.NoError(t, err)
	assert.Equal(t, Ordering{Field: FieldCreatedAt}, o)

	for _, bad := range []string{"payment_type", "-id", "", "--total"} {
		_, err = ParseOrder(bad)
		var unknown *UnknownFieldError
		assert.ErrorAs(t, err, &unknown, bad)
	}
}

func TestPage_LimitOffset(t *testing.T) {
	limit, offset := Page{Number: 3, Size: 25}.LimitOffset()
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)

	limit, offset = Page{Number: 1, Size: 1}.LimitOffset()
	assert.Equal(t, 1, limit)
	assert.Equal(t, 0, offset)
}

func TestWithPage_Bounds(t *testing.T) {
	q := NewQuery()
	for _, tc := range []struct{ page, size int }{{0, 10}, {1, 0}, {1, 101}, {-1, 10}} {
		_, err := q.WithPage(tc.page, tc.size)
		assert.ErrorIs(t, err, ErrInvalidPage)
	}
	_, err := q.WithPage(1, 100)
	assert.NoError(t, err)
}

func TestQuery_StepsDoNotMutate(t *testing.T) {
	q := NewQuery()
	q2, err := q.WithOrder("total")
	require.NoError(t, err)
	q3, err := q2.WithPage(2, 5)
	require.NoError(t, err)

	assert.Equal(t, "-created_at", q.Ordering().String())
	assert.Equal(t, Page{Number: DefaultPage, Size: DefaultPageSize}, q2.Page())
	assert.Equal(t, Page{Number: 2, Size: 5}, q3.Page())
}

func TestExecute_OrderDirections(t *testing.T) {
	src := fixture()

	asc, err := Build(Params{Order: "total", Page: 1, PageSize: 10})
	require.NoError(t, err)
	res, err := Execute(context.Background(), src, asc)
	require.NoError(t, err)
	// 2 and 4 tie on total and fall back to id.
	assert.Equal(t, []int64{5, 3, 2, 4, 1}, ids(res.Items))

	desc, err := Build(Params{Order: "-total", Page: 1, PageSize: 10})
	require.NoError(t, err)
	res, err = Execute(context.Background(), src, desc)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 2, 3, 5}, ids(res.Items))

	for i := 1; i < len(res.Items); i++ {
		assert.True(t, res.Items[i-1].Total.GreaterThanOrEqual(res.Items[i].Total))
	}
}

func TestExecute_DefaultOrderNewestFirst(t *testing.T) {
	q, err := Build(Params{Page: 1, PageSize: 10})
	require.NoError(t, err)

	res, err := Execute(context.Background(), fixture(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(res.Items))
}

func TestExecute_Filters(t *testing.T) {
	src := fixture()

	q, err := Build(Params{
		Filters:  FilterSpec{"total_start": dec("100"), "total_end": dec("2000")},
		Order:    "total",
		Page:     1,
		PageSize: 10,
	})
	require.NoError(t, err)
	res, err := Execute(context.Background(), src, q)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 4, 1}, ids(res.Items))
	assert.Equal(t, 3, res.Total)

	q, err = Build(Params{Filters: FilterSpec{"payment_type": model.PaymentCash}, Page: 1, PageSize: 10})
	require.NoError(t, err)
	res, err = Execute(context.Background(), src, q)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, ids(res.Items))
	assert.Equal(t, 2, src.fetches)
	assert.Equal(t, 2, src.counts)
}

func TestExecute_TotalIgnoresPagination(t *testing.T) {
	src := fixture()

	for size := 1; size <= 6; size++ {
		for page := 1; page <= 6; page++ {
			q, err := Build(Params{Page: page, PageSize: size})
			require.NoError(t, err)
			res, err := Execute(context.Background(), src, q)
			require.NoError(t, err)

			assert.Equal(t, 5, res.Total)
			assert.LessOrEqual(t, len(res.Items), size)
		}
	}
}

func TestExecute_LastPage(t *testing.T) {
	src := fixture()

	q, err := Build(Params{Page: 3, PageSize: 2})
	require.NoError(t, err)
	res, err := Execute(context.Background(), src, q)
	require.NoError(t, err)

	assert.Len(t, res.Items, 1)
	assert.Equal(t, 3, res.Pages())
	assert.False(t, res.HasNext())
	assert.True(t, res.HasPrev())

	q, err = Build(Params{Page: 2, PageSize: 5})
	require.NoError(t, err)
	res, err = Execute(context.Background(), src, q)
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.Pages())
}

func TestExecute_NoMatches(t *testing.T) {
	q, err := Build(Params{Filters: FilterSpec{"total_start": dec("1000000")}, Page: 1, PageSize: 25})
	require.NoError(t, err)

	res, err := Execute(context.Background(), fixture(), q)
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Zero(t, res.Total)
	assert.Zero(t, res.Pages())
	assert.False(t, res.HasNext())
	assert.False(t, res.HasPrev())
}

type failingSource struct{ sliceSource }

func (s *failingSource) Count(context.Context, Predicate) (int, error) {
	return 0, errors.New("connection reset")
}

func TestExecute_SourceErrorPropagates(t *testing.T) {
	_, err := Execute(context.Background(), &failingSource{}, NewQuery())
	assert.ErrorContains(t, err, "failed to count checks: connection reset")
}

func TestParseFilters(t *testing.T) {
	spec, err := ParseFilters(url.Values{
		"payment_type":     {"cash"},
		"created_at_start": {"2024-03-01"},
		"created_at_end":   {"2024-03-02"},
		"total_start":      {"12.50"},
		"total":            {"99.00"},
		"created_at":       {"2024-03-01"},
		"order":            {"-total"},
		"total_end":        {""},
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentCash, spec["payment_type"])
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), spec["created_at_start"])
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 999999000, time.UTC), spec["created_at_end"])
	assert.True(t, dec("12.5").Equal(spec["total_start"].(decimal.Decimal)))
	assert.NotContains(t, spec, "total")
	assert.NotContains(t, spec, "created_at")
	assert.NotContains(t, spec, "order")
	assert.NotContains(t, spec, "total_end")
}

func TestParseFilters_Timestamp(t *testing.T) {
	spec, err := ParseFilters(url.Values{"created_at_start": {"2024-03-01T15:04:05+02:00"}})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 13, 4, 5, 0, time.UTC), spec["created_at_start"])
}

func TestParseFilters_InvalidValues(t *testing.T) {
	cases := map[string]struct {
		name string
		raw  string
	}{
		"bad payment type": {"payment_type", "wrong"},
		"not a decimal":    {"total_start", "abc"},
		"negative":         {"total_end", "-1"},
		"too many places":  {"total_end", "1.001"},
		"bad date":         {"created_at_start", "01.03.2024"},
	}

	for title, tc := range cases {
		t.Run(title, func(t *testing.T) {
			_, err := ParseFilters(url.Values{tc.name: {tc.raw}})
			var invalid *InvalidValueError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, tc.name, invalid.Name)
		})
	}
}

func TestParseFilters_ReportsEveryInvalidValue(t *testing.T) {
	spec, err := ParseFilters(url.Values{
		"payment_type":   {"barter"},
		"created_at_end": {"yesterday"},
		"total_start":    {"1.001"},
		"total_end":      {"10"},
	})
	require.Error(t, err)
	assert.Nil(t, spec)

	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok, "%T", err)

	var names []string
	for _, e := range joined.Unwrap() {
		var invalid *InvalidValueError
		require.ErrorAs(t, e, &invalid)
		names = append(names, invalid.Name)
	}
	assert.Equal(t, []string{"payment_type", "created_at_end", "total_start"}, names)
}

func TestParseFilters_SameDayRange(t *testing.T) {
	spec, err := ParseFilters(url.Values{"created_at_start": {"2024-03-01"}, "created_at_end": {"2024-03-01"}})
	require.NoError(t, err)

	q, err := Build(Params{Filters: spec, Page: 1, PageSize: 10})
	require.NoError(t, err)
	res, err := Execute(context.Background(), fixture(), q)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, ids(res.Items))
}
