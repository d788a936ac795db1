// Package listquery turns filter, order and page parameters into a bounded,
// countable query over a user's checks.
//
// A Query is an immutable value built in steps:
//
//	q, err := NewQuery().WithFilters(spec)
//	q, err = q.WithOrder("-total")
//	q, err = q.WithPage(2, 25)
//	res, err := Execute(ctx, src, q)
//
// All validation happens while the query is built, so Execute never reaches the
// Source with a query that is known to be invalid.
package listquery

import (
	"context"
	"fmt"
	"math"
	"strings"

	"fsanano/checkout/internal/model"
)

const (
	DefaultOrder    = "-created_at"
	DefaultPage     = 1
	DefaultPageSize = 25
	MaxPageSize     = 100
)

// Ordering sorts by one field. Records equal on Field are ordered by their
// internal id in the same direction, so pages never overlap.
type Ordering struct {
	Field Field
	Desc  bool
}

// ParseOrder resolves "created_at", "-total" and so on.
func ParseOrder(token string) (Ordering, error) {
	name, desc := strings.CutPrefix(token, "-")
	def, ok := lookupField(Field(name))
	if !ok || !def.sortable {
		return Ordering{}, &UnknownFieldError{Name: token}
	}
	return Ordering{Field: def.field, Desc: desc}, nil
}

func (o Ordering) String() string {
	if o.Desc {
		return "-" + string(o.Field)
	}
	return string(o.Field)
}

// Compare orders two checks according to o: negative when a sorts first.
func (o Ordering) Compare(a, b model.Check) int {
	def, _ := lookupField(o.Field)
	cmp := compare(def.kind, fieldValue(a, o.Field), fieldValue(b, o.Field))
	if cmp == 0 {
		switch {
		case a.ID < b.ID:
			cmp = -1
		case a.ID > b.ID:
			cmp = 1
		}
	}
	if o.Desc {
		return -cmp
	}
	return cmp
}

// Page is a 1-based page number and a page size.
type Page struct {
	Number int
	Size   int
}

func (p Page) validate() error {
	if p.Number < 1 {
		return fmt.Errorf("%w: page should be greater than or equal to 1", ErrInvalidPage)
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return fmt.Errorf("%w: page_size should be between 1 and %d", ErrInvalidPage, MaxPageSize)
	}
	return nil
}

// LimitOffset converts the page into SQL-style limit and offset.
func (p Page) LimitOffset() (limit, offset int) {
	return p.Size, (p.Number - 1) * p.Size
}

// Query describes one list request. The zero value is not useful; start from NewQuery.
type Query struct {
	predicate Predicate
	ordering  Ordering
	page      Page
}

func NewQuery() Query {
	return Query{
		ordering: Ordering{Field: FieldCreatedAt, Desc: true},
		page:     Page{Number: DefaultPage, Size: DefaultPageSize},
	}
}

func (q Query) WithFilters(spec FilterSpec) (Query, error) {
	p, err := BuildFilters(spec)
	if err != nil {
		return q, err
	}
	q.predicate = p
	return q, nil
}

func (q Query) WithOrder(token string) (Query, error) {
	o, err := ParseOrder(token)
	if err != nil {
		return q, err
	}
	q.ordering = o
	return q, nil
}

func (q Query) WithPage(number, size int) (Query, error) {
	p := Page{Number: number, Size: size}
	if err := p.validate(); err != nil {
		return q, err
	}
	q.page = p
	return q, nil
}

func (q Query) Predicate() Predicate { return q.predicate }
func (q Query) Ordering() Ordering   { return q.ordering }
func (q Query) Page() Page           { return q.page }

// Params are the raw list parameters. An empty Order means DefaultOrder; Page
// and PageSize are taken as given.
type Params struct {
	Filters  FilterSpec
	Order    string
	Page     int
	PageSize int
}

// Build runs the whole pipeline for p.
func Build(p Params) (Query, error) {
	if p.Order == "" {
		p.Order = DefaultOrder
	}

	q, err := NewQuery().WithFilters(p.Filters)
	if err != nil {
		return Query{}, err
	}
	if q, err = q.WithOrder(p.Order); err != nil {
		return Query{}, err
	}
	if q, err = q.WithPage(p.Page, p.PageSize); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Source is an owner-scoped collection of checks.
type Source interface {
	Count(ctx context.Context, p Predicate) (int, error)
	Fetch(ctx context.Context, p Predicate, o Ordering, limit, offset int) ([]model.Check, error)
}

// Result is one page of checks plus the number of checks matching the filters.
type Result struct {
	Items    []model.Check
	Page     int
	PageSize int
	Total    int
}

func (r Result) Pages() int {
	if r.Total == 0 || r.PageSize == 0 {
		return 0
	}
	return int(math.Ceil(float64(r.Total) / float64(r.PageSize)))
}

func (r Result) HasNext() bool { return r.Page < r.Pages() }
func (r Result) HasPrev() bool { return r.Page > 1 }

// Execute fetches the page and counts every match. The count ignores ordering
// and pagination.
func Execute(ctx context.Context, src Source, q Query) (Result, error) {
	limit, offset := q.page.LimitOffset()

	items, err := src.Fetch(ctx, q.predicate, q.ordering, limit, offset)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch checks: %w", err)
	}
	total, err := src.Count(ctx, q.predicate)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count checks: %w", err)
	}

	if items == nil {
		items = []model.Check{}
	}
	return Result{
		Items:    items,
		Page:     q.page.Number,
		PageSize: q.page.Size,
		Total:    total,
	}, nil
}
