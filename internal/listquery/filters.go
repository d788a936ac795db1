package listquery

import (
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fsanano/checkout/internal/model"
	"fsanano/checkout/internal/money"
)

// FilterSpec maps a logical filter name ("payment_type", "total_start", ...) to a typed
// value: model.PaymentType, time.Time or decimal.Decimal. Nil values are ignored.
type FilterSpec map[string]any

// BuildFilters turns a spec into a predicate. Every name must be in the field
// table, and every start/end pair must satisfy start <= end.
func BuildFilters(spec FilterSpec) (Predicate, error) {
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		b, ok := filterIndex[name]
		if !ok {
			return Predicate{}, &UnknownFieldError{Name: name}
		}
		if v := spec[name]; v != nil && !checkKind(b.def.kind, v) {
			return Predicate{}, &InvalidValueError{Name: name, Reason: "unexpected type"}
		}
	}

	if err := validateRanges(spec); err != nil {
		return Predicate{}, err
	}

	var conds []Condition
	for _, b := range filterBindings {
		v := spec[b.name]
		if v == nil {
			continue
		}
		conds = append(conds, Condition{Field: b.def.field, Op: b.op, Value: v})
	}
	return Predicate{Conditions: conds}, nil
}

func validateRanges(spec FilterSpec) error {
	var errs []error
	for _, def := range fieldDefs {
		if !def.ranged {
			continue
		}
		start := spec[string(def.field)+"_start"]
		end := spec[string(def.field)+"_end"]
		if start == nil || end == nil {
			continue
		}
		if compare(def.kind, start, end) > 0 {
			errs = append(errs, &RangeValidationError{Field: def.field})
		}
	}
	return errors.Join(errs...)
}

const dateLayout = "2006-01-02"

// ParseFilters reads the filter names it knows from query values and converts
// them to typed values. Other keys (order, page, ...) are left alone, and so are
// empty values. Every invalid value is reported, joined in field table order.
func ParseFilters(values url.Values) (FilterSpec, error) {
	spec := FilterSpec{}
	var errs []error
	for _, b := range filterBindings {
		raw := strings.TrimSpace(values.Get(b.name))
		if raw == "" {
			continue
		}
		v, err := parseValue(b, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		spec[b.name] = v
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return spec, nil
}

func parseValue(b binding, raw string) (any, error) {
	switch b.def.kind {
	case kindPaymentType:
		pt, ok := model.ParsePaymentType(raw)
		if !ok {
			return nil, &InvalidValueError{Name: b.name, Reason: "should be 'cash' or 'cashless'"}
		}
		return pt, nil

	case kindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, &InvalidValueError{Name: b.name, Reason: "should be a valid decimal"}
		}
		if d.IsNegative() {
			return nil, &InvalidValueError{Name: b.name, Reason: "should be greater than or equal to 0"}
		}
		if !money.FitsPlaces(d, money.Places) {
			return nil, &InvalidValueError{Name: b.name, Reason: "should have no more than 2 decimal places"}
		}
		return d, nil

	default:
		return parseTime(b, raw)
	}
}

// A bare date covers the whole day: midnight for a lower bound, the last
// microsecond of the day for an upper bound.
func parseTime(b binding, raw string) (time.Time, error) {
	if day, err := time.Parse(dateLayout, raw); err == nil {
		if b.op == OpLte {
			return day.Add(24*time.Hour - time.Microsecond), nil
		}
		return day, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, &InvalidValueError{Name: b.name, Reason: "should be a date (YYYY-MM-DD) or an RFC 3339 timestamp"}
	}
	return t.UTC(), nil
}
