package listquery

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fsanano/checkout/internal/model"
)

// Field is a filterable or sortable attribute of a check.
type Field string

const (
	FieldPaymentType Field = "payment_type"
	FieldCreatedAt   Field = "created_at"
	FieldTotal       Field = "total"
)

type Operator int

const (
	OpEq Operator = iota
	OpGte
	OpLte
)

func (o Operator) String() string {
	switch o {
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	default:
		return "="
	}
}

type kind int

const (
	kindPaymentType kind = iota
	kindTime
	kindDecimal
)

type fieldDef struct {
	field    Field
	kind     kind
	ranged   bool
	sortable bool
}

// Order of this slice is the order conditions appear in a Predicate.
var fieldDefs = []fieldDef{
	{field: FieldPaymentType, kind: kindPaymentType},
	{field: FieldCreatedAt, kind: kindTime, ranged: true, sortable: true},
	{field: FieldTotal, kind: kindDecimal, ranged: true, sortable: true},
}

// Suffixes are tried in this order.
var rangeSuffixes = []struct {
	suffix string
	op     Operator
}{
	{"_start", OpGte},
	{"_end", OpLte},
}

type binding struct {
	name string
	def  fieldDef
	op   Operator
}

var (
	filterBindings = buildBindings()
	filterIndex    = indexBindings(filterBindings)
)

// buildBindings names every filter: a ranged field is filtered only through its
// _start and _end bounds, any other field by equality.
func buildBindings() []binding {
	var out []binding
	for _, def := range fieldDefs {
		if !def.ranged {
			out = append(out, binding{name: string(def.field), def: def, op: OpEq})
			continue
		}
		for _, s := range rangeSuffixes {
			out = append(out, binding{name: string(def.field) + s.suffix, def: def, op: s.op})
		}
	}
	return out
}

func indexBindings(bs []binding) map[string]binding {
	idx := make(map[string]binding, len(bs))
	for _, b := range bs {
		idx[b.name] = b
	}
	return idx
}

func lookupField(f Field) (fieldDef, bool) {
	for _, def := range fieldDefs {
		if def.field == f {
			return def, true
		}
	}
	return fieldDef{}, false
}

// Condition is one comparison "<Field> <Op> <Value>".
type Condition struct {
	Field Field
	Op    Operator
	Value any
}

// Predicate is the AND of its conditions. An empty predicate matches everything.
type Predicate struct {
	Conditions []Condition
}

// Match evaluates the predicate against a check held in memory.
func (p Predicate) Match(c model.Check) bool {
	for _, cond := range p.Conditions {
		def, ok := lookupField(cond.Field)
		if !ok {
			return false
		}
		cmp := compare(def.kind, fieldValue(c, cond.Field), cond.Value)
		switch cond.Op {
		case OpEq:
			if cmp != 0 {
				return false
			}
		case OpGte:
			if cmp < 0 {
				return false
			}
		case OpLte:
			if cmp > 0 {
				return false
			}
		}
	}
	return true
}

func fieldValue(c model.Check, f Field) any {
	switch f {
	case FieldPaymentType:
		return c.Payment.Type
	case FieldCreatedAt:
		return c.CreatedAt
	case FieldTotal:
		return c.Total
	}
	return nil
}

func compare(k kind, a, b any) int {
	switch k {
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	case kindDecimal:
		return a.(decimal.Decimal).Cmp(b.(decimal.Decimal))
	default:
		return strings.Compare(string(a.(model.PaymentType)), string(b.(model.PaymentType)))
	}
}

func checkKind(k kind, v any) bool {
	switch k {
	case kindTime:
		_, ok := v.(time.Time)
		return ok
	case kindDecimal:
		_, ok := v.(decimal.Decimal)
		return ok
	default:
		_, ok := v.(model.PaymentType)
		return ok
	}
}
