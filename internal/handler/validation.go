package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"fsanano/checkout/internal/money"
)

const maxBodyBytes = 1 << 20

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Decimals are validated through their string form.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	v.RegisterValidation("places", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && money.FitsPlaces(d, int32(n))
	})

	return v
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid(newFieldError(fmt.Sprintf("Invalid JSON body: %v", err), "body"))
	}
	return nil
}

// check runs the struct tags of dst and converts failures into 422 field errors.
func (h *Handler) check(dst any) error {
	err := h.validate.Struct(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, newFieldError(message(fe), location(fe.Namespace())...))
	}
	return invalid(fields...)
}

// location turns "checkRequest.products[0].price" into ["body", "products", 0, "price"].
func location(namespace string) []any {
	loc := []any{"body"}
	parts := strings.Split(namespace, ".")
	for _, part := range parts[1:] {
		name, rest, _ := strings.Cut(part, "[")
		if name != "" {
			loc = append(loc, name)
		}
		for rest != "" {
			idx, tail, _ := strings.Cut(rest, "]")
			if n, err := strconv.Atoi(idx); err == nil {
				loc = append(loc, n)
			} else {
				loc = append(loc, idx)
			}
			rest = strings.TrimPrefix(tail, "[")
		}
	}
	return loc
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field required"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("List should have at least %s item after validation", fe.Param())
		}
		return fmt.Sprintf("String should have at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("String should have at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("Input should be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "nonnegative":
		return "Input should be greater than or equal to 0"
	case "places":
		return fmt.Sprintf("Decimal input should have no more than %s decimal places", fe.Param())
	}
	return fmt.Sprintf("Failed on the '%s' rule", fe.Tag())
}
