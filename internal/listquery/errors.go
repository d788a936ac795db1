package listquery

import (
	"errors"
	"fmt"
)

// ErrInvalidPage is returned for a page number below 1 or a page size outside 1..MaxPageSize.
var ErrInvalidPage = errors.New("invalid page")

// RangeValidationError reports a <field>_start / <field>_end pair with start > end.
type RangeValidationError struct {
	Field Field
}

func (e *RangeValidationError) Error() string {
	return fmt.Sprintf("'%s_start' should be less than or equal to the '%s_end'", e.Field, e.Field)
}

// UnknownFieldError reports a filter or order name outside the field table.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field '%s'", e.Name)
}

// InvalidValueError reports a filter value that does not fit the field's kind.
type InvalidValueError struct {
	Name   string
	Reason string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid value for '%s': %s", e.Name, e.Reason)
}
