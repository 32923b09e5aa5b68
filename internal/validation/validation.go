// Package validation runs declarative field rules on request inputs and
// collects failures per field instead of stopping at the first one.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Errors maps a field name to its failure messages. Field order follows the
// order failures were added.
type Errors struct {
	Fields map[string][]string
	order  []string
}

func New() *Errors {
	return &Errors{Fields: make(map[string][]string)}
}

func (e *Errors) Add(field, message string) {
	if _, ok := e.Fields[field]; !ok {
		e.order = append(e.order, field)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

func (e *Errors) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

func (e *Errors) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// First returns the first message recorded, or "" when there are none.
func (e *Errors) First() string {
	if e.Empty() {
		return ""
	}
	return e.Fields[e.order[0]][0]
}

func (e *Errors) Error() string {
	if e.Empty() {
		return "validation failed"
	}
	extra := len(e.order) - 1
	switch extra {
	case 0:
		return e.First()
	case 1:
		return fmt.Sprintf("%s (and 1 more error)", e.First())
	default:
		return fmt.Sprintf("%s (and %d more errors)", e.First(), extra)
	}
}

// Err returns e as an error, or a true nil when nothing failed.
func (e *Errors) Err() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Single builds an Errors holding one message.
func Single(field, message string) *Errors {
	e := New()
	e.Add(field, message)
	return e
}

// Struct checks v against its `validate` tags. Field names come from the json tags.
func Struct(v any) *Errors {
	err := validate.Struct(v)
	if err == nil {
		return New()
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// Only reachable on programmer error (e.g. non-struct input).
		panic(fmt.Sprintf("validation: %v", err))
	}

	out := New()
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", label)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", label)
	case "max":
		return fmt.Sprintf("The %s field must not be greater than %s characters.", label, fe.Param())
	case "min":
		return fmt.Sprintf("The %s field must be at least %s characters.", label, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s field confirmation does not match.", label)
	default:
		return fmt.Sprintf("The %s field is invalid.", label)
	}
}
