package domain

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError is returned when a query or record is malformed. It is
// surfaced to the user as-is.
type ValidationError struct {
	Fields []FieldError
}

// FieldError is a single failed rule.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Msg)
	}
	return strings.Join(msgs, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("balanced", func(fl validator.FieldLevel) bool {
			return balancedParens(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// Validate checks a SearchQuery, BulkQuery or Bookmark against its struct
// rules. It returns nil or a *ValidationError.
func Validate(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return &ValidationError{Fields: []FieldError{{Msg: err.Error()}}}
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field: fe.Field(),
			Msg:   errorMessage(fe.Field(), fe.Tag(), fe.Param()),
		})
	}
	return out
}

func errorMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "excludesall":
		return fmt.Sprintf("%s must not contain a comma", field)
	case "balanced":
		return fmt.Sprintf("%s has unbalanced parentheses", field)
	default:
		return fmt.Sprintf("something wrong on %s; %s", field, tag)
	}
}

func balancedParens(s string) bool {
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}
