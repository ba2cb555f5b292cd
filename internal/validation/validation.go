// Package validation binds and checks the HTML forms. Field errors are keyed
// by the form field name so templates can render them next to the input.
package validation

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Messages shown next to form fields.
const (
	MsgRequired     = "This field is required."
	MsgInvalidEmail = "Invalid email address."
	MsgPasswordsEq  = "Field must be equal to password."
	MsgInvalidImage = "File does not have an approved extension: jpg, png"
	MsgBadChoice    = "Not a valid choice."
	MsgUsernameUsed = "That username is taken, please choose a different one."
	MsgEmailUsed    = "That email is taken, please choose a different one."
)

// AllowedImageExtensions are the upload extensions the forms accept.
var AllowedImageExtensions = []string{"jpg", "png"}

// Errors maps a form field to its messages, in the order they were found.
type Errors map[string][]string

// Add appends msg to field.
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether field failed validation.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// First returns the first message for field, or "".
func (e Errors) First(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Any reports whether any field failed.
func (e Errors) Any() bool {
	return len(e) > 0
}

// UserLookup answers the uniqueness questions the account forms ask.
type UserLookup interface {
	ExistsUsername(ctx context.Context, username string, excludeID uint) (bool, error)
	ExistsEmail(ctx context.Context, email string, excludeID uint) (bool, error)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// check runs the struct tags on form and converts failures to Errors.
func check(form any) (Errors, error) {
	errs := Errors{}
	err := validate.Struct(form)
	if err == nil {
		return errs, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, fmt.Errorf("validate form: %w", err)
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), message(form, fe))
	}
	return errs, nil
}

func message(form any, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	case "eqfield":
		return MsgPasswordsEq
	case "oneof":
		return MsgBadChoice
	case "min", "max":
		return lengthMessage(form, fe)
	default:
		return fmt.Sprintf("Invalid value for %s.", fe.Field())
	}
}

// lengthMessage reads both bounds from the field's tag so a min/max pair
// produces one combined message.
func lengthMessage(form any, fe validator.FieldError) string {
	minLen, maxLen := -1, -1
	t := reflect.TypeOf(form)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if sf, ok := t.FieldByName(fe.StructField()); ok {
		for _, rule := range strings.Split(sf.Tag.Get("validate"), ",") {
			key, val, found := strings.Cut(rule, "=")
			if !found {
				continue
			}
			n, err := strconv.Atoi(val)
			if err != nil {
				continue
			}
			switch key {
			case "min":
				minLen = n
			case "max":
				maxLen = n
			}
		}
	}

	switch {
	case minLen >= 0 && maxLen >= 0:
		return fmt.Sprintf("Field must be between %d and %d characters long.", minLen, maxLen)
	case maxLen >= 0:
		return fmt.Sprintf("Field cannot be longer than %d characters.", maxLen)
	default:
		return fmt.Sprintf("Field must be at least %d characters long.", minLen)
	}
}

// checkImage validates an optional upload's extension.
func checkImage(errs Errors, field string, fh *multipart.FileHeader) {
	if fh == nil || fh.Filename == "" {
		return
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), ".")
	for _, allowed := range AllowedImageExtensions {
		if ext == allowed {
			return
		}
	}
	errs.Add(field, MsgInvalidImage)
}
