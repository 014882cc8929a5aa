package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	pkgErrors "BizBooksPlatform/pkg/errors"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]{2,31}$`)
	mobilePattern   = regexp.MustCompile(`^\+?[0-9]{7,15}$`)
)

// EmailRules validates an email address.
var EmailRules = []validation.Rule{validation.Required, validation.Length(3, 254), is.Email}

// UsernameRules validates a login name: 3-32 characters, letters, digits and _ . -
var UsernameRules = []validation.Rule{validation.Required, validation.Match(usernamePattern).Error("must be 3-32 letters, digits, '_', '.' or '-'")}

// MobileRules validates an optional phone number in E.164-like form.
var MobileRules = []validation.Rule{validation.Match(mobilePattern).Error("must be a phone number")}

// CodeRules validates a numeric one-time code.
func CodeRules(length int) []validation.Rule {
	return []validation.Rule{validation.Required, validation.Length(length, length), is.Digit}
}

// NormalizeEmail trims and lowercases an address; emails are compared case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate runs v.Validate and converts failures into a VALIDATION_ERROR.
func Validate(v validation.Validatable) error {
	return ToError(v.Validate())
}

// ToError converts ozzo validation errors into a VALIDATION_ERROR whose details
// list every failing field in a stable order.
func ToError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return pkgErrors.Wrap(err, pkgErrors.ErrInternal, "validation failed")
		}
		return pkgErrors.New(pkgErrors.ErrValidation, "invalid request").WithDetails(err.Error())
	}

	fields := make([]string, 0, len(fieldErrs))
	for field := range fieldErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+fieldErrs[field].Error())
	}

	return pkgErrors.New(pkgErrors.ErrValidation, "invalid request").WithDetails(strings.Join(parts, "; "))
}
