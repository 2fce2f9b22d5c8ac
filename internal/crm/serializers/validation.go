// Package serializers converts between CRM domain records and the field
// sets exchanged with API clients, and validates incoming field sets.
//
// Format rules (lengths, choices, email syntax, patterns) are declared as
// validator struct tags on the input types. Rules that depend on the
// request (create vs update, the acting user, uniqueness in storage) are
// applied in code by each serializer's Validate method.
package serializers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	e "github.com/gartstein/crm/internal/crm/errors"
	"github.com/go-playground/validator/v10"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgPattern  = "This value does not match the required pattern."
)

var (
	uidb64Pattern = regexp.MustCompile(`^[0-9A-Za-z_\-]+$`)
	tokenPattern  = regexp.MustCompile(`^[0-9A-Za-z]{1,13}-[0-9A-Za-z]{1,20}$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names so errors line up with the request body.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("uidb64", matchPattern(uidb64Pattern)); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("resettoken", matchPattern(tokenPattern)); err != nil {
		panic(err)
	}
	return v
}

func matchPattern(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

// checkStruct runs the tag rules of s and records failures in verr.
// A field that already failed keeps its first message.
func checkStruct(verr *e.ValidationError, s any) {
	err := validate.Struct(s)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add(e.NonFieldErrors, err.Error())
		return
	}
	for _, fe := range fieldErrs {
		if verr.Has(fe.Field()) {
			continue
		}
		verr.Add(fe.Field(), tagMessage(fe))
	}
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "email":
		return "Enter a valid email address."
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min", "gte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "oneof", "iso3166_1_alpha2":
		return fmt.Sprintf("\"%v\" is not a valid choice.", fe.Value())
	case "uidb64", "resettoken":
		return msgPattern
	default:
		return fmt.Sprintf("Failed on the %s rule.", fe.Tag())
	}
}

// requireString records a failure when value is missing or blank.
func requireString(verr *e.ValidationError, field string, value *string) {
	if value == nil {
		verr.Add(field, msgRequired)
		return
	}
	rejectBlank(verr, field, value)
}

// rejectBlank records a failure when a submitted value is blank.
func rejectBlank(verr *e.ValidationError, field string, value *string) {
	if value != nil && *value == "" && !verr.Has(field) {
		verr.Add(field, msgBlank)
	}
}

// trim strips surrounding whitespace in place, the way char fields are
// normalized before validation.
func trim(values ...*string) {
	for _, v := range values {
		if v != nil {
			*v = strings.TrimSpace(*v)
		}
	}
}

// clone copies a string pointer so trimming never touches caller memory.
func clone(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
