package checkout

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-playground/validator/v10"
)

const (
	phoneDigits     = 11
	addressMinRunes = 5
	addressMaxRunes = 255
)

// ValidationErrors maps a form field to the message shown next to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid checkout form: " + strings.Join(parts, "; ")
}

// Validator checks checkout forms. Struct rules live in the form's validate
// tags; the delivery-only rules are checked here.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return len(DigitsOnly(fl.Field().String())) == phoneDigits
	})
	return &Validator{v: v}
}

// DigitsOnly strips everything but ASCII digits, so "+7 (999) 123-45-67"
// becomes "79991234567".
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate returns nil when the form can be submitted.
func (val *Validator) Validate(form domain.CheckoutForm) ValidationErrors {
	errs := ValidationErrors{}
	form.Name = strings.TrimSpace(form.Name)

	var fieldErrs validator.ValidationErrors
	if err := val.v.Struct(form); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if _, seen := errs[fe.Field()]; !seen {
				errs[fe.Field()] = message(fe)
			}
		}
	}

	if form.IsDelivery() {
		n := utf8.RuneCountInString(strings.TrimSpace(form.Address))
		switch {
		case n == 0:
			errs["address"] = "Enter a delivery address"
		case n < addressMinRunes || n > addressMaxRunes:
			errs["address"] = "Address must be between 5 and 255 characters"
		}
		if strings.TrimFunc(form.DeliveryTime, unicode.IsSpace) == "" {
			errs["delivery_time"] = "Choose a delivery time"
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		if fe.Tag() == "required" {
			return "Enter your name"
		}
		return "Name must be between 2 and 100 characters"
	case "phone":
		if fe.Tag() == "required" {
			return "Enter a phone number"
		}
		return "Phone number must have 11 digits"
	case "delivery_method":
		return "Choose delivery or pickup"
	case "payment_method":
		return "Choose cash or card"
	case "comment":
		return "Comment must be at most 500 characters"
	default:
		return "Invalid value"
	}
}
