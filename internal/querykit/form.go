package querykit

import (
	"reflect"
	"strings"
	"sync"

	perr "fundlink/internal/platform/errors"
	pstrings "fundlink/internal/platform/strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entrans "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate *validator.Validate
	trans    ut.Translator
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ = uni.GetTranslator("en")
	_ = entrans.RegisterDefaultTranslations(validate, trans)

	// report fields by their json (wire) names so messages line up with
	// backend field errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Form holds a mutation's payload values and per-field error state, the
// client-side stand-in for the originating form. Mutations attach
// normalized field errors here; successful submissions may reset it
type Form[P any] struct {
	mu       sync.Mutex
	values   P
	defaults P
	errors   map[string][]string
}

// NewForm builds a form whose Reset restores the given defaults
func NewForm[P any](defaults P) *Form[P] {
	return &Form[P]{values: defaults, defaults: defaults}
}

// Set replaces the form values, clearing field errors
func (f *Form[P]) Set(values P) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values
	f.errors = nil
}

// Values returns the current payload values
func (f *Form[P]) Values() P {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// Reset restores defaults and clears field errors
func (f *Form[P]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = f.defaults
	f.errors = nil
}

// FieldErrors returns the per-field messages, nil when the form is clean
func (f *Form[P]) FieldErrors() map[string][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors
}

// SetFieldErrors attaches per-field messages (from validation or a backend
// validation response)
func (f *Form[P]) SetFieldErrors(errs map[string][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(errs) == 0 {
		f.errors = nil
		return
	}
	f.errors = errs
}

// Validate checks the current values against their struct tags. On failure
// the translated messages are attached to the form and returned as a
// validation error carrying the same field detail; the network is never
// touched for an invalid payload
func (f *Form[P]) Validate() error {
	err := validate.Struct(f.Values())
	if err == nil {
		f.SetFieldErrors(nil)
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return perr.Wrap(err, perr.ErrorCodeValidation, "invalid payload")
	}

	fields := make(map[string][]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := fields[field]; !seen {
			names = append(names, pstrings.FormatFieldName(field))
		}
		fields[field] = append(fields[field], fe.Translate(trans))
	}
	f.SetFieldErrors(fields)

	msg := "Validation errors in: " + strings.Join(names, ", ")
	return perr.WithFields(perr.New(perr.ErrorCodeValidation, msg), fields)
}
