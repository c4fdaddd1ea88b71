package utils

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag  = "notblank"
	notBlankText = "{0} cannot be blank"
)

func init() {
	validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = validate.RegisterTranslation(
		notBlankTag, translator,
		func(t ut.Translator) error { return t.Add(notBlankTag, notBlankText, false) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(notBlankTag, fe.Field())
			return s
		},
	)
}

// ValidationErrors maps a JSON field name to its message
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for field, msg := range v {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks the validate tags of data
func Validate(data any) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		ns := fe.Namespace()
		if i := strings.Index(ns, "."); i >= 0 {
			ns = ns[i+1:]
		}
		out[ns] = fe.Translate(translator)
	}
	return out
}

// WriteValidationError sends a 400 listing the invalid fields
func WriteValidationError(w http.ResponseWriter, errs ValidationErrors) error {
	payload := struct {
		Error   bool              `json:"error"`
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	}{
		Error:   true,
		Status:  "error",
		Message: "validation failed",
		Fields:  errs,
	}
	return WriteJSON(w, http.StatusBadRequest, payload)
}

// ReadValid reads the JSON body into data and validates it
func ReadValid(w http.ResponseWriter, r *http.Request, data any) error {
	if err := ReadJSON(w, r, data); err != nil {
		return err
	}
	return Validate(data)
}

// InvalidBody answers a failed ReadValid: field errors as a validation
// response, anything else as a plain 400
func InvalidBody(w http.ResponseWriter, err error) error {
	var verr ValidationErrors
	if errors.As(err, &verr) {
		return WriteValidationError(w, verr)
	}
	return BadRequest(w, err)
}
