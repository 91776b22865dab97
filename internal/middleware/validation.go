package middleware

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "flightops/internal/errors"
	"flightops/pkg/contracts/domain"
)

// DefaultMaxBodySize caps JSON request bodies
const DefaultMaxBodySize = 64 * 1024

// Validator decodes and validates request payloads with struct tags
type Validator struct {
	validate    *validator.Validate
	logger      *slog.Logger
	maxBodySize int64
}

// customValidations are the tags registered on every Validator
var customValidations = map[string]validator.Func{
	"flight_status": isFlightStatus,
}

// NewValidator creates a validator that reports fields by their json or
// query tag name
func NewValidator(logger *slog.Logger) *Validator {
	logger = logger.With(slog.String("component", "validation"))
	v := validator.New()

	registerValidations(v, customValidations, logger)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, key := range []string{"json", "query"} {
			name := strings.SplitN(fld.Tag.Get(key), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	return &Validator{
		validate:    v,
		logger:      logger,
		maxBodySize: DefaultMaxBodySize,
	}
}

// registerValidations adds each rule, logging the ones the validator rejects
// so that a tag left unregistered is visible at startup.
func registerValidations(v *validator.Validate, rules map[string]validator.Func, logger *slog.Logger) {
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			logger.Error("failed to register validation",
				slog.String("tag", tag),
				slog.String("error", err.Error()),
			)
		}
	}
}

// ValidateStruct validates v and returns an *apierrors.APIError on failure
func (m *Validator) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.InvalidRequestWithError(err)
	}

	out := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(out)
}

// DecodeJSON reads a bounded JSON body into v and validates it
func (m *Validator) DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apierrors.New(http.StatusBadRequest, apierrors.CodeInvalidRequest, "Request body is required")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, m.maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		m.logger.DebugContext(r.Context(), "rejected request body", slog.String("error", err.Error()))
		return apierrors.InvalidRequestWithError(err)
	}
	return m.ValidateStruct(v)
}

// ContentTypeValidator rejects bodies whose media type is not allowed
func ContentTypeValidator(contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}
			if r.Method == http.MethodPost && r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			for _, allowed := range contentTypes {
				if strings.HasPrefix(contentType, allowed) {
					next.ServeHTTP(w, r)
					return
				}
			}

			apierrors.NewProblemDetails(http.StatusUnsupportedMediaType, apierrors.TypeValidation,
				"Unsupported Media Type", fmt.Sprintf("Content-Type %q is not accepted", contentType), r.URL.Path).
				WithExtension("allowed", contentTypes).
				Write(w)
		})
	}
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "flight_status":
		return fmt.Sprintf("%s must be one of: %s, %s, %s", field,
			domain.FlightStatusPass, domain.FlightStatusFail, domain.FlightStatusUnknown)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

// isFlightStatus accepts Pass, Fail or Unknown
func isFlightStatus(fl validator.FieldLevel) bool {
	return domain.FlightStatus(fl.Field().String()).IsValid()
}
