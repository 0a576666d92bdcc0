package dosing

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// FieldError is a single validation failure on a request field.
type FieldError struct {
	Field   string
	Code    string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Validation error codes.
const (
	CodeMustBePositive = "MUST_BE_POSITIVE"
	CodeOutOfRange     = "OUT_OF_RANGE"
)

// ValidationError collects every failed rule of a request.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string {
	return e.errs.Error()
}

// Unwrap exposes the individual field errors to errors.Is/As.
func (e *ValidationError) Unwrap() []error {
	return e.errs.Errors
}

// Fields returns the field errors in rule order.
func (e *ValidationError) Fields() []FieldError {
	out := make([]FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, *fe)
		}
	}
	return out
}

// Messages returns the user-facing messages in rule order.
func (e *ValidationError) Messages() []string {
	fields := e.Fields()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Message
	}
	return out
}

// Validate runs every input rule and returns a *ValidationError listing all
// failures, or nil. The request is expected to be normalized.
func (c *Calculator) Validate(r Request) error {
	p := r.Locale.printer()
	var result *multierror.Error

	if !(r.Volume > 0) {
		result = multierror.Append(result, &FieldError{
			Field:   "volume",
			Code:    CodeMustBePositive,
			Message: p.Sprintf(msgVolumeRequired),
		})
	}

	if r.KHPurity < c.coef.PurityMin || r.KHPurity > c.coef.PurityMax {
		result = multierror.Append(result, &FieldError{
			Field:   "khPurity",
			Code:    CodeOutOfRange,
			Message: p.Sprintf(msgPurityRange, FormatGrams(c.coef.PurityMin), FormatGrams(c.coef.PurityMax)),
		})
	}

	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		parts := make([]string, len(errs))
		for i, err := range errs {
			parts[i] = err.Error()
		}
		return "invalid dosing request: " + strings.Join(parts, "; ")
	}
	return &ValidationError{errs: result}
}
