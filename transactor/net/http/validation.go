package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var (
	ErrValidationFailed       = errors.New("validation failed")
	ErrFieldRequired          = errors.New("field is required")
	ErrFieldLessThanOrEqual   = errors.New("field exceeds its upper bound")
	ErrFieldOneOf             = errors.New("field is not a known operation type")
	ErrFieldNonNegativeAmount = errors.New("field must be a non-negative decimal amount")
	ErrBodyParseFailed        = errors.New("failed to parse request body")
	ErrUnsupportedContentType = errors.New("Content-Type must be application/json")
	// ErrValidatorInit wraps a failure registering a custom tag.
	ErrValidatorInit = errors.New("validator initialization failed")
)

const tagNonNegativeAmount = "nonnegative_amount"

// batchValidator is built once and shared by every request.
var batchValidator = sync.OnceValues(newBatchValidator)

func newBatchValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())
	vld.RegisterTagNameFunc(jsonFieldName)

	if err := vld.RegisterValidation(tagNonNegativeAmount, isNonNegativeAmount); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrValidatorInit, tagNonNegativeAmount, err)
	}

	return vld, nil
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}

	return name
}

// isNonNegativeAmount accepts decimal text >= 0. Empty values are left to omitempty.
func isNonNegativeAmount(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	if raw == "" {
		return true
	}

	amount, err := decimal.NewFromString(raw)

	return err == nil && !amount.IsNegative()
}

// ValidateStruct runs the struct tags of payload and reports the first failing field.
func ValidateStruct(payload any) error {
	vld, err := batchValidator()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	err = vld.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	return describe(fieldErrs[0])
}

func describe(fe validator.FieldError) error {
	field := namespace(fe)

	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: '%s'", ErrFieldRequired, field)
	case "lte":
		return fmt.Errorf("%w: '%s' must be at most %s", ErrFieldLessThanOrEqual, field, fe.Param())
	case "oneof":
		return fmt.Errorf("%w: '%s' must be one of [%s]", ErrFieldOneOf, field, fe.Param())
	case tagNonNegativeAmount:
		return fmt.Errorf("%w: '%s'", ErrFieldNonNegativeAmount, field)
	default:
		return fmt.Errorf("%w: '%s' failed '%s' check", ErrValidationFailed, field, fe.Tag())
	}
}

// namespace renders the failing field path without the root struct name,
// e.g. "transactions[3].amount".
func namespace(fe validator.FieldError) string {
	_, path, found := strings.Cut(fe.Namespace(), ".")
	if !found {
		path = fe.Namespace()
	}

	parts := strings.Split(path, ".")
	for i := range parts {
		parts[i] = toSnakeCase(parts[i])
	}

	return strings.Join(parts, ".")
}

func toSnakeCase(s string) string {
	var b strings.Builder

	b.Grow(len(s) + 4)

	for i, r := range s {
		if 'A' <= r && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}

			r += 'a' - 'A'
		}

		b.WriteRune(r)
	}

	return b.String()
}

// ParseBodyAndValidate decodes a JSON body into payload and validates it.
func ParseBodyAndValidate(c *fiber.Ctx, payload any) error {
	if ct := c.Get(fiber.HeaderContentType); ct != "" && !strings.HasPrefix(ct, fiber.MIMEApplicationJSON) {
		return ErrUnsupportedContentType
	}

	if err := c.BodyParser(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrBodyParseFailed, err)
	}

	return ValidateStruct(payload)
}
