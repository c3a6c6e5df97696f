package apperr

import (
	"errors"
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// Kind is the closed set of failure classes the service reports.
type Kind string

const (
	KindCredentialSigning Kind = "credential_signing"
	KindNotFound          Kind = "not_found"
	KindStorage           Kind = "storage"
	KindTokenVerification Kind = "token_verification"
	KindMalformedRequest  Kind = "malformed_request"
	KindValidation        Kind = "validation"
	KindBlockingTask      Kind = "blocking_task"
	KindPolicy            Kind = "policy"
	KindUnclassified      Kind = "unclassified"
)

const internalMessage = "Internal server error"

// AppError is both the error value passed between packages and the JSON
// body returned to the caller. Kind and Cause never leave the process.
type AppError struct {
	Code    string              `json:"code"`
	Status  int                 `json:"-"`
	Message string              `json:"message"`
	Fields  map[string][]string `json:"fields,omitempty"`

	Kind  Kind  `json:"-"`
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Internal reports whether the error is a server-side fault. Internal faults
// are logged with their cause and answered with a generic message.
func (e *AppError) Internal() bool {
	return e.Status >= fiber.StatusInternalServerError
}

// ErrorResponse is the envelope every error body is written in.
type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func newInternal(kind Kind, cause error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  fiber.StatusInternalServerError,
		Message: internalMessage,
		Kind:    kind,
		Cause:   cause,
	}
}

// CredentialSigning reports a failure to sign a token.
func CredentialSigning(cause error) *AppError {
	return newInternal(KindCredentialSigning, cause)
}

// Storage reports a failure of the account store.
func Storage(cause error) *AppError {
	return newInternal(KindStorage, cause)
}

// BlockingTask reports that offloaded work could not run or did not finish.
func BlockingTask(cause error) *AppError {
	return newInternal(KindBlockingTask, cause)
}

// Policy reports a failure inside the policy engine.
func Policy(cause error) *AppError {
	return newInternal(KindPolicy, cause)
}

// NotFound reports a missing record. msg is shown to the caller.
func NotFound(msg string, cause error) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  fiber.StatusNotFound,
		Message: msg,
		Kind:    KindNotFound,
		Cause:   cause,
	}
}

// TokenVerification keeps the jwt failure as Cause for logging; the caller
// only ever sees the fixed message.
func TokenVerification(cause error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Status:  fiber.StatusUnauthorized,
		Message: "Invalid or expired token",
		Kind:    KindTokenVerification,
		Cause:   cause,
	}
}

// MalformedRequest reports a request that could not be read at all, such as
// an unparsable body or an unsupported authorization scheme.
func MalformedRequest(msg string) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Status:  fiber.StatusBadRequest,
		Message: msg,
		Kind:    KindMalformedRequest,
	}
}

// Validation reports well-formed input that breaks field rules.
func Validation(fields map[string][]string) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  fiber.StatusUnprocessableEntity,
		Message: "Validation failed",
		Fields:  fields,
		Kind:    KindValidation,
	}
}

// FromValidation turns ozzo-validation errors into a Validation AppError.
// Nested field errors are flattened as "parent.child"; a rule failing on the
// whole value is reported under the empty key. Rule internal errors are
// faults, not validation failures.
func FromValidation(err error) *AppError {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return newInternal(KindValidation, err)
		}
		return Validation(map[string][]string{"": {err.Error()}})
	}
	fields := make(map[string][]string, len(errs))
	flatten("", errs, fields)
	return Validation(fields)
}

func flatten(prefix string, errs validation.Errors, out map[string][]string) {
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if prefix != "" {
			name = prefix + "." + k
		}
		var nested validation.Errors
		if errors.As(errs[k], &nested) {
			flatten(name, nested, out)
			continue
		}
		out[name] = append(out[name], errs[k].Error())
	}
}

// As classifies any error into an AppError. Errors that carry no
// classification become unclassified internal faults.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		if fiberErr.Code >= fiber.StatusInternalServerError {
			return newInternal(KindUnclassified, err)
		}
		kind := KindMalformedRequest
		if fiberErr.Code == fiber.StatusNotFound {
			kind = KindNotFound
		}
		return &AppError{
			Code:    codeForStatus(fiberErr.Code),
			Status:  fiberErr.Code,
			Message: fiberErr.Message,
			Kind:    kind,
		}
	}
	return newInternal(KindUnclassified, err)
}

// IsKind reports whether err classifies as the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Kind == kind
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusUnauthorized:
		return "UNAUTHORIZED"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusUnprocessableEntity:
		return "VALIDATION_FAILED"
	default:
		return "BAD_REQUEST"
	}
}
