// Package apperr defines the gateway's stable error taxonomy (spec §7) and
// the caller-facing response envelope (spec §6). It is adapted from the
// original service's app/common/errors.py + error_codes.py: a single
// exception type carrying an HTTP-ish status, a stable string code, a
// message, and optional structured details, built through named
// constructors rather than ad-hoc errors.New calls.
package apperr

import "fmt"

// Code is a stable string identifier surfaced to callers (spec §6).
type Code string

// Known error codes.
const (
	CodeNotFound        Code = "NOT_FOUND"
	CodeForbidden       Code = "FORBIDDEN"
	CodeConflict        Code = "CONFLICT"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeValidationError Code = "VALIDATION_ERROR"
	CodePolicyBlock     Code = "POLICY_BLOCK"
	CodeRuleMalformed   Code = "RULE_MALFORMED"
	CodeInternalError   Code = "INTERNAL_ERROR"
)

// statusFor maps each Code to the HTTP-ish status class a transport layer
// would use; the gateway core itself never writes HTTP responses (spec §1
// places the transport layer out of scope), but carrying the class lets an
// outer layer translate AppError to a response with no extra lookup table.
var statusFor = map[Code]int{
	CodeNotFound:        404,
	CodeForbidden:       403,
	CodeConflict:        409,
	CodeUnauthorized:    401,
	CodeValidationError: 422,
	CodePolicyBlock:     403,
	CodeRuleMalformed:   500,
	CodeInternalError:   500,
}

// Detail is one structured error detail entry.
type Detail struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// AppError is the gateway's single error type at every public boundary.
type AppError struct {
	Status  int
	Code    Code
	Message string
	Details []Detail
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newErr(code Code, message string, details ...Detail) *AppError {
	return &AppError{Status: statusFor[code], Code: code, Message: message, Details: details}
}

// NotFound builds a 404-class error. Used for both "truly missing" and
// "access denied" cases so existence never leaks (spec §7).
func NotFound(message string) *AppError { return newErr(CodeNotFound, message) }

// Forbidden builds a 403-class error, reserved for membership-level denials
// on create-paths (spec §7) — never for per-message access checks, which
// use NotFound instead.
func Forbidden(message string) *AppError { return newErr(CodeForbidden, message) }

// Conflict builds a 409-class error, e.g. a unique-key violation.
func Conflict(message, field string) *AppError {
	var d []Detail
	if field != "" {
		d = []Detail{{Field: field, Reason: "conflict"}}
	}
	return newErr(CodeConflict, message, d...)
}

// Unauthorized builds a 401-class error.
func Unauthorized(message string) *AppError { return newErr(CodeUnauthorized, message) }

// ValidationError builds a 422-class error for malformed caller input.
func ValidationError(message, field, reason string) *AppError {
	return newErr(CodeValidationError, message, Detail{Field: field, Reason: reason})
}

// PolicyBlocked builds the error surfaced after a scan completes with
// final_action == block. It is reported only after the audit row commits
// (spec §7), never before.
func PolicyBlocked(message string) *AppError { return newErr(CodePolicyBlock, message) }

// RuleMalformed builds the error surfaced when a rule's conditions tree
// fails validation. Fatal to the enclosing scan call (spec §7).
func RuleMalformed(message string) *AppError { return newErr(CodeRuleMalformed, message) }

// Internal builds a 500-class catch-all error.
func Internal(message string) *AppError { return newErr(CodeInternalError, message) }

// As extracts an *AppError from err if it is one, otherwise wraps it as an
// internal error so callers always get a stable envelope.
func As(err error) *AppError {
	if err == nil {
		return nil
	}
	if ae, ok := err.(*AppError); ok {
		return ae
	}
	return Internal(err.Error())
}
