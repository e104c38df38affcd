// Package precondition holds the construction-time checks shared by the
// crypto, signing and message packages.
//
// Every check either returns nil or an *Error carrying the offending field,
// the expected and actual lengths and the type being constructed. These are
// contract errors: callers must fix their input, retrying never helps.
package precondition

import (
	"fmt"

	"github.com/relves/groupsig/pkg/types"
)

// Fixed lengths of the material carried by group control messages.
const (
	SignatureLen = 64
	AuthDataLen  = 100
	SeedLen      = 32
	KeyLen       = 32
)

// Error codes for precondition failures
const (
	ErrCodeCryptoPrecondition = "CRYPTO_PRECONDITION"
	ErrCodeInvalidMemberID    = "INVALID_MEMBER_ID"
	ErrCodeMissingField       = "MISSING_FIELD"
)

// Sentinels for errors.Is. Only the Code is compared.
var (
	ErrCryptoPrecondition = &Error{Code: ErrCodeCryptoPrecondition}
	ErrInvalidMemberID    = &Error{Code: ErrCodeInvalidMemberID}
	ErrMissingField       = &Error{Code: ErrCodeMissingField}
)

// Error describes a failed precondition.
type Error struct {
	Code     string
	Field    string
	Expected int
	Actual   int
	Context  string
	Message  string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	switch e.Code {
	case ErrCodeCryptoPrecondition:
		return fmt.Sprintf("%s: %s length should be %d but is %d for ctx:%q",
			e.Code, e.Field, e.Expected, e.Actual, e.Context)
	case ErrCodeInvalidMemberID:
		return fmt.Sprintf("%s: %s did not contain only 05 pubkeys for ctx:%q", e.Code, e.Field, e.Context)
	default:
		return fmt.Sprintf("%s: %s must be set for ctx:%q", e.Code, e.Field, e.Context)
	}
}

// Is reports whether target is a precondition error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a precondition error with a free-form message.
func NewError(code, field, ctx, message string) *Error {
	return &Error{Code: code, Field: field, Context: ctx, Message: message}
}

// CheckLength fails unless data is exactly expected bytes long.
func CheckLength(data []byte, expected int, field, ctx string) error {
	if len(data) != expected {
		return &Error{
			Code:     ErrCodeCryptoPrecondition,
			Field:    field,
			Expected: expected,
			Actual:   len(data),
			Context:  ctx,
		}
	}
	return nil
}

// CheckNotEmpty fails if s is empty.
func CheckNotEmpty(s, field, ctx string) error {
	if s == "" {
		return &Error{Code: ErrCodeMissingField, Field: field, Expected: 1, Context: ctx}
	}
	return nil
}

// CheckNonEmptyList fails if n is zero.
func CheckNonEmptyList(n int, field, ctx string) error {
	if n == 0 {
		return &Error{Code: ErrCodeMissingField, Field: field, Expected: 1, Context: ctx}
	}
	return nil
}

// CheckStandardSessionIDs fails if any id is not a well-formed 05 session id.
// Actual is set to the index of the first offending entry.
func CheckStandardSessionIDs(ids []types.SessionID, field, ctx string) error {
	for i, id := range ids {
		if !id.IsStandard() {
			return &Error{Code: ErrCodeInvalidMemberID, Field: field, Actual: i, Context: ctx}
		}
	}
	return nil
}
