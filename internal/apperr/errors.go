package apperr

import (
	"errors"
	"fmt"
)

// Kind discriminates failure categories so callers can branch on cause
// instead of matching message text.
type Kind int

const (
	// KindValidation covers malformed input and policy violations. The caller
	// must correct the input; retrying the same call will fail again.
	KindValidation Kind = iota
	// KindConflict covers uniqueness violations and optimistic-version
	// mismatches. The caller should refetch and retry.
	KindConflict
	// KindAuthentication covers bad credentials and disallowed account states.
	KindAuthentication
	// KindNotFound covers unknown identifiers.
	KindNotFound
	// KindStorage is the catch-all for persistence and backup failures.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Error is the error type returned across service boundaries.
type Error struct {
	Kind    Kind
	Message string
	Err     error // wrapped cause, may be nil
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error     { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error       { return &Error{Kind: KindConflict, Message: msg} }
func Authentication(msg string) error { return &Error{Kind: KindAuthentication, Message: msg} }
func NotFound(msg string) error       { return &Error{Kind: KindNotFound, Message: msg} }

// Storage wraps a low-level persistence error with a caller-facing message.
func Storage(msg string, err error) error {
	return &Error{Kind: KindStorage, Message: msg, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func IsValidation(err error) bool     { return IsKind(err, KindValidation) }
func IsConflict(err error) bool       { return IsKind(err, KindConflict) }
func IsAuthentication(err error) bool { return IsKind(err, KindAuthentication) }
func IsNotFound(err error) bool       { return IsKind(err, KindNotFound) }
func IsStorage(err error) bool        { return IsKind(err, KindStorage) }
