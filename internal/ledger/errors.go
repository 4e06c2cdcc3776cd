package ledger

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure for callers.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is returned by every Service operation that fails. Message is safe
// to show to the end user; Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrValidation) match any error of that kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

var (
	ErrInternal     = &Error{Kind: KindInternal}
	ErrValidation   = &Error{Kind: KindValidation}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrConflict     = &Error{Kind: KindConflict}
)

// Store errors. Store implementations wrap driver errors into these.
var (
	ErrRecordNotFound = errors.New("ledger: record not found")
	ErrDuplicateKey   = errors.New("ledger: duplicate key")
	// ErrRetryable marks a deadlock or serialization failure; the whole
	// transactional scope may be run again.
	ErrRetryable = errors.New("ledger: retryable storage conflict")
)

func validation(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }

func notFound(msg string) *Error { return &Error{Kind: KindNotFound, Message: msg} }

func unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }

// KindOf reports the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return KindInternal
}

// Message returns the user facing message of err.
func Message(err error) string {
	var le *Error
	if errors.As(err, &le) && le.Message != "" {
		return le.Message
	}
	return "Internal server error"
}
