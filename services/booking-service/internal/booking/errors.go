package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/md-rashed-zaman/bookora/libs/db"
	"github.com/md-rashed-zaman/bookora/services/booking-service/internal/model"
)

type Kind string

const (
	KindInvalidInput Kind = "INVALID_INPUT"
	KindConflict     Kind = "CONFLICT"
	KindNotFound     Kind = "NOT_FOUND"
	KindForbidden    Kind = "FORBIDDEN"
	KindUnavailable  Kind = "UNAVAILABLE"
)

// Error carries a caller-facing kind and message plus the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works for every conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrUnavailable  = &Error{Kind: KindUnavailable}
)

// KindOf returns the kind of the first *Error in err's chain, or "" for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Retryable reports whether the caller may retry the same request unchanged.
func Retryable(err error) bool {
	return KindOf(err) == KindUnavailable
}

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// classify maps storage failures onto the error taxonomy. Errors already classified pass through.
func classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, model.ErrNotFound):
		return &Error{Kind: KindNotFound, Message: msg, Err: err}
	case db.IsExclusionViolation(err):
		return &Error{Kind: KindConflict, Message: "slot no longer available", Err: err}
	case errors.Is(err, context.Canceled), db.IsRetryable(err):
		return &Error{Kind: KindUnavailable, Message: "storage temporarily unavailable, retry", Err: err}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
