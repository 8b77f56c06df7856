package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
)

// Error pairs a sentinel kind with a message that is safe to show to clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Kind }

func NotFound(resource string, id int64) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %d not found", resource, id)}
}

func InvalidInput(msg string) error  { return &Error{Kind: ErrInvalidInput, Message: msg} }
func Unauthorized(msg string) error  { return &Error{Kind: ErrUnauthorized, Message: msg} }
func Forbidden(msg string) error     { return &Error{Kind: ErrForbidden, Message: msg} }
func AlreadyExists(msg string) error { return &Error{Kind: ErrAlreadyExists, Message: msg} }

// WithMessage keeps the kind of err but replaces the client-facing message.
func WithMessage(err error, msg string) error {
	var de *Error
	if errors.As(err, &de) {
		return &Error{Kind: de.Kind, Message: msg}
	}
	return err
}

// ClientMessage returns the client-facing part of err, or "" when err carries none.
func ClientMessage(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
