package errors

import (
	"errors"
	"fmt"
)

// Kind classifies payment errors so handlers can map them to status codes
// without inspecting messages.
type Kind int

const (
	KindInvalidInput Kind = iota
	KindNotFound
	KindUpstreamFailure
	KindConflict
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewInvalidInput(msg string) error {
	return &Error{Kind: KindInvalidInput, Msg: msg}
}

func NewNotFound(msg string) error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func NewConflict(msg string) error {
	return &Error{Kind: KindConflict, Msg: msg}
}

// WrapUpstream tags a failed or timed-out gateway call.
func WrapUpstream(msg string, err error) error {
	return &Error{Kind: KindUpstreamFailure, Msg: msg, Err: err}
}

func isKind(err error, kind Kind) bool {
	var paymentError *Error
	if !errors.As(err, &paymentError) {
		return false
	}
	return paymentError.Kind == kind
}

func IsInvalidInput(err error) bool    { return isKind(err, KindInvalidInput) }
func IsNotFound(err error) bool        { return isKind(err, KindNotFound) }
func IsUpstreamFailure(err error) bool { return isKind(err, KindUpstreamFailure) }
func IsConflict(err error) bool        { return isKind(err, KindConflict) }
