package usecase

import (
	"errors"
	"fmt"
)

// エラー種別。HTTPステータスへの変換はhandler側の仕事。
type ErrorKind string

const (
	KindNotFound             ErrorKind = "not_found"
	KindForbidden            ErrorKind = "forbidden"
	KindInvalidTransition    ErrorKind = "invalid_transition"
	KindInvalidState         ErrorKind = "invalid_state"
	KindValidation           ErrorKind = "validation"
	KindConflict             ErrorKind = "conflict"
	KindGatewayUnavailable   ErrorKind = "gateway_unavailable"
	KindVerificationTimedOut ErrorKind = "verification_timed_out"
	KindInternal             ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewError(kind ErrorKind, message string) error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

func AsError(err error) (*Error, bool) {
	var ue *Error
	ok := errors.As(err, &ue)
	return ue, ok
}
