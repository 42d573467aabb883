package session

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies auth endpoint failures.
type Kind int

const (
	KindUnexpectedResponse Kind = iota
	KindInvalidCredentials
	KindTokenInvalidOrExpired
	KindNetworkFailure
	KindStorageFailure
)

var (
	kindTexts = map[Kind]string{
		KindUnexpectedResponse:    "unexpected response from auth server",
		KindInvalidCredentials:    "invalid credentials",
		KindTokenInvalidOrExpired: "token invalid or expired",
		KindNetworkFailure:        "auth server unreachable",
		KindStorageFailure:        "credential store unavailable",
	}

	// errors
	ErrAlreadyAuthenticated = errors.New("already authenticated")
)

func (k Kind) String() string {
	return kindTexts[k]
}

// Error is a classified auth endpoint failure. StatusCode is 0 when no response was received.
type Error struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func NewError(kind Kind, statusCode int, err error) *Error {
	return &Error{Kind: kind, StatusCode: statusCode, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (%d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether retrying the same call may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetworkFailure:
		return true
	case KindUnexpectedResponse:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// KindOf returns the Kind of a classified error found in err's chain.
func KindOf(err error) (Kind, bool) {
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind, true
	}
	return 0, false
}

// IsRetryable reports whether err is a classified error worth retrying.
func IsRetryable(err error) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Retryable()
}

func classify(err error) *Error {
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}
	return NewError(KindUnexpectedResponse, 0, err)
}
