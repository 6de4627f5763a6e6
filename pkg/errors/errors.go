package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
)

// ErrorType represents the category of a failure
type ErrorType string

const (
	ErrorTypeInput     ErrorType = "input"
	ErrorTypeSession   ErrorType = "session"
	ErrorTypeAssets    ErrorType = "assets"
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeRecipient ErrorType = "recipient"
	ErrorTypeMedia     ErrorType = "media"
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeServer    ErrorType = "server"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error is a typed failure carrying an optional status code and cause.
// APICode is the provider's own error code, e.g. a Graph API code such as
// 131026 for an undeliverable recipient.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	APICode int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	switch {
	case e.Code != 0 && e.APICode != 0:
		msg = fmt.Sprintf("%s (code %d, api code %d)", msg, e.Code, e.APICode)
	case e.Code != 0:
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	case e.APICode != 0:
		msg = fmt.Sprintf("%s (api code %d)", msg, e.APICode)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error without a cause
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a typed error around err
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the type of the first *Error in err's chain, or unknown
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// APICodeOf returns the provider error code of the first *Error in err's
// chain, or 0
func APICodeOf(err error) int {
	var e *Error
	if stderrors.As(err, &e) {
		return e.APICode
	}
	return 0
}

// Is reports whether err carries the given type
func Is(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// Driver messages that identify a specific failure cause.
const (
	assetsMarker  = "unable to locate assets"
	networkMarker = "internet not connected"
)

// Classify maps a raw send error onto a typed error. Errors that are
// already typed pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, assetsMarker):
		return Wrap(ErrorTypeAssets, "WhatsApp Web assets could not be located", err)
	case strings.Contains(msg, networkMarker):
		return Wrap(ErrorTypeNetwork, "internet not connected", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrorTypeNetwork, "send timed out", err)
	default:
		return Wrap(ErrorTypeUnknown, "send failed", err)
	}
}

const genericHint = "WhatsApp Web not logged in? Browser closed? Incorrect phone format? Focus lost? Image path incorrect?"

// Hint returns the operator hint printed after a failed send
func Hint(err error) string {
	switch TypeOf(Classify(err)) {
	case ErrorTypeAssets:
		return "The WhatsApp Web UI may have changed. The automation selectors may need an update."
	case ErrorTypeNetwork:
		return "Please check your internet connection."
	case ErrorTypeSession:
		return "WhatsApp Web is not logged in. Scan the QR code in the browser profile and retry."
	case ErrorTypeAuth:
		return "Cloud API token rejected. Run 'greetsend auth login' to store a valid token."
	default:
		return genericHint
	}
}
