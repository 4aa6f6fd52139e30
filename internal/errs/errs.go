package errs

import "errors"

// CustomErrorMessage is the message carried by the error RaiseCustom returns.
const CustomErrorMessage = "Test to raise custom exception"

// ErrNotSupported matches any *NotSupportedError via errors.Is.
var ErrNotSupported = errors.New("not supported")

// NotSupportedError reports an operation that is not supported. Errors is an
// optional payload of underlying causes.
type NotSupportedError struct {
	Message string
	Errors  []error
}

// NewNotSupported builds a NotSupportedError. nil entries in errs are dropped.
func NewNotSupported(msg string, errs ...error) *NotSupportedError {
	var payload []error
	for _, err := range errs {
		if err != nil {
			payload = append(payload, err)
		}
	}
	return &NotSupportedError{Message: msg, Errors: payload}
}

// Error returns the message only. The payload is reachable through Unwrap.
func (e *NotSupportedError) Error() string {
	return e.Message
}

func (e *NotSupportedError) Unwrap() []error {
	return e.Errors
}

func (e *NotSupportedError) Is(target error) bool {
	return target == ErrNotSupported
}

// CustomError is a plain application error with no extra behaviour.
type CustomError struct {
	Message string
}

func NewCustom(msg string) *CustomError {
	return &CustomError{Message: msg}
}

func (e *CustomError) Error() string {
	return e.Message
}

// RaiseCustom always returns a *CustomError carrying CustomErrorMessage.
func RaiseCustom() error {
	return NewCustom(CustomErrorMessage)
}
