package errutil

import "fmt"

type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// BaseError is the domain error carried from services up to the HTTP boundary.
type BaseError struct {
	Code    CoreStatus `json:"code"`
	Message string     `json:"message"`
	Details []Detail   `json:"details,omitempty"`
	Err     error      `json:"-"`
}

func (e BaseError) Status() CoreStatus {
	return e.Code
}

func (e BaseError) JSON() interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    e.Code,
			"message": e.Message,
			"details": e.Details,
		},
	}
}

func (e BaseError) Unwrap() error {
	return e.Err
}

func (e BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

type Option func(*BaseError)

func WithDetails(details ...Detail) Option {
	return func(be *BaseError) { be.Details = details }
}

func New(code CoreStatus, message string, err error, opts ...Option) error {
	be := BaseError{Code: code, Message: message, Err: err}
	for _, opt := range opts {
		opt(&be)
	}
	return be
}

func NotFound(msg string, err error, opts ...Option) error {
	return New(StatusNotFound, msg, err, opts...)
}

func BadRequest(msg string, err error, opts ...Option) error {
	return New(StatusBadRequest, msg, err, opts...)
}

func ValidationFailed(msg string, err error, opts ...Option) error {
	return New(StatusValidationFailed, msg, err, opts...)
}

func UnprocessableEntity(msg string, err error, opts ...Option) error {
	return New(StatusUnprocessableEntity, msg, err, opts...)
}

func Conflict(msg string, err error, opts ...Option) error {
	return New(StatusConflict, msg, err, opts...)
}

func Unauthorized(msg string, err error, opts ...Option) error {
	return New(StatusUnauthorized, msg, err, opts...)
}

func Forbidden(msg string, err error, opts ...Option) error {
	return New(StatusForbidden, msg, err, opts...)
}

func Internal(msg string, err error, opts ...Option) error {
	return New(StatusInternal, msg, err, opts...)
}
