package common

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error kinds. Wrap them with NewAppError so callers can classify with errors.Is.
var (
	ErrBadRequest           = errors.New("bad request")
	ErrNotFound             = errors.New("resource not found")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrExtraction           = errors.New("extraction failed")
	ErrInvalidState         = errors.New("invalid state")
	ErrInternal             = errors.New("internal error")
)

// Stable AppError codes.
const (
	CodeBadRequest           = "BadRequest"
	CodeNotFound             = "NotFound"
	CodeUnsupportedMediaType = "UnsupportedMediaType"
	CodeExtractionError      = "ExtractionError"
	CodeInvalidState         = "InvalidState"
	CodeConfig               = "CONFIG_ERROR"
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func BadRequestf(format string, args ...interface{}) error {
	return NewAppError(CodeBadRequest, fmt.Sprintf(format, args...), ErrBadRequest)
}

func NotFoundf(format string, args ...interface{}) error {
	return NewAppError(CodeNotFound, fmt.Sprintf(format, args...), ErrNotFound)
}

// UnsupportedMediaType reports a sniffed content type that no adapter handles.
func UnsupportedMediaType(mime string) error {
	return NewAppError(CodeUnsupportedMediaType, fmt.Sprintf("unsupported file type: %s", mime), ErrUnsupportedMediaType)
}

// ExtractionError wraps a parser or recognition diagnostic.
func ExtractionError(message string, cause error) error {
	if cause == nil {
		return NewAppError(CodeExtractionError, message, ErrExtraction)
	}
	return NewAppError(CodeExtractionError, message, fmt.Errorf("%w: %w", ErrExtraction, cause))
}

func InvalidStatef(format string, args ...interface{}) error {
	return NewAppError(CodeInvalidState, fmt.Sprintf(format, args...), ErrInvalidState)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// GRPCCode classifies err into a gRPC status code.
func GRPCCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	switch {
	case errors.Is(err, ErrBadRequest):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound):
		return codes.NotFound
	case errors.Is(err, ErrUnsupportedMediaType):
		return codes.Unimplemented
	case errors.Is(err, ErrInvalidState):
		return codes.FailedPrecondition
	default:
		return codes.Internal
	}
}

// ToStatus converts err into a gRPC status error carrying its code.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	msg := err.Error()
	var appErr *AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	return status.Error(GRPCCode(err), msg)
}
