package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"

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

// Error kinds. Every error leaving the pipeline wraps exactly one of these.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrIngestion     = errors.New("ingestion error")
	ErrTransient     = errors.New("transient service error")
	ErrProcessing    = errors.New("processing error")
	ErrInvalidInput  = errors.New("invalid input")

	// ErrDegraded marks an extraction attempt whose output was unusable. It is
	// absorbed by the vote and never surfaces from ProcessDocument.
	ErrDegraded = errors.New("degraded output")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Kind wraps cause under sentinel so errors.Is matches both.
func Kind(sentinel error, code, message string, cause error) *AppError {
	if cause == nil {
		return NewAppError(code, message, sentinel)
	}
	return NewAppError(code, message, errors.Join(sentinel, cause))
}

// IsTransient reports network-ish failures, including context deadlines.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded)
}

// HTTPStatus maps an error kind onto an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrIngestion):
		return http.StatusBadRequest
	case IsTransient(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrProcessing):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus converts err to a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrIngestion):
		return status.Error(codes.InvalidArgument, err.Error())
	case IsTransient(err):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, ErrProcessing):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, ErrConfiguration):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// gRPC error helpers
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func InvalidArgumentErrorf(format string, args ...any) error {
	return InvalidArgumentError(fmt.Sprintf(format, args...))
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}
