package errors

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-sql-driver/mysql"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned by repositories when a unique constraint rejects a write.
var ErrDuplicateKey = errors.New("duplicate key")

// IsDuplicateKey recognises unique-constraint violations from gorm's error
// translation and from the raw MySQL driver (1062).
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicateKey) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// Map converts repo/infra errors into typed errors.
// Already typed errors pass through untouched.
func Map(err error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return Wrap(KindNotFound, "record not found", err)

	case IsDuplicateKey(err):
		return Wrap(KindConflict, "record already exists", err)

	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(KindInternal, "request timed out", err)

	case errors.Is(err, context.Canceled):
		return Wrap(KindInternal, "request was canceled", err)

	default:
		return Wrap(KindInternal, "internal error", err)
	}
}

// HTTPStatus projects an error onto an HTTP status code.
// Conflicts surface as 400 to match the public API contract for duplicate likes.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus converts an error into a gRPC status error.
func GRPCStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	err = Map(err)
	msg := Message(err)

	switch KindOf(err) {
	case KindValidation:
		return status.Error(codes.InvalidArgument, msg)
	case KindNotFound:
		return status.Error(codes.NotFound, msg)
	case KindUnauthorized:
		return status.Error(codes.Unauthenticated, msg)
	case KindConflict:
		return status.Error(codes.AlreadyExists, msg)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	default:
		return status.Error(codes.Internal, msg)
	}
}

// Message is the caller-facing text of err; causes of untyped errors stay hidden.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

// Details returns the per-field messages attached to err, if any.
func Details(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
