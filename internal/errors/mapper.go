// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/docstore"
	"github.com/coolmes833/swapskills/internal/match"
	"github.com/coolmes833/swapskills/internal/repository"
)

// Map converts domain/repo/infra errors into gRPC status errors.
// Errors that already carry a status pass through unchanged.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, docstore.ErrNotFound):
		return status.Error(codes.NotFound, "record not found")

	case errors.Is(err, auth.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "missing or invalid session")

	case errors.Is(err, auth.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid email or password")

	case errors.Is(err, match.ErrSelfInterest):
		return InvalidArgument("target_user_id", "cannot target yourself")

	case errors.Is(err, match.ErrInvalidTarget):
		return InvalidArgument("target_user_id", "must be a non-empty user id without '/'")

	case errors.Is(err, match.ErrNotMatched):
		return status.Error(codes.PermissionDenied, "users are not matched")

	case errors.Is(err, match.ErrAlreadyMatched):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, repository.ErrEmailTaken):
		return AlreadyExists("email already registered")

	// the revoking user must retry; the sweeper keeps trying meanwhile
	case errors.Is(err, match.ErrPartialRevocation):
		return status.Error(codes.Aborted, "match revocation incomplete, retry")

	case errors.Is(err, match.ErrPartialPromotion):
		return status.Error(codes.Unavailable, "match promotion incomplete, it will complete on retry")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, err.Error())
	}
}

// InvalidArgument creates a gRPC InvalidArgument error carrying a
// BadRequest detail for the offending field.
func InvalidArgument(field, msg string) error {
	st := status.New(codes.InvalidArgument, field+": "+msg)
	detailed, err := st.WithDetails(&errdetails.BadRequest{
		FieldViolations: []*errdetails.BadRequest_FieldViolation{
			{Field: field, Description: msg},
		},
	})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}

// AlreadyExists creates a gRPC AlreadyExists error.
func AlreadyExists(msg string) error {
	return status.Error(codes.AlreadyExists, msg)
}

// PermissionDenied creates a gRPC PermissionDenied error.
func PermissionDenied(msg string) error {
	return status.Error(codes.PermissionDenied, msg)
}

// ResourceExhausted creates a gRPC ResourceExhausted error.
func ResourceExhausted(msg string) error {
	return status.Error(codes.ResourceExhausted, msg)
}
