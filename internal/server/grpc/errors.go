package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// LockedUntilTrailer carries the RFC 3339 unlock time on locked logins.
const LockedUntilTrailer = "locked_until"

// toStatus maps service errors onto gRPC status codes with messages safe
// to show to end users.
func toStatus(ctx context.Context, err error) error {
	var (
		verr   *common.ValidationError
		locked *common.LockedError
	)

	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Reason)
	case errors.As(err, &locked):
		until := locked.Until.UTC()
		_ = grpc.SetTrailer(ctx, metadata.Pairs(LockedUntilTrailer, until.Format(time.RFC3339)))
		return status.Errorf(codes.FailedPrecondition, "Account locked. Try again after %s UTC", until.Format("2006-01-02 15:04:05"))
	case errors.Is(err, common.ErrAlreadyRegistered):
		return status.Error(codes.AlreadyExists, "Email already registered")
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "User not found")
	case errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "Invalid email or password")
	case errors.Is(err, common.ErrInvalidMFACode):
		return status.Error(codes.Unauthenticated, "Invalid MFA code")
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, "Invalid or expired token")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
