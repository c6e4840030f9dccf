package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	result, err := s.auth.Register(ctx, services.RegisterRequest{
		Email:       field(req, "email"),
		DisplayName: field(req, "name"),
		Password:    field(req, "password"),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return reply(map[string]any{
		"success":    true,
		"mfa_secret": result.MFASecret,
		"mfa_qr_url": result.ProvisioningURI,
		"message":    "Please set up MFA to complete registration",
	})
}

func (s *GRPCServer) CompleteRegistration(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	result, err := s.auth.CompleteRegistration(ctx, services.CompleteRegistrationRequest{
		Email:       field(req, "email"),
		DisplayName: field(req, "name"),
		Password:    field(req, "password"),
		MFASecret:   field(req, "mfa_secret"),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return reply(map[string]any{
		"success": true,
		"token":   result.Token,
		"user":    publicUser(result.User),
	})
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	result, err := s.auth.Login(ctx, services.LoginRequest{
		Email:    field(req, "email"),
		Password: field(req, "password"),
		MFACode:  field(req, "mfa_code"),
	})
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	if result.MFARequired {
		return reply(map[string]any{
			"success":      false,
			"requires_mfa": true,
			"error":        "MFA code required",
		})
	}

	return reply(map[string]any{
		"success": true,
		"token":   result.Token,
		"user":    publicUser(result.User),
	})
}

// VerifyToken prefers the bearer token from metadata and falls back to the
// "token" field.
func (s *GRPCServer) VerifyToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	token, ok := BearerToken(ctx)
	if !ok {
		token = field(req, "token")
	}
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "No token provided")
	}

	user, err := s.auth.VerifyToken(ctx, token)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return reply(map[string]any{
		"success": true,
		"user":    publicUser(*user),
	})
}

func (s *GRPCServer) VerifyMFASetup(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	valid, err := s.auth.VerifyMFASetup(ctx, field(req, "mfa_secret"), field(req, "mfa_code"))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	out := map[string]any{"success": valid}
	if !valid {
		out["error"] = "Invalid MFA code"
	}
	return reply(out)
}

func (s *GRPCServer) Ping(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	return reply(map[string]any{"status": "healthy", "service": "auth"})

}

func field(req *structpb.Struct, key string) string {
	v, ok := req.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func publicUser(u models.PublicUser) map[string]any {
	return map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"name":        u.DisplayName,
		"mfa_enabled": u.MFAEnabled,
	}
}

func reply(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}
