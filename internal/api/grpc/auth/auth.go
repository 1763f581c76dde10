// Package auth resolves caller identity from gRPC request metadata.
//
// Callers present a bearer access token in the authorization header. The
// interceptor verifies the token and stores the resulting principal in the
// request context for the service layer.
package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/expohall/expohall/internal/auth/token"
	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/meeting"
)

// AuthorizationHeader is the gRPC metadata key carrying the bearer token.
const AuthorizationHeader = "authorization"

const bearerPrefix = "bearer "

// Principal identifies the authenticated caller of a request.
type Principal struct {
	ActorID string
	Role    meeting.Role
}

// contextKey stores auth values in context.
type contextKey string

const principalContextKey contextKey = "expohall-principal"

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, principal Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext returns the principal stored in context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	if ctx == nil {
		return Principal{}, false
	}
	principal, ok := ctx.Value(principalContextKey).(Principal)
	return principal, ok
}

// BearerTokenFromContext extracts the bearer token from incoming metadata.
func BearerTokenFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for key, values := range md {
		if !strings.EqualFold(key, AuthorizationHeader) {
			continue
		}
		for _, value := range values {
			value = strings.TrimSpace(value)
			if len(value) > len(bearerPrefix) && strings.EqualFold(value[:len(bearerPrefix)], bearerPrefix) {
				return strings.TrimSpace(value[len(bearerPrefix):])
			}
		}
	}
	return ""
}

// exemptMethods lists full method names served without authentication.
var exemptMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// UnaryServerInterceptor authenticates unary calls using bearer tokens.
func UnaryServerInterceptor(cfg token.Config) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if exemptMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		bearer := BearerTokenFromContext(ctx)
		if bearer == "" {
			err := apperrors.New(apperrors.CodeTokenInvalid, "missing bearer token")
			return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
		}
		claims, err := token.Verify(bearer, cfg)
		if err != nil {
			return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
		}

		principal := Principal{ActorID: claims.ActorID, Role: claims.Role}
		return handler(WithPrincipal(ctx, principal), req)
	}
}
