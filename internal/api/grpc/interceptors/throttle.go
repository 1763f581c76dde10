// Package interceptors provides shared unary interceptors for the meeting API.
package interceptors

import (
	"context"

	"google.golang.org/grpc"

	"github.com/expohall/expohall/internal/api/grpc/auth"
	apperrors "github.com/expohall/expohall/internal/errors"
	"github.com/expohall/expohall/internal/ratelimit"
)

// throttleExemptMethods lists full method names served without throttling.
var throttleExemptMethods = map[string]bool{
	"/grpc.health.v1.Health/Check": true,
	"/grpc.health.v1.Health/Watch": true,
}

// ThrottleInterceptor rejects calls that exceed the per-actor rate limit.
// Unauthenticated calls share a single anonymous bucket.
func ThrottleInterceptor(limiter *ratelimit.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if limiter == nil || throttleExemptMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		key := ""
		if principal, ok := auth.PrincipalFromContext(ctx); ok {
			key = principal.ActorID
		}
		if !limiter.Allow(key) {
			err := apperrors.WithMetadata(
				apperrors.CodeRateLimited,
				"too many requests",
				map[string]string{"Method": info.FullMethod},
			)
			return nil, apperrors.HandleError(err, apperrors.DefaultLocale)
		}
		return handler(ctx, req)
	}
}
