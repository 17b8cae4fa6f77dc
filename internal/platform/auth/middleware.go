package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey contextKey = "user_id"
	RoleKey   contextKey = "user_role"
	ClaimsKey contextKey = "user_claims"
)

// JWTMiddleware authenticates requests with a bearer access token. Refresh
// tokens and revoked tokens are rejected. On success the user ID, role, and
// full claims are placed on the request context.
func JWTMiddleware(issuer *TokenIssuer, revocations *TokenRevocationStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := issuer.Parse(parts[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if claims.TokenType != TokenTypeAccess {
				return echo.NewHTTPError(http.StatusUnauthorized, "access token required")
			}
			if revocations != nil && revocations.IsRevoked(claims.ID) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token has been revoked")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, claims.Subject)
			ctx = context.WithValue(ctx, RoleKey, claims.Role)
			ctx = context.WithValue(ctx, ClaimsKey, claims)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleKey).(string)
	return role
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(ClaimsKey).(*Claims)
	return claims
}

// EffectiveRole returns the role the request should be treated as. When a
// superadmin has switched panels the acting_as_role claim wins; for everyone
// else it is the real role.
func EffectiveRole(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return RoleFromContext(ctx)
	}
	if claims.Role == RoleSuperAdmin && claims.ActingAsRole != "" {
		return claims.ActingAsRole
	}
	return claims.Role
}

// EffectiveUserID returns the user ID the request should be scoped by,
// honouring the acting_as_user_id claim for a panel-switched superadmin.
func EffectiveUserID(ctx context.Context) string {
	claims := ClaimsFromContext(ctx)
	if claims == nil {
		return UserIDFromContext(ctx)
	}
	if claims.Role == RoleSuperAdmin && claims.ActingAsUserID != "" {
		return claims.ActingAsUserID
	}
	return claims.Subject
}
