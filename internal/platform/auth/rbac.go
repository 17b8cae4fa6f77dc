package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole returns middleware that checks if the user's effective role is
// one of the specified roles. A superadmin always passes: switching panels
// narrows what a superadmin sees, never what they are allowed to reach.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			if RoleFromContext(ctx) == RoleSuperAdmin {
				return next(c)
			}

			effective := EffectiveRole(ctx)
			for _, required := range roles {
				if effective == required {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(roles, " or ")))
		}
	}
}
