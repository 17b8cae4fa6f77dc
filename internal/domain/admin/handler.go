package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the panel-switching endpoints on the admin-panel
// group. Only a real superadmin may switch; RequireRole checks the actual
// role, and these two routes additionally reject acting-as sessions from
// non-superadmins by construction.
func (h *Handler) RegisterRoutes(adminG *echo.Group) {
	g := adminG.Group("", auth.RequireRole(auth.RoleSuperAdmin))
	g.GET("/switchable-users", h.SwitchableUsers)
	g.POST("/switch-panel", h.SwitchPanel)
}

func (h *Handler) SwitchableUsers(c echo.Context) error {
	adminID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	users, err := h.svc.SwitchableUsers(c.Request().Context(), adminID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, users)
}

func (h *Handler) SwitchPanel(c echo.Context) error {
	adminID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	var in struct {
		TargetID uuid.UUID `json:"target_id"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if in.TargetID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "target_id is required")
	}
	result, err := h.svc.SwitchPanel(c.Request().Context(), adminID, in.TargetID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
