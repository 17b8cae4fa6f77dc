package clinic

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
	"github.com/vaisagh-mp/clinic-project/internal/platform/scope"
	"github.com/vaisagh-mp/clinic-project/pkg/pagination"
)

type Handler struct {
	svc      *Service
	resolver *scope.Resolver
}

func NewHandler(svc *Service, resolver *scope.Resolver) *Handler {
	return &Handler{svc: svc, resolver: resolver}
}

// RegisterRoutes mounts the admin-panel and clinic-panel endpoints. Both
// groups are expected to already carry the JWT middleware.
func (h *Handler) RegisterRoutes(adminG, clinicG *echo.Group) {
	admin := adminG.Group("", auth.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin))
	admin.GET("/dashboard", h.AdminDashboard)
	admin.GET("/clinics", h.ListClinics)
	admin.POST("/clinics", h.CreateClinic)
	admin.GET("/clinics/:id", h.GetClinic)
	admin.PUT("/clinics/:id", h.UpdateClinic)
	admin.DELETE("/clinics/:id", h.DeleteClinic)
	admin.GET("/doctors", h.ListDoctors)
	admin.POST("/doctors", h.CreateDoctor)
	admin.GET("/doctors/:id", h.GetDoctor)
	admin.PUT("/doctors/:id", h.UpdateDoctor)
	admin.DELETE("/doctors/:id", h.DeleteDoctor)
	admin.GET("/patients", h.ListPatients)
	admin.POST("/patients", h.CreatePatient)
	admin.GET("/patients/:id", h.GetPatient)
	admin.PUT("/patients/:id", h.UpdatePatient)
	admin.DELETE("/patients/:id", h.DeletePatient)
	admin.GET("/appointments", h.ListAppointments)
	admin.POST("/appointments", h.CreateAppointment)
	admin.GET("/appointments/:id", h.GetAppointment)
	admin.PUT("/appointments/:id", h.UpdateAppointment)
	admin.DELETE("/appointments/:id", h.DeleteAppointment)

	clinic := clinicG.Group("", auth.RequireRole(auth.RoleClinic))
	clinic.GET("/dashboard", h.ClinicDashboard)
	clinic.GET("/doctors", h.ListDoctors)
	clinic.POST("/doctors", h.CreateDoctor)
	clinic.GET("/doctors/:id", h.GetDoctor)
	clinic.PUT("/doctors/:id", h.UpdateDoctor)
	clinic.DELETE("/doctors/:id", h.DeleteDoctor)
	clinic.GET("/patients", h.ListPatients)
	clinic.POST("/patients", h.CreatePatient)
	clinic.GET("/patients/:id", h.GetPatient)
	clinic.PUT("/patients/:id", h.UpdatePatient)
	clinic.DELETE("/patients/:id", h.DeletePatient)
	clinic.GET("/appointments", h.ListAppointments)
	clinic.POST("/appointments", h.CreateAppointment)
	clinic.GET("/appointments/:id", h.GetAppointment)
	clinic.PUT("/appointments/:id", h.UpdateAppointment)
	clinic.DELETE("/appointments/:id", h.DeleteAppointment)
}

// optionalClinicScope resolves the clinic for list endpoints. Admin callers
// may omit clinic_id to see all clinics' rows; everyone else is pinned to
// their own clinic.
func (h *Handler) optionalClinicScope(c echo.Context) (uuid.UUID, error) {
	role := auth.EffectiveRole(c.Request().Context())
	if (role == auth.RoleSuperAdmin || role == auth.RoleAdmin) && c.QueryParam("clinic_id") == "" {
		return uuid.Nil, nil
	}
	sc, err := h.resolver.Clinic(c)
	if err != nil {
		return uuid.Nil, err
	}
	return sc.ClinicID, nil
}

// -- Dashboards --

func (h *Handler) AdminDashboard(c echo.Context) error {
	d, err := h.svc.AdminDashboard(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ClinicDashboard(c echo.Context) error {
	sc, err := h.resolver.Clinic(c)
	if err != nil {
		return err
	}
	d, err := h.svc.ClinicDashboard(c.Request().Context(), sc.ClinicID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

// -- Clinics (admin only) --

func (h *Handler) CreateClinic(c echo.Context) error {
	var in ClinicInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateClinic(c.Request().Context(), in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetClinic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	clinic, err := h.svc.GetClinic(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "clinic not found")
	}
	return c.JSON(http.StatusOK, clinic)
}

func (h *Handler) ListClinics(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListClinics(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateClinic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in ClinicInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	clinic, err := h.svc.UpdateClinic(c.Request().Context(), id, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, clinic)
}

func (h *Handler) DeleteClinic(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteClinic(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "clinic not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Doctors --

func (h *Handler) CreateDoctor(c echo.Context) error {
	sc, err := h.resolver.Clinic(c)
	if err != nil {
		return err
	}
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), sc.ClinicID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctors(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), clinicID, id, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), clinicID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Patients --

func (h *Handler) CreatePatient(c echo.Context) error {
	sc, err := h.resolver.Clinic(c)
	if err != nil {
		return err
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreatePatient(c.Request().Context(), sc.ClinicID, &p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetPatient(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in Patient
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), clinicID, id, &in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePatient(c.Request().Context(), clinicID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Appointments --

func (h *Handler) CreateAppointment(c echo.Context) error {
	sc, err := h.resolver.Clinic(c)
	if err != nil {
		return err
	}
	var in AppointmentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if uid, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context())); err == nil {
		in.CreatedBy = &uid
	}
	a, err := h.svc.CreateAppointment(c.Request().Context(), sc.ClinicID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) GetAppointment(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAppointment(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListAppointments(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListAppointments(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in AppointmentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), clinicID, id, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	clinicID, err := h.optionalClinicScope(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteAppointment(c.Request().Context(), clinicID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	}
	return c.NoContent(http.StatusNoContent)
}
