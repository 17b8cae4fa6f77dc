package consultation

import (
	"errors"
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

// RegisterRoutes mounts the doctor-panel endpoints plus the clinic-panel
// prescriptions view. Both groups already carry the JWT middleware.
func (h *Handler) RegisterRoutes(doctorG, clinicG *echo.Group) {
	doctor := doctorG.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/dashboard", h.Dashboard)
	doctor.GET("/consultations", h.ListConsultations)
	doctor.POST("/consultations", h.CreateConsultation)
	doctor.GET("/consultations/:id", h.GetConsultation)
	doctor.PUT("/consultations/:id", h.UpdateConsultation)
	doctor.DELETE("/consultations/:id", h.DeleteConsultation)
	doctor.GET("/prescriptions", h.ListPrescriptions)
	doctor.GET("/patients/:id/consultations", h.ListPatientConsultations)

	clinic := clinicG.Group("", auth.RequireRole(auth.RoleClinic))
	clinic.GET("/prescriptions", h.ListClinicPrescriptions)
}

func (h *Handler) Dashboard(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	d, err := h.svc.Dashboard(c.Request().Context(), sc.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateConsultation(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	var in ConsultationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateConsultation(c.Request().Context(), sc.DoctorID, sc.ClinicID, &in)
	if errors.Is(err, ErrPatientNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetConsultation(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cons, err := h.svc.GetConsultation(c.Request().Context(), sc.DoctorID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListConsultations(c.Request().Context(), sc.DoctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in ConsultationInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cons, err := h.svc.UpdateConsultation(c.Request().Context(), sc.DoctorID, sc.ClinicID, id, &in)
	if errors.Is(err, ErrPatientNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, cons)
}

func (h *Handler) DeleteConsultation(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteConsultation(c.Request().Context(), sc.DoctorID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "consultation not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatientConsultations(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatientConsultations(c.Request().Context(), sc.ClinicID, patientID, pg.Limit, pg.Offset)
	if errors.Is(err, ErrPatientNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	sc, err := h.resolver.Doctor(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPrescriptions(c.Request().Context(), sc.DoctorID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListClinicPrescriptions(c echo.Context) error {
	sc, err := h.resolver.Clinic(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListClinicPrescriptions(c.Request().Context(), sc.ClinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
