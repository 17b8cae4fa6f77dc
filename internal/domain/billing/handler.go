package billing

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

// RegisterRoutes mounts the billing endpoints. Catalog routes are shared;
// the four bill types get admin-panel and clinic-panel variants. Admin
// callers always pass clinic_id explicitly.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	catalog := g.Group("", auth.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleClinic))
	catalog.GET("/medicines", h.ListMedicines)
	catalog.POST("/medicines", h.CreateMedicine)
	catalog.GET("/medicines/:id", h.GetMedicine)
	catalog.PUT("/medicines/:id", h.UpdateMedicine)
	catalog.DELETE("/medicines/:id", h.DeleteMedicine)
	catalog.GET("/procedures", h.ListProcedures)
	catalog.POST("/procedures", h.CreateProcedure)
	catalog.GET("/procedures/:id", h.GetProcedure)
	catalog.PUT("/procedures/:id", h.UpdateProcedure)
	catalog.DELETE("/procedures/:id", h.DeleteProcedure)
	catalog.GET("/patients/:id/pharmacy-bills", h.ListPatientPharmacyBills)

	admin := g.Group("/admin", auth.RequireRole(auth.RoleSuperAdmin, auth.RoleAdmin))
	clinic := g.Group("/clinic", auth.RequireRole(auth.RoleClinic))
	for _, grp := range []*echo.Group{admin, clinic} {
		grp.GET("/material-purchase", h.ListMaterialBills)
		grp.POST("/material-purchase", h.CreateMaterialBill)
		grp.GET("/material-purchase/:id", h.GetMaterialBill)
		grp.PUT("/material-purchase/:id", h.UpdateMaterialBill)
		grp.DELETE("/material-purchase/:id", h.DeleteMaterialBill)

		grp.GET("/clinic-bills", h.ListClinicBills)
		grp.POST("/clinic-bills", h.CreateClinicBill)
		grp.GET("/clinic-bills/:id", h.GetClinicBill)
		grp.PUT("/clinic-bills/:id", h.UpdateClinicBill)
		grp.DELETE("/clinic-bills/:id", h.DeleteClinicBill)

		grp.GET("/lab-bills", h.ListLabBills)
		grp.POST("/lab-bills", h.CreateLabBill)
		grp.GET("/lab-bills/:id", h.GetLabBill)
		grp.PUT("/lab-bills/:id", h.UpdateLabBill)
		grp.DELETE("/lab-bills/:id", h.DeleteLabBill)

		grp.GET("/pharmacy-bills", h.ListPharmacyBills)
		grp.POST("/pharmacy-bills", h.CreatePharmacyBill)
		grp.GET("/pharmacy-bills/:id", h.GetPharmacyBill)
		grp.PUT("/pharmacy-bills/:id", h.UpdatePharmacyBill)
		grp.DELETE("/pharmacy-bills/:id", h.DeletePharmacyBill)

		grp.POST("/procedure-payments", h.CreatePayment)
		grp.GET("/pharmacy-bill-items/:id/payments", h.ListPayments)
	}
}

func (h *Handler) clinicScope(c echo.Context) (uuid.UUID, error) {
	sc, err := h.resolver.Clinic(c)
	if err != nil {
		return uuid.Nil, err
	}
	return sc.ClinicID, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// -- Medicines --

func (h *Handler) CreateMedicine(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	var m Medicine
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateMedicine(c.Request().Context(), clinicID, &m)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetMedicine(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	m, err := h.svc.GetMedicine(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "medicine not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListMedicines(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMedicines(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Medicine
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.UpdateMedicine(c.Request().Context(), clinicID, id, &in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedicine(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMedicine(c.Request().Context(), clinicID, id); err != nil {
		if errors.Is(err, ErrInUse) {
			return echo.NewHTTPError(http.StatusConflict, "medicine is referenced by pharmacy bills")
		}
		return echo.NewHTTPError(http.StatusNotFound, "medicine not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Procedures --

func (h *Handler) CreateProcedure(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	var p Procedure
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	created, err := h.svc.CreateProcedure(c.Request().Context(), clinicID, &p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetProcedure(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetProcedure(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProcedures(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListProcedures(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateProcedure(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in Procedure
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.UpdateProcedure(c.Request().Context(), clinicID, id, &in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProcedure(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteProcedure(c.Request().Context(), clinicID, id); err != nil {
		if errors.Is(err, ErrInUse) {
			return echo.NewHTTPError(http.StatusConflict, "procedure is referenced by pharmacy bills")
		}
		return echo.NewHTTPError(http.StatusNotFound, "procedure not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Material purchase bills --

func (h *Handler) CreateMaterialBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	var in MaterialBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.CreateMaterialBill(c.Request().Context(), clinicID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetMaterialBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.GetMaterialBill(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListMaterialBills(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListMaterialBills(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateMaterialBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in MaterialBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.UpdateMaterialBill(c.Request().Context(), clinicID, id, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteMaterialBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMaterialBill(c.Request().Context(), clinicID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Clinic bills --

func (h *Handler) CreateClinicBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	var in ClinicBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.CreateClinicBill(c.Request().Context(), clinicID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetClinicBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.GetClinicBill(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListClinicBills(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListClinicBills(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateClinicBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in ClinicBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.UpdateClinicBill(c.Request().Context(), clinicID, id, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteClinicBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteClinicBill(c.Request().Context(), clinicID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Lab bills --

func (h *Handler) CreateLabBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	var in LabBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.CreateLabBill(c.Request().Context(), clinicID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetLabBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.GetLabBill(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListLabBills(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListLabBills(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateLabBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in LabBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.UpdateLabBill(c.Request().Context(), clinicID, id, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeleteLabBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteLabBill(c.Request().Context(), clinicID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Pharmacy bills --

func (h *Handler) CreatePharmacyBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	var in PharmacyBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.CreatePharmacyBill(c.Request().Context(), clinicID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) GetPharmacyBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	b, err := h.svc.GetPharmacyBill(c.Request().Context(), clinicID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) ListPharmacyBills(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPharmacyBills(c.Request().Context(), clinicID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePharmacyBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var in PharmacyBillInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b, err := h.svc.UpdatePharmacyBill(c.Request().Context(), clinicID, id, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, b)
}

func (h *Handler) DeletePharmacyBill(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePharmacyBill(c.Request().Context(), clinicID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "bill not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListPatientPharmacyBills(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	patientID, err := parseID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatientPharmacyBills(c.Request().Context(), clinicID, patientID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// -- Procedure payments --

func (h *Handler) CreatePayment(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	var in PaymentInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CreatePayment(c.Request().Context(), clinicID, in)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPayments(c echo.Context) error {
	clinicID, err := h.clinicScope(c)
	if err != nil {
		return err
	}
	itemID, err := parseID(c)
	if err != nil {
		return err
	}
	payments, err := h.svc.ListPayments(c.Request().Context(), clinicID, itemID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return c.JSON(http.StatusOK, payments)
}
