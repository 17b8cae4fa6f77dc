// Package scope resolves which clinic and doctor a request may operate on.
// Every panel endpoint goes through one resolver so the rules live in a
// single place: clinic users reach their own clinic, doctors reach their
// profile's clinic, and a superadmin must either switch panels or name the
// clinic or doctor explicitly. There is no silent fallback.
package scope

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
)

// Scope is the resolved tenancy for a request. DoctorID is uuid.Nil unless
// the request was resolved through a doctor.
type Scope struct {
	Role     string
	UserID   uuid.UUID
	ClinicID uuid.UUID
	DoctorID uuid.UUID
}

// Directory looks up clinic and doctor profiles by owning user. Implemented
// by the clinic domain repositories.
type Directory interface {
	ClinicIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
	ClinicExists(ctx context.Context, clinicID uuid.UUID) (bool, error)
	DoctorByUser(ctx context.Context, userID uuid.UUID) (doctorID, clinicID uuid.UUID, err error)
	DoctorClinic(ctx context.Context, doctorID uuid.UUID) (uuid.UUID, error)
}

type Resolver struct {
	dir Directory
}

func NewResolver(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Clinic resolves the clinic a request is scoped to. Accepts clinic users,
// doctors, and superadmins; superadmins without an acting-as claim must pass
// an explicit clinic_id query parameter.
func (r *Resolver) Clinic(c echo.Context) (Scope, error) {
	ctx := c.Request().Context()
	s, err := r.base(ctx)
	if err != nil {
		return Scope{}, err
	}

	switch s.Role {
	case auth.RoleClinic:
		clinicID, err := r.dir.ClinicIDByUser(ctx, s.UserID)
		if err != nil {
			return Scope{}, echo.NewHTTPError(http.StatusForbidden, "no clinic profile for this account")
		}
		s.ClinicID = clinicID
		return s, nil

	case auth.RoleDoctor:
		doctorID, clinicID, err := r.dir.DoctorByUser(ctx, s.UserID)
		if err != nil {
			return Scope{}, echo.NewHTTPError(http.StatusForbidden, "no doctor profile for this account")
		}
		s.DoctorID = doctorID
		s.ClinicID = clinicID
		return s, nil

	case auth.RoleSuperAdmin, auth.RoleAdmin:
		return r.explicitClinic(c, s)

	default:
		return Scope{}, echo.NewHTTPError(http.StatusForbidden, "role cannot access clinic resources")
	}
}

// Doctor resolves the doctor a request is scoped to. Accepts doctors and
// superadmins; superadmins without an acting-as claim must pass an explicit
// doctor_id query parameter.
func (r *Resolver) Doctor(c echo.Context) (Scope, error) {
	ctx := c.Request().Context()
	s, err := r.base(ctx)
	if err != nil {
		return Scope{}, err
	}

	switch s.Role {
	case auth.RoleDoctor:
		doctorID, clinicID, err := r.dir.DoctorByUser(ctx, s.UserID)
		if err != nil {
			return Scope{}, echo.NewHTTPError(http.StatusForbidden, "no doctor profile for this account")
		}
		s.DoctorID = doctorID
		s.ClinicID = clinicID
		return s, nil

	case auth.RoleSuperAdmin, auth.RoleAdmin:
		raw := c.QueryParam("doctor_id")
		if raw == "" {
			return Scope{}, echo.NewHTTPError(http.StatusBadRequest, "doctor_id query parameter is required for admin access")
		}
		doctorID, err := uuid.Parse(raw)
		if err != nil {
			return Scope{}, echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
		}
		clinicID, err := r.dir.DoctorClinic(ctx, doctorID)
		if err != nil {
			return Scope{}, echo.NewHTTPError(http.StatusNotFound, "doctor not found")
		}
		s.DoctorID = doctorID
		s.ClinicID = clinicID
		return s, nil

	default:
		return Scope{}, echo.NewHTTPError(http.StatusForbidden, "role cannot access doctor resources")
	}
}

// base reads the effective identity off the request context. A superadmin
// who has switched panels is resolved as the acted-as role and user.
func (r *Resolver) base(ctx context.Context) (Scope, error) {
	role := auth.EffectiveRole(ctx)
	rawID := auth.EffectiveUserID(ctx)
	if role == "" || rawID == "" {
		return Scope{}, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return Scope{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}

	return Scope{Role: role, UserID: userID}, nil
}

func (r *Resolver) explicitClinic(c echo.Context, s Scope) (Scope, error) {
	raw := c.QueryParam("clinic_id")
	if raw == "" {
		return Scope{}, echo.NewHTTPError(http.StatusBadRequest, "clinic_id query parameter is required for admin access")
	}
	clinicID, err := uuid.Parse(raw)
	if err != nil {
		return Scope{}, echo.NewHTTPError(http.StatusBadRequest, "invalid clinic_id")
	}
	ok, err := r.dir.ClinicExists(c.Request().Context(), clinicID)
	if err != nil || !ok {
		return Scope{}, echo.NewHTTPError(http.StatusNotFound, "clinic not found")
	}
	s.ClinicID = clinicID
	return s, nil
}
