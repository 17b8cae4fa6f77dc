package scope

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
)

type mockDirectory struct {
	clinics       map[uuid.UUID]bool
	clinicsByUser map[uuid.UUID]uuid.UUID
	doctorsByUser map[uuid.UUID][2]uuid.UUID // userID -> doctorID, clinicID
	doctorClinics map[uuid.UUID]uuid.UUID
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		clinics:       make(map[uuid.UUID]bool),
		clinicsByUser: make(map[uuid.UUID]uuid.UUID),
		doctorsByUser: make(map[uuid.UUID][2]uuid.UUID),
		doctorClinics: make(map[uuid.UUID]uuid.UUID),
	}
}

func (m *mockDirectory) ClinicExists(_ context.Context, clinicID uuid.UUID) (bool, error) {
	return m.clinics[clinicID], nil
}

func (m *mockDirectory) ClinicIDByUser(_ context.Context, userID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.clinicsByUser[userID]
	if !ok {
		return uuid.Nil, fmt.Errorf("not found")
	}
	return id, nil
}

func (m *mockDirectory) DoctorByUser(_ context.Context, userID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	ids, ok := m.doctorsByUser[userID]
	if !ok {
		return uuid.Nil, uuid.Nil, fmt.Errorf("not found")
	}
	return ids[0], ids[1], nil
}

func (m *mockDirectory) DoctorClinic(_ context.Context, doctorID uuid.UUID) (uuid.UUID, error) {
	id, ok := m.doctorClinics[doctorID]
	if !ok {
		return uuid.Nil, fmt.Errorf("not found")
	}
	return id, nil
}

func newCtx(role string, userID uuid.UUID, query string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ctx := context.WithValue(req.Context(), auth.RoleKey, role)
	ctx = context.WithValue(ctx, auth.UserIDKey, userID.String())
	c.SetRequest(req.WithContext(ctx))
	return c
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func TestClinic_ClinicUser(t *testing.T) {
	dir := newMockDirectory()
	userID := uuid.New()
	clinicID := uuid.New()
	dir.clinicsByUser[userID] = clinicID

	s, err := NewResolver(dir).Clinic(newCtx(auth.RoleClinic, userID, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ClinicID != clinicID {
		t.Errorf("clinic = %s, want %s", s.ClinicID, clinicID)
	}
}

func TestClinic_ClinicUserWithoutProfile(t *testing.T) {
	_, err := NewResolver(newMockDirectory()).Clinic(newCtx(auth.RoleClinic, uuid.New(), ""))
	if httpStatus(t, err) != http.StatusForbidden {
		t.Errorf("status = %d, want 403", httpStatus(t, err))
	}
}

func TestClinic_DoctorResolvesOwnClinic(t *testing.T) {
	dir := newMockDirectory()
	userID := uuid.New()
	doctorID := uuid.New()
	clinicID := uuid.New()
	dir.doctorsByUser[userID] = [2]uuid.UUID{doctorID, clinicID}

	s, err := NewResolver(dir).Clinic(newCtx(auth.RoleDoctor, userID, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ClinicID != clinicID || s.DoctorID != doctorID {
		t.Errorf("scope = %+v", s)
	}
}

func TestClinic_AdminRequiresExplicitClinicID(t *testing.T) {
	r := NewResolver(newMockDirectory())
	for _, role := range []string{auth.RoleSuperAdmin, auth.RoleAdmin} {
		_, err := r.Clinic(newCtx(role, uuid.New(), ""))
		if httpStatus(t, err) != http.StatusBadRequest {
			t.Errorf("%s without clinic_id: status = %d, want 400", role, httpStatus(t, err))
		}
	}
}

func TestClinic_AdminWithExplicitClinicID(t *testing.T) {
	dir := newMockDirectory()
	clinicID := uuid.New()
	dir.clinics[clinicID] = true

	s, err := NewResolver(dir).Clinic(
		newCtx(auth.RoleSuperAdmin, uuid.New(), "clinic_id="+clinicID.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ClinicID != clinicID {
		t.Errorf("clinic = %s, want %s", s.ClinicID, clinicID)
	}
}

func TestClinic_AdminWithUnknownClinicID(t *testing.T) {
	r := NewResolver(newMockDirectory())
	for _, role := range []string{auth.RoleSuperAdmin, auth.RoleAdmin} {
		_, err := r.Clinic(newCtx(role, uuid.New(), "clinic_id="+uuid.NewString()))
		if httpStatus(t, err) != http.StatusNotFound {
			t.Errorf("%s with unknown clinic_id: status = %d, want 404", role, httpStatus(t, err))
		}
	}
}

func TestClinic_AdminWithBadClinicID(t *testing.T) {
	_, err := NewResolver(newMockDirectory()).Clinic(
		newCtx(auth.RoleAdmin, uuid.New(), "clinic_id=not-a-uuid"))
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", httpStatus(t, err))
	}
}

func TestDoctor_DoctorUser(t *testing.T) {
	dir := newMockDirectory()
	userID := uuid.New()
	doctorID := uuid.New()
	clinicID := uuid.New()
	dir.doctorsByUser[userID] = [2]uuid.UUID{doctorID, clinicID}

	s, err := NewResolver(dir).Doctor(newCtx(auth.RoleDoctor, userID, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DoctorID != doctorID || s.ClinicID != clinicID {
		t.Errorf("scope = %+v", s)
	}
}

func TestDoctor_AdminRequiresExplicitDoctorID(t *testing.T) {
	_, err := NewResolver(newMockDirectory()).Doctor(newCtx(auth.RoleSuperAdmin, uuid.New(), ""))
	if httpStatus(t, err) != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", httpStatus(t, err))
	}
}

func TestDoctor_AdminWithExplicitDoctorID(t *testing.T) {
	dir := newMockDirectory()
	doctorID := uuid.New()
	clinicID := uuid.New()
	dir.doctorClinics[doctorID] = clinicID

	s, err := NewResolver(dir).Doctor(
		newCtx(auth.RoleSuperAdmin, uuid.New(), "doctor_id="+doctorID.String()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.DoctorID != doctorID || s.ClinicID != clinicID {
		t.Errorf("scope = %+v", s)
	}
}

func TestDoctor_UnknownDoctorID(t *testing.T) {
	_, err := NewResolver(newMockDirectory()).Doctor(
		newCtx(auth.RoleAdmin, uuid.New(), "doctor_id="+uuid.NewString()))
	if httpStatus(t, err) != http.StatusNotFound {
		t.Errorf("status = %d, want 404", httpStatus(t, err))
	}
}

func TestDoctor_ClinicUserForbidden(t *testing.T) {
	_, err := NewResolver(newMockDirectory()).Doctor(newCtx(auth.RoleClinic, uuid.New(), ""))
	if httpStatus(t, err) != http.StatusForbidden {
		t.Errorf("status = %d, want 403", httpStatus(t, err))
	}
}

func TestClinic_Unauthenticated(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	_, err := NewResolver(newMockDirectory()).Clinic(c)
	if httpStatus(t, err) != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", httpStatus(t, err))
	}
}

func TestClinic_PanelSwitchedSuperadmin(t *testing.T) {
	dir := newMockDirectory()
	clinicUserID := uuid.New()
	clinicID := uuid.New()
	dir.clinicsByUser[clinicUserID] = clinicID

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	claims := &auth.Claims{
		Role:           auth.RoleSuperAdmin,
		ActingAsRole:   auth.RoleClinic,
		ActingAsUserID: clinicUserID.String(),
	}
	ctx := context.WithValue(req.Context(), auth.ClaimsKey, claims)
	c.SetRequest(req.WithContext(ctx))

	s, err := NewResolver(dir).Clinic(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ClinicID != clinicID {
		t.Errorf("clinic = %s, want %s", s.ClinicID, clinicID)
	}
	if s.Role != auth.RoleClinic {
		t.Errorf("role = %q, want %q", s.Role, auth.RoleClinic)
	}
}
