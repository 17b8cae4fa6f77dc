package admin

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vaisagh-mp/clinic-project/internal/domain/accounts"
	"github.com/vaisagh-mp/clinic-project/internal/domain/clinic"
	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
	"github.com/vaisagh-mp/clinic-project/pkg/pagination"
)

// -- Mock Repositories --

type mockUserRepo struct {
	users map[uuid.UUID]*accounts.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*accounts.User)}
}

func (m *mockUserRepo) add(role string, active bool) *accounts.User {
	u := &accounts.User{
		ID:       uuid.New(),
		Username: uuid.NewString()[:8],
		Role:     role,
		IsActive: active,
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, u *accounts.User) error {
	u.ID = uuid.New()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*accounts.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*accounts.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*accounts.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockUserRepo) Update(_ context.Context, u *accounts.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*accounts.User, int, error) {
	var result []*accounts.User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

type mockClinicRepo struct {
	clinics map[uuid.UUID]*clinic.Clinic
}

func newMockClinicRepo() *mockClinicRepo {
	return &mockClinicRepo{clinics: make(map[uuid.UUID]*clinic.Clinic)}
}

func (m *mockClinicRepo) Create(_ context.Context, c *clinic.Clinic) error {
	c.ID = uuid.New()
	m.clinics[c.ID] = c
	return nil
}

func (m *mockClinicRepo) GetByID(_ context.Context, id uuid.UUID) (*clinic.Clinic, error) {
	c, ok := m.clinics[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return c, nil
}

func (m *mockClinicRepo) GetByUser(_ context.Context, userID uuid.UUID) (*clinic.Clinic, error) {
	for _, c := range m.clinics {
		if c.UserID == userID {
			return c, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockClinicRepo) Update(_ context.Context, c *clinic.Clinic) error {
	m.clinics[c.ID] = c
	return nil
}

func (m *mockClinicRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.clinics, id)
	return nil
}

func (m *mockClinicRepo) List(_ context.Context, limit, offset int) ([]*clinic.Clinic, int, error) {
	var result []*clinic.Clinic
	for _, c := range m.clinics {
		result = append(result, c)
	}
	return result, len(result), nil
}

func (m *mockClinicRepo) ListActive(_ context.Context) ([]*clinic.Clinic, error) {
	var result []*clinic.Clinic
	for _, c := range m.clinics {
		if c.Status == clinic.StatusActive {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *mockClinicRepo) Count(_ context.Context) (int, error) {
	return len(m.clinics), nil
}

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*clinic.Doctor
	order   []uuid.UUID
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*clinic.Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *clinic.Doctor) error {
	d.ID = uuid.New()
	m.doctors[d.ID] = d
	m.order = append(m.order, d.ID)
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*clinic.Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return d, nil
}

func (m *mockDoctorRepo) GetByUser(_ context.Context, userID uuid.UUID) (*clinic.Doctor, error) {
	for _, d := range m.doctors {
		if d.UserID == userID {
			return d, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockDoctorRepo) Update(_ context.Context, d *clinic.Doctor) error {
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.doctors, id)
	return nil
}

func (m *mockDoctorRepo) ListByClinic(_ context.Context, clinicID uuid.UUID, limit, offset int) ([]*clinic.Doctor, int, error) {
	return nil, 0, nil
}

func (m *mockDoctorRepo) ListAll(_ context.Context, limit, offset int) ([]*clinic.Doctor, int, error) {
	total := len(m.order)
	var result []*clinic.Doctor
	for i := offset; i < total && i < offset+limit; i++ {
		result = append(result, m.doctors[m.order[i]])
	}
	return result, total, nil
}

func (m *mockDoctorRepo) Count(_ context.Context) (int, error) {
	return len(m.doctors), nil
}

func (m *mockDoctorRepo) CountByClinic(_ context.Context, clinicID uuid.UUID) (int, error) {
	return 0, nil
}

func (m *mockDoctorRepo) ReplaceEducations(_ context.Context, doctorID uuid.UUID, items []*clinic.DoctorEducation) error {
	return nil
}

func (m *mockDoctorRepo) ReplaceCertifications(_ context.Context, doctorID uuid.UUID, items []*clinic.DoctorCertification) error {
	return nil
}

func (m *mockDoctorRepo) GetEducations(_ context.Context, doctorID uuid.UUID) ([]*clinic.DoctorEducation, error) {
	return nil, nil
}

func (m *mockDoctorRepo) GetCertifications(_ context.Context, doctorID uuid.UUID) ([]*clinic.DoctorCertification, error) {
	return nil, nil
}

// -- Test Setup --

type testEnv struct {
	svc     *Service
	users   *mockUserRepo
	clinics *mockClinicRepo
	doctors *mockDoctorRepo
	issuer  *auth.TokenIssuer
	admin   *accounts.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := newMockUserRepo()
	clinics := newMockClinicRepo()
	doctors := newMockDoctorRepo()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	svc := NewService(users, clinics, doctors, issuer)
	return &testEnv{
		svc:     svc,
		users:   users,
		clinics: clinics,
		doctors: doctors,
		issuer:  issuer,
		admin:   users.add(auth.RoleSuperAdmin, true),
	}
}

// -- Switchable Users --

func TestSwitchableUsers(t *testing.T) {
	env := newTestEnv(t)

	clinicUser := env.users.add(auth.RoleClinic, true)
	env.clinics.Create(context.Background(), &clinic.Clinic{
		UserID: clinicUser.ID, Name: "Smile Dental", Status: clinic.StatusActive,
	})
	env.clinics.Create(context.Background(), &clinic.Clinic{
		UserID: env.users.add(auth.RoleClinic, true).ID, Name: "Closed Clinic", Status: clinic.StatusInactive,
	})
	doctorUser := env.users.add(auth.RoleDoctor, true)
	env.doctors.Create(context.Background(), &clinic.Doctor{
		UserID: doctorUser.ID, ClinicID: uuid.New(), Name: "Dr. Rao",
	})

	list, err := env.svc.SwitchableUsers(context.Background(), env.admin.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Self, the active clinic, and the doctor. The inactive clinic is absent.
	if len(list) != 3 {
		t.Fatalf("entries = %d, want 3", len(list))
	}
	if list[0].UserID != env.admin.ID || list[0].Role != auth.RoleSuperAdmin {
		t.Errorf("first entry should be the admin, got %+v", list[0])
	}
	for _, su := range list[1:] {
		if su.Role == auth.RoleClinic && su.Name != "Smile Dental" {
			t.Errorf("unexpected clinic entry %+v", su)
		}
	}
}

func TestSwitchableUsers_ListsAllDoctors(t *testing.T) {
	env := newTestEnv(t)

	n := pagination.MaxLimit + 37
	for i := 0; i < n; i++ {
		doctorUser := env.users.add(auth.RoleDoctor, true)
		env.doctors.Create(context.Background(), &clinic.Doctor{
			UserID: doctorUser.ID, ClinicID: uuid.New(), Name: fmt.Sprintf("Dr. %03d", i),
		})
	}

	list, err := env.svc.SwitchableUsers(context.Background(), env.admin.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Self plus every doctor, beyond a single page.
	if len(list) != n+1 {
		t.Errorf("entries = %d, want %d", len(list), n+1)
	}
}

// -- Switch Panel --

func TestSwitchPanel_ToClinic(t *testing.T) {
	env := newTestEnv(t)
	target := env.users.add(auth.RoleClinic, true)

	res, err := env.svc.SwitchPanel(context.Background(), env.admin.ID, target.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ActingAs != auth.RoleClinic {
		t.Errorf("acting_as = %q, want CLINIC", res.ActingAs)
	}
	if res.RedirectTo != "/clinic-panel/dashboard" {
		t.Errorf("redirect = %q", res.RedirectTo)
	}

	claims, err := env.issuer.Parse(res.Access)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != auth.RoleSuperAdmin {
		t.Errorf("real role = %q, want SUPERADMIN", claims.Role)
	}
	if claims.ActingAsRole != auth.RoleClinic || claims.ActingAsUserID != target.ID.String() {
		t.Errorf("acting-as claims = %q/%q", claims.ActingAsRole, claims.ActingAsUserID)
	}
}

func TestSwitchPanel_BackToSelfClearsClaims(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.svc.SwitchPanel(context.Background(), env.admin.ID, env.admin.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := env.issuer.Parse(res.Access)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ActingAsRole != "" || claims.ActingAsUserID != "" {
		t.Errorf("acting-as claims not cleared: %q/%q", claims.ActingAsRole, claims.ActingAsUserID)
	}
}

func TestSwitchPanel_RejectsAdminTarget(t *testing.T) {
	env := newTestEnv(t)
	target := env.users.add(auth.RoleAdmin, true)
	if _, err := env.svc.SwitchPanel(context.Background(), env.admin.ID, target.ID); err == nil {
		t.Error("expected switching to an admin account to be rejected")
	}
}

func TestSwitchPanel_RejectsDisabledTarget(t *testing.T) {
	env := newTestEnv(t)
	target := env.users.add(auth.RoleClinic, false)
	if _, err := env.svc.SwitchPanel(context.Background(), env.admin.ID, target.ID); err == nil {
		t.Error("expected switching to a disabled account to be rejected")
	}
}

func TestSwitchPanel_UnknownTarget(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.SwitchPanel(context.Background(), env.admin.ID, uuid.New()); err == nil {
		t.Error("expected error for unknown target")
	}
}
