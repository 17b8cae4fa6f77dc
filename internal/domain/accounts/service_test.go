package accounts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
	"github.com/vaisagh-mp/clinic-project/internal/platform/mail"
)

// -- Mock Repositories --

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = uuid.New()
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return u, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	u.PasswordHash = passwordHash
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, len(result), nil
}

type capturingSender struct {
	sent []string // recipient addresses in send order
}

func (c *capturingSender) SendEmail(_ context.Context, to, subject, body string) error {
	c.sent = append(c.sent, to)
	return nil
}

// -- Test Setup --

type testEnv struct {
	svc    *Service
	users  *mockUserRepo
	issuer *auth.TokenIssuer
	store  *auth.TokenRevocationStore
	sender *capturingSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	users := newMockUserRepo()
	issuer := auth.NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
	store := auth.NewTokenRevocationStore()
	t.Cleanup(store.Close)
	sender := &capturingSender{}
	svc := NewService(users, issuer, store, sender, mail.NewRegistry(),
		zerolog.Nop(), time.Hour, "http://localhost:3000")
	return &testEnv{svc: svc, users: users, issuer: issuer, store: store, sender: sender}
}

func (e *testEnv) register(t *testing.T, username, email, role string) *User {
	t.Helper()
	u, err := e.svc.Register(context.Background(), RegisterInput{
		Username:        username,
		Email:           email,
		Password:        "secret123",
		ConfirmPassword: "secret123",
		Role:            role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u
}

// -- Register --

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "drsmith", "Smith@Example.com", auth.RoleDoctor)

	if u.Email != "smith@example.com" {
		t.Errorf("email = %q, want lowercased", u.Email)
	}
	if !u.IsActive {
		t.Error("new account should be active")
	}
	if u.IsStaff || u.IsSuperuser {
		t.Error("doctor should not get staff flags")
	}
	if len(env.sender.sent) != 1 || env.sender.sent[0] != "smith@example.com" {
		t.Errorf("welcome mail not sent: %v", env.sender.sent)
	}
}

func TestRegister_ElevatedRolesGetStaffFlags(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "root", "root@example.com", auth.RoleSuperAdmin)
	if !u.IsStaff || !u.IsSuperuser {
		t.Error("superadmin should get staff and superuser flags")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "drsmith", "one@example.com", auth.RoleDoctor)
	_, err := env.svc.Register(context.Background(), RegisterInput{
		Username: "drsmith", Email: "two@example.com",
		Password: "x", ConfirmPassword: "x", Role: auth.RoleDoctor,
	})
	if err == nil {
		t.Error("expected duplicate username to be rejected")
	}
}

func TestRegister_PasswordMismatch(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Register(context.Background(), RegisterInput{
		Username: "u", Email: "u@example.com",
		Password: "a", ConfirmPassword: "b", Role: auth.RoleDoctor,
	})
	if err == nil {
		t.Error("expected mismatched passwords to be rejected")
	}
}

func TestRegister_InvalidRole(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Register(context.Background(), RegisterInput{
		Username: "u", Email: "u@example.com",
		Password: "x", ConfirmPassword: "x", Role: "WIZARD",
	})
	if err == nil {
		t.Error("expected invalid role to be rejected")
	}
}

// -- Login --

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)

	res, err := env.svc.Login(context.Background(), "clinicuser", "secret123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RedirectTo != "/clinic-panel/dashboard" {
		t.Errorf("redirect = %q", res.RedirectTo)
	}
	claims, err := env.issuer.Parse(res.Access)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.Role != auth.RoleClinic {
		t.Errorf("token role = %q", claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)
	if _, err := env.svc.Login(context.Background(), "clinicuser", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.svc.Login(context.Background(), "ghost", "x"); err != ErrInvalidCredentials {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)
	u.IsActive = false
	if _, err := env.svc.Login(context.Background(), "clinicuser", "secret123"); err == nil {
		t.Error("expected disabled account to be rejected")
	}
}

// -- Refresh and Logout --

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)
	res, err := env.svc.Login(context.Background(), "clinicuser", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := env.svc.Refresh(context.Background(), res.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := env.issuer.Parse(pair.Access); err != nil {
		t.Errorf("new access token invalid: %v", err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)
	res, _ := env.svc.Login(context.Background(), "clinicuser", "secret123")
	if _, err := env.svc.Refresh(context.Background(), res.Access); err == nil {
		t.Error("expected access token to be rejected")
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)
	res, _ := env.svc.Login(context.Background(), "clinicuser", "secret123")

	if err := env.svc.Logout(context.Background(), res.Refresh); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.svc.Refresh(context.Background(), res.Refresh); err == nil {
		t.Error("expected revoked refresh token to be rejected")
	}
}

func TestRefresh_CarriesActingAsClaims(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "root", "root@example.com", auth.RoleSuperAdmin)

	pair, err := env.issuer.IssuePairActingAs(u.ID, auth.RoleSuperAdmin, auth.RoleClinic, uuid.NewString())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	fresh, err := env.svc.Refresh(context.Background(), pair.Refresh)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := env.issuer.Parse(fresh.Access)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ActingAsRole != auth.RoleClinic {
		t.Errorf("acting_as_role = %q, want %q", claims.ActingAsRole, auth.RoleClinic)
	}
}

// -- Password Reset --

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)

	if err := env.svc.ForgotPassword(context.Background(), "C@Example.com"); err != nil {
		t.Fatalf("forgot: %v", err)
	}

	token := env.issuer.ResetToken(u.ID, u.PasswordHash, time.Hour)
	if err := env.svc.ResetPassword(context.Background(), token, "newpass456", "newpass456"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, err := env.svc.Login(context.Background(), "clinicuser", "secret123"); err == nil {
		t.Error("old password still accepted")
	}
	if _, err := env.svc.Login(context.Background(), "clinicuser", "newpass456"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	// The token was keyed to the old hash, so it cannot be replayed.
	if err := env.svc.ResetPassword(context.Background(), token, "another", "another"); err == nil {
		t.Error("expected used reset token to be rejected")
	}
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	env := newTestEnv(t)
	if err := env.svc.ForgotPassword(context.Background(), "ghost@example.com"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "clinicuser", "c@example.com", auth.RoleClinic)
	got, err := env.svc.Profile(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Username != "clinicuser" {
		t.Errorf("username = %q", got.Username)
	}
}
