package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newTestIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", time.Hour, 24*time.Hour)
}

func TestIssueAndParsePair(t *testing.T) {
	issuer := newTestIssuer()
	userID := uuid.New()

	pair, err := issuer.IssuePair(userID, RoleClinic)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := issuer.Parse(pair.Access)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Errorf("subject = %q, want %q", claims.Subject, userID)
	}
	if claims.Role != RoleClinic {
		t.Errorf("role = %q, want %q", claims.Role, RoleClinic)
	}
	if claims.TokenType != TokenTypeAccess {
		t.Errorf("token_type = %q, want access", claims.TokenType)
	}
	if claims.ID == "" {
		t.Error("expected a JTI")
	}

	refresh, err := issuer.ParseRefresh(pair.Refresh)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if refresh.TokenType != TokenTypeRefresh {
		t.Errorf("token_type = %q, want refresh", refresh.TokenType)
	}
}

func TestParseRefresh_RejectsAccessToken(t *testing.T) {
	issuer := newTestIssuer()
	pair, err := issuer.IssuePair(uuid.New(), RoleDoctor)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.ParseRefresh(pair.Access); err == nil {
		t.Error("expected access token to be rejected")
	}
}

func TestParse_WrongSecret(t *testing.T) {
	pair, err := newTestIssuer().IssuePair(uuid.New(), RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := NewTokenIssuer("different-secret", time.Hour, 24*time.Hour)
	if _, err := other.Parse(pair.Access); err == nil {
		t.Error("expected signature verification to fail")
	}
}

func TestParse_Expired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", -time.Minute, 24*time.Hour)
	pair, err := issuer.IssuePair(uuid.New(), RoleClinic)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := issuer.Parse(pair.Access); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestActingAsClaims(t *testing.T) {
	issuer := newTestIssuer()
	superID := uuid.New()
	clinicUserID := uuid.New()

	pair, err := issuer.IssuePairActingAs(superID, RoleSuperAdmin, RoleClinic, clinicUserID.String())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := issuer.Parse(pair.Access)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Role != RoleSuperAdmin {
		t.Errorf("role = %q, want superadmin", claims.Role)
	}
	if claims.ActingAsRole != RoleClinic || claims.ActingAsUserID != clinicUserID.String() {
		t.Errorf("acting-as = %q/%q", claims.ActingAsRole, claims.ActingAsUserID)
	}

	ctx := context.WithValue(context.Background(), ClaimsKey, claims)
	if got := EffectiveRole(ctx); got != RoleClinic {
		t.Errorf("effective role = %q, want %q", got, RoleClinic)
	}
	if got := EffectiveUserID(ctx); got != clinicUserID.String() {
		t.Errorf("effective user = %q, want %q", got, clinicUserID)
	}
}

func TestEffectiveRole_NonSuperadminIgnoresActingAs(t *testing.T) {
	// A forged acting_as claim on a non-superadmin token must not elevate.
	claims := &Claims{Role: RoleDoctor, ActingAsRole: RoleClinic}
	ctx := context.WithValue(context.Background(), ClaimsKey, claims)
	if got := EffectiveRole(ctx); got != RoleDoctor {
		t.Errorf("effective role = %q, want %q", got, RoleDoctor)
	}
}

// -- Reset Tokens --

func TestResetToken_RoundTrip(t *testing.T) {
	issuer := newTestIssuer()
	userID := uuid.New()
	hash := "$2a$10$fakehash"

	token := issuer.ResetToken(userID, hash, time.Hour)

	claimed, err := ResetTokenUser(token)
	if err != nil {
		t.Fatalf("extract user: %v", err)
	}
	if claimed != userID {
		t.Errorf("claimed user = %s, want %s", claimed, userID)
	}

	verified, err := issuer.VerifyResetToken(token, hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified != userID {
		t.Errorf("verified user = %s, want %s", verified, userID)
	}
}

func TestResetToken_InvalidAfterPasswordChange(t *testing.T) {
	issuer := newTestIssuer()
	token := issuer.ResetToken(uuid.New(), "old-hash", time.Hour)
	if _, err := issuer.VerifyResetToken(token, "new-hash"); err == nil {
		t.Error("expected token keyed to old hash to fail")
	}
}

func TestResetToken_Expired(t *testing.T) {
	issuer := newTestIssuer()
	token := issuer.ResetToken(uuid.New(), "hash", -time.Minute)
	if _, err := issuer.VerifyResetToken(token, "hash"); err == nil {
		t.Error("expected expired reset token to fail")
	}
}

func TestResetToken_Malformed(t *testing.T) {
	issuer := newTestIssuer()
	for _, token := range []string{"", "no-dot", "bad base64!.mac"} {
		if _, err := issuer.VerifyResetToken(token, "hash"); err == nil {
			t.Errorf("expected %q to be rejected", token)
		}
	}
}

// -- Revocation --

func TestRevocationStore(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()

	if store.IsRevoked("jti-1") {
		t.Error("fresh store should have nothing revoked")
	}
	store.Revoke("jti-1", time.Now().Add(time.Hour))
	if !store.IsRevoked("jti-1") {
		t.Error("expected jti-1 to be revoked")
	}
	if store.Count() != 1 {
		t.Errorf("count = %d, want 1", store.Count())
	}
}

func TestRevocationStore_Cleanup(t *testing.T) {
	store := NewTokenRevocationStore()
	defer store.Close()

	store.Revoke("stale", time.Now().Add(-time.Minute))
	store.Revoke("live", time.Now().Add(time.Hour))
	store.cleanup()
	if store.IsRevoked("stale") {
		t.Error("expired entry survived cleanup")
	}
	if !store.IsRevoked("live") {
		t.Error("live entry removed by cleanup")
	}
}

// -- Middleware --

func doAuthedRequest(t *testing.T, issuer *TokenIssuer, revocations *TokenRevocationStore, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := JWTMiddleware(issuer, revocations)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	issuer := newTestIssuer()
	store := NewTokenRevocationStore()
	defer store.Close()

	pair, err := issuer.IssuePair(uuid.New(), RoleClinic)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if rec := doAuthedRequest(t, issuer, store, "Bearer "+pair.Access); rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rec.Code)
	}
	if rec := doAuthedRequest(t, issuer, store, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header: status = %d, want 401", rec.Code)
	}
	if rec := doAuthedRequest(t, issuer, store, "Bearer garbage"); rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", rec.Code)
	}
	if rec := doAuthedRequest(t, issuer, store, "Bearer "+pair.Refresh); rec.Code != http.StatusUnauthorized {
		t.Errorf("refresh token on API: status = %d, want 401", rec.Code)
	}

	claims, _ := issuer.Parse(pair.Access)
	store.Revoke(claims.ID, claims.ExpiresAt.Time)
	if rec := doAuthedRequest(t, issuer, store, "Bearer "+pair.Access); rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked token: status = %d, want 401", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	run := func(role, actingAs string, required ...string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		ctx := context.WithValue(req.Context(), RoleKey, role)
		ctx = context.WithValue(ctx, ClaimsKey, &Claims{Role: role, ActingAsRole: actingAs})
		c.SetRequest(req.WithContext(ctx))

		handler := RequireRole(required...)(func(c echo.Context) error {
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if code := run(RoleClinic, "", RoleClinic); code != http.StatusOK {
		t.Errorf("matching role: status = %d, want 200", code)
	}
	if code := run(RoleDoctor, "", RoleClinic); code != http.StatusForbidden {
		t.Errorf("wrong role: status = %d, want 403", code)
	}
	if code := run(RoleSuperAdmin, "", RoleClinic); code != http.StatusOK {
		t.Errorf("superadmin bypass: status = %d, want 200", code)
	}
	if code := run(RoleSuperAdmin, RoleDoctor, RoleClinic); code != http.StatusOK {
		t.Errorf("panel-switched superadmin: status = %d, want 200", code)
	}
}
