package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
	"github.com/vaisagh-mp/clinic-project/internal/platform/mail"
)

// ErrNotFound is returned when a user lookup finds no row.
var ErrNotFound = errors.New("user not found")

// ErrInvalidCredentials is returned on bad username/password combinations.
var ErrInvalidCredentials = errors.New("invalid username or password")

type Service struct {
	users       UserRepository
	issuer      *auth.TokenIssuer
	revocations *auth.TokenRevocationStore
	mailer      mail.EmailSender
	templates   *mail.Registry
	logger      zerolog.Logger

	resetTTL        time.Duration
	frontendBaseURL string
}

func NewService(users UserRepository, issuer *auth.TokenIssuer, revocations *auth.TokenRevocationStore,
	mailer mail.EmailSender, templates *mail.Registry, logger zerolog.Logger,
	resetTTL time.Duration, frontendBaseURL string) *Service {
	return &Service{
		users:           users,
		issuer:          issuer,
		revocations:     revocations,
		mailer:          mailer,
		templates:       templates,
		logger:          logger,
		resetTTL:        resetTTL,
		frontendBaseURL: frontendBaseURL,
	}
}

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
}

// Register creates a user account. Superadmin and admin roles get the staff
// and superuser flags; everyone else gets neither.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if in.Username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if in.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if in.Password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if in.Password != in.ConfirmPassword {
		return nil, fmt.Errorf("passwords do not match")
	}
	if !ValidRole(in.Role) {
		return nil, fmt.Errorf("invalid role: %s", in.Role)
	}

	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return nil, fmt.Errorf("username already taken")
	}
	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	elevated := in.Role == auth.RoleSuperAdmin || in.Role == auth.RoleAdmin
	u := &User{
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		Role:         in.Role,
		IsStaff:      elevated,
		IsSuperuser:  elevated,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.sendMail(ctx, u.Email, "account-welcome", map[string]string{
		"name":       u.FullName(),
		"username":   u.Username,
		"login_link": s.frontendBaseURL + "/login",
	})

	return u, nil
}

// LoginResult is the payload returned on successful login.
type LoginResult struct {
	Access     string `json:"access"`
	Refresh    string `json:"refresh"`
	User       *User  `json:"user"`
	RedirectTo string `json:"redirect_to"`
}

func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuer.IssuePair(u.ID, u.Role)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Access:     pair.Access,
		Refresh:    pair.Refresh,
		User:       u,
		RedirectTo: RedirectPath(u.Role),
	}, nil
}

// Logout revokes the refresh token's JTI until its natural expiry.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return fmt.Errorf("invalid refresh token")
	}
	expiresAt := time.Now().Add(24 * time.Hour)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	s.revocations.Revoke(claims.ID, expiresAt)
	return nil
}

// Refresh exchanges a valid, unrevoked refresh token for a new token pair.
// Acting-as claims carry over so a switched superadmin stays switched.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.issuer.ParseRefresh(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}
	if s.revocations.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("refresh token has been revoked")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}
	if !u.IsActive {
		return nil, fmt.Errorf("account is disabled")
	}

	pair, err := s.issuer.IssuePairActingAs(u.ID, u.Role, claims.ActingAsRole, claims.ActingAsUserID)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// ForgotPassword emails a reset link to the account's address.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return ErrNotFound
	}

	token := s.issuer.ResetToken(u.ID, u.PasswordHash, s.resetTTL)
	s.sendMail(ctx, u.Email, "password-reset", map[string]string{
		"reset_link": s.frontendBaseURL + "/reset-password?token=" + token,
	})
	return nil
}

// ResetPassword sets a new password from a reset token. The token is keyed
// to the current password hash, so it single-uses itself.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	userID, err := auth.ResetTokenUser(token)
	if err != nil {
		return fmt.Errorf("invalid reset token")
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return ErrNotFound
	}
	if _, err := s.issuer.VerifyResetToken(token, u.PasswordHash); err != nil {
		return fmt.Errorf("invalid or expired reset token")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// Profile returns the account for the authenticated user.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// sendMail renders and sends a template, logging failures instead of
// surfacing them: account flows should not fail because the relay is down.
func (s *Service) sendMail(ctx context.Context, to, templateID string, data map[string]string) {
	if s.mailer == nil || s.templates == nil {
		return
	}
	subject, body, err := s.templates.Render(templateID, data)
	if err != nil {
		s.logger.Error().Err(err).Str("template", templateID).Msg("render mail template")
		return
	}
	if err := s.mailer.SendEmail(ctx, to, subject, body); err != nil {
		s.logger.Error().Err(err).Str("to", to).Str("template", templateID).Msg("send mail")
	}
}
