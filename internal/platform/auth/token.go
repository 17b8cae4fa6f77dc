package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token types carried in the token_type claim. Access tokens authenticate
// API requests; refresh tokens are only accepted by the refresh and logout
// endpoints.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Roles recognised across the API.
const (
	RoleSuperAdmin = "SUPERADMIN"
	RoleAdmin      = "ADMIN"
	RoleClinic     = "CLINIC"
	RoleDoctor     = "DOCTOR"
)

type Claims struct {
	jwt.RegisteredClaims
	TokenType      string `json:"token_type"`
	Role           string `json:"role"`
	ActingAsRole   string `json:"acting_as_role,omitempty"`
	ActingAsUserID string `json:"acting_as_user_id,omitempty"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenIssuer signs and verifies HS256 tokens for the API. Every token gets
// a unique JTI so individual tokens can be revoked on logout.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (i *TokenIssuer) sign(userID uuid.UUID, role, tokenType string, ttl time.Duration, actingRole, actingUserID string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenType:      tokenType,
		Role:           role,
		ActingAsRole:   actingRole,
		ActingAsUserID: actingUserID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// IssuePair issues an access/refresh token pair without acting-as claims.
func (i *TokenIssuer) IssuePair(userID uuid.UUID, role string) (TokenPair, error) {
	return i.IssuePairActingAs(userID, role, "", "")
}

// IssuePairActingAs issues a token pair carrying acting-as claims, used when
// a superadmin switches into a clinic or doctor panel.
func (i *TokenIssuer) IssuePairActingAs(userID uuid.UUID, role, actingRole, actingUserID string) (TokenPair, error) {
	access, err := i.sign(userID, role, TokenTypeAccess, i.accessTTL, actingRole, actingUserID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := i.sign(userID, role, TokenTypeRefresh, i.refreshTTL, actingRole, actingUserID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// Parse verifies the signature and expiry of a token and returns its claims.
// Callers must still check TokenType and revocation.
func (i *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// ParseRefresh verifies a refresh token specifically.
func (i *TokenIssuer) ParseRefresh(tokenStr string) (*Claims, error) {
	claims, err := i.Parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return nil, fmt.Errorf("not a refresh token")
	}
	return claims, nil
}

// ResetToken builds a stateless password reset token for a user. The MAC is
// keyed with the signing secret and includes the current password hash, so a
// token stops verifying as soon as the password changes.
func (i *TokenIssuer) ResetToken(userID uuid.UUID, passwordHash string, ttl time.Duration) string {
	expiry := time.Now().Add(ttl).Unix()
	payload := fmt.Sprintf("%s|%d", userID, expiry)
	mac := i.resetMAC(payload, passwordHash)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + mac
}

// VerifyResetToken checks a reset token against the user's current password
// hash and returns the user ID it was issued for.
func (i *TokenIssuer) VerifyResetToken(token, passwordHash string) (uuid.UUID, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}
	payload := string(payloadBytes)

	expected := i.resetMAC(payload, passwordHash)
	if !hmac.Equal([]byte(expected), []byte(parts[1])) {
		return uuid.Nil, fmt.Errorf("invalid reset token")
	}

	fields := strings.SplitN(payload, "|", 2)
	if len(fields) != 2 {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}

	expiry, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}
	if time.Now().Unix() > expiry {
		return uuid.Nil, fmt.Errorf("reset token expired")
	}

	userID, err := uuid.Parse(fields[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}
	return userID, nil
}

// ResetTokenUser extracts the user ID a reset token claims to belong to,
// without verifying the MAC. Callers look the user up and then verify with
// VerifyResetToken against that user's password hash.
func ResetTokenUser(token string) (uuid.UUID, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}
	fields := strings.SplitN(string(payloadBytes), "|", 2)
	userID, err := uuid.Parse(fields[0])
	if err != nil {
		return uuid.Nil, fmt.Errorf("malformed reset token")
	}
	return userID, nil
}

func (i *TokenIssuer) resetMAC(payload, passwordHash string) string {
	h := hmac.New(sha256.New, i.secret)
	h.Write([]byte(payload))
	h.Write([]byte(passwordHash))
	return hex.EncodeToString(h.Sum(nil))
}
