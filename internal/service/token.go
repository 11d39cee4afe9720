package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// ErrInvalidToken indicates a token failed signature or claim verification.
var ErrInvalidToken = errors.New("invalid token")

const (
	tokenPurposeAccess  = "access"
	tokenPurposeRefresh = "refresh"
	tokenPurposeReset   = "password_reset"
)

// TokenClaims are the JWT claims carried by every EduTrack token.
type TokenClaims struct {
	Role     string `json:"role"`
	SchoolID uint   `json:"school_id,omitempty"`
	TokenID  string `json:"token_id,omitempty"`
	Purpose  string `json:"purpose"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a user id.
func (c TokenClaims) UserID() (uint, error) {
	parsed, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(parsed), nil
}

// TokenManager signs and verifies access, refresh and reset tokens.
// Access tokens are short-lived; refresh tokens are backed by a revocable
// DeviceToken row identified by the token_id claim.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	resetTTL      time.Duration
	now           func() time.Time
}

// NewTokenManager builds a TokenManager with the given secrets and TTLs.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL, resetTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		resetTTL:      resetTTL,
		now:           time.Now,
	}
}

// AccessTTL exposes the configured access token lifetime.
func (m *TokenManager) AccessTTL() time.Duration {
	return m.accessTTL
}

// RefreshTTL exposes the configured refresh token lifetime.
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// IssueAccessToken signs a short-lived access token for the user.
func (m *TokenManager) IssueAccessToken(user models.User, schoolID uint) (string, error) {
	return m.sign(m.accessSecret, user, schoolID, "", tokenPurposeAccess, m.accessTTL)
}

// IssueRefreshToken signs a refresh token bound to the given device token id.
func (m *TokenManager) IssueRefreshToken(user models.User, schoolID uint, tokenID string) (string, error) {
	return m.sign(m.refreshSecret, user, schoolID, tokenID, tokenPurposeRefresh, m.refreshTTL)
}

// IssueResetToken signs a time-boxed password reset token.
func (m *TokenManager) IssueResetToken(user models.User) (string, error) {
	return m.sign(m.refreshSecret, user, 0, "", tokenPurposeReset, m.resetTTL)
}

// ParseAccessToken verifies an access token and returns its claims.
func (m *TokenManager) ParseAccessToken(token string) (TokenClaims, error) {
	return m.parse(m.accessSecret, token, tokenPurposeAccess)
}

// ParseRefreshToken verifies a refresh token and returns its claims.
func (m *TokenManager) ParseRefreshToken(token string) (TokenClaims, error) {
	return m.parse(m.refreshSecret, token, tokenPurposeRefresh)
}

// ParseResetToken verifies a password reset token and returns its claims.
func (m *TokenManager) ParseResetToken(token string) (TokenClaims, error) {
	return m.parse(m.refreshSecret, token, tokenPurposeReset)
}

func (m *TokenManager) sign(secret []byte, user models.User, schoolID uint, tokenID, purpose string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := TokenClaims{
		Role:     string(user.Role),
		SchoolID: schoolID,
		TokenID:  tokenID,
		Purpose:  purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (m *TokenManager) parse(secret []byte, token, purpose string) (TokenClaims, error) {
	claims := TokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return TokenClaims{}, ErrInvalidToken
	}

	if claims.Purpose != purpose {
		return TokenClaims{}, ErrInvalidToken
	}

	return claims, nil
}
