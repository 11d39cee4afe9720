package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/rs/zerolog"
)

// failingAuthService returns the configured error from every operation.
type failingAuthService struct {
	err error
}

func (s *failingAuthService) Register(context.Context, dto.RegisterRequest, service.SessionMeta) (dto.AuthResponse, error) {
	return dto.AuthResponse{}, s.err
}

func (s *failingAuthService) Login(context.Context, dto.LoginRequest, service.SessionMeta) (dto.AuthResponse, error) {
	return dto.AuthResponse{}, s.err
}

func (s *failingAuthService) Refresh(context.Context, string) (dto.TokenPairResponse, error) {
	return dto.TokenPairResponse{}, s.err
}

func (s *failingAuthService) Logout(context.Context, string) error { return s.err }

func (s *failingAuthService) RequestPasswordReset(context.Context, string) error { return s.err }

func (s *failingAuthService) ResetPassword(context.Context, string, string) error { return s.err }

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func newAuthApp(err error) *fiber.App {
	app := fiber.New()
	NewAuthHandler(&failingAuthService{err: err}, zerolog.Nop()).Register(app.Group("/auth"))
	return app
}

func TestAuthErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"missing school is not found", "/auth/register", service.ErrSchoolNotFound, fiber.StatusNotFound},
		{"duplicate email conflicts", "/auth/register", service.ErrEmailTaken, fiber.StatusConflict},
		{"unverified school rejects login", "/auth/login", service.ErrSchoolNotVerified, fiber.StatusUnauthorized},
		{"bad credentials", "/auth/login", service.ErrInvalidCredentials, fiber.StatusUnauthorized},
		{"inactive account", "/auth/login", service.ErrAccountInactive, fiber.StatusUnauthorized},
		{"stale refresh token", "/auth/refresh", service.ErrInvalidToken, fiber.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, newAuthApp(tc.err), tc.path, `{}`)
			require.Equal(t, tc.status, resp.StatusCode)
		})
	}
}
