package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-console/internal/api/dto"
	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/service"
	apperrors "github.com/spec-kit/support-console/pkg/util"
)

// AuthHandler exposes the session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = strings.TrimSpace(req.Username)
	}
	if email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", map[string]any{
			"email":    email == "",
			"password": req.Password == "",
		})
	}

	user, tokens, err := h.auth.Login(c.UserContext(), email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return err
	}

	return c.JSON(dto.LoginResponse{TokenResponse: tokenResponse(tokens), User: *user})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.RefreshToken == "" {
		return apperrors.NewUnauthorized("missing refresh token")
	}

	tokens, err := h.auth.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			return apperrors.NewUnauthorized("refresh token expired or revoked")
		}
		return err
	}
	return c.JSON(tokenResponse(tokens))
}

// LogoutAll handles POST /api/v1/auth/logout-all.
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	n, err := h.auth.LogoutAll(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.LogoutResponse{Revoked: n})
}

// LogoutOne handles POST /api/v1/auth/logout-one.
func (h *AuthHandler) LogoutOne(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.LogoutOneRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.JTI) == "" {
		return apperrors.NewValidationError("jti required", nil)
	}

	if err := h.auth.LogoutOne(c.UserContext(), principal.User.ID, req.JTI); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			return apperrors.NewNotFound("session", map[string]any{"jti": req.JTI})
		}
		return err
	}
	return c.JSON(dto.LogoutResponse{Revoked: 1})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
	}
	return c.JSON(principal.User)
}

func tokenResponse(t *service.IssuedTokens) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:      t.AccessToken,
		RefreshToken:     t.RefreshToken,
		TokenType:        "Bearer",
		ExpiresAt:        t.AccessExpiresAt,
		RefreshExpiresAt: t.RefreshExpiresAt,
	}
}
