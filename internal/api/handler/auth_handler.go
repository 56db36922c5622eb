package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
)

// AuthHandler exposes the unauthenticated endpoints: registration, login,
// and the second step of a two-factor login.
type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type registerResponse struct {
	Token     string          `json:"token"`
	User      *domain.Account `json:"user"`
	APIKey    string          `json:"api_key"`
	APISecret string          `json:"api_secret"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token       string `json:"token,omitempty"`
	Requires2FA bool   `json:"requires_2fa,omitempty"`
	UserID      string `json:"user_id,omitempty"`
}

type verifyTwoFactorRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Code   string `json:"code" validate:"required,len=6"`
}

// Register creates a new account.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Register(c.Request().Context(), req.Username, req.Email, req.Password, requestMeta(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, registerResponse{
		Token:     result.Token,
		User:      result.Account,
		APIKey:    result.APIKey,
		APISecret: result.APISecret,
	})
}

// Login authenticates with email and password. When the account has a second
// factor enabled the response carries a 2FA challenge instead of a token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Failure      423   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.authService.Login(c.Request().Context(), req.Email, req.Password, requestMeta(c))
	if err != nil {
		return err
	}

	if result.Requires2FA {
		return c.JSON(http.StatusOK, loginResponse{Requires2FA: true, UserID: result.AccountID})
	}
	return c.JSON(http.StatusOK, loginResponse{Token: result.Token})
}

// VerifyTwoFactor completes a two-factor login with a TOTP code.
//
// @Summary      Verify a two-factor login code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyTwoFactorRequest  true  "Challenge response"
// @Success      200   {object}  loginResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/verify-2fa [post]
func (h *AuthHandler) VerifyTwoFactor(c echo.Context) error {
	var req verifyTwoFactorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, err := h.authService.VerifyTwoFactor(c.Request().Context(), req.UserID, req.Code, requestMeta(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, loginResponse{Token: token})
}
