package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
	"github.com/cloudkenya/hostpanel/internal/core/ports"
)

// AccountHandler exposes the authenticated account-management endpoints:
// profile, password change, and two-factor lifecycle.
type AccountHandler struct {
	authService ports.AuthService
	twoFactor   ports.TwoFactorService
}

func NewAccountHandler(authService ports.AuthService, twoFactor ports.TwoFactorService) *AccountHandler {
	return &AccountHandler{authService: authService, twoFactor: twoFactor}
}

type profileRequest struct {
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
	Language *string `json:"language,omitempty" validate:"omitempty,oneof=en sw"`
	Timezone *string `json:"timezone,omitempty"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type enrollmentResponse struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauth_url"`
}

type codeRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

type passwordRequest struct {
	Password string `json:"password" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Me returns the calling account with secret fields redacted.
//
// @Summary      Current account
// @Tags         account
// @Produce      json
// @Success      200  {object}  domain.Account
// @Router       /auth/me [get]
func (h *AccountHandler) Me(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	account, err := h.authService.CurrentAccount(c.Request().Context(), accountID)
	if err != nil {
		return err
	}
	// Hash, 2FA secret and API credentials are excluded by the domain
	// type's marshalling; nothing extra to strip here.
	return c.JSON(http.StatusOK, account)
}

// UpdateProfile applies the optional profile fields.
//
// @Summary      Update profile
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      profileRequest  true  "Fields to update"
// @Success      200   {object}  messageResponse
// @Router       /auth/profile [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	upd := domain.ProfileUpdate{Email: req.Email, Language: req.Language, Timezone: req.Timezone}
	if err := h.authService.UpdateProfile(c.Request().Context(), accountID, upd, requestMeta(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "profile updated"})
}

// ChangePassword replaces the account password after re-verifying the
// current one.
//
// @Summary      Change password
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/change-password [post]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.authService.ChangePassword(c.Request().Context(), accountID, req.CurrentPassword, req.NewPassword, requestMeta(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// EnableTwoFactor starts TOTP enrollment and returns the secret plus the
// otpauth URI for the authenticator app.
//
// @Summary      Begin 2FA enrollment
// @Tags         account
// @Produce      json
// @Success      200  {object}  enrollmentResponse
// @Router       /auth/enable-2fa [post]
func (h *AccountHandler) EnableTwoFactor(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	enrollment, err := h.twoFactor.BeginEnrollment(c.Request().Context(), accountID, requestMeta(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, enrollmentResponse{
		Secret:     enrollment.Secret,
		OtpauthURL: enrollment.OtpauthURL,
	})
}

// ConfirmTwoFactor verifies the first code and switches 2FA on.
//
// @Summary      Confirm 2FA enrollment
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      codeRequest  true  "Code from the authenticator app"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/verify-enable-2fa [post]
func (h *AccountHandler) ConfirmTwoFactor(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	var req codeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.twoFactor.ConfirmEnrollment(c.Request().Context(), accountID, req.Code, requestMeta(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "2FA enabled"})
}

// DisableTwoFactor turns 2FA off after re-verifying the account password.
//
// @Summary      Disable 2FA
// @Tags         account
// @Accept       json
// @Produce      json
// @Param        body  body      passwordRequest  true  "Account password"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/disable-2fa [post]
func (h *AccountHandler) DisableTwoFactor(c echo.Context) error {
	accountID, err := ctxAccountID(c)
	if err != nil {
		return err
	}

	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.twoFactor.Disable(c.Request().Context(), accountID, req.Password, requestMeta(c)); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, messageResponse{Message: "2FA disabled"})
}
