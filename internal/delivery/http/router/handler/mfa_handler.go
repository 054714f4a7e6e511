package handler

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"procura/internal/delivery/http/middleware"
	"procura/internal/delivery/http/response"
	"procura/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// MFAHandler holds dependencies for multi-factor authentication handlers.
type MFAHandler struct {
	uc     usecase.MFAUsecase
	logger *slog.Logger
}

// NewMFAHandler is the constructor for MFAHandler, injected by Fx.
func NewMFAHandler(uc usecase.MFAUsecase, logger *slog.Logger) *MFAHandler {
	return &MFAHandler{uc: uc, logger: logger}
}

// Setup provisions a TOTP secret for the authenticated account. The QR code
// is returned base64 encoded for direct embedding in an <img> tag.
func (h *MFAHandler) Setup(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	output, err := h.uc.SetupMFA(c.Request().Context(), actor.AccountID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"secret": output.Secret,
		"uri":    output.URI,
		"qrCode": base64.StdEncoding.EncodeToString(output.QRCode),
	}, "Scan the QR code and confirm with a code to enable MFA")
}

type mfaCodeRequest struct {
	Code string `json:"code" validate:"required,len=6"`
}

// Confirm activates MFA after the first valid code.
func (h *MFAHandler) Confirm(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	var req mfaCodeRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid MFA input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.uc.ConfirmSetup(c.Request().Context(), &usecase.ConfirmMFASetupInput{
		AccountID: actor.AccountID,
		Code:      req.Code,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "MFA enabled successfully")
}

type verifyMFALoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required,len=6"`
}

// VerifyLogin completes a pending MFA login challenge.
func (h *MFAHandler) VerifyLogin(c echo.Context) error {
	var req verifyMFALoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid MFA login input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	output, err := h.uc.VerifyLogin(c.Request().Context(), &usecase.VerifyMFALoginInput{
		Email:    req.Email,
		Password: req.Password,
		Code:     req.Code,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, echo.Map{
		"account":      toAccountView(output.Account),
		"accessToken":  output.AccessToken,
		"refreshToken": output.RefreshToken,
	}, "Login successful")
}

type disableMFARequest struct {
	Password string `json:"password" validate:"required"`
	Code     string `json:"code" validate:"required,len=6"`
}

// Disable turns MFA off after re-authentication.
func (h *MFAHandler) Disable(c echo.Context) error {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return response.Unauthorized(c, "UNAUTHORIZED", "Authentication required")
	}

	var req disableMFARequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid MFA input")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	if err := h.uc.DisableMFA(c.Request().Context(), &usecase.DisableMFAInput{
		AccountID: actor.AccountID,
		Password:  req.Password,
		Code:      req.Code,
	}); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "MFA disabled successfully")
}
