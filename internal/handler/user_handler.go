package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/service"
)

// UserHandler serves endpoints acting on the calling or another user.
type UserHandler struct {
	authService service.AuthService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(authService service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// MakeAdminRequest names the user to promote.
type MakeAdminRequest struct {
	Email string `json:"email" validate:"required"`
}

// MakeAdminResponse is the promoted user.
type MakeAdminResponse struct {
	ID    uint       `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// ChangePasswordRequest carries the new password.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// Me godoc
// @Summary Current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /me [get]
func (h *UserHandler) Me(c echo.Context) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.ErrNoToken
	}

	user, err := h.authService.FindByID(c.Request().Context(), claims.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return apperrors.ErrUserNotFound
	}
	return c.JSON(http.StatusOK, user)
}

// MakeAdmin godoc
// @Summary Promote a user to admin
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MakeAdminRequest true "User email"
// @Success 200 {object} MakeAdminResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /make-admin [post]
func (h *UserHandler) MakeAdmin(c echo.Context) error {
	var req MakeAdminRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.PromoteToAdmin(c.Request().Context(), req.Email)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, MakeAdminResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
}

// ChangePassword godoc
// @Summary Change the caller's password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "New password"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /change-password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		return apperrors.ErrNoToken
	}

	var req ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.SetPassword(c.Request().Context(), claims.UserID, req.Password); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "password changed",
	})
}
