package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "storefront/internal/errors"
)

// SuccessResponse acknowledges operations that return no resource.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// bindAndValidate decodes the JSON body into req and runs struct validation.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.InvalidArgument("invalid request body")
	}
	return c.Validate(req)
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.InvalidArgument("invalid %s id", name)
	}
	return uint(id), nil
}
