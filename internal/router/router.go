package router

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"storefront/internal/auth"
	"storefront/internal/config"
	apperrors "storefront/internal/errors"
	"storefront/internal/handler"
	"storefront/internal/logging"
	"storefront/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *slog.Logger,
	authMiddleware *auth.Middleware,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	productHandler *handler.ProductHandler,
) {
	e.HTTPErrorHandler = HTTPErrorHandler(logger)
	e.Validator = NewValidator()

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(logging.RequestLogger(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{Timeout: cfg.RequestTimeout}))
	}

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "storefront backend is running")
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authenticated := []echo.MiddlewareFunc{authMiddleware.Authenticate()}
	adminOnly := []echo.MiddlewareFunc{authMiddleware.Authenticate(), authMiddleware.RequireRole(model.RoleAdmin)}

	api := e.Group("/api")

	// Public routes
	api.POST("/register", authHandler.Register)
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/products", productHandler.ListProducts)

	// Any valid session
	api.GET("/me", userHandler.Me, authenticated...)
	api.POST("/change-password", userHandler.ChangePassword, authenticated...)

	// Admin only
	api.POST("/products", productHandler.CreateProduct, adminOnly...)
	api.PUT("/products/:id", productHandler.UpdateProduct, adminOnly...)
	api.DELETE("/products/:id", productHandler.DeleteProduct, adminOnly...)
	api.POST("/make-admin", userHandler.MakeAdmin, adminOnly...)
}

// HTTPErrorHandler is the single place where errors become HTTP responses.
// Domain errors map through apperrors.MapErrorToHTTP; echo's own errors keep
// their status. Anything unexpected is logged and answered with a bare 500.
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var resp apperrors.ErrorResponse
		var status int

		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg, ok := he.Message.(string)
			if !ok || status >= http.StatusInternalServerError {
				msg = http.StatusText(status)
			}
			resp = apperrors.ErrorResponse{Error: strings.ToLower(msg), Code: statusCode(status)}
		} else {
			httpErr := apperrors.MapErrorToHTTP(err)
			status = httpErr.StatusCode
			resp = httpErr.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"error", err,
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// CustomValidator wraps validator for Echo and reports failures as
// InvalidArgument errors named after the JSON fields.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a validator that reports JSON field names.
func NewValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.InvalidArgument("invalid request")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return apperrors.InvalidArgument("%s is required", fe.Field())
	case "email":
		return apperrors.InvalidArgument("%s must be a valid email address", fe.Field())
	default:
		return apperrors.InvalidArgument("%s is invalid", fe.Field())
	}
}
