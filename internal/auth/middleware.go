package auth

import (
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	apperrors "storefront/internal/errors"
	"storefront/internal/model"
)

const (
	claimsContextKey    = "claims"
	tokenSeenContextKey = "auth.token_seen"
)

// Middleware gates routes on a verified session token and, optionally, a role.
// It only reads the request; it never touches the stores.
type Middleware struct {
	jwtService *JWTService
}

// NewMiddleware creates access control middleware backed by the token service.
func NewMiddleware(jwtService *JWTService) *Middleware {
	return &Middleware{jwtService: jwtService}
}

// Authenticate requires an "Authorization: Bearer <token>" header carrying a
// valid session token and stores its claims in the echo context.
func (m *Middleware) Authenticate() echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  claimsContextKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			// echo-jwt only calls this once a token has been extracted.
			c.Set(tokenSeenContextKey, true)
			return m.jwtService.Verify(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			// A header that is present but unusable, Bearer or not, is an invalid token.
			seen, _ := c.Get(tokenSeenContextKey).(bool)
			if seen || c.Request().Header.Get(echo.HeaderAuthorization) != "" {
				return apperrors.ErrInvalidToken
			}
			return apperrors.ErrNoToken
		},
	})
}

// RequireRole rejects authenticated callers whose token role differs from role.
// It must run after Authenticate.
func (m *Middleware) RequireRole(role model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return apperrors.ErrNoToken
			}
			if claims.Role != role {
				return apperrors.ErrAccessDenied
			}
			return next(c)
		}
	}
}

// ClaimsFromContext returns the claims stored by Authenticate.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok && claims != nil
}
