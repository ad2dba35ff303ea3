package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/auth"
	"storefront/internal/config"
	apperrors "storefront/internal/errors"
	"storefront/internal/handler"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/service"
)

const (
	adminEmail = "owner@example.com"
	testSecret = "router-test-secret"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		AdminEmail:     adminEmail,
		CORSOrigins:    []string{"*"},
		RequestTimeout: 5 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := repository.NewMemoryStore()
	jwtService := auth.NewJWTService(testSecret, 0)

	authService := service.NewAuthService(store.Users(), jwtService, adminEmail, logger)
	productService := service.NewProductService(store.Products(), nil, time.Minute, logger)

	e := echo.New()
	Register(
		e,
		cfg,
		logger,
		auth.NewMiddleware(jwtService),
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(authService),
		handler.NewProductHandler(productService),
	)
	return e
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decode[apperrors.ErrorResponse](t, rec)
	assert.Equal(t, message, resp.Error)
	assert.NotEmpty(t, resp.Code)
}

func register(t *testing.T, e *echo.Echo, email, password string) {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/register", "",
		`{"email":"`+email+`","password":"`+password+`","displayName":"Tester"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func login(t *testing.T, e *echo.Echo, email, password string) string {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/login", "",
		`{"email":"`+email+`","password":"`+password+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[handler.LoginResponse](t, rec).Token
}

func adminToken(t *testing.T, e *echo.Echo) string {
	t.Helper()
	register(t, e, adminEmail, "admin-pw")
	return login(t, e, adminEmail, "admin-pw")
}

const productBody = `{"title":"Starter pack","description":"d","price":1500,"discount":100,"pinned":false,"type":"download","fileUrl":"https://files.example.com/a.zip"}`

func TestRootAndHealth(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "running")

	rec = do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestRegisterAndLogin(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/register", "", `{"email":"a@example.com","password":"pw1","displayName":"Ann"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "pw1")
	assert.NotContains(t, strings.ToLower(rec.Body.String()), "password")

	user := decode[model.User](t, rec)
	assert.Equal(t, "a@example.com", user.Email)
	assert.Equal(t, "Ann", user.DisplayName)
	assert.Equal(t, model.RoleUser, user.Role)

	rec = do(e, http.MethodPost, "/api/register", "", `{"email":"a@example.com","password":"other"}`)
	assertError(t, rec, http.StatusConflict, "email already exists")

	rec = do(e, http.MethodPost, "/api/login", "", `{"email":"a@example.com","password":"wrong"}`)
	assertError(t, rec, http.StatusUnauthorized, "invalid email or password")

	rec = do(e, http.MethodPost, "/api/login", "", `{"email":"nobody@example.com","password":"pw1"}`)
	assertError(t, rec, http.StatusUnauthorized, "invalid email or password")

	rec = do(e, http.MethodPost, "/api/login", "", `{"email":"a@example.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.LoginResponse](t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, user.ID, resp.User.ID)

	claims, err := auth.NewJWTService(testSecret, 0).Verify(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)
}

func TestRegister_Validation(t *testing.T) {
	e := newTestServer(t)

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"missing email", `{"password":"pw"}`, "email is required"},
		{"malformed email", `{"email":"not-an-email","password":"pw"}`, "email must be a valid email address"},
		{"missing password", `{"email":"a@example.com"}`, "password is required"},
		{"broken json", `{"email":`, "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(e, http.MethodPost, "/api/register", "", tt.body)
			assertError(t, rec, http.StatusBadRequest, tt.message)
		})
	}
}

func TestBootstrapEmailBecomesAdmin(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/register", "", `{"email":"`+adminEmail+`","password":"pw"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, model.RoleAdmin, decode[model.User](t, rec).Role)
}

func TestLogout(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodPost, "/api/logout", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[handler.SuccessResponse](t, rec).Success)
}

func TestMe(t *testing.T) {
	e := newTestServer(t)
	register(t, e, "a@example.com", "pw")
	token := login(t, e, "a@example.com", "pw")

	rec := do(e, http.MethodGet, "/api/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@example.com", decode[model.User](t, rec).Email)

	assertError(t, do(e, http.MethodGet, "/api/me", "", ""), http.StatusUnauthorized, "no token")
	assertError(t, do(e, http.MethodGet, "/api/me", "garbage", ""), http.StatusUnauthorized, "invalid token")
}

func TestTokenForDeletedUserIsNotFound(t *testing.T) {
	e := newTestServer(t)
	token, err := auth.NewJWTService(testSecret, 0).Issue(&model.User{ID: 999, Email: "ghost@example.com", Role: model.RoleUser})
	require.NoError(t, err)

	assertError(t, do(e, http.MethodGet, "/api/me", token, ""), http.StatusNotFound, "user not found")
}

func TestTokenSignedWithOtherSecretIsRejected(t *testing.T) {
	e := newTestServer(t)
	token, err := auth.NewJWTService("another-secret", 0).Issue(&model.User{ID: 1, Email: adminEmail, Role: model.RoleAdmin})
	require.NoError(t, err)

	rec := do(e, http.MethodPost, "/api/products", token, productBody)
	assertError(t, rec, http.StatusUnauthorized, "invalid token")
}

func TestProductsAccessControl(t *testing.T) {
	e := newTestServer(t)
	register(t, e, "u@example.com", "pw")
	userToken := login(t, e, "u@example.com", "pw")

	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/products", productBody},
		{http.MethodPut, "/api/products/1", productBody},
		{http.MethodDelete, "/api/products/1", ""},
		{http.MethodPost, "/api/make-admin", `{"email":"u@example.com"}`},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			assertError(t, do(e, r.method, r.path, "", r.body), http.StatusUnauthorized, "no token")
			assertError(t, do(e, r.method, r.path, "not.a.jwt", r.body), http.StatusUnauthorized, "invalid token")
			assertError(t, do(e, r.method, r.path, userToken, r.body), http.StatusForbidden, "access denied")
		})
	}

	rec := do(e, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestProductLifecycle(t *testing.T) {
	e := newTestServer(t)
	token := adminToken(t, e)

	rec := do(e, http.MethodPost, "/api/products", token, productBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[model.Product](t, rec)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, model.ProductTypeDownload, created.Type)
	assert.Equal(t, int64(1500), created.Price)

	path := "/api/products/" + itoa(created.ID)

	rec = do(e, http.MethodPut, path, token,
		`{"title":"Renamed","price":900,"type":"buy","funpayUrl":"https://funpay.example.com/lot/7"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Product](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, model.ProductTypeBuy, updated.Type)
	assert.Empty(t, updated.FileURL)
	assert.Equal(t, int64(0), updated.Discount)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))

	rec = do(e, http.MethodDelete, path, token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[handler.SuccessResponse](t, rec).Success)

	// deleting again still succeeds
	rec = do(e, http.MethodDelete, path, token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/products", "", "")
	assert.Empty(t, decode[[]model.Product](t, rec))

	assertError(t, do(e, http.MethodPut, path, token, productBody), http.StatusNotFound, "product not found")
}

func TestProductValidation(t *testing.T) {
	e := newTestServer(t)
	token := adminToken(t, e)

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		message string
	}{
		{"invalid type", http.MethodPost, "/api/products", `{"title":"t","price":1,"type":"rent"}`, apperrors.ErrInvalidProductType.Message},
		{"missing title", http.MethodPost, "/api/products", `{"price":1,"type":"buy"}`, "title is required"},
		{"missing price", http.MethodPost, "/api/products", `{"title":"t","type":"buy"}`, "price is required"},
		{"missing type", http.MethodPost, "/api/products", `{"title":"t","price":1}`, "type is required"},
		{"negative price", http.MethodPost, "/api/products", `{"title":"t","price":-1,"type":"buy"}`, "price must not be negative"},
		{"non numeric id", http.MethodPut, "/api/products/abc", productBody, "invalid product id"},
		{"zero id", http.MethodDelete, "/api/products/0", "", "invalid product id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertError(t, do(e, tt.method, tt.path, token, tt.body), http.StatusBadRequest, tt.message)
		})
	}

	rec := do(e, http.MethodGet, "/api/products", "", "")
	assert.Empty(t, decode[[]model.Product](t, rec))
}

func TestProductListingOrder(t *testing.T) {
	e := newTestServer(t)
	token := adminToken(t, e)

	create := func(title string, pinned bool) {
		body := `{"title":"` + title + `","price":1,"type":"buy","pinned":` + strconv.FormatBool(pinned) + `}`
		rec := do(e, http.MethodPost, "/api/products", token, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	create("first", false)
	create("pinned-old", true)
	create("second", false)
	create("pinned-new", true)

	rec := do(e, http.MethodGet, "/api/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	products := decode[[]model.Product](t, rec)

	titles := make([]string, 0, len(products))
	for _, p := range products {
		titles = append(titles, p.Title)
	}
	assert.Equal(t, []string{"pinned-new", "pinned-old", "second", "first"}, titles)
}

func TestMakeAdmin(t *testing.T) {
	e := newTestServer(t)
	token := adminToken(t, e)
	register(t, e, "u@example.com", "pw")
	oldUserToken := login(t, e, "u@example.com", "pw")

	assertError(t, do(e, http.MethodPost, "/api/make-admin", token, `{"email":"ghost@example.com"}`),
		http.StatusNotFound, "user not found")
	assertError(t, do(e, http.MethodPost, "/api/make-admin", token, `{}`),
		http.StatusBadRequest, "email is required")

	rec := do(e, http.MethodPost, "/api/make-admin", token, `{"email":"u@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[handler.MakeAdminResponse](t, rec)
	assert.Equal(t, "u@example.com", resp.Email)
	assert.Equal(t, model.RoleAdmin, resp.Role)

	// the role travels in the token, so only a fresh login grants admin access
	assertError(t, do(e, http.MethodPost, "/api/products", oldUserToken, productBody), http.StatusForbidden, "access denied")
	newToken := login(t, e, "u@example.com", "pw")
	assert.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/api/products", newToken, productBody).Code)
}

func TestChangePassword(t *testing.T) {
	e := newTestServer(t)
	register(t, e, "a@example.com", "old-pw")
	token := login(t, e, "a@example.com", "old-pw")

	assertError(t, do(e, http.MethodPost, "/api/change-password", token, `{"password":""}`),
		http.StatusBadRequest, "password is required")
	assertError(t, do(e, http.MethodPost, "/api/change-password", "", `{"password":"x"}`),
		http.StatusUnauthorized, "no token")

	rec := do(e, http.MethodPost, "/api/change-password", token, `{"password":"new-pw"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assertError(t, do(e, http.MethodPost, "/api/login", "", `{"email":"a@example.com","password":"old-pw"}`),
		http.StatusUnauthorized, "invalid email or password")
	login(t, e, "a@example.com", "new-pw")
}

func TestUnknownRoute(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/api/nope", "", "")
	assertError(t, rec, http.StatusNotFound, "not found")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
