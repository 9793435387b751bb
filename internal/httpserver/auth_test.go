package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/adityaprs/klinik-auth/internal/hash"
	"github.com/adityaprs/klinik-auth/internal/middleware"
	"github.com/adityaprs/klinik-auth/internal/models"
	"github.com/adityaprs/klinik-auth/internal/repo"
	"github.com/adityaprs/klinik-auth/internal/service"
	"github.com/adityaprs/klinik-auth/internal/tokens"
)

type testEnv struct {
	e     *echo.Echo
	store *repo.GormRepo
	auth  *service.AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	store := &repo.GormRepo{DB: db}
	authSvc := &service.AuthService{
		Store:         store,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	userSvc := &service.UserService{Store: store}

	e := echo.New()
	Register(e, &Deps{
		Auth:  &AuthHTTP{Svc: authSvc},
		Users: &UserHTTP{Svc: userSvc},
		Guard: middleware.NewAuthGuard(authSvc.JWTSecret, authSvc.RefreshSecret),
	})

	return &testEnv{e: e, store: store, auth: authSvc}
}

func (env *testEnv) seedAccount(t *testing.T, email, secret string, role models.Role, nik, name string) *models.User {
	t.Helper()

	u := &models.User{NIK: nik, Name: name, Role: role}
	if email != "" {
		u.Email = &email
	}
	if secret != "" {
		h, err := hash.HashSecret(secret)
		require.NoError(t, err)
		u.PasswordHash = &h
	}
	require.NoError(t, env.store.Create(context.Background(), u))
	return u
}

func (env *testEnv) do(method, path, body, bearer string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func decodePair(t *testing.T, rec *httptest.ResponseRecorder) service.TokenPair {
	t.Helper()
	var pair service.TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	return pair
}

func TestLoginAdmin_Success(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedAccount(t, "admin@b.com", "Secret123", models.RoleAdminFaskes, "1111", "Admin")

	rec := env.do(http.MethodPost, "/auth/login/admin", `{"email":"admin@b.com","password":"Secret123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	pair := decodePair(t, rec)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestLoginAdmin_FailuresAreIndistinguishable(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedAccount(t, "admin@b.com", "Secret123", models.RoleAdminFaskes, "1111", "Admin")
	env.seedAccount(t, "patient@b.com", "Secret123", models.RolePasien, "2222", "Patient")

	wrongSecret := env.do(http.MethodPost, "/auth/login/admin", `{"email":"admin@b.com","password":"nope"}`, "")
	unknown := env.do(http.MethodPost, "/auth/login/admin", `{"email":"ghost@b.com","password":"Secret123"}`, "")
	pasien := env.do(http.MethodPost, "/auth/login/admin", `{"email":"patient@b.com","password":"Secret123"}`, "")

	// One generic 401 for every cause, so accounts cannot be enumerated.
	for _, rec := range []*httptest.ResponseRecorder{wrongSecret, unknown, pasien} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "access denied")
	}
	assert.Equal(t, wrongSecret.Body.String(), unknown.Body.String())
	assert.Equal(t, wrongSecret.Body.String(), pasien.Body.String())
}

func TestLoginAdmin_MissingFields(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := env.do(http.MethodPost, "/auth/login/admin", `{"email":"a@b.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginUser_NIKAndName(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedAccount(t, "", "", models.RolePasien, "1234567890123456", "John Doe")

	rec := env.do(http.MethodPost, "/auth/login/user", `{"nik":"1234567890123456","name":"john doe"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decodePair(t, rec)
	assert.NotEmpty(t, pair.AccessToken)

	rec = env.do(http.MethodPost, "/auth/login/user", `{"nik":"1234567890123456","name":"Jane Doe"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access denied")
}

func TestRefresh_FlowAndFailureModes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	u := env.seedAccount(t, "admin@b.com", "Secret123", models.RoleAdminFaskes, "1111", "Admin")

	login := env.do(http.MethodPost, "/auth/login/admin", `{"email":"admin@b.com","password":"Secret123"}`, "")
	require.Equal(t, http.StatusOK, login.Code)
	pair := decodePair(t, login)

	// Refresh with the refresh token yields a fresh access token.
	rec := env.do(http.MethodGet, "/auth/refresh", "", pair.RefreshToken)
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	claims, err := tokens.ParseAccess(res.AccessToken, env.auth.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)

	// An access token is signed with the wrong secret for this endpoint.
	rec = env.do(http.MethodGet, "/auth/refresh", "", pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// No token at all.
	rec = env.do(http.MethodGet, "/auth/refresh", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A second login invalidates the first refresh token.
	login2 := env.do(http.MethodPost, "/auth/login/admin", `{"email":"admin@b.com","password":"Secret123"}`, "")
	require.Equal(t, http.StatusOK, login2.Code)

	rec = env.do(http.MethodGet, "/auth/refresh", "", pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "access denied")
}

func TestLogout_ClearsSessionAndIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedAccount(t, "admin@b.com", "Secret123", models.RoleAdminFaskes, "1111", "Admin")

	login := env.do(http.MethodPost, "/auth/login/admin", `{"email":"admin@b.com","password":"Secret123"}`, "")
	pair := decodePair(t, login)

	rec := env.do(http.MethodGet, "/auth/logout", "", pair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// The refresh token no longer works.
	rec = env.do(http.MethodGet, "/auth/refresh", "", pair.RefreshToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logging out again is not an error.
	rec = env.do(http.MethodGet, "/auth/logout", "", pair.AccessToken)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Without a token the endpoint is unreachable.
	rec = env.do(http.MethodGet, "/auth/logout", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserCreate_AndCheckNIK(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{"nik":"1234567890123456","name":"John Doe","email":"john@b.com","password":"Secret123"}`
	rec := env.do(http.MethodPost, "/user", body, "")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Secret123")
	assert.NotContains(t, rec.Body.String(), "passwordHash")

	rec = env.do(http.MethodPost, "/user", body, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodGet, "/user/check-nik/1234567890123456", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/user/check-nik/0000000000000000", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateRole_RequiresAdmin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedAccount(t, "admin@b.com", "Secret123", models.RoleAdminFaskes, "1111", "Admin")
	patient := env.seedAccount(t, "patient@b.com", "Secret123", models.RolePasien, "2222", "Patient")

	adminLogin := env.do(http.MethodPost, "/auth/login/admin", `{"email":"admin@b.com","password":"Secret123"}`, "")
	require.Equal(t, http.StatusOK, adminLogin.Code)
	adminPair := decodePair(t, adminLogin)

	// No token.
	rec := env.do(http.MethodPatch, "/user/"+patient.ID+"/role", `{"role":"OPERATOR"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// A patient's access token is not enough.
	patientToken, err := tokens.IssueAccess(patient.Profile(), env.auth.JWTSecret, time.Minute)
	require.NoError(t, err)
	rec = env.do(http.MethodPatch, "/user/"+patient.ID+"/role", `{"role":"OPERATOR"}`, patientToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Admin succeeds.
	rec = env.do(http.MethodPatch, "/user/"+patient.ID+"/role", `{"role":"OPERATOR"}`, adminPair.AccessToken)
	require.Equal(t, http.StatusOK, rec.Code)

	// Unknown account surfaces NotFound on this administrative path.
	rec = env.do(http.MethodPatch, "/user/missing-id/role", `{"role":"OPERATOR"}`, adminPair.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Unknown role value.
	rec = env.do(http.MethodPatch, "/user/"+patient.ID+"/role", `{"role":"SUPERUSER"}`, adminPair.AccessToken)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
