package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vidtube/internal/auth"
	"vidtube/internal/config"
	"vidtube/internal/db"
	"vidtube/internal/handler"
	"vidtube/internal/media"
	"vidtube/internal/repository"
	"vidtube/internal/service"
)

type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, localPath string) (*media.Asset, error) {
	key := filepath.Base(localPath)
	return &media.Asset{Key: key, URL: "https://cdn.test/" + key}, nil
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

// 1x1 transparent PNG.
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	return newTestServerWithCookies(t, false)
}

func newTestServerWithCookies(t *testing.T, secure bool) *echo.Echo {
	t.Helper()

	cfg := &config.Config{
		CORSOrigins:        []string{"http://localhost:5173"},
		AccessTokenSecret:  "access-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenSecret: "refresh-secret",
		RefreshTokenExpiry: 24 * time.Hour,
		UploadTempDir:      t.TempDir(),
		UploadMaxSize:      1 << 20,
		RateLimitRPS:       1000,
	}

	gormDB, err := db.New("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	t.Cleanup(func() {
		if sqlDB, err := gormDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(gormDB)
	jwtService := auth.NewJWTService(auth.Options{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessExpiry:  cfg.AccessTokenExpiry,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshExpiry: cfg.RefreshTokenExpiry,
	})
	tokenStore := auth.NewTokenStore(nil)

	authService := service.NewAuthService(users, jwtService, tokenStore, fakeUploader{})
	userService := service.NewUserService(users, nil, fakeUploader{})
	channelService := service.NewChannelService(
		repository.NewSubscriptionRepository(gormDB),
		repository.NewVideoRepository(gormDB),
	)

	cookies := handler.CookieOptions{
		Secure:        secure,
		AccessMaxAge:  cfg.AccessTokenExpiry,
		RefreshMaxAge: cfg.RefreshTokenExpiry,
	}

	e := echo.New()
	Register(e, Deps{
		Config:         cfg,
		Logger:         zap.NewNop(),
		JWT:            jwtService,
		TokenStore:     tokenStore,
		Accounts:       userService,
		AuthHandler:    handler.NewAuthHandler(authService, cookies),
		UserHandler:    handler.NewUserHandler(userService),
		ChannelHandler: handler.NewChannelHandler(channelService),
	})
	return e
}

func do(t *testing.T, e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func registerRequest(t *testing.T, fields map[string]string, avatar bool) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if avatar {
		part, err := w.CreateFormFile("avatar", "me.png")
		require.NoError(t, err)
		_, err = part.Write(pngPixel)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(method, path string, payload any) *http.Request {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func cookieValue(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

var annLee = map[string]string{
	"fullName": "Ann Lee",
	"email":    "ann@x.com",
	"username": "annlee",
	"password": "secret1",
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestCORS_AllowsCredentialsForListedOrigin(t *testing.T) {
	e := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:5173")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(echo.HeaderOrigin, "http://evil.test")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestRegister(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, registerRequest(t, annLee, true))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusCreated, body.StatusCode)
	assert.True(t, body.Success)
	assert.Equal(t, "User registered successfully", body.Message)

	var user map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &user))
	assert.Equal(t, "annlee", user["username"])
	assert.Equal(t, "Ann Lee", user["fullName"])
	assert.NotEmpty(t, user["_id"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "refreshToken")

	rec, body = do(t, e, registerRequest(t, annLee, true))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "User already exists", body.Message)
	assert.NotNil(t, body.Errors)
}

func TestRegister_MissingAvatar(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, registerRequest(t, annLee, false))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Avatar is required", body.Message)
	assert.Equal(t, http.StatusBadRequest, body.StatusCode)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	e := newTestServer(t)

	fields := map[string]string{
		"fullName": "Ann Lee",
		"email":    "ann@x.com",
		"username": "annlee",
		"password": strings.Repeat("é", 40),
	}
	rec, body := do(t, e, registerRequest(t, fields, true))

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "Password must be at most 72 bytes", body.Message)

	rec, _ = do(t, e, registerRequest(t, annLee, true))
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestTokenCookies_Secure(t *testing.T) {
	e := newTestServerWithCookies(t, true)

	rec, _ := do(t, e, registerRequest(t, annLee, true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assertSecure := func(rec *httptest.ResponseRecorder) *http.Cookie {
		t.Helper()
		var refresh *http.Cookie
		for _, name := range []string{"accessToken", "refreshToken"} {
			c := cookieValue(rec, name)
			require.NotNil(t, c, name)
			assert.True(t, c.HttpOnly, name)
			assert.True(t, c.Secure, name)
			assert.Equal(t, "/", c.Path, name)
			if name == "refreshToken" {
				refresh = c
			}
		}
		return refresh
	}

	rec, _ = do(t, e, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "annlee",
		"password": "secret1",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	refresh := assertSecure(rec)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: refresh.Value})
	rec, _ = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assertSecure(rec)
}

func TestSessionFlow(t *testing.T) {
	e := newTestServer(t)

	rec, _ := do(t, e, registerRequest(t, annLee, true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := do(t, e, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "ghost",
		"password": "secret1",
	}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User does not exist", body.Message)

	rec, body = do(t, e, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "annlee",
		"password": "wrong",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", body.Message)

	rec, body = do(t, e, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"email":    "ann@x.com",
		"password": "secret1",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "User Logged in successfully", body.Message)

	var login struct {
		User         map[string]any `json:"user"`
		AccessToken  string         `json:"accessToken"`
		RefreshToken string         `json:"refreshToken"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &login))
	assert.Equal(t, "annlee", login.User["username"])

	accessCookie := cookieValue(rec, "accessToken")
	refreshCookie := cookieValue(rec, "refreshToken")
	require.NotNil(t, accessCookie)
	require.NotNil(t, refreshCookie)
	assert.True(t, accessCookie.HttpOnly)
	assert.Equal(t, login.AccessToken, accessCookie.Value)
	assert.Equal(t, login.RefreshToken, refreshCookie.Value)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/get-user", nil)
	req.AddCookie(accessCookie)
	rec, body = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "current user fetched successfully", body.Message)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/get-user", nil)
	rec, body = do(t, e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized request", body.Message)

	req = jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", map[string]string{"refreshToken": login.RefreshToken})
	rec, body = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Access Token refreshed successfully", body.Message)

	var pair service.TokenPair
	require.NoError(t, json.Unmarshal(body.Data, &pair))
	assert.NotEqual(t, login.RefreshToken, pair.RefreshToken)

	req = jsonRequest(http.MethodPost, "/api/v1/users/refresh-token", map[string]string{"refreshToken": login.RefreshToken})
	rec, body = do(t, e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh Token is Expired or used", body.Message)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+pair.AccessToken)
	rec, body = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "User logged out", body.Message)
	cleared := cookieValue(rec, "refreshToken")
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: "refreshToken", Value: pair.RefreshToken})
	rec, _ = do(t, e, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChannelAndHistory(t *testing.T) {
	e := newTestServer(t)

	rec, _ := do(t, e, registerRequest(t, annLee, true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, body := do(t, e, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "annlee",
		"password": "secret1",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	accessCookie := cookieValue(rec, "accessToken")
	require.NotNil(t, accessCookie)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/c/AnnLee", nil)
	req.AddCookie(accessCookie)
	rec, body = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var profile map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &profile))
	assert.Equal(t, "annlee", profile["username"])
	assert.EqualValues(t, 0, profile["subscribersCount"])
	assert.Equal(t, false, profile["isSubscribed"])

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/c/nobody", nil)
	req.AddCookie(accessCookie)
	rec, body = do(t, e, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "channel does not exist", body.Message)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/history", nil)
	req.AddCookie(accessCookie)
	rec, body = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `[]`, string(body.Data))
}

func TestUpdateDetails(t *testing.T) {
	e := newTestServer(t)

	rec, _ := do(t, e, registerRequest(t, annLee, true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec, _ = do(t, e, jsonRequest(http.MethodPost, "/api/v1/users/login", map[string]string{
		"username": "annlee",
		"password": "secret1",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	accessCookie := cookieValue(rec, "accessToken")

	req := jsonRequest(http.MethodPost, "/api/v1/users/update-details", map[string]string{"fullName": "Ann B. Lee"})
	req.AddCookie(accessCookie)
	rec, body := do(t, e, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Both the fields are required", body.Message)

	req = jsonRequest(http.MethodPost, "/api/v1/users/update-details", map[string]string{
		"fullName": "Ann B. Lee",
		"email":    "ann.lee@x.com",
	})
	req.AddCookie(accessCookie)
	rec, body = do(t, e, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user map[string]any
	require.NoError(t, json.Unmarshal(body.Data, &user))
	assert.Equal(t, "Ann B. Lee", user["fullName"])
	assert.Equal(t, "ann.lee@x.com", user["email"])
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	e := newTestServer(t)

	rec, body := do(t, e, httptest.NewRequest(http.MethodGet, "/api/v1/users/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, body.Success)
	assert.Equal(t, http.StatusNotFound, body.StatusCode)
	assert.Equal(t, "null", string(body.Data))
}
