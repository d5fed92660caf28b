package session

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mkaraca/session-service/internal/user"
)

func newTestRouter(t *testing.T) (*gin.Engine, *testEnv) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := newTestEnv(t)

	cookies := CookieSettings{
		AccessMaxAge:  15 * time.Minute,
		RefreshMaxAge: 7 * 24 * time.Hour,
		Secure:        false,
	}

	router := gin.New()
	api := router.Group("/api")
	handler := NewSessionHandler(api, env.Service, zap.NewNop(), cookies)

	authGroup := api.Group("/")
	authGroup.Use(AuthMiddleware(env.Users, testAccessSecret, zap.NewNop()))
	authGroup.POST("/auth/logout", handler.LogOut)
	authGroup.GET("/users/me", func(c *gin.Context) {
		raw, _ := c.Get(user.ContextUserKey)
		c.JSON(http.StatusOK, raw.(*user.User).Profile())
	})

	return router, env
}

func postJSON(t *testing.T, router *gin.Engine, path string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func cookieByName(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestLoginEndpointSetsAuthCookies(t *testing.T) {
	router, env := newTestRouter(t)
	env.createUser(t, " X@Y.com ", "secretpass")

	rec := postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "x@y.com",
		"password": "secretpass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var profile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "x@y.com", profile["email"])
	require.NotContains(t, profile, "passwordHash")

	access := cookieByName(t, rec, AccessCookieName)
	require.NotEmpty(t, access.Value)
	require.True(t, access.HttpOnly)
	require.Equal(t, "/", access.Path)
	require.Equal(t, int((15 * time.Minute).Seconds()), access.MaxAge)

	refresh := cookieByName(t, rec, RefreshCookieName)
	require.NotEmpty(t, refresh.Value)
	require.True(t, refresh.HttpOnly)
	require.Equal(t, RefreshCookiePath, refresh.Path)
	require.Equal(t, int((7 * 24 * time.Hour).Seconds()), refresh.MaxAge)
}

func TestLoginEndpointRejectsBadCredentials(t *testing.T) {
	router, env := newTestRouter(t)
	env.createUser(t, "jane@b.com", "secretpass")

	rec := postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "jane@b.com",
		"password": "wrong-password",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, router, "/api/auth/login", map[string]string{"email": "jane@b.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshEndpointRotatesCookies(t *testing.T) {
	router, env := newTestRouter(t)
	env.createUser(t, "jane@b.com", "secretpass")

	loginRec := postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "jane@b.com",
		"password": "secretpass",
	})
	require.Equal(t, http.StatusOK, loginRec.Code)
	oldRefresh := cookieByName(t, loginRec, RefreshCookieName)

	rec := postJSON(t, router, "/api/auth/refresh", nil, oldRefresh)
	require.Equal(t, http.StatusOK, rec.Code)

	newRefresh := cookieByName(t, rec, RefreshCookieName)
	require.NotEmpty(t, newRefresh.Value)
	require.NotEqual(t, oldRefresh.Value, newRefresh.Value)
	require.NotEmpty(t, cookieByName(t, rec, AccessCookieName).Value)
}

func TestRefreshEndpointClearsCookiesOnTamperedToken(t *testing.T) {
	router, env := newTestRouter(t)
	env.createUser(t, "jane@b.com", "secretpass")

	loginRec := postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "jane@b.com",
		"password": "secretpass",
	})
	tampered := cookieByName(t, loginRec, RefreshCookieName)
	tampered.Value += "x"

	rec := postJSON(t, router, "/api/auth/refresh", nil, tampered)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	require.Negative(t, cookieByName(t, rec, AccessCookieName).MaxAge)
	require.Negative(t, cookieByName(t, rec, RefreshCookieName).MaxAge)
}

func TestRefreshEndpointRejectsMissingCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/refresh", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Negative(t, cookieByName(t, rec, AccessCookieName).MaxAge)
}

func TestLogoutEndpointClearsCookiesAndRevokesFamily(t *testing.T) {
	router, env := newTestRouter(t)
	u := env.createUser(t, "jane@b.com", "secretpass")

	loginRec := postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "jane@b.com",
		"password": "secretpass",
	})
	access := cookieByName(t, loginRec, AccessCookieName)
	refresh := cookieByName(t, loginRec, RefreshCookieName)

	rec := postJSON(t, router, "/api/auth/logout", nil, access, refresh)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Negative(t, cookieByName(t, rec, AccessCookieName).MaxAge)
	require.Negative(t, cookieByName(t, rec, RefreshCookieName).MaxAge)

	for _, record := range env.userRecords(t, u.ID) {
		require.True(t, record.IsRevoked)
	}
}

func TestLogoutEndpointRequiresAccessToken(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(t, router, "/api/auth/logout", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	router, env := newTestRouter(t)
	env.createUser(t, "jane@b.com", "secretpass")

	loginRec := postJSON(t, router, "/api/auth/login", map[string]string{
		"email":    "jane@b.com",
		"password": "secretpass",
	})
	access := cookieByName(t, loginRec, AccessCookieName)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(access)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var profile map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	require.Equal(t, "jane@b.com", profile["email"])
	require.Equal(t, "2000-01-01", profile["birthDate"])
	require.NotContains(t, profile, "passwordHash")

	// no cookie at all
	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// garbage cookie
	req = httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookieName, Value: "garbage"})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
