package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kube-rca/auth-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	calls int
	user  *model.AuthUser
	err   error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*model.AuthUser, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.user != nil {
		u := *s.user
		u.AccessToken = token
		return &u, nil
	}
	return nil, nil
}

func whoAmI(c *gin.Context) {
	if user := GetAuthUser(c); user != nil {
		c.JSON(http.StatusOK, gin.H{"user": user.ID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": nil})
}

func serve(r *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		header string
		want   string
	}{
		{header: "", want: ""},
		{header: "Bearer abc", want: "abc"},
		{header: "bearer   abc ", want: "abc"},
		{header: "BEARER abc", want: "abc"},
		{header: "Bearer", want: ""},
		{header: "Basic abc", want: ""},
		{header: "Token abc", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, BearerToken(c))
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		auth      *stubAuthenticator
		header    string
		wantBody  string
		wantCalls int
	}{
		{name: "no-token", auth: &stubAuthenticator{user: &model.AuthUser{ID: "u-1"}}, wantBody: `{"user":null}`, wantCalls: 0},
		{name: "valid-token", auth: &stubAuthenticator{user: &model.AuthUser{ID: "u-1"}}, header: "Bearer good", wantBody: `{"user":"u-1"}`, wantCalls: 1},
		{name: "provider-error", auth: &stubAuthenticator{err: errors.New("boom")}, header: "Bearer bad", wantBody: `{"user":null}`, wantCalls: 1},
		{name: "no-user", auth: &stubAuthenticator{}, header: "Bearer unknown", wantBody: `{"user":null}`, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/whoami", OptionalAuth(tt.auth), whoAmI)

			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := serve(r, http.MethodGet, "/whoami", headers)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantCalls, tt.auth.calls)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		auth       *stubAuthenticator
		header     string
		wantStatus int
		wantBody   string
	}{
		{name: "no-token", auth: &stubAuthenticator{}, wantStatus: http.StatusUnauthorized, wantBody: `{"detail":"Not authenticated"}`},
		{name: "provider-error", auth: &stubAuthenticator{err: errors.New("boom")}, header: "Bearer bad", wantStatus: http.StatusUnauthorized, wantBody: `{"detail":"Invalid authentication credentials"}`},
		{name: "no-user", auth: &stubAuthenticator{}, header: "Bearer unknown", wantStatus: http.StatusUnauthorized, wantBody: `{"detail":"Invalid authentication credentials"}`},
		{name: "valid", auth: &stubAuthenticator{user: &model.AuthUser{ID: "u-1"}}, header: "Bearer good", wantStatus: http.StatusOK, wantBody: `{"user":"u-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/whoami", RequireAuth(tt.auth), whoAmI)

			headers := map[string]string{}
			if tt.header != "" {
				headers["Authorization"] = tt.header
			}
			w := serve(r, http.MethodGet, "/whoami", headers)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{" http://localhost:5173 ", ""}, true))
	r.GET("/health", Health)

	preflight := serve(r, http.MethodOptions, "/api/auth/login", map[string]string{
		"Origin":                         "http://localhost:5173",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "content-type, x-custom",
	})
	assert.Equal(t, http.StatusNoContent, preflight.Code)
	assert.Equal(t, "http://localhost:5173", preflight.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", preflight.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "content-type, x-custom", preflight.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, preflight.Header().Get("Access-Control-Allow-Methods"), "POST")

	simple := serve(r, http.MethodGet, "/health", map[string]string{"Origin": "http://localhost:5173"})
	assert.Equal(t, http.StatusOK, simple.Code)
	assert.Equal(t, "http://localhost:5173", simple.Header().Get("Access-Control-Allow-Origin"))

	foreign := serve(r, http.MethodGet, "/health", map[string]string{"Origin": "https://evil.example.com"})
	assert.Equal(t, http.StatusOK, foreign.Code)
	assert.Empty(t, foreign.Header().Get("Access-Control-Allow-Origin"))

	foreignPreflight := serve(r, http.MethodOptions, "/health", map[string]string{
		"Origin":                        "https://evil.example.com",
		"Access-Control-Request-Method": "GET",
	})
	assert.Equal(t, http.StatusBadRequest, foreignPreflight.Code)
}

func TestCORSMiddlewareWildcard(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"*"}, false))
	r.GET("/health", Health)

	w := serve(r, http.MethodGet, "/health", map[string]string{"Origin": "https://any.example.com"})
	assert.Equal(t, "https://any.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := serve(r, http.MethodGet, "/id", map[string]string{"X-Request-ID": "req-123"})
	assert.Equal(t, "req-123", w.Body.String())
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = serve(r, http.MethodGet, "/id", nil)
	require.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}
