package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datingapp/internal/apperr"
	"datingapp/internal/security"
)

var testSecret = strings.Repeat("m", 64)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(development bool) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(zerolog.Nop()), Errors(zerolog.Nop(), development))
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) apperr.ErrorResponse {
	t.Helper()
	var body apperr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateAndPolicy(t *testing.T) {
	tokens := security.NewTokenIssuer(testSecret, time.Hour)
	r := newTestRouter(false)
	admin := r.Group("/admin", Authenticate(tokens), RequirePolicy(security.PolicyRequireAdminRole))
	admin.GET("/ping", func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		require.True(t, ok)
		c.String(http.StatusOK, claims.UniqueName)
	})

	adminToken, err := tokens.Issue(1, "admin", []string{"Admin"})
	require.NoError(t, err)
	memberToken, err := tokens.Issue(2, "alice", []string{"Member"})
	require.NoError(t, err)
	foreign, err := security.NewTokenIssuer(strings.Repeat("x", 64), time.Hour).Issue(1, "admin", []string{"Admin"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "missing_token"},
		{"bad token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized, "invalid_token"},
		{"wrong role", "Bearer " + memberToken, http.StatusForbidden, "forbidden"},
		{"admin", "Bearer " + adminToken, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantError == "" {
				assert.Equal(t, "admin", w.Body.String())
				return
			}
			assert.Equal(t, tt.wantError, decodeError(t, w).Error)
			assert.Equal(t, tt.wantError, w.Header().Get("Application-Error"))
		})
	}
}

func TestRequirePolicy_WithoutAuthenticate(t *testing.T) {
	r := newTestRouter(false)
	r.GET("/x", RequirePolicy(security.PolicyVipOnly), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePolicy_UnknownPanics(t *testing.T) {
	assert.Panics(t, func() { RequirePolicy(security.Policy("Bogus")) })
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name        string
		development bool
		err         error
		wantStatus  int
		wantBody    apperr.ErrorResponse
	}{
		{
			name:       "validation details",
			err:        apperr.Validation("Registration failed", apperr.Detail{Code: "PasswordTooShort", Description: "short"}),
			wantStatus: http.StatusBadRequest,
			wantBody: apperr.ErrorResponse{
				Error:   "Registration failed",
				Code:    "VALIDATION_ERROR",
				Details: []apperr.Detail{{Code: "PasswordTooShort", Description: "short"}},
			},
		},
		{
			name:       "not found is a bad request",
			err:        apperr.NotFound("User not found"),
			wantStatus: http.StatusBadRequest,
			wantBody:   apperr.ErrorResponse{Error: "User not found", Code: "NOT_FOUND"},
		},
		{
			name:       "raw error hidden outside development",
			err:        errors.New("pq: relation users does not exist"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   apperr.ErrorResponse{Error: "internal_server_error", Code: "INTERNAL_ERROR"},
		},
		{
			name:        "raw error shown in development",
			development: true,
			err:         errors.New("pq: relation users does not exist"),
			wantStatus:  http.StatusInternalServerError,
			wantBody:    apperr.ErrorResponse{Error: "pq: relation users does not exist", Code: "INTERNAL_ERROR"},
		},
		{
			name:       "typed internal keeps its message",
			err:        apperr.Internal("Failed to delete photo from storage", errors.New("timeout")),
			wantStatus: http.StatusInternalServerError,
			wantBody:   apperr.ErrorResponse{Error: "Failed to delete photo from storage", Code: "INTERNAL_ERROR"},
		},
		{
			name:        "typed internal adds cause in development",
			development: true,
			err:         apperr.Internal("Failed to delete photo from storage", errors.New("timeout")),
			wantStatus:  http.StatusInternalServerError,
			wantBody:    apperr.ErrorResponse{Error: "Failed to delete photo from storage: timeout", Code: "INTERNAL_ERROR"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.development)
			r.GET("/x", func(c *gin.Context) { _ = c.Error(tt.err) })

			w := serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, decodeError(t, w))
			assert.Equal(t, tt.wantBody.Error, w.Header().Get("Application-Error"))
		})
	}
}

func TestRecovery(t *testing.T) {
	r := newTestRouter(false)
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_server_error", decodeError(t, w).Error)
}

func TestRequestID(t *testing.T) {
	r := newTestRouter(false)
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := serve(r, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Body.String(), 36)
}

func TestRateLimiter(t *testing.T) {
	limiter, err := NewRateLimiter(0.001, 2, 10)
	require.NoError(t, err)

	r := newTestRouter(false)
	r.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "too_many_requests", decodeError(t, w).Error)

	// a different client has its own bucket
	assert.True(t, limiter.Allow("10.0.0.9"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter, err := NewRateLimiter(0, 1, 1)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		require.True(t, limiter.Allow("10.0.0.1"))
	}
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	r := gin.New()
	r.Use(CORS(nil))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:4200")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://dating.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := serve(r, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://dating.example.com")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://dating.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Application-Error")
}
