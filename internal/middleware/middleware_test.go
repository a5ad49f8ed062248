package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/mockview-backend/internal/response"
	"github.com/stemsi/mockview-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	tokenErr   error
	sessionErr error
}

func (f fakeAuth) ValidateToken(tokenStr string) (*service.Claims, error) {
	if f.tokenErr != nil {
		return nil, f.tokenErr
	}
	return &service.Claims{UserID: 7, RegisteredClaims: jwt.RegisteredClaims{ID: tokenStr}}, nil
}

func (f fakeAuth) ValidateSession(context.Context, *service.Claims) error {
	return f.sessionErr
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestRequireUserJWT(t *testing.T) {
	cases := []struct {
		name   string
		auth   fakeAuth
		header string
		status int
		code   response.ErrCode
	}{
		{"missing", fakeAuth{}, "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"not bearer", fakeAuth{}, "Basic abc", http.StatusUnauthorized, response.ErrTokenRequired},
		{"expired", fakeAuth{tokenErr: fmt.Errorf("parse token: %w", jwt.ErrTokenExpired)}, "Bearer t", http.StatusUnauthorized, response.ErrTokenExpired},
		{"invalid", fakeAuth{tokenErr: errors.New("bad")}, "Bearer t", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"revoked", fakeAuth{sessionErr: service.ErrTokenRevoked}, "Bearer t", http.StatusUnauthorized, response.ErrTokenRevoked},
		{"redis down", fakeAuth{sessionErr: errors.New("dial tcp")}, "Bearer t", http.StatusInternalServerError, response.ErrInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", RequireUserJWT(tc.auth), func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
}

func TestRequireUserJWTSetsClaims(t *testing.T) {
	r := gin.New()
	r.GET("/", RequireUserJWT(fakeAuth{}), func(c *gin.Context) {
		claims := GetClaims(c)
		require.NotNil(t, claims)
		c.String(http.StatusOK, "%d:%s", claims.UserID, claims.ID)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer tok-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7:tok-1", w.Body.String())
}

func TestRateLimiterPerCaller(t *testing.T) {
	rl := NewRateLimiter(2)
	r := gin.New()
	r.GET("/", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("10.0.0.1"))
	assert.Equal(t, http.StatusOK, hit("10.0.0.2"))
}

func TestRateLimiterRefillsAndSweeps(t *testing.T) {
	rl := NewRateLimiter(1)
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.allow("a"))
	assert.False(t, rl.allow("a"))

	now = now.Add(time.Minute)
	assert.True(t, rl.allow("a"))

	now = now.Add(10 * time.Minute)
	rl.allow("b")
	rl.mu.Lock()
	_, kept := rl.visitors["a"]
	rl.mu.Unlock()
	assert.False(t, kept)
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	large := strings.Repeat("interview report ", 200)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=1.0")
	r.ServeHTTP(w, req)

	require.Equal(t, "br", w.Header().Get("Content-Encoding"))
	body, err := io.ReadAll(brotli.NewReader(w.Body))
	require.NoError(t, err)
	assert.Equal(t, large, string(body))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/large", nil))
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, large, w.Body.String())
}

func TestNoStore(t *testing.T) {
	r := gin.New()
	r.GET("/", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
