package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret, subject string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func newAuthRouter(m *AuthMiddleware) *gin.Engine {
	router := gin.New()
	router.GET("/me", m.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_id"))
	})
	router.POST("/internal", m.RequireInternalToken(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestRequireAuth(t *testing.T) {
	router := newAuthRouter(NewAuthMiddleware(testSecret, "internal"))
	userID := uuid.New().String()

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer " + signToken(t, testSecret, userID, time.Hour), http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + signToken(t, testSecret, userID, time.Hour), http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", userID, time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, userID, -time.Minute), http.StatusUnauthorized},
		{"subject not a uuid", "Bearer " + signToken(t, testSecret, "alice", time.Hour), http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusOK {
				require.Equal(t, userID, rec.Body.String())
			}
		})
	}
}

func TestRequireInternalToken(t *testing.T) {
	router := newAuthRouter(NewAuthMiddleware(testSecret, "s3cret"))

	cases := map[string]struct {
		token string
		want  int
	}{
		"matching token": {"s3cret", http.StatusNoContent},
		"wrong token":    {"guess", http.StatusForbidden},
		"missing token":  {"", http.StatusForbidden},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal", nil)
			if tc.token != "" {
				req.Header.Set(InternalTokenHeader, tc.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireInternalTokenUnconfigured(t *testing.T) {
	router := newAuthRouter(NewAuthMiddleware(testSecret, ""))

	req := httptest.NewRequest(http.MethodPost, "/internal", nil)
	req.Header.Set(InternalTokenHeader, "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}
