package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func authTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"org_id":  c.GetString("org_id"),
		})
	})
	return router
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func requestWithToken(router *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAuthMiddleware(t *testing.T) {
	router := authTestRouter()

	t.Run("valid token passes through", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"user_id": "driver-1",
			"org_id":  "org-eft",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		recorder := requestWithToken(router, token)
		require.Equal(t, http.StatusOK, recorder.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
		assert.Equal(t, "driver-1", body["user_id"])
		assert.Equal(t, "org-eft", body["org_id"])
	})

	t.Run("missing header", func(t *testing.T) {
		recorder := requestWithToken(router, "")
		assertSessionExpired(t, recorder)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token abc123")
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, req)
		assertSessionExpired(t, recorder)
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"user_id": "driver-1",
			"exp":     time.Now().Add(-time.Minute).Unix(),
		})
		assertSessionExpired(t, requestWithToken(router, token))
	})

	t.Run("wrong secret", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{
			"user_id": "driver-1",
			"exp":     time.Now().Add(time.Hour).Unix(),
		})
		assertSessionExpired(t, requestWithToken(router, token))
	})

	t.Run("missing user claim", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		assertSessionExpired(t, requestWithToken(router, token))
	})
}

func assertSessionExpired(t *testing.T, recorder *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusUnauthorized, recorder.Code)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, CodeSessionExpired, body.Code)
}
