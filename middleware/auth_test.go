package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/crichub/cricket-auction/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func protectedEndpoint(auth *Authenticator, roles ...models.UserRole) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("X-User-ID", strconv.Itoa(userID))
		w.WriteHeader(http.StatusOK)
	})
	if len(roles) > 0 {
		return auth.Authenticate(RequireRole(roles...)(inner))
	}
	return auth.Authenticate(inner)
}

func TestAuthenticate(t *testing.T) {
	auth := NewAuthenticator("secret")
	claims := jwt.MapClaims{
		"user_id": 7,
		"role":    "owner",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	t.Run("valid token passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", claims))
		rec := httptest.NewRecorder()

		protectedEndpoint(auth).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		protectedEndpoint(auth).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "other", claims))
		rec := httptest.NewRecorder()

		protectedEndpoint(auth).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired := jwt.MapClaims{
			"user_id": 7,
			"role":    "owner",
			"exp":     time.Now().Add(-time.Hour).Unix(),
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", expired))
		rec := httptest.NewRecorder()

		protectedEndpoint(auth).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	auth := NewAuthenticator("secret")

	request := func(role string) *http.Request {
		claims := jwt.MapClaims{
			"user_id": 7,
			"role":    role,
			"exp":     time.Now().Add(time.Hour).Unix(),
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "secret", claims))
		return req
	}

	t.Run("matching role passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protectedEndpoint(auth, models.RoleAdmin).ServeHTTP(rec, request("admin"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("any listed role passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protectedEndpoint(auth, models.RoleOwner, models.RoleAdmin).ServeHTTP(rec, request("owner"))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unlisted role is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protectedEndpoint(auth, models.RoleAdmin).ServeHTTP(rec, request("player"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
