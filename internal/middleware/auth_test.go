package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func signTestToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

func TestAuthMiddleware(t *testing.T) {
	viper.Set("jwt.secret_key", "test-secret")

	var gotUserID, gotRole any
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = r.Context().Value("userID")
		gotRole = r.Context().Value("role")
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(next)

	t.Run("valid token passes identity into the context", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"sub":  "u1",
			"role": "user",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}, "test-secret")

		r := httptest.NewRequest("GET", "/card/get_all_cards", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "u1", gotUserID)
		assert.Equal(t, "user", gotRole)
	})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/card/get_all_cards", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed header is unauthorized", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/card/get_all_cards", nil)
		r.Header.Set("Authorization", "token-without-scheme")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired token is unauthorized", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"sub":  "u1",
			"role": "user",
			"exp":  time.Now().Add(-time.Hour).Unix(),
		}, "test-secret")

		r := httptest.NewRequest("GET", "/card/get_all_cards", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token signed with a different key is unauthorized", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"sub":  "u1",
			"role": "user",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}, "other-secret")

		r := httptest.NewRequest("GET", "/card/get_all_cards", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without sub is unauthorized", func(t *testing.T) {
		token := signTestToken(t, jwt.MapClaims{
			"role": "user",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}, "test-secret")

		r := httptest.NewRequest("GET", "/card/get_all_cards", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
