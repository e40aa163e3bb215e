package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticator(t *testing.T) {
	now := time.Date(2024, 1, 14, 10, 0, 0, 0, time.UTC)
	a := New("s3cret").WithClock(func() time.Time { return now })

	t.Run("IssueAndVerify", func(t *testing.T) {
		token, err := a.Issue("cli", time.Hour)
		require.NoError(t, err)

		claims, err := a.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "cli", claims.Subject)
		assert.Equal(t, "meal-planner", claims.Issuer)
	})

	t.Run("RawSecret", func(t *testing.T) {
		claims, err := a.Verify("s3cret")
		require.NoError(t, err)
		assert.Equal(t, "cron", claims.Subject)
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := a.Issue("cli", time.Minute)
		require.NoError(t, err)

		later := New("s3cret").WithClock(func() time.Time { return now.Add(time.Hour) })
		_, err = later.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		token, err := New("other").WithClock(func() time.Time { return now }).Issue("cli", time.Hour)
		require.NoError(t, err)

		_, err = a.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongAlgorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"iss": "meal-planner"}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = a.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := a.Verify("")
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestMiddleware(t *testing.T) {
	a := New("s3cret")
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"NoHeader", "", http.StatusUnauthorized},
		{"WrongSecret", "Bearer nope", http.StatusUnauthorized},
		{"NotBearer", "Basic s3cret", http.StatusUnauthorized},
		{"Secret", "Bearer s3cret", http.StatusNoContent},
		{"LowercaseScheme", "bearer s3cret", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/cron/weekly", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	t.Run("SignedToken", func(t *testing.T) {
		token, err := a.Issue("cli", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/init", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
