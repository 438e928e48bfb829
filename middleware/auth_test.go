package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/itamhack/hackathon-system/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth() services.AuthService {
	return services.NewAuthService(nil, nil, "test-secret", time.Hour, time.Minute, 6)
}

func TestAuthenticate(t *testing.T) {
	auth := newTestAuth()

	var gotIdentity string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromContext(r.Context())
		require.NoError(t, err)
		gotIdentity = identity
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(auth)(next)

	t.Run("valid cookie passes", func(t *testing.T) {
		token, err := auth.GenerateToken("12345", services.AudienceParticipant)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.AddCookie(&http.Cookie{Name: ParticipantCookie, Value: token})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "12345", gotIdentity)
	})

	t.Run("missing cookie is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.AddCookie(&http.Cookie{Name: ParticipantCookie, Value: "garbage"})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin token is rejected on participant routes", func(t *testing.T) {
		token, err := auth.GenerateToken("1", services.AudienceAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.AddCookie(&http.Cookie{Name: ParticipantCookie, Value: token})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthenticateAdmin(t *testing.T) {
	auth := newTestAuth()

	var gotAdminID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		adminID, err := AdminIDFromContext(r.Context())
		require.NoError(t, err)
		gotAdminID = adminID
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthenticateAdmin(auth)(next)

	t.Run("valid admin cookie passes", func(t *testing.T) {
		token, err := auth.GenerateToken("7", services.AudienceAdmin)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/hackathons", nil)
		req.AddCookie(&http.Cookie{Name: AdminCookie, Value: token})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 7, gotAdminID)
	})

	t.Run("participant token is rejected on admin routes", func(t *testing.T) {
		token, err := auth.GenerateToken("12345", services.AudienceParticipant)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/hackathons", nil)
		req.AddCookie(&http.Cookie{Name: AdminCookie, Value: token})
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
