package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/itamhack/hackathon-system/services"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	adminContextKey    contextKey = "admin_id"
)

// Session cookies. Participant and admin sessions are kept apart so an admin
// token never passes participant checks and vice versa.
const (
	ParticipantCookie = "access_token"
	AdminCookie       = "admin_access_token"
)

// Authenticate verifies the participant session cookie and puts the caller's
// identity into the request context.
func Authenticate(auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(ParticipantCookie)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			identity, err := auth.ValidateToken(cookie.Value, services.AudienceParticipant)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthenticateAdmin verifies the admin session cookie and puts the admin id
// into the request context.
func AuthenticateAdmin(auth services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AdminCookie)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			subject, err := auth.ValidateToken(cookie.Value, services.AudienceAdmin)
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			adminID, err := strconv.Atoi(subject)
			if err != nil || adminID <= 0 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), adminContextKey, adminID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
