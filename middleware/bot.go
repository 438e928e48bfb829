package middleware

import (
	"crypto/subtle"
	"net/http"
)

// BotKeyHeader carries the shared secret the bot presents when calling the
// code-issuing endpoint.
const BotKeyHeader = "X-Bot-Api-Key"

// AuthenticateBot admits only callers holding the bot shared secret. Login
// codes grant a session for the named identity, so the endpoint issuing them
// must never be reachable anonymously. An empty configured key disables the
// endpoint entirely rather than opening it up.
func AuthenticateBot(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(BotKeyHeader)
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
