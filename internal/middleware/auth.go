package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type contextKey string

const usernameCtxKey = contextKey("username")

// InvalidTokenMessage is the body of every 401 caused by a bad credential
const InvalidTokenMessage = "Invalid JWT Token"

// Authenticator verifies a bearer token and yields the caller's username
type Authenticator interface {
	Authenticate(token string) (string, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's username in the request context.
func AuthMiddleware(auth Authenticator, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.WithField("path", r.URL.Path).Debug("Missing or malformed Authorization header")
				http.Error(w, InvalidTokenMessage, http.StatusUnauthorized)
				return
			}

			username, err := auth.Authenticate(token)
			if err != nil {
				log.WithField("path", r.URL.Path).WithError(err).Debug("Token rejected")
				http.Error(w, InvalidTokenMessage, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), usernameCtxKey, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// UsernameFromContext returns the authenticated caller's username
func UsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameCtxKey).(string)
	return username, ok && username != ""
}
