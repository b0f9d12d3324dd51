package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/auth"
)

// Auth resolves the actor from a Bearer access token. Websocket clients that
// cannot set headers may pass the token as the access_token query parameter.
func Auth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				tok = r.URL.Query().Get("access_token")
			}

			if tok != "" {
				claims, err := auth.ValidateToken(jwtSecret, tok)
				if err == nil && claims.IsAccess() {
					actor := claims.Actor()
					if actor.Valid() {
						next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
						return
					}
					log.Warn().Str("uid", claims.UserID).Msg("auth: token carries an invalid actor")
				}
			}

			http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}
