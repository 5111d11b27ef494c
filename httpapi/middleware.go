package httpapi

import (
	"net/http"
	"strings"

	"bell-registry/auth"
	"bell-registry/errors"
)

// authenticate resolves the caller from a bearer token, or from a "token"
// query parameter for the event stream: the browser EventSource API cannot
// set request headers.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := bearerToken(r)
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}
		if tokenString == "" {
			writeError(s.log, w, errors.ErrUnauthorized)
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			writeError(s.log, w, err)
			return
		}

		identity := Identity{UserID: claims.UserID, Role: claims.Role}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}
