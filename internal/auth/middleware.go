package auth

import (
	"net/http"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/platform/httputil"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// Authenticate resolves the access token from the Authorization header, or from the
// access_token query parameter for websocket upgrades, and stores the session in the context.
func Authenticate(s *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := s.Authenticate(r.Context(), bearerToken(r))
			if err != nil {
				httputil.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return r.URL.Query().Get("access_token")
}

// RequireRole rejects sessions with a different role. It must run after Authenticate.
func RequireRole(role quiz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFrom(r.Context())
			if !ok {
				httputil.WriteError(w, r, errors.Unauthenticated("missing session"))
				return
			}
			if session.Role != role {
				httputil.WriteError(w, r, errors.PermissionDenied("only %ss can do this", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
