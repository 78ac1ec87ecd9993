package httpx

import (
	"net/http"
	"strings"

	"bookshelf/internal/auth"
)

// TokenVerifier turns a bearer token into a verified caller.
type TokenVerifier interface {
	Verify(token string) (auth.Caller, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the verified caller in the request context.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}
			token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

			caller, err := verifier.Verify(token)
			if err != nil || !caller.Valid() {
				JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
				return
			}

			setLoggedUser(r, caller.UserID)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithCaller(r.Context(), caller)))
		})
	}
}

// CallerFrom returns the verified caller or writes a 401 and reports false.
func CallerFrom(w http.ResponseWriter, r *http.Request) (auth.Caller, bool) {
	caller, ok := auth.CallerFrom(r.Context())
	if !ok {
		JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	return caller, ok
}
