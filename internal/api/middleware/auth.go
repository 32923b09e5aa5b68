package middleware

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/service"
)

type contextKey string

const (
	RequesterKey contextKey = "requester"
)

const UnauthenticatedMessage = "Unauthenticated."

// Auth resolves the bearer token to a Requester before the handler runs.
// Missing, malformed, expired or revoked tokens stop the request with a 401.
func Auth(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				log.Printf("ERROR [middleware.Auth] missing authorization header")
				unauthenticated(w)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				log.Printf("ERROR [middleware.Auth] invalid authorization header format")
				unauthenticated(w)
				return
			}

			requester, err := authService.Authenticate(r.Context(), parts[1])
			if err != nil {
				log.Printf("ERROR [middleware.Auth] token validation failed: %v", err)
				unauthenticated(w)
				return
			}

			ctx := context.WithValue(r.Context(), RequesterKey, *requester)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetRequester(ctx context.Context) (domain.Requester, bool) {
	requester, ok := ctx.Value(RequesterKey).(domain.Requester)
	return requester, ok
}

func unauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"message": UnauthenticatedMessage})
}
