package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mileto808-collab/MeterFlo-Server-sub001/internal/auth"
)

type contextKey string

const ActorKey contextKey = "actor"

// IdentityMiddleware attaches the acting identity to the request context
// for audit attribution. A bearer token's username wins over the
// X-Acting-User header; an anonymous request is valid and simply omits
// actor attribution downstream. This is not access control.
type IdentityMiddleware struct {
	jwtManager *auth.JWTManager
}

func NewIdentityMiddleware(jwtManager *auth.JWTManager) *IdentityMiddleware {
	return &IdentityMiddleware{jwtManager: jwtManager}
}

func (m *IdentityMiddleware) Attach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ""

		authHeader := r.Header.Get("Authorization")
		if parts := strings.Split(authHeader, " "); len(parts) == 2 && parts[0] == "Bearer" {
			if claims, err := m.jwtManager.ValidateToken(parts[1]); err == nil {
				actor = claims.Username
			}
		}
		if actor == "" {
			actor = r.Header.Get("X-Acting-User")
		}

		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Actor returns the acting identity attached to a request context.
func Actor(ctx context.Context) string {
	if actor, ok := ctx.Value(ActorKey).(string); ok {
		return actor
	}
	return ""
}
