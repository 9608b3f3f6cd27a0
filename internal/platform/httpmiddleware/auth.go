package httpmiddleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"linkbin.local/internal/platform/auth"
)

func parseBearer(header string) string {
	fields := strings.Fields(header)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return ""
	}
	return fields[1]
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// AuthRequired rejects requests without a valid bearer token and injects the
// caller identity into the request context.
func AuthRequired(ts auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "missing authorization header")
				return
			}
			token := parseBearer(header)
			if token == "" {
				unauthorized(w, "invalid authorization format")
				return
			}
			claims, err := ts.Verify(token)
			if err != nil {
				unauthorized(w, "invalid token")
				return
			}
			ctx := auth.WithIdentity(r.Context(), auth.Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
