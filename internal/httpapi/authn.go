package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"kulturabooking.org/internal/auth"
	"kulturabooking.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/api",
	"/api/",
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/forgot-password",
	"/api/webhook/stripe",
	"/healthz",
	"/readyz",
	"/metrics",
	"/",
}

var publicPrefixes = []string{
	"/api/programs/public/",
	"/api/bookings/public/",
	"/api/settings/theme/public/",
}

// withAuth resolves the bearer token into a tenant identity. Expired and
// structurally invalid tokens are counted separately for metrics but the
// client always gets the same uniform 401, so token state cannot be probed.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			obs.ObserveTokenVerification("invalid")
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := a.auth.Tokens().Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				obs.ObserveTokenVerification("expired")
			} else {
				obs.ObserveTokenVerification("invalid")
			}
			writeError(w, r, http.StatusUnauthorized, "authentication required")
			return
		}
		obs.ObserveTokenVerification("ok")

		ctx := auth.ContextWithIdentity(r.Context(), auth.Identity{
			UserID:        claims.UserID,
			InstitutionID: claims.InstitutionID,
			Email:         claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
