package middleware

import (
	"context"
	"net/http"
	"strings"

	"safepets-citas/internal/ports/auth"
)

type ctxKey string

const (
	claimsKey ctxKey = "claims"
	tokenKey  ctxKey = "token"
)

// AuthContext:
// - Si verifier != nil y viene Bearer token => intenta Verify() y setea claims.
// - Si verifier == nil => modo dev: los headers X-Debug-User-ID,
//   X-Debug-Email y X-Debug-Role inyectan la identidad.
// - El bearer crudo se guarda siempre en el contexto para reenviarlo
//   al backend (este servicio no es dueño de la sesión).
// - Si no hay claims, el request sigue igual; los handlers deciden si
//   exigen auth.
func AuthContext(verifier auth.AuthVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			ctx := r.Context()
			if token != "" {
				ctx = context.WithValue(ctx, tokenKey, token)
			}

			if verifier == nil {
				// Dev mode: permitir inyectar identidad sin verifier.
				if uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID")); uid != "" {
					claims := auth.Claims{
						UserID: uid,
						Email:  strings.TrimSpace(r.Header.Get("X-Debug-Email")),
						Role:   strings.TrimSpace(r.Header.Get("X-Debug-Role")),
					}
					ctx = context.WithValue(ctx, claimsKey, claims)
				}
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if token == "" {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			claims, err := verifier.Verify(ctx, token)
			if err != nil {
				// No cortamos acá; el handler decide 401/403.
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClaims(ctx context.Context) (auth.Claims, bool) {
	v := ctx.Value(claimsKey)
	if v == nil {
		return auth.Claims{}, false
	}
	c, ok := v.(auth.Claims)
	return c, ok
}

// GetToken devuelve el bearer crudo del request, para passthrough.
func GetToken(ctx context.Context) string {
	v := ctx.Value(tokenKey)
	if v == nil {
		return ""
	}
	t, _ := v.(string)
	return t
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
