package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type subjectKey struct{}

// ParseToken validates an HS256 token signed with secret and returns its claims.
// Expiry and not-before are enforced by the parser; a subject is required.
func ParseToken(token string, secret []byte) (*jwt.RegisteredClaims, error) {
	if token == "" {
		return nil, errors.New("middleware.ParseToken: empty token")
	}
	if len(secret) == 0 {
		return nil, errors.New("middleware.ParseToken: empty secret")
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("middleware.ParseToken: invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("middleware.ParseToken: missing subject")
	}
	return claims, nil
}

// NewJWTAuth returns a middleware that requires "Authorization: Bearer <jwt>"
// issued by the identity provider. The token subject is stored in the request
// context; read it with SubjectFrom.
func NewJWTAuth(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}
			claims, err := ParseToken(raw, secret)
			if err != nil {
				log.DebugContext(r.Context(), "rejected token", "path", r.URL.Path, "error", err)
				writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
				return
			}
			ctx := context.WithValue(r.Context(), subjectKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SubjectFrom returns the authenticated subject, if any.
func SubjectFrom(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(subjectKey{}).(string)
	return s, ok && s != ""
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
