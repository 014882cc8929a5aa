package middleware

import (
	"net/http"
	"strings"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/pkg/logger"
	"BizBooksPlatform/services/auth-service/internal/pkg/jwt"
	"BizBooksPlatform/services/auth-service/internal/service"
)

// TokenVerifier checks a bearer token. *jwt.Manager implements it.
type TokenVerifier interface {
	Verify(token string) (*jwt.TokenClaims, error)
}

// Authenticate requires a valid bearer token and stores the caller's
// TenantContext in the request context. Every failure is a bare 401; the
// reason only goes to the log.
func Authenticate(verifier TokenVerifier, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, r, log, "missing bearer token", nil)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				unauthorized(w, r, log, "token rejected", err)
				return
			}

			tc, err := service.Resolve(claims)
			if err != nil {
				unauthorized(w, r, log, "claims rejected", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(service.WithTenant(r.Context(), tc)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, r *http.Request, log logger.Logger, reason string, err error) {
	fields := []logger.Field{
		logger.CtxField(r.Context()),
		logger.String("reason", reason),
		logger.String("path", r.URL.Path),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	log.Warn("authentication failed", fields...)
	pkgErrors.WriteJSON(w, pkgErrors.New(pkgErrors.ErrUnauthorized, "unauthorized"))
}
