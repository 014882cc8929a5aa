package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/services/auth-service/internal/pkg/jwt"
)

// TenantContext is the caller's business boundary derived from a verified
// session. Every tenant-scoped read takes one.
type TenantContext struct {
	BusinessID string
	UserID     string
	Email      string
}

// Resolve builds a TenantContext from verified claims.
func Resolve(claims *jwt.TokenClaims) (TenantContext, error) {
	if claims == nil {
		return TenantContext{}, pkgErrors.New(pkgErrors.ErrUnauthorized, "unauthorized")
	}

	businessID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return TenantContext{}, pkgErrors.Wrap(fmt.Errorf("tenant claim: %w", err), pkgErrors.ErrUnauthorized, "unauthorized")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return TenantContext{}, pkgErrors.Wrap(fmt.Errorf("subject claim: %w", err), pkgErrors.ErrUnauthorized, "unauthorized")
	}

	return TenantContext{
		BusinessID: businessID.String(),
		UserID:     userID.String(),
		Email:      claims.Email,
	}, nil
}

// Authorize fails with NOT_FOUND_OR_INVALID when businessID is not the
// caller's, so foreign records look exactly like missing ones.
func (tc TenantContext) Authorize(businessID string) error {
	if tc.BusinessID == "" || businessID != tc.BusinessID {
		return pkgErrors.New(pkgErrors.ErrNotFoundOrInvalid, "not found")
	}
	return nil
}

type tenantKey struct{}

func WithTenant(ctx context.Context, tc TenantContext) context.Context {
	return context.WithValue(ctx, tenantKey{}, tc)
}

func TenantFromContext(ctx context.Context) (TenantContext, bool) {
	tc, ok := ctx.Value(tenantKey{}).(TenantContext)
	return tc, ok
}
