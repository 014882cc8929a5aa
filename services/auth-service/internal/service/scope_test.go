package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgErrors "BizBooksPlatform/pkg/errors"
	"BizBooksPlatform/services/auth-service/internal/pkg/jwt"
	"BizBooksPlatform/services/auth-service/internal/service"
)

func TestResolve(t *testing.T) {
	businessID := uuid.NewString()
	userID := uuid.NewString()

	claims := &jwt.TokenClaims{TenantID: businessID, Email: "a@example.com"}
	claims.Subject = userID

	tc, err := service.Resolve(claims)
	require.NoError(t, err)
	assert.Equal(t, businessID, tc.BusinessID)
	assert.Equal(t, userID, tc.UserID)
	assert.Equal(t, "a@example.com", tc.Email)
}

func TestResolve_RejectsBadClaims(t *testing.T) {
	_, err := service.Resolve(nil)
	requireCode(t, err, pkgErrors.ErrUnauthorized)

	claims := &jwt.TokenClaims{TenantID: "tenant-1"}
	claims.Subject = uuid.NewString()
	_, err = service.Resolve(claims)
	requireCode(t, err, pkgErrors.ErrUnauthorized)

	claims = &jwt.TokenClaims{TenantID: uuid.NewString()}
	claims.Subject = "root"
	_, err = service.Resolve(claims)
	requireCode(t, err, pkgErrors.ErrUnauthorized)
}

func TestTenantContext_Authorize(t *testing.T) {
	tc := service.TenantContext{BusinessID: "b-1"}

	assert.NoError(t, tc.Authorize("b-1"))
	requireCode(t, tc.Authorize("b-2"), pkgErrors.ErrNotFoundOrInvalid)
	requireCode(t, service.TenantContext{}.Authorize(""), pkgErrors.ErrNotFoundOrInvalid)
}

func TestTenantFromContext(t *testing.T) {
	_, ok := service.TenantFromContext(context.Background())
	assert.False(t, ok)

	ctx := service.WithTenant(context.Background(), service.TenantContext{BusinessID: "b-1"})
	tc, ok := service.TenantFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "b-1", tc.BusinessID)
}
