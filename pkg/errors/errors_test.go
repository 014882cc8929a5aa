package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError(t *testing.T) {
	e := New(ErrNotFoundOrInvalid, "code is invalid or expired")

	assert.Equal(t, ErrNotFoundOrInvalid, e.Code)
	assert.Equal(t, "code is invalid or expired", e.Error())
	assert.Nil(t, e.Cause)
}

func TestWrapError(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	e := Wrap(cause, ErrInternal, "failed to save user")

	require.NotNil(t, e)
	assert.Equal(t, "failed to save user: connection refused", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Nil(t, Wrap(nil, ErrInternal, "nothing"))
}

func TestWithDetailsAndContextCopy(t *testing.T) {
	e := New(ErrValidation, "invalid input")
	withDetails := e.WithDetails("email: must be a valid email address")
	ctx := context.WithValue(context.Background(), struct{}{}, "v")
	withCtx := withDetails.WithContext(ctx)

	assert.Empty(t, e.Details)
	assert.Equal(t, "email: must be a valid email address", withDetails.Details)
	assert.Equal(t, withDetails.Details, withCtx.Details)
	assert.Equal(t, ctx, withCtx.Context)
	assert.Nil(t, withDetails.Context)
}

func TestIsMatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("login: %w", New(ErrUnauthorized, "invalid credentials"))

	assert.ErrorIs(t, wrapped, New(ErrUnauthorized, "anything"))
	assert.True(t, IsCode(wrapped, ErrUnauthorized))
	assert.False(t, IsCode(wrapped, ErrConflict))
	assert.False(t, IsCode(fmt.Errorf("plain"), ErrInternal))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrValidation:        http.StatusBadRequest,
		ErrNotFoundOrInvalid: http.StatusNotFound,
		ErrUnauthorized:      http.StatusUnauthorized,
		ErrForbidden:         http.StatusForbidden,
		ErrConflict:          http.StatusConflict,
		ErrRateLimited:       http.StatusTooManyRequests,
		ErrInternal:          http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus(), code)
	}

	var nilErr *Error
	assert.Equal(t, http.StatusOK, nilErr.HTTPStatus())
}

func TestGetUserMessageHidesInternalText(t *testing.T) {
	internal := Wrap(fmt.Errorf("pq: relation users does not exist"), ErrInternal, "failed to find user")
	assert.Equal(t, "internal server error", internal.GetUserMessage())

	assert.Equal(t, "invalid credentials", New(ErrUnauthorized, "invalid credentials").GetUserMessage())
	assert.Equal(t, "conflict", New(ErrConflict, "").GetUserMessage())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	typed := New(ErrConflict, "email already registered")
	assert.Same(t, typed, FromError(fmt.Errorf("wrap: %w", typed)))

	plain := FromError(fmt.Errorf("disk full"))
	assert.Equal(t, ErrInternal, plain.Code)
}

func TestWriteJSON(t *testing.T) {
	t.Run("validation error keeps details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteJSON(rec, New(ErrValidation, "invalid request").WithDetails("email: cannot be blank"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "VALIDATION_ERROR", body["error"]["code"])
		assert.Equal(t, "email: cannot be blank", body["error"]["details"])
	})

	t.Run("internal error hides cause and details", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteJSON(rec, Wrap(fmt.Errorf("secret dsn"), ErrInternal, "db down").WithDetails("host=db"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "secret dsn")
		assert.NotContains(t, rec.Body.String(), "host=db")
		assert.Contains(t, rec.Body.String(), "internal server error")
	})

	t.Run("untyped error becomes internal", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteJSON(rec, fmt.Errorf("boom"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
