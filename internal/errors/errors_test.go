package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	t.Run("Error returns formatted string", func(t *testing.T) {
		err := New(ErrCodeNotFound, "User not found")
		assert.Equal(t, "NOT_FOUND: User not found", err.Error())
	})

	t.Run("Error with cause includes cause", func(t *testing.T) {
		cause := errors.New("database connection failed")
		err := Wrap(ErrCodeDatabase, "Database error", cause)
		assert.Contains(t, err.Error(), "DATABASE_ERROR")
		assert.Contains(t, err.Error(), "database connection failed")
	})

	t.Run("WithCause adds cause to error", func(t *testing.T) {
		cause := errors.New("original error")
		err := New(ErrCodeInternal, "Something went wrong").WithCause(cause)
		assert.Equal(t, cause, err.Unwrap())
	})

	t.Run("WithDetails adds details to error", func(t *testing.T) {
		details := map[string]string{"field": "comment"}
		err := New(ErrCodeValidation, "Validation failed").WithDetails(details)
		assert.Equal(t, details, err.Details)
	})
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name         string
		constructor  func() *AppError
		expectedCode ErrorCode
	}{
		{"Unauthorized", func() *AppError { return Unauthorized("test") }, ErrCodeUnauthorized},
		{"Forbidden", func() *AppError { return Forbidden("test") }, ErrCodeForbidden},
		{"NotFound", func() *AppError { return NotFound("Session") }, ErrCodeNotFound},
		{"InvalidRequest", func() *AppError { return InvalidRequest("bad url") }, ErrCodeInvalidRequest},
		{"NoEligibleSession", func() *AppError { return NoEligibleSession() }, ErrCodeNoEligibleSession},
		{"SessionInvalid", func() *AppError { return SessionInvalid("expired") }, ErrCodeSessionInvalid},
		{"MissingRequired", func() *AppError { return MissingRequired("cookies") }, ErrCodeMissingRequired},
		{"RateLimitExceeded", func() *AppError { return RateLimitExceeded() }, ErrCodeRateLimitExceeded},
		{"Internal", func() *AppError { return Internal("boom") }, ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedCode, tt.constructor().Code)
		})
	}

	t.Run("NoEligibleSession carries the standard message", func(t *testing.T) {
		assert.Equal(t, "No active Facebook sessions available", NoEligibleSession().Message)
	})
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, GetCode(NotFound("x")))
	assert.Equal(t, ErrCodeInternal, GetCode(errors.New("plain")))
}

func TestAsAppError(t *testing.T) {
	t.Run("unwraps nested app errors", func(t *testing.T) {
		wrapped := Internal("outer").WithCause(NotFound("inner"))
		appErr, ok := AsAppError(wrapped)
		assert.True(t, ok)
		assert.Equal(t, ErrCodeInternal, appErr.Code)
	})

	t.Run("plain error is not an app error", func(t *testing.T) {
		_, ok := AsAppError(errors.New("plain"))
		assert.False(t, ok)
	})
}
