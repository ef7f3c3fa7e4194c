package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{name: "domain error passes through", err: NewForbidden("nope"), wantCode: CodeForbidden, wantStatus: http.StatusForbidden},
		{name: "wrapped domain error", err: fmt.Errorf("ctx: %w", NewConflict("dup")), wantCode: CodeConflict, wantStatus: http.StatusConflict},
		{name: "no rows", err: pgx.ErrNoRows, wantCode: CodeNotFound, wantStatus: http.StatusNotFound},
		{name: "unique violation", err: &pgconn.PgError{Code: "23505"}, wantCode: CodeConflict, wantStatus: http.StatusConflict},
		{name: "fk violation", err: &pgconn.PgError{Code: "23503"}, wantCode: CodeBadRequest, wantStatus: http.StatusBadRequest},
		{name: "fiber not found", err: fiber.NewError(http.StatusNotFound, "Cannot GET /x"), wantCode: CodeNotFound, wantStatus: http.StatusNotFound},
		{name: "fiber payload too large", err: fiber.ErrRequestEntityTooLarge, wantCode: CodeBadRequest, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "unknown", err: errors.New("boom"), wantCode: CodeInternal, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
}

func TestDomainErrorStatus(t *testing.T) {
	assert.Equal(t, "fail", ToDomainError(NewBadRequest("x")).Status())
	assert.Equal(t, "fail", ToDomainError(NewTooManyRequests("slow down")).Status())
	assert.Equal(t, "error", ToDomainError(NewInternalError(errors.New("db down"))).Status())

	assert.True(t, ToDomainError(NewNotFound("Team not found")).Operational())
	assert.False(t, ToDomainError(errors.New("db down")).Operational())
}

func TestInternalErrorMasksCause(t *testing.T) {
	cause := errors.New("connection refused")
	de := ToDomainError(NewInternalError(cause))
	assert.Equal(t, "Internal Server Error", de.Message)
	assert.ErrorIs(t, de, cause)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(pgx.ErrNoRows))
	assert.True(t, IsNotFound(NewNotFound("User not found")))
	assert.False(t, IsNotFound(NewForbidden("x")))
	assert.False(t, IsNotFound(nil))
}
