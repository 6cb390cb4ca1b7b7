package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	require.Equal(t, CodeNotFound, CodeOf(NotFound("gone")))
	require.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	require.Equal(t, CodeUnknown, CodeOf(nil))

	// Codes survive wrapping.
	wrapped := fmt.Errorf("outer: %w", Forbidden("nope"))
	require.Equal(t, CodePermissionDenied, CodeOf(wrapped))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("driver: bad connection")
	err := Internal("query failed", cause)

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "query failed")
	require.Contains(t, err.Error(), "driver: bad connection")
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodePermissionDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, HTTPStatus(tt.code), "code %s", tt.code)
	}
}
