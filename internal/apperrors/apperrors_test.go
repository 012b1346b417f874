package apperrors_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"couponhub/internal/apperrors"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    *apperrors.Error
		status int
	}{
		{apperrors.Validation("bad"), http.StatusBadRequest},
		{apperrors.Conflict("dup"), http.StatusBadRequest},
		{apperrors.NotFound("missing"), http.StatusNotFound},
		{apperrors.Unauthorized("who"), http.StatusUnauthorized},
		{apperrors.Forbidden("no"), http.StatusForbidden},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.Status(), tc.err.Kind.String())
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", apperrors.NotFound("store %s not found", "x"))
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
	assert.True(t, apperrors.Is(err, apperrors.KindNotFound))
	assert.False(t, apperrors.Is(nil, apperrors.KindNotFound))
	assert.Equal(t, apperrors.KindUnexpected, apperrors.KindOf(errors.New("plain")))
}

func TestUnexpectedKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := apperrors.Unexpected(cause, "could not save store")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, fmt.Sprintf("%+v", errors.Unwrap(err)), "apperrors_test")
	assert.Nil(t, apperrors.Unexpected(nil, "ignored"))
}

func TestUnexpectedFormatsStack(t *testing.T) {
	err := apperrors.Unexpected(errors.New("db down"), "failed to get store")

	assert.Equal(t, "failed to get store: db down", err.Error())
	assert.Equal(t, "failed to get store: db down", fmt.Sprintf("%v", err))

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, "failed to get store: db down")
	assert.Contains(t, verbose, "apperrors_test.go:")
	assert.Contains(t, verbose, "TestUnexpectedFormatsStack")
}
