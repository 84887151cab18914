package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	cases := map[ErrorCode]int{
		ErrValidation:         http.StatusBadRequest,
		ErrInvalidParams:      http.StatusBadRequest,
		ErrUnauthorized:       http.StatusUnauthorized,
		ErrInvalidCredentials: http.StatusUnauthorized,
		ErrNotFound:           http.StatusNotFound,
		ErrDatabaseInsert:     http.StatusInternalServerError,
		ErrorCode(9999):       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), "code %d", code)
	}
}

func TestWithFieldAccumulates(t *testing.T) {
	err := Validation("title", "a").WithField("title", "b").WithField("tag_ids", "c")

	assert.Equal(t, []string{"a", "b"}, err.Fields["title"])
	assert.Equal(t, []string{"c"}, err.Fields["tag_ids"])
	assert.False(t, err.IsInternal())
}

func TestGetAppErrorThroughWrapping(t *testing.T) {
	base := NotFound()
	wrapped := fmt.Errorf("get note: %w", base)

	got, ok := GetAppError(wrapped)
	assert.True(t, ok)
	assert.Same(t, base, got)
	assert.True(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(stderrors.New("plain"), ErrNotFound))
}

func TestInternalKeepsOriginal(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Internal(ErrDatabaseInsert, cause)

	assert.True(t, err.IsInternal())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "disk full", err.Details)
}
