package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageErrors_HideCause(t *testing.T) {
	cause := errors.New("minio: connection refused")

	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"write", NewStorageWriteError(cause), CodeStorageWriteError},
		{"session", NewStorageSessionError(cause), CodeStorageSessionError},
		{"part", NewStoragePartError(cause), CodeStoragePartError},
		{"completion", NewStorageCompletionError(cause), CodeStorageCompletionError},
		{"retrieval", NewRetrievalError(cause), CodeRetrievalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, http.StatusInternalServerError, tt.err.HTTPStatus)
			assert.NotContains(t, tt.err.Message, "minio")
			assert.ErrorIs(t, tt.err, cause)
		})
	}
}

func TestInvalidManifestError_IsClientError(t *testing.T) {
	err := NewInvalidManifestError("part 2 is missing")

	assert.Equal(t, CodeStorageCompletionError, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
}

func TestPredicates_SeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("lookup: %w", NewNotFoundError("file"))

	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsForbidden(wrapped))
	assert.True(t, IsForbidden(NewForbiddenError("file is not yet available")))
	assert.True(t, IsConflict(NewConflictError("busy")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestCodeOf(t *testing.T) {
	code, ok := CodeOf(NewRetrievalError(nil))
	assert.True(t, ok)
	assert.Equal(t, CodeRetrievalError, code)

	_, ok = CodeOf(errors.New("plain"))
	assert.False(t, ok)
}
