package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

type hashRequest struct {
	ContentHash string `validate:"required,sha256hex"`
	MimeType    string `validate:"mimetype"`
}

func TestCustomValidator_SHA256Hex(t *testing.T) {
	v := NewCustomValidator()

	tests := []struct {
		name    string
		hash    string
		wantErr bool
	}{
		{"valid", strings.Repeat("ab", 32), false},
		{"too short", "abc", true},
		{"non-hex", strings.Repeat("zz", 32), true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&hashRequest{ContentHash: tt.hash})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCustomValidator_MimeType(t *testing.T) {
	v := NewCustomValidator()
	hash := strings.Repeat("0", 64)

	assert.NoError(t, v.Validate(&hashRequest{ContentHash: hash}))
	assert.NoError(t, v.Validate(&hashRequest{ContentHash: hash, MimeType: "text/plain; charset=utf-8"}))

	err := v.Validate(&hashRequest{ContentHash: hash, MimeType: "not a mime"})
	require.Error(t, err)

	appErr, ok := err.(*apperror.AppError)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidationError, appErr.Code)
	require.Len(t, appErr.Details, 1)
	assert.Equal(t, "mimeType", appErr.Details[0].Field)
}

func TestToLowerCamel(t *testing.T) {
	assert.Equal(t, "contentHash", toLowerCamel("ContentHash"))
	assert.Equal(t, "uploadId", toLowerCamel("UploadId"))
	assert.Equal(t, "eTag", toLowerCamel("ETag"))
	assert.Equal(t, "id", toLowerCamel("ID"))
	assert.Equal(t, "", toLowerCamel(""))
}
