package command_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
)

func newFinishedRecord(t *testing.T, data []byte) *entity.FileRecord {
	t.Helper()
	record, err := entity.NewFinishedFileRecord(valueobject.ComputeContentHash(data), int64(len(data)), valueobject.MimeTypeTextPlain)
	require.NoError(t, err)
	return record
}

func newPendingRecord(t *testing.T, hash valueobject.ContentHash, size int64, uploadID string) *entity.FileRecord {
	t.Helper()
	return entity.ReconstructFileRecord(
		uuid.New(), hash, size, valueobject.MimeTypeOctetStream,
		&uploadID, false, time.Now(), time.Now(),
	)
}

func newPart(uploadID string, n int, size int64, etag string) *entity.UploadPart {
	return entity.ReconstructUploadPart(uploadID, n, size, etag, time.Now())
}

func hashOf(s string) valueobject.ContentHash {
	return valueobject.ComputeContentHash([]byte(s))
}
