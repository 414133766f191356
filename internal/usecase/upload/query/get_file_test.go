package query_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/query"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/tests/testutil/mocks"
)

type getFileTestDeps struct {
	fileRepo  *mocks.MockFileRecordRepository
	blobStore *mocks.MockBlobStore
}

func newGetFileTestDeps(t *testing.T) *getFileTestDeps {
	t.Helper()
	return &getFileTestDeps{
		fileRepo:  mocks.NewMockFileRecordRepository(t),
		blobStore: mocks.NewMockBlobStore(t),
	}
}

func (d *getFileTestDeps) newQuery() *query.GetFileQuery {
	return query.NewGetFileQuery(d.fileRepo, d.blobStore, "files")
}

func TestGetFileQuery_Execute_Finished_ReturnsStream(t *testing.T) {
	ctx := context.Background()
	deps := newGetFileTestDeps(t)

	data := []byte("stream me")
	file, err := entity.NewFinishedFileRecord(valueobject.ComputeContentHash(data), int64(len(data)), valueobject.MimeTypeTextPlain)
	require.NoError(t, err)

	deps.fileRepo.On("FindByID", ctx, file.ID).Return(file, nil)
	deps.blobStore.On("GetObject", ctx, "files/"+file.ContentHash.Value()).Return(&service.Object{
		Body: io.NopCloser(bytes.NewReader(data)),
		Info: service.ObjectInfo{Size: int64(len(data)), ContentType: "text/plain"},
	}, nil)

	output, err := deps.newQuery().Execute(ctx, query.GetFileInput{PublicID: file.ID.String()})

	require.NoError(t, err)
	defer output.Object.Body.Close()
	body, err := io.ReadAll(output.Object.Body)
	require.NoError(t, err)
	assert.Equal(t, data, body)
	assert.Equal(t, file.ID, output.File.ID)
}

func TestGetFileQuery_Execute_Pending_ReturnsForbidden(t *testing.T) {
	ctx := context.Background()
	deps := newGetFileTestDeps(t)

	uploadID := "upload-1"
	file := entity.ReconstructFileRecord(
		uuid.New(), valueobject.ComputeContentHash([]byte("pending")), 10, valueobject.MimeTypeOctetStream,
		&uploadID, false, time.Now(), time.Now(),
	)
	deps.fileRepo.On("FindByID", ctx, file.ID).Return(file, nil)

	_, err := deps.newQuery().Execute(ctx, query.GetFileInput{PublicID: file.ID.String()})

	assert.True(t, apperror.IsForbidden(err))
}

func TestGetFileQuery_Execute_UnknownOrMalformedID_ReturnsNotFound(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed", func(t *testing.T) {
		deps := newGetFileTestDeps(t)
		_, err := deps.newQuery().Execute(ctx, query.GetFileInput{PublicID: "not-a-uuid"})
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("unknown", func(t *testing.T) {
		deps := newGetFileTestDeps(t)
		id := uuid.New()
		deps.fileRepo.On("FindByID", ctx, id).Return(nil, apperror.NewNotFoundError("file"))

		_, err := deps.newQuery().Execute(ctx, query.GetFileInput{PublicID: id.String()})
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestGetFileQuery_Execute_ContentMissing_ReturnsRetrievalError(t *testing.T) {
	ctx := context.Background()
	deps := newGetFileTestDeps(t)

	file, err := entity.NewFinishedFileRecord(valueobject.ComputeContentHash([]byte("lost")), 4, valueobject.MimeTypeTextPlain)
	require.NoError(t, err)

	deps.fileRepo.On("FindByID", ctx, file.ID).Return(file, nil)
	deps.blobStore.On("GetObject", ctx, "files/"+file.ContentHash.Value()).Return(nil, fmt.Errorf("failed to get object: %w", service.ErrObjectNotFound))

	_, err = deps.newQuery().Execute(ctx, query.GetFileInput{PublicID: file.ID.String()})

	code, ok := apperror.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeRetrievalError, code)
	assert.ErrorIs(t, err, service.ErrObjectNotFound)
}
