package storage

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
)

func TestMemoryBlobStore_PutAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore()

	require.NoError(t, store.PutObject(ctx, "k", bytes.NewReader([]byte("hello")), 5, "text/plain"))

	obj, err := store.GetObject(ctx, "k")
	require.NoError(t, err)
	defer obj.Body.Close()

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "text/plain", obj.Info.ContentType)
	assert.Equal(t, int64(5), obj.Info.Size)
}

func TestMemoryBlobStore_PutObject_SizeMismatch(t *testing.T) {
	store := NewMemoryBlobStore()

	err := store.PutObject(context.Background(), "k", bytes.NewReader([]byte("hello")), 4, "text/plain")
	assert.Error(t, err)
}

func TestMemoryBlobStore_GetObject_Missing(t *testing.T) {
	store := NewMemoryBlobStore()

	_, err := store.GetObject(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrObjectNotFound)

	_, err = store.StatObject(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrObjectNotFound)
}

func TestMemoryBlobStore_Multipart_AnyUploadOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore(WithMinPartSize(2))

	uploadID, err := store.CreateMultipartUpload(ctx, "k", "application/octet-stream")
	require.NoError(t, err)

	chunks := map[int]string{1: "aa", 2: "bb", 3: "c"}
	etags := map[int]string{}
	for _, n := range []int{3, 1, 2} {
		etag, err := store.UploadPart(ctx, "k", uploadID, n, bytes.NewReader([]byte(chunks[n])), int64(len(chunks[n])))
		require.NoError(t, err)
		etags[n] = etag
	}

	err = store.CompleteMultipartUpload(ctx, "k", uploadID, []service.CompletedPart{
		{PartNumber: 1, ETag: etags[1]},
		{PartNumber: 2, ETag: etags[2]},
		{PartNumber: 3, ETag: etags[3]},
	})
	require.NoError(t, err)

	obj, err := store.GetObject(ctx, "k")
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "aabbc", string(body))
	assert.Equal(t, 0, store.OpenSessions())
}

func TestMemoryBlobStore_Complete_Rejections(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*MemoryBlobStore, string, string, string) {
		store := NewMemoryBlobStore(WithMinPartSize(2))
		uploadID, err := store.CreateMultipartUpload(ctx, "k", "")
		require.NoError(t, err)
		e1, err := store.UploadPart(ctx, "k", uploadID, 1, bytes.NewReader([]byte("a")), 1)
		require.NoError(t, err)
		e2, err := store.UploadPart(ctx, "k", uploadID, 2, bytes.NewReader([]byte("bb")), 2)
		require.NoError(t, err)
		return store, uploadID, e1, e2
	}

	t.Run("descending order", func(t *testing.T) {
		store, uploadID, e1, e2 := setup(t)
		err := store.CompleteMultipartUpload(ctx, "k", uploadID, []service.CompletedPart{
			{PartNumber: 2, ETag: e2}, {PartNumber: 1, ETag: e1},
		})
		assert.ErrorIs(t, err, ErrInvalidPartOrder)
	})

	t.Run("etag mismatch", func(t *testing.T) {
		store, uploadID, _, _ := setup(t)
		err := store.CompleteMultipartUpload(ctx, "k", uploadID, []service.CompletedPart{
			{PartNumber: 1, ETag: "nope"},
		})
		assert.ErrorIs(t, err, ErrInvalidPart)
	})

	t.Run("non-final part too small", func(t *testing.T) {
		store, uploadID, e1, e2 := setup(t)
		err := store.CompleteMultipartUpload(ctx, "k", uploadID, []service.CompletedPart{
			{PartNumber: 1, ETag: e1}, {PartNumber: 2, ETag: e2},
		})
		assert.ErrorIs(t, err, ErrEntityTooSmall)

		_, statErr := store.StatObject(ctx, "k")
		assert.ErrorIs(t, statErr, service.ErrObjectNotFound)
	})

	t.Run("unknown session", func(t *testing.T) {
		store, _, e1, _ := setup(t)
		err := store.CompleteMultipartUpload(ctx, "k", "other", []service.CompletedPart{
			{PartNumber: 1, ETag: e1},
		})
		assert.ErrorIs(t, err, service.ErrObjectNotFound)
	})
}

func TestMemoryBlobStore_Abort(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBlobStore()

	uploadID, err := store.CreateMultipartUpload(ctx, "k", "")
	require.NoError(t, err)
	require.NoError(t, store.AbortMultipartUpload(ctx, "k", uploadID))
	assert.Equal(t, 0, store.OpenSessions())

	_, err = store.UploadPart(ctx, "k", uploadID, 1, bytes.NewReader([]byte("a")), 1)
	assert.ErrorIs(t, err, service.ErrObjectNotFound)
}
