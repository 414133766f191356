package command_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/memory"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/storage"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/command"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
)

// uploadFlow はインメモリの台帳とBlobストアで組み立てたコマンド一式です
type uploadFlow struct {
	ledger   *memory.Ledger
	store    *storage.MemoryBlobStore
	small    *command.UploadSmallFileCommand
	initiate *command.InitiateLargeUploadCommand
	part     *command.UploadPartCommand
	finish   *command.FinishUploadCommand
}

func newUploadFlow() *uploadFlow {
	ledger := memory.NewLedger()
	store := storage.NewMemoryBlobStore(storage.WithMinPartSize(1))
	return &uploadFlow{
		ledger:   ledger,
		store:    store,
		small:    command.NewUploadSmallFileCommand(ledger, store, "blobs", 1<<20),
		initiate: command.NewInitiateLargeUploadCommand(ledger, ledger, store, "blobs"),
		part:     command.NewUploadPartCommand(ledger, ledger, store, "blobs"),
		finish:   command.NewFinishUploadCommand(ledger, ledger, store, ledger, "blobs", time.Minute),
	}
}

func (f *uploadFlow) uploadParts(t *testing.T, hash valueobject.ContentHash, uploadID string, chunks map[int][]byte, order []int) map[int]string {
	t.Helper()
	etags := make(map[int]string, len(order))
	for _, n := range order {
		out, err := f.part.Execute(context.Background(), command.UploadPartInput{
			ContentHash: hash.Value(),
			UploadID:    uploadID,
			PartNumber:  n,
			Data:        chunks[n],
		})
		require.NoError(t, err)
		etags[n] = out.Part.ETag
	}
	return etags
}

func (f *uploadFlow) readObject(t *testing.T, hash valueobject.ContentHash) []byte {
	t.Helper()
	obj, err := f.store.GetObject(context.Background(), valueobject.NewStorageKey("blobs", hash).Value())
	require.NoError(t, err)
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	return body
}

func splitChunks(payload []byte, n int) map[int][]byte {
	chunks := make(map[int][]byte, n)
	size := (len(payload) + n - 1) / n
	for i := 0; i < n; i++ {
		start := i * size
		end := min(start+size, len(payload))
		chunks[i+1] = payload[start:end]
	}
	return chunks
}

func manifest(etags map[int]string, n int) []entity.PartRef {
	refs := make([]entity.PartRef, 0, n)
	for i := 1; i <= n; i++ {
		refs = append(refs, entity.PartRef{PartNumber: i, ETag: etags[i]})
	}
	return refs
}

func TestUploadFlow_PartsInAnyOrderReassembleExactly(t *testing.T) {
	ctx := context.Background()
	f := newUploadFlow()

	payload := bytes.Repeat([]byte("0123456789abcdef"), 64)
	hash := valueobject.ComputeContentHash(payload)
	chunks := splitChunks(payload, 4)

	started, err := f.initiate.Execute(ctx, command.InitiateLargeUploadInput{
		ContentHash: hash.Value(),
		Size:        int64(len(payload)),
	})
	require.NoError(t, err)
	require.True(t, started.Created)
	uploadID := started.File.CurrentUploadID()

	etags := f.uploadParts(t, hash, uploadID, chunks, []int{4, 2, 1, 3})

	out, err := f.finish.Execute(ctx, command.FinishUploadInput{
		ContentHash: hash.Value(),
		UploadID:    uploadID,
		Parts:       manifest(etags, 4),
	})
	require.NoError(t, err)
	assert.True(t, out.File.Finished)
	assert.Nil(t, out.File.UploadID)
	assert.Equal(t, payload, f.readObject(t, hash))

	parts, err := f.ledger.FindByUploadID(ctx, uploadID)
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestUploadFlow_ResumeAfterInterruption(t *testing.T) {
	ctx := context.Background()
	f := newUploadFlow()

	payload := bytes.Repeat([]byte("resume!"), 100)
	hash := valueobject.ComputeContentHash(payload)
	chunks := splitChunks(payload, 4)
	input := command.InitiateLargeUploadInput{ContentHash: hash.Value(), Size: int64(len(payload))}

	first, err := f.initiate.Execute(ctx, input)
	require.NoError(t, err)
	uploadID := first.File.CurrentUploadID()
	etags := f.uploadParts(t, hash, uploadID, chunks, []int{1, 3})

	// 中断後の再開
	resumed, err := f.initiate.Execute(ctx, input)
	require.NoError(t, err)
	assert.True(t, resumed.Resumed)
	assert.False(t, resumed.Created)
	assert.Equal(t, first.File.ID, resumed.File.ID)
	assert.Equal(t, uploadID, resumed.File.CurrentUploadID())
	require.Len(t, resumed.UploadedParts, 2)
	assert.Equal(t, 1, resumed.UploadedParts[0].PartNumber)
	assert.Equal(t, 3, resumed.UploadedParts[1].PartNumber)

	for n, etag := range f.uploadParts(t, hash, uploadID, chunks, []int{2, 4}) {
		etags[n] = etag
	}

	_, err = f.finish.Execute(ctx, command.FinishUploadInput{
		ContentHash: hash.Value(),
		UploadID:    uploadID,
		Parts:       manifest(etags, 4),
	})
	require.NoError(t, err)
	assert.Equal(t, payload, f.readObject(t, hash))

	// 完了後の開始は短絡して同じレコードを返す
	again, err := f.initiate.Execute(ctx, input)
	require.NoError(t, err)
	assert.False(t, again.Resumed)
	assert.True(t, again.File.Finished)
	assert.Equal(t, first.File.ID, again.File.ID)
}

func TestUploadFlow_MissingPartLeavesRecordPending(t *testing.T) {
	ctx := context.Background()
	f := newUploadFlow()

	payload := bytes.Repeat([]byte("gap"), 90)
	hash := valueobject.ComputeContentHash(payload)
	chunks := splitChunks(payload, 3)

	started, err := f.initiate.Execute(ctx, command.InitiateLargeUploadInput{ContentHash: hash.Value(), Size: int64(len(payload))})
	require.NoError(t, err)
	uploadID := started.File.CurrentUploadID()
	etags := f.uploadParts(t, hash, uploadID, chunks, []int{1, 3})

	_, err = f.finish.Execute(ctx, command.FinishUploadInput{
		ContentHash: hash.Value(),
		UploadID:    uploadID,
		Parts:       []entity.PartRef{{PartNumber: 1, ETag: etags[1]}, {PartNumber: 3, ETag: etags[3]}},
	})
	code, ok := apperror.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeStorageCompletionError, code)

	record, err := f.ledger.FindByContentHash(ctx, hash)
	require.NoError(t, err)
	assert.False(t, record.Finished)
	assert.Equal(t, uploadID, record.CurrentUploadID())

	// 解放された権利で再試行できる
	etags[2] = f.uploadParts(t, hash, uploadID, chunks, []int{2})[2]
	out, err := f.finish.Execute(ctx, command.FinishUploadInput{
		ContentHash: hash.Value(),
		UploadID:    uploadID,
		Parts:       manifest(etags, 3),
	})
	require.NoError(t, err)
	assert.True(t, out.File.Finished)
}

func TestUploadFlow_ConcurrentInitiationYieldsOneSession(t *testing.T) {
	ctx := context.Background()
	f := newUploadFlow()

	hash := hashOf("contended")
	input := command.InitiateLargeUploadInput{ContentHash: hash.Value(), Size: 1 << 20}

	const callers = 8
	outputs := make([]*command.InitiateLargeUploadOutput, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.initiate.Execute(ctx, input)
			if !assert.NoError(t, err) {
				return
			}
			outputs[i] = out
		}(i)
	}
	wg.Wait()

	created := 0
	for _, out := range outputs {
		require.NotNil(t, out)
		assert.Equal(t, outputs[0].File.ID, out.File.ID)
		assert.Equal(t, outputs[0].File.CurrentUploadID(), out.File.CurrentUploadID())
		if out.Created {
			created++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.store.OpenSessions())
}

func TestUploadFlow_ConcurrentFinishCompletesOnce(t *testing.T) {
	ctx := context.Background()
	f := newUploadFlow()

	payload := bytes.Repeat([]byte("race-finish"), 50)
	hash := valueobject.ComputeContentHash(payload)
	chunks := splitChunks(payload, 2)

	started, err := f.initiate.Execute(ctx, command.InitiateLargeUploadInput{ContentHash: hash.Value(), Size: int64(len(payload))})
	require.NoError(t, err)
	uploadID := started.File.CurrentUploadID()
	etags := f.uploadParts(t, hash, uploadID, chunks, []int{1, 2})

	input := command.FinishUploadInput{ContentHash: hash.Value(), UploadID: uploadID, Parts: manifest(etags, 2)}

	const callers = 4
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.finish.Execute(ctx, input)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsConflict(err), "unexpected error: %v", err)
	}
	assert.GreaterOrEqual(t, succeeded, 1)

	record, err := f.ledger.FindByContentHash(ctx, hash)
	require.NoError(t, err)
	assert.True(t, record.Finished)
	assert.Equal(t, payload, f.readObject(t, hash))
}

func TestUploadFlow_SmallUploadPromotesPendingRecord(t *testing.T) {
	ctx := context.Background()
	f := newUploadFlow()

	payload := []byte("small after large")
	hash := valueobject.ComputeContentHash(payload)

	started, err := f.initiate.Execute(ctx, command.InitiateLargeUploadInput{ContentHash: hash.Value(), Size: int64(len(payload))})
	require.NoError(t, err)

	out, err := f.small.Execute(ctx, command.UploadSmallFileInput{Data: payload, MimeType: "text/plain"})
	require.NoError(t, err)
	assert.Equal(t, started.File.ID, out.File.ID)
	assert.True(t, out.File.Finished)
	assert.Equal(t, 0, f.store.OpenSessions())
	assert.Equal(t, payload, f.readObject(t, hash))

	// 同一内容の再送は保存を行わず同じレコードを返す
	again, err := f.small.Execute(ctx, command.UploadSmallFileInput{Data: payload})
	require.NoError(t, err)
	assert.False(t, again.Created)
	assert.Equal(t, out.File.ID, again.File.ID)
}
