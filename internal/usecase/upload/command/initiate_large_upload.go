package command

import (
	"context"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/valueobject"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/apperror"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/logger"
)

// InitiateLargeUploadInput はマルチパートアップロード開始の入力を定義します
type InitiateLargeUploadInput struct {
	ContentHash string
	Size        int64
	MimeType    string
}

// InitiateLargeUploadOutput はマルチパートアップロード開始の出力を定義します
type InitiateLargeUploadOutput struct {
	File          *entity.FileRecord
	UploadedParts []*entity.UploadPart // パート番号の昇順
	Resumed       bool                 // 進行中のセッションを再開した
	Created       bool                 // 新しいレコードを作成した
}

// InitiateLargeUploadCommand はマルチパートアップロード開始コマンドです
// 状態に応じて新規開始・再開・完了済みの返却のいずれかを行います
type InitiateLargeUploadCommand struct {
	fileRepo  repository.FileRecordRepository
	partRepo  repository.UploadPartRepository
	blobStore service.BlobStore
	keyPrefix string
}

// NewInitiateLargeUploadCommand は新しいInitiateLargeUploadCommandを作成します
func NewInitiateLargeUploadCommand(
	fileRepo repository.FileRecordRepository,
	partRepo repository.UploadPartRepository,
	blobStore service.BlobStore,
	keyPrefix string,
) *InitiateLargeUploadCommand {
	return &InitiateLargeUploadCommand{
		fileRepo:  fileRepo,
		partRepo:  partRepo,
		blobStore: blobStore,
		keyPrefix: keyPrefix,
	}
}

// Execute はマルチパートアップロードを開始または再開します
func (c *InitiateLargeUploadCommand) Execute(ctx context.Context, input InitiateLargeUploadInput) (*InitiateLargeUploadOutput, error) {
	// 1. 入力検証
	hash, err := valueobject.NewContentHash(input.ContentHash)
	if err != nil {
		return nil, apperror.NewValidationError(err.Error(), []apperror.FieldError{
			{Field: "contentHash", Message: "must be a lowercase hex sha256 digest"},
		})
	}
	if input.Size <= 0 || input.Size > entity.MaxUploadSize {
		return nil, apperror.NewValidationError("size out of range", []apperror.FieldError{
			{Field: "size", Message: "must be positive and within the multipart upload limit"},
		})
	}
	mimeType := valueobject.MimeTypeOctetStream
	if input.MimeType != "" {
		mimeType, err = valueobject.NewMimeType(input.MimeType)
		if err != nil {
			return nil, apperror.NewValidationError(err.Error(), []apperror.FieldError{
				{Field: "mimeType", Message: "invalid media type"},
			})
		}
	}

	// 2. 既存の状態を確認
	record, err := findRecord(ctx, c.fileRepo, hash)
	if err != nil {
		return nil, err
	}
	state, err := resolveState(ctx, c.partRepo, record)
	if err != nil {
		return nil, err
	}
	if _, ok := state.(entity.StateNew); !ok {
		return outputFromState(state), nil
	}

	// 3. 新規セッション開始
	key := valueobject.NewStorageKey(c.keyPrefix, hash)
	uploadID, err := c.blobStore.CreateMultipartUpload(ctx, key.Value(), mimeType.Value())
	if err != nil {
		return nil, apperror.NewStorageSessionError(err)
	}

	pending, err := entity.NewPendingFileRecord(hash, input.Size, mimeType, uploadID)
	if err != nil {
		abortSession(ctx, c.blobStore, key, uploadID)
		return nil, apperror.NewValidationError(err.Error(), nil)
	}

	// 4. compare-and-create。負けた場合は自分のセッションを破棄し勝者のレコードを採用
	stored, created, err := c.fileRepo.CreatePending(ctx, pending)
	if err != nil {
		abortSession(ctx, c.blobStore, key, uploadID)
		return nil, err
	}
	if !created {
		logger.Info(ctx, "lost upload initiation race",
			"content_hash", hash.Value(),
			"discarded_upload_id", uploadID,
		)
		abortSession(ctx, c.blobStore, key, uploadID)

		winner, err := resolveState(ctx, c.partRepo, stored)
		if err != nil {
			return nil, err
		}
		return outputFromState(winner), nil
	}

	return &InitiateLargeUploadOutput{
		File:          stored,
		UploadedParts: []*entity.UploadPart{},
		Resumed:       false,
		Created:       true,
	}, nil
}

// outputFromState は既存レコードの状態を出力に変換します
func outputFromState(state entity.UploadState) *InitiateLargeUploadOutput {
	switch s := state.(type) {
	case entity.StateFinished:
		return &InitiateLargeUploadOutput{File: s.Record, UploadedParts: []*entity.UploadPart{}}
	case entity.StatePending:
		return &InitiateLargeUploadOutput{File: s.Record, UploadedParts: s.Parts, Resumed: true}
	default:
		return nil
	}
}
