package response

import (
	"time"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/entity"
	uploadcmd "github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/command"
	uploadqry "github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/usecase/upload/query"
)

// FileRecordResponse はファイルレコードレスポンスです
type FileRecordResponse struct {
	PublicID    string    `json:"publicId"`
	ContentHash string    `json:"contentHash"`
	Size        int64     `json:"size"`
	MimeType    string    `json:"mimeType"`
	UploadID    *string   `json:"uploadId"`
	Finished    bool      `json:"finished"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PartRecordResponse はアップロード済みパートレスポンスです
type PartRecordResponse struct {
	UploadID   string    `json:"uploadId"`
	PartNumber int       `json:"partNumber"`
	Size       int64     `json:"size"`
	ETag       string    `json:"eTag"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// InitiateLargeUploadResponse はマルチパートアップロード開始レスポンスです
type InitiateLargeUploadResponse struct {
	File          FileRecordResponse   `json:"file"`
	UploadedParts []PartRecordResponse `json:"uploadedParts"`
	Resumed       bool                 `json:"resumed"`
}

// UploadStatusResponse はアップロード状況レスポンスです
type UploadStatusResponse struct {
	File          FileRecordResponse   `json:"file"`
	UploadedParts []PartRecordResponse `json:"uploadedParts"`
}

// ToFileRecordResponse はエンティティからレスポンスに変換します
func ToFileRecordResponse(record *entity.FileRecord) FileRecordResponse {
	return FileRecordResponse{
		PublicID:    record.ID.String(),
		ContentHash: record.ContentHash.String(),
		Size:        record.Size,
		MimeType:    record.MimeType.String(),
		UploadID:    record.UploadID,
		Finished:    record.Finished,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

// ToPartRecordResponse はエンティティからレスポンスに変換します
func ToPartRecordResponse(part *entity.UploadPart) PartRecordResponse {
	return PartRecordResponse{
		UploadID:   part.UploadID,
		PartNumber: part.PartNumber,
		Size:       part.Size,
		ETag:       part.ETag,
		UploadedAt: part.UploadedAt,
	}
}

// ToPartRecordResponses はパート一覧を変換します
func ToPartRecordResponses(parts []*entity.UploadPart) []PartRecordResponse {
	result := make([]PartRecordResponse, 0, len(parts))
	for _, p := range parts {
		result = append(result, ToPartRecordResponse(p))
	}
	return result
}

// ToInitiateLargeUploadResponse はコマンド出力からレスポンスに変換します
func ToInitiateLargeUploadResponse(output *uploadcmd.InitiateLargeUploadOutput) InitiateLargeUploadResponse {
	return InitiateLargeUploadResponse{
		File:          ToFileRecordResponse(output.File),
		UploadedParts: ToPartRecordResponses(output.UploadedParts),
		Resumed:       output.Resumed,
	}
}

// ToUploadStatusResponse はクエリ出力からレスポンスに変換します
func ToUploadStatusResponse(output *uploadqry.GetUploadStatusOutput) UploadStatusResponse {
	return UploadStatusResponse{
		File:          ToFileRecordResponse(output.File),
		UploadedParts: ToPartRecordResponses(output.UploadedParts),
	}
}
