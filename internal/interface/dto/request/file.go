package request

// InitiateLargeUploadRequest はマルチパートアップロード開始リクエストです
type InitiateLargeUploadRequest struct {
	ContentHash string `json:"contentHash" validate:"required,sha256hex"`
	Size        int64  `json:"size" validate:"required,min=1"`
	MimeType    string `json:"mimeType" validate:"omitempty,max=255,mimetype"`
}

// UploadPartRequest はパートアップロードリクエストです
// Bytes はJSON上base64文字列で受け取ります
type UploadPartRequest struct {
	ContentHash string `json:"contentHash" validate:"required,sha256hex"`
	UploadID    string `json:"uploadId" validate:"required"`
	PartNumber  int    `json:"partNumber" validate:"required,min=1,max=10000"`
	Bytes       []byte `json:"bytes" validate:"required"`
}

// FinishUploadRequest はマルチパートアップロード完了リクエストです
type FinishUploadRequest struct {
	ContentHash string        `json:"contentHash" validate:"required,sha256hex"`
	UploadID    string        `json:"uploadId" validate:"required"`
	Parts       []PartRequest `json:"parts" validate:"required,min=1,dive"`
}

// PartRequest は完了対象パートです
type PartRequest struct {
	PartNumber int    `json:"partNumber" validate:"required,min=1,max=10000"`
	ETag       string `json:"eTag" validate:"required"`
}
