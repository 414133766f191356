package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode はエラーコードを表します
type ErrorCode string

const (
	CodeValidationError   ErrorCode = "VALIDATION_ERROR"
	CodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	CodeForbidden         ErrorCode = "FORBIDDEN"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeConflict          ErrorCode = "CONFLICT"
	CodePayloadTooLarge   ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeInternalError     ErrorCode = "INTERNAL_ERROR"

	// Blobストア起因のエラー
	CodeStorageWriteError      ErrorCode = "STORAGE_WRITE_ERROR"
	CodeStorageSessionError    ErrorCode = "STORAGE_SESSION_ERROR"
	CodeStoragePartError       ErrorCode = "STORAGE_PART_ERROR"
	CodeStorageCompletionError ErrorCode = "STORAGE_COMPLETION_ERROR"
	CodeRetrievalError         ErrorCode = "RETRIEVAL_ERROR"
)

// AppError はアプリケーションエラーを表します
type AppError struct {
	Code       ErrorCode    `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
	HTTPStatus int          `json:"-"`
	Err        error        `json:"-"`
}

// FieldError はフィールドエラーを表します
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error はerrorインターフェースを実装します
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap は元のエラーを返します
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError はバリデーションエラーを作成します
func NewValidationError(message string, details []FieldError) *AppError {
	return &AppError{
		Code:       CodeValidationError,
		Message:    message,
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidRequestError は不正リクエストエラーを作成します
func NewInvalidRequestError(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewForbiddenError は権限エラーを作成します
func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewNotFoundError はリソース不在エラーを作成します
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

// NewConflictError は競合エラーを作成します
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewPayloadTooLargeError はサイズ超過エラーを作成します
func NewPayloadTooLargeError(message string) *AppError {
	return &AppError{
		Code:       CodePayloadTooLarge,
		Message:    message,
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

// NewTooManyRequestsError はレート制限エラーを作成します
func NewTooManyRequestsError(message string) *AppError {
	return &AppError{
		Code:       CodeRateLimitExceeded,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// NewInternalError は内部エラーを作成します
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStorageWriteError はオブジェクト書き込み失敗エラーを作成します
func NewStorageWriteError(err error) *AppError {
	return &AppError{
		Code:       CodeStorageWriteError,
		Message:    "failed to store file",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStorageSessionError はマルチパートセッション開始失敗エラーを作成します
func NewStorageSessionError(err error) *AppError {
	return &AppError{
		Code:       CodeStorageSessionError,
		Message:    "failed to start upload session",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStoragePartError はパートアップロード失敗エラーを作成します
func NewStoragePartError(err error) *AppError {
	return &AppError{
		Code:       CodeStoragePartError,
		Message:    "failed to store file part",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewStorageCompletionError はBlobストアが完了処理を拒否した場合のエラーを作成します
func NewStorageCompletionError(err error) *AppError {
	return &AppError{
		Code:       CodeStorageCompletionError,
		Message:    "failed to complete upload",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewInvalidManifestError はパート一覧の不整合による完了失敗エラーを作成します
// クライアント側で修正可能なため400を返します
func NewInvalidManifestError(message string) *AppError {
	return &AppError{
		Code:       CodeStorageCompletionError,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewRetrievalError は完了済みファイルの取得失敗エラーを作成します
func NewRetrievalError(err error) *AppError {
	return &AppError{
		Code:       CodeRetrievalError,
		Message:    "failed to retrieve file",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf はエラーからエラーコードを取り出します
func CodeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// IsNotFound はリソース不在エラーかどうかを判定します
func IsNotFound(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeNotFound
}

// IsForbidden は権限エラーかどうかを判定します
func IsForbidden(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeForbidden
}

// IsConflict は競合エラーかどうかを判定します
func IsConflict(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == CodeConflict
}
