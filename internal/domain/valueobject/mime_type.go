package valueobject

import (
	"errors"
	"mime"
	"strings"
)

var (
	ErrInvalidMimeType = errors.New("invalid MIME type")
)

// MimeType はMIMEタイプを表す値オブジェクト
type MimeType struct {
	value string
}

// NewMimeType は文字列からMimeTypeを生成します
// パラメータ付き（例: text/plain; charset=utf-8）も受け付けます
func NewMimeType(mimeType string) (MimeType, error) {
	trimmed := strings.TrimSpace(mimeType)
	if trimmed == "" {
		return MimeType{}, ErrInvalidMimeType
	}

	mediaType, params, err := mime.ParseMediaType(trimmed)
	if err != nil {
		return MimeType{}, ErrInvalidMimeType
	}

	// type/subtype 形式チェック
	parts := strings.Split(mediaType, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return MimeType{}, ErrInvalidMimeType
	}

	return MimeType{value: mime.FormatMediaType(mediaType, params)}, nil
}

// NewMimeTypeOrDefault は不正または空の場合に application/octet-stream を返します
func NewMimeTypeOrDefault(mimeType string) MimeType {
	mt, err := NewMimeType(mimeType)
	if err != nil {
		return MimeTypeOctetStream
	}
	return mt
}

// ReconstructMimeType はDBからMimeTypeを復元します
func ReconstructMimeType(value string) MimeType {
	return MimeType{value: value}
}

// Value は値を返します
func (m MimeType) Value() string {
	return m.value
}

// String は文字列を返します（Stringerインターフェース）
func (m MimeType) String() string {
	return m.value
}

// Type はMIMEタイプの主タイプを返します（例: "text", "image"）
func (m MimeType) Type() string {
	if idx := strings.Index(m.value, "/"); idx != -1 {
		return m.value[:idx]
	}
	return ""
}

// Equals は等価性を判定します
func (m MimeType) Equals(other MimeType) bool {
	return m.value == other.value
}

// 一般的なMIMEタイプ定数
var (
	MimeTypeOctetStream = MimeType{value: "application/octet-stream"}
	MimeTypeTextPlain   = MimeType{value: "text/plain"}
	MimeTypeImagePNG    = MimeType{value: "image/png"}
)
