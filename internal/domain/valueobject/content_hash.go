package valueobject

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

const (
	ContentHashLength = sha256.Size * 2
)

var (
	ErrInvalidContentHash = errors.New("invalid content hash")
)

// ContentHash はファイル内容のSHA-256ダイジェスト（16進小文字）を表す値オブジェクト
// ストレージキーおよび重複排除キーとして使用します
type ContentHash struct {
	value string
}

// NewContentHash は16進文字列からContentHashを生成します
func NewContentHash(hash string) (ContentHash, error) {
	value := strings.ToLower(strings.TrimSpace(hash))
	if len(value) != ContentHashLength {
		return ContentHash{}, ErrInvalidContentHash
	}
	if _, err := hex.DecodeString(value); err != nil {
		return ContentHash{}, ErrInvalidContentHash
	}
	return ContentHash{value: value}, nil
}

// ComputeContentHash はバイト列のContentHashを計算します
func ComputeContentHash(data []byte) ContentHash {
	sum := sha256.Sum256(data)
	return ContentHash{value: hex.EncodeToString(sum[:])}
}

// ComputeContentHashFromReader はストリームを読み切ってContentHashを計算します
func ComputeContentHashFromReader(r io.Reader) (ContentHash, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return ContentHash{}, 0, err
	}
	return ContentHash{value: hex.EncodeToString(h.Sum(nil))}, n, nil
}

// ReconstructContentHash はDBからContentHashを復元します
func ReconstructContentHash(value string) ContentHash {
	return ContentHash{value: value}
}

// Value は値を返します
func (h ContentHash) Value() string {
	return h.value
}

// String は文字列を返します（Stringerインターフェース）
func (h ContentHash) String() string {
	return h.value
}

// IsEmpty は値が空かどうかを判定します
func (h ContentHash) IsEmpty() bool {
	return h.value == ""
}

// Equals は等価性を判定します
func (h ContentHash) Equals(other ContentHash) bool {
	return h.value == other.value
}
