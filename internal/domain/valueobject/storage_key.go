package valueobject

import (
	"strings"
)

// StorageKey はBlobストア内のオブジェクトキーを表す値オブジェクト
// 形式: {prefix}/{content_hash}
type StorageKey struct {
	value string
}

// NewStorageKey はContentHashからStorageKeyを生成します
func NewStorageKey(prefix string, hash ContentHash) StorageKey {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return StorageKey{value: hash.Value()}
	}
	return StorageKey{value: prefix + "/" + hash.Value()}
}

// Value はキー文字列を返します
func (k StorageKey) Value() string {
	return k.value
}

// String はキー文字列を返します（Stringerインターフェース）
func (k StorageKey) String() string {
	return k.value
}

// IsEmpty はキーが空かどうかを判定します
func (k StorageKey) IsEmpty() bool {
	return k.value == ""
}
