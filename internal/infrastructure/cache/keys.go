package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// KeyPrefix はRedisキーのプレフィックスを定義します
type KeyPrefix string

const (
	// レート制限
	PrefixRateLimit KeyPrefix = "ratelimit" // ratelimit:{type}:{identifier}

	// キャッシュ
	PrefixCache KeyPrefix = "cache" // cache:{namespace}:{key}
)

// キャッシュの名前空間
const (
	NamespaceFileByID   = "file:id"   // cache:file:id:{public_id}
	NamespaceFileByHash = "file:hash" // cache:file:hash:{content_hash}
)

// RateLimitKey はレート制限キーを生成します
func RateLimitKey(limitType, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", PrefixRateLimit, limitType, identifier)
}

// CacheKey は汎用キャッシュキーを生成します
func CacheKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s:%s", PrefixCache, namespace, key)
}

// FileIDKey は公開IDによるファイル検索のキャッシュキーです（名前空間なし）
func FileIDKey(id uuid.UUID) string {
	return id.String()
}
