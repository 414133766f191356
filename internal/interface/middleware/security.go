package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// SecurityHeadersConfig はセキュリティヘッダー設定を定義します
type SecurityHeadersConfig struct {
	EnableHSTS    bool
	HSTSMaxAge    int
	CSPDirectives string
}

// DefaultSecurityHeadersConfig はデフォルトセキュリティヘッダー設定を返します
// 配信するのは利用者がアップロードした内容のため、スクリプト実行を許可しません
func DefaultSecurityHeadersConfig() SecurityHeadersConfig {
	return SecurityHeadersConfig{
		EnableHSTS:    false,
		HSTSMaxAge:    31536000, // 1年
		CSPDirectives: "default-src 'none'; sandbox",
	}
}

// SecurityHeaders は設定付きセキュリティヘッダーミドルウェアを返します
func SecurityHeaders(cfg SecurityHeadersConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()

			// MIMEスニッフィング対策
			h.Set("X-Content-Type-Options", "nosniff")

			// クリックジャッキング対策
			h.Set("X-Frame-Options", "DENY")

			// HTTPS強制（本番環境）
			if cfg.EnableHSTS {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(cfg.HSTSMaxAge)+"; includeSubDomains")
			}

			h.Set("Content-Security-Policy", cfg.CSPDirectives)
			h.Set("Referrer-Policy", "no-referrer")

			return next(c)
		}
	}
}
