package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/di"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/middleware"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/router"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/validator"
)

// Config はサーバー設定を定義します
type Config struct {
	Host            string        // ホスト (default: "")
	Port            int           // ポート (default: 8080)
	ReadTimeout     time.Duration // 読み取りタイムアウト (default: 5m)
	WriteTimeout    time.Duration // 書き込みタイムアウト (default: 5m)
	ShutdownTimeout time.Duration // シャットダウンタイムアウト (default: 10s)
	BodyLimit       string        // リクエストボディ制限 (default: "160M")
	Debug           bool          // デバッグモード
	CORSOrigins     []string      // 許可するオリジン
}

// DefaultConfig はデフォルト設定を返します
// パート本文を受け取るためタイムアウトとボディ上限は大きめです
func DefaultConfig() Config {
	return Config{
		Host:            "",
		Port:            8080,
		ReadTimeout:     5 * time.Minute,
		WriteTimeout:    5 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		BodyLimit:       "160M",
		Debug:           false,
	}
}

// Server はHTTPサーバーを提供します
type Server struct {
	echo   *echo.Echo
	config Config
}

// NewServer は新しいServerを作成します
func NewServer(cfg Config) *Server {
	e := echo.New()

	// 基本設定
	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	// サーバーのタイムアウト設定
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	// バリデーターとエラーハンドラー
	e.Validator = validator.NewCustomValidator()
	e.HTTPErrorHandler = middleware.CustomHTTPErrorHandler

	return &Server{
		echo:   e,
		config: cfg,
	}
}

// Mount はグローバルミドルウェアとルートを登録します
func (s *Server) Mount(handlers *di.Handlers, middlewares *di.Middlewares) {
	e := s.echo

	// Global middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig()))
	if len(s.config.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig(s.config.CORSOrigins)))
	}
	if s.config.BodyLimit != "" {
		e.Use(echomw.BodyLimit(s.config.BodyLimit))
	}

	router.NewRouter(e, handlers, middlewares).Setup()
}

// Echo は内部のecho.Echoを返します
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Config は設定を返します
func (s *Server) Config() Config {
	return s.config
}

// Start はサーバーを開始します
// Shutdown による停止はエラーとして扱いません
func (s *Server) Start() error {
	if err := s.echo.Start(s.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown はサーバーを停止します
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// Address はサーバーのアドレスを返します
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
