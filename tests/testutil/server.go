package testutil

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/di"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/storage"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/interface/server"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/config"
)

// TestServer holds all test server dependencies
type TestServer struct {
	Echo      *echo.Echo
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Container *di.Container
	BlobStore *storage.MemoryBlobStore
	Config    *config.Config
}

// TestConfigOption customizes the application config of a test server
type TestConfigOption func(cfg *config.Config)

// NewTestServer creates a test server backed by PostgreSQL and Redis.
// Objects are kept in an in-memory blob store.
func NewTestServer(t *testing.T, opts ...TestConfigOption) *TestServer {
	t.Helper()

	pool, redisClient := SetupTestEnvironment(t)

	cfg := newTestConfig(config.DatabaseDriverPostgres, opts...)
	blobStore := storage.NewMemoryBlobStore(storage.WithMinPartSize(1))

	container, err := di.NewContainerWithOptions(context.Background(), cfg, di.Options{
		PostgresPool: pool,
		RedisClient:  redisClient,
		BlobStore:    blobStore,
	})
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}

	return &TestServer{
		Echo:      newEcho(cfg, container),
		Pool:      pool,
		Redis:     redisClient,
		Container: container,
		BlobStore: blobStore,
		Config:    cfg,
	}
}

// NewMemoryTestServer creates a test server with no external dependencies
func NewMemoryTestServer(t *testing.T, opts ...TestConfigOption) *TestServer {
	t.Helper()

	cfg := newTestConfig(config.DatabaseDriverMemory, opts...)
	cfg.Redis.Enabled = false
	blobStore := storage.NewMemoryBlobStore(storage.WithMinPartSize(1))

	container, err := di.NewContainerWithOptions(context.Background(), cfg, di.Options{
		BlobStore: blobStore,
	})
	if err != nil {
		t.Fatalf("Failed to create container: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })

	return &TestServer{
		Echo:      newEcho(cfg, container),
		Container: container,
		BlobStore: blobStore,
		Config:    cfg,
	}
}

func newTestConfig(driver string, opts ...TestConfigOption) *config.Config {
	cfg := config.Default()
	cfg.Database.Driver = driver
	cfg.Storage.Driver = config.StorageDriverMemory
	cfg.Storage.KeyPrefix = "test"
	cfg.Security.CORSOrigins = nil
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func newEcho(cfg *config.Config, container *di.Container) *echo.Echo {
	serverConfig := server.DefaultConfig()
	serverConfig.BodyLimit = cfg.Server.BodyLimit
	srv := server.NewServer(serverConfig)
	srv.Mount(di.NewHandlers(container), di.NewMiddlewares(container))
	return srv.Echo()
}

// Cleanup cleans up test data
func (ts *TestServer) Cleanup(t *testing.T) {
	t.Helper()
	if ts.Pool != nil {
		TruncateTables(t, ts.Pool, "upload_parts", "file_records")
	}
	if ts.Redis != nil {
		FlushRedis(t, ts.Redis)
	}
}
