package di

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/domain/service"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/cache"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/database"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/memory"
	infraRepo "github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/repository"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/storage"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/internal/infrastructure/worker"
	"github.com/1uciuszzz/nest-react-ts-fullstack-template/pkg/config"
)

// fileRecordCacheTTL は完了済みレコードのキャッシュ保持時間です
const fileRecordCacheTTL = time.Hour

// Container はアプリケーションの依存関係を保持するDIコンテナです
type Container struct {
	// Infrastructure
	PgClient    *database.PostgresClient
	RedisClient *cache.RedisClient
	MinIOClient *storage.MinIOClient
	TxManager   repository.TransactionManager

	// Services
	BlobStore   service.BlobStore
	RateLimiter *cache.RateLimiter

	// Repositories
	FileRecordRepo repository.FileRecordRepository
	UploadPartRepo repository.UploadPartRepository

	// Upload UseCases
	Upload *UploadUseCases

	// HealthChecks は /ready とヘルスチェックジョブで共有する疎通確認です
	HealthChecks []worker.HealthCheck

	// config
	config *config.Config
}

// Options はContainer作成時のオプションを定義します
type Options struct {
	PostgresPool *pgxpool.Pool
	RedisClient  *redis.Client
	BlobStore    service.BlobStore
}

// NewContainer は新しいContainerを作成します
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	return NewContainerWithOptions(ctx, cfg, Options{})
}

// NewContainerWithOptions はオプションを指定してContainerを作成します
func NewContainerWithOptions(ctx context.Context, cfg *config.Config, opts Options) (*Container, error) {
	c := &Container{
		config: cfg,
	}

	if err := c.initLedger(ctx, opts); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initBlobStore(ctx, opts); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initRedis(ctx, opts); err != nil {
		c.Close()
		return nil, err
	}

	c.Upload = NewUploadUseCases(c, cfg)

	return c, nil
}

// initLedger はアップロード台帳（PostgreSQLまたはインメモリ）を初期化します
func (c *Container) initLedger(ctx context.Context, opts Options) error {
	cfg := c.config

	if opts.PostgresPool == nil && cfg.Database.Driver == config.DatabaseDriverMemory {
		ledger := memory.NewLedger()
		c.TxManager = ledger
		c.FileRecordRepo = ledger
		c.UploadPartRepo = ledger
		slog.Warn("using in-memory ledger; records are lost on restart")
		return nil
	}

	var pool *pgxpool.Pool
	if opts.PostgresPool != nil {
		pool = opts.PostgresPool
	} else {
		slog.Info("connecting to PostgreSQL...")
		dbConfig := database.DefaultDBConfig(cfg.Database.URL)
		if cfg.Database.MaxConns > 0 {
			dbConfig.MaxConns = cfg.Database.MaxConns
		}
		if cfg.Database.MinConns > 0 {
			dbConfig.MinConns = cfg.Database.MinConns
		}
		pgClient, err := database.NewPostgresClient(ctx, dbConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		c.PgClient = pgClient
		pool = pgClient.Pool()
		slog.Info("connected to PostgreSQL")

		if cfg.Database.AutoMigrate {
			if err := pgClient.Migrate(ctx); err != nil {
				return err
			}
			slog.Info("database migrations applied")
		}

		c.HealthChecks = append(c.HealthChecks, worker.HealthCheck{Name: "database", Check: pgClient.Health})
	}

	txManager := database.NewTxManager(pool)
	c.TxManager = txManager
	c.FileRecordRepo = infraRepo.NewFileRecordRepository(txManager)
	c.UploadPartRepo = infraRepo.NewUploadPartRepository(txManager)
	return nil
}

// initBlobStore はBlobストア（MinIO / S3 / インメモリ）を初期化します
func (c *Container) initBlobStore(ctx context.Context, opts Options) error {
	if opts.BlobStore != nil {
		c.BlobStore = opts.BlobStore
		return nil
	}

	cfg := c.config.Storage
	switch cfg.Driver {
	case config.StorageDriverMemory:
		c.BlobStore = storage.NewMemoryBlobStore()
		slog.Warn("using in-memory blob store; objects are lost on restart")

	case config.StorageDriverS3:
		s3Store, err := storage.NewS3BlobStore(ctx, storage.Config{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			BucketName:      cfg.BucketName,
			UseSSL:          cfg.UseSSL,
			Region:          cfg.Region,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		c.BlobStore = s3Store
		c.HealthChecks = append(c.HealthChecks, worker.HealthCheck{Name: "blob_store", Check: s3Store.Health})
		slog.Info("using S3 blob store", "bucket", cfg.BucketName, "region", cfg.Region)

	default:
		slog.Info("connecting to MinIO...")
		minioClient, err := storage.NewMinIOClient(storage.Config{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			BucketName:      cfg.BucketName,
			UseSSL:          cfg.UseSSL,
			Region:          cfg.Region,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize MinIO client: %w", err)
		}
		if err := minioClient.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure MinIO bucket: %w", err)
		}
		c.MinIOClient = minioClient
		c.BlobStore = storage.NewMinIOBlobStore(minioClient)
		c.HealthChecks = append(c.HealthChecks, worker.HealthCheck{Name: "blob_store", Check: minioClient.Health})
		slog.Info("connected to MinIO", "endpoint", cfg.Endpoint, "bucket", cfg.BucketName)
	}
	return nil
}

// initRedis はRedis（レート制限・完了済みレコードのキャッシュ）を初期化します
// 無効時はレート制限なし、キャッシュなしで動作します
func (c *Container) initRedis(ctx context.Context, opts Options) error {
	var client *redis.Client
	switch {
	case opts.RedisClient != nil:
		client = opts.RedisClient
	case c.config.Redis.Enabled:
		slog.Info("connecting to Redis...")
		redisConfig := cache.DefaultConfig()
		redisConfig.URL = c.config.Redis.URL
		redisClient, err := cache.NewRedisClient(ctx, redisConfig)
		if err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.RedisClient = redisClient
		client = redisClient.Client()
		c.HealthChecks = append(c.HealthChecks, worker.HealthCheck{Name: "redis", Check: redisClient.Health})
		slog.Info("connected to Redis")
	default:
		return nil
	}

	c.RateLimiter = cache.NewRateLimiter(client)
	c.FileRecordRepo = cache.NewFileRecordCache(
		c.FileRecordRepo,
		cache.NewCache(client, cache.NamespaceFileByID, fileRecordCacheTTL),
		cache.NewCache(client, cache.NamespaceFileByHash, fileRecordCacheTTL),
		fileRecordCacheTTL,
	)
	return nil
}

// Close はリソースをクリーンアップします
func (c *Container) Close() error {
	var errs []error

	if c.PgClient != nil {
		c.PgClient.Close()
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
