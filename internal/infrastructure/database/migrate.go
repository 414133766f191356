package database

import (
	"context"
	"embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsDir = "migrations"

// Migrate は埋め込みSQLでスキーマを最新化する
func (c *PostgresClient) Migrate(ctx context.Context) error {
	return MigratePool(ctx, c.pool)
}

// MigratePool は任意のプールに対してマイグレーションを適用する
func MigratePool(ctx context.Context, pool *pgxpool.Pool) error {
	// プール管理下の接続を使うため db は Close しない
	db := stdlib.OpenDBFromPool(pool)

	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
