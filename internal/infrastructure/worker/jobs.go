package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// PendingUploadReportJobConfig は未完了アップロード報告ジョブの設定です
type PendingUploadReportJobConfig struct {
	// Age はこの時間以上更新のない未完了アップロードを報告対象とします
	Age time.Duration
	// Interval は実行間隔です
	Interval time.Duration
}

// NewPendingUploadReportJob は放置された未完了アップロードの件数を報告するジョブを作成します
// 回収は行わず、ログ出力のみです
func NewPendingUploadReportJob(countFn func(ctx context.Context, before time.Time) (int64, error), cfg PendingUploadReportJobConfig) Job {
	if cfg.Age <= 0 {
		cfg.Age = 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}

	return Job{
		Name:     "pending_upload_report",
		Interval: cfg.Interval,
		Timeout:  time.Minute,
		Fn: func(ctx context.Context) error {
			count, err := countFn(ctx, time.Now().Add(-cfg.Age))
			if err != nil {
				return fmt.Errorf("failed to count pending uploads: %w", err)
			}
			if count > 0 {
				slog.Warn("stale pending uploads found", "count", count, "older_than", cfg.Age)
			}
			return nil
		},
	}
}

// HealthCheck は名前付きの疎通確認です
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewHealthCheckJob はヘルスチェックジョブを作成します（台帳・Blobストア・Redisの接続確認）
func NewHealthCheckJob(checks ...HealthCheck) Job {
	return Job{
		Name:     "health_check",
		Interval: 5 * time.Minute,
		Timeout:  30 * time.Second,
		Fn: func(ctx context.Context) error {
			var errs []error
			for _, c := range checks {
				if err := c.Check(ctx); err != nil {
					slog.Warn("health check failed", "component", c.Name, "error", err)
					errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
				}
			}
			return errors.Join(errs...)
		},
	}
}
