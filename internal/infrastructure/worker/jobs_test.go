package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingUploadReportJob_PassesCutoff(t *testing.T) {
	var got time.Time
	job := NewPendingUploadReportJob(func(_ context.Context, before time.Time) (int64, error) {
		got = before
		return 3, nil
	}, PendingUploadReportJobConfig{Age: 2 * time.Hour})

	require.NoError(t, job.Fn(context.Background()))
	assert.Equal(t, time.Hour, job.Interval)
	assert.WithinDuration(t, time.Now().Add(-2*time.Hour), got, 5*time.Second)
}

func TestPendingUploadReportJob_PropagatesError(t *testing.T) {
	job := NewPendingUploadReportJob(func(context.Context, time.Time) (int64, error) {
		return 0, errors.New("db down")
	}, PendingUploadReportJobConfig{})

	assert.ErrorContains(t, job.Fn(context.Background()), "db down")
}

func TestHealthCheckJob_JoinsFailures(t *testing.T) {
	job := NewHealthCheckJob(
		HealthCheck{Name: "database", Check: func(context.Context) error { return nil }},
		HealthCheck{Name: "storage", Check: func(context.Context) error { return errors.New("unreachable") }},
	)

	err := job.Fn(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage: unreachable")
	assert.NotContains(t, err.Error(), "database")
}

func TestManager_RunsJobImmediatelyAndStops(t *testing.T) {
	var runs atomic.Int32
	ran := make(chan struct{}, 1)

	m := NewManager(context.Background())
	m.Register(Job{
		Name:     "tick",
		Interval: time.Hour,
		Fn: func(context.Context) error {
			runs.Add(1)
			select {
			case ran <- struct{}{}:
			default:
			}
			return nil
		},
	})
	m.Register(Job{Name: "disabled", Fn: func(context.Context) error { return nil }})

	assert.Equal(t, []string{"tick"}, m.Jobs())

	m.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	m.Shutdown(time.Second)

	assert.Equal(t, int32(1), runs.Load())
}
