package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// StartPeriodicBackup runs ds.Backup every interval until the returned stop
// function is called. stop waits for a running backup to finish.
func StartPeriodicBackup(ctx context.Context, ds DataStore, interval time.Duration) (stop func(), err error) {
	if interval <= 0 {
		return nil, fmt.Errorf("periodic backup: invalid interval %s", interval)
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err = c.AddFunc("@every "+interval.String(), func() {
		start := time.Now()
		if err := ds.Backup(ctx); err != nil {
			slog.ErrorContext(ctx, "periodic backup failed", slog.Any("error", err))
			return
		}
		slog.InfoContext(ctx, "periodic backup done", slog.Int("duration_ms", int(time.Since(start).Milliseconds())))
	})
	if err != nil {
		return nil, fmt.Errorf("periodic backup: %w", err)
	}
	c.Start()
	slog.InfoContext(ctx, "periodic backup scheduled", slog.String("interval", interval.String()))
	return func() { <-c.Stop().Done() }, nil
}
