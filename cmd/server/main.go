package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rcrowley/go-metrics"

	apphttp "github.com/kawabatas/payroll-batch/internal/app/http"
	"github.com/kawabatas/payroll-batch/internal/app/seed"
	"github.com/kawabatas/payroll-batch/internal/app/usecase"
	"github.com/kawabatas/payroll-batch/internal/httpx"
	"github.com/kawabatas/payroll-batch/internal/infra/config"
	"github.com/kawabatas/payroll-batch/internal/infra/datastore"
	sqlitestrat "github.com/kawabatas/payroll-batch/internal/infra/datastore/sqlite"
	"github.com/kawabatas/payroll-batch/internal/infra/messaging"
	"github.com/kawabatas/payroll-batch/internal/infra/platform/logger"
	appmetrics "github.com/kawabatas/payroll-batch/internal/infra/platform/metrics"
	storageif "github.com/kawabatas/payroll-batch/internal/infra/storage"
	gcsstore "github.com/kawabatas/payroll-batch/internal/infra/storage/gcs"
	localstore "github.com/kawabatas/payroll-batch/internal/infra/storage/local"
)

func main() {
	cfg := config.Load()
	lvl := logger.ParseLevel(cfg.LogLevel)
	slog.SetDefault(logger.New(cfg.LogProvider, lvl))

	ctx := context.Background()

	ds, err := datastore.Open(ctx, datastore.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DBDSN,
		Source:   cfg.SqliteSource,
		Path:     cfg.SqlitePath,
		Strategy: snapshotStrategy(cfg),
	})
	if err != nil {
		log.Fatalf("datastore open error: %v", err)
	}
	// 接続プール設定: 最大接続・アイドルともに 10
	ds.SetConnPool(10, 10)
	defer ds.Close()

	if cfg.SeedFile != "" {
		f, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			log.Fatalf("seed load error: %v", err)
		}
		if _, err := seed.Apply(ctx, ds, f, false); err != nil {
			log.Fatalf("seed apply error: %v", err)
		}
	}

	stopBackup := func() {}
	if cfg.IsSQLite() && cfg.PeriodicBackupEnabled() {
		stop, err := datastore.StartPeriodicBackup(ctx, ds, cfg.PeriodicBackupInterval())
		if err != nil {
			log.Fatalf("periodic backup error: %v", err)
		}
		stopBackup = stop
	}

	var events messaging.Publisher = messaging.Noop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		events = messaging.NewKafkaPublisher(brokers, cfg.KafkaTopic)
		slog.Info("kafka publisher enabled", slog.Any("brokers", brokers), slog.String("topic", cfg.KafkaTopic))
	}

	registry := metrics.NewRegistry()
	if err := appmetrics.OutputMetricsIfRequired(registry, cfg.GraphiteAddress, cfg.GraphitePrefix, cfg.LogMetricsEnabled()); err != nil {
		log.Fatalf("metrics error: %v", err)
	}

	batches := usecase.NewBatchService(ds, events)
	entries := usecase.NewEntryService(ds, batches)

	mux := http.NewServeMux()
	apphttp.Register(mux, ds, batches, entries, registry)
	// Static (serve built assets)
	mux.Handle("/", httpx.CachingFileServer(cfg.StaticDir))

	handler := httpx.DefaultChain(mux, registry, cfg.MaintenanceEnabled)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           http.TimeoutHandler(handler, 5*time.Second, "timeout"),
		ReadHeaderTimeout: 500 * time.Millisecond,
		ReadTimeout:       500 * time.Millisecond,
		IdleTimeout:       time.Second,
	}

	go func() {
		slog.Info("server starting", slog.String("addr", srv.Addr), slog.String("driver", ds.Driver()))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
		slog.Info("server stopped accepting new conns")
	}()

	// シャットダウン待受け
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
	stopBackup()
	// 送信中のイベントを待ってから publisher を閉じる
	batches.Wait()
	if err := events.Close(); err != nil {
		slog.Warn("publisher close error", slog.Any("error", err))
	}
	slog.Info("graceful shutdown complete")
}

// snapshotStrategy はスナップショット戦略（SQLite のみ）を選択します。
func snapshotStrategy(cfg config.AppConfig) datastore.SnapshotStrategy {
	if !cfg.IsSQLite() {
		return datastore.NoopSnapshotStrategy{}
	}
	if cfg.SnapshotEnabled() {
		var objStore storageif.ObjectStore = localstore.Dir{}
		if cfg.StorageProvider == "gcs" {
			objStore = &gcsstore.Adapter{}
		}
		return sqlitestrat.ObjectStoreSnapshotStrategy{ObjectStore: objStore, Bucket: cfg.SqliteBucket}
	}
	if cfg.BackupDir != "" {
		return sqlitestrat.LocalSnapshotStrategy{OutputDir: cfg.BackupDir}
	}
	return datastore.NoopSnapshotStrategy{}
}
