// Command server wires the registry watcher: upstream client behind the rate
// limiter, scan orchestrator, notification evaluator, HTTP surface, and the
// optional background scan scheduler.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lexwatch/internal/jwttoken"
	monitoringhandler "lexwatch/internal/monitoring/handler"
	monitoringservice "lexwatch/internal/monitoring/service"
	configstore "lexwatch/internal/monitoring/store/config"
	"lexwatch/internal/notify/dispatch"
	notifyhandler "lexwatch/internal/notify/handler"
	notifyservice "lexwatch/internal/notify/service"
	notificationstore "lexwatch/internal/notify/store/notification"
	"lexwatch/internal/platform/config"
	"lexwatch/internal/platform/httpserver"
	"lexwatch/internal/platform/logger"
	platformmetrics "lexwatch/internal/platform/metrics"
	"lexwatch/internal/platform/postgres"
	redisclient "lexwatch/internal/platform/redis"
	"lexwatch/internal/ratelimit"
	"lexwatch/internal/registry"
	scanhandler "lexwatch/internal/scan/handler"
	scanmetrics "lexwatch/internal/scan/metrics"
	scanservice "lexwatch/internal/scan/service"
	"lexwatch/internal/scan/store/change"
	"lexwatch/internal/scan/store/digest"
	"lexwatch/internal/scan/store/scanresult"
	snapshotstore "lexwatch/internal/scan/store/snapshot"
	httptransport "lexwatch/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		snapshots scanservice.SnapshotStore
		results   scanservice.ScanResultStore
		changes   scanservice.ChangeStore
		configs   monitoringservice.Store
		inbox     notifyservice.NotificationStore
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		snapshots = snapshotstore.NewPostgres(db)
		results = scanresult.NewPostgres(db)
		changes = change.NewPostgres(db)
		configs = configstore.NewPostgres(db)
		inbox = notificationstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		snapshots = snapshotstore.NewInMemoryStore()
		results = scanresult.NewInMemoryStore()
		changes = change.NewInMemoryStore()
		configs = configstore.NewInMemoryStore()
		inbox = notificationstore.NewInMemoryStore()
		log.Info("no postgres DSN configured, using in-memory stores")
	}

	rdb, err := redisclient.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
	}

	limiter := ratelimit.New(cfg.RateLimitMaxRequests, cfg.RateLimitWindow)
	var upstream registry.Client
	if cfg.UpstreamURL != "" {
		upstream = registry.NewHTTPClient(cfg.UpstreamURL, cfg.UpstreamTimeout, limiter)
	} else {
		upstream = registry.NewMockClient()
		log.Warn("no upstream URL configured, serving mock registry data")
	}

	// Notification delivery: Kafka when brokers are configured, otherwise the
	// structured log.
	var dispatcher notifyservice.Dispatcher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := dispatch.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafka.Close()
		dispatcher = kafka
		log.Info("dispatching notifications to kafka", "topic", cfg.KafkaTopic)
	} else {
		dispatcher = dispatch.NewLog(log)
	}

	notifier, err := notifyservice.New(configs, inbox,
		notifyservice.WithLogger(log),
		notifyservice.WithDispatcher(dispatcher),
	)
	if err != nil {
		return err
	}

	scanOpts := []scanservice.Option{
		scanservice.WithLogger(log),
		scanservice.WithMetrics(scanmetrics.New()),
		scanservice.WithNotifier(notifier),
	}
	if rdb != nil {
		scanOpts = append(scanOpts, scanservice.WithDigestCache(digest.NewRedisCache(rdb.Client)))
	}
	scans, err := scanservice.New(upstream, snapshots, results, changes, scanOpts...)
	if err != nil {
		return err
	}

	monitoring, err := monitoringservice.New(configs, monitoringservice.WithLogger(log))
	if err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "lexwatch", "lexwatch")

	checks := map[string]httptransport.HealthCheck{}
	if rdb != nil {
		checks["redis"] = rdb.Health
	}

	// One mutex serializes scans across the HTTP trigger and the scheduler;
	// the scan core itself does not guard concurrent runs.
	var scanMu sync.Mutex
	router := httptransport.NewRouter(log, platformmetrics.New(), checks,
		scanhandler.New(scans, log, &scanMu),
		monitoringhandler.New(monitoring, log, jwtService),
		notifyhandler.New(notifier, log, jwtService),
	)

	if cfg.ScanInterval > 0 {
		go runScheduler(ctx, log, scans, &scanMu, cfg.ScanInterval)
		log.Info("scan scheduler enabled", "interval", cfg.ScanInterval.String())
	}

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting lexwatch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// runScheduler triggers a full scan every interval. A tick that lands while a
// scan is still running is skipped rather than queued.
func runScheduler(ctx context.Context, log *slog.Logger, scans *scanservice.Service, mu *sync.Mutex, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !mu.TryLock() {
				log.Warn("previous scan still running, skipping scheduled scan")
				continue
			}
			if _, err := scans.PerformFullScan(ctx); err != nil {
				log.Error("scheduled scan failed", "error", err)
			}
			mu.Unlock()
		}
	}
}
