// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"directory-workers/internal/cache"
	"directory-workers/internal/common/aws"
	"directory-workers/internal/common/camunda"
	"directory-workers/internal/common/config"
	"directory-workers/internal/common/database"
	"directory-workers/internal/common/health"
	"directory-workers/internal/common/logger"
	"directory-workers/internal/common/observability"
	"directory-workers/internal/notify"
	"directory-workers/internal/store"

	// Analytics Workers (3)
	dqa "directory-workers/internal/workers/analytics/detect-quality-alerts"
	gcs "directory-workers/internal/workers/analytics/generate-comment-summary"
	str "directory-workers/internal/workers/analytics/search-trends"

	// Data Access Workers (2)
	qe "directory-workers/internal/workers/data-access/query-elasticsearch"
	qp "directory-workers/internal/workers/data-access/query-postgresql"

	// Directory Workers (2)
	arr "directory-workers/internal/workers/directory/apply-relevance-ranking"
	sp "directory-workers/internal/workers/directory/search-providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog, _ := zap.NewProduction()
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic(err)
	}
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(observability.Options{
		ServiceName:    cfg.App.Name,
		JaegerEndpoint: tracingEndpoint(cfg.Tracing),
		SampleRatio:    cfg.Tracing.SampleRatio,
	})
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retry := camunda.DefaultRetryConfig

	// --- Init Zeebe Client with retry ---
	zeebeClient, err := camunda.Connect(ctx, cfg.Camunda.BrokerAddress, retry, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		zapLog.Fatal("postgres init failed", zap.Error(err))
	}
	defer pg.Close()
	if err := camunda.Retry(ctx, retry, "postgres connection", log, pg.Ping); err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil {
		zapLog.Fatal("redis init failed", zap.Error(err))
	}
	defer rdb.Close()
	if err := camunda.Retry(ctx, retry, "redis connection", log, rdb.Ping); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	zapLog.Info("Redis connected successfully")

	pingers := []database.Pinger{pg, rdb}

	// --- Init Elasticsearch with retry (optional unless it is the candidate source) ---
	var esClient *database.ElasticsearchClient
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			zapLog.Fatal("elasticsearch init failed", zap.Error(err))
		}
		if err := camunda.Retry(ctx, retry, "elasticsearch connection", log, esClient.Ping); err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		pingers = append(pingers, esClient)
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Stores & caches ---
	pgStore := store.NewPostgres(pg.DB, cfg.Ranking.MaxCandidates)

	var candidates store.CandidateSource = pgStore
	if cfg.Ranking.CandidateSource == config.CandidateSourceElasticsearch {
		candidates = store.NewElasticsearch(esClient.Client, cfg.Database.Elasticsearch.ProviderIndex, cfg.Ranking.MaxCandidates)
	}

	scoreCaches := cache.Multi{
		cache.NewRedisScoreCache(rdb.Client, time.Duration(cfg.Ranking.ScoreCacheTTL)*time.Second),
	}
	if cfg.Ranking.PersistScores {
		scoreCaches = append(scoreCaches, cache.NewWriteBack(pgStore))
	}
	summaries := cache.NewSummaryCache(rdb.Client, time.Duration(cfg.Quality.SummaryCacheTTL)*time.Second)

	// --- Alert notifications ---
	notifier := newNotifier(ctx, cfg.Notifications, zapLog)

	// --- Register Workers ---
	workers := camunda.NewWorkers(zeebeClient, log)

	// --- 1. Directory Workers (2) ---
	{
		wcfg := config.GetWorkerConfig(cfg, sp.TaskType)
		spCfg := sp.LoadConfig()
		spCfg.Timeout = config.GetDuration(wcfg.Timeout)
		spCfg.Weights = cfg.Ranking.Weights
		spCfg.MaxLimit = cfg.Ranking.MaxLimit
		handler := sp.NewHandler(spCfg, candidates, scoreCaches, pgStore, obs, log)
		workers.Start(sp.TaskType, wcfg, handler)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, arr.TaskType)
		arrCfg := arr.LoadConfig()
		arrCfg.Timeout = config.GetDuration(wcfg.Timeout)
		arrCfg.Weights = cfg.Ranking.Weights
		arrCfg.MaxItems = cfg.Ranking.MaxLimit
		handler := arr.NewHandler(arrCfg, obs, log)
		workers.Start(arr.TaskType, wcfg, handler)
	}

	// --- 2. Analytics Workers (3) ---
	{
		wcfg := config.GetWorkerConfig(cfg, dqa.TaskType)
		dqaCfg := dqa.LoadConfig()
		dqaCfg.Timeout = config.GetDuration(wcfg.Timeout)
		dqaCfg.Thresholds = cfg.Quality.Thresholds
		handler := dqa.NewHandler(dqaCfg, pgStore, pgStore, notifier, obs, log)
		workers.Start(dqa.TaskType, wcfg, handler)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, gcs.TaskType)
		gcsCfg := gcs.LoadConfig()
		gcsCfg.Timeout = config.GetDuration(wcfg.Timeout)
		handler := gcs.NewHandler(gcsCfg, pgStore, pgStore, pgStore, summaries, obs, log)
		workers.Start(gcs.TaskType, wcfg, handler)
	}

	{
		wcfg := config.GetWorkerConfig(cfg, str.TaskType)
		strCfg := str.LoadConfig()
		strCfg.Timeout = config.GetDuration(wcfg.Timeout)
		strCfg.WindowDays = cfg.Quality.TrendWindowDays
		strCfg.TopTermsMax = cfg.Quality.TrendTopTermsMax
		handler := str.NewHandler(strCfg, pgStore, obs, log)
		workers.Start(str.TaskType, wcfg, handler)
	}

	// --- 3. Data Access Workers (2) ---
	{
		wcfg := config.GetWorkerConfig(cfg, qp.TaskType)
		qpCfg := qp.LoadConfig()
		qpCfg.Timeout = config.GetDuration(wcfg.Timeout)
		qpCfg.DefaultSinceDays = cfg.Quality.TrendWindowDays
		handler := qp.NewHandler(qpCfg, pgStore, log)
		workers.Start(qp.TaskType, wcfg, handler)
	}

	if esClient != nil {
		wcfg := config.GetWorkerConfig(cfg, qe.TaskType)
		qeCfg := qe.LoadConfig()
		qeCfg.Timeout = config.GetDuration(wcfg.Timeout)
		qeCfg.DefaultIndex = cfg.Database.Elasticsearch.ProviderIndex
		handler := qe.NewHandler(qeCfg, esClient.Client, log)
		workers.Start(qe.TaskType, wcfg, handler)
	} else {
		zapLog.Info("Elasticsearch not configured, query-elasticsearch worker not started")
	}

	zapLog.Info("Workers registered", zap.Strings("running", workers.Running()))

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           health.NewServer(cfg.App.Version, workers, pingers...).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.CloseAll()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func tracingEndpoint(tc config.TracingConfig) string {
	if !tc.Enabled {
		return ""
	}
	return tc.JaegerEndpoint
}

// newNotifier builds the alert notifier from the enabled channels. AWS
// config failures disable notifications instead of stopping the manager.
func newNotifier(ctx context.Context, nc config.NotificationConfig, zapLog *zap.Logger) *notify.AlertNotifier {
	if !nc.SNS.Enabled && !nc.SES.Enabled {
		return notify.NewAlertNotifier(notify.Options{})
	}

	awsCfg, err := aws.LoadConfig(ctx, nc.AWS.Region)
	if err != nil {
		zapLog.Error("aws config failed, quality alert notifications disabled", zap.Error(err))
		return notify.NewAlertNotifier(notify.Options{})
	}

	opts := notify.Options{}
	if nc.SNS.Enabled {
		opts.SNS = aws.NewSNSClient(awsCfg)
		opts.TopicARN = nc.SNS.TopicARN
	}
	if nc.SES.Enabled {
		opts.SES = aws.NewSESClient(awsCfg)
		opts.FromEmail = nc.SES.FromEmail
		opts.Recipients = nc.SES.Recipients
	}

	n := notify.NewAlertNotifier(opts)
	zapLog.Info("Quality alert notifications configured",
		zap.Bool("sns", nc.SNS.Enabled),
		zap.Bool("ses", nc.SES.Enabled),
	)
	return n
}
