// Package main - точка входа для фоновых процессов (Worker) HardwareHub.
//
// Worker отвечает за периодические задачи:
// - Синхронизация инсайтов сообщества с Reddit
// - Сверка закрытий треков и повышений уровня для активных учащихся
//
// Философия: "Научись, собери, поделись" - Worker держит ленту сообщества
// свежей и гарантирует, что ни одно заработанное повышение не потеряется
// даже после сбоев между записью и публикацией событий.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	// Config
	"github.com/embedpath/hardwarehub-backend/config"

	// Application layer
	"github.com/embedpath/hardwarehub-backend/internal/application/command"

	// Domain layer
	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"

	// Infrastructure layer
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/external/reddit"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/messaging"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/persistence/postgres"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/persistence/redis"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/scheduler"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/scheduler/jobs"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	// Создаём корневой контекст с возможностью отмены
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запускаем приложение
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if !cfg.Scheduler.Enabled {
		return errors.New("worker started with SCHEDULER_ENABLED=false, nothing to do")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg)
	slogger.Info("starting HardwareHub worker",
		"env", string(cfg.App.Environment),
		"version", cfg.App.Version,
		"debug", cfg.App.Debug,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("connecting to database...")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		slogger.Info("closing database connection...")
		dbConn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ (Worker также должен иметь актуальную схему)
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("checking database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slogger.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		slogger.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			slogger.Warn("failed to connect to Redis, cache invalidation disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			slogger.Info("Redis connection established")
		}
	}

	var insightsInvalidator command.InsightsInvalidator
	if redisCache != nil {
		insightsInvalidator = redis.NewInsightsCache(redisCache)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И КАТАЛОГА
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing repositories...")
	progressStore := postgres.NewProgressStore(dbConn)
	insightsRepo := postgres.NewInsightsRepository(dbConn)
	catalogRepo := postgres.NewCatalogRepository(dbConn)

	cat, err := catalogRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	slogger.Info("lesson catalog loaded", "lessons", cat.Len())

	tracker := learner.NewTracker(cat, progressStore, shared.PathID(cfg.Catalog.EntryPathID))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = slogger

	// При REDIS_EVENT_BUS=true события синхронизации доходят до серверных
	// экземпляров через Redis Pub/Sub. Иначе - шина в памяти.
	var eventBus shared.EventBus
	if cfg.Redis.EventBus && redisCache != nil {
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         messaging.NewGoRedisClient(redisCache.Client()),
			ChannelName:    cfg.Redis.EventBusChannel,
			LocalBusConfig: localBusConfig,
			Logger:         slogger,
		})
		if err != nil {
			return fmt.Errorf("failed to start redis event bus: %w", err)
		}
		eventBus = redisBus
		slogger.Info("event bus: redis pub/sub", "channel", cfg.Redis.EventBusChannel)
	} else {
		eventBus = messaging.NewInMemoryEventBus(localBusConfig)
	}
	defer func() {
		slogger.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ И КОМАНД
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing external clients...")

	redditConfig := reddit.DefaultClientConfig()
	redditConfig.BaseURL = cfg.Reddit.BaseURL
	redditConfig.UserAgent = cfg.Reddit.UserAgent
	redditConfig.Timeout = cfg.Reddit.RequestTimeout
	redditConfig.Logger = slogger
	redditClient := reddit.NewClient(redditConfig)

	syncHandler := command.NewSyncInsightsHandler(redditClient, insightsRepo, insightsInvalidator, eventBus)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ПЛАНИРОВЩИК И ДЖОБЫ
	// ─────────────────────────────────────────────────────────────────────────
	schedConfig := scheduler.DefaultSchedulerConfig()
	schedConfig.Logger = slogger
	sched := scheduler.NewScheduler(schedConfig)

	// Лента инсайтов может быть выключена флагом целиком - тогда синк не нужен.
	insightsEnabled := cfg.Features.IsEnabled(config.FeatureInsightsFeed, nil)

	syncJobConfig := jobs.DefaultSyncInsightsConfig()
	syncJobConfig.Subreddits = cfg.Reddit.Subreddits
	syncJobConfig.PostsPerSubreddit = cfg.Reddit.PostsPerSubreddit
	syncJobConfig.Timeout = cfg.Scheduler.JobTimeout
	syncJob := jobs.NewSyncInsightsJob(syncHandler, slogger, syncJobConfig)

	if insightsEnabled {
		if err := sched.Register(syncJob, scheduler.NewIntervalSchedule(cfg.Scheduler.SyncInsightsInterval)); err != nil {
			return fmt.Errorf("failed to register sync job: %w", err)
		}
	} else {
		slogger.Warn("insights feed is disabled by feature flag, sync job not scheduled")
	}

	reconcileJob := jobs.NewReconcileProgressJob(tracker, progressStore, slogger, jobs.DefaultReconcileProgressConfig())
	if err := sched.Register(reconcileJob, scheduler.NewIntervalSchedule(cfg.Scheduler.ReconcileProgressInterval)); err != nil {
		return fmt.Errorf("failed to register reconcile job: %w", err)
	}

	// Ночная чистка ленты: посты старше окна хранения удаляются.
	cleanupSchedule, err := scheduler.NewCronSchedule(cfg.Scheduler.CleanupCron)
	if err != nil {
		return fmt.Errorf("invalid cleanup cron expression: %w", err)
	}
	cleanupConfig := jobs.DefaultCleanupInsightsConfig()
	cleanupConfig.Retention = cfg.Scheduler.InsightsRetention
	cleanupJob := jobs.NewCleanupInsightsJob(insightsRepo, slogger, cleanupConfig)
	if err := sched.Register(cleanupJob, cleanupSchedule); err != nil {
		return fmt.Errorf("failed to register cleanup job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	slogger.Info("HardwareHub worker is running",
		"sync_interval", cfg.Scheduler.SyncInsightsInterval.String(),
		"reconcile_interval", cfg.Scheduler.ReconcileProgressInterval.String(),
		"cleanup_cron", cfg.Scheduler.CleanupCron,
	)

	// Первый синк запускаем сразу, не дожидаясь интервала.
	if insightsEnabled {
		if _, err := sched.RunNow(ctx, syncJob.Name()); err != nil {
			slogger.Warn("initial insights sync failed", "error", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slogger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
	}

	slogger.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := sched.Stop(); err != nil {
		slogger.Warn("scheduler stop failed", "error", err)
	}

	slogger.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupSlog настраивает структурированное логирование.
func setupSlog(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.App.Debug {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		// JSON формат для production (лучше для агрегаторов логов)
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		// Текстовый формат для development (лучше читается)
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}
