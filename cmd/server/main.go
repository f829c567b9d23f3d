// Package main - точка входа REST API сервера HardwareHub.
//
// Философия: "Научись, собери, поделись" - платформа ведёт учащегося от
// мигающего светодиода к собственным встраиваемым проектам, открывая
// материал по мере роста навыков, а не по подписке.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: реализация репозиториев, внешние API
// - Interface: HTTP endpoints
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
	"github.com/embedpath/hardwarehub-backend/internal/application/eventhandler"
	"github.com/embedpath/hardwarehub-backend/internal/application/query"

	// Domain layer
	"github.com/embedpath/hardwarehub-backend/internal/domain/learner"
	"github.com/embedpath/hardwarehub-backend/internal/domain/shared"

	// Infrastructure layer
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/external/quizgen"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/external/reddit"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/messaging"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/persistence/postgres"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/persistence/redis"
	"github.com/embedpath/hardwarehub-backend/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/embedpath/hardwarehub-backend/internal/interface/http"
	"github.com/embedpath/hardwarehub-backend/internal/interface/http/handlers"

	// Packages
	"github.com/embedpath/hardwarehub-backend/pkg/logger"
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

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	slogger := setupSlog(cfg)
	appLog := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	})

	slogger.Info("starting HardwareHub API server",
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
	// 4. ЗАПУСК МИГРАЦИЙ
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
			slogger.Warn("failed to connect to Redis, caching disabled", "error", err)
			redisCache = nil
		} else {
			defer redisCache.Close()
			slogger.Info("Redis connection established")
		}
	}

	// Кеши объявлены интерфейсными типами: при отключённом Redis хендлеры
	// получают nil и работают напрямую с хранилищем.
	var (
		progressInvalidator command.ProgressInvalidator
		progressCacheReader query.ProgressCacheReader
		insightsInvalidator command.InsightsInvalidator
		insightsCacheReader query.InsightsCacheReader
	)
	if redisCache != nil {
		progressCache := redis.NewProgressCache(redisCache)
		progressInvalidator = progressCache
		progressCacheReader = progressCache

		insightsCache := redis.NewInsightsCache(redisCache)
		insightsInvalidator = insightsCache
		insightsCacheReader = insightsCache
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ И КАТАЛОГА
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing repositories...")
	learnerRepo := postgres.NewLearnerRepository(dbConn)
	progressStore := postgres.NewProgressStore(dbConn)
	insightsRepo := postgres.NewInsightsRepository(dbConn)
	catalogRepo := postgres.NewCatalogRepository(dbConn)

	// Свежая база получает вшитую программу; существующие уроки не трогаем.
	seedLessons, err := loadSeedLessons(cfg.Catalog.SeedFile)
	if err != nil {
		return err
	}
	if err := catalogRepo.Seed(ctx, seedLessons); err != nil {
		return fmt.Errorf("failed to seed catalog: %w", err)
	}

	cat, err := catalogRepo.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	slogger.Info("lesson catalog loaded", "lessons", cat.Len())

	tracker := learner.NewTracker(cat, progressStore, shared.PathID(cfg.Catalog.EntryPathID))

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS И ОБРАБОТЧИКОВ СОБЫТИЙ
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing event bus...")
	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.Logger = slogger

	// При REDIS_EVENT_BUS=true события уходят через Redis Pub/Sub, чтобы
	// несколько экземпляров видели события друг друга. Иначе - шина в памяти.
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

	notifier := service.NewNotificationService(redisCache, slogger)

	onPathUnlocked := eventhandler.NewOnPathUnlockedHandler(learnerRepo, notifier, slogger)
	if err := eventBus.Subscribe(onPathUnlocked.EventType(), onPathUnlocked.Handle); err != nil {
		return fmt.Errorf("failed to subscribe path unlocked handler: %w", err)
	}

	onTierPromoted := eventhandler.NewOnTierPromotedHandler(learnerRepo, notifier, slogger)
	if err := eventBus.Subscribe(onTierPromoted.EventType(), onTierPromoted.Handle); err != nil {
		return fmt.Errorf("failed to subscribe tier promoted handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ ВНЕШНИХ КЛИЕНТОВ И СЕРВИСОВ
	// ─────────────────────────────────────────────────────────────────────────
	slogger.Info("initializing external clients...")

	redditConfig := reddit.DefaultClientConfig()
	redditConfig.BaseURL = cfg.Reddit.BaseURL
	redditConfig.UserAgent = cfg.Reddit.UserAgent
	redditConfig.Timeout = cfg.Reddit.RequestTimeout
	redditConfig.Logger = slogger
	redditClient := reddit.NewClient(redditConfig)

	quizConfig := quizgen.DefaultClientConfig(cfg.QuizGen.BaseURL, cfg.QuizGen.APIKey)
	quizConfig.Timeout = cfg.QuizGen.RequestTimeout
	quizConfig.Logger = slogger
	quizClient := quizgen.NewClient(quizConfig)

	idGen := service.NewUUIDGenerator()
	quizService := service.NewQuizService(quizClient, redisCache)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. ИНИЦИАЛИЗАЦИЯ CQRS ОБРАБОТЧИКОВ
	// ─────────────────────────────────────────────────────────────────────────
	registerHandler := command.NewRegisterLearnerHandler(learnerRepo, idGen, eventBus)
	completionHandler := command.NewRecordCompletionHandler(tracker, progressInvalidator, eventBus)
	resetHandler := command.NewResetProgressHandler(tracker, progressInvalidator, eventBus)
	overrideHandler := command.NewOverrideTierHandler(tracker, progressInvalidator, eventBus)
	syncHandler := command.NewSyncInsightsHandler(redditClient, insightsRepo, insightsInvalidator, eventBus)

	catalogQuery := query.NewGetLessonCatalogHandler(cat, progressStore)
	progressQuery := query.NewGetLearnerProgressHandler(cat, progressStore, progressCacheReader)
	insightsQuery := query.NewGetCommunityInsightsHandler(insightsRepo, insightsCacheReader)
	quizQuery := query.NewGetLessonQuizHandler(cat, progressStore, quizService)

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("postgres", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("redis", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 11. HTTP СЕРВЕР
	// ─────────────────────────────────────────────────────────────────────────
	serverConfig := httpserver.DefaultConfig()
	serverConfig.Host = cfg.HTTP.Host
	serverConfig.Port = cfg.HTTP.Port
	serverConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	serverConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	serverConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	serverConfig.EnableCORS = cfg.HTTP.EnableCORS
	serverConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverConfig.APIKeyHeader = cfg.HTTP.APIKeyHeader
	serverConfig.APIKeys = cfg.HTTP.APIKeys
	serverConfig.JWTSecret = cfg.HTTP.JWTSecret
	serverConfig.JWTTTL = cfg.HTTP.JWTTTL

	server := httpserver.NewServer(serverConfig, httpserver.Dependencies{
		GetLessonCatalogHandler:     catalogQuery,
		GetLearnerProgressHandler:   progressQuery,
		GetCommunityInsightsHandler: insightsQuery,
		GetLessonQuizHandler:        quizQuery,
		RegisterLearnerHandler:      registerHandler,
		RecordCompletionHandler:     completionHandler,
		ResetProgressHandler:        resetHandler,
		OverrideTierHandler:         overrideHandler,
		SyncInsightsHandler:         syncHandler,
		LearnerRepo:                 learnerRepo,
		Logger:                      appLog,
		HealthChecker:               healthChecker,
	})

	errCh := server.StartAsync()
	slogger.Info("HardwareHub API server is running", "address", server.Address())

	// ─────────────────────────────────────────────────────────────────────────
	// 12. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slogger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	slogger.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	slogger.Info("shutdown completed successfully")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupSlog настраивает структурированное логирование инфраструктурного слоя.
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
