package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	// Application
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/usecase"

	// Domain
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/service"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/domain/valueobject"

	// Infrastructure
	redisCache "github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/cache/redis"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/collector"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/detector"
	natsInfra "github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/messaging/nats"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/notification/email"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/notification/sms"
	wsInfra "github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/notification/websocket"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/observability/cloudwatch"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/observability/metrics"
	dynamodbRepo "github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/persistence/dynamodb"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/persistence/postgres"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/snapshot"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/source/directory"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/source/httpsnapshot"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/storage/local"
	s3storage "github.com/PavithraS-567/Video-Surveillance-System/internal/infrastructure/storage/s3"

	// Interfaces
	httpInterface "github.com/PavithraS-567/Video-Surveillance-System/internal/interfaces/http"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/interfaces/http/handler"
	"github.com/PavithraS-567/Video-Surveillance-System/internal/interfaces/http/middleware"

	// Shared
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/config"
	"github.com/PavithraS-567/Video-Surveillance-System/pkg/logger"
)

// closer - то, что нужно закрыть при остановке, в обратном порядке открытия
type closer struct {
	name  string
	close func(ctx context.Context) error
}

func runMonitor(c *cli.Context) error {
	// 1. Загружаем конфигурацию
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to load config: %v", err), 1)
	}

	// 2. Инициализируем logger
	log := logger.New(cfg.LogLevel)
	log.Info("Starting surveillance monitor", "version", version, "cameras", len(cfg.Cameras.IDs))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []closer
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i].close(shutdownCtx); err != nil {
				log.Fallback("Failed to close "+closers[i].name, err)
			}
		}
		log.Close()
	}()

	// CloudWatch Logs подключается первым, чтобы получить все последующие записи
	if cfg.CloudWatch.LogsEnabled {
		logsPublisher, err := cloudwatch.NewLogsPublisher(ctx, cloudwatch.LogsPublisherConfig{
			LogGroupName:    cfg.CloudWatch.LogGroupName,
			LogStreamName:   cfg.CloudWatch.LogStreamName,
			Region:          cfg.CloudWatch.Region,
			Endpoint:        cfg.CloudWatch.Endpoint,
			AccessKeyID:     cfg.CloudWatch.AccessKeyID,
			SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
			BufferSize:      cfg.CloudWatch.LogsBufferSize,
			FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
			AutoCreate:      true,
			OnFlushError: func(err error) {
				log.Fallback("CloudWatch logs flush failed", err)
			},
		})
		if err != nil {
			log.Warn("CloudWatch logs disabled", "error", err.Error())
		} else {
			log.SetLogPublisher(logsPublisher)
			// logger.Close дренирует очередь раньше, чем закроется publisher
			closers = append(closers, closer{"cloudwatch logs", logsPublisher.Close})
			log.Info("CloudWatch logs enabled", "log_group", cfg.CloudWatch.LogGroupName)
		}
	}

	// 3. Dependency Injection - Infrastructure Layer

	// Prometheus
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	pipelineMetrics := metrics.New(registry)

	// Хранилище снимков и журнал тревог
	snapshotStorage, err := local.NewSnapshotStorage(cfg.Storage.SnapshotDir)
	if err != nil {
		log.Error("Failed to prepare snapshot directory", err)
		return cli.Exit("", 1)
	}

	alertLog, err := local.OpenAlertLog(cfg.Storage.AlertLogPath)
	if err != nil {
		log.Error("Failed to open alert log", err)
		return cli.Exit("", 1)
	}
	closers = append(closers, closer{"alert log", func(context.Context) error { return alertLog.Close() }})

	var mirror port.SnapshotStorage
	if cfg.S3.Enabled {
		s3Storage, err := s3storage.NewSnapshotStorage(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			KeyPrefix:       cfg.S3.KeyPrefix,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if err != nil {
			log.Warn("S3 snapshot mirror disabled", "error", err.Error())
		} else {
			mirror = s3Storage
			log.Info("S3 snapshot mirror enabled", "bucket", cfg.S3.Bucket)
		}
	}

	// Журнал тревог в БД
	repository, repoCloser := openAuditRepository(ctx, cfg.Audit, log)
	if repoCloser != nil {
		closers = append(closers, *repoCloser)
	}

	// Кэш последних тревог
	var cache port.Cache
	if cfg.Redis.Enabled {
		rc, err := redisCache.NewRedisCache(redisCache.Options{
			Host:      cfg.Redis.Host,
			Port:      cfg.Redis.Port,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			TTL:       cfg.Redis.TTL,
			Namespace: cfg.Redis.Namespace,
		})
		if err != nil {
			log.Warn("Redis cache disabled", "error", err.Error())
		} else {
			cache = rc
			closers = append(closers, closer{"redis", func(context.Context) error { return rc.Close() }})
			log.Info("Redis cache enabled", "host", cfg.Redis.Host)
		}
	}

	// WebSocket hub
	hub := wsInfra.NewHub(log)
	go hub.Run(ctx)

	// Транспорты уведомлений
	transports, transportClosers := buildTransports(cfg, hub, log)
	closers = append(closers, transportClosers...)

	// 4. Dependency Injection - Application Layer

	dispatcher := usecase.NewAlertDispatcher(
		usecase.DispatcherConfig{
			QueueSize:        cfg.Dispatch.QueueSize,
			Workers:          cfg.Dispatch.Workers,
			TransportTimeout: cfg.Dispatch.TransportTimeout,
			TransportRetries: cfg.Dispatch.TransportRetries,
			RetryBackoff:     time.Second,
			RatePerMinute:    cfg.Dispatch.RatePerMinute,
		},
		usecase.DispatcherDeps{
			Encoder:    snapshot.NewJPEGEncoder(cfg.Storage.JPEGQuality, cfg.Storage.Annotate),
			Storage:    snapshotStorage,
			Mirror:     mirror,
			AlertLog:   alertLog,
			Repository: repository,
			Cache:      cache,
			Transports: transports,
			Metrics:    pipelineMetrics,
		},
		log,
	)
	dispatcher.Start()

	statusRegistry := usecase.NewStatusRegistry()

	runners, err := buildMonitors(cfg, dispatcher, alertLog, statusRegistry, pipelineMetrics, log)
	if err != nil {
		log.Error("Failed to build camera monitors", err)
		shutdownDispatcher(dispatcher, cfg.Dispatch.ShutdownTimeout, log)
		return cli.Exit("", 1)
	}
	supervisor := usecase.NewSupervisor(runners, log)

	// Телеметрия: Prometheus всегда, CloudWatch по флагу
	publishers := []port.MetricsPublisher{pipelineMetrics}
	if cfg.CloudWatch.MetricsEnabled {
		metricsPublisher, err := cloudwatch.NewMetricsPublisher(ctx, cloudwatch.MetricsPublisherConfig{
			Namespace:         cfg.CloudWatch.MetricsNamespace,
			Region:            cfg.CloudWatch.Region,
			Endpoint:          cfg.CloudWatch.Endpoint,
			AccessKeyID:       cfg.CloudWatch.AccessKeyID,
			SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
			DefaultDimensions: map[string]string{"Host": cfg.CloudWatch.LogStreamName},
			BufferSize:        cfg.CloudWatch.MetricsBufferSize,
			FlushInterval:     cfg.CloudWatch.MetricsFlushInterval,
			OnFlushError: func(err error) {
				log.Error("CloudWatch metrics flush failed", err)
			},
		})
		if err != nil {
			log.Warn("CloudWatch metrics disabled", "error", err.Error())
		} else {
			publishers = append(publishers, metricsPublisher)
			closers = append(closers, closer{"cloudwatch metrics", metricsPublisher.Close})
			log.Info("CloudWatch metrics enabled", "namespace", cfg.CloudWatch.MetricsNamespace)
		}
	}

	telemetry := usecase.NewCollectTelemetryUseCase(
		collector.NewHostMetricsCollector(cfg.Storage.SnapshotDir),
		statusRegistry,
		dispatcher,
		publishers,
		hub,
		service.NewMetricValidator(),
		log,
	)
	if cfg.Telemetry.Interval > 0 {
		go telemetry.Run(ctx, cfg.Telemetry.Interval)
	}

	// 5. Dependency Injection - Interfaces Layer
	var server *http.Server
	if cfg.Server.Enabled {
		var rateLimiter *middleware.IPRateLimiter
		if cfg.Security.RateLimitRPS > 0 {
			rateLimiter = middleware.NewIPRateLimiter(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst)
			go rateLimiter.Run(ctx)
		}

		authConfig := middleware.AuthConfig{
			Enabled:     cfg.Security.AuthEnabled,
			BearerToken: cfg.Security.AuthToken,
		}
		router := httpInterface.NewRouter(
			handler.NewHealthHandler(supervisor.Started),
			handler.NewCameraAPIHandler(statusRegistry),
			handler.NewAlertAPIHandler(usecase.NewGetRecentAlertsUseCase(cache, repository, log), log),
			handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, authConfig, log),
			pipelineMetrics,
			registry,
			rateLimiter,
			cfg.Security,
			log,
		)

		server = &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router.Setup(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		}

		go func() {
			log.Info("HTTP server started", "port", cfg.Server.Port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("HTTP server failed", err)
			}
		}()
	}

	// 6. Мониторинг камер: блокируется до остановки всех мониторов или сигнала
	report := supervisor.Run(ctx)
	for _, result := range report.Abnormal() {
		log.Warn("Camera stopped abnormally",
			"camera_id", result.CameraID,
			"reason", string(result.Reason),
			"error", fmt.Sprint(result.Err),
		)
	}
	log.Info("All cameras stopped", "exit_code", report.ExitCode())

	// 7. Graceful shutdown: сначала дожидаемся доставки, затем гасим HTTP
	shutdownDispatcher(dispatcher, cfg.Dispatch.ShutdownTimeout, log)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Server forced to shutdown", err)
		}
		cancel()
	}
	stop()

	log.Info("Surveillance monitor stopped")

	if code := report.ExitCode(); code != 0 {
		return cli.Exit("", code)
	}
	return nil
}

func shutdownDispatcher(dispatcher *usecase.AlertDispatcher, timeout time.Duration, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := dispatcher.Shutdown(ctx); err != nil {
		log.Warn("Alert dispatcher did not drain in time", "error", err.Error())
	}
	stats := dispatcher.Stats()
	log.Info("Alert dispatcher stopped",
		"submitted", stats.Submitted,
		"dropped", stats.Dropped,
		"deliveries_ok", stats.DeliveriesOK,
		"deliveries_failed", stats.DeliveriesFailed,
	)
}

// openAuditRepository подключает журнал тревог в PostgreSQL или DynamoDB.
// Ошибка подключения не останавливает мониторинг: тревоги продолжают уходить в файл.
func openAuditRepository(ctx context.Context, cfg config.AuditConfig, log *logger.Logger) (port.AlertRepository, *closer) {
	switch cfg.Backend {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.Database.DSN(), postgres.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			log.Warn("PostgreSQL audit disabled", "error", err.Error())
			return nil, nil
		}
		repo := postgres.NewPostgresAlertRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Warn("PostgreSQL audit disabled", "error", err.Error())
			_ = db.Close()
			return nil, nil
		}
		log.Info("Database connected successfully", "host", cfg.Database.Host)
		return repo, &closer{"postgres", closeDB(db)}

	case "dynamodb":
		repo, err := dynamodbRepo.NewAlertRepository(ctx, dynamodbRepo.Config{
			TableName:       cfg.Dynamo.TableName,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
			TTLDays:         cfg.Dynamo.TTLDays,
		})
		if err != nil {
			log.Warn("DynamoDB audit disabled", "error", err.Error())
			return nil, nil
		}
		log.Info("DynamoDB audit enabled", "table", cfg.Dynamo.TableName)
		return repo, nil

	default:
		return nil, nil
	}
}

func closeDB(db *sql.DB) func(context.Context) error {
	return func(context.Context) error { return db.Close() }
}

// buildTransports собирает включенные каналы доставки. Транспорт, который не удалось
// создать, пропускается с предупреждением.
func buildTransports(cfg *config.Config, hub *wsInfra.Hub, log *logger.Logger) ([]port.Transport, []closer) {
	var transports []port.Transport
	var closers []closer

	if cfg.Email.Enabled {
		t, err := email.NewTransport(email.Config{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Sender:   cfg.Email.Sender,
			Password: cfg.Email.Password,
			Receiver: cfg.Email.Receiver,
			Timeout:  cfg.Dispatch.TransportTimeout,
		})
		if err != nil {
			log.Warn("Email transport disabled", "error", err.Error())
		} else {
			transports = append(transports, t)
		}
	}

	if cfg.SMS.Enabled {
		t, err := sms.NewTransport(sms.Config{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			From:       cfg.SMS.From,
			To:         cfg.SMS.To,
		})
		if err != nil {
			log.Warn("SMS transport disabled", "error", err.Error())
		} else {
			transports = append(transports, t)
		}
	}

	if cfg.NATS.Enabled {
		publisher, err := natsInfra.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.SubjectPrefix, log)
		if err != nil {
			log.Warn("NATS transport disabled", "error", err.Error())
		} else {
			transports = append(transports, natsInfra.NewAlertTransport(publisher, cfg.NATS.SubjectPrefix))
			closers = append(closers, closer{"nats", func(context.Context) error { return publisher.Close() }})
		}
	}

	if cfg.Server.Enabled {
		transports = append(transports, hub)
	}

	names := make([]string, 0, len(transports))
	for _, t := range transports {
		names = append(names, t.Name())
	}
	log.Info("Notification transports configured", "transports", names)

	return transports, closers
}

// buildMonitors создает по монитору на камеру с общим классификатором и детектором
func buildMonitors(
	cfg *config.Config,
	sink usecase.AlertSink,
	alertLog port.AlertLog,
	registry *usecase.StatusRegistry,
	pipelineMetrics port.PipelineMetrics,
	log *logger.Logger,
) ([]usecase.CameraRunner, error) {
	source, err := newFrameSource(cfg.Cameras)
	if err != nil {
		return nil, err
	}

	var det port.Detector = detector.NopDetector{}
	if cfg.Detector.Endpoint != "" {
		httpDetector, err := detector.NewHTTPDetector(cfg.Detector.Endpoint, cfg.Detector.Timeout)
		if err != nil {
			return nil, err
		}
		det = httpDetector
	} else {
		log.Warn("DETECTOR_ENDPOINT is not set, object detection disabled")
	}

	classCategories := make(map[string]valueobject.AlertCategory, len(cfg.Detector.ClassCategories))
	for class, raw := range cfg.Detector.ClassCategories {
		category, err := valueobject.ParseAlertCategory(raw)
		if err != nil {
			return nil, fmt.Errorf("detector class %q: %w", class, err)
		}
		classCategories[class] = category
	}

	policy := service.CooldownPolicy{
		Default:           cfg.Cooldown.Default,
		PerCategory:       make(map[valueobject.AlertCategory]time.Duration, len(cfg.Cooldown.PerCategory)),
		SharedObstruction: cfg.Cooldown.SharedObstruction,
	}
	for raw, d := range cfg.Cooldown.PerCategory {
		category, err := valueobject.ParseAlertCategory(raw)
		if err != nil {
			return nil, fmt.Errorf("cooldown: %w", err)
		}
		policy.PerCategory[category] = d
	}

	classifier := service.NewObstructionClassifier(service.ObstructionThresholds{
		DarkPixelThreshold:  cfg.Obstruction.DarkPixelThreshold,
		FullBlockBrightness: cfg.Obstruction.FullBlockBrightness,
		PartialDarkRatio:    cfg.Obstruction.PartialDarkRatio,
	})

	runners := make([]usecase.CameraRunner, 0, len(cfg.Cameras.IDs))
	for _, id := range cfg.Cameras.IDs {
		runners = append(runners, usecase.NewCameraMonitor(
			usecase.MonitorConfig{
				CameraID:            id,
				DebounceDuration:    cfg.Obstruction.DebounceDuration,
				Cooldown:            policy,
				ConfidenceThreshold: cfg.Detector.ConfidenceThreshold,
				InferenceSize:       cfg.Detector.InferenceSize,
				ClassCategories:     classCategories,
				MaxDetectorFailures: cfg.Detector.MaxConsecutiveFailures,
			},
			source,
			classifier,
			det,
			sink,
			alertLog,
			registry,
			pipelineMetrics,
			log,
		))
	}
	return runners, nil
}

func newFrameSource(cfg config.CameraConfig) (port.FrameSource, error) {
	switch cfg.Source {
	case "dir":
		return directory.NewSource(cfg.SourceRoot, cfg.FrameInterval), nil
	case "http":
		return httpsnapshot.NewSource(httpsnapshot.Config{
			URLTemplate:     cfg.SnapshotURL,
			Interval:        cfg.FrameInterval,
			MaxReadFailures: cfg.MaxReadFailures,
			Timeout:         5 * time.Second,
		}, nil), nil
	default:
		return nil, fmt.Errorf("unsupported camera source: %s", cfg.Source)
	}
}
