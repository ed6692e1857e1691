package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"approved-premises-workers/internal/api"
	"approved-premises-workers/internal/assessment"
	"approved-premises-workers/internal/common/auth"
	awsclients "approved-premises-workers/internal/common/aws"
	"approved-premises-workers/internal/common/camunda"
	"approved-premises-workers/internal/common/config"
	"approved-premises-workers/internal/common/database"
	"approved-premises-workers/internal/common/logger"
	"approved-premises-workers/internal/common/observability"
	"approved-premises-workers/internal/events"
	"approved-premises-workers/internal/notifications"
	"approved-premises-workers/internal/offenders"
	"approved-premises-workers/internal/placements"
	"approved-premises-workers/internal/schemas"
	"approved-premises-workers/internal/store/postgres"

	aa "approved-premises-workers/internal/workers/assessment/accept-assessment"
	ra "approved-premises-workers/internal/workers/assessment/reject-assessment"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "console", "stderr")
		bootstrap.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.Observability.ServiceName)
	if err != nil {
		zapLog.Fatal("metrics init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	if cfg.Observability.TracingEnabled {
		shutdownTracing, err := observability.InitTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
		defer shutdownTracing(context.Background())
	}

	// --- Stores ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()

	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}

	redisClient := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()

	zapLog.Info("Stores connected")

	// --- Outbound clients ---
	sesClient, err := awsclients.NewSESClient(ctx, cfg.Notifications.AWS.Region)
	if err != nil {
		zapLog.Fatal("ses client failed", zap.Error(err))
	}

	publisher, closePublisher, err := newPublisher(ctx, cfg)
	if err != nil {
		zapLog.Fatal("domain event publisher failed", zap.Error(err))
	}
	defer closePublisher()

	keycloak := auth.NewKeycloakClient(
		cfg.Auth.Keycloak.URL,
		cfg.Auth.Keycloak.Realm,
		cfg.Auth.Keycloak.ClientID,
		cfg.Auth.Keycloak.ClientSecret,
	)

	// --- Domain services ---
	users := postgres.NewUserRepository(pg.DB)
	placementRepo := postgres.NewPlacementRepository(pg.DB)

	workflow := assessment.NewWorkflow(assessment.Dependencies{
		Store:      postgres.NewAssessmentRepository(pg.DB),
		Transactor: database.NewTransactor(pg.DB),
		Schemas: schemas.NewService(
			postgres.NewSchemaRepository(pg.DB),
			redisClient.Client,
			cfg.Schemas.TTL(),
			cfg.Schemas.CacheKeyPrefix,
			log,
		),
		Access:                assessment.RoleBasedAccess{},
		Offenders:             offenders.NewService(esClient.Client, cfg.Offenders.Index, log),
		PlacementRequirements: placements.NewRequirementsService(placementRepo, log),
		PlacementRequests:     placements.NewRequestService(placementRepo, log),
		DomainEvents: events.NewService(events.Config{
			Enabled:                cfg.DomainEvents.Enabled,
			DetailURLBase:          cfg.DomainEvents.DetailURLBase,
			ApplicationURLTemplate: cfg.Notifications.ApplicationURLTemplate,
		}, postgres.NewDomainEventRepository(pg.DB), publisher, log),
		Emails: notifications.NewEmailService(notifications.Config{
			Enabled:                cfg.Notifications.Email.Enabled,
			FromEmail:              cfg.Notifications.Email.FromEmail,
			ApplicationURLTemplate: cfg.Notifications.ApplicationURLTemplate,
		}, sesClient, log),
		SystemNotes: postgres.NewSystemNoteRepository(pg.DB),
		Logger:      log,
	})

	// --- Zeebe workers ---
	zeebe, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: cfg.Camunda.Plaintext,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	}, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed", zap.Error(err))
	}
	defer zeebe.Close()

	var workers []*camunda.JobWorker

	if config.IsWorkerEnabled(cfg, aa.TaskType) {
		wc := aa.ConfigFrom(cfg)
		handler, err := aa.NewHandler(aa.HandlerOptions{
			Config:        wc,
			Decider:       workflow,
			Users:         users,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("accept-assessment handler failed", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      aa.TaskType,
			MaxJobsActive: wc.MaxJobsActive,
			Timeout:       wc.Timeout,
		}, handler, log))
	}

	if config.IsWorkerEnabled(cfg, ra.TaskType) {
		wc := ra.ConfigFrom(cfg)
		handler, err := ra.NewHandler(ra.HandlerOptions{
			Config:        wc,
			Decider:       workflow,
			Users:         users,
			Observability: obs,
			Logger:        log,
		})
		if err != nil {
			zapLog.Fatal("reject-assessment handler failed", zap.Error(err))
		}
		workers = append(workers, camunda.StartWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      ra.TaskType,
			MaxJobsActive: wc.MaxJobsActive,
			Timeout:       wc.Timeout,
		}, handler, log))
	}

	// --- HTTP ---
	handler := api.NewHandler(workflow, keycloak, users, map[string]api.ReadinessCheck{
		"postgres":      pg.Ping,
		"redis":         redisClient.Ping,
		"elasticsearch": esClient.Ping,
		"zeebe":         zeebe.HealthCheck,
	}, log)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	zapLog.Info("Worker manager started", zap.Int("workers", len(workers)))
	<-ctx.Done()
	zapLog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}

	zapLog.Info("Worker manager stopped")
}

// newPublisher selects the domain event transport. The returned close function
// is always safe to call.
func newPublisher(ctx context.Context, cfg *config.Config) (events.Publisher, func(), error) {
	if !cfg.DomainEvents.Enabled {
		return nil, func() {}, nil
	}

	switch cfg.DomainEvents.Transport {
	case config.TransportKafka:
		kp, err := events.NewKafkaPublisher(cfg.DomainEvents.Kafka.Brokers, cfg.DomainEvents.Kafka.Topic)
		if err != nil {
			return nil, nil, err
		}
		return kp, func() { _ = kp.Close() }, nil
	default:
		snsClient, err := awsclients.NewSNSClient(ctx, cfg.DomainEvents.SNS.Region)
		if err != nil {
			return nil, nil, err
		}
		return events.NewSNSPublisher(snsClient, cfg.DomainEvents.SNS.TopicARN), func() {}, nil
	}
}
