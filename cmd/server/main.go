package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/crediblehealth/clinic-console/internal/api"
	"github.com/crediblehealth/clinic-console/internal/core/ports"
	"github.com/crediblehealth/clinic-console/internal/core/service"
	"github.com/crediblehealth/clinic-console/internal/infrastructure/config"
	mongodb "github.com/crediblehealth/clinic-console/internal/infrastructure/db/mongo"
	redisdb "github.com/crediblehealth/clinic-console/internal/infrastructure/db/redis"
	"github.com/crediblehealth/clinic-console/internal/infrastructure/notify"
	"github.com/crediblehealth/clinic-console/internal/infrastructure/queue"
	"github.com/crediblehealth/clinic-console/internal/infrastructure/storage"
	"github.com/crediblehealth/clinic-console/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- MongoDB ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	userRepo := mongodb.NewUserRepository(db)
	diagnosisRepo := mongodb.NewDiagnosisRepository(db)
	appointmentRepo := mongodb.NewAppointmentRepository(db)

	for _, idx := range []interface {
		EnsureIndexes(ctx context.Context) error
	}{userRepo, diagnosisRepo, appointmentRepo} {
		if err := idx.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("index creation failed")
		}
	}

	// --- Redis ---
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()
	listCache := redisdb.NewListCache(rdb)

	// --- MinIO ---
	signatureStore, err := storage.NewSignatureStore(ctx, storage.Config{
		Endpoint:  cfg.Minio.Endpoint,
		AccessKey: cfg.Minio.AccessKey,
		SecretKey: cfg.Minio.SecretKey,
		Bucket:    cfg.Minio.Bucket,
		UseSSL:    cfg.Minio.UseSSL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("minio setup failed")
	}

	// --- Invitation delivery ---
	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})

	var notifier ports.InterviewNotifier = mailer
	if cfg.RabbitMQ.URL != "" {
		conn, err := amqp091.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq connection failed")
		}
		defer func() { _ = conn.Close() }()

		publisher, err := notify.NewQueuePublisher(conn, cfg.RabbitMQ.Queue)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq publisher setup failed")
		}
		notifier = publisher

		consumer, err := notify.NewConsumer(conn, cfg.RabbitMQ.Queue, mailer, logger.With("mail_consumer"))
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq consumer setup failed")
		}
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error().Err(err).Msg("mail consumer stopped")
			}
		}()
	}

	dispatcher := queue.NewDispatcher(cfg.NotifyWorkers, notifier, logger.With("dispatcher"))
	dispatcher.Start(ctx)

	// --- Services ---
	svcs := api.Services{
		Auth:        service.NewAuthService(userRepo, cfg.JWTSecret, 24*time.Hour),
		Approval:    service.NewApprovalService(userRepo, listCache, dispatcher, logger.With("approval")),
		Review:      service.NewReviewService(diagnosisRepo, signatureStore, listCache, logger.With("review")),
		Appointment: service.NewAppointmentService(appointmentRepo, diagnosisRepo, logger.With("appointment")),
	}

	e := api.NewRouter(svcs, db, rdb, cfg.JWTSecret, logger.With("http"))

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down, draining in-flight requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
