package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"vendor-service/internal/notify"
	"vendor-service/jobs"
	"vendor-service/pkg/config"
	"vendor-service/pkg/database"
	"vendor-service/pkg/logger"
	"vendor-service/pkg/mailer"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting vendor service worker...", zap.String("environment", cfg.Server.Env))

	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established",
		zap.String("db_host", cfg.DB.Host),
		zap.String("db_name", cfg.DB.DBName))

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Warn("Redis close", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis ping failed", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
	}

	smtpMailer := mailer.NewSMTPMailer(&cfg.SMTP)
	notifier := notify.NewNotifier(database.GetDB(), smtpMailer)
	reportJob := &jobs.PerformanceEmailJob{Notifier: notifier, Logger: log}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		Logger:    log,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypePerformanceEmail, Handler: reportJob.Handle},
		},
		Schedules: []jobs.ScheduleRegistration{
			{
				Spec:    cfg.Notify.Schedule,
				Task:    jobs.NewPerformanceEmailTask(),
				Options: []asynq.Option{asynq.MaxRetry(0)},
			},
		},
	})
	if err != nil {
		log.Fatal("Failed to build worker", zap.Error(err))
	}

	log.Info("Worker started", zap.String("schedule", cfg.Notify.Schedule))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("Worker stopped", zap.Error(err))
	}
	log.Info("Worker shut down")
}
