package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/admitd-dev/admitd/internal/config"
	"github.com/admitd-dev/admitd/internal/logger"
	"github.com/admitd-dev/admitd/internal/server"
	"github.com/admitd-dev/admitd/internal/tasks"
	"github.com/admitd-dev/admitd/internal/workers"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.GetLogger()

	log.Info().Str("version", version).Msg("Starting Admitd worker")

	// Initialize database (reuse server's database initialization)
	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server (needed for DB)")
	}
	db := srv.GetDB()

	// Asynq client for enqueueing chained tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})
	defer asynqClient.Close()

	asynqServer := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: &asynqLogger{log: log},
		},
	)

	mux := asynq.NewServeMux()

	mux.HandleFunc(tasks.TypeNotificationDeliver, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleNotificationDeliver(ctx, t, db, log)
	})
	mux.HandleFunc(tasks.TypeFollowUpRemind, func(ctx context.Context, t *asynq.Task) error {
		return workers.HandleFollowUpRemind(ctx, t, asynqClient, db, log)
	})

	// Scan for due follow-ups on the configured schedule
	go workers.StartFollowUpScheduler(asynqClient, db, cfg.FollowUpSchedule, log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, stopping worker...")
		asynqServer.Shutdown()
	}()

	if err := asynqServer.Run(mux); err != nil {
		log.Fatal().Err(err).Msg("Worker failed")
	}

	log.Info().Msg("Worker shutdown complete")
}

// asynqLogger adapts zerolog to asynq's logger interface
type asynqLogger struct {
	log zerolog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.log.Debug().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.log.Info().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.log.Warn().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.log.Error().Msg(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.log.Fatal().Msg(fmt.Sprint(args...)) }
