package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"algoarena/internal/api"
	"algoarena/internal/app/judge"
	"algoarena/internal/app/service"
	"algoarena/internal/app/worker"
	"algoarena/internal/common/security"
	"algoarena/internal/domain/repository"
	"algoarena/internal/platform/config"
	"algoarena/internal/platform/database"
	"algoarena/internal/platform/lock"
	"algoarena/internal/platform/logger"
	"algoarena/internal/platform/queue"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx := context.Background()

	// 1. Configuration and logging
	config.Load()
	cfg := config.AppConfig
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// 2. JWT verification
	security.InitJWT(cfg.JWTKey)

	// 3. Database
	if err := database.Connect(ctx, cfg); err != nil {
		logger.Fatal(ctx, "database unavailable", zap.Error(err))
	}
	defer database.Close()

	// 4. Redis
	if err := queue.ConnectRedis(ctx, cfg); err != nil {
		logger.Fatal(ctx, "redis unavailable", zap.Error(err))
	}
	defer queue.CloseRedis()

	// 5. Repositories
	problemRepo := repository.NewPgProblemRepository(database.DB)
	submissionRepo := repository.NewPgSubmissionRepository(database.DB)
	userRepo := repository.NewPgUserRepository(database.DB)
	sprintRepo := repository.NewPgSprintRepository(database.DB)

	// 6. Judge client and services
	judgeClient, err := judge.NewClient(judge.Config{
		BaseURL:         cfg.JudgeBaseURL,
		APIKey:          cfg.JudgeAPIKey,
		APIHost:         cfg.JudgeAPIHost,
		PollInterval:    cfg.JudgePollInterval,
		MaxWait:         cfg.JudgeMaxWait,
		MaxPollAttempts: cfg.JudgeMaxPollAttempts,
		RequestTimeout:  cfg.JudgeRequestTimeout,
	})
	if err != nil {
		logger.Fatal(ctx, "invalid judge configuration", zap.Error(err))
	}

	orphans := queue.NewOrphanQueue(queue.RDB, cfg.OrphanQueueName)
	submissionService, err := service.NewSubmissionService(service.SubmissionServiceConfig{
		Problems:    problemRepo,
		Submissions: submissionRepo,
		Users:       userRepo,
		Judge:       judgeClient,
		Streaks:     service.NewStreakCoordinator(userRepo),
		Sprints:     service.NewSprintCoordinator(sprintRepo),
		Locker:      lock.NewRedisLocker(queue.RDB, cfg.UserLockTTL, cfg.UserLockWait),
		Orphans:     orphans,
	})
	if err != nil {
		logger.Fatal(ctx, "submission service", zap.Error(err))
	}

	// 7. Reconcile worker
	reconciler := worker.NewReconcileWorker(orphans, submissionRepo, worker.ReconcileConfig{
		PopTimeout: cfg.ReconcileInterval,
		StaleAfter: cfg.ReconcileStaleAfter,
	})
	workerCtx, workerCancel := context.WithCancel(ctx)
	defer workerCancel()
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		reconciler.Start(workerCtx)
	}()

	// 8. Router and HTTP server. Requests may wait for the whole judge poll.
	requestTimeout := cfg.HTTPRequestTimeout()
	router := api.NewRouter(submissionService, api.RouterConfig{
		RequestTimeout: requestTimeout,
		MetricsEnabled: cfg.MetricsEnabled,
	})
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: requestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info(ctx, "server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	// 9. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info(ctx, "shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 15*time.Second)
	defer shutdownCancel()

	var eg errgroup.Group
	eg.Go(func() error {
		return server.Shutdown(shutdownCtx)
	})
	eg.Go(func() error {
		workerCancel()
		select {
		case <-workerDone:
			return nil
		case <-shutdownCtx.Done():
			return shutdownCtx.Err()
		}
	})
	if err := eg.Wait(); err != nil {
		logger.Error(ctx, "shutdown incomplete", zap.Error(err))
		return
	}
	logger.Info(ctx, "server and worker stopped gracefully")
}
