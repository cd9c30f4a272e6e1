package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"turnstile/internal/config"
	"turnstile/internal/database"
	"turnstile/internal/jobs"
	"turnstile/internal/logger"
	"turnstile/internal/messaging"
	"turnstile/internal/repository"
	"turnstile/internal/worker"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogFormat)
	log := logger.Get()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	queue, err := messaging.NewNATSQueue(cfg.NATS)
	if err != nil {
		logger.Fatal("Failed to connect to NATS Streaming", "error", err)
	}
	defer queue.Close()

	repos := repository.NewRepositories(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reconciliation sweep re-enqueues bookings stuck in PENDING
	reconciler := jobs.NewReconciler(repos.Bookings, queue, cfg.Reconciler)
	reconciler.Start(ctx)
	defer reconciler.Stop()

	pool := worker.NewPool(repos.Bookings, worker.NewTicketIssuer(cfg.FinalizeWork), queue, cfg.Worker)

	errCh := make(chan error, 1)
	go func() {
		errCh <- pool.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("Shutting down worker...")
		cancel()
		<-errCh
	case err := <-errCh:
		if err != nil {
			logger.Fatal("Worker pool failed", "error", err)
		}
	}

	log.Info("Worker stopped")
}
