package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kapalua/ordersbot/internal/api/router"
	"github.com/kapalua/ordersbot/internal/catalog"
	"github.com/kapalua/ordersbot/internal/chatlog"
	"github.com/kapalua/ordersbot/internal/config"
	"github.com/kapalua/ordersbot/internal/conversation"
	"github.com/kapalua/ordersbot/internal/messaging"
	"github.com/kapalua/ordersbot/internal/notify"
	"github.com/kapalua/ordersbot/internal/observability/metrics"
	"github.com/kapalua/ordersbot/internal/sweep"
	"github.com/kapalua/ordersbot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chatPool, err := pgxpool.New(ctx, cfg.ChatDatabaseURL)
	if err != nil {
		logger.Error("failed to connect chat database", "error", err)
		os.Exit(1)
	}
	defer chatPool.Close()

	catalogPool, err := pgxpool.New(ctx, cfg.CatalogDatabaseURL)
	if err != nil {
		logger.Error("failed to connect catalog database", "error", err)
		os.Exit(1)
	}
	defer catalogPool.Close()

	chatStore := chatlog.NewStore(chatPool)
	catalogStore := catalog.NewStore(catalogPool)

	registry := prometheus.NewRegistry()
	botMetrics := metrics.NewBotMetrics(registry)

	llm := conversation.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, botMetrics, logger)

	var emailSender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		emailSender = sg
	}
	notifier := notify.NewService(emailSender, logger)

	bridge := messaging.NewBridgeClient(cfg.BridgeBaseURL, logger)
	transport := messaging.WrapWithPersistence(bridge, chatStore, catalogStore, chatStore, logger)

	handler := conversation.NewHandler(conversation.HandlerConfig{
		LLM:         llm,
		Transport:   transport,
		Notifier:    notifier,
		Products:    catalogStore,
		Customers:   catalogStore,
		Managers:    chatStore,
		History:     chatStore,
		ArtifactDir: cfg.ArtifactDir,
		Window:      cfg.HistoryWindow,
		Metrics:     botMetrics,
		Logger:      logger,
	})

	listener := messaging.NewStreamListener(cfg.BridgeStreamURL, catalogStore, chatStore, chatStore, handler, logger)

	sweeper := sweep.NewSweeper(chatStore, catalogStore, chatStore, handler, logger).
		WithInterval(cfg.SweepInterval).
		WithAgeWindow(cfg.UnattendedMin, cfg.UnattendedMax).
		WithMetrics(botMetrics)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(&router.Config{
			Logger:         logger,
			ChatDB:         chatPool,
			CatalogDB:      catalogPool,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Dispatcher:     handler,
			Products:       catalogStore,
			AdminToken:     cfg.AdminToken,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := listener.Run(ctx); err != nil && err != context.Canceled {
			logger.Error("stream listener stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		sweeper.Run(ctx)
	}()

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	waitCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(waitCh)
	}()
	select {
	case <-waitCh:
		logger.Info("workers stopped")
	case <-shutdownCtx.Done():
		logger.Error("worker shutdown timed out", "error", shutdownCtx.Err())
	}
}
