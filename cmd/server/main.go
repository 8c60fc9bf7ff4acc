package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/reservation-service/internal/adapter/httpapi"
	"github.com/example/reservation-service/internal/adapter/natsstan"
	"github.com/example/reservation-service/internal/app"
	"github.com/example/reservation-service/internal/config"
	"github.com/example/reservation-service/internal/domain"
	"github.com/example/reservation-service/internal/logging"
	"github.com/example/reservation-service/internal/usecase"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.LogLevel)

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("init: %v", err)
	}
	defer a.Close()

	if _, err := a.Reconciler.Heal(ctx); err != nil {
		logging.LogError(logger, "main", "main", "startup heal failed", nil, err)
	}

	if cfg.Stan.Enabled {
		sub := &natsstan.Subscriber{
			ClusterID: cfg.Stan.ClusterID,
			ClientID:  cfg.Stan.ClientID,
			URL:       cfg.Stan.URL,
			Subject:   cfg.Stan.Subject,
			Durable:   cfg.Stan.Durable,
			Logger:    logger,
		}
		if err := startIngestion(ctx, a, sub); err != nil {
			logging.LogError(logger, "main", "startIngestion", "stan subscribe failed", cfg.Stan.URL, err)
		}
	}

	srv := newHTTPServer(cfg, a)
	go func() {
		logger.Infof("http listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

func newHTTPServer(cfg config.Config, a *app.App) *http.Server {
	s := httpapi.NewServer(a.HTTPDeps())
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// startIngestion подписывает upsert резерваций на входящие сообщения.
func startIngestion(ctx context.Context, a *app.App, sub domain.MessageSubscriber) error {
	uc := usecase.ProcessIncomingReservation{Repo: a.Repo}
	return sub.Subscribe(ctx, uc.Execute)
}
