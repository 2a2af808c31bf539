// Command auditworker consumes audit events from Kafka and materializes them
// into Postgres. Offsets are committed only after a successful write, so a
// crash replays rather than loses events; the store's logical-key constraint
// absorbs the duplicates. A small admin listener serves the materialized
// events back for correlation tracing.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"studygate/internal/platform/config"
	"studygate/internal/platform/httpserver"
	"studygate/internal/platform/kafka/consumer"
	"studygate/internal/platform/logger"
	platformpg "studygate/internal/platform/postgres"
	auditconsumer "studygate/pkg/audit/consumer"
	audithandler "studygate/pkg/audit/handler"
	auditpg "studygate/pkg/audit/store/postgres"
)

func main() {
	cfg := config.FromEnv()
	log := logger.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("audit worker exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	db, err := platformpg.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	defer db.Close()

	store := auditpg.New(db)
	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	handler := auditconsumer.NewHandler(store, log)
	c, err := consumer.New(consumer.Config{
		Brokers: cfg.Kafka.Brokers,
		GroupID: cfg.Audit.ConsumerGroup,
		Topics:  []string{cfg.Audit.Topic},
	}, handler, log)
	if err != nil {
		return err
	}
	defer c.Close()

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Get("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	audithandler.New(store, log).Register(router)
	srv := httpserver.New(cfg.Audit.AdminAddr, router)

	log.Info("starting audit worker",
		"topic", cfg.Audit.Topic,
		"group", cfg.Audit.ConsumerGroup,
		"admin_addr", cfg.Audit.AdminAddr,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Run(gctx) })
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
