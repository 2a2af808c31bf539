// Command server runs the studygate HTTP gateway: study builder, user
// management and participant manager APIs, all emitting audit events through
// the async delivery channel.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	participanthandler "studygate/internal/participant/handler"
	participantservice "studygate/internal/participant/service"
	participantmemory "studygate/internal/participant/store/memory"
	participantpg "studygate/internal/participant/store/postgres"
	"studygate/internal/platform/config"
	"studygate/internal/platform/httpserver"
	"studygate/internal/platform/kafka"
	"studygate/internal/platform/logger"
	"studygate/internal/platform/metrics"
	"studygate/internal/platform/postgres"
	platformredis "studygate/internal/platform/redis"
	studyhandler "studygate/internal/studybuilder/handler"
	studyservice "studygate/internal/studybuilder/service"
	studymemory "studygate/internal/studybuilder/store/memory"
	studypg "studygate/internal/studybuilder/store/postgres"
	"studygate/internal/usermgmt/authserver"
	userhandler "studygate/internal/usermgmt/handler"
	userservice "studygate/internal/usermgmt/service"
	usermemory "studygate/internal/usermgmt/store/memory"
	userpg "studygate/internal/usermgmt/store/postgres"
	"studygate/internal/usermgmt/verification"
	"studygate/pkg/audit/channel"
	"studygate/pkg/audit/emitter"
	"studygate/pkg/audit/sink/httpsink"
	"studygate/pkg/audit/sink/kafkasink"
	"studygate/pkg/audit/sink/logsink"
	"studygate/pkg/email"
	"studygate/pkg/platform/middleware/auth"
	"studygate/pkg/platform/middleware/correlation"
	"studygate/pkg/platform/middleware/metadata"
	"studygate/pkg/platform/middleware/requestmetrics"
	"studygate/pkg/platform/middleware/requesttime"
)

func main() {
	cfg := config.FromEnv()
	log := logger.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New()

	sink, sinkCleanup, err := buildSink(cfg, log)
	if err != nil {
		return err
	}
	defer sinkCleanup()

	ch := channel.New(channel.Config{
		BufferSize:     cfg.Audit.BufferSize,
		MaxAttempts:    cfg.Audit.MaxAttempts,
		InitialBackoff: cfg.Audit.InitialBackoff,
		MaxBackoff:     cfg.Audit.MaxBackoff,
	}, sink, channel.WithLogger(log), channel.WithMetrics(channel.NewMetrics()))
	defer ch.Close()

	em := emitter.New(ch, emitter.Identity{
		SystemID:                 cfg.Identity.SystemID,
		SystemIP:                 cfg.Identity.SystemIP,
		ApplicationVersion:       cfg.Identity.ApplicationVersion,
		ApplicationComponentName: cfg.Identity.ApplicationComponentName,
		ResourceServer:           cfg.Identity.ResourceServer,
	}, log, emitter.WithMetrics(emitter.NewMetrics()))

	stores, storeCleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer storeCleanup()

	codes, redisCleanup, err := buildVerification(cfg, log)
	if err != nil {
		return err
	}
	defer redisCleanup()

	studySvc := studyservice.NewService(stores.studies, em, m)
	userSvc := userservice.NewService(
		stores.users,
		authserver.NewHTTPClient(cfg.AuthServer.BaseURL, cfg.AuthServer.Timeout),
		codes,
		email.NewLogSender(log),
		em,
		log,
		m,
	)
	participantSvc := participantservice.NewService(stores.participants, em, m)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(requestmetrics.NewMetrics().Middleware)
	router.Use(correlation.Middleware)
	router.Use(requesttime.Middleware)
	router.Use(metadata.ClientMetadata)

	router.Get("/healthcheck", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	validator := auth.NewHMACValidator(cfg.Server.JWTSigningKey)
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, log))
		studyhandler.New(studySvc, log).Register(r)
		participanthandler.New(participantSvc, log).Register(r)
	})
	userhandler.New(userSvc, log).Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting studygate gateway", "addr", cfg.Server.Addr, "sink", cfg.Audit.SinkMode)
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

type storeSet struct {
	studies      studyservice.Store
	users        userservice.Store
	participants participantservice.Store
}

func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*storeSet, func(), error) {
	if cfg.StorageBackend != "postgres" {
		log.Info("using in-memory stores")
		return &storeSet{
			studies:      studymemory.NewInMemoryStore(),
			users:        usermemory.NewInMemoryStore(),
			participants: participantmemory.NewInMemoryStore(),
		}, func() {}, nil
	}

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, err
	}
	// The user store maps driver-specific unique-violation errors, so it
	// keeps its own pool on its own driver.
	userDB, err := userpg.Open(ctx, cfg.Postgres.DSN)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	cleanup := func() {
		userDB.Close()
		db.Close()
	}

	studies := studypg.New(db)
	users := userpg.New(userDB)
	participants := participantpg.New(db)
	for _, ensure := range []func(context.Context) error{
		studies.EnsureSchema, users.EnsureSchema, participants.EnsureSchema,
	} {
		if err := ensure(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return &storeSet{studies: studies, users: users, participants: participants}, cleanup, nil
}

func buildVerification(cfg config.Config, log *slog.Logger) (userservice.VerificationStore, func(), error) {
	client, err := platformredis.New(cfg.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		log.Info("redis not configured, verification codes held in memory")
		return verification.NewMemoryStore(cfg.VerificationTTL), func() {}, nil
	}
	return verification.NewCodeStore(client, cfg.VerificationTTL),
		func() { client.Close() }, nil
}

func buildSink(cfg config.Config, log *slog.Logger) (channel.Sink, func(), error) {
	switch cfg.Audit.SinkMode {
	case "kafka":
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return nil, nil, err
		}
		if err := producer.EnsureTopic(context.Background(), cfg.Audit.Topic, 1, 1); err != nil {
			producer.Close()
			return nil, nil, err
		}
		return kafkasink.New(producer, cfg.Audit.Topic), producer.Close, nil
	case "http":
		return httpsink.New(cfg.Audit.HTTPEndpoint), func() {}, nil
	default:
		return logsink.New(log), func() {}, nil
	}
}
