package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	accountmetrics "passport/internal/account/metrics"
	accountservice "passport/internal/account/service"
	"passport/internal/account/store"
	"passport/internal/audit"
	"passport/internal/platform/config"
	"passport/internal/platform/httpserver"
	"passport/internal/platform/logger"
	platformredis "passport/internal/platform/redis"
	"passport/internal/session"
	httptransport "passport/internal/transport/http"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives under internal/account; main only assembles and shuts down.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	users, closeStore, err := buildUserStore(cfg)
	if err != nil {
		log.Error("user store init failed", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	sessions, closeSessions, err := buildSessionGateway(ctx, cfg)
	if err != nil {
		log.Error("session gateway init failed", "error", err)
		os.Exit(1)
	}
	defer closeSessions()

	sink, closeSink, err := buildAuditSink(cfg)
	if err != nil {
		log.Error("audit sink init failed", "error", err)
		os.Exit(1)
	}
	defer closeSink()

	publisher := audit.NewPublisher(256, log)
	worker := audit.NewWorker(sink, publisher.Inbox(), log)

	accounts := accountservice.New(users,
		accountservice.WithLogger(log),
		accountservice.WithMetrics(accountmetrics.New()),
		accountservice.WithAuditPublisher(publisher),
	)

	handler := httptransport.NewHandler(accounts, sessions, log,
		httptransport.WithAuditPublisher(publisher),
		httptransport.WithDevMode(cfg.DevMode),
	)
	srv := httpserver.New(cfg.Addr, handler.Router())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr, "dev_mode", cfg.DevMode)
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

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// buildUserStore prefers Postgres and falls back to the in-memory store for
// local runs without a database.
func buildUserStore(cfg config.Server) (store.UserStore, func(), error) {
	if cfg.PostgresDSN == "" {
		return store.NewInMemory(), func() {}, nil
	}
	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store.NewPostgres(db), func() { db.Close() }, nil
}

func buildSessionGateway(ctx context.Context, cfg config.Server) (session.Gateway, func(), error) {
	client, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		return session.NewInMemory(), func() {}, nil
	}
	gw := session.NewRedis(client.Client,
		session.WithCodeTTL(cfg.CodeTTL),
		session.WithSessionTTL(cfg.SessionTTL),
	)
	return gw, func() { client.Close() }, nil
}

func buildAuditSink(cfg config.Server) (audit.Sink, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		return audit.NewInMemorySink(), func() {}, nil
	}
	sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	return sink, func() { sink.Close() }, nil
}
