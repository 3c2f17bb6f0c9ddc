package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"folio/api/internal/app"
	"folio/api/internal/authpw"
	"folio/api/internal/config"
	"folio/api/internal/email"
	"folio/api/internal/logging"
	"folio/api/internal/mongostore"
	"folio/api/internal/search"
	"folio/api/internal/session"
	"folio/api/internal/store"
)

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	logger := logging.New("api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var meili *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meili.Close()
	}

	deps := app.Deps{
		Email: email.NewService(email.Config{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			From:       cfg.SMTPFrom,
			FromName:   cfg.SMTPFromName,
			OwnerEmail: cfg.OwnerEmail,
		}),
	}

	var monitor *store.Monitor
	if cfg.EnableRemote {
		mirror, fallback, onRecover, closeMirror, err := openMirror(ctx, cfg, meili)
		if err != nil {
			return err
		}
		defer closeMirror()
		monitor = store.NewMonitor(mirror, cfg.HealthInterval, onRecover)
		deps.Mirror = mirror
		deps.Availability = monitor
		deps.Search = search.NewService(meili, fallback)
	} else {
		logger.Info("remote mirror disabled, serving local-only status")
		deps.Search = search.NewService(meili, nil)
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisStore.Close()
		deps.Sessions = redisStore
		logger.Info("refresh tokens stored in redis")
	}

	admin, err := adminVerifier(cfg)
	if err != nil {
		return err
	}
	if admin == nil {
		logger.Warn("no admin password configured, login disabled")
	}
	deps.Admin = admin

	service := app.New(cfg, deps)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.NewHTTPServer(service, cfg.CORSOrigin).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if monitor != nil {
		g.Go(func() error { return monitor.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("folio API listening", "addr", cfg.Addr, "env", cfg.Env, "driver", cfg.RemoteDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown error", "error", err)
		}
		return nil
	})
	return g.Wait()
}

// openMirror prepares the configured remote store without requiring it to
// be reachable. The monitor brings it online later.
func openMirror(ctx context.Context, cfg config.Config, meili *search.Meili) (app.Mirror, search.Searcher, func(context.Context) error, func(), error) {
	switch cfg.RemoteDriver {
	case config.DriverMongo:
		ms, err := mongostore.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("mongo connection failed: %w", err)
		}
		closeFn := func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = ms.Close(closeCtx)
		}
		return ms, search.NewMongoRegex(ms.Database()), ms.EnsureIndexes, closeFn, nil

	case config.DriverPostgres, "":
		db, err := store.Connect(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("database connection failed: %w", err)
		}
		pgfts := search.NewPgFTS(db)
		onRecover := func(ctx context.Context) error {
			if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
				return err
			}
			search.NewService(meili, pgfts).ReindexFromPG(ctx, cfg.TenantID)
			return nil
		}
		return store.NewPostgresStore(db), pgfts, onRecover, func() { _ = db.Close() }, nil

	default:
		return nil, nil, nil, nil, fmt.Errorf("unknown remote driver %q", cfg.RemoteDriver)
	}
}

func adminVerifier(cfg config.Config) (*authpw.Verifier, error) {
	switch {
	case cfg.AdminPasswordHash != "":
		return authpw.NewVerifier(cfg.AdminEmail, "Admin", cfg.AdminPasswordHash)
	case cfg.AdminPassword != "":
		return authpw.FromPassword(cfg.AdminEmail, "Admin", cfg.AdminPassword)
	default:
		return nil, nil
	}
}
