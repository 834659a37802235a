package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/Ariffin97/portal-mpa-sub001/config"
	"github.com/Ariffin97/portal-mpa-sub001/database"
	"github.com/Ariffin97/portal-mpa-sub001/handlers"
	"github.com/Ariffin97/portal-mpa-sub001/identifier"
	"github.com/Ariffin97/portal-mpa-sub001/logger"
	"github.com/Ariffin97/portal-mpa-sub001/metrics"
	"github.com/Ariffin97/portal-mpa-sub001/middleware"
	"github.com/Ariffin97/portal-mpa-sub001/notify"
	"github.com/Ariffin97/portal-mpa-sub001/repository"
	"github.com/Ariffin97/portal-mpa-sub001/routes"
	"github.com/Ariffin97/portal-mpa-sub001/websocket"
	"github.com/Ariffin97/portal-mpa-sub001/workflow"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type stores struct {
	applications repository.ApplicationStore
	users        repository.UserStore
	orgs         repository.OrganizationStore
	audit        repository.AuditStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Must(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	checks := map[string]handlers.Pinger{}

	var st stores
	switch cfg.Storage.Driver {
	case "mongo":
		client, err := database.Connect(ctx, cfg.Mongo, log)
		if err != nil {
			return err
		}
		defer database.Disconnect(client, log)

		db := client.Database(cfg.Mongo.Database)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		accounts := repository.NewMongoAccountStore(db)
		st = stores{repository.NewMongoApplicationStore(db), accounts, accounts, accounts}
		checks["mongo"] = mongoPinger(client)
	default:
		log.Warn("using in-memory storage; data is lost on restart")
		accounts := repository.NewMemoryAccountStore()
		st = stores{repository.NewMemoryApplicationStore(), accounts, accounts, accounts}
	}

	var rdb *redis.Client
	if cfg.Redis.Address != "" {
		var err error
		if rdb, err = database.NewRedis(ctx, cfg.Redis); err != nil {
			return err
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	notifier, worker, err := notify.Setup(ctx, cfg.Notify, rdb, log)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}
	if worker != nil {
		go func() {
			if err := worker.Run(ctx); err != nil {
				log.Error("notification worker stopped", zap.Error(err))
			}
		}()
	}

	allocator, err := identifier.NewAllocator(cfg.IDs.Prefix,
		identifier.WithCollisionObserver(func(prefix string) {
			metrics.IDCollisions.WithLabelValues(prefix).Inc()
		}))
	if err != nil {
		return err
	}

	hub := websocket.NewHub(log)
	go hub.Run(ctx)

	svc, err := workflow.New(workflow.Deps{
		Store:       st.applications,
		Audit:       st.audit,
		Allocator:   allocator,
		Notifier:    notifier,
		Broadcaster: hub,
		Policy:      policyFrom(cfg.Policy),
		Log:         log,
	})
	if err != nil {
		return err
	}

	if err := seedAdmin(ctx, st.users, cfg.Bootstrap, log); err != nil {
		return err
	}

	secret := []byte(cfg.JWT.Secret)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, log)
	limiter.StartCleanup(5*time.Minute, ctx.Done())

	router := routes.NewRouter(routes.Options{
		Handler: handlers.New(handlers.Deps{
			Workflow:      svc,
			Users:         st.users,
			Organizations: st.orgs,
			JWTSecret:     secret,
			JWTExpiration: cfg.JWT.Expiration,
			Checks:        checks,
			Version:       version,
			Log:           log,
		}),
		Auth:          middleware.NewAuth(secret, st.users, log),
		Limiter:       limiter,
		WebSocket:     websocket.NewHandler(hub, secret, cfg.Server.AllowedOrigin),
		Metrics:       promhttp.Handler(),
		AllowedOrigin: cfg.Server.AllowedOrigin,
		Log:           log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("portal listening",
			zap.String("addr", srv.Addr),
			zap.String("environment", cfg.Environment),
			zap.String("idPrefix", allocator.Prefix()),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("notify", cfg.Notify.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", zap.Error(err))
	}
	if d, ok := notifier.(*notify.Dispatcher); ok {
		d.Wait()
	}
	log.Info("server stopped")
	return nil
}

func policyFrom(cfg config.PolicyConfig) workflow.Policy {
	p := workflow.Policy{
		MinRejectionReason: cfg.MinRejectionReason,
		MinRequiredInfo:    cfg.MinRequiredInfo,
	}
	if cfg.StrictTransitions {
		p.Transitions = workflow.ConventionalTransitions()
	}
	return p
}

func mongoPinger(client *mongo.Client) handlers.Pinger {
	return func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	}
}
