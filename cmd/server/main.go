package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	jwttoken "discrescue/internal/jwt_token"
	"discrescue/internal/notification"
	notificationhandler "discrescue/internal/notification/handler"
	notificationmetrics "discrescue/internal/notification/metrics"
	"discrescue/internal/notification/push"
	"discrescue/internal/platform/config"
	"discrescue/internal/platform/httpserver"
	"discrescue/internal/platform/logger"
	platformredis "discrescue/internal/platform/redis"
	recoveryhandler "discrescue/internal/recovery/handler"
	recoverymetrics "discrescue/internal/recovery/metrics"
	"discrescue/internal/recovery/service"
	"discrescue/internal/recovery/store"
	httptransport "discrescue/internal/transport/http"
)

// main wires the dependency graph and owns the process lifecycle. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	checks := map[string]httptransport.HealthChecker{}

	// Storage: Postgres when configured, in-memory otherwise.
	var (
		noteStore notification.Store
		recStore  store.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to reach postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		pgNotes := notification.NewPostgres(db)
		noteStore = pgNotes
		recStore = store.NewPostgres(db, pgNotes)
		checks["postgres"] = dbChecker{db}
	} else {
		log.Warn("no postgres DSN configured, using in-memory storage")
		memNotes := notification.NewInMemoryStore()
		noteStore = memNotes
		recStore = store.NewInMemory(memNotes)
	}

	// Push channel: Redis when configured, log-only otherwise.
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	var pusher notification.Pusher
	if redisClient != nil {
		defer redisClient.Close()
		pusher = push.NewRedisPublisher(redisClient.Client, cfg.PushChannel)
		checks["redis"] = redisClient
	} else {
		log.Warn("no redis URL configured, push delivery disabled")
	}

	dispatcher := notification.NewDispatcher(noteStore, pusher, log, notificationmetrics.New())
	recoverySvc := service.New(recStore, dispatcher, log, recoverymetrics.New())
	inboxSvc := notification.NewService(noteStore)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "discrescue", "discrescue")

	router := httptransport.NewRouter(httptransport.Deps{
		Recovery:      recoveryhandler.New(recoverySvc, log),
		Notifications: notificationhandler.New(inboxSvc, log),
		Auth:          jwtService,
		Logger:        log,
		Checks:        checks,
	})
	srv := httpserver.New(cfg.Addr, router)

	runCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		log.Info("starting discrescue server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if redisClient != nil {
		relay := push.NewRelay(redisClient.Client, cfg.PushChannel, push.LogSender{Logger: log}, log)
		g.Go(func() error {
			err := relay.Run(gCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

type dbChecker struct {
	db *sql.DB
}

func (c dbChecker) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
