package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/grpc"

	"github.com/md-rashed-zaman/queuedesk/libs/config"
	"github.com/md-rashed-zaman/queuedesk/libs/db"
	"github.com/md-rashed-zaman/queuedesk/libs/grpcx"
	"github.com/md-rashed-zaman/queuedesk/libs/httpx"
	"github.com/md-rashed-zaman/queuedesk/libs/kafkax"
	"github.com/md-rashed-zaman/queuedesk/libs/lock"
	otelx "github.com/md-rashed-zaman/queuedesk/libs/otel"
	"github.com/md-rashed-zaman/queuedesk/libs/runtime"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/consumer"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/desk"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/dispatch"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/grpcserver"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/handlers"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/inbox"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/scheduling"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage/memory"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/storage/postgres"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/migrations"
)

func main() {
	var cfg Config
	if err := config.Load(config.String("CONFIG_PATH", ""), &cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, config.Usage(&cfg))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := runtime.NewLogger(cfg.ServiceName, runtime.NormalizeEnv(cfg.Env))

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped", "err", err)
		os.Exit(1)
	}
	logger.Info("service stopped")
}

func run(ctx context.Context, cfg Config, logger *slog.Logger) error {
	otelShutdown, err := otelx.Setup(ctx, cfg.Otel())
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	engine := scheduling.NewEngine(loc)
	brokers := cfg.Brokers()

	var checks []runtime.ReadyCheck

	var (
		store    storage.Store
		pool     *db.Pool
		consumed consumer.Inbox = inbox.NewMemory()
	)
	switch cfg.Storage {
	case storagePostgres:
		pool, err = db.Open(ctx, cfg.DatabaseURL, db.Options{})
		if err != nil {
			return fmt.Errorf("db connection: %w", err)
		}
		defer pool.Close()
		if err := migrations.Apply(ctx, pool); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}

		outboxRepo := outbox.NewRepository()
		store = postgres.New(pool, outboxRepo, engine)
		consumed = inbox.NewRepository(pool)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   brokers,
			PollEvery: 2 * time.Second,
			BatchSize: 50,
		})
		go publisher.Run(ctx)
	default:
		logger.Warn("using in-memory storage, data is lost on restart")
		store = memory.New(engine)
	}

	var (
		locker lock.Locker = lock.NewLocalLock()
		rdb    *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb, err = lock.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		locker = lock.NewRedisLock(rdb, cfg.ServiceName+":lock:")
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: lock.ReadyCheck(rdb)})
	}
	if len(brokers) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(brokers)})
	}

	d := desk.New(store, engine, locker, logger, cfg.AssignLockTTL)

	if cfg.DispatchEnabled {
		worker := dispatch.NewWorker(d, logger, dispatch.WorkerConfig{
			Interval:  cfg.DispatchInterval,
			MaxPerRun: cfg.DispatchMaxPerRun,
		})
		go worker.Run(ctx)

		if len(brokers) > 0 {
			reader := consumer.NewReader(consumer.Config{
				Brokers: brokers,
				GroupID: cfg.KafkaGroupID,
				Topics:  cfg.DispatchTopics(),
			})
			go consumer.New(logger, reader, consumed, worker.HandleEvent).Run(ctx)
		}
	}

	if err := startGrpcServer(ctx, cfg, logger, d); err != nil {
		return fmt.Errorf("grpc server: %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler(cfg, logger, d, loc, rdb, checks),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
	return nil
}

func httpHandler(cfg Config, logger *slog.Logger, d *desk.Desk, loc *time.Location, rdb *redis.Client, checks []runtime.ReadyCheck) http.Handler {
	router := chi.NewRouter()
	router.Get("/healthz", runtime.HealthHandler)
	router.Get("/readyz", runtime.ReadyHandler(checks...))
	router.Mount("/api/v1", handlers.New(logger, d, loc).Routes())

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecover(logger),
		httpx.WithCORS(httpx.DefaultCORSPolicy(httpx.SplitOrigins(cfg.CORSAllowedOrigins))),
	}
	if cfg.RateLimitPerMinute > 0 {
		var limiter httpx.Limiter = httpx.NewMemoryRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		if rdb != nil {
			limiter = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, cfg.ServiceName+":ratelimit:")
		}
		middlewares = append(middlewares, httpx.WithRateLimit(limiter, logger, true))
	}
	middlewares = append(middlewares, httpx.WithBodyLimit(1<<20), httpx.WithTimeout(15*time.Second))

	return otelhttp.NewHandler(httpx.Chain(router, middlewares...), cfg.ServiceName)
}

func startGrpcServer(ctx context.Context, cfg Config, logger *slog.Logger, d *desk.Desk) error {
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return err
	}

	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			grpcx.UnaryServerRequestIDInterceptor(),
			grpcx.UnaryServerLogInterceptor(logger),
		),
	)
	grpcserver.Register(srv, d)

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	return nil
}
