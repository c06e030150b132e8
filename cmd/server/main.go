package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/taskflow/internal/domain"
	"github.com/yourorg/taskflow/internal/featureflags"
	"github.com/yourorg/taskflow/internal/handler"
	"github.com/yourorg/taskflow/internal/infrastructure/logger"
	"github.com/yourorg/taskflow/internal/infrastructure/redis"
	"github.com/yourorg/taskflow/internal/observability/tracing"
	"github.com/yourorg/taskflow/internal/reliability/retry"
	"github.com/yourorg/taskflow/internal/repository"
	"github.com/yourorg/taskflow/internal/repository/memstore"
	"github.com/yourorg/taskflow/internal/security"
	"github.com/yourorg/taskflow/internal/security/auth"
	"github.com/yourorg/taskflow/internal/security/middleware"
	"github.com/yourorg/taskflow/internal/service"
	"github.com/yourorg/taskflow/internal/worker"
	"github.com/yourorg/taskflow/pkg/config"
	"github.com/yourorg/taskflow/pkg/database"
)

// stores groups the repositories of the selected backend
type stores struct {
	tenants  domain.TenantRepository
	users    domain.UserRepository
	projects domain.ProjectRepository
	tasks    domain.TaskRepository
	health   handler.Pinger
	close    func() error
}

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	slog.SetDefault(log)
	log.Info("starting TaskFlow server", slog.String("environment", cfg.Environment))
	log.Info("feature flags", featureflags.LogAttrs(featureflags.Snapshot())...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing
	shutdownTracing, err := tracing.Init(ctx, log, "taskflow", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Persistence
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer st.close()

	// 5. Token revocation
	memRevoked := auth.NewMemoryRevocationList()
	var revoked auth.RevocationList = memRevoked
	var sweepTarget worker.Purger = memRevoked
	readiness := map[string]handler.Pinger{"database": st.health}

	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to Redis", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisClient.Close()

		redisRevoked := repository.NewRedisRevocationRepository(redisClient, memRevoked, log)
		revoked = redisRevoked
		sweepTarget = redisRevoked
		readiness["redis"] = handler.PingerFunc(redisClient.Ping)
		log.Info("token revocation backed by redis")
	} else {
		log.Info("token revocation kept in process memory")
	}

	sweeper := worker.NewRevocationSweeper(sweepTarget, log, cfg.RevocationSweepInterval)
	go sweeper.Start(ctx)

	// 6. Services
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	authz := security.NewAuthorizationService(log)

	authService := service.NewAuthService(st.tenants, st.users, tokens, revoked, log)
	tenantService := service.NewTenantService(st.tenants, st.users, authz, log)
	projectService := service.NewProjectService(st.projects, st.tenants, authz, cfg.StrictDelete, log)
	taskService := service.NewTaskService(st.tasks, st.projects, st.users, authz, cfg.StrictDelete, log)

	// 7. HTTP routes and middleware
	router := handler.NewRouter(handler.RouterConfig{
		Auth:           authService,
		Tenants:        tenantService,
		Projects:       projectService,
		Tasks:          taskService,
		Gate:           middleware.NewGate(tokens, revoked, log),
		DB:             st.health,
		Ready:          readiness,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      otelhttp.NewHandler(router, "taskflow-http"),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("store", cfg.StoreDriver),
		slog.Duration("token_ttl", cfg.TokenTTL),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop revocation sweeper
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

// openStores connects the configured backend. PostgreSQL is retried with
// backoff since the database often starts alongside the API.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("using in-memory store; data is lost on restart")
		mem := memstore.New()
		return &stores{
			tenants:  mem.Tenants(),
			users:    mem.Users(),
			projects: mem.Projects(),
			tasks:    mem.Tasks(),
			health:   mem,
			close:    func() error { return nil },
		}, nil
	}

	dbCfg := database.DefaultConfig()
	dbCfg.Host = cfg.DBHost
	dbCfg.Port = cfg.DBPort
	dbCfg.User = cfg.DBUser
	dbCfg.Password = cfg.DBPassword
	dbCfg.Database = cfg.DBName
	dbCfg.SSLMode = cfg.DBSSLMode
	dbCfg.MaxOpenConns = cfg.DBMaxOpenConns

	pool, err := retry.Do(ctx, retry.DefaultConfig(), log, "connect postgres",
		func(ctx context.Context) (*database.ConnectionPool, error) {
			return database.NewConnectionPool(ctx, dbCfg, log)
		})
	if err != nil {
		return nil, err
	}

	if cfg.DBBootstrapSchema {
		if err := pool.BootstrapSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
	}

	db := pool.GetDB()
	return &stores{
		tenants:  repository.NewPostgresTenantRepository(db, log),
		users:    repository.NewPostgresUserRepository(db, log),
		projects: repository.NewPostgresProjectRepository(db, log),
		tasks:    repository.NewPostgresTaskRepository(db, log),
		health:   pool,
		close:    pool.Close,
	}, nil
}
