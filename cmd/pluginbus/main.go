package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aescanero/pluginbus/internal/application/monitor"
	"github.com/aescanero/pluginbus/internal/config"
	"github.com/aescanero/pluginbus/internal/plugins/audit"
	"github.com/aescanero/pluginbus/internal/plugins/heartbeat"
	"github.com/aescanero/pluginbus/pkg/adapters/journal/memory"
	redisjournal "github.com/aescanero/pluginbus/pkg/adapters/journal/redis"
	"github.com/aescanero/pluginbus/pkg/adapters/metrics/prometheus"
	"github.com/aescanero/pluginbus/pkg/api/grpc"
	"github.com/aescanero/pluginbus/pkg/api/http"
	"github.com/aescanero/pluginbus/pkg/api/websocket"
	"github.com/aescanero/pluginbus/pkg/pluginmanager"
	"github.com/aescanero/pluginbus/pkg/ports"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set by build flags
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("starting pluginbus",
		zap.String("version", Version),
		zap.String("build_time", BuildTime))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	metricsCollector := prometheus.NewCollector(nil)

	journal, redisClient, err := initJournal(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to create journal", zap.Error(err))
	}

	traceHub := websocket.NewHub(cfg.Monitor.TraceBufferSize, logger)

	opts := []pluginmanager.Option{
		pluginmanager.WithLogger(logger.Named("manager")),
		pluginmanager.WithMetrics(metricsCollector),
		pluginmanager.WithSinkTimeout(cfg.Journal.AppendTimeout),
		pluginmanager.WithSink("trace", traceHub),
	}
	if journal != nil {
		opts = append(opts, pluginmanager.WithSink("journal", journal))
	}
	manager := pluginmanager.New(opts...)

	// Attach bundled plugins; audit goes last to show history catch-up
	beat := heartbeat.New(cfg.Plugins.HeartbeatInterval, logger.Named("heartbeat"))
	manager.Add(beat)
	beat.Beat()
	manager.Add(audit.New(cfg.Plugins.AuditEvents, logger.Named("audit")))

	statsMonitor := monitor.NewMonitor(
		manager,
		metricsCollector,
		cfg.Monitor.Interval,
		cfg.Monitor.HistoryWarnEntries,
		logger.Named("monitor"),
	)
	statsMonitor.Start()

	if err := beat.Start(ctx); err != nil {
		logger.Fatal("failed to start heartbeat", zap.Error(err))
	}

	// Initialize API servers
	httpServer := http.NewServer(&http.Config{
		Port:    cfg.HTTPPort,
		Manager: manager,
		Journal: journal,
		Logger:  logger,
	})
	httpServer.SetupTrace(traceHub)

	grpcServer, err := grpc.NewServer(&grpc.Config{
		Port:   cfg.GRPCPort,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("failed to create gRPC server", zap.Error(err))
	}

	// Start servers
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("pluginbus started",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Int("grpc_port", cfg.GRPCPort),
		zap.String("journal", cfg.Journal.Backend),
		zap.Int("plugins", len(manager.Plugins())))

	// Wait for interrupt signal
	<-ctx.Done()

	logger.Info("received shutdown signal")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := grpcServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("gRPC server shutdown error", zap.Error(err))
	}

	if err := beat.Shutdown(shutdownCtx); err != nil {
		logger.Error("heartbeat shutdown error", zap.Error(err))
	}

	statsMonitor.Stop()
	statsMonitor.Check()

	if journal != nil {
		if err := journal.Close(); err != nil {
			logger.Error("journal close error", zap.Error(err))
		}
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Redis close error", zap.Error(err))
		}
	}

	logger.Info("pluginbus shut down complete")
}

// initJournal builds the configured record journal. The Redis client is
// returned so main can close it; it is nil for other backends.
func initJournal(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.Journal, *goredis.Client, error) {
	switch cfg.Journal.Backend {
	case config.JournalNone:
		return nil, nil, nil

	case config.JournalMemory:
		return memory.NewJournal(cfg.Journal.MaxLen), nil, nil

	case config.JournalRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})

		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

		journal, err := redisjournal.NewStreamsJournal(
			client,
			cfg.Journal.StreamPrefix,
			int64(cfg.Journal.MaxLen),
			logger.Named("journal"),
		)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return journal, client, nil

	default:
		return nil, nil, fmt.Errorf("unsupported journal backend: %s", cfg.Journal.Backend)
	}
}

// initLogger initializes the logger based on log level
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapLevel)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
