package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"github.com/kingdomforge/kingdom-server-go/internal/config"
	"github.com/kingdomforge/kingdom-server-go/internal/game"
	"github.com/kingdomforge/kingdom-server-go/internal/game/cards"
	"github.com/kingdomforge/kingdom-server-go/internal/server"
	"github.com/kingdomforge/kingdom-server-go/internal/store"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting kingdom server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	events, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to open event store", zap.Error(err))
	}
	defer events.Close()

	presets, err := cards.LoadPresets(cfg.Game.PresetsFile)
	if err != nil {
		logger.Fatal("failed to load kingdom presets", zap.Error(err))
	}
	logger.Info("kingdom presets loaded", zap.Int("count", len(presets)))

	recorder := game.NewReplayRecorder(logger, cfg.Game.ReplayDir)
	manager := game.NewManager(logger, events, presets, recorder)
	logger.Info("game manager initialized")

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			server.RecoveryInterceptor(logger),
			server.LoggingInterceptor(logger),
		),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.Server.GRPC.KeepaliveTime,
			Timeout: cfg.Server.GRPC.KeepaliveTimeout,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
	)
	server.RegisterEngineServer(grpcServer, server.NewEngineServer(manager, logger))

	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()

	var httpServer *http.Server
	if cfg.Server.WebSocket.Enabled {
		hub := server.NewHub(manager, cfg.Server.WebSocket.AllowedOrigins, logger)
		go hub.Run(ctx)

		mux := http.NewServeMux()
		mux.Handle("/ws", hub)
		httpServer = &http.Server{
			Addr:              cfg.Server.WebSocket.Address,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("starting WebSocket server", zap.String("address", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("WebSocket server error", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down gracefully...")

	if httpServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("WebSocket shutdown", zap.Error(err))
		}
		stop()
	}
	grpcServer.GracefulStop()

	logger.Info("kingdom server stopped")
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (store.EventStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory event store; games are lost on restart")
		return store.NewMemory(), nil
	case config.DriverSQLite:
		return store.OpenSQLite(cfg.SQLitePath, logger)
	case config.DriverPostgres:
		return store.OpenPostgres(ctx, cfg.PostgresURL, cfg.MaxConns, logger)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
