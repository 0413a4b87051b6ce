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

	"github.com/jianghu-duel/duel-server-go/internal/config"
	"github.com/jianghu-duel/duel-server-go/internal/game"
	"github.com/jianghu-duel/duel-server-go/internal/game/catalog"
	"github.com/jianghu-duel/duel-server-go/internal/match"
	"github.com/jianghu-duel/duel-server-go/internal/repository"
	"github.com/jianghu-duel/duel-server-go/internal/server"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Optional .env; real environment variables win.
	_ = godotenv.Load()

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

	logger.Info("starting duel server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open match store", zap.Error(err))
	}
	defer store.Close()

	cat := catalog.Default()
	engine := game.NewEngine(logger.Named("engine"), cat, game.WithConfig(game.Config{
		GCDBaseline:         cfg.Game.GCDBaseline,
		DrawPerTurn:         cfg.Game.DrawPerTurn,
		StartingHand:        cfg.Game.StartingHand,
		EventRetentionTurns: cfg.Game.EventRetentionTurns,
		DeckComposition:     catalog.DefaultComposition,
	}))
	logger.Info("engine initialized",
		zap.Int("cards", cat.Len()),
		zap.Int("gcd_baseline", cfg.Game.GCDBaseline),
		zap.Int("draw_per_turn", cfg.Game.DrawPerTurn),
	)

	replays := game.NewReplayRecorder(logger.Named("replay"), cfg.Replay.Dir)
	if replays.Enabled() {
		if err := os.MkdirAll(cfg.Replay.Dir, 0o755); err != nil {
			logger.Fatal("failed to create replay directory", zap.String("dir", cfg.Replay.Dir), zap.Error(err))
		}
		logger.Info("replay recording enabled", zap.String("dir", cfg.Replay.Dir))
	}

	matchMgr := match.NewManager(logger.Named("match"), engine, store, replays)

	hub := server.NewHub(cfg.Server.WebSocket, matchMgr, logger.Named("ws"))
	matchMgr.SetNotifier(hub)
	go hub.Run(ctx)

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(server.ChainUnaryInterceptors(
			server.RecoveryInterceptor(logger),
			server.ErrorInterceptor(),
			server.LoggingInterceptor(logger),
		)),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.Server.GRPC.KeepaliveTime,
			Timeout: cfg.Server.GRPC.KeepaliveTimeout,
		}),
		grpc.MaxConcurrentStreams(uint32(cfg.Server.GRPC.MaxConcurrentStreams)),
	)
	server.RegisterDuelServiceServer(grpcServer, server.NewDuelServer(matchMgr, logger.Named("grpc")))

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

	wsServer := server.NewWebSocketServer(cfg.Server.WebSocket, hub)
	go func() {
		logger.Info("starting WebSocket server",
			zap.String("address", cfg.Server.WebSocket.Address),
			zap.String("path", cfg.Server.WebSocket.Path),
		)
		if wsErr := wsServer.ListenAndServe(); wsErr != nil && !errors.Is(wsErr, http.ErrServerClosed) {
			logger.Error("WebSocket server error", zap.Error(wsErr))
		}
	}()

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket server shutdown", zap.Error(err))
	}
	cancel()
	grpcServer.GracefulStop()

	logger.Info("duel server stopped")
}

// openStore picks Postgres when a database URL is configured and falls back
// to process memory otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.MatchStore, error) {
	if cfg.URL == "" {
		logger.Warn("no database url configured; matches are kept in memory")
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.NewPostgresStore(ctx, cfg, logger.Named("postgres"))
	if err != nil {
		return nil, err
	}
	return store, nil
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
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
