package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"github.com/jianghu-duel/duel-server-go/internal/config"
	"github.com/jianghu-duel/duel-server-go/internal/game"
	"github.com/jianghu-duel/duel-server-go/internal/game/catalog"
	"github.com/jianghu-duel/duel-server-go/internal/match"
	"github.com/jianghu-duel/duel-server-go/internal/repository"
	"github.com/jianghu-duel/duel-server-go/internal/server"
	"go.uber.org/zap"
)

var addr = flag.String("addr", ":8080", "listen address")

// createDemoMatch seats player1 and player2 and deals their match so a
// browser client can attach straight away.
func createDemoMatch(ctx context.Context, mgr *match.Manager) (*match.Result, error) {
	lobby, err := mgr.CreateLobby(ctx, "player1")
	if err != nil {
		return nil, err
	}
	if _, err := mgr.JoinLobby(ctx, lobby.ID, "player2"); err != nil {
		return nil, err
	}
	return mgr.StartMatch(ctx, lobby.ID, "player1")
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := game.NewEngine(logger.Named("engine"), catalog.Default())
	mgr := match.NewManager(logger.Named("match"), engine, repository.NewMemoryStore(), nil)

	wsCfg := config.WebSocketConfig{Address: *addr, Path: "/ws"}
	hub := server.NewHub(wsCfg, mgr, logger.Named("ws"))
	mgr.SetNotifier(hub)
	go hub.Run(ctx)

	demo, err := createDemoMatch(ctx, mgr)
	if err != nil {
		logger.Fatal("failed to create demo match", zap.Error(err))
	}

	logger.Info("demo match ready",
		zap.String("match_id", demo.Match.ID),
		zap.String("websocket", "ws://localhost"+*addr+"/ws?match="+demo.Match.ID),
		zap.Strings("players", demo.Match.PlayerIDs),
	)

	srv := server.NewWebSocketServer(wsCfg, hub)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("ListenAndServe", zap.Error(err))
	}
}
