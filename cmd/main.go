package main

import (
	"artisan-link/api"
	"artisan-link/auth"
	"artisan-link/contract"
	"artisan-link/infrastructure/zmq"
	"artisan-link/repositories"
	"artisan-link/runtime"
	"artisan-link/runtime/workers"
	"artisan-link/services"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until a signal arrives.
// Returning instead of exiting lets the deferred closes run.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	// 2. Storage: conversations in Badger, actors in the SQLite directory
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	directory, err := repositories.OpenActorDirectory(config.ActorsDSN)
	if err != nil {
		return err
	}
	if sqlDB, err := directory.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}

	connectionRepository := repositories.NewConnectionRepository(db, log)
	messageRepository, err := repositories.NewMessageRepository(db, log)
	if err != nil {
		return fmt.Errorf("message repository: %w", err)
	}
	defer func() { _ = messageRepository.Close() }()
	actorRepository := repositories.NewActorRepository(directory)

	connectionService := services.NewConnectionService(log, connectionRepository, actorRepository)
	conversationService := services.NewConversationService(log, connectionRepository, messageRepository)

	// 3. Realtime: backbone, registry, presence and hub
	backbone, err := openBackbone(log, config)
	if err != nil {
		return fmt.Errorf("backbone: %w", err)
	}
	defer func() { _ = backbone.Close() }()

	registry := runtime.NewRegistry()
	presence := runtime.NewPresenceTracker(log, backbone, config.TypingDebounce, config.WriteTimeout)
	defer presence.Close()
	hub := runtime.NewHub(log, registry, backbone, presence, conversationService, config.WriteTimeout)

	// 4. HTTP & websocket surface
	sup := workers.NewSupervisor(log, config.RestartInterval)
	heartbeat := workers.NewHeartbeatWorker(log, registry, sup, config.MetricInterval)
	handler := api.NewHandler(log, auth.NewVerifier(config.JWTSecret),
		connectionService, conversationService, hub,
		api.SocketConfig{
			BufferSize:         config.SocketBufferSize,
			WriteTimeout:       config.WriteTimeout,
			PingInterval:       config.PingInterval,
			InsecureSkipVerify: config.WsInsecureSkipVerify,
			OriginPatterns:     splitList(config.CorsOrigins),
		},
		func() any { return heartbeat.Latest() },
	)
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := api.NewServer(log, address,
		api.NewRouter(log, handler, splitList(config.CorsOrigins)), config.ShutdownTimeout)

	// 5. Supervision
	sup.Add(
		workers.NewRoomDispatcher(log, registry, backbone),
		server,
		heartbeat,
		workers.NewChannelCapacityWorker(log, []workers.NamedChannel{
			{Name: "backbone_deliveries", Channel: backbone.Deliveries()},
		}, config.MetricInterval),
	)

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Artisan link started", "address", address, "backbone", config.Backbone)
	sup.Run(ctx)
	log.Info("Program stopped cleanly")
	return nil
}

func openBackbone(log *slog.Logger, config Config) (contract.Backbone, error) {
	switch config.Backbone {
	case "", "local":
		return runtime.NewLocalBackbone(config.BackboneBufferSize), nil
	case "zmq":
		return zmq.NewBackbone(log, zmq.Options{
			PubEndpoint: config.ZmqPubEndpoint,
			Peers:       splitList(config.ZmqPeers),
			BufferSize:  config.BackboneBufferSize,
		})
	default:
		return nil, fmt.Errorf("unknown backbone %q, expected local or zmq", config.Backbone)
	}
}

// splitList reads a comma separated env value, ignoring blanks.
func splitList(raw string) []string {
	return lo.Compact(lo.Map(strings.Split(raw, ","), func(item string, _ int) string {
		return strings.TrimSpace(item)
	}))
}
