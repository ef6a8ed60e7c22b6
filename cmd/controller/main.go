package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/readylabs/readyboard/internal/client"
	"github.com/readylabs/readyboard/internal/clocksync"
	"github.com/readylabs/readyboard/internal/dbconfig"
	"github.com/readylabs/readyboard/internal/feed"
	"github.com/readylabs/readyboard/internal/orders"
	"github.com/readylabs/readyboard/internal/store"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	// Setup logging
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	roomID := getEnv("ROOM_ID", "")
	if roomID == "" {
		log.Fatal().Msg("ROOM_ID environment variable is required")
	}
	port := getEnv("CONTROLLER_PORT", "8081")

	busCfg := store.DefaultEventBusConfig()
	busCfg.URL = getEnv("NATS_URL", busCfg.URL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := clockwork.NewRealClock()
	c, err := client.Connect(ctx, clock, client.Config{
		RoomID:      roomID,
		DatabaseURL: dbconfig.NewConfigFromEnv().DSN(),
		Bus:         busCfg,
		Feed:        feed.DefaultConfig(),
		Clock:       clocksync.DefaultConfig(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to join room")
	}
	defer c.Close()

	service, err := orders.NewService(c.Repo, c.Bus, c.Feed, c.Clock, roomID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create order service")
	}
	if err := service.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load room ttl")
	}

	api := NewAPI(service, c)
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := setupServer(mux, port)

	log.Info().
		Str("room_id", roomID).
		Str("port", port).
		Msg("starting controller client")

	c.Start(ctx)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
