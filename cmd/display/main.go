package main

import (
	"context"
	"encoding/json"
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
	"github.com/readylabs/readyboard/internal/gateway"
	"github.com/readylabs/readyboard/internal/highlight"
	"github.com/readylabs/readyboard/internal/reaper"
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
	port := getEnv("DISPLAY_PORT", "8082")

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

	settingsPath := getEnv("SETTINGS_PATH", "")
	if settingsPath == "" {
		settingsPath, err = highlight.DefaultSettingsPath()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to resolve settings path")
		}
	}
	pref, err := highlight.LoadSoundPreference(settingsPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", settingsPath).Msg("failed to load sound preference")
	}

	tracker := highlight.NewTracker(clock, highlight.DefaultConfig(), pref, terminalBell{})
	sweeper := reaper.New(c.Feed, c.Repo, c.Clock, clock, reaper.DefaultConfig())
	gw := gateway.NewService(gateway.DefaultConfig(), roomID, c.Feed, c.Detector, tracker, pref)

	mux := http.NewServeMux()
	gw.RegisterRoutes(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	registerSoundRoutes(mux, pref)

	server := setupServer(mux, port)

	log.Info().
		Str("room_id", roomID).
		Str("port", port).
		Msg("starting display client")

	c.Start(ctx)
	go tracker.Run(ctx)
	go sweeper.Run(ctx)
	go gw.Start(ctx)

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

// registerSoundRoutes exposes the client-local sound toggle.
func registerSoundRoutes(mux *http.ServeMux, pref *highlight.SoundPreference) {
	mux.HandleFunc("GET /api/sound", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": pref.Enabled()})
	})
	mux.HandleFunc("PUT /api/sound", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Enabled bool `json:"enabled"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
		if err := pref.SetEnabled(body.Enabled); err != nil {
			log.Error().Err(err).Msg("failed to persist sound preference")
			http.Error(w, "failed to persist setting", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": pref.Enabled()})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// terminalBell is the headless audio cue: a BEL to stdout. Browser
// displays chime on their own from the OrderAdded event's sound flag.
type terminalBell struct{}

func (terminalBell) Play() {
	os.Stdout.WriteString("\a")
}
