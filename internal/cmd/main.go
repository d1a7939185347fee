package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/clickarena/clickarena/internal/auth"
	"github.com/clickarena/clickarena/internal/game"
	"github.com/clickarena/clickarena/internal/room"
	"github.com/clickarena/clickarena/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}

	config, err := loadConfig(getEnv("CLICKARENA_CONFIG", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	level, err := zerolog.ParseLevel(config.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := clockwork.NewRealClock()
	sessions := session.NewRegistry()
	rooms := room.NewRegistry(clock, config.BoardSize, config.RoomCount)
	gateway := auth.NewClient(config.AuthBaseURL)
	broadcaster := game.NewBroadcaster(sessions, rooms)
	dispatcher := game.NewDispatcher(
		sessions,
		rooms,
		gateway,
		broadcaster,
		clock,
		time.Duration(config.ClickTimeoutSeconds)*time.Second,
	)
	server := game.NewServer(sessions, dispatcher, config.MaxConns)

	log.Info().
		Int("rooms", config.RoomCount).
		Int("board_size", config.BoardSize).
		Int("click_timeout_s", config.ClickTimeoutSeconds).
		Str("auth_base_url", config.AuthBaseURL).
		Msg("starting clickarena game server")

	httpServer := setupHTTPServer(ctx, config, server)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("websocket endpoint listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server failed")
		}
	}()

	if err := server.ListenTCP(ctx, fmt.Sprintf(":%d", config.Port)); err != nil {
		log.Fatal().Err(err).Msg("tcp listener failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("game server stopped")
}
