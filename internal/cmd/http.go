package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/clickarena/clickarena/internal/game"
)

// setupHTTPServer serves the WebSocket transport and a health check. Web
// clients connect cross-origin, so the whole mux is CORS-wrapped.
func setupHTTPServer(ctx context.Context, config Config, server *game.Server) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", server.WebSocketHandler(ctx))
	setupHealthCheck(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", config.HTTPPort),
		Handler: c.Handler(mux),
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
