package game

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/netutil"

	"github.com/clickarena/clickarena/internal/protocol"
	"github.com/clickarena/clickarena/internal/session"
)

const protocolName = "json-line-v1"

// Server owns the listener loop and runs one goroutine per accepted
// connection. TCP clients speak newline-delimited JSON directly; web
// clients get the identical protocol over a WebSocket upgrade.
type Server struct {
	sessions   *session.Registry
	dispatcher *Dispatcher
	maxConns   int

	upgrader websocket.Upgrader
}

func NewServer(sessions *session.Registry, dispatcher *Dispatcher, maxConns int) *Server {
	return &Server{
		sessions:   sessions,
		dispatcher: dispatcher,
		maxConns:   maxConns,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ListenTCP accepts game connections until the context is cancelled. The
// listener is capped so a connection flood degrades into queued accepts
// instead of unbounded goroutines.
func (s *Server) ListenTCP(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	listener = netutil.LimitListener(listener, s.maxConns)

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	log.Info().
		Str("addr", addr).
		Int("max_conns", s.maxConns).
		Msg("game server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Error().Err(err).Msg("accept failed")
			continue
		}
		go s.runSession(ctx, session.NewTCPTransport(conn))
	}
}

// WebSocketHandler upgrades an HTTP request and serves the same protocol
// over it. The handler blocks for the life of the connection.
func (s *Server) WebSocketHandler(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error().Err(err).Msg("websocket upgrade failed")
			return
		}
		s.runSession(ctx, session.NewWebSocketTransport(conn))
	}
}

// runSession drives one connection: greet, read lines, dispatch, and clean
// up on the first transport failure.
func (s *Server) runSession(ctx context.Context, transport session.Transport) {
	sess := session.New(transport)
	s.sessions.Add(sess)
	defer s.dispatcher.Disconnect(sess)

	log.Info().
		Str("session_id", sess.ID).
		Str("remote", sess.RemoteAddr()).
		Msg("session connected")

	if err := sess.Send(protocol.TypeServerHello, protocol.HelloPayload{
		SessionID: sess.ID,
		Message:   "Connected. Please authenticate.",
		Protocol:  protocolName,
	}); err != nil {
		return
	}

	for {
		line, err := sess.ReadLine()
		if err != nil {
			return
		}
		if len(line) == 0 {
			continue
		}
		s.dispatcher.Dispatch(ctx, sess, line)
	}
}
