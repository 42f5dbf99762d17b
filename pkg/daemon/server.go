// Package daemon exposes the watch pipeline over a websocket so status-bar
// and editor consumers can subscribe to the event stream instead of parsing
// stdout.
package daemon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/watch/logging"
	"github.com/grovetools/watch/output"
)

const writeTimeout = 5 * time.Second

// Server broadcasts event and summary records to connected websocket
// clients. It implements output.Sink, so it can sit behind a MultiSink next
// to the stdout formatter.
type Server struct {
	addr     string
	upgrader websocket.Upgrader
	server   *http.Server
	logger   *logrus.Entry

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
	closed  bool
}

// NewServer creates a broadcast server listening on addr once started.
func NewServer(addr string) *Server {
	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			// Local tooling endpoint; subscribers are same-host processes.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]bool),
		logger:  logging.NewLogger("daemon"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleSubscribe)
	s.server = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start runs the HTTP listener until the context is cancelled. It returns
// immediately; listen failures surface through the logger and close the
// server.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.logger.Infof("Broadcast server listening on %s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("Broadcast server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		_ = s.Close()
	}()
}

// handleSubscribe upgrades a connection and keeps it registered until the
// peer goes away.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[conn] = true
	s.mu.Unlock()

	s.logger.Debugf("Client subscribed: %s", conn.RemoteAddr())

	// Reader loop exists only to observe the close handshake.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
}

// Event implements output.Sink.
func (s *Server) Event(rec output.EventRecord) error {
	s.broadcast(rec)
	return nil
}

// Summary implements output.Sink.
func (s *Server) Summary(sum output.Summary) error {
	s.broadcast(sum)
	return nil
}

// Fatal implements output.Sink.
func (s *Server) Fatal(message string) {
	s.broadcast(map[string]interface{}{
		"event_type": "fatal",
		"message":    message,
	})
}

// broadcast fans a record out to every client, dropping the ones whose
// writes fail.
func (s *Server) broadcast(v interface{}) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(v); err != nil {
			s.logger.WithError(err).Debugf("Dropping client: %s", conn.RemoteAddr())
			s.drop(conn)
		}
	}
}

// drop unregisters and closes one client connection.
func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
	}
	s.mu.Unlock()
	conn.Close()
}

// Close shuts the listener down and disconnects all clients.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.clients = make(map[*websocket.Conn]bool)
	s.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
