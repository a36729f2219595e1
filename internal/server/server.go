// Package server provides the HTTP serving side of the spot persistence
// gateway, plus a real-time WebSocket channel for view clients.
//
// The server exposes the spot document over GET/PUT /api/spots and
// broadcasts change notifications to connected WebSocket clients so that
// grid and map views on other pages observe saves and external data file
// edits without polling.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/surveyline/spotd/internal/session"
)

// MessageType defines the type of broadcast message.
type MessageType string

const (
	// MessageTypeSpotUpdate indicates the spot document was replaced
	// through a PUT.
	MessageTypeSpotUpdate MessageType = "spot_update"

	// MessageTypeExternalChange indicates the data file changed on disk
	// outside the server.
	MessageTypeExternalChange MessageType = "external_change"

	// MessageTypeStats carries client/spot counts.
	MessageTypeStats MessageType = "stats"
)

// Message represents a broadcast message.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// SpotUpdateData describes a document replacement.
type SpotUpdateData struct {
	Count  int    `json:"count"`
	Source string `json:"source"` // put, external
}

// StatsData carries basic server statistics.
type StatsData struct {
	Clients int `json:"clients"`
}

// Config holds server configuration.
type Config struct {
	// Port to listen on (default: 3001, 0 picks a free port).
	Port int

	// BeforeSave runs right before the gateway write on PUT. The serve
	// command uses it to open the watcher's self-write suppression
	// window.
	BeforeSave func()

	// Logger for server activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:   3001,
		Logger: log.Default(),
	}
}

// Server serves the spot document and manages WebSocket fan-out.
type Server struct {
	addr     string
	listener net.Listener
	server   *http.Server

	gateway    session.Gateway
	beforeSave func()

	// WebSocket client management
	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	// Message broadcasting
	broadcast chan Message

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// New creates a server over the given gateway. A nil config uses
// DefaultConfig.
func New(gw session.Gateway, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		addr:       fmt.Sprintf(":%d", config.Port),
		gateway:    gw,
		beforeSave: config.BeforeSave,
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Message, 100),
		ctx:        ctx,
		cancel:     cancel,
		logger:     config.Logger,
	}
}

// Start begins listening and serving.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.wg.Add(1)
	go s.broadcastLoop()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Spot server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the server and closes all client connections.
func (s *Server) Stop() error {
	s.logger.Println("Stopping spot server")

	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "Server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.wg.Wait()

	s.logger.Println("Spot server stopped")
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the current number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Broadcast sends a message to all connected clients.
func (s *Server) Broadcast(msg Message) {
	select {
	case s.broadcast <- msg:
	case <-s.ctx.Done():
		return
	default:
		s.logger.Println("Warning: broadcast channel full, dropping message")
	}
}

// NotifyExternalChange broadcasts that the data file changed outside the
// server (the watcher calls this after a reload).
func (s *Server) NotifyExternalChange(count int) {
	data, _ := json.Marshal(SpotUpdateData{Count: count, Source: "external"})
	s.Broadcast(Message{Type: MessageTypeExternalChange, Data: data})
}

// broadcastLoop handles message fan-out to all clients.
func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return

		case msg := <-s.broadcast:
			if msg.Timestamp.IsZero() {
				msg.Timestamp = time.Now()
			}

			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Printf("Failed to marshal message: %v", err)
				continue
			}

			s.clientsMu.RLock()
			clients := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				clients = append(clients, conn)
			}
			s.clientsMu.RUnlock()

			// Send outside the read lock to avoid blocking broadcasts.
			for _, conn := range clients {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()

				if err != nil {
					s.logger.Printf("Failed to send to client: %v", err)
					s.removeClient(conn)
				}
			}
		}
	}
}

// handleWebSocket upgrades HTTP connections to WebSocket.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	clientCount := len(s.clients)
	s.clientsMu.Unlock()

	wsClients.Set(float64(clientCount))
	s.logger.Printf("Client connected (total: %d)", clientCount)

	// Initial stats message so clients can show a connection indicator.
	data, _ := json.Marshal(StatsData{Clients: clientCount})
	welcome, _ := json.Marshal(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      data,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = conn.Write(ctx, websocket.MessageText, welcome)
	cancel()

	go s.readLoop(conn)
}

// readLoop keeps the connection alive and detects client disconnects.
// Client messages are not processed.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)

	for {
		_, _, err := conn.Read(s.ctx)
		if err != nil {
			return
		}
	}
}

// removeClient safely removes a client connection.
func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if _, exists := s.clients[conn]; exists {
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		_ = conn.Close(websocket.StatusNormalClosure, "")
		wsClients.Set(float64(clientCount))
		s.logger.Printf("Client disconnected (total: %d)", clientCount)
	} else {
		s.clientsMu.Unlock()
	}
}
