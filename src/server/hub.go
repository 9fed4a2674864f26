package server

import (
	"encoding/json"
	"net/http"

	"rescue-screener/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop. It exits when Stop closes done,
// releasing every client's write pump on the way out.
func (s *Server) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			s.clientCount.Store(int64(len(s.clients)))
			// Send the current run state on connect so a new dashboard does
			// not wait for the next progress tick.
			if run := s.latestRun(); run != nil {
				client.send <- run.Status()
			} else {
				client.send <- models.MRunStatus{Status: models.RunStateIdle}
			}

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
				s.clientCount.Store(int64(len(s.clients)))
			}

		case status := <-s.broadcast:
			// Broadcast to all clients
			for client := range s.clients {
				select {
				case client.send <- status:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.clientCount.Store(int64(len(s.clients)))

		case <-s.done:
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.clientCount.Store(0)
			return
		}
	}
}

// -----------------------------------------------------------------------------

// Broadcast queues a run status snapshot for every connected client. It is a
// no-op once the server has been stopped.
func (s *Server) Broadcast(status models.MRunStatus) {
	// Non-blocking send; with a 256 slot buffer a full queue means no
	// consumer is keeping up, so dropping one snapshot is harmless.
	select {
	case <-s.done:
	case s.broadcast <- status:
	default:
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan models.MRunStatus, 256),
	}

	select {
	case s.register <- client:
	case <-s.done:
		conn.Close()
		return
	}

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

type clientCommand struct {
	Command string `json:"command"`
}

// HandleClientMessage answers a "status" command with an immediate snapshot.
// Anything else is ignored; the read loop mainly keeps the connection alive.
func (s *Server) HandleClientMessage(client *Client, message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "status" {
		return
	}

	var status models.MRunStatus
	if run := s.latestRun(); run != nil {
		status = run.Status()
	} else {
		status = models.MRunStatus{Status: models.RunStateIdle}
	}

	// Use select to avoid blocking if client's send buffer is full
	select {
	case client.send <- status:
	default:
	}
}
