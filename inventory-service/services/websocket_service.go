package services

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"shelfwise-backend/shared/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Inventory event types pushed over the feed
const (
	EventBoxCreated       = "box.created"
	EventBoxUpdated       = "box.updated"
	EventBoxDeleted       = "box.deleted"
	EventLocationRenamed  = "location.renamed"
	EventQRAssigned       = "qr.assigned"
	EventQRUnassigned     = "qr.unassigned"
	EventDeletionProgress = "account.deletion"
)

// InventoryEvent is one message on the WebSocket feed
type InventoryEvent struct {
	Type        string                 `json:"type"`
	WorkspaceID *uuid.UUID             `json:"workspace_id,omitempty"`
	UserID      *uuid.UUID             `json:"user_id,omitempty"`
	Message     string                 `json:"message"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// WebSocketManager handles all WebSocket connections
type WebSocketManager struct {
	clients    map[string]*websocket.Conn // userID -> connection
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	register   chan *ClientConnection
	unregister chan *ClientConnection
	broadcast  chan *InventoryEvent
}

// ClientConnection represents a client WebSocket connection
type ClientConnection struct {
	UserID     string
	Connection *websocket.Conn
}

var wsManager *WebSocketManager
var once sync.Once

// GetWebSocketManager returns singleton WebSocket manager
func GetWebSocketManager() *WebSocketManager {
	once.Do(func() {
		wsManager = &WebSocketManager{
			clients: make(map[string]*websocket.Conn),
			upgrader: websocket.Upgrader{
				CheckOrigin: func(r *http.Request) bool {
					origin := r.Header.Get("Origin")

					if origin == config.GetConfig().FrontendURL {
						return true
					}

					log.Printf("🚫 WebSocket connection rejected from origin: %s", origin)
					return false
				},
			},
			register:   make(chan *ClientConnection, 100),
			unregister: make(chan *ClientConnection, 100),
			broadcast:  make(chan *InventoryEvent, 1000),
		}
		go wsManager.run()
	})
	return wsManager
}

// NewEvent builds an event stamped with the current time
func NewEvent(eventType, message string) *InventoryEvent {
	return &InventoryEvent{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// run handles WebSocket manager event loop
func (wsm *WebSocketManager) run() {
	for {
		select {
		case client := <-wsm.register:
			wsm.registerClient(client)

		case client := <-wsm.unregister:
			wsm.unregisterClient(client)

		case event := <-wsm.broadcast:
			wsm.broadcastEvent(event)
		}
	}
}

// registerClient adds a new client connection
func (wsm *WebSocketManager) registerClient(client *ClientConnection) {
	wsm.mutex.Lock()
	defer wsm.mutex.Unlock()

	// Close existing connection if any
	if existingConn, exists := wsm.clients[client.UserID]; exists {
		existingConn.Close()
	}

	wsm.clients[client.UserID] = client.Connection
	log.Printf("🔌 WebSocket client connected: %s (Total: %d)", client.UserID, len(wsm.clients))
}

// unregisterClient removes a client connection
func (wsm *WebSocketManager) unregisterClient(client *ClientConnection) {
	wsm.mutex.Lock()
	defer wsm.mutex.Unlock()

	if _, exists := wsm.clients[client.UserID]; exists {
		delete(wsm.clients, client.UserID)
		client.Connection.Close()
		log.Printf("🔌 WebSocket client disconnected: %s (Total: %d)", client.UserID, len(wsm.clients))
	}
}

// broadcastEvent sends an event to all connected clients
func (wsm *WebSocketManager) broadcastEvent(event *InventoryEvent) {
	wsm.mutex.RLock()
	defer wsm.mutex.RUnlock()

	for userID, conn := range wsm.clients {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("❌ Failed to send event to user %s: %v", userID, err)
			go func(uid string, connection *websocket.Conn) {
				wsm.unregister <- &ClientConnection{UserID: uid, Connection: connection}
			}(userID, conn)
		}
	}
}

// SendToUser sends an event to a specific user
func (wsm *WebSocketManager) SendToUser(userID string, event *InventoryEvent) error {
	wsm.mutex.RLock()
	conn, exists := wsm.clients[userID]
	wsm.mutex.RUnlock()

	if !exists {
		return fmt.Errorf("user %s not connected", userID)
	}

	if err := conn.WriteJSON(event); err != nil {
		log.Printf("❌ Failed to send event to user %s: %v", userID, err)
		go func() {
			wsm.unregister <- &ClientConnection{UserID: userID, Connection: conn}
		}()
		return err
	}

	return nil
}

// BroadcastToAll queues an event for every connected client
func (wsm *WebSocketManager) BroadcastToAll(event *InventoryEvent) {
	select {
	case wsm.broadcast <- event:
	default:
		log.Printf("⚠️ Broadcast queue full, dropping event: %s", event.Type)
	}
}

// HandleWebSocketConnection upgrades HTTP connection to WebSocket
func (wsm *WebSocketManager) HandleWebSocketConnection(c *gin.Context) {
	userID := c.Param("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User ID required"})
		return
	}

	conn, err := wsm.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ Failed to upgrade WebSocket: %v", err)
		return
	}

	client := &ClientConnection{
		UserID:     userID,
		Connection: conn,
	}

	wsm.register <- client

	defer func() {
		wsm.unregister <- client
	}()

	// Keep connection alive and answer pings
	for {
		var message map[string]interface{}
		if err := conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("❌ WebSocket error for user %s: %v", userID, err)
			}
			break
		}

		if msgType, ok := message["type"].(string); ok && msgType == "ping" {
			pong := NewEvent("pong", "pong")
			if id, err := uuid.Parse(userID); err == nil {
				pong.UserID = &id
			}
			wsm.SendToUser(userID, pong)
		}
	}
}

// GetConnectionCount returns number of active connections
func (wsm *WebSocketManager) GetConnectionCount() int {
	wsm.mutex.RLock()
	defer wsm.mutex.RUnlock()
	return len(wsm.clients)
}
