// internal/socket/hub.go
package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Audit feed messages
	MessageAccessAttempt MessageType = "access_attempt"

	// Consent lifecycle messages
	MessageConsentGranted    MessageType = "consent_granted"
	MessageConsentRevoked    MessageType = "consent_revoked"
	MessageConsentRenewalDue MessageType = "consent_renewal_due"

	// Member lifecycle messages
	MessageMemberCreated     MessageType = "member_created"
	MessageMemberAgeVerified MessageType = "member_age_verified"
	MessageMemberDeactivated MessageType = "member_deactivated"

	// Monitoring messages
	MessageAuditDegraded MessageType = "audit_degraded"

	// System messages
	MessagePing MessageType = "ping"
	MessagePong MessageType = "pong"
	MessageAck  MessageType = "ack"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType            `json:"type"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Client represents a connected WebSocket client
type Client struct {
	ID          string
	UserID      string
	HouseholdID string
	Conn        *websocket.Conn
	Hub         *Hub
	Send        chan []byte
	mu          sync.Mutex
	lastPing    time.Time
}

// Hub maintains the set of active clients and broadcasts monitoring
// events to them, grouped per household.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients indexed by household for scoped broadcasting
	householdClients map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast to all clients
	broadcast chan []byte

	// Broadcast to a single household
	householdBroadcast chan *HouseholdMessage

	mu sync.RWMutex
}

// HouseholdMessage represents a message scoped to one household
type HouseholdMessage struct {
	HouseholdID string
	Message     []byte
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:            make(map[*Client]bool),
		householdClients:   make(map[string]map[*Client]bool),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
		broadcast:          make(chan []byte, 256),
		householdBroadcast: make(chan *HouseholdMessage, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	log.Println("[Hub] Monitoring hub started")

	pingTicker := time.NewTicker(30 * time.Second)
	defer pingTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToAll(message)

		case hm := <-h.householdBroadcast:
			h.broadcastToHousehold(hm)

		case <-pingTicker.C:
			h.pingClients()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.householdClients[client.HouseholdID] == nil {
		h.householdClients[client.HouseholdID] = make(map[*Client]bool)
	}
	h.householdClients[client.HouseholdID][client] = true

	log.Printf("[Hub] ✅ Client registered: user=%s, household=%s, total_clients=%d",
		client.UserID, client.HouseholdID, len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)

		if clients, ok := h.householdClients[client.HouseholdID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(h.householdClients, client.HouseholdID)
			}
		}

		close(client.Send)
		log.Printf("[Hub] ❌ Client disconnected: user=%s, total_clients=%d",
			client.UserID, len(h.clients))
	}
}

func (h *Hub) broadcastToAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

func (h *Hub) broadcastToHousehold(hm *HouseholdMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.householdClients[hm.HouseholdID] {
		select {
		case client.Send <- hm.Message:
		default:
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

func (h *Hub) pingClients() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.mu.Lock()
		stale := time.Since(client.lastPing) > 2*pongWait
		client.mu.Unlock()
		if stale {
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// SendToHousehold queues a typed message for every client of a household
func (h *Hub) SendToHousehold(householdID string, msgType MessageType, payload map[string]interface{}) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[Hub] Failed to marshal message: %v", err)
		return
	}

	select {
	case h.householdBroadcast <- &HouseholdMessage{HouseholdID: householdID, Message: data}:
	default:
		log.Printf("[Hub] Household broadcast queue full, dropping %s", msgType)
	}
}

// SendToAll queues a typed message for every connected client
func (h *Hub) SendToAll(msgType MessageType, payload map[string]interface{}) {
	data, err := json.Marshal(Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		log.Printf("[Hub] Failed to marshal message: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("[Hub] Broadcast queue full, dropping %s", msgType)
	}
}

// GetConnectedClientsCount returns the number of connected clients
func (h *Hub) GetConnectedClientsCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
