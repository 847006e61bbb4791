package websocket

import (
	"time"

	"codeberg.org/chatgate/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		shutdown:      make(chan struct{}),
		stopped:       make(chan struct{}),
		ipConnections: make(map[string]int),
	}
}

// starts the hub's main loop
func (h *Hub) Run() {
	h.mu.Lock()
	h.running = true
	h.mu.Unlock()

	defer close(h.stopped)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID] = client

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]++
	}

	logger.Info("client registered",
		"client_id", client.ID,
		"user_id", client.UserID,
	)
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[client.ID]; !exists {
		return
	}

	delete(h.clients, client.ID)
	client.Close()

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}

	logger.Info("client unregistered",
		"client_id", client.ID,
		"user_id", client.UserID,
	)
}

// hands a new client to the run loop. reports false once the hub has
// stopped and the client will never be served.
func (h *Hub) Add(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.stopped:
		return false
	}
}

// hands a client to the run loop, giving up once the hub has stopped
func (h *Hub) unregister(client *Client) {
	if h == nil {
		client.Close()
		return
	}

	select {
	case h.Unregister <- client:
	case <-h.stopped:
		client.Close()
	}
}

// returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// signals the run loop to notify and close every client
func (h *Hub) Shutdown() {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()

	if running {
		select {
		case <-h.shutdown:
		default:
			close(h.shutdown)
		}

		<-h.stopped
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	// send shutdown notification to all clients first
	for _, client := range h.clients {
		if err := client.Send(&Message{
			Type:   TypeServerShutdown,
			Reason: "server is shutting down",
		}); err != nil {
			logger.Debug("failed to send shutdown notification",
				"client_id", client.ID,
				"error", err,
			)
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections", "clients", len(h.clients))

	for _, client := range h.clients {
		client.Close()
	}

	// clear all clients and connection tracking
	h.clients = make(map[string]*Client)
	h.ipConnections = make(map[string]int)
}

// checks whether another connection from ipAddress may be accepted
func (h *Hub) CanAcceptConnection(ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "maximum connections per IP address exceeded"
	}

	return true, ""
}
