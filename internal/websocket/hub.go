package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"ai-slidegen-be/internal/pkg/logger"
	"ai-slidegen-be/pkg/events"

	"github.com/redis/go-redis/v9"
)

// Hub is the session registry for progress delivery: clients register under
// a processId, Notify fans a progress event out to them, deregistration
// happens on disconnect. Delivery is best-effort; a slow client is dropped,
// never waited on.
type Hub struct {
	// Registered clients map: processID -> list of clients (multi-tab)
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance delivery
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ProcessID] = append(h.clients[client.ProcessID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"process_id": client.ProcessID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ProcessID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ProcessID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ProcessID]) == 0 {
					delete(h.clients, client.ProcessID)
					h.logger.Info("Hub", "Process channel closed", map[string]interface{}{"process_id": client.ProcessID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify delivers one progress event to every client watching the event's
// processId, locally and via Redis for other instances.
func (h *Hub) Notify(event events.ProgressEvent) {
	data, _ := json.Marshal(event)

	h.mu.RLock()
	clients, localFound := h.clients[event.ProcessID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// unregister owns the close; closing here too would
				// double-close once Run processes the request
				h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"process_id": event.ProcessID})
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		payload := map[string]interface{}{
			"process_id": event.ProcessID,
			"message":    json.RawMessage(data),
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "cluster_events", jsonPayload)
	}
}

// subscribeToRedis relays events published by other instances: every
// instance subscribes to cluster_events and forwards messages for processIds
// it holds locally.
func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "cluster_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload struct {
			ProcessID string          `json:"process_id"`
			Message   json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[payload.ProcessID]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					h.unregister <- client
				}
			}
		}
	}
}
