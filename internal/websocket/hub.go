package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Hub tracks connections per game code and delivers GameEvents to them.
// With a PubSubProvider every event is also published to the other instances.
type Hub struct {
	instanceID string
	channel    string
	provider   PubSubProvider
	metrics    *HubMetrics

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub creates a hub. provider may be nil for a single instance.
func NewHub(provider PubSubProvider, channel string) *Hub {
	if provider == nil {
		provider = &NoOpPubSub{}
	}
	return &Hub{
		instanceID: uuid.New().String(),
		channel:    channel,
		provider:   provider,
		metrics:    NewHubMetrics(),
		rooms:      make(map[string]map[*Client]struct{}),
	}
}

// InstanceID identifies this hub in cluster messages
func (h *Hub) InstanceID() string {
	return h.instanceID
}

// Run consumes events published by other instances until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	msgs, err := h.provider.Subscribe(ctx, h.channel)
	if err != nil {
		return err
	}
	log.Printf("[WS] Hub %s listening on channel %s", h.instanceID, h.channel)

	for raw := range msgs {
		var msg ClusterMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("[WS] Invalid cluster message: %v", err)
			continue
		}
		if msg.InstanceID == h.instanceID {
			continue
		}
		h.metrics.eventsReceived.Add(1)
		h.broadcastLocal(msg.Event)
	}
	return nil
}

// Register subscribes a connection to its game
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.GameCode]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.GameCode] = room
	}
	room[c] = struct{}{}
	h.metrics.connected()
	log.Printf("[WS] User #%d subscribed to game %s (conn %s)", c.UserID, c.GameCode, c.ConnectionID)
}

// Unregister removes a connection and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.GameCode]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, c.GameCode)
	}
	c.closeSend()
	h.metrics.disconnected()
	log.Printf("[WS] User #%d unsubscribed from game %s (conn %s)", c.UserID, c.GameCode, c.ConnectionID)
}

// SubscriberCount returns the number of local connections watching code
func (h *Hub) SubscriberCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}

// Metrics returns the current hub counters.
func (h *Hub) Metrics() MetricsSnapshot {
	snap := h.metrics.snapshot()
	snap.InstanceID = h.instanceID
	h.mu.RLock()
	snap.ActiveGames = len(h.rooms)
	h.mu.RUnlock()
	return snap
}

// NotifyGameUpdated delivers the event locally and publishes it to the cluster.
func (h *Hub) NotifyGameUpdated(ctx context.Context, event GameEvent) {
	event.Type = GAME_UPDATED
	if event.At.IsZero() {
		event.At = time.Now()
	}
	h.broadcastLocal(event)
	h.metrics.eventsPublished.Add(1)

	data, err := json.Marshal(ClusterMessage{InstanceID: h.instanceID, Event: event})
	if err != nil {
		log.Printf("[WS] Failed to encode cluster message for game %s: %v", event.Code, err)
		return
	}
	if err := h.provider.Publish(ctx, h.channel, data); err != nil {
		log.Printf("[WS] Failed to publish event for game %s: %v", event.Code, err)
	}
}

func (h *Hub) broadcastLocal(event GameEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[WS] Failed to encode event for game %s: %v", event.Code, err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.rooms[event.Code] {
		if !c.enqueue(data) {
			slow = append(slow, c)
			continue
		}
		h.metrics.messagesSent.Add(1)
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.metrics.slowClientsDrops.Add(1)
		log.Printf("[WS] Send buffer full for user #%d (conn %s), dropping connection", c.UserID, c.ConnectionID)
		h.Unregister(c)
	}
}
