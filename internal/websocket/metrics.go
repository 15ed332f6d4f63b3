package websocket

import (
	"sync/atomic"
	"time"
)

// HubMetrics представляет агрегированные метрики хаба
type HubMetrics struct {
	startTime time.Time

	totalConnections  atomic.Int64
	activeConnections atomic.Int64
	eventsPublished   atomic.Int64
	eventsReceived    atomic.Int64 // from other instances
	messagesSent      atomic.Int64
	slowClientsDrops  atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of HubMetrics.
type MetricsSnapshot struct {
	InstanceID        string `json:"instance_id"`
	UptimeSec         int64  `json:"uptime_sec"`
	TotalConnections  int64  `json:"total_connections"`
	ActiveConnections int64  `json:"active_connections"`
	ActiveGames       int    `json:"active_games"`
	EventsPublished   int64  `json:"events_published"`
	EventsReceived    int64  `json:"events_received"`
	MessagesSent      int64  `json:"messages_sent"`
	SlowClientDrops   int64  `json:"slow_client_drops"`
}

// NewHubMetrics создает новый экземпляр метрик
func NewHubMetrics() *HubMetrics {
	return &HubMetrics{startTime: time.Now()}
}

func (m *HubMetrics) connected() {
	m.totalConnections.Add(1)
	m.activeConnections.Add(1)
}

func (m *HubMetrics) disconnected() {
	m.activeConnections.Add(-1)
}

func (m *HubMetrics) snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		UptimeSec:         int64(time.Since(m.startTime).Seconds()),
		TotalConnections:  m.totalConnections.Load(),
		ActiveConnections: m.activeConnections.Load(),
		EventsPublished:   m.eventsPublished.Load(),
		EventsReceived:    m.eventsReceived.Load(),
		MessagesSent:      m.messagesSent.Load(),
		SlowClientDrops:   m.slowClientsDrops.Load(),
	}
}
