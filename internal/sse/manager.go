package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/id"
)

// Client is one open stream.
type Client struct {
	ID          string
	UserID      string
	Events      chan Event
	Done        chan struct{}
	ConnectedAt time.Time
}

// Manager fans queued events out to connected clients.
type Manager struct {
	clients   map[string]*Client
	events    chan Event
	logger    *slog.Logger
	heartbeat time.Duration
	mu        sync.RWMutex
	wg        sync.WaitGroup

	closeMu sync.RWMutex
	closed  bool
}

// NewManager returns a manager with a 30s heartbeat.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		clients:   make(map[string]*Client),
		events:    make(chan Event, 512),
		logger:    logger,
		heartbeat: 30 * time.Second,
	}
}

// Start launches the broadcast loop, which runs until ctx is done or
// Shutdown closes the queue. The loop is tracked before Start returns, so a
// Shutdown that follows always waits for the drain.
func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.run(ctx)
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	m.logger.Info("realtime stream manager started")
	for {
		select {
		case evt, ok := <-m.events:
			if !ok {
				m.closeAllClients()
				return
			}
			m.broadcast(evt)
		case <-ticker.C:
			m.broadcast(NewHeartbeatEvent())
		case <-ctx.Done():
			m.closeAllClients()
			return
		}
	}
}

// Shutdown stops accepting events, lets the loop drain what is queued and
// disconnects every client.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closeMu.Lock()
	if m.closed {
		m.closeMu.Unlock()
		return nil
	}
	m.closed = true
	close(m.events)
	m.closeMu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		m.logger.Warn("realtime stream drain timed out")
	}
	return nil
}

// Publish queues evt without blocking. Events are dropped after Shutdown or
// when the queue is full.
func (m *Manager) Publish(evt Event) {
	m.closeMu.RLock()
	defer m.closeMu.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.events <- evt:
	default:
		m.logger.Error("realtime queue full, dropping event", "event_type", string(evt.Type))
	}
}

// PublishNotification queues n for its recipient.
func (m *Manager) PublishNotification(n *domain.Notification) {
	m.Publish(NewNotificationEvent(n))
}

func (m *Manager) broadcast(evt Event) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var delivered, dropped int
	for _, c := range m.clients {
		if evt.UserID != "" && evt.UserID != c.UserID {
			continue
		}
		select {
		case c.Events <- evt:
			delivered++
		default:
			dropped++
			m.logger.Warn("dropped event for slow client",
				"client_id", c.ID,
				"event_type", string(evt.Type),
			)
		}
	}

	if evt.Type != EventHeartbeat {
		m.logger.Debug("event broadcast",
			"event_type", string(evt.Type),
			slog.Group("stats", "delivered", delivered, "dropped", dropped),
		)
	}
}

// Connect registers a stream for userID.
func (m *Manager) Connect(userID string) *Client {
	c := &Client{
		ID:          id.PrefixSSEClient + "-" + uuid.NewString(),
		UserID:      userID,
		Events:      make(chan Event, 64),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	m.mu.Lock()
	m.clients[c.ID] = c
	total := len(m.clients)
	m.mu.Unlock()

	m.logger.Info("stream client connected", "client_id", c.ID, "user_id", userID, "total_clients", total)
	return c
}

// Disconnect removes a client. Unknown ids are ignored.
func (m *Manager) Disconnect(clientID string) {
	m.mu.Lock()
	c, ok := m.clients[clientID]
	if ok {
		delete(m.clients, clientID)
	}
	total := len(m.clients)
	m.mu.Unlock()
	if !ok {
		return
	}

	close(c.Done)
	m.logger.Info("stream client disconnected",
		"client_id", clientID,
		"duration", time.Since(c.ConnectedAt),
		"total_clients", total,
	)
}

// ClientCount returns the number of open streams.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) closeAllClients() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.clients {
		close(c.Done)
	}
	m.clients = make(map[string]*Client)
	m.logger.Info("realtime stream manager stopped")
}
