package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/brokeradda/portal/internal/modules/notification/domain"
	"go.uber.org/zap"
)

// StateSource provides surface state and change notifications. The hub
// subscribes to a surface while it has at least one client.
type StateSource interface {
	State(surface string) domain.SurfaceState
	Subscribe(surface string, l domain.Listener) func()
}

// Snapshot is the message pushed to clients of a surface.
type Snapshot struct {
	Surface    string                                `json:"surface"`
	Version    uint64                                `json:"version"`
	Toasts     []domain.Toast                        `json:"toasts"`
	PausedAt   *time.Time                            `json:"pausedAt,omitempty"`
	Placements map[domain.Position][]domain.Placement `json:"placements"`
}

// NewSnapshot builds the client message for state.
func NewSnapshot(surface string, state domain.SurfaceState, opts domain.LayoutOptions) Snapshot {
	toasts := state.Toasts
	if toasts == nil {
		toasts = []domain.Toast{}
	}
	return Snapshot{
		Surface:    surface,
		Version:    state.Version,
		Toasts:     toasts,
		PausedAt:   state.PausedAt,
		Placements: domain.Layout(state, opts),
	}
}

type publication struct {
	surface string
	version uint64
	payload []byte
}

// Hub maintains the set of active clients per surface and pushes surface
// snapshots to them.
type Hub struct {
	source StateSource
	layout domain.LayoutOptions
	logger *zap.Logger

	// Registered clients grouped by surface.
	clients map[string]map[*Client]bool
	// Store subscriptions of the surfaces in clients.
	subscriptions map[string]func()
	onIdle        func(surface string)
	stopping      bool

	publish    chan publication
	register   chan *Client
	unregister chan *Client

	stop     chan struct{}
	stopOnce sync.Once

	mu    sync.Mutex
	count int
}

func NewHub(source StateSource, layout domain.LayoutOptions, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		source:        source,
		layout:        layout,
		logger:        logger,
		clients:       make(map[string]map[*Client]bool),
		subscriptions: make(map[string]func()),
		publish:       make(chan publication),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		stop:          make(chan struct{}),
	}
}

// OnIdle sets f to run on the hub goroutine when the last client of a
// surface leaves. It must be called before Run.
func (h *Hub) OnIdle(f func(surface string)) {
	h.onIdle = f
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.surface] == nil {
				h.clients[client.surface] = make(map[*Client]bool)
				if h.source != nil {
					h.subscriptions[client.surface] = h.source.Subscribe(client.surface, h.Publish)
				}
			}
			h.clients[client.surface][client] = true
			h.setCount(1)
			h.logger.Info("websocket client registered",
				zap.String("surface", client.surface),
				zap.String("remote", client.remoteAddr()))
			if h.source != nil {
				state := h.source.State(client.surface)
				if payload, err := h.encode(client.surface, state); err == nil {
					h.deliver(client, state.Version, payload)
				}
			}

		case client := <-h.unregister:
			h.drop(client)

		case msg := <-h.publish:
			for client := range h.clients[msg.surface] {
				h.deliver(client, msg.version, msg.payload)
			}

		case <-h.stop:
			h.logger.Info("stopping websocket hub")
			h.stopping = true
			for _, group := range h.clients {
				for client := range group {
					h.drop(client)
				}
			}
			return
		}
	}
}

// deliver sends payload unless the client already has a newer version.
// Clients with a full buffer are dropped.
func (h *Hub) deliver(client *Client, version uint64, payload []byte) {
	if client.sent && version <= client.version {
		return
	}
	select {
	case client.send <- payload:
		client.version = version
		client.sent = true
	default:
		h.logger.Warn("dropping slow websocket client", zap.String("surface", client.surface))
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	group, ok := h.clients[client.surface]
	if !ok || !group[client] {
		return
	}
	delete(group, client)
	close(client.send)
	h.setCount(-1)
	h.logger.Info("websocket client unregistered",
		zap.String("surface", client.surface),
		zap.String("remote", client.remoteAddr()))

	if len(group) > 0 {
		return
	}
	delete(h.clients, client.surface)
	if unsubscribe, ok := h.subscriptions[client.surface]; ok {
		unsubscribe()
		delete(h.subscriptions, client.surface)
	}
	if h.onIdle != nil && !h.stopping {
		h.onIdle(client.surface)
	}
}

func (h *Hub) encode(surface string, state domain.SurfaceState) ([]byte, error) {
	payload, err := json.Marshal(NewSnapshot(surface, state, h.layout))
	if err != nil {
		h.logger.Error("failed to encode surface snapshot", zap.String("surface", surface), zap.Error(err))
	}
	return payload, err
}

// Publish pushes state to every client of surface. It is the listener the
// hub subscribes with.
func (h *Hub) Publish(surface string, state domain.SurfaceState) {
	payload, err := h.encode(surface, state)
	if err != nil {
		return
	}
	select {
	case h.publish <- publication{surface: surface, version: state.Version, payload: payload}:
	case <-h.stop:
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

func (h *Hub) setCount(delta int) {
	h.mu.Lock()
	h.count += delta
	h.mu.Unlock()
}

func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}
