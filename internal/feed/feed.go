package feed

import (
	"context"
	"net/http"

	"github.com/HerbHall/netmeter/internal/auth"
	"github.com/HerbHall/netmeter/internal/carrier"
	"github.com/HerbHall/netmeter/internal/policy"
	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Module implements the event feed plugin.
type Module struct {
	logger *zap.Logger
	bus    plugin.EventBus
	hub    *Hub

	// tokens is optional; nil disables stream authentication.
	tokens *auth.TokenService

	unsubscribes []func()
}

// New creates a new feed plugin instance. Pass a token service to
// require a valid JWT on stream connections, or nil to allow all.
func New(tokens *auth.TokenService) *Module {
	return &Module{tokens: tokens}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "feed",
		Version:     "0.1.0",
		Description: "Streams template and merge-group changes over WebSocket",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus
	m.hub = NewHub(m.logger)
	m.logger.Info("feed module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.subscribe()
	m.logger.Info("feed module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	for _, unsub := range m.unsubscribes {
		unsub()
	}
	m.unsubscribes = nil
	m.logger.Info("feed module stopped")
	return nil
}

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/stream", Handler: m.handleStream},
	}
}

// handleStream upgrades the connection to WebSocket and streams events.
func (m *Module) handleStream(w http.ResponseWriter, r *http.Request) {
	username := ""
	if m.tokens != nil {
		// Validate JWT from query parameter (browser WS API doesn't support headers).
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token parameter", http.StatusUnauthorized)
			return
		}
		claims, err := m.tokens.Validate(token)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		username = claims.Username
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Allow any origin since we validate via JWT token.
		InsecureSkipVerify: true,
	})
	if err != nil {
		m.logger.Error("websocket accept failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:     conn,
		username: username,
		send:     make(chan Message, 256),
		logger:   m.logger,
	}

	m.hub.Register(client)

	ctx := r.Context()
	done := make(chan struct{})
	go func() {
		client.writePump(ctx)
		close(done)
	}()

	// readPump blocks until client disconnects.
	client.readPump(ctx)

	m.hub.Unregister(client)
	conn.Close(websocket.StatusNormalClosure, "")
	<-done
}

// subscribe forwards policy and carrier events to connected clients.
func (m *Module) subscribe() {
	if m.bus == nil {
		return
	}

	sub := func(topic string, handler plugin.EventHandler) {
		m.unsubscribes = append(m.unsubscribes, m.bus.Subscribe(topic, handler))
	}

	sub(policy.TopicTemplateRegistered, func(_ context.Context, event plugin.Event) {
		m.broadcastTemplate(MessageTemplateRegistered, event)
	})
	sub(policy.TopicTemplateRemoved, func(_ context.Context, event plugin.Event) {
		m.broadcastTemplate(MessageTemplateRemoved, event)
	})
	sub(carrier.TopicMergeGroupsUpdated, func(_ context.Context, event plugin.Event) {
		payload, ok := event.Payload.(carrier.GroupsUpdatedPayload)
		if !ok {
			return
		}
		scrubbed := make([][]string, len(payload.Groups))
		for i, g := range payload.Groups {
			scrubbed[i] = netident.ScrubSubscriberIDs(g)
		}
		m.hub.Broadcast(Message{
			Type:      MessageMergeGroupsUpdated,
			Timestamp: event.Timestamp,
			Data:      MergeGroupsData{Groups: scrubbed},
		})
	})
}

func (m *Module) broadcastTemplate(msgType MessageType, event plugin.Event) {
	payload, ok := event.Payload.(policy.TemplateEventPayload)
	if !ok {
		return
	}
	m.hub.Broadcast(Message{
		Type:      msgType,
		Timestamp: event.Timestamp,
		Data: TemplateData{
			ID:       payload.ID,
			Name:     payload.Name,
			Template: payload.Template.Template.String(),
		},
	})
}
