// Package classify evaluates network identities against the registered
// templates. It keeps an in-memory snapshot of the active templates,
// refreshed from the policy module whenever templates change.
package classify

import (
	"context"
	"fmt"
	"sync"

	"github.com/HerbHall/netmeter/internal/policy"
	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"github.com/HerbHall/netmeter/pkg/template"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// TemplateSource supplies the active normalized templates. The policy
// module implements this; defined here consumer-side.
type TemplateSource interface {
	ActiveTemplates(ctx context.Context) ([]template.Template, error)
}

// Module implements the identity classification plugin.
type Module struct {
	logger *zap.Logger
	bus    plugin.EventBus
	source TemplateSource

	mu       sync.RWMutex
	snapshot []template.Template

	unsubscribes []func()
}

// New creates a new classify plugin instance backed by the given source.
func New(source TemplateSource) *Module {
	return &Module{source: source}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "classify",
		Version:      "0.1.0",
		Description:  "Classifies network identities against registered templates",
		Dependencies: []string{"policy"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.bus = deps.Bus
	m.logger.Info("classify module initialized")
	return nil
}

func (m *Module) Start(ctx context.Context) error {
	if err := m.refresh(ctx); err != nil {
		return fmt.Errorf("loading template snapshot: %w", err)
	}

	if m.bus != nil {
		for _, topic := range []string{policy.TopicTemplateRegistered, policy.TopicTemplateRemoved} {
			m.unsubscribes = append(m.unsubscribes, m.bus.Subscribe(topic, m.onTemplatesChanged))
		}
	}

	m.logger.Info("classify module started", zap.Int("templates", m.snapshotLen()))
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	for _, unsub := range m.unsubscribes {
		unsub()
	}
	m.unsubscribes = nil
	m.logger.Info("classify module stopped")
	return nil
}

// Result is the outcome of classifying one identity.
type Result struct {
	// Matched is the first template that accepted the identity, in
	// registration order. Nil when nothing matched.
	Matched *template.Template
	// Total is the number of templates that accepted the identity.
	Total int
}

// Classify evaluates the identity against the current snapshot.
// First registered match wins; Total counts every match.
func (m *Module) Classify(ident netident.Identity) Result {
	timer := startClassifyTimer()
	defer timer.done()

	m.mu.RLock()
	snapshot := m.snapshot
	m.mu.RUnlock()

	var res Result
	for i := range snapshot {
		if !snapshot[i].Matches(ident) {
			continue
		}
		if res.Matched == nil {
			res.Matched = &snapshot[i]
		}
		res.Total++
	}

	recordClassification(res.Matched)
	return res
}

// refresh reloads the template snapshot from the source.
func (m *Module) refresh(ctx context.Context) error {
	if m.source == nil {
		return nil
	}
	templates, err := m.source.ActiveTemplates(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.snapshot = templates
	m.mu.Unlock()

	setSnapshotSize(len(templates))
	return nil
}

func (m *Module) snapshotLen() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.snapshot)
}

func (m *Module) onTemplatesChanged(ctx context.Context, event plugin.Event) {
	if err := m.refresh(ctx); err != nil {
		m.logger.Error("refreshing template snapshot",
			zap.String("topic", event.Topic),
			zap.Error(err),
		)
		return
	}
	m.logger.Debug("template snapshot refreshed",
		zap.String("topic", event.Topic),
		zap.Int("templates", m.snapshotLen()),
	)
}
