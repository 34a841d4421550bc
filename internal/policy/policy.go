// Package policy manages the registered accounting templates. Templates
// are normalized against the carrier merge groups before storage, and
// only persistable templates are accepted.
package policy

import (
	"context"
	"fmt"

	"github.com/HerbHall/netmeter/internal/carrier"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"github.com/HerbHall/netmeter/pkg/template"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Module implements the template policy plugin.
type Module struct {
	logger *zap.Logger
	store  plugin.Store
	bus    plugin.EventBus
	groups carrier.Provider

	templates   *templateStore
	unsubscribe func()
}

// New creates a new policy plugin instance. The carrier provider
// supplies merge groups for normalization; nil disables merging.
func New(groups carrier.Provider) *Module {
	return &Module{groups: groups}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:         "policy",
		Version:      "0.1.0",
		Description:  "Stores accounting templates, normalized against carrier merge groups",
		Dependencies: []string{"carrier"},
		APIVersion:   plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(ctx context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.store = deps.Store
	m.bus = deps.Bus

	if m.store != nil {
		if err := m.store.Migrate(ctx, "policy", migrations()); err != nil {
			return fmt.Errorf("policy migrations: %w", err)
		}
		m.templates = newTemplateStore(m.store)
	}

	m.logger.Info("policy module initialized")
	return nil
}

func (m *Module) Start(_ context.Context) error {
	if m.bus != nil {
		m.unsubscribe = m.bus.Subscribe(carrier.TopicMergeGroupsUpdated, m.onMergeGroupsUpdated)
	}
	m.logger.Info("policy module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.logger.Info("policy module stopped")
	return nil
}

// mergeGroups returns the current merge groups, or nil without a provider.
func (m *Module) mergeGroups() [][]string {
	if m.groups == nil {
		return nil
	}
	return m.groups.Groups()
}

// Register normalizes, validates, and stores a template under the given
// name. The stored template is the normalized form.
func (m *Module) Register(ctx context.Context, name string, t template.Template) (StoredTemplate, error) {
	if m.templates == nil {
		return StoredTemplate{}, ErrStoreUnavailable
	}
	if name == "" {
		return StoredTemplate{}, fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}

	normalized := template.Normalize(t, m.mergeGroups())
	if !normalized.IsPersistable() {
		return StoredTemplate{}, fmt.Errorf("%w: %s", ErrNotPersistable, normalized)
	}

	stored, err := m.templates.Insert(ctx, name, normalized)
	if err != nil {
		return StoredTemplate{}, err
	}

	m.logger.Info("template registered",
		zap.String("id", stored.ID),
		zap.String("name", stored.Name),
		zap.String("template", stored.Template.String()),
	)
	m.publishRegistered(ctx, stored)
	return stored, nil
}

// List returns all stored templates, renormalized against the current
// merge groups.
func (m *Module) List(ctx context.Context) ([]StoredTemplate, error) {
	if m.templates == nil {
		return nil, ErrStoreUnavailable
	}
	return m.templates.List(ctx, m.mergeGroups())
}

// Get returns the stored template with the given ID.
func (m *Module) Get(ctx context.Context, id string) (StoredTemplate, error) {
	if m.templates == nil {
		return StoredTemplate{}, ErrStoreUnavailable
	}
	return m.templates.Get(ctx, id, m.mergeGroups())
}

// Remove deletes the stored template with the given ID.
func (m *Module) Remove(ctx context.Context, id string) error {
	if m.templates == nil {
		return ErrStoreUnavailable
	}
	stored, err := m.templates.Get(ctx, id, nil)
	if err != nil {
		return err
	}
	if err := m.templates.Delete(ctx, id); err != nil {
		return err
	}
	m.logger.Info("template removed", zap.String("id", id), zap.String("name", stored.Name))
	m.publishRemoved(ctx, stored)
	return nil
}

// ActiveTemplates returns the normalized templates for matching.
// Consumed by the classify module via its TemplateSource interface.
func (m *Module) ActiveTemplates(ctx context.Context) ([]template.Template, error) {
	stored, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]template.Template, len(stored))
	for i, s := range stored {
		out[i] = s.Template
	}
	return out, nil
}

// onMergeGroupsUpdated renormalizes stored templates when the carrier
// merge groups change, so stored canonical subscribers track the config.
func (m *Module) onMergeGroupsUpdated(ctx context.Context, event plugin.Event) {
	payload, ok := event.Payload.(carrier.GroupsUpdatedPayload)
	if !ok {
		m.logger.Warn("unexpected payload on merge group update", zap.String("topic", event.Topic))
		return
	}
	if m.templates == nil {
		return
	}

	updated, err := m.templates.Renormalize(ctx, payload.Groups)
	if err != nil {
		m.logger.Error("renormalizing templates after merge group update", zap.Error(err))
		return
	}
	if updated > 0 {
		m.logger.Info("templates renormalized", zap.Int("updated", updated))
	}
}
