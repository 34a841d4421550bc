// Package carrier manages subscriber merge groups for multi-SIM carriers.
// A merge group lists the subscriber IDs a carrier treats as one account;
// other modules use the groups to normalize templates before storage or
// matching.
package carrier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"go.uber.org/zap"
)

// Compile-time interface guards.
var (
	_ plugin.Plugin       = (*Module)(nil)
	_ plugin.Validator    = (*Module)(nil)
	_ plugin.HTTPProvider = (*Module)(nil)
)

// Provider supplies the current merge groups. Consumer modules depend on
// this interface rather than on the concrete Module.
type Provider interface {
	Groups() [][]string
}

// Module implements the carrier merge-group plugin.
type Module struct {
	logger *zap.Logger
	config plugin.Config
	bus    plugin.EventBus

	mu     sync.RWMutex
	groups [][]string
}

// New creates a new carrier plugin instance.
func New() *Module {
	return &Module{}
}

func (m *Module) Info() plugin.PluginInfo {
	return plugin.PluginInfo{
		Name:        "carrier",
		Version:     "0.1.0",
		Description: "Maintains subscriber merge groups used to normalize templates",
		APIVersion:  plugin.APIVersionCurrent,
	}
}

func (m *Module) Init(_ context.Context, deps plugin.Dependencies) error {
	m.logger = deps.Logger
	m.config = deps.Config
	m.bus = deps.Bus

	groups, err := m.loadGroups()
	if err != nil {
		return err
	}
	m.groups = groups

	m.logger.Info("carrier module initialized", zap.Int("merge_groups", len(groups)))
	return nil
}

func (m *Module) Start(_ context.Context) error {
	m.logger.Info("carrier module started")
	return nil
}

func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("carrier module stopped")
	return nil
}

// ValidateConfig implements plugin.Validator.
func (m *Module) ValidateConfig() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return validateGroups(m.groups)
}

// Groups returns a copy of the current merge groups.
func (m *Module) Groups() [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([][]string, len(m.groups))
	for i, g := range m.groups {
		out[i] = append([]string(nil), g...)
	}
	return out
}

// Reload re-reads merge groups from config and publishes an update event.
func (m *Module) Reload(ctx context.Context) error {
	groups, err := m.loadGroups()
	if err != nil {
		return err
	}
	if err := validateGroups(groups); err != nil {
		return err
	}

	m.mu.Lock()
	m.groups = groups
	m.mu.Unlock()

	m.logger.Info("merge groups reloaded", zap.Int("merge_groups", len(groups)))
	m.publishUpdated(ctx, groups)
	return nil
}

// loadGroups parses merge groups from config. Each entry is a
// comma-separated list of subscriber IDs forming one group.
func (m *Module) loadGroups() ([][]string, error) {
	if m.config == nil {
		return nil, nil
	}

	entries := m.config.GetStringSlice("merge_groups")
	groups := make([][]string, 0, len(entries))
	for i, entry := range entries {
		var group []string
		for _, id := range strings.Split(entry, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				return nil, fmt.Errorf("merge_groups[%d]: empty subscriber ID", i)
			}
			group = append(group, id)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// validateGroups rejects empty groups and subscriber IDs that appear in
// more than one group. Membership in two groups would make normalization
// depend on group order.
func validateGroups(groups [][]string) error {
	seen := make(map[string]int)
	for i, g := range groups {
		if len(g) == 0 {
			return fmt.Errorf("merge group %d is empty", i)
		}
		for _, id := range g {
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("subscriber %s appears in merge groups %d and %d",
					netident.ScrubSubscriberID(id), prev, i)
			}
			seen[id] = i
		}
	}
	return nil
}
