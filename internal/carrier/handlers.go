package carrier

import (
	"encoding/json"
	"net/http"

	"github.com/HerbHall/netmeter/internal/server"
	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/groups", Handler: m.handleListGroups},
		{Method: "POST", Path: "/groups/reload", Handler: m.handleReload},
	}
}

// GroupsResponse lists merge groups with subscriber IDs scrubbed.
type GroupsResponse struct {
	Groups [][]string `json:"groups"`
}

// handleListGroups returns the current merge groups. Subscriber IDs are
// scrubbed: they identify subscribers and must not leave the server whole.
func (m *Module) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	groups := m.Groups()
	scrubbed := make([][]string, len(groups))
	for i, g := range groups {
		scrubbed[i] = netident.ScrubSubscriberIDs(g)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(GroupsResponse{Groups: scrubbed})
}

// handleReload re-reads merge groups from config.
func (m *Module) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := m.Reload(r.Context()); err != nil {
		m.logger.Warn("merge group reload rejected", zap.Error(err))
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"groups": len(m.Groups())})
}
