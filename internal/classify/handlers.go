package classify

import (
	"encoding/json"
	"net/http"

	"github.com/HerbHall/netmeter/internal/server"
	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/plugin"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/classify", Handler: m.handleClassify},
	}
}

// ClassifyResponse reports the classification outcome. The template is
// its display form with subscriber IDs scrubbed.
type ClassifyResponse struct {
	Matched   bool   `json:"matched"`
	MatchRule string `json:"match_rule,omitempty"`
	Template  string `json:"template,omitempty"`
	Total     int    `json:"total"`
}

func (m *Module) handleClassify(w http.ResponseWriter, r *http.Request) {
	var ident netident.Identity
	if err := json.NewDecoder(r.Body).Decode(&ident); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}

	res := m.Classify(ident)

	resp := ClassifyResponse{Matched: res.Matched != nil, Total: res.Total}
	if res.Matched != nil {
		resp.MatchRule = res.Matched.MatchRule().String()
		resp.Template = res.Matched.String()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
