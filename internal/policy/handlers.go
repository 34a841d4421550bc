package policy

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/HerbHall/netmeter/internal/server"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"github.com/HerbHall/netmeter/pkg/template"
	"go.uber.org/zap"
)

// Routes implements plugin.HTTPProvider.
func (m *Module) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "POST", Path: "/templates", Handler: m.handleRegister},
		{Method: "GET", Path: "/templates", Handler: m.handleList},
		{Method: "GET", Path: "/templates/{id}", Handler: m.handleGet},
		{Method: "DELETE", Path: "/templates/{id}", Handler: m.handleDelete},
	}
}

// RegisterRequest is the body for POST /api/v1/policy/templates.
// Template fields use the wire-stable integer constants.
type RegisterRequest struct {
	Name     string          `json:"name"`
	Template template.Fields `json:"template"`
}

func (m *Module) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		server.BadRequest(w, "invalid JSON body", r.URL.Path)
		return
	}

	t, err := template.FromFields(req.Template)
	if err != nil {
		server.BadRequest(w, err.Error(), r.URL.Path)
		return
	}

	stored, err := m.Register(r.Context(), req.Name, t)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidTemplate), errors.Is(err, ErrNotPersistable):
			server.BadRequest(w, err.Error(), r.URL.Path)
		case errors.Is(err, ErrDuplicate):
			server.Conflict(w, err.Error(), r.URL.Path)
		default:
			m.logger.Error("registering template", zap.Error(err))
			server.InternalError(w, "failed to register template", r.URL.Path)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(viewOf(stored))
}

func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	stored, err := m.List(r.Context())
	if err != nil {
		m.logger.Error("listing templates", zap.Error(err))
		server.InternalError(w, "failed to list templates", r.URL.Path)
		return
	}

	views := make([]templateView, 0, len(stored))
	for _, st := range stored {
		views = append(views, viewOf(st))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(views)
}

func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	stored, err := m.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			server.NotFound(w, err.Error(), r.URL.Path)
			return
		}
		m.logger.Error("fetching template", zap.String("id", id), zap.Error(err))
		server.InternalError(w, "failed to fetch template", r.URL.Path)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(viewOf(stored))
}

func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := m.Remove(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			server.NotFound(w, err.Error(), r.URL.Path)
			return
		}
		m.logger.Error("deleting template", zap.String("id", id), zap.Error(err))
		server.InternalError(w, "failed to delete template", r.URL.Path)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
