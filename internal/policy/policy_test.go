package policy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HerbHall/netmeter/internal/testutil"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"github.com/HerbHall/netmeter/pkg/plugin/plugintest"
	"github.com/HerbHall/netmeter/pkg/template"
	"go.uber.org/zap"
)

func TestContract(t *testing.T) {
	plugintest.TestPluginContract(t, func() plugin.Plugin { return New(nil) })
}

// staticGroups is a fixed carrier.Provider for tests.
type staticGroups [][]string

func (g staticGroups) Groups() [][]string { return g }

func newTestModule(t *testing.T, groups staticGroups) *Module {
	t.Helper()
	m := New(groups)
	deps := plugin.Dependencies{
		Logger: zap.NewNop(),
		Store:  testutil.NewStore(t),
	}
	if err := m.Init(context.Background(), deps); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return m
}

func TestRegisterNormalizes(t *testing.T) {
	m := newTestModule(t, staticGroups{{"subA", "subB"}})
	ctx := context.Background()

	stored, err := m.Register(ctx, "mobile-b", template.MobileAll("subB"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if got := stored.Template.SubscriberID(); got != "subA" {
		t.Errorf("stored subscriber = %q, want canonical %q", got, "subA")
	}
	if got := stored.Template.MatchSubscriberIDs(); len(got) != 2 {
		t.Errorf("match set = %v, want both group members", got)
	}
}

func TestRegisterRejectsNonPersistable(t *testing.T) {
	m := newTestModule(t, nil)
	ctx := context.Background()

	for _, tt := range []struct {
		name string
		tmpl template.Template
	}{
		{"mobile wildcard", template.MobileWildcard()},
		{"wifi wildcard", template.WifiWildcard()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Register(ctx, tt.name, tt.tmpl)
			if !errors.Is(err, ErrNotPersistable) {
				t.Errorf("Register error = %v, want ErrNotPersistable", err)
			}
		})
	}
}

func TestRegisterRequiresName(t *testing.T) {
	m := newTestModule(t, nil)

	_, err := m.Register(context.Background(), "", template.Ethernet())
	if !errors.Is(err, ErrInvalidTemplate) {
		t.Errorf("Register error = %v, want ErrInvalidTemplate", err)
	}
}

func TestRegisterDuplicateAfterNormalization(t *testing.T) {
	m := newTestModule(t, staticGroups{{"subA", "subB"}})
	ctx := context.Background()

	if _, err := m.Register(ctx, "first", template.MobileAll("subA")); err != nil {
		t.Fatalf("Register first: %v", err)
	}

	// subB normalizes to the same canonical template as subA.
	_, err := m.Register(ctx, "second", template.MobileAll("subB"))
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Register alias error = %v, want ErrDuplicate", err)
	}
}

func TestListGetRemove(t *testing.T) {
	m := newTestModule(t, nil)
	ctx := context.Background()

	a, err := m.Register(ctx, "eth", template.Ethernet())
	if err != nil {
		t.Fatalf("Register eth: %v", err)
	}
	if _, err := m.Register(ctx, "wifi", template.Wifi("corp-net", "")); err != nil {
		t.Fatalf("Register wifi: %v", err)
	}

	all, err := m.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("templates = %d, want 2", len(all))
	}

	got, err := m.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Template.Equal(template.Ethernet()) {
		t.Errorf("Get returned %s, want ethernet template", got.Template)
	}

	if err := m.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := m.Get(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Remove error = %v, want ErrNotFound", err)
	}
	if err := m.Remove(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Remove error = %v, want ErrNotFound", err)
	}
}

func TestActiveTemplates(t *testing.T) {
	m := newTestModule(t, nil)
	ctx := context.Background()

	if _, err := m.Register(ctx, "eth", template.Ethernet()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	active, err := m.ActiveTemplates(ctx)
	if err != nil {
		t.Fatalf("ActiveTemplates: %v", err)
	}
	if len(active) != 1 || !active[0].Equal(template.Ethernet()) {
		t.Errorf("active = %v, want [ethernet]", active)
	}
}

func TestStoreUnavailable(t *testing.T) {
	m := New(nil)
	if err := m.Init(context.Background(), plugin.Dependencies{Logger: zap.NewNop()}); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := m.Register(context.Background(), "x", template.Ethernet()); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Register error = %v, want ErrStoreUnavailable", err)
	}
	if _, err := m.List(context.Background()); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("List error = %v, want ErrStoreUnavailable", err)
	}
}

func TestRenormalizeOnMergeGroupUpdate(t *testing.T) {
	m := newTestModule(t, nil)
	ctx := context.Background()

	stored, err := m.Register(ctx, "mobile", template.MobileAll("subB"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := stored.Template.SubscriberID(); got != "subB" {
		t.Fatalf("stored subscriber = %q, want %q", got, "subB")
	}

	updated, err := m.templates.Renormalize(ctx, [][]string{{"subA", "subB"}})
	if err != nil {
		t.Fatalf("Renormalize: %v", err)
	}
	if updated != 1 {
		t.Errorf("updated = %d, want 1", updated)
	}

	got, err := m.templates.Get(ctx, stored.ID, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Template.SubscriberID() != "subA" {
		t.Errorf("subscriber after renormalize = %q, want %q", got.Template.SubscriberID(), "subA")
	}
}

func TestRenormalizeSkipsCollisions(t *testing.T) {
	m := newTestModule(t, nil)
	ctx := context.Background()

	if _, err := m.Register(ctx, "a", template.MobileAll("subA")); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if _, err := m.Register(ctx, "b", template.MobileAll("subB")); err != nil {
		t.Fatalf("Register b: %v", err)
	}

	// Merging subA and subB makes both rows normalize to subA. The second
	// would collide with the first and must be skipped, not fail.
	updated, err := m.templates.Renormalize(ctx, [][]string{{"subA", "subB"}})
	if err != nil {
		t.Fatalf("Renormalize: %v", err)
	}
	if updated != 0 {
		// subA's row is already canonical; subB's collides.
		t.Errorf("updated = %d, want 0", updated)
	}
}

func TestHandleRegisterHTTP(t *testing.T) {
	m := newTestModule(t, staticGroups{{"310260000000000", "310260111111111"}})

	body := `{
		"name": "carrier-plan",
		"template": {
			"match_rule": 1,
			"subscriber_id": "310260111111111",
			"match_subscriber_ids": ["310260111111111"],
			"metered": 1,
			"roaming": -1,
			"default_network": -1,
			"sub_type": -1,
			"oem_managed": -1,
			"subscriber_id_match_rule": 0
		}
	}`
	req := httptest.NewRequest("POST", "/templates", strings.NewReader(body))
	w := httptest.NewRecorder()
	m.handleRegister(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var view map[string]any
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sub, _ := view["subscriber_id"].(string); !strings.HasSuffix(sub, "...") {
		t.Errorf("subscriber_id %q not scrubbed", sub)
	}
	if strings.Contains(w.Body.String(), "310260000000000") {
		t.Error("response leaks full subscriber ID")
	}
}

func TestHandleRegisterHTTP_Invalid(t *testing.T) {
	m := newTestModule(t, nil)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{`, http.StatusBadRequest},
		{"unknown match rule", `{"name":"x","template":{"match_rule":99}}`, http.StatusBadRequest},
		{"not persistable", `{"name":"x","template":{"match_rule":6,"metered":1,"roaming":-1,"default_network":-1,"sub_type":-1,"oem_managed":-1}}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/templates", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			m.handleRegister(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestHandleDeleteHTTP(t *testing.T) {
	m := newTestModule(t, nil)
	stored, err := m.Register(context.Background(), "eth", template.Ethernet())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	mux := http.NewServeMux()
	for _, route := range m.Routes() {
		mux.HandleFunc(route.Method+" "+route.Path, route.Handler)
	}

	req := httptest.NewRequest("DELETE", "/templates/"+stored.ID, http.NoBody)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}

	req = httptest.NewRequest("DELETE", "/templates/"+stored.ID, http.NoBody)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRegisterPublishesEvent(t *testing.T) {
	var events []plugin.Event
	m := New(nil)
	deps := plugin.Dependencies{
		Logger: zap.NewNop(),
		Store:  testutil.NewStore(t),
		Bus:    &captureBus{events: &events},
	}
	if err := m.Init(context.Background(), deps); err != nil {
		t.Fatalf("Init: %v", err)
	}

	stored, err := m.Register(context.Background(), "eth", template.Ethernet())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := m.Remove(context.Background(), stored.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Topic != TopicTemplateRegistered {
		t.Errorf("first topic = %q, want %q", events[0].Topic, TopicTemplateRegistered)
	}
	if events[1].Topic != TopicTemplateRemoved {
		t.Errorf("second topic = %q, want %q", events[1].Topic, TopicTemplateRemoved)
	}
}

// captureBus records published events synchronously.
type captureBus struct {
	events *[]plugin.Event
}

func (b *captureBus) Publish(_ context.Context, e plugin.Event) error {
	*b.events = append(*b.events, e)
	return nil
}

func (b *captureBus) PublishAsync(ctx context.Context, e plugin.Event) {
	_ = b.Publish(ctx, e)
}

func (b *captureBus) Subscribe(_ string, _ plugin.EventHandler) func() { return func() {} }
func (b *captureBus) SubscribeAll(_ plugin.EventHandler) func()        { return func() {} }

func TestStoredTimestampsRoundTrip(t *testing.T) {
	m := newTestModule(t, nil)
	ctx := context.Background()

	before := time.Now().Add(-time.Minute)
	stored, err := m.Register(ctx, "eth", template.Ethernet())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := m.Get(ctx, stored.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.CreatedAt.Before(before) {
		t.Errorf("created_at = %v, implausibly old", got.CreatedAt)
	}
}
