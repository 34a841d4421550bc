package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/plugin"
	"github.com/HerbHall/netmeter/pkg/template"
	"github.com/google/uuid"
)

// Sentinel errors for template storage.
var (
	ErrStoreUnavailable = errors.New("template store unavailable")
	ErrInvalidTemplate  = errors.New("invalid template")
	ErrNotPersistable   = errors.New("template is not persistable")
	ErrDuplicate        = errors.New("equivalent template already registered")
	ErrNotFound         = errors.New("template not found")
)

// StoredTemplate is a registered template with storage metadata.
type StoredTemplate struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Template  template.Template `json:"-"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// templateStore persists templates in the shared SQLite database.
// The match set is never stored: it derives from the carrier merge
// groups and is rebuilt by renormalizing on load.
type templateStore struct {
	store plugin.Store
}

func newTemplateStore(store plugin.Store) *templateStore {
	return &templateStore{store: store}
}

const templateColumns = `id, name, match_rule, subscriber_id, ssid, metered,
	roaming, default_net, sub_type, oem_managed, sub_id_rule, created_at, updated_at`

// Insert stores a normalized template under a fresh UUID.
func (s *templateStore) Insert(ctx context.Context, name string, t template.Template) (StoredTemplate, error) {
	f := t.Fields()
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.store.DB().ExecContext(ctx, `
		INSERT INTO policy_templates
			(id, name, match_rule, subscriber_id, ssid, metered, roaming,
			 default_net, sub_type, oem_managed, sub_id_rule, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, f.MatchRule, f.SubscriberID, f.SSID, f.Metered, f.Roaming,
		f.DefaultNetwork, f.SubType, f.OEMManaged, f.SubscriberIDMatchRule, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return StoredTemplate{}, fmt.Errorf("%w: %s", ErrDuplicate, t)
		}
		return StoredTemplate{}, fmt.Errorf("insert template: %w", err)
	}

	return StoredTemplate{ID: id, Name: name, Template: t, CreatedAt: now, UpdatedAt: now}, nil
}

// List returns all stored templates renormalized against the given groups.
func (s *templateStore) List(ctx context.Context, groups [][]string) ([]StoredTemplate, error) {
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT `+templateColumns+` FROM policy_templates ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []StoredTemplate
	for rows.Next() {
		st, err := scanTemplate(rows, groups)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Get returns the stored template with the given ID.
func (s *templateStore) Get(ctx context.Context, id string, groups [][]string) (StoredTemplate, error) {
	row := s.store.DB().QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM policy_templates WHERE id = ?`, id)

	st, err := scanTemplate(row, groups)
	if errors.Is(err, sql.ErrNoRows) {
		return StoredTemplate{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return st, err
}

// Delete removes the stored template with the given ID.
func (s *templateStore) Delete(ctx context.Context, id string) error {
	res, err := s.store.DB().ExecContext(ctx, `DELETE FROM policy_templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Renormalize rewrites stored rows whose canonical subscriber changes
// under the given merge groups. Rows whose normalized form collides with
// an existing row are left untouched. Returns the number updated.
func (s *templateStore) Renormalize(ctx context.Context, groups [][]string) (int, error) {
	stored, err := s.List(ctx, nil)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, st := range stored {
		normalized := template.Normalize(st.Template, groups)
		if normalized.Equal(st.Template) {
			continue
		}
		f := normalized.Fields()
		err := s.store.Tx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				UPDATE policy_templates
				SET subscriber_id = ?, metered = ?, roaming = ?, default_net = ?,
				    sub_type = ?, oem_managed = ?, sub_id_rule = ?, updated_at = ?
				WHERE id = ?`,
				f.SubscriberID, f.Metered, f.Roaming, f.DefaultNetwork,
				f.SubType, f.OEMManaged, f.SubscriberIDMatchRule, time.Now().UTC(), st.ID)
			return err
		})
		if err != nil {
			if isUniqueViolation(err) {
				continue
			}
			return updated, fmt.Errorf("renormalize template %s: %w", st.ID, err)
		}
		updated++
	}
	return updated, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner, groups [][]string) (StoredTemplate, error) {
	var (
		st StoredTemplate
		f  template.Fields
	)
	err := row.Scan(&st.ID, &st.Name, &f.MatchRule, &f.SubscriberID, &f.SSID,
		&f.Metered, &f.Roaming, &f.DefaultNetwork, &f.SubType, &f.OEMManaged,
		&f.SubscriberIDMatchRule, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return StoredTemplate{}, err
	}

	// The match set is not persisted. Rebuild the single-subscriber form
	// and let normalization widen it to the merge group. Subscriber-exact
	// rules keyed to an absent subscriber get the absent member back.
	if f.SubscriberID != "" || f.SubscriberIDMatchRule == int(template.SubscriberIDMatchExact) {
		f.MatchSubscriberIDs = []string{f.SubscriberID}
	}

	t, err := template.FromFields(f)
	if err != nil {
		return StoredTemplate{}, fmt.Errorf("stored template %s is invalid: %w", st.ID, err)
	}
	st.Template = template.Normalize(t, groups)
	return st, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// templateView is the JSON shape returned by the HTTP handlers.
// Subscriber IDs are scrubbed before leaving the server.
type templateView struct {
	ID                    string   `json:"id"`
	Name                  string   `json:"name"`
	MatchRule             string   `json:"match_rule"`
	SubscriberID          string   `json:"subscriber_id,omitempty"`
	MatchSubscriberIDs    []string `json:"match_subscriber_ids,omitempty"`
	SSID                  string   `json:"ssid,omitempty"`
	Metered               int      `json:"metered"`
	Roaming               int      `json:"roaming"`
	DefaultNetwork        int      `json:"default_network"`
	SubType               string   `json:"sub_type"`
	OEMManaged            int      `json:"oem_managed"`
	SubscriberIDMatchRule string   `json:"subscriber_id_match_rule"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func viewOf(st StoredTemplate) templateView {
	t := st.Template
	scrubbedSub := ""
	if t.SubscriberID() != "" {
		scrubbedSub = netident.ScrubSubscriberID(t.SubscriberID())
	}
	return templateView{
		ID:                    st.ID,
		Name:                  st.Name,
		MatchRule:             t.MatchRule().String(),
		SubscriberID:          scrubbedSub,
		MatchSubscriberIDs:    netident.ScrubSubscriberIDs(t.MatchSubscriberIDs()),
		SSID:                  t.SSID(),
		Metered:               int(t.Meteredness()),
		Roaming:               int(t.Roaming()),
		DefaultNetwork:        int(t.DefaultNetwork()),
		SubType:               t.SubType().String(),
		OEMManaged:            int(t.OEMManaged()),
		SubscriberIDMatchRule: t.SubscriberIDMatchRule().String(),
		CreatedAt:             st.CreatedAt,
		UpdatedAt:             st.UpdatedAt,
	}
}
