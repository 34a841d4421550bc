package template

import (
	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/rat"
)

// Fields is the flat, order-independent field list of a template, for
// external layers that serialize templates across process or storage
// boundaries. The integer values are the wire-stable constants; the
// match set is carried for completeness but is not part of identity and
// must not be persisted as such.
type Fields struct {
	MatchRule             int      `json:"match_rule"`
	SubscriberID          string   `json:"subscriber_id,omitempty"`
	MatchSubscriberIDs    []string `json:"match_subscriber_ids,omitempty"`
	SSID                  string   `json:"ssid,omitempty"`
	Metered               int      `json:"metered"`
	Roaming               int      `json:"roaming"`
	DefaultNetwork        int      `json:"default_network"`
	SubType               int      `json:"sub_type"`
	OEMManaged            int      `json:"oem_managed"`
	SubscriberIDMatchRule int      `json:"subscriber_id_match_rule"`
}

// Fields returns the template's serializable field list.
func (t Template) Fields() Fields {
	return Fields{
		MatchRule:             int(t.matchRule),
		SubscriberID:          t.subscriberID,
		MatchSubscriberIDs:    append([]string(nil), t.matchSubscriberIDs...),
		SSID:                  t.ssid,
		Metered:               int(t.metered),
		Roaming:               int(t.roaming),
		DefaultNetwork:        int(t.defaultNetwork),
		SubType:               int(t.subType),
		OEMManaged:            int(t.oemManaged),
		SubscriberIDMatchRule: int(t.subIDMatchRule),
	}
}

// FromFields rebuilds a template from its serialized field list,
// applying the same validation as construction.
func FromFields(f Fields) (Template, error) {
	return NewFull(
		MatchRule(f.MatchRule),
		f.SubscriberID,
		f.MatchSubscriberIDs,
		f.SSID,
		netident.TriState(f.Metered),
		netident.TriState(f.Roaming),
		netident.TriState(f.DefaultNetwork),
		rat.Code(f.SubType),
		OEMFilter(f.OEMManaged),
		SubscriberIDMatchRule(f.SubscriberIDMatchRule),
	)
}
