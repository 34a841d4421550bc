// Package netident defines the immutable network identity snapshot that
// usage records carry, plus the small attribute types shared with the
// template matcher: network transport types, the OEM-managed bitfield,
// and tri-state boolean filters.
package netident

import "github.com/HerbHall/netmeter/pkg/rat"

// NetworkType identifies the transport of a network. The concrete values
// mirror the legacy connectivity type table so identities produced by
// external samplers can be consumed without translation.
type NetworkType int

const (
	TypeMobile    NetworkType = 0
	TypeWifi      NetworkType = 1
	TypeWiMAX     NetworkType = 6
	TypeBluetooth NetworkType = 7
	TypeEthernet  NetworkType = 9
	TypeWifiP2P   NetworkType = 13
	TypeProxy     NetworkType = 16
)

// String returns the lowercase transport name for logs and API output.
func (t NetworkType) String() string {
	switch t {
	case TypeMobile:
		return "mobile"
	case TypeWifi:
		return "wifi"
	case TypeWiMAX:
		return "wimax"
	case TypeBluetooth:
		return "bluetooth"
	case TypeEthernet:
		return "ethernet"
	case TypeWifiP2P:
		return "wifi_p2p"
	case TypeProxy:
		return "proxy"
	default:
		return "unknown"
	}
}

// OEMManaged is a bitfield of OEM network management properties.
type OEMManaged int

const (
	OEMNone    OEMManaged = 0
	OEMPaid    OEMManaged = 1 << 0
	OEMPrivate OEMManaged = 1 << 1
)

// TriState is a three-valued boolean filter: match everything, require
// false, or require true. The values are fixed for wire stability.
type TriState int

const (
	TriStateAll TriState = -1
	TriStateNo  TriState = 0
	TriStateYes TriState = 1
)

// Matches reports whether the filter accepts the given actual value.
func (s TriState) Matches(actual bool) bool {
	return s == TriStateAll ||
		(s == TriStateYes && actual) ||
		(s == TriStateNo && !actual)
}

// String returns "all", "yes" or "no".
func (s TriState) String() string {
	switch s {
	case TriStateAll:
		return "all"
	case TriStateYes:
		return "yes"
	case TriStateNo:
		return "no"
	default:
		return "invalid"
	}
}

// Identity is a snapshot of one network's classification attributes at
// the time of a usage sample. Identities are plain values: construct one,
// pass it by value, never modify it afterwards.
//
// SubscriberID and SSID use the empty string for "absent". Wi-Fi SSIDs
// are never legitimately empty, so no information is lost.
type Identity struct {
	Type           NetworkType `json:"type"`
	SubscriberID   string      `json:"subscriber_id,omitempty"`
	SSID           string      `json:"ssid,omitempty"`
	Metered        bool        `json:"metered"`
	Roaming        bool        `json:"roaming"`
	DefaultNetwork bool        `json:"default_network"`
	OEMManaged     OEMManaged  `json:"oem_managed"`
	SubType        rat.Code    `json:"sub_type"`
}

// ScrubSubscriberID returns a redacted form of a subscriber id safe for
// logs and API responses: the leading MCC+MNC digits are kept, the rest
// is masked. Empty input stays empty.
func ScrubSubscriberID(subscriberID string) string {
	if subscriberID == "" {
		return ""
	}
	if len(subscriberID) <= 6 {
		return subscriberID + "..."
	}
	return subscriberID[:6] + "..."
}

// ScrubSubscriberIDs scrubs every element of ids. A nil slice stays nil.
func ScrubSubscriberIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = ScrubSubscriberID(id)
	}
	return out
}
