// Package template implements the accounting template: an immutable
// predicate over network identities that the accounting layers use as a
// bucket key for billing, quota, and reporting.
//
// Templates are plain values. Factories and Normalize produce fully
// validated templates; matching never fails and is safe to run
// concurrently from any number of goroutines.
package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/rat"
)

// MatchRule selects which family of networks a template targets. The
// concrete values are fixed for wire stability and must never be reused.
type MatchRule int

const (
	MatchMobile         MatchRule = 1
	MatchWifi           MatchRule = 4
	MatchEthernet       MatchRule = 5
	MatchMobileWildcard MatchRule = 6
	MatchWifiWildcard   MatchRule = 7
	MatchBluetooth      MatchRule = 8
	MatchProxy          MatchRule = 9
	MatchCarrier        MatchRule = 10
)

// String returns the lowercase rule name for logs and API output.
func (r MatchRule) String() string {
	switch r {
	case MatchMobile:
		return "mobile"
	case MatchWifi:
		return "wifi"
	case MatchEthernet:
		return "ethernet"
	case MatchMobileWildcard:
		return "mobile_wildcard"
	case MatchWifiWildcard:
		return "wifi_wildcard"
	case MatchBluetooth:
		return "bluetooth"
	case MatchProxy:
		return "proxy"
	case MatchCarrier:
		return "carrier"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

func (r MatchRule) known() bool {
	switch r {
	case MatchMobile, MatchWifi, MatchEthernet, MatchMobileWildcard,
		MatchWifiWildcard, MatchBluetooth, MatchProxy, MatchCarrier:
		return true
	default:
		return false
	}
}

// SubscriberIDMatchRule defines how a template matches subscriber ids.
type SubscriberIDMatchRule int

const (
	// SubscriberIDMatchExact matches identities whose subscriber id is a
	// member of the template's match set.
	SubscriberIDMatchExact SubscriberIDMatchRule = 0
	// SubscriberIDMatchAll matches any subscriber id, absent included.
	SubscriberIDMatchAll SubscriberIDMatchRule = 1
)

// String returns "exact" or "all".
func (r SubscriberIDMatchRule) String() string {
	switch r {
	case SubscriberIDMatchExact:
		return "exact"
	case SubscriberIDMatchAll:
		return "all"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// OEMFilter filters identities by their OEM-managed bitfield.
type OEMFilter int

const (
	// OEMManagedAll matches both OEM managed and unmanaged networks.
	OEMManagedAll OEMFilter = -1
	// OEMManagedYes matches any OEM managed network.
	OEMManagedYes OEMFilter = -2
	// OEMManagedNo matches networks that are not OEM managed.
	OEMManagedNo OEMFilter = OEMFilter(netident.OEMNone)
	// OEMManagedPaid matches networks managed as OEM paid.
	OEMManagedPaid OEMFilter = OEMFilter(netident.OEMPaid)
	// OEMManagedPrivate matches networks managed as OEM private.
	OEMManagedPrivate OEMFilter = OEMFilter(netident.OEMPrivate)
)

// Matches reports whether the filter accepts the given bitfield. The
// catch-all and any-managed cases are special; everything else requires
// exact bitfield equality.
func (f OEMFilter) Matches(actual netident.OEMManaged) bool {
	return f == OEMManagedAll ||
		(f == OEMManagedYes && actual != netident.OEMNone) ||
		f == OEMFilter(actual)
}

// SSIDAll is the SSID filter sentinel meaning "match any SSID". Real
// SSIDs are never empty, so the empty string is free to carry it.
const SSIDAll = ""

// Construction failures. Matching and normalization never fail; a
// template that exists is always safe to evaluate.
var (
	// ErrInvalidMatchRule is returned when a template is constructed
	// with a match rule outside the known set.
	ErrInvalidMatchRule = errors.New("unknown template match rule")
	// ErrInvalidSubscriberIDMatchRule is returned when a mobile or
	// carrier template is declared subscriber-agnostic. Those rules
	// always target specific subscribers.
	ErrInvalidSubscriberIDMatchRule = errors.New("invalid subscriber id match rule")
)

// Template is an immutable predicate over network identities.
//
// matchSubscriberIDs is the dynamic expansion set for merged-SIM
// accounts. It is deliberately excluded from Equal and Key: the merge
// set changes with carrier configuration and must never leak into a
// persisted or hashed identity.
type Template struct {
	matchRule          MatchRule
	subscriberID       string
	matchSubscriberIDs []string
	ssid               string
	metered            netident.TriState
	roaming            netident.TriState
	defaultNetwork     netident.TriState
	subType            rat.Code
	oemManaged         OEMFilter
	subIDMatchRule     SubscriberIDMatchRule
}

// New builds a template from a match rule, subscriber id, and SSID with
// legacy defaults: the match set is the single given subscriber id, and
// mobile rules default to metered-only for compatibility with callers
// that predate unmetered cellular accounting.
func New(rule MatchRule, subscriberID, ssid string) (Template, error) {
	return NewFull(rule, subscriberID, []string{subscriberID}, ssid,
		legacyMetered(rule), netident.TriStateAll, netident.TriStateAll,
		rat.TypeAll, OEMManagedAll, SubscriberIDMatchExact)
}

// NewFull builds a template from every filter field, validating the rule
// combination. This is the single construction path; factories and
// normalization go through it or produce already-validated values.
func NewFull(rule MatchRule, subscriberID string, matchSubscriberIDs []string,
	ssid string, metered, roaming, defaultNetwork netident.TriState,
	subType rat.Code, oemManaged OEMFilter,
	subIDMatchRule SubscriberIDMatchRule) (Template, error) {

	switch rule {
	case MatchMobile, MatchCarrier:
		if subIDMatchRule == SubscriberIDMatchAll {
			return Template{}, fmt.Errorf("%w: %s templates must target specific subscribers",
				ErrInvalidSubscriberIDMatchRule, rule)
		}
	}
	if !rule.known() {
		return Template{}, fmt.Errorf("%w: %d matches no identity", ErrInvalidMatchRule, int(rule))
	}

	return Template{
		matchRule:          rule,
		subscriberID:       subscriberID,
		matchSubscriberIDs: append([]string(nil), matchSubscriberIDs...),
		ssid:               ssid,
		metered:            metered,
		roaming:            roaming,
		defaultNetwork:     defaultNetwork,
		subType:            subType,
		oemManaged:         oemManaged,
		subIDMatchRule:     subIDMatchRule,
	}, nil
}

// legacyMetered returns the historical default meteredness filter:
// mobile rules originally matched metered networks only.
func legacyMetered(rule MatchRule) netident.TriState {
	if rule == MatchMobile || rule == MatchMobileWildcard {
		return netident.TriStateYes
	}
	return netident.TriStateAll
}

// legacy constructs a template with the legacy defaults for a rule that
// is known at the call site, so validation cannot fail.
func legacy(rule MatchRule, subscriberID, ssid string) Template {
	return Template{
		matchRule:          rule,
		subscriberID:       subscriberID,
		matchSubscriberIDs: []string{subscriberID},
		ssid:               ssid,
		metered:            legacyMetered(rule),
		roaming:            netident.TriStateAll,
		defaultNetwork:     netident.TriStateAll,
		subType:            rat.TypeAll,
		oemManaged:         OEMManagedAll,
		subIDMatchRule:     SubscriberIDMatchExact,
	}
}

// MobileAll matches metered cellular networks with the given subscriber id.
func MobileAll(subscriberID string) Template {
	return legacy(MatchMobile, subscriberID, "")
}

// MobileWithRATType matches cellular networks with the given subscriber
// id, RAT code, and meteredness. Pass rat.TypeAll to include every RAT.
// An empty subscriber id yields a mobile wildcard with the same RAT and
// meteredness filters.
func MobileWithRATType(subscriberID string, ratType rat.Code, metered netident.TriState) Template {
	t := Template{
		matchRule:      MatchMobileWildcard,
		metered:        metered,
		roaming:        netident.TriStateAll,
		defaultNetwork: netident.TriStateAll,
		subType:        ratType,
		oemManaged:     OEMManagedAll,
		subIDMatchRule: SubscriberIDMatchExact,
	}
	if subscriberID != "" {
		t.matchRule = MatchMobile
		t.subscriberID = subscriberID
		t.matchSubscriberIDs = []string{subscriberID}
	}
	return t
}

// MobileWildcard matches metered cellular networks regardless of subscriber.
func MobileWildcard() Template {
	return legacy(MatchMobileWildcard, "", "")
}

// WifiWildcard matches all Wi-Fi networks regardless of SSID.
func WifiWildcard() Template {
	return legacy(MatchWifiWildcard, "", "")
}

// Wifi matches Wi-Fi networks by SSID and subscriber id. Pass SSIDAll to
// match any SSID. An empty subscriber id matches any subscriber,
// including none: carrier-merged Wi-Fi is the only Wi-Fi that carries a
// subscriber id at all.
func Wifi(ssid, subscriberID string) Template {
	t := Template{
		matchRule:          MatchWifi,
		subscriberID:       subscriberID,
		matchSubscriberIDs: []string{subscriberID},
		ssid:               ssid,
		metered:            netident.TriStateAll,
		roaming:            netident.TriStateAll,
		defaultNetwork:     netident.TriStateAll,
		subType:            rat.TypeAll,
		oemManaged:         OEMManagedAll,
		subIDMatchRule:     SubscriberIDMatchExact,
	}
	if subscriberID == "" {
		t.subIDMatchRule = SubscriberIDMatchAll
	}
	return t
}

// Ethernet matches all Ethernet networks.
func Ethernet() Template {
	return legacy(MatchEthernet, "", "")
}

// Bluetooth matches all Bluetooth networks.
func Bluetooth() Template {
	return legacy(MatchBluetooth, "", "")
}

// Proxy matches all proxy networks.
func Proxy() Template {
	return legacy(MatchProxy, "", "")
}

// CarrierMetered matches all metered networks that belong to the carrier
// with the given subscriber id, cellular or not.
//
// An empty subscriber id is accepted rather than rejected: the resulting
// template matches nothing (carrier matching requires an identity with a
// subscriber) and IsPersistable reports false, so it cannot become a
// durable accounting key.
func CarrierMetered(subscriberID string) Template {
	return Template{
		matchRule:          MatchCarrier,
		subscriberID:       subscriberID,
		matchSubscriberIDs: []string{subscriberID},
		metered:            netident.TriStateYes,
		roaming:            netident.TriStateAll,
		defaultNetwork:     netident.TriStateAll,
		subType:            rat.TypeAll,
		oemManaged:         OEMManagedAll,
		subIDMatchRule:     SubscriberIDMatchExact,
	}
}

// MatchRule returns the template's match rule.
func (t Template) MatchRule() MatchRule { return t.matchRule }

// SubscriberID returns the canonical subscriber id, empty if unscoped.
func (t Template) SubscriberID() string { return t.subscriberID }

// MatchSubscriberIDs returns a copy of the dynamic subscriber match set.
func (t Template) MatchSubscriberIDs() []string {
	return append([]string(nil), t.matchSubscriberIDs...)
}

// SSID returns the SSID filter, SSIDAll if any SSID matches.
func (t Template) SSID() string { return t.ssid }

// Meteredness returns the meteredness filter.
func (t Template) Meteredness() netident.TriState { return t.metered }

// Roaming returns the roaming filter.
func (t Template) Roaming() netident.TriState { return t.roaming }

// DefaultNetwork returns the default-network filter.
func (t Template) DefaultNetwork() netident.TriState { return t.defaultNetwork }

// SubType returns the RAT filter, rat.TypeAll if any RAT matches.
func (t Template) SubType() rat.Code { return t.subType }

// OEMManaged returns the OEM-managed filter.
func (t Template) OEMManaged() OEMFilter { return t.oemManaged }

// SubscriberIDMatchRule returns the subscriber id match rule.
func (t Template) SubscriberIDMatchRule() SubscriberIDMatchRule { return t.subIDMatchRule }

// IsMatchRuleMobile reports whether the template targets cellular
// networks, wildcard included.
func (t Template) IsMatchRuleMobile() bool {
	return t.matchRule == MatchMobile || t.matchRule == MatchMobileWildcard
}

// IsPersistable reports whether the template is specific enough to serve
// as a durable accounting key. Wildcards are transient views; a carrier
// template without a subscriber and a Wi-Fi template that pins neither
// SSID nor subscriber would silently merge unrelated accounts' history
// if stored.
func (t Template) IsPersistable() bool {
	switch t.matchRule {
	case MatchMobileWildcard, MatchWifiWildcard:
		return false
	case MatchCarrier:
		return t.subscriberID != ""
	case MatchWifi:
		if t.ssid == SSIDAll && t.subIDMatchRule == SubscriberIDMatchAll {
			return false
		}
		return true
	default:
		return true
	}
}

// Key is the comparable identity of a template, suitable as a map key
// and as a persisted accounting key. It covers every field except the
// dynamic subscriber match set.
type Key struct {
	MatchRule             MatchRule
	SubscriberID          string
	SSID                  string
	Metered               netident.TriState
	Roaming               netident.TriState
	DefaultNetwork        netident.TriState
	SubType               rat.Code
	OEMManaged            OEMFilter
	SubscriberIDMatchRule SubscriberIDMatchRule
}

// Key returns the template's comparable identity.
func (t Template) Key() Key {
	return Key{
		MatchRule:             t.matchRule,
		SubscriberID:          t.subscriberID,
		SSID:                  t.ssid,
		Metered:               t.metered,
		Roaming:               t.roaming,
		DefaultNetwork:        t.defaultNetwork,
		SubType:               t.subType,
		OEMManaged:            t.oemManaged,
		SubscriberIDMatchRule: t.subIDMatchRule,
	}
}

// Equal reports whether two templates have the same identity. The
// subscriber match set is excluded: it is a matching aid, not identity.
func (t Template) Equal(o Template) bool {
	return t.Key() == o.Key()
}

// String returns a log-safe description with scrubbed subscriber ids.
// Filters left at their catch-all value are omitted.
func (t Template) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "template{rule=%s", t.matchRule)
	if t.subscriberID != "" {
		fmt.Fprintf(&b, ", subscriber=%s", netident.ScrubSubscriberID(t.subscriberID))
	}
	if len(t.matchSubscriberIDs) > 0 {
		fmt.Fprintf(&b, ", match_subscribers=%v", netident.ScrubSubscriberIDs(t.matchSubscriberIDs))
	}
	if t.ssid != SSIDAll {
		fmt.Fprintf(&b, ", ssid=%q", t.ssid)
	}
	if t.metered != netident.TriStateAll {
		fmt.Fprintf(&b, ", metered=%s", t.metered)
	}
	if t.roaming != netident.TriStateAll {
		fmt.Fprintf(&b, ", roaming=%s", t.roaming)
	}
	if t.defaultNetwork != netident.TriStateAll {
		fmt.Fprintf(&b, ", default_network=%s", t.defaultNetwork)
	}
	if t.subType != rat.TypeAll {
		fmt.Fprintf(&b, ", sub_type=%s", t.subType)
	}
	if t.oemManaged != OEMManagedAll {
		fmt.Fprintf(&b, ", oem_managed=%d", int(t.oemManaged))
	}
	fmt.Fprintf(&b, ", subscriber_match=%s}", t.subIDMatchRule)
	return b.String()
}
