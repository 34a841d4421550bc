package template

import (
	"slices"

	"github.com/HerbHall/netmeter/pkg/netident"
	"github.com/HerbHall/netmeter/pkg/rat"
)

// Matches reports whether the given identity falls into this template's
// bucket. It is a pure function of the template and the identity.
//
// The common filters are conjuncts applied regardless of match rule; the
// rule-specific predicate runs only after all of them pass.
func (t Template) Matches(ident netident.Identity) bool {
	if !t.metered.Matches(ident.Metered) {
		return false
	}
	if !t.roaming.Matches(ident.Roaming) {
		return false
	}
	if !t.defaultNetwork.Matches(ident.DefaultNetwork) {
		return false
	}
	if !t.oemManaged.Matches(ident.OEMManaged) {
		return false
	}

	switch t.matchRule {
	case MatchMobile:
		return t.matchesMobile(ident)
	case MatchWifi:
		return t.matchesWifi(ident)
	case MatchEthernet:
		return ident.Type == netident.TypeEthernet
	case MatchMobileWildcard:
		return t.matchesMobileWildcard(ident)
	case MatchWifiWildcard:
		return matchesWifiWildcard(ident)
	case MatchBluetooth:
		return ident.Type == netident.TypeBluetooth
	case MatchProxy:
		return ident.Type == netident.TypeProxy
	case MatchCarrier:
		return t.matchesCarrier(ident)
	default:
		// Construction rejects unknown rules, so this is unreachable,
		// but an unknown template must claim to match nothing rather
		// than fail.
		return false
	}
}

// MatchesSubscriberID reports whether the template accepts the given
// subscriber id: always under SubscriberIDMatchAll, otherwise by
// membership in the match set. Absent ids participate as members.
func (t Template) MatchesSubscriberID(subscriberID string) bool {
	return t.subIDMatchRule == SubscriberIDMatchAll ||
		slices.Contains(t.matchSubscriberIDs, subscriberID)
}

func (t Template) matchesCollapsedRATType(ident netident.Identity) bool {
	return t.subType == rat.TypeAll ||
		rat.Collapse(t.subType) == rat.Collapse(ident.SubType)
}

func (t Template) matchesMobile(ident netident.Identity) bool {
	if ident.Type == netident.TypeWiMAX {
		// WiMAX subscriber identity is not modeled; historical behavior
		// folds all WiMAX usage into any mobile bucket.
		return true
	}
	return ident.Type == netident.TypeMobile &&
		len(t.matchSubscriberIDs) > 0 &&
		slices.Contains(t.matchSubscriberIDs, ident.SubscriberID) &&
		t.matchesCollapsedRATType(ident)
}

func (t Template) matchesMobileWildcard(ident netident.Identity) bool {
	if ident.Type == netident.TypeWiMAX {
		return true
	}
	return ident.Type == netident.TypeMobile && t.matchesCollapsedRATType(ident)
}

func (t Template) matchesWifi(ident netident.Identity) bool {
	if ident.Type != netident.TypeWifi {
		return false
	}
	return t.MatchesSubscriberID(ident.SubscriberID) && t.matchesSSID(ident.SSID)
}

func (t Template) matchesSSID(ssid string) bool {
	return t.ssid == SSIDAll ||
		netident.SanitizeSSID(t.ssid) == netident.SanitizeSSID(ssid)
}

func matchesWifiWildcard(ident netident.Identity) bool {
	switch ident.Type {
	case netident.TypeWifi, netident.TypeWifiP2P:
		return true
	default:
		return false
	}
}

func (t Template) matchesCarrier(ident netident.Identity) bool {
	return ident.SubscriberID != "" &&
		len(t.matchSubscriberIDs) > 0 &&
		slices.Contains(t.matchSubscriberIDs, ident.SubscriberID)
}
